package domain

import (
	"testing"
	"time"

	"github.com/fittrack-app/backend/internal/entity"
	"github.com/fittrack-app/backend/internal/model"
	"github.com/fittrack-app/backend/internal/repository"
	"github.com/fittrack-app/backend/pkg/errorx"
	"github.com/fittrack-app/backend/pkg/testutil"
	"github.com/fittrack-app/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func newDrawingDomain() *drawingDomain {
	return NewDrawingDomain(
		repository.NewDrawingRepository(),
		repository.NewTicketRepository(),
		repository.NewExecutionRepository(),
	)
}

func Test_drawingDomain_Create(t *testing.T) {
	ctx := testutil.MockContext()
	d := newDrawingDomain()
	now := time.Now()

	resp, err := d.Create(ctx, &model.CreateDrawingRequest{
		Name:        "Weekly prize",
		Type:        "weekly",
		WinnerCount: 2,
		OpenTime:    now,
		CloseTime:   now.Add(time.Hour),
		DrawTime:    now.Add(time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, "draft", resp.Drawing.Status)

	// The ticket cost comes from the type, not the request.
	require.Equal(t, int64(500), resp.Drawing.TicketCost)
}

func Test_drawingDomain_Create_InvalidSchedule(t *testing.T) {
	ctx := testutil.MockContext()
	d := newDrawingDomain()
	now := time.Now()

	_, err := d.Create(ctx, &model.CreateDrawingRequest{
		Name:        "Backwards",
		Type:        "daily",
		WinnerCount: 1,
		OpenTime:    now.Add(time.Hour),
		CloseTime:   now,
		DrawTime:    now,
	})
	require.Error(t, err)

	_, err = d.Create(ctx, &model.CreateDrawingRequest{
		Name:        "Bad type",
		Type:        "hourly",
		WinnerCount: 1,
		OpenTime:    now,
		CloseTime:   now.Add(time.Hour),
		DrawTime:    now.Add(time.Hour),
	})
	require.Error(t, err)
}

func Test_drawingDomain_Lifecycle(t *testing.T) {
	ctx := testutil.MockContext()
	d := newDrawingDomain()
	drawing := testutil.CreateFixtureDrawing(ctx, entity.DrawingDraft, 1)

	_, err := d.Schedule(ctx, &model.ScheduleDrawingRequest{DrawingID: drawing.ID})
	require.NoError(t, err)

	_, err = d.Open(ctx, &model.OpenDrawingRequest{DrawingID: drawing.ID})
	require.NoError(t, err)

	// Opening twice is an invalid transition.
	_, err = d.Open(ctx, &model.OpenDrawingRequest{DrawingID: drawing.ID})
	require.Error(t, err)

	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.InvalidDrawingState, errx.Code)

	_, err = d.Close(ctx, &model.CloseDrawingRequest{DrawingID: drawing.ID})
	require.NoError(t, err)

	resp, err := d.Get(ctx, &model.GetDrawingRequest{DrawingID: drawing.ID})
	require.NoError(t, err)
	require.Equal(t, "closed", resp.Drawing.Status)
}

func Test_drawingDomain_Cancel_PurchasesStayFinal(t *testing.T) {
	ctx := testutil.MockContext()
	d := newDrawingDomain()
	ticketDomain := newTicketDomain()

	user := testutil.CreateFixtureUser(ctx, 1000)
	drawing := testutil.CreateFixtureDrawing(ctx, entity.DrawingOpen, 1)
	buyCtx := xcontext.WithRequestUserID(ctx, user.ID)

	_, err := ticketDomain.Buy(buyCtx, &model.BuyTicketsRequest{
		DrawingID: drawing.ID,
		Quantity:  3,
	})
	require.NoError(t, err)

	_, err = d.Cancel(ctx, &model.CancelDrawingRequest{
		DrawingID: drawing.ID,
		Reason:    "prize unavailable",
	})
	require.NoError(t, err)

	got, err := repository.NewDrawingRepository().GetByID(ctx, drawing.ID)
	require.NoError(t, err)
	require.Equal(t, entity.DrawingCancelled, got.Status)

	// Cancelling is a status transition only. The spent points stay spent
	// and the sold tickets stay on the books.
	current, err := repository.NewUserRepository(nil).GetCurrent(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, int64(700), current.PointsBalance)
	require.Equal(t, int64(1000), current.PointsEarned)

	count, err := repository.NewTicketRepository().CountByDrawing(ctx, drawing.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), count)

	// No credit entry appeared next to the spend.
	entries, err := repository.NewLedgerRepository().GetByUserID(ctx, user.ID, 0, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, entity.EntrySpend, entries[0].Kind)
}

func Test_drawingDomain_Cancel_CompletedIsImmutable(t *testing.T) {
	ctx := testutil.MockContext()
	d := newDrawingDomain()
	drawing := testutil.CreateFixtureDrawing(ctx, entity.DrawingCompleted, 1)

	_, err := d.Cancel(ctx, &model.CancelDrawingRequest{DrawingID: drawing.ID})
	require.Error(t, err)

	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.ImmutableResult, errx.Code)
}
