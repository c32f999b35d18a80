package domain

import (
	"context"
	"testing"
	"time"

	"github.com/fittrack-app/backend/internal/entity"
	"github.com/fittrack-app/backend/internal/model"
	"github.com/fittrack-app/backend/internal/repository"
	"github.com/fittrack-app/backend/pkg/crypto"
	"github.com/fittrack-app/backend/pkg/errorx"
	"github.com/fittrack-app/backend/pkg/idutil"
	"github.com/fittrack-app/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func newExecutorDomain() *drawingExecutorDomain {
	return NewDrawingExecutorDomain(
		repository.NewDrawingRepository(),
		repository.NewTicketRepository(),
		repository.NewExecutionRepository(),
		repository.NewFulfillmentRepository(),
	)
}

func sellTickets(
	t *testing.T, ctx context.Context, drawingID string, users []*entity.User, each int,
) []*entity.Ticket {
	ticketRepo := repository.NewTicketRepository()

	tickets := []*entity.Ticket{}
	for _, user := range users {
		for i := 0; i < each; i++ {
			tickets = append(tickets, &entity.Ticket{
				SnowFlakeBase: entity.SnowFlakeBase{ID: idutil.Next()},
				DrawingID:     drawingID,
				UserID:        user.ID,
			})
		}
	}

	require.NoError(t, ticketRepo.CreateAll(ctx, tickets))
	return tickets
}

func Test_drawingExecutorDomain_Execute(t *testing.T) {
	ctx := testutil.MockContext()
	d := newExecutorDomain()

	drawing := testutil.CreateFixtureDrawing(ctx, entity.DrawingClosed, 2)
	users := []*entity.User{
		testutil.CreateFixtureUser(ctx, 0),
		testutil.CreateFixtureUser(ctx, 0),
		testutil.CreateFixtureUser(ctx, 0),
	}
	sellTickets(t, ctx, drawing.ID, users, 2)

	resp, err := d.Execute(ctx, &model.ExecuteDrawingRequest{DrawingID: drawing.ID})
	require.NoError(t, err)
	require.Len(t, resp.Winners, 2)

	// The response carries the full verifiable record.
	require.Equal(t, 6, resp.TicketCount)
	require.Len(t, resp.RandomSeed, 64)
	require.Equal(t, crypto.SelectionAlgorithmV1, resp.AlgorithmVersion)
	require.Len(t, resp.WinningNumbers, 2)
	require.False(t, resp.ExecutedAt.IsZero())

	// The drawing is completed and the execution record is verifiable.
	drawingRepo := repository.NewDrawingRepository()
	completed, err := drawingRepo.GetByID(ctx, drawing.ID)
	require.NoError(t, err)
	require.Equal(t, entity.DrawingCompleted, completed.Status)
	require.True(t, completed.ExecutedAt.Valid)

	executionRepo := repository.NewExecutionRepository()
	execution, err := executionRepo.GetByDrawingID(ctx, drawing.ID)
	require.NoError(t, err)
	require.Equal(t, 6, execution.TicketCount)
	require.Equal(t, crypto.SelectionAlgorithmV1, execution.AlgorithmVersion)
	require.Len(t, execution.RandomSeed, 64)
	require.Equal(t, completed.SeedRef, execution.RandomSeed)

	// Replaying the seed yields exactly the recorded numbers.
	replayed, err := crypto.WinningNumbers(execution.RandomSeed, 6, 2)
	require.NoError(t, err)
	require.Equal(t, []int(execution.WinningNumbers), replayed)

	// Each winner has a pending fulfillment.
	fulfillmentRepo := repository.NewFulfillmentRepository()
	for _, winner := range resp.Winners {
		f, err := fulfillmentRepo.GetByTicketID(ctx, winner.ID)
		require.NoError(t, err)
		require.Equal(t, entity.FulfillmentPending, f.Status)
		require.Equal(t, winner.UserID, f.UserID)
	}
}

func Test_drawingExecutorDomain_Execute_Idempotent(t *testing.T) {
	ctx := testutil.MockContext()
	d := newExecutorDomain()

	drawing := testutil.CreateFixtureDrawing(ctx, entity.DrawingClosed, 1)
	users := []*entity.User{
		testutil.CreateFixtureUser(ctx, 0),
		testutil.CreateFixtureUser(ctx, 0),
	}
	sellTickets(t, ctx, drawing.ID, users, 3)

	first, err := d.Execute(ctx, &model.ExecuteDrawingRequest{DrawingID: drawing.ID})
	require.NoError(t, err)
	require.Len(t, first.Winners, 1)

	second, err := d.Execute(ctx, &model.ExecuteDrawingRequest{DrawingID: drawing.ID})
	require.NoError(t, err)
	require.Len(t, second.Winners, 1)
	require.Equal(t, first.Winners[0].ID, second.Winners[0].ID)

	// Both calls report the same execution record, not just the same
	// winners.
	require.Equal(t, first.RandomSeed, second.RandomSeed)
	require.Equal(t, first.AlgorithmVersion, second.AlgorithmVersion)
	require.Equal(t, first.WinningNumbers, second.WinningNumbers)
	require.Equal(t, first.TicketCount, second.TicketCount)
	require.WithinDuration(t, first.ExecutedAt, second.ExecutedAt, time.Second)

	// Still exactly one fulfillment.
	f, err := repository.NewFulfillmentRepository().GetByStatus(ctx, entity.FulfillmentPending)
	require.NoError(t, err)
	require.Len(t, f, 1)
}

func Test_drawingExecutorDomain_Execute_RecoveryReusesRecord(t *testing.T) {
	ctx := testutil.MockContext()
	d := newExecutorDomain()

	drawing := testutil.CreateFixtureDrawing(ctx, entity.DrawingClosed, 1)
	users := []*entity.User{
		testutil.CreateFixtureUser(ctx, 0),
		testutil.CreateFixtureUser(ctx, 0),
		testutil.CreateFixtureUser(ctx, 0),
	}
	tickets := sellTickets(t, ctx, drawing.ID, users, 1)

	// Simulate a crash after the execution record was written but before
	// any winner was marked: seed and numbers already exist.
	seed, err := crypto.NewSeed()
	require.NoError(t, err)

	executionRepo := repository.NewExecutionRepository()
	created, err := executionRepo.Create(ctx, &entity.DrawingExecution{
		DrawingID:        drawing.ID,
		TicketCount:      3,
		RandomSeed:       seed,
		AlgorithmVersion: crypto.SelectionAlgorithmV1,
		WinningNumbers:   []int{2},
		ExecutedAt:       time.Now(),
	})
	require.NoError(t, err)
	require.True(t, created)

	resp, err := d.Execute(ctx, &model.ExecuteDrawingRequest{DrawingID: drawing.ID})
	require.NoError(t, err)
	require.Len(t, resp.Winners, 1)

	// The retry applied the persisted record: ticket 2 in purchase order.
	require.Equal(t, tickets[1].ID, resp.Winners[0].ID)
	require.Equal(t, 2, resp.Winners[0].SequenceNumber)
}

func Test_drawingExecutorDomain_Execute_NoTickets(t *testing.T) {
	ctx := testutil.MockContext()
	d := newExecutorDomain()
	drawing := testutil.CreateFixtureDrawing(ctx, entity.DrawingClosed, 1)

	resp, err := d.Execute(ctx, &model.ExecuteDrawingRequest{DrawingID: drawing.ID})
	require.NoError(t, err)
	require.Empty(t, resp.Winners)

	completed, err := repository.NewDrawingRepository().GetByID(ctx, drawing.ID)
	require.NoError(t, err)
	require.Equal(t, entity.DrawingCompleted, completed.Status)
}

func Test_drawingExecutorDomain_Execute_InvalidState(t *testing.T) {
	ctx := testutil.MockContext()
	d := newExecutorDomain()
	drawing := testutil.CreateFixtureDrawing(ctx, entity.DrawingDraft, 1)

	_, err := d.Execute(ctx, &model.ExecuteDrawingRequest{DrawingID: drawing.ID})
	require.Error(t, err)

	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, errorx.InvalidDrawingState, errx.Code)
}
