package cron

import (
	"testing"
	"time"

	"github.com/fittrack-app/backend/internal/domain"
	"github.com/fittrack-app/backend/internal/entity"
	"github.com/fittrack-app/backend/internal/repository"
	"github.com/fittrack-app/backend/pkg/testutil"
	"github.com/fittrack-app/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

func Test_DrawingLifecycleCronJob(t *testing.T) {
	ctx := testutil.MockContext()
	drawingRepo := repository.NewDrawingRepository()
	executor := domain.NewDrawingExecutorDomain(
		drawingRepo,
		repository.NewTicketRepository(),
		repository.NewExecutionRepository(),
		repository.NewFulfillmentRepository(),
	)
	job := NewDrawingLifecycleCronJob(drawingRepo, executor, time.Minute)

	now := time.Now()

	// Scheduled and past its open time: should open.
	opening := testutil.CreateFixtureDrawing(ctx, entity.DrawingScheduled, 1)

	// Open and past its close time: should close, and with the draw time
	// also past, execute in the same pass.
	closing := testutil.CreateFixtureDrawing(ctx, entity.DrawingOpen, 1)
	err := xcontext.DB(ctx).Model(closing).Updates(map[string]any{
		"close_time": now.Add(-time.Minute),
		"draw_time":  now.Add(-time.Minute),
	}).Error
	require.NoError(t, err)

	// Scheduled but not yet due: must stay untouched.
	waiting := testutil.CreateFixtureDrawing(ctx, entity.DrawingScheduled, 1)
	err = xcontext.DB(ctx).Model(waiting).Update("open_time", now.Add(time.Hour)).Error
	require.NoError(t, err)

	job.Do(ctx)

	got, err := drawingRepo.GetByID(ctx, opening.ID)
	require.NoError(t, err)
	require.Equal(t, entity.DrawingOpen, got.Status)

	got, err = drawingRepo.GetByID(ctx, closing.ID)
	require.NoError(t, err)
	require.Equal(t, entity.DrawingCompleted, got.Status)

	got, err = drawingRepo.GetByID(ctx, waiting.ID)
	require.NoError(t, err)
	require.Equal(t, entity.DrawingScheduled, got.Status)
}
