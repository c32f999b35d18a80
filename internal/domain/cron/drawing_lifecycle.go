package cron

import (
	"context"
	"time"

	"github.com/fittrack-app/backend/internal/domain"
	"github.com/fittrack-app/backend/internal/entity"
	"github.com/fittrack-app/backend/internal/model"
	"github.com/fittrack-app/backend/internal/repository"
	"github.com/fittrack-app/backend/pkg/xcontext"
)

// DrawingLifecycleCronJob moves drawings along their schedule: scheduled
// drawings open at open time, open ones close at close time, and closed
// ones past draw time get executed.
type DrawingLifecycleCronJob struct {
	drawingRepo repository.DrawingRepository
	executor    domain.DrawingExecutorDomain
	interval    time.Duration
}

func NewDrawingLifecycleCronJob(
	drawingRepo repository.DrawingRepository,
	executor domain.DrawingExecutorDomain,
	interval time.Duration,
) *DrawingLifecycleCronJob {
	return &DrawingLifecycleCronJob{
		drawingRepo: drawingRepo,
		executor:    executor,
		interval:    interval,
	}
}

func (job *DrawingLifecycleCronJob) Do(ctx context.Context) {
	now := time.Now()

	scheduled, err := job.drawingRepo.GetByStatus(ctx, entity.DrawingScheduled)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get scheduled drawings: %v", err)
		return
	}

	for _, drawing := range scheduled {
		if now.Before(drawing.OpenTime) {
			continue
		}

		err := job.drawingRepo.UpdateStatus(ctx, drawing.ID,
			entity.DrawingScheduled, entity.DrawingOpen)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot open drawing %s: %v", drawing.ID, err)
		}
	}

	open, err := job.drawingRepo.GetByStatus(ctx, entity.DrawingOpen)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get open drawings: %v", err)
		return
	}

	for _, drawing := range open {
		if now.Before(drawing.CloseTime) {
			continue
		}

		err := job.drawingRepo.UpdateStatus(ctx, drawing.ID,
			entity.DrawingOpen, entity.DrawingClosed)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot close drawing %s: %v", drawing.ID, err)
		}
	}

	closed, err := job.drawingRepo.GetByStatus(ctx, entity.DrawingClosed)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get closed drawings: %v", err)
		return
	}

	for _, drawing := range closed {
		if now.Before(drawing.DrawTime) {
			continue
		}

		_, err := job.executor.Execute(ctx, &model.ExecuteDrawingRequest{DrawingID: drawing.ID})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot execute drawing %s: %v", drawing.ID, err)
		}
	}
}

func (job *DrawingLifecycleCronJob) RunNow() bool {
	return true
}

func (job *DrawingLifecycleCronJob) Next() time.Time {
	return time.Now().Add(job.interval)
}
