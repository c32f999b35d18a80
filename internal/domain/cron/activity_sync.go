package cron

import (
	"context"
	"errors"
	"time"

	"github.com/fittrack-app/backend/internal/domain"
	"github.com/fittrack-app/backend/internal/domain/provider"
	"github.com/fittrack-app/backend/internal/repository"
	"github.com/fittrack-app/backend/pkg/errorx"
	"github.com/fittrack-app/backend/pkg/xcontext"
)

// syncLookback bounds how far back a sync pulls. Providers backfill late
// records, so the window overlaps previous runs and relies on external-id
// dedup.
const syncLookback = 48 * time.Hour

// ActivitySyncCronJob pulls activities from every registered provider and
// awards points for the ones not seen before.
type ActivitySyncCronJob struct {
	userRepo     repository.UserRepository
	pointsDomain domain.PointsDomain
	interval     time.Duration
}

func NewActivitySyncCronJob(
	userRepo repository.UserRepository,
	pointsDomain domain.PointsDomain,
	interval time.Duration,
) *ActivitySyncCronJob {
	return &ActivitySyncCronJob{
		userRepo:     userRepo,
		pointsDomain: pointsDomain,
		interval:     interval,
	}
}

func (job *ActivitySyncCronJob) Do(ctx context.Context) {
	users, err := job.userRepo.GetAll(ctx)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get users to sync: %v", err)
		return
	}

	since := time.Now().Add(-syncLookback)
	for _, source := range provider.All() {
		for _, user := range users {
			job.syncUser(ctx, source, user.ID, since)
		}
	}
}

func (job *ActivitySyncCronJob) syncUser(
	ctx context.Context, source provider.ActivitySource, userID string, since time.Time,
) {
	activities, err := source.FetchActivities(ctx, userID, since)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot fetch %s activities of user %s: %v",
			source.Name(), userID, err)
		return
	}

	for i := range activities {
		req := activities[i]
		req.UserID = userID
		req.Provider = source.Name()

		_, err := job.pointsDomain.AwardActivity(ctx, &req)
		if err != nil {
			var errx errorx.Error
			if errors.As(err, &errx) && errx.Code == errorx.AlreadyExists {
				continue
			}

			xcontext.Logger(ctx).Errorf("Cannot award activity %s of user %s: %v",
				req.ExternalID, userID, err)
		}
	}
}

func (job *ActivitySyncCronJob) RunNow() bool {
	return false
}

func (job *ActivitySyncCronJob) Next() time.Time {
	return time.Now().Add(job.interval)
}
