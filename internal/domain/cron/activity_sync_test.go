package cron

import (
	"context"
	"testing"
	"time"

	"github.com/fittrack-app/backend/internal/domain"
	"github.com/fittrack-app/backend/internal/domain/provider"
	"github.com/fittrack-app/backend/internal/model"
	"github.com/fittrack-app/backend/internal/repository"
	"github.com/fittrack-app/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	name       string
	activities []model.AwardActivityRequest
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) FetchActivities(
	ctx context.Context, userID string, since time.Time,
) ([]model.AwardActivityRequest, error) {
	return s.activities, nil
}

func Test_ActivitySyncCronJob(t *testing.T) {
	ctx := testutil.MockContext()
	userRepo := repository.NewUserRepository(nil)
	pointsDomain := domain.NewPointsDomain(
		userRepo,
		repository.NewLedgerRepository(),
		repository.NewActivityRepository(),
		nil,
	)
	job := NewActivitySyncCronJob(userRepo, pointsDomain, time.Minute)

	user := testutil.CreateFixtureUser(ctx, 0)

	provider.Register(&stubSource{
		name: "stubwatch",
		activities: []model.AwardActivityRequest{
			{
				ExternalID: "sync-1",
				Type:       "steps",
				StartedAt:  time.Now(),
				Metrics:    map[string]any{"steps": float64(4000)},
			},
			{
				ExternalID: "sync-2",
				Type:       "active_minutes",
				StartedAt:  time.Now(),
				DurationMinutes: 20,
				Intensity:  "moderate",
			},
		},
	})

	job.Do(ctx)

	current, err := userRepo.GetCurrent(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, int64(80), current.PointsBalance) // 40 steps + 40 minutes

	// A second run must not double-award the same records.
	job.Do(ctx)

	current, err = userRepo.GetCurrent(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, int64(80), current.PointsBalance)
}
