package domain

import (
	"testing"
	"time"

	"github.com/fittrack-app/backend/internal/entity"
	"github.com/fittrack-app/backend/internal/repository"
	"github.com/fittrack-app/backend/pkg/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_antiGamingGuard_Inspect_FlagsAnomaly(t *testing.T) {
	ctx := testutil.MockContext()
	activityRepo := repository.NewActivityRepository()
	reviewFlagRepo := repository.NewReviewFlagRepository()
	guard := NewAntiGamingGuard(activityRepo, reviewFlagRepo)
	user := testutil.CreateFixtureUser(ctx, 0)

	// Ten days of a steady ~5k baseline with small variance.
	for i := 1; i <= 10; i++ {
		err := activityRepo.Create(ctx, &entity.Activity{
			Base:      entity.Base{ID: uuid.NewString()},
			UserID:    user.ID,
			Type:      entity.ActivitySteps,
			StartedAt: time.Now().Add(-time.Duration(i) * 24 * time.Hour),
			Metrics:   entity.Map{"steps": float64(5000 + i*100)},
		})
		require.NoError(t, err)
	}

	spike := &entity.Activity{
		Base:      entity.Base{ID: uuid.NewString()},
		UserID:    user.ID,
		Type:      entity.ActivitySteps,
		StartedAt: time.Now(),
		Metrics:   entity.Map{"steps": float64(35000)},
	}
	require.NoError(t, activityRepo.Create(ctx, spike))

	flagged, err := guard.Inspect(ctx, user.ID, spike)
	require.NoError(t, err)
	require.True(t, flagged)

	flags, err := reviewFlagRepo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.NotEmpty(t, flags)
	require.Equal(t, "activity_anomaly", flags[0].Reason)
	require.Equal(t, entity.ReviewPending, flags[0].Status)
}

func Test_antiGamingGuard_Inspect_NewUserNotFlagged(t *testing.T) {
	ctx := testutil.MockContext()
	activityRepo := repository.NewActivityRepository()
	reviewFlagRepo := repository.NewReviewFlagRepository()
	guard := NewAntiGamingGuard(activityRepo, reviewFlagRepo)
	user := testutil.CreateFixtureUser(ctx, 0)

	// Too little history for a baseline: even a big day passes.
	activity := &entity.Activity{
		Base:      entity.Base{ID: uuid.NewString()},
		UserID:    user.ID,
		Type:      entity.ActivitySteps,
		StartedAt: time.Now(),
		Metrics:   entity.Map{"steps": float64(30000)},
	}
	require.NoError(t, activityRepo.Create(ctx, activity))

	flagged, err := guard.Inspect(ctx, user.ID, activity)
	require.NoError(t, err)
	require.False(t, flagged)
}

func Test_antiGamingGuard_Inspect_DeviceSharedAcrossAccounts(t *testing.T) {
	ctx := testutil.MockContext()
	activityRepo := repository.NewActivityRepository()
	reviewFlagRepo := repository.NewReviewFlagRepository()
	guard := NewAntiGamingGuard(activityRepo, reviewFlagRepo)

	first := testutil.CreateFixtureUser(ctx, 0)
	second := testutil.CreateFixtureUser(ctx, 0)

	err := activityRepo.Create(ctx, &entity.Activity{
		Base:      entity.Base{ID: uuid.NewString()},
		UserID:    first.ID,
		DeviceID:  "watch-77",
		Type:      entity.ActivitySteps,
		StartedAt: time.Now().Add(-2 * 24 * time.Hour),
		Metrics:   entity.Map{"steps": float64(6000)},
	})
	require.NoError(t, err)

	// The same wearable now reports for a different account.
	shared := &entity.Activity{
		Base:      entity.Base{ID: uuid.NewString()},
		UserID:    second.ID,
		DeviceID:  "watch-77",
		Type:      entity.ActivitySteps,
		StartedAt: time.Now(),
		Metrics:   entity.Map{"steps": float64(6000)},
	}
	require.NoError(t, activityRepo.Create(ctx, shared))

	flagged, err := guard.Inspect(ctx, second.ID, shared)
	require.NoError(t, err)
	require.True(t, flagged)

	flags, err := reviewFlagRepo.GetByUserID(ctx, second.ID)
	require.NoError(t, err)
	require.Len(t, flags, 1)
	require.Equal(t, "device_sharing", flags[0].Reason)
	require.Equal(t, "watch-77", flags[0].Details["device_id"])
}

func Test_antiGamingGuard_Inspect_OwnDeviceNotFlagged(t *testing.T) {
	ctx := testutil.MockContext()
	activityRepo := repository.NewActivityRepository()
	reviewFlagRepo := repository.NewReviewFlagRepository()
	guard := NewAntiGamingGuard(activityRepo, reviewFlagRepo)
	user := testutil.CreateFixtureUser(ctx, 0)

	for day := 1; day <= 2; day++ {
		err := activityRepo.Create(ctx, &entity.Activity{
			Base:      entity.Base{ID: uuid.NewString()},
			UserID:    user.ID,
			DeviceID:  "watch-1",
			Type:      entity.ActivitySteps,
			StartedAt: time.Now().Add(-time.Duration(day) * 24 * time.Hour),
			Metrics:   entity.Map{"steps": float64(5000)},
		})
		require.NoError(t, err)
	}

	latest := &entity.Activity{
		Base:      entity.Base{ID: uuid.NewString()},
		UserID:    user.ID,
		DeviceID:  "watch-1",
		Type:      entity.ActivitySteps,
		StartedAt: time.Now(),
		Metrics:   entity.Map{"steps": float64(5000)},
	}
	require.NoError(t, activityRepo.Create(ctx, latest))

	flagged, err := guard.Inspect(ctx, user.ID, latest)
	require.NoError(t, err)
	require.False(t, flagged)
}

func Test_antiGamingGuard_Inspect_ExcessiveDailyVolume(t *testing.T) {
	ctx := testutil.MockContext()
	activityRepo := repository.NewActivityRepository()
	reviewFlagRepo := repository.NewReviewFlagRepository()
	guard := NewAntiGamingGuard(activityRepo, reviewFlagRepo)
	user := testutil.CreateFixtureUser(ctx, 0)

	// Two big syncs the same day push the total past the plausible limit.
	for _, steps := range []float64{22000, 21000} {
		a := &entity.Activity{
			Base:      entity.Base{ID: uuid.NewString()},
			UserID:    user.ID,
			Type:      entity.ActivitySteps,
			StartedAt: time.Now(),
			Metrics:   entity.Map{"steps": steps},
		}
		require.NoError(t, activityRepo.Create(ctx, a))
	}

	latest := &entity.Activity{
		Base:      entity.Base{ID: uuid.NewString()},
		UserID:    user.ID,
		Type:      entity.ActivitySteps,
		StartedAt: time.Now(),
		Metrics:   entity.Map{"steps": float64(1000)},
	}
	require.NoError(t, activityRepo.Create(ctx, latest))

	flagged, err := guard.Inspect(ctx, user.ID, latest)
	require.NoError(t, err)
	require.True(t, flagged)

	flags, err := reviewFlagRepo.GetByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, flags, 1)
	require.Equal(t, "excessive_daily_steps", flags[0].Reason)
}
