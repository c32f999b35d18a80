package domain

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fittrack-app/backend/internal/entity"
	"github.com/fittrack-app/backend/internal/model"
	"github.com/fittrack-app/backend/internal/repository"
	"github.com/fittrack-app/backend/pkg/testutil"
	"github.com/fittrack-app/backend/pkg/xcontext"
	"github.com/fittrack-app/backend/pkg/xredis"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func newPointsDomain() *pointsDomain {
	return NewPointsDomain(
		repository.NewUserRepository(nil),
		repository.NewLedgerRepository(),
		repository.NewActivityRepository(),
		nil,
	)
}

func Test_pointsDomain_AwardActivity_Steps(t *testing.T) {
	ctx := testutil.MockContext()
	d := newPointsDomain()
	user := testutil.CreateFixtureUser(ctx, 0)

	resp, err := d.AwardActivity(ctx, &model.AwardActivityRequest{
		UserID:     user.ID,
		Provider:   "fitbit",
		ExternalID: uuid.NewString(),
		Type:       "steps",
		StartedAt:  time.Now(),
		Metrics:    map[string]any{"steps": float64(5000)},
	})
	require.NoError(t, err)
	require.Equal(t, model.OutcomeAwarded, resp.Outcome)
	require.Equal(t, int64(50), resp.PointsAwarded)
	require.Equal(t, int64(50), resp.Balance)
}

func Test_pointsDomain_AwardActivity_StepsDailyLimit(t *testing.T) {
	ctx := testutil.MockContext()
	d := newPointsDomain()
	user := testutil.CreateFixtureUser(ctx, 0)

	// 25k steps only pay up to the 20k step limit, plus the goal bonus.
	resp, err := d.AwardActivity(ctx, &model.AwardActivityRequest{
		UserID:     user.ID,
		Provider:   "fitbit",
		ExternalID: uuid.NewString(),
		Type:       "steps",
		StartedAt:  time.Now(),
		Metrics:    map[string]any{"steps": float64(25000)},
	})
	require.NoError(t, err)
	require.Equal(t, int64(300), resp.PointsAwarded)

	// A second sync the same day has no step points left.
	resp, err = d.AwardActivity(ctx, &model.AwardActivityRequest{
		UserID:     user.ID,
		Provider:   "fitbit",
		ExternalID: uuid.NewString(),
		Type:       "steps",
		StartedAt:  time.Now(),
		Metrics:    map[string]any{"steps": float64(3000)},
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), resp.PointsAwarded)
}

func Test_pointsDomain_AwardActivity_StepGoalBonusOnce(t *testing.T) {
	ctx := testutil.MockContext()
	d := newPointsDomain()
	user := testutil.CreateFixtureUser(ctx, 0)

	resp, err := d.AwardActivity(ctx, &model.AwardActivityRequest{
		UserID:     user.ID,
		Provider:   "fitbit",
		ExternalID: uuid.NewString(),
		Type:       "steps",
		StartedAt:  time.Now(),
		Metrics:    map[string]any{"steps": float64(10000)},
	})
	require.NoError(t, err)
	require.Equal(t, int64(200), resp.PointsAwarded) // 100 steps + 100 goal bonus

	resp, err = d.AwardActivity(ctx, &model.AwardActivityRequest{
		UserID:     user.ID,
		Provider:   "fitbit",
		ExternalID: uuid.NewString(),
		Type:       "steps",
		StartedAt:  time.Now(),
		Metrics:    map[string]any{"steps": float64(2000)},
	})
	require.NoError(t, err)
	require.Equal(t, int64(20), resp.PointsAwarded)
}

func Test_pointsDomain_AwardActivity_Workout(t *testing.T) {
	ctx := testutil.MockContext()
	d := newPointsDomain()
	user := testutil.CreateFixtureUser(ctx, 0)

	// Too short to count.
	resp, err := d.AwardActivity(ctx, &model.AwardActivityRequest{
		UserID:          user.ID,
		Provider:        "fitbit",
		ExternalID:      uuid.NewString(),
		Type:            "workout",
		StartedAt:       time.Now(),
		DurationMinutes: 15,
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), resp.PointsAwarded)

	for i := 0; i < 3; i++ {
		resp, err = d.AwardActivity(ctx, &model.AwardActivityRequest{
			UserID:          user.ID,
			Provider:        "fitbit",
			ExternalID:      uuid.NewString(),
			Type:            "workout",
			StartedAt:       time.Now(),
			DurationMinutes: 30,
		})
		require.NoError(t, err)
		require.Equal(t, int64(50), resp.PointsAwarded)
	}

	// The fourth qualifying workout of the day pays nothing.
	resp, err = d.AwardActivity(ctx, &model.AwardActivityRequest{
		UserID:          user.ID,
		Provider:        "fitbit",
		ExternalID:      uuid.NewString(),
		Type:            "workout",
		StartedAt:       time.Now(),
		DurationMinutes: 30,
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), resp.PointsAwarded)
}

func Test_pointsDomain_AwardActivity_ActiveMinutes(t *testing.T) {
	ctx := testutil.MockContext()
	d := newPointsDomain()
	user := testutil.CreateFixtureUser(ctx, 0)

	resp, err := d.AwardActivity(ctx, &model.AwardActivityRequest{
		UserID:          user.ID,
		Provider:        "fitbit",
		ExternalID:      uuid.NewString(),
		Type:            "active_minutes",
		StartedAt:       time.Now(),
		DurationMinutes: 30,
		Intensity:       "vigorous",
	})
	require.NoError(t, err)
	require.Equal(t, int64(90), resp.PointsAwarded)
}

func Test_pointsDomain_AwardActivity_DailyCapBoundary(t *testing.T) {
	ctx := testutil.MockContext()
	d := newPointsDomain()
	user := testutil.CreateFixtureUser(ctx, 0)

	_, err := d.AwardPoints(ctx, &model.AwardPointsRequest{
		UserID:     user.ID,
		Amount:     950,
		ReasonCode: "challenge_reward",
	})
	require.NoError(t, err)

	// 200 points earned at 950/1000 only credit the remaining 50.
	resp, err := d.AwardPoints(ctx, &model.AwardPointsRequest{
		UserID:     user.ID,
		Amount:     200,
		ReasonCode: "challenge_reward",
	})
	require.NoError(t, err)
	require.Equal(t, model.OutcomeCapped, resp.Outcome)
	require.Equal(t, int64(50), resp.PointsAwarded)
	require.Equal(t, int64(1000), resp.Balance)

	resp, err = d.AwardPoints(ctx, &model.AwardPointsRequest{
		UserID:     user.ID,
		Amount:     10,
		ReasonCode: "challenge_reward",
	})
	require.NoError(t, err)
	require.Equal(t, model.OutcomeCapExceeded, resp.Outcome)
	require.Equal(t, int64(0), resp.PointsAwarded)
}

func Test_pointsDomain_AwardPoints_ConcurrentDailyCap(t *testing.T) {
	ctx := testutil.MockContext()

	// The in-memory sqlite database lives per connection; pin the pool to
	// one so every goroutine sees the same data.
	sqlDB, err := xcontext.DB(ctx).DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	d := newPointsDomain()
	user := testutil.CreateFixtureUser(ctx, 0)

	// Five awards of 300 race for a 1000-point day. Whatever the
	// interleaving, the total credited can never pass the cap.
	var total int64
	var eg errgroup.Group
	for i := 0; i < 5; i++ {
		eg.Go(func() error {
			resp, err := d.AwardPoints(ctx, &model.AwardPointsRequest{
				UserID:     user.ID,
				Amount:     300,
				ReasonCode: "challenge_reward",
			})
			if err != nil {
				return err
			}

			atomic.AddInt64(&total, resp.PointsAwarded)
			return nil
		})
	}
	require.NoError(t, eg.Wait())
	require.Equal(t, int64(1000), total)

	current, err := repository.NewUserRepository(nil).GetCurrent(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1000), current.PointsBalance)
	require.Equal(t, int64(1000), current.PointsEarned)
}

func Test_userRepository_IncreaseBalance_VersionGuard(t *testing.T) {
	ctx := testutil.MockContext()
	userRepo := repository.NewUserRepository(nil)
	user := testutil.CreateFixtureUser(ctx, 0)

	// A stale version means someone else touched the balance since the
	// caller read it: the credit must not land.
	err := userRepo.IncreaseBalance(ctx, user.ID, user.BalanceVersion+1, 50)
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, userRepo.IncreaseBalance(ctx, user.ID, user.BalanceVersion, 50))

	current, err := userRepo.GetCurrent(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, int64(50), current.PointsBalance)
	require.Equal(t, user.BalanceVersion+1, current.BalanceVersion)
}

func Test_pointsDomain_AwardActivity_BackfilledDayCap(t *testing.T) {
	ctx := testutil.MockContext()
	d := newPointsDomain()
	user := testutil.CreateFixtureUser(ctx, 0)

	// Exhaust today's cap.
	_, err := d.AwardPoints(ctx, &model.AwardPointsRequest{
		UserID:     user.ID,
		Amount:     1000,
		ReasonCode: "challenge_reward",
	})
	require.NoError(t, err)

	// A backfilled sync for yesterday counts against yesterday's cap, not
	// against the day the sync happened to arrive.
	resp, err := d.AwardActivity(ctx, &model.AwardActivityRequest{
		UserID:     user.ID,
		Provider:   "fitbit",
		ExternalID: uuid.NewString(),
		Type:       "steps",
		StartedAt:  time.Now().Add(-24 * time.Hour),
		Metrics:    map[string]any{"steps": float64(5000)},
	})
	require.NoError(t, err)
	require.Equal(t, model.OutcomeAwarded, resp.Outcome)
	require.Equal(t, int64(50), resp.PointsAwarded)

	// Today stays exhausted.
	pointsResp, err := d.AwardPoints(ctx, &model.AwardPointsRequest{
		UserID:     user.ID,
		Amount:     10,
		ReasonCode: "challenge_reward",
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), pointsResp.PointsAwarded)
}

func Test_pointsDomain_AwardPoints_RefreshesCachedUser(t *testing.T) {
	ctx := testutil.MockContext()

	store := map[string]string{}
	redisClient := &testutil.MockRedisClient{
		GetFunc: func(ctx context.Context, key string) (string, error) {
			value, ok := store[key]
			if !ok {
				return "", xredis.Nil
			}

			return value, nil
		},
		SetFunc: func(ctx context.Context, key, value string, _ time.Duration) error {
			store[key] = value
			return nil
		},
		DelFunc: func(ctx context.Context, key string) error {
			delete(store, key)
			return nil
		},
	}

	userRepo := repository.NewUserRepository(redisClient)
	d := NewPointsDomain(
		userRepo,
		repository.NewLedgerRepository(),
		repository.NewActivityRepository(),
		nil,
	)

	user := testutil.CreateFixtureUser(ctx, 0)

	// Warm the cache with the zero balance.
	_, err := userRepo.GetByID(ctx, user.ID)
	require.NoError(t, err)

	_, err = d.AwardPoints(ctx, &model.AwardPointsRequest{
		UserID:     user.ID,
		Amount:     100,
		ReasonCode: "challenge_reward",
	})
	require.NoError(t, err)

	// The award dropped the cached record after its commit, so the next
	// cached read sees the credited balance.
	balance, err := d.GetBalance(ctx, &model.GetBalanceRequest{UserID: user.ID})
	require.NoError(t, err)
	require.Equal(t, int64(100), balance.Balance)
}

func Test_pointsDomain_AwardActivity_Duplicate(t *testing.T) {
	ctx := testutil.MockContext()
	d := newPointsDomain()
	user := testutil.CreateFixtureUser(ctx, 0)

	req := &model.AwardActivityRequest{
		UserID:     user.ID,
		Provider:   "fitbit",
		ExternalID: "workout-1",
		Type:       "steps",
		StartedAt:  time.Now(),
		Metrics:    map[string]any{"steps": float64(1000)},
	}

	_, err := d.AwardActivity(ctx, req)
	require.NoError(t, err)

	_, err = d.AwardActivity(ctx, req)
	require.Error(t, err)
	require.Equal(t, "Activity was already recorded", err.Error())
}

func Test_pointsDomain_AwardActivity_StreakBonus(t *testing.T) {
	ctx := testutil.MockContext()
	d := newPointsDomain()
	user := testutil.CreateFixtureUser(ctx, 0)
	activityRepo := repository.NewActivityRepository()

	// Six prior days with enough active minutes.
	for i := 1; i <= 6; i++ {
		err := activityRepo.Create(ctx, &entity.Activity{
			Base:            entity.Base{ID: uuid.NewString()},
			UserID:          user.ID,
			Type:            entity.ActivityActiveMinutes,
			StartedAt:       time.Now().Add(-time.Duration(i) * 24 * time.Hour),
			DurationMinutes: 45,
			Intensity:       entity.IntensityModerate,
		})
		require.NoError(t, err)
	}

	resp, err := d.AwardActivity(ctx, &model.AwardActivityRequest{
		UserID:          user.ID,
		Provider:        "fitbit",
		ExternalID:      uuid.NewString(),
		Type:            "active_minutes",
		StartedAt:       time.Now(),
		DurationMinutes: 45,
		Intensity:       "moderate",
	})
	require.NoError(t, err)

	// 90 minute points plus the 250 streak bonus.
	require.Equal(t, int64(340), resp.PointsAwarded)

	// The next day-seven activity must not pay the bonus again.
	resp, err = d.AwardActivity(ctx, &model.AwardActivityRequest{
		UserID:          user.ID,
		Provider:        "fitbit",
		ExternalID:      uuid.NewString(),
		Type:            "active_minutes",
		StartedAt:       time.Now(),
		DurationMinutes: 10,
		Intensity:       "light",
	})
	require.NoError(t, err)
	require.Equal(t, int64(10), resp.PointsAwarded)
}

func Test_pointsDomain_AdjustPoints_ClampAtZero(t *testing.T) {
	ctx := testutil.MockContext()
	d := newPointsDomain()
	user := testutil.CreateFixtureUser(ctx, 100)

	resp, err := d.AdjustPoints(ctx, &model.AdjustPointsRequest{
		UserID:     user.ID,
		Amount:     -250,
		ReasonCode: ReasonAdjustment,
	})
	require.NoError(t, err)
	require.True(t, resp.Clamped)
	require.Equal(t, int64(-100), resp.Applied)
	require.Equal(t, int64(0), resp.Balance)

	balance, err := d.GetBalance(ctx, &model.GetBalanceRequest{UserID: user.ID})
	require.NoError(t, err)
	require.Equal(t, int64(0), balance.Balance)
	require.Equal(t, int64(100), balance.TotalEarned)
}

func Test_pointsDomain_GetLedger(t *testing.T) {
	ctx := testutil.MockContext()
	d := newPointsDomain()
	user := testutil.CreateFixtureUser(ctx, 0)

	_, err := d.AwardPoints(ctx, &model.AwardPointsRequest{
		UserID:     user.ID,
		Amount:     100,
		ReasonCode: "challenge_reward",
	})
	require.NoError(t, err)

	_, err = d.AdjustPoints(ctx, &model.AdjustPointsRequest{
		UserID:     user.ID,
		Amount:     -40,
		ReasonCode: ReasonAdjustment,
	})
	require.NoError(t, err)

	resp, err := d.GetLedger(ctx, &model.GetLedgerRequest{UserID: user.ID})
	require.NoError(t, err)
	require.Len(t, resp.Entries, 2)

	// Newest first, every entry carries the balance it produced.
	require.Equal(t, int64(-40), resp.Entries[0].Amount)
	require.Equal(t, int64(60), resp.Entries[0].BalanceAfter)
	require.Equal(t, int64(100), resp.Entries[1].Amount)
	require.Equal(t, int64(100), resp.Entries[1].BalanceAfter)
}
