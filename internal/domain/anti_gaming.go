package domain

import (
	"context"
	"math"
	"time"

	"github.com/fittrack-app/backend/internal/entity"
	"github.com/fittrack-app/backend/internal/repository"
	"github.com/fittrack-app/backend/pkg/dateutil"
	"github.com/fittrack-app/backend/pkg/xcontext"
	"github.com/fatih/structs"
	"github.com/google/uuid"
)

const (
	// anomalyWindow is how far back the guard looks for a user's baseline.
	anomalyWindow = 30 * 24 * time.Hour

	// anomalyMinSamples is the minimum history before a z-score means
	// anything. New users are never flagged on their first days.
	anomalyMinSamples = 7

	// suspiciousDailySteps is physically possible but worth a human look.
	suspiciousDailySteps = 40000
)

// AntiGamingGuard inspects committed activities and queues review flags.
// It never blocks or reverses an award.
type AntiGamingGuard interface {
	Inspect(ctx context.Context, userID string, activity *entity.Activity) (bool, error)
}

type antiGamingGuard struct {
	activityRepo   repository.ActivityRepository
	reviewFlagRepo repository.ReviewFlagRepository
}

func NewAntiGamingGuard(
	activityRepo repository.ActivityRepository,
	reviewFlagRepo repository.ReviewFlagRepository,
) *antiGamingGuard {
	return &antiGamingGuard{
		activityRepo:   activityRepo,
		reviewFlagRepo: reviewFlagRepo,
	}
}

type anomalyDetails struct {
	ActivityID string  `structs:"activity_id"`
	Type       string  `structs:"type"`
	Value      float64 `structs:"value"`
	Mean       float64 `structs:"mean"`
	StdDev     float64 `structs:"std_dev"`
	ZScore     float64 `structs:"z_score"`
}

type volumeDetails struct {
	ActivityID string `structs:"activity_id"`
	DailySteps int    `structs:"daily_steps"`
	Threshold  int    `structs:"threshold"`
}

type sharingDetails struct {
	ActivityID string   `structs:"activity_id"`
	DeviceID   string   `structs:"device_id"`
	UserIDs    []string `structs:"user_ids"`
}

func (g *antiGamingGuard) Inspect(
	ctx context.Context, userID string, activity *entity.Activity,
) (bool, error) {
	flagged := false

	anomaly, err := g.inspectZScore(ctx, userID, activity)
	if err != nil {
		return false, err
	}

	if anomaly {
		flagged = true
	}

	if activity.Type == entity.ActivitySteps {
		volume, err := g.inspectDailyVolume(ctx, userID, activity)
		if err != nil {
			return flagged, err
		}

		if volume {
			flagged = true
		}
	}

	sharing, err := g.inspectDeviceSharing(ctx, userID, activity)
	if err != nil {
		return flagged, err
	}

	if sharing {
		flagged = true
	}

	return flagged, nil
}

// inspectZScore compares the new activity against the user's trailing
// baseline of the same type.
func (g *antiGamingGuard) inspectZScore(
	ctx context.Context, userID string, activity *entity.Activity,
) (bool, error) {
	end := activity.StartedAt
	history, err := g.activityRepo.GetByUserAndRange(ctx, userID, end.Add(-anomalyWindow), end)
	if err != nil {
		return false, err
	}

	samples := []float64{}
	for _, h := range history {
		if h.Type != activity.Type || h.ID == activity.ID {
			continue
		}

		samples = append(samples, magnitude(&h))
	}

	if len(samples) < anomalyMinSamples {
		return false, nil
	}

	mean, stddev := meanStdDev(samples)
	if stddev == 0 {
		return false, nil
	}

	value := magnitude(activity)
	z := (value - mean) / stddev
	if z <= xcontext.Configs(ctx).Points.AnomalyZScoreLimit {
		return false, nil
	}

	details := anomalyDetails{
		ActivityID: activity.ID,
		Type:       string(activity.Type),
		Value:      value,
		Mean:       mean,
		StdDev:     stddev,
		ZScore:     z,
	}

	err = g.reviewFlagRepo.Create(ctx, &entity.ReviewFlag{
		Base:    entity.Base{ID: uuid.NewString()},
		UserID:  userID,
		Reason:  "activity_anomaly",
		Details: structs.Map(details),
		Status:  entity.ReviewPending,
	})
	if err != nil {
		return false, err
	}

	xcontext.Logger(ctx).Warnf("Flagged anomalous activity %s of user %s (z=%.2f)",
		activity.ID, userID, z)
	return true, nil
}

func (g *antiGamingGuard) inspectDailyVolume(
	ctx context.Context, userID string, activity *entity.Activity,
) (bool, error) {
	begin, end := dateutil.DayWindow(activity.StartedAt)
	today, err := g.activityRepo.GetByUserAndRange(ctx, userID, begin, end)
	if err != nil {
		return false, err
	}

	dailySteps := 0
	for _, a := range today {
		if a.Type == entity.ActivitySteps {
			dailySteps += metricInt(a.Metrics, "steps")
		}
	}

	if dailySteps <= suspiciousDailySteps {
		return false, nil
	}

	details := volumeDetails{
		ActivityID: activity.ID,
		DailySteps: dailySteps,
		Threshold:  suspiciousDailySteps,
	}

	err = g.reviewFlagRepo.Create(ctx, &entity.ReviewFlag{
		Base:    entity.Base{ID: uuid.NewString()},
		UserID:  userID,
		Reason:  "excessive_daily_steps",
		Details: structs.Map(details),
		Status:  entity.ReviewPending,
	})
	if err != nil {
		return false, err
	}

	xcontext.Logger(ctx).Warnf("Flagged excessive daily steps of user %s (%d)", userID, dailySteps)
	return true, nil
}

// inspectDeviceSharing flags a device reporting activity for more than one
// account. The same wearable feeding several accounts multiplies one set of
// real steps into several awards.
func (g *antiGamingGuard) inspectDeviceSharing(
	ctx context.Context, userID string, activity *entity.Activity,
) (bool, error) {
	if activity.DeviceID == "" {
		return false, nil
	}

	end := activity.StartedAt.Add(time.Second)
	users, err := g.activityRepo.GetDeviceUserIDs(ctx, activity.DeviceID, end.Add(-anomalyWindow), end)
	if err != nil {
		return false, err
	}

	others := []string{}
	for _, id := range users {
		if id != userID {
			others = append(others, id)
		}
	}

	if len(others) == 0 {
		return false, nil
	}

	details := sharingDetails{
		ActivityID: activity.ID,
		DeviceID:   activity.DeviceID,
		UserIDs:    append(others, userID),
	}

	err = g.reviewFlagRepo.Create(ctx, &entity.ReviewFlag{
		Base:    entity.Base{ID: uuid.NewString()},
		UserID:  userID,
		Reason:  "device_sharing",
		Details: structs.Map(details),
		Status:  entity.ReviewPending,
	})
	if err != nil {
		return false, err
	}

	xcontext.Logger(ctx).Warnf("Flagged device %s shared across %d users",
		activity.DeviceID, len(others)+1)
	return true, nil
}

func magnitude(a *entity.Activity) float64 {
	if a.Type == entity.ActivitySteps {
		return float64(metricInt(a.Metrics, "steps"))
	}

	return float64(a.DurationMinutes)
}

func meanStdDev(samples []float64) (float64, float64) {
	var sum float64
	for _, s := range samples {
		sum += s
	}
	mean := sum / float64(len(samples))

	var sq float64
	for _, s := range samples {
		sq += (s - mean) * (s - mean)
	}

	return mean, math.Sqrt(sq / float64(len(samples)))
}
