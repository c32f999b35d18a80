package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fittrack-app/backend/internal/entity"
	"github.com/fittrack-app/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type ActivityRepository interface {
	Create(ctx context.Context, activity *entity.Activity) error
	ExistsByExternalID(ctx context.Context, provider, externalID string) (bool, error)
	GetByUserAndRange(ctx context.Context, userID string, begin, end time.Time) ([]entity.Activity, error)
	CountWorkoutsBetween(ctx context.Context, userID string, begin, end time.Time) (int64, error)
	ActiveMinutesByDay(ctx context.Context, userID string, begin, end time.Time) (map[string]int, error)
	GetDeviceUserIDs(ctx context.Context, deviceID string, begin, end time.Time) ([]string, error)
}

type activityRepository struct{}

func NewActivityRepository() *activityRepository {
	return &activityRepository{}
}

func (r *activityRepository) Create(ctx context.Context, activity *entity.Activity) error {
	return xcontext.DB(ctx).Create(activity).Error
}

func (r *activityRepository) ExistsByExternalID(
	ctx context.Context, provider, externalID string,
) (bool, error) {
	var activity entity.Activity
	err := xcontext.DB(ctx).
		Take(&activity, "provider = ? AND external_id = ?", provider, externalID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func (r *activityRepository) GetByUserAndRange(
	ctx context.Context, userID string, begin, end time.Time,
) ([]entity.Activity, error) {
	var activities []entity.Activity
	err := xcontext.DB(ctx).
		Where("user_id = ? AND started_at >= ? AND started_at < ?", userID, begin, end).
		Order("started_at ASC").
		Find(&activities).Error
	if err != nil {
		return nil, err
	}

	return activities, nil
}

func (r *activityRepository) CountWorkoutsBetween(
	ctx context.Context, userID string, begin, end time.Time,
) (int64, error) {
	var count int64
	err := xcontext.DB(ctx).
		Model(&entity.Activity{}).
		Where("user_id = ? AND type = ? AND started_at >= ? AND started_at < ?",
			userID, entity.ActivityWorkout, begin, end).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

// GetDeviceUserIDs returns the distinct users who reported activity from one
// device in [begin, end).
func (r *activityRepository) GetDeviceUserIDs(
	ctx context.Context, deviceID string, begin, end time.Time,
) ([]string, error) {
	var userIDs []string
	err := xcontext.DB(ctx).
		Model(&entity.Activity{}).
		Where("device_id = ? AND started_at >= ? AND started_at < ?", deviceID, begin, end).
		Distinct().
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, err
	}

	return userIDs, nil
}

// ActiveMinutesByDay returns total non-steps minutes per UTC day key. Used
// by the streak check.
func (r *activityRepository) ActiveMinutesByDay(
	ctx context.Context, userID string, begin, end time.Time,
) (map[string]int, error) {
	activities, err := r.GetByUserAndRange(ctx, userID, begin, end)
	if err != nil {
		return nil, err
	}

	byDay := map[string]int{}
	for _, a := range activities {
		if a.Type == entity.ActivitySteps {
			continue
		}

		byDay[a.StartedAt.UTC().Format("2006-01-02")] += a.DurationMinutes
	}

	return byDay, nil
}
