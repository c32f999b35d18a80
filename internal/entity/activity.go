package entity

import (
	"time"

	"github.com/fittrack-app/backend/pkg/enum"
)

type ActivityType string

var (
	ActivitySteps         = enum.New(ActivityType("steps"))
	ActivityWorkout       = enum.New(ActivityType("workout"))
	ActivityActiveMinutes = enum.New(ActivityType("active_minutes"))
)

type Intensity string

var (
	IntensityLight    = enum.New(Intensity("light"))
	IntensityModerate = enum.New(Intensity("moderate"))
	IntensityVigorous = enum.New(Intensity("vigorous"))
)

// Activity is a normalized record handed over by the sync layer. ExternalID
// is the provider's id, used to drop duplicates across syncs.
type Activity struct {
	Base

	UserID string `gorm:"index:idx_activities_user_time"`
	User   User   `gorm:"foreignKey:UserID"`

	// Manual awards leave Provider and ExternalID empty, so uniqueness is
	// enforced by the dedup check in the award path, not by the index.
	Provider   string `gorm:"index:idx_activities_provider_external"`
	ExternalID string `gorm:"index:idx_activities_provider_external"`

	// DeviceID identifies the reporting device when the provider exposes
	// one. Empty for manual awards.
	DeviceID string `gorm:"index"`

	Type            ActivityType
	StartedAt       time.Time `gorm:"index:idx_activities_user_time"`
	DurationMinutes int
	Intensity       Intensity
	Metrics         Map

	// PointsEarned records what the award actually credited, after caps.
	PointsEarned int64
}
