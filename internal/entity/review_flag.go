package entity

import "github.com/fittrack-app/backend/pkg/enum"

type ReviewFlagStatus string

var (
	ReviewPending  = enum.New(ReviewFlagStatus("pending_review"))
	ReviewResolved = enum.New(ReviewFlagStatus("resolved"))
)

// ReviewFlag is a manual-review queue item created by the anti-gaming guard.
// Flags never block the underlying award.
type ReviewFlag struct {
	Base

	UserID string `gorm:"index"`
	User   User   `gorm:"foreignKey:UserID"`

	Reason  string
	Details Map
	Status  ReviewFlagStatus `gorm:"index"`
}
