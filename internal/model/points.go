package model

import "time"

type AwardOutcome string

const (
	OutcomeAwarded     AwardOutcome = "awarded"
	OutcomeCapped      AwardOutcome = "capped"
	OutcomeCapExceeded AwardOutcome = "cap_exceeded"
)

type Activity struct {
	ID              string         `json:"id"`
	Provider        string         `json:"provider"`
	ExternalID      string         `json:"external_id"`
	DeviceID        string         `json:"device_id"`
	Type            string         `json:"type"`
	StartedAt       time.Time      `json:"started_at"`
	DurationMinutes int            `json:"duration_minutes"`
	Intensity       string         `json:"intensity"`
	Metrics         map[string]any `json:"metrics"`
	PointsEarned    int64          `json:"points_earned"`
}

type AwardActivityRequest struct {
	UserID          string         `json:"user_id"`
	Provider        string         `json:"provider"`
	ExternalID      string         `json:"external_id"`
	DeviceID        string         `json:"device_id"`
	Type            string         `json:"type"`
	StartedAt       time.Time      `json:"started_at"`
	DurationMinutes int            `json:"duration_minutes"`
	Intensity       string         `json:"intensity"`
	Metrics         map[string]any `json:"metrics"`
}

type AwardActivityResponse struct {
	Outcome       AwardOutcome `json:"outcome"`
	PointsAwarded int64        `json:"points_awarded"`
	Balance       int64        `json:"balance"`
	Flagged       bool         `json:"flagged"`
}

type AwardPointsRequest struct {
	UserID     string `json:"user_id"`
	Amount     int64  `json:"amount"`
	ReasonCode string `json:"reason_code"`
	SourceRef  string `json:"source_ref"`
}

type AwardPointsResponse struct {
	Outcome       AwardOutcome `json:"outcome"`
	PointsAwarded int64        `json:"points_awarded"`
	Balance       int64        `json:"balance"`
}

type AdjustPointsRequest struct {
	UserID     string `json:"user_id"`
	Amount     int64  `json:"amount"`
	ReasonCode string `json:"reason_code"`
	SourceRef  string `json:"source_ref"`
}

type AdjustPointsResponse struct {
	Applied int64 `json:"applied"`
	Balance int64 `json:"balance"`
	Clamped bool  `json:"clamped"`
}

type GetBalanceRequest struct {
	UserID string `json:"user_id"`
}

type GetBalanceResponse struct {
	Balance      int64 `json:"balance"`
	TotalEarned  int64 `json:"total_earned"`
	EarnedToday  int64 `json:"earned_today"`
	DailyCapLeft int64 `json:"daily_cap_left"`
}

type LedgerEntry struct {
	ID           int64     `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	OccurredAt   time.Time `json:"occurred_at"`
	Kind         string    `json:"kind"`
	Amount       int64     `json:"amount"`
	ReasonCode   string    `json:"reason_code"`
	BalanceAfter int64     `json:"balance_after"`
	SourceRef    string    `json:"source_ref"`
}

type GetLedgerRequest struct {
	UserID string `json:"user_id"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
}

type GetLedgerResponse struct {
	Entries []LedgerEntry `json:"entries"`
}
