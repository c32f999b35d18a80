package entity

import (
	"database/sql"
	"time"

	"github.com/fittrack-app/backend/pkg/enum"
)

type DrawingType string

var (
	DrawingDaily   = enum.New(DrawingType("daily"))
	DrawingWeekly  = enum.New(DrawingType("weekly"))
	DrawingMonthly = enum.New(DrawingType("monthly"))
	DrawingAnnual  = enum.New(DrawingType("annual"))
)

type DrawingStatus string

var (
	DrawingDraft     = enum.New(DrawingStatus("draft"))
	DrawingScheduled = enum.New(DrawingStatus("scheduled"))
	DrawingOpen      = enum.New(DrawingStatus("open"))
	DrawingClosed    = enum.New(DrawingStatus("closed"))
	DrawingCompleted = enum.New(DrawingStatus("completed"))
	DrawingCancelled = enum.New(DrawingStatus("cancelled"))
)

type Drawing struct {
	Base

	Name        string
	Type        DrawingType
	Status      DrawingStatus `gorm:"index"`
	TicketCost  int64
	WinnerCount int

	OpenTime  time.Time
	CloseTime time.Time
	DrawTime  time.Time

	// SeedRef is set only after execution; it mirrors the seed stored on
	// the execution record.
	SeedRef    string
	ExecutedAt sql.NullTime
}

type Ticket struct {
	SnowFlakeBase

	DrawingID string  `gorm:"index"`
	Drawing   Drawing `gorm:"foreignKey:DrawingID"`

	UserID string `gorm:"index"`
	User   User   `gorm:"foreignKey:UserID"`

	// SequenceNumber is zero until the execution snapshot assigns a dense
	// 1..N numbering. Once assigned it never changes.
	SequenceNumber int

	// IsWinner is written only by the drawing executor.
	IsWinner bool

	// PurchaseTxnRef is the ledger entry id of the spend that paid for this
	// ticket.
	PurchaseTxnRef int64
}

// DrawingExecution is the write-once audit record of a drawing run. The
// drawing id is the primary key, so a second concurrent execution attempt
// fails on insert instead of producing a second outcome.
type DrawingExecution struct {
	DrawingID string  `gorm:"primaryKey"`
	Drawing   Drawing `gorm:"foreignKey:DrawingID"`

	TicketCount      int
	RandomSeed       string
	AlgorithmVersion string
	WinningNumbers   Array[int]
	ExecutedAt       time.Time
}
