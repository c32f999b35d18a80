package entity

import (
	"time"

	"github.com/fittrack-app/backend/pkg/enum"
)

type EntryKind string

var (
	EntryEarn   = enum.New(EntryKind("earn"))
	EntrySpend  = enum.New(EntryKind("spend"))
	EntryAdjust = enum.New(EntryKind("adjust"))
)

// LedgerEntry is append-only. There is no UpdatedAt or DeletedAt on purpose:
// entries are never mutated or removed, including by retention cleanup.
type LedgerEntry struct {
	ID        int64 `gorm:"primaryKey"`
	CreatedAt time.Time

	UserID string `gorm:"index"`
	User   User   `gorm:"foreignKey:UserID"`

	Kind EntryKind

	// OccurredAt is when the earning activity actually happened, which can
	// be days before CreatedAt for backfilled syncs. Daily caps and
	// once-per-window bonuses sum over it, not over CreatedAt.
	OccurredAt time.Time `gorm:"index"`

	// Amount is signed: positive for earn, negative for spend, either for
	// adjust.
	Amount       int64
	ReasonCode   string
	BalanceAfter int64

	// SourceRef points at what caused the entry: an activity id, a ticket
	// purchase reference, or an admin action id.
	SourceRef string
}
