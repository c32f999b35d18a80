package repository

import (
	"context"
	"time"

	"github.com/fittrack-app/backend/internal/entity"
	"github.com/fittrack-app/backend/pkg/xcontext"
)

type LedgerRepository interface {
	Append(ctx context.Context, entry *entity.LedgerEntry) error
	GetByUserID(ctx context.Context, userID string, offset, limit int) ([]entity.LedgerEntry, error)
	SumEarnedBetween(ctx context.Context, userID string, begin, end time.Time) (int64, error)
	ExistsReasonBetween(ctx context.Context, userID, reasonCode string, begin, end time.Time) (bool, error)
	SumReasonBetween(ctx context.Context, userID, reasonCode string, begin, end time.Time) (int64, error)
}

type ledgerRepository struct{}

func NewLedgerRepository() *ledgerRepository {
	return &ledgerRepository{}
}

func (r *ledgerRepository) Append(ctx context.Context, entry *entity.LedgerEntry) error {
	return xcontext.DB(ctx).Create(entry).Error
}

func (r *ledgerRepository) GetByUserID(
	ctx context.Context, userID string, offset, limit int,
) ([]entity.LedgerEntry, error) {
	var entries []entity.LedgerEntry
	err := xcontext.DB(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *ledgerRepository) ExistsReasonBetween(
	ctx context.Context, userID, reasonCode string, begin, end time.Time,
) (bool, error) {
	var count int64
	err := xcontext.DB(ctx).
		Model(&entity.LedgerEntry{}).
		Where("user_id = ? AND reason_code = ? AND occurred_at >= ? AND occurred_at < ?",
			userID, reasonCode, begin, end).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *ledgerRepository) SumReasonBetween(
	ctx context.Context, userID, reasonCode string, begin, end time.Time,
) (int64, error) {
	var result struct{ Total int64 }
	err := xcontext.DB(ctx).
		Model(&entity.LedgerEntry{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND reason_code = ? AND occurred_at >= ? AND occurred_at < ?",
			userID, reasonCode, begin, end).
		Take(&result).Error
	if err != nil {
		return 0, err
	}

	return result.Total, nil
}

// SumEarnedBetween totals earn entries whose OccurredAt falls in
// [begin, end). Spends and adjustments never count against the daily cap.
func (r *ledgerRepository) SumEarnedBetween(
	ctx context.Context, userID string, begin, end time.Time,
) (int64, error) {
	var result struct{ Total int64 }
	err := xcontext.DB(ctx).
		Model(&entity.LedgerEntry{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("user_id = ? AND kind = ? AND occurred_at >= ? AND occurred_at < ?",
			userID, entity.EntryEarn, begin, end).
		Take(&result).Error
	if err != nil {
		return 0, err
	}

	return result.Total, nil
}
