package repository

import (
	"context"

	"github.com/fittrack-app/backend/internal/entity"
	"github.com/fittrack-app/backend/pkg/xcontext"
)

type ReviewFlagRepository interface {
	Create(ctx context.Context, flag *entity.ReviewFlag) error
	GetPending(ctx context.Context, offset, limit int) ([]entity.ReviewFlag, error)
	GetByUserID(ctx context.Context, userID string) ([]entity.ReviewFlag, error)
}

type reviewFlagRepository struct{}

func NewReviewFlagRepository() *reviewFlagRepository {
	return &reviewFlagRepository{}
}

func (r *reviewFlagRepository) Create(ctx context.Context, flag *entity.ReviewFlag) error {
	return xcontext.DB(ctx).Create(flag).Error
}

func (r *reviewFlagRepository) GetPending(
	ctx context.Context, offset, limit int,
) ([]entity.ReviewFlag, error) {
	var flags []entity.ReviewFlag
	err := xcontext.DB(ctx).
		Where("status = ?", entity.ReviewPending).
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&flags).Error
	if err != nil {
		return nil, err
	}

	return flags, nil
}

func (r *reviewFlagRepository) GetByUserID(
	ctx context.Context, userID string,
) ([]entity.ReviewFlag, error) {
	var flags []entity.ReviewFlag
	err := xcontext.DB(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&flags).Error
	if err != nil {
		return nil, err
	}

	return flags, nil
}
