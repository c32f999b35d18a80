package repository

import (
	"context"
	"time"

	"github.com/fittrack-app/backend/internal/entity"
	"github.com/fittrack-app/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type DrawingRepository interface {
	Create(ctx context.Context, drawing *entity.Drawing) error
	GetByID(ctx context.Context, id string) (*entity.Drawing, error)
	UpdateStatus(ctx context.Context, id string, from, to entity.DrawingStatus) error
	ConfirmOpen(ctx context.Context, id string) error
	MarkExecuted(ctx context.Context, id string, seed string, executedAt time.Time) error
	GetByStatus(ctx context.Context, status entity.DrawingStatus) ([]entity.Drawing, error)
}

type drawingRepository struct{}

func NewDrawingRepository() *drawingRepository {
	return &drawingRepository{}
}

func (r *drawingRepository) Create(ctx context.Context, drawing *entity.Drawing) error {
	return xcontext.DB(ctx).Create(drawing).Error
}

func (r *drawingRepository) GetByID(ctx context.Context, id string) (*entity.Drawing, error) {
	var drawing entity.Drawing
	if err := xcontext.DB(ctx).Take(&drawing, "id = ?", id).Error; err != nil {
		return nil, err
	}

	return &drawing, nil
}

// UpdateStatus moves a drawing from one status to another. The from-status
// guard makes concurrent lifecycle calls lose cleanly instead of clobbering
// each other.
func (r *drawingRepository) UpdateStatus(
	ctx context.Context, id string, from, to entity.DrawingStatus,
) error {
	tx := xcontext.DB(ctx).
		Model(&entity.Drawing{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if err := tx.Error; err != nil {
		return err
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// ConfirmOpen re-checks the open status with a write inside the caller's
// transaction. The write takes the row lock, so a lifecycle close either
// already won (no rows match) or waits until the caller commits. The touched
// column always changes value, keeping the rows-affected count meaningful on
// drivers that report changed rows rather than matched rows.
func (r *drawingRepository) ConfirmOpen(ctx context.Context, id string) error {
	tx := xcontext.DB(ctx).
		Model(&entity.Drawing{}).
		Where("id = ? AND status = ?", id, entity.DrawingOpen).
		Update("updated_at", time.Now())
	if err := tx.Error; err != nil {
		return err
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *drawingRepository) MarkExecuted(
	ctx context.Context, id string, seed string, executedAt time.Time,
) error {
	tx := xcontext.DB(ctx).
		Model(&entity.Drawing{}).
		Where("id = ? AND status = ?", id, entity.DrawingClosed).
		Updates(map[string]any{
			"status":      entity.DrawingCompleted,
			"seed_ref":    seed,
			"executed_at": executedAt,
		})
	if err := tx.Error; err != nil {
		return err
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *drawingRepository) GetByStatus(
	ctx context.Context, status entity.DrawingStatus,
) ([]entity.Drawing, error) {
	var drawings []entity.Drawing
	err := xcontext.DB(ctx).
		Where("status = ?", status).
		Find(&drawings).Error
	if err != nil {
		return nil, err
	}

	return drawings, nil
}
