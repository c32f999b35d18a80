package repository

import (
	"context"

	"github.com/fittrack-app/backend/internal/entity"
	"github.com/fittrack-app/backend/pkg/xcontext"
	"gorm.io/gorm/clause"
)

type ExecutionRepository interface {
	Create(ctx context.Context, execution *entity.DrawingExecution) (bool, error)
	GetByDrawingID(ctx context.Context, drawingID string) (*entity.DrawingExecution, error)
}

type executionRepository struct{}

func NewExecutionRepository() *executionRepository {
	return &executionRepository{}
}

// Create inserts the execution record if none exists for the drawing. It
// returns false when another run already claimed the drawing, which makes
// the record write-once without a separate lock.
func (r *executionRepository) Create(
	ctx context.Context, execution *entity.DrawingExecution,
) (bool, error) {
	tx := xcontext.DB(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(execution)
	if err := tx.Error; err != nil {
		return false, err
	}

	return tx.RowsAffected > 0, nil
}

func (r *executionRepository) GetByDrawingID(
	ctx context.Context, drawingID string,
) (*entity.DrawingExecution, error) {
	var execution entity.DrawingExecution
	err := xcontext.DB(ctx).Take(&execution, "drawing_id = ?", drawingID).Error
	if err != nil {
		return nil, err
	}

	return &execution, nil
}
