package repository

import (
	"context"
	"time"

	"github.com/fittrack-app/backend/internal/entity"
	"github.com/fittrack-app/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type FulfillmentRepository interface {
	Create(ctx context.Context, fulfillment *entity.PrizeFulfillment) error
	GetByID(ctx context.Context, id string) (*entity.PrizeFulfillment, error)
	GetByTicketID(ctx context.Context, ticketID int64) (*entity.PrizeFulfillment, error)
	Transition(ctx context.Context, id string, from, to entity.FulfillmentStatus, updates map[string]any) error
	GetByStatus(ctx context.Context, status entity.FulfillmentStatus) ([]entity.PrizeFulfillment, error)
	GetNotifiedBefore(ctx context.Context, cutoff time.Time) ([]entity.PrizeFulfillment, error)
	SetWarningSent(ctx context.Context, id string, at time.Time) error
}

type fulfillmentRepository struct{}

func NewFulfillmentRepository() *fulfillmentRepository {
	return &fulfillmentRepository{}
}

func (r *fulfillmentRepository) Create(
	ctx context.Context, fulfillment *entity.PrizeFulfillment,
) error {
	return xcontext.DB(ctx).Create(fulfillment).Error
}

func (r *fulfillmentRepository) GetByID(
	ctx context.Context, id string,
) (*entity.PrizeFulfillment, error) {
	var fulfillment entity.PrizeFulfillment
	if err := xcontext.DB(ctx).Take(&fulfillment, "id = ?", id).Error; err != nil {
		return nil, err
	}

	return &fulfillment, nil
}

func (r *fulfillmentRepository) GetByTicketID(
	ctx context.Context, ticketID int64,
) (*entity.PrizeFulfillment, error) {
	var fulfillment entity.PrizeFulfillment
	if err := xcontext.DB(ctx).Take(&fulfillment, "ticket_id = ?", ticketID).Error; err != nil {
		return nil, err
	}

	return &fulfillment, nil
}

// Transition applies a guarded status change plus any extra column writes.
// The from-status guard keeps concurrent advances from double-applying an
// event.
func (r *fulfillmentRepository) Transition(
	ctx context.Context, id string, from, to entity.FulfillmentStatus, updates map[string]any,
) error {
	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = to

	tx := xcontext.DB(ctx).
		Model(&entity.PrizeFulfillment{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if err := tx.Error; err != nil {
		return err
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *fulfillmentRepository) GetByStatus(
	ctx context.Context, status entity.FulfillmentStatus,
) ([]entity.PrizeFulfillment, error) {
	var fulfillments []entity.PrizeFulfillment
	err := xcontext.DB(ctx).
		Where("status = ?", status).
		Find(&fulfillments).Error
	if err != nil {
		return nil, err
	}

	return fulfillments, nil
}

func (r *fulfillmentRepository) GetNotifiedBefore(
	ctx context.Context, cutoff time.Time,
) ([]entity.PrizeFulfillment, error) {
	var fulfillments []entity.PrizeFulfillment
	err := xcontext.DB(ctx).
		Where("status = ? AND notified_at < ?", entity.FulfillmentWinnerNotified, cutoff).
		Find(&fulfillments).Error
	if err != nil {
		return nil, err
	}

	return fulfillments, nil
}

func (r *fulfillmentRepository) SetWarningSent(
	ctx context.Context, id string, at time.Time,
) error {
	return xcontext.DB(ctx).
		Model(&entity.PrizeFulfillment{}).
		Where("id = ? AND warning_sent_at IS NULL", id).
		Update("warning_sent_at", at).Error
}
