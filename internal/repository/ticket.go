package repository

import (
	"context"

	"github.com/fittrack-app/backend/internal/entity"
	"github.com/fittrack-app/backend/pkg/xcontext"
)

type TicketRepository interface {
	CreateAll(ctx context.Context, tickets []*entity.Ticket) error
	GetByDrawingID(ctx context.Context, drawingID string) ([]entity.Ticket, error)
	GetByUserAndDrawing(ctx context.Context, userID, drawingID string) ([]entity.Ticket, error)
	GetWinners(ctx context.Context, drawingID string) ([]entity.Ticket, error)
	CountByDrawing(ctx context.Context, drawingID string) (int64, error)
	AssignSequenceNumber(ctx context.Context, ticketID int64, seq int) error
	MarkWinner(ctx context.Context, ticketID int64) error
}

type ticketRepository struct{}

func NewTicketRepository() *ticketRepository {
	return &ticketRepository{}
}

func (r *ticketRepository) CreateAll(ctx context.Context, tickets []*entity.Ticket) error {
	return xcontext.DB(ctx).Create(tickets).Error
}

// GetByDrawingID returns tickets in id order. Ids are snowflakes, so this
// is purchase order and gives every executor run the same snapshot order.
func (r *ticketRepository) GetByDrawingID(
	ctx context.Context, drawingID string,
) ([]entity.Ticket, error) {
	var tickets []entity.Ticket
	err := xcontext.DB(ctx).
		Where("drawing_id = ?", drawingID).
		Order("id ASC").
		Find(&tickets).Error
	if err != nil {
		return nil, err
	}

	return tickets, nil
}

func (r *ticketRepository) GetByUserAndDrawing(
	ctx context.Context, userID, drawingID string,
) ([]entity.Ticket, error) {
	var tickets []entity.Ticket
	err := xcontext.DB(ctx).
		Where("user_id = ? AND drawing_id = ?", userID, drawingID).
		Order("id ASC").
		Find(&tickets).Error
	if err != nil {
		return nil, err
	}

	return tickets, nil
}

func (r *ticketRepository) GetWinners(
	ctx context.Context, drawingID string,
) ([]entity.Ticket, error) {
	var tickets []entity.Ticket
	err := xcontext.DB(ctx).
		Where("drawing_id = ? AND is_winner = ?", drawingID, true).
		Order("sequence_number ASC").
		Find(&tickets).Error
	if err != nil {
		return nil, err
	}

	return tickets, nil
}

func (r *ticketRepository) CountByDrawing(ctx context.Context, drawingID string) (int64, error) {
	var count int64
	err := xcontext.DB(ctx).
		Model(&entity.Ticket{}).
		Where("drawing_id = ?", drawingID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *ticketRepository) AssignSequenceNumber(
	ctx context.Context, ticketID int64, seq int,
) error {
	return xcontext.DB(ctx).
		Model(&entity.Ticket{}).
		Where("id = ?", ticketID).
		Update("sequence_number", seq).Error
}

func (r *ticketRepository) MarkWinner(ctx context.Context, ticketID int64) error {
	return xcontext.DB(ctx).
		Model(&entity.Ticket{}).
		Where("id = ?", ticketID).
		Update("is_winner", true).Error
}
