package domain

import (
	"context"
	"errors"
	"time"

	"github.com/fittrack-app/backend/internal/entity"
	"github.com/fittrack-app/backend/internal/model"
	"github.com/fittrack-app/backend/internal/repository"
	"github.com/fittrack-app/backend/pkg/crypto"
	"github.com/fittrack-app/backend/pkg/errorx"
	"github.com/fittrack-app/backend/pkg/xcontext"
	"github.com/google/uuid"
	"github.com/pkg/math"
	"gorm.io/gorm"
)

type DrawingExecutorDomain interface {
	Execute(ctx context.Context, req *model.ExecuteDrawingRequest) (*model.ExecuteDrawingResponse, error)
}

type drawingExecutorDomain struct {
	drawingRepo     repository.DrawingRepository
	ticketRepo      repository.TicketRepository
	executionRepo   repository.ExecutionRepository
	fulfillmentRepo repository.FulfillmentRepository
}

func NewDrawingExecutorDomain(
	drawingRepo repository.DrawingRepository,
	ticketRepo repository.TicketRepository,
	executionRepo repository.ExecutionRepository,
	fulfillmentRepo repository.FulfillmentRepository,
) *drawingExecutorDomain {
	return &drawingExecutorDomain{
		drawingRepo:     drawingRepo,
		ticketRepo:      ticketRepo,
		executionRepo:   executionRepo,
		fulfillmentRepo: fulfillmentRepo,
	}
}

// Execute resolves a closed drawing. It is safe to call any number of times
// and safe to re-call after a crash at any step: the ticket snapshot is
// committed before any randomness, the execution record is write-once, and
// every later step re-applies the persisted record instead of redrawing.
func (d *drawingExecutorDomain) Execute(
	ctx context.Context, req *model.ExecuteDrawingRequest,
) (*model.ExecuteDrawingResponse, error) {
	drawing, err := d.drawingRepo.GetByID(ctx, req.DrawingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found drawing")
		}

		xcontext.Logger(ctx).Errorf("Cannot get drawing: %v", err)
		return nil, errorx.Unknown
	}

	switch drawing.Status {
	case entity.DrawingCompleted:
		return d.existingResult(ctx, drawing)

	case entity.DrawingClosed:
		// Ready to execute.

	case entity.DrawingOpen:
		if time.Now().Before(drawing.CloseTime) {
			return nil, errorx.New(errorx.InvalidDrawingState,
				"Drawing is still selling tickets")
		}

		err := d.drawingRepo.UpdateStatus(ctx, drawing.ID, entity.DrawingOpen, entity.DrawingClosed)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot close drawing: %v", err)
			return nil, errorx.Unknown
		}

	default:
		return nil, errorx.New(errorx.InvalidDrawingState,
			"Cannot execute a drawing in status %s", drawing.Status)
	}

	tickets, err := d.ticketRepo.GetByDrawingID(ctx, drawing.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get tickets: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.snapshotTickets(ctx, tickets); err != nil {
		return nil, err
	}

	execution, err := d.obtainExecution(ctx, drawing, len(tickets))
	if err != nil {
		return nil, err
	}

	winners, err := d.applyResult(ctx, drawing, execution, tickets)
	if err != nil {
		return nil, err
	}

	return executionResponse(execution, winners), nil
}

// existingResult rebuilds the response of an already-completed drawing from
// the persisted record, so a repeated call returns exactly what the first
// call returned.
func (d *drawingExecutorDomain) existingResult(
	ctx context.Context, drawing *entity.Drawing,
) (*model.ExecuteDrawingResponse, error) {
	execution, err := d.executionRepo.GetByDrawingID(ctx, drawing.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get execution record: %v", err)
		return nil, errorx.Unknown
	}

	winners, err := d.ticketRepo.GetWinners(ctx, drawing.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get winners: %v", err)
		return nil, errorx.Unknown
	}

	return executionResponse(execution, winners), nil
}

func executionResponse(
	execution *entity.DrawingExecution, winners []entity.Ticket,
) *model.ExecuteDrawingResponse {
	resp := &model.ExecuteDrawingResponse{
		Winners:          []model.Ticket{},
		TicketCount:      execution.TicketCount,
		RandomSeed:       execution.RandomSeed,
		AlgorithmVersion: execution.AlgorithmVersion,
		WinningNumbers:   execution.WinningNumbers,
		ExecutedAt:       execution.ExecutedAt,
	}
	for _, w := range winners {
		resp.Winners = append(resp.Winners, convertTicket(w))
	}

	return resp
}

// snapshotTickets assigns dense 1..N sequence numbers in purchase order and
// commits them before any seed exists. A retry sees the same order and
// assigns nothing new, so the numbering is stable across crashes.
func (d *drawingExecutorDomain) snapshotTickets(
	ctx context.Context, tickets []entity.Ticket,
) error {
	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	for i := range tickets {
		if tickets[i].SequenceNumber != 0 {
			continue
		}

		if err := d.ticketRepo.AssignSequenceNumber(ctx, tickets[i].ID, i+1); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot assign sequence number: %v", err)
			return errorx.Unknown
		}

		tickets[i].SequenceNumber = i + 1
	}

	xcontext.WithCommitDBTransaction(ctx)
	return nil
}

// obtainExecution returns the execution record for the drawing, creating it
// if this run is the first. Losing the insert race means another run already
// drew; its record is the result.
func (d *drawingExecutorDomain) obtainExecution(
	ctx context.Context, drawing *entity.Drawing, ticketCount int,
) (*entity.DrawingExecution, error) {
	execution, err := d.executionRepo.GetByDrawingID(ctx, drawing.ID)
	if err == nil {
		return execution, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get execution record: %v", err)
		return nil, errorx.Unknown
	}

	seed, err := crypto.NewSeed()
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot generate seed: %v", err)
		return nil, errorx.New(errorx.Unavailable, "Random source is unavailable")
	}

	numbers := []int{}
	if ticketCount > 0 {
		count := math.Min(drawing.WinnerCount, ticketCount)
		numbers, err = crypto.WinningNumbers(seed, ticketCount, count)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot derive winning numbers: %v", err)
			return nil, errorx.Unknown
		}
	}

	execution = &entity.DrawingExecution{
		DrawingID:        drawing.ID,
		TicketCount:      ticketCount,
		RandomSeed:       seed,
		AlgorithmVersion: crypto.SelectionAlgorithmV1,
		WinningNumbers:   numbers,
		ExecutedAt:       time.Now(),
	}

	created, err := d.executionRepo.Create(ctx, execution)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create execution record: %v", err)
		return nil, errorx.Unknown
	}

	if !created {
		execution, err = d.executionRepo.GetByDrawingID(ctx, drawing.ID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot get winning execution record: %v", err)
			return nil, errorx.Unknown
		}
	}

	return execution, nil
}

// applyResult marks winners, opens their fulfillments, and completes the
// drawing, all from the persisted execution record. Every step tolerates
// having run before.
func (d *drawingExecutorDomain) applyResult(
	ctx context.Context,
	drawing *entity.Drawing,
	execution *entity.DrawingExecution,
	tickets []entity.Ticket,
) ([]entity.Ticket, error) {
	bySeq := map[int]entity.Ticket{}
	for _, t := range tickets {
		bySeq[t.SequenceNumber] = t
	}

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	winners := []entity.Ticket{}
	for _, number := range execution.WinningNumbers {
		ticket, ok := bySeq[number]
		if !ok {
			xcontext.Logger(ctx).Errorf(
				"Execution of drawing %s has no ticket for number %d", drawing.ID, number)
			return nil, errorx.Unknown
		}

		if err := d.ticketRepo.MarkWinner(ctx, ticket.ID); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot mark winner: %v", err)
			return nil, errorx.Unknown
		}
		ticket.IsWinner = true

		if err := d.ensureFulfillment(ctx, drawing, ticket); err != nil {
			return nil, err
		}

		winners = append(winners, ticket)
	}

	err := d.drawingRepo.MarkExecuted(ctx, drawing.ID, execution.RandomSeed, execution.ExecutedAt)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot complete drawing: %v", err)
		return nil, errorx.Unknown
	}

	xcontext.WithCommitDBTransaction(ctx)
	return winners, nil
}

func (d *drawingExecutorDomain) ensureFulfillment(
	ctx context.Context, drawing *entity.Drawing, ticket entity.Ticket,
) error {
	_, err := d.fulfillmentRepo.GetByTicketID(ctx, ticket.ID)
	if err == nil {
		return nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get fulfillment: %v", err)
		return errorx.Unknown
	}

	err = d.fulfillmentRepo.Create(ctx, &entity.PrizeFulfillment{
		Base:      entity.Base{ID: uuid.NewString()},
		TicketID:  ticket.ID,
		DrawingID: drawing.ID,
		UserID:    ticket.UserID,
		Status:    entity.FulfillmentPending,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create fulfillment: %v", err)
		return errorx.Unknown
	}

	return nil
}
