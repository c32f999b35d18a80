package domain

import (
	"context"
	"errors"

	"github.com/fittrack-app/backend/internal/entity"
	"github.com/fittrack-app/backend/internal/model"
	"github.com/fittrack-app/backend/internal/repository"
	"github.com/fittrack-app/backend/pkg/enum"
	"github.com/fittrack-app/backend/pkg/errorx"
	"github.com/fittrack-app/backend/pkg/xcontext"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DrawingDomain interface {
	Create(ctx context.Context, req *model.CreateDrawingRequest) (*model.CreateDrawingResponse, error)
	Schedule(ctx context.Context, req *model.ScheduleDrawingRequest) (*model.ScheduleDrawingResponse, error)
	Open(ctx context.Context, req *model.OpenDrawingRequest) (*model.OpenDrawingResponse, error)
	Close(ctx context.Context, req *model.CloseDrawingRequest) (*model.CloseDrawingResponse, error)
	Cancel(ctx context.Context, req *model.CancelDrawingRequest) (*model.CancelDrawingResponse, error)
	Get(ctx context.Context, req *model.GetDrawingRequest) (*model.GetDrawingResponse, error)
	GetResults(ctx context.Context, req *model.GetDrawingResultsRequest) (*model.GetDrawingResultsResponse, error)
}

type drawingDomain struct {
	drawingRepo   repository.DrawingRepository
	ticketRepo    repository.TicketRepository
	executionRepo repository.ExecutionRepository
}

func NewDrawingDomain(
	drawingRepo repository.DrawingRepository,
	ticketRepo repository.TicketRepository,
	executionRepo repository.ExecutionRepository,
) *drawingDomain {
	return &drawingDomain{
		drawingRepo:   drawingRepo,
		ticketRepo:    ticketRepo,
		executionRepo: executionRepo,
	}
}

func (d *drawingDomain) Create(
	ctx context.Context, req *model.CreateDrawingRequest,
) (*model.CreateDrawingResponse, error) {
	if req.Name == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty name")
	}

	drawingType, err := enum.ToEnum[entity.DrawingType](req.Type)
	if err != nil {
		return nil, errorx.New(errorx.BadRequest, "Invalid drawing type %s", req.Type)
	}

	if req.WinnerCount <= 0 {
		return nil, errorx.New(errorx.BadRequest, "The winner count must be a positive number")
	}

	if req.OpenTime.IsZero() || req.CloseTime.IsZero() || req.DrawTime.IsZero() {
		return nil, errorx.New(errorx.BadRequest, "Not allow an empty schedule time")
	}

	if !req.OpenTime.Before(req.CloseTime) || req.CloseTime.After(req.DrawTime) {
		return nil, errorx.New(errorx.BadRequest, "Invalid drawing schedule")
	}

	cost, ok := xcontext.Configs(ctx).Drawing.TicketCosts[string(drawingType)]
	if !ok {
		return nil, errorx.New(errorx.BadRequest, "No ticket cost for drawing type %s", req.Type)
	}

	drawing := &entity.Drawing{
		Base:        entity.Base{ID: uuid.NewString()},
		Name:        req.Name,
		Type:        drawingType,
		Status:      entity.DrawingDraft,
		TicketCost:  cost,
		WinnerCount: req.WinnerCount,
		OpenTime:    req.OpenTime,
		CloseTime:   req.CloseTime,
		DrawTime:    req.DrawTime,
	}

	if err := d.drawingRepo.Create(ctx, drawing); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create drawing: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CreateDrawingResponse{Drawing: convertDrawing(*drawing)}, nil
}

func (d *drawingDomain) Schedule(
	ctx context.Context, req *model.ScheduleDrawingRequest,
) (*model.ScheduleDrawingResponse, error) {
	err := d.transition(ctx, req.DrawingID, entity.DrawingDraft, entity.DrawingScheduled)
	if err != nil {
		return nil, err
	}

	return &model.ScheduleDrawingResponse{}, nil
}

func (d *drawingDomain) Open(
	ctx context.Context, req *model.OpenDrawingRequest,
) (*model.OpenDrawingResponse, error) {
	err := d.transition(ctx, req.DrawingID, entity.DrawingScheduled, entity.DrawingOpen)
	if err != nil {
		return nil, err
	}

	return &model.OpenDrawingResponse{}, nil
}

func (d *drawingDomain) Close(
	ctx context.Context, req *model.CloseDrawingRequest,
) (*model.CloseDrawingResponse, error) {
	err := d.transition(ctx, req.DrawingID, entity.DrawingOpen, entity.DrawingClosed)
	if err != nil {
		return nil, err
	}

	return &model.CloseDrawingResponse{}, nil
}

// Cancel stops a drawing that has not completed. It is a pure status
// transition: points already spent on tickets stay spent, purchases are
// final. A completed drawing can never be cancelled; its result is final.
func (d *drawingDomain) Cancel(
	ctx context.Context, req *model.CancelDrawingRequest,
) (*model.CancelDrawingResponse, error) {
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
		return nil, errorx.New(errorx.ImmutableResult, "Cannot cancel a completed drawing")
	case entity.DrawingCancelled:
		return nil, errorx.New(errorx.InvalidDrawingState, "Drawing was already cancelled")
	}

	err = d.drawingRepo.UpdateStatus(ctx, drawing.ID, drawing.Status, entity.DrawingCancelled)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.Contention, "Drawing was changed by another request")
		}

		xcontext.Logger(ctx).Errorf("Cannot cancel drawing: %v", err)
		return nil, errorx.Unknown
	}

	return &model.CancelDrawingResponse{}, nil
}

func (d *drawingDomain) Get(
	ctx context.Context, req *model.GetDrawingRequest,
) (*model.GetDrawingResponse, error) {
	drawing, err := d.drawingRepo.GetByID(ctx, req.DrawingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found drawing")
		}

		xcontext.Logger(ctx).Errorf("Cannot get drawing: %v", err)
		return nil, errorx.Unknown
	}

	count, err := d.ticketRepo.CountByDrawing(ctx, drawing.ID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot count tickets: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetDrawingResponse{
		Drawing:     convertDrawing(*drawing),
		TicketCount: int(count),
	}, nil
}

// GetResults returns the full verifiable record of a completed drawing:
// seed, algorithm version, winning numbers and winning tickets.
func (d *drawingDomain) GetResults(
	ctx context.Context, req *model.GetDrawingResultsRequest,
) (*model.GetDrawingResultsResponse, error) {
	drawing, err := d.drawingRepo.GetByID(ctx, req.DrawingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found drawing")
		}

		xcontext.Logger(ctx).Errorf("Cannot get drawing: %v", err)
		return nil, errorx.Unknown
	}

	if drawing.Status != entity.DrawingCompleted {
		return nil, errorx.New(errorx.InvalidDrawingState, "Drawing has no results yet")
	}

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

	resp := &model.GetDrawingResultsResponse{
		Drawing:          convertDrawing(*drawing),
		TicketCount:      execution.TicketCount,
		RandomSeed:       execution.RandomSeed,
		AlgorithmVersion: execution.AlgorithmVersion,
		WinningNumbers:   execution.WinningNumbers,
		ExecutedAt:       execution.ExecutedAt,
	}
	for _, w := range winners {
		resp.Winners = append(resp.Winners, convertTicket(w))
	}

	return resp, nil
}

func (d *drawingDomain) transition(
	ctx context.Context, drawingID string, from, to entity.DrawingStatus,
) error {
	if drawingID == "" {
		return errorx.New(errorx.BadRequest, "Not allow an empty drawing id")
	}

	err := d.drawingRepo.UpdateStatus(ctx, drawingID, from, to)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorx.New(errorx.InvalidDrawingState,
				"Drawing cannot move from %s to %s", from, to)
		}

		xcontext.Logger(ctx).Errorf("Cannot update drawing status: %v", err)
		return errorx.Unknown
	}

	return nil
}
