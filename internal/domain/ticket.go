package domain

import (
	"context"
	"errors"
	"time"

	"github.com/fittrack-app/backend/internal/entity"
	"github.com/fittrack-app/backend/internal/model"
	"github.com/fittrack-app/backend/internal/repository"
	"github.com/fittrack-app/backend/pkg/errorx"
	"github.com/fittrack-app/backend/pkg/idutil"
	"github.com/fittrack-app/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type TicketDomain interface {
	Buy(ctx context.Context, req *model.BuyTicketsRequest) (*model.BuyTicketsResponse, error)
	GetMine(ctx context.Context, req *model.GetTicketsRequest) (*model.GetTicketsResponse, error)
}

type ticketDomain struct {
	drawingRepo repository.DrawingRepository
	ticketRepo  repository.TicketRepository
	userRepo    repository.UserRepository
	ledgerRepo  repository.LedgerRepository
}

func NewTicketDomain(
	drawingRepo repository.DrawingRepository,
	ticketRepo repository.TicketRepository,
	userRepo repository.UserRepository,
	ledgerRepo repository.LedgerRepository,
) *ticketDomain {
	return &ticketDomain{
		drawingRepo: drawingRepo,
		ticketRepo:  ticketRepo,
		userRepo:    userRepo,
		ledgerRepo:  ledgerRepo,
	}
}

// Buy converts points into tickets. The debit and the ticket rows commit in
// one transaction, so no interleaving of purchases can spend the same point
// twice or leave a paid-for ticket missing.
func (d *ticketDomain) Buy(
	ctx context.Context, req *model.BuyTicketsRequest,
) (*model.BuyTicketsResponse, error) {
	userID := xcontext.RequestUserID(ctx)

	maxQuantity := xcontext.Configs(ctx).Drawing.MaxTicketsPerBuy
	if req.Quantity <= 0 || req.Quantity > maxQuantity {
		return nil, errorx.New(errorx.BadRequest,
			"The quantity must be between 1 and %d", maxQuantity)
	}

	drawing, err := d.drawingRepo.GetByID(ctx, req.DrawingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found drawing")
		}

		xcontext.Logger(ctx).Errorf("Cannot get drawing: %v", err)
		return nil, errorx.Unknown
	}

	if drawing.Status != entity.DrawingOpen {
		return nil, errorx.New(errorx.InvalidDrawingState,
			"Drawing is not open for ticket sales")
	}

	now := time.Now()
	salesClose := drawing.DrawTime.Add(-xcontext.Configs(ctx).Drawing.SalesCloseMargin)
	if now.Before(drawing.OpenTime) || !now.Before(salesClose) || !now.Before(drawing.CloseTime) {
		return nil, errorx.New(errorx.InvalidDrawingState, "Ticket sales are closed")
	}

	cost := drawing.TicketCost * int64(req.Quantity)

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	// The status was checked on a read outside this transaction. Re-check it
	// with a guarded write so tickets cannot commit after a concurrent close
	// took its snapshot.
	if err := d.drawingRepo.ConfirmOpen(ctx, drawing.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.InvalidDrawingState, "Ticket sales are closed")
		}

		xcontext.Logger(ctx).Errorf("Cannot confirm drawing status: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.userRepo.DecreaseBalance(ctx, userID, cost); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.InsufficientBalance,
				"Not enough points to buy %d tickets", req.Quantity)
		}

		xcontext.Logger(ctx).Errorf("Cannot decrease balance: %v", err)
		return nil, errorx.Unknown
	}

	user, err := d.userRepo.GetCurrent(ctx, userID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot read back balance: %v", err)
		return nil, errorx.Unknown
	}

	entry := &entity.LedgerEntry{
		UserID:       userID,
		Kind:         entity.EntrySpend,
		OccurredAt:   now,
		Amount:       -cost,
		ReasonCode:   ReasonTicketPurchase,
		BalanceAfter: user.PointsBalance,
		SourceRef:    drawing.ID,
	}
	if err := d.ledgerRepo.Append(ctx, entry); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot append spend entry: %v", err)
		return nil, errorx.Unknown
	}

	tickets := make([]*entity.Ticket, 0, req.Quantity)
	for i := 0; i < req.Quantity; i++ {
		tickets = append(tickets, &entity.Ticket{
			SnowFlakeBase:  entity.SnowFlakeBase{ID: idutil.Next()},
			DrawingID:      drawing.ID,
			UserID:         userID,
			PurchaseTxnRef: entry.ID,
		})
	}

	if err := d.ticketRepo.CreateAll(ctx, tickets); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create tickets: %v", err)
		return nil, errorx.Unknown
	}

	xcontext.WithCommitDBTransaction(ctx)
	d.userRepo.InvalidateCache(ctx, userID)

	resp := &model.BuyTicketsResponse{
		Cost:    cost,
		Balance: user.PointsBalance,
	}
	for _, t := range tickets {
		resp.Tickets = append(resp.Tickets, convertTicket(*t))
	}

	return resp, nil
}

func (d *ticketDomain) GetMine(
	ctx context.Context, req *model.GetTicketsRequest,
) (*model.GetTicketsResponse, error) {
	userID := xcontext.RequestUserID(ctx)

	tickets, err := d.ticketRepo.GetByUserAndDrawing(ctx, userID, req.DrawingID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get tickets: %v", err)
		return nil, errorx.Unknown
	}

	resp := &model.GetTicketsResponse{Tickets: []model.Ticket{}}
	for _, t := range tickets {
		resp.Tickets = append(resp.Tickets, convertTicket(t))
	}

	return resp, nil
}
