package domain

import (
	"database/sql"
	"time"

	"github.com/fittrack-app/backend/internal/entity"
	"github.com/fittrack-app/backend/internal/model"
)

func convertLedgerEntry(e entity.LedgerEntry) model.LedgerEntry {
	return model.LedgerEntry{
		ID:           e.ID,
		CreatedAt:    e.CreatedAt,
		OccurredAt:   e.OccurredAt,
		Kind:         string(e.Kind),
		Amount:       e.Amount,
		ReasonCode:   e.ReasonCode,
		BalanceAfter: e.BalanceAfter,
		SourceRef:    e.SourceRef,
	}
}

func convertDrawing(d entity.Drawing) model.Drawing {
	return model.Drawing{
		ID:          d.ID,
		Name:        d.Name,
		Type:        string(d.Type),
		Status:      string(d.Status),
		TicketCost:  d.TicketCost,
		WinnerCount: d.WinnerCount,
		OpenTime:    d.OpenTime,
		CloseTime:   d.CloseTime,
		DrawTime:    d.DrawTime,
	}
}

func convertTicket(t entity.Ticket) model.Ticket {
	return model.Ticket{
		ID:             t.ID,
		DrawingID:      t.DrawingID,
		UserID:         t.UserID,
		SequenceNumber: t.SequenceNumber,
		IsWinner:       t.IsWinner,
		PurchasedAt:    t.CreatedAt,
	}
}

func convertFulfillment(f entity.PrizeFulfillment) model.Fulfillment {
	return model.Fulfillment{
		ID:              f.ID,
		TicketID:        f.TicketID,
		DrawingID:       f.DrawingID,
		UserID:          f.UserID,
		Status:          string(f.Status),
		NotifiedAt:      nullTimePtr(f.NotifiedAt),
		ShippingAddress: f.ShippingAddress,
		ShippingCarrier: f.ShippingCarrier,
		TrackingNumber:  f.TrackingNumber,
		ShippedAt:       nullTimePtr(f.ShippedAt),
		DeliveredAt:     nullTimePtr(f.DeliveredAt),
		ForfeitedAt:     nullTimePtr(f.ForfeitedAt),
	}
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}

	v := t.Time
	return &v
}
