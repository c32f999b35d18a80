package domain

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/fittrack-app/backend/internal/entity"
	"github.com/fittrack-app/backend/internal/model"
	"github.com/fittrack-app/backend/internal/repository"
	"github.com/fittrack-app/backend/pkg/errorx"
	"github.com/fittrack-app/backend/pkg/pubsub"
	"github.com/fittrack-app/backend/pkg/xcontext"
	"gorm.io/gorm"
)

// fulfillmentSources lists which statuses each event may fire from.
// Delivered and forfeited have no outgoing events; they are terminal.
var fulfillmentSources = map[model.FulfillmentEvent][]entity.FulfillmentStatus{
	model.EventNotifyWinner:   {entity.FulfillmentPending},
	model.EventConfirmAddress: {entity.FulfillmentWinnerNotified, entity.FulfillmentAddressInvalid},
	model.EventInvalidAddress: {entity.FulfillmentAddressConfirmed},
	model.EventShip:           {entity.FulfillmentAddressConfirmed},
	model.EventDeliver:        {entity.FulfillmentShipped},
	model.EventForfeit:        {entity.FulfillmentWinnerNotified, entity.FulfillmentAddressConfirmed},
}

var fulfillmentTargets = map[model.FulfillmentEvent]entity.FulfillmentStatus{
	model.EventNotifyWinner:   entity.FulfillmentWinnerNotified,
	model.EventConfirmAddress: entity.FulfillmentAddressConfirmed,
	model.EventInvalidAddress: entity.FulfillmentAddressInvalid,
	model.EventShip:           entity.FulfillmentShipped,
	model.EventDeliver:        entity.FulfillmentDelivered,
	model.EventForfeit:        entity.FulfillmentForfeited,
}

var requiredAddressFields = []string{"line1", "city", "postal_code", "country"}

type FulfillmentDomain interface {
	Advance(ctx context.Context, req *model.AdvanceFulfillmentRequest) (*model.AdvanceFulfillmentResponse, error)
	Get(ctx context.Context, req *model.GetFulfillmentRequest) (*model.GetFulfillmentResponse, error)
	Sweep(ctx context.Context) error
}

type fulfillmentDomain struct {
	fulfillmentRepo repository.FulfillmentRepository
	publisher       pubsub.Publisher
}

func NewFulfillmentDomain(
	fulfillmentRepo repository.FulfillmentRepository,
	publisher pubsub.Publisher,
) *fulfillmentDomain {
	return &fulfillmentDomain{
		fulfillmentRepo: fulfillmentRepo,
		publisher:       publisher,
	}
}

// Advance applies one event to a fulfillment. The status guard in the
// update means two concurrent advances of the same fulfillment cannot both
// succeed.
func (d *fulfillmentDomain) Advance(
	ctx context.Context, req *model.AdvanceFulfillmentRequest,
) (*model.AdvanceFulfillmentResponse, error) {
	event := model.FulfillmentEvent(req.Event)
	sources, ok := fulfillmentSources[event]
	if !ok {
		return nil, errorx.New(errorx.BadRequest, "Invalid event %s", req.Event)
	}

	fulfillment, err := d.fulfillmentRepo.GetByID(ctx, req.FulfillmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found fulfillment")
		}

		xcontext.Logger(ctx).Errorf("Cannot get fulfillment: %v", err)
		return nil, errorx.Unknown
	}

	allowed := false
	for _, s := range sources {
		if fulfillment.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, errorx.New(errorx.InvalidTransition,
			"Cannot apply %s to a fulfillment in status %s", event, fulfillment.Status)
	}

	updates, err := d.eventUpdates(ctx, event, req)
	if err != nil {
		return nil, err
	}

	err = d.fulfillmentRepo.Transition(ctx, fulfillment.ID,
		fulfillment.Status, fulfillmentTargets[event], updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.Contention,
				"Fulfillment was changed by another request")
		}

		xcontext.Logger(ctx).Errorf("Cannot transition fulfillment: %v", err)
		return nil, errorx.Unknown
	}

	fulfillment, err = d.fulfillmentRepo.GetByID(ctx, req.FulfillmentID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot reload fulfillment: %v", err)
		return nil, errorx.Unknown
	}

	// Every state entry tells the notification layer, fire and forget.
	d.publish(ctx, string(event), fulfillment)

	return &model.AdvanceFulfillmentResponse{
		Fulfillment: convertFulfillment(*fulfillment),
	}, nil
}

func (d *fulfillmentDomain) Get(
	ctx context.Context, req *model.GetFulfillmentRequest,
) (*model.GetFulfillmentResponse, error) {
	fulfillment, err := d.fulfillmentRepo.GetByID(ctx, req.FulfillmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found fulfillment")
		}

		xcontext.Logger(ctx).Errorf("Cannot get fulfillment: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetFulfillmentResponse{
		Fulfillment: convertFulfillment(*fulfillment),
	}, nil
}

// Sweep runs the time-driven transitions: notify freshly created winners,
// warn stale ones, and forfeit those past the confirmation deadline.
func (d *fulfillmentDomain) Sweep(ctx context.Context) error {
	cfg := xcontext.Configs(ctx).Fulfillment
	now := time.Now()

	pending, err := d.fulfillmentRepo.GetByStatus(ctx, entity.FulfillmentPending)
	if err != nil {
		return err
	}

	for _, f := range pending {
		_, err := d.Advance(ctx, &model.AdvanceFulfillmentRequest{
			FulfillmentID: f.ID,
			Event:         string(model.EventNotifyWinner),
		})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot notify winner of fulfillment %s: %v", f.ID, err)
		}
	}

	warnCutoff := now.Add(-cfg.ConfirmWarningAfter)
	stale, err := d.fulfillmentRepo.GetNotifiedBefore(ctx, warnCutoff)
	if err != nil {
		return err
	}

	for _, f := range stale {
		if f.WarningSentAt.Valid {
			continue
		}

		if err := d.fulfillmentRepo.SetWarningSent(ctx, f.ID, now); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot mark warning of fulfillment %s: %v", f.ID, err)
			continue
		}

		d.publish(ctx, "fulfillment_warning", &f)
	}

	forfeitCutoff := now.Add(-cfg.ConfirmForfeitAfter)
	expired, err := d.fulfillmentRepo.GetNotifiedBefore(ctx, forfeitCutoff)
	if err != nil {
		return err
	}

	for _, f := range expired {
		_, err := d.Advance(ctx, &model.AdvanceFulfillmentRequest{
			FulfillmentID: f.ID,
			Event:         string(model.EventForfeit),
			Notes:         "Address confirmation deadline passed",
		})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot forfeit fulfillment %s: %v", f.ID, err)
		}
	}

	return nil
}

func (d *fulfillmentDomain) eventUpdates(
	ctx context.Context, event model.FulfillmentEvent, req *model.AdvanceFulfillmentRequest,
) (map[string]any, error) {
	now := sql.NullTime{Time: time.Now(), Valid: true}
	updates := map[string]any{}
	if req.Notes != "" {
		updates["notes"] = req.Notes
	}

	switch event {
	case model.EventNotifyWinner:
		deadline := time.Now().Add(xcontext.Configs(ctx).Fulfillment.ConfirmForfeitAfter)
		updates["notified_at"] = now
		updates["address_confirm_deadline"] = sql.NullTime{Time: deadline, Valid: true}

	case model.EventConfirmAddress:
		for _, field := range requiredAddressFields {
			if v, ok := req.ShippingAddress[field].(string); !ok || v == "" {
				return nil, errorx.New(errorx.BadRequest,
					"Shipping address is missing %s", field)
			}
		}

		updates["shipping_address"] = entity.Map(req.ShippingAddress)
		updates["address_confirmed_at"] = now

	case model.EventShip:
		if req.ShippingCarrier == "" || req.TrackingNumber == "" {
			return nil, errorx.New(errorx.BadRequest,
				"Shipping requires a carrier and a tracking number")
		}

		updates["shipping_carrier"] = req.ShippingCarrier
		updates["tracking_number"] = req.TrackingNumber
		updates["shipped_at"] = now

	case model.EventDeliver:
		updates["delivered_at"] = now

	case model.EventForfeit:
		updates["forfeited_at"] = now
	}

	return updates, nil
}

func (d *fulfillmentDomain) publish(ctx context.Context, kind string, f *entity.PrizeFulfillment) {
	if d.publisher == nil {
		return
	}

	msg, err := json.Marshal(map[string]any{
		"type":           kind,
		"fulfillment_id": f.ID,
		"drawing_id":     f.DrawingID,
		"user_id":        f.UserID,
		"status":         string(f.Status),
	})
	if err != nil {
		return
	}

	topic := xcontext.Configs(ctx).Kafka.NotificationTopic
	err = d.publisher.Publish(ctx, topic, &pubsub.Pack{Key: []byte(f.UserID), Msg: msg})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot publish %s notification: %v", kind, err)
	}
}
