package model

import "time"

type Fulfillment struct {
	ID              string         `json:"id"`
	TicketID        int64          `json:"ticket_id"`
	DrawingID       string         `json:"drawing_id"`
	UserID          string         `json:"user_id"`
	Status          string         `json:"status"`
	NotifiedAt      *time.Time     `json:"notified_at,omitempty"`
	ShippingAddress map[string]any `json:"shipping_address,omitempty"`
	ShippingCarrier string         `json:"shipping_carrier,omitempty"`
	TrackingNumber  string         `json:"tracking_number,omitempty"`
	ShippedAt       *time.Time     `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time     `json:"delivered_at,omitempty"`
	ForfeitedAt     *time.Time     `json:"forfeited_at,omitempty"`
}

// FulfillmentEvent drives the state machine. Each event is valid from a
// fixed set of source states; anything else is an invalid transition.
type FulfillmentEvent string

const (
	EventNotifyWinner   FulfillmentEvent = "notify_winner"
	EventConfirmAddress FulfillmentEvent = "confirm_address"
	EventInvalidAddress FulfillmentEvent = "invalidate_address"
	EventShip           FulfillmentEvent = "ship"
	EventDeliver        FulfillmentEvent = "deliver"
	EventForfeit        FulfillmentEvent = "forfeit"
)

type AdvanceFulfillmentRequest struct {
	FulfillmentID string `json:"fulfillment_id"`
	Event         string `json:"event"`

	// ShippingAddress is required with confirm_address.
	ShippingAddress map[string]any `json:"shipping_address,omitempty"`

	// Carrier and tracking are required with ship.
	ShippingCarrier string `json:"shipping_carrier,omitempty"`
	TrackingNumber  string `json:"tracking_number,omitempty"`

	Notes string `json:"notes,omitempty"`
}

type AdvanceFulfillmentResponse struct {
	Fulfillment Fulfillment `json:"fulfillment"`
}

type GetFulfillmentRequest struct {
	FulfillmentID string `json:"fulfillment_id"`
}

type GetFulfillmentResponse struct {
	Fulfillment Fulfillment `json:"fulfillment"`
}
