package entity

import (
	"database/sql"

	"github.com/fittrack-app/backend/pkg/enum"
)

type FulfillmentStatus string

var (
	FulfillmentPending          = enum.New(FulfillmentStatus("pending"))
	FulfillmentWinnerNotified   = enum.New(FulfillmentStatus("winner_notified"))
	FulfillmentAddressConfirmed = enum.New(FulfillmentStatus("address_confirmed"))
	FulfillmentAddressInvalid   = enum.New(FulfillmentStatus("address_invalid"))
	FulfillmentShipped          = enum.New(FulfillmentStatus("shipped"))
	FulfillmentDelivered        = enum.New(FulfillmentStatus("delivered"))
	FulfillmentForfeited        = enum.New(FulfillmentStatus("forfeited"))
)

type PrizeFulfillment struct {
	Base

	TicketID int64  `gorm:"index"`
	Ticket   Ticket `gorm:"foreignKey:TicketID"`

	DrawingID string `gorm:"index"`
	UserID    string `gorm:"index"`

	Status FulfillmentStatus `gorm:"index"`

	NotifiedAt             sql.NullTime
	AddressConfirmDeadline sql.NullTime
	WarningSentAt          sql.NullTime
	AddressConfirmedAt     sql.NullTime

	ShippingAddress Map
	ShippingCarrier string
	TrackingNumber  string

	ShippedAt   sql.NullTime
	DeliveredAt sql.NullTime
	ForfeitedAt sql.NullTime
	Notes       string
}
