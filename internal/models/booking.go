package models

import (
	"time"

	"github.com/uptrace/bun"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusPaid      BookingStatus = "PAID"
	StatusCancelled BookingStatus = "CANCELLED"
)

// CanTransitionTo enforces the booking lifecycle: PENDING → CONFIRMED → PAID,
// with CANCELLED reachable from PENDING or CONFIRMED, and PENDING → PAID
// allowed because a settlement may sweep a booking whose confirmation is still
// in flight. PAID and CANCELLED are terminal.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusPaid || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusPaid || next == StatusCancelled
	default:
		return false
	}
}

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	BookingID      string        `bun:"booking_id,pk" json:"booking_id"`
	UserID         int64         `bun:"user_id,notnull" json:"user_id"`
	EventID        string        `bun:"event_id,notnull" json:"event_id"`
	Tickets        int           `bun:"tickets,notnull" json:"tickets"`
	Status         BookingStatus `bun:"status,notnull" json:"status"`
	IdempotencyKey string        `bun:"idempotency_key,notnull,unique" json:"-"`
	CreatedAt      time.Time     `bun:"created_at,notnull" json:"created_at"`
}

type PaymentLineItem struct {
	bun.BaseModel `bun:"table:payment_line_items"`

	LineItemID string    `bun:"line_item_id,pk" json:"line_item_id"`
	BookingID  string    `bun:"booking_id,notnull,unique" json:"booking_id"`
	UserID     int64     `bun:"user_id,notnull" json:"user_id"`
	EventID    string    `bun:"event_id,notnull" json:"event_id"`
	Cost       float64   `bun:"cost,notnull" json:"cost"`
	CreatedAt  time.Time `bun:"created_at,notnull" json:"created_at"`
}

type BookingRequest struct {
	UserID         int64  `json:"user_id" validate:"required,gt=0"`
	EventID        string `json:"event_id" validate:"required"`
	Tickets        int    `json:"tickets" validate:"required,gt=0"`
	IdempotencyKey string `json:"idempotency_key" validate:"required"`
}

type BookingConfirmation struct {
	BookingID string        `json:"booking_id"`
	Status    BookingStatus `json:"status"`
}

type SettlementRequest struct {
	UserID int64   `json:"user_id" validate:"required,gt=0"`
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

type SettlementResult struct {
	TotalPaid float64 `json:"total_paid"`
	Bookings  int     `json:"bookings"`
}

// BookingEvent is the message published on the notification topic, one per
// confirmed booking. The booking ID is the consumer's deduplication key.
type BookingEvent struct {
	BookingID string        `json:"booking_id"`
	UserID    int64         `json:"user_id"`
	EventID   string        `json:"event_id"`
	Tickets   int           `json:"tickets"`
	Status    BookingStatus `json:"status"`
}

// NotificationRecord is the durable copy of a booking snapshot written by the
// notification consumer. BookingID doubles as the Mongo _id.
type NotificationRecord struct {
	BookingID string        `bson:"_id" json:"booking_id"`
	UserID    int64         `bson:"user_id" json:"user_id"`
	EventID   string        `bson:"event_id" json:"event_id"`
	Tickets   int           `bson:"tickets" json:"tickets"`
	Status    BookingStatus `bson:"status" json:"status"`
	StoredAt  time.Time     `bson:"stored_at" json:"stored_at"`
}
