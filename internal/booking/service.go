package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"ms-booking/internal/config"
	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

// LedgerStore is the slice of the booking ledger the orchestrator needs.
type LedgerStore interface {
	InsertBooking(ctx context.Context, booking models.Booking) (*models.Booking, bool, error)
	GetBookingByID(ctx context.Context, id string) (*models.Booking, error)
	GetBookingByIdempotencyKey(ctx context.Context, key string) (*models.Booking, error)
	ListBookings(ctx context.Context, userID int64) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, id string, expected, next models.BookingStatus) (bool, error)
}

// InventoryClient reserves event capacity. Reserve must be atomic: a false
// return means nothing was taken.
type InventoryClient interface {
	Capacity(ctx context.Context, eventID string) (int, error)
	Reserve(ctx context.Context, eventID string, count int) (bool, error)
	Release(ctx context.Context, eventID string, count int) error
}

// PaymentAuthorizer authorizes one charge. ErrPaymentDeclined is definitive;
// any other failure is treated as transient.
type PaymentAuthorizer interface {
	Authorize(ctx context.Context, userID int64, amount float64) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
}

// BookingService drives the create-booking saga: reserve capacity, authorize
// payment, persist the booking, publish a notification event. It owns
// compensation when a later step fails after an earlier one committed.
type BookingService struct {
	DB        LedgerStore
	Inventory InventoryClient
	Payments  PaymentAuthorizer
	Publisher EventPublisher

	topic  string
	cfg    config.BookingConfig
	logger *logger.Logger
}

func NewBookingService(db LedgerStore, inv InventoryClient, pay PaymentAuthorizer, pub EventPublisher, topic string, cfg config.BookingConfig, log *logger.Logger) *BookingService {
	return &BookingService{
		DB:        db,
		Inventory: inv,
		Payments:  pay,
		Publisher: pub,
		topic:     topic,
		cfg:       cfg,
		logger:    log,
	}
}

func (s *BookingService) CreateBooking(ctx context.Context, req models.BookingRequest) (*models.BookingConfirmation, error) {
	if req.Tickets <= 0 {
		return nil, models.ErrInvalidTicketCount
	}

	// A retried request bearing a known idempotency key returns the booking
	// created the first time, without touching inventory or payment again.
	existing, err := s.DB.GetBookingByIdempotencyKey(ctx, req.IdempotencyKey)
	if err == nil {
		s.logBooking("REPLAY", existing.BookingID, "idempotency key already used, returning existing booking")
		return &models.BookingConfirmation{BookingID: existing.BookingID, Status: existing.Status}, nil
	}
	if !errors.Is(err, models.ErrBookingNotFound) {
		return nil, fmt.Errorf("%w: ledger lookup: %v", models.ErrServiceUnavailable, err)
	}

	// Step 1: check remaining capacity.
	var capacity int
	err = s.withRetry(ctx, "inventory capacity", func(ctx context.Context) error {
		var cerr error
		capacity, cerr = s.Inventory.Capacity(ctx, req.EventID)
		return cerr
	})
	if err != nil {
		return nil, err
	}
	if capacity < req.Tickets {
		return nil, models.ErrCapacityExceeded
	}

	// Step 2: reserve atomically. A concurrent booking may have exhausted
	// capacity since the check; the reservation itself is the authority.
	var reserved bool
	err = s.withRetry(ctx, "inventory reserve", func(ctx context.Context) error {
		var rerr error
		reserved, rerr = s.Inventory.Reserve(ctx, req.EventID, req.Tickets)
		return rerr
	})
	if err != nil {
		return nil, err
	}
	if !reserved {
		return nil, models.ErrCapacityExceeded
	}

	// Step 3: persist the booking as PENDING. The ledger's unique idempotency
	// key constraint is the anchor against duplicate creation under races.
	booking, created, err := s.DB.InsertBooking(ctx, models.Booking{
		UserID:         req.UserID,
		EventID:        req.EventID,
		Tickets:        req.Tickets,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		s.releaseReservation(req.EventID, req.Tickets)
		return nil, fmt.Errorf("%w: ledger insert: %v", models.ErrServiceUnavailable, err)
	}
	if !created {
		// Lost an idempotency race: the winner's saga owns the booking, so
		// give back the units this attempt reserved.
		s.releaseReservation(req.EventID, req.Tickets)
		s.logBooking("REPLAY", booking.BookingID, "concurrent duplicate request, returning winner's booking")
		return &models.BookingConfirmation{BookingID: booking.BookingID, Status: booking.Status}, nil
	}
	s.logBooking("CREATE", booking.BookingID, fmt.Sprintf("pending booking for user %d, event %s, %d tickets", req.UserID, req.EventID, req.Tickets))

	// Step 4: authorize payment. Declines and exhausted retries both
	// compensate the reservation and cancel the booking.
	err = s.withRetry(ctx, "payment authorize", func(ctx context.Context) error {
		return s.Payments.Authorize(ctx, req.UserID, s.cfg.Charge)
	})
	if err != nil {
		s.compensate(booking, req.EventID, req.Tickets)
		return nil, err
	}

	// Step 5: PENDING → CONFIRMED.
	ok, err := s.DB.UpdateStatus(ctx, booking.BookingID, models.StatusPending, models.StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("%w: ledger confirm: %v", models.ErrServiceUnavailable, err)
	}
	if !ok {
		// Someone else moved the booking (e.g. a settlement swept it up).
		// The ledger is the source of truth; report what it holds now.
		current, gerr := s.DB.GetBookingByID(ctx, booking.BookingID)
		if gerr != nil {
			return nil, fmt.Errorf("%w: ledger re-read: %v", models.ErrServiceUnavailable, gerr)
		}
		s.logBooking("CONFIRM", booking.BookingID, fmt.Sprintf("status moved concurrently to %s", current.Status))
		return &models.BookingConfirmation{BookingID: current.BookingID, Status: current.Status}, nil
	}
	s.logBooking("CONFIRM", booking.BookingID, "payment authorized, booking confirmed")

	// Step 6: publish the confirmation snapshot. The booking is committed; a
	// failed publish is a delivery concern, never a reason to roll back.
	s.publishConfirmed(ctx, booking)

	return &models.BookingConfirmation{BookingID: booking.BookingID, Status: models.StatusConfirmed}, nil
}

// ListBookings returns bookings ordered by creation, optionally for one user.
func (s *BookingService) ListBookings(ctx context.Context, userID int64) ([]models.Booking, error) {
	return s.DB.ListBookings(ctx, userID)
}

// compensate reverses the committed steps of a failed saga: the reservation is
// released and the booking moves to its terminal CANCELLED state.
func (s *BookingService) compensate(booking *models.Booking, eventID string, tickets int) {
	s.releaseReservation(eventID, tickets)

	// Fresh context: the request may already be cancelled but the
	// compensation must still run to completion.
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CallTimeout)
	defer cancel()

	ok, err := s.DB.UpdateStatus(ctx, booking.BookingID, models.StatusPending, models.StatusCancelled)
	if err != nil {
		s.logError("COMPENSATE", fmt.Sprintf("failed to cancel booking %s: %v", booking.BookingID, err))
		return
	}
	if !ok {
		s.logError("COMPENSATE", fmt.Sprintf("booking %s no longer pending, skipping cancel", booking.BookingID))
		return
	}
	s.logBooking("COMPENSATE", booking.BookingID, "reservation released, booking cancelled")
}

func (s *BookingService) releaseReservation(eventID string, tickets int) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CallTimeout)
	defer cancel()
	if err := s.Inventory.Release(ctx, eventID, tickets); err != nil {
		s.logError("COMPENSATE", fmt.Sprintf("failed to release %d units for event %s: %v", tickets, eventID, err))
	}
}

func (s *BookingService) publishConfirmed(ctx context.Context, booking *models.Booking) {
	event := models.BookingEvent{
		BookingID: booking.BookingID,
		UserID:    booking.UserID,
		EventID:   booking.EventID,
		Tickets:   booking.Tickets,
		Status:    models.StatusConfirmed,
	}
	value, err := json.Marshal(event)
	if err != nil {
		s.logError("KAFKA", fmt.Sprintf("failed to marshal event for booking %s: %v", booking.BookingID, err))
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	if err := s.Publisher.Publish(pubCtx, s.topic, booking.BookingID, value); err != nil {
		s.logError("KAFKA", fmt.Sprintf("failed to publish confirmation for booking %s: %v", booking.BookingID, err))
		return
	}
	if s.logger != nil {
		s.logger.LogKafka("PUBLISH", s.topic, "booking "+booking.BookingID+" confirmed")
	}
}

func (s *BookingService) logBooking(action, id, msg string) {
	if s.logger != nil {
		s.logger.LogBooking(action, id, msg)
	}
}

func (s *BookingService) logError(category, msg string) {
	if s.logger != nil {
		s.logger.Error(category, msg)
	}
}
