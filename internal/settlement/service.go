package settlement

import (
	"context"
	"fmt"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

// LedgerStore is the slice of the booking ledger settlement needs.
type LedgerStore interface {
	GetBookingsByUser(ctx context.Context, userID int64, statuses ...models.BookingStatus) ([]models.Booking, error)
	SettleBookings(ctx context.Context, bookings []models.Booking, unitPrice float64) error
}

// UserLock serializes settlement attempts per user.
type UserLock interface {
	Acquire(ctx context.Context, userID int64) (token string, ok bool, err error)
	Release(ctx context.Context, userID int64, token string) error
}

// SettlementService reconciles a user's outstanding bookings against a
// submitted amount and atomically transitions them to PAID, recording one
// payment line item per booking.
type SettlementService struct {
	DB    LedgerStore
	Locks UserLock

	unitPrice float64
	logger    *logger.Logger
}

func NewSettlementService(db LedgerStore, locks UserLock, unitPrice float64, log *logger.Logger) *SettlementService {
	return &SettlementService{
		DB:        db,
		Locks:     locks,
		unitPrice: unitPrice,
		logger:    log,
	}
}

func (s *SettlementService) SettlePayment(ctx context.Context, userID int64, amount float64) (*models.SettlementResult, error) {
	token, ok, err := s.Locks.Acquire(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: settlement lock: %v", models.ErrServiceUnavailable, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: settlement already in progress for user %d", models.ErrSettlementFailed, userID)
	}
	defer func() {
		if rerr := s.Locks.Release(context.Background(), userID, token); rerr != nil && s.logger != nil {
			s.logger.Error("SETTLEMENT", fmt.Sprintf("failed to release lock for user %d: %v", userID, rerr))
		}
	}()

	bookings, err := s.DB.GetBookingsByUser(ctx, userID, models.StatusConfirmed, models.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("%w: ledger query: %v", models.ErrServiceUnavailable, err)
	}
	if len(bookings) == 0 {
		return nil, models.ErrNothingToSettle
	}

	var totalDue float64
	for _, b := range bookings {
		totalDue += float64(b.Tickets) * s.unitPrice
	}

	// No state is mutated on a mismatch; the caller learns the expected total.
	if amount != totalDue {
		return nil, &models.AmountMismatchError{Expected: totalDue, Submitted: amount}
	}

	if err := s.DB.SettleBookings(ctx, bookings, s.unitPrice); err != nil {
		return nil, err
	}

	if s.logger != nil {
		s.logger.LogSettlement("PAID", userID, fmt.Sprintf("%d bookings settled for %.2f", len(bookings), totalDue))
	}

	return &models.SettlementResult{TotalPaid: totalDue, Bookings: len(bookings)}, nil
}
