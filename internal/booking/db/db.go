package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"ms-booking/internal/models"
)

// DB is the booking ledger: the single source of truth for booking status.
// All multi-row mutations run in a transaction and are fully applied or fully
// discarded.
type DB struct {
	Bun *bun.DB
}

// ---------------- BOOKINGS ----------------

// InsertBooking inserts a new PENDING booking, assigning its ID. The
// idempotency key carries a unique constraint: if a booking with the same key
// already exists, the existing row is returned and created is false.
func (d *DB) InsertBooking(ctx context.Context, booking models.Booking) (*models.Booking, bool, error) {
	booking.BookingID = uuid.NewString()
	booking.Status = models.StatusPending
	booking.CreatedAt = time.Now().UTC()

	res, err := d.Bun.NewInsert().
		Model(&booking).
		On("CONFLICT (idempotency_key) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("insert booking: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	if rows == 0 {
		existing, err := d.GetBookingByIdempotencyKey(ctx, booking.IdempotencyKey)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	return &booking, true, nil
}

func (d *DB) GetBookingByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("booking_id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (d *DB) GetBookingByIdempotencyKey(ctx context.Context, key string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Where("idempotency_key = ?", key).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// GetBookingsByUser returns a user's bookings, optionally filtered by status,
// ordered by creation time.
func (d *DB) GetBookingsByUser(ctx context.Context, userID int64, statuses ...models.BookingStatus) ([]models.Booking, error) {
	var bookings []models.Booking
	q := d.Bun.NewSelect().
		Model(&bookings).
		Where("user_id = ?", userID)
	if len(statuses) > 0 {
		q = q.Where("status IN (?)", bun.In(statuses))
	}
	err := q.Order("created_at ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// ListBookings returns all bookings ordered by creation time. A non-zero
// userID narrows the listing to that user.
func (d *DB) ListBookings(ctx context.Context, userID int64) ([]models.Booking, error) {
	var bookings []models.Booking
	q := d.Bun.NewSelect().Model(&bookings)
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	err := q.Order("created_at ASC").Scan(ctx)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// UpdateStatus transitions one booking conditionally: the update applies only
// if the row still holds the expected status. Returns false when the guard
// does not match, preventing lost updates. Transitions outside the booking
// lifecycle are rejected outright.
func (d *DB) UpdateStatus(ctx context.Context, id string, expected, next models.BookingStatus) (bool, error) {
	if !expected.CanTransitionTo(next) {
		return false, fmt.Errorf("invalid status transition %s -> %s", expected, next)
	}
	res, err := d.Bun.NewUpdate().
		Model((*models.Booking)(nil)).
		Set("status = ?", next).
		Where("booking_id = ?", id).
		Where("status = ?", expected).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// BatchUpdateStatus transitions a set of bookings in one transaction. If any
// row no longer holds the expected status the whole batch rolls back.
func (d *DB) BatchUpdateStatus(ctx context.Context, ids []string, expected, next models.BookingStatus) error {
	if len(ids) == 0 {
		return nil
	}
	if !expected.CanTransitionTo(next) {
		return fmt.Errorf("invalid status transition %s -> %s", expected, next)
	}
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.Booking)(nil)).
			Set("status = ?", next).
			Where("booking_id IN (?)", bun.In(ids)).
			Where("status = ?", expected).
			Exec(ctx)
		if err != nil {
			return err
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if rows != int64(len(ids)) {
			return fmt.Errorf("%w: expected %d rows, updated %d", models.ErrSettlementFailed, len(ids), rows)
		}
		return nil
	})
}

// ---------------- SETTLEMENT ----------------

// SettleBookings marks every given booking PAID and appends one payment line
// item per booking, all inside a single transaction. Each update is guarded on
// the status the booking held when it was fetched, so a booking settled or
// cancelled concurrently fails the guard and rolls the whole batch back.
func (d *DB) SettleBookings(ctx context.Context, bookings []models.Booking, unitPrice float64) error {
	if len(bookings) == 0 {
		return models.ErrNothingToSettle
	}
	err := d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now().UTC()
		lineItems := make([]models.PaymentLineItem, 0, len(bookings))

		for _, b := range bookings {
			if !b.Status.CanTransitionTo(models.StatusPaid) {
				return fmt.Errorf("booking %s in status %s cannot be settled", b.BookingID, b.Status)
			}
			res, err := tx.NewUpdate().
				Model((*models.Booking)(nil)).
				Set("status = ?", models.StatusPaid).
				Where("booking_id = ?", b.BookingID).
				Where("status = ?", b.Status).
				Exec(ctx)
			if err != nil {
				return err
			}
			rows, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if rows != 1 {
				return fmt.Errorf("booking %s changed status concurrently", b.BookingID)
			}

			lineItems = append(lineItems, models.PaymentLineItem{
				LineItemID: uuid.NewString(),
				BookingID:  b.BookingID,
				UserID:     b.UserID,
				EventID:    b.EventID,
				Cost:       float64(b.Tickets) * unitPrice,
				CreatedAt:  now,
			})
		}

		_, err := tx.NewInsert().Model(&lineItems).Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrSettlementFailed, err)
	}
	return nil
}

// GetLineItemsByUser returns a user's payment line items ordered by creation.
func (d *DB) GetLineItemsByUser(ctx context.Context, userID int64) ([]models.PaymentLineItem, error) {
	var items []models.PaymentLineItem
	err := d.Bun.NewSelect().
		Model(&items).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return items, nil
}
