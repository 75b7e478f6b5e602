package db

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	"ms-booking/internal/models"
)

// Migrate creates the ledger tables and indexes if they don't exist. The
// unique index on idempotency_key is what makes InsertBooking idempotent.
func Migrate(db *bun.DB) {
	ctx := context.Background()

	_, err := db.NewCreateTable().Model((*models.Booking)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		log.Fatalf("create bookings table failed: %v", err)
	}

	_, err = db.NewCreateTable().Model((*models.PaymentLineItem)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		log.Fatalf("create payment_line_items table failed: %v", err)
	}

	_, err = db.NewCreateIndex().
		Model((*models.Booking)(nil)).
		Index("idx_bookings_user_status").
		Column("user_id", "status").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		log.Fatalf("create bookings index failed: %v", err)
	}

	log.Println("ledger tables ready")
}
