package notification

import (
	"context"

	"ms-booking/internal/models"
)

// Store persists notification records durably. SaveIfAbsent has
// write-if-absent semantics keyed on booking ID: redelivered messages write
// nothing and report created=false.
type Store interface {
	SaveIfAbsent(ctx context.Context, record models.NotificationRecord) (created bool, err error)
}
