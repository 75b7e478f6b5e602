package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTicketCount = errors.New("ticket count must be positive")
	ErrCapacityExceeded   = errors.New("event capacity exceeded")
	ErrPaymentDeclined    = errors.New("payment declined")
	ErrServiceUnavailable = errors.New("collaborator service unavailable")
	ErrNothingToSettle    = errors.New("no outstanding bookings to settle")
	ErrSettlementFailed   = errors.New("settlement transaction failed")
	ErrBookingNotFound    = errors.New("booking not found")
	ErrEventNotFound      = errors.New("event not found")
)

// AmountMismatchError reports a settlement amount that does not match the
// computed total due, carrying the expected value for the caller.
type AmountMismatchError struct {
	Expected  float64
	Submitted float64
}

func (e *AmountMismatchError) Error() string {
	return fmt.Sprintf("amount mismatch: expected %.2f, got %.2f", e.Expected, e.Submitted)
}
