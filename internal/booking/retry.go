package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ms-booking/internal/models"
)

// isPermanent reports whether an error is a definitive outcome that must not
// be retried. Everything else is treated as transient: the collaborator's true
// state is unknown, so the call is repeated under the same idempotent contract.
func isPermanent(err error) bool {
	return errors.Is(err, models.ErrPaymentDeclined) ||
		errors.Is(err, models.ErrCapacityExceeded) ||
		errors.Is(err, models.ErrEventNotFound) ||
		errors.Is(err, models.ErrInvalidTicketCount)
}

// withRetry runs fn up to the configured attempt ceiling with exponential
// backoff, each attempt under its own call timeout. Exhausted retries surface
// as ServiceUnavailable.
func (s *BookingService) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	attempts := s.cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := s.cfg.RetryBackoff << (attempt - 1)
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %s: %v", models.ErrServiceUnavailable, op, ctx.Err())
			case <-time.After(delay):
			}
			if s.logger != nil {
				s.logger.Warn("RETRY", fmt.Sprintf("%s: attempt %d after %v: %v", op, attempt+1, delay, lastErr))
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
		err := fn(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		if isPermanent(err) {
			return err
		}
		lastErr = err
	}

	if errors.Is(lastErr, models.ErrServiceUnavailable) {
		return lastErr
	}
	return fmt.Errorf("%w: %s: %v", models.ErrServiceUnavailable, op, lastErr)
}
