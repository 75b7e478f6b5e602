package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"ms-booking/internal/logger"
	"ms-booking/internal/models"
)

// MessageSource is a channel delivering booking events at least once.
// Commit must only be called after the corresponding record is durable.
type MessageSource interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, msg kafka.Message) error
}

// DeadLetterSink receives messages that exhausted their processing attempts.
type DeadLetterSink interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
}

// Consumer drains the booking-events topic into the notification store.
// Offsets are committed only after the record is persisted, so a crash in
// between causes redelivery; SaveIfAbsent makes the redelivery harmless.
// Multiple Consumer workers may run concurrently for the same group.
type Consumer struct {
	Source MessageSource
	Store  Store
	DLQ    DeadLetterSink

	dlqTopic    string
	maxAttempts int
	logger      *logger.Logger
}

func NewConsumer(source MessageSource, store Store, dlq DeadLetterSink, dlqTopic string, maxAttempts int, log *logger.Logger) *Consumer {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Consumer{
		Source:      source,
		Store:       store,
		DLQ:         dlq,
		dlqTopic:    dlqTopic,
		maxAttempts: maxAttempts,
		logger:      log,
	}
}

// Run consumes until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	c.logInfo("CONSUMER", "notification consumer started")
	for {
		msg, err := c.Source.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}
		if err := c.ProcessMessage(ctx, msg); err != nil {
			c.logError("CONSUMER", fmt.Sprintf("processing failed: %v", err))
		}
	}
}

// ProcessMessage handles one delivery end to end: decode, persist, commit.
// Messages that keep failing are diverted to the dead-letter topic and then
// committed so they can never wedge the partition.
func (c *Consumer) ProcessMessage(ctx context.Context, msg kafka.Message) error {
	var lastErr error
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
			}
		}
		if lastErr = c.handle(ctx, msg); lastErr == nil {
			return c.Source.Commit(ctx, msg)
		}
	}

	c.logError("CONSUMER", fmt.Sprintf("message %s exhausted %d attempts, dead-lettering: %v", string(msg.Key), c.maxAttempts, lastErr))
	if err := c.DLQ.Publish(ctx, c.dlqTopic, string(msg.Key), msg.Value); err != nil {
		// Leave the offset uncommitted; the message is redelivered rather
		// than dropped.
		return fmt.Errorf("dead-letter publish: %w", err)
	}
	return c.Source.Commit(ctx, msg)
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) error {
	var event models.BookingEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("decode booking event: %w", err)
	}
	if event.BookingID == "" {
		return fmt.Errorf("booking event missing booking_id")
	}

	created, err := c.Store.SaveIfAbsent(ctx, models.NotificationRecord{
		BookingID: event.BookingID,
		UserID:    event.UserID,
		EventID:   event.EventID,
		Tickets:   event.Tickets,
		Status:    event.Status,
	})
	if err != nil {
		return err
	}

	if created {
		c.logInfo("CONSUMER", "stored notification for booking "+event.BookingID)
	} else {
		c.logInfo("CONSUMER", "duplicate delivery for booking "+event.BookingID+", skipped")
	}
	return nil
}

func (c *Consumer) logInfo(category, msg string) {
	if c.logger != nil {
		c.logger.Info(category, msg)
	}
}

func (c *Consumer) logError(category, msg string) {
	if c.logger != nil {
		c.logger.Error(category, msg)
	}
}
