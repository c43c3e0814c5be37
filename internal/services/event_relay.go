package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ledger/internal/storage"
)

// Publisher delivers one outbox event to the message broker.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, messageID string, body []byte) error
}

// EventRelayConfig holds configuration for the outbox relay
type EventRelayConfig struct {
	// PollInterval is how often to check for pending events (default: 5s)
	PollInterval time.Duration

	// BatchSize is the max number of events to publish per poll cycle (default: 50)
	BatchSize int

	// MaxRetries is the number of publish attempts before an event is marked failed (default: 5)
	MaxRetries int

	// CleanupInterval is how often completed events are purged (default: 1h)
	CleanupInterval time.Duration

	// CleanupAge is how old completed events must be before purge (default: 24h)
	CleanupAge time.Duration
}

func DefaultEventRelayConfig() EventRelayConfig {
	return EventRelayConfig{
		PollInterval:    5 * time.Second,
		BatchSize:       50,
		MaxRetries:      5,
		CleanupInterval: time.Hour,
		CleanupAge:      24 * time.Hour,
	}
}

// EventRelay moves events from the ledger_events outbox to the broker.
type EventRelay struct {
	storage   *storage.SQLiteRepository
	publisher Publisher
	config    EventRelayConfig
	now       func() time.Time

	mu      sync.Mutex
	running bool
}

func NewEventRelay(storage *storage.SQLiteRepository, publisher Publisher, config EventRelayConfig) *EventRelay {
	return &EventRelay{
		storage:   storage,
		publisher: publisher,
		config:    config,
		now:       time.Now,
	}
}

// Run relays events until ctx is cancelled. It returns an error only when
// the relay is already running.
func (r *EventRelay) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("event relay is already running")
	}
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	q := r.storage.Queries()
	if n, err := q.ResetStaleProcessing(ctx); err != nil {
		slog.WarnContext(ctx, "Failed to reset stale outbox events", "error", err)
	} else if n > 0 {
		slog.InfoContext(ctx, "Requeued stale outbox events", "count", n)
	}

	slog.InfoContext(ctx, "Event relay started",
		"poll_interval", r.config.PollInterval,
		"batch_size", r.config.BatchSize)

	pollTicker := time.NewTicker(r.config.PollInterval)
	defer pollTicker.Stop()
	cleanupTicker := time.NewTicker(r.config.CleanupInterval)
	defer cleanupTicker.Stop()

	r.ProcessBatch(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Event relay stopped")
			return nil
		case <-pollTicker.C:
			r.ProcessBatch(ctx)
		case <-cleanupTicker.C:
			r.cleanupCompleted(ctx)
		}
	}
}

func (r *EventRelay) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// ProcessBatch publishes one batch of pending events and returns how many
// were delivered.
func (r *EventRelay) ProcessBatch(ctx context.Context) int {
	q := r.storage.Queries()
	events, err := q.DequeueEvents(ctx, int64(r.config.BatchSize))
	if err != nil {
		slog.ErrorContext(ctx, "Failed to dequeue outbox events", "error", err)
		return 0
	}
	if len(events) == 0 {
		return 0
	}

	slog.DebugContext(ctx, "Publishing outbox batch", "count", len(events))

	delivered := 0
	for _, ev := range events {
		if ctx.Err() != nil {
			return delivered
		}

		claimed, err := q.MarkEventProcessing(ctx, ev.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to claim outbox event", "event_id", ev.ID, "error", err)
			continue
		}
		if !claimed {
			continue
		}

		if err := r.publisher.Publish(ctx, ev.EventType, fmt.Sprintf("ledger-event-%d", ev.ID), ev.Payload); err != nil {
			r.handleFailure(ctx, q, ev, err)
			continue
		}
		if err := q.MarkEventCompleted(ctx, ev.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to mark outbox event completed", "event_id", ev.ID, "error", err)
			continue
		}
		delivered++
	}
	return delivered
}

func (r *EventRelay) handleFailure(ctx context.Context, q *storage.Queries, ev storage.LedgerEvent, publishErr error) {
	slog.WarnContext(ctx, "Event publish failed",
		"event_id", ev.ID,
		"event_type", ev.EventType,
		"attempt", ev.Attempts+1,
		"error", publishErr)

	if ev.Attempts+1 >= int64(r.config.MaxRetries) {
		if err := q.MarkEventFailed(ctx, ev.ID, publishErr.Error()); err != nil {
			slog.ErrorContext(ctx, "Failed to mark outbox event failed", "event_id", ev.ID, "error", err)
		}
		slog.ErrorContext(ctx, "Outbox event failed permanently after max retries",
			"event_id", ev.ID,
			"event_type", ev.EventType,
			"attempts", ev.Attempts+1)
		return
	}
	if err := q.IncrementEventAttempt(ctx, ev.ID, publishErr.Error()); err != nil {
		slog.ErrorContext(ctx, "Failed to record outbox attempt", "event_id", ev.ID, "error", err)
	}
}

func (r *EventRelay) cleanupCompleted(ctx context.Context) {
	n, err := r.storage.Queries().CleanupCompletedEvents(ctx, r.now().Add(-r.config.CleanupAge))
	if err != nil {
		slog.ErrorContext(ctx, "Failed to clean up completed outbox events", "error", err)
		return
	}
	if n > 0 {
		slog.InfoContext(ctx, "Cleaned up completed outbox events", "count", n)
	}
}

func (r *EventRelay) Stats(ctx context.Context) (storage.EventStats, error) {
	return r.storage.Queries().EventStats(ctx)
}

// RetryFailed puts every failed event back in the queue.
func (r *EventRelay) RetryFailed(ctx context.Context) (int64, error) {
	return r.storage.Queries().RetryFailedEvents(ctx)
}
