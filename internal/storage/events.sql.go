package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type EventStatus string

const (
	EventPending    EventStatus = "pending"
	EventProcessing EventStatus = "processing"
	EventCompleted  EventStatus = "completed"
	EventFailed     EventStatus = "failed"
)

// LedgerEvent is a row of the transactional outbox.
type LedgerEvent struct {
	ID          int64
	EventType   string
	AggregateID string
	OwnerID     int64
	Payload     []byte
	Status      EventStatus
	Attempts    int64
	LastError   string
	CreatedAt   time.Time
}

type EnqueueEventParams struct {
	EventType   string
	AggregateID string
	OwnerID     int64
	Payload     []byte
}

const enqueueEvent = `
INSERT INTO ledger_events (event_type, aggregate_id, owner_id, payload) VALUES (?, ?, ?, ?)
`

func (q *Queries) EnqueueEvent(ctx context.Context, arg EnqueueEventParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, enqueueEvent, arg.EventType, arg.AggregateID, arg.OwnerID, string(arg.Payload))
	if err != nil {
		return 0, fmt.Errorf("enqueue event: %w", err)
	}
	return res.LastInsertId()
}

const dequeueEvents = `
SELECT id, event_type, aggregate_id, owner_id, payload, status, attempts, last_error, created_at
FROM ledger_events
WHERE status = 'pending'
ORDER BY id
LIMIT ?
`

func (q *Queries) DequeueEvents(ctx context.Context, limit int64) ([]LedgerEvent, error) {
	rows, err := q.db.QueryContext(ctx, dequeueEvents, limit)
	if err != nil {
		return nil, fmt.Errorf("dequeue events: %w", err)
	}
	defer rows.Close()

	var items []LedgerEvent
	for rows.Next() {
		var (
			ev        LedgerEvent
			payload   string
			status    string
			lastError sql.NullString
			createdAt string
		)
		if err := rows.Scan(&ev.ID, &ev.EventType, &ev.AggregateID, &ev.OwnerID, &payload, &status,
			&ev.Attempts, &lastError, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Payload = []byte(payload)
		ev.Status = EventStatus(status)
		ev.LastError = lastError.String
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			ev.CreatedAt = ts
		}
		items = append(items, ev)
	}
	return items, rows.Err()
}

const markEventProcessing = `
UPDATE ledger_events SET status = 'processing', updated_at = ` + nowSQL + `
WHERE id = ? AND status = 'pending'
`

// MarkEventProcessing claims a pending event. It reports false when another
// relay already took it.
func (q *Queries) MarkEventProcessing(ctx context.Context, id int64) (bool, error) {
	res, err := q.db.ExecContext(ctx, markEventProcessing, id)
	if err != nil {
		return false, fmt.Errorf("mark event processing: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark event processing: %w", err)
	}
	return n == 1, nil
}

const markEventCompleted = `
UPDATE ledger_events SET status = 'completed', updated_at = ` + nowSQL + ` WHERE id = ?
`

func (q *Queries) MarkEventCompleted(ctx context.Context, id int64) error {
	if _, err := q.db.ExecContext(ctx, markEventCompleted, id); err != nil {
		return fmt.Errorf("mark event completed: %w", err)
	}
	return nil
}

const markEventFailed = `
UPDATE ledger_events SET status = 'failed', attempts = attempts + 1, last_error = ?, updated_at = ` + nowSQL + `
WHERE id = ?
`

func (q *Queries) MarkEventFailed(ctx context.Context, id int64, reason string) error {
	if _, err := q.db.ExecContext(ctx, markEventFailed, reason, id); err != nil {
		return fmt.Errorf("mark event failed: %w", err)
	}
	return nil
}

const incrementEventAttempt = `
UPDATE ledger_events SET status = 'pending', attempts = attempts + 1, last_error = ?, updated_at = ` + nowSQL + `
WHERE id = ?
`

// IncrementEventAttempt records a failed publish and puts the event back in
// the pending queue.
func (q *Queries) IncrementEventAttempt(ctx context.Context, id int64, reason string) error {
	if _, err := q.db.ExecContext(ctx, incrementEventAttempt, reason, id); err != nil {
		return fmt.Errorf("increment event attempt: %w", err)
	}
	return nil
}

const resetStaleProcessing = `
UPDATE ledger_events SET status = 'pending', updated_at = ` + nowSQL + ` WHERE status = 'processing'
`

func (q *Queries) ResetStaleProcessing(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, resetStaleProcessing)
	if err != nil {
		return 0, fmt.Errorf("reset stale events: %w", err)
	}
	return res.RowsAffected()
}

const retryFailedEvents = `
UPDATE ledger_events SET status = 'pending', attempts = 0, updated_at = ` + nowSQL + ` WHERE status = 'failed'
`

func (q *Queries) RetryFailedEvents(ctx context.Context) (int64, error) {
	res, err := q.db.ExecContext(ctx, retryFailedEvents)
	if err != nil {
		return 0, fmt.Errorf("retry failed events: %w", err)
	}
	return res.RowsAffected()
}

const cleanupCompletedEvents = `
DELETE FROM ledger_events WHERE status = 'completed' AND updated_at < ?
`

func (q *Queries) CleanupCompletedEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, cleanupCompletedEvents, before.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("cleanup completed events: %w", err)
	}
	return res.RowsAffected()
}

type EventStats struct {
	Pending    int64
	Processing int64
	Completed  int64
	Failed     int64
}

const eventStats = `
SELECT
	COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN status = 'processing' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN status = 'completed' THEN 1 ELSE 0 END), 0),
	COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0)
FROM ledger_events
`

func (q *Queries) EventStats(ctx context.Context) (EventStats, error) {
	var s EventStats
	err := q.db.QueryRowContext(ctx, eventStats).Scan(&s.Pending, &s.Processing, &s.Completed, &s.Failed)
	if err != nil {
		return EventStats{}, fmt.Errorf("event stats: %w", err)
	}
	return s, nil
}
