// Package cache holds the in-process caches used to avoid re-reading
// rarely-changing rows, such as account billing configuration.
package cache

import (
	"context"
	"log/slog"
	"time"
)

// Cache is the read-through contract the services depend on.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V)
	Delete(key K)
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Janitor periodically purges expired entries from registered caches.
type Janitor struct {
	caches []Cleaner
	done   chan struct{}
}

func NewJanitor(caches ...Cleaner) *Janitor {
	return &Janitor{caches: caches, done: make(chan struct{})}
}

// Run blocks until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context, interval time.Duration) {
	defer close(j.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed := 0
			for _, c := range j.caches {
				removed += c.CleanExpired()
			}
			if removed > 0 {
				slog.DebugContext(ctx, "Expired cache entries removed", "count", removed)
			}
		}
	}
}

// Done is closed once Run has returned.
func (j *Janitor) Done() <-chan struct{} {
	return j.done
}
