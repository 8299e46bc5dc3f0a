package storage

import (
	"context"
	"time"
)

// NoopStateStore is a state store that does nothing.
// Used for dry runs and for CLI invocations with an explicit window.
type NoopStateStore struct {
	since time.Time
}

// NewNoopStateStore creates a new NoopStateStore with the given initial time.
func NewNoopStateStore(since time.Time) *NoopStateStore {
	return &NoopStateStore{since: since}
}

// LastRunTime returns the configured time.
func (s *NoopStateStore) LastRunTime(_ context.Context) (time.Time, error) {
	return s.since, nil
}

// SetLastRunTime does nothing.
func (s *NoopStateStore) SetLastRunTime(_ context.Context, _ time.Time) error {
	return nil
}
