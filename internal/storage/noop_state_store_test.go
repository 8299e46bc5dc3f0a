package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNoopStateStore(t *testing.T) {
	t.Parallel()

	since := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store := NewNoopStateStore(since)

	got, err := store.LastRunTime(context.Background())
	require.NoError(t, err)
	require.Equal(t, since, got)

	require.NoError(t, store.SetLastRunTime(context.Background(), time.Now()))

	// The configured time is fixed; SetLastRunTime must not advance it.
	got, err = store.LastRunTime(context.Background())
	require.NoError(t, err)
	require.Equal(t, since, got)
}
