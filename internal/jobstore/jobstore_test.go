package jobstore

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"degiro-returns/internal/aggregate"
)

// TestStore_SaveAndGet_Redis runs a real Redis container and exercises the
// Store against it. Skipped when Docker isn't reachable (CI without a
// daemon, sandboxed dev environments).
func TestStore_SaveAndGet_Redis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping testcontainers integration test in short mode")
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Skipf("redis container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	opts, err := redis.ParseURL(uri)
	require.NoError(t, err)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	store := New(client, time.Minute)

	_, ok, err := store.Get(ctx, "missing-job")
	require.NoError(t, err)
	require.False(t, ok)

	summary := aggregate.Summary{GlobalReturn: decimal.RequireFromString("63")}
	job := Job{ID: "job-1", Status: StatusDone, Summary: &summary}
	require.NoError(t, store.Save(ctx, job))

	got, ok, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, StatusDone, got.Status)
	require.NotNil(t, got.Summary)
	require.True(t, got.Summary.GlobalReturn.Equal(summary.GlobalReturn))
	require.False(t, got.UpdatedAt.IsZero())
}
