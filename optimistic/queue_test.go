package optimistic

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetryPolicy(maxAttempts int) *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts:     maxAttempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
		Multiplier:      2.0,
	}
}

func TestQueue_FlushConfirmsOnSuccess(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()
	tracker := newTestTracker(t, cache)

	executor := ExecutorFunc(func(_ context.Context, path, method string, payload json.RawMessage) (json.RawMessage, error) {
		assert.Equal(t, "/mf1/receipts", path)
		assert.Equal(t, "POST", method)
		assert.True(t, json.Valid(payload))
		return json.RawMessage(`{"uuid":"server-1"}`), nil
	})
	queue := NewQueue(tracker, executor, fastRetryPolicy(1))

	id, err := tracker.Create(ctx, receiptUpdate("receipt:temp-1", map[string]any{"uuid": "temp-1"}))
	require.NoError(t, err)
	require.NoError(t, queue.Enqueue(id))
	assert.Equal(t, 1, queue.Len())

	require.NoError(t, queue.Flush(ctx))
	assert.Equal(t, 0, queue.Len())

	op, ok := tracker.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, StateConfirmed, op.State)

	item, err := cache.Get(ctx, "receipt:temp-1")
	require.NoError(t, err)
	assert.Equal(t, SourceServer, item.Source)
	assert.Equal(t, "server-1", decodeData(t, item)["uuid"])
}

func TestQueue_FlushRollsBackOnPermanentFailure(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache()
	tracker := newTestTracker(t, cache)

	var attempts atomic.Int32
	executor := ExecutorFunc(func(context.Context, string, string, json.RawMessage) (json.RawMessage, error) {
		attempts.Add(1)
		return nil, errors.New("connection refused")
	})
	queue := NewQueue(tracker, executor, fastRetryPolicy(2))

	id, err := tracker.Create(ctx, receiptUpdate("receipt:temp-2", map[string]any{"uuid": "temp-2"}))
	require.NoError(t, err)
	require.NoError(t, queue.Enqueue(id))

	require.NoError(t, queue.Flush(ctx))
	assert.Equal(t, int32(3), attempts.Load(), "initial try plus two retries")

	op, ok := tracker.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, StateRolledBack, op.State)
	assert.Contains(t, op.RollbackReason, "replay failed after 3 attempt(s)")
	assert.Contains(t, op.RollbackReason, "connection refused")

	// The speculative create was undone.
	_, err = cache.Get(ctx, "receipt:temp-2")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestQueue_FlushReplaysInFIFOOrder(t *testing.T) {
	ctx := context.Background()
	tracker := newTestTracker(t, NewMemoryCache())

	var order []string
	executor := ExecutorFunc(func(_ context.Context, path, _ string, _ json.RawMessage) (json.RawMessage, error) {
		order = append(order, path)
		return json.RawMessage(`{}`), nil
	})
	queue := NewQueue(tracker, executor, fastRetryPolicy(0))

	for _, key := range []string{"receipt:1", "receipt:2", "receipt:3"} {
		update := receiptUpdate(key, map[string]any{})
		update.EndpointPath = "/mf1/receipts/" + key
		id, err := tracker.Create(ctx, update)
		require.NoError(t, err)
		require.NoError(t, queue.Enqueue(id))
	}

	require.NoError(t, queue.Flush(ctx))
	assert.Equal(t, []string{
		"/mf1/receipts/receipt:1",
		"/mf1/receipts/receipt:2",
		"/mf1/receipts/receipt:3",
	}, order)
}

func TestQueue_EnqueueRejectsNonPendingAndUnknown(t *testing.T) {
	ctx := context.Background()
	tracker := newTestTracker(t, NewMemoryCache())
	queue := NewQueue(tracker, ExecutorFunc(func(context.Context, string, string, json.RawMessage) (json.RawMessage, error) {
		return json.RawMessage(`{}`), nil
	}), nil)

	assert.ErrorIs(t, queue.Enqueue("no-such-id"), ErrOperationNotFound)

	id, err := tracker.Create(ctx, receiptUpdate("receipt:done", map[string]any{}))
	require.NoError(t, err)
	require.NoError(t, tracker.Confirm(ctx, id, map[string]any{}))
	assert.ErrorIs(t, queue.Enqueue(id), ErrNotPending)
}

func TestQueue_EnqueueAfterClose(t *testing.T) {
	ctx := context.Background()
	tracker := newTestTracker(t, NewMemoryCache())
	queue := NewQueue(tracker, nil, nil)

	id, err := tracker.Create(ctx, receiptUpdate("receipt:late", map[string]any{}))
	require.NoError(t, err)

	queue.Close()
	assert.ErrorIs(t, queue.Enqueue(id), ErrQueueClosed)
}

func TestQueue_FlushSkipsOperationsSettledOutOfBand(t *testing.T) {
	ctx := context.Background()
	tracker := newTestTracker(t, NewMemoryCache())

	var calls atomic.Int32
	executor := ExecutorFunc(func(context.Context, string, string, json.RawMessage) (json.RawMessage, error) {
		calls.Add(1)
		return json.RawMessage(`{}`), nil
	})
	queue := NewQueue(tracker, executor, fastRetryPolicy(0))

	id, err := tracker.Create(ctx, receiptUpdate("receipt:oob", map[string]any{}))
	require.NoError(t, err)
	require.NoError(t, queue.Enqueue(id))

	// Settled directly while still queued.
	require.NoError(t, tracker.Confirm(ctx, id, map[string]any{}))

	require.NoError(t, queue.Flush(ctx))
	assert.Equal(t, int32(0), calls.Load(), "settled operations are not replayed")
	assert.Equal(t, 0, queue.Len())
}

func TestQueue_FlushStopsOnContextCancel(t *testing.T) {
	cache := NewMemoryCache()
	tracker := newTestTracker(t, cache)

	ctx, cancel := context.WithCancel(context.Background())
	executor := ExecutorFunc(func(ctx context.Context, _, _ string, _ json.RawMessage) (json.RawMessage, error) {
		cancel()
		return nil, ctx.Err()
	})
	queue := NewQueue(tracker, executor, fastRetryPolicy(3))

	id, err := tracker.Create(context.Background(), receiptUpdate("receipt:cancel", map[string]any{}))
	require.NoError(t, err)
	require.NoError(t, queue.Enqueue(id))

	err = queue.Flush(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	// The in-flight operation is requeued, still pending and replayable.
	assert.Equal(t, []string{id}, queue.Pending())
	op, ok := tracker.Lookup(id)
	require.True(t, ok)
	assert.Equal(t, StatePending, op.State)
}

func TestRetryPolicy_IntervalGrowsAndStaysBounded(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts:     5,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     400 * time.Millisecond,
		Multiplier:      2.0,
	}

	for attempt := 1; attempt <= 5; attempt++ {
		d := policy.interval(attempt)
		assert.GreaterOrEqual(t, d, 75*time.Millisecond, "attempt %d below jitter floor", attempt)
		assert.LessOrEqual(t, d, 500*time.Millisecond, "attempt %d above jittered cap", attempt)
	}
}
