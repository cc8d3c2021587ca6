// Package optimistic implements the optimistic-update manager of the A-Cube
// e-receipts SDK: speculative local state changes applied through an
// abstract persistent cache, tracked per operation, and reconciled
// (confirmed or rolled back) once the real network outcome is known.
//
// The package is built from four pieces:
//
//   - Tracker records each in-flight speculative change with a snapshot of
//     the cache entry it replaced, and exposes the Confirm and Rollback
//     transitions.
//   - The projection layer translates tracker reads and writes into calls on
//     the Cache collaborator, compressing large payloads transparently.
//   - Queue replays deferred network operations through the Executor
//     collaborator in FIFO order, confirming or rolling back each one.
//   - MemoryCache is the bundled in-process Cache implementation.
//
// # Optimistic create
//
//	cache := optimistic.NewMemoryCache()
//	tracker, err := optimistic.NewTracker(optimistic.DefaultConfig(cache))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	id, err := tracker.Create(ctx, optimistic.Update{
//	    Resource:         "receipt",
//	    Action:           optimistic.ActionCreate,
//	    EndpointPath:     "/mf1/receipts",
//	    HTTPMethod:       "POST",
//	    RequestPayload:   input,
//	    SpeculativeValue: localReceipt,
//	    CacheKey:         "receipt:temp-1",
//	})
//
// From this point any reader of "receipt:temp-1" sees the speculative value
// with Source == SourceOptimistic. Read through the tracker so payloads the
// projection stored compressed are decoded transparently:
//
//	item, err := tracker.Get(ctx, "receipt:temp-1")
//
// When the server answers:
//
//	err = tracker.Confirm(ctx, id, serverReceipt)   // success path
//	err = tracker.Rollback(ctx, id, "request failed") // failure path
//
// Confirm and Rollback require the operation to still be PENDING; terminal
// states are never revisited and a second transition fails with
// ErrNotPending.
//
// # Same-key ordering
//
// Operations against the same cache key are serialized in invocation order,
// and a new Create against a key that already has a pending operation is
// rejected with ErrKeyBusy. This keeps every rollback snapshot exact: a
// rollback can never restore state made stale by an interleaved write to the
// same key.
//
// # Offline replay
//
// Queue holds operations created while offline and drains them through the
// Executor once connectivity returns, with exponential-backoff retries:
//
//	queue := optimistic.NewQueue(tracker, executor, nil)
//	_ = queue.Enqueue(id)
//	_ = queue.Flush(ctx)
package optimistic
