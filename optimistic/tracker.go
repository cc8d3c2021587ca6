package optimistic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Tracker records every in-flight speculative change and exposes the
// confirm/rollback transitions that reconcile it once the real network
// result is known. It is the only component allowed to mutate cache entries
// that have a pending operation outstanding; other writers must consult
// HasPending first.
//
// All methods are safe for concurrent use. Operations against the same cache
// key are serialized in invocation order; operations on different keys
// proceed independently.
//
// Example:
//
//	tracker, _ := optimistic.NewTracker(optimistic.DefaultConfig(cache))
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
//	// ... later, once the server answered:
//	err = tracker.Confirm(ctx, id, serverReceipt) // or tracker.Rollback(ctx, id, "network failure")
type Tracker struct {
	mu      sync.Mutex
	ops     map[string]*Operation
	pending map[string]string // cache key -> pending operation id
	locks   map[string]*keyLock

	proj    *projection
	logger  *logrus.Logger
	metrics *metrics
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewTracker creates a tracker from the given configuration.
func NewTracker(config *Config) (*Tracker, error) {
	if config == nil {
		return nil, ErrInvalidConfig
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	m, err := newMetrics(config.Registerer, config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	var cdc codec = identityCodec{}
	if config.CompressionThreshold > 0 {
		cdc = newGzipCodec(config.CompressionThreshold)
	}

	return &Tracker{
		ops:     make(map[string]*Operation),
		pending: make(map[string]string),
		locks:   make(map[string]*keyLock),
		proj:    newProjection(config.Cache, cdc, config.Logger, m),
		logger:  config.Logger,
		metrics: m,
	}, nil
}

// Create applies a speculative change: it snapshots the cache entry
// currently at the update's key, writes the speculative value with
// source=optimistic, registers a PENDING operation and returns its id. Once
// Create returns, any reader of the key observes the speculative value; no
// durability may be assumed before it returns.
//
// A key that already carries a pending operation is rejected with ErrKeyBusy
// so that a later rollback can never restore a snapshot made stale by an
// interleaved write.
func (t *Tracker) Create(ctx context.Context, update Update) (string, error) {
	if err := update.check(); err != nil {
		return "", err
	}

	payload, err := toRawMessage(update.RequestPayload)
	if err != nil {
		return "", fmt.Errorf("serialize request payload: %w", err)
	}
	speculative, err := toRawMessage(update.SpeculativeValue)
	if err != nil {
		return "", fmt.Errorf("serialize speculative value: %w", err)
	}

	release := t.lockKey(update.CacheKey)
	defer release()

	t.mu.Lock()
	if busyID, busy := t.pending[update.CacheKey]; busy {
		t.mu.Unlock()
		return "", opError(busyID, update.CacheKey, ErrKeyBusy)
	}
	t.mu.Unlock()

	prior, err := t.proj.snapshot(ctx, update.CacheKey)
	if err != nil {
		return "", err
	}

	// The cache write happens before registration: if it fails nothing was
	// recorded and the cache is untouched, keeping record and cache in sync.
	if err := t.proj.write(ctx, update.CacheKey, speculative, SourceOptimistic); err != nil {
		return "", err
	}

	op := &Operation{
		ID:               uuid.NewString(),
		Resource:         update.Resource,
		Action:           update.Action,
		EndpointPath:     update.EndpointPath,
		HTTPMethod:       update.HTTPMethod,
		RequestPayload:   payload,
		SpeculativeValue: speculative,
		CacheKey:         update.CacheKey,
		PriorSnapshot:    prior,
		CreatedAt:        time.Now().UTC(),
		State:            StatePending,
	}

	t.mu.Lock()
	t.ops[op.ID] = op
	t.pending[op.CacheKey] = op.ID
	t.mu.Unlock()

	t.metrics.incCreated(op.Resource, op.Action)
	t.logger.WithFields(logrus.Fields{
		"operation_id": op.ID,
		"resource":     op.Resource,
		"action":       op.Action,
		"cache_key":    op.CacheKey,
	}).Debug("optimistic operation created")

	return op.ID, nil
}

// Confirm replaces the speculative value with the server's value
// (source=server) and transitions the operation to CONFIRMED. The operation
// must exist and be PENDING: confirming twice, or after a rollback, fails
// with ErrNotPending rather than silently succeeding.
func (t *Tracker) Confirm(ctx context.Context, operationID string, serverValue any) error {
	raw, err := toRawMessage(serverValue)
	if err != nil {
		return fmt.Errorf("serialize server value: %w", err)
	}

	op, release, err := t.acquirePending(operationID)
	if err != nil {
		return err
	}
	defer release()

	// The write precedes the transition; on failure the operation stays
	// PENDING and the caller may retry or roll back.
	if err := t.proj.write(ctx, op.CacheKey, raw, SourceServer); err != nil {
		return opError(operationID, op.CacheKey, err)
	}

	t.mu.Lock()
	op.State = StateConfirmed
	delete(t.pending, op.CacheKey)
	t.mu.Unlock()

	t.metrics.incConfirmed()
	t.logger.WithFields(logrus.Fields{
		"operation_id": operationID,
		"cache_key":    op.CacheKey,
	}).Debug("optimistic operation confirmed")
	return nil
}

// Rollback restores the cache entry to the snapshot taken at Create time
// (deleting the key entirely when the key did not exist before) and
// transitions the operation to ROLLED_BACK. The reason is recorded on the
// operation for observability, not surfaced as an error. The operation must
// exist and be PENDING.
func (t *Tracker) Rollback(ctx context.Context, operationID, reason string) error {
	op, release, err := t.acquirePending(operationID)
	if err != nil {
		return err
	}
	defer release()

	if err := t.proj.restore(ctx, op.CacheKey, op.PriorSnapshot); err != nil {
		return opError(operationID, op.CacheKey, err)
	}

	t.mu.Lock()
	op.State = StateRolledBack
	op.RollbackReason = reason
	delete(t.pending, op.CacheKey)
	t.mu.Unlock()

	t.metrics.incRolledBack()
	t.logger.WithFields(logrus.Fields{
		"operation_id": operationID,
		"cache_key":    op.CacheKey,
		"reason":       reason,
	}).Warn("optimistic operation rolled back")
	return nil
}

// Get reads the cache entry at key, transparently decompressing payloads
// the projection stored compressed. This is the read half of the projection
// contract: readers go through Get (or an equivalent codec-aware path) and
// never inspect raw stored bytes. Returns ErrCacheMiss when the key is
// absent.
func (t *Tracker) Get(ctx context.Context, key string) (*CachedItem, error) {
	item, err := t.proj.read(ctx, key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrCacheMiss
	}
	return item, nil
}

// Operations returns a snapshot of every tracked operation, pending and
// terminal. Terminal entries stay enumerable until Prune removes them.
func (t *Tracker) Operations() []Operation {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Operation, 0, len(t.ops))
	for _, op := range t.ops {
		out = append(out, op.clone())
	}
	return out
}

// Lookup returns a copy of the operation with the given id.
func (t *Tracker) Lookup(operationID string) (Operation, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	op, ok := t.ops[operationID]
	if !ok {
		return Operation{}, false
	}
	return op.clone(), true
}

// HasPending reports whether any PENDING operation matches the resource
// type and, when entityID is non-empty, has that entity id encoded in its
// cache key. Other cache writers call this before touching keys that may
// carry an in-flight speculative value.
func (t *Tracker) HasPending(resource, entityID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, op := range t.ops {
		if !op.Pending() || op.Resource != resource {
			continue
		}
		if entityID == "" || strings.Contains(op.CacheKey, entityID) {
			return true
		}
	}
	return false
}

// RollbackByResource rolls back every matching PENDING operation. Each
// rollback follows the single-operation contract independently: one failure
// does not prevent attempting the others, and the failures are joined into
// the returned error.
func (t *Tracker) RollbackByResource(ctx context.Context, resource, entityID, reason string) error {
	t.mu.Lock()
	ids := make([]string, 0)
	for _, op := range t.ops {
		if !op.Pending() || op.Resource != resource {
			continue
		}
		if entityID == "" || strings.Contains(op.CacheKey, entityID) {
			ids = append(ids, op.ID)
		}
	}
	t.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := t.Rollback(ctx, id, reason); err != nil && !errors.Is(err, ErrNotPending) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Prune drops terminal (confirmed or rolled back) operations from the
// tracker and returns how many were removed. PENDING operations are never
// pruned.
func (t *Tracker) Prune() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for id, op := range t.ops {
		if !op.Pending() {
			delete(t.ops, id)
			n++
		}
	}
	return n
}

// acquirePending locks the operation's cache key and re-verifies the
// operation is still PENDING under that lock, so confirm/rollback for the
// same key are serialized in invocation order.
func (t *Tracker) acquirePending(operationID string) (*Operation, func(), error) {
	t.mu.Lock()
	op, ok := t.ops[operationID]
	if !ok {
		t.mu.Unlock()
		return nil, nil, opError(operationID, "", ErrOperationNotFound)
	}
	key := op.CacheKey
	t.mu.Unlock()

	release := t.lockKey(key)

	t.mu.Lock()
	if op.State != StatePending {
		t.mu.Unlock()
		release()
		return nil, nil, opError(operationID, key, ErrNotPending)
	}
	t.mu.Unlock()

	return op, release, nil
}

// lockKey acquires the per-key mutex, creating it on first use and dropping
// it when the last holder releases.
func (t *Tracker) lockKey(key string) func() {
	t.mu.Lock()
	kl, ok := t.locks[key]
	if !ok {
		kl = &keyLock{}
		t.locks[key] = kl
	}
	kl.refs++
	t.mu.Unlock()

	kl.mu.Lock()

	return func() {
		kl.mu.Unlock()
		t.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(t.locks, key)
		}
		t.mu.Unlock()
	}
}

func (u Update) check() error {
	switch {
	case u.Resource == "":
		return fmt.Errorf("%w: resource is required", ErrInvalidConfig)
	case !u.Action.valid():
		return fmt.Errorf("%w: unknown action %q", ErrInvalidConfig, u.Action)
	case u.CacheKey == "":
		return fmt.Errorf("%w: cache key is required", ErrInvalidConfig)
	case u.EndpointPath == "":
		return fmt.Errorf("%w: endpoint path is required", ErrInvalidConfig)
	case u.HTTPMethod == "":
		return fmt.Errorf("%w: HTTP method is required", ErrInvalidConfig)
	}
	return nil
}
