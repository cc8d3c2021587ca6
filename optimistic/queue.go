package optimistic

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryPolicy controls how the replay queue retries transient executor
// failures: exponential backoff with jitter, bounded by MaxAttempts.
type RetryPolicy struct {
	// MaxAttempts is the number of retries after the first try. Zero means
	// a single attempt with no retry.
	MaxAttempts int
	// InitialInterval is the backoff before the first retry.
	InitialInterval time.Duration
	// MaxInterval caps the backoff.
	MaxInterval time.Duration
	// Multiplier grows the backoff per attempt.
	Multiplier float64
}

// DefaultRetryPolicy returns 3 retries with 100ms..5s exponential backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 100 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2.0,
	}
}

// interval returns the backoff before retry number attempt (1-based), with
// +/-25% jitter to avoid thundering herds.
func (p RetryPolicy) interval(attempt int) time.Duration {
	d := float64(p.InitialInterval) * math.Pow(p.Multiplier, float64(attempt-1))
	if max := float64(p.MaxInterval); p.MaxInterval > 0 && d > max {
		d = max
	}
	jittered := d * (0.75 + rand.Float64()*0.5)
	return time.Duration(jittered)
}

// Queue is the offline replay queue: it holds pending optimistic operations
// and, on Flush, executes each one through the external executor, confirming
// on success and rolling back on permanent failure. Operations replay in
// FIFO order. All methods are safe for concurrent use; Flush is
// single-flight.
//
// Example:
//
//	queue := optimistic.NewQueue(tracker, executor, nil)
//
//	id, _ := tracker.Create(ctx, update)
//	_ = queue.Enqueue(id)
//
//	// once connectivity returns:
//	if err := queue.Flush(ctx); err != nil {
//	    log.Printf("replay interrupted: %v", err)
//	}
type Queue struct {
	tracker  *Tracker
	executor Executor
	policy   RetryPolicy
	logger   *logrus.Logger

	mu       sync.Mutex
	ids      []string
	flushing bool
	closed   bool
}

// NewQueue creates a replay queue bound to a tracker and an executor. A nil
// policy selects DefaultRetryPolicy.
func NewQueue(tracker *Tracker, executor Executor, policy *RetryPolicy) *Queue {
	p := DefaultRetryPolicy()
	if policy != nil {
		p = *policy
	}
	return &Queue{
		tracker:  tracker,
		executor: executor,
		policy:   p,
		logger:   tracker.logger,
	}
}

// Enqueue adds a pending operation to the replay queue. The operation must
// exist and still be PENDING.
func (q *Queue) Enqueue(operationID string) error {
	op, ok := q.tracker.Lookup(operationID)
	if !ok {
		return opError(operationID, "", ErrOperationNotFound)
	}
	if !op.Pending() {
		return opError(operationID, op.CacheKey, ErrNotPending)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.ids = append(q.ids, operationID)
	q.tracker.metrics.setQueueDepth(len(q.ids))
	return nil
}

// Len returns the number of queued operations.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ids)
}

// Pending returns the queued operation ids in replay order.
func (q *Queue) Pending() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.ids...)
}

// Close rejects further enqueues. Queued operations remain replayable.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

// Flush drains the queue in FIFO order. Each operation is executed through
// the executor with retries per the policy; success confirms the operation
// with the server value, exhausted retries roll it back with the failure as
// the recorded reason. A canceled context stops the drain and leaves the
// remaining operations queued, including the one in flight.
//
// Only one Flush runs at a time; concurrent calls return immediately.
func (q *Queue) Flush(ctx context.Context) error {
	q.mu.Lock()
	if q.flushing {
		q.mu.Unlock()
		return nil
	}
	q.flushing = true
	q.mu.Unlock()

	defer func() {
		q.mu.Lock()
		q.flushing = false
		q.mu.Unlock()
	}()

	var errs []error
	for {
		q.mu.Lock()
		if len(q.ids) == 0 {
			q.mu.Unlock()
			break
		}
		id := q.ids[0]
		q.ids = q.ids[1:]
		q.tracker.metrics.setQueueDepth(len(q.ids))
		q.mu.Unlock()

		op, ok := q.tracker.Lookup(id)
		if !ok || !op.Pending() {
			// Confirmed or rolled back out of band while queued.
			continue
		}

		result, err := q.replay(ctx, op)
		if err != nil {
			if ctx.Err() != nil {
				q.requeueFront(id)
				return ctx.Err()
			}
			reason := fmt.Sprintf("replay failed after %d attempt(s): %v", q.policy.MaxAttempts+1, err)
			if rbErr := q.tracker.Rollback(ctx, id, reason); rbErr != nil {
				errs = append(errs, rbErr)
			}
			continue
		}

		if cErr := q.tracker.Confirm(ctx, id, result); cErr != nil {
			errs = append(errs, cErr)
		}
	}
	return errors.Join(errs...)
}

func (q *Queue) replay(ctx context.Context, op Operation) (any, error) {
	var lastErr error
	for attempt := 0; attempt <= q.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := q.policy.interval(attempt)
			q.logger.WithFields(logrus.Fields{
				"operation_id": op.ID,
				"attempt":      attempt,
				"delay":        delay,
			}).Debug("retrying queued operation")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := q.executor.Execute(ctx, op.EndpointPath, op.HTTPMethod, op.RequestPayload)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (q *Queue) requeueFront(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append([]string{id}, q.ids...)
	q.tracker.metrics.setQueueDepth(len(q.ids))
}
