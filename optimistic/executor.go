package optimistic

import (
	"context"
	"encoding/json"
)

// Executor issues the real network operation for a tracked update. The
// actual transport, retry policy and circuit breaking are out of scope for
// this package; the replay queue only distinguishes success from failure.
type Executor interface {
	Execute(ctx context.Context, endpointPath, httpMethod string, payload json.RawMessage) (json.RawMessage, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, endpointPath, httpMethod string, payload json.RawMessage) (json.RawMessage, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, endpointPath, httpMethod string, payload json.RawMessage) (json.RawMessage, error) {
	return f(ctx, endpointPath, httpMethod, payload)
}
