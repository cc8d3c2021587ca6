package optimistic

import (
	"encoding/json"
	"time"
)

// Action is the logical effect of an optimistic operation.
type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

func (a Action) valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// State is the lifecycle state of an optimistic operation. An operation
// transitions exactly once from StatePending to StateConfirmed or
// StateRolledBack; terminal states are never revisited.
type State string

const (
	StatePending    State = "PENDING"
	StateConfirmed  State = "CONFIRMED"
	StateRolledBack State = "ROLLED_BACK"
)

// Update describes a speculative change handed to Tracker.Create.
type Update struct {
	// Resource is the logical resource type, e.g. "receipt".
	Resource string
	// Action is the effect the network operation will have.
	Action Action
	// EndpointPath and HTTPMethod describe the deferred network call the
	// external executor will replay.
	EndpointPath string
	HTTPMethod   string
	// RequestPayload is the body the executor will send. Any
	// JSON-serializable value.
	RequestPayload any
	// SpeculativeValue is the locally synthesized result written to cache
	// until the real outcome is known.
	SpeculativeValue any
	// CacheKey is the cache entry the speculative value materializes at.
	CacheKey string
}

// Operation is the tracker's record of one in-flight speculative change.
// The tracker exclusively owns the record for its lifetime; values returned
// by Operations are copies.
type Operation struct {
	// ID uniquely identifies the operation.
	ID string `json:"id"`
	// Resource is the logical resource type.
	Resource string `json:"resource"`
	// Action is CREATE, UPDATE or DELETE.
	Action Action `json:"action"`
	// EndpointPath and HTTPMethod describe the deferred network call.
	EndpointPath string `json:"endpoint_path"`
	HTTPMethod   string `json:"http_method"`
	// RequestPayload is the serialized request body.
	RequestPayload json.RawMessage `json:"request_payload"`
	// SpeculativeValue is the serialized locally synthesized result.
	SpeculativeValue json.RawMessage `json:"speculative_value"`
	// CacheKey is the projected cache entry.
	CacheKey string `json:"cache_key"`
	// PriorSnapshot is the cache entry that was at CacheKey before the
	// speculative write, nil when the key was absent. Rollback restores it
	// verbatim.
	PriorSnapshot *CachedItem `json:"prior_snapshot"`
	// CreatedAt is when the operation was registered.
	CreatedAt time.Time `json:"created_at"`
	// State is PENDING, CONFIRMED or ROLLED_BACK.
	State State `json:"state"`
	// RollbackReason is recorded for observability when the operation is
	// rolled back; it is never surfaced as an error.
	RollbackReason string `json:"rollback_reason,omitempty"`
}

// Pending reports whether the operation is still awaiting its real outcome.
func (o *Operation) Pending() bool {
	return o.State == StatePending
}

func (o *Operation) clone() Operation {
	cp := *o
	cp.RequestPayload = append(json.RawMessage(nil), o.RequestPayload...)
	cp.SpeculativeValue = append(json.RawMessage(nil), o.SpeculativeValue...)
	cp.PriorSnapshot = o.PriorSnapshot.Clone()
	return cp
}
