package dex

import "time"

// StoreMetrics provides observability for trainer roster operations.
//
// The interface lives here so the roster does not depend on any particular
// metrics backend. Passing nil to NewTrainers installs a no-op
// implementation with zero overhead.
type StoreMetrics interface {
	// RecordOperation records a completed roster operation.
	//
	// Parameters:
	//   - operation: "add", "update", "delete", "get", "list" or "describe"
	//   - duration: Time taken, lock wait included
	//   - err: Error if the operation failed, nil otherwise
	RecordOperation(operation string, duration time.Duration, err error)

	// SetTrainerCount updates the current number of stored trainers.
	SetTrainerCount(count int)
}

// noopStoreMetrics is the default when no collector is injected.
type noopStoreMetrics struct{}

func (noopStoreMetrics) RecordOperation(operation string, duration time.Duration, err error) {}
func (noopStoreMetrics) SetTrainerCount(count int)                                           {}
