// Package checkpoint persists per-replicate sweep results so interrupted
// sweeps resume without repeating finished work. A record is keyed by
// (sweep id, combination index, replicate index); writes are idempotent
// upserts, so re-running a completed replicate cannot duplicate rows.
package checkpoint

import (
	"context"
	"errors"

	"mimesis/internal/model"
)

// ErrCheckpoint marks unreadable or inconsistent checkpoint state.
var ErrCheckpoint = errors.New("checkpoint store")

// Key identifies one replicate inside one sweep.
type Key struct {
	SweepID    string
	ComboIndex int
	Replicate  int
}

// Store persists terminal replicate records for resumable sweeps.
type Store interface {
	Init(ctx context.Context) error
	SaveRecord(ctx context.Context, record model.ExperimentRecord) error
	GetRecord(ctx context.Context, key Key) (model.ExperimentRecord, bool, error)
	Records(ctx context.Context, sweepID string) ([]model.ExperimentRecord, error)
	// CompletedKeys returns the set of replicates already persisted for the
	// sweep, regardless of outcome. Failed replicates count as done.
	CompletedKeys(ctx context.Context, sweepID string) (map[Key]struct{}, error)
	SweepIDs(ctx context.Context) ([]string, error)
}

// CloseIfSupported closes stores that hold external resources.
func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
