package interfaces

import "github.com/apocacache/zimsync/pkg/domain/model"

// StateStore is the durable record of per-item sync state. Save must
// be atomic with respect to process crashes: after a crash either the
// old snapshot or the fully-updated one is observable, never a
// half-written file.
type StateStore interface {
	// Load reads the full snapshot. A store that has never been saved
	// returns an empty map.
	Load() (map[string]*model.SyncState, error)

	// Save atomically replaces the snapshot
	Save(states map[string]*model.SyncState) error

	// Close releases the store's exclusive lock
	Close() error
}
