package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/m-mizutani/goerr/v2"

	"github.com/apocacache/zimsync/pkg/domain/interfaces"
	"github.com/apocacache/zimsync/pkg/domain/model"
	"github.com/apocacache/zimsync/pkg/domain/types"
)

// Store persists the SyncState mapping as one JSON snapshot per
// synchronized root. Save writes a temporary file and renames it over
// the snapshot, so after a crash either the old or the new snapshot is
// observable, never a half-written file. An exclusive flock held for
// the store's lifetime keeps two passes from interleaving.
type Store struct {
	path string
	lock *flock.Flock
	mu   sync.Mutex
}

// New opens the store at path, creating parent directories and taking
// the exclusive lock. A second process holding the lock is an error,
// not a wait.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create state directory",
			goerr.T(types.TagStore), goerr.V("path", path))
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to acquire state lock",
			goerr.T(types.TagStore), goerr.V("path", path))
	}
	if !locked {
		return nil, goerr.New("state file is locked by another process",
			goerr.T(types.TagStore), goerr.V("path", path))
	}

	return &Store{path: path, lock: lock}, nil
}

// Load reads the full snapshot. A store that has never been saved
// yields an empty map. Records left in a transient status by a crashed
// pass (downloading, verifying) revert to discovered: the in-flight
// item is the only work a crash may lose.
func (s *Store) Load() (map[string]*model.SyncState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]*model.SyncState{}, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read state snapshot",
			goerr.T(types.TagStore), goerr.V("path", s.path))
	}

	var states map[string]*model.SyncState
	if err := json.Unmarshal(data, &states); err != nil {
		return nil, goerr.Wrap(err, "failed to parse state snapshot",
			goerr.T(types.TagStore), goerr.V("path", s.path))
	}

	for name, st := range states {
		if st.Name == "" {
			st.Name = name
		}
		switch st.Status {
		case model.StatusDownloading, model.StatusVerifying:
			st.Status = model.StatusDiscovered
		}
	}
	return states, nil
}

// Save atomically replaces the snapshot
func (s *Store) Save(states map[string]*model.SyncState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(states, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to encode state snapshot",
			goerr.T(types.TagStore))
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return goerr.Wrap(err, "failed to write state snapshot",
			goerr.T(types.TagStore), goerr.V("path", tmp))
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return goerr.Wrap(err, "failed to replace state snapshot",
			goerr.T(types.TagStore), goerr.V("path", s.path))
	}
	return nil
}

// Close releases the exclusive lock
func (s *Store) Close() error {
	if err := s.lock.Unlock(); err != nil {
		return goerr.Wrap(err, "failed to release state lock",
			goerr.T(types.TagStore), goerr.V("path", s.path))
	}
	return nil
}

// interface guard
var _ interfaces.StateStore = (*Store)(nil)
