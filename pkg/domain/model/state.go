package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// SyncStatus represents the synchronization state of one catalog item
type SyncStatus string

const (
	StatusDiscovered  SyncStatus = "discovered"
	StatusDownloading SyncStatus = "downloading"
	StatusVerifying   SyncStatus = "verifying"
	StatusComplete    SyncStatus = "complete"
	StatusFailed      SyncStatus = "failed"
)

// validTransitions is the item state machine:
// Discovered → Downloading → {Verifying → Complete} | Failed.
// Complete and Failed only re-enter Downloading on a later pass.
var validTransitions = map[SyncStatus][]SyncStatus{
	StatusDiscovered:  {StatusDownloading},
	StatusDownloading: {StatusVerifying, StatusFailed},
	StatusVerifying:   {StatusComplete, StatusFailed, StatusDownloading},
	StatusComplete:    {StatusDownloading},
	StatusFailed:      {StatusDownloading},
}

// CanTransition reports whether moving to the given status is legal
func (s SyncStatus) CanTransition(to SyncStatus) bool {
	for _, next := range validTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// SyncState is the durable per-item record, the only persisted entity.
// Field names follow the state snapshot document layout.
type SyncState struct {
	Name          string      `json:"name"`
	Status        SyncStatus  `json:"status"`
	LocalPath     string      `json:"local_path,omitempty"`
	ContentHash   ContentHash `json:"content_hash,omitempty"`
	SizeBytes     int64       `json:"size_bytes,omitempty"`
	LastAttemptAt time.Time   `json:"last_attempt_at,omitempty"`
	LastSuccessAt time.Time   `json:"last_success_at,omitempty"`
	AttemptCount  int         `json:"attempt_count,omitempty"`
	LastError     string      `json:"last_error,omitempty"`
}

// NewSyncState returns the initial record for a name seen for the first time
func NewSyncState(name string) *SyncState {
	return &SyncState{
		Name:   name,
		Status: StatusDiscovered,
	}
}

// Transition moves the record to the given status, enforcing the state
// machine. Illegal moves return an error and leave the record unchanged.
func (s *SyncState) Transition(to SyncStatus) error {
	if !s.Status.CanTransition(to) {
		return goerr.New("illegal status transition",
			goerr.V("name", s.Name),
			goerr.V("from", s.Status),
			goerr.V("to", to),
		)
	}
	s.Status = to
	return nil
}

// Clone returns a deep copy, used to build working records that only
// replace the stored one once an attempt concludes.
func (s *SyncState) Clone() *SyncState {
	c := *s
	return &c
}

// HashVerified reports whether the completion was digest-verified rather
// than size-only. The distinction is deliberate: items without a
// resolvable digest still complete, but their hash field stays empty.
func (s *SyncState) HashVerified() bool {
	return s.Status == StatusComplete && !s.ContentHash.IsZero()
}
