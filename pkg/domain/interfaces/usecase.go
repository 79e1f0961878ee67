package interfaces

import (
	"context"

	"github.com/apocacache/zimsync/pkg/domain/model"
)

// SyncUseCase defines the synchronization operations exposed to the CLI
type SyncUseCase interface {
	// RunPass executes one full pass: discover, filter, download,
	// persist, notify. It always returns a result when only items
	// failed; an error is returned for discovery-root or state-store
	// failures, which abort the pass.
	RunPass(ctx context.Context) (*model.SyncPassResult, error)

	// Prune removes state records whose local artifact no longer exists
	// on disk and returns the number of removed records. Never part of
	// a sync pass.
	Prune(ctx context.Context) (int, error)
}
