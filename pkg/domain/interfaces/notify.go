package interfaces

import (
	"context"

	"github.com/apocacache/zimsync/pkg/domain/model"
)

// IndexNotifier receives newly complete items. The actual index
// generator (library manifest builder) is an external collaborator;
// this engine only emits the events it needs.
type IndexNotifier interface {
	// ItemCompleted is invoked once per newly complete item in a pass
	ItemCompleted(ctx context.Context, item *model.CompletedItem) error
}
