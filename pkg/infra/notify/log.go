package notify

import (
	"context"

	"github.com/m-mizutani/ctxlog"

	"github.com/apocacache/zimsync/pkg/domain/interfaces"
	"github.com/apocacache/zimsync/pkg/domain/model"
)

// LogNotifier announces newly complete items on the logger. It stands
// in for the external index generator, which consumes the same event
// shape to regenerate the served-content manifest.
type LogNotifier struct{}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// ItemCompleted logs one completed item
func (n *LogNotifier) ItemCompleted(ctx context.Context, item *model.CompletedItem) error {
	ctxlog.From(ctx).Info("item completed",
		"name", item.Name,
		"language", item.Language,
		"category", item.Category,
		"path", item.LocalPath,
		"size", item.SizeBytes,
		"hash", item.Hash.String(),
	)
	return nil
}

// interface guard
var _ interfaces.IndexNotifier = (*LogNotifier)(nil)
