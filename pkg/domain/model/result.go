package model

import "time"

// ItemOutcome describes how one item concluded within a pass
type ItemOutcome string

const (
	OutcomeFetched ItemOutcome = "fetched"
	OutcomeSkipped ItemOutcome = "skipped"
	OutcomeFailed  ItemOutcome = "failed"
)

// ItemResult is the per-item record inside a pass result
type ItemResult struct {
	Name         string      // Item name
	Outcome      ItemOutcome // How the item concluded
	Attempts     int         // Download attempts consumed (0 for skips)
	MirrorsTried int         // Mirror URLs tried before the outcome
	BytesFetched int64       // Bytes transferred for this item
	Error        string      // Last error for failed items
}

// SyncPassResult aggregates one synchronization pass. Ephemeral: exposed
// to the driver's caller, never persisted.
type SyncPassResult struct {
	PassID           string        // Unique pass identifier for log correlation
	Fetched          int           // Items downloaded and verified this pass
	Skipped          int           // Items already complete, no body fetch
	Failed           int           // Items that exhausted retries/mirrors
	BytesTransferred int64         // Total body bytes fetched
	Duration         time.Duration // Wall time of the pass
	Items            []ItemResult  // Per-item outcomes
}

// Add folds one item result into the aggregate
func (r *SyncPassResult) Add(item ItemResult) {
	r.Items = append(r.Items, item)
	r.BytesTransferred += item.BytesFetched
	switch item.Outcome {
	case OutcomeFetched:
		r.Fetched++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	}
}

// CompletedItem is the event payload handed to the external index
// generator for each newly complete item: enough to build a
// served-content manifest without coupling to engine internals.
type CompletedItem struct {
	Name      string
	Language  string
	Category  string
	LocalPath string
	SizeBytes int64
	Hash      ContentHash // Zero for size-only verified completions
}
