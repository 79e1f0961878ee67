package interfaces

import (
	"context"

	"github.com/apocacache/zimsync/pkg/domain/model"
)

// CatalogSource defines operations against the remote content catalog
type CatalogSource interface {
	// Discover walks the catalog listing (recursing into subdirectories
	// when configured) and returns the discoverable entries
	Discover(ctx context.Context) ([]model.CatalogEntry, error)

	// ResolveMirrors fetches and parses the entry's companion metadata
	// document. A missing document is not an error: it returns
	// (nil, nil) and verification is skipped for the item.
	ResolveMirrors(ctx context.Context, entry *model.CatalogEntry) (*model.MirrorDescriptor, error)

	// EntryURL resolves an entry's canonical download URL
	EntryURL(entry *model.CatalogEntry) string

	// Download streams the document at url to dest, returning the number
	// of bytes written. dest is created/truncated; callers own cleanup.
	Download(ctx context.Context, url, dest string) (int64, error)
}
