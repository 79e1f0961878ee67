package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"gopkg.in/yaml.v3"

	"github.com/apocacache/zimsync/pkg/domain/model"
	"github.com/apocacache/zimsync/pkg/domain/types"
)

// ContentOptions are the tuning options a content-list document may
// carry. Pointer fields distinguish "absent" from zero values; absent
// options leave the CLI flag values in place.
type ContentOptions struct {
	MaxConcurrentDownloads *int64 `yaml:"max_concurrent_downloads"`
	RetryAttempts          *int64 `yaml:"retry_attempts"`
	VerifyDownloads        *bool  `yaml:"verify_downloads"`
	CleanupIncomplete      *bool  `yaml:"cleanup_incomplete"`
}

// ContentList is the parsed content-list document: which items to
// mirror and optional tuning overrides
type ContentList struct {
	Content []model.ContentSelector `yaml:"content"`
	Options *ContentOptions         `yaml:"options"`
}

// LoadContentList reads and parses a content-list document. An empty
// path yields an empty list: the document is optional.
func LoadContentList(path string) (*ContentList, error) {
	if path == "" {
		return &ContentList{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read content list",
			goerr.T(types.TagConfig), goerr.V("path", path))
	}

	var list ContentList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, goerr.Wrap(err, "failed to parse content list",
			goerr.T(types.TagConfig), goerr.V("path", path))
	}
	for _, sel := range list.Content {
		if sel.Name == "" {
			return nil, goerr.New("content item without a name",
				goerr.T(types.TagConfig), goerr.V("path", path))
		}
	}
	return &list, nil
}

// Apply folds document options over the flag-derived sync
// configuration. CLI flags the user set explicitly win; isSet reports
// whether a flag was explicitly provided.
func (o *ContentOptions) Apply(sync *Sync, isSet func(name string) bool) {
	if o == nil {
		return
	}
	if o.MaxConcurrentDownloads != nil && !isSet("max-concurrent") {
		sync.MaxConcurrent = *o.MaxConcurrentDownloads
	}
	if o.RetryAttempts != nil && !isSet("retry-attempts") {
		sync.RetryAttempts = *o.RetryAttempts
	}
	if o.VerifyDownloads != nil && !isSet("verify-downloads") {
		sync.VerifyDownloads = *o.VerifyDownloads
	}
	if o.CleanupIncomplete != nil && !isSet("cleanup-partials") {
		sync.CleanupPartials = *o.CleanupIncomplete
	}
}
