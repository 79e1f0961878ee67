package model

import "regexp"

// ContentSelector names one wanted item from the content-list document.
// An entry matches when its name starts with Name and, when Category is
// set, the entry category equals it.
type ContentSelector struct {
	Name     string `yaml:"name"`
	Language string `yaml:"language,omitempty"`
	Category string `yaml:"category,omitempty"`
}

// FilterConfig holds the recognized filter dimensions. All are optional
// and combined with AND semantics; DownloadAll bypasses every other
// dimension.
type FilterConfig struct {
	// Languages is a case-insensitive allow-list matched against
	// CatalogEntry.Language. An entry without a language tag matches an
	// empty list but never a non-empty one.
	Languages []string

	// Pattern is matched against the entry name and category
	Pattern *regexp.Regexp

	// Selectors restricts entries to those named by the content list.
	// Empty means no restriction.
	Selectors []ContentSelector

	// DownloadAll bypasses all other filters
	DownloadAll bool
}
