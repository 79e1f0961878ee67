package usecase

import (
	"strings"

	"github.com/apocacache/zimsync/pkg/domain/model"
)

// Filter selects the subset of entries to synchronize. It is a pure
// function: deterministic and side-effect free, and it never mutates
// its input.
//
// Dimensions combine with AND semantics; DownloadAll bypasses all of
// them. Directories are never selected (they are recursion targets for
// discovery, not downloads).
func Filter(entries []model.CatalogEntry, cfg *model.FilterConfig) []model.CatalogEntry {
	var selected []model.CatalogEntry
	for _, entry := range entries {
		if entry.IsDirectory {
			continue
		}
		if cfg == nil || cfg.DownloadAll || matches(&entry, cfg) {
			selected = append(selected, entry)
		}
	}
	return selected
}

func matches(entry *model.CatalogEntry, cfg *model.FilterConfig) bool {
	return matchesLanguage(entry, cfg.Languages) &&
		matchesPattern(entry, cfg) &&
		matchesSelectors(entry, cfg.Selectors)
}

// matchesLanguage: an entry without a language tag matches an empty
// allow-list but never a non-empty one
func matchesLanguage(entry *model.CatalogEntry, langs []string) bool {
	if len(langs) == 0 {
		return true
	}
	if entry.Language == "" {
		return false
	}
	for _, lang := range langs {
		if strings.EqualFold(entry.Language, lang) {
			return true
		}
	}
	return false
}

func matchesPattern(entry *model.CatalogEntry, cfg *model.FilterConfig) bool {
	if cfg.Pattern == nil {
		return true
	}
	return cfg.Pattern.MatchString(entry.Name) || cfg.Pattern.MatchString(entry.Category)
}

// matchesSelectors restricts entries to those named by the content
// list; a selector matches on name prefix plus optional exact
// category/language
func matchesSelectors(entry *model.CatalogEntry, selectors []model.ContentSelector) bool {
	if len(selectors) == 0 {
		return true
	}
	for _, sel := range selectors {
		if !strings.HasPrefix(entry.Name, sel.Name) {
			continue
		}
		if sel.Category != "" && !strings.EqualFold(entry.Category, sel.Category) {
			continue
		}
		if sel.Language != "" && !strings.EqualFold(entry.Language, sel.Language) {
			continue
		}
		return true
	}
	return false
}
