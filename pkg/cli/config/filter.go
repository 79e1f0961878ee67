package config

import (
	"regexp"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/apocacache/zimsync/pkg/domain/model"
	"github.com/apocacache/zimsync/pkg/domain/types"
)

// Filter holds content filter configuration
type Filter struct {
	Languages   []string
	Pattern     string
	DownloadAll bool
	ContentList string
}

// Flags returns CLI flags for filter configuration
func (c *Filter) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "language",
			Usage:       "Language codes to mirror (repeatable, case-insensitive)",
			Destination: &c.Languages,
			Sources:     cli.EnvVars("ZIMSYNC_LANGUAGES"),
		},
		&cli.StringFlag{
			Name:        "pattern",
			Usage:       "Regular expression matched against entry name and category",
			Destination: &c.Pattern,
			Sources:     cli.EnvVars("ZIMSYNC_PATTERN"),
		},
		&cli.BoolFlag{
			Name:        "download-all",
			Usage:       "Mirror everything, bypassing all other filters",
			Value:       false,
			Destination: &c.DownloadAll,
			Sources:     cli.EnvVars("ZIMSYNC_DOWNLOAD_ALL"),
		},
		&cli.StringFlag{
			Name:        "content-list",
			Usage:       "YAML document naming the content items to mirror",
			Destination: &c.ContentList,
			Sources:     cli.EnvVars("ZIMSYNC_CONTENT_LIST"),
		},
	}
}

// Build compiles the filter configuration, including selectors from the
// content-list document when one is configured
func (c *Filter) Build(selectors []model.ContentSelector) (*model.FilterConfig, error) {
	cfg := &model.FilterConfig{
		Languages:   c.Languages,
		Selectors:   selectors,
		DownloadAll: c.DownloadAll,
	}
	if c.Pattern != "" {
		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			return nil, goerr.Wrap(err, "invalid filter pattern",
				goerr.T(types.TagConfig), goerr.V("pattern", c.Pattern))
		}
		cfg.Pattern = re
	}
	return cfg, nil
}
