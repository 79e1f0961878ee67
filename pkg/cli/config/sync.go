package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

// Sync holds download orchestration configuration
type Sync struct {
	MaxConcurrent   int64
	RetryAttempts   int64
	RetryWait       time.Duration
	Timeout         time.Duration
	Recurse         bool
	MaxDepth        int64
	ExcludeDirs     []string
	VerifyDownloads bool
	CleanupPartials bool
}

// Flags returns CLI flags for sync configuration. Defaults mirror the
// content options document defaults.
func (c *Sync) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "max-concurrent",
			Usage:       "Maximum simultaneous downloads",
			Value:       2,
			Destination: &c.MaxConcurrent,
			Sources:     cli.EnvVars("ZIMSYNC_MAX_CONCURRENT"),
		},
		&cli.Int64Flag{
			Name:        "retry-attempts",
			Usage:       "Download attempts per item (each attempt walks the full mirror list)",
			Value:       3,
			Destination: &c.RetryAttempts,
			Sources:     cli.EnvVars("ZIMSYNC_RETRY_ATTEMPTS"),
		},
		&cli.DurationFlag{
			Name:        "retry-wait",
			Usage:       "Base wait between attempts (doubles per attempt)",
			Value:       10 * time.Second,
			Destination: &c.RetryWait,
			Sources:     cli.EnvVars("ZIMSYNC_RETRY_WAIT"),
		},
		&cli.DurationFlag{
			Name:        "timeout",
			Usage:       "Per-request timeout",
			Value:       30 * time.Minute,
			Destination: &c.Timeout,
			Sources:     cli.EnvVars("ZIMSYNC_TIMEOUT"),
		},
		&cli.BoolFlag{
			Name:        "recurse",
			Usage:       "Recurse into catalog subdirectories",
			Value:       false,
			Destination: &c.Recurse,
			Sources:     cli.EnvVars("ZIMSYNC_RECURSE"),
		},
		&cli.Int64Flag{
			Name:        "max-depth",
			Usage:       "Maximum subdirectory recursion depth",
			Value:       2,
			Destination: &c.MaxDepth,
			Sources:     cli.EnvVars("ZIMSYNC_MAX_DEPTH"),
		},
		&cli.StringSliceFlag{
			Name:        "exclude-dir",
			Usage:       "Directory names never recursed into (repeatable)",
			Destination: &c.ExcludeDirs,
			Sources:     cli.EnvVars("ZIMSYNC_EXCLUDE_DIRS"),
		},
		&cli.BoolFlag{
			Name:        "verify-downloads",
			Usage:       "Verify downloads against their published digest",
			Value:       true,
			Destination: &c.VerifyDownloads,
			Sources:     cli.EnvVars("ZIMSYNC_VERIFY_DOWNLOADS"),
		},
		&cli.BoolFlag{
			Name:        "cleanup-partials",
			Usage:       "Remove stale partial downloads before a pass",
			Value:       true,
			Destination: &c.CleanupPartials,
			Sources:     cli.EnvVars("ZIMSYNC_CLEANUP_PARTIALS"),
		},
	}
}
