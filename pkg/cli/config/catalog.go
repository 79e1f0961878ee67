package config

import (
	"path/filepath"

	"github.com/urfave/cli/v3"
)

// Catalog holds remote catalog and local layout configuration
type Catalog struct {
	URL       string
	DataDir   string
	StateFile string
}

// Flags returns CLI flags for catalog configuration
func (c *Catalog) Flags() []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{
			Name:        "catalog-url",
			Usage:       "Directory-listing URL of the remote content catalog",
			Required:    true,
			Destination: &c.URL,
			Sources:     cli.EnvVars("ZIMSYNC_CATALOG_URL"),
		},
	}, c.StateFlags()...)
}

// StateFlags returns only the local layout flags, for commands that
// never touch the remote catalog
func (c *Catalog) StateFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "data-dir",
			Usage:       "Directory holding mirrored artifacts and state",
			Value:       "/data",
			Destination: &c.DataDir,
			Sources:     cli.EnvVars("ZIMSYNC_DATA_DIR"),
		},
		&cli.StringFlag{
			Name:        "state-file",
			Usage:       "State snapshot path (default: <data-dir>/content_state.json)",
			Destination: &c.StateFile,
			Sources:     cli.EnvVars("ZIMSYNC_STATE_FILE"),
		},
	}
}

// StatePath resolves the state snapshot path
func (c *Catalog) StatePath() string {
	if c.StateFile != "" {
		return c.StateFile
	}
	return filepath.Join(c.DataDir, "content_state.json")
}
