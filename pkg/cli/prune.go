package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/apocacache/zimsync/pkg/cli/config"
	"github.com/apocacache/zimsync/pkg/infra/store"
	"github.com/apocacache/zimsync/pkg/usecase"
)

func cmdPrune() *cli.Command {
	var catalogCfg config.Catalog

	return &cli.Command{
		Name:  "prune",
		Usage: "Remove state records whose local artifact is gone",
		// Prune only touches the state snapshot; no catalog access
		Flags: catalogCfg.StateFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			st, err := store.New(catalogCfg.StatePath())
			if err != nil {
				return goerr.Wrap(err, "failed to open state store")
			}
			defer st.Close()

			uc := usecase.NewSync(nil, st, nil, &usecase.SyncConfig{
				DataDir:       catalogCfg.DataDir,
				MaxConcurrent: 1,
				RetryAttempts: 1,
			})

			pruned, err := uc.Prune(ctx)
			if err != nil {
				return goerr.Wrap(err, "prune failed")
			}

			fmt.Printf("pruned %d record(s)\n", pruned)
			return nil
		},
	}
}
