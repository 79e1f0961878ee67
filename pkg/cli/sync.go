package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/apocacache/zimsync/pkg/cli/config"
	"github.com/apocacache/zimsync/pkg/domain/model"
	"github.com/apocacache/zimsync/pkg/infra/catalog"
	"github.com/apocacache/zimsync/pkg/infra/notify"
	"github.com/apocacache/zimsync/pkg/infra/store"
	"github.com/apocacache/zimsync/pkg/usecase"
	"github.com/apocacache/zimsync/pkg/utils/retry"
)

const maxRetryWait = 5 * time.Minute

func cmdSync() *cli.Command {
	var (
		catalogCfg config.Catalog
		syncCfg    config.Sync
		filterCfg  config.Filter
	)

	flags := append(catalogCfg.Flags(), syncCfg.Flags()...)
	flags = append(flags, filterCfg.Flags()...)

	return &cli.Command{
		Name:    "sync",
		Aliases: []string{"s"},
		Usage:   "Run one synchronization pass",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			list, err := config.LoadContentList(filterCfg.ContentList)
			if err != nil {
				return err
			}
			list.Options.Apply(&syncCfg, c.IsSet)

			filter, err := filterCfg.Build(list.Content)
			if err != nil {
				return err
			}

			opts := []catalog.Option{
				catalog.WithTimeout(syncCfg.Timeout),
			}
			if syncCfg.Recurse {
				opts = append(opts, catalog.WithRecursion(int(syncCfg.MaxDepth), syncCfg.ExcludeDirs))
			}
			source, err := catalog.NewSource(catalogCfg.URL, opts...)
			if err != nil {
				return err
			}

			st, err := store.New(catalogCfg.StatePath())
			if err != nil {
				return goerr.Wrap(err, "failed to open state store")
			}
			defer func() {
				if err := st.Close(); err != nil {
					logger.Warn("failed to close state store", "error", err)
				}
			}()

			uc := usecase.NewSync(source, st, notify.NewLogNotifier(), &usecase.SyncConfig{
				DataDir:         catalogCfg.DataDir,
				MaxConcurrent:   int(syncCfg.MaxConcurrent),
				RetryAttempts:   int(syncCfg.RetryAttempts),
				Backoff:         retry.Exponential(syncCfg.RetryWait, maxRetryWait),
				VerifyDownloads: syncCfg.VerifyDownloads,
				CleanupPartials: syncCfg.CleanupPartials,
				Filter:          filter,
			})

			// A signal stops issuing new downloads and aborts in-flight
			// transfers at the temporary-file boundary
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			result, err := uc.RunPass(ctx)
			if err != nil {
				return goerr.Wrap(err, "sync pass aborted")
			}

			printSummary(result)
			return nil
		},
	}
}

func printSummary(result *model.SyncPassResult) {
	headline := color.GreenString("sync complete")
	if result.Failed > 0 {
		headline = color.YellowString("sync complete with failures")
	}

	fmt.Printf("%s: fetched=%d skipped=%d failed=%d transferred=%s duration=%s\n",
		headline,
		result.Fetched,
		result.Skipped,
		result.Failed,
		humanize.Bytes(uint64(result.BytesTransferred)),
		result.Duration.Round(time.Millisecond),
	)

	for _, item := range result.Items {
		if item.Outcome != model.OutcomeFailed {
			continue
		}
		fmt.Printf("  %s %s: %s\n", color.RedString("failed"), item.Name, item.Error)
	}
}
