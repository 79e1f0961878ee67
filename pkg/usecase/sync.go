package usecase

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/apocacache/zimsync/pkg/domain/interfaces"
	"github.com/apocacache/zimsync/pkg/domain/model"
	"github.com/apocacache/zimsync/pkg/domain/types"
	"github.com/apocacache/zimsync/pkg/utils/async"
	"github.com/apocacache/zimsync/pkg/utils/safefile"
)

// SyncConfig is the single explicit configuration structure for a pass,
// validated once at pass start
type SyncConfig struct {
	DataDir         string
	MaxConcurrent   int
	RetryAttempts   int
	Backoff         func(attempt int) time.Duration
	VerifyDownloads bool
	CleanupPartials bool
	Filter          *model.FilterConfig
}

// Validate checks the configuration before a pass may run
func (c *SyncConfig) Validate() error {
	if c.DataDir == "" {
		return goerr.New("data directory is required", goerr.T(types.TagConfig))
	}
	if c.MaxConcurrent < 1 {
		return goerr.New("max concurrent downloads must be at least 1",
			goerr.T(types.TagConfig), goerr.V("value", c.MaxConcurrent))
	}
	if c.RetryAttempts < 1 {
		return goerr.New("retry attempts must be at least 1",
			goerr.T(types.TagConfig), goerr.V("value", c.RetryAttempts))
	}
	return nil
}

type syncUseCase struct {
	source   interfaces.CatalogSource
	store    interfaces.StateStore
	notifier interfaces.IndexNotifier
	cfg      *SyncConfig
}

// NewSync creates the sync driver composing discovery, filtering, the
// download orchestrator and state persistence into one pass
func NewSync(source interfaces.CatalogSource, store interfaces.StateStore, notifier interfaces.IndexNotifier, cfg *SyncConfig) interfaces.SyncUseCase {
	return &syncUseCase{
		source:   source,
		store:    store,
		notifier: notifier,
		cfg:      cfg,
	}
}

// RunPass executes one synchronization pass. Partial progress is always
// retained: item failures are reported in the result, never escalated;
// only discovery-root and state-store failures abort with an error.
func (uc *syncUseCase) RunPass(ctx context.Context) (*model.SyncPassResult, error) {
	if err := uc.cfg.Validate(); err != nil {
		return nil, err
	}

	passID := uuid.NewString()
	logger := ctxlog.From(ctx).With("pass_id", passID)
	ctx = ctxlog.With(ctx, logger)
	started := time.Now()

	logger.Info("starting sync pass")

	if uc.cfg.CleanupPartials {
		if removed, err := safefile.CleanupPartials(uc.cfg.DataDir); err != nil {
			logger.Warn("partial cleanup failed", "error", err)
		} else if removed > 0 {
			logger.Info("removed stale partial downloads", "count", removed)
		}
	}

	states, err := uc.store.Load()
	if err != nil {
		return nil, err
	}

	entries, err := uc.source.Discover(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "catalog discovery failed",
			goerr.T(types.TagDiscovery))
	}
	selected := Filter(entries, uc.cfg.Filter)
	logger.Info("catalog discovered",
		"entries", len(entries),
		"selected", len(selected),
	)

	d := newDownloader(uc.source, uc.store, states, uc.cfg)
	result, saveErr := d.synchronize(ctx, selected)
	result.PassID = passID
	result.Duration = time.Since(started)
	if saveErr != nil {
		return result, saveErr
	}

	uc.notifyCompleted(ctx, selected, states, result)

	logger.Info("sync pass complete",
		"fetched", result.Fetched,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"bytes", result.BytesTransferred,
		"duration", result.Duration.String(),
	)
	return result, nil
}

// notifyCompleted hands newly complete items to the external index
// generator. Delivery finishes before the pass returns so a
// run-to-completion process cannot exit ahead of the events; a failing
// or panicking collaborator still cannot fail the pass.
func (uc *syncUseCase) notifyCompleted(ctx context.Context, selected []model.CatalogEntry, states map[string]*model.SyncState, result *model.SyncPassResult) {
	if uc.notifier == nil {
		return
	}

	byName := make(map[string]*model.CatalogEntry, len(selected))
	for i := range selected {
		byName[selected[i].Name] = &selected[i]
	}

	var completed []*model.CompletedItem
	for _, item := range result.Items {
		if item.Outcome != model.OutcomeFetched {
			continue
		}
		st, ok := states[item.Name]
		if !ok || st.Status != model.StatusComplete {
			continue
		}
		event := &model.CompletedItem{
			Name:      st.Name,
			LocalPath: st.LocalPath,
			SizeBytes: st.SizeBytes,
			Hash:      st.ContentHash,
		}
		if entry, ok := byName[item.Name]; ok {
			event.Language = entry.Language
			event.Category = entry.Category
		}
		completed = append(completed, event)
	}
	if len(completed) == 0 {
		return
	}

	<-async.Dispatch(ctx, func(ctx context.Context) error {
		for _, item := range completed {
			if err := uc.notifier.ItemCompleted(ctx, item); err != nil {
				return err
			}
		}
		return nil
	})
}

// Prune removes records whose local artifact no longer exists on disk.
// It runs outside a sync pass and is the only way a record is deleted.
func (uc *syncUseCase) Prune(ctx context.Context) (int, error) {
	logger := ctxlog.From(ctx)

	states, err := uc.store.Load()
	if err != nil {
		return 0, err
	}

	var pruned int
	for name, st := range states {
		if st.LocalPath == "" {
			continue
		}
		if _, err := os.Stat(st.LocalPath); os.IsNotExist(err) {
			logger.Info("pruning record with missing artifact",
				"name", name, "path", st.LocalPath)
			delete(states, name)
			pruned++
		}
	}
	if pruned == 0 {
		return 0, nil
	}

	if err := uc.store.Save(states); err != nil {
		return 0, err
	}
	return pruned, nil
}
