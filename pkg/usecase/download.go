package usecase

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/sync/semaphore"

	"github.com/apocacache/zimsync/pkg/domain/interfaces"
	"github.com/apocacache/zimsync/pkg/domain/model"
	"github.com/apocacache/zimsync/pkg/domain/types"
	"github.com/apocacache/zimsync/pkg/utils/retry"
	"github.com/apocacache/zimsync/pkg/utils/safefile"
)

// downloader is the bounded-concurrency download orchestrator for one
// pass. Each item owns its state record and temporary file, so the
// permit pool is the only concurrency control for item work; the state
// mutex serializes the single shared resource, store saves.
type downloader struct {
	source  interfaces.CatalogSource
	store   interfaces.StateStore
	dataDir string
	policy  *retry.Policy
	verify  bool
	permits *semaphore.Weighted

	mu      sync.Mutex
	states  map[string]*model.SyncState
	saveErr error

	cancel context.CancelFunc
}

func newDownloader(source interfaces.CatalogSource, store interfaces.StateStore, states map[string]*model.SyncState, cfg *SyncConfig) *downloader {
	return &downloader{
		source:  source,
		store:   store,
		dataDir: cfg.DataDir,
		policy:  retry.New(cfg.RetryAttempts, cfg.Backoff),
		verify:  cfg.VerifyDownloads,
		permits: semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		states:  states,
	}
}

// synchronize fans the items out onto the permit pool and aggregates
// their outcomes. It returns an error only when a state-store save
// failed: that threatens the crash-safety invariant, so the pass is
// cancelled and aborted loudly.
func (d *downloader) synchronize(ctx context.Context, entries []model.CatalogEntry) (*model.SyncPassResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	d.cancel = cancel

	results := make(chan model.ItemResult, len(entries))
	var wg sync.WaitGroup
	for i := range entries {
		wg.Add(1)
		go func(entry model.CatalogEntry) {
			defer wg.Done()
			results <- d.syncItem(ctx, &entry)
		}(entries[i])
	}
	wg.Wait()
	close(results)

	result := &model.SyncPassResult{}
	for item := range results {
		result.Add(item)
	}
	sort.Slice(result.Items, func(i, j int) bool {
		return result.Items[i].Name < result.Items[j].Name
	})

	d.mu.Lock()
	saveErr := d.saveErr
	d.mu.Unlock()
	return result, saveErr
}

func (d *downloader) syncItem(ctx context.Context, entry *model.CatalogEntry) model.ItemResult {
	logger := ctxlog.From(ctx).With("name", entry.Name)
	current := d.stateFor(entry.Name)

	// Idempotence: an intact, still-matching Complete item costs only
	// metadata checks, never a body fetch
	if current.Status == model.StatusComplete && d.stillVerified(ctx, entry, current) {
		logger.Debug("item already complete, skipping")
		return model.ItemResult{Name: entry.Name, Outcome: model.OutcomeSkipped}
	}

	working := current.Clone()
	if err := working.Transition(model.StatusDownloading); err != nil {
		return model.ItemResult{Name: entry.Name, Outcome: model.OutcomeFailed, Error: err.Error()}
	}
	working.LastAttemptAt = time.Now().UTC()

	if err := d.permits.Acquire(ctx, 1); err != nil {
		// Cancellation while waiting: no download was issued, the stored
		// record stays as it was
		return model.ItemResult{Name: entry.Name, Outcome: model.OutcomeFailed, Error: err.Error()}
	}
	defer d.permits.Release(1)

	outcome := d.fetchItem(ctx, entry, working)

	if outcome.Error == "" {
		return outcome
	}

	// A failed refresh must never destroy a previously good artifact:
	// keep the Complete record (artifact truth) and only note the
	// failed attempt on it.
	if current.Status == model.StatusComplete && artifactIntact(current) {
		kept := current.Clone()
		kept.LastAttemptAt = working.LastAttemptAt
		kept.AttemptCount = working.AttemptCount
		kept.LastError = outcome.Error
		d.commitState(ctx, kept)
		logger.Warn("refresh failed, keeping previous artifact", "error", outcome.Error)
		return outcome
	}

	if err := working.Transition(model.StatusFailed); err == nil {
		working.LastError = outcome.Error
		d.commitState(ctx, working)
	}
	return outcome
}

// stillVerified performs the metadata-only freshness check for a
// Complete record: the on-disk size must match, and when a freshly
// resolved descriptor supplies a digest it must match the recorded one.
func (d *downloader) stillVerified(ctx context.Context, entry *model.CatalogEntry, st *model.SyncState) bool {
	info, err := os.Stat(st.LocalPath)
	if err != nil || info.Size() != st.SizeBytes {
		return false
	}

	if !d.verify {
		return true
	}

	desc, err := d.source.ResolveMirrors(ctx, entry)
	if err != nil {
		// Discovery failure on the freshness check: keep the artifact,
		// it was verified when completed
		ctxlog.From(ctx).Warn("metadata check failed, keeping artifact",
			"name", entry.Name, "error", err)
		return true
	}
	if desc.HasHash() && desc.Hash != st.ContentHash {
		return false
	}
	if desc != nil && desc.SizeBytes > 0 && desc.SizeBytes != st.SizeBytes {
		return false
	}
	return true
}

// fetchItem runs the mirror/retry loop for one item and commits the
// artifact and state on success. The returned result carries the last
// error on failure; state persistence for failures is the caller's.
func (d *downloader) fetchItem(ctx context.Context, entry *model.CatalogEntry, working *model.SyncState) model.ItemResult {
	logger := ctxlog.From(ctx).With("name", entry.Name)
	result := model.ItemResult{Name: entry.Name}

	desc, err := d.source.ResolveMirrors(ctx, entry)
	if err != nil {
		// The metadata document is unreachable or malformed; the item is
		// still downloadable from its canonical URL, unverified
		logger.Warn("metadata resolution failed, falling back to canonical URL",
			"error", err)
		desc = nil
	}

	mirrors := []string{d.source.EntryURL(entry)}
	if desc != nil && len(desc.Mirrors) > 0 {
		mirrors = desc.Mirrors
	}

	finalPath := filepath.Join(d.dataDir, filepath.FromSlash(entry.RelativePath))
	tmpPath := safefile.TempPath(finalPath)
	if err := os.MkdirAll(filepath.Dir(tmpPath), 0o755); err != nil {
		result.Outcome = model.OutcomeFailed
		result.Error = err.Error()
		return result
	}

	var fetched int64
	err = d.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		working.AttemptCount++
		var lastErr error

		// Attempt mirrors in descriptor order; only after the whole list
		// is exhausted does the attempt count as failed
		for _, mirror := range mirrors {
			if err := ctx.Err(); err != nil {
				return err
			}
			result.MirrorsTried++

			n, err := d.source.Download(ctx, mirror, tmpPath)
			if err != nil {
				logger.Warn("mirror download failed",
					"mirror", mirror, "attempt", attempt, "error", err)
				lastErr = err
				continue
			}

			if err := working.Transition(model.StatusVerifying); err != nil {
				return err
			}
			if err := d.verifyArtifact(entry, desc, tmpPath, n); err != nil {
				_ = os.Remove(tmpPath)
				if goerr.HasTag(err, types.TagIntegrity) {
					logger.Warn("integrity check failed, trying next mirror",
						"mirror", mirror, "attempt", attempt, "error", err)
				} else {
					logger.Warn("size check failed, trying next mirror",
						"mirror", mirror, "attempt", attempt, "error", err)
				}
				lastErr = err
				if terr := working.Transition(model.StatusDownloading); terr != nil {
					return terr
				}
				continue
			}

			fetched = n
			return nil
		}
		return lastErr
	})
	if err != nil {
		_ = os.Remove(tmpPath)
		result.Outcome = model.OutcomeFailed
		result.Attempts = working.AttemptCount
		result.Error = err.Error()
		return result
	}

	if err := d.commitArtifact(ctx, entry, desc, working, tmpPath, finalPath, fetched); err != nil {
		result.Outcome = model.OutcomeFailed
		result.Attempts = working.AttemptCount
		result.Error = err.Error()
		return result
	}

	result.Outcome = model.OutcomeFetched
	result.Attempts = working.AttemptCount
	result.BytesFetched = fetched
	logger.Info("item synchronized",
		"size", fetched,
		"attempts", working.AttemptCount,
		"hash_verified", working.HashVerified(),
	)
	return result
}

// verifyArtifact checks the temporary file before it may be committed.
// With a resolved digest that digest is the single source of truth.
// Without one, integrity rests on transport success plus a size check:
// exact against the metadata document's declared size, approximate
// against the listing hint, which autoindex abbreviates and rounds.
func (d *downloader) verifyArtifact(entry *model.CatalogEntry, desc *model.MirrorDescriptor, tmpPath string, written int64) error {
	if d.verify && desc.HasHash() {
		digest, err := safefile.Digest(tmpPath, desc.Hash.Algo)
		if err != nil {
			return err
		}
		if digest != desc.Hash.Digest {
			return goerr.New("digest mismatch",
				goerr.T(types.TagIntegrity),
				goerr.V("name", entry.Name),
				goerr.V("want", desc.Hash.Digest),
				goerr.V("got", digest),
			)
		}
		return nil
	}

	if desc != nil && desc.SizeBytes > 0 {
		if written != desc.SizeBytes {
			return goerr.New("size mismatch",
				goerr.T(types.TagTransport),
				goerr.V("name", entry.Name),
				goerr.V("want", desc.SizeBytes),
				goerr.V("got", written),
			)
		}
		return nil
	}

	if hint := entry.SizeHint; hint > 0 && !nearSize(written, hint) {
		return goerr.New("size mismatch",
			goerr.T(types.TagTransport),
			goerr.V("name", entry.Name),
			goerr.V("hint", hint),
			goerr.V("got", written),
		)
	}
	return nil
}

// nearSize accepts up to 10% deviation from a listing size hint,
// covering autoindex rounding ("1.2K") and SI/binary unit ambiguity
// while still rejecting truncated bodies and error pages.
func nearSize(written, hint int64) bool {
	diff := written - hint
	if diff < 0 {
		diff = -diff
	}
	return diff*10 <= hint
}

// commitArtifact promotes the verified temporary file to its final path
// and persists the Complete record
func (d *downloader) commitArtifact(ctx context.Context, entry *model.CatalogEntry, desc *model.MirrorDescriptor, working *model.SyncState, tmpPath, finalPath string, size int64) error {
	if err := safefile.Commit(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	working.LocalPath = finalPath
	working.SizeBytes = size
	working.ContentHash = model.ContentHash{}
	if d.verify && desc.HasHash() {
		working.ContentHash = desc.Hash
	}
	working.LastSuccessAt = time.Now().UTC()
	working.AttemptCount = 0
	working.LastError = ""
	if err := working.Transition(model.StatusComplete); err != nil {
		return err
	}

	return d.commitState(ctx, working)
}

// commitState replaces the item's stored record and saves the snapshot.
// Saves happen after every transition that changes on-disk truth, so a
// crash mid-pass loses at most the in-flight item. A save failure is
// fatal: it cancels the pass.
func (d *downloader) commitState(ctx context.Context, st *model.SyncState) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.states[st.Name] = st
	if err := d.store.Save(d.states); err != nil {
		if d.saveErr == nil {
			d.saveErr = err
			if d.cancel != nil {
				d.cancel()
			}
		}
		ctxlog.From(ctx).Error("state save failed, aborting pass", "error", err)
		return err
	}
	return nil
}

func (d *downloader) stateFor(name string) *model.SyncState {
	d.mu.Lock()
	defer d.mu.Unlock()
	if st, ok := d.states[name]; ok {
		return st
	}
	return model.NewSyncState(name)
}

// artifactIntact reports whether a Complete record's file still matches
// its recorded size
func artifactIntact(st *model.SyncState) bool {
	info, err := os.Stat(st.LocalPath)
	return err == nil && info.Size() == st.SizeBytes
}
