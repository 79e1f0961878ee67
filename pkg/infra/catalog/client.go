package catalog

import (
	"bytes"
	"context"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/imroc/req/v3"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"

	"github.com/apocacache/zimsync/pkg/domain/interfaces"
	"github.com/apocacache/zimsync/pkg/domain/model"
	"github.com/apocacache/zimsync/pkg/domain/types"
)

const (
	// metaSuffix locates an item's companion metadata document
	metaSuffix = ".meta4"

	defaultCacheSize = 256
	defaultTimeout   = 30 * time.Minute
)

// Source is an HTTP catalog source over an Apache-style directory
// listing server. One Source is built per pass: its document cache is
// pass-scoped by construction, never process-global.
type Source struct {
	base    *url.URL
	client  *req.Client
	cache   *lru.Cache[string, cachedDoc]
	recurse bool
	depth   int
	exclude map[string]struct{}
	exts    map[string]struct{}
}

// cachedDoc is one pass-scoped cache entry. 404s are cached too: an
// absent metadata document costs one round-trip per pass, not one per
// lookup.
type cachedDoc struct {
	data   []byte
	status int
}

// Option configures a Source
type Option func(*Source)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(s *Source) {
		s.client.SetTimeout(d)
	}
}

// WithRecursion enables subdirectory recursion up to maxDepth levels,
// never descending into directories named in exclude
func WithRecursion(maxDepth int, exclude []string) Option {
	return func(s *Source) {
		s.recurse = maxDepth > 0
		s.depth = maxDepth
		s.exclude = make(map[string]struct{}, len(exclude))
		for _, name := range exclude {
			s.exclude[strings.TrimSuffix(name, "/")] = struct{}{}
		}
	}
}

// WithExtensions restricts discovered files to the given extensions
// (e.g. ".zim"). An empty list discovers every file.
func WithExtensions(exts []string) Option {
	return func(s *Source) {
		s.exts = make(map[string]struct{}, len(exts))
		for _, e := range exts {
			s.exts[strings.ToLower(e)] = struct{}{}
		}
	}
}

// WithCacheSize bounds the pass-scoped document cache
func WithCacheSize(n int) Option {
	return func(s *Source) {
		if cache, err := lru.New[string, cachedDoc](n); err == nil {
			s.cache = cache
		}
	}
}

// NewSource builds a catalog source rooted at baseURL
func NewSource(baseURL string, opts ...Option) (*Source, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid catalog URL",
			goerr.T(types.TagConfig), goerr.V("url", baseURL))
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, goerr.New("catalog URL must be http(s)",
			goerr.T(types.TagConfig), goerr.V("url", baseURL))
	}

	cache, err := lru.New[string, cachedDoc](defaultCacheSize)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build document cache")
	}

	s := &Source{
		base: base,
		client: req.C().
			SetTimeout(defaultTimeout).
			SetUserAgent(types.AppName + "/" + types.Version),
		cache: cache,
		exts:  map[string]struct{}{".zim": {}},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Discover walks the catalog listing and returns file entries, recursing
// into subdirectories when configured. A subtree whose listing cannot be
// fetched or parsed is logged and skipped; only an unreachable root
// aborts discovery.
func (s *Source) Discover(ctx context.Context) ([]model.CatalogEntry, error) {
	return s.discoverDir(ctx, "", 0)
}

func (s *Source) discoverDir(ctx context.Context, prefix string, depth int) ([]model.CatalogEntry, error) {
	logger := ctxlog.From(ctx)

	data, status, err := s.fetch(ctx, s.dirURL(prefix))
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, goerr.New("listing not found",
			goerr.T(types.TagDiscovery), goerr.V("url", s.dirURL(prefix)))
	}

	parsed, err := ParseListing(ctx, prefix, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	var entries []model.CatalogEntry
	for _, entry := range parsed {
		if ctx.Err() != nil {
			return entries, ctx.Err()
		}

		if entry.IsDirectory {
			if !s.shouldRecurse(entry.Name, depth) {
				continue
			}
			sub, err := s.discoverDir(ctx, strings.TrimSuffix(entry.RelativePath, "/"), depth+1)
			if err != nil {
				// Discovery error below the root: skip the subtree, keep the pass
				logger.Warn("skipping unreachable catalog subtree",
					"path", entry.RelativePath, "error", err)
				continue
			}
			entries = append(entries, sub...)
			continue
		}

		if !s.wantedFile(entry.Name) {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (s *Source) shouldRecurse(name string, depth int) bool {
	if !s.recurse || depth >= s.depth {
		return false
	}
	_, excluded := s.exclude[name]
	return !excluded
}

func (s *Source) wantedFile(name string) bool {
	if len(s.exts) == 0 {
		return true
	}
	_, ok := s.exts[strings.ToLower(path.Ext(name))]
	return ok
}

// ResolveMirrors fetches and parses the entry's metadata document.
// Absence of the document (404) is not an error: the item is still
// downloadable from its canonical URL, verification is just skipped.
func (s *Source) ResolveMirrors(ctx context.Context, entry *model.CatalogEntry) (*model.MirrorDescriptor, error) {
	metaURL := s.EntryURL(entry) + metaSuffix

	data, status, err := s.fetch(ctx, metaURL)
	if status == http.StatusNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseMetalink(entry.Name, data)
}

// EntryURL resolves an entry's canonical download URL against the root
func (s *Source) EntryURL(entry *model.CatalogEntry) string {
	u := *s.base
	u.Path = path.Join(u.Path, strings.TrimSuffix(entry.RelativePath, "/"))
	if entry.IsDirectory {
		u.Path += "/"
	}
	return u.String()
}

// Download streams the document at url to dest. The response body never
// passes through memory as a whole; cancellation aborts mid-body and the
// partially written dest is removed.
func (s *Source) Download(ctx context.Context, rawURL, dest string) (int64, error) {
	resp, err := s.client.R().
		DisableAutoReadResponse().
		SetContext(ctx).
		SetOutputFile(dest).
		Get(rawURL)
	if err != nil {
		_ = os.Remove(dest)
		return 0, goerr.Wrap(err, "download request failed",
			goerr.T(types.TagTransport), goerr.V("url", rawURL))
	}
	if resp.IsErrorState() {
		// The error body was dumped into dest by SetOutputFile
		_ = os.Remove(dest)
		return 0, goerr.New("download returned non-success status",
			goerr.T(types.TagTransport),
			goerr.V("url", rawURL),
			goerr.V("status", resp.GetStatusCode()),
		)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return 0, goerr.Wrap(err, "downloaded file missing",
			goerr.T(types.TagTransport), goerr.V("dest", dest))
	}
	return info.Size(), nil
}

func (s *Source) dirURL(prefix string) string {
	u := *s.base
	if prefix != "" {
		u.Path = path.Join(u.Path, prefix)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// fetch GETs a small document (listing or metadata) through the
// pass-scoped cache. Returns the body, the HTTP status (0 on transport
// failure) and an error for non-success statuses other than 404, which
// is reported via status alone and cached for the pass.
func (s *Source) fetch(ctx context.Context, rawURL string) ([]byte, int, error) {
	if doc, ok := s.cache.Get(rawURL); ok {
		return doc.data, doc.status, nil
	}

	resp, err := s.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, 0, goerr.Wrap(err, "document fetch failed",
			goerr.T(types.TagDiscovery), goerr.V("url", rawURL))
	}
	if resp.IsErrorState() {
		status := resp.GetStatusCode()
		if status == http.StatusNotFound {
			s.cache.Add(rawURL, cachedDoc{status: status})
			return nil, status, nil
		}
		return nil, status, goerr.New("document fetch returned non-success status",
			goerr.T(types.TagDiscovery),
			goerr.V("url", rawURL),
			goerr.V("status", status),
		)
	}

	data := resp.Bytes()
	s.cache.Add(rawURL, cachedDoc{data: data, status: resp.GetStatusCode()})
	return data, resp.GetStatusCode(), nil
}

// interface guard
var _ interfaces.CatalogSource = (*Source)(nil)
