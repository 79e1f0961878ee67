package catalog

import (
	"context"
	"io"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/net/html"

	"github.com/apocacache/zimsync/pkg/domain/model"
	"github.com/apocacache/zimsync/pkg/domain/types"
)

var (
	listingDateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}[ T]\d{2}:\d{2}`)
	langTokenRe   = regexp.MustCompile(`^[a-z]{2,3}$`)
)

// ParseListing parses one Apache mod_autoindex style directory listing
// into catalog entries. prefix is the listing directory's path relative
// to the catalog root and becomes part of each entry's RelativePath.
//
// The parser is tolerant by contract: sort links, parent links and rows
// with missing size/date columns are handled, and a row that cannot be
// parsed is logged and skipped without aborting the sequence. Both the
// plain <pre> layout and the fancy-indexing <table> layout are
// supported.
func ParseListing(ctx context.Context, prefix string, r io.Reader) ([]model.CatalogEntry, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse listing document",
			goerr.T(types.TagDiscovery), goerr.V("prefix", prefix))
	}

	logger := ctxlog.From(ctx)
	var entries []model.CatalogEntry

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if entry, ok := parseRow(n, prefix); ok {
				entries = append(entries, entry)
			} else if href := attr(n, "href"); href != "" && !isNavigationLink(href) {
				logger.Debug("skipping unparseable listing row",
					"prefix", prefix, "href", href)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return entries, nil
}

// parseRow turns one anchor and its surrounding row text into an entry
func parseRow(a *html.Node, prefix string) (model.CatalogEntry, bool) {
	href := attr(a, "href")
	if href == "" || isNavigationLink(href) {
		return model.CatalogEntry{}, false
	}

	// Absolute or external hrefs are not listing rows
	if strings.Contains(href, "://") || strings.HasPrefix(href, "/") {
		return model.CatalogEntry{}, false
	}

	isDir := strings.HasSuffix(href, "/")
	name, err := url.PathUnescape(strings.TrimSuffix(href, "/"))
	if err != nil || name == "" || strings.Contains(name, "/") {
		return model.CatalogEntry{}, false
	}

	entry := model.CatalogEntry{
		Name:         name,
		RelativePath: path.Join(prefix, name),
		IsDirectory:  isDir,
	}
	if isDir {
		entry.RelativePath += "/"
	} else {
		entry.Language, entry.Category = deriveTags(name, prefix)
		entry.SizeHint = parseSizeColumn(rowText(a))
	}

	return entry, true
}

// isNavigationLink reports hrefs that are autoindex chrome, not content
func isNavigationLink(href string) bool {
	return strings.HasPrefix(href, "?") || // column sort links
		href == "../" || href == ".." || href == "./"
}

// rowText collects the text that follows the anchor within its row:
// the trailing siblings for <pre> listings, the sibling cells when the
// anchor sits inside a <td>.
func rowText(a *html.Node) string {
	var sb strings.Builder

	start := a
	if a.Parent != nil && a.Parent.Type == html.ElementNode && a.Parent.Data == "td" {
		start = a.Parent
	}
	for n := start.NextSibling; n != nil; n = n.NextSibling {
		if n.Type == html.ElementNode && n.Data == "a" {
			break
		}
		collectText(n, &sb)
	}

	return sb.String()
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteByte(' ')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}

// parseSizeColumn extracts the size column from row text. Missing
// columns ("-" or nothing) yield 0; both raw byte counts and
// autoindex-abbreviated sizes ("1.2K", "34M") are accepted.
func parseSizeColumn(text string) int64 {
	text = listingDateRe.ReplaceAllString(text, "")
	fields := strings.Fields(text)

	for i := len(fields) - 1; i >= 0; i-- {
		f := strings.Trim(fields[i], "()[]")
		if f == "" || f == "-" {
			continue
		}
		if n, err := strconv.ParseInt(f, 10, 64); err == nil {
			return n
		}
		if n, err := humanize.ParseBytes(f); err == nil {
			return int64(n)
		}
	}
	return 0
}

// deriveTags infers language and category tags from the conventional
// ZIM naming scheme <project>_<lang>_<flavor>_<date>.zim and the
// entry's directory
func deriveTags(name, prefix string) (language, category string) {
	base := strings.TrimSuffix(name, path.Ext(name))
	parts := strings.Split(base, "_")
	if len(parts) > 1 && langTokenRe.MatchString(parts[1]) {
		language = parts[1]
	}

	if prefix != "" {
		category = strings.SplitN(strings.Trim(prefix, "/"), "/", 2)[0]
	} else if len(parts) > 0 {
		category = parts[0]
	}
	return language, category
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
