package catalog_test

import (
	"context"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/apocacache/zimsync/pkg/infra/catalog"
)

const preListing = `<html><head><title>Index of /zim/wikipedia</title></head>
<body><h1>Index of /zim/wikipedia</h1><pre>
<a href="?C=N;O=D">Name</a> <a href="?C=M;O=A">Last modified</a> <a href="?C=S;O=A">Size</a>
<hr>
<a href="../">Parent Directory</a>                        -
<a href="wikipedia_en_all_maxi_2024-01.zim">wikipedia_en_all_maxi_2024-01.zim</a> 2024-01-15 03:12  95G
<a href="wikipedia_es_all_mini_2024-01.zim">wikipedia_es_all_mini_2024-01.zim</a> 2024-01-14 22:40  2.1G
<a href="old/">old/</a>               2023-12-01 10:00    -
<a href="no_columns.zim">no_columns.zim</a>
<hr></pre></body></html>`

const tableListing = `<html><body><table>
<tr><th>Name</th><th>Last modified</th><th>Size</th></tr>
<tr><td><a href="../">Parent Directory</a></td><td></td><td>-</td></tr>
<tr><td><a href="wiktionary_fr_all_2024-02.zim">wiktionary_fr_all_2024-02.zim</a></td><td>2024-02-02 08:00</td><td>812345678</td></tr>
<tr><td><a href="archive">archive/</a></td><td>2024-02-01 00:00</td><td>-</td></tr>
</table></body></html>`

func TestParseListing_PreLayout(t *testing.T) {
	entries, err := catalog.ParseListing(context.Background(), "wikipedia", strings.NewReader(preListing))
	gt.NoError(t, err)
	gt.Number(t, len(entries)).Equal(4)

	en := entries[0]
	gt.Value(t, en.Name).Equal("wikipedia_en_all_maxi_2024-01.zim")
	gt.Value(t, en.RelativePath).Equal("wikipedia/wikipedia_en_all_maxi_2024-01.zim")
	gt.Value(t, en.Language).Equal("en")
	gt.Value(t, en.Category).Equal("wikipedia")
	gt.False(t, en.IsDirectory)
	gt.Number(t, en.SizeHint).Greater(int64(90_000_000_000))

	dir := entries[2]
	gt.Value(t, dir.Name).Equal("old")
	gt.True(t, dir.IsDirectory)
	gt.Value(t, dir.RelativePath).Equal("wikipedia/old/")

	// Missing size/date columns yield a zero hint, not a dropped row
	bare := entries[3]
	gt.Value(t, bare.Name).Equal("no_columns.zim")
	gt.Number(t, bare.SizeHint).Equal(int64(0))
}

func TestParseListing_TableLayout(t *testing.T) {
	entries, err := catalog.ParseListing(context.Background(), "", strings.NewReader(tableListing))
	gt.NoError(t, err)
	gt.Number(t, len(entries)).Equal(2)

	fr := entries[0]
	gt.Value(t, fr.Name).Equal("wiktionary_fr_all_2024-02.zim")
	gt.Value(t, fr.Language).Equal("fr")
	gt.Number(t, fr.SizeHint).Equal(int64(812345678))

	// The href has no trailing slash, so the row is a file even though
	// the link text renders one
	gt.False(t, entries[1].IsDirectory)
}

func TestParseListing_DirectoryMarkers(t *testing.T) {
	doc := `<pre><a href="sub/">sub/</a>  2024-01-01 00:00  -
<a href="data.zim">data.zim</a>  2024-01-01 00:00  10</pre>`
	entries, err := catalog.ParseListing(context.Background(), "", strings.NewReader(doc))
	gt.NoError(t, err)
	gt.Number(t, len(entries)).Equal(2)
	gt.True(t, entries[0].IsDirectory)
	gt.False(t, entries[1].IsDirectory)
}

func TestParseListing_SkipsNavigationAndExternalLinks(t *testing.T) {
	doc := `<pre>
<a href="?C=N;O=D">Name</a>
<a href="../">Parent Directory</a>
<a href="https://example.com/else.zim">elsewhere</a>
<a href="/absolute/path.zim">absolute</a>
<a href="good.zim">good.zim</a> 2024-01-01 00:00 5
</pre>`
	entries, err := catalog.ParseListing(context.Background(), "", strings.NewReader(doc))
	gt.NoError(t, err)
	gt.Number(t, len(entries)).Equal(1)
	gt.Value(t, entries[0].Name).Equal("good.zim")
}

func TestParseListing_UnparseableRowDoesNotAbort(t *testing.T) {
	doc := `<pre>
<a href="bad%zzname">broken escape</a> 2024-01-01 00:00 5
<a href="fine.zim">fine.zim</a> 2024-01-01 00:00 5
</pre>`
	entries, err := catalog.ParseListing(context.Background(), "", strings.NewReader(doc))
	gt.NoError(t, err)
	gt.Number(t, len(entries)).Equal(1)
	gt.Value(t, entries[0].Name).Equal("fine.zim")
}

func TestParseListing_EscapedNames(t *testing.T) {
	doc := `<pre><a href="ted_en_science%20technology.zim">ted</a> 1024</pre>`
	entries, err := catalog.ParseListing(context.Background(), "", strings.NewReader(doc))
	gt.NoError(t, err)
	gt.Number(t, len(entries)).Equal(1)
	gt.Value(t, entries[0].Name).Equal("ted_en_science technology.zim")
	gt.Value(t, entries[0].Language).Equal("en")
}

func TestParseListing_AbbreviatedSizes(t *testing.T) {
	tests := []struct {
		name string
		row  string
		min  int64
	}{
		{name: "kilobytes", row: `<pre><a href="a.zim">a</a> 2024-01-01 00:00 1.2K</pre>`, min: 1000},
		{name: "megabytes", row: `<pre><a href="a.zim">a</a> 2024-01-01 00:00 34M</pre>`, min: 30_000_000},
		{name: "plain bytes", row: `<pre><a href="a.zim">a</a> 2024-01-01 00:00 512</pre>`, min: 512},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := catalog.ParseListing(context.Background(), "", strings.NewReader(tt.row))
			gt.NoError(t, err)
			gt.Number(t, len(entries)).Equal(1)
			gt.Number(t, entries[0].SizeHint).GreaterOrEqual(tt.min)
		})
	}
}
