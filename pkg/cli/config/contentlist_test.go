package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/apocacache/zimsync/pkg/cli/config"
)

const sampleContentList = `content:
  - name: "wikipedia"
    language: "en"
    category: "wikipedia"
  - name: "wiktionary"
    language: "es"
  - name: "gutenberg"
options:
  max_concurrent_downloads: 4
  retry_attempts: 5
  verify_downloads: false
`

func writeContentList(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "download-list.yaml")
	gt.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestLoadContentList(t *testing.T) {
	list, err := config.LoadContentList(writeContentList(t, sampleContentList))
	gt.NoError(t, err)

	gt.Number(t, len(list.Content)).Equal(3)
	gt.Value(t, list.Content[0].Name).Equal("wikipedia")
	gt.Value(t, list.Content[0].Language).Equal("en")
	gt.Value(t, list.Content[1].Language).Equal("es")
	gt.Value(t, list.Content[2].Category).Equal("")

	gt.NotNil(t, list.Options)
	gt.Number(t, *list.Options.MaxConcurrentDownloads).Equal(int64(4))
	gt.Number(t, *list.Options.RetryAttempts).Equal(int64(5))
	gt.False(t, *list.Options.VerifyDownloads)
	gt.Value(t, list.Options.CleanupIncomplete).Nil()
}

func TestLoadContentList_EmptyPath(t *testing.T) {
	list, err := config.LoadContentList("")
	gt.NoError(t, err)
	gt.Number(t, len(list.Content)).Equal(0)
	gt.Value(t, list.Options).Nil()
}

func TestLoadContentList_MissingFile(t *testing.T) {
	_, err := config.LoadContentList(filepath.Join(t.TempDir(), "nope.yaml"))
	gt.Error(t, err)
}

func TestLoadContentList_NamelessItem(t *testing.T) {
	doc := `content:
  - language: "en"
`
	_, err := config.LoadContentList(writeContentList(t, doc))
	gt.Error(t, err)
}

func TestLoadContentList_Malformed(t *testing.T) {
	_, err := config.LoadContentList(writeContentList(t, "content: [unterminated"))
	gt.Error(t, err)
}

func TestContentOptions_Apply(t *testing.T) {
	four := int64(4)
	off := false

	opts := &config.ContentOptions{
		MaxConcurrentDownloads: &four,
		VerifyDownloads:        &off,
	}

	sync := &config.Sync{
		MaxConcurrent:   2,
		RetryAttempts:   3,
		VerifyDownloads: true,
		CleanupPartials: true,
	}

	// max-concurrent was given on the command line, so the document
	// does not override it
	explicit := map[string]bool{"max-concurrent": true}
	opts.Apply(sync, func(name string) bool { return explicit[name] })

	gt.Number(t, sync.MaxConcurrent).Equal(int64(2))
	gt.False(t, sync.VerifyDownloads)
	gt.Number(t, sync.RetryAttempts).Equal(int64(3))
	gt.True(t, sync.CleanupPartials)
}

func TestContentOptions_ApplyNil(t *testing.T) {
	sync := &config.Sync{MaxConcurrent: 2}

	var opts *config.ContentOptions
	opts.Apply(sync, func(string) bool { return false })
	gt.Number(t, sync.MaxConcurrent).Equal(int64(2))
}
