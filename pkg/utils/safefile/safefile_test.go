package safefile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/apocacache/zimsync/pkg/domain/model"
	"github.com/apocacache/zimsync/pkg/utils/safefile"
)

func TestCommit(t *testing.T) {
	dir := t.TempDir()
	final := filepath.Join(dir, "sub", "a.zim")
	tmp := safefile.TempPath(final)

	gt.NoError(t, os.MkdirAll(filepath.Dir(tmp), 0o755))
	gt.NoError(t, os.WriteFile(tmp, []byte("payload"), 0o644))

	gt.NoError(t, safefile.Commit(tmp, final))

	data, err := os.ReadFile(final)
	gt.NoError(t, err)
	gt.Value(t, string(data)).Equal("payload")

	_, err = os.Stat(tmp)
	gt.True(t, os.IsNotExist(err))
}

func TestDigest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "f")
	gt.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	digest, err := safefile.Digest(path, model.HashSHA256)
	gt.NoError(t, err)
	gt.Value(t, digest).Equal("ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad")

	digest, err = safefile.Digest(path, model.HashMD5)
	gt.NoError(t, err)
	gt.Value(t, digest).Equal("900150983cd24fb0d6963f7d28e17f72")
}

func TestCleanupPartials(t *testing.T) {
	dir := t.TempDir()
	gt.NoError(t, os.MkdirAll(filepath.Join(dir, "wikipedia"), 0o755))
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "a.zim.part"), []byte("x"), 0o644))
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "wikipedia", "b.zim.part"), []byte("x"), 0o644))
	gt.NoError(t, os.WriteFile(filepath.Join(dir, "keep.zim"), []byte("x"), 0o644))

	removed, err := safefile.CleanupPartials(dir)
	gt.NoError(t, err)
	gt.Number(t, removed).Equal(2)

	_, err = os.Stat(filepath.Join(dir, "keep.zim"))
	gt.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "a.zim.part"))
	gt.True(t, os.IsNotExist(err))
}

func TestCleanupPartials_MissingDir(t *testing.T) {
	removed, err := safefile.CleanupPartials(filepath.Join(t.TempDir(), "nope"))
	gt.NoError(t, err)
	gt.Number(t, removed).Equal(0)
}
