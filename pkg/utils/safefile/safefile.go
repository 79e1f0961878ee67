package safefile

import (
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"

	"github.com/apocacache/zimsync/pkg/domain/model"
)

// TempSuffix marks in-flight downloads. Bodies are always streamed to
// <final>.part and promoted by Commit, so a crash never leaves a
// corrupt file at a final path.
const TempSuffix = ".part"

// TempPath returns the temporary path paired with a final path
func TempPath(finalPath string) string {
	return finalPath + TempSuffix
}

// Commit atomically promotes a fully written temporary file to its
// final path. This is the single place final-path writes happen.
func Commit(tmpPath, finalPath string) error {
	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return goerr.Wrap(err, "failed to create artifact directory",
			goerr.V("path", finalPath))
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return goerr.Wrap(err, "failed to commit artifact",
			goerr.V("tmp", tmpPath), goerr.V("final", finalPath))
	}
	return nil
}

// Digest computes the file's digest with the given algorithm,
// returned as lowercase hex
func Digest(path string, algo model.HashAlgo) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", goerr.Wrap(err, "failed to open file for digest",
			goerr.V("path", path))
	}
	defer f.Close()

	h := algo.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", goerr.Wrap(err, "failed to digest file",
			goerr.V("path", path))
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// CleanupPartials removes stray temporary files under dir, returning
// how many were removed. Run before a pass so crashed downloads do not
// accumulate.
func CleanupPartials(dir string) (int, error) {
	var removed int
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() || filepath.Ext(path) != TempSuffix {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, goerr.Wrap(err, "failed to clean up partial downloads",
			goerr.V("dir", dir))
	}
	return removed, nil
}
