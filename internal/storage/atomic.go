// Package storage implements the atomic write, advisory lock, frontmatter
// codec, and schema validation primitives every higher engine builds on.
// Writes go through os.MkdirAll + a temp file + rename rather than a
// direct os.WriteFile, so a crash mid-write never leaves a torn file
// behind.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/awp-dev/awpengine/internal/awperr"
)

// AtomicWrite writes data to a sibling temp file in path's directory,
// fsyncs it, and renames it over path. On any failure before the rename,
// path is left unchanged.
func AtomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return awperr.Wrap(awperr.IoError, "AtomicWrite", "create parent directory", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return awperr.Wrap(awperr.IoError, "AtomicWrite", "create temp file", err)
	}
	tmpPath := tmp.Name()

	cleanupAndFail := func(cause error) error {
		tmp.Close()
		os.Remove(tmpPath)
		return awperr.Wrap(awperr.IoError, "AtomicWrite", "write temp file", cause)
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanupAndFail(err)
	}
	if err := tmp.Chmod(perm); err != nil {
		return cleanupAndFail(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanupAndFail(err)
	}
	if err := tmp.Close(); err != nil {
		return awperr.Wrap(awperr.IoError, "AtomicWrite", "close temp file", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return awperr.Wrap(awperr.IoError, "AtomicWrite", "rename temp file over target", err)
	}

	syncDir(dir)
	return nil
}

// syncDir fsyncs a directory so the rename's directory entry is durable on
// hosts that require it (notably Linux ext4). Best-effort: some platforms
// refuse to open a directory for sync, which is not a write failure.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	_ = d.Sync()
}

// ReadFile reads path, returning (nil, nil) if it does not exist.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, awperr.Wrap(awperr.IoError, "ReadFile", fmt.Sprintf("read %s", path), err)
	}
	return data, nil
}
