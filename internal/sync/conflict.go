package sync

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/awp-dev/awpengine/internal/artifact"
	"github.com/awp-dev/awpengine/internal/awperr"
	"github.com/awp-dev/awpengine/internal/storage"
)

func stashPath(workspaceRoot, slug string) string {
	return filepath.Join(workspaceRoot, "artifacts", slug+".remote.md")
}

// writeStash persists the remote's raw bytes alongside a conflict
// descriptor.
func writeStash(workspaceRoot, remoteName, slug string, localVersion, remoteVersion int, remoteRaw []byte, reason string, now time.Time) error {
	sp := stashPath(workspaceRoot, slug)
	if err := storage.AtomicWrite(sp, remoteRaw, 0o644); err != nil {
		return err
	}
	desc := ConflictDescriptor{
		LocalVersion: localVersion, RemoteVersion: remoteVersion, DetectedAt: now,
		Strategy: "pending", Reason: reason,
		LocalPath: filepath.Join("artifacts", slug+".md"), RemotePath: filepath.Join("artifacts", slug+".remote.md"),
		StashPath: sp,
	}
	return storage.SafeWriteJSON(conflictPath(workspaceRoot, slug), desc)
}

// ListConflicts returns every currently-stashed conflict.
func ListConflicts(workspaceRoot string) ([]ConflictDescriptor, error) {
	dir := filepath.Join(workspaceRoot, ".awp", "sync", "conflicts")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, awperr.Wrap(awperr.IoError, "ListConflicts", "read conflicts directory", err)
	}
	var out []ConflictDescriptor
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var desc ConflictDescriptor
		found, err := storage.LoadJSON(filepath.Join(dir, entry.Name()), &desc)
		if err != nil || !found {
			continue
		}
		out = append(out, desc)
	}
	return out, nil
}

// ResolveConflict applies strategy ("local", "remote", or "merged") to the
// stashed conflict for slug.
func ResolveConflict(workspaceRoot string, artifacts *artifact.Engine, slug, strategy string) error {
	sp := stashPath(workspaceRoot, slug)
	cp := conflictPath(workspaceRoot, slug)

	if _, err := storage.ReadFile(cp); err != nil {
		return err
	}

	switch strategy {
	case "local":
		// local is unchanged; just clear the stash.
	case "remote":
		remoteRaw, err := storage.ReadFile(sp)
		if err != nil {
			return err
		}
		if remoteRaw == nil {
			return awperr.New(awperr.NotFound, "ResolveConflict", "no stashed remote copy for "+slug)
		}
		if err := storage.AtomicWrite(artifacts.FilePath(slug), remoteRaw, 0o644); err != nil {
			return err
		}
	case "merged":
		// caller already reconciled the local file manually.
	default:
		return awperr.New(awperr.SchemaViolation, "ResolveConflict", fmt.Sprintf("unknown resolution strategy %q", strategy))
	}

	if err := os.Remove(sp); err != nil && !os.IsNotExist(err) {
		return awperr.Wrap(awperr.IoError, "ResolveConflict", "remove stash file", err)
	}
	if err := os.Remove(cp); err != nil && !os.IsNotExist(err) {
		return awperr.Wrap(awperr.IoError, "ResolveConflict", "remove conflict descriptor", err)
	}
	return nil
}
