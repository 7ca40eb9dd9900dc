package sync

import (
	"sort"
	"time"

	"github.com/awp-dev/awpengine/internal/artifact"
	"github.com/awp-dev/awpengine/internal/awperr"
	"github.com/awp-dev/awpengine/internal/storage"
	"github.com/awp-dev/awpengine/internal/sync/transport"
)

// PullOptions configures a Pull invocation.
type PullOptions struct {
	DryRun      bool
	NoAutoMerge bool
}

// Pull reconciles local artifacts against remoteName's, applying imports,
// fast-forwards, and additive merges, and stashing conflicts. When opts.DryRun, no files, locks, or state are touched.
func Pull(workspaceRoot string, artifacts *artifact.Engine, t transport.Transport, remoteName string, opts PullOptions, now time.Time) (*PullResult, error) {
	state, err := LoadState(workspaceRoot, remoteName)
	if err != nil {
		return nil, err
	}

	localArtifacts, err := artifacts.List()
	if err != nil {
		return nil, err
	}
	localVersions := map[string]int{}
	for _, a := range localArtifacts {
		localVersions[a.Slug] = a.Version
	}

	remoteManifests, err := t.ListArtifacts(nil)
	if err != nil {
		return nil, err
	}

	slugs := map[string]bool{}
	for slug := range localVersions {
		slugs[slug] = true
	}
	for _, m := range remoteManifests {
		slugs[m.Slug] = true
	}
	remoteVersions := map[string]int{}
	for _, m := range remoteManifests {
		remoteVersions[m.Slug] = m.Version
	}

	var sortedSlugs []string
	for slug := range slugs {
		sortedSlugs = append(sortedSlugs, slug)
	}
	sort.Strings(sortedSlugs)

	result := &PullResult{DryRun: opts.DryRun}
	for _, slug := range sortedSlugs {
		localVersion, hasLocal := localVersions[slug]
		remoteVersion, hasRemote := remoteVersions[slug]
		if !hasRemote {
			continue // nothing to pull for a purely-local artifact
		}
		w, hasWatermark := state.Artifacts[slug]

		decision := diffPull(slug, hasLocal, localVersion, remoteVersion, hasWatermark, w)
		result.Decisions = append(result.Decisions, decision)
		if opts.DryRun {
			continue
		}

		if err := applyPullDecision(workspaceRoot, artifacts, t, remoteName, decision, opts, now, state, result); err != nil {
			return nil, err
		}
	}

	if !opts.DryRun {
		state.LastSync = now
		if err := saveState(workspaceRoot, remoteName, state); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func applyPullDecision(workspaceRoot string, artifacts *artifact.Engine, t transport.Transport, remoteName string, d Decision, opts PullOptions, now time.Time, state *State, result *PullResult) error {
	switch d.Action {
	case ActionSkip:
		// A skip with no prior watermark (first sync, versions already
		// matching) still needs a baseline recorded, or the next diff has
		// no lineage to compare against. A skip where a watermark already
		// exists means this side made no sync-relevant observation on
		// whichever axis it didn't touch, so the watermark must be left
		// exactly as it was — overwriting either axis here would hide a
		// real, unsynced change on that axis from the next diff.
		if _, exists := state.Artifacts[d.Slug]; !exists {
			state.Artifacts[d.Slug] = Watermark{LocalVersionAtSync: d.LocalVersion, RemoteVersionAtSync: d.RemoteVersion}
		}
		result.Skipped = append(result.Skipped, d.Slug)
		return nil

	case ActionImport:
		_, _, raw, err := t.ReadArtifact(d.Slug)
		if err != nil {
			return err
		}
		path := artifacts.FilePath(d.Slug)
		if err := storage.WithFileLock(path, 10*time.Second, func() error {
			return storage.AtomicWrite(path, raw, 0o644)
		}); err != nil {
			return err
		}
		state.Artifacts[d.Slug] = Watermark{LocalVersionAtSync: d.RemoteVersion, RemoteVersionAtSync: d.RemoteVersion}
		result.Imported = append(result.Imported, d.Slug)
		return nil

	case ActionFastForward:
		_, _, raw, err := t.ReadArtifact(d.Slug)
		if err != nil {
			return err
		}
		path := artifacts.FilePath(d.Slug)
		if err := storage.WithFileLock(path, 10*time.Second, func() error {
			return storage.AtomicWrite(path, raw, 0o644)
		}); err != nil {
			return err
		}
		state.Artifacts[d.Slug] = Watermark{LocalVersionAtSync: d.RemoteVersion, RemoteVersionAtSync: d.RemoteVersion}
		result.FastForwarded = append(result.FastForwarded, d.Slug)
		return nil

	case ActionMerge:
		if opts.NoAutoMerge {
			return stashConflict(workspaceRoot, t, remoteName, d, now, result)
		}
		fm, body, _, err := t.ReadArtifact(d.Slug)
		if err != nil {
			return err
		}
		remoteAuthors := authorsFromFrontmatter(fm)
		if _, err := artifacts.ApplySyncMerge(d.Slug, remoteName, d.RemoteVersion, body, remoteAuthors, now); err != nil {
			return err
		}
		state.Artifacts[d.Slug] = Watermark{LocalVersionAtSync: d.RemoteVersion + 1, RemoteVersionAtSync: d.RemoteVersion}
		result.Merged = append(result.Merged, d.Slug)
		return nil

	case ActionConflict:
		return stashConflict(workspaceRoot, t, remoteName, d, now, result)

	default:
		return awperr.New(awperr.CorruptState, "applyPullDecision", "unknown action "+string(d.Action))
	}
}

func stashConflict(workspaceRoot string, t transport.Transport, remoteName string, d Decision, now time.Time, result *PullResult) error {
	_, _, raw, err := t.ReadArtifact(d.Slug)
	if err != nil {
		return err
	}
	if err := writeStash(workspaceRoot, remoteName, d.Slug, d.LocalVersion, d.RemoteVersion, raw, d.Reason, now); err != nil {
		return err
	}
	result.Conflicts = append(result.Conflicts, d.Slug)
	return nil
}

func authorsFromFrontmatter(fm map[string]interface{}) []string {
	raw, ok := fm["authors"].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
