package sync

import (
	"sort"
	"time"

	"github.com/awp-dev/awpengine/internal/artifact"
	"github.com/awp-dev/awpengine/internal/awperr"
	"github.com/awp-dev/awpengine/internal/storage"
	"github.com/awp-dev/awpengine/internal/sync/transport"
)

// PushOptions configures a Push invocation.
type PushOptions struct {
	DryRun bool
}

// Push sends local artifact changes to remoteName. Unlike Pull, a
// both-sides-changed decision always yields a conflict: push never
// auto-merges.
func Push(workspaceRoot string, artifacts *artifact.Engine, t transport.Transport, remoteName string, opts PushOptions, now time.Time) (*PushResult, error) {
	state, err := LoadState(workspaceRoot, remoteName)
	if err != nil {
		return nil, err
	}

	localArtifacts, err := artifacts.List()
	if err != nil {
		return nil, err
	}
	remoteManifests, err := t.ListArtifacts(nil)
	if err != nil {
		return nil, err
	}
	remoteVersions := map[string]int{}
	for _, m := range remoteManifests {
		remoteVersions[m.Slug] = m.Version
	}

	sort.Slice(localArtifacts, func(i, j int) bool { return localArtifacts[i].Slug < localArtifacts[j].Slug })

	result := &PushResult{DryRun: opts.DryRun}
	for _, a := range localArtifacts {
		remoteVersion, hasRemote := remoteVersions[a.Slug]
		w, hasWatermark := state.Artifacts[a.Slug]

		decision := diffPush(a.Slug, a.Version, hasRemote, remoteVersion, hasWatermark, w)
		result.Decisions = append(result.Decisions, decision)
		if opts.DryRun {
			continue
		}

		if err := applyPushDecision(workspaceRoot, artifacts, t, remoteName, decision, now, state, result); err != nil {
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

func applyPushDecision(workspaceRoot string, artifacts *artifact.Engine, t transport.Transport, remoteName string, d Decision, now time.Time, state *State, result *PushResult) error {
	switch d.Action {
	case ActionSkip:
		// Mirrors Pull's skip handling: only a first-sync skip (no prior
		// watermark) establishes a baseline. Once a watermark exists, a
		// skip means this push made no sync-relevant observation on
		// whichever axis it didn't touch, so neither axis is overwritten —
		// doing so would hide a real, unsynced change (e.g. a "pull
		// candidate" skip stamping the remote axis to the push's own
		// local value would make the next Pull think that remote change
		// was already seen, and drop it).
		if _, exists := state.Artifacts[d.Slug]; !exists {
			state.Artifacts[d.Slug] = Watermark{LocalVersionAtSync: d.LocalVersion, RemoteVersionAtSync: d.RemoteVersion}
		}
		result.Skipped = append(result.Skipped, d.Slug)
		return nil

	case ActionPush:
		data, err := readRawArtifact(artifacts, d.Slug)
		if err != nil {
			return err
		}
		if err := t.WriteArtifact(d.Slug, data); err != nil {
			return err
		}
		state.Artifacts[d.Slug] = Watermark{LocalVersionAtSync: d.LocalVersion, RemoteVersionAtSync: d.LocalVersion}
		result.Pushed = append(result.Pushed, d.Slug)
		return nil

	case ActionConflict:
		_, _, remoteRaw, err := t.ReadArtifact(d.Slug)
		if err != nil {
			// remote unreadable (e.g. deleted); stash nothing, still record a conflict.
			remoteRaw = nil
		}
		if err := writeStash(workspaceRoot, remoteName, d.Slug, d.LocalVersion, d.RemoteVersion, remoteRaw, d.Reason, now); err != nil {
			return err
		}
		result.Conflicts = append(result.Conflicts, d.Slug)
		return nil

	default:
		return awperr.New(awperr.CorruptState, "applyPushDecision", "unknown action "+string(d.Action))
	}
}

func readRawArtifact(artifacts *artifact.Engine, slug string) ([]byte, error) {
	data, err := storage.ReadFile(artifacts.FilePath(slug))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, awperr.New(awperr.NotFound, "readRawArtifact", "artifact "+slug+" not found")
	}
	return data, nil
}
