package sync

import (
	"strings"
	"testing"
	"time"

	"github.com/awp-dev/awpengine/internal/artifact"
	"github.com/awp-dev/awpengine/internal/sync/transport/localfs"
)

func newWorkspaces(t *testing.T) (local, remote string) {
	t.Helper()
	return t.TempDir(), t.TempDir()
}

func TestPullImportsNewRemoteArtifact(t *testing.T) {
	localRoot, remoteRoot := newWorkspaces(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	localArtifacts := artifact.NewEngine(localRoot, nil)
	remoteArtifacts := artifact.NewEngine(remoteRoot, nil)
	if _, err := remoteArtifacts.Create("design-notes", "Design Notes", nil, 0.8, "did:key:zremote", "remote body", now); err != nil {
		t.Fatalf("seed remote: %v", err)
	}

	tr := localfs.New("origin", remoteRoot)
	if _, err := tr.Connect("origin"); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	result, err := Pull(localRoot, localArtifacts, tr, "origin", PullOptions{}, now)
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if len(result.Imported) != 1 || result.Imported[0] != "design-notes" {
		t.Fatalf("Imported = %v, want [design-notes]", result.Imported)
	}

	a, err := localArtifacts.Load("design-notes")
	if err != nil {
		t.Fatalf("Load after import: %v", err)
	}
	if a.Version != 1 {
		t.Fatalf("Version = %d, want 1", a.Version)
	}
}

func TestPullDryRunTouchesNothing(t *testing.T) {
	localRoot, remoteRoot := newWorkspaces(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	localArtifacts := artifact.NewEngine(localRoot, nil)
	remoteArtifacts := artifact.NewEngine(remoteRoot, nil)
	if _, err := remoteArtifacts.Create("design-notes", "Design Notes", nil, 0.8, "did:key:zremote", "remote body", now); err != nil {
		t.Fatalf("seed remote: %v", err)
	}

	tr := localfs.New("origin", remoteRoot)
	result, err := Pull(localRoot, localArtifacts, tr, "origin", PullOptions{DryRun: true}, now)
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if !result.DryRun || len(result.Imported) != 0 {
		t.Fatalf("dry-run result = %+v, want no side effects recorded", result)
	}
	if len(result.Decisions) != 1 || result.Decisions[0].Action != ActionImport {
		t.Fatalf("Decisions = %+v, want one pending import", result.Decisions)
	}

	if exists, _ := localArtifacts.Exists("design-notes"); exists {
		t.Fatalf("dry-run must not write local artifact file")
	}
	state, err := LoadState(localRoot, "origin")
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if len(state.Artifacts) != 0 {
		t.Fatalf("dry-run must not persist state, got %+v", state.Artifacts)
	}
}

// TestPullMergesWhenBothSidesChangedSinceLastSync checks that when both
// sides change the same artifact since the last sync, pull additively
// merges rather than overwriting either side.
func TestPullMergesWhenBothSidesChangedSinceLastSync(t *testing.T) {
	localRoot, remoteRoot := newWorkspaces(t)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	localArtifacts := artifact.NewEngine(localRoot, nil)
	remoteArtifacts := artifact.NewEngine(remoteRoot, nil)

	if _, err := localArtifacts.Create("shared-doc", "Shared Doc", nil, 0.5, "did:key:zlocal", "base body", t0); err != nil {
		t.Fatalf("seed local: %v", err)
	}
	if _, err := remoteArtifacts.Create("shared-doc", "Shared Doc", nil, 0.5, "did:key:zremote", "base body", t0); err != nil {
		t.Fatalf("seed remote: %v", err)
	}

	tr := localfs.New("origin", remoteRoot)

	// First sync establishes the watermark at version 1/1.
	if _, err := Pull(localRoot, localArtifacts, tr, "origin", PullOptions{}, t0); err != nil {
		t.Fatalf("initial Pull: %v", err)
	}

	// Both sides change independently.
	if _, err := localArtifacts.Commit("shared-doc", "local edit", nil, "did:key:zlocal", "local edit body", t1); err != nil {
		t.Fatalf("local Commit: %v", err)
	}
	if _, err := remoteArtifacts.Commit("shared-doc", "remote edit", nil, "did:key:zremote", "remote edit body", t1); err != nil {
		t.Fatalf("remote Commit: %v", err)
	}

	result, err := Pull(localRoot, localArtifacts, tr, "origin", PullOptions{}, t1)
	if err != nil {
		t.Fatalf("second Pull: %v", err)
	}
	if len(result.Merged) != 1 || result.Merged[0] != "shared-doc" {
		t.Fatalf("Merged = %v, want [shared-doc]", result.Merged)
	}

	merged, err := localArtifacts.Load("shared-doc")
	if err != nil {
		t.Fatalf("Load merged: %v", err)
	}
	if merged.Version != 3 {
		t.Fatalf("Version = %d, want 3 (2 local commit + 1 merge)", merged.Version)
	}
	if !strings.Contains(merged.Body, "local edit body") || !strings.Contains(merged.Body, "remote edit body") {
		t.Fatalf("merged body missing one side: %q", merged.Body)
	}

	state, err := LoadState(localRoot, "origin")
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	w := state.Artifacts["shared-doc"]
	if w.RemoteVersionAtSync != 2 || w.LocalVersionAtSync != 3 {
		t.Fatalf("watermark after merge = %+v, want {3 2}", w)
	}
}

// TestPullStashesConflictWhenNeverSyncedAndDiverged checks that two
// artifacts never synced before, with diverging versions, stash rather
// than guess at a resolution.
func TestPullStashesConflictWhenNeverSyncedAndDiverged(t *testing.T) {
	localRoot, remoteRoot := newWorkspaces(t)
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	localArtifacts := artifact.NewEngine(localRoot, nil)
	remoteArtifacts := artifact.NewEngine(remoteRoot, nil)

	if _, err := localArtifacts.Create("policy", "Policy", nil, 0.5, "did:key:zlocal", "local v1", t0); err != nil {
		t.Fatalf("seed local: %v", err)
	}
	if _, err := remoteArtifacts.Create("policy", "Policy", nil, 0.5, "did:key:zremote", "remote v1", t0); err != nil {
		t.Fatalf("seed remote: %v", err)
	}
	if _, err := remoteArtifacts.Commit("policy", "remote edit", nil, "did:key:zremote", "remote v2", t1); err != nil {
		t.Fatalf("remote Commit: %v", err)
	}

	tr := localfs.New("origin", remoteRoot)
	result, err := Pull(localRoot, localArtifacts, tr, "origin", PullOptions{}, t1)
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}
	if len(result.Conflicts) != 1 || result.Conflicts[0] != "policy" {
		t.Fatalf("Conflicts = %v, want [policy]", result.Conflicts)
	}

	conflicts, err := ListConflicts(localRoot)
	if err != nil {
		t.Fatalf("ListConflicts: %v", err)
	}
	if len(conflicts) != 1 {
		t.Fatalf("len(conflicts) = %d, want 1", len(conflicts))
	}

	local, err := localArtifacts.Load("policy")
	if err != nil {
		t.Fatalf("Load local: %v", err)
	}
	if local.Body != "local v1" {
		t.Fatalf("local artifact must be untouched by a conflicting pull, got %q", local.Body)
	}

	if err := ResolveConflict(localRoot, localArtifacts, "policy", "remote"); err != nil {
		t.Fatalf("ResolveConflict: %v", err)
	}
	resolved, err := localArtifacts.Load("policy")
	if err != nil {
		t.Fatalf("Load after resolve: %v", err)
	}
	if !strings.Contains(resolved.Body, "remote v2") {
		t.Fatalf("resolved body = %q, want remote v2 content", resolved.Body)
	}

	remaining, err := ListConflicts(localRoot)
	if err != nil {
		t.Fatalf("ListConflicts after resolve: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("conflict must be cleared after resolution, got %d remaining", len(remaining))
	}
}
