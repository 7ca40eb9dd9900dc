package sync

import (
	"testing"
	"time"

	"github.com/awp-dev/awpengine/internal/reputation"
	"github.com/awp-dev/awpengine/internal/sync/transport"
)

// fakeSignalTransport is a minimal transport.Transport double exercising
// only the signal-sync half of the interface.
type fakeSignalTransport struct {
	remoteRoot string
	written    []transport.SignalBatch
}

func newFakeSignalTransport(remoteRoot string) *fakeSignalTransport {
	return &fakeSignalTransport{remoteRoot: remoteRoot}
}

func (f *fakeSignalTransport) Connect(remote string) (transport.RemoteInfo, error) {
	return transport.RemoteInfo{Name: remote, Address: f.remoteRoot}, nil
}
func (f *fakeSignalTransport) ListArtifacts(filter func(transport.Manifest) bool) ([]transport.Manifest, error) {
	return nil, nil
}
func (f *fakeSignalTransport) ReadArtifact(slug string) (map[string]interface{}, string, []byte, error) {
	return nil, "", nil, nil
}
func (f *fakeSignalTransport) WriteArtifact(slug string, raw []byte) error { return nil }
func (f *fakeSignalTransport) ReadSignalsSince(since time.Time) (transport.SignalBatch, error) {
	return transport.SignalBatch{ExportedAt: since}, nil
}
func (f *fakeSignalTransport) WriteSignals(batch transport.SignalBatch) error {
	f.written = append(f.written, batch)
	return nil
}
func (f *fakeSignalTransport) Disconnect() error { return nil }

func TestExportSignalsOnlyIncludesNewerThanSince(t *testing.T) {
	root := t.TempDir()
	engine := reputation.NewEngine(root, nil)

	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)
	t2 := t0.Add(2 * time.Hour)

	if _, err := engine.AppendSignal("did:key:zalice", "Alice", reputation.Signal{
		Source: "did:key:zbob", Dimension: "reliability", Score: 0.8, Timestamp: t0,
	}); err != nil {
		t.Fatalf("seed old signal: %v", err)
	}
	if _, err := engine.AppendSignal("did:key:zalice", "Alice", reputation.Signal{
		Source: "did:key:zbob", Dimension: "reliability", Score: 0.9, Timestamp: t2,
	}); err != nil {
		t.Fatalf("seed new signal: %v", err)
	}

	batch, err := ExportSignals(root, engine, "did:key:zexporter", t1, t2)
	if err != nil {
		t.Fatalf("ExportSignals: %v", err)
	}
	if len(batch.Signals) != 1 || batch.Signals[0].Timestamp != t2 {
		t.Fatalf("batch.Signals = %+v, want exactly the t2 signal", batch.Signals)
	}
}

// TestImportSignalsDedupsAcrossSync mirrors the S5 dedup invariant: a
// signal reimported from a remote that originated locally is a no-op.
func TestImportSignalsDedupsAcrossSync(t *testing.T) {
	localRoot := t.TempDir()
	local := reputation.NewEngine(localRoot, nil)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	sig := reputation.Signal{Source: "did:key:zbob", Dimension: "reliability", Score: 0.8, Timestamp: now}
	if _, err := local.AppendSignal("did:key:zalice", "Alice", sig); err != nil {
		t.Fatalf("seed signal: %v", err)
	}

	remoteRoot := t.TempDir()
	remote := reputation.NewEngine(remoteRoot, nil)
	batch, err := ExportSignals(localRoot, local, "did:key:zalice", time.Time{}, now)
	if err != nil {
		t.Fatalf("ExportSignals: %v", err)
	}
	if _, err := ImportSignals(remote, batch); err != nil {
		t.Fatalf("first ImportSignals: %v", err)
	}

	// Reimporting the very same batch (as if it bounced back through a
	// second remote) must not duplicate the signal.
	imported, err := ImportSignals(remote, batch)
	if err != nil {
		t.Fatalf("second ImportSignals: %v", err)
	}
	if imported != 0 {
		t.Fatalf("reimport count = %d, want 0 (dedup by source/dimension/timestamp)", imported)
	}

	profile, err := remote.FindByDID("did:key:zalice")
	if err != nil {
		t.Fatalf("FindByDID: %v", err)
	}
	if len(profile.Signals) != 1 {
		t.Fatalf("len(profile.Signals) = %d, want 1", len(profile.Signals))
	}
}

func TestSyncSignalsAdvancesWatermark(t *testing.T) {
	localRoot := t.TempDir()
	remoteRoot := t.TempDir()
	local := reputation.NewEngine(localRoot, nil)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := local.AppendSignal("did:key:zalice", "Alice", reputation.Signal{
		Source: "did:key:zbob", Dimension: "reliability", Score: 0.75, Timestamp: now,
	}); err != nil {
		t.Fatalf("seed signal: %v", err)
	}

	tr := newFakeSignalTransport(remoteRoot)
	result, err := SyncSignals(localRoot, local, tr, "origin", "did:key:zalice", now.Add(time.Minute))
	if err != nil {
		t.Fatalf("SyncSignals: %v", err)
	}
	if result.ExportedCount != 1 {
		t.Fatalf("ExportedCount = %d, want 1", result.ExportedCount)
	}

	state, err := LoadState(localRoot, "origin")
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if !state.Signals.LastSyncedTimestamp.Equal(now.Add(time.Minute)) {
		t.Fatalf("LastSyncedTimestamp = %v, want %v", state.Signals.LastSyncedTimestamp, now.Add(time.Minute))
	}
}
