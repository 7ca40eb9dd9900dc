package sync

import (
	"time"

	"github.com/awp-dev/awpengine/internal/reputation"
	"github.com/awp-dev/awpengine/internal/sync/transport"
)

// ExportSignals gathers every local signal timestamped after the
// watermark and packages it for a remote.
func ExportSignals(workspaceRoot string, reputations *reputation.Engine, sourceAgentDid string, since time.Time, now time.Time) (transport.SignalBatch, error) {
	profiles, err := reputations.ListProfiles()
	if err != nil {
		return transport.SignalBatch{}, err
	}

	batch := transport.SignalBatch{
		SourceWorkspace: workspaceRoot,
		SourceAgentDid:  sourceAgentDid,
		ExportedAt:      now,
	}
	for _, p := range profiles {
		for _, sig := range p.Signals {
			if !sig.Timestamp.After(since) {
				continue
			}
			batch.Signals = append(batch.Signals, transport.Signal{
				SubjectDid:  p.AgentDid,
				SubjectName: p.AgentName,
				Source:      sig.Source,
				Dimension:   sig.Dimension,
				Domain:      sig.Domain,
				Score:       sig.Score,
				Timestamp:   sig.Timestamp,
				Evidence:    sig.Evidence,
				Message:     sig.Message,
			})
		}
	}
	return batch, nil
}

// ImportSignals applies every signal in batch to the local reputation
// store via AppendSignal, which already enforces the (source, dimension,
// timestamp) dedup invariant — a signal re-imported from a
// remote that originated locally is a no-op, not a double-count.
func ImportSignals(reputations *reputation.Engine, batch transport.SignalBatch) (int, error) {
	imported := 0
	for _, sig := range batch.Signals {
		before := 0
		if p, err := reputations.FindByDID(sig.SubjectDid); err == nil {
			before = len(p.Signals)
		}
		p, err := reputations.AppendSignal(sig.SubjectDid, sig.SubjectName, reputation.Signal{
			Source:    sig.Source,
			Dimension: sig.Dimension,
			Domain:    sig.Domain,
			Score:     sig.Score,
			Timestamp: sig.Timestamp,
			Evidence:  sig.Evidence,
			Message:   sig.Message,
		})
		if err != nil {
			return imported, err
		}
		if len(p.Signals) > before {
			imported++
		}
	}
	return imported, nil
}

// SyncSignals performs a two-way signal exchange with remote: export local
// signals since the last sync, push them, then pull and import the
// remote's. Returns a summary for reporting.
func SyncSignals(workspaceRoot string, reputations *reputation.Engine, t transport.Transport, remoteName, sourceAgentDid string, now time.Time) (*SignalSyncResult, error) {
	state, err := LoadState(workspaceRoot, remoteName)
	if err != nil {
		return nil, err
	}

	outgoing, err := ExportSignals(workspaceRoot, reputations, sourceAgentDid, state.Signals.LastSyncedTimestamp, now)
	if err != nil {
		return nil, err
	}
	if len(outgoing.Signals) > 0 {
		if err := t.WriteSignals(outgoing); err != nil {
			return nil, err
		}
	}

	incoming, err := t.ReadSignalsSince(state.Signals.LastSyncedTimestamp)
	if err != nil {
		return nil, err
	}
	importedCount, err := ImportSignals(reputations, incoming)
	if err != nil {
		return nil, err
	}

	state.Signals.LastSyncedTimestamp = now
	state.Signals.SignalCount += importedCount
	state.LastSync = now
	if err := saveState(workspaceRoot, remoteName, state); err != nil {
		return nil, err
	}

	return &SignalSyncResult{
		ExportedCount: len(outgoing.Signals),
		ImportedCount: importedCount,
		ExportedAt:    now,
	}, nil
}
