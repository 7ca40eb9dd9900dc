// Package localfs implements transport.Transport over a second workspace
// directory reachable on the same filesystem.
// Grounded on internal/storage's atomic-write/frontmatter primitives,
// reused directly rather than re-implemented.
package localfs

import (
	"os"
	"path/filepath"
	"time"

	"github.com/awp-dev/awpengine/internal/awperr"
	"github.com/awp-dev/awpengine/internal/storage"
	"github.com/awp-dev/awpengine/internal/sync/transport"
)

// Transport accesses remoteRoot directly, no network involved.
type Transport struct {
	remoteRoot string
	remoteName string
}

// New creates a localfs Transport rooted at remoteRoot.
func New(remoteName, remoteRoot string) *Transport {
	return &Transport{remoteRoot: remoteRoot, remoteName: remoteName}
}

func (t *Transport) Connect(remote string) (transport.RemoteInfo, error) {
	if _, err := os.Stat(t.remoteRoot); err != nil {
		return transport.RemoteInfo{}, awperr.Wrap(awperr.TransportError, "Connect", "remote workspace not reachable", err)
	}
	return transport.RemoteInfo{Name: t.remoteName, Address: t.remoteRoot}, nil
}

func (t *Transport) artifactsDir() string { return filepath.Join(t.remoteRoot, "artifacts") }
func (t *Transport) reputationDir() string { return filepath.Join(t.remoteRoot, "reputation") }

func (t *Transport) ListArtifacts(filter func(transport.Manifest) bool) ([]transport.Manifest, error) {
	entries, err := os.ReadDir(t.artifactsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, awperr.Wrap(awperr.TransportError, "ListArtifacts", "read remote artifacts directory", err)
	}
	var out []transport.Manifest
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		slug := entry.Name()[:len(entry.Name())-len(".md")]
		_, _, _, version, err := t.readArtifactVersion(slug)
		if err != nil {
			return nil, err
		}
		m := transport.Manifest{Slug: slug, Version: version}
		if filter == nil || filter(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (t *Transport) readArtifactVersion(slug string) (map[string]interface{}, string, []byte, int, error) {
	path := filepath.Join(t.artifactsDir(), slug+".md")
	data, err := storage.ReadFile(path)
	if err != nil {
		return nil, "", nil, 0, awperr.Wrap(awperr.TransportError, "readArtifactVersion", "read remote artifact", err)
	}
	if data == nil {
		return nil, "", nil, 0, awperr.New(awperr.NotFound, "readArtifactVersion", "remote artifact "+slug+" not found")
	}
	fm, body, err := storage.ParseFrontmatter(data)
	if err != nil {
		return nil, "", nil, 0, err
	}
	version := 0
	if v, ok := fm["version"]; ok {
		switch n := v.(type) {
		case int:
			version = n
		case int64:
			version = int(n)
		case float64:
			version = int(n)
		}
	}
	return fm, body, data, version, nil
}

func (t *Transport) ReadArtifact(slug string) (map[string]interface{}, string, []byte, error) {
	fm, body, raw, _, err := t.readArtifactVersion(slug)
	return fm, body, raw, err
}

func (t *Transport) WriteArtifact(slug string, raw []byte) error {
	path := filepath.Join(t.artifactsDir(), slug+".md")
	return storage.WithFileLock(path, 10*time.Second, func() error {
		return storage.AtomicWrite(path, raw, 0o644)
	})
}

func (t *Transport) ReadSignalsSince(since time.Time) (transport.SignalBatch, error) {
	entries, err := os.ReadDir(t.reputationDir())
	if err != nil {
		if os.IsNotExist(err) {
			return transport.SignalBatch{ExportedAt: since}, nil
		}
		return transport.SignalBatch{}, awperr.Wrap(awperr.TransportError, "ReadSignalsSince", "read remote reputation directory", err)
	}

	batch := transport.SignalBatch{SourceWorkspace: t.remoteRoot, ExportedAt: since}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		path := filepath.Join(t.reputationDir(), entry.Name())
		data, err := storage.ReadFile(path)
		if err != nil || data == nil {
			continue
		}
		fm, _, err := storage.ParseFrontmatter(data)
		if err != nil {
			continue
		}
		agentDid, _ := fm["agentDid"].(string)
		agentName, _ := fm["agentName"].(string)
		signals, _ := fm["signals"].([]interface{})
		for _, raw := range signals {
			sigMap, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			ts, ok := parseSignalTimestamp(sigMap["timestamp"])
			if !ok || !ts.After(since) {
				continue
			}
			batch.Signals = append(batch.Signals, transport.Signal{
				SubjectDid:  agentDid,
				SubjectName: agentName,
				Source:      asString(sigMap["source"]),
				Dimension:   asString(sigMap["dimension"]),
				Domain:      asString(sigMap["domain"]),
				Score:       asFloat(sigMap["score"]),
				Timestamp:   ts,
				Evidence:    asString(sigMap["evidence"]),
				Message:     asString(sigMap["message"]),
			})
		}
	}
	return batch, nil
}

// WriteSignals is a no-op for localfs: signal import happens on the
// receiving side via internal/sync's ImportSignals, not by mutating the remote.
func (t *Transport) WriteSignals(batch transport.SignalBatch) error { return nil }

func (t *Transport) Disconnect() error { return nil }

func parseSignalTimestamp(v interface{}) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		ts, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, false
		}
	}
	return ts, true
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}
