// Package transport defines the pluggable sync transport interface
// implemented by localfs, gitremote,
// and natstransport.
package transport

import "time"

// RemoteInfo describes a connected remote.
type RemoteInfo struct {
	Name    string
	Address string
}

// Manifest summarizes an artifact on the far side of a transport, enough
// to run the three-way diff without transferring the full body.
type Manifest struct {
	Slug    string
	Version int
}

// Signal is the wire shape of a single exported reputation signal,
// addressed to the subject profile it updates.
type Signal struct {
	SubjectDid  string
	SubjectName string
	Source      string
	Dimension   string
	Domain      string
	Score       float64
	Timestamp   time.Time
	Evidence    string
	Message     string
}

// SignalBatch is a timestamped group of exported signals.
type SignalBatch struct {
	SourceWorkspace string
	SourceAgentDid  string
	ExportedAt      time.Time
	Signals         []Signal
}

// Transport is the capability set a sync remote must implement. Variants: local-fs (direct filesystem access to another
// workspace), git-remote (clone to a tempdir, pull, manipulate, push,
// cleanup), and the supplemented nats transport (request/reply over a
// NATS subject namespace).
type Transport interface {
	Connect(remote string) (RemoteInfo, error)
	ListArtifacts(filter func(Manifest) bool) ([]Manifest, error)
	ReadArtifact(slug string) (frontmatter map[string]interface{}, body string, raw []byte, err error)
	WriteArtifact(slug string, raw []byte) error
	ReadSignalsSince(since time.Time) (SignalBatch, error)
	WriteSignals(batch SignalBatch) error
	Disconnect() error
}
