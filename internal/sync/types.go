// Package sync implements the sync engine: a three-way
// diff over artifact versions, additive merge, conflict stashing, and
// reputation signal exchange between two workspaces over a pluggable
// transport.Transport.
package sync

import "time"

// Watermark is the lineage point recorded after a successful sync.
type Watermark struct {
	LocalVersionAtSync  int `json:"localVersionAtSync"`
	RemoteVersionAtSync int `json:"remoteVersionAtSync"`
}

// SignalState tracks how far signal export/import has progressed.
type SignalState struct {
	LastSyncedTimestamp time.Time `json:"lastSyncedTimestamp"`
	SignalCount         int       `json:"signalCount"`
}

// State is the per-remote sync state file (`.awp/sync/state/<remote>.json`).
type State struct {
	Artifacts map[string]Watermark `json:"artifacts"`
	Signals   SignalState          `json:"signals"`
	LastSync  time.Time            `json:"lastSync"`
}

// NewState returns an empty State.
func NewState() *State {
	return &State{Artifacts: map[string]Watermark{}}
}

// Remote is a named sync target.
type Remote struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"` // "local-fs" | "git-remote" | "nats"
	Address string `json:"address"`
	Branch  string `json:"branch,omitempty"`
}

// RemoteRegistry is the `.awp/sync/remotes.json` file.
type RemoteRegistry struct {
	Version int               `json:"version"`
	Remotes map[string]Remote `json:"remotes"`
}

// Action is the decision produced by the three-way diff for one artifact.
type Action string

const (
	ActionImport      Action = "import"
	ActionSkip        Action = "skip"
	ActionConflict    Action = "conflict"
	ActionFastForward Action = "fast-forward"
	ActionMerge       Action = "merge"
	ActionPush        Action = "push"
)

// Decision is the diff result for a single artifact slug.
type Decision struct {
	Slug          string
	Action        Action
	Reason        string
	LocalVersion  int
	RemoteVersion int
}

// ConflictDescriptor records a stashed conflict.
type ConflictDescriptor struct {
	LocalVersion  int       `json:"localVersion"`
	RemoteVersion int       `json:"remoteVersion"`
	DetectedAt    time.Time `json:"detectedAt"`
	Strategy      string    `json:"strategy"`
	Reason        string    `json:"reason"`
	LocalPath     string    `json:"localPath"`
	RemotePath    string    `json:"remotePath"`
	StashPath     string    `json:"stashPath"`
}

// PullResult summarizes one pull invocation.
type PullResult struct {
	Decisions []Decision
	Imported  []string
	FastForwarded []string
	Merged    []string
	Conflicts []string
	Skipped   []string
	DryRun    bool
}

// PushResult summarizes one push invocation.
type PushResult struct {
	Decisions []Decision
	Pushed    []string
	Conflicts []string
	Skipped   []string
	DryRun    bool
}

// SignalSyncResult summarizes a signal export or import.
type SignalSyncResult struct {
	ExportedCount int
	ImportedCount int
	ExportedAt    time.Time
}
