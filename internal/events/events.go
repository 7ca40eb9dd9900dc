package events

// Event type constants carried by the hub. Notification channels filter on
// these (the toast and Slack channels match TypeSyncConflict).
const (
	TypeArtifactCreated    = "artifact.created"
	TypeArtifactCommitted  = "artifact.committed"
	TypeArtifactMerged     = "artifact.merged"
	TypeContractEvaluated  = "contract.evaluated"
	TypeContractTransition = "contract.transitioned"
	TypeTaskStatusChanged  = "task.status_changed"
	TypeSyncCompleted      = "sync.completed"
	TypeSyncConflict       = "sync.conflict"
	TypeSignalAppended     = "reputation.signal_appended"
)
