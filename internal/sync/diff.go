package sync

// diffPull implements the pull-direction three-way diff decision table.
// hasLocal/hasWatermark report whether L and W are present; L, R are the
// version numbers (meaningless when absent).
func diffPull(slug string, hasLocal bool, localVersion int, remoteVersion int, hasWatermark bool, w Watermark) Decision {
	if !hasLocal {
		return Decision{Slug: slug, Action: ActionImport, Reason: "new artifact from remote", RemoteVersion: remoteVersion}
	}
	if !hasWatermark {
		if localVersion == remoteVersion {
			return Decision{Slug: slug, Action: ActionSkip, Reason: "never synced; versions already match", LocalVersion: localVersion, RemoteVersion: remoteVersion}
		}
		return Decision{Slug: slug, Action: ActionConflict, Reason: "never synced; cannot determine lineage", LocalVersion: localVersion, RemoteVersion: remoteVersion}
	}

	localChanged := localVersion > w.LocalVersionAtSync
	remoteChanged := remoteVersion > w.RemoteVersionAtSync

	switch {
	case !localChanged && !remoteChanged:
		return Decision{Slug: slug, Action: ActionSkip, Reason: "no changes since last sync", LocalVersion: localVersion, RemoteVersion: remoteVersion}
	case !localChanged && remoteChanged:
		return Decision{Slug: slug, Action: ActionFastForward, Reason: "adopt remote", LocalVersion: localVersion, RemoteVersion: remoteVersion}
	case localChanged && !remoteChanged:
		return Decision{Slug: slug, Action: ActionSkip, Reason: "push candidate", LocalVersion: localVersion, RemoteVersion: remoteVersion}
	default:
		return Decision{Slug: slug, Action: ActionMerge, Reason: "both sides changed", LocalVersion: localVersion, RemoteVersion: remoteVersion}
	}
}

// diffPush mirrors pull: absent remote pushes, both-changed always
// conflicts (never auto-merges on push).
func diffPush(slug string, localVersion int, hasRemote bool, remoteVersion int, hasWatermark bool, w Watermark) Decision {
	if !hasRemote {
		return Decision{Slug: slug, Action: ActionPush, Reason: "new artifact to remote", LocalVersion: localVersion}
	}
	if !hasWatermark {
		if localVersion == remoteVersion {
			return Decision{Slug: slug, Action: ActionSkip, Reason: "never synced; versions already match", LocalVersion: localVersion, RemoteVersion: remoteVersion}
		}
		return Decision{Slug: slug, Action: ActionConflict, Reason: "never synced; cannot determine lineage", LocalVersion: localVersion, RemoteVersion: remoteVersion}
	}

	localChanged := localVersion > w.LocalVersionAtSync
	remoteChanged := remoteVersion > w.RemoteVersionAtSync

	switch {
	case !localChanged && !remoteChanged:
		return Decision{Slug: slug, Action: ActionSkip, Reason: "no changes since last sync", LocalVersion: localVersion, RemoteVersion: remoteVersion}
	case localChanged && !remoteChanged:
		return Decision{Slug: slug, Action: ActionPush, Reason: "push local changes", LocalVersion: localVersion, RemoteVersion: remoteVersion}
	case !localChanged && remoteChanged:
		return Decision{Slug: slug, Action: ActionSkip, Reason: "pull candidate", LocalVersion: localVersion, RemoteVersion: remoteVersion}
	default:
		return Decision{Slug: slug, Action: ActionConflict, Reason: "both sides changed; push never auto-merges", LocalVersion: localVersion, RemoteVersion: remoteVersion}
	}
}
