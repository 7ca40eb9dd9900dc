package sync

import (
	"path/filepath"

	"github.com/awp-dev/awpengine/internal/awperr"
	"github.com/awp-dev/awpengine/internal/storage"
)

func remotesPath(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, ".awp", "sync", "remotes.json")
}

func statePath(workspaceRoot, remoteName string) string {
	return filepath.Join(workspaceRoot, ".awp", "sync", "state", remoteName+".json")
}

func conflictPath(workspaceRoot, slug string) string {
	return filepath.Join(workspaceRoot, ".awp", "sync", "conflicts", slug+".conflict.json")
}

// LoadRemotes reads the remote registry, returning an empty one if absent.
func LoadRemotes(workspaceRoot string) (*RemoteRegistry, error) {
	reg := &RemoteRegistry{Version: 1, Remotes: map[string]Remote{}}
	found, err := storage.LoadJSON(remotesPath(workspaceRoot), reg)
	if err != nil {
		return nil, err
	}
	if !found {
		return reg, nil
	}
	if reg.Remotes == nil {
		reg.Remotes = map[string]Remote{}
	}
	return reg, nil
}

func saveRemotes(workspaceRoot string, reg *RemoteRegistry) error {
	return storage.SafeWriteJSON(remotesPath(workspaceRoot), reg)
}

// AddRemote registers remote under name, failing AlreadyExists if taken.
func AddRemote(workspaceRoot string, remote Remote) error {
	reg, err := LoadRemotes(workspaceRoot)
	if err != nil {
		return err
	}
	if _, exists := reg.Remotes[remote.Name]; exists {
		return awperr.New(awperr.AlreadyExists, "AddRemote", "remote "+remote.Name+" already exists")
	}
	reg.Remotes[remote.Name] = remote
	return saveRemotes(workspaceRoot, reg)
}

// RemoveRemote deletes a remote from the registry.
func RemoveRemote(workspaceRoot, name string) error {
	reg, err := LoadRemotes(workspaceRoot)
	if err != nil {
		return err
	}
	if _, exists := reg.Remotes[name]; !exists {
		return awperr.New(awperr.NotFound, "RemoveRemote", "remote "+name+" not found")
	}
	delete(reg.Remotes, name)
	return saveRemotes(workspaceRoot, reg)
}

// ListRemotes returns every registered remote.
func ListRemotes(workspaceRoot string) ([]Remote, error) {
	reg, err := LoadRemotes(workspaceRoot)
	if err != nil {
		return nil, err
	}
	out := make([]Remote, 0, len(reg.Remotes))
	for _, r := range reg.Remotes {
		out = append(out, r)
	}
	return out, nil
}

// LoadState reads the sync state for remoteName, returning a fresh empty
// State if this is the first sync.
func LoadState(workspaceRoot, remoteName string) (*State, error) {
	s := NewState()
	found, err := storage.LoadJSON(statePath(workspaceRoot, remoteName), s)
	if err != nil {
		return nil, err
	}
	if !found {
		return s, nil
	}
	if s.Artifacts == nil {
		s.Artifacts = map[string]Watermark{}
	}
	return s, nil
}

func saveState(workspaceRoot, remoteName string, s *State) error {
	return storage.SafeWriteJSON(statePath(workspaceRoot, remoteName), s)
}
