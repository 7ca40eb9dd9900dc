// Package gitremote implements transport.Transport by shelling out to git
// to clone a remote workspace repository to a tempdir, operating on it via
// localfs, then pushing and cleaning up.
// Grounded on internal/git/git.go's os/exec wrapper pattern.
package gitremote

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/awp-dev/awpengine/internal/awperr"
	"github.com/awp-dev/awpengine/internal/sync/transport"
	"github.com/awp-dev/awpengine/internal/sync/transport/localfs"
)

// Transport clones remoteURL to a tempdir on Connect and cleans it up on
// Disconnect; every read/write call delegates to a localfs.Transport
// rooted at the clone.
type Transport struct {
	remoteName string
	remoteURL  string
	branch     string
	cloneDir   string
	inner      *localfs.Transport
	dirty      bool
}

// New creates a gitremote Transport for remoteURL on branch (default
// "main" if empty).
func New(remoteName, remoteURL, branch string) *Transport {
	if branch == "" {
		branch = "main"
	}
	return &Transport{remoteName: remoteName, remoteURL: remoteURL, branch: branch}
}

func (t *Transport) run(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, output)
	}
	return strings.TrimSpace(string(output)), nil
}

func (t *Transport) Connect(remote string) (transport.RemoteInfo, error) {
	dir, err := os.MkdirTemp("", "awp-sync-clone-*")
	if err != nil {
		return transport.RemoteInfo{}, awperr.Wrap(awperr.TransportError, "Connect", "create clone tempdir", err)
	}
	if _, err := t.run("", "clone", "--branch", t.branch, "--single-branch", t.remoteURL, dir); err != nil {
		os.RemoveAll(dir)
		return transport.RemoteInfo{}, awperr.Wrap(awperr.TransportError, "Connect", "clone remote", err)
	}
	t.cloneDir = dir
	t.inner = localfs.New(t.remoteName, dir)
	return transport.RemoteInfo{Name: t.remoteName, Address: t.remoteURL}, nil
}

func (t *Transport) ListArtifacts(filter func(transport.Manifest) bool) ([]transport.Manifest, error) {
	return t.inner.ListArtifacts(filter)
}

func (t *Transport) ReadArtifact(slug string) (map[string]interface{}, string, []byte, error) {
	return t.inner.ReadArtifact(slug)
}

func (t *Transport) WriteArtifact(slug string, raw []byte) error {
	if err := t.inner.WriteArtifact(slug, raw); err != nil {
		return err
	}
	t.dirty = true
	return nil
}

func (t *Transport) ReadSignalsSince(since time.Time) (transport.SignalBatch, error) {
	return t.inner.ReadSignalsSince(since)
}

func (t *Transport) WriteSignals(batch transport.SignalBatch) error {
	return t.inner.WriteSignals(batch)
}

// Disconnect commits and pushes any writes made during the session, then
// removes the clone directory.
func (t *Transport) Disconnect() error {
	defer os.RemoveAll(t.cloneDir)

	if t.dirty {
		if _, err := t.run(t.cloneDir, "add", "-A"); err != nil {
			return awperr.Wrap(awperr.TransportError, "Disconnect", "stage changes", err)
		}
		if _, err := t.run(t.cloneDir, "commit", "-m", "awp sync"); err != nil {
			return awperr.Wrap(awperr.TransportError, "Disconnect", "commit changes", err)
		}
		if _, err := t.run(t.cloneDir, "push", "origin", t.branch); err != nil {
			return awperr.Wrap(awperr.TransportError, "Disconnect", "push changes", err)
		}
	}
	return nil
}
