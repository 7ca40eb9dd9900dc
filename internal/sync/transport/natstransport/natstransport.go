// Package natstransport implements transport.Transport as a NATS
// request/reply client, for workspaces that expose themselves over a NATS
// subject namespace rather than a filesystem or git remote.
package natstransport

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/awp-dev/awpengine/internal/awperr"
	"github.com/awp-dev/awpengine/internal/sync/transport"
	nats "github.com/nats-io/nats.go"
)

const requestTimeout = 5 * time.Second

// Transport talks to a remote workspace's NATS responder on
// "awp.sync.<remoteName>.*" subjects.
type Transport struct {
	url        string
	remoteName string
	conn       *nats.Conn
}

// New creates a natstransport Transport addressing remoteName over url.
func New(remoteName, url string) *Transport {
	return &Transport{remoteName: remoteName, url: url}
}

func (t *Transport) subject(suffix string) string {
	return fmt.Sprintf("awp.sync.%s.%s", t.remoteName, suffix)
}

func (t *Transport) Connect(remote string) (transport.RemoteInfo, error) {
	conn, err := nats.Connect(t.url,
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return transport.RemoteInfo{}, awperr.Wrap(awperr.TransportError, "Connect", "connect to NATS", err)
	}
	t.conn = conn
	return transport.RemoteInfo{Name: t.remoteName, Address: t.url}, nil
}

func (t *Transport) request(subject string, req, resp interface{}) error {
	body, err := json.Marshal(req)
	if err != nil {
		return awperr.Wrap(awperr.TransportError, "request", "marshal request", err)
	}
	msg, err := t.conn.Request(subject, body, requestTimeout)
	if err != nil {
		return awperr.Wrap(awperr.TransportError, "request", "NATS request on "+subject, err)
	}
	if resp != nil {
		if err := json.Unmarshal(msg.Data, resp); err != nil {
			return awperr.Wrap(awperr.TransportError, "request", "unmarshal response", err)
		}
	}
	return nil
}

func (t *Transport) ListArtifacts(filter func(transport.Manifest) bool) ([]transport.Manifest, error) {
	var manifests []transport.Manifest
	if err := t.request(t.subject("artifacts.list"), struct{}{}, &manifests); err != nil {
		return nil, err
	}
	if filter == nil {
		return manifests, nil
	}
	var out []transport.Manifest
	for _, m := range manifests {
		if filter(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

type readArtifactResponse struct {
	Frontmatter map[string]interface{} `json:"frontmatter"`
	Body        string                  `json:"body"`
	Raw         []byte                  `json:"raw"`
}

func (t *Transport) ReadArtifact(slug string) (map[string]interface{}, string, []byte, error) {
	var resp readArtifactResponse
	if err := t.request(t.subject("artifacts.read"), map[string]string{"slug": slug}, &resp); err != nil {
		return nil, "", nil, err
	}
	return resp.Frontmatter, resp.Body, resp.Raw, nil
}

func (t *Transport) WriteArtifact(slug string, raw []byte) error {
	return t.request(t.subject("artifacts.write"), map[string]interface{}{"slug": slug, "raw": raw}, nil)
}

func (t *Transport) ReadSignalsSince(since time.Time) (transport.SignalBatch, error) {
	var batch transport.SignalBatch
	if err := t.request(t.subject("signals.read"), map[string]interface{}{"since": since}, &batch); err != nil {
		return transport.SignalBatch{}, err
	}
	return batch, nil
}

func (t *Transport) WriteSignals(batch transport.SignalBatch) error {
	return t.request(t.subject("signals.write"), batch, nil)
}

func (t *Transport) Disconnect() error {
	if t.conn != nil {
		t.conn.Close()
	}
	return nil
}
