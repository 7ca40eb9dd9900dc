package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/awp-dev/awpengine/internal/awperr"
	"github.com/awp-dev/awpengine/internal/ids"
	"github.com/awp-dev/awpengine/internal/storage"
	"gopkg.in/yaml.v3"
)

// Engine is the file-backed artifact store rooted at <workspace>/artifacts.
type Engine struct {
	root     string
	registry *storage.Registry
}

// NewEngine creates an artifact Engine rooted at workspaceRoot.
func NewEngine(workspaceRoot string, registry *storage.Registry) *Engine {
	if registry == nil {
		registry = storage.DefaultRegistry()
	}
	return &Engine{root: filepath.Join(workspaceRoot, "artifacts"), registry: registry}
}

func (e *Engine) path(slug string) string { return filepath.Join(e.root, slug+".md") }

// FilePath exposes the on-disk path for slug, for callers (e.g. the sync
// engine) that need to write raw bytes directly.
func (e *Engine) FilePath(slug string) string { return e.path(slug) }

// Exists reports whether an artifact file exists at slug without
// attempting to parse it.
func (e *Engine) Exists(slug string) (bool, error) {
	data, err := storage.ReadFile(e.path(slug))
	if err != nil {
		return false, err
	}
	return data != nil, nil
}

type doc struct {
	Title        string            `yaml:"title"`
	Tags         []string          `yaml:"tags"`
	Confidence   float64           `yaml:"confidence"`
	Version      int               `yaml:"version"`
	Authors      []string          `yaml:"authors"`
	LastModified time.Time         `yaml:"lastModified"`
	ModifiedBy   string            `yaml:"modifiedBy"`
	Provenance   []ProvenanceEntry `yaml:"provenance"`
}

func toDoc(a *Artifact) doc {
	return doc{a.Title, a.Tags, a.Confidence, a.Version, a.Authors, a.LastModified, a.ModifiedBy, a.Provenance}
}

// Create writes a new artifact at version 1 with a single "created"
// provenance entry.
func (e *Engine) Create(slug, title string, tags []string, confidence float64, authorDid, body string, now time.Time) (*Artifact, error) {
	if !ids.ValidSlug(slug) {
		return nil, awperr.New(awperr.SchemaViolation, "Create", "invalid slug: "+slug)
	}
	existing, err := storage.ReadFile(e.path(slug))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, awperr.New(awperr.AlreadyExists, "Create", "artifact "+slug+" already exists")
	}

	a := &Artifact{
		Slug: slug, Title: title, Tags: tags, Confidence: confidence,
		Version: 1, Authors: []string{authorDid}, LastModified: now, ModifiedBy: authorDid,
		Provenance: []ProvenanceEntry{{Agent: authorDid, Action: "created", Timestamp: now}},
		Body:       body,
	}
	if err := e.save(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Load reads the artifact at slug, or NotFound.
func (e *Engine) Load(slug string) (*Artifact, error) {
	data, err := storage.ReadFile(e.path(slug))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, awperr.New(awperr.NotFound, "Load", "artifact "+slug+" not found")
	}
	fm, body, err := storage.ParseFrontmatter(data)
	if err != nil {
		return nil, err
	}
	raw, err := yaml.Marshal(fm)
	if err != nil {
		return nil, awperr.Wrap(awperr.CorruptState, "Load", "re-marshal frontmatter", err)
	}
	var d doc
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, awperr.Wrap(awperr.CorruptState, "Load", "decode artifact", err)
	}
	return &Artifact{
		Slug: slug, Title: d.Title, Tags: d.Tags, Confidence: d.Confidence, Version: d.Version,
		Authors: d.Authors, LastModified: d.LastModified, ModifiedBy: d.ModifiedBy,
		Provenance: d.Provenance, Body: body,
	}, nil
}

func (e *Engine) save(a *Artifact) error {
	d := toDoc(a)
	fmMap, err := toFrontmatterMap(d)
	if err != nil {
		return err
	}
	if err := e.registry.Validate("artifact", fmMap); err != nil {
		return err
	}
	text, err := storage.SerializeFrontmatter(d, a.Body)
	if err != nil {
		return err
	}
	path := e.path(a.Slug)
	return storage.WithFileLock(path, 10*time.Second, func() error {
		return storage.AtomicWrite(path, []byte(text), 0o644)
	})
}

func toFrontmatterMap(d doc) (map[string]interface{}, error) {
	raw, err := yaml.Marshal(d)
	if err != nil {
		return nil, awperr.Wrap(awperr.IoError, "toFrontmatterMap", "marshal", err)
	}
	var m map[string]interface{}
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, awperr.Wrap(awperr.IoError, "toFrontmatterMap", "unmarshal", err)
	}
	return m, nil
}

// Commit increments version, records lastModified/modifiedBy, and appends
// an "updated" provenance entry. Version
// is the sole ordering primitive — callers must never read it concurrently
// with a commit in flight; WithFileLock below guards the write only.
func (e *Engine) Commit(slug, message string, confidence *float64, authorDid, newBody string, now time.Time) (*Artifact, error) {
	a, err := e.Load(slug)
	if err != nil {
		return nil, err
	}
	a.Version++
	a.LastModified = now
	a.ModifiedBy = authorDid
	a.Authors = addAuthor(a.Authors, authorDid)
	if confidence != nil {
		a.Confidence = *confidence
	}
	if newBody != "" {
		a.Body = newBody
	}
	a.Provenance = append(a.Provenance, ProvenanceEntry{Agent: authorDid, Action: "updated", Timestamp: now, Message: message})
	if err := e.save(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Merge additively folds source's body into target, separated by a rule
// line, unions authors, bumps target's version, and appends a "merged"
// provenance entry. Source is left untouched.
func (e *Engine) Merge(targetSlug, sourceSlug, message, authorDid string, now time.Time) (*Artifact, error) {
	target, err := e.Load(targetSlug)
	if err != nil {
		return nil, err
	}
	source, err := e.Load(sourceSlug)
	if err != nil {
		return nil, err
	}

	target.Body = target.Body + "\n\n---\n" + source.Body
	target.Authors = unionAuthors(target.Authors, source.Authors)
	target.Version++
	target.LastModified = now
	target.ModifiedBy = authorDid
	target.Provenance = append(target.Provenance, ProvenanceEntry{
		Agent: authorDid, Action: "merged", Timestamp: now,
		Message: message, SyncSource: ids.Artifact(sourceSlug),
	})

	if err := e.save(target); err != nil {
		return nil, err
	}
	return target, nil
}

// ApplySyncMerge additively folds a remote artifact body into the local
// one during sync: appends a separator
// naming the remote and its version, unions authors, bumps version, and
// appends a "synced" provenance entry. Callers are responsible for
// holding the sync-level file lock around the whole pull operation;
// Save still takes its own lock on the write itself.
func (e *Engine) ApplySyncMerge(slug, remoteName string, remoteVersion int, remoteBody string, remoteAuthors []string, now time.Time) (*Artifact, error) {
	a, err := e.Load(slug)
	if err != nil {
		return nil, err
	}
	a.Body = a.Body + fmt.Sprintf("\n\n---\n_Synced from %s (version %d)_\n\n", remoteName, remoteVersion) + remoteBody
	a.Authors = unionAuthors(a.Authors, remoteAuthors)
	a.Version++
	a.LastModified = now
	a.ModifiedBy = remoteName
	a.Provenance = append(a.Provenance, ProvenanceEntry{
		Agent: remoteName, Action: "synced", Timestamp: now, SyncSource: remoteName,
		Message: fmt.Sprintf("Merged from %s (remote version %d)", remoteName, remoteVersion),
	})
	if err := e.save(a); err != nil {
		return nil, err
	}
	return a, nil
}

// List returns every artifact in the workspace, sorted by slug.
func (e *Engine) List() ([]*Artifact, error) {
	entries, err := os.ReadDir(e.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, awperr.Wrap(awperr.IoError, "List", "read directory", err)
	}
	var out []*Artifact
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		slug := entry.Name()[:len(entry.Name())-len(".md")]
		a, err := e.Load(slug)
		if err != nil {
			if awperr.Of(err) == awperr.NotFound {
				continue
			}
			return nil, err
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}
