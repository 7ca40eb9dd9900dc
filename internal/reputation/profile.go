package reputation

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/awp-dev/awpengine/internal/awperr"
	"github.com/awp-dev/awpengine/internal/ids"
	"github.com/awp-dev/awpengine/internal/storage"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Engine is the file-backed reputation store rooted at <workspace>/reputation.
type Engine struct {
	root     string
	registry *storage.Registry
}

// NewEngine creates a reputation Engine rooted at workspaceRoot.
func NewEngine(workspaceRoot string, registry *storage.Registry) *Engine {
	if registry == nil {
		registry = storage.DefaultRegistry()
	}
	return &Engine{root: filepath.Join(workspaceRoot, "reputation"), registry: registry}
}

func (e *Engine) path(slug string) string {
	return filepath.Join(e.root, slug+".md")
}

// frontmatterDoc mirrors Profile with declared field order, so YAML
// serialization has a stable key order.
type frontmatterDoc struct {
	AgentDid         string                `yaml:"agentDid"`
	AgentName        string                `yaml:"agentName"`
	Dimensions       map[string]Dimension  `yaml:"dimensions"`
	DomainCompetence map[string]Dimension  `yaml:"domainCompetence"`
	Signals          []Signal              `yaml:"signals"`
}

func toDoc(p *Profile) frontmatterDoc {
	return frontmatterDoc{
		AgentDid:         p.AgentDid,
		AgentName:        p.AgentName,
		Dimensions:       p.Dimensions,
		DomainCompetence: p.DomainCompetence,
		Signals:          p.Signals,
	}
}

// Load reads the profile at slug. Returns NotFound if it does not exist.
func (e *Engine) Load(slug string) (*Profile, error) {
	data, err := storage.ReadFile(e.path(slug))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, awperr.New(awperr.NotFound, "Engine.Load", "profile "+slug+" not found")
	}

	fm, _, err := storage.ParseFrontmatter(data)
	if err != nil {
		return nil, err
	}

	// Round-trip the generic frontmatter map through YAML into our typed
	// struct, since map[string]interface{} values from the YAML decoder
	// are not directly assignable to Dimension/Signal fields.
	raw, err := yaml.Marshal(fm)
	if err != nil {
		return nil, awperr.Wrap(awperr.CorruptState, "Engine.Load", "re-marshal frontmatter", err)
	}
	var doc frontmatterDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, awperr.Wrap(awperr.CorruptState, "Engine.Load", "decode profile", err)
	}
	if doc.Dimensions == nil {
		doc.Dimensions = map[string]Dimension{}
	}
	if doc.DomainCompetence == nil {
		doc.DomainCompetence = map[string]Dimension{}
	}

	return &Profile{
		Slug:             slug,
		AgentDid:         doc.AgentDid,
		AgentName:        doc.AgentName,
		Dimensions:       doc.Dimensions,
		DomainCompetence: doc.DomainCompetence,
		Signals:          doc.Signals,
	}, nil
}

// Save validates and atomically writes p under a file lock.
func (e *Engine) Save(p *Profile) error {
	sort.SliceStable(p.Signals, func(i, j int) bool {
		return p.Signals[i].Timestamp.Before(p.Signals[j].Timestamp)
	})

	doc := toDoc(p)
	fmMap, err := toFrontmatterMap(doc)
	if err != nil {
		return err
	}
	if err := e.registry.Validate("reputation", fmMap); err != nil {
		return err
	}

	text, err := storage.SerializeFrontmatter(doc, profileBody(p))
	if err != nil {
		return err
	}

	path := e.path(p.Slug)
	return storage.WithFileLock(path, 10*time.Second, func() error {
		return storage.AtomicWrite(path, []byte(text), 0o644)
	})
}

func profileBody(p *Profile) string {
	return "# Reputation profile: " + p.AgentName + "\n"
}

func toFrontmatterMap(doc frontmatterDoc) (map[string]interface{}, error) {
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return nil, awperr.Wrap(awperr.IoError, "toFrontmatterMap", "marshal", err)
	}
	var m map[string]interface{}
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, awperr.Wrap(awperr.IoError, "toFrontmatterMap", "unmarshal", err)
	}
	return m, nil
}

// ListProfiles loads every profile under the reputation directory.
func (e *Engine) ListProfiles() ([]*Profile, error) {
	entries, err := os.ReadDir(e.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, awperr.Wrap(awperr.IoError, "ListProfiles", "read directory", err)
	}

	var profiles []*Profile
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		slug := entry.Name()[:len(entry.Name())-len(".md")]
		p, err := e.Load(slug)
		if err != nil {
			if awperr.Of(err) == awperr.NotFound {
				continue // transiently removed between readdir and load
			}
			return nil, err
		}
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Slug < profiles[j].Slug })
	return profiles, nil
}

// FindByDID returns the profile whose AgentDid matches did, or NotFound.
func (e *Engine) FindByDID(did string) (*Profile, error) {
	profiles, err := e.ListProfiles()
	if err != nil {
		return nil, err
	}
	for _, p := range profiles {
		if p.AgentDid == did {
			return p, nil
		}
	}
	return nil, awperr.New(awperr.NotFound, "FindByDID", "no profile for "+did)
}

// GetOrCreate returns the profile for did, creating one (slug derived from
// did) if none exists.
func (e *Engine) GetOrCreate(did, name string) (*Profile, error) {
	p, err := e.FindByDID(did)
	if err == nil {
		return p, nil
	}
	if awperr.Of(err) != awperr.NotFound {
		return nil, err
	}
	slug := ids.SlugFromDID(did)
	p = NewProfile(slug, did, name)
	if err := e.Save(p); err != nil {
		return nil, err
	}
	return p, nil
}

// AppendSignal appends sig to the profile for did (creating it if absent,
// using name for a new profile), updates the relevant dimension via EWMA,
// and persists the result. Domain-competence signals (sig.Domain set) are
// folded into DomainCompetence, never into top-level Dimensions. Duplicate
// signals (by (source, dimension, timestamp)) are silently skipped and the
// profile is returned unchanged.
func (e *Engine) AppendSignal(did, name string, sig Signal) (*Profile, error) {
	p, err := e.GetOrCreate(did, name)
	if err != nil {
		return nil, err
	}

	if hasSignal(p.Signals, sig) {
		return p, nil
	}

	if sig.ID == "" {
		sig.ID = uuid.New().String()
	}
	p.Signals = append(p.Signals, sig)

	if sig.Domain != "" {
		d := p.DomainCompetence[sig.Domain]
		p.DomainCompetence[sig.Domain] = UpdateDimension(&d, sig.Score, sig.Timestamp)
	} else {
		d := p.Dimensions[sig.Dimension]
		p.Dimensions[sig.Dimension] = UpdateDimension(&d, sig.Score, sig.Timestamp)
	}

	if err := e.Save(p); err != nil {
		return nil, err
	}
	return p, nil
}

func hasSignal(signals []Signal, sig Signal) bool {
	key := sig.key()
	for _, s := range signals {
		if s.key() == key {
			return true
		}
	}
	return false
}
