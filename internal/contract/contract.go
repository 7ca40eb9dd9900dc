package contract

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/awp-dev/awpengine/internal/awperr"
	"github.com/awp-dev/awpengine/internal/ids"
	"github.com/awp-dev/awpengine/internal/reputation"
	"github.com/awp-dev/awpengine/internal/storage"
	"gopkg.in/yaml.v3"
)

// Engine is the file-backed contract store rooted at <workspace>/contracts.
type Engine struct {
	root       string
	registry   *storage.Registry
	reputation *reputation.Engine
}

// NewEngine creates a contract Engine. reputationEngine may be nil if the
// caller never intends to evaluate contracts (e.g. read-only tooling).
func NewEngine(workspaceRoot string, registry *storage.Registry, reputationEngine *reputation.Engine) *Engine {
	if registry == nil {
		registry = storage.DefaultRegistry()
	}
	return &Engine{root: filepath.Join(workspaceRoot, "contracts"), registry: registry, reputation: reputationEngine}
}

func (e *Engine) path(slug string) string { return filepath.Join(e.root, slug+".md") }

type doc struct {
	Status       Status             `yaml:"status"`
	Delegator    string             `yaml:"delegator"`
	Delegate     string             `yaml:"delegate"`
	DelegateSlug string             `yaml:"delegateSlug"`
	Task         string             `yaml:"task"`
	Evaluation   Evaluation         `yaml:"evaluation"`
	CreatedAt    time.Time          `yaml:"createdAt"`
}

func toDoc(c *Contract) doc {
	return doc{c.Status, c.Delegator, c.Delegate, c.DelegateSlug, c.Task, c.Evaluation, c.CreatedAt}
}

// Create writes a new draft contract. weights must sum to 1.0 ± 0.01.
func (e *Engine) Create(slug, delegator, delegate, delegateSlug, task string, weights map[string]float64, now time.Time) (*Contract, error) {
	if !ids.ValidSlug(slug) {
		return nil, awperr.New(awperr.SchemaViolation, "Create", "invalid slug: "+slug)
	}
	if existing, _ := storage.ReadFile(e.path(slug)); existing != nil {
		return nil, awperr.New(awperr.AlreadyExists, "Create", "contract "+slug+" already exists")
	}
	if err := validateWeights(weights); err != nil {
		return nil, err
	}

	c := &Contract{
		Slug:         slug,
		Status:       StatusDraft,
		Delegator:    delegator,
		Delegate:     delegate,
		DelegateSlug: delegateSlug,
		Task:         task,
		Evaluation:   Evaluation{Criteria: weights},
		CreatedAt:    now,
	}
	if err := e.save(c); err != nil {
		return nil, err
	}
	return c, nil
}

func validateWeights(weights map[string]float64) error {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if math.Abs(sum-1.0) > 0.01 {
		return awperr.New(awperr.SchemaViolation, "validateWeights", fmt.Sprintf("criteria weights sum to %.4f, want 1.0 ± 0.01", sum))
	}
	return nil
}

// Load reads the contract at slug.
func (e *Engine) Load(slug string) (*Contract, error) {
	data, err := storage.ReadFile(e.path(slug))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, awperr.New(awperr.NotFound, "Load", "contract "+slug+" not found")
	}
	fm, _, err := storage.ParseFrontmatter(data)
	if err != nil {
		return nil, err
	}
	raw, err := yaml.Marshal(fm)
	if err != nil {
		return nil, awperr.Wrap(awperr.CorruptState, "Load", "re-marshal frontmatter", err)
	}
	var d doc
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, awperr.Wrap(awperr.CorruptState, "Load", "decode contract", err)
	}
	return &Contract{
		Slug: slug, Status: d.Status, Delegator: d.Delegator, Delegate: d.Delegate,
		DelegateSlug: d.DelegateSlug, Task: d.Task, Evaluation: d.Evaluation, CreatedAt: d.CreatedAt,
	}, nil
}

func (e *Engine) save(c *Contract) error {
	d := toDoc(c)
	fmMap, err := toFrontmatterMap(d)
	if err != nil {
		return err
	}
	if err := e.registry.Validate("contract", fmMap); err != nil {
		return err
	}
	body := fmt.Sprintf("# Delegation contract: %s\n\n%s\n", c.Slug, c.Task)
	text, err := storage.SerializeFrontmatter(d, body)
	if err != nil {
		return err
	}
	path := e.path(c.Slug)
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

// Activate transitions a draft contract to active.
func (e *Engine) Activate(slug string) (*Contract, error) {
	return e.transition(slug, StatusActive)
}

// Complete transitions an active contract to completed.
func (e *Engine) Complete(slug string) (*Contract, error) {
	return e.transition(slug, StatusCompleted)
}

func (e *Engine) transition(slug string, to Status) (*Contract, error) {
	c, err := e.Load(slug)
	if err != nil {
		return nil, err
	}
	if !CanTransition(c.Status, to) {
		return nil, awperr.New(awperr.InvalidTransition, "transition", fmt.Sprintf("cannot move contract %s from %s to %s", slug, c.Status, to))
	}
	c.Status = to
	if err := e.save(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Evaluate scores an active or completed contract against scores (one
// entry per evaluation criterion), transitions it to evaluated, and — if
// a reputation engine is wired — appends a reliability signal from
// evaluatorDid to the delegate's profile, creating that profile (named by
// the contract's DelegateSlug) when none exists yet.
func (e *Engine) Evaluate(slug, evaluatorDid string, scores map[string]float64, now time.Time) (*Contract, error) {
	c, err := e.Load(slug)
	if err != nil {
		return nil, err
	}
	if c.Status != StatusActive && c.Status != StatusCompleted {
		return nil, awperr.New(awperr.InvalidTransition, "Evaluate", fmt.Sprintf("contract %s is %s, must be active or completed", slug, c.Status))
	}

	for criterion := range c.Evaluation.Criteria {
		if _, ok := scores[criterion]; !ok {
			return nil, awperr.New(awperr.MissingCriterion, "Evaluate", "missing score for criterion "+criterion)
		}
	}

	weighted := 0.0
	keys := make([]string, 0, len(c.Evaluation.Criteria))
	for k := range c.Evaluation.Criteria {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		weighted += c.Evaluation.Criteria[k] * scores[k]
	}
	weighted = math.Round(weighted*1000) / 1000

	c.Evaluation.Result = scores
	c.Status = StatusEvaluated
	if err := e.save(c); err != nil {
		return nil, err
	}

	if e.reputation != nil {
		sig := reputation.Signal{
			Source:    evaluatorDid,
			Dimension: "reliability",
			Score:     weighted,
			Timestamp: now,
			Evidence:  ids.Contract(slug),
			Message:   fmt.Sprintf("Contract evaluation: %s", c.Task),
		}
		if _, err := e.reputation.AppendSignal(c.Delegate, c.DelegateSlug, sig); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// List returns every contract in the workspace, sorted by slug.
func (e *Engine) List() ([]*Contract, error) {
	entries, err := os.ReadDir(e.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, awperr.Wrap(awperr.IoError, "List", "read directory", err)
	}
	var out []*Contract
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		slug := entry.Name()[:len(entry.Name())-len(".md")]
		c, err := e.Load(slug)
		if err != nil {
			if awperr.Of(err) == awperr.NotFound {
				continue
			}
			return nil, err
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}
