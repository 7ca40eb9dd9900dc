package project

import (
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/awp-dev/awpengine/internal/awperr"
	"github.com/awp-dev/awpengine/internal/ids"
	"github.com/awp-dev/awpengine/internal/storage"
	"gopkg.in/yaml.v3"
)

// Engine is the file-backed project store rooted at <workspace>/projects.
type Engine struct {
	root     string
	registry *storage.Registry
}

// NewEngine creates a project Engine rooted at workspaceRoot.
func NewEngine(workspaceRoot string, registry *storage.Registry) *Engine {
	if registry == nil {
		registry = storage.DefaultRegistry()
	}
	return &Engine{root: filepath.Join(workspaceRoot, "projects"), registry: registry}
}

func (e *Engine) path(slug string) string     { return filepath.Join(e.root, slug+".md") }
func (e *Engine) tasksDir(slug string) string { return filepath.Join(e.root, slug, "tasks") }

type projectDoc struct {
	Title          string   `yaml:"title"`
	Status         Status   `yaml:"status"`
	Members        []Member `yaml:"members"`
	TaskCount      int      `yaml:"taskCount"`
	CompletedCount int      `yaml:"completedCount"`
}

func toProjectDoc(p *Project) projectDoc {
	return projectDoc{p.Title, p.Status, p.Members, p.TaskCount, p.CompletedCount}
}

// Create writes a new draft project.
func (e *Engine) Create(slug, title string, members []Member) (*Project, error) {
	if !ids.ValidSlug(slug) {
		return nil, awperr.New(awperr.SchemaViolation, "Create", "invalid slug: "+slug)
	}
	existing, err := storage.ReadFile(e.path(slug))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, awperr.New(awperr.AlreadyExists, "Create", "project "+slug+" already exists")
	}
	p := &Project{Slug: slug, Title: title, Status: StatusDraft, Members: members}
	if err := e.save(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Load reads the project at slug, or NotFound.
func (e *Engine) Load(slug string) (*Project, error) {
	data, err := storage.ReadFile(e.path(slug))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, awperr.New(awperr.NotFound, "Load", "project "+slug+" not found")
	}
	fm, _, err := storage.ParseFrontmatter(data)
	if err != nil {
		return nil, err
	}
	raw, err := yaml.Marshal(fm)
	if err != nil {
		return nil, awperr.Wrap(awperr.CorruptState, "Load", "re-marshal frontmatter", err)
	}
	var d projectDoc
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, awperr.Wrap(awperr.CorruptState, "Load", "decode project", err)
	}
	return &Project{
		Slug: slug, Title: d.Title, Status: d.Status, Members: d.Members,
		TaskCount: d.TaskCount, CompletedCount: d.CompletedCount,
	}, nil
}

func (e *Engine) save(p *Project) error {
	d := toProjectDoc(p)
	fmMap, err := toFrontmatterMap(d)
	if err != nil {
		return err
	}
	if err := e.registry.Validate("project", fmMap); err != nil {
		return err
	}
	body := "# " + p.Title + "\n"
	text, err := storage.SerializeFrontmatter(d, body)
	if err != nil {
		return err
	}
	path := e.path(p.Slug)
	return storage.WithFileLock(path, 10*time.Second, func() error {
		return storage.AtomicWrite(path, []byte(text), 0o644)
	})
}

func toFrontmatterMap(d projectDoc) (map[string]interface{}, error) {
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

// List returns every project, sorted by slug.
func (e *Engine) List() ([]*Project, error) {
	entries, err := os.ReadDir(e.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, awperr.Wrap(awperr.IoError, "List", "read directory", err)
	}
	var out []*Project
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		slug := entry.Name()[:len(entry.Name())-len(".md")]
		p, err := e.Load(slug)
		if err != nil {
			if awperr.Of(err) == awperr.NotFound {
				continue
			}
			return nil, err
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

// RefreshCounts rescans the project's tasks directory and recomputes
// taskCount/completedCount in a single write. It is the recompute-wins reconciliation: counts are never
// incremented/decremented in place, always derived fresh from disk.
func (e *Engine) RefreshCounts(slug string, taskEngine *TaskEngine) (*Project, error) {
	p, err := e.Load(slug)
	if err != nil {
		return nil, err
	}
	tasks, err := taskEngine.List(slug)
	if err != nil {
		return nil, err
	}
	completed := 0
	for _, t := range tasks {
		if t.Status == TaskCompleted {
			completed++
		}
	}
	p.TaskCount = len(tasks)
	p.CompletedCount = completed
	if err := e.save(p); err != nil {
		return nil, err
	}
	return p, nil
}
