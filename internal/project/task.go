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

// TaskEngine is the file-backed task store rooted at a project's tasks
// directory. Every mutating call refreshes the owning project's counts.
type TaskEngine struct {
	projectsRoot string
	registry     *storage.Registry
	projects     *Engine
}

// NewTaskEngine creates a TaskEngine sharing the project Engine's root.
func NewTaskEngine(workspaceRoot string, registry *storage.Registry, projects *Engine) *TaskEngine {
	if registry == nil {
		registry = storage.DefaultRegistry()
	}
	return &TaskEngine{projectsRoot: filepath.Join(workspaceRoot, "projects"), registry: registry, projects: projects}
}

func (e *TaskEngine) dir(projectSlug string) string {
	return filepath.Join(e.projectsRoot, projectSlug, "tasks")
}

func (e *TaskEngine) path(projectSlug, taskSlug string) string {
	return filepath.Join(e.dir(projectSlug), taskSlug+".md")
}

type taskDoc struct {
	ProjectId string     `yaml:"projectId"`
	Title     string     `yaml:"title"`
	Status    TaskStatus `yaml:"status"`
	Priority  Priority   `yaml:"priority"`
	BlockedBy []string   `yaml:"blockedBy"`
	Blocks    []string   `yaml:"blocks"`
	CreatedAt time.Time  `yaml:"createdAt"`
}

func toTaskDoc(t *Task) taskDoc {
	return taskDoc{t.ProjectId, t.Title, t.Status, t.Priority, t.BlockedBy, t.Blocks, t.CreatedAt}
}

// Create writes a new pending task under projectSlug and refreshes counts.
func (e *TaskEngine) Create(projectSlug, taskSlug, title string, priority Priority, blockedBy []string, now time.Time) (*Task, error) {
	if !ids.ValidSlug(taskSlug) {
		return nil, awperr.New(awperr.SchemaViolation, "Create", "invalid slug: "+taskSlug)
	}
	if _, err := e.projects.Load(projectSlug); err != nil {
		return nil, err
	}
	existing, err := storage.ReadFile(e.path(projectSlug, taskSlug))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, awperr.New(awperr.AlreadyExists, "Create", "task "+taskSlug+" already exists")
	}

	t := &Task{
		Slug: taskSlug, ProjectSlug: projectSlug, ProjectId: ids.Project(projectSlug),
		Title: title, Status: TaskPending, Priority: priority, BlockedBy: blockedBy, CreatedAt: now,
	}
	if err := e.save(t); err != nil {
		return nil, err
	}
	if _, err := e.projects.RefreshCounts(projectSlug, e); err != nil {
		return nil, err
	}
	return t, nil
}

// Load reads the task at projectSlug/taskSlug, or NotFound.
func (e *TaskEngine) Load(projectSlug, taskSlug string) (*Task, error) {
	data, err := storage.ReadFile(e.path(projectSlug, taskSlug))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, awperr.New(awperr.NotFound, "Load", "task "+taskSlug+" not found")
	}
	fm, _, err := storage.ParseFrontmatter(data)
	if err != nil {
		return nil, err
	}
	raw, err := yaml.Marshal(fm)
	if err != nil {
		return nil, awperr.Wrap(awperr.CorruptState, "Load", "re-marshal frontmatter", err)
	}
	var d taskDoc
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, awperr.Wrap(awperr.CorruptState, "Load", "decode task", err)
	}
	return &Task{
		Slug: taskSlug, ProjectSlug: projectSlug, ProjectId: d.ProjectId, Title: d.Title,
		Status: d.Status, Priority: d.Priority, BlockedBy: d.BlockedBy, Blocks: d.Blocks, CreatedAt: d.CreatedAt,
	}, nil
}

func (e *TaskEngine) save(t *Task) error {
	d := toTaskDoc(t)
	fmMap, err := toTaskFrontmatterMap(d)
	if err != nil {
		return err
	}
	if err := e.registry.Validate("task", fmMap); err != nil {
		return err
	}
	body := "# " + t.Title + "\n"
	text, err := storage.SerializeFrontmatter(d, body)
	if err != nil {
		return err
	}
	path := e.path(t.ProjectSlug, t.Slug)
	return storage.WithFileLock(path, 10*time.Second, func() error {
		return storage.AtomicWrite(path, []byte(text), 0o644)
	})
}

func toTaskFrontmatterMap(d taskDoc) (map[string]interface{}, error) {
	raw, err := yaml.Marshal(d)
	if err != nil {
		return nil, awperr.Wrap(awperr.IoError, "toTaskFrontmatterMap", "marshal", err)
	}
	var m map[string]interface{}
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, awperr.Wrap(awperr.IoError, "toTaskFrontmatterMap", "unmarshal", err)
	}
	return m, nil
}

// Update applies a status/priority/dependency change and refreshes the
// owning project's counts.
func (e *TaskEngine) Update(projectSlug, taskSlug string, status TaskStatus, priority Priority, blockedBy, blocks []string) (*Task, error) {
	t, err := e.Load(projectSlug, taskSlug)
	if err != nil {
		return nil, err
	}
	t.Status = status
	t.Priority = priority
	t.BlockedBy = blockedBy
	t.Blocks = blocks
	if err := e.save(t); err != nil {
		return nil, err
	}
	if _, err := e.projects.RefreshCounts(projectSlug, e); err != nil {
		return nil, err
	}
	return t, nil
}

// Delete removes a task file and refreshes the owning project's counts.
func (e *TaskEngine) Delete(projectSlug, taskSlug string) error {
	path := e.path(projectSlug, taskSlug)
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return awperr.New(awperr.NotFound, "Delete", "task "+taskSlug+" not found")
		}
		return awperr.Wrap(awperr.IoError, "Delete", "remove task file", err)
	}
	_, err := e.projects.RefreshCounts(projectSlug, e)
	return err
}

// List returns every task under projectSlug, sorted by slug.
func (e *TaskEngine) List(projectSlug string) ([]*Task, error) {
	entries, err := os.ReadDir(e.dir(projectSlug))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, awperr.Wrap(awperr.IoError, "List", "read directory", err)
	}
	var out []*Task
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".md" {
			continue
		}
		slug := entry.Name()[:len(entry.Name())-len(".md")]
		t, err := e.Load(projectSlug, slug)
		if err != nil {
			if awperr.Of(err) == awperr.NotFound {
				continue
			}
			return nil, err
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}
