// Package project implements projects, their tasks, and the on-demand
// dependency graph derived from a project's task files.
package project

import "time"

// Status is the closed set of project lifecycle states.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

// Member is a project participant with an optional reputation gate.
type Member struct {
	Did           string   `yaml:"did" json:"did"`
	Role          string   `yaml:"role" json:"role"`
	Slug          string   `yaml:"slug" json:"slug"`
	MinReputation *float64 `yaml:"minReputation,omitempty" json:"minReputation,omitempty"`
}

// Project is the file-backed container for a set of tasks.
type Project struct {
	Slug           string   `yaml:"-" json:"-"`
	Title          string   `yaml:"title" json:"title"`
	Status         Status   `yaml:"status" json:"status"`
	Members        []Member `yaml:"members" json:"members"`
	TaskCount      int      `yaml:"taskCount" json:"taskCount"`
	CompletedCount int      `yaml:"completedCount" json:"completedCount"`
}

// TaskStatus is the closed set of task lifecycle states.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in-progress"
	TaskBlocked    TaskStatus = "blocked"
	TaskReview     TaskStatus = "review"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

// Priority is the closed set of task priorities.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// terminalTaskStatus is the set of statuses that never block a dependent
// task.
var terminalTaskStatus = map[TaskStatus]bool{
	TaskCompleted: true,
	TaskCancelled: true,
}

// Task is a unit of work owned by a project.
type Task struct {
	Slug        string     `yaml:"-" json:"-"`
	ProjectSlug string     `yaml:"-" json:"-"`
	ProjectId   string     `yaml:"projectId" json:"projectId"`
	Title       string     `yaml:"title" json:"title"`
	Status      TaskStatus `yaml:"status" json:"status"`
	Priority    Priority   `yaml:"priority" json:"priority"`
	BlockedBy   []string   `yaml:"blockedBy" json:"blockedBy"`
	Blocks      []string   `yaml:"blocks" json:"blocks"`
	CreatedAt   time.Time  `yaml:"createdAt" json:"createdAt"`
}
