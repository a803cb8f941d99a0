package models

import "time"

// CompletionStatus moves forward only: not_started -> in_progress -> completed.
type CompletionStatus string

const (
	StatusNotStarted CompletionStatus = "not_started"
	StatusInProgress CompletionStatus = "in_progress"
	StatusCompleted  CompletionStatus = "completed"
)

// ProjectCompletion is the single progress record for a (child, project) pair.
type ProjectCompletion struct {
	ID             int64            `json:"id"`
	ChildID        int64            `json:"child_id"`
	ProjectID      int64            `json:"project_id"`
	Status         CompletionStatus `json:"status"`
	Rating         *int             `json:"rating"`
	ReflectionText string           `json:"reflection_text"`
	HasReflection  bool             `json:"has_reflection"`
	StartedAt      *time.Time       `json:"started_at"`
	CompletedAt    *time.Time       `json:"completed_at"`
	ReflectionAt   *time.Time       `json:"reflection_at"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// IsCompleted treats either the status or a completion timestamp as done.
func (c *ProjectCompletion) IsCompleted() bool {
	if c == nil {
		return false
	}
	return c.Status == StatusCompleted || c.CompletedAt != nil
}

func (c *ProjectCompletion) IsInProgress() bool {
	return c != nil && c.Status == StatusInProgress && c.CompletedAt == nil
}

// CompletionHistory is the aggregate a child's stage is derived from.
type CompletionHistory struct {
	CompletedProjects     int `json:"completed_projects"`     // distinct completed projects
	MeaningfulReflections int `json:"meaningful_reflections"` // completions flagged has_reflection
	ReflectiveCompletions int `json:"reflective_completions"` // completions with any reflection text
}
