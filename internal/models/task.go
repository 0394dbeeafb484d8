package models

import (
	"slices"
	"time"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

type Subtask struct {
	Title       string `json:"title"`
	IsCompleted bool   `json:"isCompleted"`
}

type Task struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Notes          string     `json:"notes,omitempty"`
	List           string     `json:"list"`
	CreatedBy      string     `json:"createdBy"`
	IsCompleted    bool       `json:"isCompleted"`
	DueDate        *time.Time `json:"dueDate,omitempty"`
	Priority       Priority   `json:"priority"`
	Subtasks       []Subtask  `json:"subtasks"`
	CreationDate   time.Time  `json:"creationDate"`
	CompletionDate *time.Time `json:"completionDate,omitempty"`
}

func (t *Task) Clone() *Task {
	c := *t
	c.Subtasks = slices.Clone(t.Subtasks)
	if t.DueDate != nil {
		due := *t.DueDate
		c.DueDate = &due
	}
	if t.CompletionDate != nil {
		done := *t.CompletionDate
		c.CompletionDate = &done
	}
	return &c
}
