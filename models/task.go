package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	TaskTodo           TaskStatus = "todo"
	TaskStatusProgress TaskStatus = "in-progress"
	TaskStatusDone     TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskStatusProgress, TaskStatusDone:
		return true
	}
	return false
}

// Task is the legacy work-item shape. Project is free text, not a reference.
type Task struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Project     string             `bson:"project" json:"project"`
	Assignee    primitive.ObjectID `bson:"assignee" json:"assignee"`
	Status      TaskStatus         `bson:"status" json:"status"`
	Priority    Priority           `bson:"priority" json:"priority"`
	DueDate     *time.Time         `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	Department  string             `bson:"department,omitempty" json:"department,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (t *Task) ApplyDefaults() {
	if t.Status == "" {
		t.Status = TaskTodo
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
}

// BeforeSave bumps updatedAt on every save.
func (t *Task) BeforeSave(now time.Time) {
	t.Title = strings.TrimSpace(t.Title)
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
}

func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fieldError("title", "is required")
	}
	if t.Assignee.IsZero() {
		return fieldError("assignee", "is required")
	}
	if !t.Status.Valid() {
		return fieldError("status", "must be one of todo, in-progress, completed")
	}
	if !t.Priority.Valid() {
		return fieldError("priority", "must be one of low, medium, high")
	}
	return nil
}
