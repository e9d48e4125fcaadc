package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"yoosprint/logging"
	"yoosprint/models"
)

// TaskService manages the legacy task collection.
type TaskService struct {
	tasks TaskStore
	now   func() time.Time
}

func NewTaskService(tasks TaskStore) *TaskService {
	return &TaskService{tasks: tasks, now: time.Now}
}

func (s *TaskService) WithClock(now func() time.Time) *TaskService {
	s.now = now
	return s
}

type TaskPatch struct {
	Title       *string             `json:"title"`
	Description *string             `json:"description"`
	Project     *string             `json:"project"`
	Assignee    *primitive.ObjectID `json:"assignee"`
	Status      *models.TaskStatus  `json:"status"`
	Priority    *models.Priority    `json:"priority"`
	DueDate     *time.Time          `json:"dueDate"`
}

func (s *TaskService) save(ctx context.Context, t *models.Task) error {
	t.ApplyDefaults()
	t.BeforeSave(s.now())
	if err := t.Validate(); err != nil {
		return err
	}
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
		return s.tasks.Insert(ctx, t)
	}
	return s.tasks.Replace(ctx, t)
}

func (s *TaskService) Create(ctx context.Context, t *models.Task) (*models.Task, error) {
	t.ID = primitive.NilObjectID
	t.CreatedAt, t.UpdatedAt = time.Time{}, time.Time{}
	if err := s.save(ctx, t); err != nil {
		return nil, err
	}
	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %q created", t.Title)
	return t, nil
}

func (s *TaskService) Get(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	t, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, wrapLookup(err, "task")
	}
	return t, nil
}

func (s *TaskService) List(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	tasks, err := s.tasks.Find(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) Update(ctx context.Context, id primitive.ObjectID, patch TaskPatch) (*models.Task, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		t.Title = *patch.Title
	}
	if patch.Description != nil {
		t.Description = *patch.Description
	}
	if patch.Project != nil {
		t.Project = *patch.Project
	}
	if patch.Assignee != nil {
		t.Assignee = *patch.Assignee
	}
	if patch.Status != nil {
		t.Status = *patch.Status
	}
	if patch.Priority != nil {
		t.Priority = *patch.Priority
	}
	if patch.DueDate != nil {
		t.DueDate = patch.DueDate
	}
	if err := s.save(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.tasks.Delete(ctx, id); err != nil {
		return wrapLookup(err, "task")
	}
	return nil
}
