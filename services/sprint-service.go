package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"yoosprint/logging"
	"yoosprint/models"
)

type SprintService struct {
	sprints  SprintStore
	backlogs BacklogStore
	projects ProjectStore
	notifier Notifier
	now      func() time.Time
}

// NewSprintService initializes a SprintService over the given stores.
func NewSprintService(sprints SprintStore, backlogs BacklogStore, projects ProjectStore, notifier Notifier) *SprintService {
	return &SprintService{
		sprints:  sprints,
		backlogs: backlogs,
		projects: projects,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *SprintService) WithClock(now func() time.Time) *SprintService {
	s.now = now
	return s
}

type SprintPatch struct {
	Name       *string              `json:"name"`
	Goal       *string              `json:"goal"`
	StartDate  *time.Time           `json:"startDate"`
	EndDate    *time.Time           `json:"endDate"`
	Status     *models.SprintStatus `json:"status"`
	Managers   []primitive.ObjectID `json:"managers"`
	Department *string              `json:"department"`
}

func (s *SprintService) save(ctx context.Context, sprint *models.Sprint) error {
	insert := sprint.ID.IsZero()
	sprint.ApplyDefaults()
	sprint.BeforeSave(s.now())
	if err := sprint.Validate(); err != nil {
		return err
	}
	if insert {
		sprint.ID = primitive.NewObjectID()
		return s.sprints.Insert(ctx, sprint)
	}
	return s.sprints.Replace(ctx, sprint)
}

// Create stores a new sprint. The creator manages it unless managers are
// given explicitly.
func (s *SprintService) Create(ctx context.Context, actor Actor, sprint *models.Sprint) (*models.Sprint, error) {
	sprint.ID = primitive.NilObjectID
	sprint.BacklogItems = nil
	if sprint.Project != nil {
		if _, err := s.projects.FindByID(ctx, *sprint.Project); err != nil {
			return nil, wrapLookup(err, "project")
		}
	}
	if len(sprint.Managers) == 0 && !actor.ID.IsZero() {
		sprint.Managers = []primitive.ObjectID{actor.ID}
	}
	if err := s.save(ctx, sprint); err != nil {
		return nil, err
	}
	sprint.BacklogItems = []models.Backlog{}
	logging.Logger.Infof("Event ID: SPRINT_CREATED, Description: Sprint %q (%s) created", sprint.Name, sprint.ID.Hex())
	return sprint, nil
}

// Get returns the sprint with its backlog items populated.
func (s *SprintService) Get(ctx context.Context, id primitive.ObjectID) (*models.Sprint, error) {
	sprint, err := s.sprints.FindByID(ctx, id)
	if err != nil {
		return nil, wrapLookup(err, "sprint")
	}
	if err := s.populate(ctx, sprint); err != nil {
		return nil, err
	}
	return sprint, nil
}

func (s *SprintService) List(ctx context.Context, f models.SprintFilter, populate bool) ([]models.Sprint, error) {
	sprints, err := s.sprints.Find(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list sprints: %w", err)
	}
	if populate {
		for i := range sprints {
			if err := s.populate(ctx, &sprints[i]); err != nil {
				return nil, err
			}
		}
	}
	return sprints, nil
}

func (s *SprintService) Update(ctx context.Context, id primitive.ObjectID, patch SprintPatch) (*models.Sprint, error) {
	sprint, err := s.sprints.FindByID(ctx, id)
	if err != nil {
		return nil, wrapLookup(err, "sprint")
	}
	previous := sprint.Status

	if patch.Name != nil {
		sprint.Name = *patch.Name
	}
	if patch.Goal != nil {
		sprint.Goal = *patch.Goal
	}
	if patch.StartDate != nil {
		sprint.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		sprint.EndDate = *patch.EndDate
	}
	if patch.Managers != nil {
		sprint.Managers = patch.Managers
	}
	if patch.Department != nil {
		sprint.Department = *patch.Department
	}
	if patch.Status != nil {
		if previous == models.SprintCompleted && *patch.Status != models.SprintCompleted {
			return nil, conflict("a completed sprint cannot be reopened")
		}
		sprint.Status = *patch.Status
	}

	if err := s.save(ctx, sprint); err != nil {
		return nil, err
	}

	items, err := s.items(ctx, sprint.ID)
	if err != nil {
		return nil, err
	}
	switch {
	case sprint.Status == models.SprintActive && previous != models.SprintActive:
		s.notifyAssignees(ctx, sprint, items)
	case sprint.Status == models.SprintCompleted && previous != models.SprintCompleted:
		if items, err = s.closeOut(ctx, items); err != nil {
			return nil, err
		}
	}
	sprint.BacklogItems = items
	return sprint, nil
}

// Delete removes the sprint and returns its items to the backlog.
func (s *SprintService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.sprints.FindByID(ctx, id); err != nil {
		return wrapLookup(err, "sprint")
	}
	items, err := s.items(ctx, id)
	if err != nil {
		return err
	}
	for i := range items {
		if err := s.detach(ctx, &items[i]); err != nil {
			return err
		}
	}
	if err := s.sprints.Delete(ctx, id); err != nil {
		return wrapLookup(err, "sprint")
	}
	logging.Logger.Infof("Event ID: SPRINT_DELETED, Description: Sprint %s deleted, %d items returned to backlog", id.Hex(), len(items))
	return nil
}

// AddItems moves backlog items into the sprint.
func (s *SprintService) AddItems(ctx context.Context, id primitive.ObjectID, backlogIDs []primitive.ObjectID) (*models.Sprint, error) {
	sprint, err := s.sprints.FindByID(ctx, id)
	if err != nil {
		return nil, wrapLookup(err, "sprint")
	}
	if sprint.Status == models.SprintCompleted {
		return nil, conflict("sprint %q is already completed", sprint.Name)
	}
	if len(backlogIDs) == 0 {
		return nil, invalid("at least one backlog item is required")
	}

	for _, backlogID := range backlogIDs {
		b, err := s.backlogs.FindByID(ctx, backlogID)
		if err != nil {
			return nil, wrapLookup(err, "backlog item")
		}
		if sprint.Project != nil && b.Project != *sprint.Project {
			return nil, invalid("backlog item %s belongs to another project", backlogID.Hex())
		}
		sprintID := sprint.ID
		b.Sprint = &sprintID
		if b.Status != models.BacklogStatusDone {
			b.Status = models.BacklogStatusInSprint
		}
		if err := saveBacklog(ctx, s.backlogs, b, s.now()); err != nil {
			return nil, err
		}
	}

	if err := s.populate(ctx, sprint); err != nil {
		return nil, err
	}
	return sprint, nil
}

func (s *SprintService) RemoveItem(ctx context.Context, id, backlogID primitive.ObjectID) (*models.Sprint, error) {
	sprint, err := s.sprints.FindByID(ctx, id)
	if err != nil {
		return nil, wrapLookup(err, "sprint")
	}
	b, err := s.backlogs.FindByID(ctx, backlogID)
	if err != nil {
		return nil, wrapLookup(err, "backlog item")
	}
	if b.Sprint == nil || *b.Sprint != sprint.ID {
		return nil, notFound("backlog item in sprint")
	}
	if err := s.detach(ctx, b); err != nil {
		return nil, err
	}
	if err := s.populate(ctx, sprint); err != nil {
		return nil, err
	}
	return sprint, nil
}

func (s *SprintService) populate(ctx context.Context, sprint *models.Sprint) error {
	items, err := s.items(ctx, sprint.ID)
	if err != nil {
		return err
	}
	sprint.BacklogItems = items
	return nil
}

func (s *SprintService) items(ctx context.Context, sprintID primitive.ObjectID) ([]models.Backlog, error) {
	items, err := s.backlogs.Find(ctx, models.BacklogFilter{Sprint: &sprintID})
	if err != nil {
		return nil, fmt.Errorf("failed to load sprint items: %w", err)
	}
	if items == nil {
		items = []models.Backlog{}
	}
	return items, nil
}

func (s *SprintService) detach(ctx context.Context, b *models.Backlog) error {
	b.Sprint = nil
	if b.Status == models.BacklogStatusInSprint {
		b.Status = models.BacklogStatusBacklog
	}
	return saveBacklog(ctx, s.backlogs, b, s.now())
}

// closeOut marks completed items done and sends the rest back to the
// backlog. It returns the items that stay attached to the sprint.
func (s *SprintService) closeOut(ctx context.Context, items []models.Backlog) ([]models.Backlog, error) {
	kept := make([]models.Backlog, 0, len(items))
	for i := range items {
		b := &items[i]
		if b.TaskStatus == models.TaskCompleted {
			b.Status = models.BacklogStatusDone
			if err := saveBacklog(ctx, s.backlogs, b, s.now()); err != nil {
				return nil, err
			}
			kept = append(kept, *b)
			continue
		}
		if err := s.detach(ctx, b); err != nil {
			return nil, err
		}
	}
	return kept, nil
}

func (s *SprintService) notifyAssignees(ctx context.Context, sprint *models.Sprint, items []models.Backlog) {
	seen := make(map[primitive.ObjectID]bool)
	for _, b := range items {
		if b.Assignee == nil || seen[*b.Assignee] {
			continue
		}
		seen[*b.Assignee] = true
		s.notifier.Notify(ctx, *b.Assignee, fmt.Sprintf("Sprint %q has started", sprint.Name))
	}
}
