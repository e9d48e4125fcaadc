package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"yoosprint/logging"
	"yoosprint/models"
)

type ProjectService struct {
	projects ProjectStore
	backlogs BacklogStore
	sprints  SprintStore
	users    UserStore
	graph    DependencyGraph
	now      func() time.Time
}

// NewProjectService initializes a ProjectService with the stores it
// cascades into.
func NewProjectService(projects ProjectStore, backlogs BacklogStore, sprints SprintStore, users UserStore, graph DependencyGraph) *ProjectService {
	return &ProjectService{
		projects: projects,
		backlogs: backlogs,
		sprints:  sprints,
		users:    users,
		graph:    graph,
		now:      time.Now,
	}
}

func (s *ProjectService) WithClock(now func() time.Time) *ProjectService {
	s.now = now
	return s
}

type ProjectPatch struct {
	Name        *string               `json:"name"`
	Description *string               `json:"description"`
	Status      *models.ProjectStatus `json:"status"`
	StartDate   *time.Time            `json:"startDate"`
	EndDate     *time.Time            `json:"endDate"`
	Department  *string               `json:"department"`
}

func (s *ProjectService) save(ctx context.Context, p *models.Project) error {
	p.ApplyDefaults()
	p.BeforeSave(s.now())
	if err := p.Validate(); err != nil {
		return err
	}
	var err error
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
		err = s.projects.Insert(ctx, p)
		if err != nil {
			p.ID = primitive.NilObjectID
		}
	} else {
		err = s.projects.Replace(ctx, p)
	}
	if errors.Is(err, ErrConflict) {
		return conflict("project name %q is already taken", p.Name)
	}
	return err
}

// Create stores a new project owned by the actor. Only managers and
// admins create projects.
func (s *ProjectService) Create(ctx context.Context, actor Actor, p *models.Project) (*models.Project, error) {
	if !actor.CanManage() {
		return nil, fmt.Errorf("only managers can create projects: %w", ErrForbidden)
	}
	p.ID = primitive.NilObjectID
	p.Owner = actor.ID
	p.ApplyDefaults()
	p.AddMember(actor.ID)
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	logging.Logger.Infof("Event ID: PROJECT_CREATED, Description: Project %q created by %s", p.Name, actor.ID.Hex())
	return p, nil
}

func (s *ProjectService) Get(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	p, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return nil, wrapLookup(err, "project")
	}
	return p, nil
}

func (s *ProjectService) List(ctx context.Context, f models.ProjectFilter) ([]models.Project, error) {
	projects, err := s.projects.Find(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

func (s *ProjectService) Update(ctx context.Context, id primitive.ObjectID, patch ProjectPatch) (*models.Project, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.StartDate != nil {
		p.StartDate = patch.StartDate
	}
	if patch.EndDate != nil {
		p.EndDate = patch.EndDate
	}
	if patch.Department != nil {
		p.Department = *patch.Department
	}
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes the project together with its backlog items, their
// dependency nodes and its sprints.
func (s *ProjectService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	items, err := s.backlogs.Find(ctx, models.BacklogFilter{Project: &id})
	if err != nil {
		return fmt.Errorf("failed to list project backlog: %w", err)
	}
	for _, item := range items {
		if err := s.graph.RemoveNode(ctx, item.ID.Hex()); err != nil {
			if errors.Is(err, ErrUnavailable) {
				break
			}
			logging.Logger.Warnf("Event ID: BACKLOG_GRAPH_CLEANUP_FAILED, Description: Failed to remove dependency node %s: %v", item.ID.Hex(), err)
		}
	}
	backlogs, err := s.backlogs.DeleteByProject(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete project backlog: %w", err)
	}
	sprints, err := s.sprints.DeleteByProject(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete project sprints: %w", err)
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		return wrapLookup(err, "project")
	}
	logging.Logger.Infof("Event ID: PROJECT_DELETED, Description: Project %s deleted with %d backlog items and %d sprints", id.Hex(), backlogs, sprints)
	return nil
}

func (s *ProjectService) AddMember(ctx context.Context, id, userID primitive.ObjectID) (*models.Project, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, wrapLookup(err, "user")
	}
	if !p.AddMember(userID) {
		return nil, conflict("user is already a member of the project")
	}
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// RemoveMember is refused for the owner and for members who still have
// in-progress items on the project.
func (s *ProjectService) RemoveMember(ctx context.Context, id, userID primitive.ObjectID) (*models.Project, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Owner == userID {
		return nil, conflict("the project owner cannot be removed")
	}
	if !p.HasMember(userID) {
		return nil, notFound("project member")
	}
	active, err := s.backlogs.Find(ctx, models.BacklogFilter{
		Project:    &p.ID,
		Assignee:   &userID,
		TaskStatus: models.TaskInProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to check member items: %w", err)
	}
	if len(active) > 0 {
		return nil, conflict("member has %d in-progress items on this project", len(active))
	}
	p.RemoveMember(userID)
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
