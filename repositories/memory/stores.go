package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"yoosprint/models"
)

// BacklogStore enforces the one-running-timer-per-user index.
type BacklogStore struct {
	mu sync.Mutex
	c  *collection[models.Backlog]
}

func NewBacklogStore() *BacklogStore {
	return &BacklogStore{c: newCollection[models.Backlog]()}
}

func (s *BacklogStore) Insert(_ context.Context, b *models.Backlog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkTimer(b); err != nil {
		return err
	}
	return s.c.insert(b.ID, b)
}

func (s *BacklogStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Backlog, error) {
	return s.c.get(id)
}

func (s *BacklogStore) Find(_ context.Context, f models.BacklogFilter) ([]models.Backlog, error) {
	return s.c.find(func(b *models.Backlog) bool {
		if f.Project != nil && b.Project != *f.Project {
			return false
		}
		if f.Status != "" && b.Status != f.Status {
			return false
		}
		if f.TaskStatus != "" && b.TaskStatus != f.TaskStatus {
			return false
		}
		if f.RunningBy != nil && (!b.IsTimerRunning || !sameRef(b.TimerStartedBy, f.RunningBy)) {
			return false
		}
		return sameRef(b.Sprint, f.Sprint) && sameRef(b.Assignee, f.Assignee)
	})
}

func (s *BacklogStore) Replace(_ context.Context, b *models.Backlog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkTimer(b); err != nil {
		return err
	}
	return s.c.replace(b.ID, b)
}

func (s *BacklogStore) checkTimer(b *models.Backlog) error {
	if !b.IsTimerRunning || b.TimerStartedBy == nil {
		return nil
	}
	user := *b.TimerStartedBy
	running, err := s.c.find(func(other *models.Backlog) bool {
		return other.ID != b.ID && other.IsTimerRunning && sameRef(other.TimerStartedBy, &user)
	})
	if err != nil {
		return err
	}
	if len(running) > 0 {
		return fmt.Errorf("timer already running for %s: %w", user.Hex(), models.ErrConflict)
	}
	return nil
}

func (s *BacklogStore) Delete(_ context.Context, id primitive.ObjectID) error {
	return s.c.delete(id)
}

func (s *BacklogStore) DeleteByProject(_ context.Context, projectID primitive.ObjectID) (int64, error) {
	return s.c.deleteWhere(func(b *models.Backlog) bool { return b.Project == projectID })
}

func (s *BacklogStore) CompletedPointsByAssignee(_ context.Context, userID primitive.ObjectID) (int, error) {
	items, err := s.c.find(func(b *models.Backlog) bool {
		return b.TaskStatus == models.TaskCompleted && sameRef(b.Assignee, &userID)
	})
	if err != nil {
		return 0, err
	}
	total := 0
	for _, b := range items {
		total += b.StoryPoints
	}
	return total, nil
}

type SprintStore struct {
	c *collection[models.Sprint]
}

func NewSprintStore() *SprintStore {
	return &SprintStore{c: newCollection[models.Sprint]()}
}

func (s *SprintStore) Insert(_ context.Context, sprint *models.Sprint) error {
	return s.c.insert(sprint.ID, sprint)
}

func (s *SprintStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Sprint, error) {
	return s.c.get(id)
}

func (s *SprintStore) Find(_ context.Context, f models.SprintFilter) ([]models.Sprint, error) {
	return s.c.find(func(sprint *models.Sprint) bool {
		if f.Status != "" && sprint.Status != f.Status {
			return false
		}
		return sameRef(sprint.Project, f.Project)
	})
}

func (s *SprintStore) Replace(_ context.Context, sprint *models.Sprint) error {
	return s.c.replace(sprint.ID, sprint)
}

func (s *SprintStore) Delete(_ context.Context, id primitive.ObjectID) error {
	return s.c.delete(id)
}

func (s *SprintStore) DeleteByProject(_ context.Context, projectID primitive.ObjectID) (int64, error) {
	return s.c.deleteWhere(func(sprint *models.Sprint) bool { return sameRef(sprint.Project, &projectID) })
}

// ProjectStore enforces the unique name index.
type ProjectStore struct {
	mu sync.Mutex
	c  *collection[models.Project]
}

func NewProjectStore() *ProjectStore {
	return &ProjectStore{c: newCollection[models.Project]()}
}

func (s *ProjectStore) Insert(_ context.Context, p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkName(p); err != nil {
		return err
	}
	return s.c.insert(p.ID, p)
}

func (s *ProjectStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Project, error) {
	return s.c.get(id)
}

func (s *ProjectStore) Find(_ context.Context, f models.ProjectFilter) ([]models.Project, error) {
	return s.c.find(func(p *models.Project) bool {
		if f.Member != nil && !p.HasMember(*f.Member) {
			return false
		}
		if f.Department != "" && p.Department != f.Department {
			return false
		}
		return f.Status == "" || p.Status == f.Status
	})
}

func (s *ProjectStore) Replace(_ context.Context, p *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkName(p); err != nil {
		return err
	}
	return s.c.replace(p.ID, p)
}

func (s *ProjectStore) Delete(_ context.Context, id primitive.ObjectID) error {
	return s.c.delete(id)
}

func (s *ProjectStore) checkName(p *models.Project) error {
	taken, err := s.c.find(func(other *models.Project) bool {
		return other.ID != p.ID && other.Name == p.Name
	})
	if err != nil {
		return err
	}
	if len(taken) > 0 {
		return fmt.Errorf("project name %q: %w", p.Name, models.ErrConflict)
	}
	return nil
}

type TaskStore struct {
	c *collection[models.Task]
}

func NewTaskStore() *TaskStore {
	return &TaskStore{c: newCollection[models.Task]()}
}

func (s *TaskStore) Insert(_ context.Context, t *models.Task) error {
	return s.c.insert(t.ID, t)
}

func (s *TaskStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Task, error) {
	return s.c.get(id)
}

func (s *TaskStore) Find(_ context.Context, f models.TaskFilter) ([]models.Task, error) {
	return s.c.find(func(t *models.Task) bool {
		if f.Assignee != nil && t.Assignee != *f.Assignee {
			return false
		}
		if f.Status != "" && t.Status != f.Status {
			return false
		}
		return f.Project == "" || t.Project == f.Project
	})
}

func (s *TaskStore) Replace(_ context.Context, t *models.Task) error {
	return s.c.replace(t.ID, t)
}

func (s *TaskStore) Delete(_ context.Context, id primitive.ObjectID) error {
	return s.c.delete(id)
}

// UserStore enforces the unique email index.
type UserStore struct {
	mu sync.Mutex
	c  *collection[models.User]
}

func NewUserStore() *UserStore {
	return &UserStore{c: newCollection[models.User]()}
}

func (s *UserStore) Insert(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkEmail(u); err != nil {
		return err
	}
	return s.c.insert(u.ID, u)
}

func (s *UserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.c.get(id)
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	users, err := s.c.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, models.ErrNotFound
	}
	return &users[0], nil
}

func (s *UserStore) Find(_ context.Context, f models.UserFilter) ([]models.User, error) {
	return s.c.find(func(u *models.User) bool {
		if f.Role != "" && u.Role != f.Role {
			return false
		}
		return f.Department == "" || u.Department == f.Department
	})
}

func (s *UserStore) Replace(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkEmail(u); err != nil {
		return err
	}
	return s.c.replace(u.ID, u)
}

func (s *UserStore) Delete(_ context.Context, id primitive.ObjectID) error {
	return s.c.delete(id)
}

func (s *UserStore) ClearExpiredCodes(_ context.Context, now time.Time) (int64, error) {
	return s.c.update(func(u *models.User) bool {
		if u.VerificationExpiry == nil || u.VerificationExpiry.After(now) {
			return false
		}
		u.ClearVerification()
		return true
	})
}

func (s *UserStore) checkEmail(u *models.User) error {
	taken, err := s.c.find(func(other *models.User) bool {
		return other.ID != u.ID && strings.EqualFold(other.Email, u.Email)
	})
	if err != nil {
		return err
	}
	if len(taken) > 0 {
		return fmt.Errorf("email %s: %w", u.Email, models.ErrConflict)
	}
	return nil
}

type FolderStore struct {
	c *collection[models.FileFolder]
}

func NewFolderStore() *FolderStore {
	return &FolderStore{c: newCollection[models.FileFolder]()}
}

func (s *FolderStore) Insert(_ context.Context, f *models.FileFolder) error {
	return s.c.insert(f.ID, f)
}

func (s *FolderStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.FileFolder, error) {
	return s.c.get(id)
}

func (s *FolderStore) Find(_ context.Context, f models.FolderFilter) ([]models.FileFolder, error) {
	return s.c.find(func(folder *models.FileFolder) bool {
		if f.Root && folder.Parent != nil {
			return false
		}
		return sameRef(folder.Parent, f.Parent) && sameRef(folder.Project, f.Project)
	})
}

func (s *FolderStore) Replace(_ context.Context, f *models.FileFolder) error {
	return s.c.replace(f.ID, f)
}

func (s *FolderStore) Delete(_ context.Context, id primitive.ObjectID) error {
	return s.c.delete(id)
}
