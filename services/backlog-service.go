package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"yoosprint/logging"
	"yoosprint/metrics"
	"yoosprint/models"
)

type BacklogService struct {
	backlogs BacklogStore
	projects ProjectStore
	sprints  SprintStore
	graph    DependencyGraph
	notifier Notifier
	now      func() time.Time

	timerMu    sync.Mutex
	timerLocks map[primitive.ObjectID]*sync.Mutex
}

func NewBacklogService(backlogs BacklogStore, projects ProjectStore, sprints SprintStore, graph DependencyGraph, notifier Notifier) *BacklogService {
	return &BacklogService{
		backlogs:   backlogs,
		projects:   projects,
		sprints:    sprints,
		graph:      graph,
		notifier:   notifier,
		now:        time.Now,
		timerLocks: make(map[primitive.ObjectID]*sync.Mutex),
	}
}

// timerLock serialises timer starts per user.
func (s *BacklogService) timerLock(user primitive.ObjectID) *sync.Mutex {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	l, ok := s.timerLocks[user]
	if !ok {
		l = &sync.Mutex{}
		s.timerLocks[user] = l
	}
	return l
}

func (s *BacklogService) WithClock(now func() time.Time) *BacklogService {
	s.now = now
	return s
}

// BacklogPatch is a partial update. Nil pointers and unset OptionalIDs
// leave the field unchanged.
type BacklogPatch struct {
	Title       *string                 `json:"title"`
	Description *string                 `json:"description"`
	Priority    *models.Priority        `json:"priority"`
	StoryPoints *int                    `json:"storyPoints"`
	Status      *models.BacklogStatus   `json:"status"`
	TaskStatus  *models.TaskProgress    `json:"taskStatus"`
	Sprint      models.OptionalID       `json:"sprint"`
	Assignee    models.OptionalID       `json:"assignee"`
	Checklist   *[]models.ChecklistItem `json:"checklist"`
	Department  *string                 `json:"department"`
}

type ChecklistPatch struct {
	Text      *string `json:"text"`
	Completed *bool   `json:"completed"`
}

// TimerResult describes a start-timer call. Stopped is the item whose
// timer was stopped to make room for Started, if any.
type TimerResult struct {
	Started *models.Backlog `json:"started"`
	Stopped *models.Backlog `json:"stopped,omitempty"`
}

type ActiveTimer struct {
	Backlog        *models.Backlog `json:"backlog"`
	ElapsedSeconds int64           `json:"elapsedSeconds"`
}

// saveBacklog runs defaults, the pre-save hook and validation, then
// persists b.
func saveBacklog(ctx context.Context, store BacklogStore, b *models.Backlog, now time.Time) error {
	b.ApplyDefaults()
	b.BeforeSave(now)
	if err := b.Validate(); err != nil {
		return err
	}
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
		return store.Insert(ctx, b)
	}
	return store.Replace(ctx, b)
}

func (s *BacklogService) Create(ctx context.Context, b *models.Backlog) (*models.Backlog, error) {
	b.ID = primitive.NilObjectID
	b.CreatedAt, b.UpdatedAt = time.Time{}, time.Time{}
	b.StartedAt, b.CompletedAt = nil, nil
	b.IsTimerRunning, b.TimerStartedAt, b.TimerStartedBy = false, nil, nil
	b.TimeTracked = 0

	if b.Project.IsZero() {
		return nil, invalid("project is required")
	}
	if _, err := s.projects.FindByID(ctx, b.Project); err != nil {
		return nil, wrapLookup(err, "project")
	}
	if b.Sprint != nil {
		if err := s.checkSprint(ctx, *b.Sprint, b.Project); err != nil {
			return nil, err
		}
		if b.Status == "" {
			b.Status = models.BacklogStatusInSprint
		}
	}

	if err := saveBacklog(ctx, s.backlogs, b, s.now()); err != nil {
		return nil, err
	}
	logging.Logger.Infof("Event ID: BACKLOG_CREATED, Description: Backlog item %s created in project %s", b.ID.Hex(), b.Project.Hex())

	if b.Assignee != nil {
		s.notifier.Notify(ctx, *b.Assignee, fmt.Sprintf("You were assigned to %q", b.Title))
	}
	return b, nil
}

func (s *BacklogService) Get(ctx context.Context, id primitive.ObjectID) (*models.Backlog, error) {
	b, err := s.backlogs.FindByID(ctx, id)
	if err != nil {
		return nil, wrapLookup(err, "backlog item")
	}
	return b, nil
}

func (s *BacklogService) List(ctx context.Context, f models.BacklogFilter) ([]models.Backlog, error) {
	items, err := s.backlogs.Find(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list backlog items: %w", err)
	}
	return items, nil
}

func (s *BacklogService) Update(ctx context.Context, id primitive.ObjectID, patch BacklogPatch) (*models.Backlog, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	previousStatus := b.TaskStatus
	previousAssignee := b.Assignee

	if patch.Title != nil {
		b.Title = *patch.Title
	}
	if patch.Description != nil {
		b.Description = *patch.Description
	}
	if patch.Priority != nil {
		b.Priority = *patch.Priority
	}
	if patch.StoryPoints != nil {
		b.StoryPoints = *patch.StoryPoints
	}
	if patch.Department != nil {
		b.Department = *patch.Department
	}
	if patch.Checklist != nil {
		b.Checklist = *patch.Checklist
	}
	if patch.Sprint.Set {
		if patch.Sprint.Value != nil {
			if err := s.checkSprint(ctx, *patch.Sprint.Value, b.Project); err != nil {
				return nil, err
			}
			if b.Status == models.BacklogStatusBacklog {
				b.Status = models.BacklogStatusInSprint
			}
		} else if b.Status == models.BacklogStatusInSprint {
			b.Status = models.BacklogStatusBacklog
		}
		b.Sprint = patch.Sprint.Value
	}
	if patch.Assignee.Set {
		b.Assignee = patch.Assignee.Value
	}
	if patch.Status != nil {
		b.Status = *patch.Status
	}
	if patch.TaskStatus != nil {
		b.TaskStatus = *patch.TaskStatus
	}

	if b.TaskStatus == models.TaskInProgress && previousStatus != models.TaskInProgress {
		if err := s.ensureDependenciesDone(ctx, b); err != nil {
			return nil, err
		}
	}
	if b.TaskStatus == models.TaskCompleted && b.IsTimerRunning {
		b.StopTimer(s.now())
		metrics.RecordTimer("auto_stop")
	}

	if err := saveBacklog(ctx, s.backlogs, b, s.now()); err != nil {
		return nil, err
	}

	if b.Assignee != nil && (previousAssignee == nil || *previousAssignee != *b.Assignee) {
		s.notifier.Notify(ctx, *b.Assignee, fmt.Sprintf("You were assigned to %q", b.Title))
	}
	return b, nil
}

func (s *BacklogService) Delete(ctx context.Context, id primitive.ObjectID) error {
	if err := s.backlogs.Delete(ctx, id); err != nil {
		return wrapLookup(err, "backlog item")
	}
	if err := s.graph.RemoveNode(ctx, id.Hex()); err != nil && !errors.Is(err, ErrUnavailable) {
		logging.Logger.Warnf("Event ID: BACKLOG_GRAPH_CLEANUP_FAILED, Description: Failed to remove dependency node %s: %v", id.Hex(), err)
	}
	logging.Logger.Infof("Event ID: BACKLOG_DELETED, Description: Backlog item %s deleted", id.Hex())
	return nil
}

func (s *BacklogService) AddChecklistItem(ctx context.Context, id primitive.ObjectID, text string) (*models.Backlog, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, invalid("checklist item text is required")
	}
	b.Checklist = append(b.Checklist, models.ChecklistItem{ID: uuid.NewString(), Text: strings.TrimSpace(text)})
	if err := saveBacklog(ctx, s.backlogs, b, s.now()); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BacklogService) UpdateChecklistItem(ctx context.Context, id primitive.ObjectID, itemID string, patch ChecklistPatch) (*models.Backlog, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	i := b.ChecklistIndex(itemID)
	if i < 0 {
		return nil, notFound("checklist item")
	}
	if patch.Text != nil {
		b.Checklist[i].Text = strings.TrimSpace(*patch.Text)
	}
	if patch.Completed != nil {
		b.Checklist[i].Completed = *patch.Completed
	}
	if err := saveBacklog(ctx, s.backlogs, b, s.now()); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *BacklogService) RemoveChecklistItem(ctx context.Context, id primitive.ObjectID, itemID string) (*models.Backlog, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	i := b.ChecklistIndex(itemID)
	if i < 0 {
		return nil, notFound("checklist item")
	}
	b.Checklist = append(b.Checklist[:i], b.Checklist[i+1:]...)
	if err := saveBacklog(ctx, s.backlogs, b, s.now()); err != nil {
		return nil, err
	}
	return b, nil
}

// errTimerTaken means another process started a timer for the same user
// between the lookup and the save.
var errTimerTaken = errors.New("timer started concurrently")

// StartTimer starts the item's timer for user. Any other timer the user
// has running is stopped and persisted first, so at most one timer per
// user counts up. The store's unique running-timer index catches starts
// from other API instances; those are retried once.
func (s *BacklogService) StartTimer(ctx context.Context, id, user primitive.ObjectID) (*TimerResult, error) {
	l := s.timerLock(user)
	l.Lock()
	defer l.Unlock()

	result, err := s.startTimer(ctx, id, user)
	if errors.Is(err, errTimerTaken) {
		result, err = s.startTimer(ctx, id, user)
	}
	if errors.Is(err, errTimerTaken) {
		return nil, conflict("another timer was started for this user")
	}
	return result, err
}

func (s *BacklogService) startTimer(ctx context.Context, id, user primitive.ObjectID) (*TimerResult, error) {
	target, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if target.IsTimerRunning {
		if target.TimerStartedBy != nil && *target.TimerStartedBy != user {
			return nil, conflict("timer is already running for another user")
		}
		return &TimerResult{Started: target}, nil
	}

	running, err := s.backlogs.Find(ctx, models.BacklogFilter{RunningBy: &user})
	if err != nil {
		return nil, fmt.Errorf("failed to look up running timers: %w", err)
	}

	result := &TimerResult{}
	for i := range running {
		other := running[i]
		if other.ID == target.ID {
			continue
		}
		elapsed := other.StopTimer(s.now())
		if err := saveBacklog(ctx, s.backlogs, &other, s.now()); err != nil {
			return nil, fmt.Errorf("failed to stop running timer on %s: %w", other.ID.Hex(), err)
		}
		metrics.RecordTimer("auto_stop")
		logging.Logger.Infof("Event ID: TIMER_AUTO_STOPPED, Description: Timer on %s stopped after %ds to start %s", other.ID.Hex(), elapsed, target.ID.Hex())
		result.Stopped = &other
	}

	target.StartTimer(s.now(), user)
	if err := saveBacklog(ctx, s.backlogs, target, s.now()); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, errTimerTaken
		}
		return nil, err
	}
	metrics.RecordTimer("start")
	result.Started = target
	return result, nil
}

func (s *BacklogService) StopTimer(ctx context.Context, id primitive.ObjectID) (*models.Backlog, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.IsTimerRunning {
		return b, nil
	}
	b.StopTimer(s.now())
	if err := saveBacklog(ctx, s.backlogs, b, s.now()); err != nil {
		return nil, err
	}
	metrics.RecordTimer("stop")
	return b, nil
}

// ActiveTimer returns the user's running timer, or nil when none runs.
func (s *BacklogService) ActiveTimer(ctx context.Context, user primitive.ObjectID) (*ActiveTimer, error) {
	running, err := s.backlogs.Find(ctx, models.BacklogFilter{RunningBy: &user})
	if err != nil {
		return nil, fmt.Errorf("failed to look up running timers: %w", err)
	}
	if len(running) == 0 {
		return nil, nil
	}
	b := running[0]
	return &ActiveTimer{Backlog: &b, ElapsedSeconds: b.ElapsedAt(s.now())}, nil
}

func (s *BacklogService) checkSprint(ctx context.Context, sprintID, projectID primitive.ObjectID) error {
	sprint, err := s.sprints.FindByID(ctx, sprintID)
	if err != nil {
		return wrapLookup(err, "sprint")
	}
	if sprint.Project != nil && *sprint.Project != projectID {
		return invalid("sprint belongs to another project")
	}
	if sprint.Status == models.SprintCompleted {
		return conflict("sprint %q is already completed", sprint.Name)
	}
	return nil
}

func (s *BacklogService) ensureDependenciesDone(ctx context.Context, b *models.Backlog) error {
	deps, err := s.graph.DependenciesOf(ctx, b.ID.Hex())
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			return nil
		}
		return fmt.Errorf("failed to check dependencies: %w", err)
	}
	for _, depID := range deps {
		oid, err := primitive.ObjectIDFromHex(depID)
		if err != nil {
			continue
		}
		dep, err := s.backlogs.FindByID(ctx, oid)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to load dependency %s: %w", depID, err)
		}
		if dep.TaskStatus != models.TaskCompleted {
			return conflict("cannot start item due to unfinished dependency %q", dep.Title)
		}
	}
	return nil
}

// wrapLookup turns a store miss into "<what> not found" and passes other
// errors through.
func wrapLookup(err error, what string) error {
	if errors.Is(err, ErrNotFound) {
		return notFound(what)
	}
	return err
}
