package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BacklogStatus string

const (
	BacklogStatusBacklog  BacklogStatus = "backlog"
	BacklogStatusInSprint BacklogStatus = "in-sprint"
	BacklogStatusDone     BacklogStatus = "done"
)

func (s BacklogStatus) Valid() bool {
	switch s {
	case BacklogStatusBacklog, BacklogStatusInSprint, BacklogStatusDone:
		return true
	}
	return false
}

// TaskProgress is the work-progress axis of a backlog item, independent of
// its sprint membership (BacklogStatus).
type TaskProgress string

const (
	TaskPending    TaskProgress = "pending"
	TaskInProgress TaskProgress = "in-progress"
	TaskCompleted  TaskProgress = "completed"
)

func (p TaskProgress) Valid() bool {
	switch p {
	case TaskPending, TaskInProgress, TaskCompleted:
		return true
	}
	return false
}

type ChecklistItem struct {
	ID        string `bson:"id" json:"id"`
	Text      string `bson:"text" json:"text"`
	Completed bool   `bson:"completed" json:"completed"`
}

type Backlog struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Title          string              `bson:"title" json:"title"`
	Description    string              `bson:"description" json:"description"`
	Priority       Priority            `bson:"priority" json:"priority"`
	Project        primitive.ObjectID  `bson:"project" json:"project"`
	StoryPoints    int                 `bson:"storyPoints" json:"storyPoints"`
	Status         BacklogStatus       `bson:"status" json:"status"`
	TaskStatus     TaskProgress        `bson:"taskStatus" json:"taskStatus"`
	Sprint         *primitive.ObjectID `bson:"sprint" json:"sprint"`
	Assignee       *primitive.ObjectID `bson:"assignee" json:"assignee"`
	Checklist      []ChecklistItem     `bson:"checklist" json:"checklist"`
	TimeTracked    int64               `bson:"timeTracked" json:"timeTracked"`
	IsTimerRunning bool                `bson:"isTimerRunning" json:"isTimerRunning"`
	TimerStartedAt *time.Time          `bson:"timerStartedAt" json:"timerStartedAt"`
	TimerStartedBy *primitive.ObjectID `bson:"timerStartedBy,omitempty" json:"timerStartedBy,omitempty"`
	StartedAt      *time.Time          `bson:"startedAt" json:"startedAt"`
	CompletedAt    *time.Time          `bson:"completedAt" json:"completedAt"`
	Department     string              `bson:"department,omitempty" json:"department,omitempty"`
	CreatedAt      time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// ApplyDefaults fills the schema defaults for fields left empty.
func (b *Backlog) ApplyDefaults() {
	if b.Priority == "" {
		b.Priority = PriorityMedium
	}
	if b.Status == "" {
		b.Status = BacklogStatusBacklog
	}
	if b.TaskStatus == "" {
		b.TaskStatus = TaskPending
	}
	if b.Checklist == nil {
		b.Checklist = []ChecklistItem{}
	}
	for i := range b.Checklist {
		if b.Checklist[i].ID == "" {
			b.Checklist[i].ID = uuid.NewString()
		}
	}
}

// BeforeSave is the pre-save hook. startedAt and completedAt are stamped on
// the first transition into in-progress and completed and kept afterwards.
func (b *Backlog) BeforeSave(now time.Time) {
	b.Title = strings.TrimSpace(b.Title)
	if b.TaskStatus == TaskInProgress && b.StartedAt == nil {
		t := now
		b.StartedAt = &t
	}
	if b.TaskStatus == TaskCompleted && b.CompletedAt == nil {
		t := now
		b.CompletedAt = &t
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

func (b *Backlog) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return fieldError("title", "is required")
	}
	if b.Project.IsZero() {
		return fieldError("project", "is required")
	}
	if !b.Priority.Valid() {
		return fieldError("priority", "must be one of low, medium, high")
	}
	if b.StoryPoints < 0 {
		return fieldError("storyPoints", "must not be negative")
	}
	if !b.Status.Valid() {
		return fieldError("status", "must be one of backlog, in-sprint, done")
	}
	if !b.TaskStatus.Valid() {
		return fieldError("taskStatus", "must be one of pending, in-progress, completed")
	}
	if b.TimeTracked < 0 {
		return fieldError("timeTracked", "must not be negative")
	}
	if b.IsTimerRunning != (b.TimerStartedAt != nil) {
		return fieldError("timerStartedAt", "must be set exactly when the timer is running")
	}
	for _, item := range b.Checklist {
		if strings.TrimSpace(item.Text) == "" {
			return fieldError("checklist", "item text is required")
		}
	}
	return nil
}

// StartTimer marks the timer running from now. It reports false when the
// timer was already running.
func (b *Backlog) StartTimer(now time.Time, by primitive.ObjectID) bool {
	if b.IsTimerRunning {
		return false
	}
	t := now
	b.IsTimerRunning = true
	b.TimerStartedAt = &t
	b.TimerStartedBy = &by
	return true
}

// StopTimer folds the running interval into TimeTracked and returns the
// seconds added.
func (b *Backlog) StopTimer(now time.Time) int64 {
	if !b.IsTimerRunning || b.TimerStartedAt == nil {
		b.IsTimerRunning = false
		b.TimerStartedAt = nil
		b.TimerStartedBy = nil
		return 0
	}
	elapsed := int64(now.Sub(*b.TimerStartedAt) / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	b.TimeTracked += elapsed
	b.IsTimerRunning = false
	b.TimerStartedAt = nil
	b.TimerStartedBy = nil
	return elapsed
}

// ElapsedAt is TimeTracked plus the running interval, as a client would
// reconcile it from timerStartedAt after a reload.
func (b *Backlog) ElapsedAt(now time.Time) int64 {
	total := b.TimeTracked
	if b.IsTimerRunning && b.TimerStartedAt != nil {
		if running := int64(now.Sub(*b.TimerStartedAt) / time.Second); running > 0 {
			total += running
		}
	}
	return total
}

func (b *Backlog) ChecklistIndex(itemID string) int {
	for i, item := range b.Checklist {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}
