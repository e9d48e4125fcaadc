package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newBacklog() *Backlog {
	return &Backlog{Title: "Write docs", Project: primitive.NewObjectID()}
}

func TestBacklogDefaults(t *testing.T) {
	b := newBacklog()
	b.Checklist = []ChecklistItem{{Text: "outline"}}
	b.ApplyDefaults()

	assert.Equal(t, PriorityMedium, b.Priority)
	assert.Equal(t, BacklogStatusBacklog, b.Status)
	assert.Equal(t, TaskPending, b.TaskStatus)
	assert.NotEmpty(t, b.Checklist[0].ID)
	require.NoError(t, b.Validate())
}

func TestBacklogValidate(t *testing.T) {
	cases := map[string]struct {
		mutate func(*Backlog)
		field  string
	}{
		"missing title":      {func(b *Backlog) { b.Title = "  " }, "title"},
		"missing project":    {func(b *Backlog) { b.Project = primitive.NilObjectID }, "project"},
		"negative points":    {func(b *Backlog) { b.StoryPoints = -1 }, "storyPoints"},
		"bad priority":       {func(b *Backlog) { b.Priority = "urgent" }, "priority"},
		"bad status":         {func(b *Backlog) { b.Status = "archived" }, "status"},
		"bad task status":    {func(b *Backlog) { b.TaskStatus = "blocked" }, "taskStatus"},
		"running no start":   {func(b *Backlog) { b.IsTimerRunning = true }, "timerStartedAt"},
		"empty checklist":    {func(b *Backlog) { b.Checklist = []ChecklistItem{{ID: "1"}} }, "checklist"},
		"stopped with start": {func(b *Backlog) { now := time.Now(); b.TimerStartedAt = &now }, "timerStartedAt"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			b := newBacklog()
			b.ApplyDefaults()
			tc.mutate(b)

			err := b.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestBacklogStartedAtSetOnce(t *testing.T) {
	b := newBacklog()
	b.ApplyDefaults()

	t0 := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	b.BeforeSave(t0)
	assert.Nil(t, b.StartedAt)
	assert.Equal(t, t0, b.CreatedAt)

	b.TaskStatus = TaskInProgress
	t1 := t0.Add(time.Hour)
	b.BeforeSave(t1)
	require.NotNil(t, b.StartedAt)
	assert.Equal(t, t1, *b.StartedAt)

	b.TaskStatus = TaskPending
	b.BeforeSave(t1.Add(time.Hour))
	b.TaskStatus = TaskInProgress
	b.BeforeSave(t1.Add(2 * time.Hour))
	assert.Equal(t, t1, *b.StartedAt)

	b.TaskStatus = TaskCompleted
	t2 := t1.Add(3 * time.Hour)
	b.BeforeSave(t2)
	require.NotNil(t, b.CompletedAt)
	assert.Equal(t, t2, *b.CompletedAt)

	b.TaskStatus = TaskInProgress
	b.BeforeSave(t2.Add(time.Hour))
	b.TaskStatus = TaskCompleted
	b.BeforeSave(t2.Add(2 * time.Hour))
	assert.Equal(t, t2, *b.CompletedAt)
	assert.Equal(t, t1, *b.StartedAt)
	assert.Equal(t, t0, b.CreatedAt)
	assert.Equal(t, t2.Add(2*time.Hour), b.UpdatedAt)
}

func TestBacklogTimer(t *testing.T) {
	b := newBacklog()
	b.ApplyDefaults()
	user := primitive.NewObjectID()
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	assert.True(t, b.StartTimer(start, user))
	assert.False(t, b.StartTimer(start.Add(time.Second), user))
	require.NoError(t, b.Validate())
	assert.Equal(t, int64(90), b.ElapsedAt(start.Add(90*time.Second+500*time.Millisecond)))

	added := b.StopTimer(start.Add(125 * time.Second))
	assert.Equal(t, int64(125), added)
	assert.Equal(t, int64(125), b.TimeTracked)
	assert.False(t, b.IsTimerRunning)
	assert.Nil(t, b.TimerStartedAt)
	assert.Nil(t, b.TimerStartedBy)
	require.NoError(t, b.Validate())

	b.StartTimer(start.Add(time.Hour), user)
	assert.Equal(t, int64(0), b.StopTimer(start), "clock skew never shrinks tracked time")
	assert.Equal(t, int64(125), b.TimeTracked)
}

func TestOptionalIDUnmarshal(t *testing.T) {
	id := primitive.NewObjectID()
	var body struct {
		Sprint   OptionalID `json:"sprint"`
		Assignee OptionalID `json:"assignee"`
		Other    OptionalID `json:"other"`
	}
	raw := `{"sprint":"` + id.Hex() + `","assignee":null}`
	require.NoError(t, json.Unmarshal([]byte(raw), &body))

	assert.True(t, body.Sprint.Set)
	require.NotNil(t, body.Sprint.Value)
	assert.Equal(t, id, *body.Sprint.Value)
	assert.True(t, body.Assignee.Set)
	assert.Nil(t, body.Assignee.Value)
	assert.False(t, body.Other.Set)

	assert.Error(t, json.Unmarshal([]byte(`{"sprint":"nope"}`), &body))
}
