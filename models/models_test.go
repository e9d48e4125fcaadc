package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestSprintValidate(t *testing.T) {
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	s := &Sprint{Name: "Sprint 1", StartDate: start, EndDate: start.AddDate(0, 0, 14)}
	s.ApplyDefaults()
	assert.Equal(t, SprintPlanned, s.Status)
	require.NoError(t, s.Validate())

	s.EndDate = start.AddDate(0, 0, -1)
	assert.True(t, errors.Is(s.Validate(), ErrValidation))

	s.EndDate = time.Time{}
	assert.True(t, errors.Is(s.Validate(), ErrValidation))

	s.EndDate = start
	s.Name = ""
	assert.True(t, errors.Is(s.Validate(), ErrValidation))
}

func TestTaskUpdatedAtBumpedEverySave(t *testing.T) {
	task := &Task{Title: "Legacy", Assignee: primitive.NewObjectID()}
	task.ApplyDefaults()
	assert.Equal(t, TaskTodo, task.Status)
	assert.Equal(t, PriorityMedium, task.Priority)

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	task.BeforeSave(t0)
	task.BeforeSave(t0.Add(time.Minute))
	assert.Equal(t, t0, task.CreatedAt)
	assert.Equal(t, t0.Add(time.Minute), task.UpdatedAt)

	task.Assignee = primitive.NilObjectID
	assert.True(t, errors.Is(task.Validate(), ErrValidation))
}

func TestUserValidate(t *testing.T) {
	u := &User{Name: "Ana", Email: "  Ana@Example.COM ", Password: "hash"}
	u.ApplyDefaults()
	u.BeforeSave(time.Now())
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, RoleMember, u.Role)
	assert.Equal(t, DefaultTheme, u.Theme)
	require.NoError(t, u.Validate())

	u.Email = "Ana <ana@example.com>"
	assert.True(t, errors.Is(u.Validate(), ErrValidation))

	u.Email = "ana@example.com"
	u.Role = "owner"
	assert.True(t, errors.Is(u.Validate(), ErrValidation))
}

func TestProjectMembers(t *testing.T) {
	owner := primitive.NewObjectID()
	member := primitive.NewObjectID()
	p := &Project{Name: "Apollo", Owner: owner}
	p.ApplyDefaults()
	require.NoError(t, p.Validate())

	assert.True(t, p.HasMember(owner))
	assert.False(t, p.HasMember(member))
	assert.True(t, p.AddMember(member))
	assert.False(t, p.AddMember(member))
	assert.True(t, p.HasMember(member))
	assert.True(t, p.RemoveMember(member))
	assert.False(t, p.RemoveMember(member))
}

func TestFolderValidate(t *testing.T) {
	f := &FileFolder{ID: primitive.NewObjectID(), Name: "Specs"}
	f.ApplyDefaults()
	require.NoError(t, f.Validate())

	f.Name = "a/b"
	assert.True(t, errors.Is(f.Validate(), ErrValidation))

	f.Name = "Specs"
	f.Parent = &f.ID
	assert.True(t, errors.Is(f.Validate(), ErrValidation))
}
