package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"yoosprint/models"
	"yoosprint/services"
)

func TestTaskLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	assignee := primitive.NewObjectID()

	_, err := e.tasks.Create(ctx, &models.Task{Title: "  ", Assignee: assignee})
	assert.ErrorIs(t, err, services.ErrValidation)

	task, err := e.tasks.Create(ctx, &models.Task{Title: " Write docs ", Project: "Apollo", Assignee: assignee})
	require.NoError(t, err)
	assert.Equal(t, "Write docs", task.Title)
	assert.Equal(t, models.TaskTodo, task.Status)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	created := task.UpdatedAt

	e.clock.Advance(time.Hour)
	updated, err := e.tasks.Update(ctx, task.ID, services.TaskPatch{Status: ptr(models.TaskStatusDone)})
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusDone, updated.Status)
	assert.True(t, updated.UpdatedAt.After(created))
	assert.Equal(t, created, updated.CreatedAt)

	_, err = e.tasks.Update(ctx, task.ID, services.TaskPatch{Status: ptr(models.TaskStatus("blocked"))})
	assert.ErrorIs(t, err, services.ErrValidation)

	list, err := e.tasks.List(ctx, models.TaskFilter{Project: "Apollo", Status: models.TaskStatusDone})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	list, err = e.tasks.List(ctx, models.TaskFilter{Project: "Gemini"})
	require.NoError(t, err)
	assert.Empty(t, list)

	require.NoError(t, e.tasks.Delete(ctx, task.ID))
	assert.ErrorIs(t, e.tasks.Delete(ctx, task.ID), services.ErrNotFound)
	_, err = e.tasks.Get(ctx, task.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}
