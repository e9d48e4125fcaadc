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

func date(day int, hour int) time.Time {
	return time.Date(2024, 3, day, hour, 0, 0, 0, time.UTC)
}

func TestBuildTimeline(t *testing.T) {
	sprints := []models.Sprint{
		{
			Name:      "Sprint 1",
			StartDate: date(1, 9),
			EndDate:   date(11, 18),
			BacklogItems: []models.Backlog{
				{TaskStatus: models.TaskCompleted},
				{TaskStatus: models.TaskCompleted},
				{TaskStatus: models.TaskPending},
			},
		},
		{Name: "Sprint 2", StartDate: date(6, 0), EndDate: date(21, 0)},
	}

	tl := services.BuildTimeline(sprints, date(11, 23))
	require.NotNil(t, tl.RangeStart)
	assert.Equal(t, date(1, 0), *tl.RangeStart)
	assert.Equal(t, date(21, 0), *tl.RangeEnd)
	assert.Equal(t, 20, tl.TotalDays)
	require.NotNil(t, tl.TodayPercent)
	assert.Equal(t, 50.0, *tl.TodayPercent)

	require.Len(t, tl.Bars, 2)
	assert.Equal(t, 0.0, tl.Bars[0].OffsetPercent)
	assert.Equal(t, 50.0, tl.Bars[0].WidthPercent)
	assert.Equal(t, 3, tl.Bars[0].TotalItems)
	assert.Equal(t, 2, tl.Bars[0].DoneItems)
	assert.Equal(t, 66.67, tl.Bars[0].Progress)
	assert.Equal(t, 25.0, tl.Bars[1].OffsetPercent)
	assert.Equal(t, 75.0, tl.Bars[1].WidthPercent)
	assert.Equal(t, 0.0, tl.Bars[1].Progress)
}

func TestBuildTimelineEdges(t *testing.T) {
	empty := services.BuildTimeline(nil, date(1, 0))
	assert.NotNil(t, empty.Bars)
	assert.Nil(t, empty.RangeStart)
	assert.Nil(t, empty.TodayPercent)

	single := services.BuildTimeline([]models.Sprint{{Name: "Day", StartDate: date(5, 8), EndDate: date(5, 17)}}, date(20, 0))
	assert.Equal(t, 1, single.TotalDays)
	assert.Equal(t, 100.0, single.Bars[0].WidthPercent)
	assert.Nil(t, single.TodayPercent, "today outside the range")
}

func TestTimelineServiceUsesStoredItems(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	sp := createSprint(t, e, "Sprint 1")
	a := e.newItem(t, "A")
	_, err := e.sprint.AddItems(ctx, sp.ID, []primitive.ObjectID{a.ID})
	require.NoError(t, err)

	tl, err := e.timeline.Build(ctx, &e.projectID)
	require.NoError(t, err)
	require.Len(t, tl.Bars, 1)
	assert.Equal(t, 1, tl.Bars[0].TotalItems)
}
