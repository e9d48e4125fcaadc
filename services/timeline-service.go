package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"yoosprint/models"
)

type TimelineBar struct {
	SprintID      primitive.ObjectID  `json:"sprintId"`
	Name          string              `json:"name"`
	Status        models.SprintStatus `json:"status"`
	StartDate     time.Time           `json:"startDate"`
	EndDate       time.Time           `json:"endDate"`
	OffsetPercent float64             `json:"offsetPercent"`
	WidthPercent  float64             `json:"widthPercent"`
	TotalItems    int                 `json:"totalItems"`
	DoneItems     int                 `json:"doneItems"`
	Progress      float64             `json:"progress"`
}

type Timeline struct {
	RangeStart   *time.Time    `json:"rangeStart"`
	RangeEnd     *time.Time    `json:"rangeEnd"`
	TotalDays    int           `json:"totalDays"`
	TodayPercent *float64      `json:"todayPercent"`
	Bars         []TimelineBar `json:"bars"`
}

// BuildTimeline lays sprints out as Gantt bars over the calendar range
// they span. Dates are compared as UTC calendar days. Sprint backlog items
// feed the progress figures.
func BuildTimeline(sprints []models.Sprint, today time.Time) Timeline {
	tl := Timeline{Bars: []TimelineBar{}}
	if len(sprints) == 0 {
		return tl
	}

	rangeStart, rangeEnd := day(sprints[0].StartDate), day(sprints[0].EndDate)
	for _, s := range sprints[1:] {
		if start := day(s.StartDate); start.Before(rangeStart) {
			rangeStart = start
		}
		if end := day(s.EndDate); end.After(rangeEnd) {
			rangeEnd = end
		}
	}
	total := daysBetween(rangeStart, rangeEnd)
	if total < 1 {
		total = 1
	}
	tl.RangeStart, tl.RangeEnd, tl.TotalDays = &rangeStart, &rangeEnd, total

	for _, s := range sprints {
		start, end := day(s.StartDate), day(s.EndDate)
		offset := float64(daysBetween(rangeStart, start)) / float64(total) * 100
		width := float64(max(daysBetween(start, end), 1)) / float64(total) * 100
		if offset+width > 100 {
			width = 100 - offset
		}

		bar := TimelineBar{
			SprintID:      s.ID,
			Name:          s.Name,
			Status:        s.Status,
			StartDate:     s.StartDate,
			EndDate:       s.EndDate,
			OffsetPercent: round2(offset),
			WidthPercent:  round2(width),
			TotalItems:    len(s.BacklogItems),
		}
		for _, b := range s.BacklogItems {
			if b.TaskStatus == models.TaskCompleted {
				bar.DoneItems++
			}
		}
		if bar.TotalItems > 0 {
			bar.Progress = round2(float64(bar.DoneItems) / float64(bar.TotalItems) * 100)
		}
		tl.Bars = append(tl.Bars, bar)
	}

	if t := day(today); !t.Before(rangeStart) && !t.After(rangeEnd) {
		p := round2(float64(daysBetween(rangeStart, t)) / float64(total) * 100)
		tl.TodayPercent = &p
	}
	return tl
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(math.Round(to.Sub(from).Hours() / 24))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

type TimelineService struct {
	sprints  SprintStore
	backlogs BacklogStore
	now      func() time.Time
}

func NewTimelineService(sprints SprintStore, backlogs BacklogStore) *TimelineService {
	return &TimelineService{sprints: sprints, backlogs: backlogs, now: time.Now}
}

func (s *TimelineService) WithClock(now func() time.Time) *TimelineService {
	s.now = now
	return s
}

// Build returns the timeline of every sprint, or of one project's sprints.
func (s *TimelineService) Build(ctx context.Context, projectID *primitive.ObjectID) (Timeline, error) {
	sprints, err := s.sprints.Find(ctx, models.SprintFilter{Project: projectID})
	if err != nil {
		return Timeline{}, fmt.Errorf("failed to load sprints: %w", err)
	}
	for i := range sprints {
		id := sprints[i].ID
		items, err := s.backlogs.Find(ctx, models.BacklogFilter{Sprint: &id})
		if err != nil {
			return Timeline{}, fmt.Errorf("failed to load sprint items: %w", err)
		}
		sprints[i].BacklogItems = items
	}
	return BuildTimeline(sprints, s.now()), nil
}
