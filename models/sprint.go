package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SprintStatus string

const (
	SprintPlanned   SprintStatus = "planned"
	SprintActive    SprintStatus = "active"
	SprintCompleted SprintStatus = "completed"
)

func (s SprintStatus) Valid() bool {
	switch s {
	case SprintPlanned, SprintActive, SprintCompleted:
		return true
	}
	return false
}

type Sprint struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name       string               `bson:"name" json:"name"`
	Goal       string               `bson:"goal" json:"goal"`
	Project    *primitive.ObjectID  `bson:"project,omitempty" json:"project,omitempty"`
	StartDate  time.Time            `bson:"startDate" json:"startDate"`
	EndDate    time.Time            `bson:"endDate" json:"endDate"`
	Status     SprintStatus         `bson:"status" json:"status"`
	Managers   []primitive.ObjectID `bson:"managers" json:"managers"`
	Department string               `bson:"department,omitempty" json:"department,omitempty"`
	CreatedAt  time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt" json:"updatedAt"`

	// BacklogItems is resolved at query time from backlogs.sprint and is
	// never stored.
	BacklogItems []Backlog `bson:"-" json:"backlogItems,omitempty"`
}

func (s *Sprint) ApplyDefaults() {
	if s.Status == "" {
		s.Status = SprintPlanned
	}
	if s.Managers == nil {
		s.Managers = []primitive.ObjectID{}
	}
}

func (s *Sprint) BeforeSave(now time.Time) {
	s.Name = strings.TrimSpace(s.Name)
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
}

func (s *Sprint) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fieldError("name", "is required")
	}
	if s.StartDate.IsZero() {
		return fieldError("startDate", "is required")
	}
	if s.EndDate.IsZero() {
		return fieldError("endDate", "is required")
	}
	if s.EndDate.Before(s.StartDate) {
		return fieldError("endDate", "must not precede startDate")
	}
	if !s.Status.Valid() {
		return fieldError("status", "must be one of planned, active, completed")
	}
	return nil
}

func (s *Sprint) HasManager(id primitive.ObjectID) bool {
	return containsID(s.Managers, id)
}
