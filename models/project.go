package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "active"
	ProjectArchived ProjectStatus = "archived"
)

type Project struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description" json:"description"`
	Owner       primitive.ObjectID   `bson:"owner" json:"owner"`
	Members     []primitive.ObjectID `bson:"members" json:"members"`
	Status      ProjectStatus        `bson:"status" json:"status"`
	StartDate   *time.Time           `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate     *time.Time           `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Department  string               `bson:"department,omitempty" json:"department,omitempty"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

func (p *Project) ApplyDefaults() {
	if p.Status == "" {
		p.Status = ProjectActive
	}
	if p.Members == nil {
		p.Members = []primitive.ObjectID{}
	}
}

func (p *Project) BeforeSave(now time.Time) {
	p.Name = strings.TrimSpace(p.Name)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
}

func (p *Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fieldError("name", "is required")
	}
	if p.Status != ProjectActive && p.Status != ProjectArchived {
		return fieldError("status", "must be one of active, archived")
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return fieldError("endDate", "must not precede startDate")
	}
	return nil
}

func (p *Project) HasMember(id primitive.ObjectID) bool {
	return p.Owner == id || containsID(p.Members, id)
}

// AddMember reports whether id was newly added.
func (p *Project) AddMember(id primitive.ObjectID) bool {
	if containsID(p.Members, id) {
		return false
	}
	p.Members = append(p.Members, id)
	return true
}

func (p *Project) RemoveMember(id primitive.ObjectID) bool {
	for i, member := range p.Members {
		if member == id {
			p.Members = append(p.Members[:i], p.Members[i+1:]...)
			return true
		}
	}
	return false
}
