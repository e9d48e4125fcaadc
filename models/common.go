package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// OptionalID is a JSON reference field that distinguishes "absent" from
// an explicit null, so partial updates can clear a reference.
type OptionalID struct {
	Set   bool
	Value *primitive.ObjectID
}

func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var hex string
	if err := json.Unmarshal(data, &hex); err != nil {
		return fmt.Errorf("reference must be a string id or null: %w", err)
	}
	if hex == "" {
		o.Value = nil
		return nil
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return fmt.Errorf("invalid reference %q: %w", hex, err)
	}
	o.Value = &id
	return nil
}

// SetID returns an OptionalID carrying id.
func SetID(id primitive.ObjectID) OptionalID {
	return OptionalID{Set: true, Value: &id}
}

// ClearID returns an OptionalID that clears the reference.
func ClearID() OptionalID {
	return OptionalID{Set: true}
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
