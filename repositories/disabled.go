package repositories

import (
	"context"
	"fmt"
	"time"

	"yoosprint/logging"
	"yoosprint/models"
)

// DisabledGraph stands in for Neo4j when it is not configured. Reads are
// empty and writes report ErrUnavailable.
type DisabledGraph struct{}

func (DisabledGraph) AddDependency(context.Context, string, string, string) error {
	return fmt.Errorf("dependency graph is not configured: %w", models.ErrUnavailable)
}

func (DisabledGraph) RemoveDependency(context.Context, string, string) error {
	return fmt.Errorf("dependency graph is not configured: %w", models.ErrUnavailable)
}

func (DisabledGraph) DependenciesOf(context.Context, string) ([]string, error) {
	return []string{}, nil
}

func (DisabledGraph) HasPath(context.Context, string, string) (bool, error) {
	return false, nil
}

func (DisabledGraph) ProjectEdges(context.Context, string) ([]models.DependencyEdge, error) {
	return []models.DependencyEdge{}, nil
}

func (DisabledGraph) RemoveNode(context.Context, string) error {
	return nil
}

// LogNotificationStore stands in for Cassandra. Notifications are written
// to the log and never listed.
type LogNotificationStore struct{}

func (LogNotificationStore) Create(_ context.Context, n *models.Notification) error {
	logging.Logger.Infof("Event ID: NOTIFICATION_LOGGED, Description: Notification for %s: %s", n.UserID, n.Message)
	return nil
}

func (LogNotificationStore) ListByUser(context.Context, string) ([]models.Notification, error) {
	return []models.Notification{}, nil
}

func (LogNotificationStore) MarkRead(context.Context, string, string, time.Time) error {
	return models.ErrNotFound
}

func (LogNotificationStore) Delete(context.Context, string, string, time.Time) error {
	return models.ErrNotFound
}
