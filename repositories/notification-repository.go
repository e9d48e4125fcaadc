package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"yoosprint/logging"
	"yoosprint/models"
)

// NotificationRepo stores notifications in Cassandra, one partition per
// user, newest first.
type NotificationRepo struct {
	session *gocql.Session
}

// NewNotificationRepo connects to the cluster, creating the keyspace and
// table when missing.
func NewNotificationRepo(hosts []string, keyspace string) (*NotificationRepo, error) {
	cluster := gocql.NewCluster(hosts...)
	cluster.Keyspace = "system"
	cluster.Timeout = 5 * time.Second
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Cassandra: %w", err)
	}

	err = session.Query(fmt.Sprintf(
		`CREATE KEYSPACE IF NOT EXISTS %s
		 WITH replication = {
		     'class': 'SimpleStrategy',
		     'replication_factor': 1
		 }`, keyspace)).Exec()
	session.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to create keyspace %s: %w", keyspace, err)
	}

	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.One
	session, err = cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to keyspace %s: %w", keyspace, err)
	}

	repo := &NotificationRepo{session: session}
	if err := repo.createTable(); err != nil {
		session.Close()
		return nil, err
	}
	logging.Logger.Infof("Event ID: CASSANDRA_CONNECTED, Description: Connected to Cassandra keyspace %s at %s", keyspace, strings.Join(hosts, ","))
	return repo, nil
}

func (r *NotificationRepo) Close() {
	r.session.Close()
	logging.Logger.Info("Event ID: CASSANDRA_CLOSED, Description: Cassandra session closed")
}

func (r *NotificationRepo) createTable() error {
	err := r.session.Query(
		`CREATE TABLE IF NOT EXISTS notifications (
			user_id TEXT,
			created_at TIMESTAMP,
			id TIMEUUID,
			message TEXT,
			is_read BOOLEAN,
			PRIMARY KEY ((user_id), created_at, id)
		) WITH CLUSTERING ORDER BY (created_at DESC, id ASC)`).Exec()
	if err != nil {
		return fmt.Errorf("failed to create notifications table: %w", err)
	}
	return nil
}

func (r *NotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	id := gocql.TimeUUID()
	if n.ID != "" {
		parsed, err := gocql.ParseUUID(n.ID)
		if err != nil {
			return fmt.Errorf("invalid notification id: %w", models.ErrValidation)
		}
		id = parsed
	}
	err := r.session.Query(
		`INSERT INTO notifications (user_id, created_at, id, message, is_read) VALUES (?, ?, ?, ?, ?)`,
		n.UserID, n.CreatedAt, id, n.Message, n.IsRead,
	).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	n.ID = id.String()
	return nil
}

func (r *NotificationRepo) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	iter := r.session.Query(
		`SELECT id, user_id, message, created_at, is_read FROM notifications WHERE user_id = ?`,
		userID,
	).WithContext(ctx).Iter()

	notifications := []models.Notification{}
	var (
		id gocql.UUID
		n  models.Notification
	)
	for iter.Scan(&id, &n.UserID, &n.Message, &n.CreatedAt, &n.IsRead) {
		n.ID = id.String()
		notifications = append(notifications, n)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, userID, id string, createdAt time.Time) error {
	uuid, err := gocql.ParseUUID(id)
	if err != nil {
		return models.ErrNotFound
	}
	applied, err := r.session.Query(
		`UPDATE notifications SET is_read = true WHERE user_id = ? AND created_at = ? AND id = ? IF EXISTS`,
		userID, createdAt, uuid,
	).WithContext(ctx).ScanCAS()
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if !applied {
		return models.ErrNotFound
	}
	return nil
}

func (r *NotificationRepo) Delete(ctx context.Context, userID, id string, createdAt time.Time) error {
	uuid, err := gocql.ParseUUID(id)
	if err != nil {
		return models.ErrNotFound
	}
	applied, err := r.session.Query(
		`DELETE FROM notifications WHERE user_id = ? AND created_at = ? AND id = ? IF EXISTS`,
		userID, createdAt, uuid,
	).WithContext(ctx).ScanCAS()
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if !applied {
		return models.ErrNotFound
	}
	return nil
}
