package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"yoosprint/logging"
	"yoosprint/metrics"
	"yoosprint/models"
)

// NotificationService stores user notifications behind a circuit breaker.
// It also serves as the Notifier for the other services.
type NotificationService struct {
	store   NotificationStore
	breaker *gobreaker.CircuitBreaker
	now     func() time.Time
}

func NewNotificationService(store NotificationStore, breaker *gobreaker.CircuitBreaker) *NotificationService {
	return &NotificationService{store: store, breaker: breaker, now: time.Now}
}

func (s *NotificationService) WithClock(now func() time.Time) *NotificationService {
	s.now = now
	return s
}

// Notify never fails the caller. Undeliverable notifications are logged
// and counted.
func (s *NotificationService) Notify(ctx context.Context, userID primitive.ObjectID, message string) {
	if err := s.Create(ctx, userID.Hex(), message); err != nil {
		metrics.NotificationsDropped.Inc()
		logging.Logger.Warnf("Event ID: NOTIFICATION_DROPPED, Description: Notification for %s dropped: %v", userID.Hex(), err)
	}
}

func (s *NotificationService) Create(ctx context.Context, userID, message string) error {
	if userID == "" || strings.TrimSpace(message) == "" {
		return invalid("userID and message are required")
	}
	n := &models.Notification{
		UserID:    userID,
		Message:   message,
		CreatedAt: s.now().UTC().Truncate(time.Millisecond),
	}
	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.store.Create(ctx, n)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("notification store is down: %w", ErrUnavailable)
	}
	return err
}

func (s *NotificationService) List(ctx context.Context, userID string) ([]models.Notification, error) {
	notifications, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if notifications == nil {
		notifications = []models.Notification{}
	}
	return notifications, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, id string, createdAt time.Time) error {
	if id == "" || createdAt.IsZero() {
		return invalid("id and createdAt are required")
	}
	return wrapLookup(s.store.MarkRead(ctx, userID, id, createdAt), "notification")
}

func (s *NotificationService) Delete(ctx context.Context, userID, id string, createdAt time.Time) error {
	if id == "" || createdAt.IsZero() {
		return invalid("id and createdAt are required")
	}
	return wrapLookup(s.store.Delete(ctx, userID, id, createdAt), "notification")
}
