package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"yoosprint/models"
)

type BlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[string][]byte)}
}

func (s *BlobStore) Upload(_ context.Context, _ string, r io.Reader) (string, int64, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read upload: %w", err)
	}
	id := uuid.NewString()
	s.mu.Lock()
	s.blobs[id] = data
	s.mu.Unlock()
	return id, int64(len(data)), nil
}

func (s *BlobStore) Open(_ context.Context, blobID string) (io.ReadCloser, error) {
	s.mu.RLock()
	data, ok := s.blobs[blobID]
	s.mu.RUnlock()
	if !ok {
		return nil, models.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *BlobStore) Delete(_ context.Context, blobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[blobID]; !ok {
		return models.ErrNotFound
	}
	delete(s.blobs, blobID)
	return nil
}

func (s *BlobStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// NotificationStore mirrors the Cassandra table: partitioned by user and
// keyed by (created_at, id) within the partition.
type NotificationStore struct {
	mu     sync.Mutex
	byUser map[string][]models.Notification
	// Fail, when set, is returned by Create.
	Fail error
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{byUser: make(map[string][]models.Notification)}
}

func (s *NotificationStore) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	if n.ID == "" {
		n.ID = gocql.TimeUUID().String()
	}
	s.byUser[n.UserID] = append(s.byUser[n.UserID], *n)
	return nil
}

func (s *NotificationStore) ListByUser(_ context.Context, userID string) ([]models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]models.Notification{}, s.byUser[userID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *NotificationStore) MarkRead(_ context.Context, userID, id string, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(userID, id, createdAt)
	if i < 0 {
		return models.ErrNotFound
	}
	s.byUser[userID][i].IsRead = true
	return nil
}

func (s *NotificationStore) Delete(_ context.Context, userID, id string, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(userID, id, createdAt)
	if i < 0 {
		return models.ErrNotFound
	}
	list := s.byUser[userID]
	s.byUser[userID] = append(list[:i], list[i+1:]...)
	return nil
}

func (s *NotificationStore) indexLocked(userID, id string, createdAt time.Time) int {
	for i, n := range s.byUser[userID] {
		if n.ID == id && n.CreatedAt.Equal(createdAt) {
			return i
		}
	}
	return -1
}
