package services

import (
	"context"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"yoosprint/models"
)

// Stores return models.ErrNotFound for missing documents and
// models.ErrConflict for unique-index violations.

type BacklogStore interface {
	Insert(ctx context.Context, b *models.Backlog) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Backlog, error)
	Find(ctx context.Context, f models.BacklogFilter) ([]models.Backlog, error)
	Replace(ctx context.Context, b *models.Backlog) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error)
	CompletedPointsByAssignee(ctx context.Context, userID primitive.ObjectID) (int, error)
}

type SprintStore interface {
	Insert(ctx context.Context, s *models.Sprint) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Sprint, error)
	Find(ctx context.Context, f models.SprintFilter) ([]models.Sprint, error)
	Replace(ctx context.Context, s *models.Sprint) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error)
}

type ProjectStore interface {
	Insert(ctx context.Context, p *models.Project) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
	Find(ctx context.Context, f models.ProjectFilter) ([]models.Project, error)
	Replace(ctx context.Context, p *models.Project) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type TaskStore interface {
	Insert(ctx context.Context, t *models.Task) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	Find(ctx context.Context, f models.TaskFilter) ([]models.Task, error)
	Replace(ctx context.Context, t *models.Task) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type UserStore interface {
	Insert(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Find(ctx context.Context, f models.UserFilter) ([]models.User, error)
	Replace(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	// ClearExpiredCodes drops verification codes that expired before now.
	ClearExpiredCodes(ctx context.Context, now time.Time) (int64, error)
}

type FolderStore interface {
	Insert(ctx context.Context, f *models.FileFolder) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.FileFolder, error)
	Find(ctx context.Context, f models.FolderFilter) ([]models.FileFolder, error)
	Replace(ctx context.Context, f *models.FileFolder) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type BlobStore interface {
	Upload(ctx context.Context, name string, r io.Reader) (blobID string, size int64, err error)
	Open(ctx context.Context, blobID string) (io.ReadCloser, error)
	Delete(ctx context.Context, blobID string) error
}

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID string) ([]models.Notification, error)
	MarkRead(ctx context.Context, userID, id string, createdAt time.Time) error
	Delete(ctx context.Context, userID, id string, createdAt time.Time) error
}

// DependencyGraph stores "from depends on to" edges between backlog items.
type DependencyGraph interface {
	AddDependency(ctx context.Context, projectID, from, to string) error
	RemoveDependency(ctx context.Context, from, to string) error
	DependenciesOf(ctx context.Context, id string) ([]string, error)
	// HasPath reports whether from reaches to along dependency edges.
	HasPath(ctx context.Context, from, to string) (bool, error)
	ProjectEdges(ctx context.Context, projectID string) ([]models.DependencyEdge, error)
	RemoveNode(ctx context.Context, id string) error
}

type Mailer interface {
	Send(to, subject, body string) error
}

// Notifier delivers best-effort user notifications. Failures are handled
// by the implementation and never reach the caller.
type Notifier interface {
	Notify(ctx context.Context, userID primitive.ObjectID, message string)
}

type TokenIssuer interface {
	GenerateToken(userID, email, role string) (string, error)
	TTL() time.Duration
}
