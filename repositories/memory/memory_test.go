package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"yoosprint/models"
)

func TestBacklogStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewBacklogStore()
	b := &models.Backlog{ID: primitive.NewObjectID(), Title: "A", Project: primitive.NewObjectID()}
	b.ApplyDefaults()
	require.NoError(t, store.Insert(ctx, b))

	got, err := store.FindByID(ctx, b.ID)
	require.NoError(t, err)
	got.Title = "changed"

	again, err := store.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", again.Title)

	assert.True(t, errors.Is(store.Insert(ctx, b), models.ErrConflict))
	_, err = store.FindByID(ctx, primitive.NewObjectID())
	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestBacklogStoreOneRunningTimerPerUser(t *testing.T) {
	ctx := context.Background()
	store := NewBacklogStore()
	user := primitive.NewObjectID()
	now := time.Now()

	a := &models.Backlog{ID: primitive.NewObjectID(), Title: "A", Project: primitive.NewObjectID()}
	b := &models.Backlog{ID: primitive.NewObjectID(), Title: "B", Project: a.Project}
	require.NoError(t, store.Insert(ctx, a))
	require.NoError(t, store.Insert(ctx, b))

	a.StartTimer(now, user)
	require.NoError(t, store.Replace(ctx, a))
	require.NoError(t, store.Replace(ctx, a))

	b.StartTimer(now, user)
	assert.True(t, errors.Is(store.Replace(ctx, b), models.ErrConflict))

	other := primitive.NewObjectID()
	b.TimerStartedBy = &other
	require.NoError(t, store.Replace(ctx, b))

	a.StopTimer(now)
	require.NoError(t, store.Replace(ctx, a))
	b.TimerStartedBy = &user
	require.NoError(t, store.Replace(ctx, b))
}

func TestUserStoreUniqueEmailAndSweep(t *testing.T) {
	ctx := context.Background()
	store := NewUserStore()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	expired := now.Add(-time.Second)

	u := &models.User{ID: primitive.NewObjectID(), Name: "Ana", Email: "ana@example.com", VerificationCode: "123456", VerificationExpiry: &expired}
	require.NoError(t, store.Insert(ctx, u))

	dup := &models.User{ID: primitive.NewObjectID(), Name: "Other", Email: "ANA@example.com"}
	assert.True(t, errors.Is(store.Insert(ctx, dup), models.ErrConflict))

	n, err := store.ClearExpiredCodes(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := store.FindByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Empty(t, got.VerificationCode)
	assert.Nil(t, got.VerificationExpiry)
}

func TestGraphHasPath(t *testing.T) {
	ctx := context.Background()
	g := NewGraph()
	require.NoError(t, g.AddDependency(ctx, "p", "a", "b"))
	require.NoError(t, g.AddDependency(ctx, "p", "b", "c"))

	ok, err := g.HasPath(ctx, "a", "c")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = g.HasPath(ctx, "c", "a")
	assert.False(t, ok)

	edges, _ := g.ProjectEdges(ctx, "p")
	assert.Equal(t, []models.DependencyEdge{{From: "a", To: "b"}, {From: "b", To: "c"}}, edges)

	require.NoError(t, g.RemoveNode(ctx, "b"))
	deps, _ := g.DependenciesOf(ctx, "a")
	assert.Empty(t, deps)
	assert.True(t, errors.Is(g.RemoveDependency(ctx, "a", "b"), models.ErrNotFound))
}

func TestBlobStore(t *testing.T) {
	ctx := context.Background()
	s := NewBlobStore()
	id, size, err := s.Upload(ctx, "notes.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), size)

	rc, err := s.Open(ctx, id)
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	assert.Equal(t, "hello", string(data))

	require.NoError(t, s.Delete(ctx, id))
	_, err = s.Open(ctx, id)
	assert.True(t, errors.Is(err, models.ErrNotFound))
}
