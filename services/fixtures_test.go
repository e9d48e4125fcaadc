package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"yoosprint/models"
	"yoosprint/repositories/memory"
	"yoosprint/services"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type notice struct {
	User    primitive.ObjectID
	Message string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notice
}

func (n *recordingNotifier) Notify(_ context.Context, userID primitive.ObjectID, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notice{User: userID, Message: message})
}

func (n *recordingNotifier) For(userID primitive.ObjectID) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, s := range n.sent {
		if s.User == userID {
			out = append(out, s.Message)
		}
	}
	return out
}

type mail struct {
	To, Subject, Body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mail
	err  error
}

func (m *fakeMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, mail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *fakeMailer) Last() mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return mail{}
	}
	return m.sent[len(m.sent)-1]
}

type fakeTokens struct{}

func (fakeTokens) GenerateToken(userID, email, role string) (string, error) {
	return "token:" + userID + ":" + role, nil
}

func (fakeTokens) TTL() time.Duration {
	return time.Hour
}

// env wires every service over in-memory stores and a shared clock.
type env struct {
	clock     *clock
	notifier  *recordingNotifier
	mailer    *fakeMailer
	backlogs  *memory.BacklogStore
	sprints   *memory.SprintStore
	projects  *memory.ProjectStore
	users     *memory.UserStore
	graph     *memory.Graph
	folders   *memory.FolderStore
	blobs     *memory.BlobStore
	backlog   *services.BacklogService
	sprint    *services.SprintService
	project   *services.ProjectService
	team      *services.TeamService
	auth      *services.AuthService
	files     *services.FileService
	deps      *services.DependencyService
	themes    *services.ThemeService
	timeline  *services.TimelineService
	tasks     *services.TaskService
	manager   services.Actor
	projectID primitive.ObjectID
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		clock:    newClock(),
		notifier: &recordingNotifier{},
		mailer:   &fakeMailer{},
		backlogs: memory.NewBacklogStore(),
		sprints:  memory.NewSprintStore(),
		projects: memory.NewProjectStore(),
		users:    memory.NewUserStore(),
		graph:    memory.NewGraph(),
		folders:  memory.NewFolderStore(),
		blobs:    memory.NewBlobStore(),
	}
	now := e.clock.Now
	e.backlog = services.NewBacklogService(e.backlogs, e.projects, e.sprints, e.graph, e.notifier).WithClock(now)
	e.sprint = services.NewSprintService(e.sprints, e.backlogs, e.projects, e.notifier).WithClock(now)
	e.project = services.NewProjectService(e.projects, e.backlogs, e.sprints, e.users, e.graph).WithClock(now)
	e.team = services.NewTeamService(e.users, e.backlogs, e.mailer).WithClock(now)
	e.auth = services.NewAuthService(e.users, e.mailer, fakeTokens{}, nil).WithClock(now)
	e.files = services.NewFileService(e.folders, e.blobs).WithClock(now)
	e.deps = services.NewDependencyService(e.graph, e.backlogs)
	e.themes = services.NewThemeService(e.users, e.backlogs)
	e.timeline = services.NewTimelineService(e.sprints, e.backlogs).WithClock(now)
	e.tasks = services.NewTaskService(memory.NewTaskStore()).WithClock(now)

	e.manager = services.Actor{ID: primitive.NewObjectID(), Role: models.RoleManager}
	p, err := e.project.Create(context.Background(), e.manager, &models.Project{Name: "Apollo"})
	require.NoError(t, err)
	e.projectID = p.ID
	return e
}

func (e *env) newItem(t *testing.T, title string) *models.Backlog {
	t.Helper()
	b, err := e.backlog.Create(context.Background(), &models.Backlog{Title: title, Project: e.projectID, StoryPoints: 3})
	require.NoError(t, err)
	return b
}

func (e *env) newUser(t *testing.T, name, email string) *models.User {
	t.Helper()
	u, err := e.auth.Register(context.Background(), services.RegisterRequest{Name: name, Email: email, Password: "Secret#123"})
	require.NoError(t, err)
	return u
}

func ptr[T any](v T) *T {
	return &v
}
