package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"yoosprint/middleware"
	"yoosprint/models"
	"yoosprint/services"
)

type Services struct {
	Auth          *services.AuthService
	Backlogs      *services.BacklogService
	Sprints       *services.SprintService
	Projects      *services.ProjectService
	Tasks         *services.TaskService
	Team          *services.TeamService
	Files         *services.FileService
	Dependencies  *services.DependencyService
	Notifications *services.NotificationService
	Themes        *services.ThemeService
	Timeline      *services.TimelineService
}

// HealthCheck reports whether a backing store is reachable.
type HealthCheck func(ctx context.Context) error

// NewRouter registers every API route. Everything under /api except the
// auth entry points requires a bearer token.
func NewRouter(s Services, tokens middleware.TokenValidator, health HealthCheck) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestLogger)

	router.HandleFunc("/health", healthHandler(health)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	auth := NewAuthHandler(s.Auth)
	public := router.PathPrefix("/api/auth").Subrouter()
	public.HandleFunc("/register", auth.Register).Methods(http.MethodPost)
	public.HandleFunc("/login", auth.Login).Methods(http.MethodPost)
	public.HandleFunc("/verify", auth.Verify).Methods(http.MethodPost)
	public.HandleFunc("/resend-code", auth.ResendCode).Methods(http.MethodPost)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(middleware.JWTAuth(tokens))
	manager := middleware.RequireRole(string(models.RoleManager), string(models.RoleAdmin))
	admin := middleware.RequireRole(string(models.RoleAdmin))
	gated := func(mw func(http.Handler) http.Handler, h http.HandlerFunc) http.Handler {
		return mw(h)
	}

	api.HandleFunc("/auth/me", auth.Me).Methods(http.MethodGet)

	backlogs := NewBacklogHandler(s.Backlogs, s.Dependencies)
	api.HandleFunc("/backlogs/timer/active", backlogs.ActiveTimer).Methods(http.MethodGet)
	api.HandleFunc("/backlogs", backlogs.List).Methods(http.MethodGet)
	api.HandleFunc("/backlogs", backlogs.Create).Methods(http.MethodPost)
	api.HandleFunc("/backlogs/{id}", backlogs.Get).Methods(http.MethodGet)
	api.HandleFunc("/backlogs/{id}", backlogs.Update).Methods(http.MethodPut)
	api.HandleFunc("/backlogs/{id}", backlogs.Delete).Methods(http.MethodDelete)
	api.HandleFunc("/backlogs/{id}/checklist", backlogs.AddChecklistItem).Methods(http.MethodPost)
	api.HandleFunc("/backlogs/{id}/checklist/{itemId}", backlogs.UpdateChecklistItem).Methods(http.MethodPut)
	api.HandleFunc("/backlogs/{id}/checklist/{itemId}", backlogs.RemoveChecklistItem).Methods(http.MethodDelete)
	api.HandleFunc("/backlogs/{id}/timer/start", backlogs.StartTimer).Methods(http.MethodPost)
	api.HandleFunc("/backlogs/{id}/timer/stop", backlogs.StopTimer).Methods(http.MethodPost)
	api.HandleFunc("/backlogs/{id}/dependencies", backlogs.ListDependencies).Methods(http.MethodGet)
	api.HandleFunc("/backlogs/{id}/dependencies", backlogs.AddDependency).Methods(http.MethodPost)
	api.HandleFunc("/backlogs/{id}/dependencies/{dependsOn}", backlogs.RemoveDependency).Methods(http.MethodDelete)

	sprints := NewSprintHandler(s.Sprints, s.Timeline)
	api.HandleFunc("/sprints", sprints.List).Methods(http.MethodGet)
	api.Handle("/sprints", gated(manager, sprints.Create)).Methods(http.MethodPost)
	api.HandleFunc("/sprints/{id}", sprints.Get).Methods(http.MethodGet)
	api.Handle("/sprints/{id}", gated(manager, sprints.Update)).Methods(http.MethodPut)
	api.Handle("/sprints/{id}", gated(manager, sprints.Delete)).Methods(http.MethodDelete)
	api.Handle("/sprints/{id}/backlogs", gated(manager, sprints.AddItems)).Methods(http.MethodPost)
	api.Handle("/sprints/{id}/backlogs/{backlogId}", gated(manager, sprints.RemoveItem)).Methods(http.MethodDelete)
	api.HandleFunc("/timeline", sprints.Timeline).Methods(http.MethodGet)

	projects := NewProjectHandler(s.Projects, s.Dependencies)
	api.HandleFunc("/projects", projects.List).Methods(http.MethodGet)
	api.Handle("/projects", gated(manager, projects.Create)).Methods(http.MethodPost)
	api.HandleFunc("/projects/{id}", projects.Get).Methods(http.MethodGet)
	api.Handle("/projects/{id}", gated(manager, projects.Update)).Methods(http.MethodPut)
	api.Handle("/projects/{id}", gated(manager, projects.Delete)).Methods(http.MethodDelete)
	api.Handle("/projects/{id}/members", gated(manager, projects.AddMember)).Methods(http.MethodPost)
	api.Handle("/projects/{id}/members/{userId}", gated(manager, projects.RemoveMember)).Methods(http.MethodDelete)
	api.HandleFunc("/projects/{id}/dependency-graph", projects.DependencyGraph).Methods(http.MethodGet)

	tasks := NewTaskHandler(s.Tasks)
	api.HandleFunc("/tasks", tasks.List).Methods(http.MethodGet)
	api.HandleFunc("/tasks", tasks.Create).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}", tasks.Get).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}", tasks.Update).Methods(http.MethodPut)
	api.HandleFunc("/tasks/{id}", tasks.Delete).Methods(http.MethodDelete)

	users := NewUserHandler(s.Team, s.Themes)
	api.HandleFunc("/users", users.List).Methods(http.MethodGet)
	api.Handle("/users", gated(manager, users.Invite)).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}", users.Get).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", users.Update).Methods(http.MethodPut)
	api.Handle("/users/{id}", gated(admin, users.Delete)).Methods(http.MethodDelete)
	api.HandleFunc("/themes", users.Themes).Methods(http.MethodGet)
	api.HandleFunc("/themes/current", users.SelectTheme).Methods(http.MethodPut)

	files := NewFileHandler(s.Files)
	api.HandleFunc("/file-folders", files.ListFolders).Methods(http.MethodGet)
	api.HandleFunc("/file-folders", files.CreateFolder).Methods(http.MethodPost)
	api.HandleFunc("/file-folders/{id}", files.GetFolder).Methods(http.MethodGet)
	api.HandleFunc("/file-folders/{id}", files.UpdateFolder).Methods(http.MethodPut)
	api.HandleFunc("/file-folders/{id}", files.DeleteFolder).Methods(http.MethodDelete)
	api.HandleFunc("/file-folders/{id}/files", files.Upload).Methods(http.MethodPost)
	api.HandleFunc("/file-folders/{id}/files/{fileId}", files.Download).Methods(http.MethodGet)
	api.HandleFunc("/file-folders/{id}/files/{fileId}", files.DeleteFile).Methods(http.MethodDelete)

	notifications := NewNotificationHandler(s.Notifications)
	api.HandleFunc("/notifications", notifications.List).Methods(http.MethodGet)
	api.HandleFunc("/notifications/read", notifications.MarkRead).Methods(http.MethodPut)
	api.HandleFunc("/notifications", notifications.Delete).Methods(http.MethodDelete)

	return router
}

func healthHandler(check HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
