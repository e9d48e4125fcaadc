package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"yoosprint/config"
	"yoosprint/handlers"
	"yoosprint/logging"
	"yoosprint/middleware"
	"yoosprint/repositories"
	"yoosprint/services"
	"yoosprint/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Logger.Fatalf("Event ID: CONFIG_LOAD_FAILED, Description: Failed to load configuration: %v", err)
	}
	logging.InitLogger(logging.Options{SystemName: "yoosprint", File: cfg.LogFile, Level: cfg.LogLevel, Stdout: true})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := repositories.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		logging.Logger.Fatalf("Event ID: MONGO_CONNECT_FAILED, Description: %v", err)
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(disconnectCtx)
	}()
	db := client.Database(cfg.MongoDBName)
	if err := repositories.EnsureIndexes(ctx, db); err != nil {
		logging.Logger.Fatalf("Event ID: MONGO_INDEX_FAILED, Description: %v", err)
	}
	blobs, err := repositories.NewGridFSBlobStore(db)
	if err != nil {
		logging.Logger.Fatalf("Event ID: GRIDFS_INIT_FAILED, Description: %v", err)
	}

	var notificationStore services.NotificationStore = repositories.LogNotificationStore{}
	if len(cfg.CassandraHosts) > 0 {
		repo, err := repositories.NewNotificationRepo(cfg.CassandraHosts, cfg.CassandraKeyspace)
		if err != nil {
			logging.Logger.Errorf("Event ID: CASSANDRA_UNAVAILABLE, Description: Notifications will only be logged: %v", err)
		} else {
			defer repo.Close()
			notificationStore = repo
		}
	}

	var graph services.DependencyGraph = repositories.DisabledGraph{}
	if cfg.Neo4jURI != "" {
		driver, err := repositories.ConnectNeo4j(ctx, cfg.Neo4jURI, cfg.Neo4jUsername, cfg.Neo4jPassword)
		if err != nil {
			logging.Logger.Errorf("Event ID: NEO4J_UNAVAILABLE, Description: Dependency tracking disabled: %v", err)
		} else {
			defer func(d neo4j.DriverWithContext) { _ = d.Close(context.Background()) }(driver)
			graph = repositories.NewDependencyGraph(driver)
		}
	}

	var mailer services.Mailer = utils.LogMailer{}
	if cfg.Email.Enabled() {
		mailer = utils.NewSMTPMailer(cfg.Email)
	}
	mailer = utils.NewBreakerMailer(mailer, utils.NewBreaker("smtp", 30*time.Second))

	var blackList map[string]bool
	if cfg.PasswordBlacklist != "" {
		if blackList, err = utils.LoadBlackList(cfg.PasswordBlacklist); err != nil {
			logging.Logger.Fatalf("Event ID: BLACKLIST_LOAD_FAILED, Description: %v", err)
		}
	}

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	backlogStore := repositories.NewBacklogRepo(db)
	sprintStore := repositories.NewSprintRepo(db)
	projectStore := repositories.NewProjectRepo(db)
	userStore := repositories.NewUserRepo(db)

	notifications := services.NewNotificationService(notificationStore, utils.NewBreaker("cassandra", 30*time.Second))
	auth := services.NewAuthService(userStore, mailer, tokens, blackList)
	svc := handlers.Services{
		Auth:          auth,
		Backlogs:      services.NewBacklogService(backlogStore, projectStore, sprintStore, graph, notifications),
		Sprints:       services.NewSprintService(sprintStore, backlogStore, projectStore, notifications),
		Projects:      services.NewProjectService(projectStore, backlogStore, sprintStore, userStore, graph),
		Tasks:         services.NewTaskService(repositories.NewTaskRepo(db)),
		Team:          services.NewTeamService(userStore, backlogStore, mailer),
		Files:         services.NewFileService(repositories.NewFolderRepo(db), blobs),
		Dependencies:  services.NewDependencyService(graph, backlogStore),
		Notifications: notifications,
		Themes:        services.NewThemeService(userStore, backlogStore),
		Timeline:      services.NewTimelineService(sprintStore, backlogStore),
	}

	go auth.RunSweeper(ctx, time.Minute)

	router := handlers.NewRouter(svc, tokens, func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	})
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           middleware.CORS(cfg.CORSOrigin)(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logging.Logger.Infof("Event ID: SERVER_STARTED, Description: YooSprint API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Fatalf("Event ID: SERVER_FAILED, Description: %v", err)
		}
	}()

	<-ctx.Done()
	logging.Logger.Info("Event ID: SERVER_SHUTDOWN, Description: Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Logger.Errorf("Event ID: SERVER_SHUTDOWN_FAILED, Description: %v", err)
	}
}
