// Package entrypoint wires the application together and runs the HTTP
// server with graceful shutdown.
package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/readsync/weread2notion/internal/config"
	"github.com/readsync/weread2notion/internal/covers"
	"github.com/readsync/weread2notion/internal/database"
	coversrepo "github.com/readsync/weread2notion/internal/database/covers"
	syncrepo "github.com/readsync/weread2notion/internal/database/sync"
	"github.com/readsync/weread2notion/internal/heatmap"
	http_controllers "github.com/readsync/weread2notion/internal/http"
	"github.com/readsync/weread2notion/internal/notion"
	"github.com/readsync/weread2notion/internal/scheduler"
	"github.com/readsync/weread2notion/internal/services"
	"github.com/readsync/weread2notion/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop scheduler and task queue before the listener
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting weread2notion v%s", version)

	if err := cfg.ValidateNotion(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if _, err := os.Stat(cfg.Notes.Dir); os.IsNotExist(err) {
		log.Fatalf("Notes directory %s does not exist", cfg.Notes.Dir)
	}

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	client := notion.NewClient(cfg.Notion.Token)
	booksRepo := notion.NewBooksRepo(client, cfg.Notion.BooksDB)
	notesRepo := notion.NewNotesRepo(client, cfg.Notion.NotesDB)
	dailyRepo := notion.NewDailyRepo(client, cfg.Notion.DailyDB)

	coverFetcher := covers.NewFetcher(coversrepo.NewRepository(db.DB))
	syncProgress := syncrepo.NewRepository(db.DB)

	// Task queue for background cover fetches
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var coverEnqueuer *tasks.Enqueuer
	if cfg.Tasks.Enabled && cfg.Covers.FetchEnabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewFetchCoverQueue(coverFetcher, booksRepo),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		coverEnqueuer = tasks.NewEnqueuer(taskClient)
	}

	syncService := services.NewSyncService(
		booksRepo,
		notesRepo,
		dailyRepo,
		coverFetcher,
		enqueuerOrNil(coverEnqueuer),
		syncProgress,
		cfg.Notes.Dir,
	)

	syncScheduler := scheduler.NewNotesSyncScheduler(syncService, scheduler.Config{
		Enabled:     cfg.Sync.Enabled,
		Schedule:    cfg.Sync.Schedule,
		FetchCovers: cfg.Covers.FetchEnabled,
	})
	if err := syncScheduler.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start sync scheduler: %v", err)
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		DB:       db,
		Trigger:  syncScheduler,
		Progress: syncProgress,
		Parser:   syncService,
		Renderer: heatmap.NewRenderer(),
		Version:  version,
	})

	onShutdown := func(ctx context.Context) {
		syncScheduler.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}

// enqueuerOrNil avoids handing the service a non-nil interface wrapping
// a nil pointer.
func enqueuerOrNil(e *tasks.Enqueuer) services.CoverTaskEnqueuer {
	if e == nil {
		return nil
	}
	return e
}
