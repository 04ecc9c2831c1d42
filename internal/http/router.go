// Package http exposes the sync trigger, sync status, and heatmap
// endpoints over a gin router.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/readsync/weread2notion/internal/database"
	"github.com/readsync/weread2notion/internal/entities"
	"github.com/readsync/weread2notion/internal/wereader"
)

// SyncTrigger starts background syncs and reports whether one is active.
type SyncTrigger interface {
	RunNow() error
	IsSyncing() bool
}

// ProgressStore reads the persisted sync progress.
type ProgressStore interface {
	GetSyncProgress() (*entities.SyncProgress, error)
}

// NotesParser parses the configured exports without touching the
// remote store.
type NotesParser interface {
	ParseNotes() ([]wereader.Note, wereader.DailyCounts, []string, error)
}

// HeatmapRenderer renders a year of activity as SVG.
type HeatmapRenderer interface {
	RenderSVG(counts wereader.DailyCounts, year int) string
}

// RouterConfig carries the dependencies for route registration.
type RouterConfig struct {
	DB       *database.Database
	Trigger  SyncTrigger
	Progress ProgressStore
	Parser   NotesParser
	Renderer HeatmapRenderer
	Version  string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	healthController := NewHealthController(cfg.DB, cfg.Version)
	router.GET("/health", healthController.Status)

	syncController := NewSyncController(cfg.Trigger, cfg.Progress)
	router.POST("/api/sync", syncController.Trigger)
	router.GET("/api/sync/status", syncController.Status)

	heatmapController := NewHeatmapController(cfg.Parser, cfg.Renderer)
	router.GET("/api/heatmap/:year", heatmapController.Year)

	return router
}
