package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Notion
		Notes
		Sync
		Covers
		Heatmap
		Global
		Database
		Tasks
	}

	HTTP struct {
		Port int32
		Host string
	}
	Notion struct {
		Token   string
		NotesDB string
		BooksDB string
		DailyDB string
	}
	Notes struct {
		Dir string // Directory containing WeChat Read TXT exports
	}
	Sync struct {
		Enabled  bool
		Schedule string // Cron format: "0 6 * * *" = daily at 06:00
	}
	Covers struct {
		FetchEnabled bool
	}
	Heatmap struct {
		OutputDir string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8189)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("notes_dir", DefaultNotesDir)
	v.SetDefault("sync_enabled", false)
	v.SetDefault("sync_schedule", "0 6 * * *") // Daily at 06:00
	v.SetDefault("cover_fetch_enabled", true)
	v.SetDefault("heatmap_output_dir", DefaultHeatmapOutputDir)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Notion: Notion{
			Token:   v.GetString("NOTION_TOKEN"),
			NotesDB: v.GetString("NOTION_NOTES_DB"),
			BooksDB: v.GetString("NOTION_BOOKS_DB"),
			DailyDB: v.GetString("NOTION_DAILY_DB"),
		},
		Notes: Notes{
			Dir: v.GetString("NOTES_DIR"),
		},
		Sync: Sync{
			Enabled:  v.GetBool("SYNC_ENABLED"),
			Schedule: v.GetString("SYNC_SCHEDULE"),
		},
		Covers: Covers{
			FetchEnabled: v.GetBool("COVER_FETCH_ENABLED"),
		},
		Heatmap: Heatmap{
			OutputDir: v.GetString("HEATMAP_OUTPUT_DIR"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
	}
}

// ValidateNotion checks that every credential a Notion sync needs is
// present. Parsing and heatmap generation work without them.
func (c *Config) ValidateNotion() error {
	var missing []string
	if c.Notion.Token == "" {
		missing = append(missing, "NOTION_TOKEN")
	}
	if c.Notion.NotesDB == "" {
		missing = append(missing, "NOTION_NOTES_DB")
	}
	if c.Notion.BooksDB == "" {
		missing = append(missing, "NOTION_BOOKS_DB")
	}
	if c.Notion.DailyDB == "" {
		missing = append(missing, "NOTION_DAILY_DB")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing Notion config: %v", missing)
	}
	return nil
}
