package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/readsync/weread2notion/internal/config"
	"github.com/readsync/weread2notion/internal/covers"
	"github.com/readsync/weread2notion/internal/database"
	coversrepo "github.com/readsync/weread2notion/internal/database/covers"
	syncrepo "github.com/readsync/weread2notion/internal/database/sync"
	"github.com/readsync/weread2notion/internal/notion"
	"github.com/readsync/weread2notion/internal/services"
)

// SyncCommand runs a one-shot sync of TXT exports to Notion.
type SyncCommand struct {
	NotesDir     string
	DatabasePath string
	DryRun       bool
	NoCover      bool
	Timeout      time.Duration
}

// NewSyncCommand creates a new SyncCommand.
func NewSyncCommand() *SyncCommand {
	return &SyncCommand{}
}

// ParseFlags parses command line flags.
func (cmd *SyncCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)

	fs.StringVar(&cmd.NotesDir, "dir", "", "Directory containing TXT exports (default: NOTES_DIR)")
	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the local state database (default: DATABASE_PATH)")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "Parse only, skip all Notion writes")
	fs.BoolVar(&cmd.NoCover, "no-cover", false, "Disable cover image lookups")
	fs.DurationVar(&cmd.Timeout, "timeout", 30*time.Minute, "Overall sync timeout")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s sync [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Sync WeChat Read exports to Notion once and exit.\n\n")
		fmt.Fprintf(os.Stderr, "Requires NOTION_TOKEN, NOTION_NOTES_DB, NOTION_BOOKS_DB and\n")
		fmt.Fprintf(os.Stderr, "NOTION_DAILY_DB to be set unless -dry-run is given.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s sync\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s sync -dry-run\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s sync -dir ~/exports -no-cover\n", os.Args[0])
	}

	return fs.Parse(args)
}

// Run executes the sync command.
func (cmd *SyncCommand) Run() error {
	cfg := config.NewConfig()
	if cmd.NotesDir == "" {
		cmd.NotesDir = cfg.Notes.Dir
	}
	if cmd.DatabasePath == "" {
		cmd.DatabasePath = cfg.Database.Path
	}

	if cmd.DryRun {
		svc := services.NewSyncService(nil, nil, nil, nil, nil, nil, cmd.NotesDir)
		notes, daily, files, err := svc.ParseNotes()
		if err != nil {
			return err
		}
		fmt.Printf("[dry-run] Parsed %d notes across %d files (%d active days), skipping Notion sync\n",
			len(notes), len(files), len(daily))
		return nil
	}

	if err := cfg.ValidateNotion(); err != nil {
		return err
	}

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer db.Close()

	client := notion.NewClient(cfg.Notion.Token)
	svc := services.NewSyncService(
		notion.NewBooksRepo(client, cfg.Notion.BooksDB),
		notion.NewNotesRepo(client, cfg.Notion.NotesDB),
		notion.NewDailyRepo(client, cfg.Notion.DailyDB),
		covers.NewFetcher(coversrepo.NewRepository(db.DB)),
		nil, // no task queue in one-shot mode, covers are fetched inline
		syncrepo.NewRepository(db.DB),
		cmd.NotesDir,
	)

	ctx, cancel := context.WithTimeout(context.Background(), cmd.Timeout)
	defer cancel()

	result, err := svc.Sync(ctx, services.SyncOptions{
		FetchCovers: !cmd.NoCover && cfg.Covers.FetchEnabled,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Synced %d notes from %d books (%d new, %d skipped, %d failed), %d daily rows\n",
		result.Notes, result.Books, result.NotesCreated, result.NotesSkipped, result.NotesFailed, result.DailyRows)
	return nil
}
