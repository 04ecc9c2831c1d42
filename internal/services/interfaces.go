package services

import (
	"context"
	"time"

	"github.com/readsync/weread2notion/internal/wereader"
)

// BookStore upserts book pages in the remote store.
type BookStore interface {
	Upsert(ctx context.Context, title, author string, lastNoteDate time.Time, coverURL string) (string, error)
}

// NoteStore upserts note pages and maintains the per-book note listing.
type NoteStore interface {
	Upsert(ctx context.Context, note *wereader.Note, bookPageID string) (string, bool, error)
	EmbedInBookPage(ctx context.Context, bookPageID, bookTitle string, notes []wereader.Note) error
}

// DailyStore upserts per-date activity rows.
type DailyStore interface {
	Upsert(ctx context.Context, day time.Time, count int) (string, error)
}

// CoverFetcher resolves a cover image URL for a book. An empty URL with
// a nil error means no provider had a cover.
type CoverFetcher interface {
	FetchURL(ctx context.Context, title, author string) (string, error)
}

// CoverTaskEnqueuer schedules a background cover fetch for a book page.
// When available it is preferred over inline fetching so the sync pass
// stays fast.
type CoverTaskEnqueuer interface {
	EnqueueFetchCover(bookPageID, title, author string) error
}

// ProgressReporter persists the state of an ongoing sync.
type ProgressReporter interface {
	StartSync(totalItems int) error
	UpdateProgress(processed, succeeded, failed, skipped int, currentItem string) error
	CompleteSync(succeeded bool, errorMsg string) error
	IsSyncRunning() (bool, error)
}

// SyncResult contains the outcome of a sync run.
type SyncResult struct {
	Files        int
	Notes        int
	Books        int
	NotesCreated int
	NotesSkipped int
	NotesFailed  int
	DailyRows    int
	DryRun       bool
}
