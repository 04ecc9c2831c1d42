// Package services contains the business logic for turning WeChat Read
// TXT exports into Notion pages and activity rows.
package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/readsync/weread2notion/internal/wereader"
)

// ErrSyncRunning is returned when a sync is requested while another one
// is still in progress.
var ErrSyncRunning = errors.New("a sync is already running")

// SyncOptions tweak a single sync run.
type SyncOptions struct {
	// DryRun parses the exports but skips all remote writes.
	DryRun bool
	// FetchCovers enables cover lookups for upserted books.
	FetchCovers bool
}

// SyncService parses every TXT export under the notes directory and
// upserts books, notes, and daily activity into the remote store, in
// that order.
type SyncService struct {
	books      BookStore
	notes      NoteStore
	daily      DailyStore
	covers     CoverFetcher
	coverTasks CoverTaskEnqueuer
	progress   ProgressReporter
	notesDir   string
}

// NewSyncService creates a sync service. covers and coverTasks may be
// nil; with both set, background tasks win and inline fetching is
// skipped.
func NewSyncService(
	books BookStore,
	notes NoteStore,
	daily DailyStore,
	covers CoverFetcher,
	coverTasks CoverTaskEnqueuer,
	progress ProgressReporter,
	notesDir string,
) *SyncService {
	return &SyncService{
		books:      books,
		notes:      notes,
		daily:      daily,
		covers:     covers,
		coverTasks: coverTasks,
		progress:   progress,
		notesDir:   notesDir,
	}
}

// GatherFiles lists the TXT exports under the notes directory, sorted
// by path for deterministic parse order.
func (s *SyncService) GatherFiles() ([]string, error) {
	var files []string
	err := filepath.WalkDir(s.notesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".txt") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan notes dir %s: %w", s.notesDir, err)
	}
	sort.Strings(files)
	return files, nil
}

// ParseNotes parses every export file and returns the records, the
// per-date counts, and the files that were read.
func (s *SyncService) ParseNotes() ([]wereader.Note, wereader.DailyCounts, []string, error) {
	files, err := s.GatherFiles()
	if err != nil {
		return nil, nil, nil, err
	}
	notes, daily, err := wereader.ParseFiles(files)
	if err != nil {
		return nil, nil, files, err
	}
	return notes, daily, files, nil
}

// Sync runs a full parse-and-upsert pass.
func (s *SyncService) Sync(ctx context.Context, opts SyncOptions) (SyncResult, error) {
	if running, err := s.progress.IsSyncRunning(); err != nil {
		return SyncResult{}, fmt.Errorf("check sync state: %w", err)
	} else if running {
		return SyncResult{}, ErrSyncRunning
	}

	notes, daily, files, err := s.ParseNotes()
	if err != nil {
		return SyncResult{}, err
	}

	result := SyncResult{
		Files:  len(files),
		Notes:  len(notes),
		DryRun: opts.DryRun,
	}
	log.Printf("Notes sync: parsed %d notes across %d files", len(notes), len(files))

	if len(files) == 0 {
		log.Printf("Notes sync: no TXT files found in %s", s.notesDir)
		return result, nil
	}
	if opts.DryRun {
		log.Printf("Notes sync: dry run, skipping remote writes")
		return result, nil
	}

	if err := s.progress.StartSync(len(notes)); err != nil {
		return result, fmt.Errorf("start sync progress: %w", err)
	}

	err = s.sync(ctx, notes, daily, opts, &result)
	if err != nil {
		_ = s.progress.CompleteSync(false, err.Error())
		return result, err
	}
	if err := s.progress.CompleteSync(true, ""); err != nil {
		return result, fmt.Errorf("complete sync progress: %w", err)
	}
	return result, nil
}

func (s *SyncService) sync(ctx context.Context, notes []wereader.Note, daily wereader.DailyCounts, opts SyncOptions, result *SyncResult) error {
	books := uniqueBooks(notes)
	result.Books = len(books)

	bookPages := make(map[string]string, len(books))
	for _, book := range books {
		coverURL := ""
		if opts.FetchCovers && s.coverTasks == nil && s.covers != nil {
			url, err := s.covers.FetchURL(ctx, book.Title, book.Author)
			if err != nil {
				log.Printf("Notes sync: cover lookup failed for %q: %v", book.Title, err)
			} else {
				coverURL = url
			}
		}

		pageID, err := s.books.Upsert(ctx, book.Title, book.Author, book.LastNoteDate, coverURL)
		if err != nil {
			return fmt.Errorf("upsert book %q: %w", book.Title, err)
		}
		bookPages[book.Title] = pageID

		if opts.FetchCovers && s.coverTasks != nil {
			if err := s.coverTasks.EnqueueFetchCover(pageID, book.Title, book.Author); err != nil {
				log.Printf("Notes sync: failed to enqueue cover fetch for %q: %v", book.Title, err)
			}
		}
	}
	log.Printf("Notes sync: upserted %d books", len(books))

	processed := 0
	for i := range notes {
		note := &notes[i]
		_, created, err := s.notes.Upsert(ctx, note, bookPages[note.BookTitle])
		processed++
		switch {
		case err != nil:
			result.NotesFailed++
			log.Printf("Notes sync: failed to upsert note for %q: %v", note.BookTitle, err)
		case created:
			result.NotesCreated++
		default:
			result.NotesSkipped++
		}
		if err := s.progress.UpdateProgress(processed, result.NotesCreated, result.NotesFailed, result.NotesSkipped, note.BookTitle); err != nil {
			log.Printf("Notes sync: failed to record progress: %v", err)
		}
	}
	log.Printf("Notes sync: upserted %d notes (%d new, %d skipped, %d failed)",
		len(notes), result.NotesCreated, result.NotesSkipped, result.NotesFailed)

	for _, book := range books {
		if err := s.notes.EmbedInBookPage(ctx, bookPages[book.Title], book.Title, notesForBook(notes, book.Title)); err != nil {
			return fmt.Errorf("embed notes in book %q: %w", book.Title, err)
		}
	}

	for _, day := range sortedDays(daily) {
		if _, err := s.daily.Upsert(ctx, day, daily[day]); err != nil {
			return fmt.Errorf("upsert daily count for %s: %w", day.Format("2006-01-02"), err)
		}
		result.DailyRows++
	}
	log.Printf("Notes sync: upserted %d daily activity rows", result.DailyRows)

	return nil
}

// bookAggregate reduces a book's notes to the fields the book page
// needs: the first non-empty author wins, the latest created date is
// tracked.
type bookAggregate struct {
	Title        string
	Author       string
	LastNoteDate time.Time
}

func uniqueBooks(notes []wereader.Note) []bookAggregate {
	index := map[string]int{}
	var books []bookAggregate
	for i := range notes {
		note := &notes[i]
		pos, seen := index[note.BookTitle]
		if !seen {
			index[note.BookTitle] = len(books)
			books = append(books, bookAggregate{Title: note.BookTitle})
			pos = len(books) - 1
		}
		book := &books[pos]
		if book.Author == "" {
			book.Author = note.Author
		}
		if !note.CreatedDate.IsZero() && note.CreatedDate.After(book.LastNoteDate) {
			book.LastNoteDate = note.CreatedDate
		}
	}
	return books
}

func notesForBook(notes []wereader.Note, title string) []wereader.Note {
	var out []wereader.Note
	for _, note := range notes {
		if note.BookTitle == title {
			out = append(out, note)
		}
	}
	return out
}

func sortedDays(daily wereader.DailyCounts) []time.Time {
	days := make([]time.Time, 0, len(daily))
	for day := range daily {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}
