package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// CoverFetcher resolves a cover image URL for a book.
type CoverFetcher interface {
	FetchURL(ctx context.Context, title, author string) (string, error)
}

// CoverSetter patches the cover image of a remote book page.
type CoverSetter interface {
	SetCover(ctx context.Context, pageID, coverURL string) error
}

// FetchCoverTask looks up a cover image for a book and sets it on the
// book's Notion page. Cover providers are slow and rate limited, so the
// sync pass enqueues these instead of fetching inline.
type FetchCoverTask struct {
	BookPageID string `json:"book_page_id"`
	Title      string `json:"title"`
	Author     string `json:"author"`
}

// Config returns the queue configuration for cover fetch tasks.
func (t FetchCoverTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "fetch_cover",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// FetchCoverProcessor creates a processor function for FetchCoverTask.
func FetchCoverProcessor(fetcher CoverFetcher, setter CoverSetter) backlite.QueueProcessor[FetchCoverTask] {
	return func(ctx context.Context, task FetchCoverTask) error {
		if fetcher == nil || setter == nil {
			return fmt.Errorf("cover fetcher not configured")
		}

		coverURL, err := fetcher.FetchURL(ctx, task.Title, task.Author)
		if err != nil {
			return fmt.Errorf("fetch cover for %q: %w", task.Title, err)
		}
		if coverURL == "" {
			log.Printf("[TASK] No cover found for %q", task.Title)
			return nil
		}

		if err := setter.SetCover(ctx, task.BookPageID, coverURL); err != nil {
			return fmt.Errorf("set cover for %q: %w", task.Title, err)
		}

		log.Printf("[TASK] Set cover for %q from %s", task.Title, coverURL)
		return nil
	}
}

// NewFetchCoverQueue creates a backlite queue for cover fetch tasks.
func NewFetchCoverQueue(fetcher CoverFetcher, setter CoverSetter) backlite.Queue {
	return backlite.NewQueue(FetchCoverProcessor(fetcher, setter))
}

// Enqueuer exposes task submission to the sync service without leaking
// backlite types.
type Enqueuer struct {
	client *Client
}

// NewEnqueuer creates an enqueuer backed by the task client.
func NewEnqueuer(client *Client) *Enqueuer {
	return &Enqueuer{client: client}
}

// EnqueueFetchCover schedules a background cover fetch for a book page.
func (e *Enqueuer) EnqueueFetchCover(bookPageID, title, author string) error {
	_, err := e.client.Add(FetchCoverTask{
		BookPageID: bookPageID,
		Title:      title,
		Author:     author,
	}).Save()
	return err
}
