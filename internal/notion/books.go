package notion

import (
	"context"
	"strconv"
	"time"

	"github.com/readsync/weread2notion/internal/wereader"
)

// BooksRepo upserts book pages into the books database. Books are keyed
// by exact title match.
type BooksRepo struct {
	client     *Client
	databaseID string
}

func NewBooksRepo(client *Client, databaseID string) *BooksRepo {
	return &BooksRepo{client: client, databaseID: databaseID}
}

// Upsert creates or updates the page for a book and returns its ID.
// lastNoteDate feeds the annual book list property; a zero time skips
// it. An empty coverURL leaves any existing cover untouched.
func (r *BooksRepo) Upsert(ctx context.Context, title, author string, lastNoteDate time.Time, coverURL string) (string, error) {
	filter := map[string]any{
		"property": "Name",
		"title":    map[string]any{"equals": title},
	}
	query, err := r.client.QueryDatabase(ctx, r.databaseID, filter, "")
	if err != nil {
		return "", err
	}

	properties := r.bookProperties(title, author, coverURL, lastNoteDate)
	var cover map[string]any
	if coverURL != "" {
		cover = externalCover(coverURL)
	}

	if len(query.Results) > 0 {
		pageID := query.Results[0].ID
		if err := r.client.UpdatePage(ctx, pageID, properties, cover); err != nil {
			return "", err
		}
		return pageID, nil
	}

	return r.client.CreatePage(ctx, CreatePageParams{
		DatabaseID: r.databaseID,
		Properties: properties,
		Cover:      cover,
		Icon:       emojiIcon("📖"),
	})
}

// SetCover patches only the cover of an existing book page. Used by the
// background cover-fetch task.
func (r *BooksRepo) SetCover(ctx context.Context, pageID, coverURL string) error {
	if coverURL == "" {
		return nil
	}
	properties := map[string]any{"CoverUrl": urlProp(coverURL)}
	return r.client.UpdatePage(ctx, pageID, properties, externalCover(coverURL))
}

func (r *BooksRepo) bookProperties(title, author, coverURL string, lastNoteDate time.Time) map[string]any {
	props := map[string]any{
		"Name":             titleText(title),
		"Source":           selectProp(wereader.SourceName),
		"Last Import Time": dateProp(time.Now().UTC()),
	}
	if author != "" {
		props["Author"] = richText(author)
	}
	if coverURL != "" {
		props["CoverUrl"] = urlProp(coverURL)
	}
	if !lastNoteDate.IsZero() {
		props["Annual Book List"] = richText(strconv.Itoa(lastNoteDate.Year()))
	}
	return props
}
