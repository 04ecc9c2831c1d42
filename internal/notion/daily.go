package notion

import (
	"context"
	"time"

	"github.com/readsync/weread2notion/internal/wereader"
)

// DailyRepo upserts per-date activity rows into the daily database,
// keyed by calendar date.
type DailyRepo struct {
	client     *Client
	databaseID string
}

func NewDailyRepo(client *Client, databaseID string) *DailyRepo {
	return &DailyRepo{client: client, databaseID: databaseID}
}

// Upsert creates or updates the activity row for a day and returns its
// page ID.
func (r *DailyRepo) Upsert(ctx context.Context, day time.Time, count int) (string, error) {
	filter := map[string]any{
		"property": "Date",
		"date":     map[string]any{"equals": day.Format("2006-01-02")},
	}
	query, err := r.client.QueryDatabase(ctx, r.databaseID, filter, "")
	if err != nil {
		return "", err
	}

	props := map[string]any{
		"Date":             dateProp(day),
		"Notes Count":      numberProp(count),
		"Source":           selectProp(wereader.SourceName),
		"Last Import Time": dateProp(time.Now().UTC()),
	}

	if len(query.Results) > 0 {
		pageID := query.Results[0].ID
		if err := r.client.UpdatePage(ctx, pageID, props, nil); err != nil {
			return "", err
		}
		return pageID, nil
	}

	return r.client.CreatePage(ctx, CreatePageParams{
		DatabaseID: r.databaseID,
		Properties: props,
		Icon:       emojiIcon("📅"),
	})
}
