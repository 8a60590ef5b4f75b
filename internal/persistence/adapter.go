// Package persistence binds the scheduler's feed.Store contract to
// the concrete *database.DB, the way the teacher's handlers package
// binds its Fetcher directly to *database.DB — except here the
// dependency direction is inverted so internal/feed never imports
// internal/database (accept interfaces, return structs).
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"feedreader/internal/database"
	"feedreader/internal/feed"
	"feedreader/internal/models"
)

// Adapter implements feed.Store against a *database.DB.
type Adapter struct {
	db *database.DB
}

// New wraps a database for use by the scheduler.
func New(db *database.DB) *Adapter {
	return &Adapter{db: db}
}

func (a *Adapter) FindFeedIDByURL(ctx context.Context, url string) (int64, *string, bool, error) {
	f, err := a.db.GetFeedByURL(ctx, url)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil, false, nil
		}
		return 0, nil, false, err
	}
	return f.ID, f.Title, true, nil
}

// SaveParsedFeed persists every entry of a parsed feed under feedID,
// dropping entries that carry no link (spec.md §4.4) and deduplicating
// the rest via CreateFeedEntry's (feed_id, link) lookup. A constraint
// violation there (e.g. a cross-feed link collision against the
// schema's global UNIQUE index) aborts the whole save and is returned
// to the caller, which maps it to a database RefreshError (§4.6).
func (a *Adapter) SaveParsedFeed(ctx context.Context, feedID int64, parsed *feed.ParsedFeed) (int, error) {
	added := 0
	for _, e := range parsed.Entries {
		if e.Link == nil || strings.TrimSpace(*e.Link) == "" {
			continue
		}

		title := "Untitled"
		if e.Title != nil && strings.TrimSpace(*e.Title) != "" {
			title = *e.Title
		}

		entry := models.FeedEntry{
			Title:       title,
			Description: e.Description,
			Link:        *e.Link,
			Content:     e.Content,
			PublishedAt: parsePublished(e.Published),
		}

		created, err := a.db.CreateFeedEntry(ctx, feedID, entry)
		if err != nil {
			return added, err
		}
		if created != nil {
			added++
		}
	}
	return added, nil
}

func (a *Adapter) TouchLastFetchedAt(ctx context.Context, feedID int64) error {
	return a.db.UpdateFeedLastFetchedAt(ctx, feedID)
}

func parsePublished(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
