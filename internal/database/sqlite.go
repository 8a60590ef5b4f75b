// Package database owns the SQLite schema and raw-SQL CRUD layer
// backing internal/models.Feed and internal/models.FeedEntry. It
// follows the teacher's own database package: a *sql.DB embedded in
// a wrapper that gates access behind a ready channel until schema
// init completes, pure-Go modernc.org/sqlite driver, no ORM.
package database

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"time"

	"feedreader/internal/models"

	_ "modernc.org/sqlite"
)

// DB wraps a *sql.DB with a schema-readiness gate, exactly like the
// teacher's wrapper: callers may construct it and start issuing
// queries immediately, each of which blocks on WaitForReady until
// Init's migration has run.
type DB struct {
	*sql.DB
	ready chan struct{}
	once  sync.Once
}

// NewDB opens a SQLite database at dataSourceName with a 5s busy
// timeout and WAL journaling, matching the teacher's connection
// string construction.
func NewDB(dataSourceName string) (*DB, error) {
	pragmas := "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	if !strings.Contains(dataSourceName, "?") {
		dataSourceName += "?" + pragmas
	} else {
		dataSourceName += "&" + pragmas
	}

	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, err
	}

	return &DB{
		DB:    db,
		ready: make(chan struct{}),
	}, nil
}

// Init creates the schema exactly once. Safe to call concurrently;
// every caller blocks until the single winning call finishes.
func (db *DB) Init() error {
	var err error
	db.once.Do(func() {
		defer close(db.ready)

		if err = db.Ping(); err != nil {
			return
		}
		err = initSchema(db.DB)
	})
	return err
}

// WaitForReady blocks until Init has completed.
func (db *DB) WaitForReady() {
	<-db.ready
}

// initSchema creates feeds and feed_entries per the data model. The
// UNIQUE index on feed_entries.link is intentionally global rather
// than scoped to (feed_id, link): the original system carries this
// inconsistency and this implementation preserves it rather than
// silently tightening it (SPEC_FULL.md §9).
func initSchema(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS feeds (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		title TEXT,
		description TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		last_fetched_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS feed_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		feed_id INTEGER NOT NULL REFERENCES feeds(id) ON DELETE CASCADE ON UPDATE CASCADE,
		title TEXT NOT NULL,
		description TEXT,
		link TEXT NOT NULL,
		content TEXT,
		published_at DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		is_read BOOLEAN NOT NULL DEFAULT 0,
		is_starred BOOLEAN NOT NULL DEFAULT 0
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_feed_entries_link_unique ON feed_entries(link);
	CREATE INDEX IF NOT EXISTS idx_feed_entries_feed_id ON feed_entries(feed_id);
	CREATE INDEX IF NOT EXISTS idx_feed_entries_published_at ON feed_entries(published_at);
	`
	_, err := db.Exec(query)
	return err
}

// CreateFeed inserts a new feed and returns it with its assigned id
// and timestamps populated.
func (db *DB) CreateFeed(ctx context.Context, req models.CreateFeedRequest) (*models.Feed, error) {
	db.WaitForReady()
	now := time.Now().UTC()
	res, err := db.ExecContext(ctx,
		`INSERT INTO feeds (url, title, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		req.URL, req.Title, req.Description, now, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.GetFeedByID(ctx, id)
}

// CreateFeedWithEntries inserts a feed and its initial batch of
// entries atomically: if any entry insert fails the whole operation
// rolls back, leaving no partial feed behind.
func (db *DB) CreateFeedWithEntries(ctx context.Context, req models.CreateFeedRequest, entries []models.FeedEntry) (*models.Feed, error) {
	db.WaitForReady()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO feeds (url, title, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		req.URL, req.Title, req.Description, now, now)
	if err != nil {
		return nil, err
	}
	feedID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO feed_entries
		(feed_id, title, description, link, content, published_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, feedID, e.Title, e.Description, e.Link, e.Content, e.PublishedAt, now, now); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return db.GetFeedByID(ctx, feedID)
}

// GetAllFeeds returns every subscribed feed, ordered by id.
func (db *DB) GetAllFeeds(ctx context.Context) ([]models.Feed, error) {
	db.WaitForReady()
	rows, err := db.QueryContext(ctx, `SELECT id, url, title, description, created_at, updated_at, last_fetched_at FROM feeds ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var feeds []models.Feed
	for rows.Next() {
		f, err := scanFeed(rows)
		if err != nil {
			return nil, err
		}
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}

// GetFeedByID returns a single feed, or sql.ErrNoRows if it doesn't exist.
func (db *DB) GetFeedByID(ctx context.Context, id int64) (*models.Feed, error) {
	db.WaitForReady()
	row := db.QueryRowContext(ctx, `SELECT id, url, title, description, created_at, updated_at, last_fetched_at FROM feeds WHERE id = ?`, id)
	f, err := scanFeed(row)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetFeedByURL returns a single feed by its subscribed URL, or
// sql.ErrNoRows if none is subscribed at that URL.
func (db *DB) GetFeedByURL(ctx context.Context, url string) (*models.Feed, error) {
	db.WaitForReady()
	row := db.QueryRowContext(ctx, `SELECT id, url, title, description, created_at, updated_at, last_fetched_at FROM feeds WHERE url = ?`, url)
	f, err := scanFeed(row)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// UpdateFeed applies a partial update; nil fields in req are left unchanged.
func (db *DB) UpdateFeed(ctx context.Context, req models.UpdateFeedRequest) (*models.Feed, error) {
	db.WaitForReady()
	existing, err := db.GetFeedByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if req.URL != nil {
		existing.URL = *req.URL
	}
	if req.Title != nil {
		existing.Title = req.Title
	}
	if req.Description != nil {
		existing.Description = req.Description
	}

	_, err = db.ExecContext(ctx, `UPDATE feeds SET url = ?, title = ?, description = ?, updated_at = ? WHERE id = ?`,
		existing.URL, existing.Title, existing.Description, time.Now().UTC(), req.ID)
	if err != nil {
		return nil, err
	}
	return db.GetFeedByID(ctx, req.ID)
}

// UpdateFeedLastFetchedAt stamps a feed's last_fetched_at to now.
func (db *DB) UpdateFeedLastFetchedAt(ctx context.Context, id int64) error {
	db.WaitForReady()
	_, err := db.ExecContext(ctx, `UPDATE feeds SET last_fetched_at = ? WHERE id = ?`, time.Now().UTC(), id)
	return err
}

// DeleteFeed removes a feed; its entries cascade via the foreign key.
func (db *DB) DeleteFeed(ctx context.Context, id int64) error {
	db.WaitForReady()
	_, err := db.ExecContext(ctx, `DELETE FROM feeds WHERE id = ?`, id)
	return err
}

// CreateFeedEntry inserts one entry, deduplicating by (feed_id, link):
// it SELECTs for an existing row under that pair first and, finding
// none, issues a plain INSERT. The INSERT is not an INSERT OR IGNORE:
// the schema's link-uniqueness index is global rather than scoped to
// feed_id (SPEC_FULL.md §9), so a different feed already holding the
// same link still raises a UNIQUE-constraint error here, which
// propagates to the caller as a database error rather than being
// silently swallowed.
func (db *DB) CreateFeedEntry(ctx context.Context, feedID int64, e models.FeedEntry) (*models.FeedEntry, error) {
	db.WaitForReady()

	var existingID int64
	err := db.QueryRowContext(ctx, `SELECT id FROM feed_entries WHERE feed_id = ? AND link = ?`, feedID, e.Link).Scan(&existingID)
	if err == nil {
		return nil, nil // already present for this feed
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	now := time.Now().UTC()
	res, err := db.ExecContext(ctx, `INSERT INTO feed_entries
		(feed_id, title, description, link, content, published_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		feedID, e.Title, e.Description, e.Link, e.Content, e.PublishedAt, now, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return db.GetFeedEntryByID(ctx, id)
}

// GetFeedEntries returns a feed's entries ordered newest first.
func (db *DB) GetFeedEntries(ctx context.Context, feedID int64, limit, offset int) ([]models.FeedEntry, error) {
	db.WaitForReady()
	rows, err := db.QueryContext(ctx, `SELECT id, feed_id, title, description, link, content, published_at, created_at, updated_at, is_read, is_starred
		FROM feed_entries WHERE feed_id = ? ORDER BY published_at DESC, id DESC LIMIT ? OFFSET ?`, feedID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.FeedEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetFeedEntryByID returns a single entry, or sql.ErrNoRows.
func (db *DB) GetFeedEntryByID(ctx context.Context, id int64) (*models.FeedEntry, error) {
	db.WaitForReady()
	row := db.QueryRowContext(ctx, `SELECT id, feed_id, title, description, link, content, published_at, created_at, updated_at, is_read, is_starred
		FROM feed_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateFeedEntry applies a partial update to a single entry.
func (db *DB) UpdateFeedEntry(ctx context.Context, req models.UpdateFeedEntryRequest) (*models.FeedEntry, error) {
	db.WaitForReady()
	existing, err := db.GetFeedEntryByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		existing.Title = *req.Title
	}
	if req.Description != nil {
		existing.Description = req.Description
	}
	if req.Content != nil {
		existing.Content = req.Content
	}
	if req.IsRead != nil {
		existing.IsRead = *req.IsRead
	}
	if req.IsStarred != nil {
		existing.IsStarred = *req.IsStarred
	}

	_, err = db.ExecContext(ctx, `UPDATE feed_entries SET title = ?, description = ?, content = ?, is_read = ?, is_starred = ?, updated_at = ? WHERE id = ?`,
		existing.Title, existing.Description, existing.Content, existing.IsRead, existing.IsStarred, time.Now().UTC(), req.ID)
	if err != nil {
		return nil, err
	}
	return db.GetFeedEntryByID(ctx, req.ID)
}

// DeleteFeedEntry removes a single entry.
func (db *DB) DeleteFeedEntry(ctx context.Context, id int64) error {
	db.WaitForReady()
	_, err := db.ExecContext(ctx, `DELETE FROM feed_entries WHERE id = ?`, id)
	return err
}

// MarkEntryAsRead sets an entry's is_read flag.
func (db *DB) MarkEntryAsRead(ctx context.Context, id int64, read bool) error {
	db.WaitForReady()
	_, err := db.ExecContext(ctx, `UPDATE feed_entries SET is_read = ?, updated_at = ? WHERE id = ?`, read, time.Now().UTC(), id)
	return err
}

// MarkEntryAsStarred sets an entry's is_starred flag.
func (db *DB) MarkEntryAsStarred(ctx context.Context, id int64, starred bool) error {
	db.WaitForReady()
	_, err := db.ExecContext(ctx, `UPDATE feed_entries SET is_starred = ?, updated_at = ? WHERE id = ?`, starred, time.Now().UTC(), id)
	return err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanFeed(s scanner) (models.Feed, error) {
	var f models.Feed
	var title, description sql.NullString
	var lastFetchedAt sql.NullTime
	if err := s.Scan(&f.ID, &f.URL, &title, &description, &f.CreatedAt, &f.UpdatedAt, &lastFetchedAt); err != nil {
		return models.Feed{}, err
	}
	if title.Valid {
		f.Title = &title.String
	}
	if description.Valid {
		f.Description = &description.String
	}
	if lastFetchedAt.Valid {
		f.LastFetchedAt = &lastFetchedAt.Time
	}
	return f, nil
}

func scanEntry(s scanner) (models.FeedEntry, error) {
	var e models.FeedEntry
	var description, content sql.NullString
	var publishedAt sql.NullTime
	if err := s.Scan(&e.ID, &e.FeedID, &e.Title, &description, &e.Link, &content, &publishedAt, &e.CreatedAt, &e.UpdatedAt, &e.IsRead, &e.IsStarred); err != nil {
		return models.FeedEntry{}, err
	}
	if description.Valid {
		e.Description = &description.String
	}
	if content.Valid {
		e.Content = &content.String
	}
	if publishedAt.Valid {
		e.PublishedAt = &publishedAt.Time
	}
	return e, nil
}
