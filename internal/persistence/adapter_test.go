package persistence

import (
	"context"
	"testing"

	"feedreader/internal/database"
	"feedreader/internal/feed"
	"feedreader/internal/models"
)

func newTestAdapter(t *testing.T) (*Adapter, *database.DB) {
	t.Helper()
	dbFile := t.TempDir() + "/test.db"
	db, err := database.NewDB(dbFile)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	if err := db.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), db
}

func TestFindFeedIDByURL_NotFound(t *testing.T) {
	a, _ := newTestAdapter(t)
	_, _, ok, err := a.FindFeedIDByURL(context.Background(), "https://example.com/missing.xml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for an unsubscribed url")
	}
}

func TestSaveParsedFeed_DropsEntriesMissingLink(t *testing.T) {
	a, db := newTestAdapter(t)
	ctx := context.Background()

	created, err := db.CreateFeed(ctx, models.CreateFeedRequest{URL: "https://example.com/feed.xml"})
	if err != nil {
		t.Fatalf("CreateFeed: %v", err)
	}

	title := "With Link"
	link := "https://example.com/a1"
	noLinkTitle := "No Link"

	parsed := &feed.ParsedFeed{
		Title: "Test Feed",
		Entries: []feed.ParsedEntry{
			{Title: &title, Link: &link},
			{Title: &noLinkTitle},
		},
	}

	added, err := a.SaveParsedFeed(ctx, created.ID, parsed)
	if err != nil {
		t.Fatalf("SaveParsedFeed: %v", err)
	}
	if added != 1 {
		t.Fatalf("expected 1 entry added, got %d", added)
	}

	entries, err := db.GetFeedEntries(ctx, created.ID, 10, 0)
	if err != nil {
		t.Fatalf("GetFeedEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 persisted entry, got %d", len(entries))
	}
}

func TestSaveParsedFeed_MissingTitleDefaultsToUntitled(t *testing.T) {
	a, db := newTestAdapter(t)
	ctx := context.Background()

	created, err := db.CreateFeed(ctx, models.CreateFeedRequest{URL: "https://example.com/feed.xml"})
	if err != nil {
		t.Fatalf("CreateFeed: %v", err)
	}

	link := "https://example.com/a1"
	parsed := &feed.ParsedFeed{
		Title:   "Test Feed",
		Entries: []feed.ParsedEntry{{Link: &link}},
	}

	if _, err := a.SaveParsedFeed(ctx, created.ID, parsed); err != nil {
		t.Fatalf("SaveParsedFeed: %v", err)
	}

	entries, err := db.GetFeedEntries(ctx, created.ID, 10, 0)
	if err != nil {
		t.Fatalf("GetFeedEntries: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "Untitled" {
		t.Fatalf("expected default title Untitled, got %+v", entries)
	}
}

func TestSaveParsedFeed_CrossFeedLinkCollisionAbortsSave(t *testing.T) {
	a, db := newTestAdapter(t)
	ctx := context.Background()

	feedA, err := db.CreateFeed(ctx, models.CreateFeedRequest{URL: "https://example.com/a.xml"})
	if err != nil {
		t.Fatalf("CreateFeed a: %v", err)
	}
	feedB, err := db.CreateFeed(ctx, models.CreateFeedRequest{URL: "https://example.com/b.xml"})
	if err != nil {
		t.Fatalf("CreateFeed b: %v", err)
	}

	link := "https://example.com/shared-article"
	if _, err := a.SaveParsedFeed(ctx, feedA.ID, &feed.ParsedFeed{
		Title:   "Feed A",
		Entries: []feed.ParsedEntry{{Link: &link}},
	}); err != nil {
		t.Fatalf("seed SaveParsedFeed: %v", err)
	}

	// The schema's UNIQUE index on feed_entries.link is global, not
	// scoped to feed_id (SPEC_FULL.md §9), so a second feed claiming
	// the same link must abort the save with an error rather than
	// silently deduplicating across feeds.
	otherLink := "https://example.com/only-in-b"
	_, err = a.SaveParsedFeed(ctx, feedB.ID, &feed.ParsedFeed{
		Title: "Feed B",
		Entries: []feed.ParsedEntry{
			{Link: &otherLink},
			{Link: &link},
		},
	})
	if err == nil {
		t.Fatal("expected a cross-feed link collision to return an error")
	}
}

func TestTouchLastFetchedAt(t *testing.T) {
	a, db := newTestAdapter(t)
	ctx := context.Background()

	created, err := db.CreateFeed(ctx, models.CreateFeedRequest{URL: "https://example.com/feed.xml"})
	if err != nil {
		t.Fatalf("CreateFeed: %v", err)
	}

	if err := a.TouchLastFetchedAt(ctx, created.ID); err != nil {
		t.Fatalf("TouchLastFetchedAt: %v", err)
	}

	got, err := db.GetFeedByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetFeedByID: %v", err)
	}
	if got.LastFetchedAt == nil {
		t.Fatal("expected last_fetched_at to be set")
	}
}
