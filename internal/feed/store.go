package feed

import "context"

// Store is the persistence boundary the scheduler depends on. It is
// defined here, not in internal/persistence, so that internal/feed
// never imports internal/database: internal/persistence implements
// this interface and wires the concrete *database.DB into it.
type Store interface {
	// FindFeedIDByURL returns the feed id for a subscribed URL, or
	// ok=false if no such feed is subscribed. A fetch result for a
	// URL that is not found is an orphan result (SPEC_FULL.md §6).
	FindFeedIDByURL(ctx context.Context, url string) (id int64, title *string, ok bool, err error)

	// SaveParsedFeed persists the entries of a successfully parsed
	// feed against feedID, deduplicating by (feed_id, link), and
	// returns the count of newly inserted entries.
	SaveParsedFeed(ctx context.Context, feedID int64, parsed *ParsedFeed) (entriesAdded int, err error)

	// TouchLastFetchedAt stamps a feed's last_fetched_at to now.
	// Failure here is logged, never surfaced as a refresh error
	// (SPEC_FULL.md §6 Open Questions).
	TouchLastFetchedAt(ctx context.Context, feedID int64) error
}
