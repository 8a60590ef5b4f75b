package feed_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	ff "feedreader/internal/feed"
)

// fakeStore is an in-memory Store fake, in the spirit of the
// teacher's MockParser: enough behavior to exercise the scheduler
// without a real database.
type fakeStore struct {
	mu      sync.Mutex
	feeds   map[string]int64
	titles  map[int64]*string
	entries map[int64]int
	touched map[int64]int
	saveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		feeds:   make(map[string]int64),
		titles:  make(map[int64]*string),
		entries: make(map[int64]int),
		touched: make(map[int64]int),
	}
}

func (s *fakeStore) addFeed(id int64, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feeds[url] = id
}

func (s *fakeStore) FindFeedIDByURL(ctx context.Context, url string) (int64, *string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.feeds[url]
	if !ok {
		return 0, nil, false, nil
	}
	return id, s.titles[id], true, nil
}

func (s *fakeStore) SaveParsedFeed(ctx context.Context, feedID int64, parsed *ff.ParsedFeed) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return 0, s.saveErr
	}
	n := len(parsed.Entries)
	s.entries[feedID] += n
	return n, nil
}

func (s *fakeStore) TouchLastFetchedAt(ctx context.Context, feedID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched[feedID]++
	return nil
}

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Test RSS Feed</title>
<description>A feed for tests</description>
<item>
<title>Test Article</title>
<link>https://example.com/article1</link>
<description>Body</description>
</item>
</channel>
</rss>`

func TestFetcher_SuccessfulFetch_UpdatesStoreAndCoordinator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	store := newFakeStore()
	store.addFeed(1, srv.URL)

	coord := ff.NewRefreshCoordinator()
	coord.StartRefreshOperation(1)

	cfg := ff.DefaultFetcherConfig()
	cfg.MaxConcurrentRequests = 2
	f := ff.NewFetcher(cfg, store, coord, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.Start(ctx)
	defer f.Stop()

	f.QueueFeed(srv.URL, ff.PriorityNormal)

	deadline := time.After(3 * time.Second)
	for {
		p := coord.GetRefreshProgress()
		if p.CompletedFeeds >= 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for refresh completion")
		case <-time.After(10 * time.Millisecond):
		}
	}

	summary := coord.GetLastRefreshSummary()
	if summary == nil {
		t.Fatal("expected a refresh summary after one feed completes of one total")
	}
	if summary.SuccessfulCount != 1 || summary.FailedCount != 0 {
		t.Fatalf("expected 1 success 0 failures, got %+v", summary)
	}
	if store.entries[1] != 1 {
		t.Fatalf("expected 1 entry saved, got %d", store.entries[1])
	}
	if store.touched[1] != 1 {
		t.Fatalf("expected last_fetched_at touched once, got %d", store.touched[1])
	}
}

func TestFetcher_NonTwoHundredStatus_RecordsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := newFakeStore()
	store.addFeed(1, srv.URL)

	coord := ff.NewRefreshCoordinator()
	coord.StartRefreshOperation(1)

	cfg := ff.DefaultFetcherConfig()
	cfg.MaxRetries = 1
	cfg.BaseRetryDelay = time.Millisecond
	cfg.MaxRetryDelay = 5 * time.Millisecond
	f := ff.NewFetcher(cfg, store, coord, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.Start(ctx)
	defer f.Stop()

	f.QueueFeed(srv.URL, ff.PriorityHigh)

	deadline := time.After(3 * time.Second)
	for {
		p := coord.GetRefreshProgress()
		if p.CompletedFeeds >= 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for refresh completion")
		case <-time.After(10 * time.Millisecond):
		}
	}

	summary := coord.GetLastRefreshSummary()
	if summary == nil || summary.FailedCount != 1 {
		t.Fatalf("expected 1 failure, got %+v", summary)
	}
	if len(summary.Errors) != 1 {
		t.Fatalf("expected 1 recorded error, got %d", len(summary.Errors))
	}
	// spec.md §8 scenario 5: the terminal error must be the last
	// observed NetworkError, not a generic too-many-retries sentinel.
	got := summary.Errors[0]
	if got.Type != ff.ErrorTypeNetwork {
		t.Fatalf("expected error_type %q, got %q", ff.ErrorTypeNetwork, got.Type)
	}
	if got.Message != "network error: HTTP error: 500" {
		t.Fatalf("expected message %q, got %q", "network error: HTTP error: 500", got.Message)
	}
}

func TestFetcher_OrphanResult_MarkedSkipped(t *testing.T) {
	store := newFakeStore() // no feeds registered

	coord := ff.NewRefreshCoordinator()
	coord.StartRefreshOperation(1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	f := ff.NewFetcher(ff.DefaultFetcherConfig(), store, coord, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.Start(ctx)
	defer f.Stop()

	f.QueueFeed(srv.URL, ff.PriorityNormal)

	deadline := time.After(3 * time.Second)
	for {
		p := coord.GetRefreshProgress()
		if p.CompletedFeeds >= 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for refresh completion")
		case <-time.After(10 * time.Millisecond):
		}
	}

	summary := coord.GetLastRefreshSummary()
	if summary == nil || len(summary.FeedsUpdated) != 1 {
		t.Fatalf("expected one feed status, got %+v", summary)
	}
	if summary.FeedsUpdated[0].Status != "skipped" {
		t.Fatalf("expected skipped status for orphan result, got %q", summary.FeedsUpdated[0].Status)
	}
}

func TestFetcher_RateLimited_SurfacesImmediatelyWithoutRetry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(sampleRSS))
	}))
	defer srv.Close()

	store := newFakeStore()
	store.addFeed(1, srv.URL)
	store.addFeed(2, srv.URL+"/other") // distinct feed row, same host

	coord := ff.NewRefreshCoordinator()
	coord.StartRefreshOperation(2)

	cfg := ff.DefaultFetcherConfig()
	cfg.MaxConcurrentRequests = 1
	cfg.MaxRetries = 3
	cfg.BaseRetryDelay = time.Millisecond
	cfg.MaxRetryDelay = 5 * time.Millisecond
	// A 10s minimum interval guarantees that the second request to
	// this host, arriving well under 10s after the first, is rejected
	// as RateLimited per §4.3's 5s hard cap.
	cfg.RateLimitDelay = 10 * time.Second
	f := ff.NewFetcher(cfg, store, coord, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.Start(ctx)
	defer f.Stop()

	f.QueueFeed(srv.URL, ff.PriorityNormal)
	f.QueueFeed(srv.URL+"/other", ff.PriorityNormal)

	deadline := time.After(2 * time.Second)
	for {
		p := coord.GetRefreshProgress()
		if p.CompletedFeeds >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for refresh completion")
		case <-time.After(10 * time.Millisecond):
		}
	}
	if hits != 1 {
		t.Fatalf("expected exactly one request to reach the server before rate-limiting kicked in, got %d", hits)
	}
	summary := coord.GetLastRefreshSummary()
	if summary == nil || summary.FailedCount != 1 || summary.SuccessfulCount != 1 {
		t.Fatalf("expected one success and one rate-limited failure, got %+v", summary)
	}
	if len(summary.Errors) != 1 {
		t.Fatalf("expected 1 recorded error, got %d", len(summary.Errors))
	}
	if got := summary.Errors[0]; got.Type != ff.ErrorTypeRateLimited || got.RetryCount != 0 {
		t.Fatalf("expected a rate_limited error with retry_count 0, got %+v", got)
	}
}

func TestFetcher_StartStop_Idempotent(t *testing.T) {
	store := newFakeStore()
	f := ff.NewFetcher(ff.DefaultFetcherConfig(), store, nil, nil)

	ctx := context.Background()
	f.Start(ctx)
	f.Start(ctx) // no-op, must not panic or deadlock
	if !f.IsRunning() {
		t.Fatal("expected fetcher to report running")
	}
	f.Stop()
	f.Stop() // no-op
	if f.IsRunning() {
		t.Fatal("expected fetcher to report stopped")
	}
}
