// Command feedreader runs the backend service that a desktop shell
// drives over HTTP: it owns the SQLite store, the async feed-refresh
// scheduler, and the Control Surface described in SPEC_FULL.md.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"feedreader/internal/database"
	"feedreader/internal/feed"
	"feedreader/internal/handlers"
	"feedreader/internal/persistence"
)

func main() {
	addr := flag.String("addr", ":8080", "HTTP server address")
	defaultDBPath := "feedreader.db"
	if env := os.Getenv("DATABASE_URL"); env != "" {
		defaultDBPath = env
	}
	dbPath := flag.String("db", defaultDBPath, "SQLite database path (defaults to $DATABASE_URL when set)")
	maxConcurrent := flag.Int64("max-concurrent-fetches", 10, "maximum concurrent feed fetches")
	flag.Parse()

	log.Println("feedreader starting...")

	db, err := database.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	if err := db.Init(); err != nil {
		log.Fatalf("failed to initialize schema: %v", err)
	}
	db.WaitForReady()
	defer db.Close()

	store := persistence.New(db)
	coordinator := feed.NewRefreshCoordinator()

	cfg := feed.DefaultFetcherConfig()
	cfg.MaxConcurrentRequests = *maxConcurrent
	fetcherLogger := log.New(os.Stdout, "[fetcher] ", log.LstdFlags)
	fetcher := feed.NewFetcher(cfg, store, coordinator, fetcherLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fetcher.Start(ctx)
	defer fetcher.Stop()

	h := handlers.New(db, store, fetcher, coordinator)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/feeds", methodRouter(map[string]http.HandlerFunc{
		http.MethodPost:   h.HandleCreateFeed,
		http.MethodGet:    h.HandleGetAllFeeds,
		http.MethodDelete: h.HandleDeleteFeed,
	}))
	mux.HandleFunc("/api/feeds/by-id", h.HandleGetFeedByID)
	mux.HandleFunc("/api/feeds/by-url", h.HandleGetFeedByURL)
	mux.HandleFunc("/api/feeds/update", h.HandleUpdateFeed)
	mux.HandleFunc("/api/feeds/touch", h.HandleUpdateFeedLastFetched)
	mux.HandleFunc("/api/feeds/with-entries", h.HandleCreateFeedWithEntries)

	mux.HandleFunc("/api/entries", methodRouter(map[string]http.HandlerFunc{
		http.MethodPost:   h.HandleCreateFeedEntry,
		http.MethodGet:    h.HandleGetFeedEntries,
		http.MethodDelete: h.HandleDeleteFeedEntry,
	}))
	mux.HandleFunc("/api/entries/by-id", h.HandleGetFeedEntryByID)
	mux.HandleFunc("/api/entries/update", h.HandleUpdateFeedEntry)
	mux.HandleFunc("/api/entries/read", h.HandleMarkEntryAsRead)
	mux.HandleFunc("/api/entries/starred", h.HandleMarkEntryAsStarred)

	mux.HandleFunc("/api/parse", h.HandleParseFeedContent)
	mux.HandleFunc("/api/fetch", h.HandleFetchAndParseFeed)
	mux.HandleFunc("/api/fetch/many", h.HandleFetchMultipleFeedsAsync)
	mux.HandleFunc("/api/fetch/results", h.HandleGetAsyncFetchResults)

	mux.HandleFunc("/api/scheduler/start", h.HandleStartAsyncFetcher)
	mux.HandleFunc("/api/scheduler/stop", h.HandleStopAsyncFetcher)
	mux.HandleFunc("/api/scheduler/status", h.HandleGetAsyncFetcherStatus)
	mux.HandleFunc("/api/scheduler/queue", h.HandleQueueFeedForAsyncFetch)

	mux.HandleFunc("/api/refresh/all", h.HandleRefreshAllFeeds)
	mux.HandleFunc("/api/refresh/feed", h.HandleRefreshSingleFeed)
	mux.HandleFunc("/api/refresh/progress", h.HandleGetRefreshProgress)
	mux.HandleFunc("/api/refresh/summary", h.HandleGetLastRefreshSummary)

	mux.HandleFunc("/api/opml/import", h.HandleOPMLImport)
	mux.HandleFunc("/api/opml/export", h.HandleOPMLExport)

	srv := &http.Server{
		Addr:    *addr,
		Handler: mux,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("received shutdown signal...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown error: %v", err)
		}
	}()

	log.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}

	log.Println("goodbye")
}

// methodRouter dispatches a request to the handler registered for its
// HTTP method, rejecting anything else with 405.
func methodRouter(byMethod map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h, ok := byMethod[r.Method]; ok {
			h(w, r)
			return
		}
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
