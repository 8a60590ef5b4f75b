package handlers

import (
	"context"
	"io"
	"net/http"
	"time"

	"feedreader/internal/feed"
)

// HandleParseFeedContent parses a raw feed document posted in the
// request body and returns the resulting ParsedFeed. It never touches
// the network or the database — a pure exercise of the Parser
// contract, useful for validating a document before subscribing.
func (h *Handler) HandleParseFeedContent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	parsed, parseErr := feed.Parse(body)
	if parseErr != nil {
		http.Error(w, parseErr.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, parsed)
}

// HandleFetchAndParseFeed downloads a URL and parses it synchronously,
// without persisting anything (?url=). Intended for a one-off preview
// before a feed is subscribed.
func (h *Handler) HandleFetchAndParseFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	url := r.URL.Query().Get("url")
	if url == "" {
		http.Error(w, "url parameter is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	parsed, parseErr := feed.Parse(body)
	if parseErr != nil {
		http.Error(w, parseErr.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, http.StatusOK, parsed)
}

// HandleStartAsyncFetcher starts the scheduler's dispatch loop.
func (h *Handler) HandleStartAsyncFetcher(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.Fetcher.Start(context.Background())
	w.WriteHeader(http.StatusOK)
}

// HandleStopAsyncFetcher stops the scheduler, draining in-flight work.
func (h *Handler) HandleStopAsyncFetcher(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.Fetcher.Stop()
	w.WriteHeader(http.StatusOK)
}

// HandleGetAsyncFetcherStatus reports whether the scheduler is running.
func (h *Handler) HandleGetAsyncFetcherStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"running": h.Fetcher.IsRunning()})
}

// HandleQueueFeedForAsyncFetch enqueues one URL (?url=&priority=).
func (h *Handler) HandleQueueFeedForAsyncFetch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	url := r.URL.Query().Get("url")
	if url == "" {
		http.Error(w, "url parameter is required", http.StatusBadRequest)
		return
	}
	priority := feed.ParsePriority(r.URL.Query().Get("priority"))
	h.Fetcher.QueueFeed(url, priority)
	w.WriteHeader(http.StatusAccepted)
}

// fetchManyRequest is one entry in the body of HandleFetchMultipleFeedsAsync.
type fetchManyRequest struct {
	URL      string `json:"url"`
	Priority string `json:"priority"`
}

// HandleFetchMultipleFeedsAsync enqueues a batch of URLs at once.
func (h *Handler) HandleFetchMultipleFeedsAsync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var reqs []fetchManyRequest
	if err := readJSONBody(r, &reqs); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	for _, req := range reqs {
		if req.URL == "" {
			continue
		}
		h.Fetcher.QueueFeed(req.URL, feed.ParsePriority(req.Priority))
	}
	w.WriteHeader(http.StatusAccepted)
}

// HandleGetAsyncFetchResults returns every recorded fetch result.
func (h *Handler) HandleGetAsyncFetchResults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Fetcher.GetAsyncFetchResults())
}
