package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"feedreader/internal/feed"
)

// HandleRefreshAllFeeds starts a refresh operation across every
// subscribed feed: it arms the coordinator with the subscription
// count, then queues each feed URL onto the scheduler.
func (h *Handler) HandleRefreshAllFeeds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	feeds, err := h.DB.GetAllFeeds(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.Coordinator.StartRefreshOperation(len(feeds))
	for _, f := range feeds {
		h.Fetcher.QueueFeed(f.URL, feed.PriorityNormal)
	}
	w.WriteHeader(http.StatusAccepted)
}

// HandleRefreshSingleFeed starts a one-feed refresh operation (?id=).
func (h *Handler) HandleRefreshSingleFeed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id parameter", http.StatusBadRequest)
		return
	}

	f, err := h.DB.GetFeedByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "feed not found", http.StatusNotFound)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	h.Coordinator.StartRefreshOperation(1)
	h.Fetcher.QueueFeed(f.URL, feed.PriorityHigh)
	w.WriteHeader(http.StatusAccepted)
}

// HandleGetRefreshProgress returns the live progress snapshot.
func (h *Handler) HandleGetRefreshProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Coordinator.GetRefreshProgress())
}

// HandleGetLastRefreshSummary returns the most recently finalized summary.
func (h *Handler) HandleGetLastRefreshSummary(w http.ResponseWriter, r *http.Request) {
	summary := h.Coordinator.GetLastRefreshSummary()
	if summary == nil {
		http.Error(w, "no refresh has completed yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
