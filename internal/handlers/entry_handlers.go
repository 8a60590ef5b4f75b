package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"feedreader/internal/models"
)

// HandleCreateFeedEntry inserts a single entry under a feed (?feed_id=).
func (h *Handler) HandleCreateFeedEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	feedID, err := strconv.ParseInt(r.URL.Query().Get("feed_id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid feed_id parameter", http.StatusBadRequest)
		return
	}

	var entry models.FeedEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	created, err := h.DB.CreateFeedEntry(r.Context(), feedID, entry)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if created == nil {
		http.Error(w, "entry link already exists", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// HandleGetFeedEntries lists a feed's entries newest-first
// (?feed_id=&limit=&offset=).
func (h *Handler) HandleGetFeedEntries(w http.ResponseWriter, r *http.Request) {
	feedID, err := strconv.ParseInt(r.URL.Query().Get("feed_id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid feed_id parameter", http.StatusBadRequest)
		return
	}

	limit := 50
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}
	offset := 0
	if o, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && o >= 0 {
		offset = o
	}

	entries, err := h.DB.GetFeedEntries(r.Context(), feedID, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleGetFeedEntryByID returns a single entry (?id=).
func (h *Handler) HandleGetFeedEntryByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id parameter", http.StatusBadRequest)
		return
	}

	entry, err := h.DB.GetFeedEntryByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "entry not found", http.StatusNotFound)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HandleUpdateFeedEntry applies a partial update to a single entry.
func (h *Handler) HandleUpdateFeedEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut && r.Method != http.MethodPatch {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req models.UpdateFeedEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ID == 0 {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	updated, err := h.DB.UpdateFeedEntry(r.Context(), req)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "entry not found", http.StatusNotFound)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleDeleteFeedEntry removes a single entry (?id=).
func (h *Handler) HandleDeleteFeedEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id parameter", http.StatusBadRequest)
		return
	}
	if err := h.DB.DeleteFeedEntry(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HandleMarkEntryAsRead sets an entry's read flag (?id=&read=true|false).
func (h *Handler) HandleMarkEntryAsRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id parameter", http.StatusBadRequest)
		return
	}
	read := r.URL.Query().Get("read") != "false"

	if err := h.DB.MarkEntryAsRead(r.Context(), id, read); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// HandleMarkEntryAsStarred sets an entry's starred flag (?id=&starred=true|false).
func (h *Handler) HandleMarkEntryAsStarred(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id parameter", http.StatusBadRequest)
		return
	}
	starred := r.URL.Query().Get("starred") != "false"

	if err := h.DB.MarkEntryAsStarred(r.Context(), id, starred); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
