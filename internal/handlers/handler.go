// Package handlers is the Control Surface: thin net/http forwarders
// onto the database, the persistence adapter, and the feed scheduler.
// Each handler mirrors the teacher's article_handlers.go idiom —
// query-parameter input, strconv parsing, json.NewEncoder output,
// http.Error for failures — generalized onto this backend's feed and
// feed-entry operations instead of the teacher's article surface.
package handlers

import (
	"encoding/json"
	"net/http"

	"feedreader/internal/database"
	"feedreader/internal/feed"
	"feedreader/internal/persistence"
)

// Handler holds everything the Control Surface forwards requests to.
type Handler struct {
	DB          *database.DB
	Store       *persistence.Adapter
	Fetcher     *feed.Fetcher
	Coordinator *feed.RefreshCoordinator
}

// New wires a Handler from its collaborators.
func New(db *database.DB, store *persistence.Adapter, fetcher *feed.Fetcher, coordinator *feed.RefreshCoordinator) *Handler {
	return &Handler{DB: db, Store: store, Fetcher: fetcher, Coordinator: coordinator}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	http.Error(w, err.Error(), status)
}

func readJSONBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
