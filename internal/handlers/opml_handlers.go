package handlers

import (
	"log"
	"net/http"

	"feedreader/internal/opml"
)

// HandleOPMLImport imports a subscription list from a multipart file
// upload, adapted from the teacher's server-mode OPML handler.
func (h *Handler) HandleOPMLImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "no file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	feeds, err := opml.Parse(file)
	if err != nil {
		http.Error(w, "failed to parse OPML file", http.StatusBadRequest)
		return
	}

	imported := 0
	for _, f := range feeds {
		if _, err := h.DB.CreateFeed(r.Context(), f); err != nil {
			log.Printf("handlers: error importing feed %s: %v", f.URL, err)
			continue
		}
		imported++
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"imported": imported,
		"total":    len(feeds),
	})
}

// HandleOPMLExport returns the subscription list as an OPML document.
func (h *Handler) HandleOPMLExport(w http.ResponseWriter, r *http.Request) {
	feeds, err := h.DB.GetAllFeeds(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	data, err := opml.Generate(feeds)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Header().Set("Content-Disposition", "attachment; filename=subscriptions.opml")
	w.Write(data)
}
