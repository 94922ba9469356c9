package api

import (
	"net/http"

	"DiscordArchive/internal/a2p"

	"github.com/go-chi/chi/v5"
)

// HandleRecordA2PStatus stores one check result posted by the status checker.
func (h *Handler) HandleRecordA2PStatus(w http.ResponseWriter, r *http.Request) {
	var in a2p.Report
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	st, err := h.a2p.Record(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (h *Handler) HandleLatestA2PStatus(w http.ResponseWriter, r *http.Request) {
	rows, err := h.a2p.Latest(r.Context())
	list(h, w, r, rows, err)
}

func (h *Handler) HandleA2PHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rows, err := h.a2p.History(r.Context(), chi.URLParam(r, "locationId"), limit)
	list(h, w, r, rows, err)
}
