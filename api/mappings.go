package api

import (
	"net/http"
	"strings"

	"DiscordArchive/db"
	"DiscordArchive/internal/csvimport"
)

func (h *Handler) HandleListClientMappings(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListClientMappings(r.Context())
	list(h, w, r, rows, err)
}

// HandleUploadClientMappings replaces the whole mapping table with the CSV contents.
func (h *Handler) HandleUploadClientMappings(w http.ResponseWriter, r *http.Request) {
	text, err := uploadText(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := csvimport.ParseClientMappings(text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	n, err := h.store.ReplaceClientMappings(r.Context(), res.Records, h.userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.log.Info("Client mappings replaced", "count", n, "skipped", res.Skipped)
	writeJSON(w, http.StatusOK, uploadResponse{Success: true, Count: n, Skipped: res.Skipped})
}

type addMappingRequest struct {
	ChannelID   string `json:"channelId"`
	ChannelName string `json:"channelName"`
	Email       string `json:"email"`
	ContactName string `json:"contactName"`
	ClientName  string `json:"clientName"`
}

func (h *Handler) HandleAddClientMapping(w http.ResponseWriter, r *http.Request) {
	var in addMappingRequest
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	in.Email = strings.TrimSpace(in.Email)
	in.ChannelID = strings.TrimSpace(in.ChannelID)
	if in.Email == "" || in.ChannelID == "" {
		h.fail(w, r, badRequest("email and channelId are required"))
		return
	}

	m := &db.ClientMapping{
		ContactEmail:       in.Email,
		ContactName:        strings.TrimSpace(in.ContactName),
		DiscordChannelID:   in.ChannelID,
		DiscordChannelName: strings.TrimSpace(in.ChannelName),
		ClientName:         strings.TrimSpace(in.ClientName),
		UploadedBy:         h.userID(r),
	}
	if err := h.store.AddClientMapping(r.Context(), m); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}
