package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"DiscordArchive/db"
	"DiscordArchive/utils"

	"github.com/go-chi/chi/v5"
)

const defaultStatsHours = 24

func (h *Handler) HandleListGuilds(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListGuilds(r.Context())
	list(h, w, r, rows, err)
}

func (h *Handler) HandleListChannels(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListChannels(r.Context(), r.URL.Query().Get("guildId"))
	list(h, w, r, rows, err)
}

func (h *Handler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intQuery(r, "limit", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	offset, err := intQuery(r, "offset", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	rows, err := h.store.ListMessages(r.Context(), db.MessageFilter{
		GuildID:   q.Get("guildId"),
		ChannelID: q.Get("channelId"),
		Search:    q.Get("search"),
		Before:    utils.ParseTime(q.Get("before")),
		Limit:     limit,
		Offset:    offset,
	})
	list(h, w, r, rows, err)
}

// HandleUpdateChannels applies staff edits to several channels at once. The
// body is either an array of updates or {"updates": [...]}.
func (h *Handler) HandleUpdateChannels(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := decodeJSON(r, &raw); err != nil {
		h.fail(w, r, err)
		return
	}

	var updates []db.ChannelUpdate
	if err := json.Unmarshal(raw, &updates); err != nil {
		var wrapped struct {
			Updates []db.ChannelUpdate `json:"updates"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			h.fail(w, r, badRequest("expected an array of channel updates"))
			return
		}
		updates = wrapped.Updates
	}
	for i := range updates {
		updates[i].ID = strings.TrimSpace(updates[i].ID)
		if updates[i].ID == "" {
			h.fail(w, r, badRequest("every update needs an id"))
			return
		}
		if updates[i].Tags != nil {
			tags := db.NormalizeTags(*updates[i].Tags)
			updates[i].Tags = &tags
		}
	}

	n, err := h.store.UpdateChannels(r.Context(), updates)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "updated": n})
}

func (h *Handler) HandleChannelStats(w http.ResponseWriter, r *http.Request) {
	hours, err := intQuery(r, "hoursBack", defaultStatsHours)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if hours == 0 {
		h.fail(w, r, badRequest("hoursBack must be positive"))
		return
	}
	if hours > db.MaxLookbackHours {
		h.fail(w, r, badRequest(fmt.Sprintf("hoursBack must be at most %d", db.MaxLookbackHours)))
		return
	}

	rows, err := h.store.GetClientChannelStats(r.Context(), hours)
	list(h, w, r, rows, err)
}

// HandleBackfill archives a channel's history on demand.
func (h *Handler) HandleBackfill(w http.ResponseWriter, r *http.Request) {
	if h.backfill == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "Discord bot is not configured"})
		return
	}
	limit, err := intQuery(r, "limit", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	n, err := h.backfill.Backfill(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		h.log.Error("Backfill failed", "channel_id", chi.URLParam(r, "id"), "archived", n, "err", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{"success": false, "count": n, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "count": n})
}
