package api

import (
	"net/http"
	"net/url"
	"strings"

	"DiscordArchive/db"
	"DiscordArchive/internal/webhooks"
)

type webhookRequest struct {
	Name          *string `json:"name"`
	URL           *string `json:"url"`
	EventType     *string `json:"eventType"`
	IsActive      *bool   `json:"isActive"`
	GuildFilter   *string `json:"guildFilter"`
	ChannelFilter *string `json:"channelFilter"`
}

func (in webhookRequest) apply(wh *db.Webhook) error {
	if in.Name != nil {
		wh.Name = strings.TrimSpace(*in.Name)
	}
	if in.URL != nil {
		wh.URL = strings.TrimSpace(*in.URL)
	}
	if in.EventType != nil {
		wh.EventType = *in.EventType
	}
	if in.IsActive != nil {
		wh.IsActive = *in.IsActive
	}
	if in.GuildFilter != nil {
		wh.GuildFilter = db.NormalizeTags(*in.GuildFilter)
	}
	if in.ChannelFilter != nil {
		wh.ChannelFilter = db.NormalizeTags(*in.ChannelFilter)
	}

	if wh.Name == "" {
		return badRequest("name is required")
	}
	if u, err := url.ParseRequestURI(wh.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return badRequest("url must be an absolute http(s) URL")
	}
	if !webhooks.ValidEventType(wh.EventType) {
		return badRequest("eventType must be message_insert, message_update, message_delete or all")
	}
	return nil
}

func (h *Handler) HandleListWebhooks(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListWebhooks(r.Context())
	list(h, w, r, rows, err)
}

func (h *Handler) HandleCreateWebhook(w http.ResponseWriter, r *http.Request) {
	var in webhookRequest
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	wh := &db.Webhook{EventType: db.EventAll, IsActive: true, CreatedBy: h.userID(r)}
	if err := in.apply(wh); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.store.CreateWebhook(r.Context(), wh); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wh)
}

func (h *Handler) HandleUpdateWebhook(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in webhookRequest
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	wh, err := h.store.GetWebhook(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := in.apply(wh); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.store.UpdateWebhook(r.Context(), wh); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wh)
}

func (h *Handler) HandleDeleteWebhook(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.store.DeleteWebhook(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleTestWebhook sends one test delivery. Transport failures surface as 502.
func (h *Handler) HandleTestWebhook(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	wh, err := h.store.GetWebhook(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.webhooks.SendTest(r.Context(), *wh)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) HandleWebhookLogs(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rows, err := h.store.ListWebhookLogs(r.Context(), id)
	list(h, w, r, rows, err)
}
