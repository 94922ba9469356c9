// Package api serves the archive's JSON HTTP surface.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"DiscordArchive/db"
	"DiscordArchive/internal/a2p"
	"DiscordArchive/internal/alerts"
	"DiscordArchive/internal/chat"
	"DiscordArchive/internal/meetings"
	"DiscordArchive/internal/webhooks"

	log15 "github.com/inconshreveable/log15/v3"
)

const userHeader = "X-User-ID"

// Store is the persistence the handlers read and write directly.
type Store interface {
	Ping(ctx context.Context) error

	ListClientMappings(ctx context.Context) ([]db.ClientMapping, error)
	ReplaceClientMappings(ctx context.Context, rows []db.ClientMapping, uploadedBy string) (int, error)
	AddClientMapping(ctx context.Context, m *db.ClientMapping) error

	CreateMeetings(ctx context.Context, rows []db.Meeting) (int, error)
	FilterMeetings(ctx context.Context, f db.MeetingFilter) ([]db.Meeting, error)
	GetMeetingStats(ctx context.Context) (*db.MeetingStats, error)
	GetSearchSuggestions(ctx context.Context, query string, limit int) (*db.SearchSuggestions, error)

	ListGuilds(ctx context.Context) ([]db.DiscordGuild, error)
	ListChannels(ctx context.Context, guildID string) ([]db.DiscordChannel, error)
	ListMessages(ctx context.Context, f db.MessageFilter) ([]db.MessageView, error)
	UpdateChannels(ctx context.Context, updates []db.ChannelUpdate) (int, error)
	GetClientChannelStats(ctx context.Context, hoursBack int) ([]db.ChannelStats, error)

	CreateAlert(ctx context.Context, a *db.ActivityAlert) error
	GetAlert(ctx context.Context, id uint) (*db.ActivityAlert, error)
	UpdateAlert(ctx context.Context, a *db.ActivityAlert) error
	DeleteAlert(ctx context.Context, id uint) error
	ListAlerts(ctx context.Context) ([]db.ActivityAlert, error)

	CreateWebhook(ctx context.Context, w *db.Webhook) error
	GetWebhook(ctx context.Context, id uint) (*db.Webhook, error)
	UpdateWebhook(ctx context.Context, w *db.Webhook) error
	DeleteWebhook(ctx context.Context, id uint) error
	ListWebhooks(ctx context.Context) ([]db.Webhook, error)
	ListWebhookLogs(ctx context.Context, webhookID uint) ([]db.WebhookLog, error)
}

type MeetingIntake interface {
	Receive(ctx context.Context, body []byte) (*meetings.Outcome, error)
}

type AlertChecker interface {
	CheckAll(ctx context.Context) ([]alerts.Triggered, error)
}

type WebhookTester interface {
	SendTest(ctx context.Context, w db.Webhook) (webhooks.Result, error)
}

type ChatService interface {
	CreateConversation(ctx context.Context, userID, title string) (*db.ChatConversation, error)
	ListConversations(ctx context.Context, userID string) ([]db.ChatConversation, error)
	DeleteConversation(ctx context.Context, userID string, id uint) error
	Messages(ctx context.Context, userID string, id uint) ([]db.ChatMessage, error)
	SendMessage(ctx context.Context, userID string, conversationID uint, content string) (*db.ChatMessage, error)
	Settings(ctx context.Context, userID string) (chat.Settings, error)
	UpdateOpenAIKey(ctx context.Context, userID, key string) error
}

type A2PService interface {
	Record(ctx context.Context, r a2p.Report) (*db.A2PStatus, error)
	Latest(ctx context.Context) ([]db.A2PStatus, error)
	History(ctx context.Context, locationID string, limit int) ([]db.A2PStatus, error)
}

// Backfiller pages a channel's history into the archive. It is nil when no
// Discord session is configured.
type Backfiller interface {
	Backfill(ctx context.Context, channelID string, limit int) (int, error)
}

type Deps struct {
	Store       Store
	Intake      MeetingIntake
	Alerts      AlertChecker
	Webhooks    WebhookTester
	Chat        ChatService
	A2P         A2PService
	Backfill    Backfiller
	OwnerUserID string
	Log         log15.Logger
}

type Handler struct {
	store    Store
	intake   MeetingIntake
	alerts   AlertChecker
	webhooks WebhookTester
	chat     ChatService
	a2p      A2PService
	backfill Backfiller
	owner    string
	log      log15.Logger
}

func New(d Deps) *Handler {
	return &Handler{
		store:    d.Store,
		intake:   d.Intake,
		alerts:   d.Alerts,
		webhooks: d.Webhooks,
		chat:     d.Chat,
		a2p:      d.A2P,
		backfill: d.Backfill,
		owner:    d.OwnerUserID,
		log:      d.Log.New("component", "api"),
	}
}

// userID identifies the caller. There is no authentication; the header is trusted.
func (h *Handler) userID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(userHeader)); id != "" {
		return id
	}
	return h.owner
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.log.Warn("Health check: database unreachable", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "database": "unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
