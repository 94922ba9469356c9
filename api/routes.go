package api

import (
	"github.com/go-chi/chi/v5"
)

// Mount registers every route on r.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/health", h.HandleHealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/client-mappings", func(r chi.Router) {
			r.Get("/", h.HandleListClientMappings)
			r.Post("/", h.HandleAddClientMapping)
			r.Post("/upload", h.HandleUploadClientMappings)
		})

		r.Route("/meetings", func(r chi.Router) {
			r.Get("/", h.HandleListMeetings)
			r.Post("/upload", h.HandleUploadMeetings)
			r.Get("/stats", h.HandleMeetingStats)
			r.Get("/suggestions", h.HandleMeetingSuggestions)
		})

		r.Route("/discord", func(r chi.Router) {
			r.Get("/guilds", h.HandleListGuilds)
			r.Get("/channels", h.HandleListChannels)
			r.Patch("/channels", h.HandleUpdateChannels)
			r.Post("/channels/{id}/backfill", h.HandleBackfill)
			r.Get("/messages", h.HandleListMessages)
			r.Get("/channel-stats", h.HandleChannelStats)
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", h.HandleListAlerts)
			r.Post("/", h.HandleCreateAlert)
			r.Post("/check", h.HandleCheckAlerts)
			r.Put("/{id}", h.HandleUpdateAlert)
			r.Delete("/{id}", h.HandleDeleteAlert)
		})

		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/readai", h.HandleReadAIWebhook)
			r.Get("/", h.HandleListWebhooks)
			r.Post("/", h.HandleCreateWebhook)
			r.Put("/{id}", h.HandleUpdateWebhook)
			r.Delete("/{id}", h.HandleDeleteWebhook)
			r.Post("/{id}/test", h.HandleTestWebhook)
			r.Get("/{id}/logs", h.HandleWebhookLogs)
		})

		r.Route("/chat/conversations", func(r chi.Router) {
			r.Get("/", h.HandleListConversations)
			r.Post("/", h.HandleCreateConversation)
			r.Delete("/{id}", h.HandleDeleteConversation)
			r.Get("/{id}/messages", h.HandleListChatMessages)
			r.Post("/{id}/messages", h.HandleSendChatMessage)
		})

		r.Get("/settings", h.HandleGetSettings)
		r.Put("/settings", h.HandleUpdateSettings)

		r.Route("/a2p", func(r chi.Router) {
			r.Post("/status", h.HandleRecordA2PStatus)
			r.Get("/latest", h.HandleLatestA2PStatus)
			r.Get("/{locationId}/history", h.HandleA2PHistory)
		})
	})
}
