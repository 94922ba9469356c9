package api

import (
	"net/http"
)

func (h *Handler) HandleListConversations(w http.ResponseWriter, r *http.Request) {
	rows, err := h.chat.ListConversations(r.Context(), h.userID(r))
	list(h, w, r, rows, err)
}

func (h *Handler) HandleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Title string `json:"title"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	c, err := h.chat.CreateConversation(r.Context(), h.userID(r), in.Title)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) HandleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.chat.DeleteConversation(r.Context(), h.userID(r), id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) HandleListChatMessages(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rows, err := h.chat.Messages(r.Context(), h.userID(r), id)
	list(h, w, r, rows, err)
}

func (h *Handler) HandleSendChatMessage(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var in struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}

	reply, err := h.chat.SendMessage(r.Context(), h.userID(r), id, in.Content)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"content": reply.Content, "message": reply})
}

func (h *Handler) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.chat.Settings(r.Context(), h.userID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) HandleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var in struct {
		OpenAIAPIKey *string `json:"openaiApiKey"`
	}
	if err := decodeJSON(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	if in.OpenAIAPIKey != nil {
		if err := h.chat.UpdateOpenAIKey(r.Context(), h.userID(r), *in.OpenAIAPIKey); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
