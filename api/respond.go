package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"DiscordArchive/db"
	"DiscordArchive/internal/a2p"
	"DiscordArchive/internal/chat"
	"DiscordArchive/internal/csvimport"
	"DiscordArchive/internal/meetings"
	"DiscordArchive/internal/openai"
	"DiscordArchive/internal/webhooks"

	"github.com/go-chi/chi/v5"
)

const maxUploadBytes = 50 << 20

// badRequest is a caller mistake reported verbatim with a 400.
type badRequest string

func (e badRequest) Error() string { return string(e) }

type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func statusFor(err error) int {
	var bad badRequest
	var col *csvimport.ColumnError
	var apiErr *openai.APIError
	switch {
	case errors.As(err, &bad), errors.As(err, &col),
		errors.Is(err, csvimport.ErrEmpty),
		errors.Is(err, chat.ErrNoAPIKey),
		errors.Is(err, chat.ErrEmptyContent),
		errors.Is(err, chat.ErrEmptyTitle),
		errors.Is(err, a2p.ErrLocationRequired),
		errors.Is(err, meetings.ErrInvalidPayload):
		return http.StatusBadRequest
	case errors.Is(err, db.ErrNotFound), errors.Is(err, chat.ErrConversationNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrConflict):
		return http.StatusConflict
	case errors.As(err, &apiErr), errors.Is(err, openai.ErrEmptyResponse), errors.Is(err, openai.ErrUnreachable),
		errors.Is(err, webhooks.ErrDeliveryFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// fail maps err to a status. Server faults are logged and not echoed.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch {
	case errors.Is(err, db.ErrNotFound):
		msg = "not found"
	case status == http.StatusInternalServerError:
		h.log.Error("Request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		msg = "internal server error"
	case status == http.StatusBadGateway:
		h.log.Warn("Upstream failure", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorBody{Error: msg})
}

// list writes rows. A read against an unreachable database degrades to an
// empty collection instead of an error.
func list[T any](h *Handler, w http.ResponseWriter, r *http.Request, rows []T, err error) {
	if err != nil {
		if !db.IsUnavailable(err) {
			h.fail(w, r, err)
			return
		}
		h.log.Warn("Database unavailable, serving empty result", "path", r.URL.Path, "err", err)
		rows = nil
	}
	if rows == nil {
		rows = []T{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return badRequest(fmt.Sprintf("invalid JSON body: %v", err))
	}
	return nil
}

// uploadText reads a CSV upload sent either as the raw body or as
// {"csvText": "..."}.
func uploadText(w http.ResponseWriter, r *http.Request) (string, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		return "", badRequest(fmt.Sprintf("read upload: %v", err))
	}

	if ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); ct == "application/json" {
		var in struct {
			CSVText string `json:"csvText"`
		}
		if err := json.Unmarshal(body, &in); err != nil {
			return "", badRequest(fmt.Sprintf("invalid JSON body: %v", err))
		}
		return in.CSVText, nil
	}
	return string(body), nil
}

func idParam(r *http.Request, name string) (uint, error) {
	v, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || v == 0 {
		return 0, badRequest(fmt.Sprintf("invalid %s", name))
	}
	return uint(v), nil
}

// intQuery parses an optional non-negative integer query parameter.
func intQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, badRequest(fmt.Sprintf("invalid %s", name))
	}
	return v, nil
}
