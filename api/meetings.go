package api

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"DiscordArchive/db"
	"DiscordArchive/internal/csvimport"
	"DiscordArchive/internal/meetings"
	"DiscordArchive/utils"
)

const minSuggestionQuery = 2

type readAIResponse struct {
	Success   bool    `json:"success"`
	Message   string  `json:"message"`
	Matched   bool    `json:"matched"`
	ChannelID *string `json:"channelId"`
}

type uploadResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
	Skipped int  `json:"skipped"`
}

// HandleReadAIWebhook records a Read.ai delivery. Only a failure to store the
// meeting is reported as an error; Discord posting never fails the request.
func (h *Handler) HandleReadAIWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "unable to read request body"})
		return
	}

	out, err := h.intake.Receive(r.Context(), body)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, meetings.ErrInvalidPayload) {
			status = http.StatusBadRequest
		}
		h.log.Error("Read.ai webhook failed", "err", err)
		writeJSON(w, status, errorBody{Error: err.Error()})
		return
	}

	resp := readAIResponse{Success: true, Message: "Meeting data received", Matched: out.Match != nil, ChannelID: out.ChannelID()}
	if out.Duplicate {
		resp.Message = "Duplicate delivery ignored"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleListMeetings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intQuery(r, "limit", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	f := db.MeetingFilter{
		SearchText: q.Get("search"),
		ChannelID:  q.Get("channelId"),
		StartDate:  utils.ParseTime(q.Get("startDate")),
		EndDate:    endOfRange(q.Get("endDate")),
		Limit:      limit,
	}
	rows, err := h.store.FilterMeetings(r.Context(), f)
	list(h, w, r, rows, err)
}

// endOfRange makes a bare date inclusive of that whole day.
func endOfRange(s string) *time.Time {
	t := utils.ParseTime(s)
	if t == nil {
		return nil
	}
	if len(strings.TrimSpace(s)) == len("2006-01-02") {
		next := t.Add(24 * time.Hour)
		return &next
	}
	return t
}

// HandleUploadMeetings bulk imports a Read.ai CSV export. Imported meetings
// are not routed to channels.
func (h *Handler) HandleUploadMeetings(w http.ResponseWriter, r *http.Request) {
	text, err := uploadText(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := csvimport.ParseMeetings(text)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	n, err := h.store.CreateMeetings(r.Context(), res.Records)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.log.Info("Meetings imported", "count", n, "skipped", res.Skipped)
	writeJSON(w, http.StatusOK, uploadResponse{Success: true, Count: n, Skipped: res.Skipped})
}

func (h *Handler) HandleMeetingStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetMeetingStats(r.Context())
	if err != nil {
		if !db.IsUnavailable(err) {
			h.fail(w, r, err)
			return
		}
		h.log.Warn("Database unavailable, serving empty stats", "err", err)
		stats = &db.MeetingStats{
			MeetingsByChannel: []db.ChannelCount{},
			MeetingsByMonth:   []db.MonthCount{},
			TopParticipants:   []db.ParticipantCount{},
		}
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) HandleMeetingSuggestions(w http.ResponseWriter, r *http.Request) {
	empty := &db.SearchSuggestions{Clients: []string{}, Participants: []string{}, Topics: []string{}}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if len([]rune(query)) < minSuggestionQuery {
		writeJSON(w, http.StatusOK, empty)
		return
	}
	limit, err := intQuery(r, "limit", 5)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out, err := h.store.GetSearchSuggestions(r.Context(), query, limit)
	if err != nil {
		if !db.IsUnavailable(err) {
			h.fail(w, r, err)
			return
		}
		out = empty
	}
	writeJSON(w, http.StatusOK, out)
}
