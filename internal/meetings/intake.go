package meetings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"DiscordArchive/db"
	"DiscordArchive/utils"

	log15 "github.com/inconshreveable/log15/v3"
	"gorm.io/datatypes"
)

const (
	untitledMeeting = "Untitled Meeting"
	duplicateWindow = 10 * time.Minute
)

var ErrInvalidPayload = errors.New("payload must be a JSON object")

// Notice is what a channel notifier posts for a routed meeting.
type Notice struct {
	ChannelID    string
	Title        string
	Link         string
	Summary      string
	Participants []Participant
	MatchedEmail string
}

// Notifier posts a meeting to a Discord channel. Errors are reported, and the
// caller decides whether they matter.
type Notifier interface {
	NotifyMeeting(ctx context.Context, n Notice) error
}

type meetingStore interface {
	CreateMeeting(ctx context.Context, m *db.Meeting) error
}

type deliveryGuard interface {
	FirstSeen(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Forget(ctx context.Context, name string) error
}

// Outcome is reported back to Read.ai.
type Outcome struct {
	Duplicate bool
	Meeting   *db.Meeting
	Match     *Match
}

func (o *Outcome) ChannelID() *string {
	if o.Match == nil {
		return nil
	}
	id := o.Match.ChannelID
	return &id
}

type Intake struct {
	store         meetingStore
	router        *Router
	notifier      Notifier
	guard         deliveryGuard
	notifyTimeout time.Duration
	log           log15.Logger
}

func NewIntake(store meetingStore, router *Router, notifier Notifier, guard deliveryGuard, notifyTimeout time.Duration, log log15.Logger) *Intake {
	if notifyTimeout <= 0 {
		notifyTimeout = 10 * time.Second
	}
	return &Intake{
		store:         store,
		router:        router,
		notifier:      notifier,
		guard:         guard,
		notifyTimeout: notifyTimeout,
		log:           log.New("component", "readai"),
	}
}

// Receive records a Read.ai webhook delivery. The meeting is routed before it
// is stored so its matched channel is fixed at creation. Only a failed insert
// is returned as an error; posting to Discord is best effort.
func (in *Intake) Receive(ctx context.Context, body []byte) (*Outcome, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		return nil, ErrInvalidPayload
	}

	deliveryKey := "readai:" + utils.Hash(string(body))
	if in.guard != nil {
		first, err := in.guard.FirstSeen(ctx, deliveryKey, duplicateWindow)
		if err != nil {
			in.log.Warn("Duplicate check failed", "err", err)
		} else if !first {
			in.log.Info("Ignoring repeated delivery")
			return &Outcome{Duplicate: true}, nil
		}
	}

	participants := ParseParticipants(payload["participants"])
	meeting := &db.Meeting{
		Title:        firstString(payload, "title", "meeting_title"),
		MeetingLink:  firstString(payload, "link", "meeting_link", "url"),
		Summary:      firstString(payload, "summary", "meeting_summary"),
		SessionID:    firstString(payload, "session_id"),
		Participants: EncodeNames(participants),
		Topics:       joinedList(payload["topics"]),
		KeyQuestions: joinedList(payload["key_questions"]),
		Chapters:     rawText(payload["chapters"]),
		StartTime:    utils.ParseTime(firstString(payload, "start_time")),
		EndTime:      utils.ParseTime(firstString(payload, "end_time")),
		RawPayload:   datatypes.JSON(body),
	}
	if meeting.Title == "" {
		meeting.Title = untitledMeeting
	}

	match := in.router.Route(ctx, participants)
	if match != nil {
		meeting.MatchedChannelID = &match.ChannelID
	} else {
		in.log.Info("No matching Discord channel found for participants", "title", meeting.Title)
	}

	if err := in.store.CreateMeeting(ctx, meeting); err != nil {
		// A retry of this delivery must reach the store again.
		if in.guard != nil {
			if ferr := in.guard.Forget(context.WithoutCancel(ctx), deliveryKey); ferr != nil {
				in.log.Warn("Failed to clear delivery marker", "err", ferr)
			}
		}
		return nil, fmt.Errorf("Receive: %w", err)
	}

	if match != nil {
		in.notify(ctx, meeting, participants, match)
	}
	return &Outcome{Meeting: meeting, Match: match}, nil
}

func (in *Intake) notify(ctx context.Context, m *db.Meeting, participants []Participant, match *Match) {
	if in.notifier == nil {
		in.log.Warn("No Discord notifier configured", "channel_id", match.ChannelID)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, in.notifyTimeout)
	defer cancel()

	err := in.notifier.NotifyMeeting(ctx, Notice{
		ChannelID:    match.ChannelID,
		Title:        m.Title,
		Link:         m.MeetingLink,
		Summary:      m.Summary,
		Participants: participants,
		MatchedEmail: match.Email,
	})
	if err != nil {
		in.log.Error("Failed to post meeting to Discord", "channel_id", match.ChannelID, "meeting_id", m.ID, "err", err)
		return
	}
	in.log.Info("Posted meeting summary to Discord", "channel_id", match.ChannelID, "meeting_id", m.ID)
}

// firstString returns the first key holding a non-empty string.
func firstString(payload map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		raw, ok := payload[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
	}
	return ""
}

// joinedList flattens a string or a list of strings into a comma separated value.
func joinedList(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var items []any
	if err := json.Unmarshal(raw, &items); err != nil {
		return ""
	}
	out := ""
	for _, item := range items {
		var text string
		switch v := item.(type) {
		case string:
			text = v
		case map[string]any:
			if t, ok := v["text"].(string); ok {
				text = t
			} else if t, ok := v["title"].(string); ok {
				text = t
			}
		}
		if text == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += text
	}
	return out
}

func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
