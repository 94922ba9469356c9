// Package webhooks delivers archive events to user-registered HTTP endpoints
// and records every attempt.
package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"DiscordArchive/db"

	"github.com/google/uuid"
	log15 "github.com/inconshreveable/log15/v3"
)

const (
	eventTest       = "test"
	testMessage     = "This is a test webhook delivery from Discord Archive"
	maxErrorBodyLen = 1024
)

var ErrDeliveryFailed = errors.New("webhook delivery failed")

// Event is one archive change fanned out to webhooks.
type Event struct {
	Type      string
	GuildID   string
	ChannelID string
	MessageID string
	Data      any
}

type envelope struct {
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
}

// Result of one delivery attempt.
type Result struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"status,omitempty"`
	Error      string `json:"error,omitempty"`
}

type hookStore interface {
	ListActiveWebhooks(ctx context.Context) ([]db.Webhook, error)
	CreateWebhookLog(ctx context.Context, l *db.WebhookLog) error
}

type Dispatcher struct {
	store  hookStore
	client *http.Client
	now    func() time.Time
	log    log15.Logger
}

func NewDispatcher(store hookStore, timeout time.Duration, log log15.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Dispatcher{
		store:  store,
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
		log:    log.New("component", "webhooks"),
	}
}

// Matches reports whether w subscribes to ev. Empty filters match everything;
// otherwise they hold a comma separated list of ids.
func Matches(w db.Webhook, ev Event) bool {
	if !w.IsActive {
		return false
	}
	if w.EventType != db.EventAll && w.EventType != ev.Type {
		return false
	}
	return listed(w.GuildFilter, ev.GuildID) && listed(w.ChannelFilter, ev.ChannelID)
}

func listed(filter, id string) bool {
	ids := db.SplitList(filter)
	if len(ids) == 0 {
		return true
	}
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// ValidEventType reports whether t can be subscribed to.
func ValidEventType(t string) bool {
	switch t {
	case db.EventMessageInsert, db.EventMessageUpdate, db.EventMessageDelete, db.EventAll:
		return true
	}
	return false
}

// Dispatch delivers ev once to every matching webhook and returns how many
// deliveries succeeded. Failures are logged and recorded, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) int {
	hooks, err := d.store.ListActiveWebhooks(ctx)
	if err != nil {
		d.log.Error("Failed to list webhooks", "event", ev.Type, "err", err)
		return 0
	}

	delivered := 0
	for _, w := range hooks {
		if !Matches(w, ev) {
			continue
		}
		body := envelope{Event: ev.Type, Timestamp: d.timestamp(), Data: ev.Data}
		res := d.deliver(ctx, w, ev.Type, body)
		d.record(ctx, w.ID, ev.Type, ev.MessageID, res)
		if res.Success {
			delivered++
		} else {
			d.log.Warn("Webhook delivery failed", "webhook_id", w.ID, "event", ev.Type, "status", res.StatusCode, "err", res.Error)
		}
	}
	return delivered
}

// SendTest posts a test payload to w regardless of its filters. A transport
// error is returned wrapped in ErrDeliveryFailed; a non-2xx answer is reported
// in the result.
func (d *Dispatcher) SendTest(ctx context.Context, w db.Webhook) (Result, error) {
	body := envelope{Event: eventTest, Timestamp: d.timestamp(), Message: testMessage}
	res := d.deliver(ctx, w, eventTest, body)
	d.record(ctx, w.ID, eventTest, "", res)

	if !res.Success && res.StatusCode == 0 {
		d.log.Error("Test delivery failed", "webhook_id", w.ID, "err", res.Error)
		return res, fmt.Errorf("%w: %s", ErrDeliveryFailed, res.Error)
	}
	return res, nil
}

func (d *Dispatcher) timestamp() string {
	return d.now().UTC().Format(time.RFC3339Nano)
}

func (d *Dispatcher) deliver(ctx context.Context, w db.Webhook, event string, body envelope) Result {
	payload, err := json.Marshal(body)
	if err != nil {
		return Result{Error: fmt.Sprintf("marshal payload: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(payload))
	if err != nil {
		return Result{Error: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Event", event)
	req.Header.Set("X-Delivery-ID", uuid.NewString())

	resp, err := d.client.Do(req)
	if err != nil {
		return Result{Error: err.Error()}
	}
	defer resp.Body.Close()

	res := Result{StatusCode: resp.StatusCode, Success: resp.StatusCode >= 200 && resp.StatusCode < 300}
	if !res.Success {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		res.Error = string(b)
		if res.Error == "" {
			res.Error = resp.Status
		}
	}
	return res
}

func (d *Dispatcher) record(ctx context.Context, webhookID uint, event, messageID string, res Result) {
	entry := &db.WebhookLog{
		WebhookID:    webhookID,
		EventType:    event,
		MessageID:    messageID,
		Success:      res.Success,
		ErrorMessage: res.Error,
	}
	if res.StatusCode != 0 {
		code := res.StatusCode
		entry.StatusCode = &code
	}
	if err := d.store.CreateWebhookLog(ctx, entry); err != nil {
		d.log.Error("Failed to record webhook delivery", "webhook_id", webhookID, "err", err)
	}
}
