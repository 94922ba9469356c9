// Package alerts evaluates activity alerts against archived message volume.
package alerts

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"DiscordArchive/db"

	log15 "github.com/inconshreveable/log15/v3"
)

const (
	day       = 24 * time.Hour
	sweepLock = "alert-sweep"
)

type activitySource interface {
	ListChannels(ctx context.Context, guildID string) ([]db.DiscordChannel, error)
	ActiveChannelIDsSince(ctx context.Context, cutoff time.Time) ([]string, error)
	MessageCountsSince(ctx context.Context, cutoff time.Time) (map[string]int64, error)
}

type alertStore interface {
	ListActiveAlerts(ctx context.Context) ([]db.ActivityAlert, error)
	MarkAlertTriggered(ctx context.Context, id uint, at time.Time) error
}

// OwnerNotifier delivers a message to the workspace owner and reports whether it went out.
type OwnerNotifier interface {
	NotifyOwner(ctx context.Context, title, content string) bool
}

type locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (bool, func(), error)
}

type Triggered struct {
	AlertID      uint   `json:"alertId"`
	AlertName    string `json:"alertName"`
	ChannelCount int    `json:"channelCount"`
}

// Spike is one channel over its volume threshold.
type Spike struct {
	Channel         db.DiscordChannel
	Count24h        int64
	PercentIncrease float64
}

type Evaluator struct {
	activity activitySource
	alerts   alertStore
	notifier OwnerNotifier
	lock     locker
	now      func() time.Time
	log      log15.Logger
}

type Option func(*Evaluator)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) { e.now = now }
}

// WithLock serialises sweeps across instances.
func WithLock(l locker) Option {
	return func(e *Evaluator) { e.lock = l }
}

func NewEvaluator(activity activitySource, alerts alertStore, notifier OwnerNotifier, log log15.Logger, opts ...Option) *Evaluator {
	e := &Evaluator{
		activity: activity,
		alerts:   alerts,
		notifier: notifier,
		now:      time.Now,
		log:      log.New("component", "alerts"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CheckAll evaluates every active alert once. A failing alert is logged and
// skipped so the rest of the sweep still runs.
func (e *Evaluator) CheckAll(ctx context.Context) ([]Triggered, error) {
	if e.lock != nil {
		ok, release, err := e.lock.TryLock(ctx, sweepLock, 5*time.Minute)
		if err != nil {
			e.log.Warn("Sweep lock unavailable, running unlocked", "err", err)
		} else if !ok {
			e.log.Info("Another sweep is running, skipping")
			return []Triggered{}, nil
		} else {
			defer release()
		}
	}

	list, err := e.alerts.ListActiveAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("CheckAll: %w", err)
	}

	triggered := []Triggered{}
	for _, alert := range list {
		t, err := e.Check(ctx, alert)
		if err != nil {
			e.log.Error("Alert evaluation failed", "alert_id", alert.ID, "alert", alert.Name, "err", err)
			continue
		}
		if t != nil {
			triggered = append(triggered, *t)
		}
	}
	return triggered, nil
}

// Check evaluates one alert and returns a non-nil Triggered when it fired.
func (e *Evaluator) Check(ctx context.Context, alert db.ActivityAlert) (*Triggered, error) {
	switch alert.AlertType {
	case db.AlertZeroMessages:
		return e.checkZeroMessages(ctx, alert)
	case db.AlertVolumeSpike:
		return e.checkVolumeSpike(ctx, alert)
	default:
		return nil, fmt.Errorf("unknown alert type %q", alert.AlertType)
	}
}

func (e *Evaluator) checkZeroMessages(ctx context.Context, alert db.ActivityAlert) (*Triggered, error) {
	now := e.now()
	inactive, err := e.InactiveChannels(ctx, alert.Threshold, alert.ChannelFilter, now)
	if err != nil {
		return nil, err
	}
	if len(inactive) == 0 {
		e.log.Debug("No inactive channels", "alert_id", alert.ID)
		return nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d channel(s) have had no messages in the last %d day(s):\n\n", len(inactive), alert.Threshold)
	for _, c := range inactive {
		fmt.Fprintf(&b, "• %s\n", c.Name)
	}
	return e.fire(ctx, alert, now, len(inactive), "Zero-message alert: "+alert.Name, b.String())
}

// InactiveChannels returns the channels selected by filter with no message in
// the last thresholdDays days, including channels that never had one.
// thresholdDays is capped at db.MaxLookbackDays.
func (e *Evaluator) InactiveChannels(ctx context.Context, thresholdDays int, filter string, now time.Time) ([]db.DiscordChannel, error) {
	thresholdDays = min(thresholdDays, db.MaxLookbackDays)
	cutoff := now.Add(-time.Duration(thresholdDays) * day)

	activeIDs, err := e.activity.ActiveChannelIDsSince(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("active channels: %w", err)
	}
	active := make(map[string]bool, len(activeIDs))
	for _, id := range activeIDs {
		active[id] = true
	}

	channels, err := e.activity.ListChannels(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("channels: %w", err)
	}

	var inactive []db.DiscordChannel
	for _, c := range parseFilter(filter).apply(channels) {
		if !active[c.ID] {
			inactive = append(inactive, c)
		}
	}
	return inactive, nil
}

func (e *Evaluator) checkVolumeSpike(ctx context.Context, alert db.ActivityAlert) (*Triggered, error) {
	now := e.now()
	spikes, err := e.Spikes(ctx, float64(alert.Threshold), alert.ChannelFilter, now)
	if err != nil {
		return nil, err
	}
	if len(spikes) == 0 {
		e.log.Debug("No volume spikes", "alert_id", alert.ID)
		return nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d channel(s) are at least %d%% above their 7-day average:\n\n", len(spikes), alert.Threshold)
	for _, s := range spikes {
		fmt.Fprintf(&b, "• %s: +%.0f%% (%d messages)\n", s.Channel.Name, s.PercentIncrease, s.Count24h)
	}
	return e.fire(ctx, alert, now, len(spikes), "Volume spike alert: "+alert.Name, b.String())
}

// Spikes compares each channel's last 24 hours with its trailing 7-day daily
// average. Channels with no messages in the 7-day window have no baseline and
// never spike.
func (e *Evaluator) Spikes(ctx context.Context, thresholdPct float64, filter string, now time.Time) ([]Spike, error) {
	counts24h, err := e.activity.MessageCountsSince(ctx, now.Add(-day))
	if err != nil {
		return nil, fmt.Errorf("24h counts: %w", err)
	}
	counts7d, err := e.activity.MessageCountsSince(ctx, now.Add(-7*day))
	if err != nil {
		return nil, fmt.Errorf("7d counts: %w", err)
	}
	channels, err := e.activity.ListChannels(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("channels: %w", err)
	}

	var spikes []Spike
	for _, c := range parseFilter(filter).apply(channels) {
		pct, ok := percentIncrease(counts24h[c.ID], counts7d[c.ID])
		if !ok || pct < thresholdPct {
			continue
		}
		spikes = append(spikes, Spike{Channel: c, Count24h: counts24h[c.ID], PercentIncrease: pct})
	}
	return spikes, nil
}

// percentIncrease of the 24h count over the 7-day daily average. ok is false
// when there is no baseline.
func percentIncrease(count24h, count7d int64) (float64, bool) {
	baseline := float64(count7d) / 7
	if baseline == 0 {
		return 0, false
	}
	pct := (float64(count24h) - baseline) / baseline * 100
	// Round away float noise before the threshold comparison.
	return math.Round(pct*1e6) / 1e6, true
}

func (e *Evaluator) fire(ctx context.Context, alert db.ActivityAlert, now time.Time, count int, title, content string) (*Triggered, error) {
	if e.notifier != nil && !e.notifier.NotifyOwner(ctx, title, content) {
		e.log.Warn("Owner notification not delivered", "alert_id", alert.ID)
	}
	if err := e.alerts.MarkAlertTriggered(ctx, alert.ID, now); err != nil {
		return nil, fmt.Errorf("mark triggered: %w", err)
	}

	e.log.Info("Alert triggered", "alert_id", alert.ID, "alert", alert.Name, "channels", count)
	return &Triggered{AlertID: alert.ID, AlertName: alert.Name, ChannelCount: count}, nil
}
