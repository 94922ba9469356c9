package alerts

import (
	"context"
	"errors"
	"time"

	"DiscordArchive/db"
)

// fakeActivity serves message timestamps per channel and answers window queries from them.
type fakeActivity struct {
	channels []db.DiscordChannel
	messages map[string][]time.Time
	err      error
}

func (f *fakeActivity) ListChannels(context.Context, string) ([]db.DiscordChannel, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.channels, nil
}

func (f *fakeActivity) ActiveChannelIDsSince(_ context.Context, cutoff time.Time) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	var ids []string
	for id, ts := range f.messages {
		for _, t := range ts {
			if !t.Before(cutoff) {
				ids = append(ids, id)
				break
			}
		}
	}
	return ids, nil
}

func (f *fakeActivity) MessageCountsSince(_ context.Context, cutoff time.Time) (map[string]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	counts := map[string]int64{}
	for id, ts := range f.messages {
		for _, t := range ts {
			if !t.Before(cutoff) {
				counts[id]++
			}
		}
	}
	return counts, nil
}

type fakeAlerts struct {
	alerts    []db.ActivityAlert
	triggered map[uint]time.Time
	markErr   map[uint]bool
}

func (f *fakeAlerts) ListActiveAlerts(context.Context) ([]db.ActivityAlert, error) {
	return f.alerts, nil
}

func (f *fakeAlerts) MarkAlertTriggered(_ context.Context, id uint, at time.Time) error {
	if f.markErr[id] {
		return errors.New("write failed")
	}
	if f.triggered == nil {
		f.triggered = map[uint]time.Time{}
	}
	f.triggered[id] = at
	return nil
}

type sentNote struct{ title, content string }

type fakeOwner struct {
	sent []sentNote
	ok   bool
}

func (f *fakeOwner) NotifyOwner(_ context.Context, title, content string) bool {
	f.sent = append(f.sent, sentNote{title, content})
	return f.ok
}

type fakeLock struct {
	held     bool
	released bool
}

func (f *fakeLock) TryLock(context.Context, string, time.Duration) (bool, func(), error) {
	if f.held {
		return false, func() {}, nil
	}
	return true, func() { f.released = true }, nil
}

// spread returns n timestamps evenly inside (now-window, now].
func spread(now time.Time, window time.Duration, n int) []time.Time {
	out := make([]time.Time, n)
	step := window / time.Duration(n+1)
	for i := range out {
		out[i] = now.Add(-step * time.Duration(i+1))
	}
	return out
}
