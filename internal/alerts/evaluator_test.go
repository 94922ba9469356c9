package alerts

import (
	"context"
	"testing"
	"time"

	"DiscordArchive/db"
	"DiscordArchive/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func newEvaluator(act *fakeActivity, store *fakeAlerts, owner *fakeOwner, opts ...Option) *Evaluator {
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	return NewEvaluator(act, store, owner, utils.DiscardLogger(), opts...)
}

func TestInactiveChannels_FilterByIDAndTag(t *testing.T) {
	act := &fakeActivity{
		channels: []db.DiscordChannel{
			{ID: "stale", Name: "stale-client", Tags: "retail, vip"},
			{ID: "fresh", Name: "fresh-client", Tags: "vip"},
			{ID: "never", Name: "never-posted"},
		},
		messages: map[string][]time.Time{
			"stale": {now.Add(-10 * day)},
			"fresh": {now.Add(-time.Hour)},
		},
	}
	e := newEvaluator(act, &fakeAlerts{}, &fakeOwner{ok: true})
	ctx := context.Background()

	got, err := e.InactiveChannels(ctx, 7, "", now)
	require.NoError(t, err)
	assert.Equal(t, []string{"stale", "never"}, ids(got))

	got, err = e.InactiveChannels(ctx, 7, "other-id, wholesale", now)
	require.NoError(t, err)
	assert.Empty(t, got, "filter excludes the stale channel by id and tags")

	got, err = e.InactiveChannels(ctx, 7, "vip", now)
	require.NoError(t, err)
	assert.Equal(t, []string{"stale"}, ids(got))

	got, err = e.InactiveChannels(ctx, 7, "never", now)
	require.NoError(t, err)
	assert.Equal(t, []string{"never"}, ids(got))

	got, err = e.InactiveChannels(ctx, 14, "", now)
	require.NoError(t, err)
	assert.Equal(t, []string{"never"}, ids(got))
}

func TestInactiveChannels_HugeThresholdIsCapped(t *testing.T) {
	act := &fakeActivity{
		channels: []db.DiscordChannel{
			{ID: "stale", Name: "stale-client"},
			{ID: "never", Name: "never-posted"},
		},
		messages: map[string][]time.Time{"stale": {now.Add(-10 * day)}},
	}
	e := newEvaluator(act, &fakeAlerts{}, &fakeOwner{ok: true})

	got, err := e.InactiveChannels(context.Background(), 200000, "", now)
	require.NoError(t, err)
	assert.Equal(t, []string{"never"}, ids(got))
}

func TestCheck_ZeroMessagesTriggersOnce(t *testing.T) {
	act := &fakeActivity{
		channels: []db.DiscordChannel{{ID: "a", Name: "acme"}, {ID: "b", Name: "beta"}},
		messages: map[string][]time.Time{"a": {now.Add(-8 * day)}},
	}
	store := &fakeAlerts{}
	owner := &fakeOwner{ok: true}
	e := newEvaluator(act, store, owner)

	alert := db.ActivityAlert{ID: 3, Name: "Quiet", AlertType: db.AlertZeroMessages, Threshold: 7, IsActive: true}
	got, err := e.Check(context.Background(), alert)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, Triggered{AlertID: 3, AlertName: "Quiet", ChannelCount: 2}, *got)

	require.Len(t, owner.sent, 1)
	assert.Contains(t, owner.sent[0].title, "Quiet")
	assert.Contains(t, owner.sent[0].content, "• acme")
	assert.Contains(t, owner.sent[0].content, "• beta")
	assert.Equal(t, now, store.triggered[3])
}

func TestCheck_ZeroMessagesNothingInactive(t *testing.T) {
	act := &fakeActivity{
		channels: []db.DiscordChannel{{ID: "a", Name: "acme"}},
		messages: map[string][]time.Time{"a": {now.Add(-time.Hour)}},
	}
	store := &fakeAlerts{}
	owner := &fakeOwner{ok: true}
	e := newEvaluator(act, store, owner)

	got, err := e.Check(context.Background(), db.ActivityAlert{ID: 1, AlertType: db.AlertZeroMessages, Threshold: 7})
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Empty(t, owner.sent)
	assert.Empty(t, store.triggered)
}

func TestPercentIncrease(t *testing.T) {
	pct, ok := percentIncrease(25, 70)
	require.True(t, ok)
	assert.Equal(t, 150.0, pct)

	pct, ok = percentIncrease(5, 70)
	require.True(t, ok)
	assert.Equal(t, -50.0, pct)

	_, ok = percentIncrease(40, 0)
	assert.False(t, ok, "no baseline, no percentage")
}

func spikeActivity() *fakeActivity {
	// 25 messages in the last day plus 45 earlier in the week: 70 over 7 days, 10/day average.
	week := spread(now.Add(-day), 6*day, 45)
	return &fakeActivity{
		channels: []db.DiscordChannel{{ID: "hot", Name: "hot-client", Tags: "vip"}, {ID: "cold", Name: "cold-client"}},
		messages: map[string][]time.Time{
			"hot": append(spread(now, day, 25), week...),
		},
	}
}

func TestSpikes_Threshold(t *testing.T) {
	e := newEvaluator(spikeActivity(), &fakeAlerts{}, &fakeOwner{ok: true})
	ctx := context.Background()

	spikes, err := e.Spikes(ctx, 100, "", now)
	require.NoError(t, err)
	require.Len(t, spikes, 1)
	assert.Equal(t, "hot", spikes[0].Channel.ID)
	assert.EqualValues(t, 25, spikes[0].Count24h)
	assert.Equal(t, 150.0, spikes[0].PercentIncrease)

	spikes, err = e.Spikes(ctx, 150, "", now)
	require.NoError(t, err)
	assert.Len(t, spikes, 1, "threshold is inclusive")

	spikes, err = e.Spikes(ctx, 200, "", now)
	require.NoError(t, err)
	assert.Empty(t, spikes)

	spikes, err = e.Spikes(ctx, 100, "cold", now)
	require.NoError(t, err)
	assert.Empty(t, spikes, "filter scopes spike detection too")
}

func TestCheck_VolumeSpikeNotification(t *testing.T) {
	store := &fakeAlerts{}
	owner := &fakeOwner{ok: true}
	e := newEvaluator(spikeActivity(), store, owner)

	got, err := e.Check(context.Background(), db.ActivityAlert{ID: 9, Name: "Spikes", AlertType: db.AlertVolumeSpike, Threshold: 100})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.ChannelCount)

	require.Len(t, owner.sent, 1)
	assert.Contains(t, owner.sent[0].content, "• hot-client: +150% (25 messages)")
	assert.Contains(t, store.triggered, uint(9))
}

func TestCheckAll_IsolatesFailingAlerts(t *testing.T) {
	act := &fakeActivity{
		channels: []db.DiscordChannel{{ID: "a", Name: "acme"}},
	}
	store := &fakeAlerts{
		alerts: []db.ActivityAlert{
			{ID: 1, Name: "Broken", AlertType: "sentiment", Threshold: 1},
			{ID: 2, Name: "Mark fails", AlertType: db.AlertZeroMessages, Threshold: 3},
			{ID: 3, Name: "Quiet", AlertType: db.AlertZeroMessages, Threshold: 7},
		},
		markErr: map[uint]bool{2: true},
	}
	owner := &fakeOwner{ok: false}
	e := newEvaluator(act, store, owner)

	got, err := e.CheckAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Triggered{{AlertID: 3, AlertName: "Quiet", ChannelCount: 1}}, got)
	assert.Len(t, owner.sent, 2, "undelivered notifications still count as triggered")
}

func TestCheckAll_SkipsWhenLocked(t *testing.T) {
	store := &fakeAlerts{alerts: []db.ActivityAlert{{ID: 1, AlertType: db.AlertZeroMessages, Threshold: 7}}}
	act := &fakeActivity{channels: []db.DiscordChannel{{ID: "a"}}}

	held := &fakeLock{held: true}
	got, err := newEvaluator(act, store, &fakeOwner{}, WithLock(held)).CheckAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)

	free := &fakeLock{}
	got, err = newEvaluator(act, store, &fakeOwner{}, WithLock(free)).CheckAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.True(t, free.released)
}

func TestParseFilter(t *testing.T) {
	f := parseFilter(" vip , ,123 ")
	assert.True(t, f.matches(db.DiscordChannel{ID: "123"}))
	assert.True(t, f.matches(db.DiscordChannel{ID: "9", Tags: "retail,vip"}))
	assert.False(t, f.matches(db.DiscordChannel{ID: "9", Tags: "vipers"}))
	assert.True(t, parseFilter("").matches(db.DiscordChannel{ID: "anything"}))
}

func ids(cs []db.DiscordChannel) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}
