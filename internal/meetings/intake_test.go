package meetings

import (
	"context"
	"errors"
	"testing"
	"time"

	"DiscordArchive/db"
	"DiscordArchive/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIntake(store *fakeMeetingStore, notifier Notifier, guard deliveryGuard) *Intake {
	mappings := &fakeMappings{byEmail: map[string]db.ClientMapping{
		"client@acme.com": {ContactEmail: "client@acme.com", DiscordChannelID: "chan-1", DiscordChannelName: "acme"},
	}}
	log := utils.DiscardLogger()
	return NewIntake(store, NewRouter(mappings, log), notifier, guard, 50*time.Millisecond, log)
}

const matchedPayload = `{
	"meeting_title": "Weekly sync",
	"url": "https://app.read.ai/m/1",
	"meeting_summary": "We shipped.",
	"session_id": "sess-1",
	"start_time": "2024-05-01T15:00:00Z",
	"end_time": "2024-05-01T15:30:00Z",
	"topics": ["ads", {"text": "budget"}],
	"participants": [{"name": "Host", "email": "host@agency.com"}, "client@acme.com"]
}`

func TestReceive_MatchedMeetingIsStoredWithChannelAndPosted(t *testing.T) {
	store := &fakeMeetingStore{}
	notifier := &fakeNotifier{}
	in := newTestIntake(store, notifier, nil)

	out, err := in.Receive(context.Background(), []byte(matchedPayload))
	require.NoError(t, err)
	require.NotNil(t, out.Match)
	assert.Equal(t, "chan-1", *out.ChannelID())

	require.Len(t, store.created, 1)
	m := store.created[0]
	assert.Equal(t, "Weekly sync", m.Title)
	assert.Equal(t, "https://app.read.ai/m/1", m.MeetingLink)
	assert.Equal(t, "We shipped.", m.Summary)
	assert.Equal(t, "sess-1", m.SessionID)
	assert.Equal(t, "ads, budget", m.Topics)
	assert.Equal(t, `["Host","client@acme.com"]`, m.Participants)
	require.NotNil(t, m.MatchedChannelID)
	assert.Equal(t, "chan-1", *m.MatchedChannelID)
	require.NotNil(t, m.StartTime)
	assert.True(t, time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC).Equal(*m.StartTime))
	assert.JSONEq(t, matchedPayload, string(m.RawPayload))

	require.Len(t, notifier.notices, 1)
	n := notifier.notices[0]
	assert.Equal(t, "chan-1", n.ChannelID)
	assert.Equal(t, "client@acme.com", n.MatchedEmail)
	assert.Len(t, n.Participants, 2)
}

func TestReceive_FieldFallbacksAndDefaults(t *testing.T) {
	store := &fakeMeetingStore{}
	in := newTestIntake(store, &fakeNotifier{}, nil)

	out, err := in.Receive(context.Background(), []byte(`{"title": "", "link": "https://l", "summary": "s", "start_time": "garbage"}`))
	require.NoError(t, err)
	assert.Nil(t, out.Match)
	assert.Nil(t, out.ChannelID())

	m := store.created[0]
	assert.Equal(t, "Untitled Meeting", m.Title)
	assert.Equal(t, "https://l", m.MeetingLink)
	assert.Nil(t, m.StartTime)
	assert.Nil(t, m.MatchedChannelID)
}

func TestReceive_NotifierFailureIsSwallowed(t *testing.T) {
	store := &fakeMeetingStore{}
	in := newTestIntake(store, &fakeNotifier{err: errors.New("discord down")}, nil)

	out, err := in.Receive(context.Background(), []byte(matchedPayload))
	require.NoError(t, err)
	assert.NotNil(t, out.Match)
	assert.Len(t, store.created, 1)
}

func TestReceive_NotifierTimeoutIsSwallowed(t *testing.T) {
	store := &fakeMeetingStore{}
	in := newTestIntake(store, &fakeNotifier{block: true}, nil)

	start := time.Now()
	_, err := in.Receive(context.Background(), []byte(matchedPayload))
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Len(t, store.created, 1)
}

func TestReceive_StoreFailureIsReturned(t *testing.T) {
	store := &fakeMeetingStore{err: errors.New("db down")}
	notifier := &fakeNotifier{}
	in := newTestIntake(store, notifier, nil)

	_, err := in.Receive(context.Background(), []byte(matchedPayload))
	require.Error(t, err)
	assert.Empty(t, notifier.notices, "nothing is posted for a meeting that was not stored")
}

func TestReceive_InvalidPayload(t *testing.T) {
	in := newTestIntake(&fakeMeetingStore{}, nil, nil)
	for _, body := range []string{"", "null", "[1,2]", "not json"} {
		_, err := in.Receive(context.Background(), []byte(body))
		assert.ErrorIs(t, err, ErrInvalidPayload, body)
	}
}

func TestReceive_RepeatedDeliveryIsIgnored(t *testing.T) {
	store := &fakeMeetingStore{}
	notifier := &fakeNotifier{}
	in := newTestIntake(store, notifier, &fakeGuard{})

	_, err := in.Receive(context.Background(), []byte(matchedPayload))
	require.NoError(t, err)
	out, err := in.Receive(context.Background(), []byte(matchedPayload))
	require.NoError(t, err)

	assert.True(t, out.Duplicate)
	assert.Len(t, store.created, 1)
	assert.Len(t, notifier.notices, 1)
}

func TestReceive_RetryAfterFailedInsertIsStored(t *testing.T) {
	store := &fakeMeetingStore{failures: 1}
	notifier := &fakeNotifier{}
	in := newTestIntake(store, notifier, &fakeGuard{})

	_, err := in.Receive(context.Background(), []byte(matchedPayload))
	require.Error(t, err)
	assert.Empty(t, store.created)

	out, err := in.Receive(context.Background(), []byte(matchedPayload))
	require.NoError(t, err)
	assert.False(t, out.Duplicate)
	require.Len(t, store.created, 1)
	assert.Equal(t, "Weekly sync", store.created[0].Title)
	assert.Len(t, notifier.notices, 1)
}

func TestReceive_NoNotifierConfigured(t *testing.T) {
	store := &fakeMeetingStore{}
	in := newTestIntake(store, nil, nil)

	out, err := in.Receive(context.Background(), []byte(matchedPayload))
	require.NoError(t, err)
	assert.NotNil(t, out.Match)
}
