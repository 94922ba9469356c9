package api

import (
	"context"
	"database/sql/driver"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"DiscordArchive/db"
	"DiscordArchive/internal/a2p"
	"DiscordArchive/internal/alerts"
	"DiscordArchive/internal/chat"
	"DiscordArchive/internal/meetings"
	"DiscordArchive/internal/webhooks"
	"DiscordArchive/utils"

	"github.com/go-chi/chi/v5"
)

// errDown is what a read sees when the database connection is gone.
var errDown = fmt.Errorf("ListThings: %w", driver.ErrBadConn)

// fakeStore implements the Store methods the tests touch. Calling any other
// method panics on the nil embedded interface.
type fakeStore struct {
	Store

	pingErr error

	mappings     []db.ClientMapping
	mappingsErr  error
	replacedBy   string
	added        *db.ClientMapping
	meetings     []db.Meeting
	created      []db.Meeting
	filter       db.MeetingFilter
	statsHours   int
	alerts       map[uint]*db.ActivityAlert
	createdAlert *db.ActivityAlert
	webhooks     map[uint]*db.Webhook
	updates      []db.ChannelUpdate
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) ListClientMappings(context.Context) ([]db.ClientMapping, error) {
	return f.mappings, f.mappingsErr
}

func (f *fakeStore) ReplaceClientMappings(_ context.Context, rows []db.ClientMapping, by string) (int, error) {
	f.mappings, f.replacedBy = rows, by
	return len(rows), nil
}

func (f *fakeStore) AddClientMapping(_ context.Context, m *db.ClientMapping) error {
	f.added = m
	return nil
}

func (f *fakeStore) CreateMeetings(_ context.Context, rows []db.Meeting) (int, error) {
	f.created = append(f.created, rows...)
	return len(rows), nil
}

func (f *fakeStore) FilterMeetings(_ context.Context, mf db.MeetingFilter) ([]db.Meeting, error) {
	f.filter = mf
	return f.meetings, nil
}

func (f *fakeStore) GetClientChannelStats(_ context.Context, hours int) ([]db.ChannelStats, error) {
	f.statsHours = hours
	return nil, nil
}

func (f *fakeStore) UpdateChannels(_ context.Context, u []db.ChannelUpdate) (int, error) {
	f.updates = u
	return len(u), nil
}

func (f *fakeStore) CreateAlert(_ context.Context, a *db.ActivityAlert) error {
	a.ID = 1
	f.createdAlert = a
	return nil
}

func (f *fakeStore) GetAlert(_ context.Context, id uint) (*db.ActivityAlert, error) {
	if a, ok := f.alerts[id]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("GetAlert: %d: %w", id, db.ErrNotFound)
}

func (f *fakeStore) UpdateAlert(context.Context, *db.ActivityAlert) error { return nil }

func (f *fakeStore) GetWebhook(_ context.Context, id uint) (*db.Webhook, error) {
	if w, ok := f.webhooks[id]; ok {
		return w, nil
	}
	return nil, fmt.Errorf("GetWebhook: %d: %w", id, db.ErrNotFound)
}

func (f *fakeStore) CreateWebhook(_ context.Context, w *db.Webhook) error {
	w.ID = 1
	return nil
}

type fakeIntake struct {
	out  *meetings.Outcome
	err  error
	body []byte
}

func (f *fakeIntake) Receive(_ context.Context, body []byte) (*meetings.Outcome, error) {
	f.body = body
	return f.out, f.err
}

type fakeChecker struct{ triggered []alerts.Triggered }

func (f *fakeChecker) CheckAll(context.Context) ([]alerts.Triggered, error) {
	return f.triggered, nil
}

type fakeTester struct {
	res webhooks.Result
	err error
}

func (f *fakeTester) SendTest(context.Context, db.Webhook) (webhooks.Result, error) {
	return f.res, f.err
}

type fakeChat struct {
	ChatService
	user    string
	sendErr error
}

func (f *fakeChat) SendMessage(_ context.Context, userID string, id uint, content string) (*db.ChatMessage, error) {
	f.user = userID
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &db.ChatMessage{ConversationID: id, Role: db.RoleAssistant, Content: "echo: " + content}, nil
}

func (f *fakeChat) Settings(_ context.Context, userID string) (chat.Settings, error) {
	f.user = userID
	return chat.Settings{HasOpenAIKey: true}, nil
}

type fakeA2P struct {
	A2PService
	latestErr error
}

func (f *fakeA2P) Record(_ context.Context, r a2p.Report) (*db.A2PStatus, error) {
	if r.LocationID == "" {
		return nil, a2p.ErrLocationRequired
	}
	return &db.A2PStatus{LocationID: r.LocationID}, nil
}

func (f *fakeA2P) Latest(context.Context) ([]db.A2PStatus, error) {
	return nil, f.latestErr
}

type testDeps struct {
	store  *fakeStore
	intake *fakeIntake
	check  *fakeChecker
	tester *fakeTester
	chat   *fakeChat
	a2p    *fakeA2P
}

func newTestRouter(t *testing.T) (http.Handler, *testDeps) {
	t.Helper()
	d := &testDeps{
		store:  &fakeStore{alerts: map[uint]*db.ActivityAlert{}, webhooks: map[uint]*db.Webhook{}},
		intake: &fakeIntake{},
		check:  &fakeChecker{},
		tester: &fakeTester{},
		chat:   &fakeChat{},
		a2p:    &fakeA2P{},
	}
	h := New(Deps{
		Store:       d.store,
		Intake:      d.intake,
		Alerts:      d.check,
		Webhooks:    d.tester,
		Chat:        d.chat,
		A2P:         d.a2p,
		OwnerUserID: "owner",
		Log:         utils.DiscardLogger(),
	})
	r := chi.NewRouter()
	h.Mount(r)
	return r, d
}

func do(h http.Handler, method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
