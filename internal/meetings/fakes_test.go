package meetings

import (
	"context"
	"errors"
	"sync"
	"time"

	"DiscordArchive/db"
)

type fakeMappings struct {
	byEmail map[string]db.ClientMapping
	failFor map[string]bool
	lookups []string
}

func (f *fakeMappings) FindClientMappingByEmail(_ context.Context, email string) (*db.ClientMapping, error) {
	f.lookups = append(f.lookups, email)
	if f.failFor[email] {
		return nil, errors.New("connection reset")
	}
	m, ok := f.byEmail[email]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &m, nil
}

type fakeMeetingStore struct {
	created []*db.Meeting
	err     error
	// failures makes the next n inserts fail before succeeding.
	failures int
}

func (f *fakeMeetingStore) CreateMeeting(_ context.Context, m *db.Meeting) error {
	if f.err != nil {
		return f.err
	}
	if f.failures > 0 {
		f.failures--
		return errors.New("insert failed")
	}
	m.ID = uint(len(f.created) + 1)
	f.created = append(f.created, m)
	return nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []Notice
	err     error
	block   bool
}

func (f *fakeNotifier) NotifyMeeting(ctx context.Context, n Notice) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notices = append(f.notices, n)
	return f.err
}

type fakeGuard struct {
	seen map[string]bool
}

func (f *fakeGuard) FirstSeen(_ context.Context, name string, _ time.Duration) (bool, error) {
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	if f.seen[name] {
		return false, nil
	}
	f.seen[name] = true
	return true, nil
}

func (f *fakeGuard) Forget(_ context.Context, name string) error {
	delete(f.seen, name)
	return nil
}
