package a2p

import (
	"context"
	"testing"
	"time"

	"DiscordArchive/db"
	"DiscordArchive/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	rows []db.A2PStatus
}

func (f *fakeStore) CreateA2PStatus(_ context.Context, st *db.A2PStatus) error {
	st.ID = uint(len(f.rows) + 1)
	f.rows = append(f.rows, *st)
	return nil
}

func (f *fakeStore) LatestA2PStatuses(context.Context) ([]db.A2PStatus, error) {
	latest := map[string]db.A2PStatus{}
	var order []string
	for _, r := range f.rows {
		if _, ok := latest[r.LocationID]; !ok {
			order = append(order, r.LocationID)
		}
		if cur, ok := latest[r.LocationID]; !ok || !r.CheckedAt.Before(cur.CheckedAt) {
			latest[r.LocationID] = r
		}
	}
	out := make([]db.A2PStatus, 0, len(order))
	for _, id := range order {
		out = append(out, latest[id])
	}
	return out, nil
}

func (f *fakeStore) A2PHistory(_ context.Context, loc string, limit int) ([]db.A2PStatus, error) {
	var out []db.A2PStatus
	for i := len(f.rows) - 1; i >= 0 && len(out) < limit; i-- {
		if f.rows[i].LocationID == loc {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

type fakeOwner struct{ titles, contents []string }

func (f *fakeOwner) NotifyOwner(_ context.Context, title, content string) bool {
	f.titles = append(f.titles, title)
	f.contents = append(f.contents, content)
	return true
}

var fixed = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func newService(store *fakeStore, owner *fakeOwner) *Service {
	s := NewService(store, owner, utils.DiscardLogger())
	s.now = func() time.Time { return fixed }
	return s
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, db.A2PApproved, NormalizeStatus(" approved "))
	assert.Equal(t, db.A2PInReview, NormalizeStatus("IN REVIEW"))
	assert.Equal(t, db.A2PYetToStart, NormalizeStatus("Yet to Start"))
	assert.Equal(t, db.A2PUnknown, NormalizeStatus("rejected?"))
	assert.Equal(t, db.A2PUnknown, NormalizeStatus(""))
}

func TestRecord(t *testing.T) {
	store := &fakeStore{}
	s := newService(store, &fakeOwner{})

	_, err := s.Record(context.Background(), Report{LocationName: "No id"})
	assert.ErrorIs(t, err, ErrLocationRequired)

	st, err := s.Record(context.Background(), Report{LocationID: "loc1", BrandStatus: "approved", CampaignStatus: "in review"})
	require.NoError(t, err)
	assert.Equal(t, "loc1", st.LocationName)
	assert.Equal(t, db.A2PApproved, st.BrandStatus)
	assert.Equal(t, db.A2PInReview, st.CampaignStatus)
	assert.Equal(t, fixed, st.CheckedAt)

	when := fixed.Add(-time.Hour)
	st, err = s.Record(context.Background(), Report{LocationID: "loc1", CheckedAt: &when})
	require.NoError(t, err)
	assert.Equal(t, when, st.CheckedAt)
}

func TestSummarize(t *testing.T) {
	sum := Summarize([]db.A2PStatus{
		{LocationName: "A", BrandStatus: db.A2PApproved, CampaignStatus: db.A2PApproved},
		{LocationName: "B", BrandStatus: db.A2PApproved, CampaignStatus: db.A2PInReview},
		{LocationName: "C", BrandStatus: db.A2PYetToStart, CampaignStatus: db.A2PUnknown},
		{LocationName: "D", BrandStatus: db.A2PUnknown, CampaignStatus: db.A2PUnknown},
	})
	assert.Equal(t, 4, sum.Total)
	assert.Equal(t, 1, sum.Approved)
	assert.Equal(t, 1, sum.InReview)
	assert.Equal(t, 1, sum.YetToStart)
	assert.Equal(t, 1, sum.Unknown)
	assert.Equal(t, []string{"B", "C", "D"}, names(sum.NotApproved))

	text := sum.Text()
	assert.Contains(t, text, "4 location(s): 1 approved, 1 in review, 1 yet to start, 1 unknown")
	assert.Contains(t, text, "• B: brand Approved, campaign In Review")
	assert.NotContains(t, text, "• A:")
}

func names(rows []db.A2PStatus) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.LocationName
	}
	return out
}

func TestNotifySummary(t *testing.T) {
	store := &fakeStore{}
	owner := &fakeOwner{}
	s := newService(store, owner)
	ctx := context.Background()

	sent, err := s.NotifySummary(ctx)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Empty(t, owner.titles)

	_, err = s.Record(ctx, Report{LocationID: "loc1", BrandStatus: "Approved", CampaignStatus: "Approved"})
	require.NoError(t, err)
	sent, err = s.NotifySummary(ctx)
	require.NoError(t, err)
	assert.True(t, sent)
	require.Len(t, owner.contents, 1)
	assert.Contains(t, owner.contents[0], "1 location(s): 1 approved")
}

func TestHistory_DefaultLimit(t *testing.T) {
	store := &fakeStore{}
	s := newService(store, &fakeOwner{})
	for i := 0; i < 40; i++ {
		_, err := s.Record(context.Background(), Report{LocationID: "loc1"})
		require.NoError(t, err)
	}
	rows, err := s.History(context.Background(), "loc1", 0)
	require.NoError(t, err)
	assert.Len(t, rows, defaultHistoryLimit)
}
