// Package a2p tracks A2P 10DLC brand and campaign approval per location.
package a2p

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"DiscordArchive/db"

	log15 "github.com/inconshreveable/log15/v3"
)

const defaultHistoryLimit = 30

var ErrLocationRequired = errors.New("locationId is required")

// Report is one check result posted by the external status checker.
type Report struct {
	LocationID     string     `json:"locationId"`
	LocationName   string     `json:"locationName"`
	CompanyName    string     `json:"companyName"`
	BrandStatus    string     `json:"brandStatus"`
	CampaignStatus string     `json:"campaignStatus"`
	Notes          string     `json:"notes"`
	SourceURL      string     `json:"sourceUrl"`
	CheckedAt      *time.Time `json:"checkedAt"`
}

type statusStore interface {
	CreateA2PStatus(ctx context.Context, st *db.A2PStatus) error
	LatestA2PStatuses(ctx context.Context) ([]db.A2PStatus, error)
	A2PHistory(ctx context.Context, locationID string, limit int) ([]db.A2PStatus, error)
}

type ownerNotifier interface {
	NotifyOwner(ctx context.Context, title, content string) bool
}

type Service struct {
	store    statusStore
	notifier ownerNotifier
	now      func() time.Time
	log      log15.Logger
}

func NewService(store statusStore, notifier ownerNotifier, log log15.Logger) *Service {
	return &Service{store: store, notifier: notifier, now: time.Now, log: log.New("component", "a2p")}
}

// NormalizeStatus maps checker output onto the known statuses, case-insensitively.
func NormalizeStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approved":
		return db.A2PApproved
	case "in review", "in_review", "pending":
		return db.A2PInReview
	case "yet to start", "yet_to_start", "not started":
		return db.A2PYetToStart
	default:
		return db.A2PUnknown
	}
}

func (s *Service) Record(ctx context.Context, r Report) (*db.A2PStatus, error) {
	loc := strings.TrimSpace(r.LocationID)
	if loc == "" {
		return nil, ErrLocationRequired
	}

	st := &db.A2PStatus{
		LocationID:     loc,
		LocationName:   strings.TrimSpace(r.LocationName),
		CompanyName:    strings.TrimSpace(r.CompanyName),
		BrandStatus:    NormalizeStatus(r.BrandStatus),
		CampaignStatus: NormalizeStatus(r.CampaignStatus),
		Notes:          r.Notes,
		SourceURL:      r.SourceURL,
		CheckedAt:      s.now().UTC(),
	}
	if st.LocationName == "" {
		st.LocationName = loc
	}
	if r.CheckedAt != nil && !r.CheckedAt.IsZero() {
		st.CheckedAt = r.CheckedAt.UTC()
	}

	if err := s.store.CreateA2PStatus(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Service) Latest(ctx context.Context) ([]db.A2PStatus, error) {
	return s.store.LatestA2PStatuses(ctx)
}

func (s *Service) History(ctx context.Context, locationID string, limit int) ([]db.A2PStatus, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	return s.store.A2PHistory(ctx, locationID, limit)
}

// Summary counts locations by their most advanced blocking status.
type Summary struct {
	Total       int
	Approved    int
	InReview    int
	YetToStart  int
	Unknown     int
	NotApproved []db.A2PStatus
}

func Summarize(latest []db.A2PStatus) Summary {
	sum := Summary{Total: len(latest)}
	for _, st := range latest {
		switch {
		case st.Approved():
			sum.Approved++
			continue
		case st.BrandStatus == db.A2PInReview || st.CampaignStatus == db.A2PInReview:
			sum.InReview++
		case st.BrandStatus == db.A2PYetToStart || st.CampaignStatus == db.A2PYetToStart:
			sum.YetToStart++
		default:
			sum.Unknown++
		}
		sum.NotApproved = append(sum.NotApproved, st)
	}
	return sum
}

func (sum Summary) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d location(s): %d approved, %d in review, %d yet to start, %d unknown\n",
		sum.Total, sum.Approved, sum.InReview, sum.YetToStart, sum.Unknown)
	if len(sum.NotApproved) > 0 {
		b.WriteString("\nNot approved:\n")
		for _, st := range sum.NotApproved {
			fmt.Fprintf(&b, "• %s: brand %s, campaign %s\n", st.LocationName, st.BrandStatus, st.CampaignStatus)
		}
	}
	return b.String()
}

// NotifySummary posts the daily digest. It reports false without notifying
// when no location has been checked yet.
func (s *Service) NotifySummary(ctx context.Context) (bool, error) {
	latest, err := s.store.LatestA2PStatuses(ctx)
	if err != nil {
		return false, fmt.Errorf("NotifySummary: %w", err)
	}
	if len(latest) == 0 {
		s.log.Debug("No A2P locations, summary skipped")
		return false, nil
	}

	sum := Summarize(latest)
	if !s.notifier.NotifyOwner(ctx, "A2P status summary", sum.Text()) {
		s.log.Warn("A2P summary not delivered", "locations", sum.Total)
	}
	s.log.Info("A2P summary sent", "locations", sum.Total, "approved", sum.Approved)
	return true, nil
}
