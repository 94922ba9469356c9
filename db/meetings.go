package db

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

const defaultMeetingLimit = 50

func (s *Store) CreateMeeting(ctx context.Context, m *Meeting) error {
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("CreateMeeting: %q: %w", m.Title, err)
	}
	return nil
}

func (s *Store) CreateMeetings(ctx context.Context, rows []Meeting) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := s.db.WithContext(ctx).CreateInBatches(&rows, 200).Error; err != nil {
		return 0, fmt.Errorf("CreateMeetings: %w", err)
	}
	return len(rows), nil
}

type MeetingFilter struct {
	SearchText string
	ChannelID  string
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
}

// FilterMeetings returns meetings newest first. Meetings without a start time
// sort by when they were received.
func (s *Store) FilterMeetings(ctx context.Context, f MeetingFilter) ([]Meeting, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultMeetingLimit
	}

	q := s.db.WithContext(ctx).Model(&Meeting{})
	if text := strings.TrimSpace(f.SearchText); text != "" {
		like := "%" + text + "%"
		q = q.Where("title ILIKE ? OR summary ILIKE ? OR participants ILIKE ? OR topics ILIKE ?", like, like, like, like)
	}
	if f.ChannelID != "" {
		q = q.Where("matched_channel_id = ?", f.ChannelID)
	}
	if f.StartDate != nil {
		q = q.Where("COALESCE(start_time, received_at) >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("COALESCE(start_time, received_at) < ?", *f.EndDate)
	}

	var rows []Meeting
	if err := q.Order("COALESCE(start_time, received_at) DESC").Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("FilterMeetings: %w", err)
	}
	return rows, nil
}

type ChannelCount struct {
	ChannelID string `json:"channelId"`
	Count     int64  `json:"count"`
}

type MonthCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

type ParticipantCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type MeetingStats struct {
	TotalMeetings     int64              `json:"totalMeetings"`
	MeetingsByChannel []ChannelCount     `json:"meetingsByChannel"`
	MeetingsByMonth   []MonthCount       `json:"meetingsByMonth"`
	TopParticipants   []ParticipantCount `json:"topParticipants"`
}

func (s *Store) GetMeetingStats(ctx context.Context) (*MeetingStats, error) {
	stats := &MeetingStats{}
	db := s.db.WithContext(ctx)

	if err := db.Model(&Meeting{}).Count(&stats.TotalMeetings).Error; err != nil {
		return nil, fmt.Errorf("GetMeetingStats: total: %w", err)
	}

	err := db.Model(&Meeting{}).
		Select("matched_channel_id AS channel_id, COUNT(*) AS count").
		Where("matched_channel_id IS NOT NULL").
		Group("matched_channel_id").
		Order("count DESC").
		Scan(&stats.MeetingsByChannel).Error
	if err != nil {
		return nil, fmt.Errorf("GetMeetingStats: by channel: %w", err)
	}

	err = db.Model(&Meeting{}).
		Select("to_char(start_time AT TIME ZONE 'UTC', 'YYYY-MM') AS month, COUNT(*) AS count").
		Where("start_time IS NOT NULL").
		Group("month").
		Order("month").
		Scan(&stats.MeetingsByMonth).Error
	if err != nil {
		return nil, fmt.Errorf("GetMeetingStats: by month: %w", err)
	}

	var lists []string
	if err := db.Model(&Meeting{}).Where("participants <> ''").Pluck("participants", &lists).Error; err != nil {
		return nil, fmt.Errorf("GetMeetingStats: participants: %w", err)
	}
	stats.TopParticipants = topParticipants(lists, 10)

	return stats, nil
}

func topParticipants(lists []string, n int) []ParticipantCount {
	counts := map[string]int{}
	for _, list := range lists {
		for _, p := range SplitParticipants(list) {
			counts[p]++
		}
	}

	out := make([]ParticipantCount, 0, len(counts))
	for name, c := range counts {
		out = append(out, ParticipantCount{Name: name, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// SplitParticipants decodes the stored participants column, which holds either
// a JSON array of names or a comma separated list.
func SplitParticipants(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var out []string
	if strings.HasPrefix(s, "[") {
		var names []string
		if err := json.Unmarshal([]byte(s), &names); err == nil {
			for _, n := range names {
				if n = strings.TrimSpace(n); n != "" {
					out = append(out, n)
				}
			}
			return out
		}
	}

	for _, n := range strings.Split(s, ",") {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

type SearchSuggestions struct {
	Clients      []string `json:"clients"`
	Participants []string `json:"participants"`
	Topics       []string `json:"topics"`
}

// GetSearchSuggestions offers client names, participants and topics containing query.
func (s *Store) GetSearchSuggestions(ctx context.Context, query string, limit int) (*SearchSuggestions, error) {
	out := &SearchSuggestions{Clients: []string{}, Participants: []string{}, Topics: []string{}}
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return out, nil
	}
	if limit <= 0 {
		limit = 5
	}
	like := "%" + query + "%"
	db := s.db.WithContext(ctx)

	err := db.Model(&ClientMapping{}).
		Distinct("client_name").
		Where("client_name ILIKE ?", like).
		Order("client_name").
		Limit(limit).
		Pluck("client_name", &out.Clients).Error
	if err != nil {
		return nil, fmt.Errorf("GetSearchSuggestions: clients: %w", err)
	}

	var participants, topics []string
	if err := db.Model(&Meeting{}).Where("participants ILIKE ?", like).Limit(200).Pluck("participants", &participants).Error; err != nil {
		return nil, fmt.Errorf("GetSearchSuggestions: participants: %w", err)
	}
	if err := db.Model(&Meeting{}).Where("topics ILIKE ?", like).Limit(200).Pluck("topics", &topics).Error; err != nil {
		return nil, fmt.Errorf("GetSearchSuggestions: topics: %w", err)
	}

	out.Participants = matchingTerms(participants, query, limit)
	out.Topics = matchingTerms(topics, query, limit)
	return out, nil
}

func matchingTerms(lists []string, query string, limit int) []string {
	needle := strings.ToLower(query)
	seen := map[string]bool{}
	out := []string{}
	for _, list := range lists {
		for _, term := range SplitParticipants(list) {
			if seen[term] || !strings.Contains(strings.ToLower(term), needle) {
				continue
			}
			seen[term] = true
			out = append(out, term)
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}
