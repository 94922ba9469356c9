package db

import (
	"context"
	"fmt"
	"time"
)

// MaxLookbackDays bounds every activity window, keeping the cutoff arithmetic
// inside time.Duration's range.
const (
	MaxLookbackDays  = 3650
	MaxLookbackHours = MaxLookbackDays * 24
)

type ChannelStats struct {
	ChannelID          string `json:"channelId"`
	ChannelName        string `json:"channelName"`
	ClientWebsite      string `json:"clientWebsite"`
	ClientBusinessName string `json:"clientBusinessName"`
	Tags               string `json:"tags"`
	MessageCount       int64  `json:"messageCount"`
	MeetingCount       int64  `json:"meetingCount"`
}

// GetClientChannelStats is the dashboard aggregate over the trailing hoursBack
// hours. The inner join on messages in the window leaves out channels that
// were silent for the whole window; alerting reads ListChannels and
// MessageCountsSince instead so it still sees them.
func (s *Store) GetClientChannelStats(ctx context.Context, hoursBack int) ([]ChannelStats, error) {
	hoursBack = min(hoursBack, MaxLookbackHours)
	cutoff := time.Now().UTC().Add(-time.Duration(hoursBack) * time.Hour)

	var rows []ChannelStats
	err := s.db.WithContext(ctx).Raw(`
		SELECT c.id AS channel_id,
		       c.name AS channel_name,
		       c.client_website,
		       c.client_business_name,
		       c.tags,
		       COUNT(m.id) AS message_count,
		       (SELECT COUNT(*) FROM meetings mt
		         WHERE mt.matched_channel_id = c.id AND mt.start_time >= ?) AS meeting_count
		  FROM discord_channels c
		  JOIN discord_messages m ON m.channel_id = c.id AND m.created_at >= ?
		 GROUP BY c.id, c.name, c.client_website, c.client_business_name, c.tags
		 ORDER BY message_count DESC, c.name`, cutoff, cutoff).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("GetClientChannelStats: %w", err)
	}
	return rows, nil
}

// ActiveChannelIDsSince returns the ids of channels with at least one message since cutoff.
func (s *Store) ActiveChannelIDsSince(ctx context.Context, cutoff time.Time) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&DiscordMessage{}).
		Distinct("channel_id").
		Where("created_at >= ?", cutoff).
		Pluck("channel_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("ActiveChannelIDsSince: %w", err)
	}
	return ids, nil
}

// MessageCountsSince returns per-channel message counts since cutoff. Channels
// without messages are absent from the map and count as zero.
func (s *Store) MessageCountsSince(ctx context.Context, cutoff time.Time) (map[string]int64, error) {
	var rows []struct {
		ChannelID string
		Count     int64
	}
	err := s.db.WithContext(ctx).Model(&DiscordMessage{}).
		Select("channel_id, COUNT(*) AS count").
		Where("created_at >= ?", cutoff).
		Group("channel_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("MessageCountsSince: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.ChannelID] = r.Count
	}
	return counts, nil
}
