package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultMessageLimit = 50

func (s *Store) UpsertGuild(ctx context.Context, g *DiscordGuild) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "icon_url"}),
	}).Create(g).Error
	if err != nil {
		return fmt.Errorf("UpsertGuild: %s: %w", g.ID, err)
	}
	return nil
}

// UpsertChannel refreshes Discord-owned fields only. Client website, business
// name and tags are edited by staff and survive re-archiving.
func (s *Store) UpsertChannel(ctx context.Context, c *DiscordChannel) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"guild_id", "name", "type"}),
	}).Create(c).Error
	if err != nil {
		return fmt.Errorf("UpsertChannel: %s: %w", c.ID, err)
	}
	return nil
}

// EnsureGuild inserts g unless the guild is already stored. It is used with
// placeholder metadata that must not overwrite a real name.
func (s *Store) EnsureGuild(ctx context.Context, g *DiscordGuild) error {
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(g).Error; err != nil {
		return fmt.Errorf("EnsureGuild: %s: %w", g.ID, err)
	}
	return nil
}

// EnsureChannel inserts c unless the channel is already stored.
func (s *Store) EnsureChannel(ctx context.Context, c *DiscordChannel) error {
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(c).Error; err != nil {
		return fmt.Errorf("EnsureChannel: %s: %w", c.ID, err)
	}
	return nil
}

func (s *Store) UpsertUser(ctx context.Context, u *DiscordUser) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "discriminator", "global_name", "bot"}),
	}).Create(u).Error
	if err != nil {
		return fmt.Errorf("UpsertUser: %s: %w", u.ID, err)
	}
	return nil
}

// UpsertMessage stores a message and its attachments. Re-delivery of the same
// message updates its mutable fields.
func (s *Store) UpsertMessage(ctx context.Context, m *DiscordMessage, attachments []DiscordAttachment) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "edited_at", "is_pinned", "raw_json"}),
		}).Create(m).Error
		if err != nil {
			return err
		}
		if len(attachments) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&attachments).Error
	})
	if err != nil {
		return fmt.Errorf("UpsertMessage: %s: %w", m.ID, err)
	}
	return nil
}

func (s *Store) GetMessage(ctx context.Context, id string) (*DiscordMessage, error) {
	var m DiscordMessage
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, fmt.Errorf("GetMessage: %s: %w", id, mapError(err))
	}
	return &m, nil
}

// DeleteMessage removes the message and, through the foreign key, its attachments.
func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&DiscordMessage{})
	if res.Error != nil {
		return fmt.Errorf("DeleteMessage: %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("DeleteMessage: %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) ListAttachments(ctx context.Context, messageID string) ([]DiscordAttachment, error) {
	var rows []DiscordAttachment
	if err := s.db.WithContext(ctx).Where("message_id = ?", messageID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ListAttachments: %w", err)
	}
	return rows, nil
}

func (s *Store) ListGuilds(ctx context.Context) ([]DiscordGuild, error) {
	var rows []DiscordGuild
	if err := s.db.WithContext(ctx).Order("name").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ListGuilds: %w", err)
	}
	return rows, nil
}

// ListChannels returns every archived channel, or those of guildID when set.
func (s *Store) ListChannels(ctx context.Context, guildID string) ([]DiscordChannel, error) {
	q := s.db.WithContext(ctx).Order("name")
	if guildID != "" {
		q = q.Where("guild_id = ?", guildID)
	}

	var rows []DiscordChannel
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ListChannels: %w", err)
	}
	return rows, nil
}

type MessageFilter struct {
	GuildID   string
	ChannelID string
	Search    string
	Before    *time.Time
	Limit     int
	Offset    int
}

// ListMessages returns archived messages newest first with channel and author names.
func (s *Store) ListMessages(ctx context.Context, f MessageFilter) ([]MessageView, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultMessageLimit
	}

	q := s.db.WithContext(ctx).
		Table("discord_messages AS m").
		Select("m.*, COALESCE(c.name, '') AS channel_name, COALESCE(u.username, '') AS author_name").
		Joins("LEFT JOIN discord_channels c ON c.id = m.channel_id").
		Joins("LEFT JOIN discord_users u ON u.id = m.author_id")

	if f.GuildID != "" {
		q = q.Where("m.guild_id = ?", f.GuildID)
	}
	if f.ChannelID != "" {
		q = q.Where("m.channel_id = ?", f.ChannelID)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		q = q.Where("m.content ILIKE ?", "%"+search+"%")
	}
	if f.Before != nil {
		q = q.Where("m.created_at < ?", *f.Before)
	}

	var rows []MessageView
	err := q.Order("m.created_at DESC").Limit(limit).Offset(f.Offset).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("ListMessages: %w", err)
	}
	return rows, nil
}

// SearchMessages is the content search used to ground chat answers.
func (s *Store) SearchMessages(ctx context.Context, query string, limit int) ([]MessageView, error) {
	return s.ListMessages(ctx, MessageFilter{Search: query, Limit: limit})
}

type ChannelUpdate struct {
	ID                 string  `json:"id"`
	ClientWebsite      *string `json:"clientWebsite"`
	ClientBusinessName *string `json:"clientBusinessName"`
	Tags               *string `json:"tags"`
}

// UpdateChannels applies staff-edited channel metadata in one transaction.
// Fields left nil are not touched.
func (s *Store) UpdateChannels(ctx context.Context, updates []ChannelUpdate) (int, error) {
	updated := 0
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range updates {
			fields := map[string]any{}
			if u.ClientWebsite != nil {
				fields["client_website"] = strings.TrimSpace(*u.ClientWebsite)
			}
			if u.ClientBusinessName != nil {
				fields["client_business_name"] = strings.TrimSpace(*u.ClientBusinessName)
			}
			if u.Tags != nil {
				fields["tags"] = NormalizeTags(*u.Tags)
			}
			if len(fields) == 0 {
				continue
			}

			res := tx.Model(&DiscordChannel{}).Where("id = ?", u.ID).Updates(fields)
			if res.Error != nil {
				return fmt.Errorf("channel %s: %w", u.ID, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("channel %s: %w", u.ID, ErrNotFound)
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("UpdateChannels: %w", err)
	}
	return updated, nil
}

// NormalizeTags trims each comma separated tag and drops empties.
func NormalizeTags(tags string) string {
	return strings.Join(SplitList(tags), ",")
}

// SplitList splits a comma separated list into trimmed, non-empty tokens.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
