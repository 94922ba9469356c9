package discord

import (
	"encoding/json"
	"time"

	"DiscordArchive/db"

	"github.com/bwmarrin/discordgo"
)

var channelTypeNames = map[discordgo.ChannelType]string{
	discordgo.ChannelTypeGuildText:          "text",
	discordgo.ChannelTypeGuildVoice:         "voice",
	discordgo.ChannelTypeGuildCategory:      "category",
	discordgo.ChannelTypeGuildNews:          "news",
	discordgo.ChannelTypeGuildPublicThread:  "thread",
	discordgo.ChannelTypeGuildPrivateThread: "thread",
	discordgo.ChannelTypeGuildForum:         "forum",
}

func channelTypeName(t discordgo.ChannelType) string {
	if name, ok := channelTypeNames[t]; ok {
		return name
	}
	return "other"
}

// snowflakeTime is the creation time encoded in a Discord id, or zero.
func snowflakeTime(id string) time.Time {
	t, err := discordgo.SnowflakeTimestamp(id)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

func toGuild(g *discordgo.Guild) db.DiscordGuild {
	out := db.DiscordGuild{ID: g.ID, Name: g.Name, CreatedAt: snowflakeTime(g.ID)}
	if out.Name == "" {
		out.Name = g.ID
	}
	if g.Icon != "" {
		out.IconURL = discordgo.EndpointGuildIcon(g.ID, g.Icon)
	}
	return out
}

func toChannel(c *discordgo.Channel) db.DiscordChannel {
	out := db.DiscordChannel{
		ID:        c.ID,
		GuildID:   c.GuildID,
		Name:      c.Name,
		Type:      channelTypeName(c.Type),
		CreatedAt: snowflakeTime(c.ID),
	}
	if out.Name == "" {
		out.Name = c.ID
	}
	return out
}

func toUser(u *discordgo.User) db.DiscordUser {
	return db.DiscordUser{
		ID:            u.ID,
		Username:      u.Username,
		Discriminator: u.Discriminator,
		GlobalName:    u.GlobalName,
		Bot:           u.Bot,
		CreatedAt:     snowflakeTime(u.ID),
	}
}

// toMessage converts a gateway or REST message. The full payload is kept as raw JSON.
func toMessage(m *discordgo.Message) (db.DiscordMessage, []db.DiscordAttachment, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return db.DiscordMessage{}, nil, err
	}

	msg := db.DiscordMessage{
		ID:        m.ID,
		ChannelID: m.ChannelID,
		GuildID:   m.GuildID,
		Content:   m.Content,
		CreatedAt: m.Timestamp.UTC(),
		IsPinned:  m.Pinned,
		IsTTS:     m.TTS,
		RawJSON:   raw,
	}
	if m.Author != nil {
		msg.AuthorID = m.Author.ID
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = snowflakeTime(m.ID)
	}
	if m.EditedTimestamp != nil {
		edited := m.EditedTimestamp.UTC()
		msg.EditedAt = &edited
	}

	attachments := make([]db.DiscordAttachment, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		attachments = append(attachments, db.DiscordAttachment{
			ID:          a.ID,
			MessageID:   m.ID,
			URL:         a.URL,
			Filename:    a.Filename,
			ContentType: a.ContentType,
			SizeBytes:   a.Size,
		})
	}
	return msg, attachments, nil
}
