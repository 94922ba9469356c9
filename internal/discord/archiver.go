package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"DiscordArchive/db"
	"DiscordArchive/internal/webhooks"

	"github.com/bwmarrin/discordgo"
	log15 "github.com/inconshreveable/log15/v3"
)

const backfillPageSize = 100

type archiveStore interface {
	UpsertGuild(ctx context.Context, g *db.DiscordGuild) error
	UpsertChannel(ctx context.Context, c *db.DiscordChannel) error
	EnsureGuild(ctx context.Context, g *db.DiscordGuild) error
	EnsureChannel(ctx context.Context, c *db.DiscordChannel) error
	UpsertUser(ctx context.Context, u *db.DiscordUser) error
	UpsertMessage(ctx context.Context, m *db.DiscordMessage, attachments []db.DiscordAttachment) error
	DeleteMessage(ctx context.Context, id string) error
}

type eventDispatcher interface {
	Dispatch(ctx context.Context, ev webhooks.Event) int
}

// directory resolves guild and channel metadata and pages channel history.
type directory interface {
	Guild(id string) (*discordgo.Guild, error)
	Channel(id string) (*discordgo.Channel, error)
	History(ctx context.Context, channelID string, limit int, beforeID string) ([]*discordgo.Message, error)
}

type sessionDirectory struct{ s *discordgo.Session }

func (d sessionDirectory) Guild(id string) (*discordgo.Guild, error) {
	if g, err := d.s.State.Guild(id); err == nil {
		return g, nil
	}
	return d.s.Guild(id)
}

func (d sessionDirectory) Channel(id string) (*discordgo.Channel, error) {
	if c, err := d.s.State.Channel(id); err == nil {
		return c, nil
	}
	return d.s.Channel(id)
}

func (d sessionDirectory) History(ctx context.Context, channelID string, limit int, beforeID string) ([]*discordgo.Message, error) {
	return d.s.ChannelMessages(channelID, limit, beforeID, "", "", discordgo.WithContext(ctx))
}

// MessageEvent is the webhook payload for inserted and updated messages.
type MessageEvent struct {
	Message     db.DiscordMessage      `json:"message"`
	Author      db.DiscordUser         `json:"author"`
	Attachments []db.DiscordAttachment `json:"attachments"`
}

// DeleteEvent is the webhook payload for deleted messages.
type DeleteEvent struct {
	ID        string `json:"id"`
	ChannelID string `json:"channelId"`
	GuildID   string `json:"guildId"`
}

// Archiver mirrors guild messages into the store and fans changes out to webhooks.
type Archiver struct {
	store archiveStore
	dir   directory
	hooks eventDispatcher

	ctx context.Context
	wg  sync.WaitGroup
	log log15.Logger
}

// NewArchiver builds an archiver. ctx bounds the store writes and webhook
// deliveries started by gateway events.
func NewArchiver(ctx context.Context, store archiveStore, hooks eventDispatcher, log log15.Logger) *Archiver {
	return &Archiver{store: store, hooks: hooks, ctx: ctx, log: log.New("component", "archiver")}
}

// Attach registers gateway handlers on s and requests the intents they need.
func (a *Archiver) Attach(s *discordgo.Session) {
	a.dir = sessionDirectory{s}
	s.Identify.Intents |= discordgo.IntentsGuilds | discordgo.IntentsGuildMessages | discordgo.IntentsMessageContent

	s.AddHandler(func(_ *discordgo.Session, r *discordgo.Ready) {
		a.log.Info("Discord session ready", "user", r.User.Username, "guilds", len(r.Guilds))
	})
	s.AddHandler(func(_ *discordgo.Session, g *discordgo.GuildCreate) { a.SyncGuild(a.ctx, g.Guild) })
	s.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		a.handle(m.Message, db.EventMessageInsert, botUserID(s))
	})
	s.AddHandler(func(s *discordgo.Session, m *discordgo.MessageUpdate) {
		a.handle(m.Message, db.EventMessageUpdate, botUserID(s))
	})
	s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageDelete) { a.handleDelete(m.Message) })
}

// Wait blocks until in-flight webhook deliveries finish.
func (a *Archiver) Wait() { a.wg.Wait() }

// SyncGuild stores a guild and its text channels.
func (a *Archiver) SyncGuild(ctx context.Context, g *discordgo.Guild) {
	if g == nil || g.Unavailable {
		return
	}
	guild := toGuild(g)
	if err := a.store.UpsertGuild(ctx, &guild); err != nil {
		a.log.Error("Guild sync failed", "guild_id", g.ID, "err", err)
		return
	}

	synced := 0
	for _, c := range g.Channels {
		if c.Type != discordgo.ChannelTypeGuildText && c.Type != discordgo.ChannelTypeGuildNews {
			continue
		}
		if c.GuildID == "" {
			c.GuildID = g.ID
		}
		ch := toChannel(c)
		if err := a.store.UpsertChannel(ctx, &ch); err != nil {
			a.log.Error("Channel sync failed", "channel_id", c.ID, "err", err)
			continue
		}
		synced++
	}
	a.log.Info("Guild synced", "guild_id", g.ID, "name", g.Name, "channels", synced)
}

func botUserID(s *discordgo.Session) string {
	if s.State == nil || s.State.User == nil {
		return ""
	}
	return s.State.User.ID
}

// handle archives a guild message. DMs, partial updates without an author and
// the bot's own posts are ignored.
func (a *Archiver) handle(m *discordgo.Message, event, selfID string) {
	if m == nil || m.GuildID == "" || m.Author == nil {
		return
	}
	if selfID != "" && m.Author.ID == selfID {
		return
	}

	payload, err := a.Archive(a.ctx, m)
	if err != nil {
		a.log.Error("Archive failed", "message_id", m.ID, "channel_id", m.ChannelID, "err", err)
		return
	}
	a.dispatch(webhooks.Event{
		Type:      event,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		Data:      payload,
	})
}

func (a *Archiver) handleDelete(m *discordgo.Message) {
	if m == nil || m.GuildID == "" {
		return
	}
	err := a.store.DeleteMessage(a.ctx, m.ID)
	switch {
	case errors.Is(err, db.ErrNotFound):
		a.log.Debug("Deleted message was never archived", "message_id", m.ID)
	case err != nil:
		a.log.Error("Delete failed", "message_id", m.ID, "err", err)
		return
	}
	a.dispatch(webhooks.Event{
		Type:      db.EventMessageDelete,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		Data:      DeleteEvent{ID: m.ID, ChannelID: m.ChannelID, GuildID: m.GuildID},
	})
}

func (a *Archiver) dispatch(ev webhooks.Event) {
	if a.hooks == nil {
		return
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.hooks.Dispatch(a.ctx, ev)
	}()
}

// Archive stores m together with its guild, channel, author and attachments.
func (a *Archiver) Archive(ctx context.Context, m *discordgo.Message) (*MessageEvent, error) {
	if err := a.ensureChannel(ctx, m.GuildID, m.ChannelID); err != nil {
		return nil, err
	}

	user := toUser(m.Author)
	if err := a.store.UpsertUser(ctx, &user); err != nil {
		return nil, err
	}

	msg, attachments, err := toMessage(m)
	if err != nil {
		return nil, fmt.Errorf("Archive: encode %s: %w", m.ID, err)
	}
	if err := a.store.UpsertMessage(ctx, &msg, attachments); err != nil {
		return nil, err
	}
	return &MessageEvent{Message: msg, Author: user, Attachments: attachments}, nil
}

// ensureChannel stores the guild and channel rows a message references.
// Unresolvable metadata falls back to the ids so the message is still kept;
// a fallback row never replaces one already stored.
func (a *Archiver) ensureChannel(ctx context.Context, guildID, channelID string) error {
	var (
		guild   *db.DiscordGuild
		channel *db.DiscordChannel
	)
	if a.dir != nil {
		if g, err := a.dir.Guild(guildID); err == nil {
			resolved := toGuild(g)
			guild = &resolved
		} else {
			a.log.Debug("Guild lookup failed", "guild_id", guildID, "err", err)
		}
		if c, err := a.dir.Channel(channelID); err == nil {
			resolved := toChannel(c)
			resolved.GuildID = guildID
			channel = &resolved
		} else {
			a.log.Debug("Channel lookup failed", "channel_id", channelID, "err", err)
		}
	}

	if guild != nil {
		if err := a.store.UpsertGuild(ctx, guild); err != nil {
			return err
		}
	} else {
		placeholder := db.DiscordGuild{ID: guildID, Name: guildID, CreatedAt: snowflakeTime(guildID)}
		if err := a.store.EnsureGuild(ctx, &placeholder); err != nil {
			return err
		}
	}

	if channel != nil {
		return a.store.UpsertChannel(ctx, channel)
	}
	placeholder := db.DiscordChannel{ID: channelID, GuildID: guildID, Name: channelID, Type: "text", CreatedAt: snowflakeTime(channelID)}
	return a.store.EnsureChannel(ctx, &placeholder)
}

// Backfill archives up to limit messages of a channel's history, newest
// first; limit <= 0 walks the whole history. Webhooks are not notified.
func (a *Archiver) Backfill(ctx context.Context, channelID string, limit int) (int, error) {
	if a.dir == nil {
		return 0, errors.New("Backfill: no Discord session")
	}
	ch, err := a.dir.Channel(channelID)
	if err != nil {
		return 0, fmt.Errorf("Backfill: channel %s: %w", channelID, err)
	}
	if ch.GuildID == "" {
		return 0, fmt.Errorf("Backfill: channel %s is not in a guild", channelID)
	}

	count := 0
	before := ""
	for limit <= 0 || count < limit {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		page := backfillPageSize
		if limit > 0 && limit-count < page {
			page = limit - count
		}

		msgs, err := a.dir.History(ctx, channelID, page, before)
		if err != nil {
			return count, fmt.Errorf("Backfill: history %s: %w", channelID, err)
		}
		if len(msgs) == 0 {
			break
		}

		for _, m := range msgs {
			before = m.ID
			if m.Author == nil {
				continue
			}
			if m.GuildID == "" {
				m.GuildID = ch.GuildID
			}
			if _, err := a.Archive(ctx, m); err != nil {
				return count, fmt.Errorf("Backfill: %w", err)
			}
			count++
		}
		if len(msgs) < page {
			break
		}
	}

	a.log.Info("Backfill complete", "channel_id", channelID, "messages", count)
	return count, nil
}
