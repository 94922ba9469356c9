// Package discord connects the archive to a Discord bot session: it archives
// gateway message events and posts meeting and owner notifications.
package discord

import (
	"context"
	"fmt"
	"strings"

	"DiscordArchive/internal/meetings"

	"github.com/bwmarrin/discordgo"
	log15 "github.com/inconshreveable/log15/v3"
)

const (
	embedColor        = 0x3498db
	maxSummaryRunes   = 4000
	maxListedPeople   = 10
	noSummary         = "No summary available"
	meetingFooterText = "Posted by Read.ai Integration"
)

// embedSender posts one embed to a channel.
type embedSender func(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error

func sessionSender(s *discordgo.Session) embedSender {
	return func(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error {
		_, err := s.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx))
		return err
	}
}

// MeetingNotifier posts routed meetings to their client channel.
type MeetingNotifier struct {
	send embedSender
	log  log15.Logger
}

func NewMeetingNotifier(s *discordgo.Session, log log15.Logger) *MeetingNotifier {
	return &MeetingNotifier{send: sessionSender(s), log: log.New("component", "meeting-notifier")}
}

func (n *MeetingNotifier) NotifyMeeting(ctx context.Context, notice meetings.Notice) error {
	if err := n.send(ctx, notice.ChannelID, MeetingEmbed(notice)); err != nil {
		return fmt.Errorf("NotifyMeeting: channel %s: %w", notice.ChannelID, err)
	}
	n.log.Info("Meeting posted", "channel_id", notice.ChannelID, "title", notice.Title)
	return nil
}

// MeetingEmbed renders a meeting summary card.
func MeetingEmbed(n meetings.Notice) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "📝 " + n.Title,
		Description: truncateRunes(n.Summary, maxSummaryRunes),
		Color:       embedColor,
		Footer:      &discordgo.MessageEmbedFooter{Text: meetingFooterText},
	}
	if embed.Description == "" {
		embed.Description = noSummary
	}

	if n.Link != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "🔗 Meeting Link", Value: n.Link})
	}
	if len(n.Participants) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "👥 Participants", Value: participantLine(n.Participants)})
	}
	return embed
}

func participantLine(ps []meetings.Participant) string {
	shown := ps
	if len(shown) > maxListedPeople {
		shown = shown[:maxListedPeople]
	}
	names := make([]string, len(shown))
	for i, p := range shown {
		names[i] = p.DisplayName()
	}

	line := strings.Join(names, ", ")
	if extra := len(ps) - len(shown); extra > 0 {
		line += fmt.Sprintf(" and %d more", extra)
	}
	return line
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
