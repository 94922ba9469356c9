package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
	log15 "github.com/inconshreveable/log15/v3"
)

// OwnerNotifier delivers operational notices (alerts, A2P summaries) to the
// owner's channel. Without a session or channel the notice is only logged.
type OwnerNotifier struct {
	send      embedSender
	channelID string
	log       log15.Logger
}

func NewOwnerNotifier(s *discordgo.Session, channelID string, log log15.Logger) *OwnerNotifier {
	n := &OwnerNotifier{channelID: channelID, log: log.New("component", "owner-notifier")}
	if s != nil {
		n.send = sessionSender(s)
	}
	return n
}

// NotifyOwner reports whether the notice reached Discord.
func (n *OwnerNotifier) NotifyOwner(ctx context.Context, title, content string) bool {
	if n.send == nil || n.channelID == "" {
		n.log.Info("Owner notice", "title", title, "content", content)
		return false
	}

	embed := &discordgo.MessageEmbed{
		Title:       truncateRunes(title, 256),
		Description: truncateRunes(content, maxSummaryRunes),
		Color:       embedColor,
	}
	if err := n.send(ctx, n.channelID, embed); err != nil {
		n.log.Error("Owner notice failed", "title", title, "err", err)
		return false
	}
	return true
}
