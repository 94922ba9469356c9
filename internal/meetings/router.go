package meetings

import (
	"context"
	"errors"

	"DiscordArchive/db"

	log15 "github.com/inconshreveable/log15/v3"
)

type mappingLookup interface {
	FindClientMappingByEmail(ctx context.Context, email string) (*db.ClientMapping, error)
}

// Match is the routing decision for a meeting.
type Match struct {
	ChannelID string
	Email     string
	Mapping   *db.ClientMapping
}

type Router struct {
	mappings mappingLookup
	log      log15.Logger
}

func NewRouter(mappings mappingLookup, log log15.Logger) *Router {
	return &Router{mappings: mappings, log: log.New("component", "meeting-router")}
}

// Route walks participants in order and returns the channel of the first one
// whose email maps to a channel, or nil. Later participants are not consulted
// once a match is found. A failed lookup is logged and treated as no match for
// that participant.
func (r *Router) Route(ctx context.Context, participants []Participant) *Match {
	for _, p := range participants {
		if p.Email == "" {
			continue
		}

		m, err := r.mappings.FindClientMappingByEmail(ctx, p.Email)
		if err != nil {
			if !errors.Is(err, db.ErrNotFound) {
				r.log.Warn("Mapping lookup failed", "email", p.Email, "err", err)
			}
			continue
		}
		if m.DiscordChannelID == "" {
			continue
		}

		r.log.Info("Matched participant to channel", "email", p.Email, "channel", m.DiscordChannelName, "channel_id", m.DiscordChannelID)
		return &Match{ChannelID: m.DiscordChannelID, Email: p.Email, Mapping: m}
	}
	return nil
}
