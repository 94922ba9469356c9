package alerts

import (
	"DiscordArchive/db"
)

// channelFilter selects channels by id or tag. An empty filter selects every channel.
type channelFilter struct {
	tokens map[string]bool
}

func parseFilter(s string) channelFilter {
	f := channelFilter{tokens: map[string]bool{}}
	for _, tok := range db.SplitList(s) {
		f.tokens[tok] = true
	}
	return f
}

func (f channelFilter) empty() bool { return len(f.tokens) == 0 }

// matches reports whether the channel id is listed or any of its tags is.
func (f channelFilter) matches(c db.DiscordChannel) bool {
	if f.empty() || f.tokens[c.ID] {
		return true
	}
	for _, tag := range db.SplitList(c.Tags) {
		if f.tokens[tag] {
			return true
		}
	}
	return false
}

func (f channelFilter) apply(channels []db.DiscordChannel) []db.DiscordChannel {
	if f.empty() {
		return channels
	}
	out := make([]db.DiscordChannel, 0, len(channels))
	for _, c := range channels {
		if f.matches(c) {
			out = append(out, c)
		}
	}
	return out
}
