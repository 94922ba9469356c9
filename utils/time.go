package utils

import (
	"strings"
	"time"

	"github.com/jinzhu/now"
)

var timeParser = &now.Config{
	TimeLocation: time.UTC,
	TimeFormats: append([]string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
		"01/02/2006 15:04",
		"1/2/2006 3:04 PM",
		"1/2/2006 3:04:05 PM",
		"Jan 2, 2006",
		"January 2, 2006",
		"Jan 2, 2006 3:04 PM",
		"January 2, 2006 3:04 PM",
		"Monday, January 2, 2006",
	}, now.TimeFormats...),
}

// ParseTime accepts the date shapes seen in Read.ai exports and webhooks.
// Values without a zone are read as UTC. It returns nil when s is blank or unparsable.
func ParseTime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := timeParser.Parse(s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
