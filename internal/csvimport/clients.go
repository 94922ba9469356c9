package csvimport

import (
	"strings"

	"DiscordArchive/db"
)

const (
	HeaderContactEmail = "Primary Point of Contact Email"
	HeaderChannelID    = "Discord Channel ID"
	repeatPlaceholder  = "(repeat)"
)

var clientSchema = Schema[db.ClientMapping]{
	Columns: []Column[db.ClientMapping]{
		{Header: HeaderContactEmail, Required: true, Assign: func(m *db.ClientMapping, v string) { m.ContactEmail = v }},
		{Header: HeaderChannelID, Required: true, Assign: func(m *db.ClientMapping, v string) { m.DiscordChannelID = v }},
		{Header: "Discord Channel Name", Assign: func(m *db.ClientMapping, v string) { m.DiscordChannelName = v }},
		{Header: "Primary Point of Contact Name", Assign: func(m *db.ClientMapping, v string) { m.ContactName = v }},
		{Header: "Client Name", Assign: func(m *db.ClientMapping, v string) { m.ClientName = v }},
		{Header: "AM", Exact: true, Assign: func(m *db.ClientMapping, v string) { m.AccountManager = v }},
		{Header: "PO", Exact: true, Assign: func(m *db.ClientMapping, v string) { m.ProjectOwner = v }},
	},
	Keep: keepClientMapping,
}

// keepClientMapping drops rows the client sheet uses as filler: no email, the
// "(repeat)" marker or any parenthesised note, and rows without a channel.
func keepClientMapping(m *db.ClientMapping) bool {
	email := m.ContactEmail
	if email == "" || email == repeatPlaceholder || strings.HasPrefix(email, "(") {
		return false
	}
	return m.DiscordChannelID != ""
}

func ParseClientMappings(text string) (Result[db.ClientMapping], error) {
	return Parse(text, clientSchema)
}
