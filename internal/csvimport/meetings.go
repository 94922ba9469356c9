package csvimport

import (
	"DiscordArchive/db"
	"DiscordArchive/utils"
)

const HeaderMeetingTitle = "Meeting Title"

var meetingSchema = Schema[db.Meeting]{
	Columns: []Column[db.Meeting]{
		{Header: HeaderMeetingTitle, Required: true, Assign: func(m *db.Meeting, v string) { m.Title = v }},
		{Header: "Date", Assign: func(m *db.Meeting, v string) { m.StartTime = utils.ParseTime(v) }},
		{Header: "Summary", Assign: func(m *db.Meeting, v string) { m.Summary = v }},
		{Header: "Meeting Link", Assign: func(m *db.Meeting, v string) { m.MeetingLink = v }},
		{Header: "Participants", Assign: func(m *db.Meeting, v string) { m.Participants = v }},
		{Header: "Topics", Assign: func(m *db.Meeting, v string) { m.Topics = v }},
		{Header: "Key Questions", Assign: func(m *db.Meeting, v string) { m.KeyQuestions = v }},
		{Header: "Chapters", Assign: func(m *db.Meeting, v string) { m.Chapters = v }},
		{Header: "Session", Assign: func(m *db.Meeting, v string) { m.SessionID = v }},
	},
	Keep: func(m *db.Meeting) bool {
		// A repeated header row inside the export reads as a meeting titled "Meeting Title".
		return m.Title != "" && m.Title != HeaderMeetingTitle
	},
}

// ParseMeetings reads a Read.ai meeting export. Imported meetings are never
// routed, so MatchedChannelID stays nil.
func ParseMeetings(text string) (Result[db.Meeting], error) {
	return Parse(text, meetingSchema)
}
