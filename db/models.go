package db

import (
	"time"

	"gorm.io/datatypes"
)

// Archive tables. Ids are Discord snowflakes.

type DiscordGuild struct {
	ID         string    `gorm:"primaryKey;size:64" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	IconURL    string    `gorm:"column:icon_url" json:"iconUrl,omitempty"`
	CreatedAt  time.Time `gorm:"not null" json:"createdAt"`
	InsertedAt time.Time `gorm:"autoCreateTime" json:"insertedAt"`
}

func (DiscordGuild) TableName() string { return "discord_guilds" }

type DiscordChannel struct {
	ID                 string    `gorm:"primaryKey;size:64" json:"id"`
	GuildID            string    `gorm:"not null;index" json:"guildId"`
	Name               string    `gorm:"not null" json:"name"`
	Type               string    `gorm:"not null" json:"type"`
	ClientWebsite      string    `json:"clientWebsite"`
	ClientBusinessName string    `json:"clientBusinessName"`
	Tags               string    `json:"tags"`
	CreatedAt          time.Time `gorm:"not null" json:"createdAt"`
	InsertedAt         time.Time `gorm:"autoCreateTime" json:"insertedAt"`
}

func (DiscordChannel) TableName() string { return "discord_channels" }

type DiscordUser struct {
	ID            string    `gorm:"primaryKey;size:64" json:"id"`
	Username      string    `gorm:"not null" json:"username"`
	Discriminator string    `json:"discriminator,omitempty"`
	GlobalName    string    `json:"globalName,omitempty"`
	Bot           bool      `gorm:"not null" json:"bot"`
	CreatedAt     time.Time `gorm:"not null" json:"createdAt"`
	InsertedAt    time.Time `gorm:"autoCreateTime" json:"insertedAt"`
}

func (DiscordUser) TableName() string { return "discord_users" }

type DiscordMessage struct {
	ID         string         `gorm:"primaryKey;size:64" json:"id"`
	ChannelID  string         `gorm:"not null" json:"channelId"`
	GuildID    string         `gorm:"not null" json:"guildId"`
	AuthorID   string         `gorm:"not null" json:"authorId"`
	Content    string         `json:"content"`
	CreatedAt  time.Time      `gorm:"not null" json:"createdAt"`
	EditedAt   *time.Time     `json:"editedAt"`
	IsPinned   bool           `gorm:"not null" json:"isPinned"`
	IsTTS      bool           `gorm:"column:is_tts;not null" json:"isTts"`
	RawJSON    datatypes.JSON `gorm:"column:raw_json;type:jsonb" json:"-"`
	InsertedAt time.Time      `gorm:"autoCreateTime" json:"insertedAt"`
}

func (DiscordMessage) TableName() string { return "discord_messages" }

type DiscordAttachment struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	MessageID   string    `gorm:"not null;index" json:"messageId"`
	URL         string    `gorm:"column:url;not null" json:"url"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	SizeBytes   int       `json:"sizeBytes"`
	InsertedAt  time.Time `gorm:"autoCreateTime" json:"insertedAt"`
}

func (DiscordAttachment) TableName() string { return "discord_attachments" }

// MessageView is an archived message joined with its channel and author names.
type MessageView struct {
	DiscordMessage
	ChannelName string `json:"channelName"`
	AuthorName  string `json:"authorName"`
}

// Outbound webhooks.

const (
	EventMessageInsert = "message_insert"
	EventMessageUpdate = "message_update"
	EventMessageDelete = "message_delete"
	EventAll           = "all"
)

type Webhook struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"not null" json:"name"`
	URL           string    `gorm:"column:url;not null" json:"url"`
	EventType     string    `gorm:"not null" json:"eventType"`
	IsActive      bool      `gorm:"not null" json:"isActive"`
	GuildFilter   string    `json:"guildFilter,omitempty"`
	ChannelFilter string    `json:"channelFilter,omitempty"`
	CreatedBy     string    `gorm:"not null" json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (Webhook) TableName() string { return "webhooks" }

type WebhookLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	WebhookID    uint      `gorm:"not null;index" json:"webhookId"`
	EventType    string    `gorm:"not null" json:"eventType"`
	MessageID    string    `json:"messageId,omitempty"`
	StatusCode   *int      `json:"statusCode"`
	Success      bool      `gorm:"not null" json:"success"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	DeliveredAt  time.Time `gorm:"autoCreateTime" json:"deliveredAt"`
}

func (WebhookLog) TableName() string { return "webhook_logs" }

// AI chat.

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

type ChatConversation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"not null;index" json:"userId"`
	Title     string    `gorm:"not null" json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (ChatConversation) TableName() string { return "chat_conversations" }

type ChatMessage struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ConversationID uint      `gorm:"not null;index" json:"conversationId"`
	Role           string    `gorm:"not null" json:"role"`
	Content        string    `gorm:"not null" json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

func (ChatMessage) TableName() string { return "chat_messages" }

type UserSettings struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       string    `gorm:"uniqueIndex;not null" json:"userId"`
	OpenAIAPIKey string    `gorm:"column:openai_api_key" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (UserSettings) TableName() string { return "user_settings" }

// Meetings and routing.

type Meeting struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Title            string         `gorm:"not null" json:"title"`
	MeetingLink      string         `json:"meetingLink,omitempty"`
	Summary          string         `json:"summary,omitempty"`
	Participants     string         `json:"participants,omitempty"`
	SessionID        string         `gorm:"column:session_id" json:"sessionId,omitempty"`
	Topics           string         `json:"topics,omitempty"`
	KeyQuestions     string         `json:"keyQuestions,omitempty"`
	Chapters         string         `json:"chapters,omitempty"`
	StartTime        *time.Time     `json:"startTime"`
	EndTime          *time.Time     `json:"endTime"`
	RawPayload       datatypes.JSON `gorm:"type:jsonb" json:"-"`
	ReceivedAt       time.Time      `gorm:"autoCreateTime" json:"receivedAt"`
	MatchedChannelID *string        `gorm:"column:matched_channel_id" json:"matchedChannelId"`
}

func (Meeting) TableName() string { return "meetings" }

type ClientMapping struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	ContactName        string    `json:"contactName,omitempty"`
	ContactEmail       string    `gorm:"not null;index" json:"contactEmail"`
	DiscordChannelName string    `json:"discordChannelName,omitempty"`
	DiscordChannelID   string    `gorm:"column:discord_channel_id" json:"discordChannelId,omitempty"`
	AccountManager     string    `json:"accountManager,omitempty"`
	ProjectOwner       string    `json:"projectOwner,omitempty"`
	ClientName         string    `json:"clientName,omitempty"`
	UploadedAt         time.Time `gorm:"autoCreateTime" json:"uploadedAt"`
	UploadedBy         string    `json:"uploadedBy,omitempty"`
}

func (ClientMapping) TableName() string { return "client_mappings" }

// Activity alerts.

const (
	AlertZeroMessages = "zero_messages"
	AlertVolumeSpike  = "volume_spike"
)

type ActivityAlert struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"not null" json:"name"`
	AlertType     string     `gorm:"not null" json:"alertType"`
	Threshold     int        `gorm:"not null" json:"threshold"`
	ChannelFilter string     `json:"channelFilter,omitempty"`
	IsActive      bool       `gorm:"not null" json:"isActive"`
	LastTriggered *time.Time `json:"lastTriggered"`
	CreatedBy     string     `json:"createdBy,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (ActivityAlert) TableName() string { return "activity_alerts" }

// A2P campaign approval checks, one row per check.

const (
	A2PApproved   = "Approved"
	A2PInReview   = "In Review"
	A2PYetToStart = "Yet to Start"
	A2PUnknown    = "UNKNOWN"
)

type A2PStatus struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	LocationID     string    `gorm:"not null;index" json:"locationId"`
	LocationName   string    `json:"locationName"`
	CompanyName    string    `json:"companyName"`
	BrandStatus    string    `gorm:"not null" json:"brandStatus"`
	CampaignStatus string    `gorm:"not null" json:"campaignStatus"`
	Notes          string    `json:"notes,omitempty"`
	SourceURL      string    `gorm:"column:source_url" json:"sourceUrl,omitempty"`
	CheckedAt      time.Time `gorm:"not null" json:"checkedAt"`
}

func (A2PStatus) TableName() string { return "a2p_statuses" }

func (s A2PStatus) Approved() bool {
	return s.BrandStatus == A2PApproved && s.CampaignStatus == A2PApproved
}
