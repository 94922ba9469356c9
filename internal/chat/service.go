// Package chat answers questions about the archive through OpenAI, grounding
// each answer in archived messages that match the question.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"DiscordArchive/db"
	"DiscordArchive/internal/openai"

	log15 "github.com/inconshreveable/log15/v3"
)

const (
	contextMessages = 5
	historyLimit    = 20
	systemPrompt    = "You are a helpful assistant that can search through archived Discord messages. " +
		"When answering questions, use the provided Discord message context if relevant."
)

var (
	ErrNoAPIKey             = errors.New("OpenAI API key not configured. Please add it in Settings.")
	ErrConversationNotFound = errors.New("Conversation not found")
	ErrEmptyContent         = errors.New("content is required")
	ErrEmptyTitle           = errors.New("title is required")
)

type chatStore interface {
	CreateConversation(ctx context.Context, c *db.ChatConversation) error
	ListConversations(ctx context.Context, userID string) ([]db.ChatConversation, error)
	GetConversation(ctx context.Context, id uint, userID string) (*db.ChatConversation, error)
	DeleteConversation(ctx context.Context, id uint, userID string) error
	AddChatMessage(ctx context.Context, m *db.ChatMessage) error
	ListChatMessages(ctx context.Context, conversationID uint) ([]db.ChatMessage, error)
	SearchMessages(ctx context.Context, query string, limit int) ([]db.MessageView, error)
	GetUserSettings(ctx context.Context, userID string) (*db.UserSettings, error)
	SaveOpenAIKey(ctx context.Context, userID, encryptedKey string) error
}

type completer interface {
	Complete(ctx context.Context, apiKey string, messages []openai.Message) (string, error)
}

type secrets interface {
	Encrypt(plain string) (string, error)
	Decrypt(sealed string) (string, error)
}

type Service struct {
	store       chatStore
	llm         completer
	secrets     secrets
	fallbackKey string
	log         log15.Logger
}

// NewService builds the chat service. fallbackKey is used for users who have
// not stored their own key.
func NewService(store chatStore, llm completer, secrets secrets, fallbackKey string, log log15.Logger) *Service {
	return &Service{
		store:       store,
		llm:         llm,
		secrets:     secrets,
		fallbackKey: fallbackKey,
		log:         log.New("component", "chat"),
	}
}

func (s *Service) CreateConversation(ctx context.Context, userID, title string) (*db.ChatConversation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	c := &db.ChatConversation{UserID: userID, Title: title}
	if err := s.store.CreateConversation(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) ListConversations(ctx context.Context, userID string) ([]db.ChatConversation, error) {
	return s.store.ListConversations(ctx, userID)
}

func (s *Service) DeleteConversation(ctx context.Context, userID string, id uint) error {
	return notFound(s.store.DeleteConversation(ctx, id, userID))
}

// Messages lists a conversation the user owns, oldest first.
func (s *Service) Messages(ctx context.Context, userID string, id uint) ([]db.ChatMessage, error) {
	if _, err := s.store.GetConversation(ctx, id, userID); err != nil {
		return nil, notFound(err)
	}
	return s.store.ListChatMessages(ctx, id)
}

// SendMessage stores the user's message, asks the model and stores its reply.
func (s *Service) SendMessage(ctx context.Context, userID string, conversationID uint, content string) (*db.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	if _, err := s.store.GetConversation(ctx, conversationID, userID); err != nil {
		return nil, notFound(err)
	}

	apiKey, err := s.apiKey(ctx, userID)
	if err != nil {
		return nil, err
	}

	history, err := s.store.ListChatMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if err := s.store.AddChatMessage(ctx, &db.ChatMessage{ConversationID: conversationID, Role: db.RoleUser, Content: content}); err != nil {
		return nil, err
	}

	related, err := s.store.SearchMessages(ctx, content, contextMessages)
	if err != nil {
		// Answer without archive context rather than fail the turn.
		s.log.Warn("Archive search failed", "conversation_id", conversationID, "err", err)
	}

	reply, err := s.llm.Complete(ctx, apiKey, buildPrompt(history, content, related))
	if err != nil {
		return nil, fmt.Errorf("SendMessage: %w", err)
	}

	answer := &db.ChatMessage{ConversationID: conversationID, Role: db.RoleAssistant, Content: reply}
	if err := s.store.AddChatMessage(ctx, answer); err != nil {
		return nil, err
	}
	s.log.Debug("Chat turn complete", "conversation_id", conversationID, "context_messages", len(related))
	return answer, nil
}

func (s *Service) apiKey(ctx context.Context, userID string) (string, error) {
	settings, err := s.store.GetUserSettings(ctx, userID)
	switch {
	case err == nil && settings.OpenAIAPIKey != "":
		key, err := s.secrets.Decrypt(settings.OpenAIAPIKey)
		if err != nil {
			return "", fmt.Errorf("apiKey: stored key unreadable: %w", err)
		}
		return key, nil
	case err != nil && !errors.Is(err, db.ErrNotFound):
		return "", err
	}
	if s.fallbackKey != "" {
		return s.fallbackKey, nil
	}
	return "", ErrNoAPIKey
}

// buildPrompt keeps the most recent history and appends archive context to the question.
func buildPrompt(history []db.ChatMessage, content string, related []db.MessageView) []openai.Message {
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}

	msgs := make([]openai.Message, 0, len(history)+2)
	msgs = append(msgs, openai.Message{Role: db.RoleSystem, Content: systemPrompt})
	for _, m := range history {
		msgs = append(msgs, openai.Message{Role: m.Role, Content: m.Content})
	}

	var b strings.Builder
	b.WriteString(content)
	if len(related) > 0 {
		b.WriteString("\n\nRelevant Discord messages:\n")
		for _, m := range related {
			fmt.Fprintf(&b, "[%s] %s: %s\n", m.ChannelName, m.AuthorName, m.Content)
		}
	}
	return append(msgs, openai.Message{Role: db.RoleUser, Content: b.String()})
}

func notFound(err error) error {
	if errors.Is(err, db.ErrNotFound) {
		return ErrConversationNotFound
	}
	return err
}
