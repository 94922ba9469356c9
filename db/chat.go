package db

import (
	"context"
	"fmt"
	"time"
)

func (s *Store) CreateConversation(ctx context.Context, c *ChatConversation) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("CreateConversation: user %s: %w", c.UserID, err)
	}
	return nil
}

func (s *Store) ListConversations(ctx context.Context, userID string) ([]ChatConversation, error) {
	var rows []ChatConversation
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("updated_at DESC").Order("id DESC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("ListConversations: user %s: %w", userID, err)
	}
	return rows, nil
}

// GetConversation only returns conversations owned by userID.
func (s *Store) GetConversation(ctx context.Context, id uint, userID string) (*ChatConversation, error) {
	var c ChatConversation
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&c).Error
	if err != nil {
		return nil, fmt.Errorf("GetConversation: %d: %w", id, mapError(err))
	}
	return &c, nil
}

func (s *Store) DeleteConversation(ctx context.Context, id uint, userID string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&ChatConversation{})
	if res.Error != nil {
		return fmt.Errorf("DeleteConversation: %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("DeleteConversation: %d: %w", id, ErrNotFound)
	}
	return nil
}

// AddChatMessage appends m and bumps the conversation so it sorts first.
func (s *Store) AddChatMessage(ctx context.Context, m *ChatMessage) error {
	db := s.db.WithContext(ctx)
	if err := db.Create(m).Error; err != nil {
		return fmt.Errorf("AddChatMessage: conversation %d: %w", m.ConversationID, err)
	}
	err := db.Model(&ChatConversation{}).
		Where("id = ?", m.ConversationID).
		UpdateColumn("updated_at", time.Now().UTC()).Error
	if err != nil {
		return fmt.Errorf("AddChatMessage: touch conversation %d: %w", m.ConversationID, err)
	}
	return nil
}

func (s *Store) ListChatMessages(ctx context.Context, conversationID uint) ([]ChatMessage, error) {
	var rows []ChatMessage
	err := s.db.WithContext(ctx).Where("conversation_id = ?", conversationID).Order("created_at").Order("id").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("ListChatMessages: %d: %w", conversationID, err)
	}
	return rows, nil
}
