package db

import (
	"context"
	"fmt"
)

const webhookLogLimit = 100

func (s *Store) CreateWebhook(ctx context.Context, w *Webhook) error {
	if err := s.db.WithContext(ctx).Create(w).Error; err != nil {
		return fmt.Errorf("CreateWebhook: %q: %w", w.Name, err)
	}
	return nil
}

func (s *Store) GetWebhook(ctx context.Context, id uint) (*Webhook, error) {
	var w Webhook
	if err := s.db.WithContext(ctx).First(&w, id).Error; err != nil {
		return nil, fmt.Errorf("GetWebhook: %d: %w", id, mapError(err))
	}
	return &w, nil
}

func (s *Store) UpdateWebhook(ctx context.Context, w *Webhook) error {
	res := s.db.WithContext(ctx).Model(w).
		Select("name", "url", "event_type", "is_active", "guild_filter", "channel_filter", "updated_at").
		Updates(w)
	if res.Error != nil {
		return fmt.Errorf("UpdateWebhook: %d: %w", w.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("UpdateWebhook: %d: %w", w.ID, ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteWebhook(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&Webhook{}, id)
	if res.Error != nil {
		return fmt.Errorf("DeleteWebhook: %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("DeleteWebhook: %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) ListWebhooks(ctx context.Context) ([]Webhook, error) {
	var rows []Webhook
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ListWebhooks: %w", err)
	}
	return rows, nil
}

func (s *Store) ListActiveWebhooks(ctx context.Context) ([]Webhook, error) {
	var rows []Webhook
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ListActiveWebhooks: %w", err)
	}
	return rows, nil
}

func (s *Store) CreateWebhookLog(ctx context.Context, l *WebhookLog) error {
	if err := s.db.WithContext(ctx).Create(l).Error; err != nil {
		return fmt.Errorf("CreateWebhookLog: webhook %d: %w", l.WebhookID, err)
	}
	return nil
}

// ListWebhookLogs returns the newest deliveries of one webhook.
func (s *Store) ListWebhookLogs(ctx context.Context, webhookID uint) ([]WebhookLog, error) {
	var rows []WebhookLog
	err := s.db.WithContext(ctx).
		Where("webhook_id = ?", webhookID).
		Order("delivered_at DESC").Order("id DESC").
		Limit(webhookLogLimit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("ListWebhookLogs: %d: %w", webhookID, err)
	}
	return rows, nil
}
