package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"
)

func (s *Store) GetUserSettings(ctx context.Context, userID string) (*UserSettings, error) {
	var us UserSettings
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&us).Error; err != nil {
		return nil, fmt.Errorf("GetUserSettings: %s: %w", userID, mapError(err))
	}
	return &us, nil
}

// SaveOpenAIKey stores an already encrypted key. An empty value clears it.
func (s *Store) SaveOpenAIKey(ctx context.Context, userID, encryptedKey string) error {
	now := time.Now().UTC()
	us := UserSettings{UserID: userID, OpenAIAPIKey: encryptedKey, CreatedAt: now, UpdatedAt: now}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"openai_api_key", "updated_at"}),
	}).Create(&us).Error
	if err != nil {
		return fmt.Errorf("SaveOpenAIKey: %s: %w", userID, err)
	}
	return nil
}
