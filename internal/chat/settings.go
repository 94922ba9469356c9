package chat

import (
	"context"
	"errors"
	"strings"

	"DiscordArchive/db"
)

// Settings is what the API exposes. The key itself never leaves the server.
type Settings struct {
	HasOpenAIKey bool `json:"hasOpenAIKey"`
}

func (s *Service) Settings(ctx context.Context, userID string) (Settings, error) {
	us, err := s.store.GetUserSettings(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, err
	}
	return Settings{HasOpenAIKey: us.OpenAIAPIKey != ""}, nil
}

// UpdateOpenAIKey encrypts and stores key. An empty key clears the stored one.
func (s *Service) UpdateOpenAIKey(ctx context.Context, userID, key string) error {
	key = strings.TrimSpace(key)
	sealed := ""
	if key != "" {
		var err error
		if sealed, err = s.secrets.Encrypt(key); err != nil {
			return err
		}
	}
	return s.store.SaveOpenAIKey(ctx, userID, sealed)
}
