package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ReplaceClientMappings swaps the whole mapping table for rows inside one
// transaction, so readers see either the previous set or the new one.
func (s *Store) ReplaceClientMappings(ctx context.Context, rows []ClientMapping, uploadedBy string) (int, error) {
	now := time.Now().UTC()
	for i := range rows {
		rows[i].ID = 0
		rows[i].UploadedAt = now
		rows[i].UploadedBy = uploadedBy
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&ClientMapping{}).Error; err != nil {
			return fmt.Errorf("clear: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&rows, 500).Error; err != nil {
			return fmt.Errorf("insert: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("ReplaceClientMappings: %w", err)
	}
	return len(rows), nil
}

func (s *Store) AddClientMapping(ctx context.Context, m *ClientMapping) error {
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("AddClientMapping: %s: %w", m.ContactEmail, mapError(err))
	}
	return nil
}

func (s *Store) ListClientMappings(ctx context.Context) ([]ClientMapping, error) {
	var rows []ClientMapping
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ListClientMappings: %w", err)
	}
	return rows, nil
}

// FindClientMappingByEmail matches the stored email exactly. When several rows
// share an email the earliest inserted wins.
func (s *Store) FindClientMappingByEmail(ctx context.Context, email string) (*ClientMapping, error) {
	var m ClientMapping
	err := s.db.WithContext(ctx).Where("contact_email = ?", email).Order("id").First(&m).Error
	if err != nil {
		return nil, fmt.Errorf("FindClientMappingByEmail: %w", mapError(err))
	}
	return &m, nil
}
