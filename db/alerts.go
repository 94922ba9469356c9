package db

import (
	"context"
	"fmt"
	"time"
)

func (s *Store) CreateAlert(ctx context.Context, a *ActivityAlert) error {
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("CreateAlert: %q: %w", a.Name, err)
	}
	return nil
}

func (s *Store) GetAlert(ctx context.Context, id uint) (*ActivityAlert, error) {
	var a ActivityAlert
	if err := s.db.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, fmt.Errorf("GetAlert: %d: %w", id, mapError(err))
	}
	return &a, nil
}

// UpdateAlert saves the editable fields of a. LastTriggered is owned by the evaluator.
func (s *Store) UpdateAlert(ctx context.Context, a *ActivityAlert) error {
	res := s.db.WithContext(ctx).Model(a).
		Select("name", "alert_type", "threshold", "channel_filter", "is_active", "updated_at").
		Updates(a)
	if res.Error != nil {
		return fmt.Errorf("UpdateAlert: %d: %w", a.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("UpdateAlert: %d: %w", a.ID, ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteAlert(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&ActivityAlert{}, id)
	if res.Error != nil {
		return fmt.Errorf("DeleteAlert: %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("DeleteAlert: %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) ListAlerts(ctx context.Context) ([]ActivityAlert, error) {
	var rows []ActivityAlert
	if err := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ListAlerts: %w", err)
	}
	return rows, nil
}

func (s *Store) ListActiveAlerts(ctx context.Context) ([]ActivityAlert, error) {
	var rows []ActivityAlert
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("ListActiveAlerts: %w", err)
	}
	return rows, nil
}

func (s *Store) MarkAlertTriggered(ctx context.Context, id uint, at time.Time) error {
	err := s.db.WithContext(ctx).Model(&ActivityAlert{}).
		Where("id = ?", id).
		UpdateColumn("last_triggered", at.UTC()).Error
	if err != nil {
		return fmt.Errorf("MarkAlertTriggered: %d: %w", id, err)
	}
	return nil
}
