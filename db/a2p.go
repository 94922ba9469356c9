package db

import (
	"context"
	"fmt"
)

func (s *Store) CreateA2PStatus(ctx context.Context, st *A2PStatus) error {
	if err := s.db.WithContext(ctx).Create(st).Error; err != nil {
		return fmt.Errorf("CreateA2PStatus: %s: %w", st.LocationID, err)
	}
	return nil
}

// LatestA2PStatuses returns the most recent check per location.
func (s *Store) LatestA2PStatuses(ctx context.Context) ([]A2PStatus, error) {
	var rows []A2PStatus
	err := s.db.WithContext(ctx).Raw(`
		SELECT DISTINCT ON (location_id) *
		  FROM a2p_statuses
		 ORDER BY location_id, checked_at DESC, id DESC`).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("LatestA2PStatuses: %w", err)
	}
	return rows, nil
}

func (s *Store) A2PHistory(ctx context.Context, locationID string, limit int) ([]A2PStatus, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []A2PStatus
	err := s.db.WithContext(ctx).
		Where("location_id = ?", locationID).
		Order("checked_at DESC").Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("A2PHistory: %s: %w", locationID, err)
	}
	return rows, nil
}
