package store

import (
	"context"
	"field-swarm/models"
	"fmt"

	"gorm.io/gorm/clause"
)

func (s *Store) TrustActions(ctx context.Context, userID int64) ([]models.TrustAction, error) {
	var actions []models.TrustAction
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&actions).Error
	if err != nil {
		return nil, fmt.Errorf("list trust actions: %w", err)
	}
	return actions, nil
}

func (s *Store) CreateTrustAction(ctx context.Context, action *models.TrustAction) error {
	if err := s.db.WithContext(ctx).Create(action).Error; err != nil {
		return fmt.Errorf("create trust action: %w", err)
	}
	return nil
}

func (s *Store) RecentActivities(ctx context.Context, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 20
	}
	var activities []models.Activity
	err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&activities).Error
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}

func (s *Store) LogActivity(ctx context.Context, a *models.Activity) error {
	if err := s.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("log activity: %w", err)
	}
	return nil
}

func (s *Store) SystemMetrics(ctx context.Context) ([]models.SystemMetric, error) {
	var metrics []models.SystemMetric
	if err := s.db.WithContext(ctx).Order("recorded_at DESC").Find(&metrics).Error; err != nil {
		return nil, fmt.Errorf("list system metrics: %w", err)
	}
	return metrics, nil
}

// UpdateSystemMetric records the latest value for a named metric.
func (s *Store) UpdateSystemMetric(ctx context.Context, name string, value float64) error {
	now := s.now()
	m := models.SystemMetric{MetricName: name, Value: value, Unit: "percent", RecordedAt: now}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "metric_name"}},
		DoUpdates: clause.Assignments(map[string]any{"value": value, "recorded_at": now}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("update system metric %s: %w", name, err)
	}
	return nil
}

func (s *Store) RecordCoherenceMeasurement(ctx context.Context, m *models.CoherenceMeasurement) error {
	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("record coherence measurement: %w", err)
	}
	return nil
}
