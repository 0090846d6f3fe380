package store

import (
	"context"
	"field-swarm/models"
	"fmt"
	"time"
)

// SwarmSignals lists the signals of one bucket, newest first.
func (s *Store) SwarmSignals(ctx context.Context, targetType string, targetID *int64) ([]models.SwarmSignal, error) {
	var signals []models.SwarmSignal
	query := whereTarget(s.db.WithContext(ctx).Model(&models.SwarmSignal{}), targetType, targetID)
	if err := query.Order("created_at DESC, id DESC").Find(&signals).Error; err != nil {
		return nil, fmt.Errorf("list swarm signals: %w", err)
	}
	return signals, nil
}

// AllSwarmSignals lists every swarm signal, newest first.
func (s *Store) AllSwarmSignals(ctx context.Context) ([]models.SwarmSignal, error) {
	var signals []models.SwarmSignal
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&signals).Error; err != nil {
		return nil, fmt.Errorf("list swarm signals: %w", err)
	}
	return signals, nil
}

func (s *Store) CreateSwarmSignal(ctx context.Context, sig *models.SwarmSignal) error {
	if err := s.db.WithContext(ctx).Create(sig).Error; err != nil {
		return fmt.Errorf("create swarm signal: %w", err)
	}
	return nil
}

// CountSwarmSignals counts signals of one type in a bucket, optionally only
// those created at or after since.
func (s *Store) CountSwarmSignals(ctx context.Context, targetType string, targetID *int64, signalType string, since *time.Time) (int64, error) {
	query := whereTarget(s.db.WithContext(ctx).Model(&models.SwarmSignal{}), targetType, targetID).
		Where("signal_type = ?", signalType)
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}
	var n int64
	if err := query.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count swarm signals: %w", err)
	}
	return n, nil
}

func (s *Store) Aggregation(ctx context.Context, targetType string, targetID *int64) (*models.SwarmAggregation, error) {
	var agg models.SwarmAggregation
	query := whereTarget(s.db.WithContext(ctx).Model(&models.SwarmAggregation{}), targetType, targetID)
	if err := query.Order("id").First(&agg).Error; err != nil {
		return nil, notFound(err, "get swarm aggregation")
	}
	return &agg, nil
}

// SaveAggregation inserts the row when it has no id and overwrites it otherwise.
func (s *Store) SaveAggregation(ctx context.Context, agg *models.SwarmAggregation) error {
	if err := s.db.WithContext(ctx).Save(agg).Error; err != nil {
		return fmt.Errorf("save swarm aggregation: %w", err)
	}
	return nil
}

// AggregationsSince lists aggregations touched at or after since, most recent first.
func (s *Store) AggregationsSince(ctx context.Context, since time.Time) ([]models.SwarmAggregation, error) {
	var aggs []models.SwarmAggregation
	err := s.db.WithContext(ctx).
		Where("last_updated >= ?", since).
		Order("last_updated DESC, id DESC").
		Find(&aggs).Error
	if err != nil {
		return nil, fmt.Errorf("list recent aggregations: %w", err)
	}
	return aggs, nil
}
