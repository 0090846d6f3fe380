package store

import (
	"context"
	"field-swarm/models"
	"fmt"
)

func (s *Store) Loops(ctx context.Context) ([]models.Loop, error) {
	var loops []models.Loop
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&loops).Error; err != nil {
		return nil, fmt.Errorf("list loops: %w", err)
	}
	return loops, nil
}

func (s *Store) LoopsByStatus(ctx context.Context, status string) ([]models.Loop, error) {
	var loops []models.Loop
	err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC, id DESC").
		Find(&loops).Error
	if err != nil {
		return nil, fmt.Errorf("list loops by status: %w", err)
	}
	return loops, nil
}

func (s *Store) Loop(ctx context.Context, id int64) (*models.Loop, error) {
	var loop models.Loop
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&loop).Error; err != nil {
		return nil, notFound(err, "get loop")
	}
	return &loop, nil
}

// CountLoops counts the loops assigned to a user with the given status.
func (s *Store) CountLoops(ctx context.Context, assigneeID int64, status string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Loop{}).
		Where("assignee_id = ? AND status = ?", assigneeID, status).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count loops: %w", err)
	}
	return n, nil
}

func (s *Store) CreateLoop(ctx context.Context, loop *models.Loop) error {
	if loop.Status == "" {
		loop.Status = models.LoopActive
	}
	if loop.Priority == "" {
		loop.Priority = "medium"
	}
	if loop.FieldImpactRadius == "" {
		loop.FieldImpactRadius = "local"
	}
	if err := s.db.WithContext(ctx).Create(loop).Error; err != nil {
		return fmt.Errorf("create loop: %w", err)
	}
	return nil
}

func (s *Store) UpdateLoopStatus(ctx context.Context, id int64, status string) error {
	err := s.db.WithContext(ctx).Model(&models.Loop{}).Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": s.now()}).Error
	if err != nil {
		return fmt.Errorf("update loop status: %w", err)
	}
	return nil
}

// UpdateLoopMetrics sets whichever of ripple impact and coherence score are
// given. A coherence score is also recorded as a measurement.
func (s *Store) UpdateLoopMetrics(ctx context.Context, id int64, rippleImpact *int, coherenceScore *float64) error {
	fields := map[string]any{"updated_at": s.now()}
	if rippleImpact != nil {
		fields["ripple_impact"] = *rippleImpact
	}
	if coherenceScore != nil {
		fields["coherence_score"] = *coherenceScore
	}
	if err := s.db.WithContext(ctx).Model(&models.Loop{}).Where("id = ?", id).Updates(fields).Error; err != nil {
		return fmt.Errorf("update loop metrics: %w", err)
	}

	if coherenceScore != nil {
		m := &models.CoherenceMeasurement{
			EntityType:      models.TargetLoop,
			EntityID:        id,
			MeasurementType: "alignment",
			Score:           *coherenceScore,
			Factors:         map[string]any{"source": "loop_update"},
		}
		if err := s.RecordCoherenceMeasurement(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// CompleteLoop marks the loop completed and returns it as it was before the
// update, so callers can judge timeliness against its due date.
func (s *Store) CompleteLoop(ctx context.Context, id int64) (*models.Loop, error) {
	loop, err := s.Loop(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	err = s.db.WithContext(ctx).Model(&models.Loop{}).Where("id = ?", id).
		Updates(map[string]any{"status": models.LoopCompleted, "completed_at": now, "updated_at": now}).Error
	if err != nil {
		return nil, fmt.Errorf("complete loop: %w", err)
	}
	return loop, nil
}
