package store

import (
	"context"
	"field-swarm/models"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) Decisions(ctx context.Context) ([]models.Decision, error) {
	var decisions []models.Decision
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&decisions).Error; err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	return decisions, nil
}

func (s *Store) ActiveDecisions(ctx context.Context) ([]models.Decision, error) {
	var decisions []models.Decision
	err := s.db.WithContext(ctx).Where("status = ?", "active").Order("created_at DESC, id DESC").Find(&decisions).Error
	if err != nil {
		return nil, fmt.Errorf("list active decisions: %w", err)
	}
	return decisions, nil
}

func (s *Store) CreateDecision(ctx context.Context, d *models.Decision) error {
	if d.Status == "" {
		d.Status = "active"
	}
	if err := s.db.WithContext(ctx).Create(d).Error; err != nil {
		return fmt.Errorf("create decision: %w", err)
	}
	return nil
}

// JoinDecision upserts the participant row and bumps the participant count.
// Rejoining with a new role replaces the role and still counts again.
func (s *Store) JoinDecision(ctx context.Context, decisionID, userID int64, role string) error {
	if role == "" {
		role = "participant"
	}
	p := models.DecisionParticipant{DecisionID: decisionID, UserID: userID, Role: role, JoinedAt: s.now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "decision_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{"role": role}),
	}).Create(&p).Error
	if err != nil {
		return fmt.Errorf("join decision: %w", err)
	}

	err = s.db.WithContext(ctx).Model(&models.Decision{}).Where("id = ?", decisionID).
		Updates(map[string]any{
			"participant_count": gorm.Expr("participant_count + 1"),
			"updated_at":        s.now(),
		}).Error
	if err != nil {
		return fmt.Errorf("count decision participant: %w", err)
	}
	return nil
}

func (s *Store) Resources(ctx context.Context) ([]models.Resource, error) {
	var resources []models.Resource
	if err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&resources).Error; err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	return resources, nil
}

func (s *Store) CreateResource(ctx context.Context, r *models.Resource) error {
	if r.Status == "" {
		r.Status = "available"
	}
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("create resource: %w", err)
	}
	return nil
}

func (s *Store) AllocateResource(ctx context.Context, id int64, allocatedTo string, approverID *int64) error {
	now := s.now()
	err := s.db.WithContext(ctx).Model(&models.Resource{}).Where("id = ?", id).
		Updates(map[string]any{
			"allocated_to": allocatedTo,
			"approver_id":  approverID,
			"status":       "allocated",
			"allocated_at": now,
			"updated_at":   now,
		}).Error
	if err != nil {
		return fmt.Errorf("allocate resource: %w", err)
	}
	return nil
}
