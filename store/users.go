package store

import (
	"context"
	"field-swarm/models"
	"fmt"

	"gorm.io/gorm"
)

func (s *Store) User(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, notFound(err, "get user")
	}
	return &user, nil
}

func (s *Store) UserByPseudonym(ctx context.Context, pseudonym string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("pseudonym = ?", pseudonym).First(&user).Error; err != nil {
		return nil, notFound(err, "get user by pseudonym")
	}
	return &user, nil
}

func (s *Store) UsersByInviteCode(ctx context.Context, code string) ([]models.User, error) {
	var users []models.User
	if err := s.db.WithContext(ctx).Where("invite_code = ?", code).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users by invite code: %w", err)
	}
	return users, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) updateUser(ctx context.Context, id int64, fields map[string]any) error {
	fields["updated_at"] = s.now()
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("update user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update user %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *Store) CompleteOnboarding(ctx context.Context, id int64) error {
	return s.updateUser(ctx, id, map[string]any{"onboarding_completed": true})
}

func (s *Store) CompleteOrientation(ctx context.Context, id int64) error {
	return s.updateUser(ctx, id, map[string]any{"has_seen_orientation": true})
}

func (s *Store) SignFieldAgreement(ctx context.Context, id int64) error {
	return s.updateUser(ctx, id, map[string]any{
		"field_agreement_signed":    true,
		"field_agreement_signed_at": s.now(),
	})
}

func (s *Store) InviteCode(ctx context.Context, code string) (*models.InviteCode, error) {
	var invite models.InviteCode
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&invite).Error; err != nil {
		return nil, notFound(err, "get invite code")
	}
	return &invite, nil
}

func (s *Store) CreateInviteCode(ctx context.Context, invite *models.InviteCode) error {
	if err := s.db.WithContext(ctx).Create(invite).Error; err != nil {
		return fmt.Errorf("create invite code: %w", err)
	}
	return nil
}

func (s *Store) IncrementInviteUsage(ctx context.Context, code string) error {
	err := s.db.WithContext(ctx).Model(&models.InviteCode{}).
		Where("code = ?", code).
		Update("current_uses", gorm.Expr("current_uses + 1")).Error
	if err != nil {
		return fmt.Errorf("increment invite usage: %w", err)
	}
	return nil
}
