package store

import (
	"context"
	"errors"
	"field-swarm/models"
	"fmt"
	"math"
)

func (s *Store) InstitutionBundles(ctx context.Context) ([]models.InstitutionBundle, error) {
	var bundles []models.InstitutionBundle
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("id").Find(&bundles).Error; err != nil {
		return nil, fmt.Errorf("list institution bundles: %w", err)
	}
	return bundles, nil
}

// SeedInstitutionBundles inserts bundles only when the table is empty and
// reports how many rows were written.
func (s *Store) SeedInstitutionBundles(ctx context.Context, bundles []models.InstitutionBundle) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.InstitutionBundle{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count institution bundles: %w", err)
	}
	if n > 0 || len(bundles) == 0 {
		return 0, nil
	}
	if err := s.db.WithContext(ctx).Create(&bundles).Error; err != nil {
		return 0, fmt.Errorf("seed institution bundles: %w", err)
	}
	return len(bundles), nil
}

func (s *Store) FieldRituals(ctx context.Context) ([]models.FieldRitual, error) {
	var rituals []models.FieldRitual
	if err := s.db.WithContext(ctx).Order("id").Find(&rituals).Error; err != nil {
		return nil, fmt.Errorf("list field rituals: %w", err)
	}
	return rituals, nil
}

// SeedFieldRituals inserts rituals only when the table is empty and reports
// how many rows were written.
func (s *Store) SeedFieldRituals(ctx context.Context, rituals []models.FieldRitual) (int, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.FieldRitual{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count field rituals: %w", err)
	}
	if n > 0 || len(rituals) == 0 {
		return 0, nil
	}
	if err := s.db.WithContext(ctx).Create(&rituals).Error; err != nil {
		return 0, fmt.Errorf("seed field rituals: %w", err)
	}
	return len(rituals), nil
}

func (s *Store) CreateFieldRitual(ctx context.Context, r *models.FieldRitual) error {
	if r.ParticipantCount == 0 {
		r.ParticipantCount = 1
	}
	if err := s.db.WithContext(ctx).Create(r).Error; err != nil {
		return fmt.Errorf("create field ritual: %w", err)
	}
	return nil
}

func (s *Store) CreateSanctuaryProtocol(ctx context.Context, p *models.SanctuaryProtocol) error {
	if p.Status == "" {
		p.Status = "active"
	}
	if p.SanctuaryDuration == 0 {
		p.SanctuaryDuration = 7
	}
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create sanctuary protocol: %w", err)
	}
	return nil
}

// SideWorkTasks lists tasks for one user, or for everyone when userID is nil.
func (s *Store) SideWorkTasks(ctx context.Context, userID *int64) ([]models.SideWorkTask, error) {
	query := s.db.WithContext(ctx).Model(&models.SideWorkTask{})
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	var tasks []models.SideWorkTask
	if err := query.Order("created_at DESC, id DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list side work tasks: %w", err)
	}
	return tasks, nil
}

func (s *Store) SideWorkTask(ctx context.Context, id int64) (*models.SideWorkTask, error) {
	var task models.SideWorkTask
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, notFound(err, "get side work task")
	}
	return &task, nil
}

func (s *Store) CreateSideWorkTask(ctx context.Context, t *models.SideWorkTask) error {
	if t.Status == "" {
		t.Status = models.TaskAvailable
	}
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("create side work task: %w", err)
	}
	return nil
}

func (s *Store) AcceptSideWorkTask(ctx context.Context, id int64) error {
	err := s.db.WithContext(ctx).Model(&models.SideWorkTask{}).Where("id = ?", id).
		Updates(map[string]any{"status": models.TaskAccepted, "accepted_at": s.now()}).Error
	if err != nil {
		return fmt.Errorf("accept side work task: %w", err)
	}
	return nil
}

// MaxTrustScore caps the cached trust score moved by side-work completion.
const MaxTrustScore = 5.0

const defaultCoherenceBoost = 0.05

// CompleteSideWorkTask marks the task completed and bumps the owner's cached
// trust_score by the task's coherence boost. This is the one path that still
// writes a numeric trust score; everything else only appends trust actions.
// Tasks without an owner are left untouched.
func (s *Store) CompleteSideWorkTask(ctx context.Context, id int64) error {
	task, err := s.SideWorkTask(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if task.UserID == nil {
		return nil
	}

	err = s.db.WithContext(ctx).Model(&models.SideWorkTask{}).Where("id = ?", id).
		Updates(map[string]any{"status": models.TaskCompleted, "completed_at": s.now()}).Error
	if err != nil {
		return fmt.Errorf("complete side work task: %w", err)
	}

	boost := task.CoherenceBoost
	if boost == 0 {
		boost = defaultCoherenceBoost
	}

	user, err := s.User(ctx, *task.UserID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	score := math.Min(user.TrustScore+boost, MaxTrustScore)
	err = s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).
		Update("trust_score", score).Error
	if err != nil {
		return fmt.Errorf("update trust score: %w", err)
	}

	return s.LogActivity(ctx, &models.Activity{
		UserID:       task.UserID,
		ActivityType: "side_work_completed",
		Title:        "Completed: " + task.Title,
		Description:  fmt.Sprintf("Field work completed with +%.1f%% impact", boost*100),
		Metadata:     map[string]any{"taskType": task.TaskType, "impactType": task.ImpactType},
	})
}

var sideWorkTemplates = []models.SideWorkTask{
	{
		TaskType:       "close_loop",
		Title:          "Close a lingering loop",
		Description:    "Review your open commitments and mark one as complete that you may have forgotten to close.",
		ImpactType:     "coherence",
		CoherenceBoost: 0.075,
	},
	{
		TaskType:       "self_reflection",
		Title:          "Reflect on recent interactions",
		Description:    "Take a moment to consider how your recent contributions have supported or strained the field.",
		ImpactType:     "coherence",
		CoherenceBoost: 0.040,
	},
	{
		TaskType:       "appreciate_contribution",
		Title:          "Acknowledge someone's work",
		Description:    "Recognize a community member whose recent contribution has strengthened the field.",
		ImpactType:     "trust",
		CoherenceBoost: 0.035,
	},
}

// GenerateSideWorkTasks creates one task per template for the user. Tasks are
// attributed to false resonance when the user carries more than two loops in
// progress.
func (s *Store) GenerateSideWorkTasks(ctx context.Context, userID int64) ([]models.SideWorkTask, error) {
	open, err := s.CountLoops(ctx, userID, models.LoopInProgress)
	if err != nil {
		return nil, err
	}
	triggeredBy := "voluntary"
	if open > 2 {
		triggeredBy = "false_resonance"
	}

	tasks := make([]models.SideWorkTask, 0, len(sideWorkTemplates))
	for _, tmpl := range sideWorkTemplates {
		task := tmpl
		uid := userID
		task.UserID = &uid
		task.TriggeredBy = triggeredBy
		if err := s.CreateSideWorkTask(ctx, &task); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}
