package store

import (
	"context"
	"field-swarm/models"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SignalFilter narrows signal listings; zero fields are ignored.
type SignalFilter struct {
	SignalType string
	Severity   string
	Domain     string
	Status     string
	Limit      int
}

func (s *Store) Signals(ctx context.Context) ([]models.Signal, error) {
	return s.FilterSignals(ctx, SignalFilter{})
}

func (s *Store) FilterSignals(ctx context.Context, f SignalFilter) ([]models.Signal, error) {
	query := s.db.WithContext(ctx).Model(&models.Signal{})

	if f.SignalType != "" {
		query = query.Where("signal_type = ?", f.SignalType)
	}
	if f.Severity != "" {
		query = query.Where("severity = ?", f.Severity)
	}
	if f.Domain != "" {
		query = query.Where("domain = ?", f.Domain)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.Limit > 0 {
		query = query.Limit(f.Limit)
	}

	var signals []models.Signal
	if err := query.Order("created_at DESC, id DESC").Find(&signals).Error; err != nil {
		return nil, fmt.Errorf("list signals: %w", err)
	}
	return signals, nil
}

// SignalsSince lists signals created at or after since, newest first.
func (s *Store) SignalsSince(ctx context.Context, since time.Time) ([]models.Signal, error) {
	var signals []models.Signal
	err := s.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at DESC, id DESC").
		Find(&signals).Error
	if err != nil {
		return nil, fmt.Errorf("list recent signals: %w", err)
	}
	return signals, nil
}

func (s *Store) Signal(ctx context.Context, id int64) (*models.Signal, error) {
	var signal models.Signal
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&signal).Error; err != nil {
		return nil, notFound(err, "get signal")
	}
	return &signal, nil
}

func (s *Store) CreateSignal(ctx context.Context, signal *models.Signal) error {
	if signal.Status == "" {
		signal.Status = "open"
	}
	if err := s.db.WithContext(ctx).Create(signal).Error; err != nil {
		return fmt.Errorf("create signal: %w", err)
	}
	return nil
}

func (s *Store) UpdateSignalStatus(ctx context.Context, id int64, status string) error {
	err := s.db.WithContext(ctx).Model(&models.Signal{}).Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": s.now()}).Error
	if err != nil {
		return fmt.Errorf("update signal status: %w", err)
	}
	return nil
}

// LibraryFilter narrows signal library listings; empty fields are ignored.
type LibraryFilter struct {
	SignalType string
	Domain     string
	Visibility string
}

func (s *Store) LibraryEntries(ctx context.Context, f LibraryFilter) ([]models.SignalLibraryEntry, error) {
	query := s.db.WithContext(ctx).Model(&models.SignalLibraryEntry{})

	if f.SignalType != "" {
		query = query.Where("signal_type = ?", f.SignalType)
	}
	if f.Domain != "" {
		query = query.Where("domain = ?", f.Domain)
	}
	if f.Visibility != "" {
		query = query.Where("visibility = ?", f.Visibility)
	}

	var entries []models.SignalLibraryEntry
	if err := query.Order("created_at DESC, id DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list library entries: %w", err)
	}
	return entries, nil
}

func (s *Store) LibraryEntry(ctx context.Context, id int64) (*models.SignalLibraryEntry, error) {
	var entry models.SignalLibraryEntry
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
		return nil, notFound(err, "get library entry")
	}
	return &entry, nil
}

func (s *Store) CreateLibraryEntry(ctx context.Context, entry *models.SignalLibraryEntry) error {
	if entry.Visibility == "" {
		entry.Visibility = "public"
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("create library entry: %w", err)
	}
	return nil
}

// UpdateLibraryEntry applies column updates keyed by column name.
func (s *Store) UpdateLibraryEntry(ctx context.Context, id int64, updates map[string]any) error {
	updates["updated_at"] = s.now()
	if err := s.db.WithContext(ctx).Model(&models.SignalLibraryEntry{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("update library entry: %w", err)
	}
	return nil
}

func (s *Store) IncrementRipples(ctx context.Context, id int64) error {
	err := s.db.WithContext(ctx).Model(&models.SignalLibraryEntry{}).Where("id = ?", id).
		Updates(map[string]any{
			"ripples_count": gorm.Expr("ripples_count + 1"),
			"updated_at":    s.now(),
		}).Error
	if err != nil {
		return fmt.Errorf("increment ripples: %w", err)
	}
	return nil
}
