// Package store is the gorm-backed persistence layer for every field table.
package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("not found")

type Store struct {
	db  *gorm.DB
	now func() time.Time
}

func New(db *gorm.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// DB exposes the underlying handle for callers that need raw access (tests, seeding).
func (s *Store) DB() *gorm.DB {
	return s.db
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// whereTarget narrows q to one swarm bucket. A nil id matches NULL exactly;
// it is never a wildcard.
func whereTarget(q *gorm.DB, targetType string, targetID *int64) *gorm.DB {
	q = q.Where("target_type = ?", targetType)
	if targetID == nil {
		return q.Where("target_id IS NULL")
	}
	return q.Where("target_id = ?", *targetID)
}
