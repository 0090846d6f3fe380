// Package auth implements invite-only, pseudonymous access. There are no
// passwords: a participant is identified by pseudonym plus invite code.
package auth

import (
	"context"
	"errors"
	"field-swarm/models"
	"field-swarm/store"
	"fmt"
	"strings"

	nanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

var (
	ErrInvalidCode        = errors.New("invalid invite code")
	ErrPseudonymTaken     = errors.New("pseudonym not available")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid session")
	ErrUnknownUser        = errors.New("user not found")
)

// Invite code shape.
const (
	CodeAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	CodeLength     = 8
	minCodeLength  = 6
	maxCodeLength  = 8
	minPseudonym   = 3
	defaultMaxUses = 10
)

// builtinCodes are always accepted.
var builtinCodes = map[string]bool{
	"FIELD001": true,
	"NEXUS001": true,
	"CIVIC001": true,
	"TRUST001": true,
	"LOOP001":  true,
	"SIGNAL01": true,
	"MIRROR01": true,
	"WEAVER01": true,
	"ANCHOR01": true,
	"RIPPLE01": true,
}

// Store is what the auth service reads and writes. *store.Store satisfies it.
type Store interface {
	User(ctx context.Context, id int64) (*models.User, error)
	UserByPseudonym(ctx context.Context, pseudonym string) (*models.User, error)
	UsersByInviteCode(ctx context.Context, code string) ([]models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	InviteCode(ctx context.Context, code string) (*models.InviteCode, error)
	CreateInviteCode(ctx context.Context, invite *models.InviteCode) error
	IncrementInviteUsage(ctx context.Context, code string) error
}

var _ Store = (*store.Store)(nil)

type Service struct {
	store Store
	log   *zap.Logger
}

func NewService(s Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: s, log: log}
}

// CodeCheck is the outcome of validating an invite code.
type CodeCheck struct {
	Valid        bool
	Message      string
	ExistingUser *models.User

	persisted bool
}

// ValidateInviteCode accepts a built-in code or a persisted one that is still
// active and under its usage limit. Codes compare case-insensitively. When a
// participant already registered with the code, they are returned too.
func (s *Service) ValidateInviteCode(ctx context.Context, code string) (CodeCheck, error) {
	if len(code) < minCodeLength || len(code) > maxCodeLength {
		return CodeCheck{Message: "Invalid code format"}, nil
	}

	upper := strings.ToUpper(code)
	check := CodeCheck{Valid: builtinCodes[upper]}
	if !check.Valid {
		invite, err := s.store.InviteCode(ctx, upper)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			return CodeCheck{}, err
		case !invite.Exhausted():
			check.Valid = true
			check.persisted = true
		}
	}
	if !check.Valid {
		return CodeCheck{Message: "Invalid invite code"}, nil
	}

	existing, err := s.store.UsersByInviteCode(ctx, code)
	if err != nil {
		s.log.Warn("checking existing users for invite code", zap.Error(err))
		return check, nil
	}
	if len(existing) > 0 {
		check.ExistingUser = &existing[0]
	}
	return check, nil
}

// Availability is the outcome of a pseudonym check.
type Availability struct {
	Available bool
	Message   string
}

func (s *Service) CheckPseudonym(ctx context.Context, pseudonym string) (Availability, error) {
	if len(pseudonym) < minPseudonym {
		return Availability{Message: "Pseudonym must be at least 3 characters"}, nil
	}
	_, err := s.store.UserByPseudonym(ctx, pseudonym)
	if errors.Is(err, store.ErrNotFound) {
		return Availability{Available: true}, nil
	}
	if err != nil {
		return Availability{}, err
	}
	return Availability{Message: "Pseudonym already taken"}, nil
}

// Registration is what a new participant chooses on sign-up.
type Registration struct {
	Pseudonym  string
	SignalRole string
	InviteCode string
	StyleEmoji string
	FieldColor string
}

// Register validates the code and pseudonym, then creates the participant in
// the "emerging" trust state with three trust tokens.
func (s *Service) Register(ctx context.Context, r Registration) (*models.User, error) {
	check, err := s.ValidateInviteCode(ctx, r.InviteCode)
	if err != nil {
		return nil, err
	}
	if !check.Valid {
		return nil, ErrInvalidCode
	}

	avail, err := s.CheckPseudonym(ctx, r.Pseudonym)
	if err != nil {
		return nil, err
	}
	if !avail.Available {
		return nil, ErrPseudonymTaken
	}

	user := NewUser(r)
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("register %q: %w", r.Pseudonym, err)
	}
	if check.persisted {
		if err := s.store.IncrementInviteUsage(ctx, strings.ToUpper(r.InviteCode)); err != nil {
			return nil, err
		}
	}
	s.log.Info("participant registered", zap.Int64("user_id", user.ID), zap.String("role", user.SignalRole))
	return user, nil
}

// NewUser builds an unsaved participant with the starting trust state.
func NewUser(r Registration) *models.User {
	return &models.User{
		Pseudonym:   r.Pseudonym,
		SignalRole:  r.SignalRole,
		InviteCode:  r.InviteCode,
		StyleEmoji:  r.StyleEmoji,
		FieldColor:  r.FieldColor,
		TrustState:  "emerging",
		TrustTokens: 3,
		TrustScore:  models.DefaultTrustScore,
		IsActive:    true,

		InstitutionType:    "general",
		ParticipationLevel: "low",
		Reliability:        "new",
		Collaboration:      "new",
	}
}

// Login finds the participant by pseudonym; the invite code must match the
// one they registered with exactly.
func (s *Service) Login(ctx context.Context, pseudonym, inviteCode string) (*models.User, error) {
	user, err := s.store.UserByPseudonym(ctx, pseudonym)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if user.InviteCode != inviteCode {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// Session confirms a returning client's stored id and pseudonym still agree.
func (s *Service) Session(ctx context.Context, userID int64, pseudonym string) (*models.User, error) {
	user, err := s.store.User(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidSession
	}
	if err != nil {
		return nil, err
	}
	if user.Pseudonym != pseudonym {
		return nil, ErrInvalidSession
	}
	return user, nil
}

// GenerateInviteCode mints and stores a fresh code on behalf of an existing
// participant.
func (s *Service) GenerateInviteCode(ctx context.Context, userID int64, description string) (*models.InviteCode, error) {
	if _, err := s.store.User(ctx, userID); errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnknownUser
	} else if err != nil {
		return nil, err
	}

	code, err := nanoid.Generate(CodeAlphabet, CodeLength)
	if err != nil {
		return nil, fmt.Errorf("generate invite code: %w", err)
	}
	if description == "" {
		description = "Generated by steward"
	}

	creator := userID
	invite := &models.InviteCode{
		Code:        code,
		IsActive:    true,
		MaxUses:     defaultMaxUses,
		CreatedBy:   &creator,
		Description: description,
	}
	if err := s.store.CreateInviteCode(ctx, invite); err != nil {
		return nil, err
	}
	return invite, nil
}
