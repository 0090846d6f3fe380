package models

import "time"

// DefaultTrustScore is the cached score a new participant starts with.
// Only the side-work completion path still moves it.
const DefaultTrustScore = 3.0

type User struct {
	ID                     int64      `json:"id" gorm:"primaryKey"`
	Pseudonym              string     `json:"pseudonym"`
	SignalRole             string     `json:"signalRole"`
	InviteCode             string     `json:"inviteCode"`
	StyleEmoji             string     `json:"styleEmoji"`
	FieldColor             string     `json:"fieldColor"`
	TrustState             string     `json:"trustState"`
	TrustTokens            int        `json:"trustTokens"`
	TrustScore             float64    `json:"trustScore"`
	InstitutionType        string     `json:"institutionType"`
	ParticipationLevel     string     `json:"participationLevel"`
	Reliability            string     `json:"reliability"`
	Collaboration          string     `json:"collaboration"`
	IsActive               bool       `json:"isActive"`
	OnboardingCompleted    bool       `json:"onboardingCompleted"`
	HasSeenOrientation     bool       `json:"hasSeenOrientation"`
	FieldAgreementSigned   bool       `json:"fieldAgreementSigned"`
	FieldAgreementSignedAt *time.Time `json:"fieldAgreementSignedAt"`
	CreatedAt              time.Time  `json:"createdAt"`
	UpdatedAt              time.Time  `json:"updatedAt"`
}

func (User) TableName() string { return "users" }

type InviteCode struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Code        string    `json:"code"`
	IsActive    bool      `json:"isActive"`
	MaxUses     int       `json:"maxUses"`
	CurrentUses int       `json:"currentUses"`
	CreatedBy   *int64    `json:"createdBy"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (InviteCode) TableName() string { return "invite_codes" }

// Exhausted reports whether the code can no longer admit new participants.
func (c InviteCode) Exhausted() bool {
	return !c.IsActive || c.CurrentUses >= c.MaxUses
}

type TrustAction struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	UserID      *int64    `json:"userId"`
	ActionType  string    `json:"actionType"`
	Description string    `json:"description"`
	ImpactScore float64   `json:"impactScore"`
	WitnessedBy *int64    `json:"witnessedBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (TrustAction) TableName() string { return "trust_actions" }

type Activity struct {
	ID           int64          `json:"id" gorm:"primaryKey"`
	UserID       *int64         `json:"userId"`
	ActivityType string         `json:"activityType"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Metadata     map[string]any `json:"metadata" gorm:"serializer:json"`
	CreatedAt    time.Time      `json:"createdAt"`
}

func (Activity) TableName() string { return "activity_log" }
