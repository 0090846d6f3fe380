package models

import "time"

type InstitutionBundle struct {
	ID              int64          `json:"id" gorm:"primaryKey"`
	Name            string         `json:"name"`
	InstitutionType string         `json:"institutionType"`
	Description     string         `json:"description"`
	Config          map[string]any `json:"config" gorm:"serializer:json"`
	IsActive        bool           `json:"isActive"`
	CreatedAt       time.Time      `json:"createdAt"`
}

func (InstitutionBundle) TableName() string { return "institution_bundles" }

type FieldRitual struct {
	ID               int64     `json:"id" gorm:"primaryKey"`
	Name             string    `json:"name"`
	RitualType       string    `json:"ritualType"`
	Domain           string    `json:"domain"`
	Description      string    `json:"description"`
	Instructions     string    `json:"instructions"`
	Frequency        string    `json:"frequency"`
	ParticipantCount int       `json:"participantCount"`
	CulturalContext  string    `json:"culturalContext"`
	IsOptional       bool      `json:"isOptional"`
	BundleID         *int64    `json:"bundleId"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (FieldRitual) TableName() string { return "field_rituals" }

type SanctuaryProtocol struct {
	ID                int64          `json:"id" gorm:"primaryKey"`
	ParticipantID     *int64         `json:"participantId"`
	TriggerType       string         `json:"triggerType"`
	Status            string         `json:"status"`
	SanctuaryDuration int            `json:"sanctuaryDuration" gorm:"column:sanctuary_duration_days"`
	HealingActivities []string       `json:"healingActivities" gorm:"serializer:json"`
	SupportNetwork    []string       `json:"supportNetwork" gorm:"serializer:json"`
	ReentryConditions map[string]any `json:"reentryConditions" gorm:"serializer:json"`
	WitnessID         *int64         `json:"witnessId"`
	CreatedAt         time.Time      `json:"createdAt"`
	CompletedAt       *time.Time     `json:"completedAt"`
}

func (SanctuaryProtocol) TableName() string { return "sanctuary_protocols" }

// Side work task statuses.
const (
	TaskAvailable = "available"
	TaskAccepted  = "accepted"
	TaskCompleted = "completed"
	TaskDeclined  = "declined"
)

type SideWorkTask struct {
	ID               int64      `json:"id" gorm:"primaryKey"`
	UserID           *int64     `json:"userId"`
	TaskType         string     `json:"taskType"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	ImpactType       string     `json:"impactType"`
	CoherenceBoost   float64    `json:"coherenceBoost"`
	Status           string     `json:"status"`
	TargetEntityType string     `json:"targetEntityType"`
	TargetEntityID   *int64     `json:"targetEntityId"`
	TriggeredBy      string     `json:"triggeredBy"`
	CreatedAt        time.Time  `json:"createdAt"`
	AcceptedAt       *time.Time `json:"acceptedAt"`
	CompletedAt      *time.Time `json:"completedAt"`
}

func (SideWorkTask) TableName() string { return "side_work_tasks" }
