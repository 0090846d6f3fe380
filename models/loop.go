package models

import "time"

// Loop statuses.
const (
	LoopActive     = "active"
	LoopCompleted  = "completed"
	LoopOverdue    = "overdue"
	LoopAttention  = "attention"
	LoopSanctuary  = "sanctuary"
	LoopInProgress = "in_progress"
)

type Loop struct {
	ID                int64          `json:"id" gorm:"primaryKey"`
	Title             string         `json:"title"`
	Description       string         `json:"description"`
	AssigneeID        *int64         `json:"assigneeId"`
	Status            string         `json:"status"`
	Priority          string         `json:"priority"`
	Domain            string         `json:"domain"`
	DueDate           *time.Time     `json:"dueDate"`
	CompletedAt       *time.Time     `json:"completedAt"`
	RippleImpact      int            `json:"rippleImpact"`
	CoherenceScore    float64        `json:"coherenceScore"`
	RippleCheck       map[string]any `json:"rippleCheck" gorm:"serializer:json"`
	IsRegenerative    bool           `json:"isRegenerative"`
	ExtractiveMarkers []string       `json:"extractiveMarkers" gorm:"serializer:json"`
	SanctuaryStatus   *string        `json:"sanctuaryStatus"`
	FieldImpactRadius string         `json:"fieldImpactRadius"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

func (Loop) TableName() string { return "loops" }

// OnTime reports whether completing the loop at now meets its due date.
// Loops without a due date are always on time.
func (l Loop) OnTime(now time.Time) bool {
	if l.DueDate == nil {
		return true
	}
	return !now.After(*l.DueDate)
}

type Decision struct {
	ID               int64          `json:"id" gorm:"primaryKey"`
	Title            string         `json:"title"`
	Description      string         `json:"description"`
	InitiatorID      *int64         `json:"initiatorId"`
	Status           string         `json:"status"`
	DecisionType     string         `json:"decisionType"`
	VotingDeadline   *time.Time     `json:"votingDeadline"`
	ParticipantCount int            `json:"participantCount"`
	ConsensusReached bool           `json:"consensusReached"`
	Outcome          map[string]any `json:"outcome" gorm:"serializer:json"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

func (Decision) TableName() string { return "decisions" }

type DecisionParticipant struct {
	DecisionID int64     `json:"decisionId" gorm:"primaryKey;autoIncrement:false"`
	UserID     int64     `json:"userId" gorm:"primaryKey;autoIncrement:false"`
	Role       string    `json:"role"`
	Vote       string    `json:"vote"`
	JoinedAt   time.Time `json:"joinedAt"`
}

func (DecisionParticipant) TableName() string { return "decision_participants" }

type Resource struct {
	ID           int64      `json:"id" gorm:"primaryKey"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Amount       float64    `json:"amount"`
	ResourceType string     `json:"resourceType"`
	Domain       string     `json:"domain"`
	AllocatedTo  string     `json:"allocatedTo"`
	Status       string     `json:"status"`
	RequesterID  *int64     `json:"requesterId"`
	ApproverID   *int64     `json:"approverId"`
	AllocatedAt  *time.Time `json:"allocatedAt"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (Resource) TableName() string { return "resources" }
