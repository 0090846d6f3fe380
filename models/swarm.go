package models

import "time"

// Swarm target types.
const (
	TargetLoop     = "loop"
	TargetSignal   = "signal"
	TargetDecision = "decision"
	TargetSystem   = "system"
)

// Swarm signal types.
const (
	SwarmCoherence  = "coherence"
	SwarmDissonance = "dissonance"
	SwarmRipple     = "ripple"
)

// Aggregation trends.
const (
	TrendUp     = "up"
	TrendDown   = "down"
	TrendStable = "stable"
)

// SwarmSignal is one piece of peer feedback. Rows are never updated.
type SwarmSignal struct {
	ID              int64          `json:"id" gorm:"primaryKey"`
	TargetType      string         `json:"targetType"`
	TargetID        *int64         `json:"targetId"`
	SignalType      string         `json:"signalType"`
	Intensity       int            `json:"intensity"`
	UserID          *int64         `json:"userId"`
	UserTrustWeight float64        `json:"userTrustWeight"`
	IsAnonymous     bool           `json:"isAnonymous"`
	Metadata        map[string]any `json:"metadata" gorm:"serializer:json"`
	CreatedAt       time.Time      `json:"createdAt"`
}

func (SwarmSignal) TableName() string { return "swarm_signals" }

// SwarmAggregation holds the recomputed scores for one (target type, target id) bucket.
type SwarmAggregation struct {
	ID              int64     `json:"id" gorm:"primaryKey"`
	TargetType      string    `json:"targetType"`
	TargetID        *int64    `json:"targetId"`
	CoherenceScore  float64   `json:"coherenceScore"`
	DissonanceScore float64   `json:"dissonanceScore"`
	RippleScore     float64   `json:"rippleScore"`
	TotalSignals    int       `json:"totalSignals"`
	Trend           string    `json:"trend"`
	CalculatedAt    time.Time `json:"calculatedAt"`
	LastUpdated     time.Time `json:"lastUpdated"`
}

func (SwarmAggregation) TableName() string { return "swarm_aggregations" }

type CoherenceMeasurement struct {
	ID              int64          `json:"id" gorm:"primaryKey"`
	EntityType      string         `json:"entityType"`
	EntityID        int64          `json:"entityId"`
	MeasurementType string         `json:"measurementType"`
	Score           float64        `json:"score"`
	Factors         map[string]any `json:"factors" gorm:"serializer:json"`
	CalculatedAt    time.Time      `json:"calculatedAt"`
}

func (CoherenceMeasurement) TableName() string { return "coherence_measurements" }

type SystemMetric struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	MetricName string    `json:"metricName"`
	Value      float64   `json:"value"`
	Unit       string    `json:"unit"`
	RecordedAt time.Time `json:"recordedAt"`
}

func (SystemMetric) TableName() string { return "system_metrics" }
