package models

import "time"

// Signal types raised by participants.
const (
	SignalTypeDissonance     = "dissonance"
	SignalTypeAlignment      = "alignment"
	SignalTypeConcern        = "concern"
	SignalTypePositive       = "positive"
	SignalTypeCelebration    = "celebration"
	SignalTypeFalseResonance = "false_resonance"
)

type Signal struct {
	ID                    int64          `json:"id" gorm:"primaryKey"`
	Title                 string         `json:"title"`
	Description           string         `json:"description"`
	ReporterID            *int64         `json:"reporterId"`
	SignalType            string         `json:"signalType"`
	Severity              string         `json:"severity"`
	Domain                string         `json:"domain"`
	Status                string         `json:"status"`
	FalseResonanceMarkers []string       `json:"falseResonanceMarkers" gorm:"serializer:json"`
	DiversityCheck        bool           `json:"diversityCheck"`
	SanctuaryPath         bool           `json:"sanctuaryPath"`
	Metadata              map[string]any `json:"metadata" gorm:"serializer:json"`
	CreatedAt             time.Time      `json:"createdAt"`
	UpdatedAt             time.Time      `json:"updatedAt"`
}

func (Signal) TableName() string { return "signals" }

type SignalLibraryEntry struct {
	ID               int64     `json:"id" gorm:"primaryKey"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	CreatorID        *int64    `json:"creatorId"`
	CreatorPseudonym string    `json:"creatorPseudonym"`
	MediaType        string    `json:"mediaType"`
	MediaURL         string    `json:"mediaUrl" gorm:"column:media_url"`
	MediaContent     string    `json:"mediaContent"`
	SignalType       string    `json:"signalType"`
	LoopType         string    `json:"loopType"`
	FieldCondition   string    `json:"fieldCondition"`
	Domain           string    `json:"domain"`
	Tags             []string  `json:"tags" gorm:"serializer:json"`
	Visibility       string    `json:"visibility"`
	SacredUse        bool      `json:"sacredUse"`
	RipplesCount     int       `json:"ripplesCount"`
	IsElderShelf     bool      `json:"isElderShelf"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

func (SignalLibraryEntry) TableName() string { return "signal_library_entries" }
