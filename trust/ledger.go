// Package trust keeps the append-only trust ledger. Entries record qualitative
// field activity; no running score is derived from them.
package trust

import (
	"context"
	"field-swarm/models"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
)

// Reason tags written to trust_actions.action_type.
const (
	ReasonLoopCompletion      = "loop_completion"
	ReasonSignalAccuracy      = "signal_accuracy"
	ReasonCoherencePings      = "coherence_pings"
	ReasonDecisionFacilitate  = "decision_facilitation"
	ReasonDecisionParticipate = "decision_participation"
	ReasonResourceGovernance  = "resource_governance"
)

// Fixed magnitudes.
const (
	LoopOnTime          = 0.10
	LoopLate            = 0.05
	SignalAccurate      = 0.15
	SignalInaccurate    = -0.10
	PerCoherencePing    = 0.05
	MaxDailyPingCredit  = 0.20
	DecisionFacilitator = 0.12
	DecisionParticipant = 0.08
	ResourceAllocation  = 0.10
)

// ActionWriter appends trust actions. *store.Store satisfies it.
type ActionWriter interface {
	CreateTrustAction(ctx context.Context, action *models.TrustAction) error
}

type Ledger struct {
	w   ActionWriter
	log *zap.Logger
}

func NewLedger(w ActionWriter, log *zap.Logger) *Ledger {
	if log == nil {
		log = zap.NewNop()
	}
	return &Ledger{w: w, log: log}
}

// Record appends one ledger row. It never touches a user's cached trust score.
func (l *Ledger) Record(ctx context.Context, userID int64, reason string, magnitude float64) error {
	uid := userID
	action := &models.TrustAction{
		UserID:      &uid,
		ActionType:  reason,
		Description: "Field activity: " + strings.ReplaceAll(reason, "_", " "),
		ImpactScore: magnitude,
	}
	if err := l.w.CreateTrustAction(ctx, action); err != nil {
		return fmt.Errorf("record trust %s for user %d: %w", reason, userID, err)
	}
	l.log.Debug("trust activity recorded",
		zap.Int64("user_id", userID),
		zap.String("reason", reason),
		zap.Float64("magnitude", magnitude))
	return nil
}

func (l *Ledger) LoopCompletion(ctx context.Context, userID int64, onTime bool) error {
	magnitude := LoopLate
	if onTime {
		magnitude = LoopOnTime
	}
	return l.Record(ctx, userID, ReasonLoopCompletion, magnitude)
}

func (l *Ledger) SignalAccuracy(ctx context.Context, userID int64, accurate bool) error {
	magnitude := SignalInaccurate
	if accurate {
		magnitude = SignalAccurate
	}
	return l.Record(ctx, userID, ReasonSignalAccuracy, magnitude)
}

// CoherencePings credits pings received today, capped per day. Zero pings
// write nothing.
func (l *Ledger) CoherencePings(ctx context.Context, userID int64, pings int) error {
	credit := math.Min(float64(pings)*PerCoherencePing, MaxDailyPingCredit)
	if credit <= 0 {
		return nil
	}
	return l.Record(ctx, userID, ReasonCoherencePings, credit)
}

// DecisionJoined credits joining a decision; facilitators earn more.
func (l *Ledger) DecisionJoined(ctx context.Context, userID int64, role string) error {
	if role == "facilitator" {
		return l.Record(ctx, userID, ReasonDecisionFacilitate, DecisionFacilitator)
	}
	return l.Record(ctx, userID, ReasonDecisionParticipate, DecisionParticipant)
}

func (l *Ledger) ResourceAllocated(ctx context.Context, approverID int64) error {
	return l.Record(ctx, approverID, ReasonResourceGovernance, ResourceAllocation)
}
