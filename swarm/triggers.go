package swarm

import (
	"context"
	"errors"
	"field-swarm/models"
	"field-swarm/store"
	"fmt"
	"time"
)

// Trigger types.
const (
	BurnoutProtocol    = "burnout_protocol"
	PauseReflect       = "pause_reflect"
	FieldRepair        = "field_repair"
	CelebrationRitual  = "celebration_ritual"
	BreachProtocol     = "breach_protocol"
	ConflictResolution = "conflict_resolution"
)

// Trigger severities.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityPositive = "positive"
)

// Trigger is a suggested intervention. Triggers are advisory and never stored.
type Trigger struct {
	Type       string         `json:"type"`
	TargetType string         `json:"targetType"`
	TargetID   *int64         `json:"targetId"`
	Severity   string         `json:"severity"`
	Message    string         `json:"message"`
	Ritual     string         `json:"ritual,omitempty"`
	Data       map[string]any `json:"data"`
}

// Rule thresholds.
const (
	burnoutTrustCeiling  = 2.2
	burnoutOverdueLoops  = 2
	repairTrustCeiling   = 2.0
	pauseDissonanceFloor = 50.0
	pauseHighDissonance  = 70.0
	pauseMinSignals      = 3
	celebrateCoherence   = 80.0
	celebrateRipple      = 60.0
	celebrateMinSignals  = 2
	conflictDissonance   = 60.0
	conflictMinSignals   = 4
	breachSignalSeverity = "high"
)

// rule inspects one bucket and returns a trigger, or nil when it does not fire.
// Rows a rule needs but cannot find make it not fire.
type rule func(ctx context.Context, e *Engine, t Target, agg *models.SwarmAggregation) (*Trigger, error)

var rules = []rule{
	burnoutRule,
	pauseReflectRule,
	fieldRepairRule,
	celebrationRule,
	breachRule,
	conflictRule,
}

// Evaluate runs every rule against the bucket's stored aggregation. Rules are
// independent, so zero or more triggers may come back. A bucket without an
// aggregation yields an empty list. Each rule reads its own rows; there is no
// shared snapshot. A store failure in any rule aborts the whole evaluation.
func (e *Engine) Evaluate(ctx context.Context, t Target) ([]Trigger, error) {
	triggers := []Trigger{}

	agg, err := e.repo.Aggregation(ctx, t.Type, t.ID)
	if errors.Is(err, store.ErrNotFound) {
		return triggers, nil
	}
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", t, err)
	}

	for _, r := range rules {
		trig, err := r(ctx, e, t, agg)
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", t, err)
		}
		if trig != nil {
			triggers = append(triggers, *trig)
		}
	}
	return triggers, nil
}

// Active re-derives triggers for every bucket whose aggregation was touched
// within window. Nothing is acknowledged or dismissed, so a trigger stays
// active for as long as its bucket keeps being touched.
func (e *Engine) Active(ctx context.Context, window time.Duration) ([]Trigger, error) {
	aggs, err := e.repo.AggregationsSince(ctx, e.now().Add(-window))
	if err != nil {
		return nil, err
	}

	all := []Trigger{}
	for _, agg := range aggs {
		triggers, err := e.Evaluate(ctx, Target{Type: agg.TargetType, ID: agg.TargetID})
		if err != nil {
			return nil, err
		}
		all = append(all, triggers...)
	}
	return all, nil
}

// loopAssignee loads a loop target's assignee. It returns nil without error
// when the target is not a loop or any row is missing.
func loopAssignee(ctx context.Context, e *Engine, t Target) (*models.User, error) {
	if t.Type != models.TargetLoop || t.ID == nil {
		return nil, nil
	}
	loop, err := e.repo.Loop(ctx, *t.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if loop.AssigneeID == nil {
		return nil, nil
	}
	user, err := e.repo.User(ctx, *loop.AssigneeID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func burnoutRule(ctx context.Context, e *Engine, t Target, _ *models.SwarmAggregation) (*Trigger, error) {
	assignee, err := loopAssignee(ctx, e, t)
	if err != nil || assignee == nil {
		return nil, err
	}
	overdue, err := e.repo.CountLoops(ctx, assignee.ID, models.LoopOverdue)
	if err != nil {
		return nil, err
	}
	if assignee.TrustScore >= burnoutTrustCeiling || overdue < burnoutOverdueLoops {
		return nil, nil
	}
	userID := assignee.ID
	return &Trigger{
		Type:       BurnoutProtocol,
		TargetType: "user",
		TargetID:   &userID,
		Severity:   SeverityHigh,
		Message:    "Burnout pattern detected. Sanctuary protocol recommended.",
		Ritual:     "Rest and Renewal Circle",
		Data: map[string]any{
			"trustScore":   assignee.TrustScore,
			"overdueCount": overdue,
			"suggestion":   "Gentle pause with supportive community circle",
		},
	}, nil
}

func pauseReflectRule(ctx context.Context, e *Engine, t Target, agg *models.SwarmAggregation) (*Trigger, error) {
	if t.Type != models.TargetLoop || agg.DissonanceScore <= pauseDissonanceFloor || agg.TotalSignals < pauseMinSignals {
		return nil, nil
	}
	n, err := e.repo.CountSwarmSignals(ctx, t.Type, t.ID, models.SwarmDissonance, nil)
	if err != nil {
		return nil, err
	}
	if n < pauseMinSignals {
		return nil, nil
	}
	severity := SeverityMedium
	if agg.DissonanceScore > pauseHighDissonance {
		severity = SeverityHigh
	}
	return &Trigger{
		Type:       PauseReflect,
		TargetType: t.Type,
		TargetID:   t.ID,
		Severity:   severity,
		Message:    "Multiple dissonance signals detected. Consider pausing for group reflection.",
		Data: map[string]any{
			"dissonanceCount": n,
			"dissonanceScore": agg.DissonanceScore,
			"suggestion":      "Invite circle conversation to address underlying tensions",
		},
	}, nil
}

func fieldRepairRule(ctx context.Context, e *Engine, t Target, _ *models.SwarmAggregation) (*Trigger, error) {
	assignee, err := loopAssignee(ctx, e, t)
	if err != nil || assignee == nil {
		return nil, err
	}
	if assignee.TrustScore >= repairTrustCeiling {
		return nil, nil
	}
	return &Trigger{
		Type:       FieldRepair,
		TargetType: t.Type,
		TargetID:   t.ID,
		Severity:   SeverityMedium,
		Message:    "Trust threshold crossed. Field repair ritual suggested.",
		Data: map[string]any{
			"userId":            assignee.ID,
			"currentTrustScore": assignee.TrustScore,
			"suggestion":        "Gentle restoration circle to rebuild field connections",
		},
	}, nil
}

func celebrationRule(_ context.Context, _ *Engine, t Target, agg *models.SwarmAggregation) (*Trigger, error) {
	if agg.CoherenceScore <= celebrateCoherence || agg.RippleScore <= celebrateRipple || agg.TotalSignals < celebrateMinSignals {
		return nil, nil
	}
	return &Trigger{
		Type:       CelebrationRitual,
		TargetType: t.Type,
		TargetID:   t.ID,
		Severity:   SeverityPositive,
		Message:    "Excellence detected! Community celebration ritual suggested.",
		Ritual:     "Gratitude Harvest Circle",
		Data: map[string]any{
			"coherenceScore": agg.CoherenceScore,
			"rippleScore":    agg.RippleScore,
			"totalSignals":   agg.TotalSignals,
			"suggestion":     "Gather community to acknowledge and amplify this success",
		},
	}, nil
}

func breachRule(ctx context.Context, e *Engine, t Target, _ *models.SwarmAggregation) (*Trigger, error) {
	if t.Type != models.TargetSignal || t.ID == nil {
		return nil, nil
	}
	sig, err := e.repo.Signal(ctx, *t.ID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sig.SignalType != models.SignalTypeFalseResonance || sig.Severity != breachSignalSeverity {
		return nil, nil
	}
	return &Trigger{
		Type:       BreachProtocol,
		TargetType: models.TargetSignal,
		TargetID:   t.ID,
		Severity:   SeverityCritical,
		Message:    "Serious field breach detected. Immediate sanctuary protocol activated.",
		Ritual:     "Truth and Reconciliation Circle",
		Data: map[string]any{
			"signalTitle": sig.Title,
			"reporterId":  sig.ReporterID,
			"suggestion":  "Emergency community gathering for healing and realignment",
		},
	}, nil
}

func conflictRule(_ context.Context, _ *Engine, t Target, agg *models.SwarmAggregation) (*Trigger, error) {
	if agg.DissonanceScore <= conflictDissonance || agg.TotalSignals < conflictMinSignals {
		return nil, nil
	}
	return &Trigger{
		Type:       ConflictResolution,
		TargetType: t.Type,
		TargetID:   t.ID,
		Severity:   SeverityHigh,
		Message:    "Persistent conflict pattern detected. Mediation ritual needed.",
		Ritual:     "Circle of Understanding",
		Data: map[string]any{
			"dissonanceScore": agg.DissonanceScore,
			"signalCount":     agg.TotalSignals,
			"suggestion":      "Facilitated dialogue to address underlying tensions",
		},
	}, nil
}
