package trust

import (
	"context"
	"errors"
	"field-swarm/models"
	"field-swarm/store"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Signal outcomes a reviewer can report.
const (
	OutcomeResolved  = "resolved"
	OutcomeEscalated = "escalated"
	OutcomeIgnored   = "ignored"
)

// ValidOutcome reports whether o is one of the known outcomes.
func ValidOutcome(o string) bool {
	switch o {
	case OutcomeResolved, OutcomeEscalated, OutcomeIgnored:
		return true
	}
	return false
}

// IsAccurate decides whether a raised signal turned out to be accurate given
// what happened to it.
func IsAccurate(signalType, outcome string) bool {
	switch signalType {
	case models.SignalTypeDissonance, models.SignalTypeConcern:
		// concerns are right when they led to action
		return outcome == OutcomeResolved || outcome == OutcomeEscalated
	case models.SignalTypeAlignment, models.SignalTypeCelebration:
		return outcome != OutcomeIgnored && outcome != OutcomeEscalated
	default:
		return outcome == OutcomeResolved
	}
}

// SignalReader is the read side outcome evaluation needs.
type SignalReader interface {
	Signal(ctx context.Context, id int64) (*models.Signal, error)
	SignalsSince(ctx context.Context, since time.Time) ([]models.Signal, error)
	SwarmSignals(ctx context.Context, targetType string, targetID *int64) ([]models.SwarmSignal, error)
}

// OutcomeLookback bounds how far back auto-detection looks for signals.
const OutcomeLookback = 7 * 24 * time.Hour

type Evaluator struct {
	signals SignalReader
	ledger  *Ledger
	log     *zap.Logger
	now     func() time.Time
}

func NewEvaluator(signals SignalReader, ledger *Ledger, log *zap.Logger) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{
		signals: signals,
		ledger:  ledger,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// EvaluateSignal judges a signal's accuracy and credits its reporter.
// Unknown signals are reported as inaccurate without error.
func (e *Evaluator) EvaluateSignal(ctx context.Context, signalID int64, outcome string) (bool, error) {
	sig, err := e.signals.Signal(ctx, signalID)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	accurate := IsAccurate(sig.SignalType, outcome)
	if sig.ReporterID != nil {
		if err := e.ledger.SignalAccuracy(ctx, *sig.ReporterID, accurate); err != nil {
			return false, err
		}
	}
	return accurate, nil
}

// AutoDetectOutcomes marks a recent dissonance signal resolved once any
// coherence swarm signal lands on it after it was raised. It returns how many
// signals were evaluated.
func (e *Evaluator) AutoDetectOutcomes(ctx context.Context) (int, error) {
	recent, err := e.signals.SignalsSince(ctx, e.now().Add(-OutcomeLookback))
	if err != nil {
		return 0, fmt.Errorf("auto-detect outcomes: %w", err)
	}

	evaluated := 0
	for _, sig := range recent {
		if sig.SignalType != models.SignalTypeDissonance {
			continue
		}
		sigID := sig.ID
		swarm, err := e.signals.SwarmSignals(ctx, models.TargetSignal, &sigID)
		if err != nil {
			return evaluated, fmt.Errorf("auto-detect outcomes: %w", err)
		}
		if !coherenceAfter(swarm, sig.CreatedAt) {
			continue
		}
		if _, err := e.EvaluateSignal(ctx, sig.ID, OutcomeResolved); err != nil {
			return evaluated, fmt.Errorf("auto-detect outcomes: %w", err)
		}
		evaluated++
	}

	e.log.Info("signal outcomes auto-detected",
		zap.Int("recent", len(recent)),
		zap.Int("evaluated", evaluated))
	return evaluated, nil
}

func coherenceAfter(signals []models.SwarmSignal, t time.Time) bool {
	for _, s := range signals {
		if s.SignalType == models.SwarmCoherence && s.CreatedAt.After(t) {
			return true
		}
	}
	return false
}
