// Package swarm turns raw swarm signals into per-target field scores and
// derives the rituals those scores call for.
package swarm

import (
	"context"
	"errors"
	"field-swarm/models"
	"field-swarm/store"
	"fmt"
	"math"
)

// trendMargin is how many points one of coherence/dissonance must lead the
// other by before the trend leaves "stable".
const trendMargin = 20.0

// Scores is the result of folding a set of swarm signals.
type Scores struct {
	Coherence    float64
	Dissonance   float64
	Ripple       float64
	TotalSignals int
	TotalWeight  float64
	Trend        string
}

// Compute folds signals into percentage scores. Each signal weighs
// trustWeight * intensity; each score is its type's share of the total weight,
// rounded to two decimals, and 0 when the total weight is 0.
func Compute(signals []models.SwarmSignal) Scores {
	var total, coherence, dissonance, ripple float64
	for _, sig := range signals {
		w := sig.UserTrustWeight * float64(sig.Intensity)
		total += w
		switch sig.SignalType {
		case models.SwarmCoherence:
			coherence += w
		case models.SwarmDissonance:
			dissonance += w
		case models.SwarmRipple:
			ripple += w
		}
	}

	s := Scores{
		Coherence:    share(coherence, total),
		Dissonance:   share(dissonance, total),
		Ripple:       share(ripple, total),
		TotalSignals: len(signals),
		TotalWeight:  total,
	}
	s.Trend = trend(s.Coherence, s.Dissonance)
	return s
}

func share(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	pct := part / total * 100
	return math.Max(0, math.Min(100, round2(pct)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func trend(coherence, dissonance float64) string {
	switch {
	case coherence > dissonance+trendMargin:
		return models.TrendUp
	case dissonance > coherence+trendMargin:
		return models.TrendDown
	default:
		return models.TrendStable
	}
}

// Recompute rebuilds the aggregation of one bucket from every signal in it and
// upserts the result. Concurrent recomputes of the same bucket are last-writer-wins.
func (e *Engine) Recompute(ctx context.Context, t Target) (*models.SwarmAggregation, error) {
	signals, err := e.repo.SwarmSignals(ctx, t.Type, t.ID)
	if err != nil {
		return nil, fmt.Errorf("recompute %s: %w", t, err)
	}
	scores := Compute(signals)

	agg, err := e.repo.Aggregation(ctx, t.Type, t.ID)
	if errors.Is(err, store.ErrNotFound) {
		agg = &models.SwarmAggregation{TargetType: t.Type, TargetID: t.ID}
	} else if err != nil {
		return nil, fmt.Errorf("recompute %s: %w", t, err)
	}

	now := e.now()
	agg.CoherenceScore = scores.Coherence
	agg.DissonanceScore = scores.Dissonance
	agg.RippleScore = scores.Ripple
	agg.TotalSignals = scores.TotalSignals
	agg.Trend = scores.Trend
	agg.LastUpdated = now
	if agg.CalculatedAt.IsZero() {
		agg.CalculatedAt = now
	}

	if err := e.repo.SaveAggregation(ctx, agg); err != nil {
		return nil, fmt.Errorf("recompute %s: %w", t, err)
	}
	return agg, nil
}

// Aggregation returns the stored aggregation for a bucket, or a zeroed stable
// one stamped now when the bucket has never been computed.
func (e *Engine) Aggregation(ctx context.Context, t Target) (*models.SwarmAggregation, error) {
	agg, err := e.repo.Aggregation(ctx, t.Type, t.ID)
	if errors.Is(err, store.ErrNotFound) {
		now := e.now()
		return &models.SwarmAggregation{
			TargetType:   t.Type,
			TargetID:     t.ID,
			Trend:        models.TrendStable,
			CalculatedAt: now,
			LastUpdated:  now,
		}, nil
	}
	if err != nil {
		return nil, err
	}
	return agg, nil
}
