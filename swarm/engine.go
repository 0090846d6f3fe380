package swarm

import (
	"context"
	"errors"
	"field-swarm/models"
	"field-swarm/store"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Target identifies one aggregation bucket. A nil ID is the system-wide
// bucket for the type and matches only signals without a target id.
type Target struct {
	Type string
	ID   *int64
}

func (t Target) String() string {
	if t.ID == nil {
		return t.Type + "/-"
	}
	return t.Type + "/" + strconv.FormatInt(*t.ID, 10)
}

// Repository is the persistence the engine reads and writes.
// *store.Store satisfies it.
type Repository interface {
	SwarmSignals(ctx context.Context, targetType string, targetID *int64) ([]models.SwarmSignal, error)
	CreateSwarmSignal(ctx context.Context, sig *models.SwarmSignal) error
	CountSwarmSignals(ctx context.Context, targetType string, targetID *int64, signalType string, since *time.Time) (int64, error)
	Aggregation(ctx context.Context, targetType string, targetID *int64) (*models.SwarmAggregation, error)
	SaveAggregation(ctx context.Context, agg *models.SwarmAggregation) error
	AggregationsSince(ctx context.Context, since time.Time) ([]models.SwarmAggregation, error)
	Loop(ctx context.Context, id int64) (*models.Loop, error)
	CountLoops(ctx context.Context, assigneeID int64, status string) (int64, error)
	User(ctx context.Context, id int64) (*models.User, error)
	Signal(ctx context.Context, id int64) (*models.Signal, error)
}

var _ Repository = (*store.Store)(nil)

// PingSink receives the number of coherence pings a loop assignee got today.
type PingSink interface {
	CoherencePings(ctx context.Context, userID int64, pings int) error
}

// DefaultTrustWeight is applied to every submitted signal; participants are
// not weighted by a numeric trust score.
const DefaultTrustWeight = 1.0

type Engine struct {
	repo  Repository
	pings PingSink
	log   *zap.Logger
	now   func() time.Time
}

// New builds an engine. pings may be nil, in which case coherence pings are
// not forwarded anywhere.
func New(repo Repository, pings PingSink, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		repo:  repo,
		pings: pings,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Submission is everything that came out of accepting one swarm signal.
type Submission struct {
	Signal      *models.SwarmSignal
	Aggregation *models.SwarmAggregation
	Triggers    []Trigger
}

// Submit stores a signal, recomputes its bucket, evaluates triggers for it and
// forwards coherence pings to the target loop's assignee.
func (e *Engine) Submit(ctx context.Context, sig *models.SwarmSignal) (*Submission, error) {
	sig.UserTrustWeight = DefaultTrustWeight
	if sig.Intensity == 0 {
		sig.Intensity = 3
	}
	if err := e.repo.CreateSwarmSignal(ctx, sig); err != nil {
		return nil, err
	}

	t := Target{Type: sig.TargetType, ID: sig.TargetID}
	agg, err := e.Recompute(ctx, t)
	if err != nil {
		return nil, err
	}

	triggers, err := e.Evaluate(ctx, t)
	if err != nil {
		return nil, err
	}
	if len(triggers) > 0 {
		e.log.Info("swarm triggers detected",
			zap.String("target", t.String()),
			zap.Int("count", len(triggers)))
	}

	if err := e.forwardPings(ctx, sig); err != nil {
		return nil, err
	}

	return &Submission{Signal: sig, Aggregation: agg, Triggers: triggers}, nil
}

// forwardPings credits the assignee of a loop with today's coherence pings
// on that loop. A ping is skipped when its author id equals the target id.
func (e *Engine) forwardPings(ctx context.Context, sig *models.SwarmSignal) error {
	if e.pings == nil || sig.SignalType != models.SwarmCoherence {
		return nil
	}
	if sig.UserID != nil && sig.TargetID != nil && *sig.UserID == *sig.TargetID {
		return nil
	}
	if sig.TargetType != models.TargetLoop || sig.TargetID == nil {
		return nil
	}

	loop, err := e.repo.Loop(ctx, *sig.TargetID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if loop.AssigneeID == nil {
		return nil
	}

	today := startOfDay(e.now())
	n, err := e.repo.CountSwarmSignals(ctx, sig.TargetType, sig.TargetID, models.SwarmCoherence, &today)
	if err != nil {
		return err
	}
	if err := e.pings.CoherencePings(ctx, *loop.AssigneeID, int(n)); err != nil {
		return fmt.Errorf("forward coherence pings: %w", err)
	}
	return nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
