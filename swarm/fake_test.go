package swarm

import (
	"context"
	"field-swarm/models"
	"field-swarm/store"
	"sync"
	"time"
)

// memRepo is an in-memory Repository for engine tests.
type memRepo struct {
	mu      sync.Mutex
	signals []models.SwarmSignal
	aggs    []models.SwarmAggregation
	loops   map[int64]*models.Loop
	users   map[int64]*models.User
	raised  map[int64]*models.Signal
	nextID  int64
	failAgg error
}

func newMemRepo() *memRepo {
	return &memRepo{
		loops:  map[int64]*models.Loop{},
		users:  map[int64]*models.User{},
		raised: map[int64]*models.Signal{},
	}
}

func sameTarget(aType string, aID *int64, bType string, bID *int64) bool {
	if aType != bType {
		return false
	}
	if aID == nil || bID == nil {
		return aID == nil && bID == nil
	}
	return *aID == *bID
}

func (r *memRepo) SwarmSignals(_ context.Context, targetType string, targetID *int64) ([]models.SwarmSignal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SwarmSignal
	for _, s := range r.signals {
		if sameTarget(s.TargetType, s.TargetID, targetType, targetID) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *memRepo) CreateSwarmSignal(_ context.Context, sig *models.SwarmSignal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	sig.ID = r.nextID
	if sig.CreatedAt.IsZero() {
		sig.CreatedAt = time.Now().UTC()
	}
	r.signals = append(r.signals, *sig)
	return nil
}

func (r *memRepo) CountSwarmSignals(_ context.Context, targetType string, targetID *int64, signalType string, since *time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.signals {
		if !sameTarget(s.TargetType, s.TargetID, targetType, targetID) || s.SignalType != signalType {
			continue
		}
		if since != nil && s.CreatedAt.Before(*since) {
			continue
		}
		n++
	}
	return n, nil
}

func (r *memRepo) Aggregation(_ context.Context, targetType string, targetID *int64) (*models.SwarmAggregation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAgg != nil {
		return nil, r.failAgg
	}
	for i := range r.aggs {
		if sameTarget(r.aggs[i].TargetType, r.aggs[i].TargetID, targetType, targetID) {
			agg := r.aggs[i]
			return &agg, nil
		}
	}
	return nil, store.ErrNotFound
}

func (r *memRepo) SaveAggregation(_ context.Context, agg *models.SwarmAggregation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if agg.ID == 0 {
		r.nextID++
		agg.ID = r.nextID
		r.aggs = append(r.aggs, *agg)
		return nil
	}
	for i := range r.aggs {
		if r.aggs[i].ID == agg.ID {
			r.aggs[i] = *agg
		}
	}
	return nil
}

func (r *memRepo) AggregationsSince(_ context.Context, since time.Time) ([]models.SwarmAggregation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.SwarmAggregation
	for _, a := range r.aggs {
		if !a.LastUpdated.Before(since) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memRepo) Loop(_ context.Context, id int64) (*models.Loop, error) {
	if l, ok := r.loops[id]; ok {
		return l, nil
	}
	return nil, store.ErrNotFound
}

func (r *memRepo) CountLoops(_ context.Context, assigneeID int64, status string) (int64, error) {
	var n int64
	for _, l := range r.loops {
		if l.AssigneeID != nil && *l.AssigneeID == assigneeID && l.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *memRepo) User(_ context.Context, id int64) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (r *memRepo) Signal(_ context.Context, id int64) (*models.Signal, error) {
	if s, ok := r.raised[id]; ok {
		return s, nil
	}
	return nil, store.ErrNotFound
}

// pingRecorder captures forwarded coherence pings.
type pingRecorder struct {
	calls []pingCall
}

type pingCall struct {
	UserID int64
	Pings  int
}

func (p *pingRecorder) CoherencePings(_ context.Context, userID int64, pings int) error {
	p.calls = append(p.calls, pingCall{UserID: userID, Pings: pings})
	return nil
}

func id(v int64) *int64 { return &v }

func weighted(signalType string, n int) []models.SwarmSignal {
	out := make([]models.SwarmSignal, n)
	for i := range out {
		out[i] = models.SwarmSignal{SignalType: signalType, Intensity: 1, UserTrustWeight: 1}
	}
	return out
}
