package trust

import (
	"context"
	"errors"
	"field-swarm/models"
	"field-swarm/store"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type actionLog struct {
	actions []models.TrustAction
	err     error
}

func (a *actionLog) CreateTrustAction(_ context.Context, action *models.TrustAction) error {
	if a.err != nil {
		return a.err
	}
	a.actions = append(a.actions, *action)
	return nil
}

func TestLedger_Record(t *testing.T) {
	w := &actionLog{}
	l := NewLedger(w, nil)

	require.NoError(t, l.Record(context.Background(), 4, "loop_completion", 0.1))

	require.Len(t, w.actions, 1)
	got := w.actions[0]
	assert.Equal(t, int64(4), *got.UserID)
	assert.Equal(t, "loop_completion", got.ActionType)
	assert.Equal(t, "Field activity: loop completion", got.Description)
	assert.Equal(t, 0.1, got.ImpactScore)
}

func TestLedger_RecordWrapsStoreError(t *testing.T) {
	l := NewLedger(&actionLog{err: errors.New("locked")}, nil)

	err := l.Record(context.Background(), 1, ReasonSignalAccuracy, SignalAccurate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")
}

func TestLedger_Magnitudes(t *testing.T) {
	ctx := context.Background()
	w := &actionLog{}
	l := NewLedger(w, nil)

	require.NoError(t, l.LoopCompletion(ctx, 1, true))
	require.NoError(t, l.LoopCompletion(ctx, 1, false))
	require.NoError(t, l.SignalAccuracy(ctx, 1, true))
	require.NoError(t, l.SignalAccuracy(ctx, 1, false))
	require.NoError(t, l.DecisionJoined(ctx, 1, "facilitator"))
	require.NoError(t, l.DecisionJoined(ctx, 1, "participant"))
	require.NoError(t, l.ResourceAllocated(ctx, 1))

	var got []float64
	for _, a := range w.actions {
		got = append(got, a.ImpactScore)
	}
	assert.Equal(t, []float64{0.10, 0.05, 0.15, -0.10, 0.12, 0.08, 0.10}, got)
	assert.Equal(t, ReasonDecisionFacilitate, w.actions[4].ActionType)
	assert.Equal(t, ReasonResourceGovernance, w.actions[6].ActionType)
}

func TestLedger_CoherencePingsCapped(t *testing.T) {
	tests := []struct {
		pings   int
		want    float64
		written bool
	}{
		{0, 0, false},
		{1, 0.05, true},
		{3, 0.15, true},
		{4, 0.20, true},
		{9, 0.20, true},
	}
	for _, tt := range tests {
		w := &actionLog{}
		require.NoError(t, NewLedger(w, nil).CoherencePings(context.Background(), 2, tt.pings))
		if !tt.written {
			assert.Empty(t, w.actions, "pings=%d", tt.pings)
			continue
		}
		require.Len(t, w.actions, 1, "pings=%d", tt.pings)
		assert.InDelta(t, tt.want, w.actions[0].ImpactScore, 1e-9, "pings=%d", tt.pings)
		assert.Equal(t, ReasonCoherencePings, w.actions[0].ActionType)
	}
}

func TestIsAccurate(t *testing.T) {
	tests := []struct {
		signalType string
		outcome    string
		want       bool
	}{
		{models.SignalTypeDissonance, OutcomeResolved, true},
		{models.SignalTypeDissonance, OutcomeEscalated, true},
		{models.SignalTypeConcern, OutcomeIgnored, false},
		{models.SignalTypeAlignment, OutcomeResolved, true},
		{models.SignalTypeCelebration, OutcomeEscalated, false},
		{models.SignalTypeCelebration, OutcomeIgnored, false},
		{models.SignalTypeFalseResonance, OutcomeResolved, true},
		{models.SignalTypeFalseResonance, OutcomeEscalated, false},
	}
	for _, tt := range tests {
		t.Run(tt.signalType+"/"+tt.outcome, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAccurate(tt.signalType, tt.outcome))
		})
	}
}

type signalBook struct {
	signals map[int64]models.Signal
	swarm   map[int64][]models.SwarmSignal
}

func (b *signalBook) Signal(_ context.Context, id int64) (*models.Signal, error) {
	s, ok := b.signals[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &s, nil
}

func (b *signalBook) SignalsSince(_ context.Context, since time.Time) ([]models.Signal, error) {
	var out []models.Signal
	for _, s := range b.signals {
		if !s.CreatedAt.Before(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (b *signalBook) SwarmSignals(_ context.Context, targetType string, targetID *int64) ([]models.SwarmSignal, error) {
	if targetType != models.TargetSignal || targetID == nil {
		return nil, nil
	}
	return b.swarm[*targetID], nil
}

func TestEvaluateSignal(t *testing.T) {
	reporter := int64(7)
	book := &signalBook{signals: map[int64]models.Signal{
		1: {ID: 1, SignalType: models.SignalTypeConcern, ReporterID: &reporter},
		2: {ID: 2, SignalType: models.SignalTypeAlignment},
	}}
	w := &actionLog{}
	ev := NewEvaluator(book, NewLedger(w, nil), nil)
	ctx := context.Background()

	accurate, err := ev.EvaluateSignal(ctx, 1, OutcomeIgnored)
	require.NoError(t, err)
	assert.False(t, accurate)
	require.Len(t, w.actions, 1)
	assert.Equal(t, SignalInaccurate, w.actions[0].ImpactScore)

	accurate, err = ev.EvaluateSignal(ctx, 2, OutcomeResolved)
	require.NoError(t, err)
	assert.True(t, accurate)
	assert.Len(t, w.actions, 1, "signals without reporter write nothing")

	accurate, err = ev.EvaluateSignal(ctx, 99, OutcomeResolved)
	require.NoError(t, err)
	assert.False(t, accurate)
}

func TestAutoDetectOutcomes(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	reporter := int64(3)
	book := &signalBook{
		signals: map[int64]models.Signal{
			1: {ID: 1, SignalType: models.SignalTypeDissonance, ReporterID: &reporter, CreatedAt: now.Add(-2 * time.Hour)},
			2: {ID: 2, SignalType: models.SignalTypeDissonance, ReporterID: &reporter, CreatedAt: now.Add(-time.Hour)},
			3: {ID: 3, SignalType: models.SignalTypeDissonance, ReporterID: &reporter, CreatedAt: now.Add(-10 * 24 * time.Hour)},
			4: {ID: 4, SignalType: models.SignalTypeConcern, ReporterID: &reporter, CreatedAt: now.Add(-time.Hour)},
		},
		swarm: map[int64][]models.SwarmSignal{
			1: {{SignalType: models.SwarmCoherence, CreatedAt: now.Add(-time.Hour)}},
			2: {{SignalType: models.SwarmCoherence, CreatedAt: now.Add(-3 * time.Hour)}},
			3: {{SignalType: models.SwarmCoherence, CreatedAt: now}},
			4: {{SignalType: models.SwarmCoherence, CreatedAt: now}},
		},
	}
	w := &actionLog{}
	ev := NewEvaluator(book, NewLedger(w, nil), nil)
	ev.now = func() time.Time { return now }

	n, err := ev.AutoDetectOutcomes(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	require.Len(t, w.actions, 1)
	assert.Equal(t, SignalAccurate, w.actions[0].ImpactScore)
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	core, logs := observer.New(zap.InfoLevel)
	s := NewScheduler(5*time.Millisecond, zap.New(core))
	swept := make(chan struct{}, 1)
	s.onSweep = func() {
		select {
		case swept <- struct{}{}:
		default:
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case <-swept:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep never ran")
	}
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.NotZero(t, logs.FilterMessage("trust decay skipped, using qualitative trust states only").Len())
}

func TestNewScheduler_DefaultInterval(t *testing.T) {
	assert.Equal(t, DefaultDecayInterval, NewScheduler(0, nil).interval)
}
