package store

import (
	"context"
	"field-swarm/database"
	"field-swarm/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.OpenAndMigrate(database.MemoryDSN())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	return New(db)
}

func newUser(t *testing.T, s *Store, pseudonym string, score float64) *models.User {
	t.Helper()
	u := &models.User{Pseudonym: pseudonym, InviteCode: "FIELD2025", TrustScore: score, IsActive: true}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestJoinDecision_RejoinReplacesRole(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	u := newUser(t, s, "heron", 3)

	d := &models.Decision{Title: "Garden plots"}
	require.NoError(t, s.CreateDecision(ctx, d))
	assert.Equal(t, "active", d.Status)

	require.NoError(t, s.JoinDecision(ctx, d.ID, u.ID, ""))
	require.NoError(t, s.JoinDecision(ctx, d.ID, u.ID, "facilitator"))

	var parts []models.DecisionParticipant
	require.NoError(t, s.DB().Where("decision_id = ?", d.ID).Find(&parts).Error)
	require.Len(t, parts, 1)
	assert.Equal(t, "facilitator", parts[0].Role)

	decisions, err := s.Decisions(ctx)
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, 2, decisions[0].ParticipantCount)
}

func TestCompleteSideWorkTask_CapsTrustScore(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	u := newUser(t, s, "wren", 4.98)

	task := &models.SideWorkTask{UserID: &u.ID, Title: "Close a lingering loop", CoherenceBoost: 0.075}
	require.NoError(t, s.CreateSideWorkTask(ctx, task))
	require.NoError(t, s.CompleteSideWorkTask(ctx, task.ID))

	got, err := s.User(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, MaxTrustScore, got.TrustScore)

	done, err := s.SideWorkTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskCompleted, done.Status)
	assert.NotNil(t, done.CompletedAt)

	acts, err := s.RecentActivities(ctx, 10)
	require.NoError(t, err)
	require.Len(t, acts, 1)
	assert.Equal(t, "side_work_completed", acts[0].ActivityType)
}

func TestCompleteSideWorkTask_MissingOrOwnerless(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.CompleteSideWorkTask(ctx, 999))

	task := &models.SideWorkTask{Title: "orphan"}
	require.NoError(t, s.CreateSideWorkTask(ctx, task))
	require.NoError(t, s.CompleteSideWorkTask(ctx, task.ID))

	got, err := s.SideWorkTask(ctx, task.ID)
	require.NoError(t, err)
	assert.NotEqual(t, models.TaskCompleted, got.Status)
}

func TestGenerateSideWorkTasks_FalseResonance(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	u := newUser(t, s, "otter", 3)

	tasks, err := s.GenerateSideWorkTasks(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "voluntary", tasks[0].TriggeredBy)

	for i := 0; i < 3; i++ {
		loop := &models.Loop{Title: "busy", AssigneeID: &u.ID, Status: models.LoopInProgress}
		require.NoError(t, s.CreateLoop(ctx, loop))
	}

	tasks, err = s.GenerateSideWorkTasks(ctx, u.ID)
	require.NoError(t, err)
	for _, task := range tasks {
		assert.Equal(t, "false_resonance", task.TriggeredBy)
		assert.Equal(t, u.ID, *task.UserID)
	}

	all, err := s.SideWorkTasks(ctx, &u.ID)
	require.NoError(t, err)
	assert.Len(t, all, 6)
}

func TestSwarmSignals_NilTargetMatchesOnlyNull(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	id := int64(7)

	for _, sig := range []*models.SwarmSignal{
		{TargetType: models.TargetSystem, SignalType: "coherence", Intensity: 3},
		{TargetType: models.TargetSystem, TargetID: &id, SignalType: "dissonance", Intensity: 3},
		{TargetType: models.TargetLoop, TargetID: &id, SignalType: "ripple", Intensity: 3},
	} {
		require.NoError(t, s.CreateSwarmSignal(ctx, sig))
	}

	system, err := s.SwarmSignals(ctx, models.TargetSystem, nil)
	require.NoError(t, err)
	require.Len(t, system, 1)
	assert.Nil(t, system[0].TargetID)

	scoped, err := s.SwarmSignals(ctx, models.TargetSystem, &id)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "dissonance", scoped[0].SignalType)

	n, err := s.CountSwarmSignals(ctx, models.TargetLoop, &id, "ripple", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	all, err := s.AllSwarmSignals(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSeedingIsIdempotent(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	bundles := []models.InstitutionBundle{{Name: "School", InstitutionType: "education", IsActive: true}}
	n, err := s.SeedInstitutionBundles(ctx, bundles)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = s.SeedInstitutionBundles(ctx, bundles)
	require.NoError(t, err)
	assert.Zero(t, n)

	rituals := []models.FieldRitual{{Name: "Morning attunement", RitualType: "attunement"}}
	n, err = s.SeedFieldRituals(ctx, rituals)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = s.SeedFieldRituals(ctx, rituals)
	require.NoError(t, err)
	assert.Zero(t, n)

	got, err := s.FieldRituals(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestFilterSignals(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for _, sig := range []*models.Signal{
		{Title: "leak", SignalType: "concern", Severity: "high", Domain: "infrastructure", Status: "open"},
		{Title: "thanks", SignalType: "appreciation", Severity: "low", Domain: "community", Status: "open"},
		{Title: "noise", SignalType: "concern", Severity: "low", Domain: "community", Status: "resolved"},
	} {
		require.NoError(t, s.CreateSignal(ctx, sig))
	}

	concerns, err := s.FilterSignals(ctx, SignalFilter{SignalType: "concern"})
	require.NoError(t, err)
	require.Len(t, concerns, 2)
	assert.ElementsMatch(t, []string{"leak", "noise"}, []string{concerns[0].Title, concerns[1].Title})

	lowCommunity, err := s.FilterSignals(ctx, SignalFilter{Severity: "low", Domain: "community", Status: "open"})
	require.NoError(t, err)
	require.Len(t, lowCommunity, 1)
	assert.Equal(t, "thanks", lowCommunity[0].Title)

	limited, err := s.FilterSignals(ctx, SignalFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestUserUpdates_NotFound(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, s.CompleteOnboarding(ctx, 42), ErrNotFound)
	_, err := s.User(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)

	u := newUser(t, s, "fern", 3)
	require.NoError(t, s.SignFieldAgreement(ctx, u.ID))
	got, err := s.User(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.FieldAgreementSigned)
	assert.NotNil(t, got.FieldAgreementSignedAt)
}
