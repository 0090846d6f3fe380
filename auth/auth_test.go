package auth

import (
	"context"
	"field-swarm/database"
	"field-swarm/models"
	"field-swarm/store"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	db, err := database.OpenAndMigrate(database.MemoryDSN())
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })
	st := store.New(db)
	return NewService(st, nil), st
}

func TestValidateInviteCode(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	tests := []struct {
		code    string
		valid   bool
		message string
	}{
		{"FIELD001", true, ""},
		{"field001", true, ""},
		{"LOOP001", true, ""},
		{"ABC", false, "Invalid code format"},
		{"TOOLONG123", false, "Invalid code format"},
		{"NOPE0001", false, "Invalid invite code"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			check, err := svc.ValidateInviteCode(ctx, tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, check.Valid)
			assert.Equal(t, tt.message, check.Message)
		})
	}
}

func TestValidateInviteCode_ReturnsExistingUser(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, Registration{Pseudonym: "river", SignalRole: "weaver", InviteCode: "NEXUS001"})
	require.NoError(t, err)

	check, err := svc.ValidateInviteCode(ctx, "NEXUS001")
	require.NoError(t, err)
	require.NotNil(t, check.ExistingUser)
	assert.Equal(t, user.ID, check.ExistingUser.ID)
}

func TestCheckPseudonym(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	short, err := svc.CheckPseudonym(ctx, "ab")
	require.NoError(t, err)
	assert.False(t, short.Available)
	assert.Equal(t, "Pseudonym must be at least 3 characters", short.Message)

	free, err := svc.CheckPseudonym(ctx, "heron")
	require.NoError(t, err)
	assert.True(t, free.Available)

	_, err = svc.Register(ctx, Registration{Pseudonym: "heron", InviteCode: "CIVIC001"})
	require.NoError(t, err)

	taken, err := svc.CheckPseudonym(ctx, "heron")
	require.NoError(t, err)
	assert.False(t, taken.Available)
	assert.Equal(t, "Pseudonym already taken", taken.Message)
}

func TestRegister(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, Registration{
		Pseudonym:  "moss",
		SignalRole: "anchor",
		InviteCode: "TRUST001",
		StyleEmoji: "🌱",
	})
	require.NoError(t, err)

	stored, err := st.User(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "emerging", stored.TrustState)
	assert.Equal(t, 3, stored.TrustTokens)
	assert.Equal(t, models.DefaultTrustScore, stored.TrustScore)
	assert.True(t, stored.IsActive)
	assert.False(t, stored.OnboardingCompleted)

	_, err = svc.Register(ctx, Registration{Pseudonym: "moss", InviteCode: "TRUST001"})
	assert.ErrorIs(t, err, ErrPseudonymTaken)

	_, err = svc.Register(ctx, Registration{Pseudonym: "fern", InviteCode: "BADCODE1"})
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestLoginAndSession(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, Registration{Pseudonym: "lark", InviteCode: "MIRROR01"})
	require.NoError(t, err)

	got, err := svc.Login(ctx, "lark", "MIRROR01")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Login(ctx, "lark", "mirror01")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody", "MIRROR01")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Session(ctx, user.ID, "lark")
	require.NoError(t, err)
	_, err = svc.Session(ctx, user.ID, "wren")
	assert.ErrorIs(t, err, ErrInvalidSession)
	_, err = svc.Session(ctx, 999, "lark")
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestGenerateInviteCode(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	_, err := svc.GenerateInviteCode(ctx, 42, "")
	assert.ErrorIs(t, err, ErrUnknownUser)

	steward, err := svc.Register(ctx, Registration{Pseudonym: "oak", InviteCode: "ANCHOR01"})
	require.NoError(t, err)

	invite, err := svc.GenerateInviteCode(ctx, steward.ID, "")
	require.NoError(t, err)
	assert.Len(t, invite.Code, CodeLength)
	assert.Empty(t, strings.Trim(invite.Code, CodeAlphabet))
	assert.Equal(t, "Generated by steward", invite.Description)

	check, err := svc.ValidateInviteCode(ctx, strings.ToLower(invite.Code))
	require.NoError(t, err)
	assert.True(t, check.Valid)

	_, err = svc.Register(ctx, Registration{Pseudonym: "ash", InviteCode: invite.Code})
	require.NoError(t, err)

	stored, err := st.InviteCode(ctx, invite.Code)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.CurrentUses)
}

func TestValidateInviteCode_ExhaustedPersistedCode(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	require.NoError(t, st.CreateInviteCode(ctx, &models.InviteCode{
		Code: "SPENT001", IsActive: true, MaxUses: 1, CurrentUses: 1,
	}))

	check, err := svc.ValidateInviteCode(ctx, "SPENT001")
	require.NoError(t, err)
	assert.False(t, check.Valid)
	assert.Equal(t, "Invalid invite code", check.Message)
}
