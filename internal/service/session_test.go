package service

import (
	"context"
	"testing"
	"time"

	"canvass-data/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	sessions := NewSessionStore(store.NewMemoryKV(), time.Hour)

	got, err := sessions.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got, "no session yet")

	sess := &Session{
		Step:     StepFlyerNumber,
		VisitID:  "v1",
		AgentID:  "a1",
		FullName: "Петров Сидор Иванович",
		Phone:    "+79991234567",
	}
	require.NoError(t, sessions.Save(ctx, 1, sess))

	got, err = sessions.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *sess, *got)

	require.NoError(t, sessions.Clear(ctx, 1))
	got, err = sessions.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionStoreCorruptPayload(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	sessions := NewSessionStore(kv, time.Hour)

	require.NoError(t, kv.Set(ctx, "session:7", "{not json", time.Hour))

	got, err := sessions.Get(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, got, "corrupt session dropped, not fatal")

	// The bad payload was deleted.
	_, err = kv.Get(ctx, "session:7")
	assert.ErrorIs(t, err, store.ErrMiss)
}

func TestSessionStoreListActive(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	sessions := NewSessionStore(kv, time.Hour)

	require.NoError(t, sessions.Save(ctx, 30, &Session{Step: StepPhone}))
	require.NoError(t, sessions.Save(ctx, 10, &Session{Step: StepDoorPhoto}))
	require.NoError(t, sessions.Save(ctx, 20, &Session{Step: StepFinishChoice}))

	// Unrelated keys and malformed session keys are ignored.
	require.NoError(t, kv.Set(ctx, "other:1", "x", time.Hour))
	require.NoError(t, kv.Set(ctx, "session:abc", "{}", time.Hour))

	active, err := sessions.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, []ActiveSession{
		{ChatID: 10, Step: StepDoorPhoto},
		{ChatID: 20, Step: StepFinishChoice},
		{ChatID: 30, Step: StepPhone},
	}, active)

	require.NoError(t, sessions.Clear(ctx, 20))
	active, err = sessions.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
}

func TestStrictSteps(t *testing.T) {
	assert.True(t, strictStep(StepDoorPhoto))
	assert.True(t, strictStep(StepMailboxPhoto))
	assert.True(t, strictStep(StepFlyerNumber))
	assert.False(t, strictStep(StepFullName))
	assert.False(t, strictStep(StepPhone))
	assert.False(t, strictStep(StepFinishChoice))
}
