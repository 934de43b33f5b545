package repository

import (
	"context"
	"testing"

	"canvass-data/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAgentsUpsert(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAgentsRepository()

	a1, err := repo.GetOrCreateAgent(ctx, 100, "Тест", "tester")
	require.NoError(t, err)
	require.NotEmpty(t, a1.AgentID)

	// Same chat id comes back as the same record.
	a2, err := repo.GetOrCreateAgent(ctx, 100, "Тест", "tester")
	require.NoError(t, err)
	assert.Equal(t, a1.AgentID, a2.AgentID)

	// Changed display fields refresh in place.
	a3, err := repo.GetOrCreateAgent(ctx, 100, "Новое Имя", "renamed")
	require.NoError(t, err)
	assert.Equal(t, a1.AgentID, a3.AgentID)
	assert.Equal(t, "Новое Имя", a3.Name)
	assert.Equal(t, "renamed", a3.Username)

	// Empty arguments leave the stored values alone.
	a4, err := repo.GetOrCreateAgent(ctx, 100, "", "")
	require.NoError(t, err)
	assert.Equal(t, "Новое Имя", a4.Name)
	assert.Equal(t, "renamed", a4.Username)
}

func TestMemoryAgentsByUsername(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAgentsRepository()

	_, err := repo.GetAgentByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.GetOrCreateAgent(ctx, 100, "Тест", "Some_User")
	require.NoError(t, err)

	got, err := repo.GetAgentByUsername(ctx, "some_user")
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.ChatID)
}

func TestMemoryCanvassContactLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryCanvassRepository(nil)

	visit, err := repo.CreateVisit(ctx, "a1", "ул. Ленина 1")
	require.NoError(t, err)
	assert.Nil(t, visit.ClosedAt)

	contact, err := repo.CreateContact(ctx, visit.VisitID, "a1", "Петров Сидор Иванович", "+79991234567")
	require.NoError(t, err)
	assert.Equal(t, domain.PhoneHash("+79991234567"), contact.PhoneHash)

	status := domain.TalkConsent
	require.NoError(t, repo.UpdateContact(ctx, contact.ContactID, ContactUpdate{TalkStatus: &status}))

	got, err := repo.GetContact(ctx, contact.ContactID)
	require.NoError(t, err)
	require.NotNil(t, got.TalkStatus)
	assert.Equal(t, domain.TalkConsent, *got.TalkStatus)
	assert.False(t, got.Closed())

	require.NoError(t, repo.CloseContact(ctx, contact.ContactID))
	got, err = repo.GetContact(ctx, contact.ContactID)
	require.NoError(t, err)
	assert.True(t, got.Closed())

	require.NoError(t, repo.CloseVisit(ctx, visit.VisitID))
	// Closing twice is a no-op.
	require.NoError(t, repo.CloseVisit(ctx, visit.VisitID))
}

func TestMemoryCanvassFlyerUniqueness(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryCanvassRepository(nil)

	visit, err := repo.CreateVisit(ctx, "a1", "")
	require.NoError(t, err)
	c1, err := repo.CreateContact(ctx, visit.VisitID, "a1", "Первый Тест Тестович", "+79990000001")
	require.NoError(t, err)
	c2, err := repo.CreateContact(ctx, visit.VisitID, "a1", "Второй Тест Тестович", "+79990000002")
	require.NoError(t, err)

	num := "42"
	require.NoError(t, repo.UpdateContact(ctx, c1.ContactID, ContactUpdate{FlyerNumber: &num}))

	err = repo.UpdateContact(ctx, c2.ContactID, ContactUpdate{FlyerNumber: &num})
	assert.ErrorIs(t, err, ErrDuplicateFlyerNumber)

	other := "43"
	require.NoError(t, repo.UpdateContact(ctx, c2.ContactID, ContactUpdate{FlyerNumber: &other}))

	numbers, err := repo.ListFlyerNumbers(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"42", "43"}, numbers)
}

func TestMemoryBrigadeRelations(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryBrigadeRepository()

	// SetBrigMember allow-lists the brigadier implicitly.
	require.NoError(t, repo.SetBrigMember(ctx, 500, 501))
	allowed, err := repo.IsBrigadierAllowed(ctx, 500)
	require.NoError(t, err)
	assert.True(t, allowed)

	require.NoError(t, repo.SetBrigMember(ctx, 500, 501)) // idempotent
	members, err := repo.ListBrigMembers(ctx, 500)
	require.NoError(t, err)
	assert.Equal(t, []int64{501}, members)

	require.NoError(t, repo.SetBrigLogin(ctx, 500, true))
	require.NoError(t, repo.RemoveBrigadier(ctx, 500))

	allowed, err = repo.IsBrigadierAllowed(ctx, 500)
	require.NoError(t, err)
	assert.False(t, allowed)
	logged, err := repo.IsBrigLoggedIn(ctx, 500)
	require.NoError(t, err)
	assert.False(t, logged)
	members, err = repo.ListBrigMembers(ctx, 500)
	require.NoError(t, err)
	assert.Empty(t, members)
}
