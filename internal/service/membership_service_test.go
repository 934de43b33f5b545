package service

import (
	"context"
	"testing"

	"canvass-data/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCleanUsername(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"@ivan_petrov", "ivan_petrov"},
		{"Ivan_Petrov", "ivan_petrov"},
		{"  @User99  ", "user99"},
		{"", ""},
		{"@", ""},
		{"иван", ""},
		{"user name", ""},
		{"user-name", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanUsername(tt.raw), "raw=%q", tt.raw)
	}
}

func newMembershipHarness() (*MembershipService, *repository.MemoryAgentsRepository, *repository.MemoryBrigadeRepository) {
	agents := repository.NewMemoryAgentsRepository()
	brigade := repository.NewMemoryBrigadeRepository()
	return NewMembershipService(agents, brigade, "admin", "secret", zap.NewNop()), agents, brigade
}

func TestCheckAdminCredentials(t *testing.T) {
	svc, _, _ := newMembershipHarness()
	assert.True(t, svc.CheckAdminCredentials("admin", "secret"))
	assert.True(t, svc.CheckAdminCredentials(" admin ", "secret"), "surrounding whitespace tolerated")
	assert.False(t, svc.CheckAdminCredentials("admin", "wrong"))
	assert.False(t, svc.CheckAdminCredentials("", ""))
}

func TestAddBrigadierByUsername(t *testing.T) {
	ctx := context.Background()
	svc, agents, brigade := newMembershipHarness()

	// Unknown handle: the person never messaged the service.
	_, err := svc.AddBrigadierByUsername(ctx, "@ghost")
	assert.ErrorIs(t, err, ErrUnknownUsername)

	_, err = agents.GetOrCreateAgent(ctx, 500, "Бригадир Тест", "Brig_Lead")
	require.NoError(t, err)

	// Case-insensitive, @-tolerant resolution.
	agent, err := svc.AddBrigadierByUsername(ctx, "@BRIG_lead")
	require.NoError(t, err)
	assert.Equal(t, int64(500), agent.ChatID)

	allowed, err := brigade.IsBrigadierAllowed(ctx, 500)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestAttachAndDetachMember(t *testing.T) {
	ctx := context.Background()
	svc, agents, brigade := newMembershipHarness()

	_, err := agents.GetOrCreateAgent(ctx, 500, "Бригадир", "lead")
	require.NoError(t, err)
	_, err = agents.GetOrCreateAgent(ctx, 501, "Участник", "member1")
	require.NoError(t, err)

	require.NoError(t, svc.AttachMember(ctx, "@lead", "@member1"))

	// Attaching implies allow-listing the brigadier.
	allowed, err := brigade.IsBrigadierAllowed(ctx, 500)
	require.NoError(t, err)
	assert.True(t, allowed)

	members, unknown, err := svc.ListMembers(ctx, 500)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Empty(t, unknown)
	assert.Equal(t, int64(501), members[0].ChatID)

	_, err = svc.DetachMemberFrom(ctx, 500, "member1")
	require.NoError(t, err)
	members, _, err = svc.ListMembers(ctx, 500)
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestDemoteBrigadier(t *testing.T) {
	ctx := context.Background()
	svc, agents, brigade := newMembershipHarness()

	_, err := agents.GetOrCreateAgent(ctx, 500, "Бригадир", "lead")
	require.NoError(t, err)
	_, err = agents.GetOrCreateAgent(ctx, 501, "Участник", "member1")
	require.NoError(t, err)
	require.NoError(t, svc.AttachMember(ctx, "lead", "member1"))
	require.NoError(t, brigade.SetBrigLogin(ctx, 500, true))

	// Numeric id accepted alongside the handle form.
	chatID, err := svc.DemoteBrigadier(ctx, "500")
	require.NoError(t, err)
	assert.Equal(t, int64(500), chatID)

	allowed, err := brigade.IsBrigadierAllowed(ctx, 500)
	require.NoError(t, err)
	assert.False(t, allowed)
	logged, err := brigade.IsBrigLoggedIn(ctx, 500)
	require.NoError(t, err)
	assert.False(t, logged, "demotion logs the brigadier out")
	members, err := brigade.ListBrigMembers(ctx, 500)
	require.NoError(t, err)
	assert.Empty(t, members, "demotion detaches the members")
}

func TestBlockUnblock(t *testing.T) {
	ctx := context.Background()
	svc, agents, _ := newMembershipHarness()

	_, err := agents.GetOrCreateAgent(ctx, 501, "Участник", "member1")
	require.NoError(t, err)

	_, err = svc.BlockByUsername(ctx, 500, "@member1")
	require.NoError(t, err)
	blocked, err := svc.IsBlocked(ctx, 501)
	require.NoError(t, err)
	assert.True(t, blocked)

	_, err = svc.UnblockByUsername(ctx, "member1")
	require.NoError(t, err)
	blocked, err = svc.IsBlocked(ctx, 501)
	require.NoError(t, err)
	assert.False(t, blocked)
}

func TestListBrigadiers(t *testing.T) {
	ctx := context.Background()
	svc, agents, brigade := newMembershipHarness()

	_, err := agents.GetOrCreateAgent(ctx, 500, "Бригадир", "lead")
	require.NoError(t, err)
	require.NoError(t, brigade.AddBrigadier(ctx, 500))
	// An allow-listed id that never messaged the service.
	require.NoError(t, brigade.AddBrigadier(ctx, 999))

	infos, err := svc.ListBrigadiers(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)

	byChat := map[int64]string{}
	for _, info := range infos {
		byChat[info.BrigChatID] = info.Username
	}
	assert.Equal(t, "lead", byChat[500])
	assert.Equal(t, "", byChat[999], "no agent record yet, chat id only")
}
