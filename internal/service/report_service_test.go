package service

import (
	"context"
	"testing"

	"canvass-data/internal/domain"
	"canvass-data/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func seedContact(t *testing.T, canvass *repository.MemoryCanvassRepository, agentID string, status domain.TalkStatus, method domain.FlyerMethod, homeYes bool) {
	t.Helper()
	ctx := context.Background()
	visit, err := canvass.CreateVisit(ctx, agentID, "")
	require.NoError(t, err)
	contact, err := canvass.CreateContact(ctx, visit.VisitID, agentID, "Тестов Тест Тестович", "+79990000000")
	require.NoError(t, err)
	upd := repository.ContactUpdate{
		TalkStatus:  &status,
		FlyerMethod: &method,
		HomeVoting:  &homeYes,
	}
	require.NoError(t, canvass.UpdateContact(ctx, contact.ContactID, upd))
	require.NoError(t, canvass.CloseContact(ctx, contact.ContactID))
}

func TestAgentsStatsForPeriod(t *testing.T) {
	ctx := context.Background()
	agents := repository.NewMemoryAgentsRepository()
	canvass := repository.NewMemoryCanvassRepository(agents)
	reports := NewReportService(agents, canvass, zap.NewNop())

	busy, err := agents.GetOrCreateAgent(ctx, 1, "Занятой Агент", "busy")
	require.NoError(t, err)
	idle, err := agents.GetOrCreateAgent(ctx, 2, "Свободный Агент", "idle")
	require.NoError(t, err)

	seedContact(t, canvass, busy.AgentID, domain.TalkConsent, domain.FlyerHand, true)
	seedContact(t, canvass, busy.AgentID, domain.TalkRefusal, domain.FlyerMailbox, false)
	seedContact(t, canvass, busy.AgentID, domain.TalkNoOne, domain.FlyerNone, false)

	stats, err := reports.AgentsStatsForPeriod(ctx, nil)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	// Sorted by total descending; the idle agent still gets a row.
	assert.Equal(t, busy.AgentID, stats[0].AgentID)
	assert.Equal(t, 3, stats[0].Total)
	assert.Equal(t, 1, stats[0].Consent)
	assert.Equal(t, 1, stats[0].Refusal)
	assert.Equal(t, 1, stats[0].NoOne)
	assert.Equal(t, 1, stats[0].Hand)
	assert.Equal(t, 1, stats[0].Mailbox)
	assert.Equal(t, 1, stats[0].None)
	assert.Equal(t, 1, stats[0].HomeYes)
	assert.Equal(t, "@busy", stats[0].Username)

	assert.Equal(t, idle.AgentID, stats[1].AgentID)
	assert.Equal(t, 0, stats[1].Total)
}

func TestAgentStatsForPeriod(t *testing.T) {
	ctx := context.Background()
	agents := repository.NewMemoryAgentsRepository()
	canvass := repository.NewMemoryCanvassRepository(agents)
	reports := NewReportService(agents, canvass, zap.NewNop())

	agent, err := agents.GetOrCreateAgent(ctx, 1, "Агент Один", "one")
	require.NoError(t, err)
	seedContact(t, canvass, agent.AgentID, domain.TalkConsent, domain.FlyerHand, true)

	st, err := reports.AgentStatsLast24h(ctx, agent)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Total)
	assert.Equal(t, 1, st.Consent)
	assert.Equal(t, 1, st.HomeYes)

	st, err = reports.AgentStatsForPeriod(ctx, agent, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Total)
}

func TestMembersStatsForPeriod(t *testing.T) {
	ctx := context.Background()
	agents := repository.NewMemoryAgentsRepository()
	canvass := repository.NewMemoryCanvassRepository(agents)
	reports := NewReportService(agents, canvass, zap.NewNop())

	member, err := agents.GetOrCreateAgent(ctx, 1, "Участник Бригады", "member")
	require.NoError(t, err)
	outsider, err := agents.GetOrCreateAgent(ctx, 2, "Посторонний Агент", "outsider")
	require.NoError(t, err)

	seedContact(t, canvass, member.AgentID, domain.TalkConsent, domain.FlyerHand, true)
	seedContact(t, canvass, outsider.AgentID, domain.TalkRefusal, domain.FlyerNone, false)

	// Only the listed chat ids are summarized; a chat id that never
	// messaged the service resolves to nothing and is skipped.
	stats, err := reports.MembersStatsForPeriod(ctx, []int64{1, 999}, nil)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, member.AgentID, stats[0].AgentID)
	assert.Equal(t, 1, stats[0].Total)
	assert.Equal(t, "@member", stats[0].Username)

	stats, err = reports.MembersStatsForPeriod(ctx, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, stats)
}
