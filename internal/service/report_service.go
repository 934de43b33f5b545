package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"canvass-data/internal/domain"
	"canvass-data/internal/repository"

	"go.uber.org/zap"
)

// AgentPeriodStats is one per-agent summary row with the fixed counters
// the exports carry.
type AgentPeriodStats struct {
	AgentID  string
	ChatID   int64
	Username string // with "@" prefix when known
	Name     string

	Total   int
	Consent int
	Refusal int
	NoOne   int
	Hand    int
	Mailbox int
	None    int
	HomeYes int
}

// ReportService aggregates persisted contacts into per-agent summaries.
type ReportService struct {
	agents  repository.AgentsRepository
	canvass repository.CanvassRepository
	logger  *zap.Logger
}

func NewReportService(agents repository.AgentsRepository, canvass repository.CanvassRepository, logger *zap.Logger) *ReportService {
	return &ReportService{agents: agents, canvass: canvass, logger: logger}
}

// AgentsStatsForPeriod summarizes all agents over the last `days` days
// (nil = all time), sorted by total descending. Contacts whose agent row
// is missing still get a row, keyed by the orphaned agent id.
func (s *ReportService) AgentsStatsForPeriod(ctx context.Context, days *int) ([]*AgentPeriodStats, error) {
	agents, err := s.agents.ListAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	stats := make(map[string]*AgentPeriodStats, len(agents))
	for _, a := range agents {
		username := ""
		if a.Username != "" {
			username = "@" + a.Username
		}
		stats[a.AgentID] = &AgentPeriodStats{
			AgentID:  a.AgentID,
			ChatID:   a.ChatID,
			Username: username,
			Name:     a.Name,
		}
	}

	rows, err := s.canvass.ListContactsForPeriod(ctx, days)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	for _, row := range rows {
		c := row.Contact
		st, ok := stats[c.AgentID]
		if !ok {
			st = &AgentPeriodStats{AgentID: c.AgentID}
			stats[c.AgentID] = st
		}
		tally(st, c)
	}

	out := make([]*AgentPeriodStats, 0, len(stats))
	for _, st := range stats {
		out = append(out, st)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out, nil
}

// MembersStatsForPeriod summarizes the given member chat ids over the last
// `days` days (nil = all time). The chat ids are resolved to agent ids in
// one batch; ids with no agent row yet are skipped.
func (s *ReportService) MembersStatsForPeriod(ctx context.Context, memberChatIDs []int64, days *int) ([]*AgentPeriodStats, error) {
	agentIDs, err := s.agents.ListAgentIDsByChatIDs(ctx, memberChatIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve member agents: %w", err)
	}
	if len(agentIDs) == 0 {
		return nil, nil
	}
	keep := make(map[string]bool, len(agentIDs))
	for _, id := range agentIDs {
		keep[id] = true
	}
	all, err := s.AgentsStatsForPeriod(ctx, days)
	if err != nil {
		return nil, err
	}
	out := make([]*AgentPeriodStats, 0, len(agentIDs))
	for _, st := range all {
		if keep[st.AgentID] {
			out = append(out, st)
		}
	}
	return out, nil
}

// AgentStatsLast24h is the personal shift summary.
func (s *ReportService) AgentStatsLast24h(ctx context.Context, agent *domain.Agent) (*AgentPeriodStats, error) {
	days := 1
	return s.AgentStatsForPeriod(ctx, agent, &days)
}

// AgentStatsForPeriod summarizes one agent over the last `days` days
// (nil = all time).
func (s *ReportService) AgentStatsForPeriod(ctx context.Context, agent *domain.Agent, days *int) (*AgentPeriodStats, error) {
	var since time.Time
	if days != nil {
		since = time.Now().UTC().Add(-time.Duration(*days) * 24 * time.Hour)
	}
	contacts, err := s.canvass.ListContactsForAgentSince(ctx, agent.AgentID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list agent contacts: %w", err)
	}

	username := ""
	if agent.Username != "" {
		username = "@" + agent.Username
	}
	st := &AgentPeriodStats{
		AgentID:  agent.AgentID,
		ChatID:   agent.ChatID,
		Username: username,
		Name:     agent.Name,
	}
	for _, c := range contacts {
		tally(st, c)
	}
	return st, nil
}

func tally(st *AgentPeriodStats, c *domain.Contact) {
	st.Total++
	if c.TalkStatus != nil {
		switch *c.TalkStatus {
		case domain.TalkConsent:
			st.Consent++
		case domain.TalkRefusal:
			st.Refusal++
		case domain.TalkNoOne:
			st.NoOne++
		}
	}
	if c.FlyerMethod != nil {
		switch *c.FlyerMethod {
		case domain.FlyerHand:
			st.Hand++
		case domain.FlyerMailbox:
			st.Mailbox++
		case domain.FlyerNone:
			st.None++
		}
	}
	if c.HomeVoting != nil && *c.HomeVoting {
		st.HomeYes++
	}
}
