package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"canvass-data/internal/domain"
	"canvass-data/internal/repository"

	"go.uber.org/zap"
)

// ErrUnknownUsername means the handle never produced an agent record, i.e.
// that person has not messaged the service yet and cannot be resolved to a
// chat id.
var ErrUnknownUsername = errors.New("username has no agent record yet")

// CleanUsername normalizes a pasted handle: leading "@" dropped, lowercased,
// anything outside [a-z0-9_] rejected. Empty result means the input was not a
// usable handle.
func CleanUsername(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "@")
	s = strings.ToLower(s)
	if s == "" {
		return ""
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			return ""
		}
	}
	return s
}

// MembershipService manages the admin login check, the brigadier allow-list
// and the brigade member / block-list relations. All username-based
// operations resolve handles through the agents table and fail with
// ErrUnknownUsername for handles that never interacted.
type MembershipService struct {
	agents  repository.AgentsRepository
	brigade repository.BrigadeRepository
	logger  *zap.Logger

	adminLogin    string
	adminPassword string
}

func NewMembershipService(agents repository.AgentsRepository, brigade repository.BrigadeRepository, adminLogin, adminPassword string, logger *zap.Logger) *MembershipService {
	return &MembershipService{
		agents:        agents,
		brigade:       brigade,
		logger:        logger,
		adminLogin:    adminLogin,
		adminPassword: adminPassword,
	}
}

// CheckAdminCredentials compares both fields in constant time.
func (s *MembershipService) CheckAdminCredentials(login, password string) bool {
	loginOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(login)), []byte(s.adminLogin)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(password)), []byte(s.adminPassword)) == 1
	return loginOK && passOK
}

func (s *MembershipService) resolveChatID(ctx context.Context, rawUsername string) (int64, *domain.Agent, error) {
	username := CleanUsername(rawUsername)
	if username == "" {
		return 0, nil, ErrUnknownUsername
	}
	agent, err := s.agents.GetAgentByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, nil, ErrUnknownUsername
		}
		return 0, nil, fmt.Errorf("failed to resolve username %q: %w", username, err)
	}
	return agent.ChatID, agent, nil
}

// AddBrigadierByUsername allow-lists the brigadier behind the handle.
func (s *MembershipService) AddBrigadierByUsername(ctx context.Context, rawUsername string) (*domain.Agent, error) {
	chatID, agent, err := s.resolveChatID(ctx, rawUsername)
	if err != nil {
		return nil, err
	}
	if err := s.brigade.AddBrigadier(ctx, chatID); err != nil {
		return nil, fmt.Errorf("failed to add brigadier: %w", err)
	}
	s.logger.Info("brigadier allow-listed",
		zap.Int64("brig_chat_id", chatID),
		zap.String("username", agent.Username))
	return agent, nil
}

// DemoteBrigadier accepts either a handle or a bare numeric chat id and
// removes the allow-list entry together with the login flag and member links.
func (s *MembershipService) DemoteBrigadier(ctx context.Context, raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	chatID, numErr := strconv.ParseInt(raw, 10, 64)
	if numErr != nil {
		var err error
		chatID, _, err = s.resolveChatID(ctx, raw)
		if err != nil {
			return 0, err
		}
	}
	if err := s.brigade.RemoveBrigadier(ctx, chatID); err != nil {
		return 0, fmt.Errorf("failed to demote brigadier: %w", err)
	}
	s.logger.Info("brigadier demoted", zap.Int64("brig_chat_id", chatID))
	return chatID, nil
}

// AttachMember links a member handle under a brigadier handle. Both must
// already have agent records.
func (s *MembershipService) AttachMember(ctx context.Context, rawBrig, rawMember string) error {
	brigChatID, _, err := s.resolveChatID(ctx, rawBrig)
	if err != nil {
		return err
	}
	memberChatID, _, err := s.resolveChatID(ctx, rawMember)
	if err != nil {
		return err
	}
	if err := s.brigade.SetBrigMember(ctx, brigChatID, memberChatID); err != nil {
		return fmt.Errorf("failed to attach member: %w", err)
	}
	return nil
}

// AttachMemberTo links a member handle under an already-known brigadier.
func (s *MembershipService) AttachMemberTo(ctx context.Context, brigChatID int64, rawMember string) (*domain.Agent, error) {
	memberChatID, agent, err := s.resolveChatID(ctx, rawMember)
	if err != nil {
		return nil, err
	}
	if err := s.brigade.SetBrigMember(ctx, brigChatID, memberChatID); err != nil {
		return nil, fmt.Errorf("failed to attach member: %w", err)
	}
	return agent, nil
}

// DetachMemberFrom removes the member link; the agent record stays.
func (s *MembershipService) DetachMemberFrom(ctx context.Context, brigChatID int64, rawMember string) (*domain.Agent, error) {
	memberChatID, agent, err := s.resolveChatID(ctx, rawMember)
	if err != nil {
		return nil, err
	}
	if err := s.brigade.RemoveBrigMember(ctx, brigChatID, memberChatID); err != nil {
		return nil, fmt.Errorf("failed to detach member: %w", err)
	}
	return agent, nil
}

// BlockByUsername puts the member on the block-list. Blocked members cannot
// start surveys but their past contributions stay in reports.
func (s *MembershipService) BlockByUsername(ctx context.Context, blockedBy int64, rawMember string) (*domain.Agent, error) {
	memberChatID, agent, err := s.resolveChatID(ctx, rawMember)
	if err != nil {
		return nil, err
	}
	if err := s.brigade.BlockMember(ctx, memberChatID, blockedBy); err != nil {
		return nil, fmt.Errorf("failed to block member: %w", err)
	}
	s.logger.Info("member blocked",
		zap.Int64("member_chat_id", memberChatID),
		zap.Int64("blocked_by", blockedBy))
	return agent, nil
}

// UnblockByUsername removes the block-list entry.
func (s *MembershipService) UnblockByUsername(ctx context.Context, rawMember string) (*domain.Agent, error) {
	memberChatID, agent, err := s.resolveChatID(ctx, rawMember)
	if err != nil {
		return nil, err
	}
	if err := s.brigade.UnblockMember(ctx, memberChatID); err != nil {
		return nil, fmt.Errorf("failed to unblock member: %w", err)
	}
	return agent, nil
}

// IsBlocked gates /start and survey entry.
func (s *MembershipService) IsBlocked(ctx context.Context, chatID int64) (bool, error) {
	return s.brigade.IsMemberBlocked(ctx, chatID)
}

// IsBrigadier reports allow-list membership; login state is separate.
func (s *MembershipService) IsBrigadier(ctx context.Context, chatID int64) (bool, error) {
	return s.brigade.IsBrigadierAllowed(ctx, chatID)
}

func (s *MembershipService) IsBrigLoggedIn(ctx context.Context, chatID int64) (bool, error) {
	return s.brigade.IsBrigLoggedIn(ctx, chatID)
}

func (s *MembershipService) SetBrigLogin(ctx context.Context, chatID int64, loggedIn bool) error {
	return s.brigade.SetBrigLogin(ctx, chatID, loggedIn)
}

// ListBrigadiers joins the allow-list with agent display fields. Entries
// without an agent record yet come back with only the chat id filled in.
func (s *MembershipService) ListBrigadiers(ctx context.Context) ([]*domain.BrigadierInfo, error) {
	chatIDs, err := s.brigade.ListBrigadierChatIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list brigadiers: %w", err)
	}
	infos := make([]*domain.BrigadierInfo, 0, len(chatIDs))
	for _, chatID := range chatIDs {
		info := &domain.BrigadierInfo{BrigChatID: chatID}
		if agent, err := s.agents.GetAgentByChatID(ctx, chatID); err == nil {
			info.Username = agent.Username
			info.Name = agent.Name
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to load brigadier agent: %w", err)
		}
		members, err := s.brigade.ListBrigMembers(ctx, chatID)
		if err != nil {
			return nil, fmt.Errorf("failed to list brigade members: %w", err)
		}
		info.Members = members
		infos = append(infos, info)
	}
	return infos, nil
}

// MemberChatIDs lists a brigadier's attached member chat ids.
func (s *MembershipService) MemberChatIDs(ctx context.Context, brigChatID int64) ([]int64, error) {
	chatIDs, err := s.brigade.ListBrigMembers(ctx, brigChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list brigade members: %w", err)
	}
	return chatIDs, nil
}

// ListMembers returns a brigadier's member links joined with display fields.
func (s *MembershipService) ListMembers(ctx context.Context, brigChatID int64) ([]*domain.Agent, []int64, error) {
	memberChatIDs, err := s.brigade.ListBrigMembers(ctx, brigChatID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list brigade members: %w", err)
	}
	agents := make([]*domain.Agent, 0, len(memberChatIDs))
	var unknown []int64
	for _, chatID := range memberChatIDs {
		agent, err := s.agents.GetAgentByChatID(ctx, chatID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				unknown = append(unknown, chatID)
				continue
			}
			return nil, nil, fmt.Errorf("failed to load member agent: %w", err)
		}
		agents = append(agents, agent)
	}
	return agents, unknown, nil
}
