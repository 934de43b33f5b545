package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"canvass-data/internal/domain"

	"github.com/google/uuid"
)

// MemoryAgentsRepository supports unit tests and DB-less dev runs.
type MemoryAgentsRepository struct {
	mu     sync.RWMutex
	byChat map[int64]*domain.Agent
}

func NewMemoryAgentsRepository() *MemoryAgentsRepository {
	return &MemoryAgentsRepository{byChat: map[int64]*domain.Agent{}}
}

var _ AgentsRepository = (*MemoryAgentsRepository)(nil)

func (r *MemoryAgentsRepository) GetOrCreateAgent(_ context.Context, chatID int64, name, username string) (*domain.Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.byChat[chatID]; ok {
		if name != "" {
			a.Name = name
		}
		if username != "" {
			a.Username = username
		}
		cp := *a
		return &cp, nil
	}
	a := &domain.Agent{
		AgentID:   uuid.New().String(),
		ChatID:    chatID,
		Name:      name,
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}
	r.byChat[chatID] = a
	cp := *a
	return &cp, nil
}

func (r *MemoryAgentsRepository) GetAgentByChatID(_ context.Context, chatID int64) (*domain.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.byChat[chatID]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (r *MemoryAgentsRepository) GetAgentByUsername(_ context.Context, username string) (*domain.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, a := range r.byChat {
		if a.Username != "" && strings.EqualFold(a.Username, username) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryAgentsRepository) SetAdminLogin(_ context.Context, chatID int64, loggedIn bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.byChat[chatID]; ok {
		a.AdminLoggedIn = loggedIn
	}
	return nil
}

func (r *MemoryAgentsRepository) ListAgents(_ context.Context) ([]*domain.Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.Agent, 0, len(r.byChat))
	for _, a := range r.byChat {
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryAgentsRepository) ListAgentIDsByChatIDs(_ context.Context, chatIDs []int64) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for _, chatID := range chatIDs {
		if a, ok := r.byChat[chatID]; ok {
			ids = append(ids, a.AgentID)
		}
	}
	return ids, nil
}
