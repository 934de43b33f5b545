package repository

import (
	"context"

	"canvass-data/internal/domain"
)

// AgentsRepository maps external chat identities to agent records.
type AgentsRepository interface {
	// GetOrCreateAgent is an idempotent upsert keyed by chat id. Mutable
	// display fields (name, username) are refreshed when they changed;
	// empty arguments leave the stored values alone.
	GetOrCreateAgent(ctx context.Context, chatID int64, name, username string) (*domain.Agent, error)

	GetAgentByChatID(ctx context.Context, chatID int64) (*domain.Agent, error)

	// GetAgentByUsername resolves a handle case-insensitively. The handle
	// only resolves once that identity has produced an agent record, i.e.
	// has messaged the bot at least once. Returns ErrNotFound otherwise.
	GetAgentByUsername(ctx context.Context, username string) (*domain.Agent, error)

	SetAdminLogin(ctx context.Context, chatID int64, loggedIn bool) error

	ListAgents(ctx context.Context) ([]*domain.Agent, error)
	ListAgentIDsByChatIDs(ctx context.Context, chatIDs []int64) ([]string, error)
}
