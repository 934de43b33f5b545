package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"canvass-data/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresAgentsRepository agents table access.
type PostgresAgentsRepository struct {
	db *sql.DB
}

func NewPostgresAgentsRepository(db *sql.DB) *PostgresAgentsRepository {
	return &PostgresAgentsRepository{db: db}
}

var _ AgentsRepository = (*PostgresAgentsRepository)(nil)

const agentColumns = `agent_id::text, chat_id, name, username, phone, admin_logged_in, created_at`

func scanAgent(row interface{ Scan(dest ...any) error }) (*domain.Agent, error) {
	var a domain.Agent
	var name, username, phone sql.NullString
	if err := row.Scan(&a.AgentID, &a.ChatID, &name, &username, &phone, &a.AdminLoggedIn, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.Name = name.String
	a.Username = username.String
	a.Phone = phone.String
	return &a, nil
}

func (r *PostgresAgentsRepository) GetOrCreateAgent(ctx context.Context, chatID int64, name, username string) (*domain.Agent, error) {
	agent, err := r.GetAgentByChatID(ctx, chatID)
	if err == nil {
		return r.refreshDisplayFields(ctx, agent, name, username)
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	created := &domain.Agent{
		AgentID:  uuid.New().String(),
		ChatID:   chatID,
		Name:     name,
		Username: username,
	}
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO agents (agent_id, chat_id, name, username)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''))
		 RETURNING created_at`,
		created.AgentID, chatID, name, username,
	).Scan(&created.CreatedAt)
	if err == nil {
		return created, nil
	}
	if !isUniqueViolation(err) {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	// Lost the creation race; the other writer's row wins.
	agent, err = r.GetAgentByChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to re-query agent after race: %w", err)
	}
	return r.refreshDisplayFields(ctx, agent, name, username)
}

func (r *PostgresAgentsRepository) refreshDisplayFields(ctx context.Context, agent *domain.Agent, name, username string) (*domain.Agent, error) {
	changed := false
	if name != "" && agent.Name != name {
		agent.Name = name
		changed = true
	}
	if username != "" && agent.Username != username {
		agent.Username = username
		changed = true
	}
	if !changed {
		return agent, nil
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE agents SET name = NULLIF($2, ''), username = NULLIF($3, '') WHERE agent_id = $1`,
		agent.AgentID, agent.Name, agent.Username,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update agent display fields: %w", err)
	}
	return agent, nil
}

func (r *PostgresAgentsRepository) GetAgentByChatID(ctx context.Context, chatID int64) (*domain.Agent, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE chat_id = $1`, chatID)
	agent, err := scanAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return agent, err
}

func (r *PostgresAgentsRepository) GetAgentByUsername(ctx context.Context, username string) (*domain.Agent, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+agentColumns+` FROM agents WHERE lower(username) = lower($1)`, username)
	agent, err := scanAgent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return agent, err
}

func (r *PostgresAgentsRepository) SetAdminLogin(ctx context.Context, chatID int64, loggedIn bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE agents SET admin_logged_in = $2 WHERE chat_id = $1`, chatID, loggedIn)
	if err != nil {
		return fmt.Errorf("failed to set admin login: %w", err)
	}
	return nil
}

func (r *PostgresAgentsRepository) ListAgents(ctx context.Context) ([]*domain.Agent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+agentColumns+` FROM agents ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	var agents []*domain.Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

func (r *PostgresAgentsRepository) ListAgentIDsByChatIDs(ctx context.Context, chatIDs []int64) ([]string, error) {
	if len(chatIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT agent_id::text FROM agents WHERE chat_id = ANY($1)`, pq.Array(chatIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve agent ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
