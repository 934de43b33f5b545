package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// PostgresBrigadeRepository brigade relation tables access.
type PostgresBrigadeRepository struct {
	db *sql.DB
}

func NewPostgresBrigadeRepository(db *sql.DB) *PostgresBrigadeRepository {
	return &PostgresBrigadeRepository{db: db}
}

var _ BrigadeRepository = (*PostgresBrigadeRepository)(nil)

func (r *PostgresBrigadeRepository) AddBrigadier(ctx context.Context, brigChatID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO brigadiers (brig_chat_id) VALUES ($1) ON CONFLICT DO NOTHING`,
		brigChatID)
	if err != nil {
		return fmt.Errorf("failed to add brigadier: %w", err)
	}
	return nil
}

func (r *PostgresBrigadeRepository) RemoveBrigadier(ctx context.Context, brigChatID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin demote: %w", err)
	}
	for _, q := range []string{
		`DELETE FROM brigadiers WHERE brig_chat_id = $1`,
		`DELETE FROM brig_sessions WHERE brig_chat_id = $1`,
		`DELETE FROM brig_members WHERE brig_chat_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, q, brigChatID); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to demote brigadier: %w", err)
		}
	}
	return tx.Commit()
}

func (r *PostgresBrigadeRepository) IsBrigadierAllowed(ctx context.Context, chatID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM brigadiers WHERE brig_chat_id = $1`, chatID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check brigadier: %w", err)
	}
	return true, nil
}

func (r *PostgresBrigadeRepository) ListBrigadierChatIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT brig_chat_id FROM brigadiers ORDER BY brig_chat_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list brigadiers: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresBrigadeRepository) SetBrigLogin(ctx context.Context, brigChatID int64, loggedIn bool) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO brig_sessions (brig_chat_id, logged_in) VALUES ($1, $2)
		 ON CONFLICT (brig_chat_id) DO UPDATE SET logged_in = EXCLUDED.logged_in`,
		brigChatID, loggedIn)
	if err != nil {
		return fmt.Errorf("failed to set brigadier login: %w", err)
	}
	return nil
}

func (r *PostgresBrigadeRepository) IsBrigLoggedIn(ctx context.Context, brigChatID int64) (bool, error) {
	var loggedIn bool
	err := r.db.QueryRowContext(ctx,
		`SELECT logged_in FROM brig_sessions WHERE brig_chat_id = $1`, brigChatID).Scan(&loggedIn)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check brigadier login: %w", err)
	}
	return loggedIn, nil
}

func (r *PostgresBrigadeRepository) SetBrigMember(ctx context.Context, brigChatID, memberChatID int64) error {
	if err := r.AddBrigadier(ctx, brigChatID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO brig_members (brig_chat_id, member_chat_id) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		brigChatID, memberChatID)
	if err != nil {
		return fmt.Errorf("failed to attach member: %w", err)
	}
	return nil
}

func (r *PostgresBrigadeRepository) RemoveBrigMember(ctx context.Context, brigChatID, memberChatID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM brig_members WHERE brig_chat_id = $1 AND member_chat_id = $2`,
		brigChatID, memberChatID)
	if err != nil {
		return fmt.Errorf("failed to detach member: %w", err)
	}
	return nil
}

func (r *PostgresBrigadeRepository) ListBrigMembers(ctx context.Context, brigChatID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT member_chat_id FROM brig_members WHERE brig_chat_id = $1 ORDER BY member_chat_id`,
		brigChatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PostgresBrigadeRepository) BlockMember(ctx context.Context, memberChatID, blockedBy int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO blocked_members (member_chat_id, blocked_by) VALUES ($1, $2)
		 ON CONFLICT (member_chat_id) DO UPDATE SET blocked_by = EXCLUDED.blocked_by`,
		memberChatID, blockedBy)
	if err != nil {
		return fmt.Errorf("failed to block member: %w", err)
	}
	return nil
}

func (r *PostgresBrigadeRepository) UnblockMember(ctx context.Context, memberChatID int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM blocked_members WHERE member_chat_id = $1`, memberChatID)
	if err != nil {
		return fmt.Errorf("failed to unblock member: %w", err)
	}
	return nil
}

func (r *PostgresBrigadeRepository) IsMemberBlocked(ctx context.Context, chatID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM blocked_members WHERE member_chat_id = $1`, chatID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check block: %w", err)
	}
	return true, nil
}
