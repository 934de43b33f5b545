package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"canvass-data/internal/domain"

	"github.com/google/uuid"
)

// PostgresCanvassRepository visits + contacts table access.
type PostgresCanvassRepository struct {
	db *sql.DB
}

func NewPostgresCanvassRepository(db *sql.DB) *PostgresCanvassRepository {
	return &PostgresCanvassRepository{db: db}
}

var _ CanvassRepository = (*PostgresCanvassRepository)(nil)

func (r *PostgresCanvassRepository) CreateVisit(ctx context.Context, agentID, address string) (*domain.Visit, error) {
	v := &domain.Visit{
		VisitID: uuid.New().String(),
		AgentID: agentID,
		Address: address,
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO visits (visit_id, agent_id, address)
		 VALUES ($1, $2, NULLIF($3, ''))
		 RETURNING started_at`,
		v.VisitID, agentID, address,
	).Scan(&v.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create visit: %w", err)
	}
	return v, nil
}

func (r *PostgresCanvassRepository) CloseVisit(ctx context.Context, visitID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE visits SET closed_at = now() WHERE visit_id = $1 AND closed_at IS NULL`,
		visitID)
	if err != nil {
		return fmt.Errorf("failed to close visit: %w", err)
	}
	return nil
}

func (r *PostgresCanvassRepository) CreateContact(ctx context.Context, visitID, agentID, fullName, phoneE164 string) (*domain.Contact, error) {
	c := &domain.Contact{
		ContactID: uuid.New().String(),
		VisitID:   visitID,
		AgentID:   agentID,
		FullName:  fullName,
		PhoneE164: phoneE164,
		PhoneHash: domain.PhoneHash(phoneE164),
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO contacts (contact_id, visit_id, agent_id, full_name, phone_e164, phone_hash)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		c.ContactID, visitID, agentID, fullName, phoneE164, c.PhoneHash,
	).Scan(&c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}
	return c, nil
}

const contactColumns = `contact_id::text, visit_id::text, agent_id::text,
	full_name, phone_e164, phone_hash, repeat_touch, talk_status,
	door_photo, mailbox_photo, flyer_method, flyer_number, home_voting,
	created_at, closed_at`

func scanContact(row interface{ Scan(dest ...any) error }) (*domain.Contact, error) {
	var c domain.Contact
	var agentID, repeatTouch, talkStatus, flyerMethod, flyerNumber sql.NullString
	var homeVoting sql.NullBool
	var closedAt sql.NullTime
	err := row.Scan(
		&c.ContactID, &c.VisitID, &agentID,
		&c.FullName, &c.PhoneE164, &c.PhoneHash, &repeatTouch, &talkStatus,
		&c.DoorPhoto, &c.MailboxPhoto, &flyerMethod, &flyerNumber, &homeVoting,
		&c.CreatedAt, &closedAt,
	)
	if err != nil {
		return nil, err
	}
	c.AgentID = agentID.String
	if repeatTouch.Valid {
		v := domain.RepeatTouch(repeatTouch.String)
		c.RepeatTouch = &v
	}
	if talkStatus.Valid {
		v := domain.TalkStatus(talkStatus.String)
		c.TalkStatus = &v
	}
	if flyerMethod.Valid {
		v := domain.FlyerMethod(flyerMethod.String)
		c.FlyerMethod = &v
	}
	c.FlyerNumber = flyerNumber.String
	if homeVoting.Valid {
		v := homeVoting.Bool
		c.HomeVoting = &v
	}
	if closedAt.Valid {
		t := closedAt.Time
		c.ClosedAt = &t
	}
	return &c, nil
}

func (r *PostgresCanvassRepository) GetContact(ctx context.Context, contactID string) (*domain.Contact, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+contactColumns+` FROM contacts WHERE contact_id = $1`, contactID)
	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

func (r *PostgresCanvassRepository) UpdateContact(ctx context.Context, contactID string, upd ContactUpdate) error {
	sets := make([]string, 0, 7)
	args := []any{contactID}
	add := func(col string, val any) {
		args = append(args, val)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.RepeatTouch != nil {
		add("repeat_touch", string(*upd.RepeatTouch))
	}
	if upd.TalkStatus != nil {
		add("talk_status", string(*upd.TalkStatus))
	}
	if upd.DoorPhoto != nil {
		add("door_photo", *upd.DoorPhoto)
	}
	if upd.MailboxPhoto != nil {
		add("mailbox_photo", *upd.MailboxPhoto)
	}
	if upd.FlyerMethod != nil {
		add("flyer_method", string(*upd.FlyerMethod))
	}
	if upd.FlyerNumber != nil {
		add("flyer_number", *upd.FlyerNumber)
	}
	if upd.HomeVoting != nil {
		add("home_voting", *upd.HomeVoting)
	}
	if len(sets) == 0 {
		return nil
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE contacts SET `+strings.Join(sets, ", ")+` WHERE contact_id = $1`,
		args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateFlyerNumber
		}
		return fmt.Errorf("failed to update contact: %w", err)
	}
	return nil
}

func (r *PostgresCanvassRepository) CloseContact(ctx context.Context, contactID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE contacts SET closed_at = now() WHERE contact_id = $1 AND closed_at IS NULL`,
		contactID)
	if err != nil {
		return fmt.Errorf("failed to close contact: %w", err)
	}
	return nil
}

func (r *PostgresCanvassRepository) ListContactsForPeriod(ctx context.Context, days *int) ([]ContactWithAgent, error) {
	query := `SELECT
		c.contact_id::text, c.visit_id::text, c.agent_id::text,
		c.full_name, c.phone_e164, c.phone_hash, c.repeat_touch, c.talk_status,
		c.door_photo, c.mailbox_photo, c.flyer_method, c.flyer_number, c.home_voting,
		c.created_at, c.closed_at,
		a.agent_id::text, a.chat_id, a.name, a.username, a.phone, a.admin_logged_in, a.created_at
		FROM contacts c LEFT JOIN agents a ON a.agent_id = c.agent_id`
	args := []any{}
	if since := sinceForDays(days); since != nil {
		query += ` WHERE c.created_at >= $1`
		args = append(args, *since)
	}
	query += ` ORDER BY c.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	defer rows.Close()

	var out []ContactWithAgent
	for rows.Next() {
		var c domain.Contact
		var agentID, repeatTouch, talkStatus, flyerMethod, flyerNumber sql.NullString
		var homeVoting sql.NullBool
		var closedAt sql.NullTime

		var aID sql.NullString
		var aChatID sql.NullInt64
		var aName, aUsername, aPhone sql.NullString
		var aAdmin sql.NullBool
		var aCreated sql.NullTime

		err := rows.Scan(
			&c.ContactID, &c.VisitID, &agentID,
			&c.FullName, &c.PhoneE164, &c.PhoneHash, &repeatTouch, &talkStatus,
			&c.DoorPhoto, &c.MailboxPhoto, &flyerMethod, &flyerNumber, &homeVoting,
			&c.CreatedAt, &closedAt,
			&aID, &aChatID, &aName, &aUsername, &aPhone, &aAdmin, &aCreated,
		)
		if err != nil {
			return nil, err
		}

		c.AgentID = agentID.String
		if repeatTouch.Valid {
			v := domain.RepeatTouch(repeatTouch.String)
			c.RepeatTouch = &v
		}
		if talkStatus.Valid {
			v := domain.TalkStatus(talkStatus.String)
			c.TalkStatus = &v
		}
		if flyerMethod.Valid {
			v := domain.FlyerMethod(flyerMethod.String)
			c.FlyerMethod = &v
		}
		c.FlyerNumber = flyerNumber.String
		if homeVoting.Valid {
			v := homeVoting.Bool
			c.HomeVoting = &v
		}
		if closedAt.Valid {
			t := closedAt.Time
			c.ClosedAt = &t
		}

		row := ContactWithAgent{Contact: &c}
		if aID.Valid {
			row.Agent = &domain.Agent{
				AgentID:       aID.String,
				ChatID:        aChatID.Int64,
				Name:          aName.String,
				Username:      aUsername.String,
				Phone:         aPhone.String,
				AdminLoggedIn: aAdmin.Bool,
				CreatedAt:     aCreated.Time,
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *PostgresCanvassRepository) ListContactsForAgentSince(ctx context.Context, agentID string, since time.Time) ([]*domain.Contact, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+contactColumns+` FROM contacts
		 WHERE agent_id = $1 AND created_at >= $2
		 ORDER BY created_at DESC`,
		agentID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list agent contacts: %w", err)
	}
	defer rows.Close()

	var out []*domain.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresCanvassRepository) ListFlyerNumbers(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT flyer_number FROM contacts WHERE flyer_number IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("failed to list flyer numbers: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
