package repository

import (
	"context"
	"time"

	"canvass-data/internal/domain"
)

// CanvassRepository holds visits and the interview records they contain.
type CanvassRepository interface {
	CreateVisit(ctx context.Context, agentID, address string) (*domain.Visit, error)
	// CloseVisit sets the close timestamp once; closing a closed visit is a no-op.
	CloseVisit(ctx context.Context, visitID string) error

	// CreateContact persists the interview record at the moment the voter's
	// phone is captured. The phone hash is derived here.
	CreateContact(ctx context.Context, visitID, agentID, fullName, phoneE164 string) (*domain.Contact, error)
	GetContact(ctx context.Context, contactID string) (*domain.Contact, error)
	// UpdateContact applies the non-nil fields. A flyer number colliding with
	// the unique index surfaces as ErrDuplicateFlyerNumber.
	UpdateContact(ctx context.Context, contactID string, upd ContactUpdate) error
	CloseContact(ctx context.Context, contactID string) error

	// ListContactsForPeriod returns (contact, agent) rows newest first,
	// limited to the last `days` days, or all time when days is nil.
	ListContactsForPeriod(ctx context.Context, days *int) ([]ContactWithAgent, error)
	ListContactsForAgentSince(ctx context.Context, agentID string, since time.Time) ([]*domain.Contact, error)

	// ListFlyerNumbers returns every non-null stored flyer number verbatim,
	// including legacy garbage; the allocator filters tolerantly.
	ListFlyerNumbers(ctx context.Context) ([]string, error)
}
