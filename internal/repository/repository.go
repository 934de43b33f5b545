package repository

import (
	"errors"
	"time"

	"canvass-data/internal/domain"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateFlyerNumber is returned when the unique index on
	// contacts.flyer_number rejects a write. Callers turn this into a
	// retry prompt, never a fatal failure.
	ErrDuplicateFlyerNumber = errors.New("flyer number already used")
)

// ContactWithAgent is one export row: the contact joined (outer) with its
// owning agent. Agent is nil when the agent row is gone.
type ContactWithAgent struct {
	Contact *domain.Contact
	Agent   *domain.Agent
}

// ContactUpdate carries the fields an interview step may fill in.
// Nil pointers leave the column untouched.
type ContactUpdate struct {
	RepeatTouch  *domain.RepeatTouch
	TalkStatus   *domain.TalkStatus
	DoorPhoto    *bool
	MailboxPhoto *bool
	FlyerMethod  *domain.FlyerMethod
	FlyerNumber  *string
	HomeVoting   *bool
}

// sinceForDays converts the export period selector (nil = all time) into a
// lower bound on created_at.
func sinceForDays(days *int) *time.Time {
	if days == nil {
		return nil
	}
	t := time.Now().UTC().Add(-time.Duration(*days) * 24 * time.Hour)
	return &t
}

// isUniqueViolation reports a postgres unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
