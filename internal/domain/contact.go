package domain

import "time"

// RepeatTouch classifies whether the apartment was walked before.
type RepeatTouch string

const (
	RepeatPrimary   RepeatTouch = "PRIMARY"
	RepeatSecondary RepeatTouch = "SECONDARY"
)

// TalkStatus is the outcome of knocking on the door.
type TalkStatus string

const (
	TalkNoOne   TalkStatus = "NO_ONE"
	TalkRefusal TalkStatus = "REFUSAL"
	TalkConsent TalkStatus = "CONSENT"
)

// FlyerMethod is how the numbered flyer was handed over.
type FlyerMethod string

const (
	FlyerHand    FlyerMethod = "HAND"
	FlyerMailbox FlyerMethod = "MAILBOX"
	FlyerNone    FlyerMethod = "NONE"
)

// Contact is one persisted interview outcome for a single voter.
// agent_id is redundant with the owning visit but kept for reporting.
type Contact struct {
	ContactID string `db:"contact_id"` // UUID, PRIMARY KEY
	VisitID   string `db:"visit_id"`   // UUID, NOT NULL
	AgentID   string `db:"agent_id"`   // UUID, nullable after agent deletion

	FullName  string `db:"full_name"`
	PhoneE164 string `db:"phone_e164"`
	PhoneHash string `db:"phone_hash"` // sha256(phone_e164), privacy copy

	RepeatTouch *RepeatTouch `db:"repeat_touch"`
	TalkStatus  *TalkStatus  `db:"talk_status"`

	DoorPhoto    bool `db:"door_photo"`
	MailboxPhoto bool `db:"mailbox_photo"`

	FlyerMethod *FlyerMethod `db:"flyer_method"`
	// String-encoded integer; unique across all contacts when non-empty.
	FlyerNumber string `db:"flyer_number"`

	HomeVoting *bool `db:"home_voting"`

	CreatedAt time.Time  `db:"created_at"`
	ClosedAt  *time.Time `db:"closed_at"`
}

// Closed reports whether the interview reached a terminal outcome.
func (c *Contact) Closed() bool { return c.ClosedAt != nil }
