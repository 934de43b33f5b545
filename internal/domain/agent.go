package domain

import "time"

// Agent is one canvasser, one row per distinct chat identity.
// Created on the first inbound event and never deleted.
type Agent struct {
	AgentID string `db:"agent_id"` // UUID, PRIMARY KEY

	// External chat identity (unique).
	ChatID int64 `db:"chat_id"`

	Name     string `db:"name"`     // display name, may change between events
	Username string `db:"username"` // chat handle without "@", may change
	Phone    string `db:"phone"`

	AdminLoggedIn bool `db:"admin_logged_in"`

	CreatedAt time.Time `db:"created_at"`
}
