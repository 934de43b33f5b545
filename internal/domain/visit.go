package domain

import "time"

// Visit is one building walk owned by exactly one agent. A visit may
// contain several contacts, one per interviewed voter.
type Visit struct {
	VisitID string `db:"visit_id"` // UUID, PRIMARY KEY
	AgentID string `db:"agent_id"` // UUID, NOT NULL

	Address string `db:"address"` // optional

	StartedAt time.Time  `db:"started_at"`
	ClosedAt  *time.Time `db:"closed_at"` // nil while the walk is open
}
