package repository

import "context"

// BrigadeRepository holds the three auxiliary relation sets: the brigadier
// allow-list (with a per-brigadier login flag), the brigadier→member links,
// and the block-list. All keys are external chat ids and may reference
// identities that never produced an agent record.
type BrigadeRepository interface {
	AddBrigadier(ctx context.Context, brigChatID int64) error
	// RemoveBrigadier demotes: drops the allow-list entry, the login flag
	// and every member link for that brigadier.
	RemoveBrigadier(ctx context.Context, brigChatID int64) error
	IsBrigadierAllowed(ctx context.Context, chatID int64) (bool, error)
	ListBrigadierChatIDs(ctx context.Context) ([]int64, error)

	SetBrigLogin(ctx context.Context, brigChatID int64, loggedIn bool) error
	IsBrigLoggedIn(ctx context.Context, brigChatID int64) (bool, error)

	// SetBrigMember links a member to a brigadier, allow-listing the
	// brigadier first if needed. Idempotent.
	SetBrigMember(ctx context.Context, brigChatID, memberChatID int64) error
	RemoveBrigMember(ctx context.Context, brigChatID, memberChatID int64) error
	ListBrigMembers(ctx context.Context, brigChatID int64) ([]int64, error)

	BlockMember(ctx context.Context, memberChatID, blockedBy int64) error
	UnblockMember(ctx context.Context, memberChatID int64) error
	IsMemberBlocked(ctx context.Context, chatID int64) (bool, error)
}
