package domain

// BrigadierInfo is one allow-listed brigadier with display fields pulled
// from the agents table when that identity has interacted at least once.
type BrigadierInfo struct {
	BrigChatID int64
	Username   string // empty when the brigadier never messaged the bot
	Name       string
	Members    []int64 // member chat ids attached to this brigadier
}
