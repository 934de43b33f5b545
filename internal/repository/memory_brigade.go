package repository

import (
	"context"
	"sort"
	"sync"
)

type memberKey struct {
	brig   int64
	member int64
}

// MemoryBrigadeRepository supports unit tests of membership flows.
type MemoryBrigadeRepository struct {
	mu         sync.RWMutex
	brigadiers map[int64]bool
	logins     map[int64]bool
	members    map[memberKey]bool
	blocked    map[int64]int64 // member -> blocked_by
}

func NewMemoryBrigadeRepository() *MemoryBrigadeRepository {
	return &MemoryBrigadeRepository{
		brigadiers: map[int64]bool{},
		logins:     map[int64]bool{},
		members:    map[memberKey]bool{},
		blocked:    map[int64]int64{},
	}
}

var _ BrigadeRepository = (*MemoryBrigadeRepository)(nil)

func (r *MemoryBrigadeRepository) AddBrigadier(_ context.Context, brigChatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.brigadiers[brigChatID] = true
	return nil
}

func (r *MemoryBrigadeRepository) RemoveBrigadier(_ context.Context, brigChatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.brigadiers, brigChatID)
	delete(r.logins, brigChatID)
	for k := range r.members {
		if k.brig == brigChatID {
			delete(r.members, k)
		}
	}
	return nil
}

func (r *MemoryBrigadeRepository) IsBrigadierAllowed(_ context.Context, chatID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.brigadiers[chatID], nil
}

func (r *MemoryBrigadeRepository) ListBrigadierChatIDs(_ context.Context) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]int64, 0, len(r.brigadiers))
	for id := range r.brigadiers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *MemoryBrigadeRepository) SetBrigLogin(_ context.Context, brigChatID int64, loggedIn bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logins[brigChatID] = loggedIn
	return nil
}

func (r *MemoryBrigadeRepository) IsBrigLoggedIn(_ context.Context, brigChatID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.logins[brigChatID], nil
}

func (r *MemoryBrigadeRepository) SetBrigMember(_ context.Context, brigChatID, memberChatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.brigadiers[brigChatID] = true
	r.members[memberKey{brigChatID, memberChatID}] = true
	return nil
}

func (r *MemoryBrigadeRepository) RemoveBrigMember(_ context.Context, brigChatID, memberChatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, memberKey{brigChatID, memberChatID})
	return nil
}

func (r *MemoryBrigadeRepository) ListBrigMembers(_ context.Context, brigChatID int64) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []int64
	for k := range r.members {
		if k.brig == brigChatID {
			ids = append(ids, k.member)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *MemoryBrigadeRepository) BlockMember(_ context.Context, memberChatID, blockedBy int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocked[memberChatID] = blockedBy
	return nil
}

func (r *MemoryBrigadeRepository) UnblockMember(_ context.Context, memberChatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.blocked, memberChatID)
	return nil
}

func (r *MemoryBrigadeRepository) IsMemberBlocked(_ context.Context, chatID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.blocked[chatID]
	return ok, nil
}
