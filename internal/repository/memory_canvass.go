package repository

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"canvass-data/internal/domain"

	"github.com/google/uuid"
)

// MemoryCanvassRepository supports unit tests of the interview flow.
// Emulates the DB's partial unique index on flyer numbers by numeric value.
type MemoryCanvassRepository struct {
	mu       sync.RWMutex
	visits   map[string]*domain.Visit
	contacts map[string]*domain.Contact
	agents   *MemoryAgentsRepository // optional, joins agent rows into exports
}

func NewMemoryCanvassRepository(agents *MemoryAgentsRepository) *MemoryCanvassRepository {
	return &MemoryCanvassRepository{
		visits:   map[string]*domain.Visit{},
		contacts: map[string]*domain.Contact{},
		agents:   agents,
	}
}

var _ CanvassRepository = (*MemoryCanvassRepository)(nil)

func (r *MemoryCanvassRepository) CreateVisit(_ context.Context, agentID, address string) (*domain.Visit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := &domain.Visit{
		VisitID:   uuid.New().String(),
		AgentID:   agentID,
		Address:   address,
		StartedAt: time.Now().UTC(),
	}
	r.visits[v.VisitID] = v
	cp := *v
	return &cp, nil
}

func (r *MemoryCanvassRepository) CloseVisit(_ context.Context, visitID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.visits[visitID]; ok && v.ClosedAt == nil {
		now := time.Now().UTC()
		v.ClosedAt = &now
	}
	return nil
}

// GetVisit is used by tests to assert on visit closure.
func (r *MemoryCanvassRepository) GetVisit(visitID string) *domain.Visit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if v, ok := r.visits[visitID]; ok {
		cp := *v
		return &cp
	}
	return nil
}

func (r *MemoryCanvassRepository) CreateContact(_ context.Context, visitID, agentID, fullName, phoneE164 string) (*domain.Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &domain.Contact{
		ContactID: uuid.New().String(),
		VisitID:   visitID,
		AgentID:   agentID,
		FullName:  fullName,
		PhoneE164: phoneE164,
		PhoneHash: domain.PhoneHash(phoneE164),
		CreatedAt: time.Now().UTC(),
	}
	r.contacts[c.ContactID] = c
	cp := *c
	return &cp, nil
}

func (r *MemoryCanvassRepository) GetContact(_ context.Context, contactID string) (*domain.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.contacts[contactID]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, ErrNotFound
}

func (r *MemoryCanvassRepository) UpdateContact(_ context.Context, contactID string, upd ContactUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contacts[contactID]
	if !ok {
		return ErrNotFound
	}
	if upd.FlyerNumber != nil && *upd.FlyerNumber != "" {
		for id, other := range r.contacts {
			if id != contactID && other.FlyerNumber == *upd.FlyerNumber {
				return ErrDuplicateFlyerNumber
			}
		}
	}
	if upd.RepeatTouch != nil {
		v := *upd.RepeatTouch
		c.RepeatTouch = &v
	}
	if upd.TalkStatus != nil {
		v := *upd.TalkStatus
		c.TalkStatus = &v
	}
	if upd.DoorPhoto != nil {
		c.DoorPhoto = *upd.DoorPhoto
	}
	if upd.MailboxPhoto != nil {
		c.MailboxPhoto = *upd.MailboxPhoto
	}
	if upd.FlyerMethod != nil {
		v := *upd.FlyerMethod
		c.FlyerMethod = &v
	}
	if upd.FlyerNumber != nil {
		c.FlyerNumber = *upd.FlyerNumber
	}
	if upd.HomeVoting != nil {
		v := *upd.HomeVoting
		c.HomeVoting = &v
	}
	return nil
}

func (r *MemoryCanvassRepository) CloseContact(_ context.Context, contactID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.contacts[contactID]; ok && c.ClosedAt == nil {
		now := time.Now().UTC()
		c.ClosedAt = &now
	}
	return nil
}

func (r *MemoryCanvassRepository) ListContactsForPeriod(_ context.Context, days *int) ([]ContactWithAgent, error) {
	since := sinceForDays(days)

	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []ContactWithAgent
	for _, c := range r.contacts {
		if since != nil && c.CreatedAt.Before(*since) {
			continue
		}
		cp := *c
		row := ContactWithAgent{Contact: &cp}
		if r.agents != nil {
			r.agents.mu.RLock()
			for _, a := range r.agents.byChat {
				if a.AgentID == c.AgentID {
					acp := *a
					row.Agent = &acp
					break
				}
			}
			r.agents.mu.RUnlock()
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Contact.CreatedAt.After(out[j].Contact.CreatedAt)
	})
	return out, nil
}

func (r *MemoryCanvassRepository) ListContactsForAgentSince(_ context.Context, agentID string, since time.Time) ([]*domain.Contact, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.Contact
	for _, c := range r.contacts {
		if c.AgentID != agentID || c.CreatedAt.Before(since) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryCanvassRepository) ListFlyerNumbers(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, c := range r.contacts {
		if strings.TrimSpace(c.FlyerNumber) != "" {
			out = append(out, c.FlyerNumber)
		}
	}
	return out, nil
}

// SeedFlyerNumber is a test helper: plants a contact carrying the given
// raw flyer value (possibly non-numeric legacy garbage).
func (r *MemoryCanvassRepository) SeedFlyerNumber(raw string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &domain.Contact{
		ContactID:   uuid.New().String(),
		VisitID:     uuid.New().String(),
		FullName:    "Тестовый Контакт " + strconv.Itoa(len(r.contacts)),
		PhoneE164:   "+79990000000",
		FlyerNumber: raw,
		CreatedAt:   time.Now().UTC(),
	}
	r.contacts[c.ContactID] = c
}
