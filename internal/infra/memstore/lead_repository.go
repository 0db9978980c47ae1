// Package memstore is an in-process Record Store for development and tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/xavierca1/ligue-crm/internal/entity"
)

type LeadRepository struct {
	mu    sync.RWMutex
	leads map[string]*entity.Lead
	seq   map[string]int64
	next  int64
	now   func() time.Time
}

func NewLeadRepository() *LeadRepository {
	return &LeadRepository{
		leads: make(map[string]*entity.Lead),
		seq:   make(map[string]int64),
		now:   time.Now,
	}
}

// WithClock pins the timestamps the store stamps on writes.
func (r *LeadRepository) WithClock(now func() time.Time) *LeadRepository {
	r.now = now
	return r
}

// Put stores l verbatim, timestamps included. Test fixtures only.
func (r *LeadRepository) Put(l entity.Lead) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	r.insertLocked(&l)
}

func (r *LeadRepository) insertLocked(l *entity.Lead) {
	r.next++
	r.leads[l.ID] = l
	r.seq[l.ID] = r.next
}

func (r *LeadRepository) FindByOwner(ctx context.Context, ownerID string) ([]*entity.Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*entity.Lead{}
	for _, l := range r.leads {
		if l.OwnerID == ownerID {
			cp := *l
			out = append(out, &cp)
		}
	}
	// Newest first; insertion order breaks ties.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return r.seq[out[i].ID] > r.seq[out[j].ID]
	})
	return out, nil
}

func (r *LeadRepository) build(d entity.LeadDraft, at time.Time) (*entity.Lead, error) {
	d.Normalize()
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &entity.Lead{
		ID:        uuid.New().String(),
		OwnerID:   d.OwnerID,
		Name:      d.Name,
		Email:     d.Email,
		Phone:     d.Phone,
		DealValue: d.DealValue,
		Stage:     d.Stage,
		Notes:     d.Notes,
		CreatedAt: at,
		UpdatedAt: at,
	}, nil
}

func (r *LeadRepository) Create(ctx context.Context, draft entity.LeadDraft) (*entity.Lead, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l, err := r.build(draft, r.now())
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.insertLocked(l)
	r.mu.Unlock()

	cp := *l
	return &cp, nil
}

// CreateMany validates every draft before inserting any of them.
func (r *LeadRepository) CreateMany(ctx context.Context, drafts []entity.LeadDraft) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	at := r.now()
	built := make([]*entity.Lead, 0, len(drafts))
	for _, d := range drafts {
		l, err := r.build(d, at)
		if err != nil {
			return 0, err
		}
		built = append(built, l)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range built {
		r.insertLocked(l)
	}
	return len(built), nil
}

func (r *LeadRepository) Update(ctx context.Context, ownerID, id string, patch entity.LeadPatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := patch.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok || l.OwnerID != ownerID {
		return entity.ErrLeadNotFound
	}
	next := *l
	patch.Apply(&next)
	next.UpdatedAt = r.now()
	if next.UpdatedAt.Before(next.CreatedAt) {
		next.UpdatedAt = next.CreatedAt
	}
	r.leads[id] = &next
	return nil
}

func (r *LeadRepository) Delete(ctx context.Context, ownerID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.leads[id]
	if !ok || l.OwnerID != ownerID {
		return entity.ErrLeadNotFound
	}
	delete(r.leads, id)
	delete(r.seq, id)
	return nil
}

func (r *LeadRepository) ListOwners(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	var owners []string
	for _, l := range r.leads {
		if _, ok := seen[l.OwnerID]; !ok {
			seen[l.OwnerID] = struct{}{}
			owners = append(owners, l.OwnerID)
		}
	}
	sort.Strings(owners)
	return owners, nil
}
