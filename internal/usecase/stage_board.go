package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/queue"
)

// MoveResult reports what a stage move did to the local snapshot.
type MoveResult struct {
	Lead       *entity.Lead `json:"lead,omitempty"`
	Changed    bool         `json:"changed"`
	Reconciled bool         `json:"reconciled"`
}

// StageBoard holds one owner's lead snapshot and applies stage moves
// optimistically. Leads in the snapshot are never mutated in place; a move
// swaps in an updated copy.
type StageBoard struct {
	OwnerID string
	Repo    LeadRepository
	Events  EventPublisher
	Logger  *zap.Logger
	Now     Clock

	mu     sync.Mutex
	leads  []*entity.Lead
	loaded bool
}

func NewStageBoard(ownerID string, repo LeadRepository, events EventPublisher, logger *zap.Logger) *StageBoard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StageBoard{OwnerID: ownerID, Repo: repo, Events: events, Logger: logger}
}

// Refresh replaces the snapshot with the store's current list. If the fetch
// fails the snapshot is dropped so nothing stale is served afterwards.
func (b *StageBoard) Refresh(ctx context.Context) error {
	leads, err := b.Repo.FindByOwner(ctx, b.OwnerID)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.leads = nil
		b.loaded = false
		return storeErr("query", err)
	}
	b.leads = leads
	b.loaded = true
	return nil
}

func (b *StageBoard) ensureLoaded(ctx context.Context) error {
	b.mu.Lock()
	loaded := b.loaded
	b.mu.Unlock()
	if loaded {
		return nil
	}
	return b.Refresh(ctx)
}

// Leads returns a copy of the snapshot in fetch order.
func (b *StageBoard) Leads() []*entity.Lead {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*entity.Lead, len(b.leads))
	copy(out, b.leads)
	return out
}

// Columns groups the snapshot by stage in board order.
func (b *StageBoard) Columns() []BoardColumn {
	return GroupByStage(b.Leads())
}

// Load refreshes from the store and returns the columns.
func (b *StageBoard) Load(ctx context.Context) ([]BoardColumn, error) {
	if err := b.Refresh(ctx); err != nil {
		return nil, err
	}
	return b.Columns(), nil
}

func (b *StageBoard) find(id string) *entity.Lead {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, l := range b.leads {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// replace swaps the lead with the same id for l, if it is still present.
func (b *StageBoard) replace(l *entity.Lead) {
	b.mu.Lock()
	defer b.mu.Unlock()
	next := make([]*entity.Lead, len(b.leads))
	for i, cur := range b.leads {
		if cur.ID == l.ID {
			next[i] = l
		} else {
			next[i] = cur
		}
	}
	b.leads = next
}

// Move sets the lead's stage locally, then persists only the stage. When the
// store rejects the update the whole list is re-fetched instead of undoing
// the single change, and the store error is returned with Reconciled set.
func (b *StageBoard) Move(ctx context.Context, leadID string, stage entity.Stage) (MoveResult, error) {
	if !stage.Valid() {
		return MoveResult{}, &DomainError{Code: CodeInvalidStage, Message: "unknown stage: " + string(stage)}
	}
	if err := b.ensureLoaded(ctx); err != nil {
		return MoveResult{}, err
	}

	current := b.find(leadID)
	if current == nil {
		// Created elsewhere since the last fetch?
		if err := b.Refresh(ctx); err != nil {
			return MoveResult{}, err
		}
		if current = b.find(leadID); current == nil {
			return MoveResult{}, &DomainError{Code: CodeNotFound, Message: "lead not found"}
		}
	}
	if current.Stage == stage {
		return MoveResult{Lead: current}, nil
	}

	moved := *current
	moved.Stage = stage
	moved.UpdatedAt = b.Now.now()
	b.replace(&moved)

	if err := b.Repo.Update(ctx, b.OwnerID, leadID, entity.StagePatch(stage)); err != nil {
		b.Logger.Warn("stage move rejected by store, reconciling",
			zap.String("owner_id", b.OwnerID),
			zap.String("lead_id", leadID),
			zap.String("stage", stage.String()),
			zap.Error(err))
		if rerr := b.Refresh(ctx); rerr != nil {
			b.Logger.Error("reconciliation fetch failed",
				zap.String("owner_id", b.OwnerID), zap.Error(rerr))
		}
		return MoveResult{Reconciled: true}, storeErr("update", err)
	}

	if b.Events != nil {
		ev := queue.NewStageChangedEvent(b.OwnerID, leadID, moved.Name, stage.String(), moved.UpdatedAt)
		if err := b.Events.PublishLeadEvent(ctx, ev); err != nil {
			b.Logger.Warn("stage moved but event publish failed",
				zap.String("lead_id", leadID), zap.Error(err))
		}
	}

	return MoveResult{Lead: &moved, Changed: true}, nil
}

// GroupByStage buckets leads into one column per stage, keeping input order
// inside each column. Every stage gets a column even when empty.
func GroupByStage(leads []*entity.Lead) []BoardColumn {
	stages := entity.Stages()
	idx := make(map[entity.Stage]int, len(stages))
	cols := make([]BoardColumn, len(stages))
	for i, s := range stages {
		idx[s] = i
		cols[i] = BoardColumn{Stage: s, Leads: []*entity.Lead{}}
	}
	for _, l := range leads {
		i, ok := idx[l.Stage]
		if !ok {
			continue
		}
		cols[i].Leads = append(cols[i].Leads, l)
		cols[i].Count++
		cols[i].Value += l.DealValue
	}
	return cols
}

// BoardRegistry hands out one StageBoard per owner.
type BoardRegistry struct {
	Repo   LeadRepository
	Events EventPublisher
	Logger *zap.Logger
	Now    Clock

	mu     sync.Mutex
	boards map[string]*StageBoard
}

func NewBoardRegistry(repo LeadRepository, events EventPublisher, logger *zap.Logger) *BoardRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BoardRegistry{
		Repo:   repo,
		Events: events,
		Logger: logger,
		boards: make(map[string]*StageBoard),
	}
}

func (r *BoardRegistry) For(ownerID string) *StageBoard {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.boards[ownerID]
	if !ok {
		b = NewStageBoard(ownerID, r.Repo, r.Events, r.Logger)
		b.Now = r.Now
		r.boards[ownerID] = b
	}
	return b
}

// Invalidate marks the owner's snapshot stale after a mutation made outside
// the board (create, edit, delete, import).
func (r *BoardRegistry) Invalidate(ownerID string) {
	r.mu.Lock()
	b, ok := r.boards[ownerID]
	r.mu.Unlock()
	if !ok {
		return
	}
	b.mu.Lock()
	b.loaded = false
	b.mu.Unlock()
}
