package workitems

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo for development and tests.
type MemoryRepo struct {
	mu    sync.RWMutex
	items map[string]WorkItem
}

// NewMemoryRepo constructs an empty in-memory repo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{items: make(map[string]WorkItem)}
}

// Create stores a new work item.
func (r *MemoryRepo) Create(ctx context.Context, item WorkItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[item.ID] = item
	return nil
}

// GetByID returns a work item scoped to its owner.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, id string) (WorkItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	item, ok := r.items[id]
	if !ok || item.UserID != userID {
		return WorkItem{}, ErrNotFound
	}
	return item, nil
}

// ListByUser returns the user's work items, newest first.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]WorkItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []WorkItem
	for _, item := range r.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Update applies a partial mutation to a work item.
func (r *MemoryRepo) Update(ctx context.Context, userID, id string, update Update) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.items[id]
	if !ok || item.UserID != userID {
		return ErrNotFound
	}
	applyUpdate(&item, update)
	item.UpdatedAt = time.Now().UTC()
	r.items[id] = item
	return nil
}

func applyUpdate(item *WorkItem, update Update) {
	if update.WorkloadID != nil {
		item.WorkloadID = *update.WorkloadID
	}
	if update.AnalysisStatus != nil {
		item.AnalysisStatus = *update.AnalysisStatus
	}
	if update.AnalysisProgress != nil {
		item.AnalysisProgress = *update.AnalysisProgress
	}
	if update.AnalysisError != nil {
		item.AnalysisError = *update.AnalysisError
	}
	if update.IaCStatus != nil {
		item.IaCStatus = *update.IaCStatus
	}
	if update.IaCProgress != nil {
		item.IaCProgress = *update.IaCProgress
	}
	if update.IaCError != nil {
		item.IaCError = *update.IaCError
	}
	if update.HasAnalysisResults != nil {
		item.HasAnalysisResults = *update.HasAnalysisResults
	}
	if update.HasIaCDocument != nil {
		item.HasIaCDocument = *update.HasIaCDocument
	}
	if update.IaCExtension != nil {
		item.IaCExtension = *update.IaCExtension
	}
	if update.TemplateType != nil {
		item.TemplateType = *update.TemplateType
	}
}

var _ Repo = (*MemoryRepo)(nil)
