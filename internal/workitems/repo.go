package workitems

import "context"

// Repo persists work items.
type Repo interface {
	Create(ctx context.Context, item WorkItem) error
	GetByID(ctx context.Context, userID, id string) (WorkItem, error)
	ListByUser(ctx context.Context, userID string) ([]WorkItem, error)
	Update(ctx context.Context, userID, id string, update Update) error
}
