package inventory

import (
	"context"

	"github.com/google/uuid"
)

// ItemRepository is the persistence contract for inventory items.
// AdjustQuantity applies a signed delta atomically and fails if the
// result would go negative.
type ItemRepository interface {
	Create(ctx context.Context, i *Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	Update(ctx context.Context, i *Item) error
	Delete(ctx context.Context, id uuid.UUID) error
	AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (*Item, error)
	List(ctx context.Context, limit, offset int) ([]*Item, int, error)
	ListLowStock(ctx context.Context) ([]*Item, error)
}
