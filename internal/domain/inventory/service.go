package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/lims/lims/internal/domain/accounts"
)

type Service struct {
	items ItemRepository
}

func NewService(items ItemRepository) *Service {
	return &Service{items: items}
}

func (s *Service) AddItem(ctx context.Context, actor *accounts.User, i *Item) error {
	if err := accounts.Authorize(actor, accounts.PermAddInventory); err != nil {
		return err
	}
	if err := i.Validate(); err != nil {
		return err
	}
	i.ID = uuid.New()
	return s.items.Create(ctx, i)
}

func (s *Service) GetItem(ctx context.Context, actor *accounts.User, id uuid.UUID) (*Item, error) {
	if err := accounts.Authorize(actor, accounts.PermViewInventory); err != nil {
		return nil, err
	}
	return s.items.GetByID(ctx, id)
}

func (s *Service) UpdateItem(ctx context.Context, actor *accounts.User, i *Item) error {
	if err := accounts.Authorize(actor, accounts.PermEditInventory); err != nil {
		return err
	}
	if err := i.Validate(); err != nil {
		return err
	}
	return s.items.Update(ctx, i)
}

func (s *Service) DeleteItem(ctx context.Context, actor *accounts.User, id uuid.UUID) error {
	if err := accounts.Authorize(actor, accounts.PermDeleteInventory); err != nil {
		return err
	}
	return s.items.Delete(ctx, id)
}

func (s *Service) ListItems(ctx context.Context, actor *accounts.User, limit, offset int) ([]*Item, int, error) {
	if err := accounts.Authorize(actor, accounts.PermViewInventory); err != nil {
		return nil, 0, err
	}
	return s.items.List(ctx, limit, offset)
}

// AdjustQuantity applies a signed delta: positive restocks, negative
// draws. Fails if the draw exceeds the stock on hand.
func (s *Service) AdjustQuantity(ctx context.Context, actor *accounts.User, id uuid.UUID, delta int) (*Item, error) {
	if err := accounts.Authorize(actor, accounts.PermEditInventory); err != nil {
		return nil, err
	}
	return s.items.AdjustQuantity(ctx, id, delta)
}

// ListLowStock returns items below their reorder threshold.
func (s *Service) ListLowStock(ctx context.Context, actor *accounts.User) ([]*Item, error) {
	if err := accounts.Authorize(actor, accounts.PermViewInventory); err != nil {
		return nil, err
	}
	return s.items.ListLowStock(ctx)
}
