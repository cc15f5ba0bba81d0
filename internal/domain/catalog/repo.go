package catalog

import "context"

// TestTypeRepository is the persistence contract for the test catalog.
// CreateSequential allocates the next 3-digit display ID atomically;
// CreateLegacy stores the caller-assigned opaque ID as-is.
type TestTypeRepository interface {
	CreateSequential(ctx context.Context, t *TestType) error
	CreateLegacy(ctx context.Context, t *TestType) error
	GetByID(ctx context.Context, id string) (*TestType, error)
	FindByIDPrefix(ctx context.Context, prefix string) (*TestType, error)
	Update(ctx context.Context, t *TestType) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]*TestType, int, error)
	MaxSequentialID(ctx context.Context) (int64, error)
}
