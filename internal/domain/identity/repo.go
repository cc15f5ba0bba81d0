package identity

import (
	"context"
	"time"
)

// PatientRepository is the persistence contract for patients. Create
// allocates the next sequential display ID atomically against the backing
// store; implementations must not hand out duplicates under concurrent
// callers.
type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id string) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	SearchByName(ctx context.Context, name string, limit, offset int) ([]*Patient, int, error)
	MaxPatientNumber(ctx context.Context) (int64, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
}
