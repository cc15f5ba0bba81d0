package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// InvoiceRepository is the persistence contract for invoices.
type InvoiceRepository interface {
	Create(ctx context.Context, i *Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	Update(ctx context.Context, i *Invoice) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Invoice, int, error)
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Invoice, int, error)
	Summarize(ctx context.Context, from, to time.Time) (*RevenueSummary, error)
}
