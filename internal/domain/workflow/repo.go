package workflow

import (
	"context"

	"github.com/google/uuid"
)

// TestRequestRepository is the persistence contract for test requests.
type TestRequestRepository interface {
	Create(ctx context.Context, r *TestRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*TestRequest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to RequestStatus) error
	List(ctx context.Context, limit, offset int) ([]*TestRequest, int, error)
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*TestRequest, int, error)
	CountByStatus(ctx context.Context) (map[RequestStatus]int, error)
}

// SampleRepository is the persistence contract for samples.
type SampleRepository interface {
	Create(ctx context.Context, s *Sample) error
	GetByID(ctx context.Context, id uuid.UUID) (*Sample, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status SampleStatus) error
	UpdateBarcode(ctx context.Context, id uuid.UUID, barcode string) error
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*Sample, error)
	List(ctx context.Context, limit, offset int) ([]*Sample, int, error)
}
