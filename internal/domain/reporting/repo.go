package reporting

import (
	"context"

	"github.com/google/uuid"
)

// ReportRepository is the persistence contract for medical reports.
// Delete is a hard delete; there is no retention policy.
type ReportRepository interface {
	Create(ctx context.Context, r *MedicalReport) error
	GetByID(ctx context.Context, id uuid.UUID) (*MedicalReport, error)
	Update(ctx context.Context, r *MedicalReport) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*MedicalReport, error)
	List(ctx context.Context, limit, offset int) ([]*MedicalReport, int, error)
}

// TemplateRepository is the persistence contract for report templates.
type TemplateRepository interface {
	Create(ctx context.Context, t *ReportTemplate) error
	GetByID(ctx context.Context, id uuid.UUID) (*ReportTemplate, error)
	Update(ctx context.Context, t *ReportTemplate) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*ReportTemplate, int, error)
}
