package reporting

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lims/lims/internal/domain/accounts"
	"github.com/lims/lims/pkg/laberr"
)

// RequestDirectory answers lookups against the test request store.
// RequestRefs feeds template placeholder resolution.
type RequestDirectory interface {
	RequestExists(ctx context.Context, id uuid.UUID) (bool, error)
	RequestRefs(ctx context.Context, id uuid.UUID) (patientID, testTypeID string, err error)
}

// PatientDirectory resolves patient display IDs to names.
type PatientDirectory interface {
	PatientName(ctx context.Context, id string) (string, error)
}

// TestTypeDirectory resolves test type IDs to names.
type TestTypeDirectory interface {
	TestTypeName(ctx context.Context, id string) (string, error)
}

type Service struct {
	reports   ReportRepository
	templates TemplateRepository
	requests  RequestDirectory
	patients  PatientDirectory
	types     TestTypeDirectory
}

func NewService(reports ReportRepository, templates TemplateRepository, requests RequestDirectory, patients PatientDirectory, types TestTypeDirectory) *Service {
	return &Service{reports: reports, templates: templates, requests: requests, patients: patients, types: types}
}

// CreateReport enters results for a test request. In the primary flow
// the report is created already signed by the acting user; pass unsigned
// to leave it pending signature. The request may be in any status.
func (s *Service) CreateReport(ctx context.Context, actor *accounts.User, requestID uuid.UUID, content string, unsigned bool) (*MedicalReport, error) {
	if err := accounts.Authorize(actor, accounts.PermAddReport); err != nil {
		return nil, err
	}
	if content == "" {
		return nil, laberr.Validation("content", "is required")
	}
	ok, err := s.requests.RequestExists(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, laberr.ReferenceNotFound("test request", requestID.String())
	}
	rep := &MedicalReport{
		ID:            uuid.New(),
		TestRequestID: requestID,
		Content:       content,
		SignedBy:      UnsignedSentinel,
	}
	if !unsigned {
		now := time.Now()
		rep.SignedBy = actor.ID.String()
		rep.SignedAt = &now
	}
	if err := s.reports.Create(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// UpdateContent replaces the report body. First save signs: an unsigned
// report picks up the editing actor's signature. A signed report keeps
// its original signature even though the content changes.
func (s *Service) UpdateContent(ctx context.Context, actor *accounts.User, id uuid.UUID, content string) (*MedicalReport, error) {
	if err := accounts.Authorize(actor, accounts.PermEditReport); err != nil {
		return nil, err
	}
	if content == "" {
		return nil, laberr.Validation("content", "is required")
	}
	rep, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rep.Content = content
	if !rep.Signed() {
		now := time.Now()
		rep.SignedBy = actor.ID.String()
		rep.SignedAt = &now
	}
	if err := s.reports.Update(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// SignReport signs a pending report without touching its content.
func (s *Service) SignReport(ctx context.Context, actor *accounts.User, id uuid.UUID) (*MedicalReport, error) {
	if err := accounts.Authorize(actor, accounts.PermSignReport); err != nil {
		return nil, err
	}
	rep, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rep.Signed() {
		return rep, nil
	}
	now := time.Now()
	rep.SignedBy = actor.ID.String()
	rep.SignedAt = &now
	if err := s.reports.Update(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

func (s *Service) GetReport(ctx context.Context, actor *accounts.User, id uuid.UUID) (*MedicalReport, error) {
	if err := accounts.Authorize(actor, accounts.PermViewReports); err != nil {
		return nil, err
	}
	return s.reports.GetByID(ctx, id)
}

func (s *Service) ListReports(ctx context.Context, actor *accounts.User, limit, offset int) ([]*MedicalReport, int, error) {
	if err := accounts.Authorize(actor, accounts.PermViewReports); err != nil {
		return nil, 0, err
	}
	return s.reports.List(ctx, limit, offset)
}

func (s *Service) ListReportsForRequest(ctx context.Context, actor *accounts.User, requestID uuid.UUID) ([]*MedicalReport, error) {
	if err := accounts.Authorize(actor, accounts.PermViewReports); err != nil {
		return nil, err
	}
	return s.reports.ListByRequest(ctx, requestID)
}

// DeleteReport hard-deletes unconditionally, signed or not.
func (s *Service) DeleteReport(ctx context.Context, actor *accounts.User, id uuid.UUID) error {
	if err := accounts.Authorize(actor, accounts.PermDeleteReport); err != nil {
		return err
	}
	return s.reports.Delete(ctx, id)
}

func (s *Service) CreateTemplate(ctx context.Context, actor *accounts.User, t *ReportTemplate) error {
	if err := accounts.Authorize(actor, accounts.PermAddReport); err != nil {
		return err
	}
	if err := t.Validate(); err != nil {
		return err
	}
	t.ID = uuid.New()
	return s.templates.Create(ctx, t)
}

func (s *Service) GetTemplate(ctx context.Context, actor *accounts.User, id uuid.UUID) (*ReportTemplate, error) {
	if err := accounts.Authorize(actor, accounts.PermViewReports); err != nil {
		return nil, err
	}
	return s.templates.GetByID(ctx, id)
}

func (s *Service) UpdateTemplate(ctx context.Context, actor *accounts.User, t *ReportTemplate) error {
	if err := accounts.Authorize(actor, accounts.PermEditReport); err != nil {
		return err
	}
	if err := t.Validate(); err != nil {
		return err
	}
	return s.templates.Update(ctx, t)
}

func (s *Service) DeleteTemplate(ctx context.Context, actor *accounts.User, id uuid.UUID) error {
	if err := accounts.Authorize(actor, accounts.PermDeleteReport); err != nil {
		return err
	}
	return s.templates.Delete(ctx, id)
}

func (s *Service) ListTemplates(ctx context.Context, actor *accounts.User, limit, offset int) ([]*ReportTemplate, int, error) {
	if err := accounts.Authorize(actor, accounts.PermViewReports); err != nil {
		return nil, 0, err
	}
	return s.templates.List(ctx, limit, offset)
}

// ApplyTemplate creates an unsigned report for the request, prefilled
// from the template body with the request's patient and test details
// merged in. The author reviews and signs on first save.
//
// Recognized placeholders: {patient_id}, {patient_name}, {test_type_id}
// and {test_name}.
func (s *Service) ApplyTemplate(ctx context.Context, actor *accounts.User, templateID, requestID uuid.UUID) (*MedicalReport, error) {
	if err := accounts.Authorize(actor, accounts.PermAddReport); err != nil {
		return nil, err
	}
	tpl, err := s.templates.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	patientID, testTypeID, err := s.requests.RequestRefs(ctx, requestID)
	if err != nil {
		return nil, err
	}
	patientName, err := s.patients.PatientName(ctx, patientID)
	if err != nil {
		return nil, err
	}
	testName, err := s.types.TestTypeName(ctx, testTypeID)
	if err != nil {
		return nil, err
	}
	body := strings.NewReplacer(
		"{patient_id}", patientID,
		"{patient_name}", patientName,
		"{test_type_id}", testTypeID,
		"{test_name}", testName,
	).Replace(tpl.Body)
	return s.CreateReport(ctx, actor, requestID, body, true)
}
