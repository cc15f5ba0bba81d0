package reporting

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lims/lims/internal/domain/accounts"
	"github.com/lims/lims/pkg/laberr"
)

type mockReportRepo struct {
	mu      sync.Mutex
	reports map[uuid.UUID]*MedicalReport
}

func newMockReportRepo() *mockReportRepo {
	return &mockReportRepo{reports: map[uuid.UUID]*MedicalReport{}}
}

func (m *mockReportRepo) Create(_ context.Context, r *MedicalReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.CreatedAt = time.Now()
	cp := *r
	m.reports[r.ID] = &cp
	return nil
}

func (m *mockReportRepo) GetByID(_ context.Context, id uuid.UUID) (*MedicalReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return nil, laberr.NotFound("report", id.String())
	}
	cp := *r
	return &cp, nil
}

func (m *mockReportRepo) Update(_ context.Context, r *MedicalReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[r.ID]; !ok {
		return laberr.NotFound("report", r.ID.String())
	}
	cp := *r
	m.reports[r.ID] = &cp
	return nil
}

func (m *mockReportRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[id]; !ok {
		return laberr.NotFound("report", id.String())
	}
	delete(m.reports, id)
	return nil
}

func (m *mockReportRepo) ListByRequest(_ context.Context, requestID uuid.UUID) ([]*MedicalReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*MedicalReport
	for _, r := range m.reports {
		if r.TestRequestID == requestID {
			cp := *r
			items = append(items, &cp)
		}
	}
	return items, nil
}

func (m *mockReportRepo) List(_ context.Context, limit, offset int) ([]*MedicalReport, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*MedicalReport
	for _, r := range m.reports {
		cp := *r
		items = append(items, &cp)
	}
	return items, len(items), nil
}

type mockTemplateRepo struct {
	mu        sync.Mutex
	templates map[uuid.UUID]*ReportTemplate
}

func newMockTemplateRepo() *mockTemplateRepo {
	return &mockTemplateRepo{templates: map[uuid.UUID]*ReportTemplate{}}
}

func (m *mockTemplateRepo) Create(_ context.Context, t *ReportTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.CreatedAt = time.Now()
	cp := *t
	m.templates[t.ID] = &cp
	return nil
}

func (m *mockTemplateRepo) GetByID(_ context.Context, id uuid.UUID) (*ReportTemplate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return nil, laberr.NotFound("template", id.String())
	}
	cp := *t
	return &cp, nil
}

func (m *mockTemplateRepo) Update(_ context.Context, t *ReportTemplate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[t.ID]; !ok {
		return laberr.NotFound("template", t.ID.String())
	}
	cp := *t
	m.templates[t.ID] = &cp
	return nil
}

func (m *mockTemplateRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.templates[id]; !ok {
		return laberr.NotFound("template", id.String())
	}
	delete(m.templates, id)
	return nil
}

func (m *mockTemplateRepo) List(_ context.Context, limit, offset int) ([]*ReportTemplate, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*ReportTemplate
	for _, t := range m.templates {
		cp := *t
		items = append(items, &cp)
	}
	return items, len(items), nil
}

type stubRequests struct {
	known      map[uuid.UUID]bool
	patientID  string
	testTypeID string
}

func (s *stubRequests) RequestExists(_ context.Context, id uuid.UUID) (bool, error) {
	return s.known[id], nil
}

func (s *stubRequests) RequestRefs(_ context.Context, id uuid.UUID) (string, string, error) {
	if !s.known[id] {
		return "", "", laberr.NotFound("test request", id.String())
	}
	return s.patientID, s.testTypeID, nil
}

type stubPatients struct {
	names map[string]string
}

func (s *stubPatients) PatientName(_ context.Context, id string) (string, error) {
	name, ok := s.names[id]
	if !ok {
		return "", laberr.NotFound("patient", id)
	}
	return name, nil
}

type stubTestTypes struct {
	names map[string]string
}

func (s *stubTestTypes) TestTypeName(_ context.Context, id string) (string, error) {
	name, ok := s.names[id]
	if !ok {
		return "", laberr.NotFound("test type", id)
	}
	return name, nil
}

func doctor() *accounts.User {
	return &accounts.User{
		ID:       uuid.New(),
		Username: "drlee",
		Role:     accounts.RoleDoctor,
		Permissions: []accounts.Permission{
			accounts.PermViewReports, accounts.PermAddReport,
			accounts.PermEditReport, accounts.PermDeleteReport,
			accounts.PermSignReport,
		},
		IsActive: true,
	}
}

func newReportingService(requestID uuid.UUID) *Service {
	return NewService(newMockReportRepo(), newMockTemplateRepo(),
		&stubRequests{
			known:      map[uuid.UUID]bool{requestID: true},
			patientID:  "00000042",
			testTypeID: "007",
		},
		&stubPatients{names: map[string]string{"00000042": "Maria Santos"}},
		&stubTestTypes{names: map[string]string{"007": "Complete Blood Count"}})
}

func TestCreateReportSignedByDefault(t *testing.T) {
	requestID := uuid.New()
	svc := newReportingService(requestID)
	actor := doctor()

	rep, err := svc.CreateReport(context.Background(), actor, requestID, "WBC 6.2", false)
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	if !rep.Signed() {
		t.Fatal("primary flow creates the report pre-signed")
	}
	if rep.SignedBy != actor.ID.String() || rep.SignedAt == nil {
		t.Fatalf("signature fields = %q / %v", rep.SignedBy, rep.SignedAt)
	}
}

func TestUnsignedThenFirstSaveSigns(t *testing.T) {
	requestID := uuid.New()
	svc := newReportingService(requestID)
	actor := doctor()
	ctx := context.Background()

	rep, err := svc.CreateReport(ctx, actor, requestID, "pending review", true)
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
	if rep.Signed() || rep.SignedBy != UnsignedSentinel || rep.SignedAt != nil {
		t.Fatalf("unsigned report has signature fields: %q / %v", rep.SignedBy, rep.SignedAt)
	}

	got, err := svc.UpdateContent(ctx, actor, rep.ID, "WBC 6.2, RBC 4.8")
	if err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}
	if got.SignedBy == UnsignedSentinel || got.SignedAt == nil {
		t.Fatal("first save must sign the report")
	}
	if got.SignedBy != actor.ID.String() {
		t.Fatalf("signed_by = %q, want editing actor", got.SignedBy)
	}
}

func TestEditAfterSigningKeepsSignature(t *testing.T) {
	requestID := uuid.New()
	svc := newReportingService(requestID)
	author := doctor()
	editor := doctor()
	ctx := context.Background()

	rep, _ := svc.CreateReport(ctx, author, requestID, "original", false)
	firstSignedBy, firstSignedAt := rep.SignedBy, rep.SignedAt

	got, err := svc.UpdateContent(ctx, editor, rep.ID, "amended")
	if err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}
	if got.Content != "amended" {
		t.Fatalf("content = %q", got.Content)
	}
	if got.SignedBy != firstSignedBy || !got.SignedAt.Equal(*firstSignedAt) {
		t.Fatal("editing a signed report must not touch the signature")
	}
}

func TestSignReportIdempotent(t *testing.T) {
	requestID := uuid.New()
	svc := newReportingService(requestID)
	actor := doctor()
	ctx := context.Background()

	rep, _ := svc.CreateReport(ctx, actor, requestID, "pending", true)
	signed, err := svc.SignReport(ctx, actor, rep.ID)
	if err != nil {
		t.Fatalf("SignReport: %v", err)
	}
	if !signed.Signed() {
		t.Fatal("report not signed")
	}
	again, err := svc.SignReport(ctx, doctor(), rep.ID)
	if err != nil {
		t.Fatalf("SignReport (second): %v", err)
	}
	if again.SignedBy != signed.SignedBy {
		t.Fatal("re-signing must not replace the signature")
	}
}

func TestCreateReportUnknownRequest(t *testing.T) {
	svc := newReportingService(uuid.New())
	_, err := svc.CreateReport(context.Background(), doctor(), uuid.New(), "x", false)
	var rf *laberr.ReferenceNotFoundError
	if !errors.As(err, &rf) {
		t.Fatalf("expected ReferenceNotFound, got %v", err)
	}
}

func TestDeleteReportIsHard(t *testing.T) {
	requestID := uuid.New()
	svc := newReportingService(requestID)
	actor := doctor()
	ctx := context.Background()

	rep, _ := svc.CreateReport(ctx, actor, requestID, "to be removed", false)
	if err := svc.DeleteReport(ctx, actor, rep.ID); err != nil {
		t.Fatalf("DeleteReport: %v", err)
	}
	if _, err := svc.GetReport(ctx, actor, rep.ID); !laberr.IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestApplyTemplateCreatesUnsignedReport(t *testing.T) {
	requestID := uuid.New()
	svc := newReportingService(requestID)
	actor := doctor()
	ctx := context.Background()

	tpl := &ReportTemplate{Name: "CBC Normal", Body: "All values within reference range."}
	if err := svc.CreateTemplate(ctx, actor, tpl); err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	rep, err := svc.ApplyTemplate(ctx, actor, tpl.ID, requestID)
	if err != nil {
		t.Fatalf("ApplyTemplate: %v", err)
	}
	if rep.Content != tpl.Body {
		t.Fatalf("content = %q, want template body", rep.Content)
	}
	if rep.Signed() {
		t.Fatal("template-created reports start unsigned")
	}
}

func TestApplyTemplateMergesRequestDetails(t *testing.T) {
	requestID := uuid.New()
	svc := newReportingService(requestID)
	actor := doctor()
	ctx := context.Background()

	tpl := &ReportTemplate{
		Name: "Header",
		Body: "Patient: {patient_name} ({patient_id})\nTest: {test_name} [{test_type_id}]\nFindings:",
	}
	if err := svc.CreateTemplate(ctx, actor, tpl); err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	rep, err := svc.ApplyTemplate(ctx, actor, tpl.ID, requestID)
	if err != nil {
		t.Fatalf("ApplyTemplate: %v", err)
	}
	want := "Patient: Maria Santos (00000042)\nTest: Complete Blood Count [007]\nFindings:"
	if rep.Content != want {
		t.Fatalf("content = %q, want %q", rep.Content, want)
	}
}
