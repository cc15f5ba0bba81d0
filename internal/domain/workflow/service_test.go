package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lims/lims/internal/domain/accounts"
	"github.com/lims/lims/pkg/laberr"
)

type mockRequestRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*TestRequest
}

func newMockRequestRepo() *mockRequestRepo {
	return &mockRequestRepo{requests: map[uuid.UUID]*TestRequest{}}
}

func (m *mockRequestRepo) Create(_ context.Context, r *TestRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.RequestedAt = time.Now()
	cp := *r
	m.requests[r.ID] = &cp
	return nil
}

func (m *mockRequestRepo) GetByID(_ context.Context, id uuid.UUID) (*TestRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, laberr.NotFound("test request", id.String())
	}
	cp := *r
	return &cp, nil
}

func (m *mockRequestRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to RequestStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return laberr.NotFound("test request", id.String())
	}
	if r.Status != from {
		return laberr.InvalidTransition("test request", string(r.Status), string(to))
	}
	r.Status = to
	return nil
}

func (m *mockRequestRepo) List(_ context.Context, limit, offset int) ([]*TestRequest, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*TestRequest
	for _, r := range m.requests {
		cp := *r
		items = append(items, &cp)
	}
	return items, len(items), nil
}

func (m *mockRequestRepo) ListByPatient(_ context.Context, patientID string, limit, offset int) ([]*TestRequest, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*TestRequest
	for _, r := range m.requests {
		if r.PatientID == patientID {
			cp := *r
			items = append(items, &cp)
		}
	}
	return items, len(items), nil
}

func (m *mockRequestRepo) CountByStatus(_ context.Context) (map[RequestStatus]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[RequestStatus]int{}
	for _, r := range m.requests {
		counts[r.Status]++
	}
	return counts, nil
}

type mockSampleRepo struct {
	mu      sync.Mutex
	samples map[uuid.UUID]*Sample
}

func newMockSampleRepo() *mockSampleRepo {
	return &mockSampleRepo{samples: map[uuid.UUID]*Sample{}}
}

func (m *mockSampleRepo) Create(_ context.Context, s *Sample) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.CollectedAt = time.Now()
	cp := *s
	m.samples[s.ID] = &cp
	return nil
}

func (m *mockSampleRepo) GetByID(_ context.Context, id uuid.UUID) (*Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.samples[id]
	if !ok {
		return nil, laberr.NotFound("sample", id.String())
	}
	cp := *s
	return &cp, nil
}

func (m *mockSampleRepo) UpdateStatus(_ context.Context, id uuid.UUID, status SampleStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.samples[id]
	if !ok {
		return laberr.NotFound("sample", id.String())
	}
	s.Status = status
	return nil
}

func (m *mockSampleRepo) UpdateBarcode(_ context.Context, id uuid.UUID, barcode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.samples[id]
	if !ok {
		return laberr.NotFound("sample", id.String())
	}
	s.Barcode = barcode
	return nil
}

func (m *mockSampleRepo) ListByRequest(_ context.Context, requestID uuid.UUID) ([]*Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*Sample
	for _, s := range m.samples {
		if s.TestRequestID == requestID {
			cp := *s
			items = append(items, &cp)
		}
	}
	return items, nil
}

func (m *mockSampleRepo) List(_ context.Context, limit, offset int) ([]*Sample, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*Sample
	for _, s := range m.samples {
		cp := *s
		items = append(items, &cp)
	}
	return items, len(items), nil
}

type stubDirectory struct {
	patients  map[string]bool
	testTypes map[string]bool
}

func (d *stubDirectory) PatientExists(_ context.Context, id string) (bool, error) {
	return d.patients[id], nil
}

func (d *stubDirectory) TestTypeExists(_ context.Context, id string) (bool, error) {
	return d.testTypes[id], nil
}

func technician() *accounts.User {
	return &accounts.User{
		ID:       uuid.New(),
		Username: "bench",
		Role:     accounts.RoleTechnician,
		Permissions: []accounts.Permission{
			accounts.PermViewTests, accounts.PermAddTest, accounts.PermEditTest,
			accounts.PermViewSamples, accounts.PermAddSample, accounts.PermEditSample,
		},
		IsActive: true,
	}
}

func newTestService() (*Service, *stubDirectory) {
	dir := &stubDirectory{
		patients:  map[string]bool{"00000001": true},
		testTypes: map[string]bool{"001": true, "002": true},
	}
	return NewService(newMockRequestRepo(), newMockSampleRepo(), dir, dir), dir
}

func TestRequestLifecycle(t *testing.T) {
	svc, _ := newTestService()
	actor := technician()
	ctx := context.Background()

	req, err := svc.CreateTestRequest(ctx, actor, "00000001", "001", "Dr. Adams")
	if err != nil {
		t.Fatalf("CreateTestRequest: %v", err)
	}
	if req.Status != RequestPending {
		t.Fatalf("new request status = %s, want pending", req.Status)
	}

	if _, err := svc.UpdateStatus(ctx, actor, req.ID, RequestInProgress); err != nil {
		t.Fatalf("pending -> in_progress: %v", err)
	}

	var it *laberr.InvalidTransitionError
	if _, err := svc.UpdateStatus(ctx, actor, req.ID, RequestPending); !errors.As(err, &it) {
		t.Fatalf("in_progress -> pending should fail, got %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, actor, req.ID, RequestCompleted); err != nil {
		t.Fatalf("in_progress -> completed: %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, actor, req.ID, RequestInProgress); !errors.As(err, &it) {
		t.Fatalf("completed is terminal, got %v", err)
	}
}

func TestCancelFromPendingAndInProgress(t *testing.T) {
	svc, _ := newTestService()
	actor := technician()
	ctx := context.Background()

	a, _ := svc.CreateTestRequest(ctx, actor, "00000001", "001", "Dr. Adams")
	if _, err := svc.UpdateStatus(ctx, actor, a.ID, RequestCancelled); err != nil {
		t.Fatalf("pending -> cancelled: %v", err)
	}

	b, _ := svc.CreateTestRequest(ctx, actor, "00000001", "002", "Dr. Adams")
	if _, err := svc.UpdateStatus(ctx, actor, b.ID, RequestInProgress); err != nil {
		t.Fatalf("pending -> in_progress: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, actor, b.ID, RequestCancelled); err != nil {
		t.Fatalf("in_progress -> cancelled: %v", err)
	}
	var it *laberr.InvalidTransitionError
	if _, err := svc.UpdateStatus(ctx, actor, b.ID, RequestPending); !errors.As(err, &it) {
		t.Fatalf("cancelled is terminal, got %v", err)
	}
}

func TestCreateTestRequestUnknownReferences(t *testing.T) {
	svc, _ := newTestService()
	actor := technician()
	ctx := context.Background()

	var rf *laberr.ReferenceNotFoundError
	if _, err := svc.CreateTestRequest(ctx, actor, "99999999", "001", "Dr. Adams"); !errors.As(err, &rf) {
		t.Fatalf("unknown patient: expected ReferenceNotFound, got %v", err)
	}
	if _, err := svc.CreateTestRequest(ctx, actor, "00000001", "777", "Dr. Adams"); !errors.As(err, &rf) {
		t.Fatalf("unknown test type: expected ReferenceNotFound, got %v", err)
	}

	items, _, err := svc.ListTestRequests(ctx, actor, "", 100, 0)
	if err != nil {
		t.Fatalf("ListTestRequests: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("failed creates must not persist, found %d requests", len(items))
	}
}

func TestBatchPartialSuccess(t *testing.T) {
	svc, _ := newTestService()
	actor := technician()
	ctx := context.Background()

	res, err := svc.CreateTestRequestBatch(ctx, actor, "00000001", []BatchItem{
		{TestTypeID: "001"},
		{TestTypeID: "777"},
		{TestTypeID: "002"},
	}, "Dr. Adams")
	if err != nil {
		t.Fatalf("CreateTestRequestBatch: %v", err)
	}
	if res.Succeeded != 2 {
		t.Fatalf("succeeded = %d, want 2", res.Succeeded)
	}
	if res.Items[1].Error == "" || res.Items[1].Request != nil {
		t.Fatalf("item 1 should carry an error, got %+v", res.Items[1])
	}
	if res.Items[0].Request == nil || res.Items[2].Request == nil {
		t.Fatal("successful items should carry the created request")
	}

	items, _, _ := svc.ListTestRequests(ctx, actor, "", 100, 0)
	if len(items) != 2 {
		t.Fatalf("earlier successes must persist, found %d requests", len(items))
	}
}

func TestSampleStatusIsUnconstrained(t *testing.T) {
	svc, _ := newTestService()
	actor := technician()
	ctx := context.Background()

	req, _ := svc.CreateTestRequest(ctx, actor, "00000001", "001", "Dr. Adams")
	smp, err := svc.CreateSample(ctx, actor, req.ID, "", "", "hemolyzed, redraw")
	if err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if smp.Status != SampleCollected {
		t.Fatalf("default sample status = %s, want collected", smp.Status)
	}
	if smp.Barcode == "" {
		t.Fatal("empty barcode should be generated")
	}

	// Any direction is allowed, including backwards.
	for _, status := range []SampleStatus{SampleCompleted, SampleCollected, SampleProcessing} {
		if _, err := svc.UpdateSampleStatus(ctx, actor, smp.ID, status); err != nil {
			t.Fatalf("set status %s: %v", status, err)
		}
	}
	if _, err := svc.UpdateSampleStatus(ctx, actor, smp.ID, "spilled"); err == nil {
		t.Fatal("unknown sample status should be rejected")
	}

	// Completing the sample did not complete the request.
	got, _ := svc.GetTestRequest(ctx, actor, req.ID)
	if got.Status != RequestPending {
		t.Fatalf("request status = %s, want pending", got.Status)
	}
}

func TestRegenerateBarcodeKeepsIdentity(t *testing.T) {
	svc, _ := newTestService()
	actor := technician()
	ctx := context.Background()

	req, _ := svc.CreateTestRequest(ctx, actor, "00000001", "001", "Dr. Adams")
	smp, _ := svc.CreateSample(ctx, actor, req.ID, "OLD-BARCODE", SampleCollected, "")

	fresh, err := svc.RegenerateBarcode(ctx, actor, smp.ID)
	if err != nil {
		t.Fatalf("RegenerateBarcode: %v", err)
	}
	if fresh.ID != smp.ID {
		t.Fatal("regeneration must not change the sample identity")
	}
	if fresh.Barcode == "OLD-BARCODE" {
		t.Fatal("barcode was not replaced")
	}
	if fresh.Status != smp.Status || !fresh.CollectedAt.Equal(smp.CollectedAt) {
		t.Fatal("regeneration must not alter status or collection time")
	}
}

func TestCreateSampleUnknownRequest(t *testing.T) {
	svc, _ := newTestService()
	actor := technician()

	var rf *laberr.ReferenceNotFoundError
	_, err := svc.CreateSample(context.Background(), actor, uuid.New(), "", SampleCollected, "")
	if !errors.As(err, &rf) {
		t.Fatalf("expected ReferenceNotFound, got %v", err)
	}
}

func TestGenerateBarcodeAlphabet(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		code, err := GenerateBarcode()
		if err != nil {
			t.Fatalf("GenerateBarcode: %v", err)
		}
		if len(code) != barcodeLength {
			t.Fatalf("barcode %q has length %d, want %d", code, len(code), barcodeLength)
		}
		for _, ch := range code {
			if !strings.ContainsRune(barcodeAlphabet, ch) {
				t.Fatalf("barcode %q contains %q outside the alphabet", code, ch)
			}
		}
		if seen[code] {
			t.Fatalf("barcode %q repeated within 50 draws", code)
		}
		seen[code] = true
	}
}

func TestWorkflowDenied(t *testing.T) {
	svc, _ := newTestService()
	viewer := &accounts.User{
		ID:          uuid.New(),
		Username:    "viewer",
		Role:        accounts.RoleReceptionist,
		Permissions: []accounts.Permission{accounts.PermViewTests},
		IsActive:    true,
	}
	if _, err := svc.CreateTestRequest(context.Background(), viewer, "00000001", "001", "x"); !laberr.IsDenied(err) {
		t.Fatalf("expected denial, got %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), viewer, uuid.New(), RequestInProgress); !laberr.IsDenied(err) {
		t.Fatalf("expected denial, got %v", err)
	}
}
