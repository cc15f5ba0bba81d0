package workflow

import (
	"context"

	"github.com/google/uuid"

	"github.com/lims/lims/internal/domain/accounts"
	"github.com/lims/lims/pkg/laberr"
)

// PatientDirectory answers existence checks against the patient registry.
type PatientDirectory interface {
	PatientExists(ctx context.Context, id string) (bool, error)
}

// TestTypeDirectory answers existence checks against the test catalog.
type TestTypeDirectory interface {
	TestTypeExists(ctx context.Context, id string) (bool, error)
}

type Service struct {
	requests TestRequestRepository
	samples  SampleRepository
	patients PatientDirectory
	types    TestTypeDirectory
}

func NewService(requests TestRequestRepository, samples SampleRepository, patients PatientDirectory, types TestTypeDirectory) *Service {
	return &Service{requests: requests, samples: samples, patients: patients, types: types}
}

// CreateTestRequest orders one test. Both references must resolve at
// creation time; nothing re-checks them later if the referent goes away.
func (s *Service) CreateTestRequest(ctx context.Context, actor *accounts.User, patientID, testTypeID, requestedBy string) (*TestRequest, error) {
	if err := accounts.Authorize(actor, accounts.PermAddTest); err != nil {
		return nil, err
	}
	ok, err := s.patients.PatientExists(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, laberr.ReferenceNotFound("patient", patientID)
	}
	ok, err = s.types.TestTypeExists(ctx, testTypeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, laberr.ReferenceNotFound("test type", testTypeID)
	}
	req := &TestRequest{
		ID:          uuid.New(),
		PatientID:   patientID,
		TestTypeID:  testTypeID,
		RequestedBy: requestedBy,
		Status:      RequestPending,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// BatchItem is one entry of a batch order.
type BatchItem struct {
	TestTypeID string `json:"test_type_id"`
}

// BatchItemResult is the outcome for one entry of a batch order.
type BatchItemResult struct {
	TestTypeID string       `json:"test_type_id"`
	Request    *TestRequest `json:"request,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// BatchResult is the overall outcome of a batch order.
type BatchResult struct {
	Items     []BatchItemResult `json:"items"`
	Succeeded int               `json:"succeeded"`
}

// CreateTestRequestBatch orders several tests for one patient in a single
// call. Each item succeeds or fails on its own; earlier successes are not
// rolled back when a later item fails.
func (s *Service) CreateTestRequestBatch(ctx context.Context, actor *accounts.User, patientID string, items []BatchItem, requestedBy string) (*BatchResult, error) {
	if err := accounts.Authorize(actor, accounts.PermAddTest); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, laberr.Validation("items", "at least one test is required")
	}
	res := &BatchResult{Items: make([]BatchItemResult, 0, len(items))}
	for _, item := range items {
		req, err := s.CreateTestRequest(ctx, actor, patientID, item.TestTypeID, requestedBy)
		r := BatchItemResult{TestTypeID: item.TestTypeID}
		if err != nil {
			r.Error = err.Error()
		} else {
			r.Request = req
			res.Succeeded++
		}
		res.Items = append(res.Items, r)
	}
	return res, nil
}

func (s *Service) GetTestRequest(ctx context.Context, actor *accounts.User, id uuid.UUID) (*TestRequest, error) {
	if err := accounts.Authorize(actor, accounts.PermViewTests); err != nil {
		return nil, err
	}
	return s.requests.GetByID(ctx, id)
}

func (s *Service) ListTestRequests(ctx context.Context, actor *accounts.User, patientID string, limit, offset int) ([]*TestRequest, int, error) {
	if err := accounts.Authorize(actor, accounts.PermViewTests); err != nil {
		return nil, 0, err
	}
	if patientID != "" {
		return s.requests.ListByPatient(ctx, patientID, limit, offset)
	}
	return s.requests.List(ctx, limit, offset)
}

// UpdateStatus moves a test request along its state machine. The
// repository applies the change conditionally on the current status, so
// racing transitions cannot both take effect.
func (s *Service) UpdateStatus(ctx context.Context, actor *accounts.User, id uuid.UUID, to RequestStatus) (*TestRequest, error) {
	if err := accounts.Authorize(actor, accounts.PermEditTest); err != nil {
		return nil, err
	}
	cur, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(cur.Status, to); err != nil {
		return nil, err
	}
	if err := s.requests.UpdateStatus(ctx, id, cur.Status, to); err != nil {
		return nil, err
	}
	cur.Status = to
	return cur, nil
}

// CreateSample records collection for a test request. The request may be
// in any status; sample and request lifecycles are intentionally
// decoupled. An empty barcode is filled with a generated token.
func (s *Service) CreateSample(ctx context.Context, actor *accounts.User, requestID uuid.UUID, barcode string, status SampleStatus, notes string) (*Sample, error) {
	if err := accounts.Authorize(actor, accounts.PermAddSample); err != nil {
		return nil, err
	}
	if _, err := s.requests.GetByID(ctx, requestID); err != nil {
		if laberr.IsNotFound(err) {
			return nil, laberr.ReferenceNotFound("test request", requestID.String())
		}
		return nil, err
	}
	if status == "" {
		status = SampleCollected
	}
	if !ValidSampleStatus(status) {
		return nil, laberr.Validation("status", "unknown sample status "+string(status))
	}
	if barcode == "" {
		var err error
		barcode, err = GenerateBarcode()
		if err != nil {
			return nil, err
		}
	}
	smp := &Sample{
		ID:            uuid.New(),
		TestRequestID: requestID,
		Barcode:       barcode,
		Status:        status,
		Notes:         notes,
	}
	if err := s.samples.Create(ctx, smp); err != nil {
		return nil, err
	}
	return smp, nil
}

func (s *Service) GetSample(ctx context.Context, actor *accounts.User, id uuid.UUID) (*Sample, error) {
	if err := accounts.Authorize(actor, accounts.PermViewSamples); err != nil {
		return nil, err
	}
	return s.samples.GetByID(ctx, id)
}

func (s *Service) ListSamples(ctx context.Context, actor *accounts.User, limit, offset int) ([]*Sample, int, error) {
	if err := accounts.Authorize(actor, accounts.PermViewSamples); err != nil {
		return nil, 0, err
	}
	return s.samples.List(ctx, limit, offset)
}

func (s *Service) ListSamplesForRequest(ctx context.Context, actor *accounts.User, requestID uuid.UUID) ([]*Sample, error) {
	if err := accounts.Authorize(actor, accounts.PermViewSamples); err != nil {
		return nil, err
	}
	return s.samples.ListByRequest(ctx, requestID)
}

// UpdateSampleStatus sets the sample status with a membership check only.
// No transition table applies here.
func (s *Service) UpdateSampleStatus(ctx context.Context, actor *accounts.User, id uuid.UUID, status SampleStatus) (*Sample, error) {
	if err := accounts.Authorize(actor, accounts.PermEditSample); err != nil {
		return nil, err
	}
	if !ValidSampleStatus(status) {
		return nil, laberr.Validation("status", "unknown sample status "+string(status))
	}
	if err := s.samples.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.samples.GetByID(ctx, id)
}

// RegenerateBarcode replaces the barcode with a fresh token. Status and
// collection timestamp are untouched.
func (s *Service) RegenerateBarcode(ctx context.Context, actor *accounts.User, id uuid.UUID) (*Sample, error) {
	if err := accounts.Authorize(actor, accounts.PermEditSample); err != nil {
		return nil, err
	}
	barcode, err := GenerateBarcode()
	if err != nil {
		return nil, err
	}
	if err := s.samples.UpdateBarcode(ctx, id, barcode); err != nil {
		return nil, err
	}
	return s.samples.GetByID(ctx, id)
}

// RequestExists reports whether a test request ID resolves. Reporting and
// billing use this for reference checks.
func (s *Service) RequestExists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.requests.GetByID(ctx, id)
	if laberr.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RequestRefs returns the patient and test type a request points at.
// Report templating uses this to fill placeholders.
func (s *Service) RequestRefs(ctx context.Context, id uuid.UUID) (patientID, testTypeID string, err error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return "", "", err
	}
	return req.PatientID, req.TestTypeID, nil
}

// CountRequestsByStatus feeds the statistics dashboard.
func (s *Service) CountRequestsByStatus(ctx context.Context, actor *accounts.User) (map[RequestStatus]int, error) {
	if err := accounts.Authorize(actor, accounts.PermViewStatistics); err != nil {
		return nil, err
	}
	return s.requests.CountByStatus(ctx)
}
