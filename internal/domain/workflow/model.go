package workflow

import (
	"time"

	"github.com/google/uuid"

	"github.com/lims/lims/pkg/laberr"
)

// RequestStatus is the test request lifecycle state.
type RequestStatus string

const (
	RequestPending    RequestStatus = "pending"
	RequestInProgress RequestStatus = "in_progress"
	RequestCompleted  RequestStatus = "completed"
	RequestCancelled  RequestStatus = "cancelled"
)

// requestTransitions defines valid status transitions for TestRequest.
// completed and cancelled are terminal.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestPending:    {RequestInProgress, RequestCancelled},
	RequestInProgress: {RequestCompleted, RequestCancelled},
	RequestCompleted:  {},
	RequestCancelled:  {},
}

// ValidateTransition checks whether a test request may move from one
// status to another.
func ValidateTransition(from, to RequestStatus) error {
	allowed, ok := requestTransitions[from]
	if !ok {
		return laberr.Validation("status", "unknown status "+string(from))
	}
	for _, s := range allowed {
		if s == to {
			return nil
		}
	}
	return laberr.InvalidTransition("test request", string(from), string(to))
}

// SampleStatus is the sample processing state. Unlike the test request
// machine, sample status is a plain membership check: lab staff may move
// a sample in any direction, which mirrors how the bench actually works.
type SampleStatus string

const (
	SampleCollected  SampleStatus = "collected"
	SampleProcessing SampleStatus = "processing"
	SampleCompleted  SampleStatus = "completed"
)

var validSampleStatuses = map[SampleStatus]bool{
	SampleCollected: true, SampleProcessing: true, SampleCompleted: true,
}

// ValidSampleStatus reports whether s is in the sample status vocabulary.
func ValidSampleStatus(s SampleStatus) bool {
	return validSampleStatuses[s]
}

// TestRequest is one ordered test for one patient. Batch ordering creates
// several independent requests; they are not linked to each other.
type TestRequest struct {
	ID          uuid.UUID     `db:"id" json:"id"`
	PatientID   string        `db:"patient_id" json:"patient_id"`
	TestTypeID  string        `db:"test_type_id" json:"test_type_id"`
	RequestedBy string        `db:"requested_by" json:"requested_by"`
	RequestedAt time.Time     `db:"requested_at" json:"requested_at"`
	Status      RequestStatus `db:"status" json:"status"`
}

// Sample is collected material for a test request. Its lifecycle is
// deliberately decoupled from the request's: completing a sample does not
// complete the request.
type Sample struct {
	ID            uuid.UUID    `db:"id" json:"id"`
	TestRequestID uuid.UUID    `db:"test_request_id" json:"test_request_id"`
	Barcode       string       `db:"barcode" json:"barcode"`
	CollectedAt   time.Time    `db:"collected_at" json:"collected_at"`
	Status        SampleStatus `db:"status" json:"status"`
	Notes         string       `db:"notes" json:"notes"`
}
