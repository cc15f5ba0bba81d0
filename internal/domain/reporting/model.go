package reporting

import (
	"time"

	"github.com/google/uuid"

	"github.com/lims/lims/pkg/laberr"
)

// UnsignedSentinel is the canonical signed_by value for a report awaiting
// signature. Any other value means the report is signed.
const UnsignedSentinel = "N/A"

// MedicalReport holds entered results for a test request. Signature
// fields are mutable metadata, not a lock: content stays editable after
// signing and the signature is left as-is.
type MedicalReport struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	TestRequestID uuid.UUID  `db:"test_request_id" json:"test_request_id"`
	Content       string     `db:"content" json:"content"`
	SignedBy      string     `db:"signed_by" json:"signed_by"`
	SignedAt      *time.Time `db:"signed_at" json:"signed_at"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// Signed reports whether the report carries a signature.
func (r *MedicalReport) Signed() bool {
	return r.SignedBy != UnsignedSentinel
}

// ReportTemplate is reusable boilerplate for report content, optionally
// tied to one test type.
type ReportTemplate struct {
	ID         uuid.UUID `db:"id" json:"id"`
	TestTypeID *string   `db:"test_type_id" json:"test_type_id"`
	Name       string    `db:"name" json:"name"`
	Body       string    `db:"body" json:"body"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

func (t *ReportTemplate) Validate() error {
	if t.Name == "" {
		return laberr.Validation("name", "is required")
	}
	if t.Body == "" {
		return laberr.Validation("body", "is required")
	}
	return nil
}
