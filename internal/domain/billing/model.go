package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/lims/lims/pkg/laberr"
)

// InvoiceStatus is derived from the paid/total ratio, never set directly.
type InvoiceStatus string

const (
	InvoiceUnpaid  InvoiceStatus = "unpaid"
	InvoicePartial InvoiceStatus = "partial"
	InvoicePaid    InvoiceStatus = "paid"
)

// Invoice bills a patient for one or more test requests. The requests are
// carried as a plain ID list; they stay independent entities.
type Invoice struct {
	ID             uuid.UUID     `db:"id" json:"id"`
	PatientID      string        `db:"patient_id" json:"patient_id"`
	TestRequestIDs []uuid.UUID   `db:"test_request_ids" json:"test_request_ids"`
	TotalAmount    float64       `db:"total_amount" json:"total_amount"`
	PaidAmount     float64       `db:"paid_amount" json:"paid_amount"`
	PaymentMethod  string        `db:"payment_method" json:"payment_method"`
	Status         InvoiceStatus `db:"status" json:"status"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}

// DeriveStatus recomputes the status from the amounts.
func (i *Invoice) DeriveStatus() {
	switch {
	case i.PaidAmount <= 0:
		i.Status = InvoiceUnpaid
	case i.PaidAmount < i.TotalAmount:
		i.Status = InvoicePartial
	default:
		i.Status = InvoicePaid
	}
}

func (i *Invoice) Validate() error {
	if i.PatientID == "" {
		return laberr.Validation("patient_id", "is required")
	}
	if len(i.TestRequestIDs) == 0 {
		return laberr.Validation("test_request_ids", "at least one test request is required")
	}
	if i.TotalAmount < 0 {
		return laberr.Validation("total_amount", "must not be negative")
	}
	return nil
}

// RevenueSummary aggregates invoices over a period.
type RevenueSummary struct {
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	Invoices  int       `json:"invoices"`
	Billed    float64   `json:"billed"`
	Collected float64   `json:"collected"`
}
