package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lims/lims/internal/domain/accounts"
	"github.com/lims/lims/pkg/laberr"
)

// PatientDirectory answers existence checks against the patient registry.
type PatientDirectory interface {
	PatientExists(ctx context.Context, id string) (bool, error)
}

// RequestDirectory answers existence checks against the test request
// store.
type RequestDirectory interface {
	RequestExists(ctx context.Context, id uuid.UUID) (bool, error)
}

type Service struct {
	invoices InvoiceRepository
	patients PatientDirectory
	requests RequestDirectory
}

func NewService(invoices InvoiceRepository, patients PatientDirectory, requests RequestDirectory) *Service {
	return &Service{invoices: invoices, patients: patients, requests: requests}
}

// CreateInvoice bills a patient for the given test requests. All
// references must resolve at creation time. The invoice starts unpaid.
func (s *Service) CreateInvoice(ctx context.Context, actor *accounts.User, inv *Invoice) error {
	if err := accounts.Authorize(actor, accounts.PermAddInvoice); err != nil {
		return err
	}
	if err := inv.Validate(); err != nil {
		return err
	}
	ok, err := s.patients.PatientExists(ctx, inv.PatientID)
	if err != nil {
		return err
	}
	if !ok {
		return laberr.ReferenceNotFound("patient", inv.PatientID)
	}
	for _, reqID := range inv.TestRequestIDs {
		ok, err := s.requests.RequestExists(ctx, reqID)
		if err != nil {
			return err
		}
		if !ok {
			return laberr.ReferenceNotFound("test request", reqID.String())
		}
	}
	inv.ID = uuid.New()
	inv.PaidAmount = 0
	inv.DeriveStatus()
	return s.invoices.Create(ctx, inv)
}

func (s *Service) GetInvoice(ctx context.Context, actor *accounts.User, id uuid.UUID) (*Invoice, error) {
	if err := accounts.Authorize(actor, accounts.PermViewBilling); err != nil {
		return nil, err
	}
	return s.invoices.GetByID(ctx, id)
}

func (s *Service) ListInvoices(ctx context.Context, actor *accounts.User, patientID string, limit, offset int) ([]*Invoice, int, error) {
	if err := accounts.Authorize(actor, accounts.PermViewBilling); err != nil {
		return nil, 0, err
	}
	if patientID != "" {
		return s.invoices.ListByPatient(ctx, patientID, limit, offset)
	}
	return s.invoices.List(ctx, limit, offset)
}

// RecordPayment applies a payment to an invoice. The paid amount is
// capped at the invoice total; overpayment is not carried as credit.
func (s *Service) RecordPayment(ctx context.Context, actor *accounts.User, id uuid.UUID, amount float64, method string) (*Invoice, error) {
	if err := accounts.Authorize(actor, accounts.PermEditInvoice); err != nil {
		return nil, err
	}
	if amount <= 0 {
		return nil, laberr.Validation("amount", "must be positive")
	}
	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.PaidAmount += amount
	if inv.PaidAmount > inv.TotalAmount {
		inv.PaidAmount = inv.TotalAmount
	}
	if method != "" {
		inv.PaymentMethod = method
	}
	inv.DeriveStatus()
	if err := s.invoices.Update(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// DeleteInvoice removes an invoice permanently.
func (s *Service) DeleteInvoice(ctx context.Context, actor *accounts.User, id uuid.UUID) error {
	if err := accounts.Authorize(actor, accounts.PermDeleteInvoice); err != nil {
		return err
	}
	return s.invoices.Delete(ctx, id)
}

// Revenue summarizes billing over [from, to).
func (s *Service) Revenue(ctx context.Context, actor *accounts.User, from, to time.Time) (*RevenueSummary, error) {
	if err := accounts.Authorize(actor, accounts.PermViewStatistics); err != nil {
		return nil, err
	}
	if !to.After(from) {
		return nil, laberr.Validation("to", "must be after from")
	}
	return s.invoices.Summarize(ctx, from, to)
}
