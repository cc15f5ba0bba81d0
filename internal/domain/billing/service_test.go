package billing

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

type mockInvoiceRepo struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]*Invoice
}

func newMockInvoiceRepo() *mockInvoiceRepo {
	return &mockInvoiceRepo{invoices: map[uuid.UUID]*Invoice{}}
}

func (m *mockInvoiceRepo) Create(_ context.Context, i *Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i.CreatedAt = time.Now()
	cp := *i
	m.invoices[i.ID] = &cp
	return nil
}

func (m *mockInvoiceRepo) GetByID(_ context.Context, id uuid.UUID) (*Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.invoices[id]
	if !ok {
		return nil, laberr.NotFound("invoice", id.String())
	}
	cp := *i
	return &cp, nil
}

func (m *mockInvoiceRepo) Update(_ context.Context, i *Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invoices[i.ID]; !ok {
		return laberr.NotFound("invoice", i.ID.String())
	}
	cp := *i
	m.invoices[i.ID] = &cp
	return nil
}

func (m *mockInvoiceRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.invoices[id]; !ok {
		return laberr.NotFound("invoice", id.String())
	}
	delete(m.invoices, id)
	return nil
}

func (m *mockInvoiceRepo) List(_ context.Context, limit, offset int) ([]*Invoice, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*Invoice
	for _, i := range m.invoices {
		cp := *i
		items = append(items, &cp)
	}
	return items, len(items), nil
}

func (m *mockInvoiceRepo) ListByPatient(_ context.Context, patientID string, limit, offset int) ([]*Invoice, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var items []*Invoice
	for _, i := range m.invoices {
		if i.PatientID == patientID {
			cp := *i
			items = append(items, &cp)
		}
	}
	return items, len(items), nil
}

func (m *mockInvoiceRepo) Summarize(_ context.Context, from, to time.Time) (*RevenueSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &RevenueSummary{From: from, To: to}
	for _, i := range m.invoices {
		if !i.CreatedAt.Before(from) && i.CreatedAt.Before(to) {
			s.Invoices++
			s.Billed += i.TotalAmount
			s.Collected += i.PaidAmount
		}
	}
	return s, nil
}

type stubDirectories struct {
	patients map[string]bool
	requests map[uuid.UUID]bool
}

func (d *stubDirectories) PatientExists(_ context.Context, id string) (bool, error) {
	return d.patients[id], nil
}

func (d *stubDirectories) RequestExists(_ context.Context, id uuid.UUID) (bool, error) {
	return d.requests[id], nil
}

func cashier() *accounts.User {
	return &accounts.User{
		ID:       uuid.New(),
		Username: "cashier",
		Role:     accounts.RoleReceptionist,
		Permissions: []accounts.Permission{
			accounts.PermViewBilling, accounts.PermAddInvoice,
			accounts.PermEditInvoice, accounts.PermViewStatistics,
		},
		IsActive: true,
	}
}

func newBillingService(requestID uuid.UUID) *Service {
	dir := &stubDirectories{
		patients: map[string]bool{"00000001": true},
		requests: map[uuid.UUID]bool{requestID: true},
	}
	return NewService(newMockInvoiceRepo(), dir, dir)
}

func TestCreateInvoiceStartsUnpaid(t *testing.T) {
	requestID := uuid.New()
	svc := newBillingService(requestID)

	inv := &Invoice{
		PatientID:      "00000001",
		TestRequestIDs: []uuid.UUID{requestID},
		TotalAmount:    120,
		PaidAmount:     50, // ignored at creation
	}
	if err := svc.CreateInvoice(context.Background(), cashier(), inv); err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if inv.Status != InvoiceUnpaid || inv.PaidAmount != 0 {
		t.Fatalf("new invoice status=%s paid=%v, want unpaid/0", inv.Status, inv.PaidAmount)
	}
}

func TestCreateInvoiceUnknownReferences(t *testing.T) {
	requestID := uuid.New()
	svc := newBillingService(requestID)
	actor := cashier()

	var rf *laberr.ReferenceNotFoundError
	err := svc.CreateInvoice(context.Background(), actor, &Invoice{
		PatientID:      "99999999",
		TestRequestIDs: []uuid.UUID{requestID},
		TotalAmount:    50,
	})
	if !errors.As(err, &rf) {
		t.Fatalf("unknown patient: expected ReferenceNotFound, got %v", err)
	}
	err = svc.CreateInvoice(context.Background(), actor, &Invoice{
		PatientID:      "00000001",
		TestRequestIDs: []uuid.UUID{uuid.New()},
		TotalAmount:    50,
	})
	if !errors.As(err, &rf) {
		t.Fatalf("unknown request: expected ReferenceNotFound, got %v", err)
	}
}

func TestRecordPaymentDerivesStatus(t *testing.T) {
	requestID := uuid.New()
	svc := newBillingService(requestID)
	actor := cashier()
	ctx := context.Background()

	inv := &Invoice{PatientID: "00000001", TestRequestIDs: []uuid.UUID{requestID}, TotalAmount: 100}
	if err := svc.CreateInvoice(ctx, actor, inv); err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	got, err := svc.RecordPayment(ctx, actor, inv.ID, 40, "cash")
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if got.Status != InvoicePartial || got.PaidAmount != 40 {
		t.Fatalf("after first payment: status=%s paid=%v", got.Status, got.PaidAmount)
	}

	got, err = svc.RecordPayment(ctx, actor, inv.ID, 100, "card")
	if err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}
	if got.Status != InvoicePaid {
		t.Fatalf("after overpayment: status=%s", got.Status)
	}
	if got.PaidAmount != 100 {
		t.Fatalf("paid amount must cap at total, got %v", got.PaidAmount)
	}
}

func TestRecordPaymentRejectsNonPositive(t *testing.T) {
	requestID := uuid.New()
	svc := newBillingService(requestID)
	actor := cashier()
	ctx := context.Background()

	inv := &Invoice{PatientID: "00000001", TestRequestIDs: []uuid.UUID{requestID}, TotalAmount: 100}
	if err := svc.CreateInvoice(ctx, actor, inv); err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	var ve *laberr.ValidationError
	if _, err := svc.RecordPayment(ctx, actor, inv.ID, 0, "cash"); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, err := svc.RecordPayment(ctx, actor, inv.ID, -5, "cash"); !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestRevenueSummary(t *testing.T) {
	requestID := uuid.New()
	svc := newBillingService(requestID)
	actor := cashier()
	ctx := context.Background()

	a := &Invoice{PatientID: "00000001", TestRequestIDs: []uuid.UUID{requestID}, TotalAmount: 100}
	b := &Invoice{PatientID: "00000001", TestRequestIDs: []uuid.UUID{requestID}, TotalAmount: 60}
	if err := svc.CreateInvoice(ctx, actor, a); err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if err := svc.CreateInvoice(ctx, actor, b); err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if _, err := svc.RecordPayment(ctx, actor, a.ID, 100, "cash"); err != nil {
		t.Fatalf("RecordPayment: %v", err)
	}

	sum, err := svc.Revenue(ctx, actor, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("Revenue: %v", err)
	}
	if sum.Invoices != 2 || sum.Billed != 160 || sum.Collected != 100 {
		t.Fatalf("summary = %+v", sum)
	}

	var ve *laberr.ValidationError
	if _, err := svc.Revenue(ctx, actor, time.Now(), time.Now().Add(-time.Hour)); !errors.As(err, &ve) {
		t.Fatalf("inverted range should fail, got %v", err)
	}
}

func TestDeleteInvoice(t *testing.T) {
	requestID := uuid.New()
	svc := newBillingService(requestID)
	ctx := context.Background()
	admin := &accounts.User{
		ID:       uuid.New(),
		Username: "boss",
		Role:     accounts.RoleAdmin,
		IsActive: true,
	}

	inv := &Invoice{
		PatientID:      "00000001",
		TestRequestIDs: []uuid.UUID{requestID},
		TotalAmount:    80,
	}
	if err := svc.CreateInvoice(ctx, cashier(), inv); err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	// The cashier role lacks delete_invoice.
	if err := svc.DeleteInvoice(ctx, cashier(), inv.ID); !laberr.IsDenied(err) {
		t.Fatalf("expected denial, got %v", err)
	}
	if _, err := svc.GetInvoice(ctx, cashier(), inv.ID); err != nil {
		t.Fatalf("denied delete must not remove the invoice: %v", err)
	}

	if err := svc.DeleteInvoice(ctx, admin, inv.ID); err != nil {
		t.Fatalf("DeleteInvoice: %v", err)
	}
	if _, err := svc.GetInvoice(ctx, cashier(), inv.ID); !laberr.IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := svc.DeleteInvoice(ctx, admin, inv.ID); !laberr.IsNotFound(err) {
		t.Fatalf("deleting a missing invoice: expected not found, got %v", err)
	}
}

func TestBillingDenied(t *testing.T) {
	svc := newBillingService(uuid.New())
	viewer := &accounts.User{
		ID:          uuid.New(),
		Username:    "viewer",
		Role:        accounts.RoleTechnician,
		Permissions: []accounts.Permission{accounts.PermViewBilling},
		IsActive:    true,
	}
	err := svc.CreateInvoice(context.Background(), viewer, &Invoice{
		PatientID:      "00000001",
		TestRequestIDs: []uuid.UUID{uuid.New()},
		TotalAmount:    10,
	})
	if !laberr.IsDenied(err) {
		t.Fatalf("expected denial, got %v", err)
	}
}
