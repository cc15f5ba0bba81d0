package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lims/lims/internal/platform/db"
	"github.com/lims/lims/pkg/laberr"
)

type invoiceRepoPG struct{ pool *pgxpool.Pool }

func NewInvoiceRepoPG(pool *pgxpool.Pool) InvoiceRepository {
	return &invoiceRepoPG{pool: pool}
}

func (r *invoiceRepoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const invoiceCols = `id, patient_id, test_request_ids, total_amount, paid_amount, payment_method, status, created_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var i Invoice
	err := row.Scan(&i.ID, &i.PatientID, &i.TestRequestIDs, &i.TotalAmount, &i.PaidAmount, &i.PaymentMethod, &i.Status, &i.CreatedAt)
	return &i, err
}

func (r *invoiceRepoPG) Create(ctx context.Context, i *Invoice) error {
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO invoice (id, patient_id, test_request_ids, total_amount, paid_amount, payment_method, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		i.ID, i.PatientID, i.TestRequestIDs, i.TotalAmount, i.PaidAmount, i.PaymentMethod, i.Status)
	return row.Scan(&i.CreatedAt)
}

func (r *invoiceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	i, err := scanInvoice(r.conn(ctx).QueryRow(ctx, `SELECT `+invoiceCols+` FROM invoice WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, laberr.NotFound("invoice", id.String())
	}
	return i, err
}

func (r *invoiceRepoPG) Update(ctx context.Context, i *Invoice) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE invoice SET paid_amount=$2, payment_method=$3, status=$4
		WHERE id = $1`,
		i.ID, i.PaidAmount, i.PaymentMethod, i.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return laberr.NotFound("invoice", i.ID.String())
	}
	return nil
}

func (r *invoiceRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM invoice WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return laberr.NotFound("invoice", id.String())
	}
	return nil
}

func (r *invoiceRepoPG) List(ctx context.Context, limit, offset int) ([]*Invoice, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM invoice`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+invoiceCols+` FROM invoice ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectInvoices(rows, total)
}

func (r *invoiceRepoPG) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Invoice, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM invoice WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+invoiceCols+` FROM invoice
		WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectInvoices(rows, total)
}

func collectInvoices(rows pgx.Rows, total int) ([]*Invoice, int, error) {
	var items []*Invoice
	for rows.Next() {
		i, err := scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, i)
	}
	return items, total, rows.Err()
}

func (r *invoiceRepoPG) Summarize(ctx context.Context, from, to time.Time) (*RevenueSummary, error) {
	s := &RevenueSummary{From: from, To: to}
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_amount), 0), COALESCE(SUM(paid_amount), 0)
		FROM invoice WHERE created_at >= $1 AND created_at < $2`,
		from, to).Scan(&s.Invoices, &s.Billed, &s.Collected)
	if err != nil {
		return nil, err
	}
	return s, nil
}
