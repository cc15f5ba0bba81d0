package workflow

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lims/lims/internal/platform/db"
	"github.com/lims/lims/pkg/laberr"
)

type testRequestRepoPG struct{ pool *pgxpool.Pool }

func NewTestRequestRepoPG(pool *pgxpool.Pool) TestRequestRepository {
	return &testRequestRepoPG{pool: pool}
}

func (r *testRequestRepoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const testRequestCols = `id, patient_id, test_type_id, requested_by, requested_at, status`

func scanTestRequest(row pgx.Row) (*TestRequest, error) {
	var t TestRequest
	err := row.Scan(&t.ID, &t.PatientID, &t.TestTypeID, &t.RequestedBy, &t.RequestedAt, &t.Status)
	return &t, err
}

func (r *testRequestRepoPG) Create(ctx context.Context, t *TestRequest) error {
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO test_request (id, patient_id, test_type_id, requested_by, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING requested_at`,
		t.ID, t.PatientID, t.TestTypeID, t.RequestedBy, t.Status)
	return row.Scan(&t.RequestedAt)
}

func (r *testRequestRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*TestRequest, error) {
	t, err := scanTestRequest(r.conn(ctx).QueryRow(ctx,
		`SELECT `+testRequestCols+` FROM test_request WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, laberr.NotFound("test request", id.String())
	}
	return t, err
}

// UpdateStatus is conditional on the expected current status so that
// concurrent transitions cannot both win.
func (r *testRequestRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from, to RequestStatus) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE test_request SET status = $3 WHERE id = $1 AND status = $2`, id, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		cur, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		return laberr.InvalidTransition("test request", string(cur.Status), string(to))
	}
	return nil
}

func (r *testRequestRepoPG) List(ctx context.Context, limit, offset int) ([]*TestRequest, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM test_request`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+testRequestCols+` FROM test_request ORDER BY requested_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectRequests(rows, total)
}

func (r *testRequestRepoPG) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*TestRequest, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM test_request WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+testRequestCols+` FROM test_request
		WHERE patient_id = $1 ORDER BY requested_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectRequests(rows, total)
}

func collectRequests(rows pgx.Rows, total int) ([]*TestRequest, int, error) {
	var items []*TestRequest
	for rows.Next() {
		t, err := scanTestRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}

func (r *testRequestRepoPG) CountByStatus(ctx context.Context) (map[RequestStatus]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT status, COUNT(*) FROM test_request GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[RequestStatus]int{}
	for rows.Next() {
		var s RequestStatus
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		counts[s] = n
	}
	return counts, rows.Err()
}

type sampleRepoPG struct{ pool *pgxpool.Pool }

func NewSampleRepoPG(pool *pgxpool.Pool) SampleRepository {
	return &sampleRepoPG{pool: pool}
}

func (r *sampleRepoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const sampleCols = `id, test_request_id, barcode, collected_at, status, notes`

func scanSample(row pgx.Row) (*Sample, error) {
	var s Sample
	err := row.Scan(&s.ID, &s.TestRequestID, &s.Barcode, &s.CollectedAt, &s.Status, &s.Notes)
	return &s, err
}

func (r *sampleRepoPG) Create(ctx context.Context, s *Sample) error {
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO sample (id, test_request_id, barcode, status, notes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING collected_at`,
		s.ID, s.TestRequestID, s.Barcode, s.Status, s.Notes)
	return row.Scan(&s.CollectedAt)
}

func (r *sampleRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Sample, error) {
	s, err := scanSample(r.conn(ctx).QueryRow(ctx, `SELECT `+sampleCols+` FROM sample WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, laberr.NotFound("sample", id.String())
	}
	return s, err
}

func (r *sampleRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status SampleStatus) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE sample SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return laberr.NotFound("sample", id.String())
	}
	return nil
}

func (r *sampleRepoPG) UpdateBarcode(ctx context.Context, id uuid.UUID, barcode string) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE sample SET barcode = $2 WHERE id = $1`, id, barcode)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return laberr.NotFound("sample", id.String())
	}
	return nil
}

func (r *sampleRepoPG) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*Sample, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+sampleCols+` FROM sample
		WHERE test_request_id = $1 ORDER BY collected_at`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Sample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *sampleRepoPG) List(ctx context.Context, limit, offset int) ([]*Sample, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM sample`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+sampleCols+` FROM sample ORDER BY collected_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Sample
	for rows.Next() {
		s, err := scanSample(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}
