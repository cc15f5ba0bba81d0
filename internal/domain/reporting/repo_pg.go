package reporting

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lims/lims/internal/platform/db"
	"github.com/lims/lims/pkg/laberr"
)

type reportRepoPG struct{ pool *pgxpool.Pool }

func NewReportRepoPG(pool *pgxpool.Pool) ReportRepository {
	return &reportRepoPG{pool: pool}
}

func (r *reportRepoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const reportCols = `id, test_request_id, content, signed_by, signed_at, created_at`

func scanReport(row pgx.Row) (*MedicalReport, error) {
	var rep MedicalReport
	err := row.Scan(&rep.ID, &rep.TestRequestID, &rep.Content, &rep.SignedBy, &rep.SignedAt, &rep.CreatedAt)
	return &rep, err
}

func (r *reportRepoPG) Create(ctx context.Context, rep *MedicalReport) error {
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO medical_report (id, test_request_id, content, signed_by, signed_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		rep.ID, rep.TestRequestID, rep.Content, rep.SignedBy, rep.SignedAt)
	return row.Scan(&rep.CreatedAt)
}

func (r *reportRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*MedicalReport, error) {
	rep, err := scanReport(r.conn(ctx).QueryRow(ctx,
		`SELECT `+reportCols+` FROM medical_report WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, laberr.NotFound("report", id.String())
	}
	return rep, err
}

func (r *reportRepoPG) Update(ctx context.Context, rep *MedicalReport) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE medical_report SET content=$2, signed_by=$3, signed_at=$4
		WHERE id = $1`,
		rep.ID, rep.Content, rep.SignedBy, rep.SignedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return laberr.NotFound("report", rep.ID.String())
	}
	return nil
}

func (r *reportRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM medical_report WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return laberr.NotFound("report", id.String())
	}
	return nil
}

func (r *reportRepoPG) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]*MedicalReport, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+reportCols+` FROM medical_report
		WHERE test_request_id = $1 ORDER BY created_at`, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*MedicalReport
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rep)
	}
	return items, rows.Err()
}

func (r *reportRepoPG) List(ctx context.Context, limit, offset int) ([]*MedicalReport, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM medical_report`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+reportCols+` FROM medical_report ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*MedicalReport
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rep)
	}
	return items, total, rows.Err()
}

type templateRepoPG struct{ pool *pgxpool.Pool }

func NewTemplateRepoPG(pool *pgxpool.Pool) TemplateRepository {
	return &templateRepoPG{pool: pool}
}

func (r *templateRepoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const templateCols = `id, test_type_id, name, body, created_at`

func scanTemplate(row pgx.Row) (*ReportTemplate, error) {
	var t ReportTemplate
	err := row.Scan(&t.ID, &t.TestTypeID, &t.Name, &t.Body, &t.CreatedAt)
	return &t, err
}

func (r *templateRepoPG) Create(ctx context.Context, t *ReportTemplate) error {
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO report_template (id, test_type_id, name, body)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		t.ID, t.TestTypeID, t.Name, t.Body)
	return row.Scan(&t.CreatedAt)
}

func (r *templateRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ReportTemplate, error) {
	t, err := scanTemplate(r.conn(ctx).QueryRow(ctx,
		`SELECT `+templateCols+` FROM report_template WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, laberr.NotFound("template", id.String())
	}
	return t, err
}

func (r *templateRepoPG) Update(ctx context.Context, t *ReportTemplate) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE report_template SET test_type_id=$2, name=$3, body=$4
		WHERE id = $1`,
		t.ID, t.TestTypeID, t.Name, t.Body)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return laberr.NotFound("template", t.ID.String())
	}
	return nil
}

func (r *templateRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM report_template WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return laberr.NotFound("template", id.String())
	}
	return nil
}

func (r *templateRepoPG) List(ctx context.Context, limit, offset int) ([]*ReportTemplate, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM report_template`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+templateCols+` FROM report_template ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*ReportTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}
