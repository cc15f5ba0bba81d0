package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lims/lims/internal/platform/db"
	"github.com/lims/lims/pkg/laberr"
)

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository {
	return &patientRepoPG{pool: pool}
}

func (r *patientRepoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const patientCols = `id, name, age, gender, contact_info, created_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Age, &p.Gender, &p.ContactInfo, &p.CreatedAt)
	return &p, err
}

// createAttempts bounds the retry loop around the sequential allocation.
// Concurrent intakes computing the same MAX race to the primary key; the
// loser retries with a fresh number.
const createAttempts = 3

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	for attempt := 0; attempt < createAttempts; attempt++ {
		max, err := r.MaxPatientNumber(ctx)
		if err != nil {
			return err
		}
		if max >= MaxPatientNumber {
			return laberr.AllocationExhausted("patient", MaxPatientNumber)
		}

		row := r.conn(ctx).QueryRow(ctx, `
			INSERT INTO patient (id, name, age, gender, contact_info)
			SELECT lpad((COALESCE(MAX(id)::bigint, 0) + 1)::text, 8, '0'), $1, $2, $3, $4 FROM patient
			RETURNING id, created_at`,
			p.Name, p.Age, p.Gender, p.ContactInfo)
		err = row.Scan(&p.ID, &p.CreatedAt)
		if err == nil {
			return nil
		}
		if !db.IsUniqueViolation(err) {
			return err
		}
	}
	return fmt.Errorf("allocate patient id: retries exhausted")
}

func (r *patientRepoPG) GetByID(ctx context.Context, id string) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, laberr.NotFound("patient", id)
	}
	return p, err
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient SET name=$2, age=$3, gender=$4, contact_info=$5
		WHERE id = $1`,
		p.ID, p.Name, p.Age, p.Gender, p.ContactInfo)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return laberr.NotFound("patient", p.ID)
	}
	return nil
}

func (r *patientRepoPG) Delete(ctx context.Context, id string) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return laberr.NotFound("patient", id)
	}
	return nil
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+` FROM patient ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *patientRepoPG) SearchByName(ctx context.Context, name string, limit, offset int) ([]*Patient, int, error) {
	pattern := "%" + name + "%"
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient WHERE name ILIKE $1`, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+` FROM patient WHERE name ILIKE $1 ORDER BY id LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *patientRepoPG) MaxPatientNumber(ctx context.Context) (int64, error) {
	var max int64
	err := r.conn(ctx).QueryRow(ctx, `SELECT COALESCE(MAX(id)::bigint, 0) FROM patient`).Scan(&max)
	return max, err
}

func (r *patientRepoPG) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patient WHERE created_at >= $1 AND created_at < $2`, from, to).Scan(&n)
	return n, err
}
