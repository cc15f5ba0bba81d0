package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lims/lims/internal/platform/db"
	"github.com/lims/lims/pkg/laberr"
)

type testTypeRepoPG struct{ pool *pgxpool.Pool }

func NewTestTypeRepoPG(pool *pgxpool.Pool) TestTypeRepository {
	return &testTypeRepoPG{pool: pool}
}

func (r *testTypeRepoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const testTypeCols = `id, name, category, price, description, created_at`

func scanTestType(row pgx.Row) (*TestType, error) {
	var t TestType
	err := row.Scan(&t.ID, &t.Name, &t.Category, &t.Price, &t.Description, &t.CreatedAt)
	return &t, err
}

const createAttempts = 3

func (r *testTypeRepoPG) CreateSequential(ctx context.Context, t *TestType) error {
	for attempt := 0; attempt < createAttempts; attempt++ {
		max, err := r.MaxSequentialID(ctx)
		if err != nil {
			return err
		}
		if max >= MaxSeqNumber {
			return laberr.AllocationExhausted("test_type", MaxSeqNumber)
		}

		// Sequential IDs share the id column with legacy opaque IDs, so the
		// MAX is taken over the 3-digit rows only.
		row := r.conn(ctx).QueryRow(ctx, `
			INSERT INTO test_type (id, name, category, price, description)
			SELECT lpad((COALESCE(MAX(id)::bigint, 0) + 1)::text, 3, '0'), $1, $2, $3, $4
			FROM test_type WHERE id ~ '^[0-9]{3}$'
			RETURNING id, created_at`,
			t.Name, t.Category, t.Price, t.Description)
		err = row.Scan(&t.ID, &t.CreatedAt)
		if err == nil {
			return nil
		}
		if !db.IsUniqueViolation(err) {
			return err
		}
	}
	return fmt.Errorf("allocate test type id: retries exhausted")
}

func (r *testTypeRepoPG) CreateLegacy(ctx context.Context, t *TestType) error {
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO test_type (id, name, category, price, description)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		t.ID, t.Name, t.Category, t.Price, t.Description)
	err := row.Scan(&t.CreatedAt)
	if db.IsUniqueViolation(err) {
		return laberr.Validation("id", "already exists")
	}
	return err
}

func (r *testTypeRepoPG) GetByID(ctx context.Context, id string) (*TestType, error) {
	t, err := scanTestType(r.conn(ctx).QueryRow(ctx, `SELECT `+testTypeCols+` FROM test_type WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, laberr.NotFound("test type", id)
	}
	return t, err
}

func (r *testTypeRepoPG) FindByIDPrefix(ctx context.Context, prefix string) (*TestType, error) {
	t, err := scanTestType(r.conn(ctx).QueryRow(ctx, `
		SELECT `+testTypeCols+` FROM test_type
		WHERE id LIKE $1 || '%' ORDER BY id LIMIT 1`, prefix))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, laberr.NotFound("test type", prefix)
	}
	return t, err
}

func (r *testTypeRepoPG) Update(ctx context.Context, t *TestType) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE test_type SET name=$2, category=$3, price=$4, description=$5
		WHERE id = $1`,
		t.ID, t.Name, t.Category, t.Price, t.Description)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return laberr.NotFound("test type", t.ID)
	}
	return nil
}

func (r *testTypeRepoPG) Delete(ctx context.Context, id string) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM test_type WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return laberr.NotFound("test type", id)
	}
	return nil
}

func (r *testTypeRepoPG) List(ctx context.Context, limit, offset int) ([]*TestType, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM test_type`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+testTypeCols+` FROM test_type ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*TestType
	for rows.Next() {
		t, err := scanTestType(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}

func (r *testTypeRepoPG) MaxSequentialID(ctx context.Context) (int64, error) {
	var max int64
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COALESCE(MAX(id)::bigint, 0) FROM test_type WHERE id ~ '^[0-9]{3}$'`).Scan(&max)
	return max, err
}
