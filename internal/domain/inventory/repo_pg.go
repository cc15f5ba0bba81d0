package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lims/lims/internal/platform/db"
	"github.com/lims/lims/pkg/laberr"
)

type itemRepoPG struct{ pool *pgxpool.Pool }

func NewItemRepoPG(pool *pgxpool.Pool) ItemRepository {
	return &itemRepoPG{pool: pool}
}

func (r *itemRepoPG) conn(ctx context.Context) db.Queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const itemCols = `id, name, description, quantity, min_quantity, supplier, expiry_date, created_at`

func scanItem(row pgx.Row) (*Item, error) {
	var i Item
	err := row.Scan(&i.ID, &i.Name, &i.Description, &i.Quantity, &i.MinQuantity, &i.Supplier, &i.ExpiryDate, &i.CreatedAt)
	return &i, err
}

func (r *itemRepoPG) Create(ctx context.Context, i *Item) error {
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO inventory_item (id, name, description, quantity, min_quantity, supplier, expiry_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`,
		i.ID, i.Name, i.Description, i.Quantity, i.MinQuantity, i.Supplier, i.ExpiryDate)
	return row.Scan(&i.CreatedAt)
}

func (r *itemRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Item, error) {
	i, err := scanItem(r.conn(ctx).QueryRow(ctx, `SELECT `+itemCols+` FROM inventory_item WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, laberr.NotFound("inventory item", id.String())
	}
	return i, err
}

func (r *itemRepoPG) Update(ctx context.Context, i *Item) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE inventory_item SET name=$2, description=$3, quantity=$4, min_quantity=$5, supplier=$6, expiry_date=$7
		WHERE id = $1`,
		i.ID, i.Name, i.Description, i.Quantity, i.MinQuantity, i.Supplier, i.ExpiryDate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return laberr.NotFound("inventory item", i.ID.String())
	}
	return nil
}

func (r *itemRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM inventory_item WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return laberr.NotFound("inventory item", id.String())
	}
	return nil
}

// AdjustQuantity is a single conditional update so concurrent draws
// cannot take the count below zero.
func (r *itemRepoPG) AdjustQuantity(ctx context.Context, id uuid.UUID, delta int) (*Item, error) {
	i, err := scanItem(r.conn(ctx).QueryRow(ctx, `
		UPDATE inventory_item SET quantity = quantity + $2
		WHERE id = $1 AND quantity + $2 >= 0
		RETURNING `+itemCols, id, delta))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, laberr.Validation("quantity", "insufficient stock")
	}
	return i, err
}

func (r *itemRepoPG) List(ctx context.Context, limit, offset int) ([]*Item, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM inventory_item`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+itemCols+` FROM inventory_item ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, i)
	}
	return items, total, rows.Err()
}

func (r *itemRepoPG) ListLowStock(ctx context.Context) ([]*Item, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+itemCols+` FROM inventory_item WHERE quantity < min_quantity ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Item
	for rows.Next() {
		i, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
