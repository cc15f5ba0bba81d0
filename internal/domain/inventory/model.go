package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/lims/lims/pkg/laberr"
)

// Item is a stocked consumable: reagents, tubes, kits. MinQuantity is the
// reorder threshold used by the low-stock listing.
type Item struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Description string     `db:"description" json:"description"`
	Quantity    int        `db:"quantity" json:"quantity"`
	MinQuantity int        `db:"min_quantity" json:"min_quantity"`
	Supplier    string     `db:"supplier" json:"supplier"`
	ExpiryDate  *time.Time `db:"expiry_date" json:"expiry_date"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}

// LowStock reports whether the item has dropped below its reorder
// threshold. An item sitting exactly at the threshold is not low yet.
func (i *Item) LowStock() bool {
	return i.Quantity < i.MinQuantity
}

func (i *Item) Validate() error {
	if i.Name == "" {
		return laberr.Validation("name", "is required")
	}
	if i.Quantity < 0 {
		return laberr.Validation("quantity", "must not be negative")
	}
	if i.MinQuantity < 0 {
		return laberr.Validation("min_quantity", "must not be negative")
	}
	return nil
}
