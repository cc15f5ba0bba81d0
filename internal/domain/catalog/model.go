package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/lims/lims/pkg/laberr"
)

// Category is the fixed test category vocabulary.
type Category string

const (
	CategoryBlood        Category = "Blood"
	CategoryUrine        Category = "Urine"
	CategoryBiochemistry Category = "Biochemistry"
	CategoryImaging      Category = "Imaging"
	CategoryGenetics     Category = "Genetics"
	CategoryHematology   Category = "Hematology"
	CategoryMicrobiology Category = "Microbiology"
	CategoryOthers       Category = "Others"
)

var validCategories = map[Category]bool{
	CategoryBlood: true, CategoryUrine: true, CategoryBiochemistry: true,
	CategoryImaging: true, CategoryGenetics: true, CategoryHematology: true,
	CategoryMicrobiology: true, CategoryOthers: true,
}

// SeqIDWidth is the fixed width of sequential test type display IDs.
const SeqIDWidth = 3

// MaxSeqNumber is the largest allocatable sequential test type number.
const MaxSeqNumber int64 = 999

var seqIDPattern = regexp.MustCompile(`^[0-9]{3}$`)

// TestTypeID is the tagged identifier for a catalog entry. Two schemes
// coexist: 3-digit sequential display IDs from the fast-add path, and
// legacy opaque IDs carried over from older records. Exactly one of Seq
// or Legacy is set.
type TestTypeID struct {
	Seq    int64
	Legacy string
}

// ParseTestTypeID classifies a raw identifier string. A canonical 3-digit
// string is sequential; anything else is treated as legacy.
func ParseTestTypeID(raw string) (TestTypeID, error) {
	if raw == "" {
		return TestTypeID{}, laberr.Validation("test_type_id", "is required")
	}
	if seqIDPattern.MatchString(raw) {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return TestTypeID{}, laberr.Validation("test_type_id", "malformed sequential id")
		}
		return TestTypeID{Seq: n}, nil
	}
	return TestTypeID{Legacy: raw}, nil
}

// IsSequential reports whether the ID came from the fast-add path.
func (id TestTypeID) IsSequential() bool { return id.Legacy == "" }

// String renders the stored form: zero-padded for sequential IDs, the
// opaque token verbatim for legacy ones.
func (id TestTypeID) String() string {
	if id.IsSequential() {
		return fmt.Sprintf("%0*d", SeqIDWidth, id.Seq)
	}
	return id.Legacy
}

// TestType is a catalog entry. Reference data: created once, edited by
// privileged roles, referenced by test requests.
type TestType struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Category    Category  `db:"category" json:"category"`
	Price       float64   `db:"price" json:"price"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

func (t *TestType) Validate() error {
	if t.Name == "" {
		return laberr.Validation("name", "is required")
	}
	if !validCategories[t.Category] {
		return laberr.Validation("category", "unknown category "+string(t.Category))
	}
	if t.Price < 0 {
		return laberr.Validation("price", "must not be negative")
	}
	return nil
}
