package identity

import (
	"regexp"
	"time"

	"github.com/lims/lims/pkg/laberr"
)

// Gender is the patient gender vocabulary.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

var validGenders = map[Gender]bool{
	GenderMale: true, GenderFemale: true, GenderOther: true,
}

// PatientIDWidth is the fixed width of the sequential display identifier.
// Past 99999999 the space is exhausted and intake fails.
const PatientIDWidth = 8

// MaxPatientNumber is the largest allocatable patient number.
const MaxPatientNumber int64 = 99999999

var patientIDPattern = regexp.MustCompile(`^[0-9]{8}$`)

// ValidPatientID reports whether id has the canonical 8-digit form.
func ValidPatientID(id string) bool {
	return patientIDPattern.MatchString(id)
}

// Patient maps to the patient table. The ID is a zero-padded sequential
// display identifier allocated at creation; it is never reused.
type Patient struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Age         int       `db:"age" json:"age"`
	Gender      Gender    `db:"gender" json:"gender"`
	ContactInfo string    `db:"contact_info" json:"contact_info"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Validate checks the field-level constraints for create and update.
func (p *Patient) Validate() error {
	if p.Name == "" {
		return laberr.Validation("name", "is required")
	}
	if p.Age < 0 || p.Age > 150 {
		return laberr.Validation("age", "must be between 0 and 150")
	}
	if !validGenders[p.Gender] {
		return laberr.Validation("gender", "must be male, female, or other")
	}
	return nil
}
