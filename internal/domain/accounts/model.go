package accounts

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/lims/lims/pkg/laberr"
)

// Role is the coarse actor classification. Only RoleAdmin carries blanket
// authorization; every other role is governed by the explicit permission set.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleTechnician   Role = "technician"
	RoleDoctor       Role = "doctor"
	RoleReceptionist Role = "receptionist"
)

var validRoles = map[Role]bool{
	RoleAdmin: true, RoleTechnician: true, RoleDoctor: true, RoleReceptionist: true,
}

// Permission is a fine-grained capability grant, evaluated per operation.
type Permission string

const (
	PermViewPatients  Permission = "view_patients"
	PermAddPatient    Permission = "add_patient"
	PermEditPatient   Permission = "edit_patient"
	PermDeletePatient Permission = "delete_patient"

	PermViewTests  Permission = "view_tests"
	PermAddTest    Permission = "add_test"
	PermEditTest   Permission = "edit_test"
	PermDeleteTest Permission = "delete_test"

	PermViewSamples  Permission = "view_samples"
	PermAddSample    Permission = "add_sample"
	PermEditSample   Permission = "edit_sample"
	PermDeleteSample Permission = "delete_sample"

	PermViewReports  Permission = "view_reports"
	PermAddReport    Permission = "add_report"
	PermEditReport   Permission = "edit_report"
	PermDeleteReport Permission = "delete_report"
	PermSignReport   Permission = "sign_report"

	PermViewBilling   Permission = "view_billing"
	PermAddInvoice    Permission = "add_invoice"
	PermEditInvoice   Permission = "edit_invoice"
	PermDeleteInvoice Permission = "delete_invoice"

	PermViewInventory   Permission = "view_inventory"
	PermAddInventory    Permission = "add_inventory"
	PermEditInventory   Permission = "edit_inventory"
	PermDeleteInventory Permission = "delete_inventory"

	PermViewUsers  Permission = "view_users"
	PermAddUser    Permission = "add_user"
	PermEditUser   Permission = "edit_user"
	PermDeleteUser Permission = "delete_user"

	PermViewStatistics  Permission = "view_statistics"
	PermGenerateReports Permission = "generate_reports"
)

// PermissionCategories groups permissions for presentation only. The
// grouping carries no authorization semantics.
var PermissionCategories = map[string][]Permission{
	"Patient Management": {
		PermViewPatients, PermAddPatient, PermEditPatient, PermDeletePatient,
	},
	"Test Management": {
		PermViewTests, PermAddTest, PermEditTest, PermDeleteTest,
	},
	"Sample Management": {
		PermViewSamples, PermAddSample, PermEditSample, PermDeleteSample,
	},
	"Report Management": {
		PermViewReports, PermAddReport, PermEditReport, PermDeleteReport, PermSignReport,
	},
	"Billing Management": {
		PermViewBilling, PermAddInvoice, PermEditInvoice, PermDeleteInvoice,
	},
	"Inventory Management": {
		PermViewInventory, PermAddInventory, PermEditInventory, PermDeleteInventory,
	},
	"User Management": {
		PermViewUsers, PermAddUser, PermEditUser, PermDeleteUser,
	},
	"Statistics & Reports": {
		PermViewStatistics, PermGenerateReports,
	},
}

// User maps to the account table.
type User struct {
	ID           uuid.UUID    `db:"id" json:"id"`
	Username     string       `db:"username" json:"username"`
	Email        string       `db:"email" json:"email"`
	PasswordHash string       `db:"password_hash" json:"-"`
	Role         Role         `db:"role" json:"role"`
	Permissions  []Permission `db:"permissions" json:"permissions"`
	IsActive     bool         `db:"is_active" json:"is_active"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	LastLogin    *time.Time   `db:"last_login" json:"last_login,omitempty"`
}

// HasPermission reports whether the explicit permission set contains p.
// Role is not consulted; callers wanting the admin override use Authorize.
func (u *User) HasPermission(p Permission) bool {
	for _, have := range u.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

// Authorize decides whether actor may perform an operation requiring the
// given permissions. Admins are authorized unconditionally, overriding
// their explicit permission set. Inactive actors are denied regardless of
// role or grants. For everyone else, every required permission must be
// present. Pure decision over the supplied state; no storage access.
func Authorize(actor *User, required ...Permission) error {
	if actor == nil {
		return laberr.Denied("no authenticated actor")
	}
	if !actor.IsActive {
		return laberr.Denied("account is disabled")
	}
	if actor.Role == RoleAdmin {
		return nil
	}

	var missing []string
	for _, p := range required {
		if !actor.HasPermission(p) {
			missing = append(missing, string(p))
		}
	}
	if len(missing) > 0 {
		return laberr.DeniedMissing(missing)
	}
	return nil
}

// HashPassword returns the hex-encoded SHA-256 digest of password, the
// scheme the stored account hashes use.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
