// Package authz holds every role-based access rule in one place. Services
// consult it instead of branching on roles at call sites: Can gates an
// operation before any row is touched, Filter scopes list queries, Owns checks
// a fetched row, and CollapseNotFound decides how a missing row is presented.
package authz

import (
	"fmt"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/pkg/apperr"
	"github.com/google/uuid"
)

// Resource kinds subject to role scoping.
const (
	ResourcePatients     = "patients"
	ResourceAppointments = "appointments"
	ResourceTreatments   = "treatments"
	ResourceInvoices     = "invoices"
	ResourceFiles        = "files"
)

// Actions evaluated by Can.
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionDelete = "delete"
)

// tableNames maps a resource to the table its list queries select from, used
// when the caller does not supply an alias.
var tableNames = map[string]string{
	ResourcePatients:     "patients",
	ResourceAppointments: "appointments",
	ResourceTreatments:   "treatments",
	ResourceInvoices:     "invoices",
	ResourceFiles:        "patient_files",
}

// errDenied is the uniform denial. The message deliberately names no resource
// so responses cannot confirm that a particular row exists.
func errDenied() error {
	return apperr.Authorization("access denied")
}

// Can is the coarse, row-independent gate:
//
//   - receptionists have no access to treatments, for any action;
//   - patients are created and edited by admin and receptionist only;
//   - deleting patients, invoices, or file records is admin only
//     (invoice cancellation shares the delete gate).
//
// Everything else passes here and is narrowed, where applicable, by Filter or
// Owns.
func Can(identity auth.Identity, resource, action string) error {
	if !auth.ValidRole(identity.Role) {
		return errDenied()
	}
	if identity.Role == auth.RoleAdmin {
		return nil
	}
	if identity.Role == auth.RoleReceptionist && resource == ResourceTreatments {
		return errDenied()
	}
	if identity.Role == auth.RoleDentist && resource == ResourcePatients && action != ActionRead {
		return errDenied()
	}
	if action == ActionDelete {
		switch resource {
		case ResourcePatients, ResourceInvoices, ResourceFiles:
			return errDenied()
		}
	}
	return nil
}

// Filter returns the SQL fragment a list query appends to restrict rows to the
// caller's scope, the arguments it binds, and the next free placeholder index.
// Admin and receptionist see every row; a dentist sees:
//
//	appointments, treatments  rows where doctor_id is their own
//	patients                  patients with at least one appointment with them
//	invoices                  invoices holding at least one of their treatments
//	files                     files of patients in their appointment slate
//
// alias is the outer table's alias in the calling query; when empty the bare
// table name is used, so fragments stay valid in unaliased queries.
func Filter(identity auth.Identity, resource, alias string, argIndex int) (string, []interface{}, int) {
	if identity.Role != auth.RoleDentist {
		return "", nil, argIndex
	}
	outer := alias
	if outer == "" {
		outer = tableNames[resource]
	}

	switch resource {
	case ResourceAppointments, ResourceTreatments:
		clause := fmt.Sprintf(" AND %s.doctor_id = $%d", outer, argIndex)
		return clause, []interface{}{identity.ID}, argIndex + 1
	case ResourcePatients:
		clause := fmt.Sprintf(" AND EXISTS (SELECT 1 FROM appointments WHERE appointments.patient_id = %s.id AND appointments.doctor_id = $%d)", outer, argIndex)
		return clause, []interface{}{identity.ID}, argIndex + 1
	case ResourceInvoices:
		clause := fmt.Sprintf(" AND EXISTS (SELECT 1 FROM invoice_items JOIN treatments ON treatments.id = invoice_items.treatment_id WHERE invoice_items.invoice_id = %s.id AND treatments.doctor_id = $%d)", outer, argIndex)
		return clause, []interface{}{identity.ID}, argIndex + 1
	case ResourceFiles:
		clause := fmt.Sprintf(" AND EXISTS (SELECT 1 FROM appointments WHERE appointments.patient_id = %s.patient_id AND appointments.doctor_id = $%d)", outer, argIndex)
		return clause, []interface{}{identity.ID}, argIndex + 1
	}
	return "", nil, argIndex
}

// Ownership carries the doctor linkage of one fetched row: the appointment or
// treatment doctor, the doctors behind an invoice's items, or the doctors a
// patient has appointments with.
type Ownership struct {
	DoctorIDs []uuid.UUID
}

// OwnedBy builds an Ownership from the linked doctor ids.
func OwnedBy(doctorIDs ...uuid.UUID) Ownership {
	return Ownership{DoctorIDs: doctorIDs}
}

// Owns checks a single fetched row against the caller's scope. It mirrors
// Filter for direct-id operations: admin passes, receptionist passes except on
// treatments, and a dentist passes only when the row links to them.
func Owns(identity auth.Identity, resource string, ownership Ownership) error {
	switch identity.Role {
	case auth.RoleAdmin:
		return nil
	case auth.RoleReceptionist:
		if resource == ResourceTreatments {
			return errDenied()
		}
		return nil
	case auth.RoleDentist:
		for _, doctorID := range ownership.DoctorIDs {
			if doctorID == identity.ID {
				return nil
			}
		}
		return errDenied()
	}
	return errDenied()
}

// CollapseNotFound reports whether a missing row must be presented to this
// caller exactly like an out-of-scope row. True wherever the caller's reads
// are filtered: a scoped caller who could tell "missing" from "not mine"
// could probe for the existence of rows outside their slate.
func CollapseNotFound(identity auth.Identity, resource string) bool {
	clause, _, _ := Filter(identity, resource, "", 1)
	return clause != ""
}
