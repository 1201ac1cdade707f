package authz

import (
	"strings"
	"testing"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/pkg/apperr"
	"github.com/google/uuid"
)

func adminIdentity() auth.Identity {
	return auth.Identity{ID: uuid.New(), Role: auth.RoleAdmin}
}

func dentistIdentity() auth.Identity {
	return auth.Identity{ID: uuid.New(), Role: auth.RoleDentist}
}

func receptionistIdentity() auth.Identity {
	return auth.Identity{ID: uuid.New(), Role: auth.RoleReceptionist}
}

func TestCan_AdminUnrestricted(t *testing.T) {
	admin := adminIdentity()
	resources := []string{ResourcePatients, ResourceAppointments, ResourceTreatments, ResourceInvoices, ResourceFiles}
	actions := []string{ActionRead, ActionWrite, ActionDelete}

	for _, res := range resources {
		for _, act := range actions {
			if err := Can(admin, res, act); err != nil {
				t.Errorf("admin %s %s: unexpected error: %v", act, res, err)
			}
		}
	}
}

func TestCan_ReceptionistTreatmentsBlocked(t *testing.T) {
	rec := receptionistIdentity()
	for _, act := range []string{ActionRead, ActionWrite, ActionDelete} {
		err := Can(rec, ResourceTreatments, act)
		if err == nil {
			t.Fatalf("expected receptionist %s treatments to be denied", act)
		}
		if apperr.KindOf(err) != apperr.KindAuthorization {
			t.Errorf("expected authorization kind, got %s", apperr.KindOf(err))
		}
	}
}

func TestCan_ReceptionistOtherwiseUnrestricted(t *testing.T) {
	rec := receptionistIdentity()
	for _, res := range []string{ResourcePatients, ResourceAppointments, ResourceInvoices, ResourceFiles} {
		if err := Can(rec, res, ActionRead); err != nil {
			t.Errorf("receptionist read %s: unexpected error: %v", res, err)
		}
		if err := Can(rec, res, ActionWrite); err != nil {
			t.Errorf("receptionist write %s: unexpected error: %v", res, err)
		}
	}
}

func TestCan_AdminOnlyDeletes(t *testing.T) {
	for _, identity := range []auth.Identity{dentistIdentity(), receptionistIdentity()} {
		for _, res := range []string{ResourcePatients, ResourceInvoices, ResourceFiles} {
			if err := Can(identity, res, ActionDelete); err == nil {
				t.Errorf("expected %s delete %s to be denied", identity.Role, res)
			}
		}
	}
}

func TestCan_DentistPatientWriteDenied(t *testing.T) {
	dentist := dentistIdentity()
	if err := Can(dentist, ResourcePatients, ActionWrite); err == nil {
		t.Error("expected dentist patient write to be denied")
	}
	if err := Can(dentist, ResourcePatients, ActionRead); err != nil {
		t.Errorf("dentist patient read: unexpected error: %v", err)
	}
}

func TestCan_DentistOwnRowActionsPass(t *testing.T) {
	dentist := dentistIdentity()
	if err := Can(dentist, ResourceTreatments, ActionDelete); err != nil {
		t.Errorf("dentist treatment delete should pass the coarse gate: %v", err)
	}
	if err := Can(dentist, ResourceAppointments, ActionWrite); err != nil {
		t.Errorf("dentist appointment write: unexpected error: %v", err)
	}
}

func TestCan_UnknownRoleDenied(t *testing.T) {
	stranger := auth.Identity{ID: uuid.New(), Role: "intruder"}
	if err := Can(stranger, ResourcePatients, ActionRead); err == nil {
		t.Error("expected unknown role to be denied")
	}
	if err := Can(auth.Identity{}, ResourcePatients, ActionRead); err == nil {
		t.Error("expected zero identity to be denied")
	}
}

func TestFilter_AdminAndReceptionistEmpty(t *testing.T) {
	for _, identity := range []auth.Identity{adminIdentity(), receptionistIdentity()} {
		clause, args, next := Filter(identity, ResourceAppointments, "", 3)
		if clause != "" {
			t.Errorf("%s: expected empty clause, got %q", identity.Role, clause)
		}
		if len(args) != 0 {
			t.Errorf("%s: expected no args, got %v", identity.Role, args)
		}
		if next != 3 {
			t.Errorf("%s: expected arg index unchanged at 3, got %d", identity.Role, next)
		}
	}
}

func TestFilter_DentistDoctorColumn(t *testing.T) {
	dentist := dentistIdentity()

	clause, args, next := Filter(dentist, ResourceAppointments, "", 2)
	if clause != " AND appointments.doctor_id = $2" {
		t.Errorf("unexpected clause: %q", clause)
	}
	if len(args) != 1 || args[0] != dentist.ID {
		t.Errorf("expected args [%s], got %v", dentist.ID, args)
	}
	if next != 3 {
		t.Errorf("expected next arg index 3, got %d", next)
	}

	clause, _, _ = Filter(dentist, ResourceTreatments, "t", 1)
	if clause != " AND t.doctor_id = $1" {
		t.Errorf("unexpected aliased clause: %q", clause)
	}
}

func TestFilter_DentistPatientSubquery(t *testing.T) {
	dentist := dentistIdentity()

	clause, args, next := Filter(dentist, ResourcePatients, "", 1)
	if !strings.Contains(clause, "EXISTS") {
		t.Errorf("expected EXISTS subquery, got %q", clause)
	}
	if !strings.Contains(clause, "appointments.patient_id = patients.id") {
		t.Errorf("expected patient linkage, got %q", clause)
	}
	if !strings.Contains(clause, "appointments.doctor_id = $1") {
		t.Errorf("expected doctor placeholder, got %q", clause)
	}
	if len(args) != 1 || next != 2 {
		t.Errorf("expected one arg and next=2, got %v next=%d", args, next)
	}
}

func TestFilter_DentistInvoiceSubquery(t *testing.T) {
	dentist := dentistIdentity()

	clause, _, _ := Filter(dentist, ResourceInvoices, "", 4)
	if !strings.Contains(clause, "invoice_items") {
		t.Errorf("expected invoice_items join, got %q", clause)
	}
	if !strings.Contains(clause, "treatments.doctor_id = $4") {
		t.Errorf("expected treatment doctor placeholder, got %q", clause)
	}
}

func TestFilter_DentistFilesViaPatient(t *testing.T) {
	dentist := dentistIdentity()

	clause, _, _ := Filter(dentist, ResourceFiles, "", 1)
	if !strings.Contains(clause, "appointments.patient_id = patient_files.patient_id") {
		t.Errorf("expected file patient linkage, got %q", clause)
	}
}

func TestOwns_Dentist(t *testing.T) {
	dentist := dentistIdentity()
	other := uuid.New()

	if err := Owns(dentist, ResourceAppointments, OwnedBy(dentist.ID)); err != nil {
		t.Errorf("own row: unexpected error: %v", err)
	}
	if err := Owns(dentist, ResourceInvoices, OwnedBy(other, dentist.ID)); err != nil {
		t.Errorf("row with own doctor among several: unexpected error: %v", err)
	}

	err := Owns(dentist, ResourceAppointments, OwnedBy(other))
	if err == nil {
		t.Fatal("expected denial for another doctor's row")
	}
	if apperr.KindOf(err) != apperr.KindAuthorization {
		t.Errorf("expected authorization kind, got %s", apperr.KindOf(err))
	}

	if err := Owns(dentist, ResourcePatients, OwnedBy()); err == nil {
		t.Error("expected denial for row with no doctor linkage")
	}
}

func TestOwns_AdminAndReceptionist(t *testing.T) {
	other := uuid.New()

	if err := Owns(adminIdentity(), ResourceTreatments, OwnedBy(other)); err != nil {
		t.Errorf("admin: unexpected error: %v", err)
	}
	if err := Owns(receptionistIdentity(), ResourceInvoices, OwnedBy(other)); err != nil {
		t.Errorf("receptionist on invoices: unexpected error: %v", err)
	}
	if err := Owns(receptionistIdentity(), ResourceTreatments, OwnedBy(other)); err == nil {
		t.Error("expected receptionist on treatments to be denied")
	}
}

func TestCollapseNotFound(t *testing.T) {
	dentist := dentistIdentity()
	resources := []string{ResourcePatients, ResourceAppointments, ResourceTreatments, ResourceInvoices, ResourceFiles}

	for _, res := range resources {
		if !CollapseNotFound(dentist, res) {
			t.Errorf("expected collapse for dentist on %s", res)
		}
		if CollapseNotFound(adminIdentity(), res) {
			t.Errorf("expected no collapse for admin on %s", res)
		}
		if CollapseNotFound(receptionistIdentity(), res) {
			t.Errorf("expected no collapse for receptionist on %s", res)
		}
	}
}
