package treatment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/authz"
	"github.com/clinicore/clinicore/pkg/apperr"
)

// PatientDirectory is the slice of the patient domain treatments depend on.
type PatientDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// AppointmentDirectory is the slice of the scheduling domain treatments
// depend on.
type AppointmentDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service owns treatment records. Receptionists are denied every operation
// here; dentists act on their own rows only.
type Service struct {
	repo         Repository
	patients     PatientDirectory
	appointments AppointmentDirectory
}

func NewService(repo Repository, patients PatientDirectory, appointments AppointmentDirectory) *Service {
	return &Service{repo: repo, patients: patients, appointments: appointments}
}

func (s *Service) validate(t *Treatment) error {
	if t.PatientID == uuid.Nil {
		return apperr.Validation("patient_id is required")
	}
	if t.DoctorID == uuid.Nil {
		return apperr.Validation("doctor_id is required")
	}
	if t.TreatmentType == "" {
		return apperr.Validation("treatment_type is required")
	}
	if t.Cost < 0 {
		return apperr.Validation("cost must not be negative")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, ident auth.Identity, in CreateInput) (*Treatment, error) {
	if err := authz.Can(ident, authz.ResourceTreatments, authz.ActionWrite); err != nil {
		return nil, err
	}
	if ident.IsDentist() && in.DoctorID != ident.ID {
		return nil, apperr.Authorization("dentists may only record their own treatments")
	}

	t := &Treatment{
		PatientID:     in.PatientID,
		DoctorID:      in.DoctorID,
		AppointmentID: in.AppointmentID,
		TreatmentType: strings.TrimSpace(in.TreatmentType),
		Description:   in.Description,
		Cost:          in.Cost,
		TreatmentDate: in.TreatmentDate,
	}
	if t.TreatmentDate.IsZero() {
		t.TreatmentDate = time.Now()
	}
	if err := s.validate(t); err != nil {
		return nil, err
	}

	ok, err := s.patients.Exists(ctx, t.PatientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Validation("patient does not exist")
	}
	if t.AppointmentID != nil {
		ok, err := s.appointments.Exists(ctx, *t.AppointmentID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.Validation("appointment does not exist")
		}
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) get(ctx context.Context, ident auth.Identity, id uuid.UUID) (*Treatment, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) && authz.CollapseNotFound(ident, authz.ResourceTreatments) {
			return nil, apperr.Wrap(apperr.KindAuthorization, err, "access denied")
		}
		return nil, err
	}
	if err := authz.Owns(ident, authz.ResourceTreatments, authz.OwnedBy(t.DoctorID)); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Get(ctx context.Context, ident auth.Identity, id uuid.UUID) (*Treatment, error) {
	if err := authz.Can(ident, authz.ResourceTreatments, authz.ActionRead); err != nil {
		return nil, err
	}
	return s.get(ctx, ident, id)
}

func (s *Service) Update(ctx context.Context, ident auth.Identity, id uuid.UUID, in UpdateInput) (*Treatment, error) {
	if err := authz.Can(ident, authz.ResourceTreatments, authz.ActionWrite); err != nil {
		return nil, err
	}
	t, err := s.get(ctx, ident, id)
	if err != nil {
		return nil, err
	}

	if in.TreatmentType != nil {
		t.TreatmentType = strings.TrimSpace(*in.TreatmentType)
	}
	if in.Description != nil {
		t.Description = in.Description
	}
	if in.Cost != nil {
		t.Cost = *in.Cost
	}
	if in.TreatmentDate != nil {
		t.TreatmentDate = *in.TreatmentDate
	}
	if err := s.validate(t); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) Delete(ctx context.Context, ident auth.Identity, id uuid.UUID) error {
	if err := authz.Can(ident, authz.ResourceTreatments, authz.ActionDelete); err != nil {
		return err
	}
	t, err := s.get(ctx, ident, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, t.ID)
}

func (s *Service) List(ctx context.Context, ident auth.Identity, f SearchFilter, limit, offset int) ([]*Treatment, int, error) {
	if err := authz.Can(ident, authz.ResourceTreatments, authz.ActionRead); err != nil {
		return nil, 0, err
	}
	return s.repo.Search(ctx, ident, f, limit, offset)
}

// ForInvoice fetches treatments for invoicing, restricted to one doctor's
// rows when doctorID is set. Billing decides how unresolved ids are
// reported, so missing rows are not an error here.
func (s *Service) ForInvoice(ctx context.Context, ids []uuid.UUID, doctorID *uuid.UUID) ([]*Treatment, error) {
	return s.repo.GetByIDs(ctx, ids, doctorID)
}
