package document

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/authz"
	"github.com/clinicore/clinicore/pkg/apperr"
)

// PatientDirectory is the slice of the patient domain file records depend on.
type PatientDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Service owns patient file metadata. A dentist may only touch files of
// patients on their appointment slate; deleting records is admin only.
type Service struct {
	repo     Repository
	patients PatientDirectory
}

func NewService(repo Repository, patients PatientDirectory) *Service {
	return &Service{repo: repo, patients: patients}
}

func (s *Service) dentistInScope(ctx context.Context, ident auth.Identity, patientID uuid.UUID) error {
	if !ident.IsDentist() {
		return nil
	}
	doctors, err := s.repo.PatientDoctors(ctx, patientID)
	if err != nil {
		return err
	}
	return authz.Owns(ident, authz.ResourceFiles, authz.OwnedBy(doctors...))
}

func (s *Service) Create(ctx context.Context, ident auth.Identity, in CreateInput) (*FileRecord, error) {
	if err := authz.Can(ident, authz.ResourceFiles, authz.ActionWrite); err != nil {
		return nil, err
	}

	f := &FileRecord{
		PatientID:   in.PatientID,
		FileName:    strings.TrimSpace(in.FileName),
		ContentType: in.ContentType,
		SizeBytes:   in.SizeBytes,
		StorageKey:  strings.TrimSpace(in.StorageKey),
	}
	uploadedBy := ident.ID
	f.UploadedBy = &uploadedBy

	if f.PatientID == uuid.Nil {
		return nil, apperr.Validation("patient_id is required")
	}
	if f.FileName == "" {
		return nil, apperr.Validation("file_name is required")
	}
	if f.StorageKey == "" {
		return nil, apperr.Validation("storage_key is required")
	}
	if f.SizeBytes != nil && *f.SizeBytes < 0 {
		return nil, apperr.Validation("size_bytes must not be negative")
	}

	ok, err := s.patients.Exists(ctx, f.PatientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Validation("patient does not exist")
	}
	if err := s.dentistInScope(ctx, ident, f.PatientID); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) get(ctx context.Context, ident auth.Identity, id uuid.UUID) (*FileRecord, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) && authz.CollapseNotFound(ident, authz.ResourceFiles) {
			return nil, apperr.Wrap(apperr.KindAuthorization, err, "access denied")
		}
		return nil, err
	}
	if err := s.dentistInScope(ctx, ident, f.PatientID); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *Service) Get(ctx context.Context, ident auth.Identity, id uuid.UUID) (*FileRecord, error) {
	if err := authz.Can(ident, authz.ResourceFiles, authz.ActionRead); err != nil {
		return nil, err
	}
	return s.get(ctx, ident, id)
}

func (s *Service) List(ctx context.Context, ident auth.Identity, f SearchFilter, limit, offset int) ([]*FileRecord, int, error) {
	if err := authz.Can(ident, authz.ResourceFiles, authz.ActionRead); err != nil {
		return nil, 0, err
	}
	return s.repo.Search(ctx, ident, f, limit, offset)
}

func (s *Service) Delete(ctx context.Context, ident auth.Identity, id uuid.UUID) error {
	if err := authz.Can(ident, authz.ResourceFiles, authz.ActionDelete); err != nil {
		return err
	}
	f, err := s.get(ctx, ident, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, f.ID)
}
