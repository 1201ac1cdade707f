package patient

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/authz"
	"github.com/clinicore/clinicore/internal/platform/db"
	"github.com/clinicore/clinicore/pkg/apperr"
)

type Service struct {
	repo Repository
	tx   db.TxRunner
}

func NewService(repo Repository, tx db.TxRunner) *Service {
	return &Service{repo: repo, tx: tx}
}

func validate(p *Patient) error {
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	if p.FirstName == "" || p.LastName == "" {
		return apperr.Validation("first and last name are required")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, ident auth.Identity, p *Patient) error {
	if err := authz.Can(ident, authz.ResourcePatients, authz.ActionWrite); err != nil {
		return err
	}
	if err := validate(p); err != nil {
		return err
	}
	return s.repo.Create(ctx, p)
}

// Get returns one patient. A dentist only sees patients linked to them
// through at least one appointment; outside that set the record is presented
// as access denied whether or not it exists.
func (s *Service) Get(ctx context.Context, ident auth.Identity, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) && authz.CollapseNotFound(ident, authz.ResourcePatients) {
			return nil, apperr.Wrap(apperr.KindAuthorization, err, "access denied")
		}
		return nil, err
	}
	if ident.IsDentist() {
		doctors, err := s.repo.LinkedDoctors(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := authz.Owns(ident, authz.ResourcePatients, authz.OwnedBy(doctors...)); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, ident auth.Identity, id uuid.UUID, in UpdateInput) (*Patient, error) {
	if err := authz.Can(ident, authz.ResourcePatients, authz.ActionWrite); err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.FirstName != nil {
		p.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		p.LastName = *in.LastName
	}
	if in.Email != nil {
		p.Email = in.Email
	}
	if in.Phone != nil {
		p.Phone = in.Phone
	}
	if in.DateOfBirth != nil {
		p.DateOfBirth = in.DateOfBirth
	}
	if in.Address != nil {
		p.Address = in.Address
	}
	if in.MedicalHistory != nil {
		p.MedicalHistory = in.MedicalHistory
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, ident auth.Identity, f SearchFilter, limit, offset int) ([]*Patient, int, error) {
	return s.repo.Search(ctx, ident, f, limit, offset)
}

// Delete removes a patient and all dependent records in one transaction.
// Either everything goes or nothing does.
func (s *Service) Delete(ctx context.Context, ident auth.Identity, id uuid.UUID) error {
	if err := authz.Can(ident, authz.ResourcePatients, authz.ActionDelete); err != nil {
		return err
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.tx.InTx(ctx, func(txCtx context.Context) error {
		return s.repo.DeleteCascade(txCtx, id)
	})
}

// Exists reports whether a patient row exists, without any role scoping.
// Booking and billing use it to validate references.
func (s *Service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
