package staff

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/pkg/apperr"
)

// Service holds the business rules for the staff directory. Route-level role
// guards keep mutations admin-only; the rules here are about the data itself.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) validate(u *User) error {
	u.Email = strings.TrimSpace(strings.ToLower(u.Email))
	u.Name = strings.TrimSpace(u.Name)
	if u.Email == "" || !strings.Contains(u.Email, "@") {
		return apperr.Validation("a valid email is required")
	}
	if u.Name == "" {
		return apperr.Validation("name is required")
	}
	if !auth.ValidRole(u.Role) {
		return apperr.Validation("invalid role: %s", u.Role)
	}
	return nil
}

// Create registers a new staff account. New accounts start active.
func (s *Service) Create(ctx context.Context, u *User) error {
	if err := s.validate(u); err != nil {
		return err
	}
	u.Active = true
	return s.repo.Create(ctx, u)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies a partial admin edit. Role changes go through this path
// only; the self-service profile path cannot touch them.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
	if in.Phone != nil {
		u.Phone = in.Phone
	}
	if in.Specialty != nil {
		u.Specialty = in.Specialty
	}
	if in.Active != nil {
		u.Active = *in.Active
	}
	if err := s.validate(u); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateProfile lets a signed-in user edit their own name and phone. Email,
// role and active status are out of reach on this path.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Validation("name is required")
		}
		u.Name = name
	}
	if in.Phone != nil {
		u.Phone = in.Phone
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes a staff account. Accounts still referenced by appointments
// cannot be removed; deactivate them instead.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	n, err := s.repo.CountAppointments(ctx, u.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflict("staff user has %d appointments on file; deactivate instead", n)
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, f SearchFilter, limit, offset int) ([]*User, int, error) {
	if f.Role != "" && !auth.ValidRole(f.Role) {
		return nil, 0, apperr.Validation("invalid role: %s", f.Role)
	}
	return s.repo.Search(ctx, f, limit, offset)
}

// IsActiveDoctor reports whether id names an active dentist. Booking paths
// use it to validate the doctor side of an appointment.
func (s *Service) IsActiveDoctor(ctx context.Context, id uuid.UUID) (bool, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return false, nil
		}
		return false, err
	}
	return u.Role == auth.RoleDentist && u.Active, nil
}
