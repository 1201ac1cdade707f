package staff

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the storage port for staff accounts.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, f SearchFilter, limit, offset int) ([]*User, int, error)
	// CountAppointments returns the number of appointments referencing the
	// user as doctor, any status.
	CountAppointments(ctx context.Context, doctorID uuid.UUID) (int, error)
}
