package patient

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/platform/auth"
)

// Repository is the storage port for patient records.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	// Search applies the caller's row visibility on top of the filter.
	Search(ctx context.Context, ident auth.Identity, f SearchFilter, limit, offset int) ([]*Patient, int, error)
	// LinkedDoctors returns the distinct doctors with at least one
	// appointment for the patient.
	LinkedDoctors(ctx context.Context, patientID uuid.UUID) ([]uuid.UUID, error)
	// DeleteCascade removes the patient and every dependent row. Callers run
	// it inside a transaction.
	DeleteCascade(ctx context.Context, id uuid.UUID) error
}
