package document

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/platform/auth"
)

// Repository is the storage port for patient file metadata.
type Repository interface {
	Create(ctx context.Context, f *FileRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*FileRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// Search applies the caller's row visibility on top of the filter.
	Search(ctx context.Context, ident auth.Identity, f SearchFilter, limit, offset int) ([]*FileRecord, int, error)
	// PatientDoctors returns the distinct doctors the patient has
	// appointments with, for single-row scope checks.
	PatientDoctors(ctx context.Context, patientID uuid.UUID) ([]uuid.UUID, error)
}
