package treatment

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/platform/auth"
)

// Repository is the storage port for treatment records.
type Repository interface {
	Create(ctx context.Context, t *Treatment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Treatment, error)
	Update(ctx context.Context, t *Treatment) error
	Delete(ctx context.Context, id uuid.UUID) error
	// Search applies the caller's row visibility on top of the filter.
	Search(ctx context.Context, ident auth.Identity, f SearchFilter, limit, offset int) ([]*Treatment, int, error)
	// GetByIDs fetches the given treatments, restricted to one doctor when
	// doctorID is set. Missing ids are simply absent from the result.
	GetByIDs(ctx context.Context, ids []uuid.UUID, doctorID *uuid.UUID) ([]*Treatment, error)
}
