package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/platform/auth"
)

// Repository is the storage port for appointments.
type Repository interface {
	ConflictSource

	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	// Search applies the caller's row visibility on top of the filter.
	Search(ctx context.Context, ident auth.Identity, f SearchFilter, limit, offset int) ([]*Appointment, int, error)
	Calendar(ctx context.Context, ident auth.Identity, doctorID *uuid.UUID, from, to time.Time) ([]*CalendarEntry, error)
	// LockDoctor serializes bookings for one doctor. It must be called
	// inside a transaction; the lock releases on commit or rollback.
	LockDoctor(ctx context.Context, doctorID uuid.UUID) error
	ReminderCandidates(ctx context.Context, from, to time.Time) ([]*ReminderCandidate, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) error
}
