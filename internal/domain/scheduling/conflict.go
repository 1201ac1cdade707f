package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Back-to-back bookings share a boundary instant
// and do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// ConflictSource supplies the candidate rows a conflict check inspects.
type ConflictSource interface {
	// ScheduledBetween returns the doctor's scheduled appointments whose
	// stored interval intersects the probe window.
	ScheduledBetween(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*Appointment, error)
}

// ConflictDetector decides whether a proposed slot collides with an existing
// booking. The storage query narrows the candidate set; the decision itself
// is made here so there is exactly one definition of "conflict".
type ConflictDetector struct {
	src ConflictSource
}

func NewConflictDetector(src ConflictSource) *ConflictDetector {
	return &ConflictDetector{src: src}
}

// HasConflict reports whether [start, end) overlaps a scheduled appointment
// for the doctor. excludeID, when non-nil, skips that appointment's own row
// so an update does not conflict with itself. Cancelled, completed and
// rescheduled rows never block a slot.
func (d *ConflictDetector) HasConflict(ctx context.Context, doctorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	candidates, err := d.src.ScheduledBetween(ctx, doctorID, start, end)
	if err != nil {
		return false, err
	}
	for _, a := range candidates {
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if a.Status != StatusScheduled {
			continue
		}
		if Overlaps(start, end, a.StartTime, a.EndTime) {
			return true, nil
		}
	}
	return false, nil
}
