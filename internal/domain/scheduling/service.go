package scheduling

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/authz"
	"github.com/clinicore/clinicore/internal/platform/db"
	"github.com/clinicore/clinicore/pkg/apperr"
)

// PatientDirectory answers existence checks against the patient registry.
type PatientDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// StaffDirectory answers doctor checks against the staff directory.
type StaffDirectory interface {
	IsActiveDoctor(ctx context.Context, id uuid.UUID) (bool, error)
}

const (
	defaultReminderLead      = 24 * time.Hour
	defaultReminderTolerance = time.Hour
)

type Service struct {
	repo     Repository
	detector *ConflictDetector
	patients PatientDirectory
	staff    StaffDirectory
	tx       db.TxRunner

	reminderLead      time.Duration
	reminderTolerance time.Duration
}

func NewService(repo Repository, patients PatientDirectory, staff StaffDirectory, tx db.TxRunner, reminderLead, reminderTolerance time.Duration) *Service {
	if reminderLead <= 0 {
		reminderLead = defaultReminderLead
	}
	if reminderTolerance <= 0 {
		reminderTolerance = defaultReminderTolerance
	}
	return &Service{
		repo:              repo,
		detector:          NewConflictDetector(repo),
		patients:          patients,
		staff:             staff,
		tx:                tx,
		reminderLead:      reminderLead,
		reminderTolerance: reminderTolerance,
	}
}

// Detector exposes the conflict detector for callers that only need the
// availability question.
func (s *Service) Detector() *ConflictDetector { return s.detector }

// Create books an appointment. The pre-check gives fast feedback; the
// authoritative overlap check runs again inside the transaction under a
// per-doctor lock, so two concurrent bookings of the same slot cannot both
// commit.
func (s *Service) Create(ctx context.Context, ident auth.Identity, in CreateInput) (*Appointment, error) {
	if err := authz.Can(ident, authz.ResourceAppointments, authz.ActionWrite); err != nil {
		return nil, err
	}
	if in.PatientID == uuid.Nil || in.DoctorID == uuid.Nil {
		return nil, apperr.Validation("patient_id and doctor_id are required")
	}
	if !in.EndTime.After(in.StartTime) {
		return nil, apperr.Validation("end_time must be after start_time")
	}
	if ident.IsDentist() && in.DoctorID != ident.ID {
		return nil, apperr.Authorization("dentists may only book their own schedule")
	}

	ok, err := s.patients.Exists(ctx, in.PatientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Validation("patient does not exist")
	}
	ok, err = s.staff.IsActiveDoctor(ctx, in.DoctorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Validation("doctor must be an active dentist")
	}

	conflict, err := s.detector.HasConflict(ctx, in.DoctorID, in.StartTime, in.EndTime, nil)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, apperr.Conflict("the requested slot overlaps an existing appointment")
	}

	a := &Appointment{
		PatientID:    in.PatientID,
		DoctorID:     in.DoctorID,
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
		Status:       StatusScheduled,
		Notes:        in.Notes,
		ReminderSent: false,
	}
	err = s.tx.InTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.LockDoctor(txCtx, a.DoctorID); err != nil {
			return err
		}
		conflict, err := s.detector.HasConflict(txCtx, a.DoctorID, a.StartTime, a.EndTime, nil)
		if err != nil {
			return err
		}
		if conflict {
			return apperr.Conflict("the requested slot overlaps an existing appointment")
		}
		return s.repo.Create(txCtx, a)
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) get(ctx context.Context, ident auth.Identity, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) && authz.CollapseNotFound(ident, authz.ResourceAppointments) {
			return nil, apperr.Wrap(apperr.KindAuthorization, err, "access denied")
		}
		return nil, err
	}
	if err := authz.Owns(ident, authz.ResourceAppointments, authz.OwnedBy(a.DoctorID)); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, ident auth.Identity, id uuid.UUID) (*Appointment, error) {
	return s.get(ctx, ident, id)
}

// Update edits an appointment. Changing either time bound makes the call a
// time edit: the effective interval is recomputed with the stored value
// filling the missing side, overlap is re-validated excluding this row, and
// a scheduled appointment moves to rescheduled unless the same call sets a
// status explicitly. A status-only update skips conflict detection entirely.
func (s *Service) Update(ctx context.Context, ident auth.Identity, id uuid.UUID, in UpdateInput) (*Appointment, error) {
	a, err := s.get(ctx, ident, id)
	if err != nil {
		return nil, err
	}
	if in.Status != nil && !ValidStatus(*in.Status) {
		return nil, apperr.Validation("invalid status: %s", *in.Status)
	}

	timeEdit := in.StartTime != nil || in.EndTime != nil
	if timeEdit {
		newStart := a.StartTime
		newEnd := a.EndTime
		if in.StartTime != nil {
			newStart = *in.StartTime
		}
		if in.EndTime != nil {
			newEnd = *in.EndTime
		}
		if !newEnd.After(newStart) {
			return nil, apperr.Validation("end_time must be after start_time")
		}
		conflict, err := s.detector.HasConflict(ctx, a.DoctorID, newStart, newEnd, &a.ID)
		if err != nil {
			return nil, err
		}
		if conflict {
			return nil, apperr.Conflict("the requested slot overlaps an existing appointment")
		}
		a.StartTime = newStart
		a.EndTime = newEnd
		if in.Status == nil && a.Status == StatusScheduled {
			a.Status = StatusRescheduled
		}
	}
	if in.Status != nil {
		a.Status = *in.Status
	}
	if in.Notes != nil {
		a.Notes = in.Notes
	}

	if timeEdit {
		err = s.tx.InTx(ctx, func(txCtx context.Context) error {
			if err := s.repo.LockDoctor(txCtx, a.DoctorID); err != nil {
				return err
			}
			conflict, err := s.detector.HasConflict(txCtx, a.DoctorID, a.StartTime, a.EndTime, &a.ID)
			if err != nil {
				return err
			}
			if conflict {
				return apperr.Conflict("the requested slot overlaps an existing appointment")
			}
			return s.repo.Update(txCtx, a)
		})
	} else {
		err = s.repo.Update(ctx, a)
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Cancel soft-cancels an appointment; the row stays for history and stops
// blocking the slot.
func (s *Service) Cancel(ctx context.Context, ident auth.Identity, id uuid.UUID) (*Appointment, error) {
	a, err := s.get(ctx, ident, id)
	if err != nil {
		return nil, err
	}
	a.Status = StatusCancelled
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) List(ctx context.Context, ident auth.Identity, f SearchFilter, limit, offset int) ([]*Appointment, int, error) {
	if f.Status != "" && !ValidStatus(f.Status) {
		return nil, 0, apperr.Validation("invalid status: %s", f.Status)
	}
	return s.repo.Search(ctx, ident, f, limit, offset)
}

// Calendar returns flattened entries for every appointment intersecting
// [from, to], scoped to the caller's visibility.
func (s *Service) Calendar(ctx context.Context, ident auth.Identity, doctorID *uuid.UUID, from, to time.Time) ([]*CalendarEntry, error) {
	if !to.After(from) {
		return nil, apperr.Validation("to must be after from")
	}
	return s.repo.Calendar(ctx, ident, doctorID, from, to)
}

// ReminderWindow returns the interval of start times due for a reminder at
// the given instant.
func (s *Service) ReminderWindow(now time.Time) (time.Time, time.Time) {
	target := now.Add(s.reminderLead)
	return target.Add(-s.reminderTolerance), target.Add(s.reminderTolerance)
}

// ReminderCandidates lists scheduled, not-yet-reminded appointments starting
// within the reminder window around now.
func (s *Service) ReminderCandidates(ctx context.Context, now time.Time) ([]*ReminderCandidate, error) {
	from, to := s.ReminderWindow(now)
	return s.repo.ReminderCandidates(ctx, from, to)
}

// MarkReminderSent records a confirmed delivery. Calling it again for the
// same appointment is a no-op.
func (s *Service) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkReminderSent(ctx, id)
}

// Exists reports whether an appointment row exists, in any status and
// without role scoping. Treatments use it to validate references.
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
