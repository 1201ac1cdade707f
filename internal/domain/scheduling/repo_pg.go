package scheduling

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/authz"
	"github.com/clinicore/clinicore/internal/platform/db"
	"github.com/clinicore/clinicore/pkg/apperr"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const apptCols = `id, patient_id, doctor_id, start_time, end_time, status, notes, reminder_sent, created_at, updated_at`

func (r *repoPG) scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.StartTime, &a.EndTime, &a.Status, &a.Notes, &a.ReminderSent, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("appointment not found")
	}
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, start_time, end_time, status, notes, reminder_sent)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		a.ID, a.PatientID, a.DoctorID, a.StartTime, a.EndTime, a.Status, a.Notes, a.ReminderSent)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return r.scanAppointment(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET start_time=$2, end_time=$3, status=$4, notes=$5, reminder_sent=$6, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.StartTime, a.EndTime, a.Status, a.Notes, a.ReminderSent)
	return err
}

func (r *repoPG) Search(ctx context.Context, ident auth.Identity, f SearchFilter, limit, offset int) ([]*Appointment, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	argIdx := 1
	if f.DoctorID != nil {
		where += fmt.Sprintf(" AND doctor_id = $%d", argIdx)
		args = append(args, *f.DoctorID)
		argIdx++
	}
	if f.PatientID != nil {
		where += fmt.Sprintf(" AND patient_id = $%d", argIdx)
		args = append(args, *f.PatientID)
		argIdx++
	}
	if f.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, f.Status)
		argIdx++
	}
	if f.From != nil {
		where += fmt.Sprintf(" AND start_time >= $%d", argIdx)
		args = append(args, *f.From)
		argIdx++
	}
	if f.To != nil {
		where += fmt.Sprintf(" AND start_time <= $%d", argIdx)
		args = append(args, *f.To)
		argIdx++
	}

	scope, scopeArgs, next := authz.Filter(ident, authz.ResourceAppointments, "", argIdx)
	where += scope
	args = append(args, scopeArgs...)
	argIdx = next

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointments`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + apptCols + ` FROM appointments` + where +
		fmt.Sprintf(" ORDER BY start_time LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := r.scanAppointment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

// ScheduledBetween narrows with the same half-open inequalities the detector
// applies, so the (doctor_id, start_time) index does the heavy lifting.
func (r *repoPG) ScheduledBetween(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointments
		WHERE doctor_id = $1 AND status = $2 AND start_time < $4 AND end_time > $3
		ORDER BY start_time`,
		doctorID, StatusScheduled, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := r.scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// LockDoctor takes a per-doctor advisory transaction lock keyed on the first
// eight bytes of the doctor id.
func (r *repoPG) LockDoctor(ctx context.Context, doctorID uuid.UUID) error {
	key := int64(binary.BigEndian.Uint64(doctorID[:8]))
	_, err := r.conn(ctx).Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, key)
	return err
}

func (r *repoPG) Calendar(ctx context.Context, ident auth.Identity, doctorID *uuid.UUID, from, to time.Time) ([]*CalendarEntry, error) {
	where := ` WHERE a.start_time < $2 AND a.end_time > $1`
	args := []interface{}{from, to}
	argIdx := 3
	if doctorID != nil {
		where += fmt.Sprintf(" AND a.doctor_id = $%d", argIdx)
		args = append(args, *doctorID)
		argIdx++
	}

	scope, scopeArgs, _ := authz.Filter(ident, authz.ResourceAppointments, "a", argIdx)
	where += scope
	args = append(args, scopeArgs...)

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT a.id, p.first_name || ' ' || p.last_name, a.start_time, a.end_time,
			a.doctor_id, s.name, a.status, a.notes
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		JOIN staff_users s ON s.id = a.doctor_id`+where+`
		ORDER BY a.start_time`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []*CalendarEntry
	for rows.Next() {
		var e CalendarEntry
		if err := rows.Scan(&e.ID, &e.Title, &e.Start, &e.End, &e.DoctorID, &e.DoctorName, &e.Status, &e.Notes); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (r *repoPG) ReminderCandidates(ctx context.Context, from, to time.Time) ([]*ReminderCandidate, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT a.id, a.start_time, p.first_name || ' ' || p.last_name, p.email, s.name
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		JOIN staff_users s ON s.id = a.doctor_id
		WHERE a.status = $1 AND NOT a.reminder_sent AND a.start_time BETWEEN $2 AND $3
		ORDER BY a.start_time`,
		StatusScheduled, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*ReminderCandidate
	for rows.Next() {
		var rc ReminderCandidate
		if err := rows.Scan(&rc.AppointmentID, &rc.StartTime, &rc.PatientName, &rc.PatientEmail, &rc.DoctorName); err != nil {
			return nil, err
		}
		items = append(items, &rc)
	}
	return items, rows.Err()
}

func (r *repoPG) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE appointments SET reminder_sent = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("appointment not found")
	}
	return nil
}
