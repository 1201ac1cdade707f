package treatment

import (
	"context"
	"errors"
	"fmt"

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

const treatmentCols = `id, patient_id, doctor_id, appointment_id, treatment_type, description, cost, treatment_date, created_at, updated_at`

func (r *repoPG) scanTreatment(row pgx.Row) (*Treatment, error) {
	var t Treatment
	err := row.Scan(&t.ID, &t.PatientID, &t.DoctorID, &t.AppointmentID, &t.TreatmentType, &t.Description, &t.Cost, &t.TreatmentDate, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("treatment not found")
	}
	return &t, err
}

func (r *repoPG) Create(ctx context.Context, t *Treatment) error {
	t.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO treatments (id, patient_id, doctor_id, appointment_id, treatment_type, description, cost, treatment_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		t.ID, t.PatientID, t.DoctorID, t.AppointmentID, t.TreatmentType, t.Description, t.Cost, t.TreatmentDate)
	if db.ForeignKeyViolation(err) {
		return apperr.Validation("referenced patient, doctor or appointment does not exist")
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Treatment, error) {
	return r.scanTreatment(r.conn(ctx).QueryRow(ctx, `SELECT `+treatmentCols+` FROM treatments WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, t *Treatment) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE treatments SET treatment_type=$2, description=$3, cost=$4, treatment_date=$5, updated_at=NOW()
		WHERE id = $1`,
		t.ID, t.TreatmentType, t.Description, t.Cost, t.TreatmentDate)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM treatments WHERE id = $1`, id)
	if db.ForeignKeyViolation(err) {
		return apperr.Conflict("treatment is referenced by an invoice")
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("treatment not found")
	}
	return nil
}

func (r *repoPG) Search(ctx context.Context, ident auth.Identity, f SearchFilter, limit, offset int) ([]*Treatment, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	argIdx := 1
	if f.PatientID != nil {
		where += fmt.Sprintf(" AND patient_id = $%d", argIdx)
		args = append(args, *f.PatientID)
		argIdx++
	}
	if f.DoctorID != nil {
		where += fmt.Sprintf(" AND doctor_id = $%d", argIdx)
		args = append(args, *f.DoctorID)
		argIdx++
	}
	if f.Type != "" {
		where += fmt.Sprintf(" AND treatment_type = $%d", argIdx)
		args = append(args, f.Type)
		argIdx++
	}
	if f.From != nil {
		where += fmt.Sprintf(" AND treatment_date >= $%d", argIdx)
		args = append(args, *f.From)
		argIdx++
	}
	if f.To != nil {
		where += fmt.Sprintf(" AND treatment_date <= $%d", argIdx)
		args = append(args, *f.To)
		argIdx++
	}

	scope, scopeArgs, next := authz.Filter(ident, authz.ResourceTreatments, "", argIdx)
	where += scope
	args = append(args, scopeArgs...)
	argIdx = next

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM treatments`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + treatmentCols + ` FROM treatments` + where +
		fmt.Sprintf(" ORDER BY treatment_date DESC, created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Treatment
	for rows.Next() {
		t, err := r.scanTreatment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	return items, total, rows.Err()
}

func (r *repoPG) GetByIDs(ctx context.Context, ids []uuid.UUID, doctorID *uuid.UUID) ([]*Treatment, error) {
	query := `SELECT ` + treatmentCols + ` FROM treatments WHERE id = ANY($1)`
	args := []interface{}{ids}
	if doctorID != nil {
		query += ` AND doctor_id = $2`
		args = append(args, *doctorID)
	}
	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Treatment
	for rows.Next() {
		t, err := r.scanTreatment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
