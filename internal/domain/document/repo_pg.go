package document

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

const fileCols = `id, patient_id, file_name, content_type, size_bytes, storage_key, uploaded_by, created_at, updated_at`

func (r *repoPG) scanFile(row pgx.Row) (*FileRecord, error) {
	var f FileRecord
	err := row.Scan(&f.ID, &f.PatientID, &f.FileName, &f.ContentType, &f.SizeBytes, &f.StorageKey, &f.UploadedBy, &f.CreatedAt, &f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("file not found")
	}
	return &f, err
}

func (r *repoPG) Create(ctx context.Context, f *FileRecord) error {
	f.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patient_files (id, patient_id, file_name, content_type, size_bytes, storage_key, uploaded_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		f.ID, f.PatientID, f.FileName, f.ContentType, f.SizeBytes, f.StorageKey, f.UploadedBy)
	if db.ForeignKeyViolation(err) {
		return apperr.Validation("referenced patient does not exist")
	}
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*FileRecord, error) {
	return r.scanFile(r.conn(ctx).QueryRow(ctx, `SELECT `+fileCols+` FROM patient_files WHERE id = $1`, id))
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patient_files WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("file not found")
	}
	return nil
}

func (r *repoPG) Search(ctx context.Context, ident auth.Identity, f SearchFilter, limit, offset int) ([]*FileRecord, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	argIdx := 1
	if f.PatientID != nil {
		where += fmt.Sprintf(" AND patient_id = $%d", argIdx)
		args = append(args, *f.PatientID)
		argIdx++
	}

	scope, scopeArgs, next := authz.Filter(ident, authz.ResourceFiles, "", argIdx)
	where += scope
	args = append(args, scopeArgs...)
	argIdx = next

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient_files`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + fileCols + ` FROM patient_files` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*FileRecord
	for rows.Next() {
		f, err := r.scanFile(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, f)
	}
	return items, total, rows.Err()
}

func (r *repoPG) PatientDoctors(ctx context.Context, patientID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT DISTINCT doctor_id FROM appointments WHERE patient_id = $1`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
