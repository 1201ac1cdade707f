package billing

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

const invoiceCols = `id, invoice_number, patient_id, total_amount, paid_amount, status, issue_date, due_date, notes, created_at, updated_at`

const itemCols = `id, invoice_id, treatment_id, description, amount`

func (r *repoPG) scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.InvoiceNumber, &inv.PatientID, &inv.TotalAmount, &inv.PaidAmount, &inv.Status, &inv.IssueDate, &inv.DueDate, &inv.Notes, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("invoice not found")
	}
	return &inv, err
}

// CreateWithItems returns unique violations on invoice_number unwrapped so
// the service's allocation retry can recognize them.
func (r *repoPG) CreateWithItems(ctx context.Context, inv *Invoice) error {
	inv.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO invoices (id, invoice_number, patient_id, total_amount, paid_amount, status, issue_date, due_date, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		inv.ID, inv.InvoiceNumber, inv.PatientID, inv.TotalAmount, inv.PaidAmount, inv.Status, inv.IssueDate, inv.DueDate, inv.Notes)
	if err != nil {
		return err
	}
	for _, item := range inv.Items {
		item.ID = uuid.New()
		item.InvoiceID = inv.ID
		_, err := r.conn(ctx).Exec(ctx, `
			INSERT INTO invoice_items (id, invoice_id, treatment_id, description, amount)
			VALUES ($1,$2,$3,$4,$5)`,
			item.ID, item.InvoiceID, item.TreatmentID, item.Description, item.Amount)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := r.scanInvoice(r.conn(ctx).QueryRow(ctx, `SELECT `+invoiceCols+` FROM invoices WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	items, err := r.loadItems(ctx, []uuid.UUID{inv.ID})
	if err != nil {
		return nil, err
	}
	inv.Items = items[inv.ID]
	return inv, nil
}

func (r *repoPG) loadItems(ctx context.Context, invoiceIDs []uuid.UUID) (map[uuid.UUID][]*InvoiceItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+itemCols+` FROM invoice_items WHERE invoice_id = ANY($1) ORDER BY id`, invoiceIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	byInvoice := make(map[uuid.UUID][]*InvoiceItem)
	for rows.Next() {
		var item InvoiceItem
		if err := rows.Scan(&item.ID, &item.InvoiceID, &item.TreatmentID, &item.Description, &item.Amount); err != nil {
			return nil, err
		}
		byInvoice[item.InvoiceID] = append(byInvoice[item.InvoiceID], &item)
	}
	return byInvoice, rows.Err()
}

func (r *repoPG) UpdatePayment(ctx context.Context, inv *Invoice) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE invoices SET paid_amount=$2, status=$3, notes=$4, updated_at=NOW()
		WHERE id = $1`,
		inv.ID, inv.PaidAmount, inv.Status, inv.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("invoice not found")
	}
	return nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	tag, err := r.conn(ctx).Exec(ctx, `UPDATE invoices SET status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("invoice not found")
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("invoice not found")
	}
	return nil
}

func (r *repoPG) Search(ctx context.Context, ident auth.Identity, f SearchFilter, limit, offset int) ([]*Invoice, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	argIdx := 1
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
		where += fmt.Sprintf(" AND issue_date >= $%d", argIdx)
		args = append(args, *f.From)
		argIdx++
	}
	if f.To != nil {
		where += fmt.Sprintf(" AND issue_date <= $%d", argIdx)
		args = append(args, *f.To)
		argIdx++
	}

	scope, scopeArgs, next := authz.Filter(ident, authz.ResourceInvoices, "", argIdx)
	where += scope
	args = append(args, scopeArgs...)
	argIdx = next

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM invoices`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + invoiceCols + ` FROM invoices` + where +
		fmt.Sprintf(" ORDER BY invoice_number DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Invoice
	var ids []uuid.UUID
	for rows.Next() {
		inv, err := r.scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, inv)
		ids = append(ids, inv.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(ids) > 0 {
		byInvoice, err := r.loadItems(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for _, inv := range items {
			inv.Items = byInvoice[inv.ID]
		}
	}
	return items, total, nil
}

func (r *repoPG) ItemDoctors(ctx context.Context, invoiceID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT DISTINCT treatments.doctor_id
		FROM invoice_items
		JOIN treatments ON treatments.id = invoice_items.treatment_id
		WHERE invoice_items.invoice_id = $1`, invoiceID)
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

func (r *repoPG) MaxNumberForDay(ctx context.Context, prefix string) (string, error) {
	var number string
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT invoice_number FROM invoices
		WHERE invoice_number LIKE $1
		ORDER BY invoice_number DESC LIMIT 1`, prefix+"%").Scan(&number)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return number, err
}
