package billing

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/platform/auth"
)

// Repository is the storage port for invoices and their items.
type Repository interface {
	// CreateWithItems persists the invoice and all of its items. A duplicate
	// invoice number surfaces as the raw unique-violation error so the caller
	// can re-allocate and retry; callers run the whole attempt in one
	// transaction.
	CreateWithItems(ctx context.Context, inv *Invoice) error
	// GetByID loads the invoice with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	// UpdatePayment writes paid_amount, status and notes.
	UpdatePayment(ctx context.Context, inv *Invoice) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
	// Search applies the caller's row visibility on top of the filter and
	// loads items for every returned invoice.
	Search(ctx context.Context, ident auth.Identity, f SearchFilter, limit, offset int) ([]*Invoice, int, error)
	// ItemDoctors returns the distinct doctors behind the invoice's items.
	ItemDoctors(ctx context.Context, invoiceID uuid.UUID) ([]uuid.UUID, error)
	NumberSource
}
