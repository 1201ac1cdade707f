package billing

import (
	"time"

	"github.com/google/uuid"
)

// Invoice statuses. pending, partial and paid are derived from the payment
// position; cancelled is set only by an explicit admin action.
const (
	StatusPending   = "pending"
	StatusPartial   = "partial"
	StatusPaid      = "paid"
	StatusCancelled = "cancelled"
)

var validStatuses = map[string]bool{
	StatusPending:   true,
	StatusPartial:   true,
	StatusPaid:      true,
	StatusCancelled: true,
}

// ValidStatus reports whether s is a known invoice status.
func ValidStatus(s string) bool { return validStatuses[s] }

// Invoice maps to the invoices table. TotalAmount and the item amounts are
// frozen at creation; later treatment cost edits do not reach issued
// invoices.
type Invoice struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	InvoiceNumber string         `db:"invoice_number" json:"invoice_number"`
	PatientID     uuid.UUID      `db:"patient_id" json:"patient_id"`
	TotalAmount   float64        `db:"total_amount" json:"total_amount"`
	PaidAmount    float64        `db:"paid_amount" json:"paid_amount"`
	Status        string         `db:"status" json:"status"`
	IssueDate     time.Time      `db:"issue_date" json:"issue_date"`
	DueDate       *time.Time     `db:"due_date" json:"due_date,omitempty"`
	Notes         *string        `db:"notes" json:"notes,omitempty"`
	Items         []*InvoiceItem `json:"items"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// InvoiceItem snapshots one treatment's description and cost at the moment
// the invoice was issued.
type InvoiceItem struct {
	ID          uuid.UUID `db:"id" json:"id"`
	InvoiceID   uuid.UUID `db:"invoice_id" json:"invoice_id"`
	TreatmentID uuid.UUID `db:"treatment_id" json:"treatment_id"`
	Description string    `db:"description" json:"description"`
	Amount      float64   `db:"amount" json:"amount"`
}

// CreateInput carries the fields accepted when issuing an invoice.
type CreateInput struct {
	PatientID    uuid.UUID   `json:"patient_id"`
	TreatmentIDs []uuid.UUID `json:"treatment_ids"`
	DueDate      *time.Time  `json:"due_date"`
	Notes        *string     `json:"notes"`
}

// PaymentInput records the absolute amount paid so far, not an increment.
type PaymentInput struct {
	PaidAmount float64 `json:"paid_amount"`
	Notes      *string `json:"notes"`
}

// SearchFilter narrows an invoice listing. From and To bound the issue date.
type SearchFilter struct {
	PatientID *uuid.UUID
	Status    string
	From      *time.Time
	To        *time.Time
}

// ReminderPayload is the single source for outstanding-balance figures used
// by payment reminders and exports.
type ReminderPayload struct {
	InvoiceNumber    string     `json:"invoice_number"`
	PatientID        uuid.UUID  `json:"patient_id"`
	TotalAmount      float64    `json:"total_amount"`
	PaidAmount       float64    `json:"paid_amount"`
	BalanceDue       float64    `json:"balance_due"`
	TotalFormatted   string     `json:"total_formatted"`
	BalanceFormatted string     `json:"balance_formatted"`
	DueDate          *time.Time `json:"due_date,omitempty"`
}
