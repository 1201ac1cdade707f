package billing

import (
	"strconv"

	"github.com/clinicore/clinicore/pkg/apperr"
)

// DeriveStatus maps a payment position onto the invoice status: nothing paid
// is pending, anything short of the total is partial, the full total (or
// more, which ValidatePayment rejects upstream) is paid. A zero-total
// invoice with nothing paid stays pending.
func DeriveStatus(paid, total float64) string {
	switch {
	case paid <= 0:
		return StatusPending
	case paid < total:
		return StatusPartial
	default:
		return StatusPaid
	}
}

// ValidatePayment rejects payment positions the ledger can never hold.
func ValidatePayment(paid, total float64) error {
	if paid < 0 {
		return apperr.Validation("paid amount must not be negative")
	}
	if paid > total {
		return apperr.Validation("paid amount %s exceeds invoice total %s", FormatAmount(paid), FormatAmount(total))
	}
	return nil
}

// BalanceDue is the open remainder on an invoice.
func BalanceDue(inv *Invoice) float64 {
	return inv.TotalAmount - inv.PaidAmount
}

// FormatAmount renders a currency value with exactly two decimals. Every
// displayed amount goes through here so reminders, payloads and exports
// agree on formatting.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// Payload computes the reminder view of an invoice.
func Payload(inv *Invoice) ReminderPayload {
	balance := BalanceDue(inv)
	return ReminderPayload{
		InvoiceNumber:    inv.InvoiceNumber,
		PatientID:        inv.PatientID,
		TotalAmount:      inv.TotalAmount,
		PaidAmount:       inv.PaidAmount,
		BalanceDue:       balance,
		TotalFormatted:   FormatAmount(inv.TotalAmount),
		BalanceFormatted: FormatAmount(balance),
		DueDate:          inv.DueDate,
	}
}
