package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinicore/internal/domain/treatment"
	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/internal/platform/authz"
	"github.com/clinicore/clinicore/internal/platform/db"
	"github.com/clinicore/clinicore/pkg/apperr"
)

// TreatmentSource is the slice of the treatment domain billing depends on.
type TreatmentSource interface {
	ForInvoice(ctx context.Context, ids []uuid.UUID, doctorID *uuid.UUID) ([]*treatment.Treatment, error)
}

// PatientDirectory is the slice of the patient domain billing depends on.
type PatientDirectory interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// maxNumberAttempts bounds the allocate-insert retry loop on invoice number
// collisions.
const maxNumberAttempts = 5

// invoiceNumberConstraint is the unique index guarding invoice_number.
const invoiceNumberConstraint = "invoices_invoice_number_key"

type Service struct {
	repo       Repository
	treatments TreatmentSource
	patients   PatientDirectory
	allocator  *NumberAllocator
	tx         db.TxRunner
}

func NewService(repo Repository, treatments TreatmentSource, patients PatientDirectory, tx db.TxRunner) *Service {
	return &Service{
		repo:       repo,
		treatments: treatments,
		patients:   patients,
		allocator:  NewNumberAllocator(repo),
		tx:         tx,
	}
}

// Create issues an invoice over a set of treatments: it snapshots each
// treatment's description and cost into items, freezes the total, allocates
// the next invoice number and persists everything in one transaction.
// When the allocated number loses a race to a concurrent insert, the whole
// attempt rolls back and is retried with a fresh number.
func (s *Service) Create(ctx context.Context, ident auth.Identity, in CreateInput) (*Invoice, error) {
	if err := authz.Can(ident, authz.ResourceInvoices, authz.ActionWrite); err != nil {
		return nil, err
	}
	if in.PatientID == uuid.Nil {
		return nil, apperr.Validation("patient_id is required")
	}
	if len(in.TreatmentIDs) == 0 {
		return nil, apperr.Validation("at least one treatment is required")
	}
	seen := make(map[uuid.UUID]struct{}, len(in.TreatmentIDs))
	for _, id := range in.TreatmentIDs {
		if _, dup := seen[id]; dup {
			return nil, apperr.Validation("duplicate treatment id %s", id)
		}
		seen[id] = struct{}{}
	}

	ok, err := s.patients.Exists(ctx, in.PatientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Validation("patient does not exist")
	}

	// A dentist can only invoice their own treatments; the scoped fetch drops
	// foreign rows so they surface as not found, same as missing ones.
	var doctorID *uuid.UUID
	if ident.IsDentist() {
		doctorID = &ident.ID
	}
	rows, err := s.treatments.ForInvoice(ctx, in.TreatmentIDs, doctorID)
	if err != nil {
		return nil, err
	}
	if len(rows) != len(in.TreatmentIDs) {
		return nil, apperr.NotFound("one or more treatments not found")
	}
	byID := make(map[uuid.UUID]*treatment.Treatment, len(rows))
	for _, tr := range rows {
		if tr.PatientID != in.PatientID {
			return nil, apperr.Validation("treatment %s belongs to a different patient", tr.ID)
		}
		byID[tr.ID] = tr
	}

	inv := &Invoice{
		PatientID: in.PatientID,
		Status:    StatusPending,
		IssueDate: time.Now(),
		DueDate:   in.DueDate,
		Notes:     in.Notes,
	}
	for _, id := range in.TreatmentIDs {
		tr := byID[id]
		inv.Items = append(inv.Items, &InvoiceItem{
			TreatmentID: tr.ID,
			Description: itemDescription(tr),
			Amount:      tr.Cost,
		})
		inv.TotalAmount += tr.Cost
	}

	var lastErr error
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		err := s.tx.InTx(ctx, func(txCtx context.Context) error {
			number, err := s.allocator.Next(txCtx, inv.IssueDate)
			if err != nil {
				return err
			}
			inv.InvoiceNumber = number
			return s.repo.CreateWithItems(txCtx, inv)
		})
		if err == nil {
			return inv, nil
		}
		if !db.UniqueViolation(err, invoiceNumberConstraint) {
			return nil, err
		}
		lastErr = err
	}
	return nil, apperr.Internal(lastErr, "invoice number allocation exhausted after %d attempts", maxNumberAttempts)
}

func itemDescription(tr *treatment.Treatment) string {
	if tr.Description != nil && *tr.Description != "" {
		return fmt.Sprintf("%s: %s", tr.TreatmentType, *tr.Description)
	}
	return tr.TreatmentType
}

func (s *Service) get(ctx context.Context, ident auth.Identity, id uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) && authz.CollapseNotFound(ident, authz.ResourceInvoices) {
			return nil, apperr.Wrap(apperr.KindAuthorization, err, "access denied")
		}
		return nil, err
	}
	if ident.IsDentist() {
		doctors, err := s.repo.ItemDoctors(ctx, inv.ID)
		if err != nil {
			return nil, err
		}
		if err := authz.Owns(ident, authz.ResourceInvoices, authz.OwnedBy(doctors...)); err != nil {
			return nil, err
		}
	}
	return inv, nil
}

func (s *Service) Get(ctx context.Context, ident auth.Identity, id uuid.UUID) (*Invoice, error) {
	return s.get(ctx, ident, id)
}

// RecordPayment sets the absolute amount paid so far and re-derives the
// status from it. The caller never supplies a status on this path, and a
// rejected payment leaves the stored invoice untouched.
func (s *Service) RecordPayment(ctx context.Context, ident auth.Identity, id uuid.UUID, in PaymentInput) (*Invoice, error) {
	if err := authz.Can(ident, authz.ResourceInvoices, authz.ActionWrite); err != nil {
		return nil, err
	}
	inv, err := s.get(ctx, ident, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == StatusCancelled {
		return nil, apperr.Validation("cannot record a payment on a cancelled invoice")
	}
	if err := ValidatePayment(in.PaidAmount, inv.TotalAmount); err != nil {
		return nil, err
	}

	inv.PaidAmount = in.PaidAmount
	inv.Status = DeriveStatus(inv.PaidAmount, inv.TotalAmount)
	if in.Notes != nil {
		inv.Notes = in.Notes
	}
	if err := s.repo.UpdatePayment(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

// Cancel is the one non-derived status write, reserved for admins.
func (s *Service) Cancel(ctx context.Context, ident auth.Identity, id uuid.UUID) (*Invoice, error) {
	if err := authz.Can(ident, authz.ResourceInvoices, authz.ActionDelete); err != nil {
		return nil, err
	}
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Status = StatusCancelled
	if err := s.repo.UpdateStatus(ctx, inv.ID, StatusCancelled); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) Delete(ctx context.Context, ident auth.Identity, id uuid.UUID) error {
	if err := authz.Can(ident, authz.ResourceInvoices, authz.ActionDelete); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, ident auth.Identity, f SearchFilter, limit, offset int) ([]*Invoice, int, error) {
	if f.Status != "" && !ValidStatus(f.Status) {
		return nil, 0, apperr.Validation("unknown status %q", f.Status)
	}
	return s.repo.Search(ctx, ident, f, limit, offset)
}

// Reminder computes the outstanding-balance payload for an invoice.
func (s *Service) Reminder(ctx context.Context, ident auth.Identity, id uuid.UUID) (*ReminderPayload, error) {
	inv, err := s.get(ctx, ident, id)
	if err != nil {
		return nil, err
	}
	payload := Payload(inv)
	return &payload, nil
}
