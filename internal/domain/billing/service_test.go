package billing

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicore/clinicore/internal/domain/treatment"
	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/pkg/apperr"
)

// -- Mocks --

// mockRepo reproduces the storage semantics the service leans on, in
// particular the unique index on invoice_number: a second insert with a taken
// number fails with the same pg error the real index raises.
type mockRepo struct {
	mu       sync.Mutex
	invoices map[uuid.UUID]*Invoice
	byNumber map[string]uuid.UUID
	trs      map[uuid.UUID]*treatment.Treatment

	createCalls    int
	forceConflicts int
	createErr      error
}

func numberConflict() *pgconn.PgError {
	return &pgconn.PgError{Code: "23505", ConstraintName: invoiceNumberConstraint}
}

func (m *mockRepo) CreateWithItems(_ context.Context, inv *Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.createErr != nil {
		return m.createErr
	}
	if m.forceConflicts > 0 {
		m.forceConflicts--
		return numberConflict()
	}
	if _, taken := m.byNumber[inv.InvoiceNumber]; taken {
		return numberConflict()
	}
	inv.ID = uuid.New()
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = time.Now()
	cp := *inv
	cp.Items = nil
	for _, item := range inv.Items {
		item.ID = uuid.New()
		item.InvoiceID = inv.ID
		ic := *item
		cp.Items = append(cp.Items, &ic)
	}
	m.invoices[inv.ID] = &cp
	m.byNumber[inv.InvoiceNumber] = inv.ID
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return nil, apperr.NotFound("invoice not found")
	}
	cp := *inv
	cp.Items = nil
	for _, item := range inv.Items {
		ic := *item
		cp.Items = append(cp.Items, &ic)
	}
	return &cp, nil
}

func (m *mockRepo) UpdatePayment(_ context.Context, inv *Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.invoices[inv.ID]
	if !ok {
		return apperr.NotFound("invoice not found")
	}
	stored.PaidAmount = inv.PaidAmount
	stored.Status = inv.Status
	stored.Notes = inv.Notes
	return nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.invoices[id]
	if !ok {
		return apperr.NotFound("invoice not found")
	}
	stored.Status = status
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return apperr.NotFound("invoice not found")
	}
	delete(m.byNumber, inv.InvoiceNumber)
	delete(m.invoices, id)
	return nil
}

func (m *mockRepo) itemDoctors(inv *Invoice) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, item := range inv.Items {
		tr, ok := m.trs[item.TreatmentID]
		if !ok || seen[tr.DoctorID] {
			continue
		}
		seen[tr.DoctorID] = true
		ids = append(ids, tr.DoctorID)
	}
	return ids
}

func (m *mockRepo) Search(_ context.Context, ident auth.Identity, f SearchFilter, limit, offset int) ([]*Invoice, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*Invoice
	for _, inv := range m.invoices {
		if ident.IsDentist() {
			mine := false
			for _, docID := range m.itemDoctors(inv) {
				if docID == ident.ID {
					mine = true
					break
				}
			}
			if !mine {
				continue
			}
		}
		if f.PatientID != nil && inv.PatientID != *f.PatientID {
			continue
		}
		if f.Status != "" && inv.Status != f.Status {
			continue
		}
		result = append(result, inv)
	}
	return result, len(result), nil
}

func (m *mockRepo) ItemDoctors(_ context.Context, invoiceID uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[invoiceID]
	if !ok {
		return nil, nil
	}
	return m.itemDoctors(inv), nil
}

func (m *mockRepo) MaxNumberForDay(_ context.Context, prefix string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := ""
	for number := range m.byNumber {
		if strings.HasPrefix(number, prefix) && number > max {
			max = number
		}
	}
	return max, nil
}

type fakeTreatments struct {
	items map[uuid.UUID]*treatment.Treatment
}

func (f *fakeTreatments) ForInvoice(_ context.Context, ids []uuid.UUID, doctorID *uuid.UUID) ([]*treatment.Treatment, error) {
	var out []*treatment.Treatment
	for _, id := range ids {
		tr, ok := f.items[id]
		if !ok {
			continue
		}
		if doctorID != nil && tr.DoctorID != *doctorID {
			continue
		}
		out = append(out, tr)
	}
	return out, nil
}

type fakePatients struct{ ids map[uuid.UUID]bool }

func (f *fakePatients) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	return f.ids[id], nil
}

type stubTx struct{}

func (stubTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type testEnv struct {
	svc        *Service
	repo       *mockRepo
	treatments *fakeTreatments
	patients   *fakePatients
	patient    uuid.UUID
	doctor     uuid.UUID
}

func newTestEnv() *testEnv {
	trs := make(map[uuid.UUID]*treatment.Treatment)
	repo := &mockRepo{
		invoices: make(map[uuid.UUID]*Invoice),
		byNumber: make(map[string]uuid.UUID),
		trs:      trs,
	}
	treatments := &fakeTreatments{items: trs}
	patients := &fakePatients{ids: make(map[uuid.UUID]bool)}
	env := &testEnv{
		svc:        NewService(repo, treatments, patients, stubTx{}),
		repo:       repo,
		treatments: treatments,
		patients:   patients,
		patient:    uuid.New(),
		doctor:     uuid.New(),
	}
	patients.ids[env.patient] = true
	return env
}

func adminIdent() auth.Identity {
	return auth.Identity{ID: uuid.New(), Role: auth.RoleAdmin}
}

func receptionistIdent() auth.Identity {
	return auth.Identity{ID: uuid.New(), Role: auth.RoleReceptionist}
}

func dentistIdent(id uuid.UUID) auth.Identity {
	return auth.Identity{ID: id, Role: auth.RoleDentist}
}

func (env *testEnv) addTreatment(doctorID uuid.UUID, treatmentType string, cost float64) *treatment.Treatment {
	tr := &treatment.Treatment{
		ID:            uuid.New(),
		PatientID:     env.patient,
		DoctorID:      doctorID,
		TreatmentType: treatmentType,
		Cost:          cost,
		TreatmentDate: time.Now(),
	}
	env.treatments.items[tr.ID] = tr
	return tr
}

func (env *testEnv) issue(t *testing.T, treatmentIDs ...uuid.UUID) *Invoice {
	t.Helper()
	inv, err := env.svc.Create(context.Background(), adminIdent(), CreateInput{
		PatientID:    env.patient,
		TreatmentIDs: treatmentIDs,
	})
	if err != nil {
		t.Fatalf("issue invoice: %v", err)
	}
	return inv
}

// -- Tests --

func TestCreateInvoice(t *testing.T) {
	env := newTestEnv()
	a := env.addTreatment(env.doctor, "filling", 100)
	b := env.addTreatment(env.doctor, "cleaning", 50)

	inv := env.issue(t, a.ID, b.ID)

	wantNumber := "INV-" + time.Now().Format("20060102") + "-0001"
	if inv.InvoiceNumber != wantNumber {
		t.Errorf("number = %q, want %q", inv.InvoiceNumber, wantNumber)
	}
	if inv.TotalAmount != 150 {
		t.Errorf("total = %v, want 150", inv.TotalAmount)
	}
	if inv.PaidAmount != 0 || inv.Status != StatusPending {
		t.Errorf("fresh invoice = %v paid, status %q", inv.PaidAmount, inv.Status)
	}
	if len(inv.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(inv.Items))
	}
	if inv.Items[0].TreatmentID != a.ID || inv.Items[1].TreatmentID != b.ID {
		t.Error("items should keep the requested order")
	}
	if inv.Items[0].Amount != 100 || inv.Items[1].Amount != 50 {
		t.Error("item amounts should snapshot the treatment costs")
	}
	if inv.Items[0].Description != "filling" {
		t.Errorf("description = %q", inv.Items[0].Description)
	}
}

func TestCreateInvoice_SnapshotSurvivesCostEdit(t *testing.T) {
	env := newTestEnv()
	a := env.addTreatment(env.doctor, "filling", 100)
	inv := env.issue(t, a.ID)

	a.Cost = 500

	stored, err := env.repo.GetByID(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.TotalAmount != 100 || stored.Items[0].Amount != 100 {
		t.Error("issued invoice must keep the snapshot amounts")
	}
}

func TestCreateInvoice_SequentialNumbers(t *testing.T) {
	env := newTestEnv()

	want := map[string]bool{}
	prefix := "INV-" + time.Now().Format("20060102") + "-"
	for i := 1; i <= 3; i++ {
		tr := env.addTreatment(env.doctor, "filling", 10)
		inv := env.issue(t, tr.ID)
		want[inv.InvoiceNumber] = true
		if !strings.HasPrefix(inv.InvoiceNumber, prefix) {
			t.Errorf("number %q missing day prefix %q", inv.InvoiceNumber, prefix)
		}
	}
	for _, n := range []string{prefix + "0001", prefix + "0002", prefix + "0003"} {
		if !want[n] {
			t.Errorf("missing number %s in %v", n, want)
		}
	}
}

func TestCreateInvoice_ConcurrentSameDay(t *testing.T) {
	env := newTestEnv()

	const n = 4
	inputs := make([]CreateInput, n)
	for i := range inputs {
		tr := env.addTreatment(env.doctor, "filling", 10)
		inputs[i] = CreateInput{PatientID: env.patient, TreatmentIDs: []uuid.UUID{tr.ID}}
	}

	var wg sync.WaitGroup
	results := make([]*Invoice, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.svc.Create(context.Background(), adminIdent(), inputs[i])
		}(i)
	}
	wg.Wait()

	got := map[string]bool{}
	for i, err := range errs {
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		got[results[i].InvoiceNumber] = true
	}
	if len(got) != n {
		t.Fatalf("distinct numbers = %d, want %d: %v", len(got), n, got)
	}
	prefix := "INV-" + time.Now().Format("20060102") + "-"
	for i := 1; i <= n; i++ {
		want := fmt.Sprintf("%s%04d", prefix, i)
		if !got[want] {
			t.Errorf("missing number %s in %v", want, got)
		}
	}
}

func TestCreateInvoice_Validation(t *testing.T) {
	env := newTestEnv()
	tr := env.addTreatment(env.doctor, "filling", 100)

	foreign := &treatment.Treatment{
		ID:            uuid.New(),
		PatientID:     uuid.New(),
		DoctorID:      env.doctor,
		TreatmentType: "filling",
		Cost:          10,
	}
	env.treatments.items[foreign.ID] = foreign

	cases := []struct {
		name string
		in   CreateInput
	}{
		{"missing patient", CreateInput{TreatmentIDs: []uuid.UUID{tr.ID}}},
		{"empty treatments", CreateInput{PatientID: env.patient}},
		{"duplicate treatments", CreateInput{PatientID: env.patient, TreatmentIDs: []uuid.UUID{tr.ID, tr.ID}}},
		{"unknown patient", CreateInput{PatientID: uuid.New(), TreatmentIDs: []uuid.UUID{tr.ID}}},
		{"foreign patient treatment", CreateInput{PatientID: env.patient, TreatmentIDs: []uuid.UUID{foreign.ID}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.Create(context.Background(), adminIdent(), tc.in)
			if !apperr.IsKind(err, apperr.KindValidation) {
				t.Errorf("error = %v, want validation error", err)
			}
		})
	}
}

func TestCreateInvoice_UnknownTreatment(t *testing.T) {
	env := newTestEnv()
	tr := env.addTreatment(env.doctor, "filling", 100)

	_, err := env.svc.Create(context.Background(), adminIdent(), CreateInput{
		PatientID:    env.patient,
		TreatmentIDs: []uuid.UUID{tr.ID, uuid.New()},
	})
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("error = %v, want not found", err)
	}
	if !strings.Contains(err.Error(), "one or more treatments not found") {
		t.Errorf("message = %q should name no ids", err.Error())
	}
}

func TestCreateInvoice_DentistScope(t *testing.T) {
	env := newTestEnv()
	mine := env.addTreatment(env.doctor, "filling", 100)
	other := env.addTreatment(uuid.New(), "cleaning", 50)

	// A foreign treatment is indistinguishable from a missing one.
	_, err := env.svc.Create(context.Background(), dentistIdent(env.doctor), CreateInput{
		PatientID:    env.patient,
		TreatmentIDs: []uuid.UUID{mine.ID, other.ID},
	})
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("error = %v, want not found", err)
	}

	inv, err := env.svc.Create(context.Background(), dentistIdent(env.doctor), CreateInput{
		PatientID:    env.patient,
		TreatmentIDs: []uuid.UUID{mine.ID},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.TotalAmount != 100 {
		t.Errorf("total = %v, want 100", inv.TotalAmount)
	}
}

func TestCreateInvoice_RetriesOnNumberCollision(t *testing.T) {
	env := newTestEnv()
	tr := env.addTreatment(env.doctor, "filling", 100)
	env.repo.forceConflicts = 2

	inv, err := env.svc.Create(context.Background(), adminIdent(), CreateInput{
		PatientID:    env.patient,
		TreatmentIDs: []uuid.UUID{tr.ID},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.repo.createCalls != 3 {
		t.Errorf("insert attempts = %d, want 3", env.repo.createCalls)
	}
	if inv.InvoiceNumber == "" {
		t.Error("winning attempt must carry a number")
	}
}

func TestCreateInvoice_RetryExhausted(t *testing.T) {
	env := newTestEnv()
	tr := env.addTreatment(env.doctor, "filling", 100)
	env.repo.forceConflicts = maxNumberAttempts

	_, err := env.svc.Create(context.Background(), adminIdent(), CreateInput{
		PatientID:    env.patient,
		TreatmentIDs: []uuid.UUID{tr.ID},
	})
	if !apperr.IsKind(err, apperr.KindInternal) {
		t.Errorf("error = %v, want internal", err)
	}
	if env.repo.createCalls != maxNumberAttempts {
		t.Errorf("insert attempts = %d, want %d", env.repo.createCalls, maxNumberAttempts)
	}
}

func TestCreateInvoice_OtherErrorsNotRetried(t *testing.T) {
	env := newTestEnv()
	tr := env.addTreatment(env.doctor, "filling", 100)
	env.repo.createErr = &pgconn.PgError{Code: "23503", ConstraintName: "invoice_items_treatment_id_fkey"}

	_, err := env.svc.Create(context.Background(), adminIdent(), CreateInput{
		PatientID:    env.patient,
		TreatmentIDs: []uuid.UUID{tr.ID},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if env.repo.createCalls != 1 {
		t.Errorf("insert attempts = %d, want 1", env.repo.createCalls)
	}
}

func TestRecordPayment(t *testing.T) {
	env := newTestEnv()
	tr := env.addTreatment(env.doctor, "filling", 150)
	inv := env.issue(t, tr.ID)

	paid, err := env.svc.RecordPayment(context.Background(), receptionistIdent(), inv.ID, PaymentInput{PaidAmount: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if paid.Status != StatusPartial || paid.PaidAmount != 50 {
		t.Errorf("after 50: status %q, paid %v", paid.Status, paid.PaidAmount)
	}

	// The amount is absolute, not an increment.
	paid, err = env.svc.RecordPayment(context.Background(), receptionistIdent(), inv.ID, PaymentInput{PaidAmount: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if paid.PaidAmount != 100 || paid.Status != StatusPartial {
		t.Errorf("after absolute 100: status %q, paid %v", paid.Status, paid.PaidAmount)
	}

	paid, err = env.svc.RecordPayment(context.Background(), receptionistIdent(), inv.ID, PaymentInput{PaidAmount: 150})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if paid.Status != StatusPaid {
		t.Errorf("after full payment: status %q, want paid", paid.Status)
	}

	paid, err = env.svc.RecordPayment(context.Background(), receptionistIdent(), inv.ID, PaymentInput{PaidAmount: 0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if paid.Status != StatusPending {
		t.Errorf("after reset to 0: status %q, want pending", paid.Status)
	}
}

func TestRecordPayment_RejectedLeavesStateUntouched(t *testing.T) {
	env := newTestEnv()
	tr := env.addTreatment(env.doctor, "filling", 150)
	inv := env.issue(t, tr.ID)

	for _, amount := range []float64{-10, 150.01} {
		_, err := env.svc.RecordPayment(context.Background(), adminIdent(), inv.ID, PaymentInput{PaidAmount: amount})
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("amount %v: error = %v, want validation", amount, err)
		}
	}

	stored, _ := env.repo.GetByID(context.Background(), inv.ID)
	if stored.PaidAmount != 0 || stored.Status != StatusPending {
		t.Errorf("stored invoice changed: paid %v, status %q", stored.PaidAmount, stored.Status)
	}
}

func TestRecordPayment_CancelledInvoice(t *testing.T) {
	env := newTestEnv()
	tr := env.addTreatment(env.doctor, "filling", 150)
	inv := env.issue(t, tr.ID)

	if _, err := env.svc.Cancel(context.Background(), adminIdent(), inv.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := env.svc.RecordPayment(context.Background(), adminIdent(), inv.ID, PaymentInput{PaidAmount: 50})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("error = %v, want validation", err)
	}
}

func TestRecordPayment_DentistScope(t *testing.T) {
	env := newTestEnv()
	tr := env.addTreatment(env.doctor, "filling", 150)
	inv := env.issue(t, tr.ID)

	_, err := env.svc.RecordPayment(context.Background(), dentistIdent(uuid.New()), inv.ID, PaymentInput{PaidAmount: 50})
	if apperr.KindOf(err) != apperr.KindAuthorization {
		t.Errorf("foreign dentist error = %v, want authorization", err)
	}

	if _, err := env.svc.RecordPayment(context.Background(), dentistIdent(env.doctor), inv.ID, PaymentInput{PaidAmount: 50}); err != nil {
		t.Fatalf("own invoice: %v", err)
	}
}

func TestCancelInvoice_AdminOnly(t *testing.T) {
	env := newTestEnv()
	tr := env.addTreatment(env.doctor, "filling", 150)
	inv := env.issue(t, tr.ID)

	for _, ident := range []auth.Identity{receptionistIdent(), dentistIdent(env.doctor)} {
		if _, err := env.svc.Cancel(context.Background(), ident, inv.ID); !apperr.IsKind(err, apperr.KindAuthorization) {
			t.Errorf("%s cancel error = %v, want authorization", ident.Role, err)
		}
	}

	cancelled, err := env.svc.Cancel(context.Background(), adminIdent(), inv.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("status = %q, want cancelled", cancelled.Status)
	}
}

func TestDeleteInvoice_AdminOnly(t *testing.T) {
	env := newTestEnv()
	tr := env.addTreatment(env.doctor, "filling", 150)
	inv := env.issue(t, tr.ID)

	if err := env.svc.Delete(context.Background(), dentistIdent(env.doctor), inv.ID); !apperr.IsKind(err, apperr.KindAuthorization) {
		t.Errorf("dentist delete error = %v, want authorization", err)
	}
	if err := env.svc.Delete(context.Background(), adminIdent(), inv.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := env.repo.GetByID(context.Background(), inv.ID); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Error("row should be gone")
	}
}

func TestGetInvoice_Scope(t *testing.T) {
	env := newTestEnv()
	tr := env.addTreatment(env.doctor, "filling", 150)
	inv := env.issue(t, tr.ID)

	if _, err := env.svc.Get(context.Background(), dentistIdent(env.doctor), inv.ID); err != nil {
		t.Fatalf("own invoice: %v", err)
	}

	_, err := env.svc.Get(context.Background(), dentistIdent(uuid.New()), inv.ID)
	if apperr.KindOf(err) != apperr.KindAuthorization {
		t.Errorf("foreign invoice error = %v, want authorization", err)
	}

	_, err = env.svc.Get(context.Background(), dentistIdent(uuid.New()), uuid.New())
	if apperr.KindOf(err) != apperr.KindAuthorization {
		t.Errorf("missing invoice error = %v, want authorization", err)
	}
	if !apperr.HasKind(err, apperr.KindNotFound) {
		t.Error("underlying not-found should remain in the chain")
	}

	_, err = env.svc.Get(context.Background(), adminIdent(), uuid.New())
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("admin missing invoice error = %v, want not found", err)
	}
}

func TestListInvoices(t *testing.T) {
	env := newTestEnv()
	mine := env.addTreatment(env.doctor, "filling", 100)
	env.issue(t, mine.ID)
	other := env.addTreatment(uuid.New(), "cleaning", 50)
	env.issue(t, other.ID)

	visible, total, err := env.svc.List(context.Background(), dentistIdent(env.doctor), SearchFilter{}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(visible) != 1 {
		t.Errorf("dentist sees %d (total %d), want 1", len(visible), total)
	}

	_, total, err = env.svc.List(context.Background(), adminIdent(), SearchFilter{Status: StatusPending}, 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 {
		t.Errorf("admin sees total %d, want 2", total)
	}

	_, _, err = env.svc.List(context.Background(), adminIdent(), SearchFilter{Status: "overdue"}, 20, 0)
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("error = %v, want validation", err)
	}
}

func TestInvoiceReminder(t *testing.T) {
	env := newTestEnv()
	tr := env.addTreatment(env.doctor, "filling", 150)
	inv := env.issue(t, tr.ID)

	if _, err := env.svc.RecordPayment(context.Background(), adminIdent(), inv.ID, PaymentInput{PaidAmount: 50}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	payload, err := env.svc.Reminder(context.Background(), adminIdent(), inv.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.InvoiceNumber != inv.InvoiceNumber {
		t.Errorf("number = %q", payload.InvoiceNumber)
	}
	if payload.BalanceDue != 100 || payload.BalanceFormatted != "100.00" {
		t.Errorf("balance = %v (%q)", payload.BalanceDue, payload.BalanceFormatted)
	}
}
