package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gestorcontas/contas-desk-go/internal/domain"
	"github.com/gestorcontas/contas-desk-go/internal/infra/observability"
	"github.com/gestorcontas/contas-desk-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockBillStore struct {
	bills     []domain.Bill
	commits   int
	commitErr error
}

func (m *mockBillStore) LoadBills() ([]domain.Bill, error) {
	out := make([]domain.Bill, len(m.bills))
	copy(out, m.bills)
	return out, nil
}

func (m *mockBillStore) CommitBills(bills []domain.Bill) error {
	m.commits++
	if m.commitErr != nil {
		return m.commitErr
	}
	m.bills = make([]domain.Bill, len(bills))
	copy(m.bills, bills)
	return nil
}

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

func newPayables(t *testing.T, store *mockBillStore, today time.Time) *service.PayablesService {
	t.Helper()
	svc, err := service.NewPayablesService(store, &fixedClock{today}, observability.NewMetrics(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewPayablesService: %v", err)
	}
	return svc
}

func variableInput(title, beneficiary string, amount float64, due time.Time) domain.NewBillInput {
	return domain.NewBillInput{
		Title:       title,
		Beneficiary: beneficiary,
		Amount:      amount,
		DueDate:     due,
		Category:    "Moradia",
		CostCenter:  "Pessoal",
		Type:        domain.BillVariable,
	}
}

// --- Tests ---

func TestPayables_StartupGeneratesDueOccurrences(t *testing.T) {
	store := &mockBillStore{bills: []domain.Bill{monthlyBill("b1", "s1", date(2024, 1, 1))}}

	svc := newPayables(t, store, date(2024, 4, 15))

	listing, err := svc.List(context.Background(), service.ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if listing.Counts.All != 4 {
		t.Fatalf("bills after startup = %d, want 4 (anchor + Feb/Mar/Apr)", listing.Counts.All)
	}
	if store.commits == 0 {
		t.Error("startup generation was not persisted")
	}
}

func TestPayables_CreateDuplicateWarningThenConfirm(t *testing.T) {
	store := &mockBillStore{}
	svc := newPayables(t, store, date(2024, 4, 15))
	ctx := context.Background()

	first, err := svc.Create(ctx, variableInput("Conta de Luz CEMIG", "CEMIG", 100, date(2024, 5, 10)), false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if first.Outcome != service.OutcomeCreated {
		t.Fatalf("first outcome = %s", first.Outcome)
	}

	// Same fuzzy title and beneficiary, same due date: warn, create nothing.
	dup, err := svc.Create(ctx, variableInput("conta de luz - cemig", "cemig distribuição", 120, date(2024, 5, 10)), false)
	if err != nil {
		t.Fatalf("Create dup: %v", err)
	}
	if dup.Outcome != service.OutcomeDuplicateWarning {
		t.Fatalf("dup outcome = %s, want DUPLICATE_WARNING", dup.Outcome)
	}
	if dup.Duplicate == nil || dup.Duplicate.Title != "Conta de Luz CEMIG" {
		t.Fatalf("dup.Duplicate = %+v", dup.Duplicate)
	}

	listing, _ := svc.List(ctx, service.ListFilter{})
	if listing.Counts.All != 1 {
		t.Fatalf("bills = %d after warning, want 1", listing.Counts.All)
	}

	// Confirmed bypasses the guard.
	confirmed, err := svc.Create(ctx, variableInput("conta de luz - cemig", "cemig", 120, date(2024, 5, 10)), true)
	if err != nil {
		t.Fatalf("Create confirmed: %v", err)
	}
	if confirmed.Outcome != service.OutcomeCreated {
		t.Fatalf("confirmed outcome = %s", confirmed.Outcome)
	}
}

func TestPayables_CreateInstallmentPlan(t *testing.T) {
	store := &mockBillStore{}
	svc := newPayables(t, store, date(2024, 4, 15))

	in := variableInput("Notebook", "Loja Tech", 3000, date(2024, 5, 10))
	in.Type = domain.BillInstallment
	in.Installments = 3

	result, err := svc.Create(context.Background(), in, false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(result.Bills) != 3 {
		t.Fatalf("created %d bills, want 3", len(result.Bills))
	}

	baseID := strings.TrimSuffix(result.Bills[0].ID, "-1")
	wantDates := []time.Time{date(2024, 5, 10), date(2024, 6, 10), date(2024, 7, 10)}
	for i, b := range result.Bills {
		if b.Amount != 1000 {
			t.Errorf("installment %d amount = %v, want 1000", i+1, b.Amount)
		}
		if !b.DueDate.Equal(wantDates[i]) {
			t.Errorf("installment %d due = %v, want %v", i+1, b.DueDate, wantDates[i])
		}
		if b.InstallmentNumber != i+1 || b.TotalInstallments != 3 {
			t.Errorf("installment %d numbering = %d/%d", i+1, b.InstallmentNumber, b.TotalInstallments)
		}
		wantID := fmt.Sprintf("%s-%d", baseID, i+1)
		if b.ID != wantID {
			t.Errorf("installment %d id = %s, want %s", i+1, b.ID, wantID)
		}
		if b.SeriesID != "" {
			t.Errorf("installment %d must not join a recurring series", i+1)
		}
	}
}

func TestPayables_PayRecurringSynthesizesSuccessor(t *testing.T) {
	store := &mockBillStore{}
	svc := newPayables(t, store, date(2024, 4, 15))
	ctx := context.Background()

	in := variableInput("Aluguel", "Imobiliária", 100, date(2024, 4, 10))
	in.Type = domain.BillMonthly
	in.IsRecurring = true
	created, err := svc.Create(ctx, in, false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	billID := created.Bills[0].ID

	result, err := svc.Pay(ctx, billID, date(2024, 4, 12), 110)
	if err != nil {
		t.Fatalf("Pay: %v", err)
	}
	if !result.Bill.IsPaid || result.Bill.PaidAmount == nil || *result.Bill.PaidAmount != 110 {
		t.Fatalf("paid bill = %+v", result.Bill)
	}
	if result.Difference != 10 {
		t.Errorf("difference = %v, want 10 (paid 110 vs face 100)", result.Difference)
	}
	if result.Successor == nil {
		t.Fatal("recurring payment must synthesize the next occurrence")
	}
	if !result.Successor.DueDate.Equal(date(2024, 5, 10)) {
		t.Errorf("successor due = %v, want 2024-05-10", result.Successor.DueDate)
	}
	if result.Successor.Amount != 100 {
		t.Errorf("successor amount = %v, want face amount 100", result.Successor.Amount)
	}
	if result.Successor.IsPaid {
		t.Error("successor must start unpaid")
	}
	if len(result.Successor.History) != 1 || result.Successor.History[0].Event != "Criação Automática" {
		t.Errorf("successor history = %+v", result.Successor.History)
	}

	// Paying again must fail, and a second occurrence must not appear.
	if _, err := svc.Pay(ctx, billID, date(2024, 4, 12), 110); err == nil {
		t.Fatal("paying a paid bill must fail")
	}
	listing, _ := svc.List(ctx, service.ListFilter{})
	if listing.Counts.All != 2 {
		t.Fatalf("bills = %d, want 2", listing.Counts.All)
	}
}

func TestPayables_PayManySynthesizesSuccessors(t *testing.T) {
	store := &mockBillStore{}
	svc := newPayables(t, store, date(2024, 4, 15))
	ctx := context.Background()

	rec := variableInput("Aluguel", "Imobiliária", 100, date(2024, 4, 10))
	rec.Type = domain.BillMonthly
	rec.IsRecurring = true
	recurring, err := svc.Create(ctx, rec, false)
	if err != nil {
		t.Fatalf("Create recurring: %v", err)
	}
	oneOff, err := svc.Create(ctx, variableInput("Mercado", "Supermercado BH", 80, date(2024, 4, 12)), false)
	if err != nil {
		t.Fatalf("Create one-off: %v", err)
	}

	paid, err := svc.PayMany(ctx, []string{recurring.Bills[0].ID, oneOff.Bills[0].ID, "missing"})
	if err != nil {
		t.Fatalf("PayMany: %v", err)
	}
	if paid != 2 {
		t.Fatalf("paid = %d, want 2 (unknown ids are skipped)", paid)
	}

	// The recurring bill gains its next occurrence right away; the
	// one-off does not.
	listing, err := svc.List(ctx, service.ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if listing.Counts.All != 3 {
		t.Fatalf("bills = %d, want 3", listing.Counts.All)
	}
	var successor *domain.Bill
	for i := range listing.Bills {
		if !listing.Bills[i].IsPaid {
			successor = &listing.Bills[i]
		}
	}
	if successor == nil {
		t.Fatal("expected an open successor occurrence")
	}
	if successor.Title != "Aluguel" || !successor.DueDate.Equal(date(2024, 5, 10)) {
		t.Fatalf("successor = %s due %v, want Aluguel due 2024-05-10", successor.Title, successor.DueDate)
	}
	if successor.Amount != 100 {
		t.Errorf("successor amount = %v, want face amount 100", successor.Amount)
	}
}

func TestPayables_UnpayRestoresOpenState(t *testing.T) {
	store := &mockBillStore{}
	svc := newPayables(t, store, date(2024, 4, 15))
	ctx := context.Background()

	created, _ := svc.Create(ctx, variableInput("Internet", "Vivo", 90, date(2024, 4, 10)), false)
	id := created.Bills[0].ID

	if _, err := svc.Pay(ctx, id, date(2024, 4, 11), 90); err != nil {
		t.Fatalf("Pay: %v", err)
	}
	bill, err := svc.Unpay(ctx, id)
	if err != nil {
		t.Fatalf("Unpay: %v", err)
	}
	if bill.IsPaid || bill.PaymentDate != nil || bill.PaidAmount != nil {
		t.Fatalf("unpaid bill still carries payment state: %+v", bill)
	}
	if bill.History[len(bill.History)-1].Event != "Estorno" {
		t.Errorf("last history event = %s, want Estorno", bill.History[len(bill.History)-1].Event)
	}
}

func TestPayables_PostponeFreezesOriginalDueDate(t *testing.T) {
	store := &mockBillStore{}
	svc := newPayables(t, store, date(2024, 4, 15))
	ctx := context.Background()

	created, _ := svc.Create(ctx, variableInput("IPTU", "Prefeitura", 300, date(2024, 4, 10)), false)
	id := created.Bills[0].ID

	// Not strictly later: rejected.
	if _, err := svc.Postpone(ctx, id, date(2024, 4, 10), "mesmo dia"); err == nil {
		t.Fatal("postponing to the same date must fail")
	}

	first, err := svc.Postpone(ctx, id, date(2024, 4, 20), "aguardando salário")
	if err != nil {
		t.Fatalf("Postpone: %v", err)
	}
	if first.OriginalDueDate == nil || !first.OriginalDueDate.Equal(date(2024, 4, 10)) {
		t.Fatalf("originalDueDate = %v, want frozen 2024-04-10", first.OriginalDueDate)
	}

	second, err := svc.Postpone(ctx, id, date(2024, 4, 30), "")
	if err != nil {
		t.Fatalf("second Postpone: %v", err)
	}
	if !second.OriginalDueDate.Equal(date(2024, 4, 10)) {
		t.Fatalf("originalDueDate = %v after second postponement, must stay 2024-04-10", second.OriginalDueDate)
	}
	if len(second.Postponements) != 2 {
		t.Fatalf("postponements = %d, want 2", len(second.Postponements))
	}
	if !second.DueDate.Equal(date(2024, 4, 30)) {
		t.Fatalf("dueDate = %v, want 2024-04-30", second.DueDate)
	}
}

func TestPayables_DeleteRegeneratesActiveSeries(t *testing.T) {
	// Deleting every occurrence of a series whose anchor remains in the
	// deleted set removes the series for good, but deleting only the
	// generated occurrences of a still-anchored series brings them back.
	store := &mockBillStore{bills: []domain.Bill{monthlyBill("b1", "s1", date(2024, 1, 1))}}
	svc := newPayables(t, store, date(2024, 4, 15))
	ctx := context.Background()

	listing, _ := svc.List(ctx, service.ListFilter{})
	var generatedIDs []string
	for _, b := range listing.Bills {
		if b.ID != "b1" {
			generatedIDs = append(generatedIDs, b.ID)
		}
	}
	if len(generatedIDs) != 3 {
		t.Fatalf("generated = %d, want 3", len(generatedIDs))
	}

	result, err := svc.Delete(ctx, generatedIDs)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if result.Removed != 3 {
		t.Fatalf("removed = %d, want 3", result.Removed)
	}
	if result.Generated != 3 {
		t.Fatalf("regenerated = %d, want 3 (anchor still active)", result.Generated)
	}
}

func TestPayables_EditRecordsChangedFields(t *testing.T) {
	store := &mockBillStore{}
	svc := newPayables(t, store, date(2024, 4, 15))
	ctx := context.Background()

	created, _ := svc.Create(ctx, variableInput("Internet", "Vivo", 90, date(2024, 4, 10)), false)
	id := created.Bills[0].ID

	bill, err := svc.Edit(ctx, id, service.EditBillInput{
		Title:       "Internet Fibra",
		Beneficiary: "Vivo",
		Amount:      99.9,
		DueDate:     date(2024, 4, 10),
		Category:    "Moradia",
		CostCenter:  "Pessoal",
	})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	last := bill.History[len(bill.History)-1]
	if last.Event != "Edição" {
		t.Fatalf("last event = %s, want Edição", last.Event)
	}
	if !strings.Contains(last.Details, "Título") || !strings.Contains(last.Details, "Valor") {
		t.Errorf("details missing changed fields: %s", last.Details)
	}
	if strings.Contains(last.Details, "Vencimento") {
		t.Errorf("details mention unchanged due date: %s", last.Details)
	}
}

func TestPayables_ListFiltersAndCounts(t *testing.T) {
	store := &mockBillStore{}
	svc := newPayables(t, store, date(2024, 4, 15))
	ctx := context.Background()

	svc.Create(ctx, variableInput("Conta de Luz CEMIG", "CEMIG", 100, date(2024, 4, 20)), false)
	svc.Create(ctx, variableInput("Aluguel", "Imobiliária", 1200, date(2024, 4, 1)), false)
	created, _ := svc.Create(ctx, variableInput("Internet", "Vivo", 90, date(2024, 4, 5)), false)
	svc.Pay(ctx, created.Bills[0].ID, date(2024, 4, 6), 90)

	listing, err := svc.List(ctx, service.ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if listing.Counts.All != 3 || listing.Counts.Upcoming != 1 || listing.Counts.Overdue != 1 || listing.Counts.Paid != 1 {
		t.Fatalf("counts = %+v", listing.Counts)
	}

	// Query matches fuzzily normalized text on title or beneficiary.
	byQuery, _ := svc.List(ctx, service.ListFilter{Query: "cemig"})
	if len(byQuery.Bills) != 1 || byQuery.Bills[0].Title != "Conta de Luz CEMIG" {
		t.Fatalf("query filter returned %d bills", len(byQuery.Bills))
	}

	// Status tab filters the page but counts stay global.
	overdue, _ := svc.List(ctx, service.ListFilter{Status: domain.StatusOverdue})
	if len(overdue.Bills) != 1 || overdue.Bills[0].Title != "Aluguel" {
		t.Fatalf("status filter returned %d bills", len(overdue.Bills))
	}
	if overdue.Counts.All != 3 {
		t.Fatalf("tab counts must cover the whole collection, got %+v", overdue.Counts)
	}

	// Paid bills are ranged by payment date, not due date.
	start, end := date(2024, 4, 6), date(2024, 4, 6)
	ranged, _ := svc.List(ctx, service.ListFilter{StartDate: &start, EndDate: &end})
	if len(ranged.Bills) != 1 || ranged.Bills[0].Title != "Internet" {
		t.Fatalf("date range filter returned %d bills", len(ranged.Bills))
	}
}

func TestPayables_CommitFailureKeepsWorking(t *testing.T) {
	store := &mockBillStore{commitErr: errors.New("disk full")}
	svc := newPayables(t, store, date(2024, 4, 15))
	ctx := context.Background()

	result, err := svc.Create(ctx, variableInput("Internet", "Vivo", 90, date(2024, 4, 20)), false)
	if err != nil {
		t.Fatalf("Create must not surface persistence errors, got %v", err)
	}
	if result.Outcome != service.OutcomeCreated {
		t.Fatalf("outcome = %s", result.Outcome)
	}
	listing, _ := svc.List(ctx, service.ListFilter{})
	if listing.Counts.All != 1 {
		t.Fatalf("in-memory state lost: %d bills", listing.Counts.All)
	}
}

func TestPayables_ToggleRecurringStopsGeneration(t *testing.T) {
	store := &mockBillStore{bills: []domain.Bill{monthlyBill("b1", "s1", date(2024, 4, 1))}}
	clk := &fixedClock{date(2024, 4, 15)}
	svc, err := service.NewPayablesService(store, clk, observability.NewMetrics(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewPayablesService: %v", err)
	}
	ctx := context.Background()

	bill, err := svc.ToggleRecurring(ctx, "b1")
	if err != nil {
		t.Fatalf("ToggleRecurring: %v", err)
	}
	if bill.IsRecurring {
		t.Fatal("toggle must deactivate an active series")
	}

	// With the series off, later sweeps generate nothing.
	clk.t = date(2024, 6, 15)
	generated, _ := svc.Sweep(ctx)
	if generated != 0 {
		t.Fatalf("sweep generated %d with the series off", generated)
	}

	// Re-enabling picks the series back up from its anchor.
	if _, err := svc.ToggleRecurring(ctx, "b1"); err != nil {
		t.Fatalf("ToggleRecurring: %v", err)
	}
	generated, _ = svc.Sweep(ctx)
	if generated != 2 {
		t.Fatalf("sweep generated %d after re-enabling, want 2 (May and June)", generated)
	}
}
