package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gestorcontas/contas-desk-go/internal/domain"
	"github.com/gestorcontas/contas-desk-go/internal/infra/observability"

	"go.uber.org/zap"
)

// --- Mocks ---

// scriptedParser returns one pre-programmed result per Parse call.
type scriptedParser struct {
	results []parseResult
	calls   int
}

type parseResult struct {
	data *domain.ImportedBillData
	err  error
}

func (p *scriptedParser) Parse(ctx context.Context, data []byte, mimeType string) (*domain.ImportedBillData, error) {
	if p.calls >= len(p.results) {
		return nil, errors.New("unexpected parse call")
	}
	r := p.results[p.calls]
	p.calls++
	return r.data, r.err
}

type memBillStore struct{ bills []domain.Bill }

func (m *memBillStore) LoadBills() ([]domain.Bill, error) {
	out := make([]domain.Bill, len(m.bills))
	copy(out, m.bills)
	return out, nil
}

func (m *memBillStore) CommitBills(bills []domain.Bill) error {
	m.bills = make([]domain.Bill, len(bills))
	copy(m.bills, bills)
	return nil
}

type stubClock struct{ t time.Time }

func (c stubClock) Now() time.Time { return c.t }

func importDay(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func extracted(title string, amount float64, dueDate string) *domain.ImportedBillData {
	return &domain.ImportedBillData{
		Title:       title,
		Beneficiary: title + " S.A.",
		Amount:      amount,
		DueDate:     dueDate,
	}
}

func newImportFixture(t *testing.T, parser *scriptedParser, savedBills []domain.Bill) (*ImportService, *PayablesService) {
	t.Helper()
	store := &memBillStore{bills: savedBills}
	payables, err := NewPayablesService(store, stubClock{importDay(2024, 4, 15)}, observability.NewMetrics(), zap.NewNop())
	if err != nil {
		t.Fatalf("NewPayablesService: %v", err)
	}
	svc := NewImportService(parser, payables, 4*time.Second, 4, observability.NewMetrics(), zap.NewNop())
	return svc, payables
}

// recordSleeps replaces the pipeline's sleep with an instant recorder.
func recordSleeps(svc *ImportService) *[]time.Duration {
	var slept []time.Duration
	svc.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return &slept
}

func importFiles(names ...string) []domain.ImportFile {
	files := make([]domain.ImportFile, len(names))
	for i, n := range names {
		files[i] = domain.ImportFile{Name: n, MimeType: "application/pdf", Data: []byte(n)}
	}
	return files
}

// --- Tests ---

func TestParseBatch_PacesFilesWithPreDelay(t *testing.T) {
	parser := &scriptedParser{results: []parseResult{
		{data: extracted("Conta de Luz", 100, "2024-05-10")},
		{data: extracted("Internet", 90, "2024-05-12")},
	}}
	svc, _ := newImportFixture(t, parser, nil)
	slept := recordSleeps(svc)

	result, err := svc.ParseBatch(context.Background(), importFiles("luz.pdf", "internet.pdf"))
	if err != nil {
		t.Fatalf("ParseBatch: %v", err)
	}
	if result.Aborted {
		t.Fatal("clean batch reported aborted")
	}
	want := []time.Duration{4 * time.Second, 4 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("sleeps = %v, want %v", *slept, want)
	}
	for i, d := range *slept {
		if d != want[i] {
			t.Fatalf("sleeps = %v, want %v", *slept, want)
		}
	}
	for i, d := range result.Drafts {
		if d.Status != domain.ImportSuccess {
			t.Errorf("draft %d status = %s", i, d.Status)
		}
	}
}

func TestParseBatch_RateLimitBackoffSequence(t *testing.T) {
	rl := func() error { return &domain.ErrRateLimited{Service: "parser", Err: errors.New("429")} }
	parser := &scriptedParser{results: []parseResult{
		{err: rl()},
		{err: rl()},
		{err: rl()},
		{data: extracted("Conta de Luz", 100, "2024-05-10")},
	}}
	svc, _ := newImportFixture(t, parser, nil)
	slept := recordSleeps(svc)

	result, err := svc.ParseBatch(context.Background(), importFiles("luz.pdf"))
	if err != nil {
		t.Fatalf("ParseBatch: %v", err)
	}
	if result.Drafts[0].Status != domain.ImportSuccess {
		t.Fatalf("draft status = %s, want success after retries", result.Drafts[0].Status)
	}
	if parser.calls != 4 {
		t.Fatalf("parser calls = %d, want 4", parser.calls)
	}
	// Pre-delay, then 2^1, 2^2, 2^3 seconds of backoff.
	want := []time.Duration{4 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("sleeps = %v, want %v", *slept, want)
	}
	for i, d := range *slept {
		if d != want[i] {
			t.Fatalf("sleeps = %v, want %v", *slept, want)
		}
	}
}

func TestParseBatch_ExhaustedRetriesAbortRemainder(t *testing.T) {
	rl := func() error { return &domain.ErrRateLimited{Service: "parser", Err: errors.New("429")} }
	parser := &scriptedParser{results: []parseResult{
		{data: extracted("Conta de Luz", 100, "2024-05-10")},
		{err: rl()}, {err: rl()}, {err: rl()}, {err: rl()},
	}}
	svc, _ := newImportFixture(t, parser, nil)
	recordSleeps(svc)

	result, err := svc.ParseBatch(context.Background(), importFiles("luz.pdf", "agua.pdf", "gas.pdf"))
	if err != nil {
		t.Fatalf("ParseBatch: %v", err)
	}
	if !result.Aborted {
		t.Fatal("exhausted retries must abort the batch")
	}
	if result.Drafts[0].Status != domain.ImportSuccess {
		t.Errorf("first draft = %s, want success", result.Drafts[0].Status)
	}
	if result.Drafts[1].Status != domain.ImportError ||
		result.Drafts[1].ErrorMessage != "Cota de uso da API excedida. Por favor, tente novamente mais tarde." {
		t.Errorf("second draft = %+v", result.Drafts[1])
	}
	// The third file never reaches the parser.
	if result.Drafts[2].Status != domain.ImportError || result.Drafts[2].ErrorMessage != "Importação cancelada." {
		t.Errorf("third draft = %+v", result.Drafts[2])
	}
	if parser.calls != 5 {
		t.Fatalf("parser calls = %d, want 5 (1 success + 4 attempts)", parser.calls)
	}
}

func TestParseBatch_NonRateLimitErrorIsTerminal(t *testing.T) {
	parser := &scriptedParser{results: []parseResult{
		{err: &domain.ErrParse{File: "luz.pdf", Reason: "empty response"}},
	}}
	svc, _ := newImportFixture(t, parser, nil)
	recordSleeps(svc)

	result, err := svc.ParseBatch(context.Background(), importFiles("luz.pdf"))
	if err != nil {
		t.Fatalf("ParseBatch: %v", err)
	}
	if parser.calls != 1 {
		t.Fatalf("parser calls = %d, parse errors must not be retried", parser.calls)
	}
	if result.Drafts[0].ErrorMessage != "Não foi possível ler os dados do arquivo." {
		t.Errorf("message = %q", result.Drafts[0].ErrorMessage)
	}
}

func TestParseBatch_AutoFillsFromMostRecentMatch(t *testing.T) {
	older := monthlySavedBill("b1", "Conta de Luz CEMIG", importDay(2024, 2, 10), "Utilidades", "Casa")
	newer := monthlySavedBill("b2", "Conta de Luz CEMIG", importDay(2024, 3, 10), "Moradia", "Pessoal")

	parser := &scriptedParser{results: []parseResult{
		{data: extracted("conta de luz cemig", 110, "2024-04-10")},
	}}
	svc, _ := newImportFixture(t, parser, []domain.Bill{older, newer})
	recordSleeps(svc)

	result, err := svc.ParseBatch(context.Background(), importFiles("luz.pdf"))
	if err != nil {
		t.Fatalf("ParseBatch: %v", err)
	}
	d := result.Drafts[0]
	if !d.AutoFilled {
		t.Fatal("draft should be auto-filled from bill history")
	}
	if d.Category != "Moradia" || d.CostCenter != "Pessoal" {
		t.Errorf("auto-fill must prefer the most recently due match, got %s/%s", d.Category, d.CostCenter)
	}
	if d.Type != domain.BillMonthly || !d.IsRecurring {
		t.Errorf("type carry-over = %s recurring=%v", d.Type, d.IsRecurring)
	}
}

func TestParseBatch_FlagsDuplicates(t *testing.T) {
	saved := monthlySavedBill("b1", "Conta de Luz CEMIG", importDay(2024, 5, 10), "Moradia", "Pessoal")

	parser := &scriptedParser{results: []parseResult{
		{data: extracted("conta de luz - cemig", 100, "2024-05-10")}, // vs saved
		{data: extracted("Internet Vivo", 90, "2024-05-12")},
		{data: extracted("internet vivo fibra", 90, "2024-05-12")}, // vs earlier draft
	}}
	svc, _ := newImportFixture(t, parser, []domain.Bill{saved})
	recordSleeps(svc)

	result, err := svc.ParseBatch(context.Background(), importFiles("luz.pdf", "net1.pdf", "net2.pdf"))
	if err != nil {
		t.Fatalf("ParseBatch: %v", err)
	}
	if result.Duplicates != 2 {
		t.Fatalf("duplicates = %d, want 2", result.Duplicates)
	}
	if !result.Drafts[0].IsDuplicate || result.Drafts[1].IsDuplicate || !result.Drafts[2].IsDuplicate {
		t.Fatalf("flags = %v/%v/%v", result.Drafts[0].IsDuplicate, result.Drafts[1].IsDuplicate, result.Drafts[2].IsDuplicate)
	}

	// Dropping duplicates keeps only the clean draft.
	kept := svc.Decide(context.Background(), false)
	if len(kept) != 1 || kept[0].Data.Title != "Internet Vivo" {
		t.Fatalf("kept = %+v", kept)
	}
}

func TestParseBatch_UnconfiguredParserReportsConfiguration(t *testing.T) {
	parser := &scriptedParser{results: []parseResult{
		{err: &domain.ErrParserUnavailable{}},
	}}
	svc, _ := newImportFixture(t, parser, nil)
	recordSleeps(svc)

	result, err := svc.ParseBatch(context.Background(), importFiles("luz.pdf", "agua.pdf"))
	if err != nil {
		t.Fatalf("ParseBatch: %v", err)
	}
	if parser.calls != 1 {
		t.Fatalf("parse calls = %d, want 1 (configuration errors are not retried)", parser.calls)
	}
	if result.Drafts[0].ErrorMessage != "Importação de documentos não configurada no servidor." {
		t.Errorf("first draft message = %q", result.Drafts[0].ErrorMessage)
	}
	if result.Drafts[1].Status != domain.ImportError || result.Drafts[1].ErrorMessage != "Importação cancelada." {
		t.Errorf("remainder must be aborted, got %+v", result.Drafts[1])
	}
}

func TestParseBatch_GenericTitleDifferentBeneficiaryIsNotDuplicate(t *testing.T) {
	saved := monthlySavedBill("b1", "Fatura Mensal", importDay(2024, 5, 10), "Energia", "Casa")
	saved.Beneficiary = "CEMIG Distribuição"

	parser := &scriptedParser{results: []parseResult{
		// Same title and due date as the saved bill, but a different payee.
		{data: &domain.ImportedBillData{
			Title:       "Fatura Mensal",
			Beneficiary: "Copasa Saneamento",
			Amount:      80,
			DueDate:     "2024-05-10",
		}},
		// Same title and date again, still another payee than draft one.
		{data: &domain.ImportedBillData{
			Title:       "Fatura Mensal",
			Beneficiary: "Gasmig Gás Natural",
			Amount:      60,
			DueDate:     "2024-05-10",
		}},
		// Same payee as the saved bill: this one is the real duplicate.
		{data: &domain.ImportedBillData{
			Title:       "Fatura Mensal",
			Beneficiary: "cemig distribuicao s.a.",
			Amount:      100,
			DueDate:     "2024-05-10",
		}},
	}}
	svc, _ := newImportFixture(t, parser, []domain.Bill{saved})
	recordSleeps(svc)

	result, err := svc.ParseBatch(context.Background(), importFiles("copasa.pdf", "gasmig.pdf", "cemig.pdf"))
	if err != nil {
		t.Fatalf("ParseBatch: %v", err)
	}
	if result.Duplicates != 1 {
		t.Fatalf("duplicates = %d, want 1", result.Duplicates)
	}
	if result.Drafts[0].IsDuplicate || result.Drafts[1].IsDuplicate || !result.Drafts[2].IsDuplicate {
		t.Fatalf("flags = %v/%v/%v", result.Drafts[0].IsDuplicate, result.Drafts[1].IsDuplicate, result.Drafts[2].IsDuplicate)
	}
	if result.Drafts[0].AutoFilled || result.Drafts[0].Category == "Energia" {
		t.Fatalf("Copasa draft must not inherit CEMIG's categorization, got %+v", result.Drafts[0])
	}
}

func TestDecide_KeepClearsFlags(t *testing.T) {
	saved := monthlySavedBill("b1", "Conta de Luz CEMIG", importDay(2024, 5, 10), "Moradia", "Pessoal")
	parser := &scriptedParser{results: []parseResult{
		{data: extracted("conta de luz cemig", 100, "2024-05-10")},
	}}
	svc, _ := newImportFixture(t, parser, []domain.Bill{saved})
	recordSleeps(svc)

	if _, err := svc.ParseBatch(context.Background(), importFiles("luz.pdf")); err != nil {
		t.Fatalf("ParseBatch: %v", err)
	}
	kept := svc.Decide(context.Background(), true)
	if len(kept) != 1 || kept[0].IsDuplicate {
		t.Fatalf("kept = %+v", kept)
	}
}

func TestSave_CreatesBillsAndClearsDrafts(t *testing.T) {
	parser := &scriptedParser{results: []parseResult{
		{data: extracted("Conta de Luz", 100, "2024-05-10")},
		{err: &domain.ErrParse{File: "agua.pdf", Reason: "empty response"}},
	}}
	svc, payables := newImportFixture(t, parser, nil)
	recordSleeps(svc)

	if _, err := svc.ParseBatch(context.Background(), importFiles("luz.pdf", "agua.pdf")); err != nil {
		t.Fatalf("ParseBatch: %v", err)
	}

	result, err := svc.Save(context.Background())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(result.Bills) != 1 {
		t.Fatalf("saved %d bills, want 1 (failed draft dropped)", len(result.Bills))
	}
	bill := result.Bills[0]
	if bill.Title != "Conta de Luz" || bill.Description != "Importado do arquivo: luz.pdf" {
		t.Errorf("bill = %+v", bill)
	}

	if got := svc.Drafts(); len(got) != 0 {
		t.Fatalf("drafts = %d after save, want 0", len(got))
	}
	listing, _ := payables.List(context.Background(), ListFilter{})
	if listing.Counts.All != 1 {
		t.Fatalf("payables holds %d bills, want 1", listing.Counts.All)
	}
}

func TestUpdateDraft_EditsOnlySuccessfulDrafts(t *testing.T) {
	parser := &scriptedParser{results: []parseResult{
		{data: extracted("Conta de Luz", 100, "2024-05-10")},
		{err: &domain.ErrParse{File: "agua.pdf", Reason: "empty response"}},
	}}
	svc, _ := newImportFixture(t, parser, nil)
	recordSleeps(svc)

	result, err := svc.ParseBatch(context.Background(), importFiles("luz.pdf", "agua.pdf"))
	if err != nil {
		t.Fatalf("ParseBatch: %v", err)
	}

	amount := 123.45
	category := "Moradia"
	updated, err := svc.UpdateDraft(context.Background(), result.Drafts[0].ID, DraftPatch{Amount: &amount, Category: &category})
	if err != nil {
		t.Fatalf("UpdateDraft: %v", err)
	}
	if updated.Data.Amount != 123.45 || updated.Category != "Moradia" {
		t.Fatalf("updated = %+v", updated)
	}

	if _, err := svc.UpdateDraft(context.Background(), result.Drafts[1].ID, DraftPatch{Amount: &amount}); err == nil {
		t.Fatal("editing a failed draft must be rejected")
	}
	var nf *domain.ErrNotFound
	if _, err := svc.UpdateDraft(context.Background(), "missing", DraftPatch{}); !errors.As(err, &nf) {
		t.Fatalf("unknown draft id: %v", err)
	}
}

func monthlySavedBill(id, title string, due time.Time, category, costCenter string) domain.Bill {
	return domain.Bill{
		ID:          id,
		Title:       title,
		Beneficiary: title,
		Amount:      100,
		DueDate:     due,
		Category:    category,
		CostCenter:  costCenter,
		Type:        domain.BillMonthly,
		IsRecurring: true,
		IsPaid:      true,
	}
}
