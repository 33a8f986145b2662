package service_test

import (
	"testing"
	"time"

	"github.com/gestorcontas/contas-desk-go/internal/domain"
	"github.com/gestorcontas/contas-desk-go/internal/service"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func monthlyBill(id, seriesID string, due time.Time) domain.Bill {
	return domain.Bill{
		ID:          id,
		Title:       "Aluguel",
		Beneficiary: "Imobiliária Central",
		Amount:      1200,
		DueDate:     due,
		Type:        domain.BillMonthly,
		IsRecurring: true,
		SeriesID:    seriesID,
	}
}

func TestGenerateDue_FillsGapUpToToday(t *testing.T) {
	// Anchor on 2024-01-01, today 2024-04-15: occurrences for Feb, Mar and
	// Apr 1st are due and missing. May 1st is not before today.
	bills := []domain.Bill{monthlyBill("b1", "s1", date(2024, 1, 1))}

	generated := service.GenerateDue(bills, date(2024, 4, 15))

	if len(generated) != 3 {
		t.Fatalf("generated %d bills, want 3", len(generated))
	}
	wantDates := []time.Time{date(2024, 2, 1), date(2024, 3, 1), date(2024, 4, 1)}
	for i, b := range generated {
		if !b.DueDate.Equal(wantDates[i]) {
			t.Errorf("generated[%d].DueDate = %v, want %v", i, b.DueDate, wantDates[i])
		}
		if b.IsPaid || b.PaymentDate != nil || b.PaidAmount != nil {
			t.Errorf("generated[%d] carries payment state", i)
		}
		if len(b.Postponements) != 0 || b.OriginalDueDate != nil {
			t.Errorf("generated[%d] carries postponement state", i)
		}
		if len(b.History) != 1 || b.History[0].Event != "Criação Automática" {
			t.Errorf("generated[%d] history = %+v", i, b.History)
		}
		if b.ID == "b1" || b.ID == "" {
			t.Errorf("generated[%d] must get a fresh id", i)
		}
		if b.SeriesID != "s1" {
			t.Errorf("generated[%d] lost its series id", i)
		}
	}
}

func TestGenerateDue_Idempotent(t *testing.T) {
	bills := []domain.Bill{monthlyBill("b1", "s1", date(2024, 1, 1))}
	today := date(2024, 4, 15)

	first := service.GenerateDue(bills, today)
	again := service.GenerateDue(append(bills, first...), today)

	if len(again) != 0 {
		t.Fatalf("second run generated %d bills, want 0", len(again))
	}
}

func TestGenerateDue_SkipsExistingOccurrences(t *testing.T) {
	// March 1st already exists (e.g. created by a payment), so only
	// February and April are produced.
	bills := []domain.Bill{
		monthlyBill("b1", "s1", date(2024, 1, 1)),
		monthlyBill("b2", "s1", date(2024, 3, 1)),
	}

	generated := service.GenerateDue(bills, date(2024, 4, 15))

	if len(generated) != 2 {
		t.Fatalf("generated %d bills, want 2", len(generated))
	}
}

func TestGenerateDue_AnchorsOnLatestOccurrence(t *testing.T) {
	// The anchor is the occurrence with the max due date, paid or not.
	paid := 100.0
	b1 := monthlyBill("b1", "s1", date(2024, 2, 1))
	b1.IsPaid = true
	b1.PaidAmount = &paid
	bills := []domain.Bill{
		monthlyBill("b0", "s1", date(2024, 1, 1)),
		b1,
	}

	generated := service.GenerateDue(bills, date(2024, 4, 15))

	if len(generated) != 2 {
		t.Fatalf("generated %d bills, want 2 (Mar, Apr)", len(generated))
	}
	if !generated[0].DueDate.Equal(date(2024, 3, 1)) || !generated[1].DueDate.Equal(date(2024, 4, 1)) {
		t.Errorf("dates = %v, %v", generated[0].DueDate, generated[1].DueDate)
	}
	// The clone copies template fields from the anchor, not its payment state.
	if generated[0].IsPaid {
		t.Error("clone inherited IsPaid from the anchor")
	}
}

func TestGenerateDue_IgnoresInactiveAndNonSeries(t *testing.T) {
	inactive := monthlyBill("b1", "s1", date(2024, 1, 1))
	inactive.IsRecurring = false

	noSeries := monthlyBill("b2", "", date(2024, 1, 1))

	variable := domain.Bill{ID: "b3", Type: domain.BillVariable, DueDate: date(2024, 1, 1)}

	generated := service.GenerateDue([]domain.Bill{inactive, noSeries, variable}, date(2024, 4, 15))
	if len(generated) != 0 {
		t.Fatalf("generated %d bills, want 0", len(generated))
	}
}

func TestGenerateDue_AnnualSeries(t *testing.T) {
	b := monthlyBill("b1", "s1", date(2022, 6, 10))
	b.Type = domain.BillAnnual

	generated := service.GenerateDue([]domain.Bill{b}, date(2024, 4, 15))

	if len(generated) != 1 {
		t.Fatalf("generated %d bills, want 1 (2023 only; 2024-06-10 is future)", len(generated))
	}
	if !generated[0].DueDate.Equal(date(2023, 6, 10)) {
		t.Errorf("due = %v, want 2023-06-10", generated[0].DueDate)
	}
}

func TestGenerateDue_NothingDueToday(t *testing.T) {
	// Next occurrence lands exactly on today: strictly-before rule says no.
	bills := []domain.Bill{monthlyBill("b1", "s1", date(2024, 3, 15))}

	generated := service.GenerateDue(bills, date(2024, 4, 15))
	if len(generated) != 0 {
		t.Fatalf("generated %d bills, want 0", len(generated))
	}
}
