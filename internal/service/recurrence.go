package service

import (
	"time"

	"github.com/gestorcontas/contas-desk-go/internal/domain"

	"github.com/google/uuid"
)

// ============================================================
// Recurring Generation Engine
// ============================================================

// GenerateDue scans every recurring series and returns the occurrences that
// are due but missing: for each series it anchors on the occurrence with
// the latest due date (paid or not) and walks forward one period at a time
// while the computed date is strictly before today, skipping dates that
// already exist in the input or were produced earlier in the same call.
//
// The function is pure over its inputs and idempotent: feeding its output
// back in and calling again yields nothing.
func GenerateDue(bills []domain.Bill, today time.Time) []domain.Bill {
	cutoff := domain.DateOnly(today)

	series := map[string][]domain.Bill{}
	for _, b := range bills {
		if b.IsRecurring && b.SeriesID != "" {
			series[b.SeriesID] = append(series[b.SeriesID], b)
		}
	}

	// Every (seriesId, dueDate) pair already present, recurring or not,
	// blocks generation for that date. This is what makes re-entrant
	// triggers (sweep ticker, post-payment, post-delete) safe.
	existing := map[string]struct{}{}
	for _, b := range bills {
		if b.SeriesID != "" {
			existing[occurrenceKey(b.SeriesID, b.DueDate)] = struct{}{}
		}
	}

	var generated []domain.Bill
	for _, occurrences := range series {
		anchor := occurrences[0]
		for _, b := range occurrences[1:] {
			if b.DueDate.After(anchor.DueDate) {
				anchor = b
			}
		}

		due := anchor.DueDate
		for {
			next := anchor.NextOccurrence(due)
			if next.IsZero() || !domain.DateOnly(next).Before(cutoff) {
				break
			}
			key := occurrenceKey(anchor.SeriesID, next)
			if _, exists := existing[key]; !exists {
				nb := cloneForOccurrence(anchor, next, today)
				generated = append(generated, nb)
				existing[key] = struct{}{}
			}
			due = next
		}
	}
	return generated
}

// cloneForOccurrence synthesizes a fresh occurrence from the series anchor:
// template fields are copied, payment/postponement state and attachments
// are cleared, and the bill starts with a single automatic-creation entry.
func cloneForOccurrence(anchor domain.Bill, dueDate, now time.Time) domain.Bill {
	nb := anchor
	nb.ID = uuid.New().String()
	nb.DueDate = dueDate
	nb.IsPaid = false
	nb.PaymentDate = nil
	nb.PaidAmount = nil
	nb.OriginalDueDate = nil
	nb.Postponements = []domain.PostponementRecord{}
	nb.Attachments = nil
	nb.History = nil
	return nb.WithHistory("Criação Automática", "Conta gerada automaticamente como parte da série recorrente.", now)
}

func occurrenceKey(seriesID string, due time.Time) string {
	return seriesID + "|" + due.Format("2006-01-02")
}
