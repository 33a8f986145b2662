// Package domain defines the core business entities for the Contas Desk
// backend. These models are independent of external services and represent
// the canonical data structures used throughout the application.
package domain

import "time"

// ============================================================
// Bills (Contas a Pagar)
// ============================================================

// BillType is the payment modality of a bill.
type BillType string

const (
	BillVariable    BillType = "VARIAVEL"
	BillInstallment BillType = "PARCELADA"
	BillMonthly     BillType = "MENSAL"
	BillAnnual      BillType = "ANUAL"
)

// IsRecurrable reports whether the type supports recurring generation.
func (t BillType) IsRecurrable() bool {
	return t == BillMonthly || t == BillAnnual
}

// PostponementRecord is one postponement applied to a bill.
type PostponementRecord struct {
	PostponedAt time.Time `json:"postponedAt"`
	Reason      string    `json:"reason"`
}

// Bill represents a single payable obligation.
//
// Bills in an installment plan share a base id ("<baseId>-<n>" naming);
// bills in a recurring series share a SeriesID. History is append-only.
type Bill struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Beneficiary string   `json:"beneficiary"`
	Amount      float64  `json:"amount"`
	DueDate     time.Time `json:"dueDate"`
	Category    string   `json:"category"`
	CostCenter  string   `json:"costCenter"`
	Type        BillType `json:"type"`
	Barcode     string   `json:"barcode,omitempty"`

	IsPaid      bool       `json:"isPaid"`
	PaymentDate *time.Time `json:"paymentDate,omitempty"`
	PaidAmount  *float64   `json:"paidAmount,omitempty"`

	InstallmentNumber int `json:"installmentNumber,omitempty"`
	TotalInstallments int `json:"totalInstallments,omitempty"`

	IsRecurring bool   `json:"isRecurring,omitempty"`
	SeriesID    string `json:"seriesId,omitempty"`

	OriginalDueDate *time.Time           `json:"originalDueDate,omitempty"`
	Postponements   []PostponementRecord `json:"postponements"`

	Attachments []Attachment   `json:"attachments,omitempty"`
	History     []HistoryEntry `json:"history"`
}

// WithHistory returns a copy of the bill with one extra history entry.
// The receiver is never mutated.
func (b Bill) WithHistory(event, details string, now time.Time) Bill {
	b.History = AppendHistory(b.History, event, details, now)
	return b
}

// NextOccurrence returns the due date of the occurrence that follows the
// given one, per the bill's recurrence period. Zero time for types that
// do not recur.
func (b Bill) NextOccurrence(from time.Time) time.Time {
	switch b.Type {
	case BillMonthly:
		return from.AddDate(0, 1, 0)
	case BillAnnual:
		return from.AddDate(1, 0, 0)
	}
	return time.Time{}
}

// ============================================================
// Status classification
// ============================================================

// Status is the display bucket of a bill.
type Status string

const (
	StatusUpcoming  Status = "UPCOMING"
	StatusOverdue   Status = "OVERDUE"
	StatusPaid      Status = "PAID"
	StatusPostponed Status = "POSTPONED"
)

// DateOnly truncates a time to its calendar date (midnight, same location).
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDate reports whether two times fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// Classify derives the display bucket of a bill for a given "today".
// Precedence: Paid > Postponed > Overdue > Upcoming. A paid bill is never
// shown as overdue even if paid late; a postponed bill stays Postponed even
// after its new due date passes.
func Classify(b Bill, today time.Time) Status {
	switch {
	case b.IsPaid:
		return StatusPaid
	case len(b.Postponements) > 0:
		return StatusPostponed
	case DateOnly(b.DueDate).Before(DateOnly(today)):
		return StatusOverdue
	default:
		return StatusUpcoming
	}
}

// ============================================================
// Dashboard aggregation
// ============================================================

// BucketSummary is a count + total for one status bucket.
type BucketSummary struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// DashboardSummary aggregates a bill set per status bucket.
// The paid bucket totals paid amounts; the others total face amounts.
type DashboardSummary struct {
	Upcoming  BucketSummary `json:"upcoming"`
	Overdue   BucketSummary `json:"overdue"`
	Paid      BucketSummary `json:"paid"`
	Postponed BucketSummary `json:"postponed"`
}

// Summarize applies the classifier to every bill and accumulates per bucket.
func Summarize(bills []Bill, today time.Time) DashboardSummary {
	var s DashboardSummary
	for _, b := range bills {
		switch Classify(b, today) {
		case StatusPaid:
			s.Paid.Count++
			if b.PaidAmount != nil {
				s.Paid.Total += *b.PaidAmount
			}
		case StatusPostponed:
			s.Postponed.Count++
			s.Postponed.Total += b.Amount
		case StatusOverdue:
			s.Overdue.Count++
			s.Overdue.Total += b.Amount
		default:
			s.Upcoming.Count++
			s.Upcoming.Total += b.Amount
		}
	}
	return s
}

// TabCounts holds the per-status tab counters over the full bill list.
type TabCounts struct {
	All       int `json:"all"`
	Upcoming  int `json:"upcoming"`
	Overdue   int `json:"overdue"`
	Paid      int `json:"paid"`
	Postponed int `json:"postponed"`
}

// CountTabs classifies every bill and tallies the tab counters.
func CountTabs(bills []Bill, today time.Time) TabCounts {
	c := TabCounts{All: len(bills)}
	for _, b := range bills {
		switch Classify(b, today) {
		case StatusPaid:
			c.Paid++
		case StatusPostponed:
			c.Postponed++
		case StatusOverdue:
			c.Overdue++
		default:
			c.Upcoming++
		}
	}
	return c
}
