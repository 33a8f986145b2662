// Package service provides the business logic layer (use cases).
// PayablesService owns the bill collection and its lifecycle;
// ImportService runs the document reconciliation pipeline;
// DirectoryService manages companies, collaborators and admins.
package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gestorcontas/contas-desk-go/internal/domain"
	"github.com/gestorcontas/contas-desk-go/internal/infra/observability"
	"github.com/gestorcontas/contas-desk-go/internal/match"
	"github.com/gestorcontas/contas-desk-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var payablesTracer = otel.Tracer("service/payables")

// PayablesService owns the in-memory bill collection. All reads and
// mutations go through its mutex; after every mutation it re-runs the
// recurring generation engine, re-sorts, and commits the whole collection
// to the store. A persistence failure is logged but never rolls back the
// in-memory state.
type PayablesService struct {
	store   port.BillStore
	clock   port.Clock
	metrics *observability.Metrics
	logger  *zap.Logger

	mu    sync.Mutex
	bills []domain.Bill
}

// NewPayablesService loads the persisted bills and runs one generation
// pass, so occurrences that became due while the process was down exist
// before the first request is served.
func NewPayablesService(store port.BillStore, clk port.Clock, metrics *observability.Metrics, logger *zap.Logger) (*PayablesService, error) {
	bills, err := store.LoadBills()
	if err != nil {
		return nil, err
	}
	s := &PayablesService{store: store, clock: clk, metrics: metrics, logger: logger, bills: bills}

	s.mu.Lock()
	generated := s.regenerateLocked()
	s.sortLocked()
	if generated > 0 {
		s.commitLocked()
	}
	s.mu.Unlock()

	if generated > 0 {
		logger.Info("generated recurring bills on startup", zap.Int("count", generated))
	}
	return s, nil
}

// ============================================================
// Listing / dashboard
// ============================================================

// ListFilter narrows the bill listing. Status filters by display bucket;
// Query fuzzy-matches title and beneficiary as a plain substring over the
// normalized text. For paid bills the date range applies to the payment
// date, for the rest to the due date.
type ListFilter struct {
	Query     string
	Status    domain.Status
	StartDate *time.Time
	EndDate   *time.Time
}

// Listing is the full payload of GET /v1/bills: the filtered page, tab
// counters over the whole collection, and the dashboard summary over the
// query/date-filtered set (before the status tab is applied).
type Listing struct {
	Bills     []domain.Bill           `json:"bills"`
	Counts    domain.TabCounts        `json:"counts"`
	Dashboard domain.DashboardSummary `json:"dashboard"`
	Today     string                  `json:"today"`
}

func (s *PayablesService) List(ctx context.Context, f ListFilter) (*Listing, error) {
	_, span := payablesTracer.Start(ctx, "PayablesService.List")
	defer span.End()

	today := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	counts := domain.CountTabs(s.bills, today)

	filtered := make([]domain.Bill, 0, len(s.bills))
	query := match.Normalize(f.Query)
	for _, b := range s.bills {
		if query != "" &&
			!strings.Contains(match.Normalize(b.Title), query) &&
			!strings.Contains(match.Normalize(b.Beneficiary), query) {
			continue
		}
		if !withinRange(b, f.StartDate, f.EndDate) {
			continue
		}
		filtered = append(filtered, b)
	}

	dashboard := domain.Summarize(filtered, today)

	result := filtered
	if f.Status != "" {
		result = make([]domain.Bill, 0, len(filtered))
		for _, b := range filtered {
			if domain.Classify(b, today) == f.Status {
				result = append(result, b)
			}
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DueDate.Before(result[j].DueDate)
	})

	span.SetAttributes(attribute.Int("bills.total", counts.All), attribute.Int("bills.matched", len(result)))

	return &Listing{
		Bills:     result,
		Counts:    counts,
		Dashboard: dashboard,
		Today:     domain.DateOnly(today).Format("2006-01-02"),
	}, nil
}

// Get returns one bill by id.
func (s *PayablesService) Get(ctx context.Context, id string) (*domain.Bill, error) {
	_, span := payablesTracer.Start(ctx, "PayablesService.Get")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: id}
	}
	b := s.bills[idx]
	return &b, nil
}

// withinRange applies the listing date range: payment date for paid bills,
// due date otherwise.
func withinRange(b domain.Bill, start, end *time.Time) bool {
	ref := b.DueDate
	if b.IsPaid && b.PaymentDate != nil {
		ref = *b.PaymentDate
	}
	ref = domain.DateOnly(ref)
	if start != nil && ref.Before(domain.DateOnly(*start)) {
		return false
	}
	if end != nil && ref.After(domain.DateOnly(*end)) {
		return false
	}
	return true
}

// ============================================================
// Recurring sweep
// ============================================================

// Sweep runs the generation engine against the current clock and commits
// when anything was produced. Called by the periodic ticker and by the
// dev-tools clock endpoint.
func (s *PayablesService) Sweep(ctx context.Context) (int, error) {
	_, span := payablesTracer.Start(ctx, "PayablesService.Sweep")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	generated := s.regenerateLocked()
	if generated > 0 {
		s.sortLocked()
		s.commitLocked()
		s.logger.Info("recurring sweep generated bills", zap.Int("count", generated))
	}
	span.SetAttributes(attribute.Int("bills.generated", generated))
	return generated, nil
}

// Snapshot returns a copy of the full collection. Used by the import
// pipeline for duplicate detection and auto-fill without holding the lock.
func (s *PayablesService) Snapshot() []domain.Bill {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Bill, len(s.bills))
	copy(out, s.bills)
	return out
}

// ============================================================
// Reference list rename propagation
// ============================================================

// PropagateCategoryRename rewrites the category on every bill that carries
// the old name. Called after the reference list itself was renamed.
func (s *PayablesService) PropagateCategoryRename(ctx context.Context, oldName, newName string) (int, error) {
	return s.propagateRename(ctx, "PayablesService.PropagateCategoryRename", oldName, newName, func(b *domain.Bill) *string { return &b.Category })
}

// PropagateCostCenterRename rewrites the cost center on every bill that
// carries the old name.
func (s *PayablesService) PropagateCostCenterRename(ctx context.Context, oldName, newName string) (int, error) {
	return s.propagateRename(ctx, "PayablesService.PropagateCostCenterRename", oldName, newName, func(b *domain.Bill) *string { return &b.CostCenter })
}

func (s *PayablesService) propagateRename(ctx context.Context, op, oldName, newName string, field func(*domain.Bill) *string) (int, error) {
	_, span := payablesTracer.Start(ctx, op)
	defer span.End()

	if strings.TrimSpace(newName) == "" {
		return 0, &domain.ErrValidation{Field: "name", Message: "o novo nome não pode ser vazio"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for i := range s.bills {
		f := field(&s.bills[i])
		if *f == oldName {
			*f = newName
			changed++
		}
	}
	if changed > 0 {
		s.commitLocked()
	}
	return changed, nil
}

// ============================================================
// Locked helpers
// ============================================================

func (s *PayablesService) indexLocked(id string) int {
	for i := range s.bills {
		if s.bills[i].ID == id {
			return i
		}
	}
	return -1
}

// regenerateLocked runs the generation engine over the current collection
// and appends whatever is missing. Returns the number of new occurrences.
func (s *PayablesService) regenerateLocked() int {
	generated := GenerateDue(s.bills, s.clock.Now())
	if len(generated) == 0 {
		return 0
	}
	s.bills = append(s.bills, generated...)
	s.metrics.AddBillsGenerated(len(generated))
	return len(generated)
}

func (s *PayablesService) sortLocked() {
	sort.SliceStable(s.bills, func(i, j int) bool {
		return s.bills[i].DueDate.Before(s.bills[j].DueDate)
	})
}

// commitLocked persists the whole collection. Persistence failures are
// logged and swallowed: the in-memory state stays authoritative and the
// next successful commit writes everything anyway.
func (s *PayablesService) commitLocked() {
	if err := s.store.CommitBills(s.bills); err != nil {
		s.logger.Error("failed to persist bills", zap.Error(err))
	}
}
