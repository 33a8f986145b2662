package service

import (
	"context"
	"strings"
	"sync"

	"github.com/gestorcontas/contas-desk-go/internal/domain"
	"github.com/gestorcontas/contas-desk-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var refTracer = otel.Tracer("service/refdata")

// RefDataService owns the user-managed reference lists (bill categories,
// cost centers, collaborator job functions). Renames only touch the lists
// themselves; the handlers chain the matching propagation call on the
// payables or directory service afterwards.
type RefDataService struct {
	store  port.RefDataStore
	logger *zap.Logger

	mu  sync.Mutex
	ref *domain.RefData
}

// NewRefDataService loads the persisted lists, seeding the defaults on
// first run.
func NewRefDataService(store port.RefDataStore, logger *zap.Logger) (*RefDataService, error) {
	ref, err := store.LoadRefData()
	if err != nil {
		return nil, err
	}
	return &RefDataService{store: store, logger: logger, ref: ref}, nil
}

// Get returns a copy of the current lists.
func (s *RefDataService) Get(ctx context.Context) *domain.RefData {
	_, span := refTracer.Start(ctx, "RefDataService.Get")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// AddCategory appends a category, rejecting blanks and duplicates.
func (s *RefDataService) AddCategory(ctx context.Context, name string) (*domain.RefData, error) {
	return s.add(ctx, "RefDataService.AddCategory", name, func(r *domain.RefData) *[]string { return &r.Categories })
}

// AddCostCenter appends a cost center.
func (s *RefDataService) AddCostCenter(ctx context.Context, name string) (*domain.RefData, error) {
	return s.add(ctx, "RefDataService.AddCostCenter", name, func(r *domain.RefData) *[]string { return &r.CostCenters })
}

// AddJobFunction appends a job function.
func (s *RefDataService) AddJobFunction(ctx context.Context, name string) (*domain.RefData, error) {
	return s.add(ctx, "RefDataService.AddJobFunction", name, func(r *domain.RefData) *[]string { return &r.JobFunctions })
}

// DeleteCategory removes a category from the list. Bills that already
// carry the name keep it.
func (s *RefDataService) DeleteCategory(ctx context.Context, name string) (*domain.RefData, error) {
	return s.remove(ctx, "RefDataService.DeleteCategory", name, func(r *domain.RefData) *[]string { return &r.Categories })
}

// DeleteCostCenter removes a cost center.
func (s *RefDataService) DeleteCostCenter(ctx context.Context, name string) (*domain.RefData, error) {
	return s.remove(ctx, "RefDataService.DeleteCostCenter", name, func(r *domain.RefData) *[]string { return &r.CostCenters })
}

// DeleteJobFunction removes a job function.
func (s *RefDataService) DeleteJobFunction(ctx context.Context, name string) (*domain.RefData, error) {
	return s.remove(ctx, "RefDataService.DeleteJobFunction", name, func(r *domain.RefData) *[]string { return &r.JobFunctions })
}

// RenameCategory renames a category in the list. The caller propagates
// the rename to the bills afterwards.
func (s *RefDataService) RenameCategory(ctx context.Context, oldName, newName string) (*domain.RefData, error) {
	return s.rename(ctx, "RefDataService.RenameCategory", oldName, newName, func(r *domain.RefData) *[]string { return &r.Categories })
}

// RenameCostCenter renames a cost center.
func (s *RefDataService) RenameCostCenter(ctx context.Context, oldName, newName string) (*domain.RefData, error) {
	return s.rename(ctx, "RefDataService.RenameCostCenter", oldName, newName, func(r *domain.RefData) *[]string { return &r.CostCenters })
}

// RenameJobFunction renames a job function.
func (s *RefDataService) RenameJobFunction(ctx context.Context, oldName, newName string) (*domain.RefData, error) {
	return s.rename(ctx, "RefDataService.RenameJobFunction", oldName, newName, func(r *domain.RefData) *[]string { return &r.JobFunctions })
}

func (s *RefDataService) add(ctx context.Context, op, name string, list func(*domain.RefData) *[]string) (*domain.RefData, error) {
	_, span := refTracer.Start(ctx, op)
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "o nome não pode ser vazio"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l := list(s.ref)
	for _, existing := range *l {
		if strings.EqualFold(existing, name) {
			return nil, &domain.ErrConflict{Message: "já existe um item com esse nome"}
		}
	}
	*l = append(*l, name)
	s.commitLocked()
	return s.copyLocked(), nil
}

func (s *RefDataService) remove(ctx context.Context, op, name string, list func(*domain.RefData) *[]string) (*domain.RefData, error) {
	_, span := refTracer.Start(ctx, op)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	l := list(s.ref)
	kept := (*l)[:0:0]
	for _, existing := range *l {
		if existing != name {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(*l) {
		return nil, &domain.ErrNotFound{Resource: "reference item", ID: name}
	}
	*l = kept
	s.commitLocked()
	return s.copyLocked(), nil
}

func (s *RefDataService) rename(ctx context.Context, op, oldName, newName string, list func(*domain.RefData) *[]string) (*domain.RefData, error) {
	_, span := refTracer.Start(ctx, op)
	defer span.End()

	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, &domain.ErrValidation{Field: "newName", Message: "o novo nome não pode ser vazio"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l := list(s.ref)
	found := false
	for i, existing := range *l {
		if existing == oldName {
			(*l)[i] = newName
			found = true
		}
	}
	if !found {
		return nil, &domain.ErrNotFound{Resource: "reference item", ID: oldName}
	}
	s.commitLocked()
	return s.copyLocked(), nil
}

func (s *RefDataService) copyLocked() *domain.RefData {
	out := &domain.RefData{
		Categories:   append([]string{}, s.ref.Categories...),
		CostCenters:  append([]string{}, s.ref.CostCenters...),
		JobFunctions: append([]string{}, s.ref.JobFunctions...),
	}
	return out
}

func (s *RefDataService) commitLocked() {
	if err := s.store.CommitRefData(s.ref); err != nil {
		s.logger.Error("failed to persist reference data", zap.Error(err))
	}
}
