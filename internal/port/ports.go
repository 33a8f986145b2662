// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/gestorcontas/contas-desk-go/internal/domain"
)

// BillStore persists the bill collection. The collection is always loaded
// and committed whole; there is no incremental diffing, matching the
// single-owner replace semantics of the in-memory state.
type BillStore interface {
	LoadBills() ([]domain.Bill, error)
	CommitBills(bills []domain.Bill) error
}

// DirectoryStore persists companies, users and admins, whole-collection.
type DirectoryStore interface {
	LoadCompanies() ([]domain.Company, error)
	CommitCompanies(companies []domain.Company) error
	LoadUsers() ([]domain.User, error)
	CommitUsers(users []domain.User) error
	LoadAdmins() ([]domain.Admin, error)
	CommitAdmins(admins []domain.Admin) error
}

// RefDataStore persists the user-managed reference lists.
type RefDataStore interface {
	LoadRefData() (*domain.RefData, error)
	CommitRefData(ref *domain.RefData) error
}

// DocumentParser extracts structured bill data from an uploaded document
// (image or PDF). Implementations are opaque remote calls; the import
// pipeline owns the retry/backoff contract.
type DocumentParser interface {
	Parse(ctx context.Context, data []byte, mimeType string) (*domain.ImportedBillData, error)
}

// AddressLookup resolves a Brazilian postal code into an address.
type AddressLookup interface {
	Lookup(ctx context.Context, cep string) (*domain.Address, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// Clock supplies "now". The dev tools can shift it forward to exercise
// recurring generation across due-date boundaries.
type Clock interface {
	Now() time.Time
}
