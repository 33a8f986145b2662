// Package boltstore persists the application collections in a local bbolt
// file. Each collection is stored whole, as one JSON document under one
// key, mirroring the replace-on-commit semantics of the in-memory state:
// services load a collection on startup and hand back the full updated
// collection after every mutation.
package boltstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gestorcontas/contas-desk-go/internal/domain"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

const bucketName = "collections"

const (
	keyBills     = "bills"
	keyCompanies = "companies"
	keyUsers     = "users"
	keyAdmins    = "admins"
	keyRefData   = "refdata"
)

// Store implements port.BillStore, port.DirectoryStore and
// port.RefDataStore on a single bbolt file.
type Store struct {
	db     *bbolt.DB
	logger *zap.Logger
}

// Open opens (or creates) the database file and its bucket.
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bbolt database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// load unmarshals the collection stored under key into out. A missing key
// leaves out untouched; malformed stored data is logged and treated as a
// missing collection so startup degrades to an empty state instead of
// crashing.
func (s *Store) load(key string, out any) error {
	return s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(key))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			s.logger.Error("discarding malformed stored collection",
				zap.String("collection", key),
				zap.Error(err),
			)
		}
		return nil
	})
}

// commit replaces the collection stored under key.
func (s *Store) commit(key string, in any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", key, err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(key), data)
	})
}

// --- port.BillStore ---

func (s *Store) LoadBills() ([]domain.Bill, error) {
	bills := []domain.Bill{}
	if err := s.load(keyBills, &bills); err != nil {
		return nil, err
	}
	return bills, nil
}

func (s *Store) CommitBills(bills []domain.Bill) error {
	return s.commit(keyBills, bills)
}

// --- port.DirectoryStore ---

func (s *Store) LoadCompanies() ([]domain.Company, error) {
	companies := []domain.Company{}
	if err := s.load(keyCompanies, &companies); err != nil {
		return nil, err
	}
	return companies, nil
}

func (s *Store) CommitCompanies(companies []domain.Company) error {
	return s.commit(keyCompanies, companies)
}

func (s *Store) LoadUsers() ([]domain.User, error) {
	users := []domain.User{}
	if err := s.load(keyUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) CommitUsers(users []domain.User) error {
	return s.commit(keyUsers, users)
}

func (s *Store) LoadAdmins() ([]domain.Admin, error) {
	admins := []domain.Admin{}
	if err := s.load(keyAdmins, &admins); err != nil {
		return nil, err
	}
	return admins, nil
}

func (s *Store) CommitAdmins(admins []domain.Admin) error {
	return s.commit(keyAdmins, admins)
}

// --- port.RefDataStore ---

func (s *Store) LoadRefData() (*domain.RefData, error) {
	var ref *domain.RefData
	if err := s.load(keyRefData, &ref); err != nil {
		return nil, err
	}
	if ref == nil {
		ref = domain.DefaultRefData()
	}
	return ref, nil
}

func (s *Store) CommitRefData(ref *domain.RefData) error {
	return s.commit(keyRefData, ref)
}
