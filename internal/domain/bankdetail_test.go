package domain_test

import (
	"testing"
	"time"

	"github.com/gestorcontas/contas-desk-go/internal/domain"
)

func activeCount(details []domain.BankDetail) int {
	n := 0
	for _, d := range details {
		if d.IsActive {
			n++
		}
	}
	return n
}

func TestAddOrUpdateBankDetail_AddDeactivatesPrevious(t *testing.T) {
	now := date(2024, 4, 15)

	details := domain.AddOrUpdateBankDetail(nil, domain.BankDetail{ID: "a", BankName: "Banco A", Agency: "1", Account: "1"}, now)
	details = domain.AddOrUpdateBankDetail(details, domain.BankDetail{ID: "b", BankName: "Banco B", Agency: "2", Account: "2"}, now.Add(time.Hour))

	if len(details) != 2 {
		t.Fatalf("len = %d, want 2", len(details))
	}
	if activeCount(details) != 1 {
		t.Fatalf("active accounts = %d, want exactly 1", activeCount(details))
	}
	for _, d := range details {
		switch d.ID {
		case "a":
			if d.IsActive {
				t.Error("old account still active")
			}
			if d.DeactivatedAt == nil {
				t.Error("old account missing DeactivatedAt stamp")
			}
		case "b":
			if !d.IsActive {
				t.Error("new account not active")
			}
		}
	}
}

func TestAddOrUpdateBankDetail_EditKeepsActiveFlag(t *testing.T) {
	now := date(2024, 4, 15)
	details := domain.AddOrUpdateBankDetail(nil, domain.BankDetail{ID: "a", BankName: "Banco A", Agency: "1", Account: "1"}, now)
	details = domain.AddOrUpdateBankDetail(details, domain.BankDetail{ID: "b", BankName: "Banco B", Agency: "2", Account: "2"}, now.Add(time.Hour))

	// Edit the inactive account: it must stay inactive.
	details = domain.AddOrUpdateBankDetail(details, domain.BankDetail{ID: "a", BankName: "Banco A Editado", Agency: "9", Account: "9"}, now.Add(2*time.Hour))

	if len(details) != 2 {
		t.Fatalf("len = %d, want 2 (edit must not append)", len(details))
	}
	for _, d := range details {
		if d.ID == "a" {
			if d.BankName != "Banco A Editado" {
				t.Errorf("edit not applied: %s", d.BankName)
			}
			if d.IsActive {
				t.Error("edit must not reactivate the account")
			}
		}
	}
	if activeCount(details) != 1 {
		t.Fatalf("active accounts = %d, want 1", activeCount(details))
	}
}

func TestRemoveBankDetail_PromotesMostRecent(t *testing.T) {
	now := date(2024, 4, 15)
	details := domain.AddOrUpdateBankDetail(nil, domain.BankDetail{ID: "a", BankName: "A", Agency: "1", Account: "1"}, now)
	details = domain.AddOrUpdateBankDetail(details, domain.BankDetail{ID: "b", BankName: "B", Agency: "2", Account: "2"}, now.Add(time.Hour))
	details = domain.AddOrUpdateBankDetail(details, domain.BankDetail{ID: "c", BankName: "C", Agency: "3", Account: "3"}, now.Add(2*time.Hour))

	// Remove the active account; the most recently created remaining one
	// must become active again.
	details = domain.RemoveBankDetail(details, "c")

	if len(details) != 2 {
		t.Fatalf("len = %d, want 2", len(details))
	}
	if activeCount(details) != 1 {
		t.Fatalf("active accounts = %d, want 1", activeCount(details))
	}
	for _, d := range details {
		if d.ID == "b" {
			if !d.IsActive {
				t.Error("most recent remaining account not promoted")
			}
			if d.DeactivatedAt != nil {
				t.Error("promoted account must clear DeactivatedAt")
			}
		}
	}
}

func TestDeactivateAllBankDetails(t *testing.T) {
	now := date(2024, 4, 15)
	details := domain.AddOrUpdateBankDetail(nil, domain.BankDetail{ID: "a", BankName: "A", Agency: "1", Account: "1"}, now)
	details = domain.AddOrUpdateBankDetail(details, domain.BankDetail{ID: "b", BankName: "B", Agency: "2", Account: "2"}, now.Add(time.Hour))

	out, n := domain.DeactivateAllBankDetails(details, now.Add(2*time.Hour))
	if n != 1 {
		t.Fatalf("deactivated = %d, want 1 (only the active one)", n)
	}
	if activeCount(out) != 0 {
		t.Fatalf("active accounts = %d, want 0", activeCount(out))
	}
}
