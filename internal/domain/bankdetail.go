package domain

import (
	"sort"
	"time"
)

// ============================================================
// Bank Details (Dados Bancários + Pix)
// ============================================================

// PixKeyType is the kind of Pix key attached to a bank account.
type PixKeyType string

const (
	PixKeyCPF    PixKeyType = "CPF"
	PixKeyCNPJ   PixKeyType = "CNPJ"
	PixKeyEmail  PixKeyType = "EMAIL"
	PixKeyPhone  PixKeyType = "PHONE"
	PixKeyRandom PixKeyType = "RANDOM"
)

// BankDetail is one bank account owned by a Company or User.
// Invariant: at most one entry per owner has IsActive = true.
type BankDetail struct {
	ID            string     `json:"id"`
	BankName      string     `json:"bankName"`
	Agency        string     `json:"agency"`
	Account       string     `json:"account"`
	PixKeyType    PixKeyType `json:"pixKeyType"`
	PixKey        string     `json:"pixKey"`
	IsActive      bool       `json:"isActive"`
	CreatedAt     time.Time  `json:"createdAt"`
	DeactivatedAt *time.Time `json:"deactivatedAt,omitempty"`
}

// AddOrUpdateBankDetail applies an add-or-edit to a bank details list and
// returns the new list. Adding (entry.ID not present) deactivates every
// currently-active entry, stamping DeactivatedAt, then inserts the entry as
// the single active account. Editing updates fields in place and leaves the
// active flag untouched. Callers validate required fields beforehand; this
// operation cannot fail on valid input.
func AddOrUpdateBankDetail(details []BankDetail, entry BankDetail, now time.Time) []BankDetail {
	out := make([]BankDetail, len(details))
	copy(out, details)

	for i := range out {
		if out[i].ID == entry.ID {
			entry.IsActive = out[i].IsActive
			entry.CreatedAt = out[i].CreatedAt
			entry.DeactivatedAt = out[i].DeactivatedAt
			out[i] = entry
			return out
		}
	}

	for i := range out {
		if out[i].IsActive {
			out[i].IsActive = false
			deactivated := now
			out[i].DeactivatedAt = &deactivated
		}
	}

	entry.IsActive = true
	entry.CreatedAt = now
	entry.DeactivatedAt = nil
	return append(out, entry)
}

// RemoveBankDetail removes the entry with the given id. If it was the
// active account and others remain, the most recently created remaining
// entry is promoted to active and its DeactivatedAt cleared.
func RemoveBankDetail(details []BankDetail, id string) []BankDetail {
	wasActive := false
	out := make([]BankDetail, 0, len(details))
	for _, d := range details {
		if d.ID == id {
			wasActive = d.IsActive
			continue
		}
		out = append(out, d)
	}

	if wasActive && len(out) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
		out[0].IsActive = true
		out[0].DeactivatedAt = nil
	}
	return out
}

// DeactivateAllBankDetails stamps every active entry inactive. Used when a
// collaborator is terminated. Returns the new list and how many entries
// were deactivated.
func DeactivateAllBankDetails(details []BankDetail, now time.Time) ([]BankDetail, int) {
	out := make([]BankDetail, len(details))
	copy(out, details)
	n := 0
	for i := range out {
		if out[i].IsActive {
			out[i].IsActive = false
			deactivated := now
			out[i].DeactivatedAt = &deactivated
			n++
		}
	}
	return out, n
}
