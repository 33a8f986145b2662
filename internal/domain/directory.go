package domain

import "time"

// ============================================================
// Companies / Users / Admins (Colaboradores)
// ============================================================

// Attachment is a binary file kept inline with its owning entity,
// base64-encoded the same way the persisted collections are stored.
type Attachment struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data string `json:"data"` // base64
}

// Company is a contracting company that collaborators link to.
type Company struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	CNPJ         string       `json:"cnpj"`
	CEP          string       `json:"cep"`
	Address      string       `json:"address"`
	Number       string       `json:"number"`
	Complement   string       `json:"complement"`
	Neighborhood string       `json:"neighborhood"`
	City         string       `json:"city"`
	State        string       `json:"state"`
	Phone        string       `json:"phone"`
	Key          string       `json:"key"`
	Attachments  []Attachment `json:"attachments"`
	BankDetails  []BankDetail `json:"bankDetails"`
}

// UserType is the contract modality of a collaborator.
type UserType string

const (
	UserPJ      UserType = "PJ"
	UserCLT     UserType = "CLT"
	UserPartner UserType = "PARCEIRO"
)

// Phone is one contact number of a collaborator.
type Phone struct {
	ID          string `json:"id"`
	Number      string `json:"number"`
	PhoneType   string `json:"phoneType"` // CELL or LANDLINE
	HasWhatsApp bool   `json:"hasWhatsApp"`
}

// Address is a structured Brazilian address (CEP-resolvable).
type Address struct {
	CEP          string `json:"cep"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
}

// User is a collaborator (PJ, CLT or partner).
type User struct {
	ID         string   `json:"id"`
	Type       UserType `json:"type"`
	StartDate  string   `json:"startDate"`         // YYYY-MM-DD
	EndDate    string   `json:"endDate,omitempty"` // YYYY-MM-DD
	CompanyIDs []string `json:"companyIds,omitempty"`

	FullName            string       `json:"fullName"`
	CPF                 string       `json:"cpf"`
	BirthDate           string       `json:"birthDate"`
	Email               string       `json:"email"`
	Phones              []Phone      `json:"phones"`
	PersonalAttachments []Attachment `json:"personalAttachments"`
	BankDetails         []BankDetail `json:"bankDetails"`

	// PJ / Partner
	CompanyName    string   `json:"companyName,omitempty"`
	CNPJ           string   `json:"cnpj,omitempty"`
	CompanyAddress *Address `json:"companyAddress,omitempty"`
	HomeAddress    *Address `json:"homeAddress,omitempty"`

	// CLT
	PIS         string `json:"pis,omitempty"`
	MotherName  string `json:"motherName,omitempty"`
	FatherName  string `json:"fatherName,omitempty"`
	JobFunction string `json:"jobFunction,omitempty"`

	PortalKey string         `json:"portalKey,omitempty"`
	History   []HistoryEntry `json:"history"`
}

// WithHistory returns a copy of the user with one extra history entry.
func (u User) WithHistory(event, details string, now time.Time) User {
	u.History = AppendHistory(u.History, event, details, now)
	return u
}

// ActiveOn reports whether the collaborator is active on the given date
// (an empty or future end date means active).
func (u User) ActiveOn(date string) bool {
	return u.EndDate == "" || u.EndDate >= date
}

// Admin is a back-office administrator.
type Admin struct {
	ID        string `json:"id"`
	FullName  string `json:"fullName"`
	CPF       string `json:"cpf"`
	BirthDate string `json:"birthDate"`
	Email     string `json:"email"`
	EndDate   string `json:"endDate,omitempty"`
}

// RefData holds the user-managed reference lists.
type RefData struct {
	Categories   []string `json:"categories"`
	CostCenters  []string `json:"costCenters"`
	JobFunctions []string `json:"jobFunctions"`
}

// DefaultRefData returns the lists seeded on first run.
func DefaultRefData() *RefData {
	return &RefData{
		Categories:   []string{"Moradia", "Alimentação", "Transporte", "Lazer", "Saúde"},
		CostCenters:  []string{"Pessoal", "Trabalho"},
		JobFunctions: []string{"Desenvolvedor", "Designer", "Gerente de Projetos", "Analista de RH"},
	}
}
