package domain

import "time"

// ============================================================
// Bill Import (AI-assisted document parsing)
// ============================================================

// ImportedBillData is the structured extraction returned by the document
// parsing service for one file.
type ImportedBillData struct {
	Title       string  `json:"title"`
	Beneficiary string  `json:"beneficiary"`
	Amount      float64 `json:"amount"`
	DueDate     string  `json:"dueDate"` // YYYY-MM-DD
	Barcode     string  `json:"barcode,omitempty"`
}

// ImportStatus is the lifecycle state of one imported-bill draft.
type ImportStatus string

const (
	ImportParsing ImportStatus = "parsing"
	ImportSuccess ImportStatus = "success"
	ImportError   ImportStatus = "error"
)

// ImportFile is one file submitted for parsing.
type ImportFile struct {
	Name     string
	MimeType string
	Data     []byte
}

// ImportedBillReview is a transient reviewable draft produced by the import
// pipeline. Drafts live only for the duration of a batch: created on
// submission, mutated as parsing completes, discarded on close, and
// converted into real bills only on explicit save.
type ImportedBillReview struct {
	ID       string       `json:"id"`
	FileName string       `json:"fileName"`
	MimeType string       `json:"mimeType"`
	Status   ImportStatus `json:"status"`

	Data *ImportedBillData `json:"data,omitempty"`

	// User-editable review fields.
	Category     string   `json:"category"`
	CostCenter   string   `json:"costCenter"`
	Type         BillType `json:"type"`
	Installments int      `json:"installments"`
	IsRecurring  bool     `json:"isRecurring"`

	ErrorMessage string `json:"errorMessage,omitempty"`
	IsDuplicate  bool   `json:"isDuplicate,omitempty"`
	AutoFilled   bool   `json:"autoFilled,omitempty"`
}

// ============================================================
// Canonical bill creation input
// ============================================================

// NewBillInput is the single canonical shape every creation path (manual
// form, installment editor, import review) normalizes into before any
// business logic runs.
type NewBillInput struct {
	Title        string
	Description  string
	Beneficiary  string
	Amount       float64
	DueDate      time.Time
	Category     string
	CostCenter   string
	Type         BillType
	Installments int
	Barcode      string
	IsRecurring  bool
	Attachment   *Attachment
}

// FromImportReview normalizes a successfully parsed draft into the
// canonical creation input. The draft must have Status == ImportSuccess.
func FromImportReview(r ImportedBillReview) (NewBillInput, error) {
	if r.Status != ImportSuccess || r.Data == nil {
		return NewBillInput{}, &ErrValidation{Field: "status", Message: "rascunho ainda não foi processado com sucesso"}
	}
	due, err := time.Parse("2006-01-02", r.Data.DueDate)
	if err != nil {
		return NewBillInput{}, &ErrValidation{Field: "dueDate", Message: "formato inválido, use YYYY-MM-DD"}
	}
	return NewBillInput{
		Title:        r.Data.Title,
		Description:  "Importado do arquivo: " + r.FileName,
		Beneficiary:  r.Data.Beneficiary,
		Amount:       r.Data.Amount,
		DueDate:      due,
		Category:     r.Category,
		CostCenter:   r.CostCenter,
		Type:         r.Type,
		Installments: r.Installments,
		Barcode:      r.Data.Barcode,
		IsRecurring:  r.IsRecurring,
	}, nil
}
