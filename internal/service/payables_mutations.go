package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gestorcontas/contas-desk-go/internal/domain"
	"github.com/gestorcontas/contas-desk-go/internal/match"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Creation
// ============================================================

// CreateOutcome distinguishes the creation results the UI reacts to.
type CreateOutcome string

const (
	// OutcomeCreated means bills were created and committed.
	OutcomeCreated CreateOutcome = "CREATED"
	// OutcomeDuplicateWarning means nothing was created: a saved bill with
	// a similar title and beneficiary on the same due date already exists
	// and the caller must confirm before retrying.
	OutcomeDuplicateWarning CreateOutcome = "DUPLICATE_WARNING"
)

// CreateResult is the payload of a bill creation.
type CreateResult struct {
	Outcome   CreateOutcome `json:"outcome"`
	Bills     []domain.Bill `json:"bills,omitempty"`
	Duplicate *domain.Bill  `json:"duplicate,omitempty"`
	Generated int           `json:"generated"`
}

// Create validates the input, guards against likely duplicates, expands
// installment plans, and commits. With confirmed=false a fuzzy match on
// (title, beneficiary, due date) against the saved collection aborts the
// creation and surfaces the conflicting bill instead.
func (s *PayablesService) Create(ctx context.Context, input domain.NewBillInput, confirmed bool) (*CreateResult, error) {
	_, span := payablesTracer.Start(ctx, "PayablesService.Create")
	defer span.End()
	span.SetAttributes(attribute.String("bill.type", string(input.Type)))

	if err := validateBillInput(input); err != nil {
		return nil, err
	}

	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !confirmed {
		if dup := s.findDuplicateLocked(input.Title, input.Beneficiary, input.DueDate); dup != nil {
			d := *dup
			return &CreateResult{Outcome: OutcomeDuplicateWarning, Duplicate: &d}, nil
		}
	}

	created := buildBills(input, now)
	s.bills = append(s.bills, created...)
	generated := s.regenerateLocked()
	s.sortLocked()
	s.commitLocked()

	s.metrics.IncrBillMutation("create")
	s.logger.Info("bills created",
		zap.Int("count", len(created)),
		zap.String("title", input.Title),
		zap.Int("generated", generated))

	return &CreateResult{Outcome: OutcomeCreated, Bills: created, Generated: generated}, nil
}

// CreateBatch commits a set of already-reviewed inputs (the import save
// path). No duplicate guard: the review step surfaced duplicates already.
func (s *PayablesService) CreateBatch(ctx context.Context, inputs []domain.NewBillInput) (*CreateResult, error) {
	_, span := payablesTracer.Start(ctx, "PayablesService.CreateBatch")
	defer span.End()

	for _, in := range inputs {
		if err := validateBillInput(in); err != nil {
			return nil, err
		}
	}

	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	var created []domain.Bill
	for _, in := range inputs {
		created = append(created, buildBills(in, now)...)
	}
	s.bills = append(s.bills, created...)
	generated := s.regenerateLocked()
	s.sortLocked()
	s.commitLocked()

	s.metrics.IncrBillMutation("create")
	return &CreateResult{Outcome: OutcomeCreated, Bills: created, Generated: generated}, nil
}

// PreviewInstallments expands an installment plan without committing, so
// the caller can adjust individual amounts and due dates before saving.
func (s *PayablesService) PreviewInstallments(ctx context.Context, input domain.NewBillInput) ([]domain.Bill, error) {
	_, span := payablesTracer.Start(ctx, "PayablesService.PreviewInstallments")
	defer span.End()

	if input.Type != domain.BillInstallment {
		return nil, &domain.ErrValidation{Field: "type", Message: "apenas contas parceladas podem ser pré-visualizadas"}
	}
	if err := validateBillInput(input); err != nil {
		return nil, err
	}
	return buildBills(input, s.clock.Now()), nil
}

// SaveInstallments commits a previously previewed (and possibly edited)
// installment plan as-is.
func (s *PayablesService) SaveInstallments(ctx context.Context, bills []domain.Bill) (*CreateResult, error) {
	_, span := payablesTracer.Start(ctx, "PayablesService.SaveInstallments")
	defer span.End()

	if len(bills) == 0 {
		return nil, &domain.ErrValidation{Field: "bills", Message: "nenhuma parcela informada"}
	}
	for _, b := range bills {
		if b.ID == "" {
			return nil, &domain.ErrValidation{Field: "id", Message: "parcela sem identificador"}
		}
		if b.Amount <= 0 {
			return nil, &domain.ErrValidation{Field: "amount", Message: "o valor de cada parcela deve ser maior que zero"}
		}
		if b.DueDate.IsZero() {
			return nil, &domain.ErrValidation{Field: "dueDate", Message: "data de vencimento é obrigatória"}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.bills = append(s.bills, bills...)
	generated := s.regenerateLocked()
	s.sortLocked()
	s.commitLocked()

	s.metrics.IncrBillMutation("create")
	return &CreateResult{Outcome: OutcomeCreated, Bills: bills, Generated: generated}, nil
}

// ============================================================
// Edit
// ============================================================

// EditBillInput carries the editable fields of an existing bill.
type EditBillInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Beneficiary string    `json:"beneficiary"`
	Amount      float64   `json:"amount"`
	DueDate     time.Time `json:"dueDate"`
	Category    string    `json:"category"`
	CostCenter  string    `json:"costCenter"`
	Barcode     string    `json:"barcode"`
}

// Edit applies the input to a bill and records a history entry describing
// every field that changed. An edit that changes nothing appends nothing.
func (s *PayablesService) Edit(ctx context.Context, id string, input EditBillInput) (*domain.Bill, error) {
	_, span := payablesTracer.Start(ctx, "PayablesService.Edit")
	defer span.End()

	if strings.TrimSpace(input.Title) == "" {
		return nil, &domain.ErrValidation{Field: "title", Message: "título é obrigatório"}
	}
	if input.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "o valor deve ser maior que zero"}
	}
	if input.DueDate.IsZero() {
		return nil, &domain.ErrValidation{Field: "dueDate", Message: "data de vencimento é obrigatória"}
	}

	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: id}
	}

	b := s.bills[idx]
	changes := describeChanges(b, input)

	b.Title = input.Title
	b.Description = input.Description
	b.Beneficiary = input.Beneficiary
	b.Amount = input.Amount
	b.DueDate = input.DueDate
	b.Category = input.Category
	b.CostCenter = input.CostCenter
	b.Barcode = input.Barcode

	if len(changes) > 0 {
		b = b.WithHistory("Edição", strings.Join(changes, " "), now)
	}
	s.bills[idx] = b

	s.regenerateLocked()
	s.sortLocked()
	s.commitLocked()

	s.metrics.IncrBillMutation("edit")
	out := b
	return &out, nil
}

func describeChanges(before domain.Bill, after EditBillInput) []string {
	var changes []string
	str := func(label, a, b string) {
		if a != b {
			changes = append(changes, fmt.Sprintf("%s: de %q para %q.", label, a, b))
		}
	}
	str("Título", before.Title, after.Title)
	str("Descrição", before.Description, after.Description)
	str("Beneficiário", before.Beneficiary, after.Beneficiary)
	str("Categoria", before.Category, after.Category)
	str("Centro de custo", before.CostCenter, after.CostCenter)
	str("Código de barras", before.Barcode, after.Barcode)
	if before.Amount != after.Amount {
		changes = append(changes, fmt.Sprintf("Valor: de %s para %s.", formatBRL(before.Amount), formatBRL(after.Amount)))
	}
	if !domain.SameDate(before.DueDate, after.DueDate) {
		changes = append(changes, fmt.Sprintf("Vencimento: de %s para %s.", formatDate(before.DueDate), formatDate(after.DueDate)))
	}
	return changes
}

// ============================================================
// Payment
// ============================================================

// PayResult is the payload of a payment: the paid bill, the synthesized
// successor when the bill is recurring, and the paid-vs-face difference.
type PayResult struct {
	Bill       domain.Bill  `json:"bill"`
	Successor  *domain.Bill `json:"successor,omitempty"`
	Difference float64      `json:"difference"`
	Generated  int          `json:"generated"`
}

// Pay marks a bill paid with an explicit payment date and amount (which
// may differ from the face amount). Paying a recurring monthly or annual
// bill synthesizes the next occurrence immediately instead of waiting for
// the sweep, so the series never goes invisible after a payment.
func (s *PayablesService) Pay(ctx context.Context, id string, paymentDate time.Time, paidAmount float64) (*PayResult, error) {
	_, span := payablesTracer.Start(ctx, "PayablesService.Pay")
	defer span.End()
	span.SetAttributes(attribute.String("bill.id", id))

	if paidAmount <= 0 {
		return nil, &domain.ErrValidation{Field: "paidAmount", Message: "o valor pago deve ser maior que zero"}
	}
	if paymentDate.IsZero() {
		return nil, &domain.ErrValidation{Field: "paymentDate", Message: "data de pagamento é obrigatória"}
	}

	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: id}
	}
	b := s.bills[idx]
	if b.IsPaid {
		return nil, &domain.ErrValidation{Field: "id", Message: "a conta já está paga"}
	}

	pd := domain.DateOnly(paymentDate)
	b.IsPaid = true
	b.PaymentDate = &pd
	b.PaidAmount = &paidAmount
	b = b.WithHistory("Pagamento",
		fmt.Sprintf("Pagamento de %s registrado em %s.", formatBRL(paidAmount), formatDate(pd)), now)
	s.bills[idx] = b

	var successor *domain.Bill
	if b.IsRecurring && b.Type.IsRecurrable() {
		next := b.NextOccurrence(b.DueDate)
		if !s.occurrenceExistsLocked(b.SeriesID, next) {
			nb := cloneForOccurrence(b, next, now)
			nb.History = nil
			nb = nb.WithHistory("Criação Automática",
				fmt.Sprintf("Conta gerada automaticamente após pagamento da fatura anterior de %s.", formatDate(b.DueDate)), now)
			s.bills = append(s.bills, nb)
			successor = &nb
		}
	}

	generated := s.regenerateLocked()
	s.sortLocked()
	s.commitLocked()

	s.metrics.IncrBillMutation("pay")
	s.logger.Info("bill paid",
		zap.String("id", id),
		zap.Float64("paidAmount", paidAmount),
		zap.Bool("successor", successor != nil))

	return &PayResult{
		Bill:       b,
		Successor:  successor,
		Difference: paidAmount - b.Amount,
		Generated:  generated,
	}, nil
}

// PayMany quick-pays a set of bills at their face amount, dated today.
// Bills already paid or missing are skipped.
func (s *PayablesService) PayMany(ctx context.Context, ids []string) (int, error) {
	_, span := payablesTracer.Start(ctx, "PayablesService.PayMany")
	defer span.End()

	now := s.clock.Now()
	today := domain.DateOnly(now)

	s.mu.Lock()
	defer s.mu.Unlock()

	paid := 0
	for _, id := range ids {
		idx := s.indexLocked(id)
		if idx < 0 || s.bills[idx].IsPaid {
			continue
		}
		b := s.bills[idx]
		amount := b.Amount
		b.IsPaid = true
		b.PaymentDate = &today
		b.PaidAmount = &amount
		b = b.WithHistory("Pagamento",
			fmt.Sprintf("Pagamento de %s registrado em %s.", formatBRL(amount), formatDate(today)), now)
		s.bills[idx] = b

		if b.IsRecurring && b.Type.IsRecurrable() {
			next := b.NextOccurrence(b.DueDate)
			if !s.occurrenceExistsLocked(b.SeriesID, next) {
				nb := cloneForOccurrence(b, next, now)
				nb.History = nil
				nb = nb.WithHistory("Criação Automática",
					fmt.Sprintf("Conta gerada automaticamente após pagamento da fatura anterior de %s.", formatDate(b.DueDate)), now)
				s.bills = append(s.bills, nb)
			}
		}
		paid++
	}
	if paid == 0 {
		return 0, nil
	}

	s.regenerateLocked()
	s.sortLocked()
	s.commitLocked()
	s.metrics.IncrBillMutation("pay")
	return paid, nil
}

// Unpay reverts a payment, clearing the payment fields.
func (s *PayablesService) Unpay(ctx context.Context, id string) (*domain.Bill, error) {
	_, span := payablesTracer.Start(ctx, "PayablesService.Unpay")
	defer span.End()

	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: id}
	}
	b := s.bills[idx]
	if !b.IsPaid {
		return nil, &domain.ErrValidation{Field: "id", Message: "a conta não está paga"}
	}

	b.IsPaid = false
	b.PaymentDate = nil
	b.PaidAmount = nil
	b = b.WithHistory("Estorno", "Pagamento estornado. A conta voltou a ficar em aberto.", now)
	s.bills[idx] = b

	s.regenerateLocked()
	s.sortLocked()
	s.commitLocked()

	s.metrics.IncrBillMutation("unpay")
	out := b
	return &out, nil
}

// ============================================================
// Postponement
// ============================================================

// Postpone moves the due date forward. The new date must be strictly
// after the current one. The first postponement freezes the original due
// date; later postponements never overwrite it.
func (s *PayablesService) Postpone(ctx context.Context, id string, newDate time.Time, reason string) (*domain.Bill, error) {
	_, span := payablesTracer.Start(ctx, "PayablesService.Postpone")
	defer span.End()

	if newDate.IsZero() {
		return nil, &domain.ErrValidation{Field: "newDate", Message: "nova data de vencimento é obrigatória"}
	}

	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: id}
	}
	b := s.bills[idx]
	if b.IsPaid {
		return nil, &domain.ErrValidation{Field: "id", Message: "não é possível postergar uma conta paga"}
	}
	if !domain.DateOnly(newDate).After(domain.DateOnly(b.DueDate)) {
		return nil, &domain.ErrValidation{Field: "newDate", Message: "a nova data deve ser posterior ao vencimento atual"}
	}

	if b.OriginalDueDate == nil {
		orig := b.DueDate
		b.OriginalDueDate = &orig
	}
	b.Postponements = append(append([]domain.PostponementRecord{}, b.Postponements...),
		domain.PostponementRecord{PostponedAt: now, Reason: reason})
	b.DueDate = domain.DateOnly(newDate)

	details := fmt.Sprintf("Vencimento adiado para %s.", formatDate(newDate))
	if strings.TrimSpace(reason) != "" {
		details += " Motivo: " + reason
	}
	b = b.WithHistory("Postergação", details, now)
	s.bills[idx] = b

	s.regenerateLocked()
	s.sortLocked()
	s.commitLocked()

	s.metrics.IncrBillMutation("postpone")
	out := b
	return &out, nil
}

// PostponeMany pushes a set of unpaid bills seven days forward in one go.
func (s *PayablesService) PostponeMany(ctx context.Context, ids []string) (int, error) {
	_, span := payablesTracer.Start(ctx, "PayablesService.PostponeMany")
	defer span.End()

	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	postponed := 0
	for _, id := range ids {
		idx := s.indexLocked(id)
		if idx < 0 || s.bills[idx].IsPaid {
			continue
		}
		b := s.bills[idx]
		if b.OriginalDueDate == nil {
			orig := b.DueDate
			b.OriginalDueDate = &orig
		}
		b.Postponements = append(append([]domain.PostponementRecord{}, b.Postponements...),
			domain.PostponementRecord{PostponedAt: now, Reason: "Postergado em massa."})
		b.DueDate = domain.DateOnly(b.DueDate).AddDate(0, 0, 7)
		b = b.WithHistory("Postergação",
			fmt.Sprintf("Vencimento adiado para %s. Motivo: Postergado em massa.", formatDate(b.DueDate)), now)
		s.bills[idx] = b
		postponed++
	}
	if postponed == 0 {
		return 0, nil
	}

	s.regenerateLocked()
	s.sortLocked()
	s.commitLocked()
	s.metrics.IncrBillMutation("postpone")
	return postponed, nil
}

// ============================================================
// Delete / attach / recurring toggle
// ============================================================

// DeleteResult reports a deletion and any occurrences the generation
// engine rebuilt right after it.
type DeleteResult struct {
	Removed   int `json:"removed"`
	Generated int `json:"generated"`
}

// Delete removes bills by id. Generation runs against the post-delete
// collection, so deleting the only past occurrence of an active series
// brings its due occurrences back; deactivate the series first to make a
// delete stick.
func (s *PayablesService) Delete(ctx context.Context, ids []string) (*DeleteResult, error) {
	_, span := payablesTracer.Start(ctx, "PayablesService.Delete")
	defer span.End()

	if len(ids) == 0 {
		return nil, &domain.ErrValidation{Field: "ids", Message: "nenhum identificador informado"}
	}

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.bills[:0:0]
	for _, b := range s.bills {
		if _, gone := drop[b.ID]; !gone {
			kept = append(kept, b)
		}
	}
	removed := len(s.bills) - len(kept)
	if removed == 0 {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: ids[0]}
	}
	s.bills = kept

	generated := s.regenerateLocked()
	s.sortLocked()
	s.commitLocked()

	s.metrics.IncrBillMutation("delete")
	s.logger.Info("bills deleted", zap.Int("removed", removed), zap.Int("generated", generated))
	return &DeleteResult{Removed: removed, Generated: generated}, nil
}

// Attach adds a file to a bill and records it in the history.
func (s *PayablesService) Attach(ctx context.Context, id string, att domain.Attachment) (*domain.Bill, error) {
	_, span := payablesTracer.Start(ctx, "PayablesService.Attach")
	defer span.End()

	if strings.TrimSpace(att.Name) == "" || att.Data == "" {
		return nil, &domain.ErrValidation{Field: "attachment", Message: "nome e conteúdo do arquivo são obrigatórios"}
	}

	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: id}
	}
	b := s.bills[idx]
	b.Attachments = append(append([]domain.Attachment{}, b.Attachments...), att)
	b = b.WithHistory("Anexo", fmt.Sprintf("Arquivo %q anexado.", att.Name), now)
	s.bills[idx] = b

	s.commitLocked()
	s.metrics.IncrBillMutation("attach")
	out := b
	return &out, nil
}

// ToggleRecurring flips the recurring flag of a monthly or annual bill.
// Deactivating stops future generation for the series; the flag alone is
// flipped, existing occurrences are untouched.
func (s *PayablesService) ToggleRecurring(ctx context.Context, id string) (*domain.Bill, error) {
	_, span := payablesTracer.Start(ctx, "PayablesService.ToggleRecurring")
	defer span.End()

	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: id}
	}
	b := s.bills[idx]
	if !b.Type.IsRecurrable() {
		return nil, &domain.ErrValidation{Field: "type", Message: "apenas contas mensais ou anuais podem ser recorrentes"}
	}

	b.IsRecurring = !b.IsRecurring
	state := "desativada"
	if b.IsRecurring {
		state = "ativada"
	}
	b = b.WithHistory("Recorrência", fmt.Sprintf("Recorrência %s para esta conta.", state), now)
	s.bills[idx] = b

	generated := s.regenerateLocked()
	s.sortLocked()
	s.commitLocked()

	s.metrics.IncrBillMutation("recurring")
	s.logger.Info("recurring toggled",
		zap.String("id", id),
		zap.Bool("isRecurring", b.IsRecurring),
		zap.Int("generated", generated))
	out := b
	return &out, nil
}

// ============================================================
// Builders / helpers
// ============================================================

func validateBillInput(in domain.NewBillInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return &domain.ErrValidation{Field: "title", Message: "título é obrigatório"}
	}
	if strings.TrimSpace(in.Beneficiary) == "" {
		return &domain.ErrValidation{Field: "beneficiary", Message: "beneficiário é obrigatório"}
	}
	if in.Amount <= 0 {
		return &domain.ErrValidation{Field: "amount", Message: "o valor deve ser maior que zero"}
	}
	if in.DueDate.IsZero() {
		return &domain.ErrValidation{Field: "dueDate", Message: "data de vencimento é obrigatória"}
	}
	switch in.Type {
	case domain.BillVariable, domain.BillMonthly, domain.BillAnnual:
	case domain.BillInstallment:
		if in.Installments < 2 {
			return &domain.ErrValidation{Field: "installments", Message: "uma conta parcelada precisa de pelo menos 2 parcelas"}
		}
	default:
		return &domain.ErrValidation{Field: "type", Message: "tipo de conta inválido"}
	}
	return nil
}

// buildBills materializes one input into the bills it implies: one bill
// for variable/monthly/annual, N bills for an installment plan. Recurring
// monthly/annual bills receive a fresh series id at creation; the series
// id is never assigned later.
func buildBills(in domain.NewBillInput, now time.Time) []domain.Bill {
	base := domain.Bill{
		Title:         in.Title,
		Description:   in.Description,
		Beneficiary:   in.Beneficiary,
		Amount:        in.Amount,
		DueDate:       domain.DateOnly(in.DueDate),
		Category:      in.Category,
		CostCenter:    in.CostCenter,
		Type:          in.Type,
		Barcode:       in.Barcode,
		Postponements: []domain.PostponementRecord{},
	}
	if in.Type.IsRecurrable() && in.IsRecurring {
		base.IsRecurring = true
		base.SeriesID = uuid.New().String()
	}

	finish := func(b domain.Bill) domain.Bill {
		b = b.WithHistory("Criação", fmt.Sprintf("Conta criada com valor de %s.", formatBRL(b.Amount)), now)
		if in.Attachment != nil {
			b.Attachments = []domain.Attachment{*in.Attachment}
			b = b.WithHistory("Anexo", fmt.Sprintf("Arquivo %q anexado.", in.Attachment.Name), now)
		}
		return b
	}

	if in.Type != domain.BillInstallment {
		base.ID = uuid.New().String()
		return []domain.Bill{finish(base)}
	}

	// Installment plans share a base id and split the total evenly, one
	// month apart starting at the input due date.
	baseID := uuid.New().String()
	per := in.Amount / float64(in.Installments)
	bills := make([]domain.Bill, 0, in.Installments)
	for i := 1; i <= in.Installments; i++ {
		b := base
		b.ID = fmt.Sprintf("%s-%d", baseID, i)
		b.Amount = per
		b.DueDate = base.DueDate.AddDate(0, i-1, 0)
		b.InstallmentNumber = i
		b.TotalInstallments = in.Installments
		bills = append(bills, finish(b))
	}
	return bills
}

// findDuplicateLocked returns a saved bill whose title and beneficiary
// fuzzy-match the input on the same due date, if any.
func (s *PayablesService) findDuplicateLocked(title, beneficiary string, dueDate time.Time) *domain.Bill {
	for i := range s.bills {
		b := &s.bills[i]
		if domain.SameDate(b.DueDate, dueDate) &&
			match.IsFuzzyMatch(b.Title, title) &&
			match.IsFuzzyMatch(b.Beneficiary, beneficiary) {
			return b
		}
	}
	return nil
}

func (s *PayablesService) occurrenceExistsLocked(seriesID string, due time.Time) bool {
	if seriesID == "" {
		return false
	}
	for i := range s.bills {
		if s.bills[i].SeriesID == seriesID && domain.SameDate(s.bills[i].DueDate, due) {
			return true
		}
	}
	return false
}

func formatBRL(v float64) string {
	return fmt.Sprintf("R$ %.2f", v)
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006")
}
