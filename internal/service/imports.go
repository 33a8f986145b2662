package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gestorcontas/contas-desk-go/internal/domain"
	"github.com/gestorcontas/contas-desk-go/internal/infra/observability"
	"github.com/gestorcontas/contas-desk-go/internal/infra/resilience"
	"github.com/gestorcontas/contas-desk-go/internal/match"
	"github.com/gestorcontas/contas-desk-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var importTracer = otel.Tracer("service/imports")

// ImportService runs the AI-assisted bill import pipeline. Files are
// parsed strictly one at a time (the document parser is throttled hard):
// each file waits a fixed pre-delay, then goes through the parser with
// exponential backoff on rate limits, and a terminal failure aborts the
// remainder of the batch. Parsed drafts are held in memory for review and
// only become bills on an explicit save.
type ImportService struct {
	parser   port.DocumentParser
	payables *PayablesService
	bulkhead *resilience.Bulkhead
	metrics  *observability.Metrics
	logger   *zap.Logger

	preDelay    time.Duration
	maxAttempts int
	// sleep is swapped out in tests to run the pipeline without waiting.
	sleep func(ctx context.Context, d time.Duration) error

	mu     sync.Mutex
	drafts []domain.ImportedBillReview
}

// NewImportService wires the pipeline. maxAttempts counts the initial
// request plus rate-limit retries.
func NewImportService(parser port.DocumentParser, payables *PayablesService, preDelay time.Duration, maxAttempts int, metrics *observability.Metrics, logger *zap.Logger) *ImportService {
	return &ImportService{
		parser:      parser,
		payables:    payables,
		bulkhead:    resilience.NewBulkhead(1),
		metrics:     metrics,
		logger:      logger,
		preDelay:    preDelay,
		maxAttempts: maxAttempts,
		sleep:       sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ============================================================
// Batch parsing
// ============================================================

// BatchResult is the outcome of one parse batch: the reviewable drafts
// and whether any successful draft collided with a saved bill or an
// earlier file in the same batch.
type BatchResult struct {
	Drafts     []domain.ImportedBillReview `json:"drafts"`
	Duplicates int                         `json:"duplicates"`
	Aborted    bool                        `json:"aborted"`
}

// ParseBatch replaces any previous draft set and parses the files in
// submission order. Drafts for files after a terminal failure are marked
// cancelled without ever reaching the parser.
func (s *ImportService) ParseBatch(ctx context.Context, files []domain.ImportFile) (*BatchResult, error) {
	ctx, span := importTracer.Start(ctx, "ImportService.ParseBatch")
	defer span.End()
	span.SetAttributes(attribute.Int("files.count", len(files)))

	if len(files) == 0 {
		return nil, &domain.ErrValidation{Field: "files", Message: "nenhum arquivo enviado"}
	}

	drafts := make([]domain.ImportedBillReview, len(files))
	for i, f := range files {
		drafts[i] = domain.ImportedBillReview{
			ID:           uuid.New().String(),
			FileName:     f.Name,
			MimeType:     f.MimeType,
			Status:       domain.ImportParsing,
			Type:         domain.BillVariable,
			Installments: 2,
		}
	}

	saved := s.payables.Snapshot()

	aborted := false
	for i, f := range files {
		if aborted {
			drafts[i].Status = domain.ImportError
			drafts[i].ErrorMessage = "Importação cancelada."
			s.metrics.IncrImportFile(string(domain.ImportError))
			continue
		}
		if err := s.sleep(ctx, s.preDelay); err != nil {
			return nil, err
		}

		data, parseErr := s.parseWithRetry(ctx, f)
		if parseErr != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			drafts[i].Status = domain.ImportError
			drafts[i].ErrorMessage = importErrorMessage(parseErr)
			s.metrics.IncrImportFile(string(domain.ImportError))
			s.logger.Warn("import file failed, aborting batch",
				zap.String("file", f.Name), zap.Error(parseErr))
			aborted = true
			continue
		}

		drafts[i].Status = domain.ImportSuccess
		drafts[i].Data = data
		s.autoFill(&drafts[i], saved)
		drafts[i].IsDuplicate = isDuplicateDraft(drafts[i], saved, drafts[:i])
		s.metrics.IncrImportFile(string(domain.ImportSuccess))
	}

	duplicates := 0
	for _, d := range drafts {
		if d.IsDuplicate {
			duplicates++
		}
	}

	s.mu.Lock()
	s.drafts = drafts
	s.mu.Unlock()

	out := make([]domain.ImportedBillReview, len(drafts))
	copy(out, drafts)
	return &BatchResult{Drafts: out, Duplicates: duplicates, Aborted: aborted}, nil
}

// parseWithRetry guards the parser with the bulkhead and retries only on
// rate limits, waiting 2^attempt seconds between tries. Any other failure
// is terminal for the file.
func (s *ImportService) parseWithRetry(ctx context.Context, f domain.ImportFile) (*domain.ImportedBillData, error) {
	attempt := 0
	for {
		if err := s.bulkhead.Acquire(ctx); err != nil {
			return nil, err
		}
		data, err := s.parser.Parse(ctx, f.Data, f.MimeType)
		s.bulkhead.Release()
		if err == nil {
			return data, nil
		}

		var rl *domain.ErrRateLimited
		if !errors.As(err, &rl) {
			return nil, err
		}
		attempt++
		if attempt >= s.maxAttempts {
			return nil, err
		}
		s.metrics.IncrParseRetry()
		wait := time.Duration(1<<uint(attempt)) * time.Second
		s.logger.Warn("parser rate limited, backing off",
			zap.String("file", f.Name),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait))
		if err := s.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
}

// autoFill copies category, cost center and type from the most recently
// due saved bill whose title and beneficiary both fuzzy-match the
// extraction, so repeat imports of the same account arrive
// pre-categorized. Matching on the title alone would cross-pollinate
// payees that share generic titles like "Fatura Mensal".
func (s *ImportService) autoFill(draft *domain.ImportedBillReview, saved []domain.Bill) {
	var best *domain.Bill
	for i := range saved {
		b := &saved[i]
		if !match.IsFuzzyMatch(b.Title, draft.Data.Title) ||
			!match.IsFuzzyMatch(b.Beneficiary, draft.Data.Beneficiary) {
			continue
		}
		if best == nil || b.DueDate.After(best.DueDate) {
			best = b
		}
	}
	if best == nil {
		return
	}
	draft.Category = best.Category
	draft.CostCenter = best.CostCenter
	draft.Type = best.Type
	draft.IsRecurring = best.IsRecurring
	draft.AutoFilled = true
}

// isDuplicateDraft flags a draft whose title, beneficiary and due date
// all collide with a saved bill or with an earlier successful draft of
// the same batch.
func isDuplicateDraft(draft domain.ImportedBillReview, saved []domain.Bill, earlier []domain.ImportedBillReview) bool {
	for _, b := range saved {
		if b.DueDate.Format("2006-01-02") == draft.Data.DueDate &&
			match.IsFuzzyMatch(b.Title, draft.Data.Title) &&
			match.IsFuzzyMatch(b.Beneficiary, draft.Data.Beneficiary) {
			return true
		}
	}
	for _, d := range earlier {
		if d.Status != domain.ImportSuccess || d.Data == nil {
			continue
		}
		if d.Data.DueDate == draft.Data.DueDate &&
			match.IsFuzzyMatch(d.Data.Title, draft.Data.Title) &&
			match.IsFuzzyMatch(d.Data.Beneficiary, draft.Data.Beneficiary) {
			return true
		}
	}
	return false
}

func importErrorMessage(err error) string {
	var rl *domain.ErrRateLimited
	if errors.As(err, &rl) {
		return "Cota de uso da API excedida. Por favor, tente novamente mais tarde."
	}
	var unavailable *domain.ErrParserUnavailable
	if errors.As(err, &unavailable) {
		return "Importação de documentos não configurada no servidor."
	}
	return "Não foi possível ler os dados do arquivo."
}

// ============================================================
// Review / save
// ============================================================

// Drafts returns a copy of the current draft set.
func (s *ImportService) Drafts() []domain.ImportedBillReview {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ImportedBillReview, len(s.drafts))
	copy(out, s.drafts)
	return out
}

// DraftPatch carries the user-editable review fields. Nil means keep.
type DraftPatch struct {
	Title        *string          `json:"title"`
	Beneficiary  *string          `json:"beneficiary"`
	Amount       *float64         `json:"amount"`
	DueDate      *string          `json:"dueDate"`
	Category     *string          `json:"category"`
	CostCenter   *string          `json:"costCenter"`
	Type         *domain.BillType `json:"type"`
	Installments *int             `json:"installments"`
	IsRecurring  *bool            `json:"isRecurring"`
}

// UpdateDraft edits one successful draft in place during review.
func (s *ImportService) UpdateDraft(ctx context.Context, id string, patch DraftPatch) (*domain.ImportedBillReview, error) {
	_, span := importTracer.Start(ctx, "ImportService.UpdateDraft")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.drafts {
		if s.drafts[i].ID != id {
			continue
		}
		d := &s.drafts[i]
		if d.Status != domain.ImportSuccess || d.Data == nil {
			return nil, &domain.ErrValidation{Field: "status", Message: "apenas rascunhos processados com sucesso podem ser editados"}
		}
		if patch.Title != nil {
			d.Data.Title = *patch.Title
		}
		if patch.Beneficiary != nil {
			d.Data.Beneficiary = *patch.Beneficiary
		}
		if patch.Amount != nil {
			d.Data.Amount = *patch.Amount
		}
		if patch.DueDate != nil {
			if _, err := time.Parse("2006-01-02", *patch.DueDate); err != nil {
				return nil, &domain.ErrValidation{Field: "dueDate", Message: "formato inválido, use YYYY-MM-DD"}
			}
			d.Data.DueDate = *patch.DueDate
		}
		if patch.Category != nil {
			d.Category = *patch.Category
		}
		if patch.CostCenter != nil {
			d.CostCenter = *patch.CostCenter
		}
		if patch.Type != nil {
			d.Type = *patch.Type
		}
		if patch.Installments != nil {
			d.Installments = *patch.Installments
		}
		if patch.IsRecurring != nil {
			d.IsRecurring = *patch.IsRecurring
		}
		out := *d
		return &out, nil
	}
	return nil, &domain.ErrNotFound{Resource: "import draft", ID: id}
}

// Decide resolves the batch-level duplicate question: keep the flagged
// drafts or drop them from the review set.
func (s *ImportService) Decide(ctx context.Context, keepDuplicates bool) []domain.ImportedBillReview {
	_, span := importTracer.Start(ctx, "ImportService.Decide")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if !keepDuplicates {
		kept := s.drafts[:0:0]
		for _, d := range s.drafts {
			if !d.IsDuplicate {
				kept = append(kept, d)
			}
		}
		s.drafts = kept
	} else {
		for i := range s.drafts {
			s.drafts[i].IsDuplicate = false
		}
	}

	out := make([]domain.ImportedBillReview, len(s.drafts))
	copy(out, s.drafts)
	return out
}

// Save converts every successful draft into a real bill through the
// canonical creation path and clears the review set. Failed drafts are
// simply dropped.
func (s *ImportService) Save(ctx context.Context) (*CreateResult, error) {
	ctx, span := importTracer.Start(ctx, "ImportService.Save")
	defer span.End()

	s.mu.Lock()
	var inputs []domain.NewBillInput
	for _, d := range s.drafts {
		if d.Status != domain.ImportSuccess {
			continue
		}
		in, err := domain.FromImportReview(d)
		if err != nil {
			s.mu.Unlock()
			return nil, err
		}
		inputs = append(inputs, in)
	}
	s.mu.Unlock()

	if len(inputs) == 0 {
		return nil, &domain.ErrValidation{Field: "drafts", Message: "nenhum rascunho pronto para salvar"}
	}

	result, err := s.payables.CreateBatch(ctx, inputs)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.drafts = nil
	s.mu.Unlock()

	s.logger.Info("import batch saved", zap.Int("bills", len(result.Bills)))
	return result, nil
}

// Discard drops the current draft set without creating anything.
func (s *ImportService) Discard(ctx context.Context) {
	_, span := importTracer.Start(ctx, "ImportService.Discard")
	defer span.End()

	s.mu.Lock()
	s.drafts = nil
	s.mu.Unlock()
}

