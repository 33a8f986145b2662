// Package gemini implements the DocumentParser port with Google Gemini,
// requesting a structured JSON extraction for each uploaded bill document.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gestorcontas/contas-desk-go/internal/domain"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const extractionPrompt = "Analise a imagem ou PDF da conta e extraia as seguintes informações no formato JSON: " +
	"título, beneficiário, valor, data de vencimento e o número do código de barras (se disponível)."

// Parser calls the Gemini API for document extraction.
type Parser struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a Gemini-backed parser. modelName defaults to
// gemini-2.5-flash when empty.
func New(ctx context.Context, apiKey, modelName string, timeout time.Duration, logger *zap.Logger) (*Parser, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":       {Type: genai.TypeString, Description: "O título ou nome principal da conta (ex: Fatura de Cartão, Conta de Luz)."},
			"beneficiary": {Type: genai.TypeString, Description: "O nome da empresa ou pessoa que receberá o pagamento."},
			"amount":      {Type: genai.TypeNumber, Description: "O valor total a ser pago."},
			"dueDate":     {Type: genai.TypeString, Description: "A data de vencimento no formato AAAA-MM-DD."},
			"barcode":     {Type: genai.TypeString, Description: "O número do código de barras completo, apenas dígitos."},
		},
		Required: []string{"title", "beneficiary", "amount", "dueDate"},
	}

	return &Parser{client: client, model: model, timeout: timeout, logger: logger}, nil
}

// Parse submits one document and decodes the structured extraction.
// Rate-limit failures are surfaced as ErrRateLimited so the import pipeline
// can back off; everything else is terminal for the file.
func (p *Parser) Parse(ctx context.Context, data []byte, mimeType string) (*domain.ImportedBillData, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	parts := []genai.Part{
		genai.Blob{MIMEType: mimeType, Data: data},
		genai.Text(extractionPrompt),
	}

	resp, err := p.model.GenerateContent(ctx, parts...)
	if err != nil {
		if isRateLimitMessage(err.Error()) {
			return nil, &domain.ErrRateLimited{Service: "gemini", Err: err}
		}
		return nil, &domain.ErrExternalService{Service: "gemini", Err: err}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, &domain.ErrExternalService{Service: "gemini", Err: fmt.Errorf("empty response")}
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	parsed, err := decodeExtraction(sb.String())
	if err != nil {
		p.logger.Warn("gemini returned an undecodable extraction", zap.Error(err))
		return nil, err
	}
	return parsed, nil
}

// Close releases the underlying client.
func (p *Parser) Close() error {
	return p.client.Close()
}

// decodeExtraction parses the model's JSON output, tolerating markdown
// fences and stray text around the object.
func decodeExtraction(text string) (*domain.ImportedBillData, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return nil, &domain.ErrParse{Reason: "no JSON object in model response"}
	}

	var data domain.ImportedBillData
	if err := json.Unmarshal([]byte(text[start:end+1]), &data); err != nil {
		return nil, &domain.ErrParse{Reason: fmt.Sprintf("unmarshaling extraction: %v", err)}
	}

	data.Title = strings.TrimSpace(data.Title)
	data.Beneficiary = strings.TrimSpace(data.Beneficiary)
	if data.Title == "" {
		return nil, &domain.ErrParse{Reason: "extraction has no title"}
	}
	if _, err := time.Parse("2006-01-02", data.DueDate); err != nil {
		return nil, &domain.ErrParse{Reason: fmt.Sprintf("invalid due date %q", data.DueDate)}
	}
	return &data, nil
}

// Disabled stands in for the parser when no API key is configured. Every
// parse fails with ErrParserUnavailable so uploads report a configuration
// problem while the rest of the server runs normally.
type Disabled struct{}

func (Disabled) Parse(context.Context, []byte, string) (*domain.ImportedBillData, error) {
	return nil, &domain.ErrParserUnavailable{}
}

// isRateLimitMessage classifies quota-class failures by message content,
// matching the markers the API is known to use.
func isRateLimitMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "429")
}
