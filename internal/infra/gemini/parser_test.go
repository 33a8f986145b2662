package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/gestorcontas/contas-desk-go/internal/domain"
)

func TestDisabledParseReportsUnavailable(t *testing.T) {
	_, err := Disabled{}.Parse(context.Background(), []byte("pdf"), "application/pdf")
	var unavailable *domain.ErrParserUnavailable
	if !errors.As(err, &unavailable) {
		t.Fatalf("err = %v, want ErrParserUnavailable", err)
	}
}

func TestDecodeExtractionToleratesFences(t *testing.T) {
	data, err := decodeExtraction("```json\n{\"title\":\"Conta de Luz\",\"beneficiary\":\" CEMIG \",\"amount\":150.5,\"dueDate\":\"2024-05-10\"}\n```")
	if err != nil {
		t.Fatalf("decodeExtraction: %v", err)
	}
	if data.Title != "Conta de Luz" || data.Beneficiary != "CEMIG" || data.Amount != 150.5 {
		t.Fatalf("data = %+v", data)
	}
}

func TestDecodeExtractionRejectsBadDate(t *testing.T) {
	_, err := decodeExtraction(`{"title":"Conta","beneficiary":"X","amount":1,"dueDate":"10/05/2024"}`)
	var pe *domain.ErrParse
	if !errors.As(err, &pe) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
}
