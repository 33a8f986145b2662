// Package viacep implements the AddressLookup port against the public
// ViaCEP API, behind the shared circuit breaker and retry policy.
package viacep

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gestorcontas/contas-desk-go/internal/domain"
	"github.com/gestorcontas/contas-desk-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Client resolves CEPs through ViaCEP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	logger     *zap.Logger
}

// NewClient creates a ViaCEP client.
func NewClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{httpClient: httpClient, baseURL: baseURL, cb: cb, cfg: cfg, logger: logger}
}

type viaCEPResponse struct {
	CEP          string `json:"cep"`
	Street       string `json:"logradouro"`
	Complement   string `json:"complemento"`
	Neighborhood string `json:"bairro"`
	City         string `json:"localidade"`
	State        string `json:"uf"`
	Erro         bool   `json:"erro"`
}

// Lookup resolves a CEP into an address. A CEP unknown to ViaCEP maps to
// ErrNotFound; transport failures are ErrExternalService.
func (c *Client) Lookup(ctx context.Context, cep string) (*domain.Address, error) {
	digits := onlyDigits(cep)
	if len(digits) != 8 {
		return nil, &domain.ErrValidation{Field: "cep", Message: "deve conter 8 dígitos"}
	}

	var result viaCEPResponse
	fetch := func() error {
		_, err := c.cb.Execute(func() (any, error) {
			url := fmt.Sprintf("%s/ws/%s/json/", c.baseURL, digits)
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return nil, err
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return nil, err
			}
			if resp.StatusCode != http.StatusOK {
				return nil, fmt.Errorf("viacep returned status %d", resp.StatusCode)
			}
			return nil, json.Unmarshal(body, &result)
		})
		return err
	}

	if err := resilience.RetryWithBackoff(ctx, c.cfg, fetch); err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, &domain.ErrCircuitOpen{Service: "viacep"}
		}
		c.logger.Warn("viacep lookup failed", zap.String("cep", digits), zap.Error(err))
		return nil, &domain.ErrExternalService{Service: "viacep", Err: err}
	}

	if result.Erro {
		return nil, &domain.ErrNotFound{Resource: "cep", ID: digits}
	}

	return &domain.Address{
		CEP:          result.CEP,
		Street:       result.Street,
		Complement:   result.Complement,
		Neighborhood: result.Neighborhood,
		City:         result.City,
		State:        result.State,
	}, nil
}

func onlyDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
