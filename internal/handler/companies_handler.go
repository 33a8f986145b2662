package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gestorcontas/contas-desk-go/internal/domain"
	"github.com/gestorcontas/contas-desk-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Company Handlers
// ============================================================

// uploadPayload is an inline file upload; Data arrives base64-encoded and
// json decodes it straight into bytes.
type uploadPayload struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Data []byte `json:"data"`
}

func toUploads(payloads []uploadPayload) []service.AttachmentUpload {
	uploads := make([]service.AttachmentUpload, len(payloads))
	for i, p := range payloads {
		uploads[i] = service.AttachmentUpload{Name: p.Name, Type: p.Type, Data: p.Data}
	}
	return uploads
}

type companyPayload struct {
	Name         string          `json:"name"`
	CNPJ         string          `json:"cnpj"`
	CEP          string          `json:"cep"`
	Address      string          `json:"address"`
	Number       string          `json:"number"`
	Complement   string          `json:"complement"`
	Neighborhood string          `json:"neighborhood"`
	City         string          `json:"city"`
	State        string          `json:"state"`
	Phone        string          `json:"phone"`
	Attachments  []uploadPayload `json:"attachments"`
}

func (p companyPayload) toInput() service.CompanyInput {
	return service.CompanyInput{
		Name:         p.Name,
		CNPJ:         p.CNPJ,
		CEP:          p.CEP,
		Address:      p.Address,
		Number:       p.Number,
		Complement:   p.Complement,
		Neighborhood: p.Neighborhood,
		City:         p.City,
		State:        p.State,
		Phone:        p.Phone,
		Attachments:  toUploads(p.Attachments),
	}
}

func listCompaniesHandler(svc *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/companies")
		defer span.End()
		writeJSON(w, http.StatusOK, map[string]any{"companies": svc.ListCompanies(ctx)})
	}
}

func createCompanyHandler(svc *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/companies")
		defer span.End()

		var payload companyPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		company, err := svc.CreateCompany(ctx, payload.toInput())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, company)
	}
}

func updateCompanyHandler(svc *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/companies/{companyId}")
		defer span.End()

		var payload companyPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		company, err := svc.UpdateCompany(ctx, chi.URLParam(r, "companyId"), payload.toInput())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, company)
	}
}

func deleteCompaniesHandler(svc *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/companies/delete")
		defer span.End()

		var req struct {
			IDs []string `json:"ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		removed, err := svc.DeleteCompanies(ctx, req.IDs)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
	}
}

func addCompanyBankDetailHandler(svc *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/companies/{companyId}/bank-details")
		defer span.End()

		var entry domain.BankDetail
		if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		company, err := svc.AddCompanyBankDetail(ctx, chi.URLParam(r, "companyId"), entry)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, company)
	}
}

func removeCompanyBankDetailHandler(svc *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/companies/{companyId}/bank-details/{detailId}")
		defer span.End()

		company, err := svc.RemoveCompanyBankDetail(ctx, chi.URLParam(r, "companyId"), chi.URLParam(r, "detailId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, company)
	}
}

// ============================================================
// Address lookup
// ============================================================

func addressLookupHandler(svc *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/address/{cep}")
		defer span.End()

		addr, err := svc.LookupCEP(ctx, chi.URLParam(r, "cep"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, addr)
	}
}
