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
// Collaborator Handlers
// ============================================================

type userPayload struct {
	Type       domain.UserType `json:"type"`
	StartDate  string          `json:"startDate"`
	EndDate    string          `json:"endDate"`
	CompanyIDs []string        `json:"companyIds"`

	FullName  string          `json:"fullName"`
	CPF       string          `json:"cpf"`
	BirthDate string          `json:"birthDate"`
	Email     string          `json:"email"`
	Phones    []domain.Phone  `json:"phones"`
	Uploads   []uploadPayload `json:"personalAttachments"`

	CompanyName    string          `json:"companyName"`
	CNPJ           string          `json:"cnpj"`
	CompanyAddress *domain.Address `json:"companyAddress"`
	HomeAddress    *domain.Address `json:"homeAddress"`

	PIS         string `json:"pis"`
	MotherName  string `json:"motherName"`
	FatherName  string `json:"fatherName"`
	JobFunction string `json:"jobFunction"`
}

func (p userPayload) toInput() service.UserInput {
	return service.UserInput{
		Type:           p.Type,
		StartDate:      p.StartDate,
		EndDate:        p.EndDate,
		CompanyIDs:     p.CompanyIDs,
		FullName:       p.FullName,
		CPF:            p.CPF,
		BirthDate:      p.BirthDate,
		Email:          p.Email,
		Phones:         p.Phones,
		Uploads:        toUploads(p.Uploads),
		CompanyName:    p.CompanyName,
		CNPJ:           p.CNPJ,
		CompanyAddress: p.CompanyAddress,
		HomeAddress:    p.HomeAddress,
		PIS:            p.PIS,
		MotherName:     p.MotherName,
		FatherName:     p.FatherName,
		JobFunction:    p.JobFunction,
	}
}

func listUsersHandler(svc *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users")
		defer span.End()

		userType := domain.UserType(r.URL.Query().Get("type"))
		writeJSON(w, http.StatusOK, map[string]any{"users": svc.ListUsers(ctx, userType)})
	}
}

func getUserHandler(svc *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}")
		defer span.End()

		user, err := svc.GetUser(ctx, chi.URLParam(r, "userId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func createUserHandler(svc *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users")
		defer span.End()

		var payload userPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user, err := svc.CreateUser(ctx, payload.toInput())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, user)
	}
}

func updateUserHandler(svc *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/users/{userId}")
		defer span.End()

		var payload userPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user, err := svc.UpdateUser(ctx, chi.URLParam(r, "userId"), payload.toInput())
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func deleteUsersHandler(svc *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/delete")
		defer span.End()

		var req struct {
			IDs []string `json:"ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		removed, err := svc.DeleteUsers(ctx, req.IDs)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
	}
}

func addUserBankDetailHandler(svc *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/{userId}/bank-details")
		defer span.End()

		var entry domain.BankDetail
		if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user, err := svc.AddUserBankDetail(ctx, chi.URLParam(r, "userId"), entry)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func removeUserBankDetailHandler(svc *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/users/{userId}/bank-details/{detailId}")
		defer span.End()

		user, err := svc.RemoveUserBankDetail(ctx, chi.URLParam(r, "userId"), chi.URLParam(r, "detailId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func importUserHandler(svc *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users/import")
		defer span.End()

		var req struct {
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user, err := svc.ImportUserFromCode(ctx, req.Code)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, user)
	}
}

func exportUserHandler(svc *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{userId}/export")
		defer span.End()

		code, err := svc.ExportUserCode(ctx, chi.URLParam(r, "userId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"code": code})
	}
}

// ============================================================
// Collaborator Portal
// ============================================================

func portalGetHandler(svc *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/portal/{portalKey}")
		defer span.End()

		user, err := svc.PortalUser(ctx, chi.URLParam(r, "portalKey"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}

func portalUpdateHandler(svc *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/portal/{portalKey}")
		defer span.End()

		var req struct {
			Email       string          `json:"email"`
			Phones      []domain.Phone  `json:"phones"`
			HomeAddress *domain.Address `json:"homeAddress"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user, err := svc.UpdateUserFromPortal(ctx, chi.URLParam(r, "portalKey"), req.Email, req.Phones, req.HomeAddress)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}
}
