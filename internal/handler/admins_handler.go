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
// Admin Handlers
// ============================================================

func listAdminsHandler(svc *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admins")
		defer span.End()
		writeJSON(w, http.StatusOK, map[string]any{"admins": svc.ListAdmins(ctx)})
	}
}

// saveAdminHandler serves both POST /v1/admins (create) and
// PUT /v1/admins/{adminId} (update): an empty route param means create.
func saveAdminHandler(svc *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), r.Method+" /v1/admins")
		defer span.End()

		var payload domain.Admin
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		id := chi.URLParam(r, "adminId")
		admin, err := svc.SaveAdmin(ctx, id, payload)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		status := http.StatusOK
		if id == "" {
			status = http.StatusCreated
		}
		writeJSON(w, status, admin)
	}
}

func deleteAdminsHandler(svc *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admins/delete")
		defer span.End()

		var req struct {
			IDs []string `json:"ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		removed, err := svc.DeleteAdmins(ctx, req.IDs)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
	}
}
