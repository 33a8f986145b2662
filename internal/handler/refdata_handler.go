package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/gestorcontas/contas-desk-go/internal/domain"
	"github.com/gestorcontas/contas-desk-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Reference List Handlers
// ============================================================

type refItemRequest struct {
	Name string `json:"name"`
}

type refRenameRequest struct {
	OldName string `json:"oldName"`
	NewName string `json:"newName"`
}

func getRefDataHandler(svc *service.RefDataService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/refdata")
		defer span.End()
		writeJSON(w, http.StatusOK, svc.Get(ctx))
	}
}

func addCategoryHandler(svc *service.RefDataService, logger *zap.Logger) http.HandlerFunc {
	return refAddHandler("POST /v1/refdata/categories", svc.AddCategory, logger)
}

func addCostCenterHandler(svc *service.RefDataService, logger *zap.Logger) http.HandlerFunc {
	return refAddHandler("POST /v1/refdata/cost-centers", svc.AddCostCenter, logger)
}

func addJobFunctionHandler(svc *service.RefDataService, logger *zap.Logger) http.HandlerFunc {
	return refAddHandler("POST /v1/refdata/job-functions", svc.AddJobFunction, logger)
}

func deleteCategoryHandler(svc *service.RefDataService, logger *zap.Logger) http.HandlerFunc {
	return refDeleteHandler("DELETE /v1/refdata/categories/{name}", svc.DeleteCategory, logger)
}

func deleteCostCenterHandler(svc *service.RefDataService, logger *zap.Logger) http.HandlerFunc {
	return refDeleteHandler("DELETE /v1/refdata/cost-centers/{name}", svc.DeleteCostCenter, logger)
}

func deleteJobFunctionHandler(svc *service.RefDataService, logger *zap.Logger) http.HandlerFunc {
	return refDeleteHandler("DELETE /v1/refdata/job-functions/{name}", svc.DeleteJobFunction, logger)
}

// renameCategoryHandler renames the list entry, then propagates the new
// name to every bill that carried the old one.
func renameCategoryHandler(svc *service.RefDataService, payables *service.PayablesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/refdata/categories")
		defer span.End()

		var req refRenameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		ref, err := svc.RenameCategory(ctx, req.OldName, req.NewName)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		updated, err := payables.PropagateCategoryRename(ctx, req.OldName, req.NewName)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"refData": ref, "updatedBills": updated})
	}
}

func renameCostCenterHandler(svc *service.RefDataService, payables *service.PayablesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/refdata/cost-centers")
		defer span.End()

		var req refRenameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		ref, err := svc.RenameCostCenter(ctx, req.OldName, req.NewName)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		updated, err := payables.PropagateCostCenterRename(ctx, req.OldName, req.NewName)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"refData": ref, "updatedBills": updated})
	}
}

func renameJobFunctionHandler(svc *service.RefDataService, directory *service.DirectoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/refdata/job-functions")
		defer span.End()

		var req refRenameRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		ref, err := svc.RenameJobFunction(ctx, req.OldName, req.NewName)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		updated, err := directory.PropagateJobFunctionRename(ctx, req.OldName, req.NewName)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"refData": ref, "updatedUsers": updated})
	}
}

func refAddHandler(spanName string, op func(ctx context.Context, name string) (*domain.RefData, error), logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), spanName)
		defer span.End()

		var req refItemRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		ref, err := op(ctx, req.Name)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, ref)
	}
}

func refDeleteHandler(spanName string, op func(ctx context.Context, name string) (*domain.RefData, error), logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), spanName)
		defer span.End()

		name, err := url.PathUnescape(chi.URLParam(r, "name"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid name")
			return
		}
		ref, err := op(ctx, name)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, ref)
	}
}
