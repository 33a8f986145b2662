package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gestorcontas/contas-desk-go/internal/domain"
	"github.com/gestorcontas/contas-desk-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Import Handlers
// ============================================================

// importBatchHandler accepts a multipart upload ("files" field, repeated)
// and runs the parse pipeline synchronously. The response carries the
// reviewable drafts plus the batch-level duplicate count the client must
// resolve before saving.
func importBatchHandler(svc *service.ImportService, logger *zap.Logger) http.HandlerFunc {
	const maxUploadBytes = 32 << 20

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/imports")
		defer span.End()

		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "upload multipart inválido")
			return
		}
		defer r.MultipartForm.RemoveAll()

		var files []domain.ImportFile
		for _, fh := range r.MultipartForm.File["files"] {
			f, err := fh.Open()
			if err != nil {
				writeError(w, http.StatusBadRequest, "não foi possível ler o arquivo "+fh.Filename)
				return
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				writeError(w, http.StatusBadRequest, "não foi possível ler o arquivo "+fh.Filename)
				return
			}
			files = append(files, domain.ImportFile{
				Name:     fh.Filename,
				MimeType: fh.Header.Get("Content-Type"),
				Data:     data,
			})
		}

		result, err := svc.ParseBatch(ctx, files)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func importDraftsHandler(svc *service.ImportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/imports/drafts")
		defer span.End()
		writeJSON(w, http.StatusOK, map[string]any{"drafts": svc.Drafts()})
	}
}

func importUpdateDraftHandler(svc *service.ImportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/imports/drafts/{draftId}")
		defer span.End()

		var patch service.DraftPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		draft, err := svc.UpdateDraft(ctx, chi.URLParam(r, "draftId"), patch)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, draft)
	}
}

func importDecideHandler(svc *service.ImportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/imports/decide")
		defer span.End()

		var req struct {
			KeepDuplicates bool `json:"keepDuplicates"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"drafts": svc.Decide(ctx, req.KeepDuplicates)})
	}
}

func importSaveHandler(svc *service.ImportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/imports/save")
		defer span.End()

		result, err := svc.Save(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	}
}

func importDiscardHandler(svc *service.ImportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/imports")
		defer span.End()

		svc.Discard(ctx)
		w.WriteHeader(http.StatusNoContent)
	}
}
