package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gestorcontas/contas-desk-go/internal/domain"
	"github.com/gestorcontas/contas-desk-go/internal/infra/clock"
	"github.com/gestorcontas/contas-desk-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Dev Tools Handlers
// ============================================================

// devSetClockHandler pins the application clock to a simulated date and
// immediately sweeps the recurring series, so occurrences that became due
// "overnight" show up in the response.
func devSetClockHandler(devClock *clock.Adjustable, payables *service.PayablesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/dev/clock")
		defer span.End()

		var req domain.DevClockRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			handleServiceError(w, &domain.ErrValidation{Field: "date", Message: "formato inválido, use YYYY-MM-DD"}, logger)
			return
		}

		devClock.Set(date)
		generated, err := payables.Sweep(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		logger.Info("dev clock set",
			zap.String("date", req.Date),
			zap.Int("generated", generated))
		writeJSON(w, http.StatusOK, domain.DevClockResponse{
			Success:       true,
			SimulatedDate: req.Date,
			Generated:     generated,
			Message:       fmt.Sprintf("Data simulada definida para %s.", date.Format("02/01/2006")),
		})
	}
}

// devClearClockHandler returns the application to wall-clock time.
func devClearClockHandler(devClock *clock.Adjustable, payables *service.PayablesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/dev/clock")
		defer span.End()

		devClock.Clear()
		generated, err := payables.Sweep(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		logger.Info("dev clock cleared", zap.Int("generated", generated))
		writeJSON(w, http.StatusOK, domain.DevClockResponse{
			Success:   true,
			Generated: generated,
			Message:   "Data simulada removida. Relógio do sistema restaurado.",
		})
	}
}
