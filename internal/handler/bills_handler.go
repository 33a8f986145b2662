package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gestorcontas/contas-desk-go/internal/domain"
	"github.com/gestorcontas/contas-desk-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Bills Handlers
// ============================================================

// billPayload is the wire shape shared by creation and edition.
type billPayload struct {
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Beneficiary  string             `json:"beneficiary"`
	Amount       float64            `json:"amount"`
	DueDate      string             `json:"dueDate"` // YYYY-MM-DD
	Category     string             `json:"category"`
	CostCenter   string             `json:"costCenter"`
	Type         domain.BillType    `json:"type"`
	Installments int                `json:"installments"`
	Barcode      string             `json:"barcode"`
	IsRecurring  bool               `json:"isRecurring"`
	Attachment   *domain.Attachment `json:"attachment"`
	Confirmed    bool               `json:"confirmed"`
}

func (p billPayload) toInput() (domain.NewBillInput, error) {
	due, err := time.Parse("2006-01-02", p.DueDate)
	if err != nil {
		return domain.NewBillInput{}, &domain.ErrValidation{Field: "dueDate", Message: "formato inválido, use YYYY-MM-DD"}
	}
	return domain.NewBillInput{
		Title:        p.Title,
		Description:  p.Description,
		Beneficiary:  p.Beneficiary,
		Amount:       p.Amount,
		DueDate:      due,
		Category:     p.Category,
		CostCenter:   p.CostCenter,
		Type:         p.Type,
		Installments: p.Installments,
		Barcode:      p.Barcode,
		IsRecurring:  p.IsRecurring,
		Attachment:   p.Attachment,
	}, nil
}

func listBillsHandler(svc *service.PayablesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/bills")
		defer span.End()

		start, err := parseDateParam(r, "startDate")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		end, err := parseDateParam(r, "endDate")
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		listing, err := svc.List(ctx, service.ListFilter{
			Query:     r.URL.Query().Get("q"),
			Status:    domain.Status(r.URL.Query().Get("status")),
			StartDate: start,
			EndDate:   end,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, listing)
	}
}

func getBillHandler(svc *service.PayablesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/bills/{billId}")
		defer span.End()

		bill, err := svc.Get(ctx, chi.URLParam(r, "billId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, bill)
	}
}

func createBillHandler(svc *service.PayablesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/bills")
		defer span.End()

		var payload billPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		input, err := payload.toInput()
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		result, err := svc.Create(ctx, input, payload.Confirmed)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		status := http.StatusCreated
		if result.Outcome == service.OutcomeDuplicateWarning {
			status = http.StatusConflict
		}
		writeJSON(w, status, result)
	}
}

func previewInstallmentsHandler(svc *service.PayablesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/bills/installments/preview")
		defer span.End()

		var payload billPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		input, err := payload.toInput()
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		bills, err := svc.PreviewInstallments(ctx, input)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"bills": bills})
	}
}

func saveInstallmentsHandler(svc *service.PayablesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/bills/installments")
		defer span.End()

		var req struct {
			Bills []domain.Bill `json:"bills"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := svc.SaveInstallments(ctx, req.Bills)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	}
}

func editBillHandler(svc *service.PayablesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/bills/{billId}")
		defer span.End()

		var payload billPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		due, err := time.Parse("2006-01-02", payload.DueDate)
		if err != nil {
			handleServiceError(w, &domain.ErrValidation{Field: "dueDate", Message: "formato inválido, use YYYY-MM-DD"}, logger)
			return
		}

		bill, err := svc.Edit(ctx, chi.URLParam(r, "billId"), service.EditBillInput{
			Title:       payload.Title,
			Description: payload.Description,
			Beneficiary: payload.Beneficiary,
			Amount:      payload.Amount,
			DueDate:     due,
			Category:    payload.Category,
			CostCenter:  payload.CostCenter,
			Barcode:     payload.Barcode,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, bill)
	}
}

func payBillHandler(svc *service.PayablesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/bills/{billId}/pay")
		defer span.End()

		var req struct {
			PaymentDate string  `json:"paymentDate"` // YYYY-MM-DD
			PaidAmount  float64 `json:"paidAmount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		paymentDate, err := time.Parse("2006-01-02", req.PaymentDate)
		if err != nil {
			handleServiceError(w, &domain.ErrValidation{Field: "paymentDate", Message: "formato inválido, use YYYY-MM-DD"}, logger)
			return
		}

		result, err := svc.Pay(ctx, chi.URLParam(r, "billId"), paymentDate, req.PaidAmount)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func payManyHandler(svc *service.PayablesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/bills/pay-many")
		defer span.End()

		var req struct {
			IDs []string `json:"ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		paid, err := svc.PayMany(ctx, req.IDs)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"paid": paid})
	}
}

func unpayBillHandler(svc *service.PayablesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/bills/{billId}/unpay")
		defer span.End()

		bill, err := svc.Unpay(ctx, chi.URLParam(r, "billId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, bill)
	}
}

func postponeBillHandler(svc *service.PayablesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/bills/{billId}/postpone")
		defer span.End()

		var req struct {
			NewDate string `json:"newDate"` // YYYY-MM-DD
			Reason  string `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		newDate, err := time.Parse("2006-01-02", req.NewDate)
		if err != nil {
			handleServiceError(w, &domain.ErrValidation{Field: "newDate", Message: "formato inválido, use YYYY-MM-DD"}, logger)
			return
		}

		bill, err := svc.Postpone(ctx, chi.URLParam(r, "billId"), newDate, req.Reason)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, bill)
	}
}

func postponeManyHandler(svc *service.PayablesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/bills/postpone-many")
		defer span.End()

		var req struct {
			IDs []string `json:"ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		postponed, err := svc.PostponeMany(ctx, req.IDs)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"postponed": postponed})
	}
}

func deleteBillHandler(svc *service.PayablesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/bills/{billId}")
		defer span.End()

		result, err := svc.Delete(ctx, []string{chi.URLParam(r, "billId")})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func deleteBillsHandler(svc *service.PayablesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/bills/delete")
		defer span.End()

		var req struct {
			IDs []string `json:"ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := svc.Delete(ctx, req.IDs)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		logger.Info("bills deleted",
			zap.Int("count", len(req.IDs)),
			zap.String("operator", OperatorFromContext(ctx)),
		)
		writeJSON(w, http.StatusOK, result)
	}
}

func attachBillHandler(svc *service.PayablesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/bills/{billId}/attachments")
		defer span.End()

		var att domain.Attachment
		if err := json.NewDecoder(r.Body).Decode(&att); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		bill, err := svc.Attach(ctx, chi.URLParam(r, "billId"), att)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, bill)
	}
}

func toggleRecurringHandler(svc *service.PayablesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/bills/{billId}/toggle-recurring")
		defer span.End()

		bill, err := svc.ToggleRecurring(ctx, chi.URLParam(r, "billId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, bill)
	}
}

func sweepHandler(svc *service.PayablesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/bills/sweep")
		defer span.End()

		generated, err := svc.Sweep(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"generated": generated})
	}
}
