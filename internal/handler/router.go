package handler

import (
	"net/http"

	"github.com/gestorcontas/contas-desk-go/internal/infra/clock"
	"github.com/gestorcontas/contas-desk-go/internal/infra/observability"
	"github.com/gestorcontas/contas-desk-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// When auth is configured the back-office API requires a Bearer token;
// the collaborator portal and the operational endpoints stay public.
// devClock is nil unless dev tools are enabled.
func NewRouter(
	payables *service.PayablesService,
	imports *service.ImportService,
	directory *service.DirectoryService,
	refdata *service.RefDataService,
	authSvc *service.AuthService,
	devClock *clock.Adjustable,
	metrics *observability.Metrics,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler(payables, logger))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// 🔐 Autenticação
		// =============================================
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authLoginHandler(authSvc, logger))
			r.Post("/refresh", authRefreshHandler(authSvc, logger))
		})

		// =============================================
		// 🌐 Portal do Colaborador (chave de acesso própria)
		// =============================================
		r.Get("/portal/{portalKey}", portalGetHandler(directory, logger))
		r.Put("/portal/{portalKey}", portalUpdateHandler(directory, logger))

		r.Group(func(r chi.Router) {
			if authSvc.Enabled() {
				r.Use(JWTAuthMiddleware(authSvc, logger))
			}

			// =============================================
			// 📋 Contas a Pagar
			// =============================================
			r.Route("/bills", func(r chi.Router) {
				r.Get("/", listBillsHandler(payables, logger))
				r.Post("/", createBillHandler(payables, logger))
				r.Post("/installments/preview", previewInstallmentsHandler(payables, logger))
				r.Post("/installments", saveInstallmentsHandler(payables, logger))
				r.Post("/pay-many", payManyHandler(payables, logger))
				r.Post("/postpone-many", postponeManyHandler(payables, logger))
				r.Post("/delete", deleteBillsHandler(payables, logger))
				r.Post("/sweep", sweepHandler(payables, logger))

				r.Get("/{billId}", getBillHandler(payables, logger))
				r.Put("/{billId}", editBillHandler(payables, logger))
				r.Delete("/{billId}", deleteBillHandler(payables, logger))
				r.Post("/{billId}/pay", payBillHandler(payables, logger))
				r.Post("/{billId}/unpay", unpayBillHandler(payables, logger))
				r.Post("/{billId}/postpone", postponeBillHandler(payables, logger))
				r.Post("/{billId}/attachments", attachBillHandler(payables, logger))
				r.Post("/{billId}/toggle-recurring", toggleRecurringHandler(payables, logger))
			})

			// =============================================
			// 📥 Importação de documentos
			// =============================================
			r.Route("/imports", func(r chi.Router) {
				r.Post("/", importBatchHandler(imports, logger))
				r.Delete("/", importDiscardHandler(imports, logger))
				r.Get("/drafts", importDraftsHandler(imports, logger))
				r.Put("/drafts/{draftId}", importUpdateDraftHandler(imports, logger))
				r.Post("/decide", importDecideHandler(imports, logger))
				r.Post("/save", importSaveHandler(imports, logger))
			})

			// =============================================
			// 🗂 Listas de referência
			// =============================================
			r.Route("/refdata", func(r chi.Router) {
				r.Get("/", getRefDataHandler(refdata, logger))
				r.Post("/categories", addCategoryHandler(refdata, logger))
				r.Put("/categories", renameCategoryHandler(refdata, payables, logger))
				r.Delete("/categories/{name}", deleteCategoryHandler(refdata, logger))
				r.Post("/cost-centers", addCostCenterHandler(refdata, logger))
				r.Put("/cost-centers", renameCostCenterHandler(refdata, payables, logger))
				r.Delete("/cost-centers/{name}", deleteCostCenterHandler(refdata, logger))
				r.Post("/job-functions", addJobFunctionHandler(refdata, logger))
				r.Put("/job-functions", renameJobFunctionHandler(refdata, directory, logger))
				r.Delete("/job-functions/{name}", deleteJobFunctionHandler(refdata, logger))
			})

			// =============================================
			// 🏢 Empresas
			// =============================================
			r.Route("/companies", func(r chi.Router) {
				r.Get("/", listCompaniesHandler(directory, logger))
				r.Post("/", createCompanyHandler(directory, logger))
				r.Post("/delete", deleteCompaniesHandler(directory, logger))
				r.Put("/{companyId}", updateCompanyHandler(directory, logger))
				r.Post("/{companyId}/bank-details", addCompanyBankDetailHandler(directory, logger))
				r.Delete("/{companyId}/bank-details/{detailId}", removeCompanyBankDetailHandler(directory, logger))
			})

			// =============================================
			// 👥 Colaboradores
			// =============================================
			r.Route("/users", func(r chi.Router) {
				r.Get("/", listUsersHandler(directory, logger))
				r.Post("/", createUserHandler(directory, logger))
				r.Post("/delete", deleteUsersHandler(directory, logger))
				r.Post("/import", importUserHandler(directory, logger))
				r.Get("/{userId}", getUserHandler(directory, logger))
				r.Put("/{userId}", updateUserHandler(directory, logger))
				r.Get("/{userId}/export", exportUserHandler(directory, logger))
				r.Post("/{userId}/bank-details", addUserBankDetailHandler(directory, logger))
				r.Delete("/{userId}/bank-details/{detailId}", removeUserBankDetailHandler(directory, logger))
			})

			// =============================================
			// 🧑‍💼 Administradores
			// =============================================
			r.Route("/admins", func(r chi.Router) {
				r.Get("/", listAdminsHandler(directory, logger))
				r.Post("/", saveAdminHandler(directory, logger))
				r.Put("/{adminId}", saveAdminHandler(directory, logger))
				r.Post("/delete", deleteAdminsHandler(directory, logger))
			})

			// =============================================
			// 📮 Consulta de CEP
			// =============================================
			r.Get("/address/{cep}", addressLookupHandler(directory, logger))

			// =============================================
			// 📊 Métricas
			// =============================================
			r.Get("/metrics/summary", metricsSummaryHandler(metrics, logger))

			// =============================================
			// 🛠 Dev Tools (testing helpers)
			// =============================================
			if devClock != nil {
				r.Post("/dev/clock", devSetClockHandler(devClock, payables, logger))
				r.Delete("/dev/clock", devClearClockHandler(devClock, payables, logger))
			}
		})
	})

	return r
}

// ============================================================
// Operational handlers
// ============================================================

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// readyzHandler reports readiness: the bill collection must be loaded and
// listable.
func readyzHandler(payables *service.PayablesService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := payables.List(r.Context(), service.ListFilter{}); err != nil {
			logger.Error("readiness check failed", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func metricsSummaryHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/metrics/summary")
		defer span.End()
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}
