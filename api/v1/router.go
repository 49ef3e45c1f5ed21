package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"crmdash/internal/auth"
	"crmdash/internal/logger"
)

// NewRouter construit le routeur de l'API.
//
// Chaîne: Recovery -> CORS -> Compress -> request ID/logger -> (auth -> timeout) -> handler.
// /api/health est public, toutes les autres routes exigent un jeton.
func NewRouter(h *Handlers, verifier auth.Verifier, timeout time.Duration) http.Handler {
	router := mux.NewRouter()
	router.Use(logger.Middleware)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	private := api.NewRoute().Subrouter()
	private.Use(auth.Middleware(verifier))
	private.Use(timeoutMiddleware(timeout))

	private.HandleFunc("/check", h.Check).Methods(http.MethodGet)
	private.HandleFunc("/auth/session", h.Session).Methods(http.MethodGet)

	private.HandleFunc("/orders", h.Orders).Methods(http.MethodGet)
	private.HandleFunc("/orders/export.csv", h.ExportOrdersCSV).Methods(http.MethodGet)
	private.HandleFunc("/orders/export.parquet", h.ExportOrdersParquet).Methods(http.MethodGet)
	private.HandleFunc("/contacts", h.Contacts).Methods(http.MethodGet)
	private.HandleFunc("/customers", h.Customers).Methods(http.MethodGet)
	private.HandleFunc("/issues", h.Issues).Methods(http.MethodGet)
	private.HandleFunc("/issues/recent-open", h.RecentOpenIssues).Methods(http.MethodGet)

	reports := private.PathPrefix("/reports").Subrouter()
	reports.HandleFunc("/company-type", h.CompanyTypeRevenue).Methods(http.MethodGet)
	reports.HandleFunc("/region", h.RegionRevenue).Methods(http.MethodGet)
	reports.HandleFunc("/company-size", h.CompanySizeRevenue).Methods(http.MethodGet)
	reports.HandleFunc("/daily-sales", h.DailySales).Methods(http.MethodGet)
	reports.HandleFunc("/daily-sales.csv", h.ExportDailySalesCSV).Methods(http.MethodGet)
	reports.HandleFunc("/forecast-monthly", h.ForecastMonthly).Methods(http.MethodGet)
	reports.HandleFunc("/registrations", h.Registrations).Methods(http.MethodGet)
	reports.HandleFunc("/kpis", h.KPIs).Methods(http.MethodGet)
	reports.HandleFunc("/issues-by-company", h.IssuesByCompany).Methods(http.MethodGet)

	private.HandleFunc("/customer-forecasts", h.CustomerForecasts).Methods(http.MethodGet)
	private.HandleFunc("/customer-forecasts/{cofId}", h.UpdateForecast).Methods(http.MethodPatch)
	private.HandleFunc("/customer-forecasts/{cofId}", h.DeleteForecast).Methods(http.MethodDelete)

	private.HandleFunc("/forecast-jobs", h.DispatchForecastJob).Methods(http.MethodPost)
	private.HandleFunc("/forecast-jobs/run", h.RunForecast).Methods(http.MethodPost)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", logger.RequestIDHeader}),
		handlers.ExposedHeaders([]string{logger.RequestIDHeader, "Content-Disposition"}),
	)
	recovery := handlers.RecoveryHandler(handlers.RecoveryLogger(logger.Default()), handlers.PrintRecoveryStack(true))

	return recovery(cors(handlers.CompressHandler(router)))
}

// timeoutMiddleware borne la durée de chaque requête (timeout <= 0: pas de borne)
func timeoutMiddleware(timeout time.Duration) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
