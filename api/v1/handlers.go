package v1

import (
	"context"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	analyticsapp "crmdash/internal/analytics/application"
	"crmdash/internal/auth"
	exportapp "crmdash/internal/export/application"
	exportdomain "crmdash/internal/export/domain"
	forecastsapp "crmdash/internal/forecasts/application"
	"crmdash/internal/jobs"
)

// maxPatchBody borne la taille d'un corps PATCH
const maxPatchBody = 64 << 10

// Dispatcher déclenche le workflow de prévision
type Dispatcher interface {
	Dispatch(ctx context.Context) (*jobs.Job, error)
}

// Runner exécute le runner de prévision externe
type Runner interface {
	Run(ctx context.Context) (json.RawMessage, error)
}

// Handlers regroupe les handlers de l'API
type Handlers struct {
	reports    *analyticsapp.ReportService
	forecasts  *forecastsapp.ForecastService
	exports    *exportapp.ExportService
	dispatcher Dispatcher
	runner     Runner
}

func NewHandlers(
	reports *analyticsapp.ReportService,
	forecasts *forecastsapp.ForecastService,
	exports *exportapp.ExportService,
	dispatcher Dispatcher,
	runner Runner,
) *Handlers {
	return &Handlers{
		reports:    reports,
		forecasts:  forecasts,
		exports:    exports,
		dispatcher: dispatcher,
		runner:     runner,
	}
}

// ============================================================================
// DIAGNOSTIC
// ============================================================================

// Health handler pour GET /api/health (public). 503 si le store est injoignable.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	health := h.reports.Health(r.Context())
	status := http.StatusOK
	if health.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, envelope{Data: health})
}

// Check handler pour GET /api/check
func (h *Handlers) Check(w http.ResponseWriter, r *http.Request) {
	writeData(w, h.reports.Check(r.Context()))
}

// Session handler pour GET /api/auth/session
func (h *Handlers) Session(w http.ResponseWriter, r *http.Request) {
	writeData(w, auth.IdentityFromContext(r.Context()))
}

// ============================================================================
// LISTES
// ============================================================================

func (h *Handlers) Orders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.reports.Orders(r.Context())
	if err != nil {
		writeError(w, r, "list orders", err)
		return
	}
	writeData(w, orders)
}

func (h *Handlers) Contacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.reports.Contacts(r.Context())
	if err != nil {
		writeError(w, r, "list contacts", err)
		return
	}
	writeData(w, contacts)
}

func (h *Handlers) Customers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.reports.Customers(r.Context())
	if err != nil {
		writeError(w, r, "list customers", err)
		return
	}
	writeData(w, customers)
}

func (h *Handlers) Issues(w http.ResponseWriter, r *http.Request) {
	issues, err := h.reports.Issues(r.Context())
	if err != nil {
		writeError(w, r, "list issues", err)
		return
	}
	writeData(w, issues)
}

// RecentOpenIssues handler pour GET /api/issues/recent-open?limit=4
func (h *Handlers) RecentOpenIssues(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", analyticsapp.DefaultRecentIssues)
	if err != nil {
		writeError(w, r, "recent open issues", err)
		return
	}
	issues, err := h.reports.RecentOpenIssues(r.Context(), limit)
	if err != nil {
		writeError(w, r, "recent open issues", err)
		return
	}
	writeData(w, issues)
}

// ============================================================================
// RAPPORTS
// ============================================================================

func (h *Handlers) CompanyTypeRevenue(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reports.CompanyTypeRevenue(r.Context())
	if err != nil {
		writeError(w, r, "company type revenue", err)
		return
	}
	writeData(w, rows)
}

func (h *Handlers) RegionRevenue(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reports.RegionRevenue(r.Context())
	if err != nil {
		writeError(w, r, "region revenue", err)
		return
	}
	writeData(w, rows)
}

func (h *Handlers) CompanySizeRevenue(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reports.CompanySizeRevenue(r.Context())
	if err != nil {
		writeError(w, r, "company size revenue", err)
		return
	}
	writeData(w, rows)
}

// DailySales handler pour GET /api/reports/daily-sales?months=6
func (h *Handlers) DailySales(w http.ResponseWriter, r *http.Request) {
	months, err := intParam(r, "months", analyticsapp.DefaultDailySalesMonths)
	if err != nil {
		writeError(w, r, "daily sales", err)
		return
	}
	rows, err := h.reports.DailySales(r.Context(), months)
	if err != nil {
		writeError(w, r, "daily sales", err)
		return
	}
	writeData(w, rows)
}

// ForecastMonthly handler pour GET /api/reports/forecast-monthly[?from=YYYY-MM&to=YYYY-MM]
func (h *Handlers) ForecastMonthly(w http.ResponseWriter, r *http.Request) {
	from, err := monthParam(r, "from")
	if err != nil {
		writeError(w, r, "forecast monthly", err)
		return
	}
	to, err := monthParam(r, "to")
	if err != nil {
		writeError(w, r, "forecast monthly", err)
		return
	}
	rows, err := h.reports.ForecastMonthly(r.Context(), from, to)
	if err != nil {
		writeError(w, r, "forecast monthly", err)
		return
	}
	writeData(w, rows)
}

// Registrations handler pour GET /api/reports/registrations?months=12
func (h *Handlers) Registrations(w http.ResponseWriter, r *http.Request) {
	months, err := intParam(r, "months", analyticsapp.DefaultRegistrationMonths)
	if err != nil {
		writeError(w, r, "registrations", err)
		return
	}
	rows, err := h.reports.Registrations(r.Context(), months)
	if err != nil {
		writeError(w, r, "registrations", err)
		return
	}
	writeData(w, rows)
}

// KPIs handler pour GET /api/reports/kpis[?month=YYYY-MM]
func (h *Handlers) KPIs(w http.ResponseWriter, r *http.Request) {
	month, err := monthParam(r, "month")
	if err != nil {
		writeError(w, r, "kpis", err)
		return
	}
	kpis, err := h.reports.KPIs(r.Context(), month)
	if err != nil {
		writeError(w, r, "kpis", err)
		return
	}
	writeData(w, kpis)
}

func (h *Handlers) IssuesByCompany(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reports.IssuesByCompany(r.Context())
	if err != nil {
		writeError(w, r, "issues by company", err)
		return
	}
	writeData(w, rows)
}

// ============================================================================
// PRÉVISIONS PAR CLIENT
// ============================================================================

func (h *Handlers) CustomerForecasts(w http.ResponseWriter, r *http.Request) {
	rows, err := h.reports.CustomerForecasts(r.Context())
	if err != nil {
		writeError(w, r, "customer forecasts", err)
		return
	}
	writeData(w, rows)
}

// UpdateForecast handler pour PATCH /api/customer-forecasts/{cofId}: 204 sans corps
func (h *Handlers) UpdateForecast(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxPatchBody))
	if err != nil {
		writeError(w, r, "update forecast", err)
		return
	}
	if err := h.forecasts.Update(r.Context(), mux.Vars(r)["cofId"], body); err != nil {
		writeError(w, r, "update forecast", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteForecast handler pour DELETE /api/customer-forecasts/{cofId}
func (h *Handlers) DeleteForecast(w http.ResponseWriter, r *http.Request) {
	cofID := mux.Vars(r)["cofId"]
	if err := h.forecasts.Delete(r.Context(), cofID); err != nil {
		writeError(w, r, "delete forecast", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Forecast ID " + cofID + " deleted successfully."})
}

// ============================================================================
// JOBS DE PRÉVISION
// ============================================================================

// DispatchForecastJob handler pour POST /api/forecast-jobs: 202 avec la poignée du job
func (h *Handlers) DispatchForecastJob(w http.ResponseWriter, r *http.Request) {
	job, err := h.dispatcher.Dispatch(r.Context())
	if err != nil {
		writeError(w, r, "dispatch forecast job", err)
		return
	}
	writeJSON(w, http.StatusAccepted, envelope{Data: job})
}

// RunForecast handler pour POST /api/forecast-jobs/run
func (h *Handlers) RunForecast(w http.ResponseWriter, r *http.Request) {
	result, err := h.runner.Run(r.Context())
	if err != nil {
		writeError(w, r, "run forecast", err)
		return
	}
	writeData(w, result)
}

// ============================================================================
// EXPORTS
// ============================================================================

// ExportOrdersCSV handler pour GET /api/orders/export.csv
func (h *Handlers) ExportOrdersCSV(w http.ResponseWriter, r *http.Request) {
	h.exportFile(w, r, exportdomain.ExportTypeOrders, 0)
}

// ExportOrdersParquet handler pour GET /api/orders/export.parquet
func (h *Handlers) ExportOrdersParquet(w http.ResponseWriter, r *http.Request) {
	h.exportFile(w, r, exportdomain.ExportTypeOrdersParquet, 0)
}

// ExportDailySalesCSV handler pour GET /api/reports/daily-sales.csv?months=6
func (h *Handlers) ExportDailySalesCSV(w http.ResponseWriter, r *http.Request) {
	months, err := intParam(r, "months", analyticsapp.DefaultDailySalesMonths)
	if err != nil {
		writeError(w, r, "export daily sales", err)
		return
	}
	h.exportFile(w, r, exportdomain.ExportTypeDailySales, months)
}

func (h *Handlers) exportFile(w http.ResponseWriter, r *http.Request, exportType exportdomain.ExportType, months int) {
	name, data, err := h.exports.Export(r.Context(), exportType, months)
	if err != nil {
		writeError(w, r, "export "+string(exportType), err)
		return
	}
	w.Header().Set("Content-Type", exportType.ContentType())
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	_, _ = w.Write(data)
}
