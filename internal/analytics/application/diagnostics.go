package application

import (
	"context"
	"fmt"
	"time"

	"crmdash/internal/analytics/infrastructure"
	customersdomain "crmdash/internal/customers/domain"
	forecastsdomain "crmdash/internal/forecasts/domain"
	issuesdomain "crmdash/internal/issues/domain"
	ordersdomain "crmdash/internal/orders/domain"
)

// Health état du store
type Health struct {
	Status    string `json:"status"`
	Store     string `json:"store"`
	Latency   string `json:"latency"`
	Error     string `json:"error,omitempty"`
	CheckedAt string `json:"checkedAt"`
}

// Health ping le store sous un délai propre (HealthTimeout).
// Un store injoignable n'est pas une erreur du handler: Status vaut "degraded".
func (s *ReportService) Health(ctx context.Context) Health {
	ctx, cancel := context.WithTimeout(ctx, s.health)
	defer cancel()

	latency, err := s.check.Ping(ctx)
	h := Health{
		Status:    "ok",
		Store:     "up",
		Latency:   latency.Round(time.Microsecond).String(),
		CheckedAt: s.now().UTC().Format(time.RFC3339),
	}
	if err != nil {
		h.Status, h.Store, h.Error = "degraded", "down", err.Error()
	}
	return h
}

// JoinCoverage mesure la qualité des jointures Order -> Contact -> Customer
type JoinCoverage struct {
	Orders       int    `json:"orders"`
	WithContact  int    `json:"withContact"`
	WithCustomer int    `json:"withCustomer"`
	Error        string `json:"error,omitempty"`
}

// Check rapport de diagnostic
type Check struct {
	CheckedAt string                       `json:"checkedAt"`
	Tables    []infrastructure.TableStatus `json:"tables"`
	Join      JoinCoverage                 `json:"join"`
}

// Check sonde chaque table en parallèle (WorkerPool) puis mesure la couverture des jointures.
// Les échecs sont rapportés dans le résultat: le diagnostic lui-même n'échoue pas.
func (s *ReportService) Check(ctx context.Context) Check {
	checks := []func(context.Context) infrastructure.TableStatus{
		func(ctx context.Context) infrastructure.TableStatus {
			return infrastructure.CheckTable[ordersdomain.Order](ctx, s.check, ordersdomain.Table, ordersdomain.ColID)
		},
		func(ctx context.Context) infrastructure.TableStatus {
			return infrastructure.CheckTable[customersdomain.Contact](ctx, s.check, customersdomain.ContactTable, customersdomain.ColContactID)
		},
		func(ctx context.Context) infrastructure.TableStatus {
			return infrastructure.CheckTable[customersdomain.Customer](ctx, s.check, customersdomain.CustomerTable, customersdomain.ColCustomerID)
		},
		func(ctx context.Context) infrastructure.TableStatus {
			return infrastructure.CheckTable[forecastsdomain.Forecast](ctx, s.check, forecastsdomain.Table, forecastsdomain.ColID)
		},
		func(ctx context.Context) infrastructure.TableStatus {
			return infrastructure.CheckTable[issuesdomain.Issue](ctx, s.check, issuesdomain.Table, issuesdomain.ColID)
		},
	}

	result := Check{
		CheckedAt: s.now().UTC().Format(time.RFC3339),
		Tables:    make([]infrastructure.TableStatus, len(checks)),
	}
	pool := s.pool(ctx)
	for i, check := range checks {
		i, check := i, check
		pool.Submit(fmt.Sprintf("check %d", i), func(ctx context.Context) error {
			result.Tables[i] = check(ctx)
			return nil
		})
	}
	_ = pool.Wait()

	enriched, err := s.loadAllEnriched(ctx)
	if err != nil {
		result.Join.Error = err.Error()
		return result
	}
	result.Join.Orders = len(enriched)
	for _, o := range enriched {
		if o.Contact != nil {
			result.Join.WithContact++
		}
		if o.Customer != nil {
			result.Join.WithCustomer++
		}
	}
	return result
}
