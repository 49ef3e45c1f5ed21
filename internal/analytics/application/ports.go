package application

import (
	"context"

	customersdomain "crmdash/internal/customers/domain"
	forecastsdomain "crmdash/internal/forecasts/domain"
	issuesdomain "crmdash/internal/issues/domain"
	ordersdomain "crmdash/internal/orders/domain"
	shareddomain "crmdash/internal/shared/domain"
)

// OrderReader lectures bornées sur les commandes
type OrderReader interface {
	LatestOrderDate(ctx context.Context) (shareddomain.Date, error)
	FindByDateRange(ctx context.Context, dateRange shareddomain.DateRange) ([]ordersdomain.Order, error)
	FindAll(ctx context.Context) ([]ordersdomain.Order, error)
	FindRecent(ctx context.Context) ([]ordersdomain.Order, error)
	FindByIDs(ctx context.Context, ids []int64) ([]ordersdomain.Order, error)
	FindByContactIDs(ctx context.Context, contactIDs []int64) ([]ordersdomain.Order, error)
}

// CustomerReader lectures bornées sur les contacts et les clients
type CustomerReader interface {
	ContactsByIDs(ctx context.Context, ids []int64) ([]customersdomain.Contact, error)
	ContactsByCustomerIDs(ctx context.Context, customerIDs []int64) ([]customersdomain.Contact, error)
	CustomersByIDs(ctx context.Context, ids []int64) ([]customersdomain.Customer, error)
	AllContacts(ctx context.Context) ([]customersdomain.Contact, error)
	AllCustomers(ctx context.Context) ([]customersdomain.Customer, error)
	RegisteredBetween(ctx context.Context, dateRange shareddomain.DateRange) ([]customersdomain.Customer, error)
}

// ForecastReader lectures sur les prévisions
type ForecastReader interface {
	FindAll(ctx context.Context) ([]forecastsdomain.Forecast, error)
	FindPredictedBetween(ctx context.Context, dateRange shareddomain.DateRange) ([]forecastsdomain.Forecast, error)
}

// IssueReader lectures sur les incidents
type IssueReader interface {
	RecentOpen(ctx context.Context, limit int) ([]issuesdomain.Issue, error)
	FindAll(ctx context.Context) ([]issuesdomain.Issue, error)
}
