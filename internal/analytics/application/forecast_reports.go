package application

import (
	"context"
	"fmt"
	"sort"

	analytics "crmdash/internal/analytics/domain"
	customersdomain "crmdash/internal/customers/domain"
	forecastsdomain "crmdash/internal/forecasts/domain"
	ordersdomain "crmdash/internal/orders/domain"
	shareddomain "crmdash/internal/shared/domain"
	sharedinfra "crmdash/internal/shared/infrastructure"
)

// Fenêtres par défaut des rapports
const (
	DefaultForecastMonths     = 6
	DefaultDailySalesMonths   = 6
	DefaultRegistrationMonths = 12
	DefaultRecentIssues       = 4
	MaxRecentIssues           = 100
	TrendMonths               = 6
	MaxWindowMonths           = 60
)

// ForecastWindow résout la fenêtre du rapport de prévisions.
// Sans bornes: les 6 mois suivant le mois de la dernière commande.
func (s *ReportService) ForecastWindow(ctx context.Context, from, to *shareddomain.Month) ([]shareddomain.Month, error) {
	switch {
	case from != nil && to != nil:
		months, err := shareddomain.MonthsBetween(*from, *to)
		if err != nil {
			return nil, err
		}
		if len(months) > MaxWindowMonths {
			return nil, fmt.Errorf("%w: window is limited to %d months", shareddomain.ErrInvalidInput, MaxWindowMonths)
		}
		return months, nil
	case from != nil || to != nil:
		return nil, fmt.Errorf("%w: from and to must be given together", shareddomain.ErrInvalidInput)
	}

	latest, err := s.readers.Orders.LatestOrderDate(ctx)
	if err != nil {
		return nil, err
	}
	return shareddomain.MonthWindow(latest.Month().Next(), DefaultForecastMonths), nil
}

// ForecastMonthly somme les quantités prévues par mois sur la fenêtre, un point par mois
// (0 sans prévision), arrondi à l'entier le plus proche
func (s *ReportService) ForecastMonthly(ctx context.Context, from, to *shareddomain.Month) ([]analytics.MonthlyForecast, error) {
	months, err := s.ForecastWindow(ctx, from, to)
	if err != nil {
		return nil, err
	}
	last := months[len(months)-1]
	dateRange, err := shareddomain.NewDateRange(months[0].Start(), last.Next().Start())
	if err != nil {
		return nil, err
	}

	forecasts, err := s.readers.Forecasts.FindPredictedBetween(ctx, dateRange)
	if err != nil {
		return nil, fmt.Errorf("forecasts fetch: %w", err)
	}

	summary := analytics.Aggregate(forecasts,
		func(f forecastsdomain.Forecast) string { return f.PredictedDate.Month().String() },
		analytics.Measure[forecastsdomain.Forecast]{Name: "quantity", Value: func(f forecastsdomain.Forecast) *float64 { return f.PredictedQuantity }})

	points := analytics.ZeroFill(summary, months, "quantity")
	out := make([]analytics.MonthlyForecast, len(points))
	for i, p := range points {
		out[i] = analytics.MonthlyForecast{Month: p.Month, PredictedQuantity: shareddomain.AmountFromFloat(p.Value).Rounded()}
	}
	return out, nil
}

func forecastCustomerID(f forecastsdomain.Forecast) int64 {
	id, _ := f.CustomerKey()
	return id
}

// CustomerForecasts regroupe les prévisions par client avec les quantités réellement commandées par jour.
//
// Pipeline:
//  1. prévisions (date prévue croissante)
//  2. EN PARALLÈLE: clients IN et contacts des clients IN
//  3. commandes des contacts IN
//  4. Order -> Contact (jointure), somme QUANTITY par (client, jour)
//
// Une prévision sans client est rattachée au client 0, sans informations.
func (s *ReportService) CustomerForecasts(ctx context.Context) ([]analytics.CustomerForecast, error) {
	forecasts, err := s.readers.Forecasts.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("forecasts fetch: %w", err)
	}
	customerIDs := make([]int64, len(forecasts))
	for i, f := range forecasts {
		customerIDs[i] = forecastCustomerID(f)
	}
	customerIDs = sharedinfra.DistinctKeys(customerIDs)

	var (
		customers []customersdomain.Customer
		contacts  []customersdomain.Contact
	)
	pool := s.pool(ctx)
	pool.Submit("customers", func(ctx context.Context) (err error) {
		customers, err = s.readers.Customers.CustomersByIDs(ctx, customerIDs)
		return err
	})
	pool.Submit("contacts", func(ctx context.Context) (err error) {
		contacts, err = s.readers.Customers.ContactsByCustomerIDs(ctx, customerIDs)
		return err
	})
	if err := pool.Wait(); err != nil {
		return nil, err
	}

	orders, err := s.readers.Orders.FindByContactIDs(ctx, customersdomain.ContactIDsOf(contacts))
	if err != nil {
		return nil, fmt.Errorf("orders fetch: %w", err)
	}
	sales := dailyQuantities(analytics.Join(orders, contacts, ordersdomain.Order.ContactKey, customersdomain.Contact.Key))

	customerIndex := analytics.Index(customers, customersdomain.Customer.Key)
	groups := make(map[int64]*analytics.CustomerForecast, len(customerIDs))
	out := make([]analytics.CustomerForecast, 0, len(customerIDs))
	for _, id := range customerIDs {
		group := analytics.CustomerForecast{
			CustomerID:  id,
			Forecasts:   []analytics.ForecastView{},
			ActualSales: sales[id],
		}
		if c := customerIndex[id]; c != nil {
			group.CompanyName, group.CustomerName, group.CompanySize = c.CompanyName, c.Name, c.CompanySize
		}
		if group.ActualSales == nil {
			group.ActualSales = []analytics.DailyQuantity{}
		}
		out = append(out, group)
	}
	for i := range out {
		groups[out[i].CustomerID] = &out[i]
	}

	for _, f := range forecasts {
		group := groups[forecastCustomerID(f)]
		group.Forecasts = append(group.Forecasts, analytics.ForecastView{
			CofID:                  f.ID,
			CustomerID:             group.CustomerID,
			CompanyName:            group.CompanyName,
			CustomerName:           group.CustomerName,
			CompanySize:            group.CompanySize,
			PredictedDate:          f.PredictedDate.String(),
			PredictedQuantity:      f.PredictedQuantity,
			Mape:                   f.Mape,
			PredictionModel:        f.PredictionModel,
			Probability:            f.Probability,
			ForecastGenerationDate: f.GeneratedAt.String(),
		})
	}

	analytics.SortCustomerForecasts(out, customersdomain.CompanySizeRank)
	return out, nil
}

// dailyQuantities somme QUANTITY par client et par jour, jours triés.
// Les commandes sans contact (ou contact sans client) sont ignorées: elles n'appartiennent à aucun groupe.
func dailyQuantities(rows []analytics.Joined[ordersdomain.Order, customersdomain.Contact]) map[int64][]analytics.DailyQuantity {
	byCustomer := make(map[int64][]ordersdomain.Order)
	for _, r := range rows {
		if r.Match == nil {
			continue
		}
		id, ok := r.Match.CustomerKey()
		if !ok {
			continue
		}
		byCustomer[id] = append(byCustomer[id], r.Row)
	}

	out := make(map[int64][]analytics.DailyQuantity, len(byCustomer))
	for id, orders := range byCustomer {
		summary := analytics.Aggregate(orders, func(o ordersdomain.Order) string { return o.OrderDate.DayKey() },
			analytics.Measure[ordersdomain.Order]{Name: "quantity", Value: func(o ordersdomain.Order) *float64 { return o.Quantity }})
		keys := summary.Keys()
		sort.Strings(keys)
		out[id] = analytics.Format(summary, keys, func(key string, s *analytics.Summary) analytics.DailyQuantity {
			return analytics.DailyQuantity{Date: key, Quantity: s.Value(key, "quantity")}
		})
	}
	return out
}
