package application

import (
	"context"
	"fmt"
	"sort"

	analytics "crmdash/internal/analytics/domain"
	customersdomain "crmdash/internal/customers/domain"
	ordersdomain "crmdash/internal/orders/domain"
	shareddomain "crmdash/internal/shared/domain"
)

const (
	measureAmount  = "amount"
	measureCost    = "cost"
	measureProfit  = "profit"
	measureMargin  = "margin"
	measureRevenue = "revenue"
	measureCount   = "count"
)

func orderAmount(o EnrichedOrder) *float64 { return o.Order.Amount }

// CompanyTypeRevenue somme les ventes du mois de la dernière commande par type d'entreprise.
//
// Pipeline: date de dernière commande (précurseur obligatoire) -> commandes du mois
// -> contacts IN -> clients IN -> somme par COMPANY_TYPE (absence = Unknown)
func (s *ReportService) CompanyTypeRevenue(ctx context.Context) ([]analytics.CompanyTypeRevenue, error) {
	return cached(s, "company-type", func() ([]analytics.CompanyTypeRevenue, error) {
		latest, err := s.readers.Orders.LatestOrderDate(ctx)
		if err != nil {
			return nil, err
		}
		month := latest.Month()

		orders, err := s.readers.Orders.FindByDateRange(ctx, month.Range())
		if err != nil {
			return nil, fmt.Errorf("orders fetch: %w", err)
		}
		enriched, err := s.enrichOrders(ctx, orders)
		if err != nil {
			return nil, err
		}

		summary := analytics.Aggregate(enriched, func(o EnrichedOrder) string {
			if o.Customer == nil {
				return analytics.UnknownKey
			}
			return analytics.KeyOrUnknown(o.Customer.CompanyType)
		}, analytics.Measure[EnrichedOrder]{Name: measureAmount, Value: orderAmount})

		return analytics.Format(summary, nil, func(key string, s *analytics.Summary) analytics.CompanyTypeRevenue {
			return analytics.CompanyTypeRevenue{
				CompanyType: key,
				TotalAmount: s.Value(key, measureAmount),
				Month:       month.String(),
			}
		}), nil
	})
}

// RegionOf classe le pays du client (à défaut sa région); sans client le bucket est 기타
func RegionOf(o EnrichedOrder) string {
	if o.Customer == nil {
		return string(customersdomain.RegionOther)
	}
	country := customersdomain.Text(o.Customer.Country)
	if country == "" {
		country = customersdomain.Text(o.Customer.Region)
	}
	return string(customersdomain.ClassifyRegion(country))
}

// RegionRevenue somme les ventes par grande région, dans l'ordre canonique des régions
func (s *ReportService) RegionRevenue(ctx context.Context) ([]analytics.RegionRevenue, error) {
	return cached(s, "region", func() ([]analytics.RegionRevenue, error) {
		enriched, err := s.loadAllEnriched(ctx)
		if err != nil {
			return nil, err
		}

		summary := analytics.Aggregate(enriched, RegionOf,
			analytics.Measure[EnrichedOrder]{Name: measureAmount, Value: orderAmount})

		keys := make([]string, 0, len(customersdomain.Regions))
		for _, r := range customersdomain.Regions {
			if summary.Count(string(r)) > 0 {
				keys = append(keys, string(r))
			}
		}
		return analytics.Format(summary, keys, func(key string, s *analytics.Summary) analytics.RegionRevenue {
			return analytics.RegionRevenue{Region: key, Amount: s.Value(key, measureAmount)}
		}), nil
	})
}

// CompanySizeRevenue somme les ventes par taille d'entreprise, de la plus grande à la plus petite
func (s *ReportService) CompanySizeRevenue(ctx context.Context) ([]analytics.CompanySizeRevenue, error) {
	return cached(s, "company-size", func() ([]analytics.CompanySizeRevenue, error) {
		enriched, err := s.loadAllEnriched(ctx)
		if err != nil {
			return nil, err
		}

		summary := analytics.Aggregate(enriched, func(o EnrichedOrder) string {
			if o.Customer == nil {
				return analytics.UnknownKey
			}
			return analytics.KeyOrUnknown(o.Customer.CompanySize)
		},
			analytics.Measure[EnrichedOrder]{Name: measureAmount, Value: orderAmount},
			analytics.Measure[EnrichedOrder]{Name: measureMargin, Value: func(o EnrichedOrder) *float64 { return o.Order.MarginRate }},
		)

		keys := summary.Keys()
		sort.SliceStable(keys, func(i, j int) bool {
			ri, rj := customersdomain.CompanySizeRank(keys[i]), customersdomain.CompanySizeRank(keys[j])
			if ri != rj {
				return ri < rj
			}
			return keys[i] < keys[j]
		})
		return analytics.Format(summary, keys, func(key string, s *analytics.Summary) analytics.CompanySizeRevenue {
			return analytics.CompanySizeRevenue{
				CompanySize: key,
				Amount:      s.Value(key, measureAmount),
				Orders:      s.Count(key),
				AvgMargin:   s.Mean(key, measureMargin),
			}
		}), nil
	})
}

// DailySales somme montant, coût total et marge par jour, de (dernière commande - months mois)
// à la dernière commande incluse, par ordre chronologique
func (s *ReportService) DailySales(ctx context.Context, months int) ([]analytics.DailySales, error) {
	if months < 1 || months > MaxWindowMonths {
		return nil, fmt.Errorf("%w: months must be between 1 and %d", shareddomain.ErrInvalidInput, MaxWindowMonths)
	}
	return cached(s, fmt.Sprintf("daily-sales:%d", months), func() ([]analytics.DailySales, error) {
		latest, err := s.readers.Orders.LatestOrderDate(ctx)
		if err != nil {
			return nil, err
		}
		orders, err := s.readers.Orders.FindByDateRange(ctx, shareddomain.TrailingMonths(latest.Time(), months))
		if err != nil {
			return nil, fmt.Errorf("orders fetch: %w", err)
		}

		summary := analytics.Aggregate(orders, func(o ordersdomain.Order) string { return o.OrderDate.DayKey() },
			analytics.Measure[ordersdomain.Order]{Name: measureAmount, Value: func(o ordersdomain.Order) *float64 { return o.Amount }},
			analytics.Measure[ordersdomain.Order]{Name: measureCost, Value: func(o ordersdomain.Order) *float64 { return o.CostTotal }},
			analytics.Measure[ordersdomain.Order]{Name: measureProfit, Value: func(o ordersdomain.Order) *float64 { return o.Revenue }},
		)

		keys := summary.Keys()
		sort.Strings(keys)
		return analytics.Format(summary, keys, func(key string, s *analytics.Summary) analytics.DailySales {
			return analytics.DailySales{
				Date:   key,
				Amount: s.Value(key, measureAmount),
				Cost:   s.Value(key, measureCost),
				Profit: s.Value(key, measureProfit),
			}
		}), nil
	})
}

// KPIs compare le mois month (mois courant si nil) au mois précédent, avec la tendance des 6 derniers mois
func (s *ReportService) KPIs(ctx context.Context, month *shareddomain.Month) (*analytics.MonthlyKPIs, error) {
	current := shareddomain.MonthOf(s.now())
	if month != nil {
		current = *month
	}
	previous := current.AddMonths(-1)
	window := shareddomain.MonthWindow(current.AddMonths(-(TrendMonths - 1)), TrendMonths)

	return cached(s, "kpis:"+current.String(), func() (*analytics.MonthlyKPIs, error) {
		dateRange, err := shareddomain.NewDateRange(window[0].Start(), current.Next().Start())
		if err != nil {
			return nil, err
		}
		orders, err := s.readers.Orders.FindByDateRange(ctx, dateRange)
		if err != nil {
			return nil, fmt.Errorf("orders fetch: %w", err)
		}

		summary := analytics.Aggregate(orders, func(o ordersdomain.Order) string { return o.OrderDate.Month().String() },
			analytics.Measure[ordersdomain.Order]{Name: measureAmount, Value: func(o ordersdomain.Order) *float64 { return o.Amount }},
			analytics.Measure[ordersdomain.Order]{Name: measureRevenue, Value: func(o ordersdomain.Order) *float64 { return o.Revenue }},
			analytics.Measure[ordersdomain.Order]{Name: measureMargin, Value: func(o ordersdomain.Order) *float64 { return o.MarginRate }},
		)

		cur, prev := current.String(), previous.String()
		kpis := &analytics.MonthlyKPIs{
			Month:         cur,
			PreviousMonth: prev,
			TotalSales:    summary.Value(cur, measureAmount),
			TotalRevenue:  summary.Value(cur, measureRevenue),
			AvgMarginRate: summary.Mean(cur, measureMargin),
			TotalOrders:   summary.Count(cur),
		}
		kpis.SalesGrowth = analytics.Growth(kpis.TotalSales, summary.Value(prev, measureAmount))
		kpis.RevenueGrowth = analytics.Growth(kpis.TotalRevenue, summary.Value(prev, measureRevenue))
		kpis.MarginGrowth = analytics.Growth(kpis.AvgMarginRate, summary.Mean(prev, measureMargin))
		kpis.OrdersGrowth = analytics.Growth(float64(kpis.TotalOrders), float64(summary.Count(prev)))
		kpis.Trend = analytics.Format(summary, analytics.MonthKeys(window), func(key string, s *analytics.Summary) analytics.MonthlyTrend {
			return analytics.MonthlyTrend{
				Month:   key,
				Sales:   s.Value(key, measureAmount),
				Revenue: s.Value(key, measureRevenue),
				Orders:  s.Count(key),
			}
		})
		return kpis, nil
	})
}

// Registrations compte les clients enregistrés par mois sur les months derniers mois (mois courant inclus)
func (s *ReportService) Registrations(ctx context.Context, months int) ([]analytics.MonthlyCount, error) {
	if months < 1 || months > MaxWindowMonths {
		return nil, fmt.Errorf("%w: months must be between 1 and %d", shareddomain.ErrInvalidInput, MaxWindowMonths)
	}
	current := shareddomain.MonthOf(s.now())
	window := shareddomain.MonthWindow(current.AddMonths(-(months - 1)), months)

	return cached(s, fmt.Sprintf("registrations:%s:%d", current, months), func() ([]analytics.MonthlyCount, error) {
		dateRange, err := shareddomain.NewDateRange(window[0].Start(), current.Next().Start())
		if err != nil {
			return nil, err
		}
		customers, err := s.readers.Customers.RegisteredBetween(ctx, dateRange)
		if err != nil {
			return nil, fmt.Errorf("customers fetch: %w", err)
		}

		summary := analytics.Aggregate(customers,
			func(c customersdomain.Customer) string { return c.RegDate.Month().String() },
			analytics.Measure[customersdomain.Customer]{Name: measureCount, Value: analytics.One[customersdomain.Customer]})

		points := analytics.ZeroFill(summary, window, measureCount)
		out := make([]analytics.MonthlyCount, len(points))
		for i, p := range points {
			out[i] = analytics.MonthlyCount{Month: p.Month, Count: int(p.Value)}
		}
		return out, nil
	})
}
