package application

import (
	"context"
	"fmt"

	analytics "crmdash/internal/analytics/domain"
	customersdomain "crmdash/internal/customers/domain"
	issuesdomain "crmdash/internal/issues/domain"
	shareddomain "crmdash/internal/shared/domain"
)

// RecentOpenIssues retourne les limit incidents ouverts les plus récents
func (s *ReportService) RecentOpenIssues(ctx context.Context, limit int) ([]issuesdomain.RecentIssue, error) {
	if limit < 1 || limit > MaxRecentIssues {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", shareddomain.ErrInvalidInput, MaxRecentIssues)
	}
	issues, err := s.readers.Issues.RecentOpen(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("issues fetch: %w", err)
	}

	now := s.now()
	out := make([]issuesdomain.RecentIssue, len(issues))
	for i, issue := range issues {
		out[i] = issuesdomain.Summarize(issue, now)
	}
	return out, nil
}

type enrichedIssue struct {
	Issue    issuesdomain.Issue
	Customer *customersdomain.Customer
}

// IssuesByCompany compte les incidents (total et ouverts) par entreprise.
//
// Chemin de jointure: Issue.ORDER_ID -> Order -> Contact -> Customer.
// Chaque étape lit uniquement les clés produites par la précédente.
func (s *ReportService) IssuesByCompany(ctx context.Context) ([]analytics.CompanyIssues, error) {
	issues, err := s.readers.Issues.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("issues fetch: %w", err)
	}

	orderIDs := make([]int64, 0, len(issues))
	for _, i := range issues {
		if id, ok := i.OrderKey(); ok {
			orderIDs = append(orderIDs, id)
		}
	}
	orders, err := s.readers.Orders.FindByIDs(ctx, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("orders fetch: %w", err)
	}
	enrichedOrders, err := s.enrichOrders(ctx, orders)
	if err != nil {
		return nil, err
	}

	withOrder := analytics.Join(issues, enrichedOrders, issuesdomain.Issue.OrderKey,
		func(o EnrichedOrder) int64 { return o.Order.ID })
	rows := make([]enrichedIssue, len(withOrder))
	for i, j := range withOrder {
		rows[i].Issue = j.Row
		if j.Match != nil {
			rows[i].Customer = j.Match.Customer
		}
	}

	summary := analytics.Aggregate(rows, func(r enrichedIssue) string {
		if r.Customer == nil {
			return analytics.UnknownKey
		}
		return analytics.KeyOrUnknown(r.Customer.CompanyName)
	}, analytics.Measure[enrichedIssue]{Name: "open", Value: func(r enrichedIssue) *float64 {
		if r.Issue.IsOpen() {
			return analytics.One(r)
		}
		return nil
	}})

	out := analytics.Format(summary, nil, func(key string, s *analytics.Summary) analytics.CompanyIssues {
		return analytics.CompanyIssues{
			CompanyName: key,
			Total:       s.Count(key),
			Open:        int(s.Amount(key, "open").Rounded()),
		}
	})
	analytics.SortCompanyIssues(out)
	return out, nil
}
