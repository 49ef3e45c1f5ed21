package application

import (
	"context"
	"fmt"

	customersdomain "crmdash/internal/customers/domain"
	issuesdomain "crmdash/internal/issues/domain"
	ordersdomain "crmdash/internal/orders/domain"
)

// Orders liste les commandes, plus récentes d'abord (au plus RowCap)
func (s *ReportService) Orders(ctx context.Context) ([]ordersdomain.Order, error) {
	orders, err := s.readers.Orders.FindRecent(ctx)
	if err != nil {
		return nil, fmt.Errorf("orders fetch: %w", err)
	}
	return orders, nil
}

// Contacts liste les contacts avec le nombre de jours depuis le dernier échange
func (s *ReportService) Contacts(ctx context.Context) ([]customersdomain.ContactWithRecency, error) {
	contacts, err := s.readers.Customers.AllContacts(ctx)
	if err != nil {
		return nil, fmt.Errorf("contacts fetch: %w", err)
	}
	return customersdomain.WithRecency(contacts, s.now()), nil
}

func (s *ReportService) Customers(ctx context.Context) ([]customersdomain.Customer, error) {
	customers, err := s.readers.Customers.AllCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("customers fetch: %w", err)
	}
	return customers, nil
}

func (s *ReportService) Issues(ctx context.Context) ([]issuesdomain.Issue, error) {
	issues, err := s.readers.Issues.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("issues fetch: %w", err)
	}
	return issues, nil
}
