package application

import (
	"context"
	"fmt"

	analytics "crmdash/internal/analytics/domain"
	customersdomain "crmdash/internal/customers/domain"
	ordersdomain "crmdash/internal/orders/domain"
)

// EnrichedOrder est une commande avec son contact et son client (nil si la jointure échoue)
type EnrichedOrder struct {
	Order    ordersdomain.Order
	Contact  *customersdomain.Contact
	Customer *customersdomain.Customer
}

type orderContact = analytics.Joined[ordersdomain.Order, customersdomain.Contact]

func contactCustomerKey(j orderContact) (int64, bool) {
	if j.Match == nil {
		return 0, false
	}
	return j.Match.CustomerKey()
}

// joinOrders chaîne Order -> Contact -> Customer. Une sortie par commande, dans l'ordre.
func joinOrders(orders []ordersdomain.Order, contacts []customersdomain.Contact, customers []customersdomain.Customer) []EnrichedOrder {
	withContact := analytics.Join(orders, contacts, ordersdomain.Order.ContactKey, customersdomain.Contact.Key)
	withCustomer := analytics.Join(withContact, customers, contactCustomerKey, customersdomain.Customer.Key)

	out := make([]EnrichedOrder, len(withCustomer))
	for i, j := range withCustomer {
		out[i] = EnrichedOrder{Order: j.Row.Row, Contact: j.Row.Match, Customer: j.Match}
	}
	return out
}

// enrichOrders lit les contacts puis les clients référencés par orders (IN sur les clés de l'étape précédente).
// Les deux lectures sont séquentielles: les clés client viennent des contacts.
func (s *ReportService) enrichOrders(ctx context.Context, orders []ordersdomain.Order) ([]EnrichedOrder, error) {
	contacts, err := s.readers.Customers.ContactsByIDs(ctx, ordersdomain.ContactIDs(orders))
	if err != nil {
		return nil, fmt.Errorf("contacts fetch: %w", err)
	}
	customers, err := s.readers.Customers.CustomersByIDs(ctx, customersdomain.CustomerIDs(contacts))
	if err != nil {
		return nil, fmt.Errorf("customers fetch: %w", err)
	}
	return joinOrders(orders, contacts, customers), nil
}

// loadAllEnriched lit commandes, contacts et clients EN PARALLÈLE puis les joint.
//
// PATTERN: fan-out/fan-in (WorkerPool)
//   - 3 lectures indépendantes, bornées par RowCap
//   - La première erreur annule les autres et nomme la lecture fautive
func (s *ReportService) loadAllEnriched(ctx context.Context) ([]EnrichedOrder, error) {
	var (
		orders    []ordersdomain.Order
		contacts  []customersdomain.Contact
		customers []customersdomain.Customer
	)

	pool := s.pool(ctx)
	pool.Submit("orders", func(ctx context.Context) (err error) {
		orders, err = s.readers.Orders.FindAll(ctx)
		return err
	})
	pool.Submit("contacts", func(ctx context.Context) (err error) {
		contacts, err = s.readers.Customers.AllContacts(ctx)
		return err
	})
	pool.Submit("customers", func(ctx context.Context) (err error) {
		customers, err = s.readers.Customers.AllCustomers(ctx)
		return err
	})
	if err := pool.Wait(); err != nil {
		return nil, err
	}

	return joinOrders(orders, contacts, customers), nil
}

// EnrichedOrders retourne les commandes les plus récentes avec contact et client (export CSV)
func (s *ReportService) EnrichedOrders(ctx context.Context) ([]EnrichedOrder, error) {
	orders, err := s.readers.Orders.FindRecent(ctx)
	if err != nil {
		return nil, fmt.Errorf("orders fetch: %w", err)
	}
	return s.enrichOrders(ctx, orders)
}
