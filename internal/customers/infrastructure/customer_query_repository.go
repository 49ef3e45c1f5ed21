package infrastructure

import (
	"context"

	"crmdash/internal/customers/domain"
	shareddomain "crmdash/internal/shared/domain"
	"crmdash/internal/shared/infrastructure"
	"crmdash/internal/store"
)

// CustomerQueryRepository lit les clients et leurs contacts
type CustomerQueryRepository struct {
	infrastructure.BaseRepository
}

func NewCustomerQueryRepository(client store.Client, rowCap int) *CustomerQueryRepository {
	return &CustomerQueryRepository{
		BaseRepository: infrastructure.NewBaseRepository(client, rowCap),
	}
}

// ContactsByIDs retourne les contacts référencés par des commandes.
// Aucune requête sans clé: une commande sans contact ne doit pas déclencher un IN vide.
func (r *CustomerQueryRepository) ContactsByIDs(ctx context.Context, ids []int64) ([]domain.Contact, error) {
	return infrastructure.FetchByKeys[domain.Contact](ctx, r.BaseRepository,
		store.From(domain.ContactTable).Select(domain.ContactColumns...), domain.ColContactID, ids)
}

// CustomersByIDs retourne les clients référencés par des contacts ou des prévisions
func (r *CustomerQueryRepository) CustomersByIDs(ctx context.Context, ids []int64) ([]domain.Customer, error) {
	return infrastructure.FetchByKeys[domain.Customer](ctx, r.BaseRepository,
		store.From(domain.CustomerTable).Select(domain.CustomerColumns...), domain.ColCustomerID, ids)
}

// ContactsByCustomerIDs retourne les contacts rattachés aux clients donnés
func (r *CustomerQueryRepository) ContactsByCustomerIDs(ctx context.Context, customerIDs []int64) ([]domain.Contact, error) {
	return infrastructure.FetchByKeys[domain.Contact](ctx, r.BaseRepository,
		store.From(domain.ContactTable).Select(domain.ColContactID, domain.ColContactCust), domain.ColContactCust, customerIDs)
}

// AllContacts retourne au plus RowCap contacts par ID croissant
func (r *CustomerQueryRepository) AllContacts(ctx context.Context) ([]domain.Contact, error) {
	return infrastructure.FetchAll[domain.Contact](ctx, r.BaseRepository,
		store.From(domain.ContactTable).Select(domain.ContactColumns...).OrderBy(domain.ColContactID, false))
}

// AllCustomers retourne au plus RowCap clients
func (r *CustomerQueryRepository) AllCustomers(ctx context.Context) ([]domain.Customer, error) {
	return infrastructure.FetchAll[domain.Customer](ctx, r.BaseRepository,
		store.From(domain.CustomerTable).Select(domain.CustomerColumns...).OrderBy(domain.ColCustomerID, false))
}

// RegisteredBetween retourne les clients enregistrés dans [start, end[
func (r *CustomerQueryRepository) RegisteredBetween(ctx context.Context, dateRange shareddomain.DateRange) ([]domain.Customer, error) {
	return infrastructure.FetchAll[domain.Customer](ctx, r.BaseRepository,
		store.From(domain.CustomerTable).
			Select(domain.ColCustomerID, domain.ColRegDate).
			Gte(domain.ColRegDate, dateRange.Start()).
			Lt(domain.ColRegDate, dateRange.End()))
}
