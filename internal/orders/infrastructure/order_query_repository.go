package infrastructure

import (
	"context"
	"fmt"

	"crmdash/internal/orders/domain"
	shareddomain "crmdash/internal/shared/domain"
	"crmdash/internal/shared/infrastructure"
	"crmdash/internal/store"
)

// OrderQueryRepository repository pour les requêtes de lecture sur les commandes
type OrderQueryRepository struct {
	infrastructure.BaseRepository
}

// NewOrderQueryRepository crée un nouveau repository de lecture pour les commandes
func NewOrderQueryRepository(client store.Client, rowCap int) *OrderQueryRepository {
	return &OrderQueryRepository{
		BaseRepository: infrastructure.NewBaseRepository(client, rowCap),
	}
}

func (r *OrderQueryRepository) query() store.Query {
	return store.From(domain.Table).Select(domain.Columns...)
}

// LatestOrderDate retourne la date de la commande la plus récente.
// Précurseur obligatoire des rapports "dernier mois": store.ErrNoRows si la table est vide.
func (r *OrderQueryRepository) LatestOrderDate(ctx context.Context) (shareddomain.Date, error) {
	latest, err := store.FetchFirst[domain.Order](ctx, r.Client(),
		store.From(domain.Table).
			Select(domain.ColOrderDate).
			IsNotNull(domain.ColOrderDate).
			OrderBy(domain.ColOrderDate, true))
	if err != nil {
		return shareddomain.Date{}, fmt.Errorf("latest order date: %w", err)
	}
	return latest.OrderDate, nil
}

// FindByDateRange trouve les commandes dans [start, end[, plus anciennes d'abord
func (r *OrderQueryRepository) FindByDateRange(ctx context.Context, dateRange shareddomain.DateRange) ([]domain.Order, error) {
	return infrastructure.FetchAll[domain.Order](ctx, r.BaseRepository,
		r.query().
			Gte(domain.ColOrderDate, dateRange.Start()).
			Lt(domain.ColOrderDate, dateRange.End()).
			OrderBy(domain.ColOrderDate, false))
}

// FindAll retourne au plus RowCap commandes (ordre du store)
func (r *OrderQueryRepository) FindAll(ctx context.Context) ([]domain.Order, error) {
	return infrastructure.FetchAll[domain.Order](ctx, r.BaseRepository, r.query())
}

// FindRecent retourne les commandes les plus récentes d'abord
func (r *OrderQueryRepository) FindRecent(ctx context.Context) ([]domain.Order, error) {
	return infrastructure.FetchAll[domain.Order](ctx, r.BaseRepository,
		r.query().OrderBy(domain.ColOrderDate, true))
}

// FindByIDs retourne les commandes dont l'ID appartient à ids
func (r *OrderQueryRepository) FindByIDs(ctx context.Context, ids []int64) ([]domain.Order, error) {
	return infrastructure.FetchByKeys[domain.Order](ctx, r.BaseRepository, r.query(), domain.ColID, ids)
}

// FindByContactIDs retourne les commandes passées par les contacts donnés
func (r *OrderQueryRepository) FindByContactIDs(ctx context.Context, contactIDs []int64) ([]domain.Order, error) {
	return infrastructure.FetchByKeys[domain.Order](ctx, r.BaseRepository,
		r.query().OrderBy(domain.ColOrderDate, false), domain.ColContactID, contactIDs)
}
