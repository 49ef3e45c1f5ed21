package infrastructure

import (
	"context"
	"fmt"

	"crmdash/internal/forecasts/domain"
	shareddomain "crmdash/internal/shared/domain"
	"crmdash/internal/shared/infrastructure"
	"crmdash/internal/store"
)

// ForecastRepository lit et modifie les prévisions.
// Seul repository avec des écritures: Update et Delete par COF_ID.
type ForecastRepository struct {
	infrastructure.BaseRepository
}

func NewForecastRepository(client store.Client, rowCap int) *ForecastRepository {
	return &ForecastRepository{
		BaseRepository: infrastructure.NewBaseRepository(client, rowCap),
	}
}

func (r *ForecastRepository) query() store.Query {
	return store.From(domain.Table).Select(domain.Columns...)
}

// FindAll retourne au plus RowCap prévisions, par date prévue croissante
func (r *ForecastRepository) FindAll(ctx context.Context) ([]domain.Forecast, error) {
	return infrastructure.FetchAll[domain.Forecast](ctx, r.BaseRepository,
		r.query().OrderBy(domain.ColPredictedDate, false))
}

// FindPredictedBetween retourne les prévisions dont PREDICTED_DATE est dans [start, end[
func (r *ForecastRepository) FindPredictedBetween(ctx context.Context, dateRange shareddomain.DateRange) ([]domain.Forecast, error) {
	return infrastructure.FetchAll[domain.Forecast](ctx, r.BaseRepository,
		store.From(domain.Table).
			Select(domain.ColID, domain.ColPredictedDate, domain.ColPredictedQuantity).
			Gte(domain.ColPredictedDate, dateRange.Start()).
			Lt(domain.ColPredictedDate, dateRange.End()).
			OrderBy(domain.ColPredictedDate, false))
}

// Update applique values à la prévision id. ErrForecastNotFound si aucune ligne n'est touchée.
func (r *ForecastRepository) Update(ctx context.Context, id domain.ID, values map[string]any) error {
	n, err := r.Client().Update(ctx, domain.Table, []store.Filter{store.Equal(domain.ColID, int64(id))}, values)
	if err != nil {
		return fmt.Errorf("update forecast %d: %w", id, err)
	}
	if n == 0 {
		return domain.ErrForecastNotFound
	}
	return nil
}

// Delete supprime la prévision id et retourne le nombre de lignes supprimées (0 si déjà absente)
func (r *ForecastRepository) Delete(ctx context.Context, id domain.ID) (int64, error) {
	n, err := r.Client().Delete(ctx, domain.Table, []store.Filter{store.Equal(domain.ColID, int64(id))})
	if err != nil {
		return 0, fmt.Errorf("delete forecast %d: %w", id, err)
	}
	return n, nil
}
