package infrastructure

import (
	"context"

	"crmdash/internal/issues/domain"
	"crmdash/internal/shared/infrastructure"
	"crmdash/internal/store"
)

// IssueQueryRepository lit les incidents
type IssueQueryRepository struct {
	infrastructure.BaseRepository
}

func NewIssueQueryRepository(client store.Client, rowCap int) *IssueQueryRepository {
	return &IssueQueryRepository{
		BaseRepository: infrastructure.NewBaseRepository(client, rowCap),
	}
}

func (r *IssueQueryRepository) query() store.Query {
	return store.From(domain.Table).Select(domain.Columns...)
}

// RecentOpen retourne au plus limit incidents ouverts (statut NULL ou différent de Resolved),
// plus récents d'abord
func (r *IssueQueryRepository) RecentOpen(ctx context.Context, limit int) ([]domain.Issue, error) {
	if limit <= 0 {
		return []domain.Issue{}, nil
	}
	return infrastructure.FetchAll[domain.Issue](ctx, r.BaseRepository,
		r.query().
			Or(store.Null(domain.ColStatus), store.NotEqual(domain.ColStatus, domain.StatusResolved)).
			IsNotNull(domain.ColIssueDate).
			OrderBy(domain.ColIssueDate, true).
			Range(0, limit-1))
}

// FindAll retourne au plus RowCap incidents, plus récents d'abord
func (r *IssueQueryRepository) FindAll(ctx context.Context) ([]domain.Issue, error) {
	return infrastructure.FetchAll[domain.Issue](ctx, r.BaseRepository,
		r.query().OrderBy(domain.ColIssueDate, true))
}
