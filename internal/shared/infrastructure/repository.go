package infrastructure

import (
	"context"

	"crmdash/internal/store"
)

// BaseRepository est embarqué par les repositories de lecture de chaque contexte.
// Il porte le client store injecté au démarrage et la borne de lecture.
type BaseRepository struct {
	client store.Client
	rowCap int
}

// NewBaseRepository crée une base de repository. rowCap <= 0 = store.DefaultRowCap.
func NewBaseRepository(client store.Client, rowCap int) BaseRepository {
	if rowCap <= 0 {
		rowCap = store.DefaultRowCap
	}
	return BaseRepository{client: client, rowCap: rowCap}
}

// Client retourne le store
func (r BaseRepository) Client() store.Client {
	return r.client
}

// RowCap retourne la borne haute des lectures
func (r BaseRepository) RowCap() int {
	return r.rowCap
}

// FetchAll lit au plus RowCap lignes
func FetchAll[T any](ctx context.Context, r BaseRepository, q store.Query) ([]T, error) {
	return store.Fetch[T](ctx, r.client, q, r.rowCap)
}

// FetchByKeys lit les lignes dont column appartient à keys (dédoublonnées).
// Sans clé, aucune requête n'est émise: le résultat est vide.
func FetchByKeys[T any, K comparable](ctx context.Context, r BaseRepository, q store.Query, column string, keys []K) ([]T, error) {
	unique := DistinctKeys(keys)
	if len(unique) == 0 {
		return []T{}, nil
	}
	return store.Fetch[T](ctx, r.client, q.In(column, store.Keys(unique)), r.rowCap)
}

// DistinctKeys dédoublonne en conservant l'ordre d'apparition
func DistinctKeys[K comparable](keys []K) []K {
	seen := make(map[K]struct{}, len(keys))
	out := make([]K, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
