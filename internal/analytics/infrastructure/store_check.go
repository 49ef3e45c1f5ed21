package infrastructure

import (
	"context"
	"time"

	"crmdash/internal/store"
)

// StoreCheck sonde le store pour /api/health et /api/check
type StoreCheck struct {
	client store.Client
	rowCap int
}

func NewStoreCheck(client store.Client, rowCap int) *StoreCheck {
	if rowCap <= 0 {
		rowCap = store.DefaultRowCap
	}
	return &StoreCheck{client: client, rowCap: rowCap}
}

// Ping mesure l'aller-retour vers le store
func (p *StoreCheck) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	err := p.client.Ping(ctx)
	return time.Since(start), err
}

// TableStatus résultat de la lecture bornée d'une table
type TableStatus struct {
	Table   string `json:"table"`
	OK      bool   `json:"ok"`
	Count   int    `json:"count"`
	Capped  bool   `json:"capped"`
	Elapsed string `json:"elapsed"`
	Error   string `json:"error,omitempty"`
}

// CheckTable lit au plus RowCap lignes de table (colonnes de T) et rapporte le volume.
// Une erreur de lecture est rapportée dans le statut, jamais retournée.
func CheckTable[T any](ctx context.Context, p *StoreCheck, table string, columns ...string) TableStatus {
	start := time.Now()
	rows, err := store.Fetch[T](ctx, p.client, store.From(table).Select(columns...), p.rowCap)
	status := TableStatus{Table: table, Elapsed: time.Since(start).Round(time.Millisecond).String()}
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.OK = true
	status.Count = len(rows)
	status.Capped = len(rows) == p.rowCap
	return status
}
