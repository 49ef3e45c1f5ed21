// Package store est la capacité d'accès au store relationnel: lecture
// (select/filter/order/range), mise à jour et suppression.
//
// Trois implémentations du même contrat Client:
//   - SQLClient: Postgres en direct (sqlx + lib/pq)
//   - RESTClient: API REST du BaaS (PostgREST)
//   - MemoryClient: store en mémoire (mode mock, tests)
//
// Le choix se fait par configuration au démarrage, jamais en rattrapant une erreur.
package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
)

// DefaultRowCap est la borne haute appliquée à toute lecture
const DefaultRowCap = 10000

// ErrNoRows signale qu'une ligne REQUISE est absente (ex: pas de dernière date de commande).
// Ce n'est pas la même chose qu'un résultat vide, qui reste un succès.
var ErrNoRows = errors.New("store: no rows")

// Client est le contrat commun des stores
type Client interface {
	// Select remplit dest (pointeur vers slice de structs) avec le résultat de q
	Select(ctx context.Context, q Query, dest any) error
	// Update applique values aux lignes qui vérifient match, retourne le nombre de lignes touchées
	Update(ctx context.Context, table string, match []Filter, values map[string]any) (int64, error)
	// Delete supprime les lignes qui vérifient match, retourne le nombre de lignes supprimées
	Delete(ctx context.Context, table string, match []Filter) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// Error est une erreur rapportée par le store (transport ou requête rejetée)
type Error struct {
	Op        string
	Table     string
	Status    int
	Message   string
	Transient bool
	Err       error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("store %s %s: status %d: %s", e.Op, e.Table, e.Status, msg)
	}
	return fmt.Sprintf("store %s %s: %s", e.Op, e.Table, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTransient indique si une nouvelle tentative a une chance d'aboutir
func IsTransient(err error) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Transient
	}
	return false
}

// Fetch est le Bounded Fetcher: lecture typée avec une borne haute EXPLICITE.
//
// RÈGLES:
//   - Sans Range, la plage devient [0, cap-1]
//   - Une plage plus large que cap est ramenée à cap lignes
//   - Une plage au-delà des données retourne le sous-ensemble disponible, sans erreur
//   - Le résultat ne dépasse jamais cap lignes
func Fetch[T any](ctx context.Context, c Client, q Query, rowCap int) ([]T, error) {
	if rowCap <= 0 {
		rowCap = DefaultRowCap
	}
	q = bound(q, rowCap)

	rows := make([]T, 0)
	if err := c.Select(ctx, q, &rows); err != nil {
		return nil, err
	}
	if len(rows) > rowCap {
		rows = rows[:rowCap]
	}
	return rows, nil
}

// FetchFirst lit la première ligne de q. L'absence de ligne est une erreur (ErrNoRows):
// à utiliser pour les prérequis d'un rapport, pas pour les enrichissements optionnels.
func FetchFirst[T any](ctx context.Context, c Client, q Query) (T, error) {
	var zero T
	q.Rows = &Range{From: 0, To: 0}

	rows := make([]T, 0, 1)
	if err := c.Select(ctx, q, &rows); err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, fmt.Errorf("%s: %w", q.Table, ErrNoRows)
	}
	return rows[0], nil
}

func bound(q Query, rowCap int) Query {
	if q.Rows == nil {
		q.Rows = &Range{From: 0, To: rowCap - 1}
		return q
	}
	r := *q.Rows
	if r.From < 0 {
		r.From = 0
	}
	if r.Limit() > rowCap {
		r.To = r.From + rowCap - 1
	}
	q.Rows = &r
	return q
}

// sliceTarget vérifie que dest est un pointeur vers un slice
func sliceTarget(dest any) (reflect.Value, error) {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Slice {
		return reflect.Value{}, fmt.Errorf("store: dest must be a non-nil pointer to a slice, got %T", dest)
	}
	return v.Elem(), nil
}
