package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// MemoryClient est le store mock: des tables de documents JSON en mémoire.
// Il évalue les mêmes filtres, tris et plages que les vrais stores.
//
// CONCURRENCE: sync.RWMutex, lectures parallèles, écritures exclusives
type MemoryClient struct {
	mu     sync.RWMutex
	tables map[string][]map[string]any
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{tables: make(map[string][]map[string]any)}
}

// LoadDir charge chaque fichier <table>.json (tableau d'objets) du répertoire
func (m *MemoryClient) LoadDir(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return fmt.Errorf("mock data glob error: %w", err)
	}
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("mock data read error: %w", err)
		}
		var rows []map[string]any
		if err := json.Unmarshal(data, &rows); err != nil {
			return fmt.Errorf("mock data %s: %w", filepath.Base(file), err)
		}
		table := strings.TrimSuffix(filepath.Base(file), ".json")
		m.mu.Lock()
		m.tables[table] = append(m.tables[table], rows...)
		m.mu.Unlock()
	}
	return nil
}

// Insert ajoute des lignes (structs taguées json ou maps) à une table
func (m *MemoryClient) Insert(table string, rows ...any) error {
	docs := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		doc, err := toDocument(row)
		if err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
		docs = append(docs, doc)
	}
	m.mu.Lock()
	m.tables[table] = append(m.tables[table], docs...)
	m.mu.Unlock()
	return nil
}

func (m *MemoryClient) Select(ctx context.Context, q Query, dest any) error {
	if _, err := sliceTarget(dest); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return &Error{Op: "select", Table: q.Table, Err: err}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]map[string]any, 0)
	for _, row := range m.tables[q.Table] {
		if matchAll(row, q.Filters) {
			matched = append(matched, row)
		}
	}

	if q.Order != nil {
		sortRows(matched, *q.Order)
	}
	if q.Rows != nil {
		matched = window(matched, *q.Rows)
	}

	out := make([]map[string]any, len(matched))
	for i, row := range matched {
		out[i] = project(row, q.Columns)
	}

	// Aller-retour JSON: mêmes tags et mêmes conversions que le client REST
	data, err := json.Marshal(out)
	if err != nil {
		return &Error{Op: "select", Table: q.Table, Err: err}
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return &Error{Op: "select", Table: q.Table, Message: "decode rows", Err: err}
	}
	return nil
}

func (m *MemoryClient) Update(ctx context.Context, table string, match []Filter, values map[string]any) (int64, error) {
	if len(match) == 0 {
		return 0, &Error{Op: "update", Table: table, Message: "refusing update without filter"}
	}
	if err := ctx.Err(); err != nil {
		return 0, &Error{Op: "update", Table: table, Err: err}
	}
	patch, err := toDocument(values)
	if err != nil {
		return 0, &Error{Op: "update", Table: table, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, row := range m.tables[table] {
		if !matchAll(row, match) {
			continue
		}
		for k, v := range patch {
			row[k] = v
		}
		n++
	}
	return n, nil
}

func (m *MemoryClient) Delete(ctx context.Context, table string, match []Filter) (int64, error) {
	if len(match) == 0 {
		return 0, &Error{Op: "delete", Table: table, Message: "refusing delete without filter"}
	}
	if err := ctx.Err(); err != nil {
		return 0, &Error{Op: "delete", Table: table, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.tables[table]
	kept := rows[:0]
	var n int64
	for _, row := range rows {
		if matchAll(row, match) {
			n++
			continue
		}
		kept = append(kept, row)
	}
	m.tables[table] = kept
	return n, nil
}

func (m *MemoryClient) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryClient) Close() error {
	return nil
}

// ============================================================================
// ÉVALUATION
// ============================================================================

func toDocument(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func matchAll(row map[string]any, filters []Filter) bool {
	for _, f := range filters {
		if !matches(row, f) {
			return false
		}
	}
	return true
}

func matches(row map[string]any, f Filter) bool {
	if f.Any != nil {
		for _, sub := range f.Any {
			if matches(row, sub) {
				return true
			}
		}
		return false
	}

	value := row[f.Column]
	switch f.Op {
	case OpIsNull:
		return value == nil
	case OpNotNull:
		return value != nil
	}
	// Sémantique SQL: NULL ne vérifie aucune comparaison
	if value == nil {
		return false
	}

	if f.Op == OpIn {
		candidates, _ := f.Value.([]any)
		for _, c := range candidates {
			if cmp, ok := compareValues(value, c); ok && cmp == 0 {
				return true
			}
		}
		return false
	}

	cmp, ok := compareValues(value, f.Value)
	if !ok {
		return false
	}
	switch f.Op {
	case OpEq:
		return cmp == 0
	case OpNeq:
		return cmp != 0
	case OpGt:
		return cmp > 0
	case OpGte:
		return cmp >= 0
	case OpLt:
		return cmp < 0
	case OpLte:
		return cmp <= 0
	}
	return false
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func normalize(v any) any {
	switch val := v.(type) {
	case int:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case float32:
		return float64(val)
	case time.Time:
		return val
	case fmt.Stringer:
		return val.String()
	}
	return v
}

// compareValues compare deux valeurs de types hétérogènes (JSON vs Go).
// ok=false si les valeurs ne sont pas comparables.
func compareValues(a, b any) (int, bool) {
	a, b = normalize(a), normalize(b)

	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		if av == bv {
			return 0, true
		}
		if !av {
			return -1, true
		}
		return 1, true
	case string:
		switch bv := b.(type) {
		case time.Time:
			at, ok := parseTime(av)
			if !ok {
				return 0, false
			}
			return at.Compare(bv), true
		case string:
			at, aok := parseTime(av)
			bt, bok := parseTime(bv)
			if aok && bok {
				return at.Compare(bt), true
			}
			return strings.Compare(av, bv), true
		}
	case time.Time:
		if bs, ok := b.(string); ok {
			bt, ok := parseTime(bs)
			if !ok {
				return 0, false
			}
			return av.Compare(bt), true
		}
		if bt, ok := b.(time.Time); ok {
			return av.Compare(bt), true
		}
	}
	return 0, false
}

// sortRows trie comme PostgREST: NULL en dernier en ASC, en premier en DESC
func sortRows(rows []map[string]any, order Order) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i][order.Column], rows[j][order.Column]
		if a == nil || b == nil {
			if a == nil && b == nil {
				return false
			}
			if order.Desc {
				return a == nil
			}
			return b == nil
		}
		cmp, _ := compareValues(a, b)
		if order.Desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

func window(rows []map[string]any, r Range) []map[string]any {
	if r.From >= len(rows) || r.Limit() == 0 {
		return rows[:0]
	}
	end := r.To + 1
	if end > len(rows) {
		end = len(rows)
	}
	return rows[r.From:end]
}

func project(row map[string]any, columns []string) map[string]any {
	if len(columns) == 0 {
		return row
	}
	out := make(map[string]any, len(columns))
	for _, col := range columns {
		if v, ok := row[col]; ok {
			out[col] = v
		}
	}
	return out
}
