package store

import "fmt"

// Op est un opérateur de filtre, nommé comme dans l'API REST du BaaS (eq, gte, in...)
type Op string

const (
	OpEq      Op = "eq"
	OpNeq     Op = "neq"
	OpGt      Op = "gt"
	OpGte     Op = "gte"
	OpLt      Op = "lt"
	OpLte     Op = "lte"
	OpIn      Op = "in"
	OpIsNull  Op = "is"
	OpNotNull Op = "not.is"
)

// Filter est un prédicat sur une colonne.
// Quand Any est renseigné, le filtre est une disjonction des sous-filtres
// (Column, Op et Value sont alors ignorés).
type Filter struct {
	Column string
	Op     Op
	Value  any
	Any    []Filter
}

// Order est un tri sur une seule colonne, appliqué par le store
type Order struct {
	Column string
	Desc   bool
}

// Range borne les lignes retournées par index, bornes INCLUSES (From..To),
// comme le header Range du BaaS.
type Range struct {
	From int
	To   int
}

// Limit retourne le nombre de lignes couvertes par la plage
func (r Range) Limit() int {
	if r.To < r.From {
		return 0
	}
	return r.To - r.From + 1
}

// Query décrit une lecture: projection, filtres, tri et plage.
//
// PATTERN: Builder fluide (value receiver)
//   - Chaque méthode retourne une copie modifiée
//   - Une Query partagée entre goroutines n'est jamais mutée
type Query struct {
	Table   string
	Columns []string
	Filters []Filter
	Order   *Order
	Rows    *Range
}

// From démarre une requête sur une table
func From(table string) Query {
	return Query{Table: table}
}

// Select définit la projection. Sans colonnes, toutes les colonnes sont lues.
func (q Query) Select(columns ...string) Query {
	q.Columns = append([]string(nil), columns...)
	return q
}

func (q Query) where(f Filter) Query {
	filters := make([]Filter, 0, len(q.Filters)+1)
	filters = append(filters, q.Filters...)
	q.Filters = append(filters, f)
	return q
}

func (q Query) Eq(column string, value any) Query {
	return q.where(Filter{Column: column, Op: OpEq, Value: value})
}

func (q Query) Neq(column string, value any) Query {
	return q.where(Filter{Column: column, Op: OpNeq, Value: value})
}

func (q Query) Gt(column string, value any) Query {
	return q.where(Filter{Column: column, Op: OpGt, Value: value})
}

func (q Query) Gte(column string, value any) Query {
	return q.where(Filter{Column: column, Op: OpGte, Value: value})
}

func (q Query) Lt(column string, value any) Query {
	return q.where(Filter{Column: column, Op: OpLt, Value: value})
}

func (q Query) Lte(column string, value any) Query {
	return q.where(Filter{Column: column, Op: OpLte, Value: value})
}

// In filtre par appartenance à un ensemble de clés (souvent issues d'une jointure précédente)
func (q Query) In(column string, values []any) Query {
	return q.where(Filter{Column: column, Op: OpIn, Value: values})
}

func (q Query) IsNull(column string) Query {
	return q.where(Filter{Column: column, Op: OpIsNull})
}

// IsNotNull exclut les lignes où column est NULL
func (q Query) IsNotNull(column string) Query {
	return q.where(Filter{Column: column, Op: OpNotNull})
}

// Or ajoute une disjonction: la ligne passe si au moins un des filtres est vrai
func (q Query) Or(filters ...Filter) Query {
	return q.where(Filter{Any: append([]Filter(nil), filters...)})
}

// OrderBy trie sur une colonne
func (q Query) OrderBy(column string, desc bool) Query {
	q.Order = &Order{Column: column, Desc: desc}
	return q
}

// Range définit la plage de lignes (bornes incluses)
func (q Query) Range(from, to int) Query {
	q.Rows = &Range{From: from, To: to}
	return q
}

func (q Query) String() string {
	return fmt.Sprintf("%s(cols=%d, filters=%d)", q.Table, len(q.Columns), len(q.Filters))
}

// Equal construit un filtre d'égalité, utile pour Update/Delete et Or
func Equal(column string, value any) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

func NotEqual(column string, value any) Filter {
	return Filter{Column: column, Op: OpNeq, Value: value}
}

func Null(column string) Filter {
	return Filter{Column: column, Op: OpIsNull}
}

// Keys convertit une liste de clés typées en []any pour Query.In
func Keys[K comparable](keys []K) []any {
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}
