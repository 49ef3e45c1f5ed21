package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// SQLClient lit et écrit directement dans Postgres.
// Les noms de colonnes du schéma sont en MAJUSCULES (ORDER_ID...), ils sont donc toujours quotés.
type SQLClient struct {
	db *sqlx.DB
}

// NewSQLClient crée un client au-dessus d'un pool déjà ouvert (voir database.Open)
func NewSQLClient(db *sqlx.DB) *SQLClient {
	return &SQLClient{db: db}
}

func (c *SQLClient) Select(ctx context.Context, q Query, dest any) error {
	if _, err := sliceTarget(dest); err != nil {
		return err
	}
	query, args := buildSelect(q)
	if err := c.db.SelectContext(ctx, dest, query, args...); err != nil {
		return sqlError("select", q.Table, err)
	}
	return nil
}

func (c *SQLClient) Update(ctx context.Context, table string, match []Filter, values map[string]any) (int64, error) {
	if len(match) == 0 {
		return 0, &Error{Op: "update", Table: table, Message: "refusing update without filter"}
	}
	if len(values) == 0 {
		return 0, &Error{Op: "update", Table: table, Message: "no values to update"}
	}
	query, args := buildUpdate(table, match, values)
	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, sqlError("update", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, sqlError("update", table, err)
	}
	return n, nil
}

func (c *SQLClient) Delete(ctx context.Context, table string, match []Filter) (int64, error) {
	if len(match) == 0 {
		return 0, &Error{Op: "delete", Table: table, Message: "refusing delete without filter"}
	}
	query, args := buildDelete(table, match)
	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, sqlError("delete", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, sqlError("delete", table, err)
	}
	return n, nil
}

func (c *SQLClient) Ping(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		return sqlError("ping", "", err)
	}
	return nil
}

func (c *SQLClient) Close() error {
	return c.db.Close()
}

// ============================================================================
// CONSTRUCTION SQL
// ============================================================================

// sqlBuilder accumule les arguments positionnels ($1, $2...)
type sqlBuilder struct {
	sb   strings.Builder
	args []any
}

func (b *sqlBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func buildSelect(q Query) (string, []any) {
	b := &sqlBuilder{}
	b.sb.WriteString("SELECT ")
	if len(q.Columns) == 0 {
		b.sb.WriteString("*")
	} else {
		for i, col := range q.Columns {
			if i > 0 {
				b.sb.WriteString(", ")
			}
			b.sb.WriteString(pq.QuoteIdentifier(col))
		}
	}
	b.sb.WriteString(" FROM ")
	b.sb.WriteString(pq.QuoteIdentifier(q.Table))
	b.where(q.Filters)

	if q.Order != nil {
		b.sb.WriteString(" ORDER BY ")
		b.sb.WriteString(pq.QuoteIdentifier(q.Order.Column))
		if q.Order.Desc {
			b.sb.WriteString(" DESC")
		} else {
			b.sb.WriteString(" ASC")
		}
	}
	if q.Rows != nil {
		fmt.Fprintf(&b.sb, " LIMIT %d OFFSET %d", q.Rows.Limit(), q.Rows.From)
	}
	return b.sb.String(), b.args
}

func buildUpdate(table string, match []Filter, values map[string]any) (string, []any) {
	b := &sqlBuilder{}
	b.sb.WriteString("UPDATE ")
	b.sb.WriteString(pq.QuoteIdentifier(table))
	b.sb.WriteString(" SET ")

	// Ordre stable des colonnes: requête identique pour un même patch
	cols := make([]string, 0, len(values))
	for col := range values {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	for i, col := range cols {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.sb.WriteString(pq.QuoteIdentifier(col))
		b.sb.WriteString(" = ")
		b.sb.WriteString(b.arg(values[col]))
	}
	b.where(match)
	return b.sb.String(), b.args
}

func buildDelete(table string, match []Filter) (string, []any) {
	b := &sqlBuilder{}
	b.sb.WriteString("DELETE FROM ")
	b.sb.WriteString(pq.QuoteIdentifier(table))
	b.where(match)
	return b.sb.String(), b.args
}

func (b *sqlBuilder) where(filters []Filter) {
	if len(filters) == 0 {
		return
	}
	b.sb.WriteString(" WHERE ")
	for i, f := range filters {
		if i > 0 {
			b.sb.WriteString(" AND ")
		}
		b.sb.WriteString(b.predicate(f))
	}
}

func (b *sqlBuilder) predicate(f Filter) string {
	if f.Any != nil {
		if len(f.Any) == 0 {
			return "FALSE"
		}
		parts := make([]string, len(f.Any))
		for i, sub := range f.Any {
			parts[i] = b.predicate(sub)
		}
		return "(" + strings.Join(parts, " OR ") + ")"
	}

	col := pq.QuoteIdentifier(f.Column)
	switch f.Op {
	case OpIsNull:
		return col + " IS NULL"
	case OpNotNull:
		return col + " IS NOT NULL"
	case OpIn:
		values, _ := f.Value.([]any)
		if len(values) == 0 {
			// IN () vide: ne correspond à rien, comme in.() côté REST
			return "FALSE"
		}
		placeholders := make([]string, len(values))
		for i, v := range values {
			placeholders[i] = b.arg(v)
		}
		return col + " IN (" + strings.Join(placeholders, ", ") + ")"
	case OpNeq:
		return col + " <> " + b.arg(f.Value)
	case OpGt:
		return col + " > " + b.arg(f.Value)
	case OpGte:
		return col + " >= " + b.arg(f.Value)
	case OpLt:
		return col + " < " + b.arg(f.Value)
	case OpLte:
		return col + " <= " + b.arg(f.Value)
	default:
		return col + " = " + b.arg(f.Value)
	}
}

// sqlError convertit une erreur driver en *Error en marquant les erreurs transitoires
func sqlError(op, table string, err error) error {
	se := &Error{Op: op, Table: table, Err: err}

	var pqErr *pq.Error
	switch {
	case errors.As(err, &pqErr):
		se.Message = pqErr.Message
		switch pqErr.Code.Class() {
		case "08", "53", "57": // connexion, ressources, intervention opérateur
			se.Transient = true
		}
		if pqErr.Code == "40001" || pqErr.Code == "40P01" {
			se.Transient = true
		}
	case errors.Is(err, driver.ErrBadConn):
		se.Transient = true
	default:
		var netErr net.Error
		if errors.As(err, &netErr) {
			se.Transient = true
		}
	}
	return se
}
