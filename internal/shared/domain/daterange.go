package domain

import (
	"errors"
	"fmt"
	"time"
)

// Month est un mois calendaire (UTC), clé d'agrégation "YYYY-MM".
//
// DESIGN PATTERN: Value Object (DDD)
//   - Immutable, comparable (utilisable comme clé de map)
//   - Taille: int + time.Month = 16 bytes, passé par VALEUR
type Month struct {
	year  int
	month time.Month
}

// MonthOf tronque un instant au mois calendaire
func MonthOf(t time.Time) Month {
	t = t.UTC()
	return Month{year: t.Year(), month: t.Month()}
}

// ParseMonth lit "YYYY-MM"
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("%w: month must be YYYY-MM, got %q", ErrInvalidInput, s)
	}
	return MonthOf(t), nil
}

// Start retourne le premier instant du mois
func (m Month) Start() time.Time {
	return time.Date(m.year, m.month, 1, 0, 0, 0, 0, time.UTC)
}

// AddMonths décale de n mois (n négatif possible)
// time.Date normalise les débordements: mois 13 = janvier de l'année suivante
func (m Month) AddMonths(n int) Month {
	return MonthOf(time.Date(m.year, m.month+time.Month(n), 1, 0, 0, 0, 0, time.UTC))
}

func (m Month) Next() Month { return m.AddMonths(1) }

func (m Month) Before(other Month) bool {
	return m.year < other.year || (m.year == other.year && m.month < other.month)
}

// String retourne la clé "YYYY-MM"
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.year, int(m.month))
}

// Range retourne la période [début du mois, début du mois suivant)
func (m Month) Range() DateRange {
	return DateRange{start: m.Start(), end: m.Next().Start()}
}

// MonthWindow retourne n mois consécutifs à partir de from
func MonthWindow(from Month, n int) []Month {
	if n <= 0 {
		return nil
	}
	months := make([]Month, n)
	for i := range months {
		months[i] = from.AddMonths(i)
	}
	return months
}

// MonthsBetween retourne tous les mois de from à to INCLUS, dans l'ordre chronologique
func MonthsBetween(from, to Month) ([]Month, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: window end %s is before start %s", ErrInvalidInput, to, from)
	}
	var months []Month
	for m := from; !to.Before(m); m = m.Next() {
		months = append(months, m)
	}
	return months, nil
}

// DateRange représente une période semi-ouverte [start, end)
//
// DESIGN PATTERN: Value Object (DDD)
//   - Immutable: pas de setters, valeurs fixées à la création
//   - Validation dans le constructeur
type DateRange struct {
	start time.Time
	end   time.Time
}

// NewDateRange crée une période [start, end), end doit suivre start
func NewDateRange(start, end time.Time) (DateRange, error) {
	if end.Before(start) {
		return DateRange{}, errors.New("date range end is before start")
	}
	return DateRange{start: start.UTC(), end: end.UTC()}, nil
}

// TrailingMonths retourne [until - n mois, until], la borne haute incluse au jour près
func TrailingMonths(until time.Time, n int) DateRange {
	until = until.UTC()
	return DateRange{
		start: until.AddDate(0, -n, 0),
		end:   until.AddDate(0, 0, 1),
	}
}

func (dr DateRange) Start() time.Time { return dr.start }

func (dr DateRange) End() time.Time { return dr.end }
