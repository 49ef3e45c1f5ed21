package domain

import (
	"bytes"
	"database/sql/driver"
	"fmt"
	"time"
)

// Date est une date (ou horodatage) du store, NULL possible.
// Le store renvoie selon la colonne "2024-01-15" ou "2024-01-15T10:00:00+00:00".
type Date struct {
	t time.Time
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// NewDate enveloppe un time.Time (converti en UTC)
func NewDate(t time.Time) Date {
	return Date{t: t.UTC()}
}

// ParseDate accepte une date seule ou un horodatage RFC 3339
func ParseDate(s string) (Date, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewDate(t), nil
		}
	}
	return Date{}, fmt.Errorf("%w: unrecognized date %q", ErrInvalidInput, s)
}

// MustParseDate est réservé aux fixtures et aux tests
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Date) Time() time.Time { return d.t }

// Valid est faux pour une date NULL
func (d Date) Valid() bool { return !d.t.IsZero() }

// DayKey tronque au jour: YYYY-MM-DD
func (d Date) DayKey() string { return d.t.Format("2006-01-02") }

// Month tronque au mois calendaire
func (d Date) Month() Month { return MonthOf(d.t) }

func (d Date) String() string {
	if !d.Valid() {
		return ""
	}
	if d.t.Hour() == 0 && d.t.Minute() == 0 && d.t.Second() == 0 && d.t.Nanosecond() == 0 {
		return d.DayKey()
	}
	return d.t.Format(time.RFC3339)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		*d = Date{}
		return nil
	}
	if len(data) < 2 || data[0] != '"' {
		return fmt.Errorf("%w: date must be a string", ErrInvalidInput)
	}
	parsed, err := ParseDate(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan implémente sql.Scanner (colonnes DATE et TIMESTAMP)
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = NewDate(v)
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
	return nil
}

// Value implémente driver.Valuer
func (d Date) Value() (driver.Value, error) {
	if !d.Valid() {
		return nil, nil
	}
	return d.t, nil
}

// DaysSince retourne le nombre de jours entiers écoulés entre d et now
func (d Date) DaysSince(now time.Time) int {
	return int(now.Sub(d.t).Hours() / 24)
}
