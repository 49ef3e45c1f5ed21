package domain

import (
	shareddomain "crmdash/internal/shared/domain"
)

// UnknownKey est le bucket des lignes sans correspondance de jointure
const UnknownKey = "Unknown"

// Measure est une valeur numérique extraite d'une ligne, nil = absente
type Measure[R any] struct {
	Name  string
	Value func(R) *float64
}

// Summary est le résultat d'une agrégation: par clé, une somme par mesure et un nombre de lignes.
// Les clés sont mémorisées dans l'ordre de première apparition.
type Summary struct {
	measures []string
	keys     []string
	sums     map[string][]shareddomain.Amount
	counts   map[string]int
}

// Aggregate regroupe rows par keyOf et somme chaque mesure.
// Les valeurs nil, NaN et infinies comptent pour 0 (la ligne est tout de même comptée).
func Aggregate[R any](rows []R, keyOf func(R) string, measures ...Measure[R]) *Summary {
	s := &Summary{
		measures: make([]string, len(measures)),
		sums:     make(map[string][]shareddomain.Amount),
		counts:   make(map[string]int),
	}
	for i, m := range measures {
		s.measures[i] = m.Name
	}

	for _, row := range rows {
		key := keyOf(row)
		acc, exists := s.sums[key]
		if !exists {
			acc = make([]shareddomain.Amount, len(measures))
			for i := range acc {
				acc[i] = shareddomain.ZeroAmount()
			}
			s.keys = append(s.keys, key)
		}
		for i, m := range measures {
			acc[i] = acc[i].Add(shareddomain.AmountOf(m.Value(row)))
		}
		s.sums[key] = acc
		s.counts[key]++
	}
	return s
}

// Sum est la forme à une mesure: map clé -> somme
func Sum[R any](rows []R, keyOf func(R) string, valueOf func(R) *float64) map[string]float64 {
	s := Aggregate(rows, keyOf, Measure[R]{Name: "value", Value: valueOf})
	out := make(map[string]float64, len(s.keys))
	for _, k := range s.keys {
		out[k] = s.Value(k, "value")
	}
	return out
}

// Keys retourne les clés dans l'ordre de première apparition
func (s *Summary) Keys() []string {
	return append([]string(nil), s.keys...)
}

// Len retourne le nombre de groupes
func (s *Summary) Len() int {
	return len(s.keys)
}

// Amount retourne la somme exacte d'une mesure pour une clé (0 si clé ou mesure inconnue)
func (s *Summary) Amount(key, measure string) shareddomain.Amount {
	acc, ok := s.sums[key]
	if !ok {
		return shareddomain.ZeroAmount()
	}
	for i, name := range s.measures {
		if name == measure {
			return acc[i]
		}
	}
	return shareddomain.ZeroAmount()
}

// Value retourne la somme d'une mesure pour une clé
func (s *Summary) Value(key, measure string) float64 {
	return s.Amount(key, measure).Float64()
}

// Count retourne le nombre de lignes d'un groupe
func (s *Summary) Count(key string) int {
	return s.counts[key]
}

// Mean retourne la moyenne d'une mesure sur un groupe (0 pour un groupe vide)
func (s *Summary) Mean(key, measure string) float64 {
	n := s.counts[key]
	if n == 0 {
		return 0
	}
	return s.Value(key, measure) / float64(n)
}

// KeyOrUnknown retourne le libellé, ou UnknownKey s'il est NULL ou vide
func KeyOrUnknown(s *string) string {
	if s == nil || *s == "" {
		return UnknownKey
	}
	return *s
}

// One est la mesure "1 par ligne", pour les comptages
func One[R any](R) *float64 {
	one := 1.0
	return &one
}
