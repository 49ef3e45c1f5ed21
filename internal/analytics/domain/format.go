package domain

import (
	shareddomain "crmdash/internal/shared/domain"
)

// Format convertit un résumé en enregistrements ordonnés.
// keys impose l'ordre (et permet d'inclure des clés absentes du résumé, à zéro);
// sans keys, l'ordre de première apparition est utilisé.
func Format[T any](s *Summary, keys []string, build func(key string, s *Summary) T) []T {
	if keys == nil {
		keys = s.keys
	}
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, build(k, s))
	}
	return out
}

// MonthKeys convertit une fenêtre de mois en clés "YYYY-MM".
// Utilisé avec Format pour le zero-fill: un enregistrement par mois, même sans activité.
func MonthKeys(months []shareddomain.Month) []string {
	keys := make([]string, len(months))
	for i, m := range months {
		keys[i] = m.String()
	}
	return keys
}

// MonthValue est un point de série mensuelle
type MonthValue struct {
	Month string  `json:"month"`
	Value float64 `json:"value"`
}

// ZeroFill retourne une valeur par mois de la fenêtre, dans l'ordre chronologique, 0 si absent
func ZeroFill(s *Summary, months []shareddomain.Month, measure string) []MonthValue {
	return Format(s, MonthKeys(months), func(key string, s *Summary) MonthValue {
		return MonthValue{Month: key, Value: s.Value(key, measure)}
	})
}
