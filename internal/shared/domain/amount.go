package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// Amount est une valeur numérique agrégeable (montant, quantité, coût).
//
// DESIGN PATTERN: Value Object (DDD)
//   - Immutable: Add retourne une nouvelle valeur
//   - Valeur absente (NULL) ou NaN = 0, jamais d'erreur
//
// PRÉCISION: decimal.Decimal plutôt que float64
//   - L'addition de float64 dépend de l'ordre (0.1+0.2+0.3 != 0.3+0.2+0.1)
//   - Avec decimal, le total d'un groupe ne dépend pas de l'ordre de parcours
type Amount struct {
	value decimal.Decimal
}

// ZeroAmount retourne le neutre de l'addition
func ZeroAmount() Amount {
	return Amount{value: decimal.Zero}
}

// AmountOf convertit une valeur du store. nil, NaN et ±Inf valent 0.
func AmountOf(v *float64) Amount {
	if v == nil {
		return ZeroAmount()
	}
	return AmountFromFloat(*v)
}

// AmountFromFloat convertit un float64, NaN et ±Inf valent 0
func AmountFromFloat(f float64) Amount {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ZeroAmount()
	}
	return Amount{value: decimal.NewFromFloat(f)}
}

// Add additionne deux montants
func (a Amount) Add(other Amount) Amount {
	return Amount{value: a.value.Add(other.value)}
}

// Float64 retourne la valeur pour le transport JSON
func (a Amount) Float64() float64 {
	f, _ := a.value.Float64()
	return f
}

// Rounded arrondit à l'entier le plus proche (demi vers l'extérieur, comme Math.round sur les positifs)
func (a Amount) Rounded() int64 {
	return a.value.Round(0).IntPart()
}

// IsZero vérifie si la valeur est zéro
func (a Amount) IsZero() bool {
	return a.value.IsZero()
}
