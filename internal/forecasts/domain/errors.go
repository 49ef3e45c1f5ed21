package domain

import (
	"fmt"

	shareddomain "crmdash/internal/shared/domain"
)

// ErrEmptyPatch: aucun champ à mettre à jour, rejeté avant tout appel au store
var ErrEmptyPatch = fmt.Errorf("%w: No fields to update", shareddomain.ErrInvalidInput)

// ErrForecastNotFound: mise à jour d'un COF_ID inexistant
var ErrForecastNotFound = fmt.Errorf("forecast %w", shareddomain.ErrNotFound)

func invalidID(raw string) error {
	return fmt.Errorf("%w: forecast id must be a positive integer, got %q", shareddomain.ErrInvalidInput, raw)
}
