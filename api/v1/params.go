package v1

import (
	"fmt"
	"net/http"
	"strconv"

	shareddomain "crmdash/internal/shared/domain"
)

// intParam lit un entier de la query string; absent: def
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", shareddomain.ErrInvalidInput, name, raw)
	}
	return v, nil
}

// monthParam lit un mois YYYY-MM; absent: nil
func monthParam(r *http.Request, name string) (*shareddomain.Month, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	m, err := shareddomain.ParseMonth(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &m, nil
}
