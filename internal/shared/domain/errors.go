package domain

import "errors"

// Catégories d'erreurs métier, converties en statut HTTP par la couche api
var (
	// ErrInvalidInput: requête client invalide (400)
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound: ressource absente (404)
	ErrNotFound = errors.New("not found")
)
