package domain

import "time"

// EventType type d'événement de modification d'une prévision
type EventType string

const (
	EventUpdated EventType = "forecast.updated"
	EventDeleted EventType = "forecast.deleted"
)

// ChangeEvent est publié après chaque mutation réussie
type ChangeEvent struct {
	Type   EventType `json:"type"`
	CofID  int64     `json:"cofId"`
	Fields []string  `json:"fields,omitempty"`
	At     time.Time `json:"at"`
}
