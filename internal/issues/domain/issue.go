package domain

import (
	"time"

	shareddomain "crmdash/internal/shared/domain"
)

const Table = "issues"

const (
	ColID        = "ISSUE_ID"
	ColOrderID   = "ORDER_ID"
	ColIssueDate = "ISSUE_DATE"
	ColType      = "ISSUE_TYPE"
	ColSeverity  = "SEVERITY"
	ColStatus    = "STATUS"
)

var Columns = []string{
	ColID, ColOrderID, ColIssueDate, ColType, ColSeverity, "DESCRIPTION", "RESOLVED_DATE", ColStatus,
}

// StatusResolved est le seul statut considéré comme fermé
const StatusResolved = "Resolved"

// NotAvailable remplace un libellé absent
const NotAvailable = "N/A"

// Issue est un incident rattaché à une commande
type Issue struct {
	ID           int64             `db:"ISSUE_ID" json:"ISSUE_ID"`
	OrderID      *int64            `db:"ORDER_ID" json:"ORDER_ID"`
	IssueDate    shareddomain.Date `db:"ISSUE_DATE" json:"ISSUE_DATE"`
	IssueType    *string           `db:"ISSUE_TYPE" json:"ISSUE_TYPE"`
	Severity     *string           `db:"SEVERITY" json:"SEVERITY"`
	Description  *string           `db:"DESCRIPTION" json:"DESCRIPTION"`
	ResolvedDate shareddomain.Date `db:"RESOLVED_DATE" json:"RESOLVED_DATE"`
	Status       *string           `db:"STATUS" json:"STATUS"`
}

// IsOpen: statut NULL ou différent de Resolved
func (i Issue) IsOpen() bool {
	return i.Status == nil || *i.Status != StatusResolved
}

// OrderKey retourne la commande liée, absente si NULL
func (i Issue) OrderKey() (int64, bool) {
	if i.OrderID == nil {
		return 0, false
	}
	return *i.OrderID, true
}

// RecentIssue est la vue "incident ouvert récent"
type RecentIssue struct {
	Date     string `json:"date"`
	Type     string `json:"type"`
	Severity string `json:"severity"`
	DaysAgo  int    `json:"daysAgo"`
}

// Summarize construit la vue à l'instant now, avec "N/A" pour les libellés absents
func Summarize(i Issue, now time.Time) RecentIssue {
	r := RecentIssue{
		Date:     NotAvailable,
		Type:     orNA(i.IssueType),
		Severity: orNA(i.Severity),
	}
	if i.IssueDate.Valid() {
		r.Date = i.IssueDate.DayKey()
		r.DaysAgo = i.IssueDate.DaysSince(now)
	}
	return r
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return NotAvailable
	}
	return *s
}
