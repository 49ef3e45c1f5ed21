package domain

import (
	"time"

	shareddomain "crmdash/internal/shared/domain"
)

const ContactTable = "contacts"

const (
	ColContactID   = "CONTACT_ID"
	ColContactCust = "CUSTOMER_ID"
	ColContactDate = "CONTACT_DATE"
)

var ContactColumns = []string{
	"CONTACT_ID", "CUSTOMER_ID", "NAME", "EMAIL", "POSITION", "DEPARTMENT", "PHONE", "CONTACT_DATE",
}

// Contact est un interlocuteur chez un client. Sert de pont Order -> Customer.
type Contact struct {
	ID          int64             `db:"CONTACT_ID" json:"CONTACT_ID"`
	CustomerID  *int64            `db:"CUSTOMER_ID" json:"CUSTOMER_ID"`
	Name        *string           `db:"NAME" json:"NAME"`
	Email       *string           `db:"EMAIL" json:"EMAIL"`
	Position    *string           `db:"POSITION" json:"POSITION"`
	Department  *string           `db:"DEPARTMENT" json:"DEPARTMENT"`
	Phone       *string           `db:"PHONE" json:"PHONE"`
	ContactDate shareddomain.Date `db:"CONTACT_DATE" json:"CONTACT_DATE"`
}

// Key est la clé primaire
func (c Contact) Key() int64 { return c.ID }

// CustomerKey retourne la clé étrangère vers le client, absente si NULL
func (c Contact) CustomerKey() (int64, bool) {
	if c.CustomerID == nil {
		return 0, false
	}
	return *c.CustomerID, true
}

// ContactWithRecency est un contact enrichi du nombre de jours depuis le dernier échange
type ContactWithRecency struct {
	Contact
	DaysSinceContact *int `json:"DAYS_SINCE_CONTACT"`
}

// WithRecency calcule DAYS_SINCE_CONTACT (nil si la date est absente)
func WithRecency(contacts []Contact, now time.Time) []ContactWithRecency {
	out := make([]ContactWithRecency, len(contacts))
	for i, c := range contacts {
		out[i] = ContactWithRecency{Contact: c}
		if c.ContactDate.Valid() {
			days := c.ContactDate.DaysSince(now)
			out[i].DaysSinceContact = &days
		}
	}
	return out
}

// CustomerIDs extrait les clés client non NULL
func CustomerIDs(contacts []Contact) []int64 {
	ids := make([]int64, 0, len(contacts))
	for _, c := range contacts {
		if id, ok := c.CustomerKey(); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// ContactIDsOf extrait les clés primaires des contacts
func ContactIDsOf(contacts []Contact) []int64 {
	ids := make([]int64, len(contacts))
	for i, c := range contacts {
		ids[i] = c.ID
	}
	return ids
}
