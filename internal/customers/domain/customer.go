package domain

import (
	shareddomain "crmdash/internal/shared/domain"
)

const CustomerTable = "customers"

const (
	ColCustomerID = "CUSTOMER_ID"
	ColRegDate    = "REG_DATE"
)

var CustomerColumns = []string{
	"CUSTOMER_ID", "COMPANY_NAME", "NAME", "COMPANY_TYPE", "INDUSTRY_TYPE",
	"REGION", "COUNTRY", "COMPANY_SIZE", "REG_DATE",
}

// Customer est l'entreprise cliente, cible terminale des jointures
type Customer struct {
	ID           int64             `db:"CUSTOMER_ID" json:"CUSTOMER_ID"`
	CompanyName  *string           `db:"COMPANY_NAME" json:"COMPANY_NAME"`
	Name         *string           `db:"NAME" json:"NAME"`
	CompanyType  *string           `db:"COMPANY_TYPE" json:"COMPANY_TYPE"`
	IndustryType *string           `db:"INDUSTRY_TYPE" json:"INDUSTRY_TYPE"`
	Region       *string           `db:"REGION" json:"REGION"`
	Country      *string           `db:"COUNTRY" json:"COUNTRY"`
	CompanySize  *string           `db:"COMPANY_SIZE" json:"COMPANY_SIZE"`
	RegDate      shareddomain.Date `db:"REG_DATE" json:"REG_DATE"`
}

// Key est la clé primaire
func (c Customer) Key() int64 { return c.ID }

// Text retourne *s ou "" pour une chaîne NULL
func Text(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// TextOr retourne *s, ou fallback si NULL ou vide
func TextOr(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
