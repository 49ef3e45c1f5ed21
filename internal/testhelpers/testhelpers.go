// Package testhelpers fournit un jeu de données de démonstration chargé dans le store mémoire,
// partagé par les tests des services et des handlers HTTP.
package testhelpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	customersdomain "crmdash/internal/customers/domain"
	forecastsdomain "crmdash/internal/forecasts/domain"
	issuesdomain "crmdash/internal/issues/domain"
	ordersdomain "crmdash/internal/orders/domain"
	"crmdash/internal/store"
)

// Now est l'horloge de référence du jeu de données
var Now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type row = map[string]any

// Customers: 10 et 20 complets, 30 sans type ni taille (inscrit hors fenêtre de 12 mois)
var Customers = []row{
	{"CUSTOMER_ID": 10, "COMPANY_NAME": "Alpha", "NAME": "Kim", "COMPANY_TYPE": "B2B", "INDUSTRY_TYPE": "Manufacturing",
		"REGION": "Seoul", "COUNTRY": "한국", "COMPANY_SIZE": "대기업", "REG_DATE": "2024-05-10"},
	{"CUSTOMER_ID": 20, "COMPANY_NAME": "Beta", "NAME": "Lee", "COMPANY_TYPE": "B2C", "INDUSTRY_TYPE": "Retail",
		"REGION": "Berlin", "COUNTRY": "Germany", "COMPANY_SIZE": "중소기업", "REG_DATE": "2024-06-01"},
	{"CUSTOMER_ID": 30, "COMPANY_NAME": "Gamma", "NAME": "Park", "COMPANY_TYPE": nil, "INDUSTRY_TYPE": nil,
		"REGION": nil, "COUNTRY": "USA", "COMPANY_SIZE": nil, "REG_DATE": "2023-01-01"},
}

// Contacts: 3 n'a pas de client
var Contacts = []row{
	{"CONTACT_ID": 1, "CUSTOMER_ID": 10, "NAME": "Kim Minji", "EMAIL": "minji@alpha.test", "CONTACT_DATE": "2024-06-10"},
	{"CONTACT_ID": 2, "CUSTOMER_ID": 20, "NAME": "Lee Jun", "EMAIL": "jun@beta.test", "CONTACT_DATE": "2024-06-01"},
	{"CONTACT_ID": 3, "CUSTOMER_ID": nil, "NAME": "Orphan", "CONTACT_DATE": nil},
	{"CONTACT_ID": 4, "CUSTOMER_ID": 30, "NAME": "Park Soo", "CONTACT_DATE": "2024-01-15"},
}

// Orders: dernière commande le 2024-05-31; 102 référence un contact absent, 104 n'a pas de contact
var Orders = []row{
	{"ORDER_ID": 100, "CONTACT_ID": 1, "PRODUCT_ID": "P-1", "ORDER_DATE": "2024-05-03", "QUANTITY": 2, "AMOUNT": 100, "COST": 30, "COSTT": 60, "MARGIN_RATE": 0.4, "REVENUE": 40},
	{"ORDER_ID": 101, "CONTACT_ID": 2, "PRODUCT_ID": "P-2", "ORDER_DATE": "2024-05-20", "QUANTITY": 1, "AMOUNT": 50, "COST": 30, "COSTT": 30, "MARGIN_RATE": 0.4, "REVENUE": 20},
	{"ORDER_ID": 102, "CONTACT_ID": 9, "PRODUCT_ID": "P-1", "ORDER_DATE": "2024-05-20", "QUANTITY": 3, "AMOUNT": 25, "COST": nil, "COSTT": nil, "MARGIN_RATE": nil, "REVENUE": 5},
	{"ORDER_ID": 103, "CONTACT_ID": 1, "PRODUCT_ID": "P-3", "ORDER_DATE": "2024-04-11", "QUANTITY": 4, "AMOUNT": 200, "COST": 37.5, "COSTT": 150, "MARGIN_RATE": 0.25, "REVENUE": 50},
	{"ORDER_ID": 104, "CONTACT_ID": nil, "PRODUCT_ID": nil, "ORDER_DATE": "2024-04-11", "QUANTITY": 1, "AMOUNT": nil, "COSTT": nil, "MARGIN_RATE": nil, "REVENUE": nil},
	{"ORDER_ID": 105, "CONTACT_ID": 4, "PRODUCT_ID": "P-2", "ORDER_DATE": "2024-05-31", "QUANTITY": 5, "AMOUNT": 10, "COST": 1, "COSTT": 5, "MARGIN_RATE": 0.5, "REVENUE": 5},
}

// Forecasts: 4 n'a pas de client et tombe hors de la fenêtre par défaut
var Forecasts = []row{
	{"COF_ID": 1, "CUSTOMER_ID": 10, "PREDICTED_DATE": "2024-06-05", "PREDICTED_QUANTITY": 10.4, "MAPE": 0.1,
		"PREDICTION_MODEL": "prophet", "PROBABILITY": 0.8, "FORECAST_GENERATION_DATETIME": "2024-05-31T10:00:00Z"},
	{"COF_ID": 2, "CUSTOMER_ID": 10, "PREDICTED_DATE": "2024-08-15", "PREDICTED_QUANTITY": 5.2, "MAPE": 0.2,
		"PREDICTION_MODEL": "prophet", "PROBABILITY": 0.6, "FORECAST_GENERATION_DATETIME": "2024-05-31T10:00:00Z"},
	{"COF_ID": 3, "CUSTOMER_ID": 20, "PREDICTED_DATE": "2024-06-20", "PREDICTED_QUANTITY": 0.5, "MAPE": nil,
		"PREDICTION_MODEL": "arima", "PROBABILITY": nil, "FORECAST_GENERATION_DATETIME": "2024-05-31T10:00:00Z"},
	{"COF_ID": 4, "CUSTOMER_ID": nil, "PREDICTED_DATE": "2025-01-01", "PREDICTED_QUANTITY": 7, "MAPE": nil,
		"PREDICTION_MODEL": "arima", "PROBABILITY": nil, "FORECAST_GENERATION_DATETIME": "2024-05-31T10:00:00Z"},
}

// Issues: 3 est résolu, 4 pointe vers la commande sans contact, 5 n'a pas de commande
var Issues = []row{
	{"ISSUE_ID": 1, "ORDER_ID": 100, "ISSUE_DATE": "2024-06-10", "ISSUE_TYPE": "Delay", "SEVERITY": "High", "STATUS": "Open"},
	{"ISSUE_ID": 2, "ORDER_ID": 101, "ISSUE_DATE": "2024-06-12", "ISSUE_TYPE": nil, "SEVERITY": "Low", "STATUS": nil},
	{"ISSUE_ID": 3, "ORDER_ID": 103, "ISSUE_DATE": "2024-06-01", "ISSUE_TYPE": "Damage", "SEVERITY": "Medium", "STATUS": "Resolved", "RESOLVED_DATE": "2024-06-03"},
	{"ISSUE_ID": 4, "ORDER_ID": 102, "ISSUE_DATE": "2024-05-01", "ISSUE_TYPE": "Billing", "SEVERITY": "Low", "STATUS": "In Progress"},
	{"ISSUE_ID": 5, "ORDER_ID": nil, "ISSUE_DATE": "2024-04-01", "ISSUE_TYPE": "Other", "SEVERITY": "Low", "STATUS": "Open"},
}

// NewDemoStore retourne un store mémoire chargé avec le jeu de données complet
func NewDemoStore(tb testing.TB) *store.MemoryClient {
	tb.Helper()

	m := store.NewMemoryClient()
	tables := map[string][]row{
		customersdomain.CustomerTable: Customers,
		customersdomain.ContactTable:  Contacts,
		ordersdomain.Table:            Orders,
		forecastsdomain.Table:         Forecasts,
		issuesdomain.Table:            Issues,
	}
	for table, rows := range tables {
		docs := make([]any, len(rows))
		for i, r := range rows {
			docs[i] = r
		}
		require.NoError(tb, m.Insert(table, docs...))
	}
	return m
}

// Ptr retourne un pointeur vers v
func Ptr[T any](v T) *T {
	return &v
}
