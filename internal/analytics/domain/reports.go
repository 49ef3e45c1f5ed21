package domain

import (
	"sort"
	"strings"
)

// ============================================================================
// ENREGISTREMENTS DE RAPPORT
//
// Sortie de l'étape Format de chaque pipeline, sérialisés tels quels
// dans l'enveloppe {"data": [...]} de l'API.
// ============================================================================

// CompanyTypeRevenue chiffre d'affaires du dernier mois par type d'entreprise
type CompanyTypeRevenue struct {
	CompanyType string  `json:"companyType"`
	TotalAmount float64 `json:"totalAmount"`
	Month       string  `json:"month"`
}

// RegionRevenue chiffre d'affaires par grande région
type RegionRevenue struct {
	Region string  `json:"region"`
	Amount float64 `json:"amount"`
}

// CompanySizeRevenue chiffre d'affaires, nombre de commandes et marge moyenne par taille d'entreprise
type CompanySizeRevenue struct {
	CompanySize string  `json:"companySize"`
	Amount      float64 `json:"amount"`
	Orders      int     `json:"orders"`
	AvgMargin   float64 `json:"avgMargin"`
}

// DailySales ventes d'une journée
type DailySales struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
	Cost   float64 `json:"cost"`
	Profit float64 `json:"profit"`
}

// MonthlyForecast quantité prévue d'un mois, arrondie à l'entier
type MonthlyForecast struct {
	Month             string `json:"month"`
	PredictedQuantity int64  `json:"predictedQuantity"`
}

// MonthlyCount nombre d'événements d'un mois (inscriptions clients)
type MonthlyCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// CompanyIssues incidents d'une entreprise
type CompanyIssues struct {
	CompanyName string `json:"companyName"`
	Total       int    `json:"total"`
	Open        int    `json:"open"`
}

// SortCompanyIssues ordonne par nombre d'incidents ouverts, puis total, puis nom
func SortCompanyIssues(rows []CompanyIssues) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Open != rows[j].Open {
			return rows[i].Open > rows[j].Open
		}
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		return rows[i].CompanyName < rows[j].CompanyName
	})
}

// ============================================================================
// KPI MENSUELS
// ============================================================================

// MonthlyTrend point de la tendance sur 6 mois
type MonthlyTrend struct {
	Month   string  `json:"month"`
	Sales   float64 `json:"sales"`
	Revenue float64 `json:"revenue"`
	Orders  int     `json:"orders"`
}

// MonthlyKPIs compare un mois calendaire au précédent
type MonthlyKPIs struct {
	Month         string         `json:"month"`
	PreviousMonth string         `json:"previousMonth"`
	TotalSales    float64        `json:"totalSales"`
	TotalRevenue  float64        `json:"totalRevenue"`
	AvgMarginRate float64        `json:"avgMarginRate"`
	TotalOrders   int            `json:"totalOrders"`
	SalesGrowth   float64        `json:"salesGrowth"`
	RevenueGrowth float64        `json:"revenueGrowth"`
	MarginGrowth  float64        `json:"marginGrowth"`
	OrdersGrowth  float64        `json:"ordersGrowth"`
	Trend         []MonthlyTrend `json:"trend"`
}

// Growth variation en pourcentage de previous à current.
// previous nul: 100 si current est positif, 0 sinon.
func Growth(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - previous) / previous * 100
}

// ============================================================================
// PRÉVISIONS PAR CLIENT
// ============================================================================

// ForecastView prévision enrichie des informations du client
type ForecastView struct {
	CofID                  int64    `json:"cofId"`
	CustomerID             int64    `json:"customerId"`
	CompanyName            *string  `json:"companyName"`
	CustomerName           *string  `json:"customerName"`
	CompanySize            *string  `json:"companySize"`
	PredictedDate          string   `json:"predictedDate"`
	PredictedQuantity      *float64 `json:"predictedQuantity"`
	Mape                   *float64 `json:"mape"`
	PredictionModel        *string  `json:"predictionModel"`
	Probability            *float64 `json:"probability"`
	ForecastGenerationDate string   `json:"forecastGenerationDate"`
}

// DailyQuantity quantité réellement commandée un jour donné
type DailyQuantity struct {
	Date     string  `json:"date"`
	Quantity float64 `json:"quantity"`
}

// CustomerForecast regroupe les prévisions et les ventes réelles d'un client
type CustomerForecast struct {
	CustomerID   int64           `json:"customerId"`
	CompanyName  *string         `json:"companyName"`
	CustomerName *string         `json:"customerName"`
	CompanySize  *string         `json:"companySize"`
	Forecasts    []ForecastView  `json:"forecasts"`
	ActualSales  []DailyQuantity `json:"actualSales"`
}

// SortCustomerForecasts ordonne par rang de taille (rank), puis nom d'entreprise
func SortCustomerForecasts(rows []CustomerForecast, rank func(size string) int) {
	sizeOf := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := rank(sizeOf(rows[i].CompanySize)), rank(sizeOf(rows[j].CompanySize))
		if ri != rj {
			return ri < rj
		}
		return strings.Compare(sizeOf(rows[i].CompanyName), sizeOf(rows[j].CompanyName)) < 0
	})
}
