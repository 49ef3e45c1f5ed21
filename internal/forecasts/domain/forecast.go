package domain

import (
	"strconv"

	shareddomain "crmdash/internal/shared/domain"
)

// Table est la table des prévisions de commandes par client
const Table = "customer_order_forecast"

const (
	ColID                = "COF_ID"
	ColCustomerID        = "CUSTOMER_ID"
	ColPredictedDate     = "PREDICTED_DATE"
	ColPredictedQuantity = "PREDICTED_QUANTITY"
	ColMape              = "MAPE"
	ColPredictionModel   = "PREDICTION_MODEL"
	ColProbability       = "PROBABILITY"
	ColGeneratedAt       = "FORECAST_GENERATION_DATETIME"
)

var Columns = []string{
	ColID, ColCustomerID, ColPredictedDate, ColPredictedQuantity,
	ColMape, ColPredictionModel, ColProbability, ColGeneratedAt,
}

// Forecast est une quantité prévue pour un client à une date, produite par le job externe.
// Seule entité modifiable depuis le dashboard (PATCH/DELETE par COF_ID).
type Forecast struct {
	ID                int64             `db:"COF_ID" json:"COF_ID"`
	CustomerID        *int64            `db:"CUSTOMER_ID" json:"CUSTOMER_ID"`
	PredictedDate     shareddomain.Date `db:"PREDICTED_DATE" json:"PREDICTED_DATE"`
	PredictedQuantity *float64          `db:"PREDICTED_QUANTITY" json:"PREDICTED_QUANTITY"`
	Mape              *float64          `db:"MAPE" json:"MAPE"`
	PredictionModel   *string           `db:"PREDICTION_MODEL" json:"PREDICTION_MODEL"`
	Probability       *float64          `db:"PROBABILITY" json:"PROBABILITY"`
	GeneratedAt       shareddomain.Date `db:"FORECAST_GENERATION_DATETIME" json:"FORECAST_GENERATION_DATETIME"`
}

// CustomerKey retourne la clé étrangère vers le client, absente si NULL
func (f Forecast) CustomerKey() (int64, bool) {
	if f.CustomerID == nil {
		return 0, false
	}
	return *f.CustomerID, true
}

// ID valide d'une prévision (chemin /customer-forecasts/{cofId})
type ID int64

// ParseID valide l'identifiant du chemin: entier strictement positif
func ParseID(raw string) (ID, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, invalidID(raw)
	}
	return ID(id), nil
}
