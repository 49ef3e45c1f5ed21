package domain

import (
	shareddomain "crmdash/internal/shared/domain"
)

// Table est la collection des commandes dans le store
const Table = "orders"

// Colonnes du store
const (
	ColID             = "ORDER_ID"
	ColContactID      = "CONTACT_ID"
	ColProductID      = "PRODUCT_ID"
	ColOrderDate      = "ORDER_DATE"
	ColQuantity       = "QUANTITY"
	ColAmount         = "AMOUNT"
	ColCost           = "COST"
	ColCostTotal      = "COSTT"
	ColMarginRate     = "MARGIN_RATE"
	ColRevenue        = "REVENUE"
	ColPaymentStatus  = "PAYMENT_STATUS"
	ColDeliveryStatus = "DELIVERY_STATUS"
)

// Columns est la projection complète d'une commande
var Columns = []string{
	ColID, ColContactID, ColProductID, ColOrderDate, ColQuantity, ColAmount,
	ColCost, ColCostTotal, ColMarginRate, ColRevenue, ColPaymentStatus, ColDeliveryStatus,
}

// Order est une commande telle que lue dans le store (read model).
// Créée par le processus de vente amont, jamais modifiée ici.
//
// Les champs numériques NULL sont des pointeurs: la valeur absente
// est distinguée de 0 et vaut 0 à l'agrégation (voir shareddomain.AmountOf).
type Order struct {
	ID             int64             `db:"ORDER_ID" json:"ORDER_ID"`
	ContactID      *int64            `db:"CONTACT_ID" json:"CONTACT_ID"`
	ProductID      *string           `db:"PRODUCT_ID" json:"PRODUCT_ID"`
	OrderDate      shareddomain.Date `db:"ORDER_DATE" json:"ORDER_DATE"`
	Quantity       *float64          `db:"QUANTITY" json:"QUANTITY"`
	Amount         *float64          `db:"AMOUNT" json:"AMOUNT"`
	Cost           *float64          `db:"COST" json:"COST"`
	CostTotal      *float64          `db:"COSTT" json:"COSTT"`
	MarginRate     *float64          `db:"MARGIN_RATE" json:"MARGIN_RATE"`
	Revenue        *float64          `db:"REVENUE" json:"REVENUE"`
	PaymentStatus  *string           `db:"PAYMENT_STATUS" json:"PAYMENT_STATUS"`
	DeliveryStatus *string           `db:"DELIVERY_STATUS" json:"DELIVERY_STATUS"`
}

// ContactKey retourne la clé étrangère vers le contact, absente si NULL
func (o Order) ContactKey() (int64, bool) {
	if o.ContactID == nil {
		return 0, false
	}
	return *o.ContactID, true
}

// ContactIDs extrait les clés contact non NULL (avec doublons, dédoublonnées par le repository)
func ContactIDs(orders []Order) []int64 {
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		if id, ok := o.ContactKey(); ok {
			ids = append(ids, id)
		}
	}
	return ids
}
