package domain

import (
	"fmt"
	"strconv"
	"time"

	shareddomain "crmdash/internal/shared/domain"
)

// ExportType représente le contenu exporté
type ExportType string

const (
	ExportTypeOrders        ExportType = "orders"
	ExportTypeOrdersParquet ExportType = "orders-parquet"
	ExportTypeDailySales    ExportType = "daily-sales"
)

// Extension extension du fichier produit
func (t ExportType) Extension() string {
	if t == ExportTypeOrdersParquet {
		return "parquet"
	}
	return "csv"
}

// ContentType type MIME de la réponse
func (t ExportType) ContentType() string {
	if t == ExportTypeOrdersParquet {
		return "application/vnd.apache.parquet"
	}
	return "text/csv; charset=utf-8"
}

// ExportJob décrit un export demandé
type ExportJob struct {
	exportType ExportType
	createdAt  time.Time
}

// NewExportJob crée un job d'export avec validation du type
func NewExportJob(exportType ExportType, createdAt time.Time) (*ExportJob, error) {
	switch exportType {
	case ExportTypeOrders, ExportTypeOrdersParquet, ExportTypeDailySales:
	default:
		return nil, fmt.Errorf("%w: unknown export type %q", shareddomain.ErrInvalidInput, exportType)
	}
	return &ExportJob{exportType: exportType, createdAt: createdAt}, nil
}

func (ej *ExportJob) ExportType() ExportType {
	return ej.exportType
}

func (ej *ExportJob) CreatedAt() time.Time {
	return ej.createdAt
}

// FileName nom du fichier proposé au téléchargement, horodaté à la création du job
// (orders_20240615.csv, orders_20240615.parquet)
func (ej *ExportJob) FileName() string {
	base := ej.exportType
	if base == ExportTypeOrdersParquet {
		base = ExportTypeOrders
	}
	return fmt.Sprintf("%s_%s.%s", base, ej.createdAt.UTC().Format("20060102"), ej.exportType.Extension())
}

// OrderExportRow ligne d'export d'une commande enrichie.
// Les champs absents (NULL ou jointure manquante) sont exportés vides.
type OrderExportRow struct {
	OrderID     int64
	OrderDate   string
	ContactID   *int64
	ContactName *string
	CustomerID  *int64
	CompanyName *string
	CompanyType *string
	CompanySize *string
	Region      string
	ProductID   *string
	Quantity    *float64
	Amount      *float64
	CostTotal   *float64
	MarginRate  *float64
	Revenue     *float64
}

// ToCSVRow convertit la ligne pour encoding/csv (strconv plutôt que fmt.Sprintf)
func (r *OrderExportRow) ToCSVRow() []string {
	return []string{
		strconv.FormatInt(r.OrderID, 10),
		r.OrderDate,
		formatInt(r.ContactID),
		formatText(r.ContactName),
		formatInt(r.CustomerID),
		formatText(r.CompanyName),
		formatText(r.CompanyType),
		formatText(r.CompanySize),
		r.Region,
		formatText(r.ProductID),
		formatFloat(r.Quantity, -1),
		formatFloat(r.Amount, 2),
		formatFloat(r.CostTotal, 2),
		formatFloat(r.MarginRate, -1),
		formatFloat(r.Revenue, 2),
	}
}

// OrderParquetRow schéma Parquet d'une commande exportée (colonnes optionnelles pour les NULL)
type OrderParquetRow struct {
	OrderID     int64    `parquet:"name=order_id, type=INT64"`
	OrderDate   string   `parquet:"name=order_date, type=BYTE_ARRAY, convertedtype=UTF8"`
	ContactID   *int64   `parquet:"name=contact_id, type=INT64, repetitiontype=OPTIONAL"`
	ContactName *string  `parquet:"name=contact_name, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	CustomerID  *int64   `parquet:"name=customer_id, type=INT64, repetitiontype=OPTIONAL"`
	CompanyName *string  `parquet:"name=company_name, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	CompanyType *string  `parquet:"name=company_type, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	CompanySize *string  `parquet:"name=company_size, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Region      string   `parquet:"name=region, type=BYTE_ARRAY, convertedtype=UTF8"`
	ProductID   *string  `parquet:"name=product_id, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	Quantity    *float64 `parquet:"name=quantity, type=DOUBLE, repetitiontype=OPTIONAL"`
	Amount      *float64 `parquet:"name=amount, type=DOUBLE, repetitiontype=OPTIONAL"`
	CostTotal   *float64 `parquet:"name=cost_total, type=DOUBLE, repetitiontype=OPTIONAL"`
	MarginRate  *float64 `parquet:"name=margin_rate, type=DOUBLE, repetitiontype=OPTIONAL"`
	Revenue     *float64 `parquet:"name=revenue, type=DOUBLE, repetitiontype=OPTIONAL"`
}

// ToParquetRow convertit la ligne vers le schéma Parquet
func (r *OrderExportRow) ToParquetRow() OrderParquetRow {
	return OrderParquetRow{
		OrderID:     r.OrderID,
		OrderDate:   r.OrderDate,
		ContactID:   r.ContactID,
		ContactName: r.ContactName,
		CustomerID:  r.CustomerID,
		CompanyName: r.CompanyName,
		CompanyType: r.CompanyType,
		CompanySize: r.CompanySize,
		Region:      r.Region,
		ProductID:   r.ProductID,
		Quantity:    r.Quantity,
		Amount:      r.Amount,
		CostTotal:   r.CostTotal,
		MarginRate:  r.MarginRate,
		Revenue:     r.Revenue,
	}
}

// OrderCSVHeaders retourne les en-têtes de l'export des commandes
func OrderCSVHeaders() []string {
	return []string{
		"order_id",
		"order_date",
		"contact_id",
		"contact_name",
		"customer_id",
		"company_name",
		"company_type",
		"company_size",
		"region",
		"product_id",
		"quantity",
		"amount",
		"cost_total",
		"margin_rate",
		"revenue",
	}
}

// DailySalesCSVHeaders retourne les en-têtes de l'export des ventes quotidiennes
func DailySalesCSVHeaders() []string {
	return []string{"date", "amount", "cost", "profit"}
}

// DailySalesCSVRow formate une journée de ventes
func DailySalesCSVRow(date string, amount, cost, profit float64) []string {
	return []string{
		date,
		strconv.FormatFloat(amount, 'f', 2, 64),
		strconv.FormatFloat(cost, 'f', 2, 64),
		strconv.FormatFloat(profit, 'f', 2, 64),
	}
}

func formatInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func formatText(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatFloat(v *float64, prec int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}
