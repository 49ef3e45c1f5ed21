package application

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	analyticsapp "crmdash/internal/analytics/application"
	analytics "crmdash/internal/analytics/domain"
	"crmdash/internal/export/domain"
	"crmdash/internal/logger"
)

// ReportSource fournit les données exportées (implémenté par analyticsapp.ReportService)
type ReportSource interface {
	EnrichedOrders(ctx context.Context) ([]analyticsapp.EnrichedOrder, error)
	DailySales(ctx context.Context, months int) ([]analytics.DailySales, error)
}

// ExportService génère les exports CSV et Parquet en mémoire
type ExportService struct {
	source    ReportSource
	batchSize int
	now       func() time.Time
}

func NewExportService(source ReportSource) *ExportService {
	return &ExportService{source: source, batchSize: 1000, now: time.Now}
}

// Export exécute le job: le fichier complet est retourné avec son nom
func (s *ExportService) Export(ctx context.Context, exportType domain.ExportType, months int) (string, []byte, error) {
	job, err := domain.NewExportJob(exportType, s.now())
	if err != nil {
		return "", nil, err
	}

	var data []byte
	switch job.ExportType() {
	case domain.ExportTypeOrders:
		data, err = s.ExportOrdersCSV(ctx)
	case domain.ExportTypeOrdersParquet:
		data, err = s.ExportOrdersParquet(ctx)
	case domain.ExportTypeDailySales:
		data, err = s.ExportDailySalesCSV(ctx, months)
	}
	if err != nil {
		return "", nil, err
	}
	logger.FromContext(ctx).WithFields(logrus.Fields{
		"type":      job.ExportType(),
		"file":      job.FileName(),
		"bytes":     len(data),
		"createdAt": job.CreatedAt().UTC().Format(time.RFC3339),
	}).Info("export generated")
	return job.FileName(), data, nil
}

// ExportOrdersCSV exporte les commandes récentes enrichies du contact et du client
func (s *ExportService) ExportOrdersCSV(ctx context.Context) ([]byte, error) {
	orders, err := s.source.EnrichedOrders(ctx)
	if err != nil {
		return nil, err
	}

	// ~200 octets par ligne
	buffer := bytes.NewBuffer(make([]byte, 0, 256*(len(orders)+1)))
	writer := csv.NewWriter(buffer)
	if err := writer.Write(domain.OrderCSVHeaders()); err != nil {
		return nil, err
	}

	for i, o := range orders {
		row := toExportRow(o)
		if err := writer.Write(row.ToCSVRow()); err != nil {
			return nil, err
		}
		if (i+1)%s.batchSize == 0 {
			writer.Flush()
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// ExportOrdersParquet exporte les mêmes lignes que ExportOrdersCSV en Parquet (snappy).
// Les lignes sont écrites par row groups de batchSize.
func (s *ExportService) ExportOrdersParquet(ctx context.Context) ([]byte, error) {
	orders, err := s.source.EnrichedOrders(ctx)
	if err != nil {
		return nil, err
	}

	var buffer bytes.Buffer
	pw, err := writer.NewParquetWriterFromWriter(&buffer, new(domain.OrderParquetRow), 4)
	if err != nil {
		return nil, fmt.Errorf("parquet writer error: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for i, o := range orders {
		if err := pw.Write(toExportRow(o).ToParquetRow()); err != nil {
			return nil, fmt.Errorf("parquet write error: %w", err)
		}
		if (i+1)%s.batchSize == 0 {
			if err := pw.Flush(true); err != nil {
				return nil, fmt.Errorf("parquet flush error: %w", err)
			}
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("parquet close error: %w", err)
	}
	return buffer.Bytes(), nil
}

// ExportDailySalesCSV exporte le rapport des ventes quotidiennes sur months mois
func (s *ExportService) ExportDailySalesCSV(ctx context.Context, months int) ([]byte, error) {
	days, err := s.source.DailySales(ctx, months)
	if err != nil {
		return nil, err
	}

	buffer := bytes.NewBuffer(make([]byte, 0, 64*1024))
	writer := csv.NewWriter(buffer)
	if err := writer.Write(domain.DailySalesCSVHeaders()); err != nil {
		return nil, err
	}
	for _, d := range days {
		if err := writer.Write(domain.DailySalesCSVRow(d.Date, d.Amount, d.Cost, d.Profit)); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func toExportRow(o analyticsapp.EnrichedOrder) *domain.OrderExportRow {
	row := &domain.OrderExportRow{
		OrderID:    o.Order.ID,
		OrderDate:  o.Order.OrderDate.String(),
		ContactID:  o.Order.ContactID,
		Region:     analyticsapp.RegionOf(o),
		ProductID:  o.Order.ProductID,
		Quantity:   o.Order.Quantity,
		Amount:     o.Order.Amount,
		CostTotal:  o.Order.CostTotal,
		MarginRate: o.Order.MarginRate,
		Revenue:    o.Order.Revenue,
	}
	if o.Contact != nil {
		row.ContactName = o.Contact.Name
	}
	if o.Customer != nil {
		id := o.Customer.ID
		row.CustomerID = &id
		row.CompanyName = o.Customer.CompanyName
		row.CompanyType = o.Customer.CompanyType
		row.CompanySize = o.Customer.CompanySize
	}
	return row
}
