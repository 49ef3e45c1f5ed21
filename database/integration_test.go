//go:build integration

package database_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	analyticsapp "crmdash/internal/analytics/application"
	"crmdash/database"
	customersinfra "crmdash/internal/customers/infrastructure"
	forecastsapp "crmdash/internal/forecasts/application"
	forecastsdomain "crmdash/internal/forecasts/domain"
	forecastsinfra "crmdash/internal/forecasts/infrastructure"
	issuesinfra "crmdash/internal/issues/infrastructure"
	ordersdomain "crmdash/internal/orders/domain"
	ordersinfra "crmdash/internal/orders/infrastructure"
	"crmdash/internal/store"
)

// PostgresSuite démarre un postgres:15 jetable, applique le schéma et charge le jeu de démonstration
type PostgresSuite struct {
	suite.Suite

	container testcontainers.Container
	db        *sqlx.DB
	client    store.Client
	counts    map[string]int
}

func TestPostgresSuite(t *testing.T) {
	suite.Run(t, new(PostgresSuite))
}

func (s *PostgresSuite) SetupSuite() {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "crmdash",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	s.Require().NoError(err)
	s.container = c

	host, err := c.Host(ctx)
	s.Require().NoError(err)
	port, err := c.MappedPort(ctx, "5432")
	s.Require().NoError(err)
	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/crmdash?sslmode=disable", host, port.Port())

	s.db, err = database.Open(ctx, dsn)
	s.Require().NoError(err)
	s.Require().NoError(database.Migrate(ctx, s.db))

	s.counts, err = database.Seed(ctx, s.db, database.SeedOptions{
		Months:    6,
		Customers: 40,
		Seed:      7,
		Now:       time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)
	s.client = store.WithRetry(store.NewSQLClient(s.db), 1)
}

func (s *PostgresSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *PostgresSuite) TestMigrateIsIdempotent() {
	s.NoError(database.Migrate(context.Background(), s.db))
}

func (s *PostgresSuite) TestSeededRowsAreReadable() {
	orders, err := store.Fetch[ordersdomain.Order](context.Background(), s.client, store.From(ordersdomain.Table), 100000)
	s.Require().NoError(err)
	s.Len(orders, s.counts[ordersdomain.Table])

	latest, err := store.FetchFirst[ordersdomain.Order](context.Background(), s.client,
		store.From(ordersdomain.Table).IsNotNull("ORDER_DATE").OrderBy("ORDER_DATE", true))
	s.Require().NoError(err)
	s.True(latest.OrderDate.Valid())
}

func (s *PostgresSuite) TestReportsOverPostgres() {
	ctx := context.Background()
	forecasts := forecastsinfra.NewForecastRepository(s.client, 10000)
	reports := analyticsapp.NewReportService(analyticsapp.Readers{
		Orders:    ordersinfra.NewOrderQueryRepository(s.client, 10000),
		Customers: customersinfra.NewCustomerQueryRepository(s.client, 10000),
		Forecasts: forecasts,
		Issues:    issuesinfra.NewIssueQueryRepository(s.client, 10000),
	}, s.client, 10000, analyticsapp.WithWorkers(4))

	s.Equal("ok", reports.Health(ctx).Status)

	check := reports.Check(ctx)
	for _, table := range check.Tables {
		s.True(table.OK, "%s: %s", table.Table, table.Error)
	}
	s.Empty(check.Join.Error)
	s.Equal(s.counts[ordersdomain.Table], check.Join.Orders)

	byType, err := reports.CompanyTypeRevenue(ctx)
	s.Require().NoError(err)
	s.NotEmpty(byType)

	regions, err := reports.RegionRevenue(ctx)
	s.Require().NoError(err)
	s.NotEmpty(regions)

	_, err = reports.KPIs(ctx, nil)
	s.NoError(err)
}

func (s *PostgresSuite) TestForecastUpdateAndDelete() {
	ctx := context.Background()
	repo := forecastsinfra.NewForecastRepository(s.client, 10000)
	service := forecastsapp.NewForecastService(repo, forecastsinfra.NoopPublisher{})

	all, err := repo.FindAll(ctx)
	s.Require().NoError(err)
	s.Require().NotEmpty(all)
	target := all[0]
	id := fmt.Sprint(target.ID)

	s.Require().NoError(service.Update(ctx, id, []byte(`{"predictedQuantity": 42.5}`)))
	updated, err := store.FetchFirst[forecastsdomain.Forecast](ctx, s.client,
		store.From(forecastsdomain.Table).Eq("COF_ID", target.ID))
	s.Require().NoError(err)
	s.Require().NotNil(updated.PredictedQuantity)
	s.Equal(42.5, *updated.PredictedQuantity)

	s.Require().NoError(service.Delete(ctx, id))
	s.NoError(service.Delete(ctx, id))

	_, err = store.FetchFirst[forecastsdomain.Forecast](ctx, s.client,
		store.From(forecastsdomain.Table).Eq("COF_ID", target.ID))
	s.ErrorIs(err, store.ErrNoRows)
}
