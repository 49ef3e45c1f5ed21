package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analytics "crmdash/internal/analytics/domain"
	customersinfra "crmdash/internal/customers/infrastructure"
	forecastsinfra "crmdash/internal/forecasts/infrastructure"
	issuesinfra "crmdash/internal/issues/infrastructure"
	ordersinfra "crmdash/internal/orders/infrastructure"
	shareddomain "crmdash/internal/shared/domain"
	sharedinfra "crmdash/internal/shared/infrastructure"
	"crmdash/internal/store"
	"crmdash/internal/testhelpers"
)

func newReaders(c store.Client) Readers {
	return Readers{
		Orders:    ordersinfra.NewOrderQueryRepository(c, 0),
		Customers: customersinfra.NewCustomerQueryRepository(c, 0),
		Forecasts: forecastsinfra.NewForecastRepository(c, 0),
		Issues:    issuesinfra.NewIssueQueryRepository(c, 0),
	}
}

func newTestService(t *testing.T, opts ...Option) *ReportService {
	t.Helper()
	m := testhelpers.NewDemoStore(t)
	opts = append([]Option{WithClock(func() time.Time { return testhelpers.Now })}, opts...)
	return NewReportService(newReaders(m), m, 0, opts...)
}

func month(t *testing.T, s string) *shareddomain.Month {
	t.Helper()
	m, err := shareddomain.ParseMonth(s)
	require.NoError(t, err)
	return &m
}

func TestCompanyTypeRevenue_LatestMonthWithUnknownBucket(t *testing.T) {
	svc := newTestService(t)

	got, err := svc.CompanyTypeRevenue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []analytics.CompanyTypeRevenue{
		{CompanyType: "B2B", TotalAmount: 100, Month: "2024-05"},
		{CompanyType: "B2C", TotalAmount: 50, Month: "2024-05"},
		{CompanyType: "Unknown", TotalAmount: 35, Month: "2024-05"},
	}, got)
}

func TestCompanyTypeRevenue_EmptyStoreIsAFetchError(t *testing.T) {
	m := store.NewMemoryClient()
	svc := NewReportService(newReaders(m), m, 0)

	_, err := svc.CompanyTypeRevenue(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrNoRows))
}

func TestRegionRevenue_ConservesTotal(t *testing.T) {
	svc := newTestService(t)

	got, err := svc.RegionRevenue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []analytics.RegionRevenue{
		{Region: "한국", Amount: 300},
		{Region: "유럽", Amount: 50},
		{Region: "아메리카", Amount: 10},
		{Region: "기타", Amount: 25},
	}, got)

	total := 0.0
	for _, r := range got {
		total += r.Amount
	}
	assert.Equal(t, 385.0, total)
}

func TestCompanySizeRevenue_OrderedByRank(t *testing.T) {
	svc := newTestService(t)

	got, err := svc.CompanySizeRevenue(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "대기업", got[0].CompanySize)
	assert.Equal(t, 300.0, got[0].Amount)
	assert.Equal(t, 2, got[0].Orders)
	assert.InDelta(t, 0.325, got[0].AvgMargin, 1e-9)

	assert.Equal(t, "중소기업", got[1].CompanySize)
	assert.Equal(t, 1, got[1].Orders)

	assert.Equal(t, "Unknown", got[2].CompanySize)
	assert.Equal(t, 35.0, got[2].Amount)
	assert.Equal(t, 3, got[2].Orders)
	assert.InDelta(t, 0.5/3, got[2].AvgMargin, 1e-9)
}

func TestDailySales_Chronological(t *testing.T) {
	svc := newTestService(t)

	got, err := svc.DailySales(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, []analytics.DailySales{
		{Date: "2024-05-03", Amount: 100, Cost: 60, Profit: 40},
		{Date: "2024-05-20", Amount: 75, Cost: 30, Profit: 25},
		{Date: "2024-05-31", Amount: 10, Cost: 5, Profit: 5},
	}, got)

	_, err = svc.DailySales(context.Background(), 0)
	assert.True(t, errors.Is(err, shareddomain.ErrInvalidInput))
}

func TestForecastMonthly_DefaultWindowZeroFilled(t *testing.T) {
	svc := newTestService(t)

	got, err := svc.ForecastMonthly(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []analytics.MonthlyForecast{
		{Month: "2024-06", PredictedQuantity: 11},
		{Month: "2024-07", PredictedQuantity: 0},
		{Month: "2024-08", PredictedQuantity: 5},
		{Month: "2024-09", PredictedQuantity: 0},
		{Month: "2024-10", PredictedQuantity: 0},
		{Month: "2024-11", PredictedQuantity: 0},
	}, got)
}

func TestForecastMonthly_ExplicitWindow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	got, err := svc.ForecastMonthly(ctx, month(t, "2024-12"), month(t, "2025-01"))
	require.NoError(t, err)
	assert.Equal(t, []analytics.MonthlyForecast{
		{Month: "2024-12", PredictedQuantity: 0},
		{Month: "2025-01", PredictedQuantity: 7},
	}, got)

	_, err = svc.ForecastMonthly(ctx, month(t, "2025-01"), month(t, "2024-12"))
	assert.True(t, errors.Is(err, shareddomain.ErrInvalidInput))

	_, err = svc.ForecastMonthly(ctx, month(t, "2025-01"), nil)
	assert.True(t, errors.Is(err, shareddomain.ErrInvalidInput))
}

func TestRecentOpenIssues(t *testing.T) {
	svc := newTestService(t)

	got, err := svc.RecentOpenIssues(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-06-12", got[0].Date)
	assert.Equal(t, "N/A", got[0].Type)
	assert.Equal(t, "Low", got[0].Severity)
	assert.Equal(t, 3, got[0].DaysAgo)
	assert.Equal(t, "Delay", got[1].Type)
	assert.Equal(t, 5, got[1].DaysAgo)

	all, err := svc.RecentOpenIssues(context.Background(), DefaultRecentIssues)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestIssuesByCompany_JoinsThroughOrders(t *testing.T) {
	svc := newTestService(t)

	got, err := svc.IssuesByCompany(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []analytics.CompanyIssues{
		{CompanyName: "Unknown", Total: 2, Open: 2},
		{CompanyName: "Alpha", Total: 2, Open: 1},
		{CompanyName: "Beta", Total: 1, Open: 1},
	}, got)
}

func TestRegistrations_TrailingWindow(t *testing.T) {
	svc := newTestService(t)

	got, err := svc.Registrations(context.Background(), DefaultRegistrationMonths)
	require.NoError(t, err)
	require.Len(t, got, 12)
	assert.Equal(t, analytics.MonthlyCount{Month: "2023-07", Count: 0}, got[0])
	assert.Equal(t, analytics.MonthlyCount{Month: "2024-05", Count: 1}, got[10])
	assert.Equal(t, analytics.MonthlyCount{Month: "2024-06", Count: 1}, got[11])
}

func TestKPIs(t *testing.T) {
	svc := newTestService(t)

	kpis, err := svc.KPIs(context.Background(), month(t, "2024-05"))
	require.NoError(t, err)
	assert.Equal(t, "2024-05", kpis.Month)
	assert.Equal(t, "2024-04", kpis.PreviousMonth)
	assert.Equal(t, 185.0, kpis.TotalSales)
	assert.Equal(t, 70.0, kpis.TotalRevenue)
	assert.Equal(t, 4, kpis.TotalOrders)
	assert.InDelta(t, 0.325, kpis.AvgMarginRate, 1e-9)
	assert.InDelta(t, -7.5, kpis.SalesGrowth, 1e-9)
	assert.InDelta(t, 100, kpis.OrdersGrowth, 1e-9)
	require.Len(t, kpis.Trend, TrendMonths)
	assert.Equal(t, "2023-12", kpis.Trend[0].Month)
	assert.Equal(t, analytics.MonthlyTrend{Month: "2024-05", Sales: 185, Revenue: 70, Orders: 4}, kpis.Trend[5])

	current, err := svc.KPIs(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-06", current.Month)
	assert.Zero(t, current.TotalOrders)
	assert.Equal(t, -100.0, current.SalesGrowth)
}

func TestCustomerForecasts_GroupedAndOrdered(t *testing.T) {
	svc := newTestService(t)

	got, err := svc.CustomerForecasts(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)

	alpha := got[0]
	assert.Equal(t, int64(10), alpha.CustomerID)
	assert.Equal(t, "Alpha", *alpha.CompanyName)
	require.Len(t, alpha.Forecasts, 2)
	assert.Equal(t, int64(1), alpha.Forecasts[0].CofID)
	assert.Equal(t, "2024-06-05", alpha.Forecasts[0].PredictedDate)
	assert.Equal(t, "2024-05-31T10:00:00Z", alpha.Forecasts[0].ForecastGenerationDate)
	assert.Equal(t, []analytics.DailyQuantity{
		{Date: "2024-04-11", Quantity: 4},
		{Date: "2024-05-03", Quantity: 2},
	}, alpha.ActualSales)

	beta := got[1]
	assert.Equal(t, int64(20), beta.CustomerID)
	assert.Equal(t, []analytics.DailyQuantity{{Date: "2024-05-20", Quantity: 1}}, beta.ActualSales)

	orphan := got[2]
	assert.Equal(t, int64(0), orphan.CustomerID)
	assert.Nil(t, orphan.CompanyName)
	assert.Len(t, orphan.Forecasts, 1)
	assert.Empty(t, orphan.ActualSales)
	assert.NotNil(t, orphan.ActualSales)
}

func TestListings(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	orders, err := svc.Orders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 6)
	assert.Equal(t, int64(105), orders[0].ID)

	contacts, err := svc.Contacts(ctx)
	require.NoError(t, err)
	require.Len(t, contacts, 4)
	assert.Equal(t, 5, *contacts[0].DaysSinceContact)
	assert.Nil(t, contacts[2].DaysSinceContact)

	customers, err := svc.Customers(ctx)
	require.NoError(t, err)
	assert.Len(t, customers, 3)

	issues, err := svc.Issues(ctx)
	require.NoError(t, err)
	assert.Len(t, issues, 5)
}

func TestHealthAndCheck(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	h := svc.Health(ctx)
	assert.Equal(t, "ok", h.Status)

	check := svc.Check(ctx)
	require.Len(t, check.Tables, 5)
	for _, table := range check.Tables {
		assert.True(t, table.OK, table.Table)
	}
	assert.Equal(t, 6, check.Tables[0].Count)
	assert.Equal(t, JoinCoverage{Orders: 6, WithContact: 4, WithCustomer: 4}, check.Join)
}

// hangingClient ne répond au ping qu'à l'expiration du context
type hangingClient struct {
	*store.MemoryClient
}

func (hangingClient) Ping(ctx context.Context) error {
	<-ctx.Done()
	return &store.Error{Op: "ping", Transient: true, Err: ctx.Err()}
}

func TestHealth_BoundedByOwnDeadline(t *testing.T) {
	client := store.WithRetry(hangingClient{MemoryClient: testhelpers.NewDemoStore(t)}, 5)
	svc := NewReportService(newReaders(client), client, 0, WithHealthTimeout(50*time.Millisecond))

	start := time.Now()
	h := svc.Health(context.Background())
	assert.Equal(t, "degraded", h.Status)
	assert.Equal(t, "down", h.Store)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestCheck_SingleWorkerCoversEveryTable(t *testing.T) {
	check := newTestService(t, WithWorkers(1)).Check(context.Background())
	require.Len(t, check.Tables, 5)
	for _, table := range check.Tables {
		assert.True(t, table.OK, table.Table)
	}
	assert.Equal(t, 6, check.Join.Orders)
}

// failingClient fait échouer toutes les lectures d'une table
type failingClient struct {
	*store.MemoryClient
	table string
}

func (f *failingClient) Select(ctx context.Context, q store.Query, dest any) error {
	if q.Table == f.table {
		return &store.Error{Op: "select", Table: q.Table, Status: 500, Message: "boom"}
	}
	return f.MemoryClient.Select(ctx, q, dest)
}

func TestRegionRevenue_NamesFailingFetch(t *testing.T) {
	c := &failingClient{MemoryClient: testhelpers.NewDemoStore(t), table: "contacts"}
	svc := NewReportService(newReaders(c), c, 0)

	_, err := svc.RegionRevenue(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contacts fetch")

	var taskErr *sharedinfra.TaskError
	require.True(t, errors.As(err, &taskErr))
	assert.Equal(t, "contacts", taskErr.Name)
}

func TestCheck_ReportsFailuresWithoutFailing(t *testing.T) {
	c := &failingClient{MemoryClient: testhelpers.NewDemoStore(t), table: "issues"}
	svc := NewReportService(newReaders(c), c, 0)

	check := svc.Check(context.Background())
	assert.False(t, check.Tables[4].OK)
	assert.Contains(t, check.Tables[4].Error, "boom")
	assert.Empty(t, check.Join.Error)
}

// countingClient compte les lectures
type countingClient struct {
	*store.MemoryClient
	selects int
}

func (c *countingClient) Select(ctx context.Context, q store.Query, dest any) error {
	c.selects++
	return c.MemoryClient.Select(ctx, q, dest)
}

func TestReportCache(t *testing.T) {
	c := &countingClient{MemoryClient: testhelpers.NewDemoStore(t)}
	cache := sharedinfra.NewInMemoryCache[any](time.Minute)
	defer cache.Close()
	svc := NewReportService(newReaders(c), c, 0, WithCache(cache, time.Minute))
	ctx := context.Background()

	first, err := svc.CompanyTypeRevenue(ctx)
	require.NoError(t, err)
	reads := c.selects

	second, err := svc.CompanyTypeRevenue(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, reads, c.selects)
}
