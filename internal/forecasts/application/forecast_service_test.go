package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crmdash/internal/forecasts/domain"
	"crmdash/internal/forecasts/infrastructure"
	shareddomain "crmdash/internal/shared/domain"
	"crmdash/internal/store"
)

type recordingPublisher struct {
	events []domain.ChangeEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.ChangeEvent) error {
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

// countingClient compte les écritures atteignant le store
type countingClient struct {
	*store.MemoryClient
	updates int
}

func (c *countingClient) Update(ctx context.Context, table string, match []store.Filter, values map[string]any) (int64, error) {
	c.updates++
	return c.MemoryClient.Update(ctx, table, match, values)
}

func newTestService(t *testing.T) (*ForecastService, *countingClient, *recordingPublisher) {
	t.Helper()
	m := store.NewMemoryClient()
	require.NoError(t, m.Insert(domain.Table,
		map[string]any{"COF_ID": 5, "CUSTOMER_ID": 1, "PREDICTED_DATE": "2024-03-01", "PREDICTED_QUANTITY": 10, "MAPE": 0.2},
	))
	client := &countingClient{MemoryClient: m}
	pub := &recordingPublisher{}
	svc := NewForecastService(infrastructure.NewForecastRepository(client, 0), pub)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	return svc, client, pub
}

func currentForecast(t *testing.T, c store.Client) domain.Forecast {
	t.Helper()
	f, err := store.FetchFirst[domain.Forecast](context.Background(), c, store.From(domain.Table).Eq(domain.ColID, 5))
	require.NoError(t, err)
	return f
}

func TestForecastService_UpdateAppliesProvidedFields(t *testing.T) {
	svc, client, pub := newTestService(t)

	err := svc.Update(context.Background(), "5", []byte(`{"predictedQuantity": 40, "predictionModel": ""}`))
	require.NoError(t, err)

	f := currentForecast(t, client)
	assert.Equal(t, 40.0, *f.PredictedQuantity)
	assert.Equal(t, 0.2, *f.Mape)
	assert.Nil(t, f.PredictionModel)

	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.ChangeEvent{
		Type: domain.EventUpdated, CofID: 5, Fields: []string{domain.ColPredictedQuantity},
		At: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	}, pub.events[0])
}

func TestForecastService_NullClearsNumericColumn(t *testing.T) {
	svc, client, pub := newTestService(t)

	require.NoError(t, svc.Update(context.Background(), "5", []byte(`{"mape": null}`)))

	f := currentForecast(t, client)
	assert.Nil(t, f.Mape)
	assert.Equal(t, 10.0, *f.PredictedQuantity)
	assert.Equal(t, 1, client.updates)
	require.Len(t, pub.events, 1)
	assert.Equal(t, []string{domain.ColMape}, pub.events[0].Fields)
}

func TestForecastService_UpdateRejectsBeforeStore(t *testing.T) {
	tests := []struct {
		name string
		id   string
		body string
	}{
		{"non numeric id", "abc", `{"mape": 0.1}`},
		{"zero id", "0", `{"mape": 0.1}`},
		{"empty body", "5", `{}`},
		{"only empty strings", "5", `{"predictedDate": "", "predictionModel": ""}`},
		{"wrong type", "5", `{"predictedQuantity": "forty"}`},
		{"bad date", "5", `{"predictedDate": "next week"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, client, pub := newTestService(t)

			err := svc.Update(context.Background(), tt.id, []byte(tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, shareddomain.ErrInvalidInput))
			assert.Zero(t, client.updates)
			assert.Empty(t, pub.events)
		})
	}
}

func TestForecastService_EmptyPatchMessage(t *testing.T) {
	svc, _, _ := newTestService(t)

	err := svc.Update(context.Background(), "5", []byte(`{}`))
	assert.True(t, errors.Is(err, domain.ErrEmptyPatch))
}

func TestForecastService_UpdateUnknownID(t *testing.T) {
	svc, _, pub := newTestService(t)

	err := svc.Update(context.Background(), "77", []byte(`{"mape": 0.1}`))
	assert.True(t, errors.Is(err, shareddomain.ErrNotFound))
	assert.Empty(t, pub.events)
}

func TestForecastService_LastWriteWins(t *testing.T) {
	svc, client, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Update(ctx, "5", []byte(`{"predictedQuantity": 40}`)))
	require.NoError(t, svc.Update(ctx, "5", []byte(`{"predictedQuantity": 55}`)))

	assert.Equal(t, 55.0, *currentForecast(t, client).PredictedQuantity)
}

func TestForecastService_DeleteIsIdempotent(t *testing.T) {
	svc, client, pub := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Delete(ctx, "5"))
	require.NoError(t, svc.Delete(ctx, "5"))

	_, err := store.FetchFirst[domain.Forecast](ctx, client, store.From(domain.Table).Eq(domain.ColID, 5))
	assert.True(t, errors.Is(err, store.ErrNoRows))
	require.Len(t, pub.events, 1)
	assert.Equal(t, domain.EventDeleted, pub.events[0].Type)
}

func TestForecastService_PublishFailureDoesNotFailRequest(t *testing.T) {
	svc, _, pub := newTestService(t)
	pub.err = errors.New("broker down")

	assert.NoError(t, svc.Update(context.Background(), "5", []byte(`{"mape": 0.1}`)))
	assert.Len(t, pub.events, 1)
}
