package store

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRESTClient_SelectEncodesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/orders", r.URL.Path)
		assert.Equal(t, "service-key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer service-key", r.Header.Get("Authorization"))
		assert.Equal(t, "0-9998", r.Header.Get("Range"))

		q := r.URL.Query()
		assert.Equal(t, "ORDER_ID,CONTACT_ID,AMOUNT", q.Get("select"))
		assert.Equal(t, []string{"gte.2024-01-01", "lt.2024-02-01"}, q["ORDER_DATE"])
		assert.Equal(t, "in.(1,2)", q.Get("CONTACT_ID"))
		assert.Equal(t, "ORDER_DATE.desc", q.Get("order"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"ORDER_ID":10,"CONTACT_ID":1,"AMOUNT":100},{"ORDER_ID":11,"CONTACT_ID":null,"AMOUNT":null}]`)
	}))
	defer srv.Close()

	client := NewRESTClient(srv.URL+"/", "service-key")
	q := From("orders").
		Select("ORDER_ID", "CONTACT_ID", "AMOUNT").
		Gte("ORDER_DATE", "2024-01-01").
		Lt("ORDER_DATE", "2024-02-01").
		In("CONTACT_ID", Keys([]int64{1, 2})).
		OrderBy("ORDER_DATE", true).
		Range(0, 9998)

	rows, err := Fetch[testOrder](context.Background(), client, q, DefaultRowCap)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 100.0, *rows[0].Amount)
	assert.Nil(t, rows[1].ContactID)
}

func TestRESTClient_OrFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "(STATUS.is.null,STATUS.neq.Resolved)", r.URL.Query().Get("or"))
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	var rows []testOrder
	err := NewRESTClient(srv.URL, "k").Select(context.Background(),
		From("issues").Or(Null("STATUS"), NotEqual("STATUS", "Resolved")), &rows)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRESTClient_RangeNotSatisfiableIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
	}))
	defer srv.Close()

	rows, err := Fetch[testOrder](context.Background(), NewRESTClient(srv.URL, "k"), From("orders").Range(500, 600), 100)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRESTClient_Errors(t *testing.T) {
	status := http.StatusBadRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, `{"message":"column orders.FOO does not exist","code":"42703"}`)
	}))
	defer srv.Close()
	client := NewRESTClient(srv.URL, "k")

	var rows []testOrder
	err := client.Select(context.Background(), From("orders"), &rows)
	require.Error(t, err)
	assert.False(t, IsTransient(err))
	assert.Contains(t, err.Error(), "column orders.FOO does not exist")

	status = http.StatusServiceUnavailable
	err = client.Select(context.Background(), From("orders"), &rows)
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}

func TestRESTClient_MutationsCountRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		assert.Equal(t, "eq.5", r.URL.Query().Get("COF_ID"))
		switch r.Method {
		case http.MethodPatch:
			body, _ := io.ReadAll(r.Body)
			assert.JSONEq(t, `{"PREDICTED_QUANTITY":40}`, string(body))
			_, _ = io.WriteString(w, `[{"COF_ID":5,"PREDICTED_QUANTITY":40}]`)
		case http.MethodDelete:
			_, _ = io.WriteString(w, `[]`)
		}
	}))
	defer srv.Close()
	client := NewRESTClient(srv.URL, "k")
	ctx := context.Background()

	n, err := client.Update(ctx, "customer_order_forecast", []Filter{Equal("COF_ID", int64(5))}, map[string]any{"PREDICTED_QUANTITY": 40})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = client.Delete(ctx, "customer_order_forecast", []Filter{Equal("COF_ID", int64(5))})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestRESTClient_NetworkErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	var rows []testOrder
	err := NewRESTClient(url, "k").Select(context.Background(), From("orders"), &rows)
	require.Error(t, err)
	assert.True(t, IsTransient(err))
}
