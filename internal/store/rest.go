package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// RESTClient parle à l'API REST du BaaS (PostgREST): /rest/v1/<table>
type RESTClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewRESTClient crée un client REST. baseURL est l'URL du projet (https://xxx.supabase.co).
func NewRESTClient(baseURL, apiKey string) *RESTClient {
	return &RESTClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// WithHTTPClient remplace le client HTTP (tests)
func (c *RESTClient) WithHTTPClient(client *http.Client) *RESTClient {
	c.client = client
	return c
}

// restError est le corps d'erreur de PostgREST
type restError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (c *RESTClient) Select(ctx context.Context, q Query, dest any) error {
	if _, err := sliceTarget(dest); err != nil {
		return err
	}

	params := url.Values{}
	if len(q.Columns) > 0 {
		params.Set("select", strings.Join(q.Columns, ","))
	} else {
		params.Set("select", "*")
	}
	encodeFilters(params, q.Filters)
	if q.Order != nil {
		dir := "asc"
		if q.Order.Desc {
			dir = "desc"
		}
		params.Set("order", q.Order.Column+"."+dir)
	}

	req, err := c.newRequest(ctx, http.MethodGet, q.Table, params, nil)
	if err != nil {
		return &Error{Op: "select", Table: q.Table, Err: err}
	}
	if q.Rows != nil {
		req.Header.Set("Range-Unit", "items")
		req.Header.Set("Range", fmt.Sprintf("%d-%d", q.Rows.From, q.Rows.To))
	}

	body, status, err := c.do(req)
	if err != nil {
		return &Error{Op: "select", Table: q.Table, Transient: true, Err: err}
	}
	// 416: plage au-delà des données disponibles => sous-ensemble vide, pas une erreur
	if status == http.StatusRequestedRangeNotSatisfiable {
		return nil
	}
	if status >= 400 {
		return responseError("select", q.Table, status, body)
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return &Error{Op: "select", Table: q.Table, Message: "invalid response body", Err: err}
	}
	return nil
}

func (c *RESTClient) Update(ctx context.Context, table string, match []Filter, values map[string]any) (int64, error) {
	if len(match) == 0 {
		return 0, &Error{Op: "update", Table: table, Message: "refusing update without filter"}
	}
	payload, err := json.Marshal(values)
	if err != nil {
		return 0, &Error{Op: "update", Table: table, Err: err}
	}
	return c.mutate(ctx, "update", http.MethodPatch, table, match, payload)
}

func (c *RESTClient) Delete(ctx context.Context, table string, match []Filter) (int64, error) {
	if len(match) == 0 {
		return 0, &Error{Op: "delete", Table: table, Message: "refusing delete without filter"}
	}
	return c.mutate(ctx, "delete", http.MethodDelete, table, match, nil)
}

// mutate exécute PATCH/DELETE avec return=representation pour compter les lignes touchées
func (c *RESTClient) mutate(ctx context.Context, op, method, table string, match []Filter, payload []byte) (int64, error) {
	params := url.Values{}
	encodeFilters(params, match)

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := c.newRequest(ctx, method, table, params, reader)
	if err != nil {
		return 0, &Error{Op: op, Table: table, Err: err}
	}
	req.Header.Set("Prefer", "return=representation")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	body, status, err := c.do(req)
	if err != nil {
		return 0, &Error{Op: op, Table: table, Transient: true, Err: err}
	}
	if status >= 400 {
		return 0, responseError(op, table, status, body)
	}

	var rows []json.RawMessage
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &rows); err != nil {
			return 0, &Error{Op: op, Table: table, Message: "invalid response body", Err: err}
		}
	}
	return int64(len(rows)), nil
}

func (c *RESTClient) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "", nil, nil)
	if err != nil {
		return &Error{Op: "ping", Err: err}
	}
	body, status, err := c.do(req)
	if err != nil {
		return &Error{Op: "ping", Transient: true, Err: err}
	}
	if status >= 400 {
		return responseError("ping", "", status, body)
	}
	return nil
}

func (c *RESTClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func (c *RESTClient) newRequest(ctx context.Context, method, table string, params url.Values, body io.Reader) (*http.Request, error) {
	endpoint := c.baseURL + "/rest/v1/" + table
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *RESTClient) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func responseError(op, table string, status int, body []byte) error {
	se := &Error{
		Op:        op,
		Table:     table,
		Status:    status,
		Transient: status >= 500 || status == http.StatusTooManyRequests || status == http.StatusRequestTimeout,
	}
	var re restError
	if err := json.Unmarshal(body, &re); err == nil && re.Message != "" {
		se.Message = re.Message
		if re.Details != "" {
			se.Message += " (" + re.Details + ")"
		}
	} else {
		se.Message = http.StatusText(status)
	}
	return se
}

// ============================================================================
// ENCODAGE DES FILTRES (syntaxe PostgREST: col=op.valeur)
// ============================================================================

func encodeFilters(params url.Values, filters []Filter) {
	for _, f := range filters {
		if f.Any != nil {
			parts := make([]string, len(f.Any))
			for i, sub := range f.Any {
				parts[i] = sub.Column + "." + restPredicate(sub)
			}
			params.Add("or", "("+strings.Join(parts, ",")+")")
			continue
		}
		params.Add(f.Column, restPredicate(f))
	}
}

func restPredicate(f Filter) string {
	switch f.Op {
	case OpIsNull:
		return "is.null"
	case OpNotNull:
		return "not.is.null"
	case OpIn:
		values, _ := f.Value.([]any)
		items := make([]string, len(values))
		for i, v := range values {
			items[i] = quoteListItem(formatValue(v))
		}
		return "in.(" + strings.Join(items, ",") + ")"
	default:
		return string(f.Op) + "." + formatValue(f.Value)
	}
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case time.Time:
		return val.Format(time.RFC3339)
	case fmt.Stringer:
		return val.String()
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}

// quoteListItem protège les valeurs qui contiennent des séparateurs PostgREST
func quoteListItem(s string) string {
	if !strings.ContainsAny(s, ",.:()\" ") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
