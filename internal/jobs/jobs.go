// Package jobs déclenche le calcul des prévisions: workflow GitHub Actions ou runner HTTP externe.
package jobs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"crmdash/internal/logger"
)

const defaultGitHubAPI = "https://api.github.com"

var (
	// ErrNotConfigured: jeton, propriétaire ou dépôt GitHub absent
	ErrNotConfigured = errors.New("forecast workflow is not configured")
	// ErrRunnerUnavailable: le runner de prévision est injoignable
	ErrRunnerUnavailable = errors.New("forecast runner is unavailable")
)

// UpstreamError réponse non-2xx du service appelé
type UpstreamError struct {
	Service string
	Status  int
	Body    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s responded %d: %s", e.Service, e.Status, e.Body)
}

// Job poignée retournée par le déclenchement du workflow
type Job struct {
	ID          string `json:"id"`
	Workflow    string `json:"workflow"`
	Ref         string `json:"ref"`
	Status      string `json:"status"`
	SubmittedAt string `json:"submittedAt"`
}

// WorkflowConfig paramètres du workflow GitHub Actions
type WorkflowConfig struct {
	Token    string
	Owner    string
	Repo     string
	Workflow string
	Ref      string
	// BaseURL de l'API GitHub (tests); api.github.com si vide
	BaseURL string
}

// Dispatcher déclenche le workflow de prévision
type Dispatcher struct {
	cfg    WorkflowConfig
	client *http.Client
	now    func() time.Time
}

func NewDispatcher(cfg WorkflowConfig, client *http.Client) *Dispatcher {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGitHubAPI
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Dispatcher{cfg: cfg, client: client, now: time.Now}
}

// Dispatch appelle POST /repos/{owner}/{repo}/actions/workflows/{workflow}/dispatches.
// GitHub ne retourne pas d'identifiant de run: la poignée est générée localement.
func (d *Dispatcher) Dispatch(ctx context.Context) (*Job, error) {
	if d.cfg.Token == "" || d.cfg.Owner == "" || d.cfg.Repo == "" {
		return nil, ErrNotConfigured
	}

	url := fmt.Sprintf("%s/repos/%s/%s/actions/workflows/%s/dispatches", d.cfg.BaseURL, d.cfg.Owner, d.cfg.Repo, d.cfg.Workflow)
	body, err := json.Marshal(map[string]string{"ref": d.cfg.Ref})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("Authorization", "Bearer "+d.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dispatch workflow: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &UpstreamError{Service: "github", Status: resp.StatusCode, Body: strings.TrimSpace(string(text))}
	}

	job := &Job{
		ID:          uuid.NewString(),
		Workflow:    d.cfg.Workflow,
		Ref:         d.cfg.Ref,
		Status:      "dispatched",
		SubmittedAt: d.now().UTC().Format(time.RFC3339),
	}
	logger.FromContext(ctx).WithField("job", job.ID).Infof("forecast workflow %s dispatched on %s", job.Workflow, job.Ref)
	return job, nil
}

// Runner appelle le service de prévision externe et relaie son résultat JSON
type Runner struct {
	url    string
	client *http.Client
}

func NewRunner(url string, client *http.Client) *Runner {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Runner{url: url, client: client}
}

// Run exécute GET sur le runner. Connexion impossible: ErrRunnerUnavailable.
func (r *Runner) Run(ctx context.Context) (json.RawMessage, error) {
	if r.url == "" {
		return nil, fmt.Errorf("%w: FORECAST_RUNNER_URL is not set", ErrRunnerUnavailable)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrRunnerUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read runner response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Service: "forecast runner", Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if !json.Valid(body) {
		return nil, &UpstreamError{Service: "forecast runner", Status: resp.StatusCode, Body: "response is not JSON"}
	}
	return json.RawMessage(body), nil
}
