// Package config charge la configuration du service depuis l'environnement.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Types de store
const (
	StorePostgres = "postgres"
	StoreREST     = "rest"
	StoreMock     = "mock"
)

// Modes d'authentification
const (
	AuthJWT  = "jwt"
	AuthMock = "mock"
)

// Config regroupe tous les réglages du service
type Config struct {
	Port     int    `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	StoreType              string        `env:"STORE_TYPE,default=postgres"`
	DatabaseURL            string        `env:"DATABASE_URL"`
	SupabaseURL            string        `env:"SUPABASE_URL"`
	SupabaseServiceRoleKey string        `env:"SUPABASE_SERVICE_ROLE_KEY"`
	MockDataPath           string        `env:"MOCK_DATA_PATH,default=./mock-data"`
	FetchRowCap            int           `env:"FETCH_ROW_CAP,default=10000"`
	StoreMaxRetries        int           `env:"STORE_MAX_RETRIES,default=2"`
	RequestTimeout         time.Duration `env:"REQUEST_TIMEOUT,default=15s"`
	ReportCacheTTL         time.Duration `env:"REPORT_CACHE_TTL,default=0s"`
	Workers                int           `env:"WORKERS,default=4"`

	AuthMode          string `env:"AUTH_MODE,default=jwt"`
	SupabaseJWTSecret string `env:"SUPABASE_JWT_SECRET"`

	GitHubToken       string `env:"GITHUB_TOKEN"`
	GitHubOwner       string `env:"GITHUB_OWNER"`
	GitHubRepo        string `env:"GITHUB_REPO"`
	GitHubWorkflow    string `env:"GITHUB_WORKFLOW,default=run_forecast.yml"`
	GitHubRef         string `env:"GITHUB_REF,default=main"`
	ForecastRunnerURL string `env:"FORECAST_RUNNER_URL"`

	KafkaBrokers string `env:"KAFKA_BROKERS"`
	KafkaTopic   string `env:"KAFKA_TOPIC,default=forecast-events"`
}

// Load lit .env s'il existe, décode l'environnement et valide le résultat
func Load(files ...string) (*Config, error) {
	// .env absent: les variables d'environnement suffisent
	_ = godotenv.Load(files...)

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate refuse une configuration incomplète pour le store ou l'authentification choisis.
// Le store mock n'est jamais choisi par défaut: il faut STORE_TYPE=mock.
func (c *Config) Validate() error {
	switch c.StoreType {
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("STORE_TYPE=postgres requires DATABASE_URL")
		}
	case StoreREST:
		if c.SupabaseURL == "" || c.SupabaseServiceRoleKey == "" {
			return errors.New("STORE_TYPE=rest requires SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY")
		}
	case StoreMock:
		if c.MockDataPath == "" {
			return errors.New("STORE_TYPE=mock requires MOCK_DATA_PATH")
		}
	default:
		return fmt.Errorf("unknown STORE_TYPE %q", c.StoreType)
	}

	switch c.AuthMode {
	case AuthJWT:
		if c.SupabaseJWTSecret == "" {
			return errors.New("AUTH_MODE=jwt requires SUPABASE_JWT_SECRET")
		}
	case AuthMock:
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.AuthMode)
	}

	if c.FetchRowCap <= 0 {
		return fmt.Errorf("FETCH_ROW_CAP must be positive, got %d", c.FetchRowCap)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("WORKERS must be positive, got %d", c.Workers)
	}
	if c.StoreMaxRetries < 0 {
		return fmt.Errorf("STORE_MAX_RETRIES must not be negative, got %d", c.StoreMaxRetries)
	}
	return nil
}

// Addr adresse d'écoute HTTP
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Brokers découpe KAFKA_BROKERS (séparés par des virgules); vide si non configuré
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// WorkflowConfigured indique si le déclenchement du workflow GitHub est possible
func (c *Config) WorkflowConfigured() bool {
	return c.GitHubToken != "" && c.GitHubOwner != "" && c.GitHubRepo != ""
}
