package application

import (
	"context"
	"time"

	"crmdash/internal/analytics/infrastructure"
	sharedinfra "crmdash/internal/shared/infrastructure"
	"crmdash/internal/store"
)

// Readers regroupe les repositories de lecture injectés au démarrage
type Readers struct {
	Orders    OrderReader
	Customers CustomerReader
	Forecasts ForecastReader
	Issues    IssueReader
}

// ReportService calcule les rapports du dashboard.
//
// Chaque rapport est une instance du même pipeline:
//  1. lectures bornées (en parallèle quand elles sont indépendantes)
//  2. jointures en mémoire par index (absence = bucket Unknown, jamais de ligne perdue)
//  3. agrégation exacte par clé
//  4. mise en forme ordonnée
//
// Aucun état partagé entre requêtes, hormis le cache optionnel des rapports
// calculés uniquement à partir de données en lecture seule (commandes, clients).
type ReportService struct {
	readers Readers
	check   *infrastructure.StoreCheck
	cache   sharedinfra.Cache[any]
	ttl     time.Duration
	workers int
	health  time.Duration
	now     func() time.Time
}

// HealthTimeout borne le ping du health check, nouvelles tentatives comprises
const HealthTimeout = 3 * time.Second

// Option configure le ReportService
type Option func(*ReportService)

// WithCache active le cache des rapports pour ttl (ttl <= 0: désactivé)
func WithCache(cache sharedinfra.Cache[any], ttl time.Duration) Option {
	return func(s *ReportService) {
		s.cache = cache
		s.ttl = ttl
	}
}

// WithClock remplace l'horloge (tests)
func WithClock(now func() time.Time) Option {
	return func(s *ReportService) {
		s.now = now
	}
}

// WithWorkers borne le nombre de lectures parallèles d'un rapport
func WithWorkers(n int) Option {
	return func(s *ReportService) {
		s.workers = n
	}
}

// WithHealthTimeout remplace HealthTimeout
func WithHealthTimeout(d time.Duration) Option {
	return func(s *ReportService) {
		s.health = d
	}
}

// NewReportService crée le service. client sert aux diagnostics (ping et sondes).
func NewReportService(readers Readers, client store.Client, rowCap int, opts ...Option) *ReportService {
	s := &ReportService{
		readers: readers,
		check:   infrastructure.NewStoreCheck(client, rowCap),
		workers: 4,
		health:  HealthTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *ReportService) pool(ctx context.Context) *sharedinfra.WorkerPool {
	return sharedinfra.NewWorkerPool(ctx, s.workers)
}

// cached retourne le rapport en cache, ou le calcule et le mémorise.
// Les erreurs ne sont jamais mises en cache.
func cached[T any](s *ReportService, key string, compute func() (T, error)) (T, error) {
	if s.cache == nil || s.ttl <= 0 {
		return compute()
	}
	if v, ok := s.cache.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := compute()
	if err != nil {
		return v, err
	}
	s.cache.Set(key, v, s.ttl)
	return v, nil
}
