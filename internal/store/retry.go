package store

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"crmdash/internal/logger"
)

// RetryClient réessaie les erreurs TRANSITOIRES du store avec un backoff exponentiel borné.
// Les erreurs de requête (filtre invalide, contrainte...) remontent immédiatement.
type RetryClient struct {
	next       Client
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

// WithRetry décore un client. maxRetries = 0 désactive les nouvelles tentatives.
func WithRetry(next Client, maxRetries int) *RetryClient {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &RetryClient{
		next:       next,
		maxRetries: uint64(maxRetries),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
	}
}

func (r *RetryClient) run(ctx context.Context, op string, fn func() error) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		if !IsTransient(err) {
			return backoff.Permanent(err)
		}
		logger.FromContext(ctx).WithError(err).WithField("attempt", attempt).Warnf("transient store error on %s", op)
		return err
	}
	b := backoff.WithContext(backoff.WithMaxRetries(r.newBackOff(), r.maxRetries), ctx)
	return backoff.Retry(operation, b)
}

func (r *RetryClient) Select(ctx context.Context, q Query, dest any) error {
	return r.run(ctx, "select "+q.Table, func() error {
		// Le slice cible est remis à zéro entre deux tentatives
		if v, err := sliceTarget(dest); err == nil {
			v.SetLen(0)
		}
		return r.next.Select(ctx, q, dest)
	})
}

func (r *RetryClient) Update(ctx context.Context, table string, match []Filter, values map[string]any) (int64, error) {
	var n int64
	err := r.run(ctx, "update "+table, func() error {
		var err error
		n, err = r.next.Update(ctx, table, match, values)
		return err
	})
	return n, err
}

func (r *RetryClient) Delete(ctx context.Context, table string, match []Filter) (int64, error) {
	var n int64
	err := r.run(ctx, "delete "+table, func() error {
		var err error
		n, err = r.next.Delete(ctx, table, match)
		return err
	})
	return n, err
}

func (r *RetryClient) Ping(ctx context.Context) error {
	return r.run(ctx, "ping", func() error {
		return r.next.Ping(ctx)
	})
}

func (r *RetryClient) Close() error {
	return r.next.Close()
}
