// ABOUTME: Functional options and collaborator interfaces shared by the engine components
// ABOUTME: The datastore is consumed only through these narrow interfaces
package unify

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/harperreed/leadbook/models"
	"github.com/harperreed/leadbook/sources"
	"go.uber.org/zap"
)

// SourceReader runs the "select all active records with lookups" query for one origin.
type SourceReader interface {
	SelectActive(ctx context.Context, origin models.Origin) ([]sources.Record, error)
}

// OwnerDirectory resolves assignment owner ids to display names in one batch.
type OwnerDirectory interface {
	ResolveOwners(ctx context.Context, ids []string) (map[string]string, error)
}

// Mutator is the remote mutation boundary: per-row updates and the bulk procedure.
type Mutator interface {
	UpdateRow(ctx context.Context, table, id string, columns map[string]any) error
	BulkUpdateContacts(ctx context.Context, req models.BulkUpdateRequest) (models.BulkUpdateResponse, error)
}

// RetryPolicy bounds exponential backoff around remote calls.
type RetryPolicy struct {
	MaxAttempts     uint
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultRetryPolicy retries three times starting at 200ms.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

type options struct {
	logger    *zap.Logger
	metrics   *Metrics
	retry     RetryPolicy
	permanent []error
	journal   *Journal
	now       func() time.Time
}

// Option configures an Aggregator, Store or Manager.
type Option func(*options)

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithRetry(p RetryPolicy) Option {
	return func(o *options) { o.retry = p }
}

// WithPermanentErrors lists errors that are never retried, e.g. a missing row.
func WithPermanentErrors(errs ...error) Option {
	return func(o *options) { o.permanent = append(o.permanent, errs...) }
}

// WithJournal records every mutation outcome in j.
func WithJournal(j *Journal) Option {
	return func(o *options) { o.journal = j }
}

func withClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{
		logger: zap.NewNop(),
		retry:  DefaultRetryPolicy(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// retry runs op with exponential backoff. Context cancellation and listed
// permanent errors stop immediately.
func retry[T any](ctx context.Context, o options, what string, op func() (T, error)) (T, error) {
	p := o.retry
	if p.MaxAttempts == 0 {
		p.MaxAttempts = 1
	}
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}

	wrapped := func() (T, error) {
		res, err := op()
		if err == nil {
			return res, nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return res, backoff.Permanent(err)
		}
		for _, perm := range o.permanent {
			if errors.Is(err, perm) {
				return res, backoff.Permanent(err)
			}
		}
		return res, err
	}

	return backoff.Retry(ctx, wrapped,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(p.MaxAttempts),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			o.logger.Debug("retrying remote call",
				zap.String("call", what),
				zap.Duration("backoff", next),
				zap.Error(err))
			if o.metrics != nil {
				o.metrics.retries.WithLabelValues(what).Inc()
			}
		}),
	)
}
