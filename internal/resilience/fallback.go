package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/teja-palleti/Yesu-Mitra/internal/observe"
)

// ErrAllFailed is returned when every entry in a [FallbackGroup] fails or has
// an open circuit breaker.
var ErrAllFailed = errors.New("all providers failed")

// FallbackConfig configures a [FallbackGroup].
type FallbackConfig struct {
	// Kind labels the provider family in metrics ("llm", "tts").
	Kind string

	// CircuitBreaker is the template for every entry's breaker. Name is
	// overwritten with the entry name.
	CircuitBreaker CircuitBreakerConfig

	// Metrics receives per-entry request and error counts. Defaults to
	// [observe.DefaultMetrics].
	Metrics *observe.Metrics
}

// EntryStatus is a point-in-time view of one group entry.
type EntryStatus struct {
	Name  string
	State State
}

type fallbackEntry[T any] struct {
	name    string
	value   T
	breaker *CircuitBreaker
}

// FallbackGroup wraps a primary and zero or more fallback instances of the
// same provider type. Entries are tried in registration order; an entry whose
// breaker is open is skipped.
//
// Entries must be registered before the group is shared between goroutines.
type FallbackGroup[T any] struct {
	entries []fallbackEntry[T]
	cfg     FallbackConfig
}

// NewFallbackGroup creates a [FallbackGroup] with primary as the first entry.
func NewFallbackGroup[T any](primary T, primaryName string, cfg FallbackConfig) *FallbackGroup[T] {
	if cfg.Metrics == nil {
		cfg.Metrics = observe.DefaultMetrics()
	}
	fg := &FallbackGroup[T]{cfg: cfg}
	fg.AddFallback(primaryName, primary)
	return fg
}

// AddFallback appends a fallback provider, tried after every earlier entry.
func (fg *FallbackGroup[T]) AddFallback(name string, fallback T) {
	cbCfg := fg.cfg.CircuitBreaker
	cbCfg.Name = name
	fg.entries = append(fg.entries, fallbackEntry[T]{
		name:    name,
		value:   fallback,
		breaker: NewCircuitBreaker(cbCfg),
	})
}

// Status reports every entry's name and breaker state in order.
func (fg *FallbackGroup[T]) Status() []EntryStatus {
	out := make([]EntryStatus, len(fg.entries))
	for i, e := range fg.entries {
		out[i] = EntryStatus{Name: e.name, State: e.breaker.State()}
	}
	return out
}

// Execute tries fn against each entry in order until one succeeds.
func (fg *FallbackGroup[T]) Execute(ctx context.Context, fn func(context.Context, T) error) error {
	_, err := ExecuteWithResult(ctx, fg, func(ctx context.Context, v T) (struct{}, error) {
		return struct{}{}, fn(ctx, v)
	})
	return err
}

// ExecuteWithResult tries fn against each entry of fg until one succeeds and
// returns its result. Returns [ErrAllFailed] wrapping the last error when
// every entry fails.
//
// A failure caused by ctx itself (cancellation or deadline) is returned
// immediately: it neither trips the entry's breaker nor moves on to the next
// entry, since every other entry would see the same context.
func ExecuteWithResult[T any, R any](ctx context.Context, fg *FallbackGroup[T], fn func(context.Context, T) (R, error)) (R, error) {
	var (
		zero    R
		lastErr error
	)
	for i := range fg.entries {
		entry := &fg.entries[i]
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		var result R
		err := entry.breaker.execute(func() error {
			var innerErr error
			result, innerErr = fn(ctx, entry.value)
			return innerErr
		}, func(error) bool { return ctx.Err() != nil })

		if err != nil && ctx.Err() != nil {
			fg.cfg.Metrics.RecordProviderRequest(ctx, entry.name, fg.cfg.Kind, "cancelled")
			return zero, err
		}
		if err == nil {
			fg.cfg.Metrics.RecordProviderRequest(ctx, entry.name, fg.cfg.Kind, "ok")
			return result, nil
		}

		lastErr = err
		if errors.Is(err, ErrCircuitOpen) {
			fg.cfg.Metrics.RecordProviderRequest(ctx, entry.name, fg.cfg.Kind, "skipped")
			observe.Logger(ctx).Debug("skipping provider, circuit open",
				slog.String("provider", entry.name), slog.String("kind", fg.cfg.Kind))
			continue
		}
		fg.cfg.Metrics.RecordProviderRequest(ctx, entry.name, fg.cfg.Kind, "error")
		fg.cfg.Metrics.RecordProviderError(ctx, entry.name, fg.cfg.Kind)
		observe.Logger(ctx).Warn("provider failed, trying next",
			slog.String("provider", entry.name),
			slog.String("kind", fg.cfg.Kind),
			slog.Any("err", err),
		)
	}
	return zero, fmt.Errorf("%w: %w", ErrAllFailed, lastErr)
}
