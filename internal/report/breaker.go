package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/congo-pay/txengine/internal/ledger"
)

// ErrSinkUnavailable is returned while a sink's circuit is open.
var ErrSinkUnavailable = errors.New("report sink unavailable")

// BreakerSink stops calling a sink after consecutive failures and probes it
// again once the cooldown has elapsed.
type BreakerSink struct {
	sink Sink
	cb   *gobreaker.CircuitBreaker
}

// WithBreaker wraps s. The circuit opens after failures consecutive errors.
func WithBreaker(s Sink, failures uint32, cooldown time.Duration, logger *slog.Logger) *BreakerSink {
	if failures == 0 {
		failures = 1
	}
	settings := gobreaker.Settings{
		Name:        "sink-" + s.Name(),
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logger.Warn("report sink circuit changed",
					slog.String("breaker", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()),
				)
			}
		},
	}
	return &BreakerSink{sink: s, cb: gobreaker.NewCircuitBreaker(settings)}
}

// Name reports the wrapped sink's name.
func (b *BreakerSink) Name() string { return b.sink.Name() }

// Export forwards to the wrapped sink unless the circuit is open.
func (b *BreakerSink) Export(ctx context.Context, rows []ledger.AccountReport) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.sink.Export(ctx, rows)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s: %v", ErrSinkUnavailable, b.sink.Name(), err)
	}
	return err
}

// State returns the circuit state, for health reporting.
func (b *BreakerSink) State() gobreaker.State {
	return b.cb.State()
}
