package report

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/congo-pay/txengine/internal/ledger"
)

// ErrUnknownSink is returned for sink names that are not supported.
var ErrUnknownSink = errors.New("unknown report sink")

const (
	SinkRedis    = "redis"
	SinkPostgres = "postgres"
)

// Sink receives account snapshots.
type Sink interface {
	Name() string
	Export(ctx context.Context, rows []ledger.AccountReport) error
}

// ParseSinks splits a comma separated list of sink names, dropping blanks
// and duplicates.
func ParseSinks(s string) ([]string, error) {
	var names []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" || seen[name] {
			continue
		}
		switch name {
		case SinkRedis, SinkPostgres:
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownSink, name)
		}
		seen[name] = true
		names = append(names, name)
	}
	return names, nil
}

// ExportAll pushes rows to every sink, stopping at the first failure.
func ExportAll(ctx context.Context, rows []ledger.AccountReport, sinks ...Sink) error {
	for _, s := range sinks {
		if err := s.Export(ctx, rows); err != nil {
			return fmt.Errorf("export to %s: %w", s.Name(), err)
		}
	}
	return nil
}
