package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/congo-pay/txengine/internal/ingest"
	"github.com/congo-pay/txengine/internal/ledger"
	"github.com/congo-pay/txengine/internal/notification"
	"github.com/congo-pay/txengine/internal/report"
	"github.com/congo-pay/txengine/internal/transaction"
)

const tracerName = "github.com/congo-pay/txengine/internal/batch"

// ErrNoSinks is returned by Export when no report sink is configured.
var ErrNoSinks = errors.New("no report sinks configured")

// Summary describes one submitted batch.
type Summary struct {
	BatchID         string                 `json:"batch_id"`
	Transactions    int                    `json:"transactions"`
	Applied         int                    `json:"applied"`
	Ignored         int                    `json:"ignored"`
	IgnoredByReason map[ledger.Reason]int  `json:"ignored_by_reason"`
	Locked          []transaction.ClientID `json:"locked"`
}

// Service feeds transaction batches into a ledger and publishes the results.
type Service struct {
	ledger   *ledger.Ledger
	notifier notification.Notifier
	logger   *slog.Logger
	tracer   trace.Tracer
	sinks    []report.Sink
}

// Option customizes a Service.
type Option func(*Service)

// WithTracer replaces the globally registered tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithSinks sets the sinks used by Export.
func WithSinks(sinks ...report.Sink) Option {
	return func(s *Service) {
		s.sinks = append(s.sinks, sinks...)
	}
}

// NewService constructs a batch service. A nil notifier disables lock notifications.
func NewService(l *ledger.Ledger, notifier notification.Notifier, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		ledger:   l,
		notifier: notifier,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit reads a transactions CSV from r and applies it as one batch.
// Malformed input rejects the whole batch before any record is applied.
func (s *Service) Submit(ctx context.Context, r io.Reader) (Summary, error) {
	ctx, span := s.tracer.Start(ctx, "batch.submit")
	defer span.End()

	txs, err := ingest.Read(r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ingest failed")
		return Summary{}, err
	}
	return s.process(ctx, span, txs)
}

// Process applies already parsed transactions as one batch.
func (s *Service) Process(ctx context.Context, txs []transaction.Transaction) (Summary, error) {
	ctx, span := s.tracer.Start(ctx, "batch.submit")
	defer span.End()
	return s.process(ctx, span, txs)
}

func (s *Service) process(ctx context.Context, span trace.Span, txs []transaction.Transaction) (Summary, error) {
	id := uuid.NewString()
	span.SetAttributes(
		attribute.String("batch.id", id),
		attribute.Int("batch.transactions", len(txs)),
	)

	res, err := s.ledger.Process(ctx, txs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "replay interrupted")
		return Summary{}, fmt.Errorf("process batch %s: %w", id, err)
	}

	summary := Summary{
		BatchID:         id,
		Transactions:    len(txs),
		Applied:         res.Applied(),
		Ignored:         res.Ignored(),
		IgnoredByReason: res.IgnoredByReason(),
		Locked:          res.Locked,
	}
	if summary.Locked == nil {
		summary.Locked = []transaction.ClientID{}
	}

	span.SetAttributes(
		attribute.Int("batch.applied", summary.Applied),
		attribute.Int("batch.ignored", summary.Ignored),
		attribute.Int("batch.locked", len(summary.Locked)),
	)

	for _, client := range summary.Locked {
		s.notifyLocked(ctx, id, client)
	}

	s.logger.InfoContext(ctx, "batch processed",
		slog.String("batch_id", id),
		slog.Int("transactions", summary.Transactions),
		slog.Int("applied", summary.Applied),
		slog.Int("ignored", summary.Ignored),
		slog.Int("locked", len(summary.Locked)),
	)
	return summary, nil
}

func (s *Service) notifyLocked(ctx context.Context, batchID string, client transaction.ClientID) {
	if s.notifier == nil {
		return
	}
	msg := notification.Message{
		Kind:        notification.KindAccountLocked,
		Destination: fmt.Sprintf("client:%d", client),
		Body:        fmt.Sprintf("account %d locked by chargeback in batch %s", client, batchID),
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "lock notification failed",
			slog.String("batch_id", batchID),
			slog.Int("client", int(client)),
			slog.Any("error", err),
		)
	}
}

// Accounts returns the current report, sorted by client.
func (s *Service) Accounts() []ledger.AccountReport {
	return s.ledger.Report()
}

// Account returns the report row of one client.
func (s *Service) Account(client transaction.ClientID) (ledger.AccountReport, bool) {
	return s.ledger.Account(client)
}

// Export pushes the current report to every configured sink and returns the
// names of the sinks written.
func (s *Service) Export(ctx context.Context) ([]string, error) {
	if len(s.sinks) == 0 {
		return nil, ErrNoSinks
	}
	rows := s.ledger.Report()
	if err := report.ExportAll(ctx, rows, s.sinks...); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(s.sinks))
	for _, sink := range s.sinks {
		names = append(names, sink.Name())
	}
	s.logger.InfoContext(ctx, "report exported",
		slog.Int("accounts", len(rows)),
		slog.Any("sinks", names),
	)
	return names, nil
}
