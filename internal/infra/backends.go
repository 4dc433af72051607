package infra

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/txengine/internal/config"
	"github.com/congo-pay/txengine/internal/notification"
	"github.com/congo-pay/txengine/internal/report"
)

// Backends holds the optional external systems. Any field may be nil.
type Backends struct {
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Events *notification.KafkaNotifier
}

// Connect opens every backend that has a URL configured.
func Connect(ctx context.Context, cfg config.Config) (*Backends, error) {
	b := &Backends{}
	if cfg.DatabaseURL != "" {
		db, err := NewPostgresPool(ctx, cfg.DatabaseURL, cfg.AppName)
		if err != nil {
			return nil, err
		}
		b.DB = db
	}
	if cfg.RedisURL != "" {
		cache, err := NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		b.Cache = cache
	}
	if len(cfg.KafkaBrokers) > 0 {
		b.Events = notification.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	return b, nil
}

const (
	sinkFailures = 3
	sinkCooldown = 30 * time.Second
)

// Sinks builds the report sinks named in cfg.ReportSinks, each behind a
// circuit breaker, creating the postgres table when needed.
func (b *Backends) Sinks(ctx context.Context, cfg config.Config, logger *slog.Logger) ([]report.Sink, error) {
	sinks := make([]report.Sink, 0, len(cfg.ReportSinks))
	for _, name := range cfg.ReportSinks {
		switch name {
		case report.SinkRedis:
			if b.Cache == nil {
				return nil, fmt.Errorf("redis sink: redis is not connected")
			}
			sink := report.NewRedisSink(b.Cache, cfg.ReportKeyPrefix, cfg.ReportTTL)
			sinks = append(sinks, report.WithBreaker(sink, sinkFailures, sinkCooldown, logger))
		case report.SinkPostgres:
			if b.DB == nil {
				return nil, fmt.Errorf("postgres sink: postgres is not connected")
			}
			sink := report.NewPostgresSink(b.DB)
			if err := sink.EnsureSchema(ctx); err != nil {
				return nil, fmt.Errorf("postgres sink: %w", err)
			}
			sinks = append(sinks, report.WithBreaker(sink, sinkFailures, sinkCooldown, logger))
		default:
			return nil, fmt.Errorf("%w: %q", report.ErrUnknownSink, name)
		}
	}
	return sinks, nil
}

// Notifier returns the lock notifier: the structured log, plus Kafka when
// brokers are configured.
func (b *Backends) Notifier(logger *slog.Logger) notification.Notifier {
	if b.Events == nil {
		return notification.NewLoggerNotifier(logger)
	}
	return notification.Fanout(notification.NewLoggerNotifier(logger), b.Events)
}

// Close releases every open backend.
func (b *Backends) Close() error {
	var errs []error
	if b.Events != nil {
		if err := b.Events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close kafka writer: %w", err))
		}
	}
	if b.DB != nil {
		b.DB.Close()
	}
	if b.Cache != nil {
		if err := b.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
