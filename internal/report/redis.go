package report

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/txengine/internal/ledger"
	"github.com/congo-pay/txengine/internal/transaction"
)

// DefaultKeyPrefix namespaces the per-client hashes written by RedisSink.
const DefaultKeyPrefix = "txengine:account:"

// RedisSink stores each client's snapshot as a hash at <prefix><client> and
// keeps the set of exported clients at <prefix>index.
type RedisSink struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSink builds a Redis sink. A zero ttl keeps keys without expiry.
func NewRedisSink(client *redis.Client, prefix string, ttl time.Duration) *RedisSink {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &RedisSink{client: client, prefix: prefix, ttl: ttl}
}

// Name identifies the sink in logs.
func (s *RedisSink) Name() string { return SinkRedis }

// Key returns the hash key holding client's snapshot.
func (s *RedisSink) Key(client transaction.ClientID) string {
	return s.prefix + strconv.FormatUint(uint64(client), 10)
}

// IndexKey returns the set key listing exported clients.
func (s *RedisSink) IndexKey() string {
	return s.prefix + "index"
}

// Export writes all rows in a single MULTI/EXEC block.
func (s *RedisSink) Export(ctx context.Context, rows []ledger.AccountReport) error {
	if len(rows) == 0 {
		return nil
	}
	exportedAt := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		members := make([]any, 0, len(rows))
		for _, r := range rows {
			key := s.Key(r.Client)
			pipe.HSet(ctx, key, map[string]any{
				"available":   r.Available.String(),
				"held":        r.Held.String(),
				"total":       r.Total.String(),
				"locked":      strconv.FormatBool(r.Locked),
				"exported_at": exportedAt,
			})
			if s.ttl > 0 {
				pipe.Expire(ctx, key, s.ttl)
			}
			members = append(members, strconv.FormatUint(uint64(r.Client), 10))
		}
		pipe.SAdd(ctx, s.IndexKey(), members...)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.IndexKey(), s.ttl)
		}
		return nil
	})
	return err
}
