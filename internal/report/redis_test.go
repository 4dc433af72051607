package report

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

func TestRedisSinkExport(t *testing.T) {
	mr, client := setupRedis(t)
	sink := NewRedisSink(client, "", 0)

	require.NoError(t, sink.Export(context.Background(), sampleRows()))

	assert.Equal(t, "txengine:account:2", sink.Key(2))
	assert.Equal(t, "1.5", mr.HGet(sink.Key(1), "available"))
	assert.Equal(t, "0", mr.HGet(sink.Key(1), "held"))
	assert.Equal(t, "false", mr.HGet(sink.Key(1), "locked"))
	assert.Equal(t, "8.0001", mr.HGet(sink.Key(2), "total"))
	assert.Equal(t, "true", mr.HGet(sink.Key(2), "locked"))
	assert.NotEmpty(t, mr.HGet(sink.Key(2), "exported_at"))

	members, err := mr.Members(sink.IndexKey())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"1", "2"}, members)
	assert.Equal(t, time.Duration(0), mr.TTL(sink.Key(1)))
}

func TestRedisSinkExportWithTTL(t *testing.T) {
	mr, client := setupRedis(t)
	sink := NewRedisSink(client, "test:", time.Hour)

	require.NoError(t, sink.Export(context.Background(), sampleRows()))

	assert.True(t, mr.Exists("test:1"))
	assert.Equal(t, time.Hour, mr.TTL("test:1"))
	assert.Equal(t, time.Hour, mr.TTL("test:index"))
}

func TestRedisSinkExportEmpty(t *testing.T) {
	mr, client := setupRedis(t)
	sink := NewRedisSink(client, "", 0)

	require.NoError(t, sink.Export(context.Background(), nil))
	assert.Empty(t, mr.Keys())
}

func TestRedisSinkExportFailure(t *testing.T) {
	mr, client := setupRedis(t)
	mr.Close()

	sink := NewRedisSink(client, "", 0)
	err := ExportAll(context.Background(), sampleRows(), sink)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "export to redis")
}
