package routes

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/txengine/internal/batch"
	"github.com/congo-pay/txengine/internal/config"
	"github.com/congo-pay/txengine/internal/ledger"
	"github.com/congo-pay/txengine/internal/logging"
	"github.com/congo-pay/txengine/internal/report"
)

const uploadCSV = `type,client,tx,amount
deposit,1,1,10.0
deposit,2,2,3.0
withdrawal,1,3,2.5
dispute,2,2,
chargeback,2,2,
`

func testConfig() config.Config {
	return config.Config{AppName: "txengine", AppEnv: "test", IdempotencyTTL: time.Minute, BatchRateLimit: 100}
}

func setupApp(t *testing.T, withCache bool) (*fiber.App, *miniredis.Miniredis) {
	t.Helper()

	logger := logging.Discard()
	deps := Deps{Cfg: testConfig(), Logger: logger}

	var mr *miniredis.Miniredis
	var opts []batch.Option
	if withCache {
		mr = miniredis.RunT(t)
		deps.Cache = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = deps.Cache.Close() })
		opts = append(opts, batch.WithSinks(report.NewRedisSink(deps.Cache, "", 0)))
	}
	deps.Batch = batch.NewService(ledger.New(), nil, logger, opts...)

	app := fiber.New()
	require.NoError(t, Setup(app, deps))
	return app, mr
}

func send(t *testing.T, app *fiber.App, method, target, body, key string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(payload)
}

func TestSetupRequiresRedisOutsideDev(t *testing.T) {
	cfg := testConfig()
	cfg.AppEnv = "production"
	deps := Deps{Cfg: cfg, Logger: logging.Discard(), Batch: batch.NewService(ledger.New(), nil, logging.Discard())}

	require.Error(t, Setup(fiber.New(), deps))
	require.Error(t, Setup(fiber.New(), Deps{Cfg: testConfig(), Logger: logging.Discard()}))
}

func TestHealthWithoutBackends(t *testing.T) {
	app, _ := setupApp(t, false)

	status, body := send(t, app, fiber.MethodGet, "/healthz", "", "")
	require.Equal(t, fiber.StatusOK, status)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &payload))
	assert.Equal(t, map[string]any{"postgres": "disabled", "redis": "disabled"}, payload["status"])
}

func TestRetriedUploadIsAppliedOnce(t *testing.T) {
	app, mr := setupApp(t, true)

	status, first := send(t, app, fiber.MethodPost, "/api/v1/batches", uploadCSV, "upload-1")
	require.Equal(t, fiber.StatusCreated, status, first)
	status, second := send(t, app, fiber.MethodPost, "/api/v1/batches", uploadCSV, "upload-1")
	require.Equal(t, fiber.StatusCreated, status)
	assert.JSONEq(t, first, second)

	var summary batch.Summary
	require.NoError(t, json.Unmarshal([]byte(first), &summary))
	assert.Equal(t, 5, summary.Applied)
	assert.Len(t, summary.Locked, 1)

	status, body := send(t, app, fiber.MethodGet, "/api/v1/accounts?format=csv", "", "")
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "client,available,held,total,locked\n1,7.5,0,7.5,false\n2,0,0,0,true\n", body)

	status, body = send(t, app, fiber.MethodPost, "/api/v1/exports", "", "export-1")
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, "7.5", mr.HGet(report.DefaultKeyPrefix+"1", "total"))
	assert.Equal(t, "true", mr.HGet(report.DefaultKeyPrefix+"2", "locked"))

	status, body = send(t, app, fiber.MethodGet, "/healthz", "", "")
	require.Equal(t, fiber.StatusOK, status, body)
}

func TestUploadRequiresIdempotencyKeyWithRedis(t *testing.T) {
	app, _ := setupApp(t, true)

	status, _ := send(t, app, fiber.MethodPost, "/api/v1/batches", uploadCSV, "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = send(t, app, fiber.MethodGet, "/api/v1/accounts", "", "")
	assert.Equal(t, fiber.StatusOK, status)
}
