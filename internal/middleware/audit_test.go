package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/txengine/internal/logging"
)

func auditApp(buf *bytes.Buffer) *fiber.App {
	app := fiber.New()
	app.Use(RequestID())
	app.Use(Audit(logging.NewWithWriter("debug", buf)))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/missing", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusNotFound, "account not found") })
	app.Get("/boom", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusInternalServerError, "boom") })
	return app
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	scanner := bufio.NewScanner(strings.NewReader(buf.String()))
	for scanner.Scan() {
		entry = nil
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
	}
	require.NotNil(t, entry)
	return entry
}

func TestAuditLevels(t *testing.T) {
	cases := []struct {
		path   string
		status int
		level  string
	}{
		{"/ok", fiber.StatusOK, "INFO"},
		{"/missing", fiber.StatusNotFound, "WARN"},
		{"/boom", fiber.StatusInternalServerError, "ERROR"},
	}

	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			var buf bytes.Buffer
			app := auditApp(&buf)

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, tc.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)

			entry := lastEntry(t, &buf)
			assert.Equal(t, "request completed", entry["msg"])
			assert.Equal(t, tc.level, entry["level"])
			assert.Equal(t, float64(tc.status), entry["status"])
			assert.Equal(t, tc.path, entry["path"])
			assert.Equal(t, resp.Header.Get(requestIDHeader), entry["request_id"])
		})
	}
}

func TestRequestIDReusesCallerValue(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString(GetRequestID(c)) })

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(requestIDHeader))

	req = httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("x", maxRequestIDLen+1))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Len(t, resp.Header.Get(requestIDHeader), 36)
}
