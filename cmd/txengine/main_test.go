package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "transactions.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func cleanEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"REPORT_SINKS", "REDIS_URL", "DATABASE_URL", "ROUNDING_MODE", "LEDGER_WORKERS", "LOG_LEVEL", "REPORT_KEY_PREFIX", "NOTIFY_KAFKA_BROKERS"} {
		t.Setenv(key, "")
	}
}

func TestRunWritesReport(t *testing.T) {
	cleanEnv(t)
	path := writeInput(t, "type, client, tx, amount\n"+
		"deposit, 1, 1, 1.0\n"+
		"deposit, 2, 2, 2.0\n"+
		"deposit, 1, 3, 2.0\n"+
		"withdrawal, 1, 4, 1.5\n"+
		"withdrawal, 2, 5, 3.0\n")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{path}, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "client,available,held,total,locked\n1,1.5,0,1.5,false\n2,2,0,2,false\n", stdout.String())
}

func TestRunUsage(t *testing.T) {
	cleanEnv(t)
	for _, args := range [][]string{nil, {"a.csv", "b.csv"}} {
		var stdout, stderr bytes.Buffer
		assert.Equal(t, 1, run(context.Background(), args, &stdout, &stderr))
		assert.Empty(t, stdout.String())
		assert.Contains(t, stderr.String(), usage)
	}
}

func TestRunReportsInputErrors(t *testing.T) {
	cleanEnv(t)
	path := writeInput(t, "type,client,tx,amount\ndeposit,1,1,\n")

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 1, run(context.Background(), []string{path}, &stdout, &stderr))
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "line 2")

	stderr.Reset()
	assert.Equal(t, 1, run(context.Background(), []string{filepath.Join(t.TempDir(), "missing.csv")}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "read transactions")
}

func TestRunExportsToRedis(t *testing.T) {
	cleanEnv(t)
	mr := miniredis.RunT(t)
	t.Setenv("REDIS_URL", "redis://"+mr.Addr()+"/0")
	t.Setenv("REPORT_SINKS", "redis")
	path := writeInput(t, "type,client,tx,amount\ndeposit,4,1,2.5\n")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{path}, &stdout, &stderr)

	require.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "client,available,held,total,locked\n4,2.5,0,2.5,false\n", stdout.String())
	assert.Equal(t, "2.5", mr.HGet("txengine:account:4", "available"))
}

func TestRunIgnoresUnusedStores(t *testing.T) {
	cleanEnv(t)
	t.Setenv("REDIS_URL", "redis://127.0.0.1:1/0")
	path := writeInput(t, "type,client,tx,amount\ndeposit,1,1,1\n")

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run(context.Background(), []string{path}, &stdout, &stderr), stderr.String())
	assert.Equal(t, "client,available,held,total,locked\n1,1,0,1,false\n", stdout.String())
}
