package observability

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOTLPHeaders(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "Authorization=Basic%20abc%3D%3D, X-Scope=tenant=1,broken")

	headers := parseOTLPHeaders()
	assert.Equal(t, map[string]string{
		"Authorization": "Basic abc==",
		"X-Scope":       "tenant=1",
	}, headers)
}

func TestParseOTLPHeaders_Unset(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")
	assert.Nil(t, parseOTLPHeaders())
}

func TestSetup_Disabled(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	shutdown, err := Setup(context.Background(), Config{LogOutput: &buf, LogLevel: slog.LevelInfo})
	require.NoError(t, err)

	slog.Debug("hidden")
	slog.Info("schedule created", slog.String("schedule_id", "plants"))

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "schedule_id=plants")
	assert.NoError(t, shutdown(context.Background()))
}

func TestConfig_ServiceName(t *testing.T) {
	assert.Equal(t, DefaultServiceName, Config{}.serviceName())
	assert.Equal(t, "recur-test", Config{ServiceName: "recur-test"}.serviceName())
}
