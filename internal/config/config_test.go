package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8084, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "electronic_sales.csv", cfg.Source.CSVFile)
	assert.False(t, cfg.Source.UsesSQL())
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, []string{"http://localhost:8084"}, cfg.Security.AllowedOrigins)
	assert.False(t, cfg.Telemetry.TracingEnabled)
	assert.Equal(t, "localhost:8084", cfg.Address())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ESALES_SERVER_PORT", "9000")
	t.Setenv("ESALES_SOURCE_DSN", "postgres://localhost/sales")
	t.Setenv("ESALES_LOG_FORMAT", "text")
	t.Setenv("ESALES_SECURITY_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.True(t, cfg.Source.UsesSQL())
	assert.Equal(t, "text", cfg.Logger.Format)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Security.AllowedOrigins)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"port out of range", "ESALES_SERVER_PORT", "70000"},
		{"unknown log level", "ESALES_LOG_LEVEL", "verbose"},
		{"unparseable duration", "ESALES_SERVER_READ_TIMEOUT", "soon"},
		{"sample ratio above one", "ESALES_TELEMETRY_SAMPLE_RATIO", "1.5"},
		{"zero burst", "ESALES_SECURITY_RATE_LIMIT_BURST", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidateRequiresSource(t *testing.T) {
	t.Setenv("ESALES_SOURCE_CSV_FILE", "")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("ESALES_SOURCE_DSN", "postgres://localhost/sales")
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Source.Query = " "
	assert.Error(t, cfg.validate())
}
