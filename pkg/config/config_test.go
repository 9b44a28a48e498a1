package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/chameleon/pkg/config"
)

const (
	testPort       = 9191
	testPageSize   = 250
	testWindowSize = 25
	testThreshold  = 0.7
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "chameleon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_EmptyFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, config.SourceFile, cfg.Source.Kind)
	assert.Equal(t, config.DefaultSnapshotPath, cfg.Source.Path)
	assert.Equal(t, config.DefaultProfilesTable, cfg.Source.ProfilesTable)
	assert.Equal(t, config.DefaultEventsTable, cfg.Source.EventsTable)
	assert.Equal(t, config.DefaultPageSize, cfg.Source.PageSize)
	assert.Equal(t, config.DefaultSourceTimeout, cfg.Source.Timeout)
	assert.Equal(t, config.DefaultNumHashes, cfg.Similarity.NumHashes)
	assert.Equal(t, config.DefaultBands, cfg.Similarity.Bands)
	assert.Equal(t, config.DefaultRows, cfg.Similarity.Rows)
	assert.InDelta(t, config.DefaultThreshold, cfg.Similarity.Threshold, 0)
	assert.Equal(t, config.DefaultWindowSize, cfg.RTT.WindowSize)
	assert.Equal(t, uint(config.DefaultBloomExpectedItems), cfg.Bloom.ExpectedItems)
	assert.Equal(t, config.DefaultPort, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr())
	assert.Equal(t, config.DefaultCacheEntries, cfg.Server.CacheEntries)
	assert.Equal(t, config.DefaultLogFormat, cfg.Logging.Format)
	assert.Equal(t, config.DefaultServiceName, cfg.Observability.ServiceName)
}

func TestLoadConfig_FileOverrides(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
source:
  kind: rest
  base_url: https://example.supabase.co
  api_key: secret
  page_size: 250
  timeout: 5s
similarity:
  threshold: 0.7
rtt:
  window_size: 25
server:
  port: 9191
logging:
  format: json
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, config.SourceREST, cfg.Source.Kind)
	assert.Equal(t, "https://example.supabase.co", cfg.Source.BaseURL)
	assert.Equal(t, "secret", cfg.Source.APIKey)
	assert.Equal(t, testPageSize, cfg.Source.PageSize)
	assert.Equal(t, 5*time.Second, cfg.Source.Timeout)
	assert.InDelta(t, testThreshold, cfg.Similarity.Threshold, 0)
	assert.Equal(t, testWindowSize, cfg.RTT.WindowSize)
	assert.Equal(t, testPort, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CHAMELEON_SERVER_PORT", "9191")
	t.Setenv("CHAMELEON_SOURCE_KIND", "postgres")
	t.Setenv("CHAMELEON_SOURCE_DSN", "postgres://localhost/chameleon")

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, testPort, cfg.Server.Port)
	assert.Equal(t, config.SourcePostgres, cfg.Source.Kind)
	assert.Equal(t, "postgres://localhost/chameleon", cfg.Source.DSN)
}

func TestLoadConfig_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"unknown_kind", "source:\n  kind: ftp\n", config.ErrInvalidSourceKind},
		{"rest_without_url", "source:\n  kind: rest\n", config.ErrMissingBaseURL},
		{"postgres_without_dsn", "source:\n  kind: postgres\n", config.ErrMissingDSN},
		{"file_without_path", "source:\n  path: \"\"\n", config.ErrMissingPath},
		{"page_size", "source:\n  page_size: 0\n", config.ErrInvalidPageSize},
		{"rate_limit", "source:\n  rate_limit: -1\n", config.ErrInvalidRateLimit},
		{"bands", "similarity:\n  bands: 0\n", config.ErrInvalidSignature},
		{"threshold", "similarity:\n  threshold: 1.5\n", config.ErrInvalidThreshold},
		{"window", "rtt:\n  window_size: 0\n", config.ErrInvalidWindow},
		{"bloom", "bloom:\n  false_positive_rate: 1\n", config.ErrInvalidBloom},
		{"port", "server:\n  port: 70000\n", config.ErrInvalidPort},
		{"cache", "server:\n  cache_entries: -1\n", config.ErrInvalidCache},
		{"log_format", "logging:\n  format: xml\n", config.ErrInvalidLogFormat},
		{"sampling", "observability:\n  sample_ratio: 2\n", config.ErrInvalidSampling},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.LoadConfig(writeConfig(t, tt.content))
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, "source: [unterminated"))

	require.Error(t, err)
}
