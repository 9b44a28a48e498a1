// Package config loads chameleon configuration from defaults, an optional
// YAML file and CHAMELEON_* environment variables.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Source kinds.
const (
	SourceREST     = "rest"
	SourcePostgres = "postgres"
	SourceFile     = "file"
)

const (
	maxPort   = 65535
	envPrefix = "CHAMELEON"
)

// Sentinel validation errors.
var (
	ErrInvalidSourceKind = errors.New("unknown source kind")
	ErrMissingBaseURL    = errors.New("rest source requires source.base_url")
	ErrMissingDSN        = errors.New("postgres source requires source.dsn")
	ErrMissingPath       = errors.New("file source requires source.path")
	ErrInvalidPageSize   = errors.New("page size must be positive")
	ErrInvalidRateLimit  = errors.New("rate limit must not be negative")
	ErrInvalidSignature  = errors.New("num_hashes, bands, rows and shingle_size must be positive")
	ErrInvalidThreshold  = errors.New("similarity threshold must be in [0, 1]")
	ErrInvalidWindow     = errors.New("rtt window size must be positive")
	ErrInvalidBloom      = errors.New("bloom expects expected_items > 0 and 0 < false_positive_rate < 1")
	ErrInvalidPort       = errors.New("invalid server port")
	ErrInvalidCache      = errors.New("server cache entries must not be negative")
	ErrInvalidLogFormat  = errors.New("log format must be text or json")
	ErrInvalidSampling   = errors.New("sample ratio must be in [0, 1]")
)

// Config is the complete chameleon configuration.
type Config struct {
	Source        SourceConfig        `mapstructure:"source"`
	Similarity    SimilarityConfig    `mapstructure:"similarity"`
	RTT           RTTConfig           `mapstructure:"rtt"`
	Bloom         BloomConfig         `mapstructure:"bloom"`
	Server        ServerConfig        `mapstructure:"server"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// SourceConfig selects and parameterizes the data source.
type SourceConfig struct {
	Kind           string        `mapstructure:"kind"`
	BaseURL        string        `mapstructure:"base_url"`
	APIKey         string        `mapstructure:"api_key"`
	DSN            string        `mapstructure:"dsn"`
	Path           string        `mapstructure:"path"`
	Filter         string        `mapstructure:"filter"`
	ProfilesTable  string        `mapstructure:"profiles_table"`
	EventsTable    string        `mapstructure:"events_table"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RateLimit      float64       `mapstructure:"rate_limit"`
	RateBurst      int           `mapstructure:"rate_burst"`
	PageSize       int           `mapstructure:"page_size"`
	MaxConnections int           `mapstructure:"max_connections"`
}

// SimilarityConfig tunes MinHash, LSH and username matching.
type SimilarityConfig struct {
	NumHashes           int     `mapstructure:"num_hashes"`
	Bands               int     `mapstructure:"bands"`
	Rows                int     `mapstructure:"rows"`
	ShingleSize         int     `mapstructure:"shingle_size"`
	Threshold           float64 `mapstructure:"threshold"`
	UsernameMaxDistance int     `mapstructure:"username_max_distance"`
}

// RTTConfig tunes round-trip-time analysis.
type RTTConfig struct {
	WindowSize int `mapstructure:"window_size"`
}

// BloomConfig sizes membership filters.
type BloomConfig struct {
	ExpectedItems     uint    `mapstructure:"expected_items"`
	FalsePositiveRate float64 `mapstructure:"false_positive_rate"`
}

// ServerConfig configures serve mode.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	Port            int           `mapstructure:"port"`
	CacheEntries    int           `mapstructure:"cache_entries"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ObservabilityConfig configures OpenTelemetry export.
type ObservabilityConfig struct {
	ServiceName  string  `mapstructure:"service_name"`
	Environment  string  `mapstructure:"environment"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

// LoadConfig reads configuration. An empty configPath searches for
// chameleon.yaml in the working directory, ./config and /etc/chameleon; a
// missing file is not an error in that case.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("chameleon")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/chameleon")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.kind", DefaultSourceKind)
	v.SetDefault("source.base_url", "")
	v.SetDefault("source.api_key", "")
	v.SetDefault("source.dsn", "")
	v.SetDefault("source.path", DefaultSnapshotPath)
	v.SetDefault("source.filter", "")
	v.SetDefault("source.profiles_table", DefaultProfilesTable)
	v.SetDefault("source.events_table", DefaultEventsTable)
	v.SetDefault("source.timeout", DefaultSourceTimeout)
	v.SetDefault("source.rate_limit", DefaultRateLimit)
	v.SetDefault("source.rate_burst", DefaultRateBurst)
	v.SetDefault("source.page_size", DefaultPageSize)
	v.SetDefault("source.max_connections", DefaultMaxConnections)

	v.SetDefault("similarity.num_hashes", DefaultNumHashes)
	v.SetDefault("similarity.bands", DefaultBands)
	v.SetDefault("similarity.rows", DefaultRows)
	v.SetDefault("similarity.shingle_size", DefaultShingleSize)
	v.SetDefault("similarity.threshold", DefaultThreshold)
	v.SetDefault("similarity.username_max_distance", DefaultUsernameMaxDistance)

	v.SetDefault("rtt.window_size", DefaultWindowSize)

	v.SetDefault("bloom.expected_items", DefaultBloomExpectedItems)
	v.SetDefault("bloom.false_positive_rate", DefaultBloomFPRate)

	v.SetDefault("server.host", DefaultHost)
	v.SetDefault("server.port", DefaultPort)
	v.SetDefault("server.read_timeout", DefaultReadTimeout)
	v.SetDefault("server.write_timeout", DefaultWriteTimeout)
	v.SetDefault("server.idle_timeout", DefaultIdleTimeout)
	v.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)
	v.SetDefault("server.cache_entries", DefaultCacheEntries)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)

	v.SetDefault("observability.service_name", DefaultServiceName)
	v.SetDefault("observability.environment", "")
	v.SetDefault("observability.otlp_endpoint", "")
	v.SetDefault("observability.otlp_insecure", false)
	v.SetDefault("observability.sample_ratio", DefaultSampleRatio)
}

//nolint:cyclop // one check per field.
func validateConfig(cfg *Config) error {
	src := cfg.Source

	switch src.Kind {
	case SourceREST:
		if src.BaseURL == "" {
			return ErrMissingBaseURL
		}
	case SourcePostgres:
		if src.DSN == "" {
			return ErrMissingDSN
		}
	case SourceFile:
		if src.Path == "" {
			return ErrMissingPath
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSourceKind, src.Kind)
	}

	if src.PageSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, src.PageSize)
	}

	if src.RateLimit < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRateLimit, src.RateLimit)
	}

	sim := cfg.Similarity
	if sim.NumHashes <= 0 || sim.Bands <= 0 || sim.Rows <= 0 || sim.ShingleSize <= 0 {
		return ErrInvalidSignature
	}

	if sim.Threshold < 0 || sim.Threshold > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, sim.Threshold)
	}

	if cfg.RTT.WindowSize <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWindow, cfg.RTT.WindowSize)
	}

	if cfg.Bloom.ExpectedItems == 0 || cfg.Bloom.FalsePositiveRate <= 0 || cfg.Bloom.FalsePositiveRate >= 1 {
		return ErrInvalidBloom
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > maxPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, cfg.Server.Port)
	}

	if cfg.Server.CacheEntries < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCache, cfg.Server.CacheEntries)
	}

	if !slices.Contains([]string{"text", "json"}, cfg.Logging.Format) {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, cfg.Logging.Format)
	}

	if cfg.Observability.SampleRatio < 0 || cfg.Observability.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampling, cfg.Observability.SampleRatio)
	}

	return nil
}
