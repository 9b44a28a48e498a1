package config

import "time"

// Source defaults.
const (
	DefaultSourceKind     = SourceFile
	DefaultPageSize       = 1000
	DefaultRateLimit      = 5.0
	DefaultRateBurst      = 1
	DefaultSourceTimeout  = 30 * time.Second
	DefaultProfilesTable  = "instagram_profiles"
	DefaultEventsTable    = "whatsapp_events"
	DefaultSnapshotPath   = "snapshot.json.lz4"
	DefaultMaxConnections = 4
)

// Similarity defaults.
const (
	DefaultNumHashes           = 128
	DefaultBands               = 20
	DefaultRows                = 5
	DefaultShingleSize         = 3
	DefaultThreshold           = 0.5
	DefaultUsernameMaxDistance = 3
)

// RTT defaults.
const (
	DefaultWindowSize = 10
)

// Bloom defaults.
const (
	DefaultBloomExpectedItems = 10000
	DefaultBloomFPRate        = 0.01
)

// Server defaults.
const (
	DefaultHost            = "127.0.0.1"
	DefaultPort            = 8080
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultCacheEntries    = 1024
)

// Logging and observability defaults.
const (
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultServiceName = "chameleon"
	DefaultSampleRatio = 1.0
)
