package config

const (
	defaultConfigPath            = "~/.config/mediadex/config.toml"
	defaultIndexDir              = "~/.local/share/mediadex/index"
	defaultLogDir                = "~/.local/share/mediadex/logs"
	defaultStorageBackend        = BackendBleve
	defaultStorageTimeoutSeconds = 11
	defaultScanWorkers           = 1
	defaultRecentHours           = 24
	defaultFFprobeBinary         = "ffprobe"
	defaultPurgeFilenameCap      = 10000
	defaultTMDBLanguage          = "en-US"
	defaultTMDBBaseURL           = "https://api.themoviedb.org/3"
	defaultTMDBRequestsPerSecond = 4
	defaultTMDBBreakerFailures   = 5
	defaultTMDBBreakerTimeout    = 60
	defaultLogFormat             = "console"
	defaultLogLevel              = "warn"
)

// Storage backends understood by internal/index.
const (
	BackendBleve  = "bleve"
	BackendSQLite = "sqlite"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			IndexDir: defaultIndexDir,
			LogDir:   defaultLogDir,
		},
		Storage: Storage{
			Backend:        defaultStorageBackend,
			TimeoutSeconds: defaultStorageTimeoutSeconds,
		},
		Scan: Scan{
			Workers:       defaultScanWorkers,
			RecentHours:   defaultRecentHours,
			FFprobeBinary: defaultFFprobeBinary,
		},
		Purge: Purge{
			FilenameCap: defaultPurgeFilenameCap,
		},
		TMDB: TMDB{
			Language:              defaultTMDBLanguage,
			BaseURL:               defaultTMDBBaseURL,
			RequestsPerSecond:     defaultTMDBRequestsPerSecond,
			BreakerFailures:       defaultTMDBBreakerFailures,
			BreakerTimeoutSeconds: defaultTMDBBreakerTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
