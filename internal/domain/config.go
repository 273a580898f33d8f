package domain

import "time"

// Config holds the complete engine configuration.
type Config struct {
	// Server settings
	Server ServerConfig `json:"server"`

	// Rule configuration documents
	ConfigStore ConfigStoreConfig `json:"configStore"`

	// Tabular data sources
	Data DataConfig `json:"data"`

	// Request-rate counter for the API surface
	Cache CacheConfig `json:"cache"`

	// Audit sink
	Audit AuditConfig `json:"audit"`

	// Observability
	Logging LoggingConfig `json:"logging"`
	Tracing TracingConfig `json:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	ReadTimeout  int    `json:"readTimeout"`  // seconds
	WriteTimeout int    `json:"writeTimeout"` // seconds
}

// ConfigStoreConfig locates the rule configuration documents.
type ConfigStoreConfig struct {
	// Dir contains the five JSON rule documents.
	Dir string `json:"dir"`
}

// DataConfig holds configuration for the tabular data sources.
type DataConfig struct {
	// Driver is the data source driver: "csv", "sqlite" or "postgres"
	Driver string `json:"driver"`

	// CSV specific
	EligiblePath string `json:"eligiblePath"`
	ReasonsPath  string `json:"reasonsPath"`

	// SQLite specific
	SQLitePath string `json:"sqlitePath"`

	// PostgreSQL specific
	PostgresHost     string `json:"postgresHost"`
	PostgresPort     int    `json:"postgresPort"`
	PostgresUser     string `json:"postgresUser"`
	PostgresPassword string `json:"-"`
	PostgresDB       string `json:"postgresDb"`
	PostgresSSLMode  string `json:"postgresSslMode"`

	// Table names for SQL drivers
	EligibleTable string `json:"eligibleTable"`
	ReasonsTable  string `json:"reasonsTable"`

	// Key columns per source
	EligibleKeyColumn string `json:"eligibleKeyColumn"`
	ReasonsKeyColumn  string `json:"reasonsKeyColumn"`

	// Column carrying the customer name in the reasons source
	CustomerNameColumn string `json:"customerNameColumn"`
}

// CacheConfig holds configuration for the request-rate counter.
type CacheConfig struct {
	// Type is the counter type: "memory" or "redis"
	Type string `json:"type"`

	// Memory counter settings
	LocalMaxEntries int `json:"localMaxEntries"`

	// Redis settings
	RedisAddr     string `json:"redisAddr"`
	RedisPassword string `json:"-"`
	RedisDB       int    `json:"redisDb"`

	// Rate limit applied by the API middleware
	RateLimit  int           `json:"rateLimit"`
	RateWindow time.Duration `json:"rateWindow"`
}

// AuditConfig holds configuration for the audit sink.
type AuditConfig struct {
	// Sink is the audit sink type: "slog" or "nats"
	Sink string `json:"sink"`

	// NATS settings
	NATSUrl           string `json:"natsUrl"`
	NATSToken         string `json:"-"`
	NATSMaxReconnects int    `json:"natsMaxReconnects"`
	NATSReconnectWait int    `json:"natsReconnectWait"` // seconds
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Format string `json:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `json:"enabled"`
	ServiceName string `json:"serviceName"`
}

// DefaultConfig returns a single-node default configuration: CSV data
// sources, in-memory rate counter, slog audit sink.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		ConfigStore: ConfigStoreConfig{
			Dir: "./config",
		},
		Data: DataConfig{
			Driver:             "csv",
			EligiblePath:       "./data/eligible_customers.csv",
			ReasonsPath:        "./data/reasons_file.csv",
			EligibleKeyColumn:  "ACCOUNTNO",
			ReasonsKeyColumn:   "account_number",
			CustomerNameColumn: "CUSTOMERNAMES",
		},
		Cache: CacheConfig{
			Type:            "memory",
			LocalMaxEntries: 10000,
			RateLimit:       60,
			RateWindow:      time.Minute,
		},
		Audit: AuditConfig{
			Sink: "slog",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "eligibility",
		},
	}
}
