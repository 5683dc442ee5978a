package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/Gobusters/ectoenv"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/kafka"
	redisclient "github.com/Ramsey-B/clover/pkg/redis"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const (
	DataSourceLocal    = "local"
	DataSourceRemote   = "remote"
	DataSourcePostgres = "postgres"

	LocalDriverMemory = "memory"
	LocalDriverFile   = "file"
	LocalDriverRedis  = "redis"
)

type Config struct {
	AppName                       string   `env:"APP_NAME" env-default:"clover"`
	Port                          int      `env:"PORT" env-default:"3000"`
	LogLevel                      string   `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs                    bool     `env:"PRETTY_LOGS" env-default:"false"`
	HttpServerWriteTimeoutSeconds int      `env:"HTTP_SERVER_WRITE_TIMEOUT_SECONDS" env-default:"30"`
	HttpServerReadTimeoutSeconds  int      `env:"HTTP_SERVER_READ_TIMEOUT_SECONDS" env-default:"30"`
	HttpServerIdleTimeoutSeconds  int      `env:"HTTP_SERVER_IDLE_TIMEOUT_SECONDS" env-default:"60"`
	ReadHeaderTimeoutSeconds      int      `env:"HTTP_SERVER_READ_HEADER_TIMEOUT_SECONDS" env-default:"10"`
	MaxHeaderBytes                int      `env:"HTTP_SERVER_MAX_HEADER_BYTES" env-default:"64000"` // 64KB
	MaxUploadBytes                int      `env:"HTTP_SERVER_MAX_UPLOAD_BYTES" env-default:"10485760"`
	AllowOrigins                  []string `env:"HTTP_SERVER_ALLOW_ORIGINS" env-default:"*"`
	AllowMethods                  []string `env:"HTTP_SERVER_ALLOW_METHODS" env-default:"GET,POST,PUT,DELETE,OPTIONS"`
	StartupMaxAttempts            int      `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// Which backend serves the storage contract: local, remote or postgres
	DataSource string `env:"DATA_SOURCE" env-default:"local"`
	// Lifetime of signed attachment URLs
	SignedURLTTL time.Duration `env:"SIGNED_URL_TTL" env-default:"1h"`
	// HMAC secret for locally signed file URLs. A random secret is generated when unset, so
	// links stop verifying after a restart.
	SigningSecret string `env:"SIGNING_SECRET" env-default:""`
	// SigningSecretGenerated reports that SigningSecret was not configured.
	SigningSecretGenerated bool
	// Externally reachable base URL, used in locally signed file URLs
	PublicURL string `env:"PUBLIC_URL" env-default:"http://localhost:3000"`
	// Insert the demo data set at startup when the store is empty
	SeedOnStart bool `env:"SEED_ON_START" env-default:"false"`

	// Hosted PostgREST project
	RemoteURL     string        `env:"REMOTE_URL" env-default:""`
	RemoteAnonKey string        `env:"REMOTE_ANON_KEY" env-default:""`
	RemoteBucket  string        `env:"REMOTE_BUCKET" env-default:"attachments"`
	RemoteTimeout time.Duration `env:"REMOTE_TIMEOUT" env-default:"30s"`

	// Local key-value driver: memory, file or redis
	LocalDriver           string `env:"LOCAL_DRIVER" env-default:"file"`
	LocalDataDir          string `env:"LOCAL_DATA_DIR" env-default:"data"`
	LocalKeyPrefix        string `env:"LOCAL_KEY_PREFIX" env-default:"rs-car-accessories"`
	LocalMaxWriteAttempts int    `env:"LOCAL_MAX_WRITE_ATTEMPTS" env-default:"5"`

	DatabaseDriver                string        `env:"DB_DRIVER" env-default:"postgres"`
	DatabaseHost                  string        `env:"DB_HOST" env-default:""`
	DatabasePort                  string        `env:"DB_PORT" env-default:"5432"`
	DatabaseUserName              string        `env:"DB_USER_NAME" env-default:""`
	DatabasePassword              string        `env:"DB_PASSWORD" env-default:""`
	DatabaseName                  string        `env:"DB_NAME" env-default:"clover"`
	DatabaseSSLMode               string        `env:"DB_SSL_MODE" env-default:"disable"`
	DatabaseMaxOpenConns          int           `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	DatabaseMaxIdleConns          int           `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	DatabaseConnMaxLifetime       time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"5m"`
	DatabaseMigrationsEnabled     bool          `env:"DB_MIGRATIONS_ENABLED" env-default:"true"`
	DatabaseMigrationFolderPath   string        `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	DatabaseMigrationVersion      int           `env:"DB_MIGRATION_VERSION" env-default:"0"`
	DatabaseMigrationForce        int           `env:"DB_MIGRATION_FORCE" env-default:"0"`
	DatabaseMigrationAutoRollback bool          `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`

	// Redis backs the local driver "redis" and postgres attachment blobs when set
	RedisHost     string `env:"REDIS_HOST" env-default:""`
	RedisPort     int    `env:"REDIS_PORT" env-default:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" env-default:""`
	RedisDB       int    `env:"REDIS_DB" env-default:"0"`

	// Change events
	KafkaEnabled      bool     `env:"KAFKA_ENABLED" env-default:"false"`
	KafkaBrokers      []string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	KafkaTopic        string   `env:"KAFKA_TOPIC" env-default:"clover-changes"`
	KafkaBatchSize    int      `env:"KAFKA_BATCH_SIZE" env-default:"100"`
	KafkaBatchTimeout int      `env:"KAFKA_BATCH_TIMEOUT_MS" env-default:"100"`
	KafkaRequiredAcks int      `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	KafkaCompression  string   `env:"KAFKA_COMPRESSION" env-default:"snappy"`

	// Tracing export
	OTLPEnabled  bool          `env:"OTLP_ENABLED" env-default:"false"`
	OTLPEndpoint string        `env:"OTLP_ENDPOINT" env-default:"localhost:4317"`
	OTLPProtocol string        `env:"OTLP_PROTOCOL" env-default:"grpc"`
	OTLPInsecure bool          `env:"OTLP_INSECURE" env-default:"true"`
	OTLPTimeout  time.Duration `env:"OTLP_TIMEOUT" env-default:"10s"`

	// Auth Enabled - when false, X-User-ID, X-User-Email and X-Access-Token headers are trusted
	AuthEnabled   bool   `env:"AUTH_ENABLED" env-default:"false"`
	AuthIssuerURL string `env:"AUTH_ISSUER_URL" env-default:""`
	AuthClientID  string `env:"AUTH_CLIENT_ID" env-default:""`
}

// Load reads an optional .env file and then the environment.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		// a missing file is fine; the environment alone is a complete configuration
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := ectoenv.BindEnv(&cfg); err != nil {
		return nil, errors.WithStack(err)
	}
	if cfg.SigningSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.SigningSecret = secret
		cfg.SigningSecretGenerated = true
	}
	cfg.DataSource = strings.ToLower(strings.TrimSpace(cfg.DataSource))
	cfg.LocalDriver = strings.ToLower(strings.TrimSpace(cfg.LocalDriver))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to generate signing secret")
	}
	return hex.EncodeToString(buf), nil
}

// Validate reports the first setting that makes the configured data source unusable.
func (c *Config) Validate() error {
	switch c.DataSource {
	case DataSourceLocal:
		switch c.LocalDriver {
		case LocalDriverMemory, LocalDriverFile:
		case LocalDriverRedis:
			if c.RedisHost == "" {
				return fmt.Errorf("LOCAL_DRIVER=redis requires REDIS_HOST")
			}
		default:
			return fmt.Errorf("unknown LOCAL_DRIVER %q, expected memory, file or redis", c.LocalDriver)
		}
	case DataSourceRemote:
		if c.RemoteURL == "" || c.RemoteAnonKey == "" {
			return fmt.Errorf("DATA_SOURCE=remote requires REMOTE_URL and REMOTE_ANON_KEY")
		}
	case DataSourcePostgres:
		if c.DatabaseHost == "" {
			return fmt.Errorf("DATA_SOURCE=postgres requires DB_HOST")
		}
	default:
		return fmt.Errorf("unknown DATA_SOURCE %q, expected local, remote or postgres", c.DataSource)
	}

	if c.AuthEnabled && (c.AuthIssuerURL == "" || c.AuthClientID == "") {
		return fmt.Errorf("AUTH_ENABLED requires AUTH_ISSUER_URL and AUTH_CLIENT_ID")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_ENABLED requires KAFKA_BROKERS")
	}
	return nil
}

func (c *Config) Database() database.Config {
	return database.Config{
		Driver:          c.DatabaseDriver,
		Host:            c.DatabaseHost,
		Port:            c.DatabasePort,
		UserName:        c.DatabaseUserName,
		Password:        c.DatabasePassword,
		Name:            c.DatabaseName,
		SSLMode:         c.DatabaseSSLMode,
		MaxOpenConns:    c.DatabaseMaxOpenConns,
		MaxIdleConns:    c.DatabaseMaxIdleConns,
		ConnMaxLifetime: c.DatabaseConnMaxLifetime,
	}
}

func (c *Config) Migrations() *database.MigrationConfig {
	return &database.MigrationConfig{
		MigrationFolderPath: c.DatabaseMigrationFolderPath,
		Version:             uint(c.DatabaseMigrationVersion),
		Force:               c.DatabaseMigrationForce,
		AutoRollback:        c.DatabaseMigrationAutoRollback,
	}
}

func (c *Config) Redis() redisclient.Config {
	return redisclient.Config{
		Host:     c.RedisHost,
		Port:     c.RedisPort,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

func (c *Config) Kafka() kafka.ProducerConfig {
	cfg := kafka.DefaultProducerConfig()
	cfg.Brokers = c.KafkaBrokers
	cfg.Topic = c.KafkaTopic
	cfg.BatchSize = c.KafkaBatchSize
	cfg.BatchTimeout = time.Duration(c.KafkaBatchTimeout) * time.Millisecond
	cfg.RequiredAcks = c.KafkaRequiredAcks
	cfg.Compression = c.KafkaCompression
	return cfg
}

func (c *Config) OTLP() tracing.OTLPConfig {
	return tracing.OTLPConfig{
		Enabled:  c.OTLPEnabled,
		Endpoint: c.OTLPEndpoint,
		Protocol: c.OTLPProtocol,
		Insecure: c.OTLPInsecure,
		Timeout:  c.OTLPTimeout,
	}
}
