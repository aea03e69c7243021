package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	Assembly     AssemblyConfig
	Autosave     AutosaveConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"POA_APP_ENV" required:"true"`
	Port         string `envconfig:"POA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"POA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"POA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"POA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"POA_DB_DSN"`
	Driver string `envconfig:"POA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"POA_DB_HOST"`
	LegacyPort     int    `envconfig:"POA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"POA_DB_USER"`
	LegacyPassword string `envconfig:"POA_DB_PASSWORD"`
	LegacyName     string `envconfig:"POA_DB_NAME"`
	LegacySSLMode  string `envconfig:"POA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"POA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"POA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"POA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"POA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"POA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"POA_REDIS_ADDR"`
	Password     string        `envconfig:"POA_REDIS_PASSWORD"`
	DB           int           `envconfig:"POA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"POA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"POA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"POA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"POA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"POA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"POA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"POA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"POA_JWT_EXPIRATION_MINUTES" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"POA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"POA_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"POA_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"POA_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"POA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"POA_GCS_BUCKET_NAME"`
	DownloadURLExpiry time.Duration `envconfig:"POA_GCS_DOWNLOAD_URL_EXPIRY" default:"15m"`
}

type PubSubConfig struct {
	DomainTopic              string `envconfig:"POA_PUBSUB_DOMAIN_TOPIC" default:"poa-domain-events"`
	DomainSubscription       string `envconfig:"POA_PUBSUB_DOMAIN_SUBSCRIPTION"`
	NotificationTopic        string `envconfig:"POA_PUBSUB_NOTIFICATION_TOPIC" default:"poa-notification-events"`
	NotificationSubscription string `envconfig:"POA_PUBSUB_NOTIFICATION_SUBSCRIPTION"`
}

// AssemblyConfig tunes document generation.
type AssemblyConfig struct {
	Timeout     time.Duration `envconfig:"POA_ASSEMBLY_TIMEOUT" default:"30s"`
	MaxAttempts int           `envconfig:"POA_ASSEMBLY_MAX_ATTEMPTS" default:"3"`
	RetryDelay  time.Duration `envconfig:"POA_ASSEMBLY_RETRY_DELAY" default:"5s"`
}

// AutosaveConfig tunes wizard snapshot persistence.
type AutosaveConfig struct {
	Interval time.Duration `envconfig:"POA_AUTOSAVE_INTERVAL" default:"15s"`
	TTL      time.Duration `envconfig:"POA_AUTOSAVE_TTL" default:"168h"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"POA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"POA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"POA_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
