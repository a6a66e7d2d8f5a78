package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Gateway      GatewayConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Gateway.Limit(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PAYMENTS_APP_ENV" required:"true"`
	Port         string `envconfig:"PAYMENTS_APP_PORT" default:"8084"`
	LogLevel     string `envconfig:"PAYMENTS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PAYMENTS_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"PAYMENTS_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PAYMENTS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN        string `envconfig:"PAYMENTS_DB_DSN"`
	Driver     string `envconfig:"PAYMENTS_DB_DRIVER" default:"postgres"`
	SQLitePath string `envconfig:"PAYMENTS_DB_SQLITE_PATH" default:"payments.db"`

	LegacyHost     string `envconfig:"PAYMENTS_DB_HOST"`
	LegacyPort     int    `envconfig:"PAYMENTS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PAYMENTS_DB_USER"`
	LegacyPassword string `envconfig:"PAYMENTS_DB_PASSWORD"`
	LegacyName     string `envconfig:"PAYMENTS_DB_NAME"`
	LegacySSLMode  string `envconfig:"PAYMENTS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PAYMENTS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PAYMENTS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PAYMENTS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PAYMENTS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// RedisConfig is optional; with neither URL nor address set the service runs
// without order locks or idempotent replays.
type RedisConfig struct {
	URL          string        `envconfig:"PAYMENTS_REDIS_URL"`
	Address      string        `envconfig:"PAYMENTS_REDIS_ADDR"`
	Password     string        `envconfig:"PAYMENTS_REDIS_PASSWORD"`
	DB           int           `envconfig:"PAYMENTS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PAYMENTS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PAYMENTS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PAYMENTS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PAYMENTS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PAYMENTS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PAYMENTS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PAYMENTS_AUTO_MIGRATE" default:"false"`
}

type GatewayConfig struct {
	ApprovalLimit string        `envconfig:"PAYMENTS_GATEWAY_APPROVAL_LIMIT" default:"1000.00"`
	OrderLockTTL  time.Duration `envconfig:"PAYMENTS_ORDER_LOCK_TTL" default:"30s"`
}

// Limit parses the approval ceiling used by the threshold decider.
func (g GatewayConfig) Limit() (decimal.Decimal, error) {
	limit, err := decimal.NewFromString(strings.TrimSpace(g.ApprovalLimit))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q: %w", EnvGatewayApprovalLimit, g.ApprovalLimit, err)
	}
	if !limit.IsPositive() {
		return decimal.Zero, fmt.Errorf("%s must be positive", EnvGatewayApprovalLimit)
	}
	return limit, nil
}

type GCPConfig struct {
	ProjectID string `envconfig:"PAYMENTS_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	PaymentsTopic string `envconfig:"PAYMENTS_PUBSUB_PAYMENTS_TOPIC" default:"payment-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PAYMENTS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PAYMENTS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PAYMENTS_OUTBOX_MAX_ATTEMPTS" default:"10"`

	// MetricsAddr exposes the publisher's Prometheus registry when set.
	MetricsAddr string `envconfig:"PAYMENTS_OUTBOX_METRICS_ADDR"`
}

type CronConfig struct {
	Interval            time.Duration `envconfig:"PAYMENTS_CRON_INTERVAL" default:"1h"`
	LockTTL             time.Duration `envconfig:"PAYMENTS_CRON_LOCK_TTL" default:"30m"`
	OutboxRetentionDays int           `envconfig:"PAYMENTS_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
	DLQRetentionDays    int           `envconfig:"PAYMENTS_CRON_DLQ_RETENTION_DAYS" default:"90"`
	MetricsAddr         string        `envconfig:"PAYMENTS_CRON_METRICS_ADDR"`
}

// IsSQLite reports whether the sqlite driver was selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

func (db *DBConfig) ensureDSN() error {
	if db.IsSQLite() || db.DSN != "" {
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
