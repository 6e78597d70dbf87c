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
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Reports      ReportsConfig
	Mail         MailConfig
	Delivery     DeliveryConfig
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
	Env          string `envconfig:"SALES_APP_ENV" required:"true"`
	Port         string `envconfig:"SALES_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"SALES_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"SALES_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"SALES_LOG_WARN_STACK" default:"false"`
	// MetricsAddr exposes /metrics on worker binaries when set (e.g. ":9090").
	MetricsAddr string `envconfig:"SALES_METRICS_ADDR"`
	// CORSOrigins is a comma separated list of allowed browser origins.
	CORSOrigins []string `envconfig:"SALES_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SALES_DB_DSN"`
	Driver string `envconfig:"SALES_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SALES_DB_HOST"`
	LegacyPort     int    `envconfig:"SALES_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SALES_DB_USER"`
	LegacyPassword string `envconfig:"SALES_DB_PASSWORD"`
	LegacyName     string `envconfig:"SALES_DB_NAME"`
	LegacySSLMode  string `envconfig:"SALES_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SALES_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SALES_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SALES_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SALES_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	// SlowQueryThreshold logs statements slower than this at warn; 0 disables.
	SlowQueryThreshold time.Duration `envconfig:"SALES_DB_SLOW_QUERY_THRESHOLD" default:"200ms"`
}

// IsSQLite reports whether the configured driver is sqlite.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"SALES_REDIS_URL"`
	Address      string        `envconfig:"SALES_REDIS_ADDR"`
	Password     string        `envconfig:"SALES_REDIS_PASSWORD"`
	DB           int           `envconfig:"SALES_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SALES_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SALES_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SALES_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SALES_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SALES_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SALES_AUTO_MIGRATE" default:"false"`
	// MemoryCache keeps report aggregates in process memory instead of redis.
	MemoryCache bool `envconfig:"SALES_REPORT_MEMORY_CACHE" default:"false"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"SALES_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"SALES_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	ReportEmailTopic        string `envconfig:"SALES_PUBSUB_REPORT_EMAIL_TOPIC" default:"sc-report-emails"`
	ReportEmailSubscription string `envconfig:"SALES_PUBSUB_REPORT_EMAIL_SUBSCRIPTION" default:"sc-report-emails-mailer"`
}

type ReportsConfig struct {
	CacheTTL       time.Duration `envconfig:"SALES_REPORT_CACHE_TTL" default:"1h"`
	AdminEmail     string        `envconfig:"SALES_REPORT_ADMIN_EMAIL"`
	QueryTimeout   time.Duration `envconfig:"SALES_REPORT_QUERY_TIMEOUT" default:"10s"`
	EnqueueTimeout time.Duration `envconfig:"SALES_REPORT_ENQUEUE_TIMEOUT" default:"10s"`
	CycleTimeout   time.Duration `envconfig:"SALES_REPORT_CYCLE_TIMEOUT" default:"5m"`
	CronInterval   time.Duration `envconfig:"SALES_REPORT_CRON_INTERVAL" default:"24h"`
	// CronAt is the offset from local midnight of the daily run; 0 runs on start.
	CronAt         time.Duration `envconfig:"SALES_REPORT_CRON_AT" default:"23h"`
	LockTTL        time.Duration `envconfig:"SALES_REPORT_LOCK_TTL" default:"10m"`
}

type MailConfig struct {
	Host     string `envconfig:"SALES_MAIL_HOST" default:"localhost"`
	Port     int    `envconfig:"SALES_MAIL_PORT" default:"1025"`
	Username string `envconfig:"SALES_MAIL_USERNAME"`
	Password string `envconfig:"SALES_MAIL_PASSWORD"`
	From     string `envconfig:"SALES_MAIL_FROM" default:"relatorios@vendas.local"`
	UseTLS   bool   `envconfig:"SALES_MAIL_USE_TLS" default:"false"`
}

// Address returns host:port for the SMTP relay.
func (m MailConfig) Address() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}

type DeliveryConfig struct {
	MaxAttempts    int           `envconfig:"SALES_DELIVERY_MAX_ATTEMPTS" default:"3"`
	RetryBackoff   time.Duration `envconfig:"SALES_DELIVERY_RETRY_BACKOFF" default:"60s"`
	SendTimeout    time.Duration `envconfig:"SALES_DELIVERY_SEND_TIMEOUT" default:"30s"`
	IdempotencyTTL time.Duration `envconfig:"SALES_DELIVERY_IDEMPOTENCY_TTL" default:"72h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required when %s=%s", EnvDBDSN, EnvDBDriver, DBDriverSQLite)
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
