package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	HTTP          HTTPConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	Outbox        OutboxConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Outbox.validate(cfg.GCP); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"RETROSTORE_APP_ENV" required:"true"`
	Port         string `envconfig:"RETROSTORE_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"RETROSTORE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"RETROSTORE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"RETROSTORE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN string `envconfig:"RETROSTORE_DB_DSN"`

	Host     string `envconfig:"RETROSTORE_DB_HOST"`
	Port     int    `envconfig:"RETROSTORE_DB_PORT" default:"5432"`
	User     string `envconfig:"RETROSTORE_DB_USER"`
	Password string `envconfig:"RETROSTORE_DB_PASSWORD"`
	Name     string `envconfig:"RETROSTORE_DB_NAME"`
	SSLMode  string `envconfig:"RETROSTORE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"RETROSTORE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"RETROSTORE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"RETROSTORE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"RETROSTORE_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQueryThreshold logs statements slower than this at warn; zero disables it.
	SlowQueryThreshold time.Duration `envconfig:"RETROSTORE_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"RETROSTORE_REDIS_URL"`
	Address      string        `envconfig:"RETROSTORE_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"RETROSTORE_REDIS_PASSWORD"`
	DB           int           `envconfig:"RETROSTORE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"RETROSTORE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"RETROSTORE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"RETROSTORE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"RETROSTORE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"RETROSTORE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"RETROSTORE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"RETROSTORE_JWT_ISSUER" default:"retrostore"`
	ExpirationMinutes      int    `envconfig:"RETROSTORE_JWT_EXPIRATION_MINUTES" default:"15"`
	RefreshTokenTTLMinutes int    `envconfig:"RETROSTORE_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"RETROSTORE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"RETROSTORE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"RETROSTORE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"RETROSTORE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"RETROSTORE_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow             time.Duration `envconfig:"RETROSTORE_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginIdentifierLimit    int           `envconfig:"RETROSTORE_AUTH_RATE_LIMIT_LOGIN_IDENTIFIER_LIMIT" default:"5"`
	LoginIPLimit            int           `envconfig:"RETROSTORE_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow          time.Duration `envconfig:"RETROSTORE_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterIdentifierLimit int           `envconfig:"RETROSTORE_AUTH_RATE_LIMIT_REGISTER_IDENTIFIER_LIMIT" default:"3"`
	RegisterIPLimit         int           `envconfig:"RETROSTORE_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"RETROSTORE_AUTO_MIGRATE" default:"false"`
}

type HTTPConfig struct {
	ReadTimeout    time.Duration `envconfig:"RETROSTORE_HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout   time.Duration `envconfig:"RETROSTORE_HTTP_WRITE_TIMEOUT" default:"15s"`
	IdleTimeout    time.Duration `envconfig:"RETROSTORE_HTTP_IDLE_TIMEOUT" default:"60s"`
	AllowedOrigins []string      `envconfig:"RETROSTORE_HTTP_ALLOWED_ORIGINS" default:"*"`
}

type EventingConfig struct {
	OrdersIdempotencyTTL time.Duration `envconfig:"RETROSTORE_IDEMPOTENCY_ORDERS_TTL" default:"168h"`
	CartIdempotencyTTL   time.Duration `envconfig:"RETROSTORE_IDEMPOTENCY_CART_TTL" default:"24h"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"RETROSTORE_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"RETROSTORE_GCP_CREDENTIALS_JSON"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"RETROSTORE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"RETROSTORE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"RETROSTORE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	DedupeTTL      time.Duration `envconfig:"RETROSTORE_OUTBOX_DEDUPE_TTL" default:"24h"`
	Sink           string        `envconfig:"RETROSTORE_OUTBOX_SINK" default:"redis"`
	OrdersTopic    string        `envconfig:"RETROSTORE_OUTBOX_ORDERS_TOPIC" default:"retrostore.orders"`
	RatingsTopic   string        `envconfig:"RETROSTORE_OUTBOX_RATINGS_TOPIC" default:"retrostore.ratings"`
}

// UsesGCP reports whether events are published to Google Cloud Pub/Sub.
func (o OutboxConfig) UsesGCP() bool {
	return strings.EqualFold(strings.TrimSpace(o.Sink), OutboxSinkGCP)
}

func (o OutboxConfig) validate(gcp GCPConfig) error {
	switch strings.ToLower(strings.TrimSpace(o.Sink)) {
	case OutboxSinkRedis:
		return nil
	case OutboxSinkGCP:
		if strings.TrimSpace(gcp.ProjectID) == "" {
			return fmt.Errorf("%s is required when %s=%s", EnvGCPProjectID, EnvOutboxSink, OutboxSinkGCP)
		}
		return nil
	default:
		return fmt.Errorf("%s must be %q or %q", EnvOutboxSink, OutboxSinkRedis, OutboxSinkGCP)
	}
}

type CronConfig struct {
	Interval             time.Duration `envconfig:"RETROSTORE_CRON_INTERVAL" default:"1h"`
	CartTTLDays          int           `envconfig:"RETROSTORE_CRON_CART_TTL_DAYS" default:"30"`
	OutboxRetentionDays  int           `envconfig:"RETROSTORE_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
	RatingReconcileBatch int           `envconfig:"RETROSTORE_CRON_RATING_RECONCILE_BATCH" default:"200"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
