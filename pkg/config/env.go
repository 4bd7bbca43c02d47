package config

// EnvPrefix namespaces every variable read by Load.
const EnvPrefix = "RETROSTORE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	OutboxSinkRedis = "redis"
	OutboxSinkGCP   = "gcp"
)

const (
	EnvAppEnv                 = "RETROSTORE_APP_ENV"
	EnvPort                   = "RETROSTORE_APP_PORT"
	EnvLogLevel               = "RETROSTORE_LOG_LEVEL"
	EnvDBDSN                  = "RETROSTORE_DB_DSN"
	EnvDBHost                 = "RETROSTORE_DB_HOST"
	EnvDBPort                 = "RETROSTORE_DB_PORT"
	EnvDBUser                 = "RETROSTORE_DB_USER"
	EnvDBPassword             = "RETROSTORE_DB_PASSWORD"
	EnvDBName                 = "RETROSTORE_DB_NAME"
	EnvRedisURL               = "RETROSTORE_REDIS_URL"
	EnvRedisAddr              = "RETROSTORE_REDIS_ADDR"
	EnvJWTSecret              = "RETROSTORE_JWT_SECRET"
	EnvJWTIssuer              = "RETROSTORE_JWT_ISSUER"
	EnvJWTExpMins             = "RETROSTORE_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes = "RETROSTORE_REFRESH_TOKEN_TTL_MINUTES"
	EnvAutoMigrate            = "RETROSTORE_AUTO_MIGRATE"
	EnvGCPProjectID           = "RETROSTORE_GCP_PROJECT_ID"
	EnvOutboxSink             = "RETROSTORE_OUTBOX_SINK"
	EnvCronCartTTLDays        = "RETROSTORE_CRON_CART_TTL_DAYS"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
