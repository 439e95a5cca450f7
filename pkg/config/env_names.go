package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "DFRCHAT"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv  = "DFRCHAT_APP_ENV"
	EnvAppPort = "DFRCHAT_APP_PORT"

	EnvDBDSN  = "DFRCHAT_DB_DSN"
	EnvDBHost = "DFRCHAT_DB_HOST"
	EnvDBUser = "DFRCHAT_DB_USER"
	EnvDBName = "DFRCHAT_DB_NAME"

	EnvRedisURL  = "DFRCHAT_REDIS_URL"
	EnvJWTSecret = "DFRCHAT_JWT_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
