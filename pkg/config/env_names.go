package config

// EnvPrefix is the envconfig prefix for all variables.
const EnvPrefix = "POA"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Canonical env var names, shared between Load, ensureDSN and tests.
const (
	EnvAppEnv     = "POA_APP_ENV"
	EnvPort       = "POA_APP_PORT"
	EnvDBDSN      = "POA_DB_DSN"
	EnvDBHost     = "POA_DB_HOST"
	EnvDBUser     = "POA_DB_USER"
	EnvDBName     = "POA_DB_NAME"
	EnvRedisURL   = "POA_REDIS_URL"
	EnvJWTSecret  = "POA_JWT_SECRET"
	EnvJWTIssuer  = "POA_JWT_ISSUER"
	EnvJWTExpMins = "POA_JWT_EXPIRATION_MINUTES"
	EnvGCSBucket  = "POA_GCS_BUCKET_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
