package config

// EnvPrefix is passed to envconfig; every field carries an explicit name so it is informational only.
const EnvPrefix = "LAUNCHBOARD"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv            = "LAUNCHBOARD_APP_ENV"
	EnvPort              = "LAUNCHBOARD_APP_PORT"
	EnvDBDSN             = "LAUNCHBOARD_DB_DSN"
	EnvDBHost            = "LAUNCHBOARD_DB_HOST"
	EnvDBUser            = "LAUNCHBOARD_DB_USER"
	EnvDBName            = "LAUNCHBOARD_DB_NAME"
	EnvRedisURL          = "LAUNCHBOARD_REDIS_URL"
	EnvSquareSecret      = "LAUNCHBOARD_SQUARE_WEBHOOK_SECRET"
	EnvLaunchCapacity    = "LAUNCHBOARD_LAUNCH_CAPACITY_PER_WEEK"
	EnvLaunchTimezone    = "LAUNCHBOARD_LAUNCH_TIMEZONE"
	EnvCronInterval      = "LAUNCHBOARD_CRON_INTERVAL"
	EnvWebhookIdempotent = "LAUNCHBOARD_WEBHOOK_IDEMPOTENCY_TTL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
