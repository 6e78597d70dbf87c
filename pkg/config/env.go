package config

const (
	EnvPrefix = "SALES"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv    = "SALES_APP_ENV"
	EnvPort      = "SALES_APP_PORT"
	EnvLogLevel  = "SALES_LOG_LEVEL"
	EnvLogFormat = "SALES_LOG_FORMAT"

	EnvDBDSN    = "SALES_DB_DSN"
	EnvDBDriver = "SALES_DB_DRIVER"
	EnvDBHost   = "SALES_DB_HOST"
	EnvDBPort   = "SALES_DB_PORT"
	EnvDBUser   = "SALES_DB_USER"
	EnvDBPass   = "SALES_DB_PASSWORD"
	EnvDBName   = "SALES_DB_NAME"

	EnvRedisURL = "SALES_REDIS_URL"

	EnvGCPProjectID = "SALES_GCP_PROJECT_ID"

	EnvPubSubReportTopic = "SALES_PUBSUB_REPORT_EMAIL_TOPIC"
	EnvPubSubReportSub   = "SALES_PUBSUB_REPORT_EMAIL_SUBSCRIPTION"

	EnvReportCacheTTL   = "SALES_REPORT_CACHE_TTL"
	EnvReportAdminEmail = "SALES_REPORT_ADMIN_EMAIL"

	EnvMailHost = "SALES_MAIL_HOST"
	EnvMailPort = "SALES_MAIL_PORT"

	EnvDeliveryMaxAttempts = "SALES_DELIVERY_MAX_ATTEMPTS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
