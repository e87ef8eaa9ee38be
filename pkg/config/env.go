package config

// EnvPrefix is handed to envconfig; every field below spells out its full name.
const EnvPrefix = "ZCOLLABZ"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	defaultSQLiteDSN = "file:zcollabz.db?cache=shared&_foreign_keys=on"
)

const (
	EnvAppEnv       = "ZCOLLABZ_APP_ENV"
	EnvPort         = "ZCOLLABZ_APP_PORT"
	EnvLogLevel     = "ZCOLLABZ_LOG_LEVEL"
	EnvCORSOrigins  = "ZCOLLABZ_CORS_ORIGINS"
	EnvDBDSN        = "ZCOLLABZ_DB_DSN"
	EnvDBHost       = "ZCOLLABZ_DB_HOST"
	EnvDBPort       = "ZCOLLABZ_DB_PORT"
	EnvDBUser       = "ZCOLLABZ_DB_USER"
	EnvDBPassword   = "ZCOLLABZ_DB_PASSWORD"
	EnvDBName       = "ZCOLLABZ_DB_NAME"
	EnvDBSSLMode    = "ZCOLLABZ_DB_SSLMODE"
	EnvRedisURL     = "ZCOLLABZ_REDIS_URL"
	EnvUseSQLite    = "ZCOLLABZ_USE_SQLITE"
	EnvAutoMigrate  = "ZCOLLABZ_AUTO_MIGRATE"
	EnvGCPProjectID = "ZCOLLABZ_GCP_PROJECT_ID"
	EnvGCSBucket    = "ZCOLLABZ_GCS_BUCKET_NAME"
	EnvGCSPublicURL = "ZCOLLABZ_GCS_PUBLIC_BASE_URL"
	EnvGCSExpiry    = "ZCOLLABZ_GCS_DOWNLOAD_URL_EXPIRY"
	EnvStripeKey    = "ZCOLLABZ_STRIPE_API_KEY"
	EnvStripeSecret = "ZCOLLABZ_STRIPE_WEBHOOK_SECRET"
	EnvStripeEnv    = "ZCOLLABZ_STRIPE_ENV"
	EnvSendgridKey  = "ZCOLLABZ_SENDGRID_API_KEY"
	EnvSendgridFrom = "ZCOLLABZ_SENDGRID_FROM_EMAIL"
	EnvCompanyName  = "ZCOLLABZ_COMPANY_NAME"
	EnvCurrency     = "ZCOLLABZ_INVOICE_CURRENCY"
	EnvPDFEngine    = "ZCOLLABZ_PDF_ENGINE"
	EnvPaymentTopic = "ZCOLLABZ_PUBSUB_PAYMENTS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
