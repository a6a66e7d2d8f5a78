package config

const EnvPrefix = "PAYMENTS"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	EnvAppEnv   = "PAYMENTS_APP_ENV"
	EnvPort     = "PAYMENTS_APP_PORT"
	EnvLogLevel = "PAYMENTS_LOG_LEVEL"

	EnvDBDSN  = "PAYMENTS_DB_DSN"
	EnvDBHost = "PAYMENTS_DB_HOST"
	EnvDBUser = "PAYMENTS_DB_USER"
	EnvDBName = "PAYMENTS_DB_NAME"

	EnvRedisURL  = "PAYMENTS_REDIS_URL"
	EnvUseSQLite = "PAYMENTS_USE_SQLITE"

	EnvGatewayApprovalLimit = "PAYMENTS_GATEWAY_APPROVAL_LIMIT"
	EnvOrderLockTTL         = "PAYMENTS_ORDER_LOCK_TTL"

	EnvGCPProjectID        = "PAYMENTS_GCP_PROJECT_ID"
	EnvPubSubPaymentsTopic = "PAYMENTS_PUBSUB_PAYMENTS_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
