package config

const (
	EnvPrefix = "GUARDFORCE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "GUARDFORCE_APP_ENV"
	EnvPort     = "GUARDFORCE_APP_PORT"
	EnvLogLevel = "GUARDFORCE_LOG_LEVEL"

	EnvDBDSN  = "GUARDFORCE_DB_DSN"
	EnvDBHost = "GUARDFORCE_DB_HOST"
	EnvDBUser = "GUARDFORCE_DB_USER"
	EnvDBName = "GUARDFORCE_DB_NAME"

	EnvRedisURL = "GUARDFORCE_REDIS_URL"

	EnvWorkflowLookahead       = "GUARDFORCE_WORKFLOW_URGENCY_LOOKAHEAD"
	EnvWorkflowNoShowThreshold = "GUARDFORCE_WORKFLOW_NO_SHOW_THRESHOLD"
	EnvWorkflowBottleneckRatio = "GUARDFORCE_WORKFLOW_BOTTLENECK_RATIO"

	EnvPubSubNotificationTopic = "GUARDFORCE_PUBSUB_NOTIFICATION_TOPIC"
	EnvGCPProjectID            = "GUARDFORCE_GCP_PROJECT_ID"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
