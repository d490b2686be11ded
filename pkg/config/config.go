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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	Workflow     WorkflowConfig
	Cron         CronConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	CORS         CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Workflow.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"GUARDFORCE_APP_ENV" required:"true"`
	Port         string `envconfig:"GUARDFORCE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GUARDFORCE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GUARDFORCE_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"GUARDFORCE_LOG_FORMAT" default:"json"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"GUARDFORCE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GUARDFORCE_DB_DSN"`
	Driver string `envconfig:"GUARDFORCE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GUARDFORCE_DB_HOST"`
	LegacyPort     int    `envconfig:"GUARDFORCE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GUARDFORCE_DB_USER"`
	LegacyPassword string `envconfig:"GUARDFORCE_DB_PASSWORD"`
	LegacyName     string `envconfig:"GUARDFORCE_DB_NAME"`
	LegacySSLMode  string `envconfig:"GUARDFORCE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GUARDFORCE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GUARDFORCE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GUARDFORCE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GUARDFORCE_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"GUARDFORCE_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GUARDFORCE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GUARDFORCE_REDIS_ADDR"`
	Password     string        `envconfig:"GUARDFORCE_REDIS_PASSWORD"`
	DB           int           `envconfig:"GUARDFORCE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GUARDFORCE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GUARDFORCE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GUARDFORCE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GUARDFORCE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GUARDFORCE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GUARDFORCE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GUARDFORCE_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"GUARDFORCE_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

// WorkflowConfig tunes the urgency monitor and board metrics.
type WorkflowConfig struct {
	UrgencyLookahead  time.Duration `envconfig:"GUARDFORCE_WORKFLOW_URGENCY_LOOKAHEAD" default:"24h"`
	RiskWindow        time.Duration `envconfig:"GUARDFORCE_WORKFLOW_RISK_WINDOW" default:"2160h"`
	NoShowThreshold   float64       `envconfig:"GUARDFORCE_WORKFLOW_NO_SHOW_THRESHOLD" default:"0.7"`
	BottleneckRatio   float64       `envconfig:"GUARDFORCE_WORKFLOW_BOTTLENECK_RATIO" default:"0.2"`
	CloneOffset       time.Duration `envconfig:"GUARDFORCE_WORKFLOW_CLONE_OFFSET" default:"168h"`
	MaxBulkShifts     int           `envconfig:"GUARDFORCE_WORKFLOW_MAX_BULK_SHIFTS" default:"200"`
	BoardShiftLimit   int           `envconfig:"GUARDFORCE_WORKFLOW_BOARD_SHIFT_LIMIT" default:"500"`
	ResolvedAlertsTTL time.Duration `envconfig:"GUARDFORCE_WORKFLOW_RESOLVED_ALERTS_TTL" default:"720h"`
}

func (w WorkflowConfig) validate() error {
	if w.UrgencyLookahead <= 0 {
		return fmt.Errorf("%s must be positive", EnvWorkflowLookahead)
	}
	if w.NoShowThreshold < 0 || w.NoShowThreshold > 1 {
		return fmt.Errorf("%s must be within [0,1]", EnvWorkflowNoShowThreshold)
	}
	if w.BottleneckRatio <= 0 || w.BottleneckRatio >= 1 {
		return fmt.Errorf("%s must be within (0,1)", EnvWorkflowBottleneckRatio)
	}
	return nil
}

type CronConfig struct {
	Interval time.Duration `envconfig:"GUARDFORCE_CRON_INTERVAL" default:"15m"`
	LockTTL  time.Duration `envconfig:"GUARDFORCE_CRON_LOCK_TTL" default:"10m"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"GUARDFORCE_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"GUARDFORCE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"GUARDFORCE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"GUARDFORCE_PUBSUB_NOTIFICATION_TOPIC" default:"gf-notification-events"`
	NotificationSubscription string `envconfig:"GUARDFORCE_PUBSUB_NOTIFICATION_SUBSCRIPTION"`
	WorkflowTopic            string `envconfig:"GUARDFORCE_PUBSUB_WORKFLOW_TOPIC" default:"gf-workflow-events"`
	WorkflowSubscription     string `envconfig:"GUARDFORCE_PUBSUB_WORKFLOW_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"GUARDFORCE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"GUARDFORCE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"GUARDFORCE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"GUARDFORCE_OUTBOX_RETENTION" default:"720h"`
	DLQRetention   time.Duration `envconfig:"GUARDFORCE_OUTBOX_DLQ_RETENTION" default:"2160h"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"GUARDFORCE_CORS_ALLOWED_ORIGINS"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
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
