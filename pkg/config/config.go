package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	Service  ServiceConfig
	DB       DBConfig
	Redis    RedisConfig
	Square   SquareConfig
	Launch   LaunchConfig
	Cron     CronConfig
	Webhooks WebhookConfig
	Features FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Launch.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LAUNCHBOARD_APP_ENV" required:"true"`
	Port         string `envconfig:"LAUNCHBOARD_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"LAUNCHBOARD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LAUNCHBOARD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"LAUNCHBOARD_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN string `envconfig:"LAUNCHBOARD_DB_DSN"`

	LegacyHost     string `envconfig:"LAUNCHBOARD_DB_HOST"`
	LegacyPort     int    `envconfig:"LAUNCHBOARD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LAUNCHBOARD_DB_USER"`
	LegacyPassword string `envconfig:"LAUNCHBOARD_DB_PASSWORD"`
	LegacyName     string `envconfig:"LAUNCHBOARD_DB_NAME"`
	LegacySSLMode  string `envconfig:"LAUNCHBOARD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LAUNCHBOARD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LAUNCHBOARD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LAUNCHBOARD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LAUNCHBOARD_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQueryThreshold logs statements slower than this at warn; zero disables it.
	SlowQueryThreshold time.Duration `envconfig:"LAUNCHBOARD_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LAUNCHBOARD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LAUNCHBOARD_REDIS_ADDR"`
	Password     string        `envconfig:"LAUNCHBOARD_REDIS_PASSWORD"`
	DB           int           `envconfig:"LAUNCHBOARD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LAUNCHBOARD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LAUNCHBOARD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LAUNCHBOARD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LAUNCHBOARD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LAUNCHBOARD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type SquareConfig struct {
	AccessToken   string `envconfig:"LAUNCHBOARD_SQUARE_ACCESS_TOKEN"`
	WebhookSecret string `envconfig:"LAUNCHBOARD_SQUARE_WEBHOOK_SECRET" required:"true"`
	Env           string `envconfig:"LAUNCHBOARD_SQUARE_ENV" default:"sandbox"`
	VerifyPayment bool   `envconfig:"LAUNCHBOARD_SQUARE_VERIFY_PAYMENT" default:"true"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

// LaunchConfig controls launch slot assignment.
type LaunchConfig struct {
	CapacityPerWeek int    `envconfig:"LAUNCHBOARD_LAUNCH_CAPACITY_PER_WEEK" default:"1"`
	Timezone        string `envconfig:"LAUNCHBOARD_LAUNCH_TIMEZONE" default:"UTC"`
	SearchDays      int    `envconfig:"LAUNCHBOARD_LAUNCH_SEARCH_DAYS" default:"365"`
}

// Location resolves the reference time zone used for calendar weeks and archive periods.
func (l LaunchConfig) Location() (*time.Location, error) {
	name := strings.TrimSpace(l.Timezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", EnvLaunchTimezone, name, err)
	}
	return loc, nil
}

type CronConfig struct {
	Interval time.Duration `envconfig:"LAUNCHBOARD_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"LAUNCHBOARD_CRON_LOCK_TTL" default:"55m"`
}

type WebhookConfig struct {
	IdempotencyTTL time.Duration `envconfig:"LAUNCHBOARD_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LAUNCHBOARD_AUTO_MIGRATE" default:"false"`
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
