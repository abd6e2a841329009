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
	DB           DBConfig
	Redis        RedisConfig
	Identity     IdentityConfig
	Webhook      WebhookConfig
	ERP          ERPConfig
	Cart         CartConfig
	Toast        ToastConfig
	CORS         CORSConfig
	FeatureFlags FeatureFlagsConfig
	RateLimit    RateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"OSKAZ_APP_ENV" required:"true"`
	Port         string `envconfig:"OSKAZ_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"OSKAZ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"OSKAZ_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"OSKAZ_DB_DSN"`
	Driver string `envconfig:"OSKAZ_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"OSKAZ_DB_HOST"`
	LegacyPort     int    `envconfig:"OSKAZ_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"OSKAZ_DB_USER"`
	LegacyPassword string `envconfig:"OSKAZ_DB_PASSWORD"`
	LegacyName     string `envconfig:"OSKAZ_DB_NAME"`
	LegacySSLMode  string `envconfig:"OSKAZ_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"OSKAZ_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"OSKAZ_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"OSKAZ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"OSKAZ_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"OSKAZ_REDIS_URL" required:"true"`
	Address      string        `envconfig:"OSKAZ_REDIS_ADDR"`
	Password     string        `envconfig:"OSKAZ_REDIS_PASSWORD"`
	DB           int           `envconfig:"OSKAZ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"OSKAZ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"OSKAZ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"OSKAZ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"OSKAZ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"OSKAZ_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// IdentityConfig describes the third-party identity provider whose session
// tokens this service accepts.
type IdentityConfig struct {
	JWTSecret string `envconfig:"OSKAZ_IDENTITY_JWT_SECRET" required:"true"`
	Issuer    string `envconfig:"OSKAZ_IDENTITY_ISSUER"`
}

// WebhookConfig covers the signed-event receiver.
type WebhookConfig struct {
	SigningSecret  string        `envconfig:"OSKAZ_WEBHOOK_SIGNING_SECRET" required:"true"`
	IdempotencyTTL time.Duration `envconfig:"OSKAZ_WEBHOOK_IDEMPOTENCY_TTL" default:"720h"`
}

// ERPConfig points at the upstream document store.
type ERPConfig struct {
	BaseURL    string        `envconfig:"OSKAZ_ERP_BASE_URL" required:"true"`
	APIKey     string        `envconfig:"OSKAZ_ERP_API_KEY" required:"true"`
	APISecret  string        `envconfig:"OSKAZ_ERP_API_SECRET" required:"true"`
	Timeout    time.Duration `envconfig:"OSKAZ_ERP_TIMEOUT" default:"15s"`
	MaxRetries uint64        `envconfig:"OSKAZ_ERP_MAX_RETRIES" default:"3"`
}

// CartConfig controls cart session handling and snapshot durability.
type CartConfig struct {
	SnapshotBackend string        `envconfig:"OSKAZ_CART_SNAPSHOT_BACKEND" default:"redis"`
	SnapshotDir     string        `envconfig:"OSKAZ_CART_SNAPSHOT_DIR" default:"/var/lib/oskaz/carts"`
	SessionCookie   string        `envconfig:"OSKAZ_CART_SESSION_COOKIE" default:"oskaz_cart_sid"`
	SessionTTL      time.Duration `envconfig:"OSKAZ_CART_SESSION_TTL" default:"720h"`
	IdleEviction    time.Duration `envconfig:"OSKAZ_CART_IDLE_EVICTION" default:"1h"`
}

type ToastConfig struct {
	VisibleFor    time.Duration `envconfig:"OSKAZ_TOAST_VISIBLE_FOR" default:"5s"`
	SweepInterval time.Duration `envconfig:"OSKAZ_TOAST_SWEEP_INTERVAL" default:"1s"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"OSKAZ_CORS_ALLOWED_ORIGINS" default:"*"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"OSKAZ_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"OSKAZ_AUTO_MIGRATE" default:"false"`
}

type RateLimitConfig struct {
	WebhookWindow time.Duration `envconfig:"OSKAZ_RATE_LIMIT_WEBHOOK_WINDOW" default:"1m"`
	WebhookLimit  int64         `envconfig:"OSKAZ_RATE_LIMIT_WEBHOOK_LIMIT" default:"120"`
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
		Path:   "/" + db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
