package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Stripe        StripeConfig
	Checkout      CheckoutConfig
	Orders        OrdersConfig
	Realtime      RealtimeConfig
	Outbox        OutboxConfig
	Cron          CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Checkout.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PIZZERIA_APP_ENV" required:"true"`
	Port         string `envconfig:"PIZZERIA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PIZZERIA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PIZZERIA_LOG_WARN_STACK" default:"false"`
	CORSOrigins  string `envconfig:"PIZZERIA_CORS_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	origins := []string{}
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

type ServiceConfig struct {
	Kind string `envconfig:"PIZZERIA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PIZZERIA_DB_DSN"`
	Driver string `envconfig:"PIZZERIA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PIZZERIA_DB_HOST"`
	LegacyPort     int    `envconfig:"PIZZERIA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PIZZERIA_DB_USER"`
	LegacyPassword string `envconfig:"PIZZERIA_DB_PASSWORD"`
	LegacyName     string `envconfig:"PIZZERIA_DB_NAME"`
	LegacySSLMode  string `envconfig:"PIZZERIA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PIZZERIA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PIZZERIA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PIZZERIA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PIZZERIA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PIZZERIA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PIZZERIA_REDIS_ADDR"`
	Password     string        `envconfig:"PIZZERIA_REDIS_PASSWORD"`
	DB           int           `envconfig:"PIZZERIA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PIZZERIA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PIZZERIA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PIZZERIA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PIZZERIA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PIZZERIA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"PIZZERIA_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"PIZZERIA_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"PIZZERIA_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"PIZZERIA_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PIZZERIA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PIZZERIA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PIZZERIA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PIZZERIA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PIZZERIA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PIZZERIA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"PIZZERIA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PIZZERIA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"PIZZERIA_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"PIZZERIA_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"PIZZERIA_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PIZZERIA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PIZZERIA_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	WebhookReplayTTL time.Duration `envconfig:"PIZZERIA_EVENTING_WEBHOOK_REPLAY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PIZZERIA_GCP_PROJECT_ID"`
	ApplicationCredentials string `envconfig:"PIZZERIA_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"PIZZERIA_PUBSUB_DOMAIN_TOPIC" default:"pz-domain-events"`
	DomainSubscription string `envconfig:"PIZZERIA_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type StripeConfig struct {
	APIKey string `envconfig:"PIZZERIA_STRIPE_API_KEY"`
	Secret string `envconfig:"PIZZERIA_STRIPE_SECRET"`
	Env    string `envconfig:"PIZZERIA_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

// CheckoutConfig carries the redirect URLs handed to the payment gateway and
// the pricing policy knobs.
type CheckoutConfig struct {
	SuccessURL            string        `envconfig:"PIZZERIA_CHECKOUT_SUCCESS_URL" default:"http://localhost:3000/orders/{ORDER_ID}?paid=1"`
	CancelURL             string        `envconfig:"PIZZERIA_CHECKOUT_CANCEL_URL" default:"http://localhost:3000/orders/{ORDER_ID}?cancelled=1"`
	Currency              string        `envconfig:"PIZZERIA_CHECKOUT_CURRENCY" default:"usd"`
	FreeDeliveryThreshold string        `envconfig:"PIZZERIA_CHECKOUT_FREE_DELIVERY_THRESHOLD" default:"25"`
	DeliveryFee           string        `envconfig:"PIZZERIA_CHECKOUT_DELIVERY_FEE" default:"5"`
	TaxRate               string        `envconfig:"PIZZERIA_CHECKOUT_TAX_RATE" default:"0.08"`
	CashMinimum           string        `envconfig:"PIZZERIA_CHECKOUT_COD_MINIMUM" default:"10"`
	DeliveryETA           time.Duration `envconfig:"PIZZERIA_CHECKOUT_DELIVERY_ETA" default:"45m"`
}

func (c CheckoutConfig) validate() error {
	for name, raw := range map[string]string{
		EnvCheckoutFreeDeliveryThreshold: c.FreeDeliveryThreshold,
		EnvCheckoutDeliveryFee:           c.DeliveryFee,
		EnvCheckoutTaxRate:               c.TaxRate,
		EnvCheckoutCODMinimum:            c.CashMinimum,
	} {
		value, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("%s must be a decimal: %w", name, err)
		}
		if value.IsNegative() {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	if c.DeliveryETA <= 0 {
		return fmt.Errorf("%s must be positive", EnvCheckoutDeliveryETA)
	}
	return nil
}

// Decimal parses one of the checkout money values; Load has already validated them.
func (c CheckoutConfig) Decimal(raw string) decimal.Decimal {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return value
}

type OrdersConfig struct {
	EnforceStatusTransitions bool          `envconfig:"PIZZERIA_ORDERS_ENFORCE_TRANSITIONS" default:"false"`
	NotifyTimeout            time.Duration `envconfig:"PIZZERIA_ORDERS_NOTIFY_TIMEOUT" default:"5s"`
}

type RealtimeConfig struct {
	Channel      string        `envconfig:"PIZZERIA_REALTIME_CHANNEL" default:"pz:order-status"`
	PingInterval time.Duration `envconfig:"PIZZERIA_REALTIME_PING_INTERVAL" default:"30s"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PIZZERIA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PIZZERIA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PIZZERIA_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"PIZZERIA_OUTBOX_RETENTION_DAYS" default:"30"`
}

type CronConfig struct {
	Interval   time.Duration `envconfig:"PIZZERIA_CRON_INTERVAL" default:"5m"`
	LockTTL    time.Duration `envconfig:"PIZZERIA_CRON_LOCK_TTL" default:"4m"`
	PaymentTTL time.Duration `envconfig:"PIZZERIA_CRON_PAYMENT_TTL" default:"2h"`
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
