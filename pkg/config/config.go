package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/higujral/zcollabz/pkg/enums"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	GCS          GCSConfig
	Stripe       StripeConfig
	Sendgrid     SendgridConfig
	Invoice      InvoiceConfig
	PDF          PDFConfig
	PubSub       PubSubConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	currency, err := enums.ParseCurrency(cfg.Invoice.Currency)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", EnvCurrency, err)
	}
	cfg.Invoice.Currency = currency.String()
	return &cfg, nil
}

// MigrationConfig is the subset needed by the migration binary, which must
// run without payment or storage credentials.
type MigrationConfig struct {
	App          AppConfig
	DB           DBConfig
	FeatureFlags FeatureFlagsConfig
}

func LoadMigration() (*MigrationConfig, error) {
	var cfg MigrationConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"ZCOLLABZ_APP_ENV" required:"true"`
	Port         string   `envconfig:"ZCOLLABZ_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"ZCOLLABZ_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"ZCOLLABZ_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"ZCOLLABZ_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ZCOLLABZ_DB_DSN"`
	Driver string `envconfig:"ZCOLLABZ_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ZCOLLABZ_DB_HOST"`
	LegacyPort     int    `envconfig:"ZCOLLABZ_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ZCOLLABZ_DB_USER"`
	LegacyPassword string `envconfig:"ZCOLLABZ_DB_PASSWORD"`
	LegacyName     string `envconfig:"ZCOLLABZ_DB_NAME"`
	LegacySSLMode  string `envconfig:"ZCOLLABZ_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ZCOLLABZ_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"ZCOLLABZ_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"ZCOLLABZ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ZCOLLABZ_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// RedisConfig is optional. An empty URL and address disables the
// Redis-backed idempotency features.
type RedisConfig struct {
	URL          string        `envconfig:"ZCOLLABZ_REDIS_URL"`
	Address      string        `envconfig:"ZCOLLABZ_REDIS_ADDR"`
	Password     string        `envconfig:"ZCOLLABZ_REDIS_PASSWORD"`
	DB           int           `envconfig:"ZCOLLABZ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ZCOLLABZ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ZCOLLABZ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ZCOLLABZ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ZCOLLABZ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ZCOLLABZ_REDIS_WRITE_TIMEOUT" default:"5s"`
	EventTTL     time.Duration `envconfig:"ZCOLLABZ_REDIS_WEBHOOK_EVENT_TTL" default:"72h"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ZCOLLABZ_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ZCOLLABZ_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ZCOLLABZ_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"ZCOLLABZ_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ZCOLLABZ_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"ZCOLLABZ_GCS_BUCKET_NAME" required:"true"`
	PublicBaseURL     string        `envconfig:"ZCOLLABZ_GCS_PUBLIC_BASE_URL"`
	DownloadURLExpiry time.Duration `envconfig:"ZCOLLABZ_GCS_DOWNLOAD_URL_EXPIRY" default:"168h"`
}

type StripeConfig struct {
	APIKey string `envconfig:"ZCOLLABZ_STRIPE_API_KEY" required:"true"`
	Secret string `envconfig:"ZCOLLABZ_STRIPE_WEBHOOK_SECRET" required:"true"`
	Env    string `envconfig:"ZCOLLABZ_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type SendgridConfig struct {
	APIKey      string `envconfig:"ZCOLLABZ_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"ZCOLLABZ_SENDGRID_FROM_EMAIL"`
	FromName    string `envconfig:"ZCOLLABZ_SENDGRID_FROM_NAME" default:"ZCollabz"`
}

// Enabled is true only when both the key and the sender are present.
func (s SendgridConfig) Enabled() bool {
	return strings.TrimSpace(s.APIKey) != "" && strings.TrimSpace(s.DefaultFrom) != ""
}

type InvoiceConfig struct {
	CompanyName         string `envconfig:"ZCOLLABZ_COMPANY_NAME" default:"ZCollabz"`
	NumberPrefix        string `envconfig:"ZCOLLABZ_INVOICE_NUMBER_PREFIX" default:"ZC"`
	Currency            string `envconfig:"ZCOLLABZ_INVOICE_CURRENCY" default:"usd"`
	ConfirmationMessage string `envconfig:"ZCOLLABZ_PAYMENT_CONFIRMATION_MESSAGE" default:"Thank you for your payment!"`
}

type PDFConfig struct {
	Engine       string        `envconfig:"ZCOLLABZ_PDF_ENGINE" default:"fpdf"`
	ChromiumPath string        `envconfig:"ZCOLLABZ_PDF_CHROMIUM_PATH"`
	Timeout      time.Duration `envconfig:"ZCOLLABZ_PDF_TIMEOUT" default:"15s"`
}

type PubSubConfig struct {
	PaymentsTopic string `envconfig:"ZCOLLABZ_PUBSUB_PAYMENTS_TOPIC"`
}

func (db *DBConfig) ensureDSN(sqlite bool) error {
	if sqlite {
		db.Driver = DBDriverSQLite
		if db.DSN == "" {
			db.DSN = defaultSQLiteDSN
		}
		return nil
	}
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
