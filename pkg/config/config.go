package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Cart          CartConfig
	Checkout      CheckoutConfig
	Cloudinary    CloudinaryConfig
	Backend       BackendConfig
	Notification  NotificationConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(cfg.FeatureFlags.UseSQLite); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env           string `envconfig:"JOYERIA_APP_ENV" required:"true"`
	Port          string `envconfig:"JOYERIA_APP_PORT" default:"8080"`
	LogLevel      string `envconfig:"JOYERIA_LOG_LEVEL" default:"info"`
	LogWarnStack  bool   `envconfig:"JOYERIA_LOG_WARN_STACK" default:"false"`
	PublicBaseURL string `envconfig:"JOYERIA_PUBLIC_BASE_URL" default:"http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"JOYERIA_DB_DSN"`
	Driver string `envconfig:"JOYERIA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"JOYERIA_DB_HOST"`
	LegacyPort     int    `envconfig:"JOYERIA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"JOYERIA_DB_USER"`
	LegacyPassword string `envconfig:"JOYERIA_DB_PASSWORD"`
	LegacyName     string `envconfig:"JOYERIA_DB_NAME"`
	LegacySSLMode  string `envconfig:"JOYERIA_DB_SSLMODE" default:"disable"`

	SQLitePath string `envconfig:"JOYERIA_SQLITE_PATH" default:"joyeria.db"`

	MaxOpenConns    int           `envconfig:"JOYERIA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"JOYERIA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"JOYERIA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"JOYERIA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"JOYERIA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"JOYERIA_REDIS_ADDR"`
	Password     string        `envconfig:"JOYERIA_REDIS_PASSWORD"`
	DB           int           `envconfig:"JOYERIA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"JOYERIA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"JOYERIA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"JOYERIA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"JOYERIA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"JOYERIA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"JOYERIA_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"JOYERIA_JWT_ISSUER" default:"diego-joyero"`
	ExpirationMinutes      int    `envconfig:"JOYERIA_JWT_EXPIRATION_MINUTES" default:"60"`
	RefreshTokenTTLMinutes int    `envconfig:"JOYERIA_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

// AccessTokenTTL returns the access token TTL configured in minutes.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"JOYERIA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"JOYERIA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"JOYERIA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"JOYERIA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"JOYERIA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"JOYERIA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"JOYERIA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"JOYERIA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"JOYERIA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"JOYERIA_AUTO_MIGRATE" default:"false"`
}

type CartConfig struct {
	StorageKey    string        `envconfig:"JOYERIA_CART_STORAGE_KEY" default:"diego-joyero-cart"`
	TTL           time.Duration `envconfig:"JOYERIA_CART_TTL" default:"720h"`
	VisitorIdle   time.Duration `envconfig:"JOYERIA_VISITOR_IDLE_TTL" default:"30m"`
	SweepInterval time.Duration `envconfig:"JOYERIA_VISITOR_SWEEP_INTERVAL" default:"5m"`
}

type CheckoutConfig struct {
	WizardTTL time.Duration `envconfig:"JOYERIA_CHECKOUT_WIZARD_TTL" default:"24h"`
}

type CloudinaryConfig struct {
	CloudName    string        `envconfig:"JOYERIA_CLOUDINARY_CLOUD_NAME"`
	UploadPreset string        `envconfig:"JOYERIA_CLOUDINARY_UPLOAD_PRESET"`
	APIKey       string        `envconfig:"JOYERIA_CLOUDINARY_API_KEY"`
	APISecret    string        `envconfig:"JOYERIA_CLOUDINARY_API_SECRET"`
	BaseFolder   string        `envconfig:"JOYERIA_CLOUDINARY_FOLDER" default:"DiegoJoyero"`
	APIBaseURL   string        `envconfig:"JOYERIA_CLOUDINARY_API_BASE_URL" default:"https://api.cloudinary.com/v1_1"`
	MaxUploadMB  int           `envconfig:"JOYERIA_CLOUDINARY_MAX_UPLOAD_MB" default:"5"`
	Timeout      time.Duration `envconfig:"JOYERIA_CLOUDINARY_TIMEOUT" default:"30s"`
}

// UploadConfigured reports whether unsigned uploads can be performed.
func (c CloudinaryConfig) UploadConfigured() bool {
	return strings.TrimSpace(c.CloudName) != "" && strings.TrimSpace(c.UploadPreset) != ""
}

// DestroyConfigured reports whether signed destroy calls can be performed.
func (c CloudinaryConfig) DestroyConfigured() bool {
	return strings.TrimSpace(c.CloudName) != "" &&
		strings.TrimSpace(c.APIKey) != "" &&
		strings.TrimSpace(c.APISecret) != ""
}

// BackendConfig holds the public backend coordinates handed to browsers by the
// runtime configuration endpoint.
type BackendConfig struct {
	PublicURL string `envconfig:"JOYERIA_BACKEND_PUBLIC_URL"`
	AnonKey   string `envconfig:"JOYERIA_BACKEND_ANON_KEY"`
}

type NotificationConfig struct {
	Endpoint string        `envconfig:"JOYERIA_NOTIFICATION_ENDPOINT"`
	Brand    string        `envconfig:"JOYERIA_NOTIFICATION_BRAND" default:"Diego Joyero"`
	Template string        `envconfig:"JOYERIA_NOTIFICATION_TEMPLATE" default:"order-confirmation"`
	Timeout  time.Duration `envconfig:"JOYERIA_NOTIFICATION_TIMEOUT" default:"10s"`
}

// Enabled reports whether an endpoint is configured.
func (n NotificationConfig) Enabled() bool {
	return strings.TrimSpace(n.Endpoint) != ""
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"JOYERIA_CORS_ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:8888"`
}

func (db *DBConfig) ensureDSN(useSQLite bool) error {
	if useSQLite {
		db.Driver = "sqlite"
		if db.DSN == "" {
			db.DSN = db.SQLitePath
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
