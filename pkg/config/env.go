package config

// EnvPrefix is the envconfig prefix for every setting.
const EnvPrefix = "JOYERIA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv       = "JOYERIA_APP_ENV"
	EnvPort         = "JOYERIA_APP_PORT"
	EnvLogLevel     = "JOYERIA_LOG_LEVEL"
	EnvPublicURL    = "JOYERIA_PUBLIC_BASE_URL"
	EnvDBDSN        = "JOYERIA_DB_DSN"
	EnvDBDriver     = "JOYERIA_DB_DRIVER"
	EnvDBHost       = "JOYERIA_DB_HOST"
	EnvDBUser       = "JOYERIA_DB_USER"
	EnvDBName       = "JOYERIA_DB_NAME"
	EnvRedisURL     = "JOYERIA_REDIS_URL"
	EnvJWTSecret    = "JOYERIA_JWT_SECRET"
	EnvJWTIssuer    = "JOYERIA_JWT_ISSUER"
	EnvJWTExpMins   = "JOYERIA_JWT_EXPIRATION_MINUTES"
	EnvRefreshTTL   = "JOYERIA_REFRESH_TOKEN_TTL_MINUTES"
	EnvUseSQLite    = "JOYERIA_USE_SQLITE"
	EnvAutoMigrate  = "JOYERIA_AUTO_MIGRATE"
	EnvCartKey      = "JOYERIA_CART_STORAGE_KEY"
	EnvCloudName    = "JOYERIA_CLOUDINARY_CLOUD_NAME"
	EnvUploadPreset = "JOYERIA_CLOUDINARY_UPLOAD_PRESET"
	EnvCloudAPIKey  = "JOYERIA_CLOUDINARY_API_KEY"
	EnvCloudSecret  = "JOYERIA_CLOUDINARY_API_SECRET"
	EnvCloudFolder  = "JOYERIA_CLOUDINARY_FOLDER"
	EnvNotifyURL    = "JOYERIA_NOTIFICATION_ENDPOINT"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
