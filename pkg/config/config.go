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
	Upload        UploadConfig
	Backup        BackupConfig
	FeatureFlags  FeatureFlagsConfig
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
	Env          string `envconfig:"DFRCHAT_APP_ENV" required:"true"`
	Port         string `envconfig:"DFRCHAT_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"DFRCHAT_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"DFRCHAT_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"DFRCHAT_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"DFRCHAT_DB_DSN"`

	LegacyHost     string `envconfig:"DFRCHAT_DB_HOST"`
	LegacyPort     int    `envconfig:"DFRCHAT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DFRCHAT_DB_USER"`
	LegacyPassword string `envconfig:"DFRCHAT_DB_PASSWORD"`
	LegacyName     string `envconfig:"DFRCHAT_DB_NAME"`
	LegacySSLMode  string `envconfig:"DFRCHAT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DFRCHAT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DFRCHAT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DFRCHAT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DFRCHAT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DFRCHAT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DFRCHAT_REDIS_ADDR"`
	Password     string        `envconfig:"DFRCHAT_REDIS_PASSWORD"`
	DB           int           `envconfig:"DFRCHAT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DFRCHAT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DFRCHAT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DFRCHAT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DFRCHAT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DFRCHAT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"DFRCHAT_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"DFRCHAT_JWT_ISSUER" default:"dfrchat"`
	ExpirationMinutes int    `envconfig:"DFRCHAT_JWT_EXPIRATION_MINUTES" default:"1440"`
}

type PasswordConfig struct {
	MinLength        int `envconfig:"DFRCHAT_PASSWORD_MIN_LENGTH" default:"6"`
	ArgonMemoryKB    int `envconfig:"DFRCHAT_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"DFRCHAT_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"DFRCHAT_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"DFRCHAT_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"DFRCHAT_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"DFRCHAT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"DFRCHAT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"DFRCHAT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

type UploadConfig struct {
	MaxUploadMB int `envconfig:"DFRCHAT_MAX_UPLOAD_MB" default:"25"`
}

type BackupConfig struct {
	AuditRowLimit int `envconfig:"DFRCHAT_BACKUP_AUDIT_ROW_LIMIT" default:"1000"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DFRCHAT_AUTO_MIGRATE" default:"false"`
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
