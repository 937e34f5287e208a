package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Store drivers selectable with STORE_DRIVER.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
)

// Duplicate handling policies for bulk provisioning.
const (
	DuplicatePolicyChecked   = "checked"
	DuplicatePolicyUnchecked = "unchecked"
)

type Config struct {
	Env         string
	Port        int
	APIPrefix   string
	StoreDriver string

	Database     DatabaseConfig
	Mongo        MongoConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Filters      FiltersConfig
	Provisioning ProvisioningConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// MongoConfig points at the document store used when STORE_DRIVER=mongo.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// FiltersConfig governs caching of the student filter options.
type FiltersConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// ProvisioningConfig tunes the bulk CSV user-provisioning pipeline.
type ProvisioningConfig struct {
	ArtifactDir      string
	UploadDir        string
	DuplicatePolicy  string
	StudentHashCost  int
	SalesHashCost    int
	PasswordLength   int
	MaxUploadBytes   int64
	MaxConcurrent    int
	MaxWait          time.Duration
	RequireAuth      bool
	DownloadBasePath string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.StoreDriver = strings.ToLower(v.GetString("STORE_DRIVER"))
	if cfg.StoreDriver != StoreDriverMongo {
		cfg.StoreDriver = StoreDriverPostgres
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Mongo = MongoConfig{
		URI:            v.GetString("MONGO_URI"),
		Database:       v.GetString("MONGO_DATABASE"),
		ConnectTimeout: parseDuration(v.GetString("MONGO_CONNECT_TIMEOUT"), 10*time.Second),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Filters = FiltersConfig{
		CacheEnabled: v.GetBool("ENABLE_FILTERS_CACHE"),
		CacheTTL:     parseDuration(v.GetString("FILTERS_CACHE_TTL"), 10*time.Minute),
	}

	policy := strings.ToLower(v.GetString("PROVISIONING_DUPLICATE_POLICY"))
	if policy != DuplicatePolicyUnchecked {
		policy = DuplicatePolicyChecked
	}
	maxUpload := v.GetInt64("PROVISIONING_MAX_UPLOAD_BYTES")
	if maxUpload <= 0 {
		maxUpload = 5 * 1024 * 1024
	}
	cfg.Provisioning = ProvisioningConfig{
		ArtifactDir:      v.GetString("PROVISIONING_ARTIFACT_DIR"),
		UploadDir:        v.GetString("PROVISIONING_UPLOAD_DIR"),
		DuplicatePolicy:  policy,
		StudentHashCost:  v.GetInt("PROVISIONING_BCRYPT_COST"),
		SalesHashCost:    v.GetInt("PROVISIONING_SALES_BCRYPT_COST"),
		PasswordLength:   v.GetInt("PROVISIONING_PASSWORD_LENGTH"),
		MaxUploadBytes:   maxUpload,
		MaxConcurrent:    v.GetInt("PROVISIONING_MAX_CONCURRENT"),
		MaxWait:          parseDuration(v.GetString("PROVISIONING_MAX_WAIT"), 30*time.Second),
		RequireAuth:      v.GetBool("PROVISIONING_REQUIRE_AUTH"),
		DownloadBasePath: strings.TrimRight(cfg.APIPrefix, "/") + "/download-logins",
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 5000)
	v.SetDefault("API_PREFIX", "/api")
	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "olympiad")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "olympiad")
	v.SetDefault("MONGO_CONNECT_TIMEOUT", "10s")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_FILTERS_CACHE", false)
	v.SetDefault("FILTERS_CACHE_TTL", "10m")

	v.SetDefault("PROVISIONING_ARTIFACT_DIR", "./generated-logins")
	v.SetDefault("PROVISIONING_UPLOAD_DIR", "./uploads")
	v.SetDefault("PROVISIONING_DUPLICATE_POLICY", DuplicatePolicyChecked)
	v.SetDefault("PROVISIONING_BCRYPT_COST", 12)
	v.SetDefault("PROVISIONING_SALES_BCRYPT_COST", 10)
	v.SetDefault("PROVISIONING_PASSWORD_LENGTH", 10)
	v.SetDefault("PROVISIONING_MAX_UPLOAD_BYTES", 5*1024*1024)
	v.SetDefault("PROVISIONING_MAX_CONCURRENT", 4)
	v.SetDefault("PROVISIONING_MAX_WAIT", "30s")
	v.SetDefault("PROVISIONING_REQUIRE_AUTH", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
