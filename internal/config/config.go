package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreFile     = "file"
	StorePostgres = "postgres"

	UploadDisk  = "disk"
	UploadMinio = "minio"
)

type Config struct {
	Env  string
	Port int

	JWTSecret   string
	JWTTTLHours int

	StoreDriver string
	DataFile    string
	DBURL       string

	UploadDriver   string
	UploadDir      string
	UploadMaxBytes int64
	PublicBaseURL  string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisChannel  string

	OTelEndpoint string

	CORSOrigins   []string
	RegisterRoles []string

	ListCacheTTLSeconds int

	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	env := getEnv("APP_ENV", "dev")

	return Config{
		Env:  env,
		Port: getEnvInt("PORT", 4000),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTTTLHours: getEnvInt("JWT_TTL_HOURS", 24),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreFile)),
		DataFile:    getEnv("DATA_FILE", "data/db.json"),
		DBURL:       buildDBURL(),

		UploadDriver:   strings.ToLower(getEnv("UPLOAD_DRIVER", UploadDisk)),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		UploadMaxBytes: int64(getEnvInt("UPLOAD_MAX_BYTES", 5*1024*1024)),
		PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", ""), "/"),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "bloodhub-photos"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisChannel:  getEnv("REDIS_CHANNEL", "bloodhub:requests"),

		OTelEndpoint: getEnv("OTEL_ENDPOINT", ""),

		CORSOrigins:   getEnvList("CORS_ORIGINS"),
		RegisterRoles: getEnvList("REGISTER_ROLES"),

		ListCacheTTLSeconds: getEnvInt("LIST_CACHE_TTL_SECONDS", 5),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Admin"),
	}
}

// Validate fills the dev secret outside prod and rejects unusable settings.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		if c.Env == "prod" {
			return errors.New("JWT_SECRET is required in prod")
		}
		c.JWTSecret = "dev_secret"
	}

	switch c.StoreDriver {
	case StoreFile, StorePostgres:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.UploadDriver {
	case UploadDisk:
	case UploadMinio:
		if c.MinioEndpoint == "" {
			return errors.New("MINIO_ENDPOINT is required when UPLOAD_DRIVER=minio")
		}
	default:
		return fmt.Errorf("unknown UPLOAD_DRIVER %q", c.UploadDriver)
	}

	if c.UploadMaxBytes <= 0 {
		return errors.New("UPLOAD_MAX_BYTES must be positive")
	}

	return nil
}

func (c Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLHours) * time.Hour
}

func (c Config) ListCacheTTL() time.Duration {
	return time.Duration(c.ListCacheTTLSeconds) * time.Second
}

func buildDBURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "bloodhub")
	pass := getEnv("DB_PASSWORD", "bloodhub")
	name := getEnv("DB_NAME", "bloodhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return b
	}
	return fallback
}

func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}

	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
