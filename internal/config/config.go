// Package config collects the service settings from the environment. A .env
// file in the working directory is loaded first when present.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Provider struct {
	Token   string
	BaseURL string
}

type Config struct {
	Port          string
	AppEnv        string
	LogLevel      string
	PublicBaseURL string
	StorageDir    string
	AssetsDir     string
	CatalogXLSX   string
	SessionKey    string
	SessionTTL    time.Duration

	Avaturn      Provider
	Fashn        Provider
	Sizer        Provider
	OpenAIKey    string
	OpenAIModel  string
	FixtureDelay time.Duration

	DSN           string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	RateLimitRPS float64
	MaxUploadMB  int64
	JobTimeout   time.Duration
	// MaxImagePixels bounds width*height of overlay photos and canvases.
	MaxImagePixels int64
}

// Load reads .env (if any) and the process environment.
func Load() *Config {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults.
func FromEnv(getenv func(string) string) *Config {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}
	c := &Config{
		Port:          get("PORT", "8080"),
		AppEnv:        strings.ToLower(get("APP_ENV", "development")),
		LogLevel:      get("LOG_LEVEL", "info"),
		PublicBaseURL: strings.TrimRight(get("PUBLIC_BASE_URL", ""), "/"),
		StorageDir:    get("STORAGE_DIR", "uploads"),
		AssetsDir:     get("ASSETS_DIR", "public"),
		CatalogXLSX:   get("CATALOG_XLSX", ""),
		SessionKey:    get("SESSION_KEY", ""),
		SessionTTL:    duration(get("SESSION_TTL", ""), 24*time.Hour),

		Avaturn:      Provider{Token: get("AVATURN_API_KEY", ""), BaseURL: get("AVATURN_BASE_URL", "")},
		Fashn:        Provider{Token: get("FASHN_API_KEY", ""), BaseURL: get("FASHN_BASE_URL", "")},
		Sizer:        Provider{Token: get("SIZER_API_KEY", ""), BaseURL: get("SIZER_BASE_URL", "")},
		OpenAIKey:    get("OPENAI_API_KEY", ""),
		OpenAIModel:  get("OPENAI_MODEL", "gpt-4o-mini"),
		FixtureDelay: duration(get("FIXTURE_DELAY", ""), 1500*time.Millisecond),

		RedisAddr:     get("REDIS_ADDR", ""),
		RedisPassword: get("REDIS_PASSWORD", ""),
		RedisDB:       int(number(get("REDIS_DB", ""), 0)),

		RateLimitRPS: number(get("RATE_LIMIT_RPS", ""), 10),
		MaxUploadMB:  int64(number(get("MAX_UPLOAD_MB", ""), 8)),
		JobTimeout:   duration(get("JOB_TIMEOUT", ""), 2*time.Minute),

		MaxImagePixels: int64(number(get("MAX_IMAGE_PIXELS", ""), 40_000_000)),
	}
	if c.PublicBaseURL == "" {
		c.PublicBaseURL = "http://localhost:" + c.Port
	}
	c.DSN = dsn(get)
	return c
}

func (c *Config) Production() bool {
	return c.AppEnv == "production" || c.AppEnv == "prod"
}

func (c *Config) MaxUploadBytes() int64 { return c.MaxUploadMB << 20 }

// dsn prefers DB_DSN, then builds one from DB_* (or POSTGRES_*) when DB_HOST
// or DB_NAME is set. Empty means run without a database.
func dsn(get func(string, string) string) string {
	if d := get("DB_DSN", ""); d != "" {
		return d
	}
	if get("DB_HOST", "") == "" && get("DB_NAME", get("POSTGRES_DB", "")) == "" {
		return ""
	}
	host := get("DB_HOST", "localhost")
	port := get("DB_PORT", "5432")
	user := get("DB_USER", get("POSTGRES_USER", "postgres"))
	pass := get("DB_PASSWORD", get("POSTGRES_PASSWORD", "postgres"))
	name := get("DB_NAME", get("POSTGRES_DB", "tryon"))
	ssl := get("DB_SSLMODE", "disable")
	return "host=" + host + " user=" + user + " password=" + pass + " dbname=" + name + " port=" + port + " sslmode=" + ssl
}

// duration accepts Go durations ("2s") or bare milliseconds ("1500").
func duration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if ms, err := strconv.Atoi(s); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func number(s string, def float64) float64 {
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return def
	}
	return f
}
