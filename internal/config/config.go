package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultTags is the tag vocabulary offered by the product form.
var DefaultTags = []string{
	"Summer", "Winter", "Spring", "Fall", "Casual", "Formal", "Sport",
	"Outdoor", "Indoor", "Bestseller", "New Arrival", "Limited Edition",
	"Sale", "Clearance",
}

type Config struct {
	Port string

	BackendBaseURL  string // REST API root, e.g. http://localhost:8000/api
	BackendMediaURL string // root that /media/... paths resolve against
	BackendToken    string
	BackendTimeout  time.Duration

	JWTSecret string

	DatabaseURL string // empty keeps drafts in memory

	RedisAddr     string // empty disables the reference cache
	RedisPassword string
	RedisDB       int

	ReferenceCacheTTL time.Duration
	MaxUploadBytes    int64
	MaxVariants       int
	DraftTTL          time.Duration

	Tags []string
}

// Load reads .env (if present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}
	return FromEnv()
}

func FromEnv() *Config {
	cfg := &Config{
		Port:              envOr("PORT", "3000"),
		BackendBaseURL:    strings.TrimRight(envOr("BACKEND_BASE_URL", "http://localhost:8000/api"), "/"),
		BackendMediaURL:   strings.TrimRight(envOr("BACKEND_MEDIA_URL", "http://localhost:8000"), "/"),
		BackendToken:      os.Getenv("BACKEND_TOKEN"),
		BackendTimeout:    durationOr("BACKEND_TIMEOUT", 15*time.Second),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           intOr("REDIS_DB", 0),
		ReferenceCacheTTL: durationOr("REFERENCE_CACHE_TTL", 5*time.Minute),
		MaxUploadBytes:    int64(intOr("MAX_UPLOAD_MB", 10)) << 20,
		MaxVariants:       intOr("MAX_VARIANTS", 1000),
		DraftTTL:          durationOr("DRAFT_TTL", 24*time.Hour),
		Tags:              DefaultTags,
	}
	if tags := os.Getenv("PRODUCT_TAGS"); tags != "" {
		cfg.Tags = splitList(tags)
	}
	return cfg
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func intOr(k string, def int) int {
	v, err := strconv.Atoi(envOr(k, ""))
	if err != nil {
		return def
	}
	return v
}

func durationOr(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(envOr(k, ""))
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
