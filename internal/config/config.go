package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	ContentSourceFiles    = "files"
	ContentSourceDatabase = "database"

	AssetStoreStatic = "static"
	AssetStoreS3     = "s3"
)

type Config struct {
	// Server
	Port        string
	Environment string

	// Site Meta
	SiteFile        string
	SiteName        string
	SiteTitle       string
	SiteDescription string
	SiteKeywords    []string
	SiteURL         string
	SiteBrand       string
	SiteLanguage    string

	// Content
	ContentSource string
	ContentDir    string
	WatchContent  bool
	StaticDir     string
	OutputDir     string

	// Assets
	AssetStore  string
	ResumePath  string
	S3Bucket    string
	S3Region    string
	S3Prefix    string
	S3URLExpiry time.Duration

	// Database
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	DatabaseURL string

	// Redis
	EnableRedis bool
	RedisURL    string
	CacheTTL    time.Duration

	// Rate Limiting
	RateLimitRequests int
	RateLimitWindow   int
	RateLimitBurst    int

	// CORS
	CORSOrigins []string

	// Features
	EnableMetrics bool
}

func New() *Config {
	c := &Config{
		// Server
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		// Site Meta
		SiteFile:        getEnv("SITE_FILE", "./site.yaml"),
		SiteName:        getEnv("SITE_NAME", "Kenneth Ofosu"),
		SiteTitle:       getEnv("SITE_TITLE", "Kenneth Ofosu - Software Engineer"),
		SiteDescription: getEnv("SITE_DESCRIPTION", "Software Engineer based in New York, NY"),
		SiteKeywords:    getEnvAsList("SITE_KEYWORDS", "web developer,software engineer,portfolio"),
		SiteURL:         getEnv("SITE_URL", ""),
		SiteBrand:       getEnv("SITE_BRAND", "KO"),
		SiteLanguage:    getEnv("SITE_LANGUAGE", "en"),

		// Content
		ContentSource: strings.ToLower(getEnv("CONTENT_SOURCE", ContentSourceFiles)),
		ContentDir:    getEnv("CONTENT_DIR", "./content"),
		StaticDir:     getEnv("STATIC_DIR", "./static"),
		OutputDir:     getEnv("OUTPUT_DIR", "./public"),

		// Assets
		AssetStore:  strings.ToLower(getEnv("ASSET_STORE", AssetStoreStatic)),
		ResumePath:  getEnv("RESUME_PATH", "/static/resume.pdf"),
		S3Bucket:    getEnv("S3_BUCKET", ""),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Prefix:    getEnv("S3_PREFIX", ""),
		S3URLExpiry: time.Duration(getEnvAsInt("S3_URL_EXPIRY", 900)) * time.Second,

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "portfolio"),
		DBPassword: getEnv("DB_PASSWORD", "portfolio"),
		DBName:     getEnv("DB_NAME", "portfolio"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Redis
		EnableRedis: getEnvAsBool("ENABLE_REDIS", false),
		RedisURL:    getEnv("REDIS_URL", "localhost:6379"),
		CacheTTL:    time.Duration(getEnvAsInt("CACHE_TTL", 300)) * time.Second,

		// Rate Limiting
		RateLimitRequests: getEnvAsInt("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:   getEnvAsInt("RATE_LIMIT_WINDOW", 60),
		RateLimitBurst:    getEnvAsInt("RATE_LIMIT_BURST", 0),

		// CORS
		CORSOrigins: getEnvAsList("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"),

		// Features
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}

	c.WatchContent = getEnvAsBool("WATCH_CONTENT", c.IsDevelopment())

	c.DatabaseURL = fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)

	return c
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var value int
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return valueStr == "true" || valueStr == "1"
}

func getEnvAsList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
