// Package config loads server settings from the environment.
//
// SOURCES, in order of precedence:
//  1. Real environment variables
//  2. A .env file in the working directory (optional, loaded by godotenv;
//     it never overrides a variable that is already set)
//  3. The defaults below
//
// viper's AutomaticEnv does the lookup; every key is read by its plain
// environment name (PORT, JWT_SECRET, ...), so the names in .env and in the
// deployment environment are the same.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port     int
	Env      string
	LogLevel string
	DBPath   string

	JWTSecret string
	JWTTTL    time.Duration

	CORSOrigin string

	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string

	UploadDir      string
	PublicBaseURL  string
	MaxUploadBytes int64

	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
}

const (
	defaultPort           = 3000
	defaultMaxUploadBytes = 10 << 20 // 10 MiB
)

// Load reads .env (if present) and the environment into a Config.
// It does not validate; call Validate before using the result.
func Load() (*Config, error) {
	// A missing .env is the normal case in production.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", defaultPort)
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "debug")
	v.SetDefault("DB_PATH", "data/craftbook.db")
	v.SetDefault("JWT_TTL", "168h")
	v.SetDefault("CORS_ORIGIN", "*")
	v.SetDefault("SUPABASE_BUCKET_NAME", "Images")
	v.SetDefault("UPLOAD_DIR", "data/uploads")
	v.SetDefault("MAX_UPLOAD_BYTES", defaultMaxUploadBytes)

	ttl, err := time.ParseDuration(v.GetString("JWT_TTL"))
	if err != nil {
		return nil, fmt.Errorf("config: JWT_TTL: %w", err)
	}

	cfg := &Config{
		Port:     v.GetInt("PORT"),
		Env:      strings.ToLower(v.GetString("ENV")),
		LogLevel: strings.ToLower(v.GetString("LOG_LEVEL")),
		DBPath:   v.GetString("DB_PATH"),

		JWTSecret: v.GetString("JWT_SECRET"),
		JWTTTL:    ttl,

		CORSOrigin: v.GetString("CORS_ORIGIN"),

		SupabaseURL:    v.GetString("SUPABASE_URL"),
		SupabaseKey:    v.GetString("SUPABASE_KEY"),
		SupabaseBucket: v.GetString("SUPABASE_BUCKET_NAME"),

		UploadDir:      v.GetString("UPLOAD_DIR"),
		PublicBaseURL:  strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		MaxUploadBytes: v.GetInt64("MAX_UPLOAD_BYTES"),

		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  v.GetString("GOOGLE_CALLBACK_URL"),
	}

	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}
	if cfg.GoogleCallbackURL == "" {
		cfg.GoogleCallbackURL = cfg.PublicBaseURL + "/api/auth/google/callback"
	}

	return cfg, nil
}

// Validate reports every problem at once so a misconfigured deployment
// fails with one complete message.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be 1-65535, got %d", c.Port))
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if (c.SupabaseURL == "") != (c.SupabaseKey == "") {
		errs = append(errs, errors.New("SUPABASE_URL and SUPABASE_KEY must be set together"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) IsDevelopment() bool { return c.Env == "development" }

// UseSupabase reports whether uploads go to Supabase rather than local disk.
func (c *Config) UseSupabase() bool { return c.SupabaseURL != "" && c.SupabaseKey != "" }

// GoogleEnabled reports whether the Google login routes should be mounted.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
