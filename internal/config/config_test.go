package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every key Load reads so the host environment cannot leak
// into a test. t.Setenv restores the old values afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "ENV", "LOG_LEVEL", "DB_PATH", "JWT_SECRET", "JWT_TTL", "CORS_ORIGIN",
		"SUPABASE_URL", "SUPABASE_KEY", "SUPABASE_BUCKET_NAME", "UPLOAD_DIR",
		"PUBLIC_BASE_URL", "MAX_UPLOAD_BYTES", "GOOGLE_CLIENT_ID",
		"GOOGLE_CLIENT_SECRET", "GOOGLE_CALLBACK_URL",
	} {
		t.Setenv(k, "")
	}
	// run from an empty directory so no .env is picked up
	t.Chdir(t.TempDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "data/craftbook.db", cfg.DBPath)
	assert.Equal(t, 168*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "*", cfg.CORSOrigin)
	assert.Equal(t, "Images", cfg.SupabaseBucket)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes)
	assert.Equal(t, "http://localhost:3000", cfg.PublicBaseURL)
	assert.Equal(t, "http://localhost:3000/api/auth/google/callback", cfg.GoogleCallbackURL)
	assert.False(t, cfg.UseSupabase())
	assert.False(t, cfg.GoogleEnabled())
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("ENV", "Production")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("PUBLIC_BASE_URL", "https://api.craftbook.example/")
	t.Setenv("SUPABASE_URL", "https://abc.supabase.co")
	t.Setenv("SUPABASE_KEY", "service-key")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "https://api.craftbook.example", cfg.PublicBaseURL)
	assert.True(t, cfg.UseSupabase())
	assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_BadTTL(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_TTL", "a week")

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:           3000,
			JWTSecret:      "0123456789abcdef",
			JWTTTL:         time.Hour,
			MaxUploadBytes: 1,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, "JWT_SECRET"},
		{"zero port", func(c *Config) { c.Port = 0 }, "PORT"},
		{"negative ttl", func(c *Config) { c.JWTTTL = -time.Minute }, "JWT_TTL"},
		{"zero upload limit", func(c *Config) { c.MaxUploadBytes = 0 }, "MAX_UPLOAD_BYTES"},
		{"supabase half set", func(c *Config) { c.SupabaseURL = "https://x.supabase.co" }, "SUPABASE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.wantErr), "error %q should mention %s", err, tt.wantErr)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	err := (&Config{}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PORT")
	assert.Contains(t, err.Error(), "JWT_SECRET")
}
