package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_DSN", "postgres://localhost/notebase")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORAGE_URL", "https://project.supabase.co")
	t.Setenv("STORAGE_SERVICE_KEY", "service-key")
	t.Setenv("AI_API_KEY", "sk-test")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "notes", cfg.StorageBucket)
	assert.Equal(t, 300*time.Second, cfg.SignedURLTTL)
	assert.Equal(t, 10000, cfg.GoldCredits)
	assert.Equal(t, 25000, cfg.PlatinumCredits)
	assert.Equal(t, 3, cfg.AbuseStrikeLimit)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ENV", "production")
	t.Setenv("SIGNED_URL_TTL", "2m")
	t.Setenv("GOLD_MONTHLY_CREDITS", "5000")
	t.Setenv("TELEGRAM_TOKEN", "123:abc")
	t.Setenv("TELEGRAM_ADMIN_CHAT_ID", "-1001")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 2*time.Minute, cfg.SignedURLTTL)
	assert.Equal(t, 5000, cfg.GoldCredits)
	assert.Equal(t, int64(-1001), cfg.TelegramAdminChatID)
}

func TestLoadEnvFile(t *testing.T) {
	setRequired(t)
	// godotenv не перезаписывает уже заданные переменные
	t.Setenv("AI_MODEL", "")
	os.Unsetenv("AI_MODEL")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("AI_MODEL=gpt-test\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-test", cfg.AIModel)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		DBDSN: "dsn", JWTSecret: "s", StorageURL: "u", StorageServiceKey: "k", AIAPIKey: "ai",
		SignedURLTTL: time.Minute, AbuseStrikeLimit: 3,
	}
	require.NoError(t, valid.Validate())

	cases := map[string]func(c *Config){
		"missing dsn":           func(c *Config) { c.DBDSN = "" },
		"missing jwt secret":    func(c *Config) { c.JWTSecret = "" },
		"missing storage key":   func(c *Config) { c.StorageServiceKey = "" },
		"missing ai key":        func(c *Config) { c.AIAPIKey = "" },
		"zero ttl":              func(c *Config) { c.SignedURLTTL = 0 },
		"zero strike limit":     func(c *Config) { c.AbuseStrikeLimit = 0 },
		"negative credits":      func(c *Config) { c.GoldCredits = -1 },
		"telegram without chat": func(c *Config) { c.TelegramToken = "t" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
