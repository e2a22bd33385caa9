package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "mock", cfg.Source.Kind)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, CacheMemory, cfg.Cache.Driver)
	assert.Equal(t, 2*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, "0 0 * * * *", cfg.Schedule.CollectCron)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
source:
  base_url: "https://prices.example.com"
products:
  - id: gpu-4070
    strategy: aggressive
    floor: 500
    ceiling: 800
    max_step_pct: 5
    own_price: 650
  - id: ssd-1tb
schedule:
  retention: 48h
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, "http", cfg.Source.Kind)
	assert.Equal(t, 48*time.Hour, cfg.Schedule.Retention)
	require.Len(t, cfg.Products, 2)
	assert.Equal(t, "competitive", cfg.Products[1].Strategy)
	assert.Equal(t, "ssd-1tb", cfg.Products[1].Query)

	p, ok := cfg.Product("gpu-4070")
	require.True(t, ok)
	assert.Equal(t, 650.0, p.OwnPrice)

	seeds := cfg.PricingSeeds()
	require.Len(t, seeds, 2)
	assert.Equal(t, 500.0, seeds[0].Floor)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":7070")
	t.Setenv("STORE_DRIVER", "wal")
	t.Setenv("WAL_DIR", "/tmp/wal")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("CRON_COLLECT", "0 */5 * * * *")

	cfg, err := Load(writeConfig(t, "server:\n  addr: \":1\"\n"))
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, DriverWAL, cfg.Store.Driver)
	assert.Equal(t, "/tmp/wal", cfg.Store.WALDir)
	assert.Equal(t, CacheRedis, cfg.Cache.Driver)
	assert.Equal(t, "0 */5 * * * *", cfg.Schedule.CollectCron)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [\n"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"telegram half set", func(c *Config) { c.Telegram.BotToken = "x" }},
		{"http without url", func(c *Config) { c.Source.Kind = "http" }},
		{"unknown source", func(c *Config) { c.Source.Kind = "ftp" }},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = DriverPostgres }},
		{"unknown store", func(c *Config) { c.Store.Driver = "mongo" }},
		{"redis without addr", func(c *Config) { c.Cache.Driver = CacheRedis }},
		{"missing product id", func(c *Config) { c.Products = []Product{{}} }},
		{"duplicate product", func(c *Config) { c.Products = []Product{{ID: "a"}, {ID: "a"}} }},
		{"floor above ceiling", func(c *Config) { c.Products = []Product{{ID: "a", Floor: 10, Ceiling: 5}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
