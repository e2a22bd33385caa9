package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"PriceSentinel/internal/model"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverWAL      = "wal"
)

// Cache drivers.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Product is one own listing that is tracked against competitors.
type Product struct {
	ID         string  `yaml:"id"`
	Query      string  `yaml:"query"`
	Strategy   string  `yaml:"strategy"`
	Floor      float64 `yaml:"floor"`
	Ceiling    float64 `yaml:"ceiling"`
	MaxStepPct float64 `yaml:"max_step_pct"`
	OwnPrice   float64 `yaml:"own_price"`
}

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr            string        `yaml:"addr"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Source struct {
		Kind      string        `yaml:"kind"`
		BaseURL   string        `yaml:"base_url"`
		APIKey    string        `yaml:"api_key"`
		Timeout   time.Duration `yaml:"timeout"`
		MockPrice float64       `yaml:"mock_price"`
	} `yaml:"source"`
	Products []Product `yaml:"products"`
	Schedule struct {
		CollectCron string        `yaml:"collect_cron"`
		DigestCron  string        `yaml:"digest_cron"`
		PruneCron   string        `yaml:"prune_cron"`
		Retention   time.Duration `yaml:"retention"`
	} `yaml:"schedule"`
	Store struct {
		Driver      string `yaml:"driver"`
		SQLitePath  string `yaml:"sqlite_path"`
		PostgresDSN string `yaml:"postgres_dsn"`
		WALDir      string `yaml:"wal_dir"`
	} `yaml:"store"`
	Cache struct {
		Driver   string        `yaml:"driver"`
		Addr     string        `yaml:"addr"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"cache"`
	Pricing struct {
		Enabled   bool   `yaml:"enabled"`
		StateFile string `yaml:"state_file"`
	} `yaml:"pricing"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "read config")
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parse config")
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		key string
		dst *string
	}{
		{"TELEGRAM_BOT_TOKEN", &c.Telegram.BotToken},
		{"TELEGRAM_CHAT_ID", &c.Telegram.ChatID},
		{"SOURCE_BASE_URL", &c.Source.BaseURL},
		{"SOURCE_API_KEY", &c.Source.APIKey},
		{"HTTPS_PROXY", &c.Proxy},
		{"HTTP_ADDR", &c.Server.Addr},
		{"STORE_DRIVER", &c.Store.Driver},
		{"SQLITE_PATH", &c.Store.SQLitePath},
		{"POSTGRES_DSN", &c.Store.PostgresDSN},
		{"REDIS_ADDR", &c.Cache.Addr},
		{"WAL_DIR", &c.Store.WALDir},
		{"CRON_COLLECT", &c.Schedule.CollectCron},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.key); v != "" {
			*o.dst = v
		}
	}
	// a Redis address implies the Redis cache unless a driver is set explicitly
	if os.Getenv("REDIS_ADDR") != "" && c.Cache.Driver == "" {
		c.Cache.Driver = CacheRedis
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Source.Kind == "" {
		if c.Source.BaseURL != "" {
			c.Source.Kind = "http"
		} else {
			c.Source.Kind = "mock"
		}
	}
	if c.Source.Timeout == 0 {
		c.Source.Timeout = 15 * time.Second
	}
	if c.Source.MockPrice == 0 {
		c.Source.MockPrice = 1000
	}
	if c.Schedule.CollectCron == "" {
		c.Schedule.CollectCron = "0 0 * * * *"
	}
	if c.Schedule.DigestCron == "" {
		c.Schedule.DigestCron = "0 0 9 * * *"
	}
	if c.Schedule.PruneCron == "" {
		c.Schedule.PruneCron = "0 30 3 * * *"
	}
	if c.Schedule.Retention == 0 {
		c.Schedule.Retention = 90 * 24 * time.Hour
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DriverSQLite
	}
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = "data/price_sentinel.db"
	}
	if c.Store.WALDir == "" {
		c.Store.WALDir = "data/wal"
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = CacheMemory
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 2 * time.Hour
	}
	if c.Pricing.StateFile == "" {
		c.Pricing.StateFile = "data/pricing_state.json"
	}
	for i := range c.Products {
		if c.Products[i].Strategy == "" {
			c.Products[i].Strategy = string(model.StrategyCompetitive)
		}
		if c.Products[i].Query == "" {
			c.Products[i].Query = c.Products[i].ID
		}
	}
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return errors.New("telegram.bot_token and telegram.chat_id must be set together")
	}
	switch c.Source.Kind {
	case "mock":
	case "http":
		if c.Source.BaseURL == "" {
			return errors.New("source.base_url is required for the http source")
		}
	default:
		return errors.Errorf("unknown source.kind %q", c.Source.Kind)
	}
	switch c.Store.Driver {
	case DriverMemory, DriverSQLite, DriverWAL:
	case DriverPostgres:
		if c.Store.PostgresDSN == "" {
			return errors.New("store.postgres_dsn is required for the postgres driver")
		}
	default:
		return errors.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	switch c.Cache.Driver {
	case CacheMemory:
	case CacheRedis:
		if c.Cache.Addr == "" {
			return errors.New("cache.addr is required for the redis cache")
		}
	default:
		return errors.Errorf("unknown cache.driver %q", c.Cache.Driver)
	}

	seen := make(map[string]bool, len(c.Products))
	for _, p := range c.Products {
		if p.ID == "" {
			return errors.New("products: id is required")
		}
		if seen[p.ID] {
			return errors.Errorf("products: duplicate id %q", p.ID)
		}
		seen[p.ID] = true
		if p.Floor < 0 || p.Ceiling < 0 || p.MaxStepPct < 0 {
			return errors.Errorf("products %q: guard rails must not be negative", p.ID)
		}
		if p.Ceiling > 0 && p.Floor > p.Ceiling {
			return errors.Errorf("products %q: floor above ceiling", p.ID)
		}
	}
	return nil
}

// Product looks up a configured product by id.
func (c *Config) Product(id string) (Product, bool) {
	for _, p := range c.Products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// PricingSeeds converts products into initial auto-pricing states.
func (c *Config) PricingSeeds() []model.PricingState {
	seeds := make([]model.PricingState, 0, len(c.Products))
	for _, p := range c.Products {
		seeds = append(seeds, model.PricingState{
			ProductID:    p.ID,
			CurrentPrice: p.OwnPrice,
			Strategy:     model.Strategy(p.Strategy),
			Floor:        p.Floor,
			Ceiling:      p.Ceiling,
			MaxStepPct:   p.MaxStepPct,
		})
	}
	return seeds
}
