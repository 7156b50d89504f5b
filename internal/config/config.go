package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	ServerPort string

	ProviderAPIKey  string
	ProviderBaseURL string
	ProviderTimeout time.Duration

	RequestTimeout time.Duration

	// ProactiveTTL is the freshness window for the favorites/home view;
	// OnDemandTTL for direct single-place queries.
	ProactiveTTL time.Duration
	OnDemandTTL  time.Duration

	FavoritesMax int

	SessionCookieName string
	SessionMaxAge     time.Duration

	StoreBackend string // "redis", "memcached" or "in_memory"

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	RateLimitRPS   int
	RateLimitBurst int

	PlaceMaxLength int

	ShutdownTimeout time.Duration
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Provider struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"provider"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Cache struct {
		Backend      string `yaml:"backend"`
		ProactiveTTL string `yaml:"proactive_ttl"`
		OnDemandTTL  string `yaml:"on_demand_ttl"`
		Redis        struct {
			Addr string `yaml:"addr"`
			DB   int    `yaml:"db"`
		} `yaml:"redis"`
		Memcached struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"cache"`

	Session struct {
		CookieName string `yaml:"cookie_name"`
		MaxAge     string `yaml:"max_age"`
	} `yaml:"session"`

	Favorites struct {
		MaxEntries int `yaml:"max_entries"`
	} `yaml:"favorites"`

	Reliability struct {
		RateLimitRPS   int `yaml:"rate_limit_rps"`
		RateLimitBurst int `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Validation struct {
		PlaceMaxLength int `yaml:"place_max_length"`
	} `yaml:"validation"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`
}

type secretsFile struct {
	ProviderAPIKey string `yaml:"provider_api_key"`
}

// Session cookie lifetime bounds. The token is long-lived but not immortal.
const (
	minSessionMaxAge = 30 * 24 * time.Hour
	maxSessionMaxAge = 365 * 24 * time.Hour
)

// Load reads configuration from config/{ENV_NAME}.yaml (default dev) and
// config/secrets.yaml. A .env file is applied to the environment first if
// present. The provider API key comes from PROVIDER_API_KEY env or the
// secrets file. Call from project root.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = fc.Server.Port
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	cfg.ProviderAPIKey = os.Getenv("PROVIDER_API_KEY")
	if cfg.ProviderAPIKey == "" {
		secretsPath := filepath.Join(cwd, "config", "secrets.yaml")
		secretsData, err := os.ReadFile(secretsPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read secrets file: %w", err)
			}
		} else {
			var sec secretsFile
			if err := yaml.Unmarshal(secretsData, &sec); err != nil {
				return nil, fmt.Errorf("parse secrets file: %w", err)
			}
			cfg.ProviderAPIKey = sec.ProviderAPIKey
		}
	}
	if cfg.ProviderAPIKey == "" {
		return nil, fmt.Errorf("PROVIDER_API_KEY required (set env or config/secrets.yaml provider_api_key)")
	}

	cfg.ProviderBaseURL = fc.Provider.URL
	if cfg.ProviderBaseURL == "" {
		cfg.ProviderBaseURL = "https://dataservice.accuweather.com"
	}
	cfg.ProviderTimeout = parseDuration(fc.Provider.Timeout, 10*time.Second)

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 15*time.Second)

	cfg.ProactiveTTL = parseDuration(fc.Cache.ProactiveTTL, time.Hour)
	cfg.OnDemandTTL = parseDuration(fc.Cache.OnDemandTTL, 5*time.Minute)

	cfg.StoreBackend = strings.TrimSpace(strings.ToLower(os.Getenv("STORE_BACKEND")))
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = strings.TrimSpace(strings.ToLower(fc.Cache.Backend))
	}
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = "redis"
	}

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = strings.TrimSpace(fc.Cache.Redis.Addr)
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisDB = fc.Cache.Redis.DB

	cfg.MemcachedAddrs = strings.TrimSpace(os.Getenv("MEMCACHED_ADDRS"))
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = strings.TrimSpace(fc.Cache.Memcached.Addrs)
	}
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = "localhost:11211"
	}
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}

	cfg.SessionCookieName = strings.TrimSpace(fc.Session.CookieName)
	if cfg.SessionCookieName == "" {
		cfg.SessionCookieName = "wxsid"
	}
	cfg.SessionMaxAge = parseDuration(fc.Session.MaxAge, 180*24*time.Hour)
	if cfg.SessionMaxAge < minSessionMaxAge {
		cfg.SessionMaxAge = minSessionMaxAge
	}
	if cfg.SessionMaxAge > maxSessionMaxAge {
		cfg.SessionMaxAge = maxSessionMaxAge
	}

	cfg.FavoritesMax = fc.Favorites.MaxEntries
	if cfg.FavoritesMax <= 0 {
		cfg.FavoritesMax = 10
	}

	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 100
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 250
	}

	cfg.PlaceMaxLength = fc.Validation.PlaceMaxLength
	if cfg.PlaceMaxLength <= 0 {
		cfg.PlaceMaxLength = 80
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseDuration parses a duration string and returns defaultVal if parsing
// fails or the result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values. Ensures
// TTL ordering, RequestTimeout > ProviderTimeout, and a known store backend.
func validate(cfg *Config) error {
	if cfg.OnDemandTTL > cfg.ProactiveTTL {
		return fmt.Errorf("cache.on_demand_ttl (%s) must not exceed cache.proactive_ttl (%s)", cfg.OnDemandTTL, cfg.ProactiveTTL)
	}
	if cfg.RequestTimeout <= cfg.ProviderTimeout {
		cfg.RequestTimeout = cfg.ProviderTimeout + 5*time.Second
	}
	switch cfg.StoreBackend {
	case "redis", "memcached", "in_memory":
		// valid
	default:
		return fmt.Errorf("cache.backend must be redis, memcached or in_memory, got %q", cfg.StoreBackend)
	}
	return nil
}
