package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

const (
	AuthProviderGoTrue = "gotrue"
	AuthProviderMemory = "memory"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // sqlite, mysql, postgres
	DSN      string `yaml:"dsn"`
	SeedDemo bool   `yaml:"seed_demo"`
}

// AuthConfig points at the hosted GoTrue instance, or selects the in-process
// provider used for local development.
type AuthConfig struct {
	Provider       string `yaml:"provider"` // gotrue, memory
	URL            string `yaml:"url"`      // e.g. https://<ref>.supabase.co
	AnonKey        string `yaml:"anon_key"`
	JWTSecret      string `yaml:"jwt_secret"`
	AccessTokenTTL int    `yaml:"access_token_ttl"` // seconds, memory provider only
	CookieSecure   bool   `yaml:"cookie_secure"`
	CookieDomain   string `yaml:"cookie_domain"`
}

// RedisConfig for optional cross-instance session events. URL, when set,
// takes precedence over the discrete fields.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"` // redis://[user:password@]host:port[/db]
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// Options builds the go-redis client options.
func (r RedisConfig) Options() (*redis.Options, error) {
	if r.URL == "" {
		return &redis.Options{Addr: r.Addr, Password: r.Password, DB: r.DB}, nil
	}
	opts, err := redis.ParseURL(r.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return opts, nil
}

type RateLimitConfig struct {
	AuthRPS   float64 `yaml:"auth_rps"`
	AuthBurst int     `yaml:"auth_burst"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configPath (defaults applied when it does not exist), then a
// local .env file, then environment overrides.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	}

	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	cfg.overrideFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
			Mode: "debug",
		},
		// The memory provider forgets users on restart, so the default
		// database does too.
		Database: DatabaseConfig{
			Driver:   "sqlite",
			DSN:      "file:projectdesk?mode=memory&cache=shared",
			SeedDemo: true,
		},
		Auth: AuthConfig{
			Provider:       AuthProviderMemory,
			JWTSecret:      "projectdesk-dev-secret-change-me",
			AccessTokenTTL: 3600,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
			Channel: "projectdesk:session-events",
		},
		RateLimit: RateLimitConfig{
			AuthRPS:   1,
			AuthBurst: 5,
		},
		CORS: CORSConfig{
			AllowOrigins: []string{"*"},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}

	switch c.Auth.Provider {
	case AuthProviderGoTrue:
		if c.Auth.URL == "" {
			return fmt.Errorf("SUPABASE_URL is required for the gotrue provider")
		}
		if c.Auth.AnonKey == "" {
			return fmt.Errorf("SUPABASE_ANON_KEY is required for the gotrue provider")
		}
	case AuthProviderMemory:
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("a jwt secret is required for the memory provider")
		}
		if c.Auth.AccessTokenTTL <= 0 {
			return fmt.Errorf("access_token_ttl must be positive")
		}
	default:
		return fmt.Errorf("unsupported auth provider %q", c.Auth.Provider)
	}

	if c.Redis.Enabled {
		if _, err := c.Redis.Options(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if seed := os.Getenv("DB_SEED_DEMO"); seed != "" {
		c.Database.SeedDemo, _ = strconv.ParseBool(seed)
	}
	if provider := os.Getenv("AUTH_PROVIDER"); provider != "" {
		c.Auth.Provider = provider
	}
	if url := os.Getenv("SUPABASE_URL"); url != "" {
		c.Auth.URL = strings.TrimRight(url, "/")
		if os.Getenv("AUTH_PROVIDER") == "" {
			c.Auth.Provider = AuthProviderGoTrue
		}
	}
	if key := os.Getenv("SUPABASE_ANON_KEY"); key != "" {
		c.Auth.AnonKey = key
	}
	if secret := os.Getenv("SUPABASE_JWT_SECRET"); secret != "" {
		c.Auth.JWTSecret = secret
	}
	if secure := os.Getenv("COOKIE_SECURE"); secure != "" {
		c.Auth.CookieSecure, _ = strconv.ParseBool(secure)
	}
	if origins := os.Getenv("CORS_ALLOW_ORIGINS"); origins != "" {
		c.CORS.AllowOrigins = splitList(origins)
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.Redis.URL = redisURL
	}
}

// splitList splits a comma separated value, dropping blanks around and
// between entries.
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
