package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Host        string   `json:"host" yaml:"host"`
	Port        int      `json:"port" yaml:"port"`
	Subpath     string   `json:"subpath" yaml:"subpath"`
	JWTSecret   string   `json:"jwtSecret" yaml:"jwtSecret"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins"`
}

type StoreConfig struct {
	Backend       string `json:"backend" yaml:"backend"` // memory | gorm
	DSN           string `json:"dsn" yaml:"dsn"`
	MaxLogEntries *int   `json:"max_log_entries" yaml:"max_log_entries"` // nil = default, 0 = unbounded
}

type RedisConfig struct {
	Addr                     string `json:"addr" yaml:"addr"`
	Password                 string `json:"password" yaml:"password"`
	DB                       int    `json:"db" yaml:"db"`
	NutritionCacheTTLMinutes int    `json:"nutrition_cache_ttl_minutes" yaml:"nutrition_cache_ttl_minutes"`
}

type LLMConfig struct {
	URL            string  `json:"url" yaml:"url"`
	Model          string  `json:"model" yaml:"model"`
	Temperature    float64 `json:"temperature" yaml:"temperature"`
	TimeoutSeconds int     `json:"timeout_seconds" yaml:"timeout_seconds"`
	MaxConcurrent  int     `json:"max_concurrent" yaml:"max_concurrent"`
}

type NutritionConfig struct {
	URL            string `json:"url" yaml:"url"`
	APIKey         string `json:"api_key" yaml:"api_key"`
	TimeoutSeconds int    `json:"timeout_seconds" yaml:"timeout_seconds"`
}

type EventBusConfig struct {
	NATSURL string `json:"nats_url" yaml:"nats_url"`
	Subject string `json:"subject" yaml:"subject"`
}

type LogConfig struct {
	Level       string `json:"level" yaml:"level"`
	Development bool   `json:"development" yaml:"development"`
}

type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Store     StoreConfig     `json:"store" yaml:"store"`
	Redis     RedisConfig     `json:"redis" yaml:"redis"`
	LLM       LLMConfig       `json:"llm" yaml:"llm"`
	Nutrition NutritionConfig `json:"nutrition" yaml:"nutrition"`
	EventBus  EventBusConfig  `json:"eventbus" yaml:"eventbus"`
	Log       LogConfig       `json:"log" yaml:"log"`
}

const (
	DefaultNutritionURL = "https://api.api-ninjas.com/v1/nutrition"
	DefaultAuditSubject = "fitsymphony.audit"

	DefaultMaxLogEntries = 1000
)

var (
	once   sync.Once
	cfg    *Config
	cfgErr error
)

// LoadConfig reads the config file from disk (singleton). An empty path
// yields a config built from defaults and the environment alone.
func LoadConfig(path string) (*Config, error) {
	once.Do(func() {
		c, err := load(path)
		if err != nil {
			cfgErr = err
			return
		}
		cfg = c
	})
	return cfg, cfgErr
}

func load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	var c Config
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(raw, &c)
		default:
			err = json.Unmarshal(raw, &c)
		}
		if err != nil {
			return nil, fmt.Errorf("invalid config format: %w", err)
		}
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	envString(&c.Server.JWTSecret, "JWT_SECRET")
	envString(&c.Store.DSN, "DATABASE_DSN")
	envString(&c.Redis.Addr, "REDIS_ADDR")
	envString(&c.LLM.URL, "LLM_URL")
	envString(&c.LLM.Model, "LLM_MODEL")
	envString(&c.Nutrition.APIKey, "CALORIE_NINJAS_KEY")
	envString(&c.EventBus.NATSURL, "NATS_URL")
	return nil
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.Store.Backend == "" {
		if c.Store.DSN != "" {
			c.Store.Backend = "gorm"
		} else {
			c.Store.Backend = "memory"
		}
	}
	if c.Store.MaxLogEntries == nil {
		n := DefaultMaxLogEntries
		c.Store.MaxLogEntries = &n
	}
	if c.Redis.NutritionCacheTTLMinutes == 0 {
		c.Redis.NutritionCacheTTLMinutes = 24 * 60
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "llama-3.1-8b-instant"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = 60
	}
	if c.LLM.MaxConcurrent == 0 {
		c.LLM.MaxConcurrent = 2
	}
	if c.Nutrition.URL == "" {
		c.Nutrition.URL = DefaultNutritionURL
	}
	if c.Nutrition.TimeoutSeconds == 0 {
		c.Nutrition.TimeoutSeconds = 10
	}
	if c.EventBus.Subject == "" {
		c.EventBus.Subject = DefaultAuditSubject
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.Subpath != "" && !strings.HasPrefix(c.Server.Subpath, "/") {
		errs = append(errs, fmt.Errorf("server.subpath must start with /"))
	}
	switch c.Store.Backend {
	case "memory":
	case "gorm":
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("store.dsn must be set for the gorm backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.backend %q", c.Store.Backend))
	}
	if c.Store.MaxLogEntries != nil && *c.Store.MaxLogEntries < 0 {
		errs = append(errs, errors.New("store.max_log_entries must not be negative"))
	}
	if c.Redis.NutritionCacheTTLMinutes < 0 {
		errs = append(errs, errors.New("redis.nutrition_cache_ttl_minutes must not be negative"))
	}
	if c.LLM.TimeoutSeconds < 0 || c.Nutrition.TimeoutSeconds < 0 {
		errs = append(errs, errors.New("timeouts must not be negative"))
	}
	if c.LLM.MaxConcurrent < 0 {
		errs = append(errs, errors.New("llm.max_concurrent must not be negative"))
	}
	return errors.Join(errs...)
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// LogRetention is the per-user audit entry limit; 0 keeps everything.
func (c *Config) LogRetention() int {
	if c.Store.MaxLogEntries == nil {
		return DefaultMaxLogEntries
	}
	return *c.Store.MaxLogEntries
}

func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

func (c *Config) NutritionTimeout() time.Duration {
	return time.Duration(c.Nutrition.TimeoutSeconds) * time.Second
}

func (c *Config) NutritionCacheTTL() time.Duration {
	return time.Duration(c.Redis.NutritionCacheTTLMinutes) * time.Minute
}

// GetConfig returns the loaded config (must call LoadConfig first)
func GetConfig() *Config {
	return cfg
}

// ResetConfigForTest resets the singleton state (for testing only)
func ResetConfigForTest() {
	once = sync.Once{}
	cfg = nil
	cfgErr = nil
}
