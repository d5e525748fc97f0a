package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	GA     GAConfig     `yaml:"ga"`
	Cache  CacheConfig  `yaml:"cache"`
	Query  QueryConfig  `yaml:"query"`
	Log    LogConfig    `yaml:"log"`
}

type ServerConfig struct {
	// Transport is "stdio" or "http".
	Transport string `yaml:"transport"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
}

type GAConfig struct {
	// CredentialsPath points at a service account key file. It must exist;
	// the server refuses to start with no way to authenticate.
	CredentialsPath string `yaml:"credentials_path"`
	// PropertyAliases maps a canonical property reference to alternate
	// names accepted during resolution.
	PropertyAliases map[string][]string `yaml:"property_aliases"`
	FuzzyThreshold  float64             `yaml:"fuzzy_threshold"`
}

type CacheConfig struct {
	// QueryTTL covers report results, PropertyTTL covers the discovered
	// property list and per-property metadata.
	QueryTTL    time.Duration `yaml:"query_ttl"`
	PropertyTTL time.Duration `yaml:"property_ttl"`
}

type QueryConfig struct {
	DefaultLimit  int64         `yaml:"default_limit"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxConcurrent int           `yaml:"max_concurrent"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Transport: "stdio",
			Host:      "0.0.0.0",
			Port:      8080,
		},
		GA: GAConfig{
			FuzzyThreshold: 0.6,
		},
		Cache: CacheConfig{
			QueryTTL:    5 * time.Minute,
			PropertyTTL: time.Hour,
		},
		Query: QueryConfig{
			DefaultLimit:  1000,
			Timeout:       30 * time.Second,
			MaxConcurrent: 8,
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path := os.Getenv("GA_MCP_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.Server.Transport != "stdio" && cfg.Server.Transport != "http" {
		return Config{}, fmt.Errorf("invalid transport %q: must be stdio or http", cfg.Server.Transport)
	}
	if cfg.GA.FuzzyThreshold < 0 || cfg.GA.FuzzyThreshold > 1 {
		return Config{}, fmt.Errorf("fuzzy threshold %v out of range [0,1]", cfg.GA.FuzzyThreshold)
	}
	if err := validateCredentials(cfg.GA.CredentialsPath); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if transport := os.Getenv("GA_MCP_TRANSPORT"); transport != "" {
		cfg.Server.Transport = transport
	}
	if host := os.Getenv("GA_MCP_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("GA_MCP_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid GA_MCP_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if level := os.Getenv("GA_MCP_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	// GA_CREDENTIALS_PATH wins over the standard Google variable so a
	// dedicated key can coexist with ambient gcloud credentials.
	if path := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); path != "" {
		cfg.GA.CredentialsPath = path
	}
	if path := os.Getenv("GA_CREDENTIALS_PATH"); path != "" {
		cfg.GA.CredentialsPath = path
	}

	if ttl, err := envSeconds("GA_CACHE_TTL"); err != nil {
		return err
	} else if ttl > 0 {
		cfg.Cache.QueryTTL = ttl
	}
	if ttl, err := envSeconds("GA_PROPERTY_CACHE_TTL"); err != nil {
		return err
	} else if ttl > 0 {
		cfg.Cache.PropertyTTL = ttl
	}

	if raw := os.Getenv("GA_FUZZY_THRESHOLD"); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid GA_FUZZY_THRESHOLD: %w", err)
		}
		cfg.GA.FuzzyThreshold = threshold
	}
	if raw := os.Getenv("GA_PROPERTY_ALIASES"); raw != "" {
		aliases := map[string][]string{}
		if err := json.Unmarshal([]byte(raw), &aliases); err != nil {
			return fmt.Errorf("invalid GA_PROPERTY_ALIASES: %w", err)
		}
		cfg.GA.PropertyAliases = aliases
	}
	if raw := os.Getenv("GA_DEFAULT_LIMIT"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid GA_DEFAULT_LIMIT: %w", err)
		}
		cfg.Query.DefaultLimit = limit
	}
	if raw := os.Getenv("GA_MCP_QUERY_TIMEOUT"); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid GA_MCP_QUERY_TIMEOUT: %w", err)
		}
		cfg.Query.Timeout = timeout
	}
	if raw := os.Getenv("GA_MCP_MAX_CONCURRENT"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid GA_MCP_MAX_CONCURRENT: %w", err)
		}
		cfg.Query.MaxConcurrent = n
	}

	return nil
}

// envSeconds reads an integer environment variable holding whole seconds.
func envSeconds(name string) (time.Duration, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, nil
	}
	secs, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if secs <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive number of seconds", name)
	}
	return time.Duration(secs) * time.Second, nil
}

func validateCredentials(path string) error {
	if path == "" {
		return fmt.Errorf("no credentials configured: set GOOGLE_APPLICATION_CREDENTIALS or GA_CREDENTIALS_PATH")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("credentials file %s: %w", path, err)
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
