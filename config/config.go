package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	AppPort       int
	ProxyURL      string
	GoogleAPIKey  string
	GoogleCSEID   string
	OllamaURL     string
	OllamaModel   string
	HistoryDBPath string
	OverridesPath string
	UseAI         bool
}

func Load() (*Config, error) {
	appPort, err := strconv.Atoi(getEnv("APP_PORT"))
	if err != nil {
		return nil, err
	}

	return &Config{
		AppPort:       appPort,
		ProxyURL:      getEnvDefault("PROXY_URL", ""),
		GoogleAPIKey:  getEnvDefault("GOOGLE_API_KEY", ""),
		GoogleCSEID:   getEnvDefault("GOOGLE_CSE_ID", ""),
		OllamaURL:     getEnvDefault("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:   getEnvDefault("OLLAMA_MODEL", "llama2"),
		HistoryDBPath: getEnvDefault("HISTORY_DB_PATH", "data/research.db"),
		OverridesPath: getEnvDefault("SEARCH_OVERRIDES_PATH", ""),
		UseAI:         getEnvDefault("USE_AI", "true") == "true",
	}, nil
}

// ProxyFromEnv returns the proxy URL for outbound search traffic.
// PROXY_URL wins, then HTTPS_PROXY, then HTTP_PROXY.
func (c *Config) ProxyFromEnv() string {
	if c.ProxyURL != "" {
		return c.ProxyURL
	}
	for _, key := range []string{"HTTPS_PROXY", "https_proxy", "HTTP_PROXY", "http_proxy"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func getEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("Environment variable %s is required but not set", key)
	}
	return value
}

func getEnvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

// Overrides holds optional tuning loaded from a yaml file: alternate
// search backend endpoints and the User-Agent pool.
type Overrides struct {
	UserAgents []string          `yaml:"user_agents"`
	Endpoints  map[string]string `yaml:"endpoints"`
}

// LoadOverrides reads the overrides file at path. A missing file is not an
// error; the zero Overrides means built-in defaults everywhere.
func LoadOverrides(path string) (*Overrides, error) {
	if path == "" {
		return &Overrides{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Overrides{}, nil
		}
		return nil, fmt.Errorf("failed to read overrides file: %w", err)
	}

	var ov Overrides
	if err := yaml.Unmarshal(data, &ov); err != nil {
		return nil, fmt.Errorf("failed to parse overrides file: %w", err)
	}
	return &ov, nil
}
