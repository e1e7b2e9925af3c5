package models

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RetrievalTimeout returns the retrieval timeout as a duration.
func (c *Config) RetrievalTimeout() time.Duration {
	return time.Duration(c.Retrieval.TimeoutSeconds) * time.Second
}

// ReasoningTimeout returns the narrative-generation timeout as a duration.
func (c *Config) ReasoningTimeout() time.Duration {
	return time.Duration(c.Reasoning.TimeoutSeconds) * time.Second
}

// Config is the application configuration, loaded from YAML with environment
// variable overrides for secrets.
type Config struct {
	Server struct {
		Port        int `yaml:"port"`
		MetricsPort int `yaml:"metrics_port"`
	} `yaml:"server"`

	Database struct {
		Driver string `yaml:"driver"` // sqlite3 or postgres
		DSN    string `yaml:"dsn"`
	} `yaml:"database"`

	Vector struct {
		Host       string `yaml:"host"`
		Port       int    `yaml:"port"`
		APIKey     string `yaml:"api_key"`
		UseTLS     bool   `yaml:"use_tls"`
		Collection string `yaml:"collection"`
		Dimension  int    `yaml:"dimension"`
	} `yaml:"vector"`

	Embedding struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Model   string `yaml:"model"`
	} `yaml:"embedding"`

	LLM struct {
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Model   string `yaml:"model"`
	} `yaml:"llm"`

	Retrieval struct {
		Limit              int               `yaml:"limit"`
		TimeoutSeconds     int               `yaml:"timeout_seconds"`
		ServiceTypeAliases map[string]string `yaml:"service_type_aliases"`
	} `yaml:"retrieval"`

	Reasoning struct {
		TimeoutSeconds int `yaml:"timeout_seconds"`
	} `yaml:"reasoning"`

	Batch struct {
		Concurrency int `yaml:"concurrency"`
	} `yaml:"batch"`

	AuthSecret string `yaml:"auth_secret"`
}

// LoadConfig reads the YAML configuration file, applies defaults, and lets
// environment variables override the secret-bearing fields.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.MetricsPort == 0 {
		c.Server.MetricsPort = 9090
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite3"
	}
	if c.Database.DSN == "" {
		c.Database.DSN = "maitred.db"
	}
	if c.Vector.Port == 0 {
		c.Vector.Port = 6334
	}
	if c.Vector.Collection == "" {
		c.Vector.Collection = "fb_patterns"
	}
	if c.Vector.Dimension == 0 {
		c.Vector.Dimension = 1024
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "mistral-embed"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "mistral-small-latest"
	}
	if c.Retrieval.Limit == 0 {
		c.Retrieval.Limit = 5
	}
	if c.Retrieval.TimeoutSeconds == 0 {
		c.Retrieval.TimeoutSeconds = 5
	}
	if c.Retrieval.ServiceTypeAliases == nil {
		// Brunch has no indexed category of its own; breakfast is the
		// closest match in the pattern corpus.
		c.Retrieval.ServiceTypeAliases = map[string]string{"brunch": "breakfast"}
	}
	if c.Reasoning.TimeoutSeconds == 0 {
		c.Reasoning.TimeoutSeconds = 10
	}
	if c.Batch.Concurrency == 0 {
		c.Batch.Concurrency = 5
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("QDRANT_HOST"); v != "" {
		c.Vector.Host = v
	}
	if v := os.Getenv("QDRANT_API_KEY"); v != "" {
		c.Vector.APIKey = v
	}
	if v := os.Getenv("EMBED_API_KEY"); v != "" {
		c.Embedding.APIKey = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		c.AuthSecret = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		c.Database.DSN = v
	}
}
