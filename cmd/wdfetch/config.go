package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the fetcher configuration: client identity and retry knobs,
// plus the list of query tasks to run.
type Config struct {
	UserAgent        string        `mapstructure:"user_agent"`
	Endpoint         string        `mapstructure:"endpoint"`
	MaxRetries       int           `mapstructure:"max_retries"`
	RateLimitRetries int           `mapstructure:"rate_limit_retries"`
	Timeout          time.Duration `mapstructure:"timeout"`
	Tasks            []TaskConfig  `mapstructure:"tasks"`
}

// TaskConfig describes a single query task. Exactly one of Query or
// QueryFile must be set.
type TaskConfig struct {
	Name      string `mapstructure:"name"`
	Query     string `mapstructure:"query"`
	QueryFile string `mapstructure:"query_file"`
	Format    string `mapstructure:"format"`
	Output    string `mapstructure:"output"`
}

// LoadConfig loads the configuration from a YAML file and environment
// variables (prefix WDFETCH_, e.g. WDFETCH_USER_AGENT).
func LoadConfig(path string) (*Config, error) {
	vip := viper.New()
	if path != "" {
		vip.SetConfigFile(path)
	} else {
		vip.SetConfigName("wdfetch")
		vip.AddConfigPath(".")
	}
	vip.SetConfigType("yaml")
	vip.SetEnvPrefix("WDFETCH")
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vip.AutomaticEnv()

	vip.SetDefault("endpoint", "https://query.wikidata.org/sparql")
	vip.SetDefault("max_retries", 5)
	vip.SetDefault("rate_limit_retries", 3)
	vip.SetDefault("timeout", "70s")

	if err := vip.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.UserAgent) == "" {
		return fmt.Errorf("user_agent must be set")
	}
	if len(c.Tasks) == 0 {
		return fmt.Errorf("at least one task must be configured")
	}
	for i, task := range c.Tasks {
		if task.Name == "" {
			return fmt.Errorf("tasks[%d]: name must be set", i)
		}
		if (task.Query == "") == (task.QueryFile == "") {
			return fmt.Errorf("task %q: exactly one of query or query_file must be set", task.Name)
		}
		switch task.Format {
		case "json", "csv":
		default:
			return fmt.Errorf("task %q: format must be json or csv, got %q", task.Name, task.Format)
		}
		if task.Output == "" {
			return fmt.Errorf("task %q: output must be set", task.Name)
		}
	}
	return nil
}
