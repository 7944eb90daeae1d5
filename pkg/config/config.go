package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Provider struct {
		BaseURL          string        `yaml:"base_url"`
		Concurrency      int           `yaml:"concurrency"`
		RequestDelay     time.Duration `yaml:"request_delay"`
		Timeout          time.Duration `yaml:"timeout"`
		RateLimitBackoff time.Duration `yaml:"rate_limit_backoff"`
	} `yaml:"provider"`
	Discovery struct {
		IndexURL  string  `yaml:"index_url"`
		PageSize  int     `yaml:"page_size"`
		RPS       float64 `yaml:"rps"`
		Burst     int     `yaml:"burst"`
		NamesFile string  `yaml:"names_file"`
	} `yaml:"discovery"`
	Cache struct {
		Enabled bool          `yaml:"enabled"`
		Backend string        `yaml:"backend"`
		TTL     time.Duration `yaml:"ttl"`
		Redis   struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Queue struct {
		Enabled    bool          `yaml:"enabled"`
		Workers    int           `yaml:"workers"`
		ResultTTL  time.Duration `yaml:"result_ttl"`
		JobTimeout time.Duration `yaml:"job_timeout"`
	} `yaml:"queue"`
	Advisor struct {
		Provider    string        `yaml:"provider"`
		Model       string        `yaml:"model"`
		APIKey      string        `yaml:"api_key"`
		BaseURL     string        `yaml:"base_url"`
		Temperature float64       `yaml:"temperature"`
		Timeout     time.Duration `yaml:"timeout"`
	} `yaml:"advisor"`
	Report struct {
		OutputDir string `yaml:"output_dir"`
		TopN      int    `yaml:"top_n"`
	} `yaml:"report"`
	Archive struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"archive"`
	Publish struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"publish"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	// Validate required fields
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Override with environment variables
	if v := os.Getenv("MORNINGSTAR_BASE_URL"); v != "" {
		c.Provider.BaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Publish.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Publish.Topic = v
	}
	if v := os.Getenv("AI_PROVIDER"); v != "" {
		c.Advisor.Provider = v
	}
	switch c.Advisor.Provider {
	case "zhipu":
		if v := os.Getenv("ZHIPU_API_KEY"); v != "" {
			c.Advisor.APIKey = v
		}
		if v := os.Getenv("ZHIPU_MODEL"); v != "" {
			c.Advisor.Model = v
		}
	case "deepseek":
		if v := os.Getenv("DEEPSEEK_API_KEY"); v != "" {
			c.Advisor.APIKey = v
		}
		if v := os.Getenv("DEEPSEEK_MODEL"); v != "" {
			c.Advisor.Model = v
		}
	case "openai":
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			c.Advisor.APIKey = v
		}
		if v := os.Getenv("OPENAI_MODEL"); v != "" {
			c.Advisor.Model = v
		}
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// applyDefaults fills in values the YAML may omit.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Provider.BaseURL == "" {
		c.Provider.BaseURL = "https://www.morningstar.cn/cn-api/v2"
	}
	if c.Provider.Concurrency == 0 {
		c.Provider.Concurrency = 10
	}
	if c.Provider.RequestDelay == 0 {
		c.Provider.RequestDelay = 500 * time.Millisecond
	}
	if c.Provider.Timeout == 0 {
		c.Provider.Timeout = 30 * time.Second
	}
	if c.Provider.RateLimitBackoff == 0 {
		c.Provider.RateLimitBackoff = 5 * time.Second
	}
	if c.Discovery.IndexURL == "" {
		c.Discovery.IndexURL = "https://www.csindex.com.cn/csindex-home/search/search-content"
	}
	if c.Discovery.PageSize == 0 {
		c.Discovery.PageSize = 100
	}
	if c.Discovery.RPS == 0 {
		c.Discovery.RPS = 2
	}
	if c.Discovery.Burst == 0 {
		c.Discovery.Burst = 1
	}
	if c.Discovery.NamesFile == "" {
		c.Discovery.NamesFile = filepath.Join("downloads", "fund_names_mapping.json")
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 24 * time.Hour
	}
	if c.Queue.Workers == 0 {
		c.Queue.Workers = 2
	}
	if c.Queue.ResultTTL == 0 {
		c.Queue.ResultTTL = 24 * time.Hour
	}
	if c.Queue.JobTimeout == 0 {
		c.Queue.JobTimeout = 30 * time.Minute
	}
	if c.Advisor.Provider == "" {
		c.Advisor.Provider = "zhipu"
	}
	if c.Advisor.Model == "" {
		switch c.Advisor.Provider {
		case "zhipu":
			c.Advisor.Model = "glm-4.7"
		case "deepseek":
			c.Advisor.Model = "deepseek-chat"
		case "openai":
			c.Advisor.Model = "gpt-4o-mini"
		}
	}
	if c.Advisor.Temperature == 0 {
		c.Advisor.Temperature = 0.1
	}
	if c.Advisor.Timeout == 0 {
		c.Advisor.Timeout = 60 * time.Second
	}
	if c.Report.OutputDir == "" {
		c.Report.OutputDir = "reports"
	}
	if c.Report.TopN == 0 {
		c.Report.TopN = 20
	}
	if c.Archive.Port == 0 {
		c.Archive.Port = 9000
	}
	if c.Archive.Database == "" {
		c.Archive.Database = "fundinsight"
	}
	if c.Archive.User == "" {
		c.Archive.User = "default"
	}
	if c.Archive.DialTimeout == 0 {
		c.Archive.DialTimeout = 5 * time.Second
	}
	if c.Archive.ReadTimeout == 0 {
		c.Archive.ReadTimeout = 10 * time.Second
	}
	if c.Archive.WriteTimeout == 0 {
		c.Archive.WriteTimeout = 10 * time.Second
	}
	if c.Archive.MaxExecutionTime == 0 {
		c.Archive.MaxExecutionTime = 60 * time.Second
	}
	if c.Publish.Topic == "" {
		c.Publish.Topic = "fund-rankings"
	}
	if c.Publish.RequiredAcks == 0 {
		c.Publish.RequiredAcks = -1
	}
	if c.Publish.Compression == "" {
		c.Publish.Compression = "gzip"
	}
	if c.Publish.Producer.MaxAttempts == 0 {
		c.Publish.Producer.MaxAttempts = 3
	}
	if c.Publish.Producer.Linger == 0 {
		c.Publish.Producer.Linger = time.Second
	}
	if c.Publish.Producer.BatchBytes == 0 {
		c.Publish.Producer.BatchBytes = 1048576
	}
	if c.Publish.Producer.BatchSize == 0 {
		c.Publish.Producer.BatchSize = 100
	}
	if c.Publish.Producer.WriteTimeout == 0 {
		c.Publish.Producer.WriteTimeout = 10 * time.Second
	}
	if c.Publish.Producer.ReadTimeout == 0 {
		c.Publish.Producer.ReadTimeout = 10 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Provider.Concurrency < 1 {
		return fmt.Errorf("provider.concurrency must be at least 1, got %d", c.Provider.Concurrency)
	}
	switch c.Cache.Backend {
	case "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.backend must be 'memory', 'redis' or 'layered', got '%s'", c.Cache.Backend)
	}
	if (c.Cache.Backend == "redis" || c.Cache.Backend == "layered") && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required for backend '%s'", c.Cache.Backend)
	}
	if c.Queue.Enabled && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required when queue is enabled")
	}
	switch c.Advisor.Provider {
	case "zhipu", "deepseek", "openai", "none":
	default:
		return fmt.Errorf("advisor.provider must be 'zhipu', 'deepseek', 'openai' or 'none', got '%s'", c.Advisor.Provider)
	}
	if c.Publish.Enabled && len(c.Publish.Brokers) == 0 {
		return fmt.Errorf("publish.brokers cannot be empty when publish is enabled")
	}
	if c.Archive.Enabled && c.Archive.Host == "" {
		return fmt.Errorf("archive.host is required when archive is enabled")
	}
	return nil
}
