package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultEndpoint = "https://open.bigmodel.cn/api/paas/v4/layout_parsing"
	DefaultModel    = "glm-ocr"

	DefaultConcurrency = 10
	DefaultAttempts    = 3
	DefaultTimeout     = 120 * time.Second
	DefaultDPI         = 144
)

var ErrMissingKey = errors.New("api_key is required")

type Config struct {
	APIKey   string
	Endpoint string
	Model    string

	Concurrency int
	Attempts    int

	// RateLimit caps recognition requests per second. Zero means unlimited.
	RateLimit int

	Timeout time.Duration

	DPI      int
	PDFInfo  string
	PDFToPPM string

	Strict      bool
	RetryFailed bool

	proxy *proxyConfig
}

// Parse reads a YAML or JSON config file. Environment variables in the file
// are expanded before decoding.
func Parse(path string) (*Config, error) {
	file, err := parseFile(path)

	if err != nil {
		return nil, err
	}

	c := &Config{
		APIKey:   file.APIKey,
		Endpoint: DefaultEndpoint,
		Model:    DefaultModel,

		Concurrency: DefaultConcurrency,
		Attempts:    DefaultAttempts,

		Timeout: DefaultTimeout,

		DPI:      DefaultDPI,
		PDFInfo:  file.PDFInfo,
		PDFToPPM: file.PDFToPPM,

		Strict:      file.Strict,
		RetryFailed: true,

		proxy: file.Proxy,
	}

	if file.Endpoint != "" {
		c.Endpoint = file.Endpoint
	}

	if file.Model != "" {
		c.Model = file.Model
	}

	if file.Concurrency != nil {
		c.Concurrency = *file.Concurrency
	}

	if file.Attempts != nil {
		c.Attempts = *file.Attempts
	}

	if file.RateLimit != nil {
		c.RateLimit = *file.RateLimit
	}

	if file.DPI != nil {
		c.DPI = *file.DPI
	}

	if file.RetryFailed != nil {
		c.RetryFailed = *file.RetryFailed
	}

	if file.Timeout != "" {
		timeout, err := time.ParseDuration(file.Timeout)

		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", file.Timeout, err)
		}

		c.Timeout = timeout
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Config) validate() error {
	if c.APIKey == "" {
		return ErrMissingKey
	}

	if c.Concurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", c.Concurrency)
	}

	if c.Attempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.Attempts)
	}

	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %d", c.RateLimit)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}

	if c.DPI < 36 || c.DPI > 600 {
		return fmt.Errorf("dpi must be between 36 and 600, got %d", c.DPI)
	}

	return nil
}

type configFile struct {
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"api_endpoint"`
	Model    string `yaml:"model_name"`

	Concurrency *int `yaml:"max_concurrency"`
	Attempts    *int `yaml:"max_attempts"`
	RateLimit   *int `yaml:"rate_limit"`

	Timeout string `yaml:"timeout"`

	DPI      *int   `yaml:"dpi"`
	PDFInfo  string `yaml:"pdfinfo"`
	PDFToPPM string `yaml:"pdftoppm"`

	Strict      bool  `yaml:"strict"`
	RetryFailed *bool `yaml:"retry_failed"`

	Proxy *proxyConfig `yaml:"proxy"`
}

func parseFile(path string) (*configFile, error) {
	data, err := os.ReadFile(path)

	if err != nil {
		return nil, err
	}

	data = []byte(os.ExpandEnv(string(data)))

	var config configFile

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &config, nil
}
