package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

const DefaultConfigPath = "config.yml"

// Config is the global YAML configuration.
type Config struct {
	Logger     Logger     `yaml:"logger"`
	HTTPClient HTTPClient `yaml:"http_client"`
	AppSec     AppSec     `yaml:"appsec"`
	UI         UI         `yaml:"ui"`
}

type Logger struct {
	Level           string `yaml:"level"`
	DisableTime     *bool  `yaml:"disable_time"`
	JSONFormat      *bool  `yaml:"json_format"`
	IncludeLocation *bool  `yaml:"include_location"`
}

type HTTPClient struct {
	Debug            *bool           `yaml:"debug"`
	RetryCount       int             `yaml:"retry_count"`
	RetryWaitTime    time.Duration   `yaml:"retry_wait_time"`
	RetryMaxWaitTime time.Duration   `yaml:"retry_max_wait_time"`
	Timeout          time.Duration   `yaml:"timeout"`
	TLSClientConfig  TLSClientConfig `yaml:"tls_client_config"`
	Proxy            Proxy           `yaml:"proxy"`
}

type TLSClientConfig struct {
	Verify *bool `yaml:"verify"`
}

type Proxy struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// AppSec holds the portal connection settings.
type AppSec struct {
	APIURL           string `yaml:"api_url"`
	APIToken         string `yaml:"api_token"`
	RuleActionChoice string `yaml:"rule_action_choice"`
}

// UI holds rendering preferences.
type UI struct {
	Theme string `yaml:"theme"`
}

// ValidateConfigPath checks that path points at a regular file.
func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

// LoadYAML decodes the YAML file at configPath into data.
func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil {
		return err
	}

	return nil
}

// LoadConfig reads the configuration file and applies environment overrides.
// A missing file is not an error: defaults and environment variables are used instead.
func LoadConfig(configPath string) (*Config, error) {
	cfg := &Config{}

	if configPath == "" {
		configPath = DefaultConfigPath
	}
	if err := LoadYAML(configPath, cfg); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load config %q: %w", configPath, err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("APPSEC_API_URL"); v != "" {
		cfg.AppSec.APIURL = v
	}
	if v := os.Getenv("APPSEC_API_TOKEN"); v != "" {
		cfg.AppSec.APIToken = v
	}
	if v := os.Getenv("TRIAGE_THEME"); v != "" {
		cfg.UI.Theme = v
	}
}

func applyDefaults(cfg *Config) {
	cfg.AppSec.RuleActionChoice = SetThen(cfg.AppSec.RuleActionChoice, DefaultRuleActionChoice)
	cfg.UI.Theme = SetThen(cfg.UI.Theme, ThemeAuto)
}
