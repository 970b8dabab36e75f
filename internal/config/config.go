// Package config loads the dashboard configuration from YAML.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"deployhub/internal/chart"
	"deployhub/internal/feed"
	"deployhub/internal/source"
	"deployhub/pkg/fileutil"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file searched in the default locations
const FileName = "deployhub.yaml"

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 5000
)

// Config represents the root configuration structure
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Feed      FeedConfig      `yaml:"feed"`
	Chart     ChartConfig     `yaml:"chart"`
	Generator GeneratorConfig `yaml:"generator"`
	History   HistoryConfig   `yaml:"history"`
}

// ServerConfig holds the HTTP listen address
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// FeedConfig controls the bounded feed and the simulator
type FeedConfig struct {
	Capacity  int           `yaml:"capacity"`
	Interval  time.Duration `yaml:"interval"`
	SeedDelay time.Duration `yaml:"seed_delay"`
}

// ChartConfig is the size of the rendered chart
type ChartConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
}

// GeneratorConfig holds the pools the synthetic generator draws from
type GeneratorConfig struct {
	Usernames []string `yaml:"usernames"`
	Projects  []string `yaml:"projects"`
}

// HistoryConfig enables the SQLite record store when DBPath is set
type HistoryConfig struct {
	DBPath string `yaml:"db_path"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Feed: FeedConfig{
			Capacity:  feed.DefaultCapacity,
			Interval:  feed.DefaultInterval,
			SeedDelay: source.DefaultDelay,
		},
		Chart: ChartConfig{
			Width:  chart.DefaultWidth,
			Height: chart.DefaultHeight,
		},
		Generator: GeneratorConfig{
			Usernames: append([]string(nil), feed.DefaultUsernames...),
			Projects:  append([]string(nil), feed.DefaultProjects...),
		},
	}
}

// Load reads and validates the configuration from a YAML file.
// Fields missing from the file keep their defaults.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if errors := cfg.Validate(); len(errors) > 0 {
		return nil, fmt.Errorf("invalid configuration in '%s':\n%s", configPath, strings.Join(errors, "\n"))
	}

	return cfg, nil
}

// Resolve loads configPath when given, otherwise the first file found in the
// default search paths, otherwise the defaults. It returns the path used,
// empty when the defaults apply.
func Resolve(configPath string) (*Config, string, error) {
	if configPath == "" {
		configPath = fileutil.FindConfigOptional(FileName)
	}
	if configPath == "" {
		return Default(), "", nil
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, configPath, err
	}
	return cfg, configPath, nil
}

// Validate returns every problem found in the configuration
func (c *Config) Validate() []string {
	var errors []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, fmt.Sprintf("  - server.port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if c.Feed.Capacity < 1 {
		errors = append(errors, fmt.Sprintf("  - feed.capacity must be at least 1, got %d", c.Feed.Capacity))
	}
	if c.Feed.Interval <= 0 {
		errors = append(errors, fmt.Sprintf("  - feed.interval must be positive, got %s", c.Feed.Interval))
	}
	if c.Feed.SeedDelay < 0 {
		errors = append(errors, fmt.Sprintf("  - feed.seed_delay cannot be negative, got %s", c.Feed.SeedDelay))
	}

	if c.Chart.Width < chart.MinWidth {
		errors = append(errors, fmt.Sprintf("  - chart.width must be at least %d, got %g", chart.MinWidth, c.Chart.Width))
	}
	if c.Chart.Height < chart.MinHeight {
		errors = append(errors, fmt.Sprintf("  - chart.height must be at least %d, got %g", chart.MinHeight, c.Chart.Height))
	}

	if len(c.Generator.Usernames) == 0 {
		errors = append(errors, "  - generator.usernames cannot be empty")
	}
	for i, name := range c.Generator.Usernames {
		if strings.TrimSpace(name) == "" {
			errors = append(errors, fmt.Sprintf("  - generator.usernames[%d] is blank", i))
		}
	}
	if len(c.Generator.Projects) == 0 {
		errors = append(errors, "  - generator.projects cannot be empty")
	}
	for i, name := range c.Generator.Projects {
		if strings.TrimSpace(name) == "" {
			errors = append(errors, fmt.Sprintf("  - generator.projects[%d] is blank", i))
		}
	}

	return errors
}

// Address returns the host:port the server listens on
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// ChartSize returns the configured chart size
func (c *Config) ChartSize() chart.Size {
	return chart.Size{Width: c.Chart.Width, Height: c.Chart.Height}
}
