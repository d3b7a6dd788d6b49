package config

import (
	"fmt"
	"os"
	"time"

	"github.com/deckhand-io/deckhand/pkg/hub"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so config files can say "5s" or "200ms"
// instead of integer nanoseconds. Plain integers still parse as
// nanoseconds.
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var n int64
	if err := value.Decode(&n); err == nil {
		d.Duration = time.Duration(n)
		return nil
	}

	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("invalid duration value: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// PublishConfig holds the broadcast loop schedule
type PublishConfig struct {
	SystemInterval     Duration `yaml:"system_interval"`
	SystemRetry        Duration `yaml:"system_retry"`
	DeploymentInterval Duration `yaml:"deployment_interval"`
	DeploymentRetry    Duration `yaml:"deployment_retry"`
	ContainerInterval  Duration `yaml:"container_interval"`
	ContainerRetry     Duration `yaml:"container_retry"`
}

// Config holds dashboard configuration
type Config struct {
	ListenAddr string        `yaml:"listen_addr"`
	DataDir    string        `yaml:"data_dir"`
	DockerHost string        `yaml:"docker_host"`
	DiskPath   string        `yaml:"disk_path"`
	LogLevel   string        `yaml:"log_level"`
	LogJSON    bool          `yaml:"log_json"`
	StepDelay  Duration      `yaml:"step_delay"`
	Publish    PublishConfig `yaml:"publish"`
}

// Default returns the configuration used when no file overrides it
func Default() *Config {
	hubDefaults := hub.DefaultConfig()
	return &Config{
		ListenAddr: ":8080",
		DataDir:    "/var/lib/deckhand",
		DiskPath:   "/",
		LogLevel:   "info",
		StepDelay:  Duration{200 * time.Millisecond},
		Publish: PublishConfig{
			SystemInterval:     Duration{hubDefaults.SystemInterval},
			SystemRetry:        Duration{hubDefaults.SystemRetry},
			DeploymentInterval: Duration{hubDefaults.DeploymentInterval},
			DeploymentRetry:    Duration{hubDefaults.DeploymentRetry},
			ContainerInterval:  Duration{hubDefaults.ContainerInterval},
			ContainerRetry:     Duration{hubDefaults.ContainerRetry},
		},
	}
}

// Load reads a YAML config file over the defaults. An empty path returns
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// HubConfig converts the publish schedule into the hub's config shape
func (c *Config) HubConfig() hub.Config {
	return hub.Config{
		SystemInterval:     c.Publish.SystemInterval.Duration,
		SystemRetry:        c.Publish.SystemRetry.Duration,
		DeploymentInterval: c.Publish.DeploymentInterval.Duration,
		DeploymentRetry:    c.Publish.DeploymentRetry.Duration,
		ContainerInterval:  c.Publish.ContainerInterval.Duration,
		ContainerRetry:     c.Publish.ContainerRetry.Duration,
	}
}
