// Package config loads the client configuration from a YAML file and
// resolves the on-disk state locations shared by the credential store and
// the device fingerprint.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration, loaded from a YAML file.
type Config struct {
	// Endpoint is an explicit API endpoint. When set it wins over the
	// origin-derived endpoint.
	Endpoint string `yaml:"endpoint" json:"endpoint"`

	// Origin is the deployment origin the client targets, e.g.
	// https://hailuo.example.com. Loopback origins fall back to the local
	// development endpoint.
	Origin string `yaml:"origin" json:"origin"`

	// ProxyURL is the URL of an optional proxy server to use for outbound
	// requests.
	ProxyURL string `yaml:"proxy-url" json:"proxy-url"`

	// StateDir holds persisted client state: credentials and the device
	// fingerprint. Defaults to ~/.hailuo.
	StateDir string `yaml:"state-dir" json:"state-dir"`

	// LoggingToFile switches log output from stdout to a rotating file.
	LoggingToFile bool `yaml:"logging-to-file" json:"logging-to-file"`

	// Debug enables debug-level logging.
	Debug bool `yaml:"debug" json:"debug"`
}

// LoadConfig reads and parses the configuration file.
func LoadConfig(path string) (*Config, error) {
	return LoadConfigOptional(path, false)
}

// LoadConfigOptional reads the configuration file; when optional is true a
// missing file yields the defaults instead of an error.
func LoadConfigOptional(path string, optional bool) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if optional && os.IsNotExist(err) {
			return cfg.withDefaults()
		}
		return nil, fmt.Errorf("config: read %s failed: %w", path, err)
	}
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s failed: %w", path, err)
	}
	return cfg.withDefaults()
}

func (c *Config) withDefaults() (*Config, error) {
	if c.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("config: resolve home dir failed: %w", err)
		}
		c.StateDir = filepath.Join(home, ".hailuo")
	}
	return c, nil
}

// CredentialFile returns the path of the persisted token file.
func (c *Config) CredentialFile() string {
	return filepath.Join(c.StateDir, "credentials.json")
}

// FingerprintFile returns the path of the persisted device fingerprint.
func (c *Config) FingerprintFile() string {
	return filepath.Join(c.StateDir, "device_fingerprint")
}

// LogDir returns the directory used for application logs.
func (c *Config) LogDir() string {
	return filepath.Join(c.StateDir, "logs")
}
