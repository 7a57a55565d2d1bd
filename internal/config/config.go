// Copyright 2025.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Qingbolan/Print-SoC/internal/core/domain"
)

type Config struct {
	Connection ConnectionConfig `yaml:"connection"`
	Storage    StorageConfig    `yaml:"storage"`
	Polling    PollingConfig    `yaml:"polling"`
	Catalog    CatalogConfig    `yaml:"catalog"`
}

// ConnectionConfig holds the remote host defaults. Password and key are
// one-of; when both are set the key wins.
type ConnectionConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	KeyPath    string `yaml:"key_path"`
	Passphrase string `yaml:"passphrase"`
}

type StorageConfig struct {
	DataDir       string `yaml:"data_dir"`
	RetentionDays int    `yaml:"retention_days"`
}

type PollingConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type CatalogConfig struct {
	Path string `yaml:"path"`
}

func defaults() *Config {
	return &Config{
		Connection: ConnectionConfig{Port: 22},
		Storage:    StorageConfig{RetentionDays: 30},
		Polling:    PollingConfig{Interval: 30 * time.Second},
	}
}

// Load reads the YAML config. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Connection.Port < 1 || c.Connection.Port > 65535 {
		return fmt.Errorf("connection port must be between 1 and 65535, got %d", c.Connection.Port)
	}
	if c.Storage.RetentionDays < 0 {
		return fmt.Errorf("retention days must be non-negative")
	}
	if c.Polling.Interval <= 0 {
		return fmt.Errorf("polling interval must be positive")
	}
	return nil
}

// SSHConfig builds the credential variant for a connect attempt. The
// password never appears in logs; see domain.ConnectionConfig.Redacted.
func (c *Config) SSHConfig() (domain.ConnectionConfig, error) {
	if c.Connection.Host == "" {
		return domain.ConnectionConfig{}, fmt.Errorf("connection host is not configured")
	}
	if c.Connection.Username == "" {
		return domain.ConnectionConfig{}, fmt.Errorf("connection username is not configured")
	}

	var auth domain.Auth
	switch {
	case c.Connection.KeyPath != "":
		auth = domain.KeyAuth{KeyPath: c.Connection.KeyPath, Passphrase: c.Connection.Passphrase}
	case c.Connection.Password != "":
		auth = domain.PasswordAuth{Password: c.Connection.Password}
	default:
		return domain.ConnectionConfig{}, fmt.Errorf("no credentials configured: set password or key_path")
	}

	return domain.ConnectionConfig{
		Host:     c.Connection.Host,
		Port:     c.Connection.Port,
		Username: c.Connection.Username,
		Auth:     auth,
	}, nil
}

// Retention converts the configured retention days to a duration.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Storage.RetentionDays) * 24 * time.Hour
}
