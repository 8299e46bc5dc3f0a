package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	configDirName  = ".ordersync"
	configFileName = "config.yaml"
	tokenFileName  = "token"
)

// LocalConfig holds configuration loaded from a local file.
type LocalConfig struct {
	ERP    localERPConfig
	Mirror localMirrorConfig
}

// localConfig represents the local configuration file structure.
type localConfig struct {
	ERP    localERP    `yaml:"erp"`
	Mirror localMirror `yaml:"mirror"`
}

// localERP represents the erp section of the config file.
type localERP struct {
	AuthURL      string `yaml:"auth_url"`
	BaseURL      string `yaml:"base_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	TokenURL     string `yaml:"token_url"`
}

// localERPConfig holds ERP credentials from the config file.
type localERPConfig struct {
	AuthURL      string
	BaseURL      string
	ClientID     string
	ClientSecret string
	TokenURL     string
}

// localMirror represents the mirror section of the config file.
type localMirror struct {
	DBPath string `yaml:"db_path"`
}

// localMirrorConfig holds mirror database settings from the config file.
type localMirrorConfig struct {
	DBPath string
}

// ConfigDir returns the ordersync configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// ConfigFilePath returns the path to the local config file.
func ConfigFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// LoadLocal loads configuration from the local config file.
func LoadLocal() (*LocalConfig, error) {
	configPath, err := ConfigFilePath()
	if err != nil {
		return nil, err
	}
	return loadLocalFromPath(configPath)
}

// LocalConfigExists checks if a local config file exists.
func LocalConfigExists() bool {
	configPath, err := ConfigFilePath()
	if err != nil {
		return false
	}
	_, err = os.Stat(configPath)
	return err == nil
}

// TokenFilePath returns the path to the local token file.
func TokenFilePath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, tokenFileName), nil
}

func loadLocalFromPath(configPath string) (*LocalConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s (run 'ordersync init' to create)", configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var local localConfig
	if err := yaml.Unmarshal(data, &local); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &LocalConfig{}
	cfg.ERP.AuthURL = local.ERP.AuthURL
	cfg.ERP.BaseURL = local.ERP.BaseURL
	cfg.ERP.ClientID = local.ERP.ClientID
	cfg.ERP.ClientSecret = local.ERP.ClientSecret
	cfg.ERP.TokenURL = local.ERP.TokenURL
	cfg.Mirror.DBPath = local.Mirror.DBPath

	if cfg.Mirror.DBPath == "" {
		dir := filepath.Dir(configPath)
		cfg.Mirror.DBPath = filepath.Join(dir, "mirror.db")
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// validate checks that required fields are set.
func (c *LocalConfig) validate() error {
	var errs []error

	if c.ERP.ClientID == "" {
		errs = append(errs, errors.New("erp.client_id is required"))
	}
	if c.ERP.ClientSecret == "" {
		errs = append(errs, errors.New("erp.client_secret is required"))
	}

	return errors.Join(errs...)
}
