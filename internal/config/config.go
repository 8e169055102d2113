package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config holds all Halyard settings.
type Config struct {
	StorePath string          `yaml:"store_path"` // sqlite database file
	Provision ProvisionConfig `yaml:"provision"`
	SSH       SSHConfig       `yaml:"ssh"`
}

// ProvisionConfig controls the configuration-management sub-process that
// installs software on provisioned hosts.
type ProvisionConfig struct {
	Command  string `yaml:"command"`  // executable invoked per host
	Playbook string `yaml:"playbook"` // playbook/recipe path passed to the command
}

// SSHConfig holds defaults applied to newly created servers.
type SSHConfig struct {
	Port int    `yaml:"port"`
	User string `yaml:"user"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		StorePath: filepath.Join(Dir(), "halyard.db"),
		Provision: ProvisionConfig{
			Command:  "ansible-playbook",
			Playbook: filepath.Join(Dir(), "provision.yml"),
		},
		SSH: SSHConfig{
			Port: 22,
			User: "halyard",
		},
	}
}

// Dir returns the platform-specific config directory.
//
//	Linux:   ~/.config/halyard
//	Windows: C:\ProgramData\halyard
//
// Override with HALYARD_CONFIG_DIR environment variable.
func Dir() string {
	if d := os.Getenv("HALYARD_CONFIG_DIR"); d != "" {
		return d
	}
	if runtime.GOOS == "windows" {
		return `C:\ProgramData\halyard`
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "/etc/halyard"
	}
	return filepath.Join(home, ".config", "halyard")
}

// FilePath returns the full path to the config file.
func FilePath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// KeyDir returns the directory where generated server SSH keys are kept.
func KeyDir() string {
	return filepath.Join(Dir(), "keys")
}

// Load reads the YAML config file from the platform-specific path.
// If the file does not exist, it returns the default configuration.
func Load() (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(FilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the platform-specific YAML file.
func Save(cfg *Config) error {
	if err := os.MkdirAll(Dir(), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(FilePath(), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}
