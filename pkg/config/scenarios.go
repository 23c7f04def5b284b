package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario names a reusable mission setup. ConfigPath points at a
// mission YAML file; an empty path selects the built-in defaults of
// whichever simulation runs it.
type Scenario struct {
	Name       string `yaml:"name"`
	ConfigPath string `yaml:"config_path,omitempty"`
	ReportsDir string `yaml:"reports_dir,omitempty"`
	Notes      string `yaml:"notes,omitempty"`
}

// Config holds the scenario configurations
type Config struct {
	Scenarios []Scenario `yaml:"scenarios"`
	Selected  string     `yaml:"selected,omitempty"`
}

// LoadScenarios loads scenario configurations from the default location
func LoadScenarios() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, ".auv-sim", "scenarios.yaml")
	return LoadScenariosFromFile(configPath)
}

// LoadScenariosFromFile loads scenario configurations from a specific file
func LoadScenariosFromFile(path string) (*Config, error) {
	// If file doesn't exist, return default config
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return getDefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// SaveScenarios saves the scenario configuration
func SaveScenarios(config *Config) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".auv-sim")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, "scenarios.yaml")
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// getDefaultConfig returns a default configuration
func getDefaultConfig() *Config {
	return &Config{
		Scenarios: []Scenario{
			{
				Name:       "Baseline",
				ReportsDir: "reports",
				Notes:      "Built-in mission defaults",
			},
			{
				Name:       "Committed mission",
				ConfigPath: filepath.Join("cmd", "coverage-drift", "config.yaml"),
				ReportsDir: "reports",
			},
		},
	}
}
