package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/seabedlabs/auv-sim/pkg/missionplan"
)

// LoadConfig loads configuration from a YAML file
func LoadConfig(path string) (*MissionConfig, error) {
	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	var config MissionConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadConfigOrDefault loads config from file or returns default, with environment overrides
func LoadConfigOrDefault(path string) (*MissionConfig, error) {
	var config *MissionConfig
	var err error

	if path != "" {
		config, err = LoadConfig(path)
		if err != nil {
			// Log error but continue with default
			fmt.Printf("Warning: Could not load config from %s: %v\n", path, err)
			config = nil
		}
	}

	// Try default locations if no config loaded yet
	if config == nil {
		defaultPaths := []string{
			"config.yaml",
			"coverage-drift.yaml",
			filepath.Join("cmd", "coverage-drift", "config.yaml"),
		}

		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				config, err = LoadConfig(p)
				if err == nil {
					fmt.Printf("Loaded config from: %s\n", p)
					break
				}
			}
		}
	}

	// Use default config if still no config loaded
	if config == nil {
		fmt.Println("Using default configuration")
		config = GetDefaultConfig()
	}

	// Always apply environment variable overrides
	MergeWithEnvironment(config)

	return config, nil
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *MissionConfig, path string) error {
	// Validate before saving
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Marshal to YAML
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating directory: %w", err)
	}

	// Write file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// MergeWithCLIOverrides applies CLI parameter overrides to the configuration
func MergeWithCLIOverrides(config *MissionConfig, overrides map[string]interface{}) {
	for key, value := range overrides {
		switch key {
		case "num_agents":
			if count, ok := value.(int); ok && count > 0 {
				config.Fleet.NumAgents = count
			}
		case "speed":
			if speed, ok := value.(float64); ok && speed > 0 {
				config.Fleet.Speed = speed
			}
		case "plan_type":
			if plan, ok := value.(string); ok {
				validPlans := []string{missionplan.PlanTypeSimple, missionplan.PlanTypeDubins}
				for _, valid := range validPlans {
					if plan == valid {
						config.Survey.PlanType = plan
						break
					}
				}
			}
		case "rect_width":
			if width, ok := value.(float64); ok && width > 0 {
				config.Survey.RectWidth = width
			}
		case "rect_height":
			if height, ok := value.(float64); ok && height > 0 {
				config.Survey.RectHeight = height
			}
		case "swath":
			if swath, ok := value.(float64); ok && swath > 0 {
				config.Survey.Swath = swath
			}
		case "comm_range":
			if rng, ok := value.(float64); ok && rng >= 0 {
				config.Comms.CommRange = rng
			}
		case "landmark_range":
			if rng, ok := value.(float64); ok && rng >= 0 {
				config.Comms.LandmarkRange = rng
			}
		case "seed":
			if seed, ok := value.(int64); ok {
				config.Mission.Seed = seed
			} else if seed, ok := value.(int); ok {
				config.Mission.Seed = int64(seed)
			}
		case "time_step":
			if dt, ok := value.(float64); ok && dt > 0 {
				config.Mission.TimeStep = dt
			}
		case "summarize_graphs":
			if summarize, ok := value.(bool); ok {
				config.Comms.SummarizeGraphs = summarize
			}
		case "drift_enabled":
			if enabled, ok := value.(bool); ok {
				config.Drift.Enabled = enabled
			}
		case "drift_scale":
			if scale, ok := value.(float64); ok && scale > 0 {
				config.Drift.Scale = scale
			}
		case "log_level":
			if level, ok := value.(string); ok {
				validLevels := []string{"debug", "info", "warn", "error"}
				for _, valid := range validLevels {
					if level == valid {
						config.Logging.ConsoleLevel = level
						break
					}
				}
			}
		case "reports_dir":
			if dir, ok := value.(string); ok && dir != "" {
				config.Reporting.OutputPath = dir
			}
		}
	}
}

// LoadConfigWithOverrides loads config and applies both environment and CLI overrides
func LoadConfigWithOverrides(path string, cliOverrides map[string]interface{}) (*MissionConfig, error) {
	config, err := LoadConfigOrDefault(path)
	if err != nil {
		return nil, err
	}

	// Apply CLI overrides after environment variables
	if cliOverrides != nil {
		MergeWithCLIOverrides(config, cliOverrides)
	}

	// Final validation
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed after overrides: %w", err)
	}

	return config, nil
}

// MergeWithEnvironment merges config with environment variables
func MergeWithEnvironment(config *MissionConfig) {
	// Override run parameters
	if seed := os.Getenv("AUVSIM_SEED"); seed != "" {
		if value, err := strconv.ParseInt(seed, 10, 64); err == nil {
			config.Mission.Seed = value
		}
	}

	if timeStep := os.Getenv("AUVSIM_TIME_STEP"); timeStep != "" {
		if dt, err := strconv.ParseFloat(timeStep, 64); err == nil && dt > 0 {
			config.Mission.TimeStep = dt
		}
	}

	// Override fleet parameters
	if numAgents := os.Getenv("AUVSIM_NUM_AGENTS"); numAgents != "" {
		if count, err := strconv.Atoi(numAgents); err == nil && count > 0 {
			config.Fleet.NumAgents = count
		}
	}

	if speed := os.Getenv("AUVSIM_SPEED"); speed != "" {
		if value, err := strconv.ParseFloat(speed, 64); err == nil && value > 0 {
			config.Fleet.Speed = value
		}
	}

	// Override survey parameters
	if planType := os.Getenv("AUVSIM_PLAN_TYPE"); planType != "" {
		validPlans := []string{missionplan.PlanTypeSimple, missionplan.PlanTypeDubins}
		for _, valid := range validPlans {
			if strings.ToLower(planType) == valid {
				config.Survey.PlanType = valid
				break
			}
		}
	}

	if width := os.Getenv("AUVSIM_RECT_WIDTH"); width != "" {
		if value, err := strconv.ParseFloat(width, 64); err == nil && value > 0 {
			config.Survey.RectWidth = value
		}
	}

	if height := os.Getenv("AUVSIM_RECT_HEIGHT"); height != "" {
		if value, err := strconv.ParseFloat(height, 64); err == nil && value > 0 {
			config.Survey.RectHeight = value
		}
	}

	if swath := os.Getenv("AUVSIM_SWATH"); swath != "" {
		if value, err := strconv.ParseFloat(swath, 64); err == nil && value > 0 {
			config.Survey.Swath = value
		}
	}

	// Override comms parameters
	if commRange := os.Getenv("AUVSIM_COMM_RANGE"); commRange != "" {
		if value, err := strconv.ParseFloat(commRange, 64); err == nil && value >= 0 {
			config.Comms.CommRange = value
		}
	}

	if landmarkRange := os.Getenv("AUVSIM_LANDMARK_RANGE"); landmarkRange != "" {
		if value, err := strconv.ParseFloat(landmarkRange, 64); err == nil && value >= 0 {
			config.Comms.LandmarkRange = value
		}
	}

	if summarize := os.Getenv("AUVSIM_SUMMARIZE_GRAPHS"); summarize != "" {
		if enable, err := strconv.ParseBool(summarize); err == nil {
			config.Comms.SummarizeGraphs = enable
		}
	}

	// Override drift field parameters
	if driftEnabled := os.Getenv("AUVSIM_DRIFT_ENABLED"); driftEnabled != "" {
		if enable, err := strconv.ParseBool(driftEnabled); err == nil {
			config.Drift.Enabled = enable
		}
	}

	if driftScale := os.Getenv("AUVSIM_DRIFT_SCALE"); driftScale != "" {
		if value, err := strconv.ParseFloat(driftScale, 64); err == nil && value > 0 {
			config.Drift.Scale = value
		}
	}

	// Override logging level
	if logLevel := os.Getenv("AUVSIM_LOG_LEVEL"); logLevel != "" {
		validLevels := []string{"debug", "info", "warn", "error"}
		for _, valid := range validLevels {
			if strings.ToLower(logLevel) == valid {
				config.Logging.ConsoleLevel = valid
				break
			}
		}
	}

	// Override reporting settings
	if reportsDir := os.Getenv("AUVSIM_REPORTS_DIR"); reportsDir != "" {
		config.Reporting.OutputPath = reportsDir
	}
}
