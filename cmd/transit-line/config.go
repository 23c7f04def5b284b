package transitline

import "fmt"

// Config holds the configuration for the transit line simulation
type Config struct {
	LineLength float64
	Swath      float64
	Speed      float64
	TimeStep   float64
	DriftRate  float64
	NoiseBound float64
	DriftScale float64
	Seed       int64
}

// ValidateAndParse validates and parses the raw parameters into a Config
func ValidateAndParse(params map[string]interface{}) (*Config, error) {
	config := &Config{
		LineLength: 600,
		Swath:      10,
		Speed:      1.5,
		TimeStep:   0.05,
		DriftRate:  0.05,
		NoiseBound: 0.01,
		DriftScale: 1.0,
		Seed:       7,
	}

	// Parse line_length
	if v, ok := params["line_length"]; ok {
		switch val := v.(type) {
		case float64:
			config.LineLength = val
		case int:
			config.LineLength = float64(val)
		default:
			return nil, fmt.Errorf("line_length must be a number")
		}
	}
	if config.LineLength <= 0 {
		return nil, fmt.Errorf("line_length must be positive")
	}

	// Parse swath
	if v, ok := params["swath"]; ok {
		switch val := v.(type) {
		case float64:
			config.Swath = val
		case int:
			config.Swath = float64(val)
		default:
			return nil, fmt.Errorf("swath must be a number")
		}
	}
	if config.Swath <= 0 {
		return nil, fmt.Errorf("swath must be positive")
	}

	// Parse speed
	if v, ok := params["speed"]; ok {
		switch val := v.(type) {
		case float64:
			config.Speed = val
		case int:
			config.Speed = float64(val)
		default:
			return nil, fmt.Errorf("speed must be a number")
		}
	}
	if config.Speed <= 0 {
		return nil, fmt.Errorf("speed must be positive")
	}

	// Parse time_step
	if v, ok := params["time_step"]; ok {
		switch val := v.(type) {
		case float64:
			config.TimeStep = val
		case int:
			config.TimeStep = float64(val)
		default:
			return nil, fmt.Errorf("time_step must be a number")
		}
	}
	if config.TimeStep <= 0 {
		return nil, fmt.Errorf("time_step must be positive")
	}

	// Parse drift_rate
	if v, ok := params["drift_rate"]; ok {
		switch val := v.(type) {
		case float64:
			config.DriftRate = val
		case int:
			config.DriftRate = float64(val)
		default:
			return nil, fmt.Errorf("drift_rate must be a number")
		}
	}
	if config.DriftRate < 0 {
		return nil, fmt.Errorf("drift_rate cannot be negative")
	}

	// Parse noise_bound
	if v, ok := params["noise_bound"]; ok {
		switch val := v.(type) {
		case float64:
			config.NoiseBound = val
		case int:
			config.NoiseBound = float64(val)
		default:
			return nil, fmt.Errorf("noise_bound must be a number")
		}
	}
	if config.NoiseBound < 0 {
		return nil, fmt.Errorf("noise_bound cannot be negative")
	}

	// Parse drift_scale
	if v, ok := params["drift_scale"]; ok {
		switch val := v.(type) {
		case float64:
			config.DriftScale = val
		case int:
			config.DriftScale = float64(val)
		default:
			return nil, fmt.Errorf("drift_scale must be a number")
		}
	}
	if config.DriftScale <= 0 {
		return nil, fmt.Errorf("drift_scale must be positive")
	}

	// Parse seed
	if v, ok := params["seed"]; ok {
		switch val := v.(type) {
		case int:
			config.Seed = int64(val)
		case int64:
			config.Seed = val
		case float64:
			config.Seed = int64(val)
		default:
			return nil, fmt.Errorf("seed must be an integer")
		}
	}

	return config, nil
}
