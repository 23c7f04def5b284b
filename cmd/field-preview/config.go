package fieldpreview

import "fmt"

// Config holds the configuration for the field preview simulation
type Config struct {
	Width      float64
	Height     float64
	GridX      int
	GridY      int
	NumSpirals int
	NumRipples int
	BiasX      float64
	BiasY      float64
	Scale      float64
	Seed       int64
	OutputPath string
}

// ValidateAndParse validates and parses the raw parameters into a Config
func ValidateAndParse(params map[string]interface{}) (*Config, error) {
	config := &Config{
		Width:      200,
		Height:     200,
		GridX:      40,
		GridY:      40,
		NumSpirals: 6,
		NumRipples: 4,
		BiasX:      0.10,
		BiasY:      0.05,
		Scale:      1.0,
		Seed:       99,
		OutputPath: "reports/drift_field.csv",
	}

	floatParam := func(key string, dst *float64) error {
		if v, ok := params[key]; ok {
			switch val := v.(type) {
			case float64:
				*dst = val
			case int:
				*dst = float64(val)
			default:
				return fmt.Errorf("%s must be a number", key)
			}
		}
		return nil
	}
	intParam := func(key string, dst *int) error {
		if v, ok := params[key]; ok {
			switch val := v.(type) {
			case int:
				*dst = val
			case float64:
				*dst = int(val)
			default:
				return fmt.Errorf("%s must be an integer", key)
			}
		}
		return nil
	}

	if err := floatParam("width", &config.Width); err != nil {
		return nil, err
	}
	if err := floatParam("height", &config.Height); err != nil {
		return nil, err
	}
	if err := intParam("grid_x", &config.GridX); err != nil {
		return nil, err
	}
	if err := intParam("grid_y", &config.GridY); err != nil {
		return nil, err
	}
	if err := intParam("num_spirals", &config.NumSpirals); err != nil {
		return nil, err
	}
	if err := intParam("num_ripples", &config.NumRipples); err != nil {
		return nil, err
	}
	if err := floatParam("bias_x", &config.BiasX); err != nil {
		return nil, err
	}
	if err := floatParam("bias_y", &config.BiasY); err != nil {
		return nil, err
	}
	if err := floatParam("scale", &config.Scale); err != nil {
		return nil, err
	}
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
	if v, ok := params["output"]; ok {
		config.OutputPath = fmt.Sprintf("%v", v)
	}

	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("width and height must be positive")
	}
	if config.GridX < 1 || config.GridX > 1000 || config.GridY < 1 || config.GridY > 1000 {
		return nil, fmt.Errorf("grid dimensions must be between 1 and 1000")
	}
	if config.NumSpirals < 0 || config.NumRipples < 0 {
		return nil, fmt.Errorf("feature counts cannot be negative")
	}
	if config.Scale <= 0 {
		return nil, fmt.Errorf("scale must be positive")
	}
	if config.OutputPath == "" {
		return nil, fmt.Errorf("output path is required")
	}

	return config, nil
}
