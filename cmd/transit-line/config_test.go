package transitline

import "testing"

func TestValidateAndParseDefaults(t *testing.T) {
	cfg, err := ValidateAndParse(map[string]interface{}{})
	if err != nil {
		t.Fatalf("ValidateAndParse returned error: %v", err)
	}

	if cfg.LineLength != 600 {
		t.Errorf("Expected default line length 600, got %v", cfg.LineLength)
	}
	if cfg.Speed != 1.5 {
		t.Errorf("Expected default speed 1.5, got %v", cfg.Speed)
	}
	if cfg.DriftRate != 0.05 {
		t.Errorf("Expected default drift rate 0.05, got %v", cfg.DriftRate)
	}
	if cfg.NoiseBound != 0.01 {
		t.Errorf("Expected default noise bound 0.01, got %v", cfg.NoiseBound)
	}
	if cfg.Seed != 7 {
		t.Errorf("Expected default seed 7, got %d", cfg.Seed)
	}
}

func TestValidateAndParseOverrides(t *testing.T) {
	cfg, err := ValidateAndParse(map[string]interface{}{
		"line_length": 250,
		"speed":       2.5,
		"drift_rate":  0.1,
		"noise_bound": 0.0,
		"seed":        21,
	})
	if err != nil {
		t.Fatalf("ValidateAndParse returned error: %v", err)
	}

	if cfg.LineLength != 250 {
		t.Errorf("Expected line length 250, got %v", cfg.LineLength)
	}
	if cfg.Speed != 2.5 {
		t.Errorf("Expected speed 2.5, got %v", cfg.Speed)
	}
	if cfg.DriftRate != 0.1 {
		t.Errorf("Expected drift rate 0.1, got %v", cfg.DriftRate)
	}
	if cfg.NoiseBound != 0 {
		t.Errorf("Expected noise bound 0, got %v", cfg.NoiseBound)
	}
	if cfg.Seed != 21 {
		t.Errorf("Expected seed 21, got %d", cfg.Seed)
	}
}

func TestValidateAndParseRejectsInvalid(t *testing.T) {
	cases := []struct {
		name   string
		params map[string]interface{}
	}{
		{"zero line length", map[string]interface{}{"line_length": 0}},
		{"negative drift rate", map[string]interface{}{"drift_rate": -0.1}},
		{"non-numeric speed", map[string]interface{}{"speed": "fast"}},
		{"zero time step", map[string]interface{}{"time_step": 0}},
		{"zero drift scale", map[string]interface{}{"drift_scale": 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ValidateAndParse(tc.params); err == nil {
				t.Errorf("Expected an error for %s", tc.name)
			}
		})
	}
}
