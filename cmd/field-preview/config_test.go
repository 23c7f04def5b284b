package fieldpreview

import "testing"

func TestValidateAndParseDefaults(t *testing.T) {
	cfg, err := ValidateAndParse(map[string]interface{}{})
	if err != nil {
		t.Fatalf("ValidateAndParse returned error: %v", err)
	}

	if cfg.Width != 200 || cfg.Height != 200 {
		t.Errorf("Expected default 200x200 field, got %vx%v", cfg.Width, cfg.Height)
	}
	if cfg.GridX != 40 || cfg.GridY != 40 {
		t.Errorf("Expected default 40x40 grid, got %dx%d", cfg.GridX, cfg.GridY)
	}
	if cfg.Scale != 1.0 {
		t.Errorf("Expected default scale 1.0, got %v", cfg.Scale)
	}
	if cfg.OutputPath != "reports/drift_field.csv" {
		t.Errorf("Expected default output path, got %q", cfg.OutputPath)
	}
}

func TestValidateAndParseOverrides(t *testing.T) {
	cfg, err := ValidateAndParse(map[string]interface{}{
		"width":   120.0,
		"height":  80,
		"grid_x":  10,
		"grid_y":  5.0,
		"scale":   0.5,
		"seed":    3,
		"output":  "out/field.csv",
		"bias_x":  0.2,
	})
	if err != nil {
		t.Fatalf("ValidateAndParse returned error: %v", err)
	}

	if cfg.Width != 120 || cfg.Height != 80 {
		t.Errorf("Expected 120x80 field, got %vx%v", cfg.Width, cfg.Height)
	}
	if cfg.GridX != 10 || cfg.GridY != 5 {
		t.Errorf("Expected 10x5 grid, got %dx%d", cfg.GridX, cfg.GridY)
	}
	if cfg.Scale != 0.5 {
		t.Errorf("Expected scale 0.5, got %v", cfg.Scale)
	}
	if cfg.Seed != 3 {
		t.Errorf("Expected seed 3, got %d", cfg.Seed)
	}
	if cfg.OutputPath != "out/field.csv" {
		t.Errorf("Expected output path out/field.csv, got %q", cfg.OutputPath)
	}
	if cfg.BiasX != 0.2 {
		t.Errorf("Expected bias X 0.2, got %v", cfg.BiasX)
	}
}

func TestValidateAndParseRejectsInvalid(t *testing.T) {
	cases := []struct {
		name   string
		params map[string]interface{}
	}{
		{"zero width", map[string]interface{}{"width": 0}},
		{"zero grid", map[string]interface{}{"grid_x": 0}},
		{"oversized grid", map[string]interface{}{"grid_y": 2000}},
		{"negative spirals", map[string]interface{}{"num_spirals": -1}},
		{"zero scale", map[string]interface{}{"scale": 0}},
		{"empty output", map[string]interface{}{"output": ""}},
		{"non-numeric height", map[string]interface{}{"height": "tall"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ValidateAndParse(tc.params); err == nil {
				t.Errorf("Expected an error for %s", tc.name)
			}
		})
	}
}
