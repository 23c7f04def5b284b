package fieldpreview

import (
	"context"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

func TestRunWritesFieldCSV(t *testing.T) {
	out := filepath.Join(t.TempDir(), "field.csv")

	sim := NewFieldPreviewSimulation()
	err := sim.Configure(map[string]interface{}{
		"width":  100.0,
		"height": 60.0,
		"grid_x": 8,
		"grid_y": 6,
		"seed":   17,
		"output": out,
	})
	if err != nil {
		t.Fatalf("Configure returned error: %v", err)
	}

	if err := sim.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("Expected output CSV at %s: %v", out, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse output CSV: %v", err)
	}

	if want := 8*6 + 1; len(records) != want {
		t.Fatalf("Expected %d rows including header, got %d", want, len(records))
	}

	header := records[0]
	if len(header) != 6 || header[0] != "x" || header[5] != "magnitude" {
		t.Errorf("Unexpected header row: %v", header)
	}

	u, err := strconv.ParseFloat(records[1][2], 64)
	if err != nil {
		t.Fatalf("Failed to parse u component: %v", err)
	}
	v, err := strconv.ParseFloat(records[1][3], 64)
	if err != nil {
		t.Fatalf("Failed to parse v component: %v", err)
	}
	mag, err := strconv.ParseFloat(records[1][5], 64)
	if err != nil {
		t.Fatalf("Failed to parse magnitude: %v", err)
	}
	if diff := math.Abs(mag - math.Hypot(u, v)); diff > 1e-4 {
		t.Errorf("Expected magnitude to match vector components, diff %v", diff)
	}
}

func TestRunHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sim := NewFieldPreviewSimulation()
	if err := sim.Run(ctx); err == nil {
		t.Fatal("Expected a canceled context to abort the preview")
	}
}
