package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleResults() MissionResults {
	return MissionResults{
		Outcome:            "plan completed",
		SimulatedTime:      620,
		CoveredArea:        76000,
		MissedArea:         4000,
		CoveredRatio:       0.95,
		MissedRegions:      []MissedRegion{{Area: 4000, Length: 100, Width: 40}},
		TotalTravel:        1860,
		TotalAgentTime:     1240,
		UncertaintyFloor:   2,
		GraphSummarization: true,
		Agents: []AgentResult{
			{ID: 0, Travel: 930, FinalError: 0.4, Corrections: 3, TotalErrorDrop: 5.2, ReceivedVertices: 1200, ReceivedEdges: 1180},
			{ID: 1, Travel: 930, FinalError: 0.8, Corrections: 2, TotalErrorDrop: 3.1, ReceivedVertices: 1100, ReceivedEdges: 1080},
		},
	}
}

func TestGenerateReport(t *testing.T) {
	ml := NewMissionLogger("11112222-3333-4444-5555-666677778888")
	ml.LogContact(0, 100)
	ml.LogContact(1, 100)
	ml.LogCorrection(0, 2.5, 101)

	gen := NewReportGenerator(ml, ReportConfig{
		OutputDir:   t.TempDir(),
		Format:      "json",
		DetailLevel: "full",
	})

	report, err := gen.Generate(sampleResults())
	if err != nil {
		t.Fatalf("Failed to generate report: %v", err)
	}

	if report.Summary.Outcome != "plan completed" {
		t.Errorf("Expected outcome 'plan completed', got '%s'", report.Summary.Outcome)
	}

	wantMean := (0.4 + 0.8) / 2
	if report.Summary.MeanFinalError != wantMean {
		t.Errorf("Expected mean final error %f, got %f", wantMean, report.Summary.MeanFinalError)
	}

	if report.Summary.MaxFinalError != 0.8 {
		t.Errorf("Expected max final error 0.8, got %f", report.Summary.MaxFinalError)
	}

	if report.Comms.Contacts != 2 {
		t.Errorf("Expected 2 contacts, got %d", report.Comms.Contacts)
	}

	if report.Comms.Corrections != 5 {
		t.Errorf("Expected 5 corrections, got %d", report.Comms.Corrections)
	}

	if report.Comms.ReceivedVertices != 2300 {
		t.Errorf("Expected 2300 received vertices, got %d", report.Comms.ReceivedVertices)
	}

	// Full detail level includes the event log
	if len(report.EventLog) == 0 {
		t.Errorf("Expected event log entries at full detail level")
	}
}

func TestGenerateFindings(t *testing.T) {
	ml := NewMissionLogger("aaaabbbb-cccc-dddd-eeee-ffff00001111")
	gen := NewReportGenerator(ml, ReportConfig{OutputDir: t.TempDir(), Format: "json"})

	// Poor coverage, no corrections, error above the floor
	results := sampleResults()
	results.CoveredRatio = 0.7
	results.CoveredArea = 56000
	results.MissedArea = 24000
	results.MissedRegions = []MissedRegion{{Area: 24000, Length: 240, Width: 100}}
	for i := range results.Agents {
		results.Agents[i].Corrections = 0
		results.Agents[i].FinalError = 12
	}

	report, err := gen.Generate(results)
	if err != nil {
		t.Fatalf("Failed to generate report: %v", err)
	}

	categories := make(map[string]int)
	for _, finding := range report.Findings {
		categories[finding.Category]++
	}

	if categories["Coverage"] < 2 {
		t.Errorf("Expected coverage findings for a 70%% covered mission, got %d", categories["Coverage"])
	}

	if categories["Navigation"] < 2 {
		t.Errorf("Expected navigation findings for zero corrections and high error, got %d", categories["Navigation"])
	}

	// A clean mission should produce only the positive coverage finding
	clean := sampleResults()
	clean.CoveredRatio = 1.0
	clean.MissedArea = 0
	clean.MissedRegions = nil
	cleanReport, err := gen.Generate(clean)
	if err != nil {
		t.Fatalf("Failed to generate clean report: %v", err)
	}
	for _, finding := range cleanReport.Findings {
		if finding.Priority == "High" {
			t.Errorf("Unexpected high priority finding for a clean mission: %s", finding.Observation)
		}
	}
}

func TestSaveReportFormats(t *testing.T) {
	dir := t.TempDir()
	ml := NewMissionLogger("99998888-7777-6666-5555-444433332222")

	jsonGen := NewReportGenerator(ml, ReportConfig{OutputDir: dir, Format: "json"})
	report, err := jsonGen.Generate(sampleResults())
	if err != nil {
		t.Fatalf("Failed to generate report: %v", err)
	}

	if err := jsonGen.SaveReport(report); err != nil {
		t.Fatalf("Failed to save JSON report: %v", err)
	}

	mdGen := NewReportGenerator(ml, ReportConfig{OutputDir: dir, Format: "markdown"})
	if err := mdGen.SaveReport(report); err != nil {
		t.Fatalf("Failed to save markdown report: %v", err)
	}

	badGen := NewReportGenerator(ml, ReportConfig{OutputDir: dir, Format: "xml"})
	if err := badGen.SaveReport(report); err == nil {
		t.Errorf("Expected error for unsupported format")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read report dir: %v", err)
	}

	var foundJSON, foundMD bool
	for _, entry := range entries {
		switch filepath.Ext(entry.Name()) {
		case ".json":
			foundJSON = true
			data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
			if err != nil {
				t.Fatalf("Failed to read saved report: %v", err)
			}
			var parsed MissionReport
			if err := json.Unmarshal(data, &parsed); err != nil {
				t.Fatalf("Saved report is not valid JSON: %v", err)
			}
			if parsed.Metadata.MissionID != "99998888-7777-6666-5555-444433332222" {
				t.Errorf("Unexpected mission id in saved report: %s", parsed.Metadata.MissionID)
			}
		case ".md":
			foundMD = true
			data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
			if err != nil {
				t.Fatalf("Failed to read saved report: %v", err)
			}
			if !strings.Contains(string(data), "# Mission Report") {
				t.Errorf("Markdown report missing header")
			}
		}
	}

	if !foundJSON || !foundMD {
		t.Errorf("Expected both JSON and markdown reports, found json=%v md=%v", foundJSON, foundMD)
	}
}
