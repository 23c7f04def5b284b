package reporting

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/seabedlabs/auv-sim/pkg/logger"
)

// ReportGenerator generates end-of-mission reports
type ReportGenerator struct {
	logger *MissionLogger
	config ReportConfig
}

// ReportConfig configures report generation
type ReportConfig struct {
	OutputDir   string
	Format      string // "json", "markdown"
	DetailLevel string // "summary", "full"
}

// MissionResults carries the final simulation statistics into the report.
// The orchestrator fills it from the runner so the report does not depend
// on the simulation packages.
type MissionResults struct {
	Outcome            string
	SimulatedTime      float64
	CoveredArea        float64
	MissedArea         float64
	CoveredRatio       float64
	MissedRegions      []MissedRegion
	TotalTravel        float64
	TotalAgentTime     float64
	UncertaintyFloor   float64
	GraphSummarization bool
	Agents             []AgentResult
}

// MissedRegion describes one uncovered patch of the survey rectangle
type MissedRegion struct {
	Area   float64 `json:"area_m2"`
	Length float64 `json:"length_m"`
	Width  float64 `json:"width_m"`
}

// AgentResult carries one vehicle's end-of-mission statistics
type AgentResult struct {
	ID               int     `json:"id"`
	Travel           float64 `json:"travel_m"`
	FinalError       float64 `json:"final_error_m"`
	Corrections      int     `json:"corrections"`
	TotalErrorDrop   float64 `json:"total_error_drop_m"`
	ReceivedVertices int     `json:"received_vertices"`
	ReceivedEdges    int     `json:"received_edges"`
}

// MissionReport represents a complete mission report
type MissionReport struct {
	Metadata ReportMetadata  `json:"metadata"`
	Summary  ReportSummary   `json:"summary"`
	Coverage CoverageReport  `json:"coverage"`
	Agents   []AgentResult   `json:"agents"`
	Comms    CommsReport     `json:"comms"`
	EventLog []EventLogEntry `json:"event_log,omitempty"`
	Findings []Finding       `json:"findings"`
}

// ReportMetadata contains report metadata
type ReportMetadata struct {
	MissionID     string    `json:"mission_id"`
	GeneratedAt   time.Time `json:"generated_at"`
	MissionStart  time.Time `json:"mission_start"`
	MissionEnd    time.Time `json:"mission_end"`
	Duration      string    `json:"duration"`
	SimulatedTime float64   `json:"simulated_time_s"`
	Version       string    `json:"version"`
}

// ReportSummary provides the high-level mission outcome
type ReportSummary struct {
	Outcome        string  `json:"outcome"`
	CoveredRatio   float64 `json:"covered_ratio"`
	CoveredArea    float64 `json:"covered_area_m2"`
	MissedArea     float64 `json:"missed_area_m2"`
	MissedRegions  int     `json:"missed_regions"`
	TotalTravel    float64 `json:"total_travel_m"`
	TotalAgentTime float64 `json:"total_agent_time_s"`
	MeanFinalError float64 `json:"mean_final_error_m"`
	MaxFinalError  float64 `json:"max_final_error_m"`
}

// CoverageReport contains the raster coverage analysis
type CoverageReport struct {
	CoveredArea  float64        `json:"covered_area_m2"`
	MissedArea   float64        `json:"missed_area_m2"`
	CoveredRatio float64        `json:"covered_ratio"`
	Regions      []MissedRegion `json:"missed_regions"`
}

// CommsReport contains acoustic link statistics
type CommsReport struct {
	Contacts           int     `json:"contacts"`
	Corrections        int     `json:"corrections"`
	TotalErrorDrop     float64 `json:"total_error_drop_m"`
	MeanErrorDrop      float64 `json:"mean_error_drop_m"`
	ReceivedVertices   int     `json:"received_vertices"`
	ReceivedEdges      int     `json:"received_edges"`
	GraphSummarization bool    `json:"graph_summarization"`
}

// EventLogEntry represents a detailed event log entry
type EventLogEntry struct {
	Timestamp   time.Time              `json:"timestamp"`
	EventType   string                 `json:"event_type"`
	Severity    string                 `json:"severity"`
	Description string                 `json:"description"`
	AgentID     *int                   `json:"agent_id,omitempty"`
	SimTime     float64                `json:"sim_time_s,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// Finding represents an observation with a follow-up recommendation
type Finding struct {
	Priority       string `json:"priority"` // "High", "Medium", "Low"
	Category       string `json:"category"`
	Observation    string `json:"observation"`
	Recommendation string `json:"recommendation"`
}

// NewReportGenerator creates a new report generator
func NewReportGenerator(logger *MissionLogger, config ReportConfig) *ReportGenerator {
	return &ReportGenerator{
		logger: logger,
		config: config,
	}
}

// Generate creates a mission report from the logged events and the final
// simulation results
func (g *ReportGenerator) Generate(results MissionResults) (*MissionReport, error) {
	summary := g.logger.GetSummary()

	report := &MissionReport{
		Metadata: ReportMetadata{
			MissionID:     summary.MissionID,
			GeneratedAt:   time.Now(),
			MissionStart:  summary.StartTime,
			MissionEnd:    summary.StartTime.Add(summary.Duration),
			Duration:      summary.Duration.String(),
			SimulatedTime: results.SimulatedTime,
			Version:       "1.0",
		},
	}

	// Generate the executive summary
	report.Summary = g.generateSummary(results)

	// Copy the coverage analysis
	report.Coverage = CoverageReport{
		CoveredArea:  results.CoveredArea,
		MissedArea:   results.MissedArea,
		CoveredRatio: results.CoveredRatio,
		Regions:      results.MissedRegions,
	}

	// Per-agent results
	report.Agents = results.Agents

	// Comms analysis
	report.Comms = g.analyzeComms(results, summary)

	// Generate event log
	if g.config.DetailLevel == "full" {
		report.EventLog = g.generateEventLog()
	}

	// Generate findings
	report.Findings = g.generateFindings(results, report)

	return report, nil
}

// SaveReport saves the report to file
func (g *ReportGenerator) SaveReport(report *MissionReport) error {
	// Create reports directory if it doesn't exist
	if err := os.MkdirAll(g.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("Mission_%s_%s", report.Metadata.MissionID[:8], timestamp)

	var path string
	var err error
	switch g.config.Format {
	case "json":
		path, err = g.saveJSON(report, filename)
	case "markdown":
		path, err = g.saveMarkdown(report, filename)
	default:
		return fmt.Errorf("unsupported format: %s", g.config.Format)
	}

	if err == nil {
		logger.Successf("Mission report saved to: %s", path)
	}

	return err
}

// saveJSON saves the report as JSON
func (g *ReportGenerator) saveJSON(report *MissionReport, filename string) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	path := filepath.Join(g.config.OutputDir, filename+".json")
	return path, os.WriteFile(path, data, 0644)
}

// saveMarkdown saves the report as Markdown
func (g *ReportGenerator) saveMarkdown(report *MissionReport, filename string) (string, error) {
	var sb strings.Builder

	// Header
	sb.WriteString("# Mission Report\n\n")
	sb.WriteString(fmt.Sprintf("**Mission ID:** %s\n", report.Metadata.MissionID))
	sb.WriteString(fmt.Sprintf("**Generated:** %s\n", report.Metadata.GeneratedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("**Duration:** %s (%.1fs simulated)\n\n",
		report.Metadata.Duration, report.Metadata.SimulatedTime))

	// Executive Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("**Outcome:** %s\n\n", report.Summary.Outcome))
	sb.WriteString(fmt.Sprintf("**Coverage:** %.1f%% (%.0f m² covered, %.0f m² missed in %d regions)\n\n",
		report.Summary.CoveredRatio*100, report.Summary.CoveredArea,
		report.Summary.MissedArea, report.Summary.MissedRegions))
	sb.WriteString(fmt.Sprintf("**Total Travel:** %.0fm\n\n", report.Summary.TotalTravel))
	sb.WriteString(fmt.Sprintf("**Total Agent Time:** %.0fs\n\n", report.Summary.TotalAgentTime))
	sb.WriteString(fmt.Sprintf("**Final Position Error:** mean %.2fm, max %.2fm\n\n",
		report.Summary.MeanFinalError, report.Summary.MaxFinalError))

	// Missed regions
	if len(report.Coverage.Regions) > 0 {
		sb.WriteString("## Missed Regions\n\n")
		for i, region := range report.Coverage.Regions {
			sb.WriteString(fmt.Sprintf("- Region %d: %.0f m² (%.0fm x %.0fm)\n",
				i+1, region.Area, region.Length, region.Width))
		}
		sb.WriteString("\n")
	}

	// Per-agent results
	sb.WriteString("## Agents\n\n")
	for _, agent := range report.Agents {
		sb.WriteString(fmt.Sprintf("### Agent %d\n\n", agent.ID))
		sb.WriteString(fmt.Sprintf("- **Travel:** %.0fm\n", agent.Travel))
		sb.WriteString(fmt.Sprintf("- **Final Error:** %.2fm\n", agent.FinalError))
		sb.WriteString(fmt.Sprintf("- **Corrections:** %d (%.2fm total drop)\n",
			agent.Corrections, agent.TotalErrorDrop))
		sb.WriteString(fmt.Sprintf("- **Received:** %d vertices, %d edges\n\n",
			agent.ReceivedVertices, agent.ReceivedEdges))
	}

	// Comms analysis
	sb.WriteString("## Acoustic Link\n\n")
	sb.WriteString(fmt.Sprintf("- **Contacts:** %d\n", report.Comms.Contacts))
	sb.WriteString(fmt.Sprintf("- **Corrections:** %d\n", report.Comms.Corrections))
	sb.WriteString(fmt.Sprintf("- **Mean Error Drop:** %.2fm\n", report.Comms.MeanErrorDrop))
	sb.WriteString(fmt.Sprintf("- **Graph Summarization:** %v\n\n", report.Comms.GraphSummarization))

	// Findings
	if len(report.Findings) > 0 {
		sb.WriteString("## Findings\n\n")
		for _, finding := range report.Findings {
			sb.WriteString(fmt.Sprintf("### %s (%s Priority)\n", finding.Category, finding.Priority))
			sb.WriteString(fmt.Sprintf("%s\n\n", finding.Observation))
			sb.WriteString(fmt.Sprintf("**Recommendation:** %s\n\n", finding.Recommendation))
		}
	}

	path := filepath.Join(g.config.OutputDir, filename+".md")
	return path, os.WriteFile(path, []byte(sb.String()), 0644)
}

// generateSummary creates the executive summary
func (g *ReportGenerator) generateSummary(results MissionResults) ReportSummary {
	summary := ReportSummary{
		Outcome:        results.Outcome,
		CoveredRatio:   results.CoveredRatio,
		CoveredArea:    results.CoveredArea,
		MissedArea:     results.MissedArea,
		MissedRegions:  len(results.MissedRegions),
		TotalTravel:    results.TotalTravel,
		TotalAgentTime: results.TotalAgentTime,
	}

	for _, agent := range results.Agents {
		summary.MeanFinalError += agent.FinalError
		if agent.FinalError > summary.MaxFinalError {
			summary.MaxFinalError = agent.FinalError
		}
	}
	if len(results.Agents) > 0 {
		summary.MeanFinalError /= float64(len(results.Agents))
	}

	return summary
}

// analyzeComms aggregates acoustic link statistics
func (g *ReportGenerator) analyzeComms(results MissionResults, summary MissionSummary) CommsReport {
	comms := CommsReport{
		Contacts:           summary.EventCounts[EventTypeContact],
		GraphSummarization: results.GraphSummarization,
	}

	for _, agent := range results.Agents {
		comms.Corrections += agent.Corrections
		comms.TotalErrorDrop += agent.TotalErrorDrop
		comms.ReceivedVertices += agent.ReceivedVertices
		comms.ReceivedEdges += agent.ReceivedEdges
	}

	if comms.Corrections > 0 {
		comms.MeanErrorDrop = comms.TotalErrorDrop / float64(comms.Corrections)
	}

	return comms
}

// generateEventLog creates a detailed event log
func (g *ReportGenerator) generateEventLog() []EventLogEntry {
	events := g.logger.GetEvents()
	log := make([]EventLogEntry, 0, len(events))

	for _, event := range events {
		log = append(log, EventLogEntry{
			Timestamp:   event.Timestamp,
			EventType:   event.Type,
			Severity:    event.Severity,
			Description: event.Message,
			AgentID:     event.AgentID,
			SimTime:     event.SimTime,
			Details:     event.Details,
		})
	}

	return log
}

// generateFindings derives follow-up recommendations from the results
func (g *ReportGenerator) generateFindings(results MissionResults, report *MissionReport) []Finding {
	findings := make([]Finding, 0)

	// Check coverage completeness
	if results.CoveredRatio < 0.9 {
		findings = append(findings, Finding{
			Priority:       "High",
			Category:       "Coverage",
			Observation:    fmt.Sprintf("Only %.1f%% of the survey rectangle was covered.", results.CoveredRatio*100),
			Recommendation: "Tighten the overlap between lanes or add vehicles to close the gaps.",
		})
	} else if results.CoveredRatio >= 0.99 {
		findings = append(findings, Finding{
			Priority:       "Low",
			Category:       "Coverage",
			Observation:    "The fleet achieved effectively full coverage of the survey rectangle.",
			Recommendation: "Record the lane spacing and overlap settings for reuse on similar areas.",
		})
	}

	// Check for large contiguous gaps worth a follow-up pass
	var largest MissedRegion
	for _, region := range results.MissedRegions {
		if region.Area > largest.Area {
			largest = region
		}
	}
	totalArea := results.CoveredArea + results.MissedArea
	if totalArea > 0 && largest.Area > 0.05*totalArea {
		findings = append(findings, Finding{
			Priority: "Medium",
			Category: "Coverage",
			Observation: fmt.Sprintf("A contiguous %.0f m² region (%.0fm x %.0fm) was left uncovered.",
				largest.Area, largest.Length, largest.Width),
			Recommendation: "Plan a follow-up pass over the missed region bounding boxes.",
		})
	}

	// Check whether the fleet ever corrected its estimates
	if report.Comms.Corrections == 0 && len(results.Agents) > 1 {
		findings = append(findings, Finding{
			Priority:       "Medium",
			Category:       "Navigation",
			Observation:    "The vehicles never exchanged pose graphs during the mission.",
			Recommendation: "Check the comm range against the lane spacing and the meet schedule.",
		})
	}

	// Check the final dead-reckoning error against the acceptable floor
	if results.UncertaintyFloor > 0 && report.Summary.MeanFinalError > results.UncertaintyFloor {
		findings = append(findings, Finding{
			Priority: "High",
			Category: "Navigation",
			Observation: fmt.Sprintf("Mean final position error of %.2fm exceeds the %.1fm floor.",
				report.Summary.MeanFinalError, results.UncertaintyFloor),
			Recommendation: "Add landmarks along the outer lanes or schedule more rendezvous.",
		})
	}

	// Check acoustic link volume
	if !results.GraphSummarization && report.Comms.ReceivedVertices > 10000 {
		findings = append(findings, Finding{
			Priority: "Low",
			Category: "Comms",
			Observation: fmt.Sprintf("Full graph ferrying moved %d vertices over the acoustic link.",
				report.Comms.ReceivedVertices),
			Recommendation: "Enable graph summarization to cut the transfer volume.",
		})
	}

	return findings
}
