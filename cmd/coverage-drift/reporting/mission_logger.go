package reporting

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/seabedlabs/auv-sim/pkg/logger"
)

// MissionLogger handles mission-specific event logging
type MissionLogger struct {
	missionID string
	startTime time.Time
	events    []MissionEvent
	metrics   map[string]Metric
	mu        sync.RWMutex
}

// MissionEvent represents a logged mission event
type MissionEvent struct {
	Timestamp time.Time
	Type      string
	Severity  string
	AgentID   *int
	SimTime   float64
	Message   string
	Details   map[string]interface{}
}

// Metric represents a tracked metric
type Metric struct {
	Name        string
	Value       float64
	Unit        string
	LastUpdated time.Time
	History     []MetricPoint
}

// MetricPoint represents a metric value at a point in time
type MetricPoint struct {
	Timestamp time.Time
	Value     float64
}

// EventType constants
const (
	EventTypeDeploy      = "deploy"
	EventTypeContact     = "contact"
	EventTypeContactLost = "contact_lost"
	EventTypeCorrection  = "correction"
	EventTypeLandmark    = "landmark"
	EventTypeObjective   = "objective"
	EventTypeSystem      = "system"
)

// Severity constants
const (
	SeverityDebug    = "debug"
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Color definitions
var (
	colorDebug    = color.New(color.FgHiBlack)
	colorInfo     = color.New(color.FgCyan)
	colorWarning  = color.New(color.FgYellow)
	colorError    = color.New(color.FgRed)
	colorCritical = color.New(color.FgRed, color.Bold)
	colorLandmark = color.New(color.FgMagenta, color.Bold)
	colorSuccess  = color.New(color.FgGreen)

	agentPalette = []*color.Color{
		color.New(color.FgCyan, color.Bold),
		color.New(color.FgBlue, color.Bold),
		color.New(color.FgGreen, color.Bold),
		color.New(color.FgYellow, color.Bold),
	}
)

// NewMissionLogger creates a new mission logger
func NewMissionLogger(missionID string) *MissionLogger {
	ml := &MissionLogger{
		missionID: missionID,
		startTime: time.Now(),
		events:    make([]MissionEvent, 0),
		metrics:   make(map[string]Metric),
	}

	// Log mission start
	ml.logColoredMessage(SeverityInfo, "Mission Started",
		fmt.Sprintf("ID: %s | Time: %s", missionID, ml.startTime.Format("15:04:05")))

	return ml
}

// LogAgentDeployed logs a vehicle entering the water
func (ml *MissionLogger) LogAgentDeployed(agentID int, x, y float64) {
	id := agentID
	ml.logEvent(MissionEvent{
		Timestamp: time.Now(),
		Type:      EventTypeDeploy,
		Severity:  SeverityInfo,
		AgentID:   &id,
		Message:   fmt.Sprintf("Agent %d deployed at (%.1f, %.1f)", agentID, x, y),
		Details: map[string]interface{}{
			"x": x,
			"y": y,
		},
	})
}

// LogLandmarkPlaced logs a fixed beacon being placed on the seabed
func (ml *MissionLogger) LogLandmarkPlaced(landmarkID int, x, y float64) {
	id := landmarkID
	ml.logEvent(MissionEvent{
		Timestamp: time.Now(),
		Type:      EventTypeLandmark,
		Severity:  SeverityInfo,
		AgentID:   &id,
		Message:   fmt.Sprintf("Landmark %d placed at (%.1f, %.1f)", landmarkID, x, y),
		Details: map[string]interface{}{
			"x": x,
			"y": y,
		},
	})

	ml.logColoredMessage(SeverityInfo, "Landmark Placed",
		fmt.Sprintf("ID: %s | Position: (%.1f, %.1f)",
			colorLandmark.Sprintf("%d", landmarkID), x, y))
}

// LogContact logs an agent entering acoustic range of a peer
func (ml *MissionLogger) LogContact(agentID int, simTime float64) {
	id := agentID
	ml.logEvent(MissionEvent{
		Timestamp: time.Now(),
		Type:      EventTypeContact,
		Severity:  SeverityInfo,
		AgentID:   &id,
		SimTime:   simTime,
		Message:   fmt.Sprintf("Agent %d in acoustic contact at t=%.1fs", agentID, simTime),
	})

	ml.logColoredMessage(SeverityDebug, "Acoustic Contact",
		fmt.Sprintf("Agent: %s | t=%.1fs",
			ml.getAgentColor(agentID).Sprintf("%d", agentID), simTime))
}

// LogContactLost logs an agent leaving acoustic range of all peers
func (ml *MissionLogger) LogContactLost(agentID int, simTime float64) {
	id := agentID
	ml.logEvent(MissionEvent{
		Timestamp: time.Now(),
		Type:      EventTypeContactLost,
		Severity:  SeverityInfo,
		AgentID:   &id,
		SimTime:   simTime,
		Message:   fmt.Sprintf("Agent %d lost acoustic contact at t=%.1fs", agentID, simTime),
	})
}

// LogCorrection logs a pose graph optimization being applied
func (ml *MissionLogger) LogCorrection(agentID int, errorDrop, simTime float64) {
	id := agentID
	ml.logEvent(MissionEvent{
		Timestamp: time.Now(),
		Type:      EventTypeCorrection,
		Severity:  SeverityInfo,
		AgentID:   &id,
		SimTime:   simTime,
		Message:   fmt.Sprintf("Agent %d corrected pose estimate, error dropped %.2fm", agentID, errorDrop),
		Details: map[string]interface{}{
			"error_drop": errorDrop,
		},
	})

	ml.logColoredMessage(SeverityInfo, "Pose Correction",
		fmt.Sprintf("Agent: %s | Drop: %.2fm | t=%.1fs",
			ml.getAgentColor(agentID).Sprintf("%d", agentID), errorDrop, simTime))
}

// LogMissionComplete logs the end-of-mission outcome
func (ml *MissionLogger) LogMissionComplete(outcome string, simTime float64) {
	ml.logEvent(MissionEvent{
		Timestamp: time.Now(),
		Type:      EventTypeObjective,
		Severity:  SeverityInfo,
		SimTime:   simTime,
		Message:   fmt.Sprintf("Mission finished: %s at t=%.1fs", outcome, simTime),
		Details: map[string]interface{}{
			"outcome": outcome,
		},
	})

	ml.logColoredMessage(SeverityInfo, "Mission Complete",
		fmt.Sprintf("Outcome: %s | Simulated: %.1fs", colorSuccess.Sprint(outcome), simTime))
}

// LogError logs an error event
func (ml *MissionLogger) LogError(message string, err error, details map[string]interface{}) {
	if details == nil {
		details = make(map[string]interface{})
	}
	details["error"] = err.Error()

	ml.logEvent(MissionEvent{
		Timestamp: time.Now(),
		Type:      EventTypeSystem,
		Severity:  SeverityError,
		Message:   message,
		Details:   details,
	})

	logger.Errorf("%s: %v", message, err)
}

// UpdateMetric updates a metric value
func (ml *MissionLogger) UpdateMetric(name string, value float64, unit string) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	metric, exists := ml.metrics[name]
	if !exists {
		metric = Metric{
			Name:    name,
			Unit:    unit,
			History: make([]MetricPoint, 0),
		}
	}

	metric.Value = value
	metric.LastUpdated = time.Now()
	metric.History = append(metric.History, MetricPoint{
		Timestamp: time.Now(),
		Value:     value,
	})

	// Keep only last 1000 points
	if len(metric.History) > 1000 {
		metric.History = metric.History[len(metric.History)-1000:]
	}

	ml.metrics[name] = metric
}

// GetEvents returns all logged events
func (ml *MissionLogger) GetEvents() []MissionEvent {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	events := make([]MissionEvent, len(ml.events))
	copy(events, ml.events)
	return events
}

// GetMetrics returns current metrics
func (ml *MissionLogger) GetMetrics() map[string]Metric {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	metrics := make(map[string]Metric)
	for k, v := range ml.metrics {
		metrics[k] = v
	}
	return metrics
}

// GetSummary returns a mission summary
func (ml *MissionLogger) GetSummary() MissionSummary {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	duration := time.Since(ml.startTime)

	// Count events by type
	eventCounts := make(map[string]int)
	agentEvents := make(map[int]map[string]int)

	for _, event := range ml.events {
		eventCounts[event.Type]++

		if event.AgentID != nil {
			if agentEvents[*event.AgentID] == nil {
				agentEvents[*event.AgentID] = make(map[string]int)
			}
			agentEvents[*event.AgentID][event.Type]++
		}
	}

	return MissionSummary{
		MissionID:   ml.missionID,
		StartTime:   ml.startTime,
		Duration:    duration,
		TotalEvents: len(ml.events),
		EventCounts: eventCounts,
		AgentEvents: agentEvents,
		Metrics:     ml.metrics,
	}
}

// MissionSummary represents a summary of the mission run
type MissionSummary struct {
	MissionID   string
	StartTime   time.Time
	Duration    time.Duration
	TotalEvents int
	EventCounts map[string]int
	AgentEvents map[int]map[string]int
	Metrics     map[string]Metric
}

// logEvent adds an event to the log
func (ml *MissionLogger) logEvent(event MissionEvent) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	ml.events = append(ml.events, event)

	// Keep only last 10000 events to prevent memory issues
	if len(ml.events) > 10000 {
		ml.events = ml.events[len(ml.events)-10000:]
	}
}

// logColoredMessage logs a message with color based on severity
func (ml *MissionLogger) logColoredMessage(severity, eventType, message string) {
	timestamp := time.Now().Format("15:04:05.000")

	var severityColor *color.Color
	switch severity {
	case SeverityDebug:
		severityColor = colorDebug
	case SeverityInfo:
		severityColor = colorInfo
	case SeverityWarning:
		severityColor = colorWarning
	case SeverityError:
		severityColor = colorError
	case SeverityCritical:
		severityColor = colorCritical
	default:
		severityColor = colorInfo
	}

	fmt.Printf("[%s] %s %s | %s\n",
		timestamp,
		severityColor.Sprint(fmt.Sprintf("%-8s", severity)),
		eventType,
		message)
}

// getAgentColor returns the display color for an agent id
func (ml *MissionLogger) getAgentColor(agentID int) *color.Color {
	if agentID < 0 {
		return colorLandmark
	}
	return agentPalette[agentID%len(agentPalette)]
}

// PrintSummary prints a formatted summary
func (ml *MissionLogger) PrintSummary() {
	summary := ml.GetSummary()

	colorSuccess.Println("\n╔═══════════════════════════════════════════════════════════╗")
	colorSuccess.Printf("║               MISSION SUMMARY - %s                  ║\n", summary.MissionID[:8])
	colorSuccess.Println("╚═══════════════════════════════════════════════════════════╝")

	fmt.Printf("\nDuration: %v | Total Events: %d\n", summary.Duration, summary.TotalEvents)

	fmt.Println("\nEvent Distribution:")
	for eventType, count := range summary.EventCounts {
		fmt.Printf("   %-20s: %d\n", eventType, count)
	}

	fmt.Println("\nPer-Agent Events:")
	for agentID, events := range summary.AgentEvents {
		agentColor := ml.getAgentColor(agentID)
		fmt.Printf("\n   Agent %s:\n", agentColor.Sprintf("%d", agentID))
		for eventType, count := range events {
			fmt.Printf("      %-18s: %d\n", eventType, count)
		}
	}

	if len(summary.Metrics) > 0 {
		fmt.Println("\nMission Metrics:")
		names := make([]string, 0, len(summary.Metrics))
		for name := range summary.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)

		table := logger.NewTable("METRIC", "VALUE", "UNIT")
		for _, name := range names {
			metric := summary.Metrics[name]
			table.AddRow(name, fmt.Sprintf("%.2f", metric.Value), metric.Unit)
		}
		table.Print()
	}

	colorSuccess.Println("\n═════════════════════════════════════════════════════════════")
}
