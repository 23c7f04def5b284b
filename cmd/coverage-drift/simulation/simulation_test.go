package simulation

import (
	"context"
	"testing"

	"github.com/seabedlabs/auv-sim/cmd/coverage-drift/config"
	"github.com/seabedlabs/auv-sim/cmd/coverage-drift/reporting"
)

// missionConfigForTest shrinks the default mission to something that
// simulates in full inside a test.
func missionConfigForTest() *config.MissionConfig {
	cfg := config.GetDefaultConfig()
	cfg.Mission.Seed = 11
	cfg.Survey.RectWidth = 60
	cfg.Survey.RectHeight = 30
	cfg.Survey.Swath = 30
	cfg.Fleet.NumAgents = 2
	cfg.Fleet.Speed = 3
	cfg.Fleet.HeadingNoiseBound = 0
	cfg.Landmarks = []config.LandmarkSpec{{X: 30, Y: 0, Heading: 90}}
	cfg.Reporting.Enabled = false
	return cfg
}

func TestConfigureAppliesParams(t *testing.T) {
	s := NewCoverageDriftSimulation().(*CoverageDriftSimulation)

	err := s.Configure(map[string]interface{}{
		"num_agents":    3,
		"speed":         2.0,
		"plan_type":     "dubins",
		"comm_range":    75.0,
		"seed":          123,
		"report_format": "markdown",
	})
	if err != nil {
		t.Fatalf("Configure returned error: %v", err)
	}

	if got := s.config.Fleet.NumAgents; got != 3 {
		t.Errorf("Expected 3 agents, got %d", got)
	}
	if got := s.config.Fleet.Speed; got != 2.0 {
		t.Errorf("Expected speed 2.0, got %v", got)
	}
	if got := s.config.Survey.PlanType; got != "dubins" {
		t.Errorf("Expected plan type dubins, got %s", got)
	}
	if got := s.config.Comms.CommRange; got != 75 {
		t.Errorf("Expected comm range 75, got %v", got)
	}
	if got := s.config.Mission.Seed; got != 123 {
		t.Errorf("Expected seed 123, got %d", got)
	}
	if s.reportFormat != "markdown" {
		t.Errorf("Expected markdown report format, got %s", s.reportFormat)
	}
}

func TestConfigureRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name   string
		params map[string]interface{}
	}{
		{"zero agents", map[string]interface{}{"num_agents": 0}},
		{"unknown plan type", map[string]interface{}{"plan_type": "spiral"}},
		{"unknown report format", map[string]interface{}{"report_format": "xml"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewCoverageDriftSimulation().(*CoverageDriftSimulation)
			if err := s.Configure(tc.params); err == nil {
				t.Errorf("Expected an error for %s", tc.name)
			}
		})
	}
}

func TestRunSmallMission(t *testing.T) {
	s := &CoverageDriftSimulation{
		config:       missionConfigForTest(),
		reportFormat: "json",
		reportDetail: "summary",
		stopChan:     make(chan struct{}),
	}

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if s.stats == nil {
		t.Fatal("Expected statistics after the run")
	}
	if !s.plan.IsComplete() {
		t.Error("Expected the survey plan to complete")
	}
	if s.stats.Coverage.CoveredArea <= 0 {
		t.Error("Expected the fleet to cover some area")
	}
	if got := len(s.runner.Agents()); got != 2 {
		t.Fatalf("Expected 2 agents, got %d", got)
	}

	var deploys, landmarks, objectives int
	for _, ev := range s.missionLogger.GetEvents() {
		switch ev.Type {
		case reporting.EventTypeDeploy:
			deploys++
		case reporting.EventTypeLandmark:
			landmarks++
		case reporting.EventTypeObjective:
			objectives++
		}
	}
	if deploys != 2 {
		t.Errorf("Expected 2 deployment events, got %d", deploys)
	}
	if landmarks != 1 {
		t.Errorf("Expected 1 landmark event, got %d", landmarks)
	}
	if objectives == 0 {
		t.Error("Expected a mission completion event")
	}

	metrics := s.missionLogger.GetMetrics()
	if _, ok := metrics["covered_ratio"]; !ok {
		t.Error("Expected a covered_ratio metric")
	}
	if _, ok := metrics["total_travel"]; !ok {
		t.Error("Expected a total_travel metric")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s := NewCoverageDriftSimulation().(*CoverageDriftSimulation)
	if err := s.Stop(); err != nil {
		t.Fatalf("First Stop returned error: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Second Stop returned error: %v", err)
	}
}
