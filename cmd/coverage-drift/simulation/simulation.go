package simulation

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/seabedlabs/auv-sim/cmd/coverage-drift/config"
	"github.com/seabedlabs/auv-sim/cmd/coverage-drift/core"
	"github.com/seabedlabs/auv-sim/cmd/coverage-drift/reporting"
	"github.com/seabedlabs/auv-sim/pkg/driftfield"
	"github.com/seabedlabs/auv-sim/pkg/logger"
	"github.com/seabedlabs/auv-sim/pkg/missionplan"
	"github.com/seabedlabs/auv-sim/pkg/simulation"
)

// CoverageDriftSimulation runs a fleet of AUVs over a lawnmower survey
// while their dead-reckoned positions drift, and reports how much of
// the seabed actually got covered.
type CoverageDriftSimulation struct {
	// Configuration
	config       *config.MissionConfig
	reportFormat string
	reportDetail string

	// Mission state
	missionID string
	seed      int64
	plan      *missionplan.Plan
	runner    *Runner
	stats     *MissionStats

	// Reporting
	missionLogger *reporting.MissionLogger
	reportGen     *reporting.ReportGenerator

	// Synchronization
	stopChan chan struct{}
}

// NewCoverageDriftSimulation creates a new instance
func NewCoverageDriftSimulation() simulation.Simulation {
	return &CoverageDriftSimulation{
		reportFormat: "json",
		reportDetail: "full",
		stopChan:     make(chan struct{}),
	}
}

// Name returns the simulation name
func (s *CoverageDriftSimulation) Name() string {
	return "AUV Coverage Drift"
}

// Description returns the simulation description
func (s *CoverageDriftSimulation) Description() string {
	return "Multi-AUV lawnmower survey with dead-reckoning drift and opportunistic pose graph corrections"
}

// Configure loads the mission configuration and applies prompt overrides
func (s *CoverageDriftSimulation) Configure(params map[string]interface{}) error {
	logger.Progress("Configuring AUV coverage mission...")

	path := ""
	if val, ok := params["config_path"].(string); ok {
		path = val
	}

	overrides := make(map[string]interface{})
	for _, key := range []string{
		"num_agents", "speed", "plan_type", "rect_width", "rect_height",
		"swath", "comm_range", "landmark_range", "seed", "time_step",
		"summarize_graphs", "drift_enabled", "drift_scale", "log_level",
		"reports_dir",
	} {
		if val, ok := params[key]; ok {
			overrides[key] = val
		}
	}
	// Prompt answers arrive typed, but params decoded from JSON carry
	// every number as float64. Normalize the integer keys.
	for _, key := range []string{"num_agents", "seed"} {
		if val, ok := overrides[key].(float64); ok {
			overrides[key] = int(val)
		}
	}

	cfg, err := config.LoadConfigWithOverrides(path, overrides)
	if err != nil {
		return fmt.Errorf("failed to load mission config: %w", err)
	}

	if val, ok := params["report_format"].(string); ok {
		if val != "json" && val != "markdown" {
			return fmt.Errorf("invalid report_format: %s (must be 'json' or 'markdown')", val)
		}
		s.reportFormat = val
	}
	if val, ok := params["report_detail"].(string); ok {
		if val != "summary" && val != "full" {
			return fmt.Errorf("invalid report_detail: %s (must be 'summary' or 'full')", val)
		}
		s.reportDetail = val
	}

	logger.SetLevel(logger.ParseLevel(cfg.Logging.ConsoleLevel))

	s.config = cfg
	logger.Infof("Configured %d AUVs on a %.0fx%.0fm %s survey (comm range %.0fm)",
		cfg.Fleet.NumAgents, cfg.Survey.RectWidth, cfg.Survey.RectHeight,
		cfg.Survey.PlanType, cfg.Comms.CommRange)
	return nil
}

// Run executes the mission until the plan completes, the planned time
// horizon runs out, or the context is cancelled
func (s *CoverageDriftSimulation) Run(ctx context.Context) error {
	if s.config == nil {
		if err := s.Configure(map[string]interface{}{}); err != nil {
			return err
		}
	}

	if err := s.initialize(); err != nil {
		return fmt.Errorf("failed to initialize mission: %w", err)
	}

	logger.Infof("Starting mission %s", s.missionID[:8])

	// Stop() must also end a run driven by a long-lived parent context.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-s.stopChan:
			cancel()
		case <-runCtx.Done():
		}
	}()

	start := time.Now()
	if err := s.runner.Run(runCtx); err != nil {
		s.missionLogger.LogMissionComplete("aborted", s.runner.SimulatedTime())
		return fmt.Errorf("mission aborted: %w", err)
	}

	outcome := "plan completed"
	if !s.plan.IsComplete() {
		outcome = "time limit reached"
	}
	s.missionLogger.LogMissionComplete(outcome, s.runner.SimulatedTime())

	// The coverage raster over a large survey takes a few seconds.
	spin := logger.NewSpinner("Computing coverage statistics...")
	spin.Start()
	s.stats = s.runner.Stats()
	spin.Success("Coverage statistics computed")

	s.recordMetrics()
	s.logUncoveredRegions()

	if s.config.Reporting.Enabled {
		if err := s.generateReport(outcome); err != nil {
			logger.Errorf("Failed to save mission report: %v", err)
		}
	}

	s.missionLogger.PrintSummary()
	logger.Infof("Mission finished in %s (%.0fs simulated)",
		time.Since(start).Round(time.Millisecond), s.runner.SimulatedTime())
	return nil
}

// initialize builds the plan, the drift field, the fleet and the
// reporting pipeline from the loaded configuration
func (s *CoverageDriftSimulation) initialize() error {
	s.missionID = uuid.New().String()
	s.missionLogger = reporting.NewMissionLogger(s.missionID)
	s.reportGen = reporting.NewReportGenerator(s.missionLogger, reporting.ReportConfig{
		OutputDir:   s.config.Reporting.OutputPath,
		Format:      s.reportFormat,
		DetailLevel: s.reportDetail,
	})

	s.seed = s.config.Mission.Seed
	if s.seed == 0 {
		s.seed = time.Now().UnixNano()
	}
	logger.Debugf("Mission seed: %d", s.seed)

	s.plan = missionplan.PlanSimpleLawnmower(s.config.PlanConfig())

	var drift DriftModel
	if fieldCfg, ok := s.config.FieldConfig(s.plan.BoundingRectangle()); ok {
		drift = driftfield.New(fieldCfg, rand.New(rand.NewSource(s.seed)))
	}

	s.runner = NewRunner(RunnerConfig{
		Plan:       s.plan,
		Drift:      drift,
		Landmarks:  s.config.LandmarkPoses(),
		Dt:         s.config.Mission.TimeStep,
		Seed:       s.seed,
		UseSummary: s.config.Comms.SummarizeGraphs,
		Logger: logger.NewWithConfig(logger.Config{
			Level:    logger.ParseLevel(s.config.Logging.ConsoleLevel),
			Writer:   os.Stdout,
			ShowTime: true,
		}),
		Events: s.missionLogger,
	})

	for _, a := range s.runner.Agents() {
		pos := a.Real().Position()
		s.missionLogger.LogAgentDeployed(a.ID(), pos[0], pos[1])
	}
	for _, lm := range s.runner.Landmarks() {
		pos := lm.Real().Position()
		s.missionLogger.LogLandmarkPlaced(lm.ID(), pos[0], pos[1])
	}
	return nil
}

// recordMetrics publishes the end-of-mission statistics
func (s *CoverageDriftSimulation) recordMetrics() {
	s.missionLogger.UpdateMetric("simulated_time", s.runner.SimulatedTime(), "s")
	s.missionLogger.UpdateMetric("covered_ratio", s.stats.Coverage.CoveredRatio*100, "%")
	s.missionLogger.UpdateMetric("missed_area", s.stats.Coverage.MissedArea, "m2")
	s.missionLogger.UpdateMetric("total_travel", s.stats.TotalTravel, "m")
	s.missionLogger.UpdateMetric("total_agent_time", s.stats.TotalAgentTime, "s")
	if len(s.stats.FinalErrors) > 0 {
		mean := 0.0
		for _, fe := range s.stats.FinalErrors {
			mean += fe.Value
		}
		mean /= float64(len(s.stats.FinalErrors))
		s.missionLogger.UpdateMetric("mean_final_error", mean, "m")
	}
}

// logUncoveredRegions surfaces the largest gaps left in the survey
func (s *CoverageDriftSimulation) logUncoveredRegions() {
	regions := append([]core.MissedRegion(nil), s.stats.Coverage.MissedRegions...)
	if len(regions) == 0 {
		return
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Area > regions[j].Area })
	if len(regions) > 3 {
		regions = regions[:3]
	}

	items := make([]string, len(regions))
	for i, r := range regions {
		items[i] = fmt.Sprintf("%.0f m² (%.0f x %.0f m)", r.Area, r.Length, r.Width)
	}
	logger.LogList("Largest uncovered regions:", items)
}

// generateReport assembles the final results and writes the mission report
func (s *CoverageDriftSimulation) generateReport(outcome string) error {
	results := reporting.MissionResults{
		Outcome:            outcome,
		SimulatedTime:      s.runner.SimulatedTime(),
		CoveredArea:        s.stats.Coverage.CoveredArea,
		MissedArea:         s.stats.Coverage.MissedArea,
		CoveredRatio:       s.stats.Coverage.CoveredRatio,
		TotalTravel:        s.stats.TotalTravel,
		TotalAgentTime:     s.stats.TotalAgentTime,
		UncertaintyFloor:   s.config.Fleet.UncertaintyFloor,
		GraphSummarization: s.config.Comms.SummarizeGraphs,
	}
	for _, region := range s.stats.Coverage.MissedRegions {
		results.MissedRegions = append(results.MissedRegions, reporting.MissedRegion{
			Area:   region.Area,
			Length: region.Length,
			Width:  region.Width,
		})
	}
	for _, a := range s.runner.Agents() {
		res := reporting.AgentResult{
			ID:          a.ID(),
			Travel:      a.Real().TotalDistanceTraveled(),
			Corrections: len(a.PositionErrorDrops()),
		}
		if errs := a.RealErrors(); len(errs) > 0 {
			res.FinalError = errs[len(errs)-1].Value
		}
		for _, drop := range a.PositionErrorDrops() {
			res.TotalErrorDrop += drop.Value
		}
		for _, v := range a.ReceivedVerts() {
			res.ReceivedVertices += int(v.Value)
		}
		for _, e := range a.ReceivedEdges() {
			res.ReceivedEdges += int(e.Value)
		}
		results.Agents = append(results.Agents, res)
	}

	report, err := s.reportGen.Generate(results)
	if err != nil {
		return err
	}
	return s.reportGen.SaveReport(report)
}

// Stop gracefully stops the simulation
func (s *CoverageDriftSimulation) Stop() error {
	logger.Info("Stopping AUV coverage mission...")
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	return nil
}

// init registers the simulation
func init() {
	err := simulation.DefaultRegistry.Register("AUV Coverage Drift", NewCoverageDriftSimulation)
	if err != nil {
		logger.Errorf("Failed to register coverage drift simulation: %v", err)
		return
	}
}
