package simulation

import (
	"context"
	"math/rand"
	"time"

	"github.com/paulmach/orb"

	"github.com/seabedlabs/auv-sim/cmd/coverage-drift/core"
	"github.com/seabedlabs/auv-sim/cmd/coverage-drift/reporting"
	"github.com/seabedlabs/auv-sim/pkg/auv"
	"github.com/seabedlabs/auv-sim/pkg/geo"
	"github.com/seabedlabs/auv-sim/pkg/logger"
	"github.com/seabedlabs/auv-sim/pkg/missionplan"
	"github.com/seabedlabs/auv-sim/pkg/posegraph"
)

const (
	// Coverage statistics widen the swath by one meter and sweep a disc
	// of this radius along the trace, so a lane edge brushed by the beam
	// still counts as seen.
	coverageBeamRadius = 1.5

	// How often the run loop reports progress.
	progressInterval = 5 * time.Second
)

// RunnerConfig assembles a runnable mission.
type RunnerConfig struct {
	Plan       *missionplan.Plan
	Drift      DriftModel
	Landmarks  []geo.Pose
	Dt         float64
	Seed       int64
	UseSummary bool
	Logger     logger.Logger

	// Events receives contact and correction events as they happen.
	// Optional.
	Events *reporting.MissionLogger
}

// Runner owns one fleet of agents plus any landmarks and drives the
// two-phase tick loop: every agent moves, then every agent talks. The
// fixed agent order keeps runs with the same seed identical.
type Runner struct {
	plan       *missionplan.Plan
	agents     []*Agent
	landmarks  []*Agent
	dt         float64
	useSummary bool
	log        logger.Logger
	events     *reporting.MissionLogger
	steps      int
}

// MissionStats summarizes a finished run.
type MissionStats struct {
	Coverage       core.CoverageResult
	TotalTravel    float64
	TotalAgentTime float64

	// Last raw (time, error) sample of each agent.
	FinalErrors []TimeSample

	// Per agent, the position error divided by the cumulative distance
	// commanded so far. Comparable across agents that moved different
	// amounts.
	NormalizedErrors [][]TimeSample

	// Per agent, the error reduction of each optimization. Agents that
	// never optimized successfully contribute an empty series.
	ErrorDrops [][]TimeSample
}

// NewRunner builds the fleet described by the plan. Every vehicle
// starts half a hull-length behind its first waypoint so the very
// first stretch of line is covered too. All graphs share one id store,
// which keeps merged fragments collision free.
func NewRunner(cfg RunnerConfig) *Runner {
	log := cfg.Logger
	if log == nil {
		log = logger.New()
	}
	if cfg.Dt <= 0 {
		cfg.Dt = 0.05
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	ids := posegraph.NewIDStore()

	r := &Runner{
		plan:       cfg.Plan,
		dt:         cfg.Dt,
		useSummary: cfg.UseSummary,
		log:        log,
		events:     cfg.Events,
	}

	for i, path := range cfg.Plan.TimedPaths {
		start := path.InitialPose()
		vehicleCfg := auv.Config{
			ID:                i,
			InitialPosition:   start.Point(),
			InitialHeadingDeg: geo.Degrees(start.Heading),
			ForwardSpeed:      cfg.Plan.Config.Speed,
		}
		graph := posegraph.NewGraph(i, ids)
		r.agents = append(r.agents, NewAgent(vehicleCfg, graph, cfg.Plan, cfg.Drift, rng))
	}

	for k, pose := range cfg.Landmarks {
		r.landmarks = append(r.landmarks, NewLandmark(-(k + 1), pose, ids, cfg.Plan))
	}

	return r
}

// Agents returns the mission-following agents in update order.
func (r *Runner) Agents() []*Agent { return r.agents }

// Landmarks returns the stationary landmark agents.
func (r *Runner) Landmarks() []*Agent { return r.landmarks }

// Steps returns how many ticks the run loop executed.
func (r *Runner) Steps() int { return r.steps }

// SimulatedTime returns the mission time the run loop reached.
func (r *Runner) SimulatedTime() float64 { return float64(r.steps) * r.dt }

// Run executes the mission until the plan is complete or the planned
// mission time is exhausted. All agents update before any communicate,
// so within a tick everyone sees everyone else's previous pose.
func (r *Runner) Run(ctx context.Context) error {
	all := make([]*Agent, 0, len(r.agents)+len(r.landmarks))
	all = append(all, r.agents...)
	all = append(all, r.landmarks...)

	lastPlanned := r.plan.LastPlannedTime()
	start := time.Now()
	lastReport := start

	connected := make([]bool, len(r.agents))
	dropsSeen := make([]int, len(r.agents))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		r.steps++
		for _, a := range r.agents {
			a.Update(r.dt, all)
		}
		for _, a := range r.agents {
			a.Communicate(all, r.useSummary)
		}
		if r.events != nil {
			r.emitEvents(connected, dropsSeen)
		}

		if r.plan.IsComplete() {
			r.log.Info("Plan completed")
			break
		}
		if float64(r.steps)*r.dt >= lastPlanned {
			r.log.Info("Max planned time reached")
			break
		}

		if time.Since(lastReport) > progressInterval {
			r.log.Infof("Simulated time=%d/%d, elapsed=%ds",
				int(float64(r.steps)*r.dt), int(lastPlanned), int(time.Since(start).Seconds()))
			if r.events != nil {
				r.events.UpdateMetric("simulated_time", float64(r.steps)*r.dt, "s")
			}
			lastReport = time.Now()
		}
	}
	return nil
}

// emitEvents forwards this tick's contact transitions and applied
// corrections to the mission event log.
func (r *Runner) emitEvents(connected []bool, dropsSeen []int) {
	for i, a := range r.agents {
		if trace := a.ConnectionTrace(); len(trace) > 0 && trace[len(trace)-1] != connected[i] {
			connected[i] = trace[len(trace)-1]
			if connected[i] {
				r.events.LogContact(a.ID(), a.Time())
			} else {
				r.events.LogContactLost(a.ID(), a.Time())
			}
		}
		drops := a.PositionErrorDrops()
		for j := dropsSeen[i]; j < len(drops); j++ {
			r.events.LogCorrection(a.ID(), drops[j].Value, drops[j].Time)
		}
		dropsSeen[i] = len(drops)
	}
}

// Stats analyzes the finished run. Coverage uses the plan's survey
// rectangle, a swath one meter wider than configured and the stats
// beam radius, so the numbers match what a post-mission sonar mosaic
// would show rather than the nominal lane geometry.
func (r *Runner) Stats() *MissionStats {
	stats := &MissionStats{}

	var polys []orb.Polygon
	for _, a := range r.agents {
		polys = append(polys, a.Real().CoveragePolygons(r.plan.Config.Swath+1, coverageBeamRadius)...)

		stats.TotalTravel += a.Real().TotalDistanceTraveled()
		if errs := a.RealErrors(); len(errs) > 0 {
			stats.FinalErrors = append(stats.FinalErrors, errs[len(errs)-1])
		}
		stats.NormalizedErrors = append(stats.NormalizedErrors, normalizeErrors(a.RealErrors(), a.RealMovedDists()))
		stats.ErrorDrops = append(stats.ErrorDrops, a.PositionErrorDrops())
	}

	calc := core.NewCoverageCalculator(r.plan.BoundingRectangle(), 0)
	stats.Coverage = calc.Analyze(polys)
	stats.TotalAgentTime = float64(len(r.agents)) * r.plan.LastPlannedTime()
	return stats
}

// normalizeErrors divides each error sample by the distance commanded
// up to that sample. The tiny offset keeps the first samples finite.
func normalizeErrors(errs, moved []TimeSample) []TimeSample {
	n := len(errs)
	if len(moved) < n {
		n = len(moved)
	}
	out := make([]TimeSample, 0, n)
	cum := 0.0
	for i := 0; i < n; i++ {
		cum += moved[i].Value
		out = append(out, TimeSample{errs[i].Time, errs[i].Value / (cum + 1e-6)})
	}
	return out
}
