package simulation

import (
	"context"
	"math"
	"testing"

	"github.com/paulmach/orb"

	"github.com/seabedlabs/auv-sim/pkg/geo"
	"github.com/seabedlabs/auv-sim/pkg/missionplan"
)

// smallMission is a two-agent survey small enough to simulate in full
// inside a test.
func smallMission() *missionplan.Plan {
	cfg := missionplan.DefaultConfig()
	cfg.NumAgents = 2
	cfg.RectWidth = 60
	cfg.RectHeight = 30
	cfg.Swath = 30
	cfg.Speed = 3
	cfg.HeadingNoiseBound = 0
	return missionplan.PlanSimpleLawnmower(cfg)
}

func TestRunnerFleetConstruction(t *testing.T) {
	plan := smallMission()
	r := NewRunner(RunnerConfig{
		Plan:      plan,
		Landmarks: []geo.Pose{geo.NewPose(5, 5, 0), geo.NewPose(55, 5, 0)},
		Dt:        testDt,
		Seed:      42,
	})

	agents := r.Agents()
	if len(agents) != 2 {
		t.Fatalf("Expected 2 agents, got %d", len(agents))
	}
	for i, a := range agents {
		if a.ID() != i {
			t.Errorf("Agent %d: expected id %d, got %d", i, i, a.ID())
		}
		want := plan.TimedPaths[i].InitialPose().Point()
		if got := a.Belief().Position(); got != want {
			t.Errorf("Agent %d: expected deployment at %v, got %v", i, want, got)
		}
		if a.Real().Position() != a.Belief().Position() {
			t.Errorf("Agent %d: truth and belief must start identical", i)
		}
	}

	lms := r.Landmarks()
	if len(lms) != 2 {
		t.Fatalf("Expected 2 landmarks, got %d", len(lms))
	}
	for k, lm := range lms {
		if want := -(k + 1); lm.ID() != want {
			t.Errorf("Landmark %d: expected id %d, got %d", k, want, lm.ID())
		}
		if got := lm.Graph().NumVertices(); got != 1 {
			t.Errorf("Landmark %d: expected a single fixed vertex, got %d", k, got)
		}
	}
}

func TestRunnerRunsToTermination(t *testing.T) {
	plan := smallMission()
	r := NewRunner(RunnerConfig{Plan: plan, Dt: testDt, Seed: 7, UseSummary: true})

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if r.Steps() == 0 {
		t.Fatal("Expected the run loop to take at least one step")
	}
	if limit := plan.LastPlannedTime() + testDt; r.SimulatedTime() > limit {
		t.Errorf("Expected run to stop by %v, simulated %v", limit, r.SimulatedTime())
	}
	for _, a := range r.Agents() {
		if a.Real().TotalDistanceTraveled() <= 0 {
			t.Errorf("Agent %d: expected the vehicle to move", a.ID())
		}
	}
}

func TestRunnerDeterministicUnderSeed(t *testing.T) {
	build := func() *Runner {
		cfg := missionplan.DefaultConfig()
		cfg.NumAgents = 2
		cfg.RectWidth = 60
		cfg.RectHeight = 30
		cfg.Swath = 30
		cfg.Speed = 3
		cfg.HeadingNoiseBound = 0.02
		plan := missionplan.PlanSimpleLawnmower(cfg)
		return NewRunner(RunnerConfig{
			Plan:       plan,
			Drift:      fixedDrift{angle: 1.1},
			Landmarks:  []geo.Pose{geo.NewPose(30, 0, 0)},
			Dt:         testDt,
			Seed:       1234,
			UseSummary: true,
		})
	}

	r1 := build()
	r2 := build()
	if err := r1.Run(context.Background()); err != nil {
		t.Fatalf("First run returned error: %v", err)
	}
	if err := r2.Run(context.Background()); err != nil {
		t.Fatalf("Second run returned error: %v", err)
	}

	if r1.Steps() != r2.Steps() {
		t.Fatalf("Expected identical step counts, got %d and %d", r1.Steps(), r2.Steps())
	}
	for i := range r1.Agents() {
		a1, a2 := r1.Agents()[i], r2.Agents()[i]
		t1, t2 := a1.Real().Trace(), a2.Real().Trace()
		if len(t1) != len(t2) {
			t.Fatalf("Agent %d: trace lengths differ, %d vs %d", i, len(t1), len(t2))
		}
		for k := range t1 {
			if t1[k] != t2[k] {
				t.Fatalf("Agent %d: ground-truth traces diverge at tick %d: %v vs %v", i, k, t1[k], t2[k])
			}
		}
		b1, b2 := a1.Belief().Trace(), a2.Belief().Trace()
		for k := range b1 {
			if b1[k] != b2[k] {
				t.Fatalf("Agent %d: belief traces diverge at tick %d: %v vs %v", i, k, b1[k], b2[k])
			}
		}
	}
}

func TestRunnerStats(t *testing.T) {
	plan := smallMission()
	r := NewRunner(RunnerConfig{Plan: plan, Dt: testDt, Seed: 7, UseSummary: true})
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	stats := r.Stats()

	if want := 2 * plan.LastPlannedTime(); math.Abs(stats.TotalAgentTime-want) > 1e-9 {
		t.Errorf("Expected total agent time %v, got %v", want, stats.TotalAgentTime)
	}
	if stats.TotalTravel <= 0 {
		t.Error("Expected positive total travel")
	}
	if len(stats.FinalErrors) != 2 {
		t.Fatalf("Expected a final error per agent, got %d", len(stats.FinalErrors))
	}
	for i, fe := range stats.FinalErrors {
		if fe.Value != 0 {
			t.Errorf("Agent %d: expected zero final error without drift, got %v", i, fe.Value)
		}
	}
	if len(stats.NormalizedErrors) != 2 || len(stats.ErrorDrops) != 2 {
		t.Fatalf("Expected per-agent series for 2 agents, got %d and %d",
			len(stats.NormalizedErrors), len(stats.ErrorDrops))
	}
	for i, series := range stats.NormalizedErrors {
		if len(series) == 0 {
			t.Errorf("Agent %d: expected normalized error samples", i)
		}
	}

	cov := stats.Coverage
	if cov.CoveredArea <= 0 {
		t.Error("Expected the fleet to cover some area")
	}
	if cov.CoveredRatio <= 0 || cov.CoveredRatio > 1 {
		t.Errorf("Expected covered ratio in (0,1], got %v", cov.CoveredRatio)
	}
	if cov.MissedArea < 0 {
		t.Errorf("Expected nonnegative missed area, got %v", cov.MissedArea)
	}
}

func TestRunnerWithDriftAndLandmarks(t *testing.T) {
	// Wide rectangle and short comm range, so the agents genuinely lose
	// contact on their lanes, drift, and reconnect at the band boundary
	// where the landmark sits.
	cfg := missionplan.DefaultConfig()
	cfg.NumAgents = 2
	cfg.RectWidth = 120
	cfg.RectHeight = 30
	cfg.Swath = 30
	cfg.Speed = 3
	cfg.CommRange = 15
	cfg.HeadingNoiseBound = 0
	plan := missionplan.PlanSimpleLawnmower(cfg)

	r := NewRunner(RunnerConfig{
		Plan:       plan,
		Drift:      fixedDrift{angle: math.Pi / 3},
		Landmarks:  []geo.Pose{geo.NewPose(60, 0, 0)},
		Dt:         testDt,
		Seed:       99,
		UseSummary: true,
	})

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	stats := r.Stats()
	if stats.Coverage.CoveredArea <= 0 {
		t.Error("Expected coverage despite drift")
	}
	for i, fe := range stats.FinalErrors {
		if fe.Value < 0 {
			t.Errorf("Agent %d: negative final error %v", i, fe.Value)
		}
	}
	for _, a := range r.Agents()[:2] {
		if len(a.ReceivedVerts()) <= 1 {
			t.Errorf("Agent %d: expected at least one graph merge", a.ID())
		}
	}
	if drops := r.Agents()[0].PositionErrorDrops(); len(drops) == 0 {
		t.Error("Expected at least one optimization after a connectivity change")
	}

	// The landmark never moves or learns.
	lm := r.Landmarks()[0]
	if got := lm.Real().Position(); got != (orb.Point{60, 0}) {
		t.Errorf("Expected landmark to stay at {60 0}, got %v", got)
	}
	if got := lm.Graph().NumVertices(); got != 1 {
		t.Errorf("Expected landmark graph to stay at one vertex, got %d", got)
	}
}

func TestRunnerContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(RunnerConfig{Plan: smallMission(), Dt: testDt, Seed: 1})
	if err := r.Run(ctx); err == nil {
		t.Fatal("Expected a canceled context to abort the run")
	}
	if r.Steps() != 0 {
		t.Errorf("Expected no steps after immediate cancel, got %d", r.Steps())
	}
}
