package missionplan

import (
	"math"
	"testing"

	"github.com/paulmach/orb"

	"github.com/seabedlabs/auv-sim/pkg/geo"
)

func twoWaypointPlan(t *testing.T) *Plan {
	t.Helper()
	cfg := DefaultConfig()
	cfg.NumAgents = 1
	path := &TimedPath{Wps: []*TimedWaypoint{
		{Pose: geo.NewPose(0, 0, 0), Time: 10, LinePosition: LineFirst},
		{Pose: geo.NewPose(30, 0, 0), Time: 30, LinePosition: LineLast},
	}}
	return NewPlan(cfg, []*TimedPath{path}, orb.Bound{Max: orb.Point{30, 10}})
}

func TestCursorLifecycle(t *testing.T) {
	p := twoWaypointPlan(t)

	if wp := p.GetCurrentWp(0); wp != nil {
		t.Errorf("Expected no current waypoint before the first visit, got %v", wp)
	}

	p.VisitCurrentWp(0)
	wp := p.GetCurrentWp(0)
	if wp == nil {
		t.Fatal("Expected the first waypoint after one visit")
	}
	if wp.Time != 10 {
		t.Errorf("Expected first waypoint time 10, got %f", wp.Time)
	}
	if p.IsComplete() {
		t.Error("Expected plan incomplete while waypoints remain")
	}

	p.VisitCurrentWp(0)
	if wp = p.GetCurrentWp(0); wp == nil || wp.Time != 30 {
		t.Fatalf("Expected second waypoint after two visits, got %v", wp)
	}

	p.VisitCurrentWp(0)
	if wp = p.GetCurrentWp(0); wp != nil {
		t.Errorf("Expected nil after exhausting the path, got %v", wp)
	}
	if !p.IsComplete() {
		t.Error("Expected plan complete once every cursor is exhausted")
	}

	// Visiting past the end stays exhausted.
	p.VisitCurrentWp(0)
	if wp = p.GetCurrentWp(0); wp != nil {
		t.Errorf("Expected nil after visiting past the end, got %v", wp)
	}
}

func TestCursorUnknownAgent(t *testing.T) {
	p := twoWaypointPlan(t)

	if wp := p.GetCurrentWp(-1); wp != nil {
		t.Errorf("Expected nil for a landmark id, got %v", wp)
	}
	if wp := p.GetCurrentWp(7); wp != nil {
		t.Errorf("Expected nil for an out-of-range id, got %v", wp)
	}
	p.VisitCurrentWp(-1)
	p.VisitCurrentWp(7)
	if p.IsComplete() {
		t.Error("Expected unknown-agent visits to leave the plan untouched")
	}
}

func TestLastPlannedTime(t *testing.T) {
	cfg := DefaultConfig()
	a := &TimedPath{Wps: []*TimedWaypoint{{Time: 100}}}
	b := &TimedPath{Wps: []*TimedWaypoint{{Time: 250}}}
	p := NewPlan(cfg, []*TimedPath{a, b}, orb.Bound{})

	if got := p.LastPlannedTime(); got != 250 {
		t.Errorf("Expected last planned time 250, got %f", got)
	}
}

func TestIsRendezvousEligible(t *testing.T) {
	cfg := DefaultConfig()

	for _, idx := range []int{1, 3, 5} {
		if !cfg.IsRendezvousEligible(idx) {
			t.Errorf("Expected pattern index %d to be rendezvous eligible", idx)
		}
	}
	for _, idx := range []int{0, 2, 4} {
		if cfg.IsRendezvousEligible(idx) {
			t.Errorf("Expected pattern index %d not to be rendezvous eligible", idx)
		}
	}
}

func TestInitialPoseBackoff(t *testing.T) {
	cfg := DefaultConfig()
	p := PlanSimpleLawnmower(cfg)

	for i, tp := range p.TimedPaths {
		init := tp.InitialPose()
		first := tp.Wps[0].Pose
		if d := geo.PoseDistance(init, first); math.Abs(d-0.5) > 1e-9 {
			t.Errorf("Agent %d: expected deployment 0.5 m behind the first waypoint, got %f", i, d)
		}
		if init.Heading != first.Heading {
			t.Errorf("Agent %d: expected deployment heading to match the first waypoint", i)
		}
	}
}
