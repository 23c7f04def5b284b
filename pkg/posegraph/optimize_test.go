package posegraph

import (
	"math"
	"testing"

	"github.com/seabedlabs/auv-sim/pkg/geo"
)

// driftedScenario builds an agent chain whose belief drifted linearly in y
// while ground truth ran straight along x, plus a landmark at the true end
// position measured against the chain tip.
func driftedScenario(t *testing.T, steps int, driftPerStep float64) *Graph {
	t.Helper()
	ids := NewIDStore()
	g := NewGraph(1, ids)
	for i := 0; i <= steps; i++ {
		g.AppendOdomPose(geo.NewPose(float64(i), driftPerStep*float64(i), 0))
	}

	truth := geo.NewPose(float64(steps), 0, 0)
	lm := NewLandmarkGraph(-1, ids, truth)
	g.MeasureTipToTip(truth, truth, lm, true)
	g.FillInSinceLastInteraction(lm, false)
	return g
}

func TestOptimizeEmptyGraph(t *testing.T) {
	g := NewGraph(1, NewIDStore())
	ok, _ := g.Optimize(false)
	if ok {
		t.Error("Expected optimize to fail on an empty graph")
	}
}

func TestOptimizeNoMeasurements(t *testing.T) {
	ids := NewIDStore()
	g := straightChain(t, 1, ids, geo.NewPose(0, 0, 0), 5, 1, 0)

	before, _ := g.OdomTipPose()
	ok, tip := g.Optimize(false)
	if ok {
		t.Error("Expected optimize to fail without measurement edges")
	}
	if tip != before {
		t.Errorf("Expected tip unchanged on failure, got %v from %v", tip, before)
	}
}

func TestOptimizeConsistentGraphKeepsTip(t *testing.T) {
	ids := NewIDStore()
	a := straightChain(t, 1, ids, geo.NewPose(0, 0, 0), 3, 1, 0)
	b := straightChain(t, 2, ids, geo.NewPose(0, 2, 0), 3, 1, 0)

	// Truth equals belief for both agents, so every constraint is already
	// satisfied and the solution must stay put.
	a.MeasureTipToTip(geo.NewPose(3, 0, 0), geo.NewPose(3, 2, 0), b, false)

	ok, tip := a.Optimize(false)
	if !ok {
		t.Fatal("Expected optimize to succeed on a consistent graph")
	}
	if math.Abs(tip.X-3) > 1e-6 || math.Abs(tip.Y-0) > 1e-6 {
		t.Errorf("Expected tip to stay at (3, 0), got (%f, %f)", tip.X, tip.Y)
	}
	if math.Abs(tip.Heading) > 1e-6 {
		t.Errorf("Expected tip heading to stay 0, got %f", tip.Heading)
	}
}

func TestOptimizeCorrectsDriftedChain(t *testing.T) {
	g := driftedScenario(t, 10, 0.1)

	before, _ := g.OdomTipPose()
	truth := geo.NewPose(10, 0, 0)
	errBefore := geo.PoseDistance(before, truth)

	ok, tip := g.Optimize(false)
	if !ok {
		t.Fatal("Expected optimize to succeed with a landmark measurement")
	}

	errAfter := geo.PoseDistance(tip, truth)
	if errAfter >= errBefore {
		t.Errorf("Expected tip error to shrink, got %f from %f", errAfter, errBefore)
	}
	if errAfter > 0.05 {
		t.Errorf("Expected tip pulled close to the landmark fix, residual error %f", errAfter)
	}
	if math.Abs(tip.Heading) > 0.05 {
		t.Errorf("Expected heading to stay near 0, got %f", tip.Heading)
	}
}

func TestOptimizeSummaryCorrectsDriftedChain(t *testing.T) {
	g := driftedScenario(t, 50, 0.05)

	before, _ := g.OdomTipPose()
	truth := geo.NewPose(50, 0, 0)
	errBefore := geo.PoseDistance(before, truth)

	ok, tip := g.Optimize(true)
	if !ok {
		t.Fatal("Expected summarized optimize to succeed")
	}
	errAfter := geo.PoseDistance(tip, truth)
	if errAfter >= errBefore {
		t.Errorf("Expected summarized optimize to shrink tip error, got %f from %f", errAfter, errBefore)
	}
	if errAfter > 0.2 {
		t.Errorf("Expected tip near the landmark fix, residual error %f", errAfter)
	}
}

func TestOptimizeSummaryAgreesWithFull(t *testing.T) {
	full := driftedScenario(t, 20, 0.1)
	summ := driftedScenario(t, 20, 0.1)

	okFull, tipFull := full.Optimize(false)
	okSumm, tipSumm := summ.Optimize(true)
	if !okFull || !okSumm {
		t.Fatal("Expected both optimization modes to succeed")
	}
	if geo.PoseDistance(tipFull, tipSumm) > 0.15 {
		t.Errorf("Expected summarized tip near the full solution, got (%f, %f) vs (%f, %f)",
			tipSumm.X, tipSumm.Y, tipFull.X, tipFull.Y)
	}
}

func TestOptimizeDeterministic(t *testing.T) {
	g1 := driftedScenario(t, 15, 0.07)
	g2 := driftedScenario(t, 15, 0.07)

	ok1, tip1 := g1.Optimize(false)
	ok2, tip2 := g2.Optimize(false)
	if !ok1 || !ok2 {
		t.Fatal("Expected both runs to succeed")
	}
	if tip1 != tip2 {
		t.Errorf("Expected identical results for identical graphs, got %v vs %v", tip1, tip2)
	}
}

func TestOptimizeLeavesFixedVerticesAlone(t *testing.T) {
	g := driftedScenario(t, 10, 0.1)

	var lmID VertexID
	for id, v := range g.vertices {
		if v.Fixed {
			lmID = id
		}
	}
	if lmID == 0 {
		t.Fatal("Expected a fixed landmark vertex in the scenario")
	}
	before := g.vertices[lmID].Pose

	if ok, _ := g.Optimize(false); !ok {
		t.Fatal("Expected optimize to succeed")
	}
	if g.vertices[lmID].Pose != before {
		t.Errorf("Expected fixed vertex pose unchanged, got %v from %v", g.vertices[lmID].Pose, before)
	}
}
