package posegraph

import (
	"math"
	"testing"

	"github.com/seabedlabs/auv-sim/pkg/geo"
)

func straightChain(t *testing.T, owner int, ids *IDStore, start geo.Pose, steps int, stepX, stepY float64) *Graph {
	t.Helper()
	g := NewGraph(owner, ids)
	p := start
	g.AppendOdomPose(p)
	for i := 0; i < steps; i++ {
		p = geo.NewPose(p.X+stepX, p.Y+stepY, p.Heading)
		g.AppendOdomPose(p)
	}
	return g
}

func TestAppendOdomPoseChain(t *testing.T) {
	ids := NewIDStore()
	g := NewGraph(1, ids)

	g.AppendOdomPose(geo.NewPose(0, 0, 0))
	g.AppendOdomPose(geo.NewPose(1, 0, 0))
	g.AppendOdomPose(geo.NewPose(2, 1, math.Pi/2))

	if g.NumVertices() != 3 {
		t.Errorf("Expected 3 vertices, got %d", g.NumVertices())
	}
	if g.NumEdges() != 2 {
		t.Errorf("Expected 2 odometry edges, got %d", g.NumEdges())
	}

	tip, ok := g.OdomTipPose()
	if !ok {
		t.Fatal("Expected a tip pose after appending")
	}
	if tip.X != 2 || tip.Y != 1 {
		t.Errorf("Expected tip at (2, 1), got (%f, %f)", tip.X, tip.Y)
	}
}

func TestOdomEdgeTransformRoundTrip(t *testing.T) {
	ids := NewIDStore()
	g := NewGraph(1, ids)

	a := geo.NewPose(3, -2, 0.7)
	b := geo.NewPose(5, 1, -0.4)
	g.AppendOdomPose(a)
	g.AppendOdomPose(b)

	if len(g.edges) != 1 {
		t.Fatalf("Expected 1 edge, got %d", len(g.edges))
	}
	e := g.edges[0]
	got := geo.Compose(a, e.Dx, e.Dy, e.Dtheta)
	if math.Abs(got.X-b.X) > 1e-9 || math.Abs(got.Y-b.Y) > 1e-9 {
		t.Errorf("Edge transform does not reproduce the second pose: got (%f, %f)", got.X, got.Y)
	}
	if math.Abs(geo.AngleDiff(got.Heading, b.Heading)) > 1e-9 {
		t.Errorf("Edge transform does not reproduce the second heading: got %f, want %f", got.Heading, b.Heading)
	}
}

func TestLandmarkGraph(t *testing.T) {
	ids := NewIDStore()
	pose := geo.NewPose(40, -15, 0)
	g := NewLandmarkGraph(-1, ids, pose)

	if g.NumVertices() != 1 {
		t.Errorf("Expected exactly 1 vertex in a landmark graph, got %d", g.NumVertices())
	}
	if g.NumEdges() != 0 {
		t.Errorf("Expected 0 edges in a landmark graph, got %d", g.NumEdges())
	}

	tip, ok := g.OdomTipPose()
	if !ok {
		t.Fatal("Expected landmark tip pose")
	}
	if tip.X != pose.X || tip.Y != pose.Y {
		t.Errorf("Expected landmark tip at (%f, %f), got (%f, %f)", pose.X, pose.Y, tip.X, tip.Y)
	}
	for _, v := range g.vertices {
		if !v.Fixed {
			t.Error("Expected landmark vertices to be fixed")
		}
	}
}

func TestMeasureTipToTip(t *testing.T) {
	ids := NewIDStore()
	a := straightChain(t, 1, ids, geo.NewPose(0, 0, 0), 3, 1, 0)
	b := straightChain(t, 2, ids, geo.NewPose(0, 5, 0), 3, 1, 0)

	beforeVerts := a.NumVertices()
	beforeEdges := a.NumEdges()

	a.MeasureTipToTip(geo.NewPose(3, 0, 0), geo.NewPose(3, 5, 0), b, false)

	if a.NumVertices() != beforeVerts+1 {
		t.Errorf("Expected peer tip import to add 1 vertex, got %d extra", a.NumVertices()-beforeVerts)
	}
	if a.NumEdges() != beforeEdges+1 {
		t.Errorf("Expected 1 measurement edge, got %d extra", a.NumEdges()-beforeEdges)
	}

	e := a.edges[len(a.edges)-1]
	if e.Kind != EdgeMeasurement {
		t.Errorf("Expected measurement edge kind, got %v", e.Kind)
	}
	if e.Weight != measurementWeight {
		t.Errorf("Expected measurement weight %f, got %f", measurementWeight, e.Weight)
	}
	if math.Abs(e.Dx-0) > 1e-9 || math.Abs(e.Dy-5) > 1e-9 {
		t.Errorf("Expected measured transform (0, 5), got (%f, %f)", e.Dx, e.Dy)
	}
}

func TestMeasureTipToTipLandmarkWeight(t *testing.T) {
	ids := NewIDStore()
	a := straightChain(t, 1, ids, geo.NewPose(0, 0, 0), 2, 1, 0)
	lm := NewLandmarkGraph(-1, ids, geo.NewPose(5, 0, 0))

	a.MeasureTipToTip(geo.NewPose(2, 0, 0), geo.NewPose(5, 0, 0), lm, true)

	e := a.edges[len(a.edges)-1]
	if e.Weight != landmarkWeight {
		t.Errorf("Expected landmark weight %f, got %f", landmarkWeight, e.Weight)
	}
}

func TestFillInVerbatim(t *testing.T) {
	ids := NewIDStore()
	a := straightChain(t, 1, ids, geo.NewPose(0, 0, 0), 2, 1, 0)
	b := straightChain(t, 2, ids, geo.NewPose(0, 5, 0), 4, 1, 0)

	nv, ne := a.FillInSinceLastInteraction(b, false)
	if nv != 5 || ne != 4 {
		t.Errorf("Expected to import 5 vertices and 4 edges, got %d and %d", nv, ne)
	}

	nv, ne = a.FillInSinceLastInteraction(b, false)
	if nv != 0 || ne != 0 {
		t.Errorf("Expected nothing new on a repeat fill, got %d vertices and %d edges", nv, ne)
	}

	b.AppendOdomPose(geo.NewPose(5, 5, 0))
	b.AppendOdomPose(geo.NewPose(6, 5, 0))
	nv, ne = a.FillInSinceLastInteraction(b, false)
	if nv != 2 || ne != 2 {
		t.Errorf("Expected to import only the 2 new vertices and edges, got %d and %d", nv, ne)
	}
}

func TestFillInSummaryCollapsesChain(t *testing.T) {
	ids := NewIDStore()
	a := straightChain(t, 1, ids, geo.NewPose(0, 0, 0), 1, 1, 0)
	b := straightChain(t, 2, ids, geo.NewPose(0, 5, 0), 9, 1, 0)

	first := b.vertices[b.odomRoot]
	last := b.vertices[b.odomTip]

	nv, ne := a.FillInSinceLastInteraction(b, true)
	if nv != 2 {
		t.Errorf("Expected summary to import only the 2 chain endpoints, got %d", nv)
	}
	if ne != 1 {
		t.Errorf("Expected summary to import 1 composed edge, got %d", ne)
	}

	var composed *Edge
	for i := range a.edges {
		e := &a.edges[i]
		if e.From == first.ID && e.To == last.ID {
			composed = e
		}
	}
	if composed == nil {
		t.Fatal("Expected a composed edge between the peer chain endpoints")
	}
	got := geo.Compose(first.Pose, composed.Dx, composed.Dy, composed.Dtheta)
	if math.Abs(got.X-last.Pose.X) > 1e-9 || math.Abs(got.Y-last.Pose.Y) > 1e-9 {
		t.Errorf("Composed transform does not reach the chain tip: got (%f, %f), want (%f, %f)",
			got.X, got.Y, last.Pose.X, last.Pose.Y)
	}
	if composed.Weight >= odometryWeight {
		t.Errorf("Expected composed edge weight below %f, got %f", odometryWeight, composed.Weight)
	}
}

func TestFillInSummaryKeepsMeasurementAnchors(t *testing.T) {
	ids := NewIDStore()
	a := straightChain(t, 1, ids, geo.NewPose(0, 0, 0), 1, 1, 0)
	c := straightChain(t, 3, ids, geo.NewPose(0, -5, 0), 1, 1, 0)

	// Peer walks 5 steps, measures against a third agent, walks 5 more.
	b := straightChain(t, 2, ids, geo.NewPose(0, 5, 0), 5, 1, 0)
	midTip := b.odomTip
	b.MeasureTipToTip(geo.NewPose(5, 5, 0), geo.NewPose(1, -5, 0), c, false)
	p := geo.NewPose(5, 5, 0)
	for i := 0; i < 5; i++ {
		p = geo.NewPose(p.X+1, p.Y, 0)
		b.AppendOdomPose(p)
	}

	nv, ne := a.FillInSinceLastInteraction(b, true)
	if nv != 4 {
		t.Errorf("Expected root, measurement endpoints and tip (4 vertices), got %d", nv)
	}
	if ne != 3 {
		t.Errorf("Expected 2 composed runs plus the measurement edge, got %d", ne)
	}

	if _, ok := a.vertices[midTip]; !ok {
		t.Error("Expected the measurement endpoint vertex to survive summarization")
	}
	meas := 0
	for _, e := range a.edges {
		if e.Kind == EdgeMeasurement {
			meas++
		}
	}
	if meas != 1 {
		t.Errorf("Expected the measurement edge to be imported verbatim, got %d", meas)
	}
}

func TestFillInLandmarkGraph(t *testing.T) {
	ids := NewIDStore()
	a := straightChain(t, 1, ids, geo.NewPose(0, 0, 0), 2, 1, 0)
	lm := NewLandmarkGraph(-1, ids, geo.NewPose(9, 9, 0))

	nv, ne := a.FillInSinceLastInteraction(lm, false)
	if nv != 1 || ne != 0 {
		t.Errorf("Expected to import the single landmark vertex, got %d vertices and %d edges", nv, ne)
	}
	v, ok := a.vertices[lm.odomTip]
	if !ok {
		t.Fatal("Expected the landmark vertex to be present after fill-in")
	}
	if !v.Fixed {
		t.Error("Expected the imported landmark vertex to stay fixed")
	}
}

func TestFillInEchoBackDoesNotDuplicate(t *testing.T) {
	ids := NewIDStore()
	a := straightChain(t, 1, ids, geo.NewPose(0, 0, 0), 3, 1, 0)
	b := straightChain(t, 2, ids, geo.NewPose(0, 5, 0), 3, 1, 0)

	a.FillInSinceLastInteraction(b, false)
	b.FillInSinceLastInteraction(a, false)

	verts := a.NumVertices()
	edges := a.NumEdges()

	// The peer now holds this graph's fragment; pulling again must not
	// re-import anything.
	nv, ne := a.FillInSinceLastInteraction(b, false)
	if nv != 0 || ne != 0 {
		t.Errorf("Expected echoed fragment to be deduplicated, got %d vertices and %d edges", nv, ne)
	}
	if a.NumVertices() != verts || a.NumEdges() != edges {
		t.Errorf("Expected counts unchanged after echo, got %d/%d from %d/%d",
			a.NumVertices(), a.NumEdges(), verts, edges)
	}
}
