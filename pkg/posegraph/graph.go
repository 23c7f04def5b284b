// Package posegraph implements the per-agent pose estimator: an
// append-only odometry chain, inter-agent relative measurements, merging
// of peer graph fragments, and Gauss-Newton optimization producing a
// corrected current pose.
package posegraph

import (
	"math"

	"github.com/seabedlabs/auv-sim/pkg/geo"
)

// Edge weights by information content. Measurements come from an
// idealized ranging exchange and outrank dead reckoning; landmark
// measurements are near ground truth.
const (
	odometryWeight    = 1.0
	measurementWeight = 5.0
	landmarkWeight    = 50.0
)

// Vertex is one pose estimate in a graph. Fixed vertices (landmarks)
// are never moved by optimization.
type Vertex struct {
	ID    VertexID
	Owner int
	Pose  geo.Pose
	Fixed bool
}

// EdgeKind separates dead-reckoning edges from inter-agent measurements.
type EdgeKind int

const (
	EdgeOdometry EdgeKind = iota
	EdgeMeasurement
)

// Edge is a relative SE(2) constraint between two vertices: the pose of
// To expressed in From's frame.
type Edge struct {
	From   VertexID
	To     VertexID
	Kind   EdgeKind
	Dx     float64
	Dy     float64
	Dtheta float64
	Weight float64
}

type edgeKey struct {
	from, to VertexID
	kind     EdgeKind
}

// Graph holds one agent's pose estimate state.
type Graph struct {
	ownerID int
	ids     *IDStore
	fixed   bool

	vertices map[VertexID]*Vertex
	order    []VertexID
	edges    []Edge
	known    map[edgeKey]struct{}

	odomRoot VertexID
	odomTip  VertexID

	seenVerts map[int]int
	seenEdges map[int]int
}

// NewGraph creates an empty graph for a mobile agent.
func NewGraph(ownerID int, ids *IDStore) *Graph {
	return &Graph{
		ownerID:   ownerID,
		ids:       ids,
		vertices:  make(map[VertexID]*Vertex),
		known:     make(map[edgeKey]struct{}),
		seenVerts: make(map[int]int),
		seenEdges: make(map[int]int),
	}
}

// NewLandmarkGraph creates a graph whose vertices are fixed, holding the
// single construction-time pose of a landmark.
func NewLandmarkGraph(ownerID int, ids *IDStore, pose geo.Pose) *Graph {
	g := NewGraph(ownerID, ids)
	g.fixed = true
	g.AppendOdomPose(pose)
	return g
}

// OwnerID returns the owning agent id.
func (g *Graph) OwnerID() int { return g.ownerID }

// NumVertices returns how many vertices this graph currently holds,
// imported ones included.
func (g *Graph) NumVertices() int { return len(g.vertices) }

// NumEdges returns how many edges this graph currently holds.
func (g *Graph) NumEdges() int { return len(g.edges) }

// OdomTipPose returns the latest own odometry pose estimate.
func (g *Graph) OdomTipPose() (geo.Pose, bool) {
	v, ok := g.vertices[g.odomTip]
	if !ok {
		return geo.Pose{}, false
	}
	return v.Pose, true
}

// AppendOdomPose appends a new own odometry vertex, chained to the
// previous tip by a relative edge, and returns its id.
func (g *Graph) AppendOdomPose(p geo.Pose) VertexID {
	v := &Vertex{ID: g.ids.Next(), Owner: g.ownerID, Pose: p, Fixed: g.fixed}
	g.vertices[v.ID] = v
	g.order = append(g.order, v.ID)

	if g.odomTip != 0 {
		prev := g.vertices[g.odomTip]
		dx, dy, dth := geo.Relative(prev.Pose, p)
		g.addEdge(Edge{
			From: prev.ID, To: v.ID, Kind: EdgeOdometry,
			Dx: dx, Dy: dy, Dtheta: dth, Weight: odometryWeight,
		})
	} else {
		g.odomRoot = v.ID
	}
	g.odomTip = v.ID
	return v.ID
}

// MeasureTipToTip records a relative measurement between this graph's
// tip and the peer graph's tip. The measured transform is the true
// relative pose between the two ground-truth poses; the peer's tip
// vertex is imported if not yet known.
func (g *Graph) MeasureTipToTip(selfTruth, otherTruth geo.Pose, other *Graph, isLandmark bool) {
	if g.odomTip == 0 || other.odomTip == 0 {
		return
	}

	peerTip := other.vertices[other.odomTip]
	g.importVertex(peerTip)

	dx, dy, dth := geo.Relative(selfTruth, otherTruth)
	w := measurementWeight
	if isLandmark {
		w = landmarkWeight
	}
	g.addEdge(Edge{
		From: g.odomTip, To: peerTip.ID, Kind: EdgeMeasurement,
		Dx: dx, Dy: dy, Dtheta: dth, Weight: w,
	})
}

// FillInSinceLastInteraction imports the peer's vertices and edges this
// graph has not seen yet and returns how many of each were added. With
// useSummary the peer's new odometry chain is collapsed into composed
// edges between its endpoints and any vertices referenced by
// measurements; measurement edges are always imported verbatim.
func (g *Graph) FillInSinceLastInteraction(other *Graph, useSummary bool) (int, int) {
	newVerts := other.order[g.seenVerts[other.ownerID]:]
	newEdges := other.edges[g.seenEdges[other.ownerID]:]
	g.seenVerts[other.ownerID] = len(other.order)
	g.seenEdges[other.ownerID] = len(other.edges)

	nv, ne := 0, 0
	if !useSummary {
		for _, id := range newVerts {
			if g.importVertex(other.vertices[id]) {
				nv++
			}
		}
		for _, e := range newEdges {
			added, extra := g.importEdge(other, e)
			nv += extra
			if added {
				ne++
			}
		}
		return nv, ne
	}

	// Anchors survive summarization: chain endpoints, measurement
	// endpoints, and anything this graph already knows.
	anchors := make(map[VertexID]bool)
	anchors[other.odomRoot] = true
	anchors[other.odomTip] = true
	for _, e := range newEdges {
		if e.Kind == EdgeMeasurement {
			anchors[e.From] = true
			anchors[e.To] = true
		}
	}
	for _, id := range newVerts {
		if _, ok := g.vertices[id]; ok {
			anchors[id] = true
		}
	}

	for _, e := range summarizeEdges(newEdges, anchors) {
		added, extra := g.importEdge(other, e)
		nv += extra
		if added {
			ne++
		}
	}
	// Anchor vertices no summarized edge touches, such as a landmark's
	// lone pose, still need to come across.
	for _, id := range newVerts {
		if anchors[id] && g.importVertex(other.vertices[id]) {
			nv++
		}
	}
	return nv, ne
}

// summarizeEdges collapses runs of chained odometry edges between anchor
// vertices into single composed edges. A composed edge's weight is scaled
// down by the run length so a collapsed chain carries the same effective
// stiffness as the verbatim one. Measurement edges pass through unchanged
// and break runs.
func summarizeEdges(edges []Edge, anchors map[VertexID]bool) []Edge {
	out := make([]Edge, 0, len(edges))
	var runStart, runEnd VertexID
	var dx, dy, dth float64
	runLen := 0

	flush := func() {
		if runStart != 0 && runStart != runEnd {
			out = append(out, Edge{
				From: runStart, To: runEnd, Kind: EdgeOdometry,
				Dx: dx, Dy: dy, Dtheta: dth,
				Weight: odometryWeight / float64(runLen),
			})
		}
		runStart, runEnd, runLen = 0, 0, 0
	}

	for _, e := range edges {
		if e.Kind != EdgeOdometry {
			flush()
			out = append(out, e)
			continue
		}
		switch {
		case runStart == 0:
			runStart, runEnd = e.From, e.To
			dx, dy, dth = e.Dx, e.Dy, e.Dtheta
			runLen = 1
		case e.From == runEnd:
			dx, dy, dth = composeRel(dx, dy, dth, e.Dx, e.Dy, e.Dtheta)
			runEnd = e.To
			runLen++
		default:
			flush()
			runStart, runEnd = e.From, e.To
			dx, dy, dth = e.Dx, e.Dy, e.Dtheta
			runLen = 1
		}
		if anchors[runEnd] {
			flush()
		}
	}
	flush()
	return out
}

// importVertex copies a vertex from a peer graph, reporting whether it
// was new.
func (g *Graph) importVertex(v *Vertex) bool {
	if v == nil {
		return false
	}
	if _, ok := g.vertices[v.ID]; ok {
		return false
	}
	c := *v
	g.vertices[v.ID] = &c
	g.order = append(g.order, v.ID)
	return true
}

// importEdge copies an edge, pulling in any endpoint vertex the graph is
// missing. Reports whether the edge was new and how many vertices came
// with it.
func (g *Graph) importEdge(other *Graph, e Edge) (bool, int) {
	pulled := 0
	if _, ok := g.vertices[e.From]; !ok {
		if g.importVertex(other.vertices[e.From]) {
			pulled++
		}
	}
	if _, ok := g.vertices[e.To]; !ok {
		if g.importVertex(other.vertices[e.To]) {
			pulled++
		}
	}
	return g.addEdge(e), pulled
}

// addEdge appends an edge unless an identical constraint is already
// present, which happens when previously shared fragments echo back.
func (g *Graph) addEdge(e Edge) bool {
	k := edgeKey{from: e.From, to: e.To, kind: e.Kind}
	if _, ok := g.known[k]; ok {
		return false
	}
	g.known[k] = struct{}{}
	g.edges = append(g.edges, e)
	return true
}

// composeRel chains two relative transforms.
func composeRel(ax, ay, ath, bx, by, bth float64) (float64, float64, float64) {
	c, s := math.Cos(ath), math.Sin(ath)
	return ax + c*bx - s*by, ay + s*bx + c*by, geo.NormalizeAngle(ath + bth)
}
