package posegraph

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/seabedlabs/auv-sim/pkg/geo"
)

const (
	maxIterations  = 10
	convergenceTol = 1e-6
	initialDamping = 1e-6
	dampingRetries = 6
)

// Optimize runs damped Gauss-Newton over the accumulated constraints and
// returns whether a solution was found together with the corrected tip
// pose. A graph with no measurement edges has nothing to correct against
// and reports failure. With useSummary the odometry chains are collapsed
// between anchor vertices first, which keeps the normal equations small on
// long runs; only the surviving vertices are adjusted.
func (g *Graph) Optimize(useSummary bool) (bool, geo.Pose) {
	tip, ok := g.OdomTipPose()
	if !ok {
		return false, geo.Pose{}
	}

	hasMeasurement := false
	for _, e := range g.edges {
		if e.Kind == EdgeMeasurement {
			hasMeasurement = true
			break
		}
	}
	if !hasMeasurement {
		return false, tip
	}

	edges := g.edges
	if useSummary {
		edges = summarizeEdges(g.edges, g.optimizationAnchors())
	}

	solved, ok := g.solve(edges)
	if !ok {
		return false, tip
	}
	for id, p := range solved {
		g.vertices[id].Pose = p
	}
	tip, _ = g.OdomTipPose()
	return true, tip
}

// optimizationAnchors returns the vertices that must survive chain
// summarization: the own chain's endpoints, every measurement endpoint,
// and every fixed vertex.
func (g *Graph) optimizationAnchors() map[VertexID]bool {
	anchors := map[VertexID]bool{
		g.odomRoot: true,
		g.odomTip:  true,
	}
	for _, e := range g.edges {
		if e.Kind == EdgeMeasurement {
			anchors[e.From] = true
			anchors[e.To] = true
		}
	}
	for id, v := range g.vertices {
		if v.Fixed {
			anchors[id] = true
		}
	}
	return anchors
}

// solve iterates Gauss-Newton over the given edge set and returns the
// updated poses for the free vertices. The own chain root is pinned in
// addition to fixed vertices, which removes the global gauge freedom and
// reflects that the starting pose is exact.
func (g *Graph) solve(edges []Edge) (map[VertexID]geo.Pose, bool) {
	pinned := func(id VertexID) bool {
		v := g.vertices[id]
		return v == nil || v.Fixed || id == g.odomRoot
	}

	index := make(map[VertexID]int)
	var free []VertexID
	for _, e := range edges {
		for _, id := range [2]VertexID{e.From, e.To} {
			if pinned(id) {
				continue
			}
			if _, ok := index[id]; !ok {
				index[id] = len(free)
				free = append(free, id)
			}
		}
	}
	if len(free) == 0 {
		return nil, false
	}

	pose := make(map[VertexID]geo.Pose, len(g.vertices))
	for id, v := range g.vertices {
		pose[id] = v.Pose
	}

	n := 3 * len(free)
	lambda := initialDamping
	for iter := 0; iter < maxIterations; iter++ {
		h := mat.NewDense(n, n, nil)
		grad := mat.NewVecDense(n, nil)
		for _, e := range edges {
			pi, okFrom := pose[e.From]
			pj, okTo := pose[e.To]
			if !okFrom || !okTo {
				continue
			}
			bi, bj := -1, -1
			if k, ok := index[e.From]; ok {
				bi = 3 * k
			}
			if k, ok := index[e.To]; ok {
				bj = 3 * k
			}
			accumulateEdge(h, grad, e, pi, pj, bi, bj)
		}

		var delta *mat.VecDense
		for try := 0; try < dampingRetries; try++ {
			sym := dampedNormalMatrix(h, n, lambda)
			var chol mat.Cholesky
			if !chol.Factorize(sym) {
				lambda *= 10
				continue
			}
			d := new(mat.VecDense)
			if err := chol.SolveVecTo(d, grad); err != nil {
				lambda *= 10
				continue
			}
			delta = d
			break
		}
		if delta == nil {
			return nil, false
		}

		for k, id := range free {
			p := pose[id]
			p.X -= delta.AtVec(3 * k)
			p.Y -= delta.AtVec(3*k + 1)
			p.Heading = geo.NormalizeAngle(p.Heading - delta.AtVec(3*k+2))
			pose[id] = p
		}
		if mat.Norm(delta, math.Inf(1)) < convergenceTol {
			break
		}
	}

	out := make(map[VertexID]geo.Pose, len(free))
	for _, id := range free {
		out[id] = pose[id]
	}
	return out, true
}

// accumulateEdge adds one edge's weighted contribution to the normal
// equations. The residual is the measured relative transform subtracted
// from the current relative transform, expressed in the From frame.
func accumulateEdge(h *mat.Dense, grad *mat.VecDense, e Edge, pi, pj geo.Pose, bi, bj int) {
	ci, si := math.Cos(pi.Heading), math.Sin(pi.Heading)
	dxw := pj.X - pi.X
	dyw := pj.Y - pi.Y

	res := mat.NewVecDense(3, []float64{
		ci*dxw + si*dyw - e.Dx,
		-si*dxw + ci*dyw - e.Dy,
		geo.NormalizeAngle(pj.Heading - pi.Heading - e.Dtheta),
	})

	ja := mat.NewDense(3, 3, []float64{
		-ci, -si, -si*dxw + ci*dyw,
		si, -ci, -ci*dxw - si*dyw,
		0, 0, -1,
	})
	jb := mat.NewDense(3, 3, []float64{
		ci, si, 0,
		-si, ci, 0,
		0, 0, 1,
	})

	addBlock := func(r, c int, left, right *mat.Dense) {
		var t mat.Dense
		t.Mul(left.T(), right)
		t.Scale(e.Weight, &t)
		dst := h.Slice(r, r+3, c, c+3).(*mat.Dense)
		dst.Add(dst, &t)
	}
	addGrad := func(r int, j *mat.Dense) {
		var t mat.VecDense
		t.MulVec(j.T(), res)
		t.ScaleVec(e.Weight, &t)
		dst := grad.SliceVec(r, r+3).(*mat.VecDense)
		dst.AddVec(dst, &t)
	}

	if bi >= 0 {
		addBlock(bi, bi, ja, ja)
		addGrad(bi, ja)
	}
	if bj >= 0 {
		addBlock(bj, bj, jb, jb)
		addGrad(bj, jb)
	}
	if bi >= 0 && bj >= 0 {
		addBlock(bi, bj, ja, jb)
		addBlock(bj, bi, jb, ja)
	}
}

// dampedNormalMatrix copies the assembled normal matrix into symmetric
// form with lambda added on the diagonal.
func dampedNormalMatrix(h *mat.Dense, n int, lambda float64) *mat.SymDense {
	sym := mat.NewSymDense(n, nil)
	for r := 0; r < n; r++ {
		for c := r; c < n; c++ {
			v := h.At(r, c)
			if r == c {
				v += lambda
			}
			sym.SetSym(r, c, v)
		}
	}
	return sym
}
