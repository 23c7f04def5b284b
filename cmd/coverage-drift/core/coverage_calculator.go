package core

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// defaultCellSize is the raster resolution in meters. Half a meter is
// fine enough to resolve the sub-swath gaps drifting vehicles leave.
const defaultCellSize = 0.5

// CoverageCalculator measures how much of a survey rectangle a fleet's
// coverage ribbons actually touched. The rectangle is rasterized into
// square cells and a cell counts as covered when its center falls
// inside any ribbon polygon.
type CoverageCalculator struct {
	bound    orb.Bound
	cellSize float64
	nx, ny   int
}

// CoverageResult is the outcome of a coverage analysis.
type CoverageResult struct {
	CoveredArea   float64
	MissedArea    float64
	CoveredRatio  float64
	MissedRegions []MissedRegion
}

// MissedRegion is one connected patch of uncovered cells, described by
// its area and the side lengths of its minimum-area bounding rectangle.
// Long thin regions are lane-shaped gaps, square-ish ones are corners
// the plan never visited.
type MissedRegion struct {
	Area   float64
	Length float64
	Width  float64
}

// NewCoverageCalculator creates a calculator over the given survey
// rectangle. A nonpositive cellSize selects the default resolution.
func NewCoverageCalculator(bound orb.Bound, cellSize float64) *CoverageCalculator {
	if cellSize <= 0 {
		cellSize = defaultCellSize
	}
	w := bound.Max[0] - bound.Min[0]
	h := bound.Max[1] - bound.Min[1]
	cc := &CoverageCalculator{bound: bound, cellSize: cellSize}
	if w > 0 && h > 0 {
		cc.nx = int(math.Ceil(w / cellSize))
		cc.ny = int(math.Ceil(h / cellSize))
	}
	return cc
}

// Analyze rasterizes the given polygons and reports covered and missed
// area together with a description of every connected missed region.
// With no polygons at all the whole rectangle comes back as a single
// missed region.
func (cc *CoverageCalculator) Analyze(polys []orb.Polygon) CoverageResult {
	total := cc.nx * cc.ny
	if total == 0 {
		return CoverageResult{}
	}

	covered := make([]bool, total)
	for _, poly := range polys {
		cc.markCovered(covered, poly)
	}

	coveredCells := 0
	for _, c := range covered {
		if c {
			coveredCells++
		}
	}

	cellArea := cc.cellSize * cc.cellSize
	result := CoverageResult{
		CoveredArea:  float64(coveredCells) * cellArea,
		MissedArea:   float64(total-coveredCells) * cellArea,
		CoveredRatio: float64(coveredCells) / float64(total),
	}

	for _, comp := range cc.missedComponents(covered) {
		result.MissedRegions = append(result.MissedRegions, cc.describeRegion(comp))
	}
	return result
}

// markCovered marks every cell whose center lies inside poly. Only the
// cells overlapping the polygon's bounding box are tested.
func (cc *CoverageCalculator) markCovered(covered []bool, poly orb.Polygon) {
	if len(poly) == 0 || len(poly[0]) < 3 {
		return
	}
	pb := poly.Bound()
	i0, j0 := cc.cellAt(pb.Min)
	i1, j1 := cc.cellAt(pb.Max)
	for j := j0; j <= j1; j++ {
		for i := i0; i <= i1; i++ {
			idx := j*cc.nx + i
			if covered[idx] {
				continue
			}
			if planar.PolygonContains(poly, cc.cellCenter(i, j)) {
				covered[idx] = true
			}
		}
	}
}

// cellAt returns the grid cell containing p, clamped to the raster.
func (cc *CoverageCalculator) cellAt(p orb.Point) (int, int) {
	i := int(math.Floor((p[0] - cc.bound.Min[0]) / cc.cellSize))
	j := int(math.Floor((p[1] - cc.bound.Min[1]) / cc.cellSize))
	if i < 0 {
		i = 0
	}
	if i >= cc.nx {
		i = cc.nx - 1
	}
	if j < 0 {
		j = 0
	}
	if j >= cc.ny {
		j = cc.ny - 1
	}
	return i, j
}

func (cc *CoverageCalculator) cellCenter(i, j int) orb.Point {
	return orb.Point{
		cc.bound.Min[0] + (float64(i)+0.5)*cc.cellSize,
		cc.bound.Min[1] + (float64(j)+0.5)*cc.cellSize,
	}
}

// missedComponents groups the uncovered cells into 4-connected
// components and returns each component as a list of cell indices.
func (cc *CoverageCalculator) missedComponents(covered []bool) [][]int {
	visited := make([]bool, len(covered))
	var comps [][]int

	for start := range covered {
		if covered[start] || visited[start] {
			continue
		}
		comp := []int{start}
		visited[start] = true
		queue := []int{start}
		for len(queue) > 0 {
			idx := queue[0]
			queue = queue[1:]
			i, j := idx%cc.nx, idx/cc.nx
			for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				ni, nj := i+d[0], j+d[1]
				if ni < 0 || ni >= cc.nx || nj < 0 || nj >= cc.ny {
					continue
				}
				nidx := nj*cc.nx + ni
				if covered[nidx] || visited[nidx] {
					continue
				}
				visited[nidx] = true
				comp = append(comp, nidx)
				queue = append(queue, nidx)
			}
		}
		comps = append(comps, comp)
	}
	return comps
}

// describeRegion computes area and minimum-area bounding rectangle for
// one component. Only the corner points of each row's leftmost and
// rightmost cell can be hull vertices, so those are enough for the
// rectangle fit.
func (cc *CoverageCalculator) describeRegion(cells []int) MissedRegion {
	type rowSpan struct{ minI, maxI int }
	rows := make(map[int]rowSpan)
	for _, idx := range cells {
		i, j := idx%cc.nx, idx/cc.nx
		span, ok := rows[j]
		if !ok {
			rows[j] = rowSpan{i, i}
			continue
		}
		if i < span.minI {
			span.minI = i
		}
		if i > span.maxI {
			span.maxI = i
		}
		rows[j] = span
	}

	pts := make([]orb.Point, 0, len(rows)*8)
	for j, span := range rows {
		y0 := cc.bound.Min[1] + float64(j)*cc.cellSize
		y1 := y0 + cc.cellSize
		for _, i := range []int{span.minI, span.maxI} {
			x0 := cc.bound.Min[0] + float64(i)*cc.cellSize
			x1 := x0 + cc.cellSize
			pts = append(pts,
				orb.Point{x0, y0}, orb.Point{x1, y0},
				orb.Point{x1, y1}, orb.Point{x0, y1},
			)
		}
	}

	length, width := minBoundingBox(pts)
	return MissedRegion{
		Area:   float64(len(cells)) * cc.cellSize * cc.cellSize,
		Length: length,
		Width:  width,
	}
}

// minBoundingBox returns the longer and shorter side of the smallest
// rectangle, at any orientation, that contains all points. One side of
// that rectangle is always collinear with a convex hull edge, so only
// hull-edge orientations need to be tried.
func minBoundingBox(pts []orb.Point) (length, width float64) {
	hull := convexHull(pts)
	switch len(hull) {
	case 0:
		return 0, 0
	case 1:
		return 0, 0
	case 2:
		return planar.Distance(hull[0], hull[1]), 0
	}

	best := math.Inf(1)
	for k := 0; k < len(hull); k++ {
		a := hull[k]
		b := hull[(k+1)%len(hull)]
		theta := math.Atan2(b[1]-a[1], b[0]-a[0])
		c, s := math.Cos(-theta), math.Sin(-theta)

		minX, maxX := math.Inf(1), math.Inf(-1)
		minY, maxY := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			x := c*p[0] - s*p[1]
			y := s*p[0] + c*p[1]
			minX = math.Min(minX, x)
			maxX = math.Max(maxX, x)
			minY = math.Min(minY, y)
			maxY = math.Max(maxY, y)
		}

		dx, dy := maxX-minX, maxY-minY
		if area := dx * dy; area < best {
			best = area
			length = math.Max(dx, dy)
			width = math.Min(dx, dy)
		}
	}
	return length, width
}

// convexHull computes the convex hull with the monotone chain
// algorithm, returned in counterclockwise order without the closing
// point.
func convexHull(pts []orb.Point) []orb.Point {
	if len(pts) < 3 {
		return append([]orb.Point(nil), pts...)
	}

	sorted := append([]orb.Point(nil), pts...)
	sort.Slice(sorted, func(a, b int) bool {
		if sorted[a][0] != sorted[b][0] {
			return sorted[a][0] < sorted[b][0]
		}
		return sorted[a][1] < sorted[b][1]
	})

	cross := func(o, a, b orb.Point) float64 {
		return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
	}

	var hull []orb.Point
	for _, p := range sorted {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for k := len(sorted) - 2; k >= 0; k-- {
		p := sorted[k]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	if len(hull) > 1 {
		hull = hull[:len(hull)-1]
	}
	return hull
}

