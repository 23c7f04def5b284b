// Package dubins computes shortest curvature-constrained paths between
// oriented planar poses and samples them at a fixed arc-length spacing.
package dubins

import (
	"errors"
	"fmt"
	"math"

	"github.com/seabedlabs/auv-sim/pkg/geo"
)

// ErrNoPath is returned when no feasible word exists for a query, which
// only happens for numerically degenerate start/goal pairs.
var ErrNoPath = errors.New("dubins: no feasible path")

type segment int

const (
	segLeft segment = iota
	segStraight
	segRight
)

// word is one of the six candidate segment sequences.
type word struct {
	name string
	segs [3]segment
}

var words = []word{
	{"LSL", [3]segment{segLeft, segStraight, segLeft}},
	{"RSR", [3]segment{segRight, segStraight, segRight}},
	{"LSR", [3]segment{segLeft, segStraight, segRight}},
	{"RSL", [3]segment{segRight, segStraight, segLeft}},
	{"RLR", [3]segment{segRight, segLeft, segRight}},
	{"LRL", [3]segment{segLeft, segRight, segLeft}},
}

// Path is a solved Dubins path. Segment lengths are stored normalized by
// the turning radius.
type Path struct {
	start   geo.Pose
	radius  float64
	word    word
	lengths [3]float64
}

// ShortestPath solves for the minimum-length curvature-constrained path
// from start to goal with the given minimum turning radius.
func ShortestPath(start, goal geo.Pose, radius float64) (*Path, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("dubins: turning radius must be positive, got %v", radius)
	}

	dx := goal.X - start.X
	dy := goal.Y - start.Y
	d := math.Hypot(dx, dy) / radius
	theta := mod2pi(math.Atan2(dy, dx))
	alpha := mod2pi(start.Heading - theta)
	beta := mod2pi(goal.Heading - theta)

	best := -1
	var bestLengths [3]float64
	bestTotal := math.Inf(1)
	for i, w := range words {
		lengths, ok := solveWord(w, alpha, beta, d)
		if !ok {
			continue
		}
		total := lengths[0] + lengths[1] + lengths[2]
		if total < bestTotal {
			best = i
			bestLengths = lengths
			bestTotal = total
		}
	}
	if best < 0 {
		return nil, ErrNoPath
	}

	return &Path{
		start:   start,
		radius:  radius,
		word:    words[best],
		lengths: bestLengths,
	}, nil
}

// solveWord returns the three normalized segment lengths for one word, or
// ok=false when that word is infeasible for the query.
func solveWord(w word, alpha, beta, d float64) ([3]float64, bool) {
	sa, ca := math.Sin(alpha), math.Cos(alpha)
	sb, cb := math.Sin(beta), math.Cos(beta)
	cab := math.Cos(alpha - beta)

	switch w.name {
	case "LSL":
		psq := 2 + d*d - 2*cab + 2*d*(sa-sb)
		if psq < 0 {
			return [3]float64{}, false
		}
		tmp := math.Atan2(cb-ca, d+sa-sb)
		return [3]float64{mod2pi(-alpha + tmp), math.Sqrt(psq), mod2pi(beta - tmp)}, true
	case "RSR":
		psq := 2 + d*d - 2*cab + 2*d*(sb-sa)
		if psq < 0 {
			return [3]float64{}, false
		}
		tmp := math.Atan2(ca-cb, d-sa+sb)
		return [3]float64{mod2pi(alpha - tmp), math.Sqrt(psq), mod2pi(-beta + tmp)}, true
	case "LSR":
		psq := -2 + d*d + 2*cab + 2*d*(sa+sb)
		if psq < 0 {
			return [3]float64{}, false
		}
		p := math.Sqrt(psq)
		tmp := math.Atan2(-ca-cb, d+sa+sb) - math.Atan2(-2, p)
		return [3]float64{mod2pi(-alpha + tmp), p, mod2pi(-mod2pi(beta) + tmp)}, true
	case "RSL":
		psq := d*d - 2 + 2*cab - 2*d*(sa+sb)
		if psq < 0 {
			return [3]float64{}, false
		}
		p := math.Sqrt(psq)
		tmp := math.Atan2(ca+cb, d-sa-sb) - math.Atan2(2, p)
		return [3]float64{mod2pi(alpha - tmp), p, mod2pi(beta - tmp)}, true
	case "RLR":
		tmp := (6 - d*d + 2*cab + 2*d*(sa-sb)) / 8
		if math.Abs(tmp) > 1 {
			return [3]float64{}, false
		}
		p := mod2pi(2*math.Pi - math.Acos(tmp))
		t := mod2pi(alpha - math.Atan2(ca-cb, d-sa+sb) + mod2pi(p/2))
		return [3]float64{t, p, mod2pi(alpha - beta - t + mod2pi(p))}, true
	case "LRL":
		tmp := (6 - d*d + 2*cab + 2*d*(sb-sa)) / 8
		if math.Abs(tmp) > 1 {
			return [3]float64{}, false
		}
		p := mod2pi(2*math.Pi - math.Acos(tmp))
		t := mod2pi(-alpha - math.Atan2(ca-cb, d+sa-sb) + p/2)
		return [3]float64{t, p, mod2pi(mod2pi(beta) - alpha - t + mod2pi(p))}, true
	}
	return [3]float64{}, false
}

// Length returns the total path length in world units.
func (p *Path) Length() float64 {
	return (p.lengths[0] + p.lengths[1] + p.lengths[2]) * p.radius
}

// Type returns the word name of the solved path, e.g. "LSL".
func (p *Path) Type() string {
	return p.word.name
}

// SampleAt returns the pose at the given distance along the path. The
// distance is clamped to [0, Length].
func (p *Path) SampleAt(dist float64) geo.Pose {
	if dist < 0 {
		dist = 0
	}
	if max := p.Length(); dist > max {
		dist = max
	}

	q := p.start
	for i := 0; i < 3; i++ {
		segLen := p.lengths[i] * p.radius
		if dist <= segLen {
			return advance(q, dist, p.word.segs[i], p.radius)
		}
		q = advance(q, segLen, p.word.segs[i], p.radius)
		dist -= segLen
	}
	return q
}

// SampleMany samples the path from its start at the given spacing. The
// final pose of the path is not included; consumers that need to arrive
// exactly steer at their goal once the samples run out.
func (p *Path) SampleMany(step float64) []geo.Pose {
	if step <= 0 {
		return nil
	}
	length := p.Length()
	n := int(length/step) + 1
	out := make([]geo.Pose, 0, n)
	for dist := 0.0; dist < length; dist += step {
		out = append(out, p.SampleAt(dist))
	}
	return out
}

// advance moves a pose along one segment by the given arc length.
func advance(q geo.Pose, arclen float64, seg segment, radius float64) geo.Pose {
	switch seg {
	case segLeft:
		t := arclen / radius
		return geo.Pose{
			X:       q.X + radius*(math.Sin(q.Heading+t)-math.Sin(q.Heading)),
			Y:       q.Y - radius*(math.Cos(q.Heading+t)-math.Cos(q.Heading)),
			Heading: geo.NormalizeAngle(q.Heading + t),
		}
	case segRight:
		t := arclen / radius
		return geo.Pose{
			X:       q.X - radius*(math.Sin(q.Heading-t)-math.Sin(q.Heading)),
			Y:       q.Y + radius*(math.Cos(q.Heading-t)-math.Cos(q.Heading)),
			Heading: geo.NormalizeAngle(q.Heading - t),
		}
	default:
		return geo.Pose{
			X:       q.X + arclen*math.Cos(q.Heading),
			Y:       q.Y + arclen*math.Sin(q.Heading),
			Heading: q.Heading,
		}
	}
}

// mod2pi wraps an angle into [0, 2pi).
func mod2pi(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
