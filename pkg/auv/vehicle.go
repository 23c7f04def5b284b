// Package auv models the kinematics of a single survey vehicle: heading
// control toward a target point, forward motion integration, externally
// injected drift, and the swept-coverage bookkeeping reporting needs.
package auv

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/seabedlabs/auv-sim/pkg/geo"
)

const (
	defaultArrivalThreshold = 2.0
	defaultHullLength       = 1.5
	defaultMaxTurnRateDeg   = 30.0
)

// Config describes a vehicle at construction time. Heading and turn rate
// are in degrees at this boundary only; everything else in the package is
// radians.
type Config struct {
	ID                int
	InitialPosition   orb.Point
	InitialHeadingDeg float64
	ArrivalThreshold  float64
	ForwardSpeed      float64
	HullLength        float64
	MaxTurnRateDeg    float64
}

// TracePoint is one recorded pose of the vehicle with its coverage state
// for that tick.
type TracePoint struct {
	Pose    geo.Pose
	Covered bool
}

// Vehicle integrates commanded motion and drift for one platform. A
// vehicle with zero forward speed never moves regardless of control.
type Vehicle struct {
	id               int
	pose             geo.Pose
	arrivalThreshold float64
	forwardSpeed     float64
	hullLength       float64
	maxTurnRate      float64

	target    orb.Point
	hasTarget bool
	covering  bool

	lastMoved     float64
	totalTraveled float64
	trace         []TracePoint
}

// New creates a vehicle from the given config, applying defaults for the
// arrival threshold, hull length and turn rate when unset.
func New(cfg Config) *Vehicle {
	if cfg.ArrivalThreshold <= 0 {
		cfg.ArrivalThreshold = defaultArrivalThreshold
	}
	if cfg.HullLength <= 0 {
		cfg.HullLength = defaultHullLength
	}
	if cfg.MaxTurnRateDeg <= 0 {
		cfg.MaxTurnRateDeg = defaultMaxTurnRateDeg
	}

	return &Vehicle{
		id:               cfg.ID,
		pose:             geo.NewPose(cfg.InitialPosition[0], cfg.InitialPosition[1], geo.Radians(cfg.InitialHeadingDeg)),
		arrivalThreshold: cfg.ArrivalThreshold,
		forwardSpeed:     cfg.ForwardSpeed,
		hullLength:       cfg.HullLength,
		maxTurnRate:      geo.Radians(cfg.MaxTurnRateDeg),
	}
}

// ID returns the vehicle id.
func (v *Vehicle) ID() int { return v.id }

// Pose returns the current pose.
func (v *Vehicle) Pose() geo.Pose { return v.pose }

// Position returns the current position.
func (v *Vehicle) Position() orb.Point { return v.pose.Point() }

// Heading returns the current heading in radians.
func (v *Vehicle) Heading() float64 { return v.pose.Heading }

// ArrivalThreshold returns the distance at which a target counts as
// reached.
func (v *Vehicle) ArrivalThreshold() float64 { return v.arrivalThreshold }

// ForwardSpeed returns the commanded forward speed.
func (v *Vehicle) ForwardSpeed() float64 { return v.forwardSpeed }

// HullLength returns the hull length.
func (v *Vehicle) HullLength() float64 { return v.hullLength }

// Target returns the current target point, if one has been set.
func (v *Vehicle) Target() (orb.Point, bool) { return v.target, v.hasTarget }

// Covering reports whether the last commanded leg was a coverage leg.
func (v *Vehicle) Covering() bool { return v.covering }

// LastMovedDistance returns the commanded distance covered by the most
// recent Update, excluding drift.
func (v *Vehicle) LastMovedDistance() float64 { return v.lastMoved }

// TotalDistanceTraveled returns the accumulated actual displacement,
// drift included.
func (v *Vehicle) TotalDistanceTraveled() float64 { return v.totalTraveled }

// SetTarget points the vehicle at a target and returns the control pair
// for the next Update: the turn direction (-1, 0 or +1) and the full
// desired heading correction in radians. Update clamps the correction to
// the per-tick turn limit.
func (v *Vehicle) SetTarget(target orb.Point, cover bool) (turnDirection, turnAmount float64) {
	v.target = target
	v.hasTarget = true
	v.covering = cover

	desired := math.Atan2(target[1]-v.pose.Y, target[0]-v.pose.X)
	diff := geo.AngleDiff(v.pose.Heading, desired)
	if diff > 0 {
		return 1, diff
	}
	if diff < 0 {
		return -1, -diff
	}
	return 0, 0
}

// Update advances the vehicle by dt: the turn is clamped and applied,
// forward motion integrated along the new heading, then the drift vector
// and drift heading are added. The cover flag marks the recorded trace
// point for coverage accounting.
func (v *Vehicle) Update(dt, turnDirection, turnAmount, driftX, driftY, driftHeading float64, cover bool) {
	if dt <= 0 {
		return
	}
	if v.forwardSpeed == 0 {
		v.lastMoved = 0
		return
	}

	before := v.pose.Point()

	turn := math.Min(turnAmount, v.maxTurnRate*dt)
	v.pose.Heading = geo.NormalizeAngle(v.pose.Heading + turnDirection*turn)

	moved := v.forwardSpeed * dt
	v.pose.X += moved * math.Cos(v.pose.Heading)
	v.pose.Y += moved * math.Sin(v.pose.Heading)

	v.pose.X += driftX
	v.pose.Y += driftY
	v.pose.Heading = geo.NormalizeAngle(v.pose.Heading + driftHeading)

	v.lastMoved = moved
	v.totalTraveled += geo.Distance(before, v.pose.Point())
	v.trace = append(v.trace, TracePoint{Pose: v.pose, Covered: cover})
}

// SetHeading overwrites the heading, in radians.
func (v *Vehicle) SetHeading(heading float64) {
	v.pose.Heading = geo.NormalizeAngle(heading)
}

// SetPose overwrites the full pose.
func (v *Vehicle) SetPose(p geo.Pose) {
	v.pose = geo.NewPose(p.X, p.Y, p.Heading)
}

// Trace returns the recorded pose trace. The returned slice is the
// vehicle's own record and must not be mutated.
func (v *Vehicle) Trace() []TracePoint { return v.trace }

// CoveragePolygons builds one ribbon polygon per contiguous covered run
// of the trace: the centerline offset laterally by half the swath, with
// beam-radius end caps. Runs shorter than two points are ignored.
func (v *Vehicle) CoveragePolygons(swath, beamRadius float64) []orb.Polygon {
	if swath <= 0 {
		return nil
	}

	var polys []orb.Polygon
	var run []orb.Point
	flush := func() {
		if len(run) >= 2 {
			polys = append(polys, ribbon(run, swath/2, beamRadius))
		}
		run = nil
	}

	for _, tp := range v.trace {
		if !tp.Covered {
			flush()
			continue
		}
		run = append(run, tp.Pose.Point())
	}
	flush()
	return polys
}

// decimationSpacing keeps ribbon rings small; covered runs are near
// straight so intermediate samples add no geometry.
const decimationSpacing = 1.0

// ribbon buffers a polyline into a closed polygon of the given half
// width, extending both ends by capLen.
func ribbon(line []orb.Point, halfWidth, capLen float64) orb.Polygon {
	pts := decimate(line, decimationSpacing)

	if capLen > 0 {
		first, second := pts[0], pts[1]
		d := unit(first, second)
		pts[0] = orb.Point{first[0] - d[0]*capLen, first[1] - d[1]*capLen}

		last, prev := pts[len(pts)-1], pts[len(pts)-2]
		d = unit(prev, last)
		pts[len(pts)-1] = orb.Point{last[0] + d[0]*capLen, last[1] + d[1]*capLen}
	}

	left := make([]orb.Point, 0, len(pts))
	right := make([]orb.Point, 0, len(pts))
	for i, p := range pts {
		var d orb.Point
		switch {
		case i == 0:
			d = unit(pts[0], pts[1])
		case i == len(pts)-1:
			d = unit(pts[len(pts)-2], pts[len(pts)-1])
		default:
			d = unit(pts[i-1], pts[i+1])
		}
		nx, ny := -d[1]*halfWidth, d[0]*halfWidth
		left = append(left, orb.Point{p[0] + nx, p[1] + ny})
		right = append(right, orb.Point{p[0] - nx, p[1] - ny})
	}

	ring := make(orb.Ring, 0, 2*len(pts)+1)
	ring = append(ring, left...)
	for i := len(right) - 1; i >= 0; i-- {
		ring = append(ring, right[i])
	}
	ring = append(ring, ring[0])
	return orb.Polygon{ring}
}

// decimate drops points closer than the given spacing to the previously
// kept point, always keeping the first and last.
func decimate(line []orb.Point, spacing float64) []orb.Point {
	out := []orb.Point{line[0]}
	for i := 1; i < len(line)-1; i++ {
		if geo.Distance(out[len(out)-1], line[i]) >= spacing {
			out = append(out, line[i])
		}
	}
	last := line[len(line)-1]
	if len(out) == 1 && geo.Distance(out[0], last) == 0 {
		// Degenerate run that never moved; keep a distinct copy so the
		// ring stays well formed.
		out = append(out, orb.Point{last[0] + 1e-9, last[1]})
		return out
	}
	return append(out, last)
}

func unit(a, b orb.Point) orb.Point {
	dx, dy := b[0]-a[0], b[1]-a[1]
	n := math.Hypot(dx, dy)
	if n == 0 {
		return orb.Point{1, 0}
	}
	return orb.Point{dx / n, dy / n}
}
