// Package geo provides planar pose and angle primitives shared by the
// vehicle, planner and estimator packages. Positions interoperate with
// orb.Point so coverage geometry can be handed to orb/planar directly.
package geo

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Pose is a planar pose. Heading is in radians, normalized to (-pi, pi].
type Pose struct {
	X       float64
	Y       float64
	Heading float64
}

// NewPose returns a pose with the heading normalized.
func NewPose(x, y, heading float64) Pose {
	return Pose{X: x, Y: y, Heading: NormalizeAngle(heading)}
}

// Point returns the position part of the pose.
func (p Pose) Point() orb.Point {
	return orb.Point{p.X, p.Y}
}

// HeadingVec returns the unit vector along the pose heading.
func (p Pose) HeadingVec() (float64, float64) {
	return math.Cos(p.Heading), math.Sin(p.Heading)
}

func (p Pose) String() string {
	return fmt.Sprintf("(%.2f, %.2f, %.1fdeg)", p.X, p.Y, Degrees(p.Heading))
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b orb.Point) float64 {
	return planar.Distance(a, b)
}

// PoseDistance returns the Euclidean distance between two pose positions,
// ignoring headings.
func PoseDistance(a, b Pose) float64 {
	return planar.Distance(a.Point(), b.Point())
}

// NormalizeAngle wraps an angle into (-pi, pi].
func NormalizeAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// AngleDiff returns the smallest signed rotation that takes angle from to
// angle to.
func AngleDiff(from, to float64) float64 {
	return NormalizeAngle(to - from)
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Relative expresses pose b in the frame of pose a, returning the
// translation and rotation that carry a onto b.
func Relative(a, b Pose) (dx, dy, dtheta float64) {
	ca, sa := math.Cos(a.Heading), math.Sin(a.Heading)
	wx := b.X - a.X
	wy := b.Y - a.Y
	dx = ca*wx + sa*wy
	dy = -sa*wx + ca*wy
	dtheta = NormalizeAngle(b.Heading - a.Heading)
	return dx, dy, dtheta
}

// Compose applies a relative transform expressed in pose a's frame and
// returns the resulting world pose.
func Compose(a Pose, dx, dy, dtheta float64) Pose {
	ca, sa := math.Cos(a.Heading), math.Sin(a.Heading)
	return Pose{
		X:       a.X + ca*dx - sa*dy,
		Y:       a.Y + sa*dx + ca*dy,
		Heading: NormalizeAngle(a.Heading + dtheta),
	}
}
