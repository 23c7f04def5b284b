// Package missionplan builds and serves timed lawnmower survey plans: one
// waypoint sequence per agent with scheduled arrival times, rendezvous
// structure, and accumulated position-uncertainty radii, plus the shared
// scalar mission configuration every agent reads.
package missionplan

import (
	"fmt"

	"github.com/seabedlabs/auv-sim/pkg/geo"
)

// LinePosition marks where a waypoint sits in its coverage lane. Vehicles
// record coverage only while steering toward a LineLast waypoint.
type LinePosition int

const (
	LineFirst LinePosition = iota
	LineMiddle
	LineLast
)

func (p LinePosition) String() string {
	switch p {
	case LineFirst:
		return "first"
	case LineMiddle:
		return "middle"
	case LineLast:
		return "last"
	}
	return fmt.Sprintf("LinePosition(%d)", int(p))
}

// TimedWaypoint is one scheduled pose in an agent's path. PatternIndex is
// the waypoint's ordinal modulo the lane group size; the meet legs of each
// group are rendezvous opportunities. RendezvousHappened is set by the
// owning agent when a connection occurs close to this waypoint, and is
// what allows skipping a scheduled wait.
type TimedWaypoint struct {
	Pose               geo.Pose
	Time               float64
	LinePosition       LinePosition
	PatternIndex       int
	RendezvousHappened bool
	UncertaintyRadius  float64
}

func (w *TimedWaypoint) String() string {
	return fmt.Sprintf("wp[%s #%d t=%.1f u=%.1f (%.1f, %.1f)]",
		w.LinePosition, w.PatternIndex, w.Time, w.UncertaintyRadius, w.Pose.X, w.Pose.Y)
}

// TimedPath is one agent's ordered waypoint sequence.
type TimedPath struct {
	Wps []*TimedWaypoint
}

// LastTime returns the scheduled time of the final waypoint, or 0 for an
// empty path.
func (tp *TimedPath) LastTime() float64 {
	if len(tp.Wps) == 0 {
		return 0
	}
	return tp.Wps[len(tp.Wps)-1].Time
}

// InitialPose returns the deployment pose for this path: the first
// waypoint backed off half a meter along its heading, so the very start
// of the first leg is inside the vehicle's swath.
func (tp *TimedPath) InitialPose() geo.Pose {
	if len(tp.Wps) == 0 {
		return geo.Pose{}
	}
	first := tp.Wps[0].Pose
	dx, dy := first.HeadingVec()
	return geo.NewPose(first.X-0.5*dx, first.Y-0.5*dy, first.Heading)
}
