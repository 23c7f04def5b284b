package simulation

import (
	"math"
	"math/rand"

	"github.com/seabedlabs/auv-sim/pkg/auv"
	"github.com/seabedlabs/auv-sim/pkg/dubins"
	"github.com/seabedlabs/auv-sim/pkg/geo"
	"github.com/seabedlabs/auv-sim/pkg/missionplan"
	"github.com/seabedlabs/auv-sim/pkg/posegraph"
)

const (
	// Inside this band around the arrival threshold the vehicle steers
	// straight at the waypoint instead of following a Dubins plan.
	directSteerBand = 0.5

	// Spacing between sampled points on a planned Dubins path.
	planSampleStep = 0.5

	// Navigation error is reported as zero before this much mission time
	// has passed, so startup transients don't pollute the statistics.
	errorWarmupTime = 10.0
)

// TimeSample is a single (mission time, value) observation.
type TimeSample struct {
	Time  float64
	Value float64
}

// DriftModel supplies the ocean current at a ground-truth position.
// The angle is the direction the current pushes toward, in radians.
type DriftModel interface {
	Sample(x, y float64) (u, v, angle float64)
}

// Agent couples a ground-truth vehicle with the dead-reckoned belief
// vehicle it navigates by. The belief drives the controls, the truth
// accumulates drift, and the pose graph records what the belief saw so
// that encounters with other agents can correct it.
type Agent struct {
	id       int
	real     *auv.Vehicle
	belief   *auv.Vehicle
	graph    *posegraph.Graph
	plan     *missionplan.Plan
	drift    DriftModel
	rng      *rand.Rand
	landmark bool

	time float64

	// Connectivity of the previous communication round plus a round
	// counter. An optimization is triggered when a round differs from
	// the one before; the trace keeps the history for reporting only.
	prevConnected   bool
	commRounds      int
	connectionTrace []bool

	// Remaining sampled points of the current Dubins plan.
	planPoints []geo.Pose

	realErrors            []TimeSample
	realMovedDists        []TimeSample
	positionErrorDrops    []TimeSample
	waypointReachingTimes []TimeSample
	receivedVerts         []TimeSample
	receivedEdges         []TimeSample

	vizPlanPoints   []geo.Pose
	vizOptimPoints  []geo.Pose
	vizWaitedPoints []geo.Pose
}

// NewAgent builds a mission-following agent. Both the ground-truth and
// the belief vehicle start from the same configuration; only drift and
// corrections make them diverge afterwards. The rng feeds the compass
// noise and may be shared between agents.
func NewAgent(vehicleCfg auv.Config, graph *posegraph.Graph, plan *missionplan.Plan, drift DriftModel, rng *rand.Rand) *Agent {
	return &Agent{
		id:            vehicleCfg.ID,
		real:          auv.New(vehicleCfg),
		belief:        auv.New(vehicleCfg),
		graph:         graph,
		plan:          plan,
		drift:         drift,
		rng:           rng,
		receivedVerts: []TimeSample{{}},
		receivedEdges: []TimeSample{{}},
	}
}

// NewLandmark builds a stationary agent at a known position. Landmarks
// never move and never accumulate error, so meeting one lets a vehicle
// fix its belief exactly.
func NewLandmark(id int, pose geo.Pose, ids *posegraph.IDStore, plan *missionplan.Plan) *Agent {
	cfg := auv.Config{
		ID:                id,
		InitialPosition:   pose.Point(),
		InitialHeadingDeg: geo.Degrees(pose.Heading),
		ForwardSpeed:      0,
	}
	a := NewAgent(cfg, posegraph.NewLandmarkGraph(id, ids, pose), plan, nil, nil)
	a.landmark = true
	return a
}

// ID returns the agent id. Landmarks carry negative ids.
func (a *Agent) ID() int { return a.id }

// IsLandmark reports whether this agent is a stationary landmark.
func (a *Agent) IsLandmark() bool { return a.landmark }

// Time returns the mission time this agent has accumulated.
func (a *Agent) Time() float64 { return a.time }

// Real returns the ground-truth vehicle.
func (a *Agent) Real() *auv.Vehicle { return a.real }

// Belief returns the dead-reckoned vehicle the agent navigates by.
func (a *Agent) Belief() *auv.Vehicle { return a.belief }

// Graph returns the agent's pose graph.
func (a *Agent) Graph() *posegraph.Graph { return a.graph }

// Update advances the agent by dt seconds: it syncs the mission cursor,
// plans or follows a path toward the current waypoint, drives both
// vehicles with the same controls, applies drift to the ground truth,
// and appends the resulting belief pose to the pose graph. The agents
// slice must contain every agent in the mission, including landmarks
// and this agent itself.
func (a *Agent) Update(dt float64, agents []*Agent) {
	a.time += dt
	if a.landmark {
		return
	}

	// Mission sync. Advance the cursor when the waypoint is reached and
	// either its scheduled time has passed or a rendezvous already
	// happened there. Otherwise keep loitering at it.
	wp := a.plan.GetCurrentWp(a.id)
	var dist float64
	if wp == nil {
		a.plan.VisitCurrentWp(a.id)
		wp = a.plan.GetCurrentWp(a.id)
		if wp == nil {
			return
		}
		dist = geo.PoseDistance(a.belief.Pose(), wp.Pose)
	} else {
		dist = geo.PoseDistance(a.belief.Pose(), wp.Pose)
		rendezvousDone := wp.RendezvousHappened && a.plan.Config.IsRendezvousEligible(wp.PatternIndex)
		if dist <= a.belief.ArrivalThreshold() {
			a.waypointReachingTimes = append(a.waypointReachingTimes, TimeSample{a.time, a.time - wp.Time})
			if a.time >= wp.Time || rendezvousDone {
				a.plan.VisitCurrentWp(a.id)
				wp = a.plan.GetCurrentWp(a.id)
				a.planPoints = nil
			} else {
				a.vizWaitedPoints = append(a.vizWaitedPoints, a.belief.Pose())
			}
		}
	}
	if wp == nil {
		return
	}

	// Path planning. Close waypoints are steered at directly with the
	// vehicle's own heading controller; far ones get a Dubins plan that
	// is consumed point by point. The distance check deliberately uses
	// the pre-advance distance, so the first tick after a waypoint
	// switch steers directly and the plan is laid the tick after.
	target := wp.Pose.Point()
	if dist >= a.belief.ArrivalThreshold()+directSteerBand {
		if len(a.planPoints) == 0 {
			if path, err := dubins.ShortestPath(a.belief.Pose(), wp.Pose, a.plan.Config.TurningRadius); err == nil {
				a.planPoints = path.SampleMany(planSampleStep)
				a.vizPlanPoints = append(a.vizPlanPoints, a.belief.Pose())
			}
		}
		if len(a.planPoints) > 0 {
			target = a.planPoints[0].Point()
			for geo.Distance(a.belief.Position(), target) <= a.belief.ArrivalThreshold() {
				if len(a.planPoints) <= 1 {
					break
				}
				a.planPoints = a.planPoints[1:]
				target = a.planPoints[0].Point()
			}
		}
	}

	// Motion. Coverage happens on the way to a line-last waypoint, and
	// drifting only happens while covering out of contact with every
	// other mission vehicle.
	cover := wp.LinePosition == missionplan.LineLast
	alone := a.isAlone(agents)
	nearLandmark := a.nearLandmark(agents)

	td, ta := a.belief.SetTarget(target, cover)
	a.belief.Update(dt, td, ta, 0, 0, 0, cover)

	moved := a.belief.LastMovedDistance()
	var driftX, driftY, driftHeading float64
	if cover && alone && a.drift != nil {
		pos := a.real.Position()
		_, _, angle := a.drift.Sample(pos[0], pos[1])
		mag := moved * a.plan.Config.UncertaintyAccumulationRateK
		driftX = mag * math.Cos(angle)
		driftY = mag * math.Sin(angle)
		if bound := a.plan.Config.HeadingNoiseBound; bound > 0 && a.rng != nil {
			driftHeading = (2*a.rng.Float64() - 1) * bound
		}
	}
	a.real.Update(dt, td, ta, driftX, driftY, driftHeading, cover)

	// The compass reading is corrupted by the same current-induced yaw
	// the truth just experienced, so the belief heading stays within the
	// noise bound of the truth instead of accumulating.
	a.belief.SetHeading(a.real.Heading() + driftHeading)
	if nearLandmark {
		a.belief.SetPose(a.real.Pose())
	}
	a.graph.AppendOdomPose(a.belief.Pose())

	a.realErrors = append(a.realErrors, TimeSample{a.time, geo.Distance(a.real.Position(), a.belief.Position())})
	a.realMovedDists = append(a.realMovedDists, TimeSample{a.time, moved})
}

// isAlone reports whether no other mission vehicle is within
// communication range of the ground-truth position.
func (a *Agent) isAlone(agents []*Agent) bool {
	for _, other := range agents {
		if other.id == a.id || other.landmark {
			continue
		}
		if geo.Distance(a.real.Position(), other.real.Position()) <= a.plan.Config.CommRange {
			return false
		}
	}
	return true
}

// nearLandmark reports whether any landmark is within landmark range of
// the ground-truth position.
func (a *Agent) nearLandmark(agents []*Agent) bool {
	for _, other := range agents {
		if !other.landmark {
			continue
		}
		if geo.Distance(a.real.Position(), other.real.Position()) <= a.plan.Config.LandmarkRange {
			return true
		}
	}
	return false
}

// Communicate exchanges pose graphs with every agent in range, records
// the connection state, and optimizes the graph whenever that state
// flips. Communication between vehicles uses the communication range;
// reaching a landmark uses the usually much shorter landmark range.
func (a *Agent) Communicate(agents []*Agent, useSummary bool) {
	if a.landmark {
		return
	}

	connected := false
	if a.plan.Config.CommRange > 0 {
		for _, other := range agents {
			if other.id == a.id {
				continue
			}
			maxRange := a.plan.Config.CommRange
			if other.landmark {
				maxRange = a.plan.Config.LandmarkRange
			}
			if geo.Distance(a.real.Position(), other.real.Position()) > maxRange {
				continue
			}
			a.graph.MeasureTipToTip(a.real.Pose(), other.real.Pose(), other.graph, other.landmark)
			// A landmark graph is a single fixed pose, nothing to gain
			// from summarizing it.
			nv, ne := a.graph.FillInSinceLastInteraction(other.graph, useSummary && !other.landmark)
			a.receivedVerts = append(a.receivedVerts, TimeSample{a.time, float64(nv)})
			a.receivedEdges = append(a.receivedEdges, TimeSample{a.time, float64(ne)})
			connected = true
		}
	}
	a.connectionTrace = append(a.connectionTrace, connected)

	if connected {
		// Mark the rendezvous on the waypoint we are heading to, but
		// only when we are already near it. A chance encounter far from
		// the waypoint must not release a partner that waits there.
		if wp := a.plan.GetCurrentWp(a.id); wp != nil {
			if geo.PoseDistance(a.belief.Pose(), wp.Pose) <= wp.UncertaintyRadius {
				wp.RendezvousHappened = true
			}
		}
	}

	// Optimize on every connectivity transition: new constraints arrived
	// on connect, and the disconnect edge marks the last chance to fold
	// them in before drifting alone again.
	transition := a.commRounds >= 2 && connected != a.prevConnected
	a.prevConnected = connected
	a.commRounds++
	if transition {
		if ok, corrected := a.graph.Optimize(useSummary); ok {
			errBefore := a.DistanceTraveledError(true)
			a.belief.SetPose(corrected)
			a.vizOptimPoints = append(a.vizOptimPoints, a.belief.Pose())
			// The old plan was laid from the uncorrected pose.
			a.planPoints = nil
			errAfter := a.DistanceTraveledError(true)
			a.positionErrorDrops = append(a.positionErrorDrops, TimeSample{a.time, errBefore - errAfter})
		}
	}
}

// DistanceTraveledError returns the distance between the ground-truth
// and belief positions, divided by the total ground-truth distance
// traveled unless justError is set. Reports zero during the warmup
// window.
func (a *Agent) DistanceTraveledError(justError bool) float64 {
	if a.time < errorWarmupTime {
		return 0
	}
	err := geo.Distance(a.real.Position(), a.belief.Position())
	if justError {
		return err
	}
	travel := a.real.TotalDistanceTraveled()
	if travel <= 0 {
		return 0
	}
	return err / travel
}

// ConnectionTrace returns the per-round connectivity history.
func (a *Agent) ConnectionTrace() []bool { return a.connectionTrace }

// RealErrors returns the per-tick distance between truth and belief.
func (a *Agent) RealErrors() []TimeSample { return a.realErrors }

// RealMovedDists returns the per-tick commanded travel distances.
func (a *Agent) RealMovedDists() []TimeSample { return a.realMovedDists }

// PositionErrorDrops returns the error reduction achieved by each
// successful optimization.
func (a *Agent) PositionErrorDrops() []TimeSample { return a.positionErrorDrops }

// WaypointReachingTimes returns, for every tick spent at a waypoint,
// the slack between arrival and the waypoint's scheduled time.
func (a *Agent) WaypointReachingTimes() []TimeSample { return a.waypointReachingTimes }

// ReceivedVerts returns how many vertices each graph merge brought in.
func (a *Agent) ReceivedVerts() []TimeSample { return a.receivedVerts }

// ReceivedEdges returns how many edges each graph merge brought in.
func (a *Agent) ReceivedEdges() []TimeSample { return a.receivedEdges }

// PlanPointsLaid returns the belief poses at which Dubins plans were laid.
func (a *Agent) PlanPointsLaid() []geo.Pose { return a.vizPlanPoints }

// OptimizedPoints returns the belief poses right after each correction.
func (a *Agent) OptimizedPoints() []geo.Pose { return a.vizOptimPoints }

// WaitedPoints returns the belief poses recorded while waiting at a
// rendezvous waypoint.
func (a *Agent) WaitedPoints() []geo.Pose { return a.vizWaitedPoints }
