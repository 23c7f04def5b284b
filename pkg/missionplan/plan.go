package missionplan

import (
	"fmt"

	"github.com/paulmach/orb"
)

// Plan types: simple prices legs by straight-line distance, dubins by the
// shortest bounded-curvature path length at the configured turning radius.
const (
	PlanTypeSimple = "simple"
	PlanTypeDubins = "dubins"
)

// Config is the shared scalar mission configuration. All distances are in
// meters, speeds in m/s, times in seconds and angles in radians.
type Config struct {
	PlanType   string
	NumAgents  int
	Swath      float64
	RectWidth  float64
	RectHeight float64
	Speed      float64

	// Shape parameters of the lawnmower generator.
	StraightSlack       float64
	OverlapBetweenRows  float64
	OverlapBetweenLanes float64
	DoubleSided         bool
	CenterX             bool
	CenterY             bool
	ExitingLine         bool

	TurningRadius float64
	CommRange     float64
	LandmarkRange float64

	// Drift and uncertainty model shared with the agents.
	UncertaintyAccumulationRateK  float64
	KeptUncertaintyRatioAfterLoop float64
	HeadingNoiseBound             float64
	UncertaintyFloor              float64

	// Pattern indices at which a satisfied rendezvous excuses waiting.
	RendezvousEligible []int
}

// DefaultConfig returns the reference two-agent survey mission.
func DefaultConfig() Config {
	return Config{
		PlanType:                      PlanTypeSimple,
		NumAgents:                     2,
		Swath:                         50,
		RectWidth:                     200,
		RectHeight:                    400,
		Speed:                         1.5,
		StraightSlack:                 1,
		OverlapBetweenRows:            10,
		OverlapBetweenLanes:           10,
		TurningRadius:                 5,
		CommRange:                     50,
		LandmarkRange:                 10,
		UncertaintyAccumulationRateK:  0.05,
		KeptUncertaintyRatioAfterLoop: 0.5,
		HeadingNoiseBound:             0.01,
		UncertaintyFloor:              2,
		RendezvousEligible:            []int{1, 3, 5},
	}
}

// IsRendezvousEligible reports whether a waypoint at the given pattern
// index may be skipped early once its rendezvous flag is set.
func (c Config) IsRendezvousEligible(patternIndex int) bool {
	for _, idx := range c.RendezvousEligible {
		if idx == patternIndex {
			return true
		}
	}
	return false
}

// Plan pairs the per-agent timed paths with the shared configuration and
// tracks each agent's waypoint cursor. Cursors start before the first
// waypoint: GetCurrentWp returns nil until the first VisitCurrentWp.
type Plan struct {
	Config     Config
	TimedPaths []*TimedPath

	bound   orb.Bound
	cursors []int
}

// NewPlan wraps the given per-agent paths. The bound is the survey
// rectangle the paths were generated over.
func NewPlan(cfg Config, paths []*TimedPath, bound orb.Bound) *Plan {
	cursors := make([]int, len(paths))
	for i := range cursors {
		cursors[i] = -1
	}
	return &Plan{Config: cfg, TimedPaths: paths, bound: bound, cursors: cursors}
}

// GetCurrentWp returns the agent's current waypoint, or nil before the
// first visit, after exhaustion, or for ids without a path (landmarks).
func (p *Plan) GetCurrentWp(agentID int) *TimedWaypoint {
	if agentID < 0 || agentID >= len(p.cursors) {
		return nil
	}
	c := p.cursors[agentID]
	if c < 0 || c >= len(p.TimedPaths[agentID].Wps) {
		return nil
	}
	return p.TimedPaths[agentID].Wps[c]
}

// VisitCurrentWp advances the agent's cursor by one waypoint.
func (p *Plan) VisitCurrentWp(agentID int) {
	if agentID < 0 || agentID >= len(p.cursors) {
		return
	}
	if p.cursors[agentID] < len(p.TimedPaths[agentID].Wps) {
		p.cursors[agentID]++
	}
}

// IsComplete reports whether every agent has exhausted its path.
func (p *Plan) IsComplete() bool {
	for i, c := range p.cursors {
		if c < len(p.TimedPaths[i].Wps) {
			return false
		}
	}
	return true
}

// LastPlannedTime returns the latest scheduled waypoint time across all
// agents; the mission runner uses it as the hard time limit.
func (p *Plan) LastPlannedTime() float64 {
	last := 0.0
	for _, tp := range p.TimedPaths {
		if t := tp.LastTime(); t > last {
			last = t
		}
	}
	return last
}

// BoundingRectangle returns the survey rectangle.
func (p *Plan) BoundingRectangle() orb.Bound {
	return p.bound
}

func (p *Plan) String() string {
	return fmt.Sprintf("plan[%s %d agents, %d paths, t_end=%.0f]",
		p.Config.PlanType, p.Config.NumAgents, len(p.TimedPaths), p.LastPlannedTime())
}
