package missionplan

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/seabedlabs/auv-sim/pkg/dubins"
	"github.com/seabedlabs/auv-sim/pkg/geo"
)

// Each coverage lane contributes a six-waypoint group. Ordinal modulo
// groupSize is the pattern index: 0 enters the lane, 1 and 3 are meets on
// the shared band boundary at the current row, 2 and 4 re-align on the
// lane, 5 runs the lane under coverage.
const groupSize = 6

var meetIndices = [...]int{1, 3}

// PlanSimpleLawnmower builds the survey plan: the rectangle splits into
// one equal vertical band per agent, each band is filled with serpentine
// coverage lanes, and every lane is preceded by two rendezvous excursions
// to the boundary shared with the paired neighbor. Paired agents' meet
// times are synchronized to the later schedule. Waypoint uncertainty radii
// accumulate with scheduled leg length and shrink at each meet.
func PlanSimpleLawnmower(cfg Config) *Plan {
	n := cfg.NumAgents
	if n < 1 {
		n = 1
	}
	x0 := 0.0
	if cfg.CenterX {
		x0 = -cfg.RectWidth / 2
	}
	y0 := 0.0
	if cfg.CenterY {
		y0 = -cfg.RectHeight / 2
	}
	bound := orb.Bound{
		Min: orb.Point{x0, y0},
		Max: orb.Point{x0 + cfg.RectWidth, y0 + cfg.RectHeight},
	}

	paths := make([]*TimedPath, n)
	for i := 0; i < n; i++ {
		paths[i] = buildBandPath(cfg, i, n, x0, y0)
	}
	syncMeetTimes(paths)
	return NewPlan(cfg, paths, bound)
}

func buildBandPath(cfg Config, agent, numAgents int, x0, y0 float64) *TimedPath {
	bandW := cfg.RectWidth / float64(numAgents)
	left := x0 + float64(agent)*bandW
	right := left + bandW

	// Interior band edges widen by half the row overlap so adjacent
	// agents' coverage reaches across the shared boundary.
	covLeft, covRight := left, right
	if agent > 0 {
		covLeft -= cfg.OverlapBetweenRows / 2
	}
	if agent < numAgents-1 {
		covRight += cfg.OverlapBetweenRows / 2
	}

	centers := laneCenters(covLeft, covRight, cfg.Swath, cfg.OverlapBetweenLanes)
	if cfg.DoubleSided && agent%2 == 1 {
		for i, j := 0, len(centers)-1; i < j; i, j = i+1, j-1 {
			centers[i], centers[j] = centers[j], centers[i]
		}
	}

	meetX := right
	if partner := rendezvousPartner(agent, numAgents); partner >= 0 && partner < agent {
		meetX = left
	}

	var wps []*TimedWaypoint
	top := y0 + cfg.RectHeight
	for j, lx := range centers {
		entryY, exitY := y0, top
		if j%2 == 1 {
			entryY, exitY = top, y0
		}
		group := [groupSize]orb.Point{
			{lx, entryY},
			{meetX, entryY},
			{lx, entryY},
			{meetX, entryY},
			{lx, entryY},
			{lx, exitY},
		}
		for k, pt := range group {
			pos := LineMiddle
			switch k {
			case 0:
				pos = LineFirst
			case groupSize - 1:
				pos = LineLast
			}
			wps = append(wps, &TimedWaypoint{
				Pose:         geo.NewPose(pt[0], pt[1], 0),
				LinePosition: pos,
				PatternIndex: len(wps) % groupSize,
			})
		}
	}

	assignHeadings(wps)

	if cfg.ExitingLine && len(wps) > 0 {
		last := wps[len(wps)-1]
		dx, dy := last.Pose.HeadingVec()
		wps = append(wps, &TimedWaypoint{
			Pose: geo.NewPose(last.Pose.X+dx*cfg.Swath,
				last.Pose.Y+dy*cfg.Swath, last.Pose.Heading),
			LinePosition: LineMiddle,
			PatternIndex: len(wps) % groupSize,
		})
	}

	tp := &TimedPath{Wps: wps}
	scheduleAndAccumulate(cfg, tp)
	return tp
}

// laneCenters spreads lane centerlines evenly so the first and last lanes
// hug the band edges at half a swath. Extra lanes only tighten overlap,
// never open gaps.
func laneCenters(left, right, swath, overlap float64) []float64 {
	width := right - left
	if swath <= 0 || width <= swath {
		return []float64{left + width/2}
	}
	spacing := swath - overlap
	if spacing <= 0 {
		spacing = swath
	}
	span := width - swath
	lanes := int(math.Ceil(span/spacing)) + 1
	step := span / float64(lanes-1)
	centers := make([]float64, lanes)
	for i := range centers {
		centers[i] = left + swath/2 + float64(i)*step
	}
	return centers
}

// rendezvousPartner pairs agents (0,1), (2,3) and so on. The last agent
// of an odd-sized fleet points back at its left neighbor but is not part
// of any synchronized pair.
func rendezvousPartner(agent, numAgents int) int {
	if numAgents < 2 {
		return -1
	}
	if agent%2 == 0 {
		if agent+1 < numAgents {
			return agent + 1
		}
		return agent - 1
	}
	return agent - 1
}

// assignHeadings points every waypoint along its incoming leg; the first
// waypoint faces its outgoing leg so the deployment pose already aims at
// the first target.
func assignHeadings(wps []*TimedWaypoint) {
	if len(wps) > 1 {
		first, next := wps[0].Pose, wps[1].Pose
		if first.X != next.X || first.Y != next.Y {
			wps[0].Pose.Heading = math.Atan2(next.Y-first.Y, next.X-first.X)
		}
	}
	for i := 1; i < len(wps); i++ {
		prev, cur := wps[i-1].Pose, wps[i].Pose
		if prev.X == cur.X && prev.Y == cur.Y {
			wps[i].Pose.Heading = prev.Heading
			continue
		}
		wps[i].Pose.Heading = math.Atan2(cur.Y-prev.Y, cur.X-prev.X)
	}
}

// scheduleAndAccumulate walks the path once, pricing each leg by the
// configured plan type, and assigns cumulative arrival times and
// uncertainty radii.
func scheduleAndAccumulate(cfg Config, tp *TimedPath) {
	if len(tp.Wps) == 0 {
		return
	}
	speed := cfg.Speed
	if speed <= 0 {
		speed = 1
	}
	slack := cfg.StraightSlack
	if slack <= 0 {
		slack = 1
	}

	t := 0.0
	u := 0.0
	prev := tp.InitialPose()
	for _, wp := range tp.Wps {
		leg := legLength(cfg, prev, wp.Pose)
		t += leg / speed * slack
		wp.Time = t

		u += cfg.UncertaintyAccumulationRateK * leg
		wp.UncertaintyRadius = math.Max(u, cfg.UncertaintyFloor)
		if isMeetIndex(wp.PatternIndex) {
			u *= cfg.KeptUncertaintyRatioAfterLoop
		}
		prev = wp.Pose
	}
}

func isMeetIndex(idx int) bool {
	for _, m := range meetIndices {
		if m == idx {
			return true
		}
	}
	return false
}

func legLength(cfg Config, from, to geo.Pose) float64 {
	straight := geo.PoseDistance(from, to)
	if cfg.PlanType != PlanTypeDubins || cfg.TurningRadius <= 0 {
		return straight
	}
	path, err := dubins.ShortestPath(from, to, cfg.TurningRadius)
	if err != nil {
		return straight
	}
	return path.Length()
}

// syncMeetTimes aligns paired agents' meet waypoints to the later of the
// two schedules, shifting the earlier agent's remaining waypoints so leg
// durations are preserved. The earlier agent then arrives ahead of
// schedule and waits at the boundary, which is what makes the rendezvous
// actually happen.
func syncMeetTimes(paths []*TimedPath) {
	for a := 0; a+1 < len(paths); a += 2 {
		pa, pb := paths[a], paths[a+1]
		groups := len(pa.Wps) / groupSize
		if g := len(pb.Wps) / groupSize; g < groups {
			groups = g
		}
		for g := 0; g < groups; g++ {
			for _, k := range meetIndices {
				i := g*groupSize + k
				ta, tb := pa.Wps[i].Time, pb.Wps[i].Time
				switch {
				case ta < tb:
					shiftTimes(pa, i, tb-ta)
				case tb < ta:
					shiftTimes(pb, i, ta-tb)
				}
			}
		}
	}
}

func shiftTimes(tp *TimedPath, from int, delta float64) {
	for _, wp := range tp.Wps[from:] {
		wp.Time += delta
	}
}
