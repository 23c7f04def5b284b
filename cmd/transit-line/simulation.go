package transitline

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/paulmach/orb"

	"github.com/seabedlabs/auv-sim/pkg/auv"
	"github.com/seabedlabs/auv-sim/pkg/driftfield"
	"github.com/seabedlabs/auv-sim/pkg/geo"
	"github.com/seabedlabs/auv-sim/pkg/logger"
	"github.com/seabedlabs/auv-sim/pkg/simulation"
)

// TransitLineSimulation sends a single AUV up one straight line and
// measures how far dead reckoning ends up from the truth. Useful for
// calibrating drift and noise settings before a full coverage mission.
type TransitLineSimulation struct {
	config   *Config
	stopChan chan struct{}
}

// NewTransitLineSimulation creates a new instance
func NewTransitLineSimulation() simulation.Simulation {
	return &TransitLineSimulation{
		stopChan: make(chan struct{}),
	}
}

// Name returns the simulation name
func (s *TransitLineSimulation) Name() string {
	return "Transit Line Drift"
}

// Description returns the simulation description
func (s *TransitLineSimulation) Description() string {
	return "Single AUV transit under current drift, reporting dead-reckoning error growth"
}

// Configure sets up the simulation with provided parameters
func (s *TransitLineSimulation) Configure(params map[string]interface{}) error {
	config, err := ValidateAndParse(params)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	s.config = config
	return nil
}

// Run executes the transit
func (s *TransitLineSimulation) Run(ctx context.Context) error {
	if s.config == nil {
		if err := s.Configure(map[string]interface{}{}); err != nil {
			return err
		}
	}

	logger.Infof("Starting %s: %.0fm line at %.1f m/s, drift rate %.3f",
		s.Name(), s.config.LineLength, s.config.Speed, s.config.DriftRate)

	rng := rand.New(rand.NewSource(s.config.Seed))

	// The field extends past the line so a drifting hull never leaves it.
	pad := s.config.LineLength / 10
	fieldCfg := driftfield.DefaultConfig()
	fieldCfg.Scale = s.config.DriftScale
	fieldCfg.Bound = orb.Bound{
		Min: orb.Point{-pad, 0},
		Max: orb.Point{pad, s.config.LineLength},
	}
	field := driftfield.New(fieldCfg, rng)

	vehicleCfg := auv.Config{
		InitialPosition:   orb.Point{0, 0},
		InitialHeadingDeg: 90,
		ForwardSpeed:      s.config.Speed,
	}
	belief := auv.New(vehicleCfg)
	real := auv.New(vehicleCfg)

	end := orb.Point{0, s.config.LineLength}
	maxTime := 3 * s.config.LineLength / s.config.Speed
	dt := s.config.TimeStep

	var simTime, maxErr float64
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.stopChan:
			logger.Info("Transit stopped by user")
			return nil
		default:
		}

		if geo.Distance(belief.Position(), end) <= belief.ArrivalThreshold() {
			logger.Info("Transit complete")
			break
		}
		if simTime >= maxTime {
			logger.Warn("Transit time limit reached")
			break
		}

		// The belief steers and integrates clean motion; the truth gets
		// the same controls plus the current-induced drift.
		td, ta := belief.SetTarget(end, true)
		belief.Update(dt, td, ta, 0, 0, 0, true)

		moved := belief.LastMovedDistance()
		pos := real.Position()
		_, _, angle := field.Sample(pos[0], pos[1])
		mag := moved * s.config.DriftRate
		driftX := mag * math.Cos(angle)
		driftY := mag * math.Sin(angle)
		var driftHeading float64
		if s.config.NoiseBound > 0 {
			driftHeading = (2*rng.Float64() - 1) * s.config.NoiseBound
		}
		real.Update(dt, td, ta, driftX, driftY, driftHeading, true)
		belief.SetHeading(real.Heading() + driftHeading)

		if err := geo.Distance(real.Position(), belief.Position()); err > maxErr {
			maxErr = err
		}
		simTime += dt
	}

	finalErr := geo.Distance(real.Position(), belief.Position())
	commanded := belief.TotalDistanceTraveled()

	logger.LogSection("Transit Results")
	logger.LogKeyValue("Line length", fmt.Sprintf("%.0f m", s.config.LineLength))
	logger.LogKeyValue("Transit time", fmt.Sprintf("%.0f s", simTime))
	logger.LogKeyValue("Commanded travel", fmt.Sprintf("%.1f m", commanded))
	logger.LogKeyValue("Actual travel", fmt.Sprintf("%.1f m", real.TotalDistanceTraveled()))
	logger.LogKeyValue("Final position error", fmt.Sprintf("%.2f m", finalErr))
	logger.LogKeyValue("Peak position error", fmt.Sprintf("%.2f m", maxErr))
	if commanded > 0 {
		logger.LogKeyValue("Error per meter", fmt.Sprintf("%.4f", finalErr/commanded))
	}

	return nil
}

// Stop gracefully stops the simulation
func (s *TransitLineSimulation) Stop() error {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	return nil
}

// init registers the simulation
func init() {
	err := simulation.DefaultRegistry.Register("Transit Line Drift", NewTransitLineSimulation)
	if err != nil {
		logger.Errorf("Failed to register transit line simulation: %v", err)
		return
	}
}
