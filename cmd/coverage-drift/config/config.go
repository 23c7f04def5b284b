package config

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/seabedlabs/auv-sim/pkg/driftfield"
	"github.com/seabedlabs/auv-sim/pkg/geo"
	"github.com/seabedlabs/auv-sim/pkg/missionplan"
)

// MissionConfig holds the complete configuration for a coverage mission
type MissionConfig struct {
	Mission   MissionSettings `yaml:"mission"`
	Survey    SurveyConfig    `yaml:"survey"`
	Fleet     FleetConfig     `yaml:"fleet"`
	Comms     CommsConfig     `yaml:"comms"`
	Drift     DriftConfig     `yaml:"drift"`
	Landmarks []LandmarkSpec  `yaml:"landmarks"`
	Logging   LoggingConfig   `yaml:"logging"`
	Reporting ReportingConfig `yaml:"reporting"`
}

// MissionSettings contains basic mission metadata and run parameters
type MissionSettings struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Seed 0 means derive the seed from the wall clock at run time.
	Seed     int64   `yaml:"seed"`
	TimeStep float64 `yaml:"time_step"`
}

// SurveyConfig describes the area to cover and the lawnmower generator shape
type SurveyConfig struct {
	PlanType            string  `yaml:"plan_type"`
	RectWidth           float64 `yaml:"rect_width"`
	RectHeight          float64 `yaml:"rect_height"`
	Swath               float64 `yaml:"swath"`
	StraightSlack       float64 `yaml:"straight_slack"`
	OverlapBetweenRows  float64 `yaml:"overlap_between_rows"`
	OverlapBetweenLanes float64 `yaml:"overlap_between_lanes"`
	DoubleSided         bool    `yaml:"double_sided"`
	CenterX             bool    `yaml:"center_x"`
	CenterY             bool    `yaml:"center_y"`
	ExitingLine         bool    `yaml:"exiting_line"`
	TurningRadius       float64 `yaml:"turning_radius"`
}

// FleetConfig describes the vehicles and their dead-reckoning error model
type FleetConfig struct {
	NumAgents            int     `yaml:"num_agents"`
	Speed                float64 `yaml:"speed"`
	DriftRateK           float64 `yaml:"drift_rate_k"`
	HeadingNoiseBound    float64 `yaml:"heading_noise_bound"`
	UncertaintyFloor     float64 `yaml:"uncertainty_floor"`
	KeptUncertaintyRatio float64 `yaml:"kept_uncertainty_ratio"`
	RendezvousEligible   []int   `yaml:"rendezvous_eligible"`
}

// CommsConfig describes the acoustic link between vehicles
type CommsConfig struct {
	CommRange       float64 `yaml:"comm_range"`
	LandmarkRange   float64 `yaml:"landmark_range"`
	SummarizeGraphs bool    `yaml:"summarize_graphs"`
}

// DriftConfig describes the synthetic current field pushing the vehicles
type DriftConfig struct {
	Enabled    bool    `yaml:"enabled"`
	NumSpirals int     `yaml:"num_spirals"`
	NumRipples int     `yaml:"num_ripples"`
	BiasX      float64 `yaml:"bias_x"`
	BiasY      float64 `yaml:"bias_y"`
	Scale      float64 `yaml:"scale"`
}

// LandmarkSpec places one fixed acoustic beacon. Heading is in degrees.
type LandmarkSpec struct {
	X       float64 `yaml:"x"`
	Y       float64 `yaml:"y"`
	Heading float64 `yaml:"heading"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	ConsoleLevel string `yaml:"console_level"`
}

// ReportingConfig controls the end-of-mission report
type ReportingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	OutputPath string `yaml:"output_path"`
}

// Validate checks the configuration for errors
func (c *MissionConfig) Validate() error {
	if c.Mission.Name == "" {
		return fmt.Errorf("mission name is required")
	}

	if c.Mission.TimeStep <= 0 {
		return fmt.Errorf("time step must be positive, got %f", c.Mission.TimeStep)
	}

	if c.Survey.PlanType != missionplan.PlanTypeSimple && c.Survey.PlanType != missionplan.PlanTypeDubins {
		return fmt.Errorf("plan type must be '%s' or '%s', got '%s'",
			missionplan.PlanTypeSimple, missionplan.PlanTypeDubins, c.Survey.PlanType)
	}

	if c.Survey.RectWidth <= 0 || c.Survey.RectHeight <= 0 {
		return fmt.Errorf("survey rectangle must have positive dimensions, got %fx%f",
			c.Survey.RectWidth, c.Survey.RectHeight)
	}

	if c.Survey.Swath <= 0 {
		return fmt.Errorf("swath must be positive, got %f", c.Survey.Swath)
	}

	if c.Survey.PlanType == missionplan.PlanTypeDubins && c.Survey.TurningRadius <= 0 {
		return fmt.Errorf("dubins plans require a positive turning radius, got %f", c.Survey.TurningRadius)
	}

	if c.Fleet.NumAgents < 1 {
		return fmt.Errorf("fleet must have at least one agent, got %d", c.Fleet.NumAgents)
	}

	if c.Fleet.Speed <= 0 {
		return fmt.Errorf("vehicle speed must be positive, got %f", c.Fleet.Speed)
	}

	if c.Fleet.DriftRateK < 0 {
		return fmt.Errorf("drift rate must be non-negative, got %f", c.Fleet.DriftRateK)
	}

	if c.Fleet.HeadingNoiseBound < 0 {
		return fmt.Errorf("heading noise bound must be non-negative, got %f", c.Fleet.HeadingNoiseBound)
	}

	if c.Fleet.UncertaintyFloor < 0 {
		return fmt.Errorf("uncertainty floor must be non-negative, got %f", c.Fleet.UncertaintyFloor)
	}

	if c.Fleet.KeptUncertaintyRatio < 0 || c.Fleet.KeptUncertaintyRatio > 1 {
		return fmt.Errorf("kept uncertainty ratio must be between 0 and 1, got %f", c.Fleet.KeptUncertaintyRatio)
	}

	for _, idx := range c.Fleet.RendezvousEligible {
		if idx < 0 {
			return fmt.Errorf("rendezvous eligible indices must be non-negative, got %d", idx)
		}
	}

	if c.Comms.CommRange < 0 {
		return fmt.Errorf("comm range must be non-negative, got %f", c.Comms.CommRange)
	}

	if c.Comms.LandmarkRange < 0 {
		return fmt.Errorf("landmark range must be non-negative, got %f", c.Comms.LandmarkRange)
	}

	if c.Drift.Enabled {
		if c.Drift.NumSpirals < 0 || c.Drift.NumRipples < 0 {
			return fmt.Errorf("drift field feature counts must be non-negative, got %d spirals and %d ripples",
				c.Drift.NumSpirals, c.Drift.NumRipples)
		}
		if c.Drift.Scale <= 0 {
			return fmt.Errorf("drift field scale must be positive, got %f", c.Drift.Scale)
		}
	}

	validLevels := []string{"debug", "info", "warn", "warning", "error", "fatal"}
	levelOK := false
	for _, level := range validLevels {
		if c.Logging.ConsoleLevel == level {
			levelOK = true
			break
		}
	}
	if !levelOK {
		return fmt.Errorf("invalid console log level: %s", c.Logging.ConsoleLevel)
	}

	if c.Reporting.Enabled && c.Reporting.OutputPath == "" {
		return fmt.Errorf("reporting output path is required when reporting is enabled")
	}

	return nil
}

// PlanConfig flattens the survey, fleet, and comms sections into the
// mission plan generator's configuration.
func (c *MissionConfig) PlanConfig() missionplan.Config {
	return missionplan.Config{
		PlanType:   c.Survey.PlanType,
		NumAgents:  c.Fleet.NumAgents,
		Swath:      c.Survey.Swath,
		RectWidth:  c.Survey.RectWidth,
		RectHeight: c.Survey.RectHeight,
		Speed:      c.Fleet.Speed,

		StraightSlack:       c.Survey.StraightSlack,
		OverlapBetweenRows:  c.Survey.OverlapBetweenRows,
		OverlapBetweenLanes: c.Survey.OverlapBetweenLanes,
		DoubleSided:         c.Survey.DoubleSided,
		CenterX:             c.Survey.CenterX,
		CenterY:             c.Survey.CenterY,
		ExitingLine:         c.Survey.ExitingLine,

		TurningRadius: c.Survey.TurningRadius,
		CommRange:     c.Comms.CommRange,
		LandmarkRange: c.Comms.LandmarkRange,

		UncertaintyAccumulationRateK:  c.Fleet.DriftRateK,
		KeptUncertaintyRatioAfterLoop: c.Fleet.KeptUncertaintyRatio,
		HeadingNoiseBound:             c.Fleet.HeadingNoiseBound,
		UncertaintyFloor:              c.Fleet.UncertaintyFloor,

		RendezvousEligible: append([]int(nil), c.Fleet.RendezvousEligible...),
	}
}

// FieldConfig builds the drift field configuration over the given survey
// bound. Returns false when the drift field is disabled.
func (c *MissionConfig) FieldConfig(bound orb.Bound) (driftfield.Config, bool) {
	if !c.Drift.Enabled {
		return driftfield.Config{}, false
	}
	return driftfield.Config{
		NumSpirals: c.Drift.NumSpirals,
		NumRipples: c.Drift.NumRipples,
		BiasX:      c.Drift.BiasX,
		BiasY:      c.Drift.BiasY,
		Scale:      c.Drift.Scale,
		Bound:      bound,
	}, true
}

// LandmarkPoses converts the landmark list into seabed poses.
func (c *MissionConfig) LandmarkPoses() []geo.Pose {
	if len(c.Landmarks) == 0 {
		return nil
	}
	poses := make([]geo.Pose, 0, len(c.Landmarks))
	for _, lm := range c.Landmarks {
		poses = append(poses, geo.NewPose(lm.X, lm.Y, geo.Radians(lm.Heading)))
	}
	return poses
}

// GetDefaultConfig returns a configuration with sensible defaults
func GetDefaultConfig() *MissionConfig {
	return &MissionConfig{
		Mission: MissionSettings{
			Name:        "coverage-drift",
			Description: "Multi-AUV seabed coverage under dead-reckoning drift",
			Seed:        0,
			TimeStep:    0.05,
		},
		Survey: SurveyConfig{
			PlanType:            missionplan.PlanTypeSimple,
			RectWidth:           200,
			RectHeight:          400,
			Swath:               50,
			StraightSlack:       1,
			OverlapBetweenRows:  10,
			OverlapBetweenLanes: 10,
			TurningRadius:       5,
		},
		Fleet: FleetConfig{
			NumAgents:            2,
			Speed:                1.5,
			DriftRateK:           0.05,
			HeadingNoiseBound:    0.01,
			UncertaintyFloor:     2,
			KeptUncertaintyRatio: 0.5,
			RendezvousEligible:   []int{1, 3, 5},
		},
		Comms: CommsConfig{
			CommRange:       50,
			LandmarkRange:   10,
			SummarizeGraphs: true,
		},
		Drift: DriftConfig{
			Enabled:    true,
			NumSpirals: 6,
			NumRipples: 4,
			BiasX:      0.10,
			BiasY:      0.05,
			Scale:      1.0,
		},
		Logging: LoggingConfig{
			ConsoleLevel: "info",
		},
		Reporting: ReportingConfig{
			Enabled:    true,
			OutputPath: "reports",
		},
	}
}

// String returns a human-readable representation of the config
func (c *MissionConfig) String() string {
	return fmt.Sprintf(`Coverage Mission Configuration:
  Mission: %s
  Description: %s
  Seed: %d
  Time Step: %.3fs

  Survey:
    - Plan Type: %s
    - Area: %.0fm x %.0fm
    - Swath: %.0fm
    - Turning Radius: %.1fm

  Fleet:
    - Agents: %d
    - Speed: %.2f m/s
    - Drift Rate: %.3f
    - Heading Noise Bound: %.4f rad
    - Rendezvous Eligible: %v

  Comms:
    - Comm Range: %.0fm
    - Landmark Range: %.0fm
    - Summarize Graphs: %v

  Drift Field:
    - Enabled: %v
    - Spirals: %d, Ripples: %d
    - Bias: (%.2f, %.2f), Scale: %.2f

  Landmarks: %d
  Logging: %s
  Reporting: enabled=%v path=%s`,
		c.Mission.Name,
		c.Mission.Description,
		c.Mission.Seed,
		c.Mission.TimeStep,
		c.Survey.PlanType,
		c.Survey.RectWidth, c.Survey.RectHeight,
		c.Survey.Swath,
		c.Survey.TurningRadius,
		c.Fleet.NumAgents,
		c.Fleet.Speed,
		c.Fleet.DriftRateK,
		c.Fleet.HeadingNoiseBound,
		c.Fleet.RendezvousEligible,
		c.Comms.CommRange,
		c.Comms.LandmarkRange,
		c.Comms.SummarizeGraphs,
		c.Drift.Enabled,
		c.Drift.NumSpirals, c.Drift.NumRipples,
		c.Drift.BiasX, c.Drift.BiasY, c.Drift.Scale,
		len(c.Landmarks),
		c.Logging.ConsoleLevel,
		c.Reporting.Enabled, c.Reporting.OutputPath,
	)
}
