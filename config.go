package starship

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config gathers every externally overridable constant of the simulation.
// DefaultConfig is fully populated so that no subsystem ever needs to lazily
// initialize its parameters.
type Config struct {
	Booster  VehicleConfig
	Ship     VehicleConfig
	Gravity  GravityConfig
	Phases   PhaseConfig
	Guidance GuidanceConfig
	Tower    TowerConfig
	Wind     WindConfig
	Sim      SimConfig
}

// VehicleConfig defines the physical constants of one stage.
type VehicleConfig struct {
	Name           string
	DryMass        float64 // kg
	PropellantMass float64 // kg, also the capacity
	MaxThrust      float64 // N, vacuum rating
	IspSeaLevel    float64 // s
	IspVacuum      float64 // s
	DragCd         float64
	Area           float64 // m², frontal cross section
	GimbalLimit    float64 // rad
	FinDragGain    float64 // added Cd at full grid fin deployment
	FinLiftGain    float64 // lift force per unit dynamic pressure and deflection
	FinDeployRate  float64 // fraction per second
	FinDeployAlt   float64 // m, fins deploy below this altitude
	LegDeployRate  float64 // fraction per second
	LegDeployAlt   float64 // m, legs deploy below this altitude
	StackOffset    float64 // m, height of this stage's base above the booster base while mated
	HeatGain       float64 // K per unit of convective heating rate
}

// GravityConfig selects the gravity model. Both the constant-g and the
// inverse-square variants appear in the design and are equivalent near the
// surface; they diverge at orbital altitudes.
type GravityConfig struct {
	Model  string  // "constant" or "inverseSquare"
	G0     float64 // m/s², used by the constant model
	Mu     float64 // m³/s², gravitational parameter, used by inverseSquare
	Radius float64 // m, planet radius, used by inverseSquare
}

// Gravity models.
const (
	GravityConstant      = "constant"
	GravityInverseSquare = "inverseSquare"
)

// g returns the gravitational acceleration at the given altitude.
func (g GravityConfig) g(altitude float64) float64 {
	switch g.Model {
	case GravityConstant:
		return g.G0
	case GravityInverseSquare:
		r := g.Radius + altitude
		return g.Mu / (r * r)
	}
	panic(fmt.Errorf("unknown gravity model `%s`", g.Model))
}

// PhaseConfig defines the mission phase thresholds and timers.
type PhaseConfig struct {
	AscentAltitude     float64 // m, Launch becomes Ascent above this
	SeparationDuration float64 // s, time between the command and the separation impulse
	SepImpulseBooster  float64 // m/s, retrograde kick on the booster
	SepImpulseShip     float64 // m/s, prograde kick on the ship
	CoastDuration      float64 // s, booster return: engines-off ballistic arc
	FlipDuration       float64 // s, booster return: flip maneuver
	FlipThrottle       float64
	BurnDuration       float64 // s, booster return: boostback burn window
	BurnThrottle       float64
	BurnMissRadius     float64 // m, boostback cutoff: predicted impact within this of the catch point
	FlipRate           float64 // rad/s², attitude authority during flip and burn
	PitchOverStart     float64 // m, ascent pitch program start altitude
	PitchOverEnd       float64 // m, altitude of full programmed pitch
	MaxPitch           float64 // rad, programmed pitch at PitchOverEnd
}

// PIDGains is one proportional-integral-derivative gain triple.
type PIDGains struct {
	P, I, D float64
}

// GuidanceConfig defines the landing guidance thresholds, base throttles and
// controller gains.
type GuidanceConfig struct {
	VerticalSpeed PIDGains
	Attitude      PIDGains
	Horizontal    PIDGains

	HoverSlamFraction float64 // fraction of gravity used as target deceleration
	TouchdownSpeed    float64 // m/s, minimum commanded descent speed

	// Descending altitude thresholds, in the fixed sub-phase order.
	BoostbackAltitude float64 // m, coast above this
	EntryAltitude     float64
	DescentAltitude   float64
	LandingAltitude   float64

	PhaseMaxDuration float64 // s, a sub-phase advances after this long regardless of altitude

	EntryThrottle   float64
	DescentThrottle float64
	LandingThrottle float64
}

// TowerConfig defines the catch tower and its arm kinematics.
type TowerConfig struct {
	Position       []float64 // m, world frame, Position[2] is the base altitude
	Height         float64   // m
	TrackingRange  float64   // m, booster is acquired within this range
	ArmRate        float64   // m/s, vertical servo rate
	CloseRate      float64   // m/s, horizontal closing rate
	ArmSpan        float64   // m, fully open arm half-spread
	HeightTol      float64   // m
	AlignTol       float64   // m
	MaxVertical    float64   // m/s, catch velocity gate
	MaxHorizontal  float64   // m/s, catch velocity gate
	NoiseSigma     float64   // m, 1-σ tracking error, sampled once per acquisition
	GroundAltitude float64   // m, below this the booster is considered lost
}

// WindConfig defines the disturbance model. A zero GustSigma disables gusts.
type WindConfig struct {
	Speed     float64 // m/s, mean wind speed
	Direction float64 // deg, direction the wind blows toward
	GustSigma float64 // m/s, 1-σ of each gust component
	GustProb  float64 // probability of a gust on any physics step
}

// SimConfig defines the stepping parameters.
type SimConfig struct {
	MaxStep float64 // s, stability ceiling of a single integration step
	Speed   float64 // initial simulation speed multiplier
	Seed    int64   // seed for all noise sources
}

// DefaultConfig returns the baseline two-stage vehicle: a super-heavy booster
// and its upper stage, a catch tower at the origin and mild winds.
func DefaultConfig() Config {
	return Config{
		Booster: VehicleConfig{
			Name:           "booster",
			DryMass:        200e3,
			PropellantMass: 3400e3,
			MaxThrust:      74e6,
			IspSeaLevel:    330,
			IspVacuum:      350,
			DragCd:         0.55,
			Area:           63.6,
			GimbalLimit:    Deg2rad(8),
			FinDragGain:    0.45,
			FinLiftGain:    0.9,
			FinDeployRate:  0.5,
			FinDeployAlt:   60e3,
			LegDeployRate:  0.8,
			LegDeployAlt:   500,
			HeatGain:       4e-7,
		},
		Ship: VehicleConfig{
			Name:           "ship",
			DryMass:        120e3,
			PropellantMass: 1200e3,
			MaxThrust:      14.7e6,
			IspSeaLevel:    327,
			IspVacuum:      380,
			DragCd:         0.5,
			Area:           63.6,
			GimbalLimit:    Deg2rad(15),
			FinDragGain:    0.6,
			FinLiftGain:    1.1,
			FinDeployRate:  0.5,
			FinDeployAlt:   80e3,
			LegDeployRate:  0.8,
			LegDeployAlt:   500,
			StackOffset:    71,
			HeatGain:       6e-7,
		},
		Gravity: GravityConfig{
			Model:  GravityConstant,
			G0:     9.81,
			Mu:     3.986004418e14,
			Radius: 6378137,
		},
		Phases: PhaseConfig{
			AscentAltitude:     30,
			SeparationDuration: 3,
			SepImpulseBooster:  12,
			SepImpulseShip:     18,
			CoastDuration:      5,
			FlipDuration:       8,
			FlipThrottle:       0.08,
			BurnDuration:       120,
			BurnThrottle:       0.55,
			BurnMissRadius:     2000,
			FlipRate:           0.35,
			PitchOverStart:     1000,
			PitchOverEnd:       45e3,
			MaxPitch:           Deg2rad(60),
		},
		Guidance: GuidanceConfig{
			VerticalSpeed:     PIDGains{P: 0.12, I: 0.015, D: 0.03},
			Attitude:          PIDGains{P: 1.8, I: 0.05, D: 0.6},
			Horizontal:        PIDGains{P: 0.004, I: 0.0002, D: 0.02},
			HoverSlamFraction: 0.85,
			TouchdownSpeed:    2,
			BoostbackAltitude: 60e3,
			EntryAltitude:     30e3,
			DescentAltitude:   10e3,
			LandingAltitude:   1200,
			PhaseMaxDuration:  90,
			EntryThrottle:     0.2,
			DescentThrottle:   0,
			LandingThrottle:   0.6,
		},
		Tower: TowerConfig{
			Position:       []float64{0, 0, 0},
			Height:         146,
			TrackingRange:  2000,
			ArmRate:        6,
			CloseRate:      2.5,
			ArmSpan:        18,
			HeightTol:      1.5,
			AlignTol:       2.5,
			MaxVertical:    4,
			MaxHorizontal:  2,
			NoiseSigma:     0.4,
			GroundAltitude: 5,
		},
		Wind: WindConfig{
			Speed:     4,
			Direction: 270,
			GustSigma: 1.5,
			GustProb:  0.02,
		},
		Sim: SimConfig{
			MaxStep: 0.05,
			Speed:   1,
			Seed:    42,
		},
	}
}

// LoadConfig reads a TOML scenario file and overlays it on the defaults.
// Keys absent from the file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	v := viper.New()
	v.SetConfigFile(path)
	if !strings.HasSuffix(path, ".toml") {
		v.SetConfigType("toml")
	}
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("%s: %s", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("%s: %s", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations which would break the physics core.
func (cfg Config) Validate() error {
	switch cfg.Gravity.Model {
	case GravityConstant, GravityInverseSquare:
	default:
		return fmt.Errorf("unknown gravity model `%s`", cfg.Gravity.Model)
	}
	for _, vc := range []VehicleConfig{cfg.Booster, cfg.Ship} {
		if vc.DryMass <= 0 {
			return fmt.Errorf("%s: dry mass must be positive", vc.Name)
		}
		if vc.PropellantMass < 0 {
			return fmt.Errorf("%s: propellant mass may not be negative", vc.Name)
		}
	}
	if cfg.Sim.MaxStep <= 0 || cfg.Sim.MaxStep > 0.1 {
		return fmt.Errorf("max step %f outside the (0, 0.1] stability window", cfg.Sim.MaxStep)
	}
	return nil
}
