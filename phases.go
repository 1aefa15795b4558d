package starship

// Phase defines an enum of mission phases. Exactly one phase is active at a
// time and, except for the booster return sub-phases, no phase is revisited
// once left.
type Phase uint8

// DescentPhase defines an enum of the landing guidance sub-phases.
type DescentPhase uint8

const (
	// Ready is the pre-launch pad hold.
	Ready Phase = iota + 1
	// Launch is the initial powered flight off the pad.
	Launch
	// Ascent is the powered flight above the pad clearance altitude.
	Ascent
	// StageSeparation is the timed window between the command and the impulse.
	StageSeparation
	// BoosterReturn is the booster's coast, flip, boostback and approach.
	BoosterReturn
	// StarshipAscent is the upper stage's concurrent flight after separation.
	StarshipAscent
	// BoosterLanding is the guided descent through touchdown.
	BoosterLanding
	// MechazillaCatch is the terminal tower catch maneuver.
	MechazillaCatch
	// MissionComplete is terminal.
	MissionComplete

	// DescentCoast is ballistic flight above the boostback threshold.
	DescentCoast DescentPhase = iota + 1
	// DescentBoostback targets retrograde toward the recovery point.
	DescentBoostback
	// DescentEntry is the braking burn into the denser atmosphere.
	DescentEntry
	// DescentAero is the unpowered aerodynamic descent on grid fins.
	DescentAero
	// DescentLandingBurn is the terminal hover-slam burn.
	DescentLandingBurn
	// DescentTouchdown is terminal.
	DescentTouchdown
)

func (p Phase) String() string {
	switch p {
	case Ready:
		return "Ready"
	case Launch:
		return "Launch"
	case Ascent:
		return "Ascent"
	case StageSeparation:
		return "StageSeparation"
	case BoosterReturn:
		return "BoosterReturn"
	case StarshipAscent:
		return "StarshipAscent"
	case BoosterLanding:
		return "BoosterLanding"
	case MechazillaCatch:
		return "MechazillaCatch"
	case MissionComplete:
		return "MissionComplete"
	}
	panic("cannot stringify unknown phase")
}

func (p DescentPhase) String() string {
	switch p {
	case DescentCoast:
		return "coast"
	case DescentBoostback:
		return "boostback"
	case DescentEntry:
		return "entry"
	case DescentAero:
		return "descent"
	case DescentLandingBurn:
		return "landing"
	case DescentTouchdown:
		return "touchdown"
	}
	panic("cannot stringify unknown descent phase")
}
