package match

// Dual-timestep contract. All probabilities and gameplay constants are
// defined relative to DecisionDT; physics integration runs at SubstepDT.
const (
	// DecisionDT is the tactical decision tick (seconds).
	DecisionDT = 0.25
	// SubstepDT is the physics integration step (seconds).
	SubstepDT = 0.05
	// SubstepsPerTick is DecisionDT / SubstepDT.
	SubstepsPerTick = 5

	// TicksPerMinute at the decision rate.
	TicksPerMinute = 240
	// TicksPerSecond at the decision rate.
	TicksPerSecond = 4

	// RegulationMinutes is the length of a match before added time.
	RegulationMinutes = 90
	// HalfTimeMinute is when the halves switch.
	HalfTimeMinute = 45
)

// Ball physics constants (metre space, applied per substep).
const (
	GrassFriction     = 0.965 // per-substep velocity retention on the ground
	Gravity           = 9.81  // m/s^2
	BounceCoefficient = 0.62  // vertical energy retention per bounce
	MaxBounces        = 4     // bounces before the ball is forced to rolling
	BallMinVelocity   = 0.25  // m/s; below this Rolling -> Settled
)

// Dribble separation band (metres): the carrier keeps the ball at least
// DribbleMinSeparation ahead and never lets it drift past DribbleMaxSeparation.
const (
	DribbleMinSeparation = 0.3
	DribbleMaxSeparation = 1.6
	DribbleControlRange  = 1.2 // within this the carrier can re-touch
)

// Interceptor geometry (metres).
const (
	BodyRadius      = 0.4
	InterceptRadius = 1.2
)

// Decision scheduler cadence.
const (
	// ActiveRadiusM: players within this distance of the ball re-decide
	// every tick.
	ActiveRadiusM = 20.0
	// PassiveCadenceTicks: everyone else re-decides at this interval.
	PassiveCadenceTicks = 4
)

// Off-ball objective defaults.
const (
	// ObjectiveTTLTicks is the default objective lifetime (~3 s).
	ObjectiveTTLTicks = 12
	// MaxObjectiveCandidates per player per decision.
	MaxObjectiveCandidates = 5
	// ObjectiveCollisionRadiusM: two objectives closer than this collide.
	ObjectiveCollisionRadiusM = 3.0
)

// Gate-B utility weights. The six factors sum to 1.0.
const (
	WeightDistance    = 0.20
	WeightSafety      = 0.25
	WeightReadiness   = 0.15
	WeightProgression = 0.20
	WeightSpace       = 0.10
	WeightTactical    = 0.10
)

// Softmax temperature bounds.
const (
	BaseTemperature = 1.0
	MinTemperature  = 0.2
	MaxTemperature  = 5.0
)

// Utility floor fed into the log-softmax so zero-weight candidates never
// produce -Inf scores.
const utilityFloor = 1e-4

// Action phase durations in decision ticks. Condition-driven phases
// (dribble carry, ball flight) use these only as MaxTicks guardrails.
const (
	PassWindupTicks   = 2
	PassKickTicks     = 1
	ShotWindupTicks   = 3
	ShotStrikeTicks   = 1
	TackleApproachMax = 4
	TackleCommitTicks = 1
	TackleRecoverOK   = 2
	TackleRecoverFail = 4
	SetPieceSetupMin  = 2
	SetPieceSetupMax  = 4
	CooldownTicks     = 2

	// ActionMaxTicks is the hard guardrail: any action alive past this is
	// forced to Finished and reported as a diagnostic.
	ActionMaxTicks = 40
)

// Stamina model. Drain is expressed per decision tick and scaled by the
// pre-match condition level (1..5).
const (
	StaminaMax         = 1.0
	StaminaBaseDrain   = 0.000070 // per tick at walking effort
	StaminaSprintDrain = 0.000420 // additional per tick while sprinting
	StaminaPressDrain  = 0.000180 // additional per tick while pressing
	StaminaRecover     = 0.000090 // per tick while idle/walking
	// StaminaFloorSpeed is the fraction of max speed retained at zero stamina.
	StaminaFloorSpeed = 0.55
)

// ConditionDrainMultiplier maps condition level 1..5 to a stamina drain
// multiplier. Index 0 is unused.
var ConditionDrainMultiplier = [6]float64{0, 1.50, 1.30, 1.10, 0.95, 0.80}

// Goal linkage invariant: a Goal must be preceded by a Shot from the same
// player within this many ticks.
const GoalShotLinkTicks = 20

// Replay save cadence bounds (milliseconds between position keyframes).
const (
	ReplayCadenceMinMS     = 100
	ReplayCadenceMaxMS     = 200
	ReplayCadenceDefaultMS = 200
)
