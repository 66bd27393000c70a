package match

import (
	"math"

	"matchday/internal/match/geom"
)

// BallStateTag is the ball FSM state.
type BallStateTag uint8

const (
	BallControlled BallStateTag = iota
	BallRolling
	BallInFlight
	BallBouncing
	BallSettled
	BallOutOfPlay
)

func (s BallStateTag) String() string {
	switch s {
	case BallControlled:
		return "controlled"
	case BallRolling:
		return "rolling"
	case BallInFlight:
		return "in_flight"
	case BallBouncing:
		return "bouncing"
	case BallSettled:
		return "settled"
	case BallOutOfPlay:
		return "out_of_play"
	default:
		return "unknown"
	}
}

// RestartType names how play resumes after the ball leaves play.
type RestartType uint8

const (
	RestartNone RestartType = iota
	RestartKickOff
	RestartThrowIn
	RestartGoalKick
	RestartCorner
	RestartFreeKickDirect
	RestartFreeKickIndirect
	RestartPenalty
)

func (r RestartType) String() string {
	switch r {
	case RestartKickOff:
		return "kick_off"
	case RestartThrowIn:
		return "throw_in"
	case RestartGoalKick:
		return "goal_kick"
	case RestartCorner:
		return "corner"
	case RestartFreeKickDirect:
		return "free_kick_direct"
	case RestartFreeKickIndirect:
		return "free_kick_indirect"
	case RestartPenalty:
		return "penalty"
	default:
		return "none"
	}
}

// HeightCurve shapes a kicked ball's vertical profile.
type HeightCurve uint8

const (
	CurveFlat HeightCurve = iota
	CurveDriven
	CurveLofted
	CurveChipped
)

// FlightParams freeze a kick at launch time. Everything needed to integrate
// the trajectory is computed at commit, no draws happen mid-flight.
type FlightParams struct {
	Origin     geom.Coord
	Target     geom.Coord
	SpeedM     float64 // launch speed m/s
	Curve      HeightCurve
	VZ         float64 // launch vertical velocity m/s
	LaunchTick uint64
	Kicker     PlayerID
	// Shot marks a goal-bound flight: the ball-line resolver owns the
	// outcome at the goal-line crossing.
	Shot bool
}

// Ball is the full ball state inside a MatchState.
type Ball struct {
	Pos     geom.Coord
	Vel     geom.Vel
	HeightU int32 // 0.1 m units above ground

	State    BallStateTag
	Owner    PlayerID // valid iff State == BallControlled
	Bounces  uint8
	Restart  RestartType // valid iff State == BallOutOfPlay
	RestartBy TeamSide   // team that takes the restart
	Flight   FlightParams
	// vzMilli is the vertical velocity in mm/s, kept fixed-point so the
	// trace hash covers it.
	vzMilli int32
}

// ControlledBy reports whether the ball is controlled and by whom.
func (b *Ball) ControlledBy() (PlayerID, bool) {
	if b.State == BallControlled {
		return b.Owner, true
	}
	return NoPlayer, false
}

// control hands the ball to a player. The one-owner invariant lives here:
// there is no other way to enter BallControlled.
func (b *Ball) control(id PlayerID) {
	b.State = BallControlled
	b.Owner = id
	b.HeightU = 0
	b.Bounces = 0
	b.vzMilli = 0
	b.Restart = RestartNone
}

// release detaches the ball without kicking it (loose ball).
func (b *Ball) release() {
	if b.State == BallControlled {
		b.State = BallRolling
	}
	b.Owner = NoPlayer
}

// kick launches the ball into flight with pre-computed params.
func (b *Ball) kick(fp FlightParams) {
	b.Owner = NoPlayer
	b.State = BallInFlight
	b.Bounces = 0
	b.Flight = fp

	dx := fp.Target.MetresX() - fp.Origin.MetresX()
	dy := fp.Target.MetresY() - fp.Origin.MetresY()
	dist := math.Sqrt(dx*dx + dy*dy)
	if dist < 1e-6 {
		dist = 1e-6
	}
	b.Vel = geom.VelFromMetres(dx/dist*fp.SpeedM, dy/dist*fp.SpeedM)
	b.vzMilli = int32(fp.VZ * 1000)
	if fp.VZ <= 0 {
		// Ground ball: skip flight, go straight to rolling.
		b.State = BallRolling
		b.HeightU = 0
		b.vzMilli = 0
	}
}

// outOfPlay freezes the ball for a restart.
func (b *Ball) outOfPlay(restart RestartType, by TeamSide, at geom.Coord) {
	b.State = BallOutOfPlay
	b.Owner = NoPlayer
	b.Restart = restart
	b.RestartBy = by
	b.Pos = at
	b.Vel = geom.Vel{}
	b.HeightU = 0
	b.vzMilli = 0
	b.Bounces = 0
}

// stepBall advances the ball FSM one physics substep. Controlled and
// OutOfPlay balls do not move here: the owner's dribble FSM and the restart
// logic own those positions. Returns true when the ball crossed out of the
// field this substep (the rule dispatcher decides the restart).
func stepBall(b *Ball) bool {
	switch b.State {
	case BallControlled, BallOutOfPlay, BallSettled:
		return false

	case BallInFlight:
		integrateBallXY(b, 1.0) // no ground friction in the air
		vz := float64(b.vzMilli) / 1000
		vz -= Gravity * SubstepDT
		h := float64(b.HeightU)*geom.Unit + vz*SubstepDT
		if h <= 0 {
			h = 0
			if vz < 0 {
				vz = -vz * BounceCoefficient
			}
			b.Bounces++
			if b.Bounces > MaxBounces || vz < 0.8 {
				b.State = BallRolling
				vz = 0
			} else {
				b.State = BallBouncing
			}
		}
		b.HeightU = int32(math.Floor(h/geom.Unit + 0.5))
		b.vzMilli = int32(vz * 1000)

	case BallBouncing:
		integrateBallXY(b, GrassFriction)
		vz := float64(b.vzMilli) / 1000
		vz -= Gravity * SubstepDT
		h := float64(b.HeightU)*geom.Unit + vz*SubstepDT
		if h <= 0 {
			h = 0
			if vz < 0 {
				vz = -vz * BounceCoefficient
			}
			b.Bounces++
			if b.Bounces > MaxBounces || vz < 0.8 {
				b.State = BallRolling
				vz = 0
			}
		}
		b.HeightU = int32(math.Floor(h/geom.Unit + 0.5))
		b.vzMilli = int32(vz * 1000)

	case BallRolling:
		integrateBallXY(b, GrassFriction)
		b.HeightU = 0
		b.vzMilli = 0
		if b.Vel.SpeedM() < BallMinVelocity {
			b.State = BallSettled
			b.Vel = geom.Vel{}
		}
	}

	return !b.Pos.InField()
}

// integrateBallXY moves the ball by its velocity for one substep and applies
// a friction factor, quantizing back onto the lattice.
func integrateBallXY(b *Ball, friction float64) {
	vx, vy := b.Vel.Metres()
	x := b.Pos.MetresX() + vx*SubstepDT
	y := b.Pos.MetresY() + vy*SubstepDT
	b.Pos = geom.FromMetres(x, y)
	b.Vel = geom.VelFromMetres(vx*friction, vy*friction)
}

// flightETA estimates decision ticks until the flight reaches its target.
func flightETA(fp FlightParams) uint64 {
	d := fp.Origin.DistM(fp.Target)
	if fp.SpeedM < 1e-6 {
		return 1
	}
	secs := d / fp.SpeedM
	t := uint64(math.Ceil(secs / DecisionDT))
	if t < 1 {
		t = 1
	}
	return t
}
