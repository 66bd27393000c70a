package match

import (
	"math"

	"matchday/internal/match/geom"
)

// Positioning & steering. Elastic-band model: every player is tethered to a
// formation anchor derived from a moving team centre; behaviors add a
// velocity contribution on top. Nothing writes positions directly — all
// movement is velocity integrated at substep dt under ability caps.

// teamCentre derives the block reference point from the ball and the
// defensive line setting.
func teamCentre(snap *TickSnapshot, side TeamSide, line DefensiveLine) geom.Coord {
	attacksRight := snap.AttacksRight(side)
	// The block follows the ball at a fraction, biased toward its own goal.
	ownGoal := geom.GoalCentre(!attacksRight)
	pull := 0.42
	switch line {
	case LineHigh:
		pull = 0.30
	case LineDeep:
		pull = 0.55
	}
	c := snap.Ball.Pos.Lerp(ownGoal, pull)
	// Keep the block's lateral centre near the ball but clamped off the
	// touchlines.
	c.Y = clampLane(snap.Ball.Pos.Y, 150, geom.FieldWidthU-150)
	return c
}

// formationAnchor computes the elastic-band anchor for a squad slot.
func formationAnchor(snap *TickSnapshot, side TeamSide, slot int, f Formation, ins TeamInstructions) geom.Coord {
	shape := formationShapes[f][slot]
	attacksRight := snap.AttacksRight(side)
	centre := teamCentre(snap, side, ins.DefensiveLine)

	// Offsets are fractions of the pitch in team view, centred on 0.30
	// depth so the shape breathes around the team centre.
	depth := (shape.X - 0.30) * geom.FieldLengthM
	lateral := (shape.Y - 0.5) * geom.FieldWidthM
	switch ins.Width {
	case WidthWide:
		lateral *= 1.15
	case WidthNarrow:
		lateral *= 0.8
	}

	du := int32(depth / geom.Unit)
	if !attacksRight {
		du = -du
	}
	return geom.Coord{
		X: centre.X + du,
		Y: centre.Y + int32(lateral/geom.Unit),
	}.ClampToField()
}

// steer* helpers all return a desired velocity in m/s.

// steerArrive decelerates into the target: full speed far out, easing
// inside the slow radius.
func steerArrive(from, to geom.Coord, maxSpeed float64) (float64, float64) {
	dx := to.MetresX() - from.MetresX()
	dy := to.MetresY() - from.MetresY()
	d := math.Sqrt(dx*dx + dy*dy)
	if d < 0.05 {
		return 0, 0
	}
	const slowRadius = 3.0
	speed := maxSpeed
	if d < slowRadius {
		speed = maxSpeed * d / slowRadius
	}
	return dx / d * speed, dy / d * speed
}

// steerPursuit leads a moving target by its velocity.
func steerPursuit(from, to geom.Coord, targetVel geom.Vel, maxSpeed float64) (float64, float64) {
	lead := from.DistM(to) / 8.0
	if lead > 1.5 {
		lead = 1.5
	}
	tx := to.MetresX() + targetVel.MetresX()*lead
	ty := to.MetresY() + targetVel.MetresY()*lead
	return steerArrive(from, geom.FromMetres(tx, ty), maxSpeed)
}

// steerSeparation pushes away from teammates closer than the separation
// radius. Quadratic falloff.
func steerSeparation(snap *TickSnapshot, id PlayerID, sepRadius float64) (float64, float64) {
	self := snap.Players[id].Pos
	var fx, fy float64
	start, end := teamRange(id.Side())
	for o := start; o < end; o++ {
		if o == id || snap.Players[o].SentOff {
			continue
		}
		d := self.DistM(snap.Players[o].Pos)
		if d >= sepRadius || d < 1e-6 {
			continue
		}
		w := (sepRadius - d) / sepRadius
		dx := self.MetresX() - snap.Players[o].Pos.MetresX()
		dy := self.MetresY() - snap.Players[o].Pos.MetresY()
		fx += dx / d * w * w * 4.0
		fy += dy / d * w * w * 4.0
	}
	return fx, fy
}

// desiredVelocity composes the per-substep steering for one player:
// arrive(anchor or objective or action target) + separation, clamped later
// by motion params.
func (e *Engine) desiredVelocity(snap *TickSnapshot, id PlayerID) (float64, float64) {
	st := &e.state
	p := &st.Players[id]
	cfg := e.playerConfig(id)
	ins := e.instructions[id.Side()]
	mp := motionParams(&cfg.Attr, p.Stamina, p.Sticky.Sprint)

	// Base: elastic band toward the formation anchor.
	anchor := formationAnchor(snap, id.Side(), id.SquadIndex(), e.formation(id.Side()), ins)
	vx, vy := steerArrive(p.Pos, anchor, mp.MaxSpeed*0.8)

	// Behavior contribution overrides the band when present.
	if a := st.actionOf(id); a != nil {
		bx, by, ok := actionSteer(snap, st, a, mp)
		if ok {
			vx, vy = bx, by
		}
	} else if p.HasObjective {
		urge := 0.6 + 0.4*p.Objective.Urgency
		vx, vy = steerArrive(p.Pos, p.Objective.Target, mp.MaxSpeed*urge)
	} else if p.State == StateChasing || p.State == StateReceiving {
		vx, vy = steerPursuit(p.Pos, st.Ball.Pos, st.Ball.Vel, mp.MaxSpeed)
	}

	// Separation from teammates keeps the shape from collapsing.
	sx, sy := steerSeparation(snap, id, 4.0)
	vx += sx
	vy += sy

	// Clamp to ability.
	speed := math.Sqrt(vx*vx + vy*vy)
	if speed > mp.MaxSpeed {
		vx = vx / speed * mp.MaxSpeed
		vy = vy / speed * mp.MaxSpeed
	}
	return vx, vy
}

// actionSteer returns the movement a live action demands, if any.
func actionSteer(snap *TickSnapshot, st *MatchState, a *ActiveAction, mp MotionParams) (float64, float64, bool) {
	p := &st.Players[a.Owner]
	switch a.Type {
	case ActionTackle:
		if a.Phase == PhaseApproach {
			victim := &st.Players[a.Tackle.Victim]
			vx, vy := steerPursuit(p.Pos, victim.Pos, victim.Vel, mp.MaxSpeed)
			return vx, vy, true
		}
		if a.Phase == PhaseRecover || a.Phase == PhaseCooldown {
			return 0, 0, true // grounded / recovering
		}
	case ActionDribble:
		if a.Phase == PhaseCommit {
			speed := mp.MaxSpeed * dribbleSpeedFactor(a.Dribble.Technique)
			vx, vy := steerArrive(p.Pos, a.Dribble.TargetPos, speed)
			return vx, vy, true
		}
	case ActionPass, ActionShot:
		// Planting the feet through windup and strike.
		if a.Phase == PhaseApproach || a.Phase == PhaseCommit {
			return 0, 0, true
		}
	case ActionSetPiece:
		if a.Phase == PhaseApproach {
			vx, vy := steerArrive(p.Pos, st.Ball.Pos, mp.MaxSpeed*0.6)
			return vx, vy, true
		}
	}
	return 0, 0, false
}

func dribbleSpeedFactor(t DribbleTechnique) float64 {
	switch t {
	case DribKnockOn:
		return 0.95
	case DribShielding:
		return 0.30
	case DribFeint, DribHesitation:
		return 0.55
	case DribTurn:
		return 0.45
	default:
		return 0.70
	}
}

// integratePlayer advances one player one substep: blend velocity toward
// desired under accel/turn caps, move, clamp to field.
func integratePlayer(p *PlayerRuntime, desiredVX, desiredVY float64, mp MotionParams) {
	vx, vy := p.Vel.Metres()

	// Acceleration cap.
	ax := desiredVX - vx
	ay := desiredVY - vy
	aMag := math.Sqrt(ax*ax + ay*ay)
	maxDelta := mp.Accel * SubstepDT * (1 + mp.TurnSkill)
	if aMag > maxDelta && aMag > 1e-9 {
		ax = ax / aMag * maxDelta
		ay = ay / aMag * maxDelta
	}
	vx += ax
	vy += ay

	x := p.Pos.MetresX() + vx*SubstepDT
	y := p.Pos.MetresY() + vy*SubstepDT
	p.Pos = geom.FromMetres(x, y).ClampToField()
	p.Vel = geom.VelFromMetres(vx, vy)
}
