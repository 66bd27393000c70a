package match

import (
	"math"

	"matchday/internal/match/geom"
)

// Per-substep advancement of the committed action FSMs. All probabilities
// were frozen at commit; the draws here only consume them, keyed by the
// current tick so independent resolutions stay independent.

// advanceActions steps every live FSM once per substep.
func (e *Engine) advanceActions(snap *TickSnapshot) {
	for i := range e.state.Actions {
		a := &e.state.Actions[i]
		if a.Phase == PhaseFinished {
			continue
		}
		a.PhaseTick++
		if a.PhaseTick%SubstepsPerTick == 0 {
			a.AgeTicks++
		}
		if a.AgeTicks > ActionMaxTicks {
			e.state.pushDiagnostic(DiagActionStuck, a.Owner,
				a.Type.String()+" stuck in "+a.Phase.String())
			e.failAction(a)
			continue
		}
		switch a.Type {
		case ActionPass:
			e.stepPass(snap, a)
		case ActionShot:
			e.stepShot(snap, a)
		case ActionDribble:
			e.stepDribble(snap, a)
		case ActionTackle:
			e.stepTackle(snap, a)
		case ActionSetPiece:
			e.stepSetPiece(snap, a)
		}
	}
}

// failAction aborts an FSM that can no longer progress. The owner's state
// resets to Idle at once unless the owner is Recovering.
func (e *Engine) failAction(a *ActiveAction) {
	a.enterPhase(PhaseFinished)
	owner := &e.state.Players[a.Owner]
	if owner.State != StateRecovering {
		e.state.setPlayerState(a.Owner, StateIdle)
	}
}

// ownerLostBall reports whether an on-ball action's precondition vanished.
func (e *Engine) ownerLostBall(a *ActiveAction) bool {
	owner, ok := e.state.Ball.ControlledBy()
	return !ok || owner != a.Owner
}

// ---- Pass ----

func (e *Engine) stepPass(snap *TickSnapshot, a *ActiveAction) {
	st := &e.state
	switch a.Phase {
	case PhasePending:
		if e.ownerLostBall(a) {
			e.failAction(a)
			return
		}
		st.setPlayerState(a.Owner, StatePassing)
		a.enterPhase(PhaseApproach)

	case PhaseApproach: // windup
		if e.ownerLostBall(a) {
			e.failAction(a)
			return
		}
		if a.phaseTicks() >= PassWindupTicks {
			a.enterPhase(PhaseCommit)
		}

	case PhaseCommit: // the kick substep
		if e.ownerLostBall(a) {
			e.failAction(a)
			return
		}
		from := st.Players[a.Owner].Pos
		st.Ball.kick(FlightParams{
			Origin:     from,
			Target:     a.Pass.TargetPos,
			SpeedM:     a.Pass.SpeedM,
			Curve:      a.Pass.Curve,
			VZ:         a.Pass.VZ,
			LaunchTick: st.Tick,
			Kicker:     a.Owner,
		})
		a.Pass.Kicked = true
		evType := EventPass
		if a.Pass.Technique == PassClearT {
			evType = EventClearance
		}
		ev := MatchEvent{
			Team: a.Owner.Side(), PlayerID: a.Owner,
			Player: e.playerConfig(a.Owner).Name,
			Type:   evType,
			X:      from.MetresX(), Y: from.MetresY(),
			Details: EventDetails{
				Technique:  passTechName(a.Pass.Technique),
				TargetName: e.targetName(a.Pass.Target),
			},
		}
		st.pushEvent(ev)
		// Offside is judged at the exact tick a through-pass is played.
		if a.Pass.Through {
			e.rules.onPassEmitted(e, snap, a)
			if a.Phase == PhaseFinished {
				return // offside called; rule dispatcher killed the action
			}
		}
		if a.Pass.Target != NoPlayer && !st.Players[a.Pass.Target].SentOff {
			st.setPlayerState(a.Pass.Target, StateReceiving)
		}
		st.setPlayerState(a.Owner, StateIdle)
		a.enterPhase(PhaseResolve)

	case PhaseResolve: // ball in flight / rolling toward target
		done, receiver := e.resolvePassArrival(a)
		if !done {
			return
		}
		if receiver != NoPlayer {
			if receiver.Side() == a.Owner.Side() {
				st.pushEvent(MatchEvent{
					Team: a.Owner.Side(), PlayerID: a.Owner,
					Player: e.playerConfig(a.Owner).Name,
					Type:   EventPassComplete,
					X:      st.Ball.Pos.MetresX(), Y: st.Ball.Pos.MetresY(),
				})
				if e.keyPassGeometry(receiver) {
					st.pushEvent(MatchEvent{
						Team: a.Owner.Side(), PlayerID: a.Owner,
						Player: e.playerConfig(a.Owner).Name,
						Type:   EventKeyPass,
						X:      st.Ball.Pos.MetresX(), Y: st.Ball.Pos.MetresY(),
					})
				}
			} else {
				st.pushEvent(MatchEvent{
					Team: receiver.Side(), PlayerID: receiver,
					Player: e.playerConfig(receiver).Name,
					Type:   EventInterception,
					X:      st.Ball.Pos.MetresX(), Y: st.Ball.Pos.MetresY(),
				})
				st.pushEvent(MatchEvent{
					Team: a.Owner.Side(), PlayerID: a.Owner,
					Player: e.playerConfig(a.Owner).Name,
					Type:   EventPassFail,
					X:      st.Ball.Pos.MetresX(), Y: st.Ball.Pos.MetresY(),
				})
			}
		} else if a.Pass.Technique != PassClearT {
			st.pushEvent(MatchEvent{
				Team: a.Owner.Side(), PlayerID: a.Owner,
				Player: e.playerConfig(a.Owner).Name,
				Type:   EventPassFail,
				X:      st.Ball.Pos.MetresX(), Y: st.Ball.Pos.MetresY(),
			})
		}
		// A receiver the ball never reached goes after it.
		if a.Pass.Target != NoPlayer && st.Players[a.Pass.Target].State == StateReceiving {
			if owner, ok := st.Ball.ControlledBy(); !ok || owner != a.Pass.Target {
				st.setPlayerState(a.Pass.Target, StateChasing)
			}
		}
		a.enterPhase(PhaseRecover)

	case PhaseRecover:
		if a.phaseTicks() >= 1 {
			a.enterPhase(PhaseCooldown)
		}

	case PhaseCooldown:
		if a.phaseTicks() >= CooldownTicks {
			a.enterPhase(PhaseFinished)
		}
	}
}

// resolvePassArrival samples the ball against body capsules each substep.
// Returns done when the flight ended; receiver NoPlayer means a loose ball.
func (e *Engine) resolvePassArrival(a *ActiveAction) (bool, PlayerID) {
	st := &e.state
	b := &st.Ball

	if owner, ok := b.ControlledBy(); ok {
		// Someone already gathered it via the touch pipeline.
		return true, owner
	}
	if b.State == BallOutOfPlay {
		return true, NoPlayer
	}
	if b.State == BallSettled {
		return true, NoPlayer
	}

	// Interceptor sampling: anyone inside the intercept radius with the
	// ball under reach height contests the touch.
	if b.HeightU <= 20 { // 2 m reach
		id, isOpponent := e.firstToucherNear(b.Pos, a.Owner)
		if id != NoPlayer {
			reach := InterceptRadius
			if !isOpponent && id == a.Pass.Target {
				reach = InterceptRadius + 0.4 // intended receiver adjusts best
			}
			if st.Players[id].Pos.DistM(b.Pos) <= reach {
				e.touchBall(id, a)
				return true, id
			}
		}
	}

	// Arrival zone reached without a touch: loose ball.
	if b.Pos.DistM(a.Pass.TargetPos) < 1.0 && b.State == BallRolling {
		return true, NoPlayer
	}
	return false, NoPlayer
}

// firstToucherNear finds the closest player able to touch the ball. Owner's
// team and opponents both qualify. An exact distance tie goes to the lower
// player id (home ids come first); no position hash is consulted here.
func (e *Engine) firstToucherNear(ball geom.Coord, kicker PlayerID) (PlayerID, bool) {
	best := NoPlayer
	bestSq := int64(1 << 62)
	for i := range e.state.Players {
		id := PlayerID(i)
		if id == kicker {
			continue
		}
		p := &e.state.Players[i]
		if p.SentOff || p.State == StateRecovering {
			continue
		}
		rSq := int64(InterceptRadius/geom.Unit) * int64(InterceptRadius/geom.Unit)
		d := p.Pos.DistSqU(ball)
		if d <= rSq && d < bestSq {
			bestSq = d
			best = id
		}
	}
	if best == NoPlayer {
		return NoPlayer, false
	}
	return best, best.Side() != kicker.Side()
}

// touchBall gives the toucher control or lets the pass run loose based on
// the frozen success probability.
func (e *Engine) touchBall(id PlayerID, a *ActiveAction) {
	st := &e.state
	draw := hash01(e.seed, st.Tick, id, subcaseDuel)
	clean := draw < a.Pass.SuccessProb || id.Side() != a.Owner.Side()
	if clean {
		st.Ball.control(id)
		st.Ball.Pos = st.Players[id].Pos
		st.setPlayerState(id, StateDribbling)
		e.setPossession(id.Side())
	} else {
		// Heavy touch: ball squirts on.
		st.Ball.release()
		st.setPlayerState(id, StateChasing)
	}
}

// keyPassGeometry: receiver inside the box or behind the defence.
func (e *Engine) keyPassGeometry(receiver PlayerID) bool {
	side := receiver.Side()
	attacksRight := e.state.HomeAttacksRight() == (side == Home)
	return geom.InPenaltyArea(e.state.Players[receiver].Pos, attacksRight)
}

func passTechName(t PassTechnique) string {
	switch t {
	case PassGround:
		return "ground"
	case PassDriven:
		return "driven"
	case PassLofted:
		return "lofted"
	case PassCrossT:
		return "cross"
	case PassThroughT:
		return "through"
	default:
		return "clear"
	}
}

// ---- Shot ----

func (e *Engine) stepShot(snap *TickSnapshot, a *ActiveAction) {
	st := &e.state
	switch a.Phase {
	case PhasePending:
		if e.ownerLostBall(a) {
			e.failAction(a)
			return
		}
		st.setPlayerState(a.Owner, StateShooting)
		a.enterPhase(PhaseApproach)

	case PhaseApproach: // windup; block-eligible
		if e.ownerLostBall(a) {
			e.failAction(a)
			return
		}
		if blocker := e.shotBlocker(a); blocker != NoPlayer {
			st.pushEvent(MatchEvent{
				Team: blocker.Side(), PlayerID: blocker,
				Player: e.playerConfig(blocker).Name,
				Type:   EventBlock,
				X:      st.Players[blocker].Pos.MetresX(),
				Y:      st.Players[blocker].Pos.MetresY(),
			})
			st.Ball.release()
			st.Ball.Vel = geom.VelFromMetres(0, 0)
			e.failAction(a)
			return
		}
		if a.phaseTicks() >= ShotWindupTicks {
			a.enterPhase(PhaseCommit)
		}

	case PhaseCommit: // the strike substep
		if e.ownerLostBall(a) {
			e.failAction(a)
			return
		}
		from := st.Players[a.Owner].Pos
		st.Ball.kick(FlightParams{
			Origin:     from,
			Target:     a.Shot.AimPos,
			SpeedM:     a.Shot.SpeedM,
			Curve:      a.Shot.Curve,
			VZ:         a.Shot.VZ,
			LaunchTick: st.Tick,
			Kicker:     a.Owner,
			Shot:       true,
		})
		// A struck shot is always at least airborne enough to beat feet.
		if st.Ball.State == BallRolling {
			st.Ball.State = BallInFlight
		}
		a.Shot.Struck = true
		st.pushEvent(MatchEvent{
			Team: a.Owner.Side(), PlayerID: a.Owner,
			Player: e.playerConfig(a.Owner).Name,
			Type:   EventShot,
			X:      from.MetresX(), Y: from.MetresY(),
			Details: EventDetails{XG: a.Shot.XG, Technique: shotTechName(a.Shot.Technique)},
		})
		e.stats.addShot(a.Owner.Side(), a.Shot.XG)
		st.setPlayerState(a.Owner, StateIdle)
		a.enterPhase(PhaseResolve)

	case PhaseResolve:
		// The ball-flight resolver owns the outcome; it finishes the action
		// when the ball crosses the line, is saved, or dies.
		if e.resolveShotFlight(a) {
			a.enterPhase(PhaseRecover)
		}

	case PhaseRecover:
		if a.phaseTicks() >= 1 {
			a.enterPhase(PhaseCooldown)
		}

	case PhaseCooldown:
		if a.phaseTicks() >= CooldownTicks {
			a.enterPhase(PhaseFinished)
		}
	}
}

// shotBlocker finds an opponent in the shooting lane during windup.
func (e *Engine) shotBlocker(a *ActiveAction) PlayerID {
	st := &e.state
	from := st.Players[a.Owner].Pos
	for i := range st.Players {
		id := PlayerID(i)
		if id.Side() == a.Owner.Side() || st.Players[i].SentOff {
			continue
		}
		p := st.Players[i].Pos
		if p.DistM(from) > 2.0 {
			continue
		}
		if distToSegmentM(p, from, a.Shot.AimPos) <= BodyRadius+0.3 {
			return id
		}
	}
	return NoPlayer
}

// resolveShotFlight is the BallFlightResolver: Goal / Wide / Woodwork /
// Save resolved at the goal-line crossing, never by a pre-draw.
func (e *Engine) resolveShotFlight(a *ActiveAction) bool {
	st := &e.state
	b := &st.Ball
	side := a.Owner.Side()
	attacksRight := st.HomeAttacksRight() == (side == Home)

	if b.State == BallOutOfPlay || b.State == BallSettled || b.State == BallControlled {
		return true // the rule dispatcher or a defender already ended it
	}

	goalLineX := geom.FieldLengthU
	crossed := b.Pos.X >= goalLineX
	if !attacksRight {
		goalLineX = 0
		crossed = b.Pos.X <= 0
	}
	if !crossed {
		// A shot drifting over the touchline is a plain exit.
		if !b.Pos.InField() {
			e.rules.onBallOut(e, side)
			return true
		}
		// Keeper save attempt once the ball is close to goal.
		keeper := e.keeperOf(side.Opponent())
		if keeper != NoPlayer && st.Players[keeper].Pos.DistM(b.Pos) <= 2.5 && b.HeightU <= 26 {
			if e.attemptSave(a, keeper) {
				return true
			}
		}
		return false
	}

	// Goal-line crossing: classify.
	onTargetY := float64(b.Pos.Y)*geom.Unit >= geom.GoalMouthMinYM &&
		float64(b.Pos.Y)*geom.Unit <= geom.GoalMouthMaxYM
	underBar := float64(b.HeightU)*geom.Unit <= geom.GoalHeightM
	nearPost := math.Abs(float64(b.Pos.Y)*geom.Unit-geom.GoalMouthMinYM) < 0.25 ||
		math.Abs(float64(b.Pos.Y)*geom.Unit-geom.GoalMouthMaxYM) < 0.25
	nearBar := onTargetY && math.Abs(float64(b.HeightU)*geom.Unit-geom.GoalHeightM) < 0.2

	cross := geom.Coord{X: goalLineX, Y: b.Pos.Y}
	switch {
	case (nearPost && underBar) || nearBar:
		st.pushEvent(MatchEvent{
			Team: side, PlayerID: a.Owner,
			Player: e.playerConfig(a.Owner).Name,
			Type:   EventWoodwork,
			X:      cross.MetresX(), Y: cross.MetresY(),
		})
		// Rebound back into play.
		vx, vy := b.Vel.Metres()
		b.Vel = geom.VelFromMetres(-vx*0.45, vy*0.45)
		b.Pos = cross
		b.State = BallBouncing
	case onTargetY && underBar:
		e.stats.addShotOnTarget(side)
		st.pushEvent(MatchEvent{
			Team: side, PlayerID: a.Owner,
			Player: e.playerConfig(a.Owner).Name,
			Type:   EventShotOnTarget,
			X:      cross.MetresX(), Y: cross.MetresY(),
			Details: EventDetails{XG: a.Shot.XG},
		})
		e.rules.onGoalLineCrossed(e, side, a.Owner, cross, true)
	default:
		e.rules.onGoalLineCrossed(e, side, a.Owner, cross, false)
	}
	return true
}

// attemptSave rolls the keeper's frozen save chance at the moment of
// contact. Returns true when the shot ended (saved or parried).
func (e *Engine) attemptSave(a *ActiveAction, keeper PlayerID) bool {
	st := &e.state
	kAttr := &e.playerConfig(keeper).Attr
	bal := &e.ctx.Balance
	p := clamp01(bal.SaveBase + bal.SaveReflexGain*skill01(kAttr.GKReflexes) -
		bal.SaveXGPenalty*a.Shot.XG + 0.1*skill01(kAttr.GKPositioning))
	draw := hash01(e.seed, st.Tick, keeper, subcaseSavePick)
	if draw >= p {
		return false // beaten; flight continues to the line
	}
	e.stats.addShotOnTarget(a.Owner.Side())
	e.stats.addSave(keeper.Side())
	st.pushEvent(MatchEvent{
		Team: keeper.Side(), PlayerID: keeper,
		Player: e.playerConfig(keeper).Name,
		Type:   EventSave,
		X:      st.Players[keeper].Pos.MetresX(),
		Y:      st.Players[keeper].Pos.MetresY(),
	})
	holdDraw := hash01(e.seed, st.Tick, keeper, subcaseSavePick+0x100)
	if holdDraw < bal.HoldBase+bal.HoldHandlingGain*skill01(kAttr.GKHandling) {
		st.Ball.control(keeper)
		st.Ball.Pos = st.Players[keeper].Pos
		st.setPlayerState(keeper, StateDribbling)
		e.setPossession(keeper.Side())
	} else {
		// Parry: ball loose in front.
		st.Ball.release()
		vx, vy := st.Ball.Vel.Metres()
		st.Ball.Vel = geom.VelFromMetres(-vx*0.3, vy*0.3)
		st.Ball.State = BallBouncing
	}
	return true
}

func (e *Engine) keeperOf(side TeamSide) PlayerID {
	start, _ := teamRange(side)
	if e.state.Players[start].SentOff {
		return NoPlayer
	}
	return start
}

func shotTechName(t ShotTechnique) string {
	switch t {
	case ShotPowerT:
		return "power"
	case ShotOneTouch:
		return "one_touch"
	case ShotVolley:
		return "volley"
	case ShotHeader:
		return "header"
	case ShotChipT:
		return "chip"
	default:
		return "normal"
	}
}

// ---- Dribble ----

func (e *Engine) stepDribble(snap *TickSnapshot, a *ActiveAction) {
	st := &e.state
	switch a.Phase {
	case PhasePending:
		if e.ownerLostBall(a) {
			e.failAction(a)
			return
		}
		st.setPlayerState(a.Owner, StateDribbling)
		a.enterPhase(PhaseCommit) // dribbles carry no approach phase

	case PhaseCommit:
		if e.ownerLostBall(a) {
			e.failAction(a)
			return
		}
		e.stepDribbleCycle(snap, a)
		// A dribble runs until superseded by a new decision or failure; the
		// MaxTicks guardrail and the per-sub-phase ceilings bound it.

	case PhaseResolve, PhaseRecover:
		a.enterPhase(PhaseCooldown)

	case PhaseCooldown:
		if a.phaseTicks() >= 1 {
			a.enterPhase(PhaseFinished)
		}
	}
}

// dribble sub-phase ceilings (substeps). Transitions are condition-driven;
// these only guard against a stuck cycle.
const (
	dribbleTouchMax = 2 * SubstepsPerTick
	dribbleCarryMax = 6 * SubstepsPerTick
	dribbleSyncMax  = 2 * SubstepsPerTick
	dribbleEvadeMax = 4 * SubstepsPerTick
	dribbleKnockMax = 5 * SubstepsPerTick
)

func (e *Engine) stepDribbleCycle(snap *TickSnapshot, a *ActiveAction) {
	st := &e.state
	d := &a.Dribble
	d.SubTick++
	owner := &st.Players[a.Owner]
	side := a.Owner.Side()
	pressure := snap.PressureOn(side, owner.Pos)

	sep := owner.Pos.DistM(st.Ball.Pos)

	switch d.SubPhase {
	case DribbleTouch:
		// Push the ball ahead along the carry direction. Knock-ons push to
		// the top of the separation band.
		dir := d.TargetPos
		push := DribbleMinSeparation + 0.5
		if d.Technique == DribKnockOn {
			push = DribbleMaxSeparation
		}
		st.Ball.Pos = owner.Pos.Lerp(dir, clamp01(push/maxF(owner.Pos.DistM(dir), 0.1)))
		d.Touches++
		d.SubPhase = DribbleCarry
		d.SubTick = 0

	case DribbleCarry:
		// Exit conditions first, countdown never.
		switch {
		case pressure > 0.55 && d.Intent == DribbleBeat:
			d.SubPhase = DribbleEvade
			d.SubTick = 0
		case pressure < 0.2 && d.Intent == DribbleProgress && d.Technique == DribKnockOn:
			d.SubPhase = DribbleKnockAndRun
			d.SubTick = 0
		case sep > DribbleMaxSeparation:
			d.SubPhase = DribbleSyncBall
			d.SubTick = 0
		case d.SubTick >= dribbleCarryMax:
			d.SubPhase = DribbleSyncBall
			d.SubTick = 0
		}

	case DribbleSyncBall:
		// Ball magnetized back into the control band.
		if sep <= DribbleControlRange || d.SubTick >= dribbleSyncMax {
			st.Ball.Pos = owner.Pos
			d.SubPhase = DribbleTouch
			d.SubTick = 0
		}

	case DribbleEvade:
		// A beat attempt: roll the duel against the nearest defender once.
		if d.SubTick == 1 {
			e.resolveBeatAttempt(snap, a)
			if a.Phase == PhaseFinished {
				return
			}
		}
		if d.SubTick >= dribbleEvadeMax {
			d.SubPhase = DribbleTouch
			d.SubTick = 0
		}

	case DribbleKnockAndRun:
		if pressure > 0.4 || d.SubTick >= dribbleKnockMax {
			d.SubPhase = DribbleSyncBall
			d.SubTick = 0
		}
	}

	// Keep the controlled ball glued inside the separation band.
	if st.Ball.State == BallControlled && sep > DribbleMaxSeparation {
		st.Ball.Pos = owner.Pos.Lerp(st.Ball.Pos, DribbleMaxSeparation/sep)
	}
}

// resolveBeatAttempt rolls dribbler vs the closing defender.
func (e *Engine) resolveBeatAttempt(snap *TickSnapshot, a *ActiveAction) {
	st := &e.state
	side := a.Owner.Side()
	defID := nearestOpponent(snap, a.Owner)
	if defID == NoPlayer {
		return
	}
	attr := &e.playerConfig(a.Owner).Attr
	dAttr := &e.playerConfig(defID).Attr
	p := clamp01(0.45 + 0.4*(0.6*skill01(attr.Dribbling)+0.4*skill01(attr.Agility)) -
		0.4*(0.6*skill01(dAttr.Tackling)+0.4*skill01(dAttr.Positioning)))
	draw := hash01(e.seed, st.Tick, a.Owner, subcaseDribbleTouch)
	if draw < p {
		return // beaten him; carry on
	}
	// Lost it: defender pokes the ball loose.
	st.Ball.release()
	st.setPlayerState(a.Owner, StateChasing)
	st.setPlayerState(defID, StateChasing)
	e.setPossession(side.Opponent())
	e.failAction(a)
}

// ---- Tackle ----

func (e *Engine) stepTackle(snap *TickSnapshot, a *ActiveAction) {
	st := &e.state
	t := &a.Tackle
	victim := &st.Players[t.Victim]

	switch a.Phase {
	case PhasePending:
		st.setPlayerState(a.Owner, StateDefending)
		a.enterPhase(PhaseApproach)

	case PhaseApproach:
		// Victim no longer on the ball: the challenge is moot.
		if owner, ok := st.Ball.ControlledBy(); !ok || owner != t.Victim {
			e.failAction(a)
			return
		}
		if st.Players[a.Owner].Pos.DistM(victim.Pos) <= 1.4 {
			a.enterPhase(PhaseCommit)
			return
		}
		if a.phaseTicks() >= TackleApproachMax {
			e.failAction(a)
		}

	case PhaseCommit:
		if a.phaseTicks() >= TackleCommitTicks {
			a.enterPhase(PhaseResolve)
		}

	case PhaseResolve:
		if !t.Resolved {
			t.Resolved = true
			e.resolveTackleContact(a)
		}
		a.enterPhase(PhaseRecover)

	case PhaseRecover:
		limit := TackleRecoverOK
		if !t.Won {
			limit = TackleRecoverFail
		}
		if a.phaseTicks() >= limit {
			st.setPlayerState(a.Owner, StateIdle)
			a.enterPhase(PhaseCooldown)
		}

	case PhaseCooldown:
		if a.phaseTicks() >= CooldownTicks {
			a.enterPhase(PhaseFinished)
		}
	}
}

func (e *Engine) resolveTackleContact(a *ActiveAction) {
	st := &e.state
	t := &a.Tackle
	side := a.Owner.Side()

	// Foul roll is independent of the win roll.
	foulDraw := hash01(e.seed, st.Tick, a.Owner, subcaseFoul)
	if foulDraw < t.FoulProb {
		t.Fouled = true
		e.rules.onTackleFoul(e, a)
		return
	}

	winDraw := hash01(e.seed, st.Tick, a.Owner, subcaseTackleOutcome)
	if winDraw < t.WinProb {
		t.Won = true
		st.pushEvent(MatchEvent{
			Team: side, PlayerID: a.Owner,
			Player: e.playerConfig(a.Owner).Name,
			Type:   EventTackle,
			X:      st.Players[a.Owner].Pos.MetresX(),
			Y:      st.Players[a.Owner].Pos.MetresY(),
			Details: EventDetails{Outcome: "won", Technique: tackleTechName(t.Technique)},
		})
		if t.Technique == TacklePokeAway {
			st.Ball.release()
			st.setPlayerState(a.Owner, StateChasing)
		} else {
			st.Ball.control(a.Owner)
			st.Ball.Pos = st.Players[a.Owner].Pos
			st.setPlayerState(a.Owner, StateDribbling)
		}
		st.setPlayerState(t.Victim, StateRecovering)
		e.setPossession(side)
	} else {
		st.pushEvent(MatchEvent{
			Team: side, PlayerID: a.Owner,
			Player: e.playerConfig(a.Owner).Name,
			Type:   EventTackle,
			X:      st.Players[a.Owner].Pos.MetresX(),
			Y:      st.Players[a.Owner].Pos.MetresY(),
			Details: EventDetails{Outcome: "lost", Technique: tackleTechName(t.Technique)},
		})
		if t.Technique == TackleSliding {
			st.setPlayerState(a.Owner, StateRecovering)
		}
	}
}

func tackleTechName(t TackleTechnique) string {
	switch t {
	case TackleSliding:
		return "sliding"
	case TackleShoulder:
		return "shoulder"
	case TacklePokeAway:
		return "poke"
	default:
		return "standing"
	}
}

// ---- Set piece ----

func (e *Engine) stepSetPiece(snap *TickSnapshot, a *ActiveAction) {
	st := &e.state
	sp := &a.SetPiece
	switch a.Phase {
	case PhasePending:
		st.setPlayerState(a.Owner, StateIdle)
		a.enterPhase(PhaseApproach) // Setup: players reposition

	case PhaseApproach:
		if a.phaseTicks() >= int(sp.SetupTicks) {
			a.enterPhase(PhaseCommit)
		}

	case PhaseCommit: // Delivery
		if sp.Restart == RestartPenalty {
			e.resolvePenaltyKick(a)
			a.enterPhase(PhaseResolve)
			return
		}
		speed, curve, vz := deliveryPhysics(sp.Restart, st.Ball.Pos.DistM(sp.TargetPos))
		from := st.Ball.Pos
		st.Ball.kick(FlightParams{
			Origin:     from,
			Target:     sp.TargetPos,
			SpeedM:     speed,
			Curve:      curve,
			VZ:         vz,
			LaunchTick: st.Tick,
			Kicker:     a.Owner,
		})
		sp.Delivered = true
		// Kicked restarts read as passes in the timeline; the throw-in
		// already got its own event at the ruling.
		if sp.Restart != RestartThrowIn {
			st.pushEvent(MatchEvent{
				Team: a.Owner.Side(), PlayerID: a.Owner,
				Player: e.playerConfig(a.Owner).Name,
				Type:   EventPass,
				X:      from.MetresX(), Y: from.MetresY(),
				Details: EventDetails{Restart: sp.Restart.String()},
			})
		}
		st.Mode = ModeNormal
		a.enterPhase(PhaseResolve)

	case PhaseResolve: // Contest
		if sp.Restart == RestartPenalty {
			a.enterPhase(PhaseRecover)
			return
		}
		if e.resolveDeliveryContest(a) {
			a.enterPhase(PhaseRecover)
		}

	case PhaseRecover:
		a.enterPhase(PhaseCooldown)

	case PhaseCooldown:
		if a.phaseTicks() >= CooldownTicks {
			a.enterPhase(PhaseFinished)
		}
	}
}

func deliveryPhysics(r RestartType, distM float64) (float64, HeightCurve, float64) {
	switch r {
	case RestartThrowIn:
		return clampF(6+distM*0.5, 6, 14), CurveLofted, 3.0
	case RestartCorner:
		return 22, CurveLofted, 5.5
	case RestartGoalKick:
		return 28, CurveLofted, 7.0
	case RestartFreeKickDirect, RestartFreeKickIndirect:
		return clampF(12+distM*0.4, 14, 26), CurveLofted, 4.5
	default: // kick off
		return 10, CurveFlat, 0
	}
}

// resolveDeliveryContest: aerial duel at the landing zone.
func (e *Engine) resolveDeliveryContest(a *ActiveAction) bool {
	st := &e.state
	b := &st.Ball
	if owner, ok := b.ControlledBy(); ok {
		_ = owner
		return true
	}
	if b.State == BallOutOfPlay || b.State == BallSettled {
		return true
	}
	if b.HeightU > 25 {
		return false // still above everyone
	}
	// Nearest player from each side near the drop contests it.
	att, _ := e.stateClosest(a.Owner.Side(), b.Pos)
	def, _ := e.stateClosest(a.Owner.Side().Opponent(), b.Pos)
	if att == NoPlayer && def == NoPlayer {
		return false
	}
	reachSq := int64(InterceptRadius/geom.Unit) * int64(InterceptRadius/geom.Unit)
	attIn := att != NoPlayer && st.Players[att].Pos.DistSqU(b.Pos) <= reachSq
	defIn := def != NoPlayer && st.Players[def].Pos.DistSqU(b.Pos) <= reachSq
	switch {
	case attIn && defIn:
		winner := e.resolveAerialDuel(att, def)
		st.Ball.control(winner)
		st.Ball.Pos = st.Players[winner].Pos
		st.setPlayerState(winner, StateDribbling)
		e.setPossession(winner.Side())
		return true
	case attIn:
		st.Ball.control(att)
		st.Ball.Pos = st.Players[att].Pos
		st.setPlayerState(att, StateDribbling)
		e.setPossession(att.Side())
		return true
	case defIn:
		st.Ball.control(def)
		st.Ball.Pos = st.Players[def].Pos
		st.setPlayerState(def, StateDribbling)
		e.setPossession(def.Side())
		return true
	}
	return false
}

// resolveAerialDuel: jumping reach + heading + strength, one hash draw.
func (e *Engine) resolveAerialDuel(a, b PlayerID) PlayerID {
	aAttr := &e.playerConfig(a).Attr
	bAttr := &e.playerConfig(b).Attr
	scoreA := 0.4*skill01(aAttr.JumpingReach) + 0.4*skill01(aAttr.Heading) + 0.2*skill01(aAttr.Strength)
	scoreB := 0.4*skill01(bAttr.JumpingReach) + 0.4*skill01(bAttr.Heading) + 0.2*skill01(bAttr.Strength)
	p := clamp01(0.5 + (scoreA-scoreB)*0.8)
	if hash01(e.seed, e.state.Tick, a, subcaseDuel) < p {
		return a
	}
	return b
}

// resolvePenaltyKick: shooter composure vs keeper reflexes, single draw.
func (e *Engine) resolvePenaltyKick(a *ActiveAction) {
	st := &e.state
	side := a.Owner.Side()
	attacksRight := st.HomeAttacksRight() == (side == Home)
	keeper := e.keeperOf(side.Opponent())
	attr := &e.playerConfig(a.Owner).Attr
	bal := &e.ctx.Balance

	p := bal.PenaltyBase + bal.PenaltySkillGain*skill01(attr.Penalties) +
		bal.PenaltyComposureGain*skill01(attr.Composure)
	if keeper != NoPlayer {
		kAttr := &e.playerConfig(keeper).Attr
		p -= bal.PenaltyKeeperDrag * skill01(kAttr.GKReflexes)
	}
	p = clamp01(p)

	spot := st.Ball.Pos
	st.pushEvent(MatchEvent{
		Team: side, PlayerID: a.Owner,
		Player: e.playerConfig(a.Owner).Name,
		Type:   EventShot,
		X:      spot.MetresX(), Y: spot.MetresY(),
		Details: EventDetails{XG: 0.78, Penalty: true},
	})
	e.stats.addShot(side, 0.78)
	st.Mode = ModeNormal

	draw := hash01(e.seed, st.Tick, a.Owner, subcaseSetPiece)
	goal := geom.GoalCentre(attacksRight)
	if draw < p {
		e.stats.addShotOnTarget(side)
		st.pushEvent(MatchEvent{
			Team: side, PlayerID: a.Owner,
			Player: e.playerConfig(a.Owner).Name,
			Type:   EventShotOnTarget,
			X:      goal.MetresX(), Y: goal.MetresY(),
			Details: EventDetails{Penalty: true},
		})
		e.awardGoal(side, a.Owner, goal, false)
	} else {
		// Saved or wide: coin on bit 15 of the same decision hash.
		saved := decisionHash(e.seed, st.Tick, a.Owner, subcaseSetPiece)&0x8000 != 0
		if saved && keeper != NoPlayer {
			e.stats.addShotOnTarget(side)
			e.stats.addSave(keeper.Side())
			st.pushEvent(MatchEvent{
				Team: keeper.Side(), PlayerID: keeper,
				Player: e.playerConfig(keeper).Name,
				Type:   EventSave,
				X:      goal.MetresX(), Y: goal.MetresY(),
				Details: EventDetails{Penalty: true},
			})
			st.Ball.release()
			st.Ball.State = BallBouncing
		} else {
			e.scheduleRestart(RestartGoalKick, side.Opponent(), goalKickSpot(!attacksRight))
		}
	}
}

func (e *Engine) stateClosest(side TeamSide, c geom.Coord) (PlayerID, float64) {
	best := NoPlayer
	bestSq := int64(1 << 62)
	start, end := teamRange(side)
	for id := start; id < end; id++ {
		if e.state.Players[id].SentOff {
			continue
		}
		d := e.state.Players[id].Pos.DistSqU(c)
		if d < bestSq {
			bestSq = d
			best = id
		}
	}
	if best == NoPlayer {
		return NoPlayer, 0
	}
	return best, math.Sqrt(float64(bestSq)) * geom.Unit
}

func distToSegmentM(p, a, b geom.Coord) float64 {
	px, py := p.Metres()
	ax, ay := a.Metres()
	bx, by := b.Metres()
	dx, dy := bx-ax, by-ay
	lenSq := dx*dx + dy*dy
	if lenSq < 1e-9 {
		return p.DistM(a)
	}
	t := ((px-ax)*dx + (py-ay)*dy) / lenSq
	t = clamp01(t)
	cx, cy := ax+t*dx, ay+t*dy
	ddx, ddy := px-cx, py-cy
	return math.Sqrt(ddx*ddx + ddy*ddy)
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
