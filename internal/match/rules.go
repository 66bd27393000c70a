package match

import (
	"fmt"

	"matchday/internal/match/geom"
)

// Rule dispatcher: Laws 9-17 applied at specific trigger points
// (pass-emitted, tackle-contact, line-crossing, half boundaries). Every
// ruling is a RuleDecision with its rationale, kept for replay and "why"
// payloads. An A/B mode runs a legacy and a new implementation side by side
// and records divergence while only one of them is applied.

// RuleDecision is one ruling with its rationale.
type RuleDecision struct {
	Tick      uint64 `json:"tick"`
	Law       string `json:"law"`
	Ruling    string `json:"ruling"`
	Rationale string `json:"rationale"`
	Divergent bool   `json:"divergent,omitempty"` // A/B implementations disagreed
}

// RuleMode selects which implementation applies decisions.
type RuleMode uint8

const (
	// RuleModeCurrent applies only the current logic.
	RuleModeCurrent RuleMode = iota
	// RuleModeAB runs legacy and current, applies current, records
	// divergence.
	RuleModeAB
)

type ruleDispatcher struct {
	mode      RuleMode
	decisions []RuleDecision
}

func newRuleDispatcher(mode RuleMode) *ruleDispatcher {
	return &ruleDispatcher{mode: mode}
}

func (r *ruleDispatcher) record(tick uint64, law, ruling, rationale string, divergent bool) {
	r.decisions = append(r.decisions, RuleDecision{
		Tick: tick, Law: law, Ruling: ruling, Rationale: rationale, Divergent: divergent,
	})
}

// onPassEmitted: Law 11. Offside is judged at the exact tick a through pass
// is played, never continuously. A receiver past the second-last defender
// (and past halfway, and past the ball) at release is offside.
func (r *ruleDispatcher) onPassEmitted(e *Engine, snap *TickSnapshot, a *ActiveAction) {
	side := a.Owner.Side()
	target := a.Pass.Target
	if target == NoPlayer {
		return
	}

	current := offsideCurrent(snap, side, target)
	ruling := "onside"
	divergent := false
	if r.mode == RuleModeAB {
		legacy := offsideLegacy(snap, side, target)
		divergent = legacy != current
	}
	if current {
		ruling = "offside"
	}
	r.record(snap.Tick, "law11", ruling, fmt.Sprintf(
		"receiver %d vs second-last defender x=%d at release",
		target, snap.SecondLastDefenderX(side)), divergent)

	if !current {
		return
	}

	st := &e.state
	pos := st.Players[target].Pos
	st.pushEvent(MatchEvent{
		Team: side, PlayerID: target,
		Player: e.playerConfig(target).Name,
		Type:   EventOffside,
		X:      pos.MetresX(), Y: pos.MetresY(),
	})
	e.stats.addOffside(side)
	// Indirect free kick to the defending team where the receiver stood.
	e.scheduleRestart(RestartFreeKickIndirect, side.Opponent(), pos)
	st.Ball.outOfPlay(RestartFreeKickIndirect, side.Opponent(), pos)
	a.enterPhase(PhaseFinished)
	e.state.setPlayerState(a.Owner, StateIdle)
}

// offsideCurrent is the applied Law 11 logic.
func offsideCurrent(snap *TickSnapshot, attacking TeamSide, receiver PlayerID) bool {
	attacksRight := snap.AttacksRight(attacking)
	rx := snap.Players[receiver].Pos.X
	lineX := snap.SecondLastDefenderX(attacking)
	ballX := snap.Ball.Pos.X
	half := geom.FieldLengthU / 2

	if attacksRight {
		return rx > lineX && rx > ballX && rx > half
	}
	return rx < lineX && rx < ballX && rx < half
}

// offsideLegacy is the pre-rework logic kept for A/B comparison: it ignored
// the ball-position clause.
func offsideLegacy(snap *TickSnapshot, attacking TeamSide, receiver PlayerID) bool {
	attacksRight := snap.AttacksRight(attacking)
	rx := snap.Players[receiver].Pos.X
	lineX := snap.SecondLastDefenderX(attacking)
	half := geom.FieldLengthU / 2
	if attacksRight {
		return rx > lineX && rx > half
	}
	return rx < lineX && rx < half
}

// onTackleFoul: Law 12. The foul already rolled true; here severity, card,
// and restart type are decided.
func (r *ruleDispatcher) onTackleFoul(e *Engine, a *ActiveAction) {
	st := &e.state
	t := &a.Tackle
	side := a.Owner.Side()
	victimSide := t.Victim.Side()
	spot := st.Players[t.Victim].Pos

	attacksRight := st.HomeAttacksRight() == (victimSide == Home)
	penalty := geom.InPenaltyArea(spot, attacksRight)

	// Severity from the technique and a seeded draw.
	sevDraw := hash01(e.seed, st.Tick, a.Owner, subcaseCard)
	severity := sevDraw
	if t.Technique == TackleSliding {
		severity += 0.25
	}

	restart := RestartFreeKickDirect
	if penalty {
		restart = RestartPenalty
	}

	r.record(st.Tick, "law12", "foul", fmt.Sprintf(
		"technique=%s severity=%.2f penalty_area=%v", tackleTechName(t.Technique), severity, penalty), false)

	st.pushEvent(MatchEvent{
		Team: side, PlayerID: a.Owner,
		Player: e.playerConfig(a.Owner).Name,
		Type:   EventFoul,
		X:      spot.MetresX(), Y: spot.MetresY(),
		Details: EventDetails{Penalty: penalty, Restart: restart.String()},
	})
	e.stats.addFoul(side)

	// Cards.
	bal := &e.ctx.Balance
	switch {
	case severity > bal.RedSeverity:
		st.pushEvent(MatchEvent{
			Team: side, PlayerID: a.Owner,
			Player: e.playerConfig(a.Owner).Name,
			Type:   EventCardRed,
			X:      spot.MetresX(), Y: spot.MetresY(),
		})
		st.Players[a.Owner].SentOff = true
		r.record(st.Tick, "law12", "red_card", "serious foul play", false)
	case severity > bal.YellowSeverity:
		st.pushEvent(MatchEvent{
			Team: side, PlayerID: a.Owner,
			Player: e.playerConfig(a.Owner).Name,
			Type:   EventCardYellow,
			X:      spot.MetresX(), Y: spot.MetresY(),
		})
		st.Players[a.Owner].Yellows++
		if st.Players[a.Owner].Yellows >= 2 {
			st.pushEvent(MatchEvent{
				Team: side, PlayerID: a.Owner,
				Player: e.playerConfig(a.Owner).Name,
				Type:   EventCardRed,
				X:      spot.MetresX(), Y: spot.MetresY(),
				Details: EventDetails{Outcome: "second_yellow"},
			})
			st.Players[a.Owner].SentOff = true
			r.record(st.Tick, "law12", "red_card", "second yellow", false)
		} else {
			r.record(st.Tick, "law12", "yellow_card", "reckless challenge", false)
		}
	}

	if penalty {
		st.pushEvent(MatchEvent{
			Team: victimSide, PlayerID: t.Victim,
			Player: e.playerConfig(t.Victim).Name,
			Type:   EventPenaltyAwarded,
			X:      spot.MetresX(), Y: spot.MetresY(),
		})
		spot = geom.PenaltySpot(attacksRight)
	}

	e.scheduleRestart(restart, victimSide, spot)
	st.Ball.outOfPlay(restart, victimSide, spot)
	st.setPlayerState(t.Victim, StateRecovering)
	e.failAction(a)
}

// onGoalLineCrossed: Laws 9/10. Called by the ball-flight resolver for
// shots; other exits go through onBallOut.
// onTarget marks a crossing inside the mouth under the bar.
func (r *ruleDispatcher) onGoalLineCrossed(e *Engine, shooterSide TeamSide, shooter PlayerID, at geom.Coord, onTarget bool) {
	st := &e.state
	if onTarget {
		r.record(st.Tick, "law10", "goal", "ball wholly crossed the line between the posts", false)
		e.awardGoal(shooterSide, shooter, at, false)
		return
	}
	attacksRight := st.HomeAttacksRight() == (shooterSide == Home)
	r.record(st.Tick, "law9", "goal_kick", "shot wide over the goal line", false)
	e.scheduleRestart(RestartGoalKick, shooterSide.Opponent(), goalKickSpot(!attacksRight))
	st.Ball.outOfPlay(RestartGoalKick, shooterSide.Opponent(), goalKickSpot(!attacksRight))
}

// onBallOut: Law 9 for non-shot exits: throw-in, corner, goal kick.
func (r *ruleDispatcher) onBallOut(e *Engine, lastTouch TeamSide) {
	st := &e.state
	b := &st.Ball
	pos := b.Pos

	// Side lines: throw-in to the other team.
	if pos.Y <= 0 || pos.Y >= geom.FieldWidthU {
		spot := pos.ClampToField()
		by := lastTouch.Opponent()
		r.record(st.Tick, "law15", "throw_in", "ball crossed the touchline", false)
		st.pushEvent(MatchEvent{
			Team: by, Type: EventThrowIn,
			X: spot.MetresX(), Y: spot.MetresY(),
		})
		e.scheduleRestart(RestartThrowIn, by, spot)
		b.outOfPlay(RestartThrowIn, by, spot)
		return
	}

	// Goal lines: corner or goal kick depending on who touched last.
	overLeft := pos.X <= 0
	defendingLeft := Home
	if !st.HomeAttacksRight() {
		defendingLeft = Away
	}
	defending := defendingLeft
	if !overLeft {
		defending = defendingLeft.Opponent()
	}
	attacking := defending.Opponent()

	if lastTouch == defending {
		// Corner to the attacking team, nearest corner flag.
		cx := int32(0)
		if !overLeft {
			cx = geom.FieldLengthU
		}
		cy := int32(0)
		if pos.Y > geom.FieldWidthU/2 {
			cy = geom.FieldWidthU
		}
		spot := geom.Coord{X: cx, Y: cy}
		r.record(st.Tick, "law17", "corner", "defending team touched last", false)
		st.pushEvent(MatchEvent{
			Team: attacking, Type: EventCorner,
			X: spot.MetresX(), Y: spot.MetresY(),
		})
		e.stats.addCorner(attacking)
		e.scheduleRestart(RestartCorner, attacking, spot)
		b.outOfPlay(RestartCorner, attacking, spot)
		return
	}

	spot := goalKickSpot(defending == defendingLeft)
	r.record(st.Tick, "law16", "goal_kick", "attacking team touched last", false)
	st.pushEvent(MatchEvent{
		Team: defending, Type: EventGoalKick,
		X: spot.MetresX(), Y: spot.MetresY(),
	})
	e.scheduleRestart(RestartGoalKick, defending, spot)
	b.outOfPlay(RestartGoalKick, defending, spot)
}

// goalKickSpot: the six-yard box edge in front of the goal on the left
// (leftGoal) or right end.
func goalKickSpot(leftGoal bool) geom.Coord {
	x := int32(geom.SixYardDepthM / geom.Unit)
	if !leftGoal {
		x = geom.FieldLengthU - x
	}
	return geom.Coord{X: x, Y: geom.FieldWidthU / 2}
}

// Decisions returns the recorded rulings.
func (r *ruleDispatcher) Decisions() []RuleDecision { return r.decisions }
