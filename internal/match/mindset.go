package match

import (
	"matchday/internal/match/geom"
)

// Gate A: the mindset filter. Mindset is determined purely by situation
// attributes (possession, ball zone, score state, minute, role) — never by
// player ability — and yields the allowed candidate set. Anything outside
// that set is discarded before scoring.

// GamePhase is the team-level possession phase.
type GamePhase uint8

const (
	PhaseAttacking GamePhase = iota
	PhaseDefending
	PhaseTransitionWin
	PhaseTransitionLoss
)

// PlayerMindset constrains what a player is even looking at this tick.
type PlayerMindset uint8

const (
	MindsetAttackingCarrier PlayerMindset = iota
	MindsetAttackingSupport
	MindsetBuildupKeeper
	MindsetLinkPlayer
	MindsetSpaceAttacker
	MindsetLurker
	MindsetShapeHolder
	MindsetPresser
	MindsetMarker
	MindsetCoverDefender
	MindsetGoalkeeperAttentive
)

func (m PlayerMindset) String() string {
	switch m {
	case MindsetAttackingCarrier:
		return "attacking_carrier"
	case MindsetAttackingSupport:
		return "attacking_support"
	case MindsetBuildupKeeper:
		return "buildup_keeper"
	case MindsetLinkPlayer:
		return "link_player"
	case MindsetSpaceAttacker:
		return "space_attacker"
	case MindsetLurker:
		return "lurker"
	case MindsetShapeHolder:
		return "shape_holder"
	case MindsetPresser:
		return "presser"
	case MindsetMarker:
		return "marker"
	case MindsetCoverDefender:
		return "cover_defender"
	case MindsetGoalkeeperAttentive:
		return "goalkeeper_attentive"
	default:
		return "unknown"
	}
}

// gamePhaseFor derives the team phase from the snapshot. Transition phases
// cover the first ticks after a possession flip; the engine feeds
// ticksSinceFlip from its bookkeeping.
func gamePhaseFor(snap *TickSnapshot, side TeamSide, ticksSinceFlip uint64) GamePhase {
	inPossession := snap.Possession == side
	if ticksSinceFlip < 8 {
		if inPossession {
			return PhaseTransitionWin
		}
		return PhaseTransitionLoss
	}
	if inPossession {
		return PhaseAttacking
	}
	return PhaseDefending
}

// determineMindset classifies one player's situation.
func determineMindset(snap *TickSnapshot, id PlayerID, role Role, phase GamePhase) PlayerMindset {
	if role == Goalkeeper {
		if snap.Ball.HasOwner && snap.Ball.Owner == id {
			return MindsetBuildupKeeper
		}
		return MindsetGoalkeeperAttentive
	}

	side := id.Side()
	hasBall := snap.Ball.HasOwner && snap.Ball.Owner == id

	switch phase {
	case PhaseAttacking, PhaseTransitionWin:
		if hasBall {
			return MindsetAttackingCarrier
		}
		ballZone := geom.CoarseZoneOf(snap.Ball.Pos, snap.AttacksRight(side))
		dist := snap.BallDistM(id)
		switch {
		case dist <= 15:
			return MindsetAttackingSupport
		case ballZone.Third() == 2 && (role == Striker || role == Winger):
			return MindsetLurker
		case ballZone.Third() >= 1 && (role == AttackingMid || role == Striker || role == Winger):
			return MindsetSpaceAttacker
		case role == CentralMid || role == WideMid || role == DefensiveMid:
			return MindsetLinkPlayer
		default:
			return MindsetShapeHolder
		}

	default: // PhaseDefending, PhaseTransitionLoss
		dist := snap.BallDistM(id)
		switch {
		case dist <= 10:
			return MindsetPresser
		case dist <= 25 && role.IsDefender():
			return MindsetMarker
		case role.IsDefender() || role == DefensiveMid:
			return MindsetCoverDefender
		default:
			return MindsetShapeHolder
		}
	}
}

// candidate is a Gate-A product: an allowed action with its bucketed key.
type candidate struct {
	Kind      IntentKind
	Target    PlayerID   // receiver for passes, victim for tackles
	TargetPos geom.Coord // where the action is aimed
	Key       CandidateKey
}

func makeCandidate(snap *TickSnapshot, side TeamSide, kind IntentKind, target PlayerID, pos geom.Coord, power PowerBucket) candidate {
	return candidate{
		Kind:      kind,
		Target:    target,
		TargetPos: pos,
		Key: CandidateKey{
			Kind:  kind,
			Zone:  geom.TacticalZoneOf(pos, snap.AttacksRight(side)),
			Power: power,
		},
	}
}

// buildCandidates expands a mindset into the allowed candidate set.
// On-ball mindsets aim actions; defensive mindsets aim at the carrier or
// lanes. Pure over the snapshot.
func buildCandidates(snap *TickSnapshot, id PlayerID, mindset PlayerMindset, ins TeamInstructions) []candidate {
	side := id.Side()
	attacksRight := snap.AttacksRight(side)
	self := &snap.Players[id]
	goal := geom.GoalCentre(attacksRight)

	var out []candidate

	switch mindset {
	case MindsetAttackingCarrier, MindsetBuildupKeeper:
		goalDist := self.Pos.DistM(goal)

		// Shoot: only sensible inside ~30 m.
		if goalDist <= 30 && mindset == MindsetAttackingCarrier {
			out = append(out, makeCandidate(snap, side, IntentShoot, NoPlayer, goal, powerForShot(goalDist)))
		}

		// Passes to every teammate, bucketed by geometry.
		start, end := teamRange(side)
		for tid := start; tid < end; tid++ {
			if tid == id || snap.Players[tid].SentOff {
				continue
			}
			tpos := snap.Players[tid].Pos
			d := self.Pos.DistM(tpos)
			if d < 2 || d > 60 {
				continue
			}
			kind := IntentPassShort
			power := PowerSoft
			switch {
			case d > 30:
				kind = IntentPassLong
				power = PowerHard
			case isThroughLane(snap, side, tpos):
				kind = IntentPassThrough
				power = PowerMedium
			case isCrossPosition(self.Pos, tpos, attacksRight):
				kind = IntentPassCross
				power = PowerMedium
			case d > 14:
				power = PowerMedium
			}
			out = append(out, makeCandidate(snap, side, kind, tid, tpos, power))
		}

		// Dribbles.
		if mindset == MindsetAttackingCarrier {
			pressure := snap.PressureOn(side, self.Pos)
			ahead := advanceCoord(self.Pos, attacksRight, 8)
			out = append(out, makeCandidate(snap, side, IntentDribbleProgress, NoPlayer, ahead, PowerSoft))
			if pressure > 0.3 {
				out = append(out, makeCandidate(snap, side, IntentDribbleProtect, NoPlayer, self.Pos, PowerSoft))
				out = append(out, makeCandidate(snap, side, IntentDribbleBeat, NoPlayer, advanceCoord(self.Pos, attacksRight, 5), PowerMedium))
			}
			out = append(out, makeCandidate(snap, side, IntentHoldBall, NoPlayer, self.Pos, PowerSoft))
		}

		// Clear: pressured deep in own third.
		ownThird := geom.CoarseZoneOf(self.Pos, attacksRight).Third() == 0
		if ownThird && snap.PressureOn(side, self.Pos) > 0.4 {
			out = append(out, makeCandidate(snap, side, IntentClear, NoPlayer, advanceCoord(self.Pos, attacksRight, 40), PowerHard))
		}

	case MindsetPresser:
		carrierPos := snap.Ball.Pos
		dist := snap.BallDistM(id)
		if snap.Ball.HasOwner && dist <= 3.0 {
			out = append(out, makeCandidate(snap, side, IntentTackle, snap.Ball.Owner, carrierPos, PowerMedium))
		}
		if !snap.Ball.HasOwner && snap.Ball.State != BallOutOfPlay {
			out = append(out, makeCandidate(snap, side, IntentIntercept, NoPlayer, snap.Ball.Pos, PowerSoft))
		}
		out = append(out, makeCandidate(snap, side, IntentPress, NoPlayer, carrierPos, PowerSoft))
		out = append(out, makeCandidate(snap, side, IntentContain, NoPlayer, containPoint(snap, side, carrierPos), PowerSoft))

	case MindsetMarker:
		// Mark the nearest opponent to self (excluding the carrier, whom
		// the presser handles).
		opp := nearestOpponent(snap, id)
		if opp != NoPlayer {
			out = append(out, makeCandidate(snap, side, IntentCover, opp, snap.Players[opp].Pos, PowerSoft))
		}
		out = append(out, makeCandidate(snap, side, IntentContain, NoPlayer, containPoint(snap, side, snap.Ball.Pos), PowerSoft))

	case MindsetCoverDefender:
		out = append(out, makeCandidate(snap, side, IntentCover, NoPlayer, coverPoint(snap, side), PowerSoft))
		if ins.PressIntensity == PressHigh {
			out = append(out, makeCandidate(snap, side, IntentPress, NoPlayer, snap.Ball.Pos, PowerSoft))
		}

	case MindsetGoalkeeperAttentive:
		// Hold the line between ball and goal.
		out = append(out, makeCandidate(snap, side, IntentCover, NoPlayer, keeperPoint(snap, side), PowerSoft))
		if !snap.Ball.HasOwner && snap.BallDistM(id) < 5 && snap.Ball.State != BallOutOfPlay {
			out = append(out, makeCandidate(snap, side, IntentIntercept, NoPlayer, snap.Ball.Pos, PowerSoft))
		}

	default:
		// Off-ball attacking mindsets resolve through the objective system;
		// Gate A only emits the movement intent placeholder.
		out = append(out, makeCandidate(snap, side, IntentMove, NoPlayer, self.Pos, PowerSoft))
	}

	return out
}

func powerForShot(goalDist float64) PowerBucket {
	if goalDist > 20 {
		return PowerHard
	}
	return PowerMedium
}

// isThroughLane: target near the offside line, from 3 m short of it to 1 m
// past it in the attack direction.
func isThroughLane(snap *TickSnapshot, side TeamSide, tpos geom.Coord) bool {
	lineX := snap.SecondLastDefenderX(side)
	if snap.AttacksRight(side) {
		return tpos.X >= lineX-30 && tpos.X <= lineX+10
	}
	return tpos.X <= lineX+30 && tpos.X >= lineX-10
}

// isCrossPosition: kicker wide in the final third, target central.
func isCrossPosition(from, to geom.Coord, attacksRight bool) bool {
	finalThird := from.X > geom.FieldLengthU*2/3
	if !attacksRight {
		finalThird = from.X < geom.FieldLengthU/3
	}
	wide := from.Y < geom.FieldWidthU/4 || from.Y > geom.FieldWidthU*3/4
	central := to.Y > geom.FieldWidthU/4 && to.Y < geom.FieldWidthU*3/4
	return finalThird && wide && central
}

// advanceCoord moves a point toward the opponent goal by metres.
func advanceCoord(c geom.Coord, attacksRight bool, metres float64) geom.Coord {
	du := int32(metres / geom.Unit)
	if !attacksRight {
		du = -du
	}
	return geom.Coord{X: c.X + du, Y: c.Y}.ClampToField()
}

// containPoint is goal-side of the ball for the defending team.
func containPoint(snap *TickSnapshot, side TeamSide, ball geom.Coord) geom.Coord {
	ownGoal := geom.GoalCentre(!snap.AttacksRight(side))
	return ball.Lerp(ownGoal, 0.2)
}

// coverPoint sits between ball and own goal at depth.
func coverPoint(snap *TickSnapshot, side TeamSide) geom.Coord {
	ownGoal := geom.GoalCentre(!snap.AttacksRight(side))
	return snap.Ball.Pos.Lerp(ownGoal, 0.55)
}

// keeperPoint holds the keeper on the ball-goal line a few metres off the
// line.
func keeperPoint(snap *TickSnapshot, side TeamSide) geom.Coord {
	ownGoal := geom.GoalCentre(!snap.AttacksRight(side))
	return ownGoal.Lerp(snap.Ball.Pos, 0.06)
}

// nearestOpponent returns the closest opponent to id, excluding the ball
// carrier; NoPlayer if none.
func nearestOpponent(snap *TickSnapshot, id PlayerID) PlayerID {
	best := NoPlayer
	bestSq := int64(1 << 62)
	start, end := teamRange(id.Side().Opponent())
	for o := start; o < end; o++ {
		if snap.Players[o].SentOff {
			continue
		}
		if snap.Ball.HasOwner && snap.Ball.Owner == o {
			continue
		}
		d := snap.Players[id].Pos.DistSqU(snap.Players[o].Pos)
		if d < bestSq {
			bestSq = d
			best = o
		}
	}
	return best
}
