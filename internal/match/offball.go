package match

import (
	"math"
	"sort"

	"matchday/internal/match/geom"
)

// Off-ball objective system: players without the ball receive a TTL-bounded
// positional goal rather than an atomic action. The positioning engine
// steers toward it each substep.

// OffBallIntent tags why a player is moving there.
type OffBallIntent uint8

const (
	ObjLinkPlayer OffBallIntent = iota
	ObjSpaceAttacker
	ObjLurker
	ObjWidthHolder
	ObjShapeHolder
	ObjTrackBack
	ObjScreen
	ObjPressSupport
)

func (i OffBallIntent) String() string {
	switch i {
	case ObjLinkPlayer:
		return "link_player"
	case ObjSpaceAttacker:
		return "space_attacker"
	case ObjLurker:
		return "lurker"
	case ObjWidthHolder:
		return "width_holder"
	case ObjShapeHolder:
		return "shape_holder"
	case ObjTrackBack:
		return "track_back"
	case ObjScreen:
		return "screen"
	case ObjPressSupport:
		return "press_support"
	default:
		return "unknown"
	}
}

// OffBallObjective is the installed positional goal.
type OffBallObjective struct {
	Target      geom.Coord
	Intent      OffBallIntent
	Urgency     float64 // 0..1 scales steering effort and reach clamp
	TTLTicks    uint16
	CreatedTick uint64
}

// offBallCandidate is one scored option.
type offBallCandidate struct {
	Target  geom.Coord
	Intent  OffBallIntent
	Urgency float64
}

// Score6 is the light-weight six-factor score for off-ball candidates.
type Score6 struct {
	Usefulness   float64
	Safety       float64
	Availability float64
	Progress     float64
	Structure    float64
	Cost         float64
}

// Total combines the factors; Cost subtracts.
func (s Score6) Total() float64 {
	return 0.22*s.Usefulness + 0.18*s.Safety + 0.18*s.Availability +
		0.18*s.Progress + 0.16*s.Structure - 0.08*s.Cost
}

// generateOffBallCandidates builds up to MaxObjectiveCandidates for one
// player from the snapshot and the formation anchor.
func generateOffBallCandidates(snap *TickSnapshot, id PlayerID, phase GamePhase, anchor geom.Coord, ins TeamInstructions) []offBallCandidate {
	side := id.Side()
	attacksRight := snap.AttacksRight(side)
	self := snap.Players[id].Pos
	out := make([]offBallCandidate, 0, MaxObjectiveCandidates)

	// ShapeHolder is generated first in every phase: the team shape is the
	// baseline every other run is judged against.
	out = append(out, offBallCandidate{Target: anchor, Intent: ObjShapeHolder, Urgency: 0.4})

	switch phase {
	case PhaseAttacking, PhaseTransitionWin:
		// LinkPlayer: a passing option square of the ball.
		link := snap.Ball.Pos
		link.Y = self.Y
		link = link.Lerp(anchor, 0.35)
		out = append(out, offBallCandidate{Target: link, Intent: ObjLinkPlayer, Urgency: 0.55})

		// SpaceAttacker: run in behind the second-last defender.
		lineX := snap.SecondLastDefenderX(side)
		behind := geom.Coord{X: lineX, Y: self.Y}
		behind = advanceCoord(behind, attacksRight, 4)
		out = append(out, offBallCandidate{Target: behind, Intent: ObjSpaceAttacker, Urgency: 0.75})

		// Lurker: hold the box edge for a cutback.
		box := geom.PenaltySpot(attacksRight)
		lurk := geom.Coord{X: box.X, Y: self.Y}
		if !geom.InPenaltyArea(lurk, attacksRight) {
			lurk = lurk.Lerp(box, 0.3)
		}
		out = append(out, offBallCandidate{Target: lurk, Intent: ObjLurker, Urgency: 0.5})

		// WidthHolder: stretch to the touchline on the player's side.
		wy := int32(30)
		if self.Y > geom.FieldWidthU/2 {
			wy = geom.FieldWidthU - 30
		}
		if ins.Width == WidthNarrow {
			wy = clampLane(wy, 120, geom.FieldWidthU-120)
		}
		out = append(out, offBallCandidate{Target: geom.Coord{X: anchor.X, Y: wy}, Intent: ObjWidthHolder, Urgency: 0.45})

	default: // PhaseDefending, PhaseTransitionLoss
		ownGoal := geom.GoalCentre(!attacksRight)

		// TrackBack: recover goal-side of the ball.
		track := snap.Ball.Pos.Lerp(ownGoal, 0.35)
		track.Y = (track.Y + self.Y) / 2
		out = append(out, offBallCandidate{Target: track, Intent: ObjTrackBack, Urgency: 0.8})

		// Screen: block the central lane between ball and goal.
		screen := snap.Ball.Pos.Lerp(ownGoal, 0.25)
		out = append(out, offBallCandidate{Target: screen, Intent: ObjScreen, Urgency: 0.6})

		// PressSupport: second wave behind the presser.
		press := snap.Ball.Pos.Lerp(self, 0.3)
		urg := 0.5
		if ins.PressIntensity == PressHigh {
			urg = 0.75
		}
		out = append(out, offBallCandidate{Target: press, Intent: ObjPressSupport, Urgency: urg})
	}

	// Clamp to field and to reachability.
	for i := range out {
		out[i].Target = clampReachable(self, out[i].Target.ClampToField(), out[i].Urgency)
	}
	return out
}

// clampReachable limits the target to what the player can plausibly cover
// within the TTL at urgency-scaled speed.
func clampReachable(from, to geom.Coord, urgency float64) geom.Coord {
	maxReach := (0.5 + urgency) * ObjectiveTTLTicks * DecisionDT * 7.0 // max-speed proxy
	d := from.DistM(to)
	if d <= maxReach {
		return to
	}
	return from.Lerp(to, maxReach/d)
}

func clampLane(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// scoreOffBallCandidate computes Score6 from the snapshot.
func scoreOffBallCandidate(snap *TickSnapshot, id PlayerID, c offBallCandidate, anchor geom.Coord) Score6 {
	side := id.Side()
	attacksRight := snap.AttacksRight(side)
	self := snap.Players[id].Pos
	goal := geom.GoalCentre(attacksRight)

	var s Score6
	// Usefulness: intent-specific value of the spot.
	switch c.Intent {
	case ObjSpaceAttacker, ObjLurker:
		s.Usefulness = clamp01(1 - c.Target.DistM(goal)/60)
	case ObjLinkPlayer, ObjPressSupport:
		s.Usefulness = clamp01(1 - c.Target.DistM(snap.Ball.Pos)/40)
	case ObjTrackBack, ObjScreen:
		own := geom.GoalCentre(!attacksRight)
		s.Usefulness = clamp01(1 - c.Target.DistM(own)/60)
	default:
		s.Usefulness = 0.5
	}
	s.Safety = clamp01(1 - 0.6*snap.PressureOn(side, c.Target))
	s.Availability = clamp01(1 - float64(snap.OpponentsWithinM(side, c.Target, 4))/3)
	s.Progress = progressionOf(snap, side, self, c.Target, attacksRight)
	s.Structure = clamp01(1 - c.Target.DistM(anchor)/25)
	s.Cost = clamp01(self.DistM(c.Target) / 30)
	return s
}

// selectObjective picks a candidate: argmax at zero temperature, otherwise
// a deterministic softmax over totals.
func selectObjective(cands []offBallCandidate, scores []Score6, temp float64, seed, tick uint64, id PlayerID) int {
	if len(cands) == 0 {
		return -1
	}
	if temp <= 0 {
		best, bestTotal := 0, math.Inf(-1)
		for i, s := range scores {
			if t := s.Total(); t > bestTotal {
				best, bestTotal = i, t
			}
		}
		return best
	}
	totals := make([]float64, len(scores))
	for i, s := range scores {
		totals[i] = clamp01(s.Total()) + utilityFloor
	}
	draw := hash01(seed, tick, id, subcaseOffballPick)
	return softmaxPick(totals, temp, draw)
}

// objectivePick is the per-player output of the off-ball pass before
// collision resolution.
type objectivePick struct {
	player PlayerID
	cands  []offBallCandidate
	scores []Score6
	chosen int
}

// resolveObjectiveCollisions enforces "never two players on the same
// target": when two picks land within the collision radius, the lower-score
// player re-picks its next-best candidate. Processing order is by player id,
// outcomes depend only on scores and ids.
func resolveObjectiveCollisions(picks []objectivePick) {
	sort.Slice(picks, func(i, j int) bool { return picks[i].player < picks[j].player })
	radiusU := int64(ObjectiveCollisionRadiusM / geom.Unit)
	rSq := radiusU * radiusU

	for i := range picks {
		for j := 0; j < i; j++ {
			pi, pj := &picks[i], &picks[j]
			if pi.chosen < 0 || pj.chosen < 0 {
				continue
			}
			ti := pi.cands[pi.chosen].Target
			tj := pj.cands[pj.chosen].Target
			if ti.DistSqU(tj) > rSq {
				continue
			}
			// Lower total re-picks.
			loser := pi
			if pi.scores[pi.chosen].Total() > pj.scores[pj.chosen].Total() {
				loser = pj
			}
			loser.chosen = nextBestExcluding(loser, ti, tj, rSq)
		}
	}
}

func nextBestExcluding(p *objectivePick, a, b geom.Coord, rSq int64) int {
	best, bestTotal := -1, math.Inf(-1)
	for i := range p.cands {
		t := p.cands[i].Target
		if t.DistSqU(a) <= rSq || t.DistSqU(b) <= rSq {
			continue
		}
		if total := p.scores[i].Total(); total > bestTotal {
			best, bestTotal = i, total
		}
	}
	if best < 0 {
		// Everything collides; keep the original and let steering
		// separation spread them out.
		return p.chosen
	}
	return best
}
