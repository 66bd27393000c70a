package match

import (
	"math"

	"matchday/internal/match/geom"
)

// Gate B: six-factor utility scoring, cognitive bias, and a temperature
// softmax with a single seeded draw. Bias perturbs utilities only here —
// execution (Gate C) never sees it.

// UtilityFactors are the normalized [0,1] feature values.
type UtilityFactors struct {
	Distance    float64 `json:"distance"`
	Safety      float64 `json:"safety"`
	Readiness   float64 `json:"readiness"`
	Progression float64 `json:"progression"`
	Space       float64 `json:"space"`
	Tactical    float64 `json:"tactical"`
}

// UtilityResult is one scored candidate.
type UtilityResult struct {
	Factors UtilityFactors `json:"factors"`
	// Raw is the weighted additive sum, with the Safety hard gate applied
	// multiplicatively.
	Raw float64 `json:"raw"`
	// Biased is Raw after the cognitive-bias perturbation.
	Biased float64 `json:"biased"`
}

// weightedTotal combines factors additively; Safety==0 is a hard gate and
// zeroes the candidate outright.
func (f UtilityFactors) weightedTotal() float64 {
	if f.Safety <= 0 {
		return 0
	}
	return WeightDistance*f.Distance +
		WeightSafety*f.Safety +
		WeightReadiness*f.Readiness +
		WeightProgression*f.Progression +
		WeightSpace*f.Space +
		WeightTactical*f.Tactical
}

// CognitiveBias is the player's "bias glasses", derived from mental
// attributes and personality. Applied in Gate B only.
type CognitiveBias struct {
	Confidence    float64 // overrates success probability
	Bravery       float64 // underrates failure cost
	Greed         float64 // overrates personal payoff
	TeamCost      float64 // sensitivity to team cost
	DecisionNoise float64 // judgement noise amplitude
	TunnelVision  float64 // discounts off-ball options
}

// deriveBias maps attributes to bias factors. Canonical coefficients are
// pinned here (the source carried diverging values between comments and
// defaults; this module is the single authority).
func deriveBias(attr *Attributes, personality Personality) CognitiveBias {
	b := CognitiveBias{
		Confidence:    0.5*skill01(attr.Composure) + 0.5*skill01(attr.Flair),
		Bravery:       0.6*skill01(attr.Bravery) + 0.4*skill01(attr.Aggression),
		Greed:         clamp01(skill01(attr.Flair) - 0.5*skill01(attr.Decisions) + 0.25),
		TeamCost:      0.6*skill01(attr.Teamwork) + 0.4*skill01(attr.Concentration),
		DecisionNoise: 1 - skill01(attr.Decisions),
		TunnelVision:  clamp01(0.3 + 0.4*skill01(attr.Flair) - 0.3*skill01(attr.Vision)),
	}
	switch personality {
	case Maverick:
		b.Greed = clamp01(b.Greed + 0.15)
		b.TeamCost = clamp01(b.TeamCost - 0.15)
	case TeamPlayer:
		b.TeamCost = clamp01(b.TeamCost + 0.15)
		b.Greed = clamp01(b.Greed - 0.1)
	case Temperamental:
		b.DecisionNoise = clamp01(b.DecisionNoise + 0.1)
	case Professional:
		b.DecisionNoise = clamp01(b.DecisionNoise - 0.1)
	case Leader:
		b.Confidence = clamp01(b.Confidence + 0.1)
	}
	return b
}

// temperature derives the softmax temperature. Higher flair widens the
// distribution; low flair plays the percentages.
func temperature(attr *Attributes) float64 {
	flairFactor := (0.5 - skill01(attr.Flair)) * -0.8 // flair 20 -> +0.4, flair 0 -> -0.4
	t := BaseTemperature + flairFactor
	if t < MinTemperature {
		return MinTemperature
	}
	if t > MaxTemperature {
		return MaxTemperature
	}
	return t
}

// scoreCandidate computes the six factors for one candidate from the
// snapshot only.
func scoreCandidate(snap *TickSnapshot, id PlayerID, cand candidate, attr *Attributes, ins TeamInstructions) UtilityFactors {
	side := id.Side()
	self := &snap.Players[id]
	attacksRight := snap.AttacksRight(side)
	d := self.Pos.DistM(cand.TargetPos)

	var f UtilityFactors

	// Distance: fit of the action's natural range to current geometry.
	f.Distance = rangeFit(cand.Kind, d)

	// Safety: probability of keeping possession.
	f.Safety = safetyOf(snap, id, cand)

	// Readiness: stamina, body orientation toward target, first touch.
	f.Readiness = readinessOf(self, cand, attr)

	// Progression: threat gain toward the opponent goal.
	f.Progression = progressionOf(snap, side, self.Pos, cand.TargetPos, attacksRight)

	// Space: room at the receiving/landing point.
	f.Space = clamp01(1 - snap.PressureOn(side, cand.TargetPos))

	// Tactical: match to team instructions.
	f.Tactical = tacticalFit(cand, ins, attacksRight)

	return f
}

func rangeFit(kind IntentKind, d float64) float64 {
	ideal, spread := 10.0, 8.0
	switch kind {
	case IntentShoot:
		ideal, spread = 12, 9
	case IntentPassShort:
		ideal, spread = 10, 7
	case IntentPassLong:
		ideal, spread = 38, 14
	case IntentPassThrough:
		ideal, spread = 18, 10
	case IntentPassCross:
		ideal, spread = 25, 12
	case IntentClear:
		return 1 // clearances have no range preference
	case IntentDribbleProtect, IntentHoldBall:
		return 1
	case IntentDribbleProgress, IntentDribbleBeat:
		ideal, spread = 7, 5
	case IntentTackle:
		ideal, spread = 1.5, 1.5
	case IntentIntercept, IntentPress, IntentContain, IntentCover, IntentMove:
		ideal, spread = 6, 10
	}
	z := (d - ideal) / spread
	return clamp01(math.Exp(-0.5 * z * z))
}

func safetyOf(snap *TickSnapshot, id PlayerID, cand candidate) float64 {
	side := id.Side()
	switch cand.Kind {
	case IntentPassShort, IntentPassLong, IntentPassThrough, IntentPassCross:
		// Lane risk: pressure on the receiver plus opponents near the lane
		// midpoint.
		mid := snap.Players[id].Pos.Lerp(cand.TargetPos, 0.5)
		lane := clamp01(1 - 0.8*snap.PressureOn(side, mid))
		recv := clamp01(1 - 0.7*snap.PressureOn(side, cand.TargetPos))
		risk := lane * recv
		if cand.Kind == IntentPassThrough {
			risk *= 0.8 // penetration is inherently riskier
		}
		return risk
	case IntentShoot:
		// Shooting "loses" possession by design; safety reflects block risk.
		return clamp01(1 - 0.5*snap.PressureOn(side, snap.Players[id].Pos))
	case IntentDribbleBeat:
		return clamp01(0.9 - 0.6*snap.PressureOn(side, cand.TargetPos))
	case IntentDribbleProgress:
		return clamp01(1 - 0.5*snap.PressureOn(side, cand.TargetPos))
	case IntentDribbleProtect, IntentHoldBall:
		return clamp01(1 - 0.3*snap.PressureOn(side, snap.Players[id].Pos))
	case IntentClear:
		return 0.9 // conceding territory, keeping structure
	default:
		return 1 // defensive moves cannot lose possession
	}
}

func readinessOf(self *PlayerSnap, cand candidate, attr *Attributes) float64 {
	stamina := clamp01(self.Stamina)
	// Orientation: moving toward the target reads as ready.
	vx, vy := self.Vel.Metres()
	speed := math.Sqrt(vx*vx + vy*vy)
	orient := 0.6
	if speed > 0.5 {
		dx := cand.TargetPos.MetresX() - self.Pos.MetresX()
		dy := cand.TargetPos.MetresY() - self.Pos.MetresY()
		dlen := math.Sqrt(dx*dx + dy*dy)
		if dlen > 1e-6 {
			cos := (vx*dx + vy*dy) / (speed * dlen)
			orient = clamp01(0.5 + 0.5*cos)
		}
	}
	touch := skill01(attr.FirstTouch)
	return clamp01(0.45*stamina + 0.35*orient + 0.20*touch)
}

func progressionOf(snap *TickSnapshot, side TeamSide, from, to geom.Coord, attacksRight bool) float64 {
	goal := geom.GoalCentre(attacksRight)
	before := from.DistM(goal)
	after := to.DistM(goal)
	gain := (before - after) / 40.0
	// Threat scales near goal, xG style: the same 10 m gained is worth more
	// at the box edge than at the halfway line.
	proximity := clamp01(1 - after/70.0)
	return clamp01(0.5 + gain*(0.5+0.5*proximity))
}

func tacticalFit(cand candidate, ins TeamInstructions, attacksRight bool) float64 {
	fit := 0.5
	switch ins.BuildUpStyle {
	case BuildUpShort:
		if cand.Kind == IntentPassShort || cand.Kind == IntentDribbleProgress {
			fit += 0.3
		}
		if cand.Kind == IntentPassLong || cand.Kind == IntentClear {
			fit -= 0.2
		}
	case BuildUpDirect:
		if cand.Kind == IntentPassLong || cand.Kind == IntentPassThrough {
			fit += 0.3
		}
	}
	switch ins.Tempo {
	case TempoFast:
		if cand.Kind == IntentHoldBall || cand.Kind == IntentDribbleProtect {
			fit -= 0.2
		}
	case TempoSlow:
		if cand.Kind == IntentHoldBall {
			fit += 0.15
		}
	}
	if ins.Width == WidthWide && cand.Kind == IntentPassCross {
		fit += 0.15
	}
	if ins.PressIntensity == PressHigh && (cand.Kind == IntentPress || cand.Kind == IntentTackle) {
		fit += 0.25
	}
	if ins.PressIntensity == PressLow && cand.Kind == IntentContain {
		fit += 0.25
	}
	return clamp01(fit)
}

// applyBias perturbs a raw utility through the bias glasses. Deterministic:
// the "noise" term is a hash draw, not an RNG stream.
func applyBias(raw float64, f UtilityFactors, cand candidate, bias CognitiveBias, noiseDraw float64) float64 {
	u := raw
	// Confidence inflates low-safety options; bravery discounts their cost.
	u += (1 - f.Safety) * 0.10 * bias.Confidence
	u += (1 - f.Safety) * 0.08 * bias.Bravery
	// Greed inflates shooting and beating a man.
	if cand.Kind == IntentShoot || cand.Kind == IntentDribbleBeat {
		u += 0.10 * bias.Greed
	}
	// Team-cost sensitivity pulls toward safe, structural options.
	if cand.Kind == IntentPassShort || cand.Kind == IntentContain || cand.Kind == IntentCover {
		u += 0.06 * bias.TeamCost
	}
	// Tunnel vision discounts off-ball movement.
	if cand.Kind == IntentMove {
		u -= 0.08 * bias.TunnelVision
	}
	// Decision noise: zero-centred perturbation from the seeded draw.
	u += (noiseDraw - 0.5) * 0.12 * bias.DecisionNoise
	if u < 0 {
		return 0
	}
	return u
}

// softmaxPick samples an index from biased utilities with one seeded draw.
// Log-space scores with the max subtracted keep the weights stable.
func softmaxPick(utilities []float64, temp float64, draw float64) int {
	if len(utilities) == 0 {
		return -1
	}
	scores := make([]float64, len(utilities))
	maxScore := math.Inf(-1)
	for i, u := range utilities {
		if u < utilityFloor {
			u = utilityFloor
		}
		scores[i] = math.Log(u) / temp
		if scores[i] > maxScore {
			maxScore = scores[i]
		}
	}
	sum := 0.0
	for i := range scores {
		scores[i] = math.Exp(scores[i] - maxScore)
		sum += scores[i]
	}
	if sum <= 0 {
		return 0
	}
	r := draw * sum
	for i, w := range scores {
		r -= w
		if r <= 0 {
			return i
		}
	}
	return len(scores) - 1
}
