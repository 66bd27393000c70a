package match

import (
	"math"

	"matchday/internal/match/geom"
)

// Gate C: intent -> technique elaboration. Given the selected intent, pick
// a technique deterministically from (intent, context, skills, pressure)
// with the second seeded draw, then fill the physics params. No further
// randomness exists downstream: execution error is folded into the params
// here.

// PassIntent is why the pass is played.
type PassIntent uint8

const (
	PassRetain PassIntent = iota
	PassProgress
	PassPenetrate
	PassSwitch
	PassEscape
)

// PassTechnique is how the pass is struck.
type PassTechnique uint8

const (
	PassGround PassTechnique = iota
	PassDriven
	PassLofted
	PassCrossT
	PassThroughT
	PassClearT
)

// ShotIntent is why the shot is taken.
type ShotIntent uint8

const (
	ShotPlace ShotIntent = iota
	ShotPower
	ShotQuick
	ShotAerial
	ShotChip
)

// ShotTechnique is how the shot is struck.
type ShotTechnique uint8

const (
	ShotNormal ShotTechnique = iota
	ShotPowerT
	ShotOneTouch
	ShotVolley
	ShotHeader
	ShotChipT
)

// DribbleIntent is why the carrier dribbles.
type DribbleIntent uint8

const (
	DribbleProtect DribbleIntent = iota
	DribbleProgress
	DribbleBeat
)

// DribbleTechnique is the core move.
type DribbleTechnique uint8

const (
	DribShielding DribbleTechnique = iota
	DribTurn
	DribFaceUp
	DribKnockOn
	DribFeint
	DribHesitation
)

// TackleTechnique is the challenge type.
type TackleTechnique uint8

const (
	TackleStanding TackleTechnique = iota
	TackleSliding
	TackleShoulder
	TacklePokeAway
)

// techniqueFamily buckets concrete techniques back to the granularity Gate A
// selects at. The CandidateKey carries the family, so the Gate-A invariant
// holds even though the concrete technique is a Gate-C product.
type techniqueFamily = uint8

const (
	famGround techniqueFamily = iota
	famAerial
	famCarry
	famChallenge
	famPositional
)

func familyOfIntent(kind IntentKind) techniqueFamily {
	switch kind {
	case IntentPassShort, IntentPassThrough:
		return famGround
	case IntentPassLong, IntentPassCross, IntentClear, IntentShoot:
		return famAerial
	case IntentDribbleProtect, IntentDribbleProgress, IntentDribbleBeat, IntentHoldBall:
		return famCarry
	case IntentTackle, IntentIntercept:
		return famChallenge
	default:
		return famPositional
	}
}

func familyOfPassTechnique(t PassTechnique) techniqueFamily {
	switch t {
	case PassGround, PassThroughT:
		return famGround
	default:
		return famAerial
	}
}

// elabContext is what Gate C may look at: frozen situation facts, never
// another player's Phase-1 result.
type elabContext struct {
	snap     *TickSnapshot
	seed     uint64
	attr     *Attributes
	pressure float64
}

// weightedPick picks an index from weights using a hash draw.
func weightedPick(weights []float64, draw float64) int {
	total := 0.0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return 0
	}
	r := draw * total
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		r -= w
		if r <= 0 {
			return i
		}
	}
	return len(weights) - 1
}

// passIntentOf maps the Gate-A intent kind onto the pass intent axis.
func passIntentOf(kind IntentKind, snap *TickSnapshot, id PlayerID, target geom.Coord) PassIntent {
	switch kind {
	case IntentPassThrough:
		return PassPenetrate
	case IntentPassCross:
		return PassProgress
	case IntentClear:
		return PassEscape
	case IntentPassLong:
		from := snap.Players[id].Pos
		if absI32(target.Y-from.Y) > geom.FieldWidthU/3 {
			return PassSwitch
		}
		return PassProgress
	default:
		if snap.PressureOn(id.Side(), snap.Players[id].Pos) > 0.5 {
			return PassEscape
		}
		goal := geom.GoalCentre(snap.AttacksRight(id.Side()))
		if target.DistM(goal) < snap.Players[id].Pos.DistM(goal)-3 {
			return PassProgress
		}
		return PassRetain
	}
}

func absI32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

// choosePassTechnique: deterministic selection inside the intent's allowed
// technique set, weighted by skills and pressure.
func choosePassTechnique(intent PassIntent, kind IntentKind, distM float64, ctx elabContext, id PlayerID) PassTechnique {
	// Hard mappings first: the Gate-A kind already restricts the family.
	switch kind {
	case IntentPassCross:
		return PassCrossT
	case IntentClear:
		return PassClearT
	case IntentPassThrough:
		return PassThroughT
	}

	tech := skill01(ctx.attr.Technique)
	vision := skill01(ctx.attr.Vision)

	var options []PassTechnique
	var weights []float64
	switch intent {
	case PassRetain, PassEscape:
		options = []PassTechnique{PassGround, PassDriven}
		weights = []float64{1.0 + tech, 0.4 + 0.4*ctx.pressure}
	case PassPenetrate:
		options = []PassTechnique{PassThroughT, PassDriven}
		weights = []float64{0.8 + vision, 0.5}
	case PassSwitch:
		options = []PassTechnique{PassLofted, PassDriven}
		weights = []float64{1.0 + vision, 0.5 + tech}
	default: // PassProgress
		if distM > 30 {
			options = []PassTechnique{PassLofted, PassDriven}
			weights = []float64{0.9 + vision, 0.7 + tech}
		} else {
			options = []PassTechnique{PassGround, PassDriven}
			weights = []float64{1.0 + tech, 0.6}
		}
	}
	draw := hash01(ctx.seed, ctx.snap.Tick, id, subcaseTechnique)
	return options[weightedPick(weights, draw)]
}

// passPhysics fills speed/height for a technique and distance.
func passPhysics(t PassTechnique, distM float64) (speedM float64, curve HeightCurve, vz float64) {
	switch t {
	case PassGround:
		return clampF(8+distM*0.45, 8, 19), CurveFlat, 0
	case PassDriven:
		return clampF(14+distM*0.40, 14, 26), CurveDriven, 1.2
	case PassLofted:
		return clampF(12+distM*0.45, 14, 27), CurveLofted, 6.0
	case PassCrossT:
		return clampF(15+distM*0.35, 16, 26), CurveLofted, 5.0
	case PassThroughT:
		return clampF(10+distM*0.50, 10, 22), CurveFlat, 0
	default: // PassClearT
		return 27, CurveLofted, 8.0
	}
}

// passSuccessProb is the base completion probability before interception
// geometry, from skills and pressure.
func passSuccessProb(t PassTechnique, attr *Attributes, pressure float64, distM float64) float64 {
	base := 0.55 + 0.4*skill01(attr.Passing)
	switch t {
	case PassGround:
		base += 0.08
	case PassThroughT:
		base -= 0.12
	case PassCrossT:
		base -= 0.10
	case PassLofted:
		base -= 0.05
	case PassClearT:
		base = 0.95 // a clearance "succeeds" by leaving the zone
	}
	base -= 0.18 * pressure
	base -= clamp01((distM-25)/60) * 0.2
	return clamp01(base)
}

// passExecutionError returns the direction sigma (radians) applied to the
// target point.
func passExecutionError(t PassTechnique, attr *Attributes, pressure float64) float64 {
	sigma := 0.010 + 0.045*(1-skill01(attr.Passing)) + 0.03*pressure
	switch t {
	case PassLofted, PassCrossT:
		sigma *= 1.4
	case PassClearT:
		sigma *= 2.0
	case PassThroughT:
		sigma *= 1.2
	}
	return sigma
}

// elaboratePass builds the committed pass action and proves the Gate-A key.
func elaboratePass(ctx elabContext, id PlayerID, intent PlayerIntent) (ActiveAction, bool) {
	from := ctx.snap.Players[id].Pos
	dist := from.DistM(intent.TargetPos)
	pIntent := passIntentOf(intent.Kind, ctx.snap, id, intent.TargetPos)
	tech := choosePassTechnique(pIntent, intent.Kind, dist, ctx, id)
	speed, curve, vz := passPhysics(tech, dist)

	// Fold execution error into the aim point now; flight is then exact.
	sigma := passExecutionError(tech, ctx.attr, ctx.pressure)
	errDraw := hash01(ctx.seed, ctx.snap.Tick, id, subcasePassError)
	angleErr := (errDraw - 0.5) * 2 * sigma * 2.5
	target := rotateAbout(from, intent.TargetPos, angleErr)

	a := ActiveAction{
		Owner: id,
		Type:  ActionPass,
		Phase: PhasePending,
		Key:   intent.Key,
		Pass: PassParams{
			Intent:      pIntent,
			Technique:   tech,
			Target:      intent.Target,
			TargetPos:   target,
			SpeedM:      speed,
			Curve:       curve,
			VZ:          vz,
			SuccessProb: passSuccessProb(tech, ctx.attr, ctx.pressure, dist),
			Through:     intent.Kind == IntentPassThrough,
		},
	}
	return a, verifyKey(ctx.snap, id, a, intent.Key)
}

// shotIntentOf derives why the shot is taken.
func shotIntentOf(ctx elabContext, id PlayerID, goalDist float64) ShotIntent {
	switch {
	case ctx.snap.Ball.HeightU > 5:
		return ShotAerial
	case ctx.pressure > 0.6:
		return ShotQuick
	case goalDist > 20:
		return ShotPower
	case keeperOffLine(ctx.snap, id):
		return ShotChip
	default:
		return ShotPlace
	}
}

func keeperOffLine(snap *TickSnapshot, id PlayerID) bool {
	side := id.Side()
	goal := geom.GoalCentre(snap.AttacksRight(side))
	// Keeper is squad slot 0 of the defending team.
	keeper := PlayerID(0)
	if side == Home {
		keeper = SquadSize
	}
	return snap.Players[keeper].Pos.DistM(goal) > 8
}

func chooseShotTechnique(intent ShotIntent, ctx elabContext, id PlayerID) ShotTechnique {
	shooting := skill01(ctx.attr.Shooting)
	var options []ShotTechnique
	var weights []float64
	switch intent {
	case ShotAerial:
		options = []ShotTechnique{ShotHeader, ShotVolley}
		weights = []float64{1.0 + skill01(ctx.attr.Heading), 0.5 + skill01(ctx.attr.Technique)}
	case ShotQuick:
		options = []ShotTechnique{ShotOneTouch, ShotNormal}
		weights = []float64{0.9 + skill01(ctx.attr.FirstTouch), 0.6}
	case ShotPower:
		options = []ShotTechnique{ShotPowerT, ShotNormal}
		weights = []float64{0.9 + skill01(ctx.attr.LongShots), 0.5 + shooting}
	case ShotChip:
		options = []ShotTechnique{ShotChipT, ShotNormal}
		weights = []float64{0.7 + skill01(ctx.attr.Flair), 0.8}
	default:
		options = []ShotTechnique{ShotNormal, ShotPowerT}
		weights = []float64{1.0 + shooting, 0.4}
	}
	draw := hash01(ctx.seed, ctx.snap.Tick, id, subcaseTechnique)
	return options[weightedPick(weights, draw)]
}

func shotPhysics(t ShotTechnique, goalDist float64) (speedM float64, curve HeightCurve, vz float64) {
	switch t {
	case ShotPowerT:
		return 32, CurveDriven, 1.8
	case ShotOneTouch:
		return 24, CurveFlat, 1.0
	case ShotVolley:
		return 27, CurveDriven, 2.2
	case ShotHeader:
		return 16, CurveDriven, 1.0
	case ShotChipT:
		return 16, CurveChipped, 5.5
	default:
		return 26, CurveFlat, 1.2
	}
}

// calculateXG estimates goal probability from geometry: distance and the
// visible goal-mouth angle, with a small context haircut for pressure.
func calculateXG(from geom.Coord, attacksRight bool, pressure float64) float64 {
	goal := geom.GoalCentre(attacksRight)
	d := from.DistM(goal)
	if d < 1 {
		d = 1
	}
	// Angle subtended by the goal mouth.
	half := geom.GoalWidthM / 2
	dy := math.Abs(from.MetresY() - goal.MetresY())
	dx := math.Abs(from.MetresX() - goal.MetresX())
	if dx < 0.5 {
		dx = 0.5
	}
	angle := math.Atan2(dy+half, dx) - math.Atan2(dy-half, dx)
	xg := clampF(clamp01(angle/0.9)*math.Exp(-d/16.0)*3.2, 0.01, 0.85)
	xg *= 1 - 0.35*pressure
	return clampF(xg, 0.01, 0.85)
}

// elaborateShot builds the committed shot and proves the Gate-A key.
func elaborateShot(ctx elabContext, id PlayerID, intent PlayerIntent) (ActiveAction, bool) {
	side := id.Side()
	attacksRight := ctx.snap.AttacksRight(side)
	from := ctx.snap.Players[id].Pos
	goal := geom.GoalCentre(attacksRight)
	goalDist := from.DistM(goal)

	sIntent := shotIntentOf(ctx, id, goalDist)
	tech := chooseShotTechnique(sIntent, ctx, id)
	speed, curve, vz := shotPhysics(tech, goalDist)

	// Aim inside a post, then fold the execution error in.
	aimDraw := hash01(ctx.seed, ctx.snap.Tick, id, subcaseShotError)
	halfMouth := (geom.GoalWidthM/2 - 0.5) / geom.Unit
	aimY := float64(goal.Y) + (aimDraw*2-1)*halfMouth
	sigma := (0.02 + 0.06*(1-skill01(ctx.attr.Shooting)) + 0.05*ctx.pressure) * goalDist / geom.Unit
	errDraw := hash01(ctx.seed, ctx.snap.Tick, id, subcaseShotError+0x100)
	aimY += (errDraw*2 - 1) * sigma
	aim := geom.Coord{X: goal.X, Y: int32(math.Floor(aimY + 0.5))}

	a := ActiveAction{
		Owner: id,
		Type:  ActionShot,
		Phase: PhasePending,
		Key:   intent.Key,
		Shot: ShotParams{
			Intent:    sIntent,
			Technique: tech,
			AimPos:    aim,
			SpeedM:    speed,
			Curve:     curve,
			VZ:        vz,
			XG:        calculateXG(from, attacksRight, ctx.pressure),
		},
	}
	return a, verifyKey(ctx.snap, id, a, intent.Key)
}

func dribbleIntentOf(kind IntentKind) DribbleIntent {
	switch kind {
	case IntentDribbleBeat:
		return DribbleBeat
	case IntentDribbleProgress:
		return DribbleProgress
	default:
		return DribbleProtect
	}
}

func chooseDribbleTechnique(intent DribbleIntent, ctx elabContext, id PlayerID) DribbleTechnique {
	var options []DribbleTechnique
	var weights []float64
	switch intent {
	case DribbleProtect:
		options = []DribbleTechnique{DribShielding, DribTurn, DribFaceUp}
		weights = []float64{
			1.0 + skill01(ctx.attr.Strength) + skill01(ctx.attr.Balance),
			0.6 + skill01(ctx.attr.Dribbling)*0.5 + skill01(ctx.attr.Agility)*0.5,
			0.5 + skill01(ctx.attr.Technique)*0.5 + skill01(ctx.attr.FirstTouch)*0.5,
		}
	case DribbleProgress:
		options = []DribbleTechnique{DribKnockOn, DribFaceUp}
		weights = []float64{
			0.8 + skill01(ctx.attr.Acceleration)*0.5 + skill01(ctx.attr.Pace)*0.5,
			0.6 + skill01(ctx.attr.Technique),
		}
	default: // DribbleBeat
		options = []DribbleTechnique{DribFeint, DribHesitation, DribKnockOn}
		weights = []float64{
			0.8 + skill01(ctx.attr.Dribbling)*0.5 + skill01(ctx.attr.Flair)*0.5,
			0.5 + skill01(ctx.attr.Composure)*0.5 + skill01(ctx.attr.Acceleration)*0.5,
			0.4 + skill01(ctx.attr.Pace)*0.5,
		}
	}
	draw := hash01(ctx.seed, ctx.snap.Tick, id, subcaseTechnique)
	return options[weightedPick(weights, draw)]
}

// elaborateDribble builds the committed dribble.
func elaborateDribble(ctx elabContext, id PlayerID, intent PlayerIntent) (ActiveAction, bool) {
	dIntent := dribbleIntentOf(intent.Kind)
	a := ActiveAction{
		Owner: id,
		Type:  ActionDribble,
		Phase: PhasePending,
		Key:   intent.Key,
		Dribble: DribbleParams{
			Intent:    dIntent,
			Technique: chooseDribbleTechnique(dIntent, ctx, id),
			TargetPos: intent.TargetPos,
			SubPhase:  DribbleTouch,
		},
	}
	return a, verifyKey(ctx.snap, id, a, intent.Key)
}

func chooseTackleTechnique(ctx elabContext, id PlayerID, victimDist float64) TackleTechnique {
	options := []TackleTechnique{TackleStanding, TacklePokeAway, TackleShoulder}
	weights := []float64{
		1.0 + skill01(ctx.attr.Tackling),
		0.6 + skill01(ctx.attr.Anticipation),
		0.4 + skill01(ctx.attr.Strength),
	}
	if victimDist > 1.8 {
		options = append(options, TackleSliding)
		weights = append(weights, 0.5+skill01(ctx.attr.Tackling)*0.5+skill01(ctx.attr.Bravery)*0.5)
	}
	draw := hash01(ctx.seed, ctx.snap.Tick, id, subcaseTechnique)
	return options[weightedPick(weights, draw)]
}

// elaborateTackle builds the committed challenge. Win and foul
// probabilities are frozen now from the duel attributes and approach angle.
func elaborateTackle(ctx elabContext, id PlayerID, intent PlayerIntent, victimAttr *Attributes) (ActiveAction, bool) {
	self := &ctx.snap.Players[id]
	victim := &ctx.snap.Players[intent.Target]
	dist := self.Pos.DistM(victim.Pos)
	tech := chooseTackleTechnique(ctx, id, dist)

	attack := 0.5*skill01(victimAttr.Dribbling) + 0.5*skill01(victimAttr.Balance)
	defend := 0.6*skill01(ctx.attr.Tackling) + 0.4*skill01(ctx.attr.Aggression)
	angle := approachAngleFactor(self, victim)

	win := clamp01(0.42 + 0.45*(defend-attack) + 0.15*angle)
	foul := clamp01(0.10 + 0.22*(attack-defend) + 0.10*(1-angle))
	if tech == TackleSliding {
		win = clamp01(win + 0.06)
		foul = clamp01(foul + 0.12)
	}
	if tech == TacklePokeAway {
		foul = clamp01(foul - 0.05)
	}

	a := ActiveAction{
		Owner: id,
		Type:  ActionTackle,
		Phase: PhasePending,
		Key:   intent.Key,
		Tackle: TackleParams{
			Technique: tech,
			Victim:    intent.Target,
			WinProb:   win,
			FoulProb:  foul,
		},
	}
	return a, verifyKey(ctx.snap, id, a, intent.Key)
}

// approachAngleFactor is 1 for a head-on challenge, 0 for chasing from
// behind. From-behind challenges win less and foul more.
func approachAngleFactor(self, victim *PlayerSnap) float64 {
	vvx, vvy := victim.Vel.Metres()
	speed := math.Sqrt(vvx*vvx + vvy*vvy)
	if speed < 0.5 {
		return 0.8
	}
	dx := self.Pos.MetresX() - victim.Pos.MetresX()
	dy := self.Pos.MetresY() - victim.Pos.MetresY()
	dlen := math.Sqrt(dx*dx + dy*dy)
	if dlen < 1e-6 {
		return 0.5
	}
	cos := (vvx*dx + vvy*dy) / (speed * dlen)
	return clamp01(0.5 + 0.5*cos)
}

// projectKey recomputes the CandidateKey from a fully elaborated action.
func projectKey(snap *TickSnapshot, id PlayerID, a ActiveAction) CandidateKey {
	side := id.Side()
	attacksRight := snap.AttacksRight(side)
	switch a.Type {
	case ActionPass:
		return CandidateKey{
			Kind:      a.Key.Kind,
			Zone:      geom.TacticalZoneOf(a.Pass.TargetPos, attacksRight),
			Power:     powerBucketOf(a.Pass.SpeedM),
			Technique: a.Key.Technique,
		}
	case ActionShot:
		return CandidateKey{
			Kind:      IntentShoot,
			Zone:      geom.TacticalZoneOf(a.Shot.AimPos, attacksRight),
			Power:     powerBucketOf(a.Shot.SpeedM),
			Technique: a.Key.Technique,
		}
	case ActionDribble:
		return CandidateKey{
			Kind:      a.Key.Kind,
			Zone:      geom.TacticalZoneOf(a.Dribble.TargetPos, attacksRight),
			Power:     PowerSoft,
			Technique: a.Key.Technique,
		}
	case ActionTackle:
		return CandidateKey{
			Kind:      IntentTackle,
			Zone:      geom.TacticalZoneOf(snap.Players[a.Tackle.Victim].Pos, attacksRight),
			Power:     a.Key.Power,
			Technique: a.Key.Technique,
		}
	default:
		return a.Key
	}
}

// verifyKey enforces the Gate-A invariant: what was selected is what will
// execute, at key granularity. A mismatch can only come from a bug in an
// elaborator; zone drift within the execution-error budget is tolerated by
// comparing the error-free components strictly and the zone within one
// neighbour band/lane.
func verifyKey(snap *TickSnapshot, id PlayerID, a ActiveAction, want CandidateKey) bool {
	got := projectKey(snap, id, a)
	if got.Kind != want.Kind || got.Technique != want.Technique {
		return false
	}
	if got.Power != want.Power {
		// Physics tables may legitimately move the bucket by one when the
		// Gate-A estimate bracketed a boundary.
		if diffU8(uint8(got.Power), uint8(want.Power)) > 1 {
			return false
		}
	}
	return zoneAdjacent(got.Zone, want.Zone)
}

func zoneAdjacent(a, b geom.TacticalZone) bool {
	if a == b {
		return true
	}
	dl := diffU8(uint8(a.Lane()), uint8(b.Lane()))
	db := diffU8(uint8(a.Band()), uint8(b.Band()))
	return dl <= 1 && db <= 1
}

func diffU8(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

// rotateAbout rotates point p around origin o by angle radians, quantized.
func rotateAbout(o, p geom.Coord, angle float64) geom.Coord {
	if angle == 0 {
		return p
	}
	dx := p.MetresX() - o.MetresX()
	dy := p.MetresY() - o.MetresY()
	sin, cos := math.Sin(angle), math.Cos(angle)
	return geom.FromMetres(
		o.MetresX()+dx*cos-dy*sin,
		o.MetresY()+dx*sin+dy*cos,
	).ClampToField()
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
