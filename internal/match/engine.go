package match

import (
	"context"
	"fmt"
	"sort"

	"matchday/internal/match/geom"
)

// Engine owns one match simulation. Strictly single-threaded within its
// tick loop; parallelism happens across engines, never inside one.
type Engine struct {
	plan MatchPlan
	seed uint64
	ctx  *Context
	exp  ExpConfig

	instructions [2]TeamInstructions
	bias         [2 * SquadSize]CognitiveBias
	temp         [2 * SquadSize]float64

	state MatchState
	sched scheduler
	rules *ruleDispatcher
	stats *statsAccum
	ilog  *IntentLog

	hasher *traceHasher

	lastTouchSide TeamSide
	lastFlipTick  uint64
	finished      bool
}

// Option tweaks engine construction.
type Option func(*Engine)

// WithRuleMode selects the rule dispatcher mode (A/B comparison rollout).
func WithRuleMode(m RuleMode) Option {
	return func(e *Engine) { e.rules = newRuleDispatcher(m) }
}

// WithIntentTrace records the full per-decision telemetry.
func WithIntentTrace() Option {
	return func(e *Engine) { e.ilog = NewIntentLog(true) }
}

// NewEngine validates the plan and builds a ready-to-run engine at kickoff.
func NewEngine(plan MatchPlan, opts ...Option) (*Engine, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	ctx, err := NewContext()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		plan:   plan,
		seed:   plan.Seed,
		ctx:    ctx,
		exp:    DefaultExpConfig(),
		rules:  newRuleDispatcher(RuleModeCurrent),
		stats:  newStatsAccum(),
		ilog:   NewIntentLog(false),
		hasher: newTraceHasher(),
	}
	if plan.Exp != nil {
		e.exp = *plan.Exp
	}
	e.instructions[Home] = plan.Instructions(Home)
	e.instructions[Away] = plan.Instructions(Away)
	e.sched.forceAllActive = e.exp.Decision.ForceActive

	for i := range e.state.Players {
		cfg := e.playerConfig(PlayerID(i))
		e.bias[i] = deriveBias(&cfg.Attr, cfg.Personality)
		e.temp[i] = clampF(temperature(&cfg.Attr)+e.exp.Audacity.TemperatureShift,
			MinTemperature, MaxTemperature)
		e.state.Players[i].ActionIdx = -1
		e.state.Players[i].Stamina = StaminaMax
	}

	e.setupKickoff(Home, true)
	return e, nil
}

// playerConfig resolves a PlayerID to its immutable setup.
func (e *Engine) playerConfig(id PlayerID) *PlayerConfig {
	if id < SquadSize {
		return &e.plan.Home.Players[id]
	}
	return &e.plan.Away.Players[id-SquadSize]
}

func (e *Engine) formation(side TeamSide) Formation {
	if side == Home {
		return e.plan.Home.Formation
	}
	return e.plan.Away.Formation
}

func (e *Engine) targetName(id PlayerID) string {
	if id == NoPlayer {
		return ""
	}
	return e.playerConfig(id).Name
}

// setPossession flips possession bookkeeping; the transition window for
// game-phase classification starts here.
func (e *Engine) setPossession(side TeamSide) {
	e.lastTouchSide = side
	if e.state.Possession != side {
		e.state.Possession = side
		e.lastFlipTick = e.state.Tick
	}
}

// setupKickoff arranges both teams in formation and stages the kickoff for
// the given side. firstKickoff also seeds the initial possession.
func (e *Engine) setupKickoff(taking TeamSide, firstKickoff bool) {
	st := &e.state
	snapDir := st.HomeAttacksRight()

	for i := range st.Players {
		id := PlayerID(i)
		side := id.Side()
		attacksRight := snapDir == (side == Home)
		shape := formationShapes[e.formation(side)][id.SquadIndex()]
		// Kickoff uses the static halves: depth fraction into own half.
		x := shape.X * 0.5 * geom.FieldLengthM
		if !attacksRight {
			x = geom.FieldLengthM - x
		}
		y := shape.Y * geom.FieldWidthM
		if !attacksRight {
			y = geom.FieldWidthM - y
		}
		p := &st.Players[i]
		p.Pos = geom.FromMetres(x, y)
		p.Vel = geom.Vel{}
		p.State = StateIdle
		p.HasObjective = false
		p.HasLastIntent = false
		p.ActionIdx = -1
	}
	st.Actions = st.Actions[:0]

	centre := geom.Centre()
	st.Ball.outOfPlay(RestartKickOff, taking, centre)
	st.Mode = ModeKickOff
	st.pendingRestart = RestartKickOff
	st.pendingRestartBy = taking

	// The kicker stands on the spot.
	kicker, _ := e.stateClosest(taking, centre)
	if kicker != NoPlayer {
		st.Players[kicker].Pos = geom.Coord{X: centre.X - 5, Y: centre.Y}
		if e.state.HomeAttacksRight() != (taking == Home) {
			st.Players[kicker].Pos.X = centre.X + 5
		}
	}
	if firstKickoff {
		st.Possession = taking
		e.lastTouchSide = taking
		st.pushEvent(MatchEvent{
			Team: taking, Type: EventKickOff,
			X: centre.MetresX(), Y: centre.MetresY(),
		})
		e.flushTickEvents()
	}
}

// scheduleRestart stages a restart the tick boundary will install.
func (e *Engine) scheduleRestart(r RestartType, by TeamSide, at geom.Coord) {
	st := &e.state
	st.pendingRestart = r
	st.pendingRestartBy = by
	switch r {
	case RestartKickOff:
		st.Mode = ModeKickOff
	case RestartThrowIn:
		st.Mode = ModeThrowIn
	case RestartGoalKick:
		st.Mode = ModeGoalKick
	case RestartCorner:
		st.Mode = ModeCorner
	case RestartPenalty:
		st.Mode = ModePenalty
	default:
		st.Mode = ModeFreeKick
	}
	_ = at
}

// awardGoal applies a goal: score, events, kickoff restart for the
// conceding team.
func (e *Engine) awardGoal(side TeamSide, scorer PlayerID, at geom.Coord, ownGoal bool) {
	st := &e.state
	st.Score[side]++
	evType := EventGoal
	if ownGoal {
		evType = EventOwnGoal
	}
	st.pushEvent(MatchEvent{
		Team: side, PlayerID: scorer,
		Player: e.playerConfig(scorer).Name,
		Type:   evType,
		X:      at.MetresX(), Y: at.MetresY(),
	})
	conceding := side.Opponent()
	st.Ball.outOfPlay(RestartKickOff, conceding, geom.Centre())
	e.scheduleRestart(RestartKickOff, conceding, geom.Centre())
}

// installRestart creates the SetPiece FSM once the ball sits out of play
// and no set piece is already running.
func (e *Engine) installRestart() {
	st := &e.state
	if st.Ball.State != BallOutOfPlay || st.pendingRestart == RestartNone {
		return
	}
	// A live set piece already handles it.
	for i := range st.Actions {
		if st.Actions[i].Type == ActionSetPiece && st.Actions[i].Phase != PhaseFinished {
			return
		}
	}

	by := st.pendingRestartBy
	taker := e.restartTaker(by, st.pendingRestart)
	if taker == NoPlayer {
		return
	}

	target := e.restartTarget(by, taker, st.pendingRestart)
	e.state.installAction(ActiveAction{
		Owner: taker,
		Type:  ActionSetPiece,
		Phase: PhasePending,
		SetPiece: SetPieceParams{
			Restart:    st.pendingRestart,
			TargetPos:  target,
			SetupTicks: e.ctx.setupTicksFor(st.pendingRestart),
		},
	})
	st.pendingRestart = RestartNone
}

// restartTaker picks who takes a restart: penalties go to the best penalty
// taker on the pitch, everything else to the closest player.
func (e *Engine) restartTaker(by TeamSide, r RestartType) PlayerID {
	if r == RestartPenalty {
		best := NoPlayer
		bestScore := -1.0
		start, end := teamRange(by)
		for id := start; id < end; id++ {
			if e.state.Players[id].SentOff {
				continue
			}
			attr := &e.playerConfig(id).Attr
			s := 0.7*skill01(attr.Penalties) + 0.3*skill01(attr.Composure)
			if s > bestScore {
				bestScore = s
				best = id
			}
		}
		return best
	}
	taker, _ := e.stateClosest(by, e.state.Ball.Pos)
	return taker
}

// restartTarget aims the delivery: corners target the penalty spot, goal
// kicks the halfway line, penalties the goal centre, and every other
// restart the teammate closest to the ball.
func (e *Engine) restartTarget(by TeamSide, taker PlayerID, r RestartType) geom.Coord {
	attacksRight := e.state.HomeAttacksRight() == (by == Home)
	switch r {
	case RestartCorner:
		return geom.PenaltySpot(attacksRight)
	case RestartGoalKick:
		return geom.Coord{X: geom.FieldLengthU / 2, Y: e.state.Ball.Pos.Y}
	case RestartPenalty:
		return geom.GoalCentre(attacksRight)
	default:
		// Closest teammate who is not the taker.
		best := NoPlayer
		bestSq := int64(1 << 62)
		start, end := teamRange(by)
		for id := start; id < end; id++ {
			if id == taker || e.state.Players[id].SentOff {
				continue
			}
			d := e.state.Players[id].Pos.DistSqU(e.state.Ball.Pos)
			if d < bestSq {
				bestSq = d
				best = id
			}
		}
		if best == NoPlayer {
			return geom.Centre()
		}
		return e.state.Players[best].Pos
	}
}

// Step advances exactly one decision tick. Returns the snapshot that opened
// the tick and the events appended during it.
func (e *Engine) Step() (TickSnapshot, []MatchEvent) {
	st := &e.state

	// Restart staging happens on the tick boundary.
	e.installRestart()

	// 1. Snapshot: the tick's single source of truth.
	snap := st.snapshot()

	// 2. DPQ.
	sched := e.sched.schedule(&snap, &st.Players)

	// 3. Phase 1: intents from the snapshot only. Players mid-execution
	// (windup, strike, challenge) do not re-decide; their FSM owns them
	// until Recover.
	decisions := make(map[PlayerID]decided, len(sched.due))
	var intents []PlayerIntent
	for _, id := range sched.due {
		if e.busyExecuting(id) {
			continue
		}
		in, mindset, n := e.decideOne(&snap, id)
		decisions[id] = decided{in, mindset, n}
		intents = append(intents, in)
	}
	// Carried-over intents from players not due still contend for the ball.
	for i := range st.Players {
		id := PlayerID(i)
		if _, ok := decisions[id]; ok {
			continue
		}
		if st.Players[i].HasLastIntent && seeksBallTouch(st.Players[i].LastIntent.Kind) {
			intents = append(intents, st.Players[i].LastIntent)
		}
	}

	// 4. Arbiter.
	results := arbitrate(&snap, intents, e.seed)

	// 5. Phase 2: commit. Sole writer of MatchState from decisions.
	e.commit(&snap, results, decisions, sched)

	// 6. Physics substeps.
	for i := 0; i < SubstepsPerTick; i++ {
		e.substep(&snap)
	}

	// 7. Tick close: stamina, events, stats, clocks, hash.
	e.drainStamina()
	events := e.flushTickEvents()
	e.stats.observe(events)
	e.updatePossessionClock()
	e.checkInvariants()
	e.hashTick()
	st.compactActions()
	e.advanceClock()

	return snap, events
}

// busyExecuting reports whether a player's live FSM still owns him.
// Dribbles stay interruptible: re-deciding is how a carrier picks his next
// move; everything else commits through Resolve.
func (e *Engine) busyExecuting(id PlayerID) bool {
	a := e.state.actionOf(id)
	if a == nil || a.Type == ActionDribble {
		return false
	}
	return a.Phase <= PhaseResolve
}

// decideOne runs Gates A and B for one player.
func (e *Engine) decideOne(snap *TickSnapshot, id PlayerID) (PlayerIntent, PlayerMindset, int) {
	cfg := e.playerConfig(id)
	role := cfg.Role
	phase := gamePhaseFor(snap, id.Side(), snap.Tick-e.lastFlipTick)
	mindset := determineMindset(snap, id, role, phase)
	cands := buildCandidates(snap, id, mindset, e.instructions[id.Side()])
	if len(cands) == 0 {
		cands = []candidate{makeCandidate(snap, id.Side(), IntentMove, NoPlayer, snap.Players[id].Pos, PowerSoft)}
	}

	// Stable candidate order before the draw: build order must not matter.
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Key.sortKey() < cands[j].Key.sortKey()
	})

	noise := hash01(e.seed, snap.Tick, id, subcaseGateB+0x100)
	utilities := make([]float64, len(cands))
	raws := make([]float64, len(cands))
	for i, c := range cands {
		f := scoreCandidate(snap, id, c, &cfg.Attr, e.instructions[id.Side()])
		raws[i] = f.weightedTotal()
		biased := applyBias(raws[i], f, c, e.scaledBias(id), noise)
		utilities[i] = biased
	}

	draw := hash01(e.seed, snap.Tick, id, subcaseGateB)
	pick := softmaxPick(utilities, e.temp[id], draw)
	chosen := cands[pick]

	return PlayerIntent{
		Player:      id,
		Kind:        chosen.Kind,
		Target:      chosen.Target,
		TargetPos:   chosen.TargetPos,
		Key:         chosen.Key,
		Utility:     utilities[pick],
		TickCreated: snap.Tick,
	}, mindset, len(cands)
}

func (e *Engine) scaledBias(id PlayerID) CognitiveBias {
	b := e.bias[id]
	s := e.exp.Audacity.BiasScale
	if s == 1 {
		return b
	}
	b.Confidence *= s
	b.Bravery *= s
	b.Greed *= s
	b.DecisionNoise *= s
	b.TunnelVision *= s
	return b
}

// decided pairs a Phase-1 product with its provenance for the telemetry
// log.
type decided struct {
	intent  PlayerIntent
	mindset PlayerMindset
	nCands  int
}

// commit is Phase 2: install winners, write schedules, set objectives.
func (e *Engine) commit(snap *TickSnapshot, results []CommitResult, decisions map[PlayerID]decided, sched scheduleResult) {
	st := &e.state

	// Write back the due ticks the scheduler computed.
	for i := range st.Players {
		st.Players[i].NextDueTick = sched.nextDue[i]
	}

	var movers []PlayerID
	for _, r := range results {
		id := r.Intent.Player
		d, freshDecision := decisions[id]
		if freshDecision {
			e.ilog.record(snap.Tick, id, d.mindset, d.nCands, r)
			st.Players[id].LastIntent = r.Intent
			st.Players[id].HasLastIntent = true
		}

		eff := r.Intent
		switch r.Status {
		case CommitDeferred:
			// Loser of a ball-touch conflict: chase instead.
			if !snap.Players[id].HasBall && snap.Ball.State != BallOutOfPlay {
				st.setPlayerState(id, StateChasing)
			}
			continue
		case CommitReplaced:
			eff = containFallback(snap, r.Intent)
		}

		// Carried-over intents only contend for conflicts; their actions
		// are already installed.
		if !freshDecision {
			continue
		}
		e.commitIntent(snap, eff, &movers)
	}

	// Off-ball objective pass for movement intents and idle off-ball
	// players that were scheduled.
	e.commitObjectives(snap, movers)
}

// commitIntent turns one accepted intent into state.
func (e *Engine) commitIntent(snap *TickSnapshot, in PlayerIntent, movers *[]PlayerID) {
	st := &e.state
	id := in.Player
	cfg := e.playerConfig(id)
	ectx := elabContext{
		snap:     snap,
		seed:     e.seed,
		attr:     &cfg.Attr,
		pressure: snap.PressureOn(id.Side(), snap.Players[id].Pos),
	}

	switch in.Kind {
	case IntentShoot:
		if a, ok := elaborateShot(ectx, id, in); ok {
			st.installAction(a)
		} else {
			st.pushDiagnostic(DiagInvariantViolation, id, "gate A key mismatch on shot")
		}
	case IntentPassShort, IntentPassLong, IntentPassThrough, IntentPassCross, IntentClear:
		if a, ok := elaboratePass(ectx, id, in); ok {
			st.installAction(a)
		} else {
			st.pushDiagnostic(DiagInvariantViolation, id, "gate A key mismatch on pass")
		}
	case IntentDribbleProtect, IntentDribbleProgress, IntentDribbleBeat:
		if a, ok := elaborateDribble(ectx, id, in); ok {
			st.installAction(a)
		} else {
			st.pushDiagnostic(DiagInvariantViolation, id, "gate A key mismatch on dribble")
		}
		st.Players[id].Sticky.Dribble = true
	case IntentHoldBall:
		st.setPlayerState(id, StateDribbling)
	case IntentTackle:
		victimCfg := e.playerConfig(in.Target)
		if a, ok := elaborateTackle(ectx, id, in, &victimCfg.Attr); ok {
			st.installAction(a)
		} else {
			st.pushDiagnostic(DiagInvariantViolation, id, "gate A key mismatch on tackle")
		}
	case IntentIntercept:
		st.setPlayerState(id, StateChasing)
	case IntentPress:
		st.setPlayerState(id, StateDefending)
		st.Players[id].Sticky.Press = true
		st.Players[id].HasObjective = true
		st.Players[id].Objective = OffBallObjective{
			Target: in.TargetPos, Intent: ObjPressSupport, Urgency: 0.8,
			TTLTicks: ObjectiveTTLTicks / 2, CreatedTick: snap.Tick,
		}
	case IntentContain, IntentCover:
		st.setPlayerState(id, StateDefending)
		st.Players[id].Sticky.Press = false
		st.Players[id].HasObjective = true
		st.Players[id].Objective = OffBallObjective{
			Target: in.TargetPos, Intent: ObjScreen, Urgency: 0.6,
			TTLTicks: ObjectiveTTLTicks, CreatedTick: snap.Tick,
		}
	case IntentMove:
		*movers = append(*movers, id)
	}
}

// commitObjectives runs the off-ball candidate/score/collision pipeline for
// the tick's movers.
func (e *Engine) commitObjectives(snap *TickSnapshot, movers []PlayerID) {
	st := &e.state
	if len(movers) == 0 {
		return
	}
	picks := make([]objectivePick, 0, len(movers))
	for _, id := range movers {
		side := id.Side()
		phase := gamePhaseFor(snap, side, snap.Tick-e.lastFlipTick)
		anchor := formationAnchor(snap, side, id.SquadIndex(), e.formation(side), e.instructions[side])
		cands := generateOffBallCandidates(snap, id, phase, anchor, e.instructions[side])
		scores := make([]Score6, len(cands))
		for i, c := range cands {
			scores[i] = scoreOffBallCandidate(snap, id, c, anchor)
		}
		chosen := selectObjective(cands, scores, e.exp.Decision.OffballTemperature, e.seed, snap.Tick, id)
		picks = append(picks, objectivePick{player: id, cands: cands, scores: scores, chosen: chosen})
	}

	resolveObjectiveCollisions(picks)

	for _, p := range picks {
		if p.chosen < 0 {
			continue
		}
		c := p.cands[p.chosen]
		rt := &st.Players[p.player]
		rt.HasObjective = true
		rt.Objective = OffBallObjective{
			Target:      c.Target,
			Intent:      c.Intent,
			Urgency:     c.Urgency,
			TTLTicks:    ObjectiveTTLTicks,
			CreatedTick: snap.Tick,
		}
		if rt.State == StateIdle {
			// Off-ball movement; state stays idle unless chasing.
			rt.StateTick = 0
		}
	}
}

// substep advances physics 50 ms: steering, integration, ball, actions,
// loose-ball pickups, out-of-play sweep.
func (e *Engine) substep(snap *TickSnapshot) {
	st := &e.state

	for i := range st.Players {
		id := PlayerID(i)
		p := &st.Players[i]
		if p.SentOff {
			continue
		}
		if p.State == StateRecovering {
			// Grounded: bleed velocity, stand up after ~1 s.
			p.Vel = geom.VelFromMetres(p.Vel.MetresX()*0.7, p.Vel.MetresY()*0.7)
			if p.StateTick >= TicksPerSecond {
				st.setPlayerState(id, StateIdle)
			}
			continue
		}
		cfg := e.playerConfig(id)
		mp := motionParams(&cfg.Attr, p.Stamina, p.Sticky.Sprint)
		vx, vy := e.desiredVelocity(snap, id)
		integratePlayer(p, vx, vy, mp)
	}

	// Carrier drags the controlled ball. A live dribble manages its own
	// ball-player separation; everyone else keeps it at their feet.
	if owner, ok := st.Ball.ControlledBy(); ok {
		if a := st.actionOf(owner); a == nil || a.Type != ActionDribble {
			st.Ball.Pos = st.Players[owner].Pos
		}
		e.lastTouchSide = owner.Side()
	}

	out := stepBall(&st.Ball)
	// A struck shot in Resolve owns its line crossing: the flight resolver
	// classifies Goal/Wide/Woodwork there, not the generic sweep.
	if out && st.Ball.State != BallOutOfPlay && !e.shotFlightLive() {
		e.rules.onBallOut(e, e.lastTouchSide)
	}

	e.advanceActions(snap)
	e.pickupLooseBall()
	e.expireObjectives()
}

// shotFlightLive reports whether a struck shot is waiting on the flight
// resolver.
func (e *Engine) shotFlightLive() bool {
	for i := range e.state.Actions {
		a := &e.state.Actions[i]
		if a.Type == ActionShot && a.Phase == PhaseResolve && a.Shot.Struck {
			return true
		}
	}
	return false
}

// pickupLooseBall lets the closest player within control range, whatever
// his state (unless recovering), claim a rolling/settled ball.
func (e *Engine) pickupLooseBall() {
	st := &e.state
	if st.Ball.State != BallRolling && st.Ball.State != BallSettled {
		return
	}
	// Skip while a pass resolve is live: its arrival pipeline owns touches.
	for i := range st.Actions {
		a := &st.Actions[i]
		if a.Phase == PhaseResolve && (a.Type == ActionPass || a.Type == ActionShot || a.Type == ActionSetPiece) {
			return
		}
	}
	best := NoPlayer
	bestSq := int64(1 << 62)
	rSq := int64(DribbleControlRange/geom.Unit) * int64(DribbleControlRange/geom.Unit)
	for i := range st.Players {
		p := &st.Players[i]
		if p.SentOff || p.State == StateRecovering {
			continue
		}
		d := p.Pos.DistSqU(st.Ball.Pos)
		if d <= rSq && d < bestSq {
			bestSq = d
			best = PlayerID(i)
		}
	}
	if best == NoPlayer {
		return
	}
	st.Ball.control(best)
	st.Ball.Pos = st.Players[best].Pos
	st.setPlayerState(best, StateDribbling)
	e.setPossession(best.Side())
}

// expireObjectives retires TTL-exhausted objectives.
func (e *Engine) expireObjectives() {
	st := &e.state
	for i := range st.Players {
		p := &st.Players[i]
		if !p.HasObjective {
			continue
		}
		if st.Tick-p.Objective.CreatedTick >= uint64(p.Objective.TTLTicks) {
			p.HasObjective = false
		}
	}
}

// drainStamina applies the per-tick drain model.
func (e *Engine) drainStamina() {
	st := &e.state
	for i := range st.Players {
		p := &st.Players[i]
		if p.SentOff {
			continue
		}
		cfg := e.playerConfig(PlayerID(i))
		cond := int(cfg.Condition)
		mult := ConditionDrainMultiplier[cond] * e.exp.Stamina.DrainScale
		// High stamina attribute slows the bleed.
		mult *= 1.15 - 0.3*skill01(cfg.Attr.Stamina)

		speed := p.Vel.SpeedM()
		drain := StaminaBaseDrain
		if p.Sticky.Sprint || speed > 6.5 {
			drain += StaminaSprintDrain
		}
		if p.Sticky.Press {
			drain += StaminaPressDrain
		}
		if speed < 1.0 {
			p.Stamina = clamp01(p.Stamina + StaminaRecover)
			continue
		}
		p.Stamina = clamp01(p.Stamina - drain*mult)
	}
}

// flushTickEvents sorts the staged events into the declared intra-tick
// order and appends them to the log.
func (e *Engine) flushTickEvents() []MatchEvent {
	st := &e.state
	if len(st.eventsThisTick) == 0 {
		return nil
	}
	sort.SliceStable(st.eventsThisTick, func(i, j int) bool {
		a, b := &st.eventsThisTick[i], &st.eventsThisTick[j]
		if ra, rb := eventOrder(a.Type), eventOrder(b.Type); ra != rb {
			return ra < rb
		}
		return a.PlayerID < b.PlayerID
	})
	start := len(st.Events)
	st.Events = append(st.Events, st.eventsThisTick...)
	st.eventsThisTick = st.eventsThisTick[:0]
	return st.Events[start:]
}

// updatePossessionClock attributes the tick.
func (e *Engine) updatePossessionClock() {
	st := &e.state
	if st.Ball.State == BallOutOfPlay {
		st.RestartTicks++
		return
	}
	st.PossessionTicks[st.Possession]++
}

// checkInvariants verifies the per-tick contracts. Violations are bugs:
// diagnostics in release, assertion failures under test harnesses.
func (e *Engine) checkInvariants() {
	st := &e.state
	owners := 0
	for i := range st.Players {
		id := PlayerID(i)
		if st.Players[i].State == StateDribbling {
			owner, ok := st.Ball.ControlledBy()
			if !ok || owner != id {
				// Transient after a loose touch; only flag if it persists.
				if st.Players[i].StateTick > 2 {
					st.pushDiagnostic(DiagInvariantViolation, id, "dribbling without ball control")
					st.setPlayerState(id, StateChasing)
				}
			}
		}
	}
	if st.Ball.State == BallControlled {
		owners = 1
		if st.Ball.Owner >= 2*SquadSize {
			st.pushDiagnostic(DiagInvariantViolation, 0, fmt.Sprintf("ball owner %d out of range", st.Ball.Owner))
		}
	}
	_ = owners
}

// hashTick folds the fixed-point world state into the determinism digest.
func (e *Engine) hashTick() {
	st := &e.state
	h := e.hasher
	h.writeU64(st.Tick)
	h.writeI32(st.Ball.Pos.X)
	h.writeI32(st.Ball.Pos.Y)
	h.writeI32(st.Ball.Vel.X)
	h.writeI32(st.Ball.Vel.Y)
	h.writeI32(st.Ball.HeightU)
	h.writeU64(uint64(st.Ball.State))
	h.writeU64(uint64(st.Score[Home])<<8 | uint64(st.Score[Away]))
	for i := range st.Players {
		h.writeI32(st.Players[i].Pos.X)
		h.writeI32(st.Players[i].Pos.Y)
		h.writeI32(st.Players[i].Vel.X)
		h.writeI32(st.Players[i].Vel.Y)
	}
}

// advanceClock moves the tick/minute counters, handles half time and full
// time, and ticks player state clocks.
func (e *Engine) advanceClock() {
	st := &e.state
	for i := range st.Players {
		st.Players[i].StateTick++
	}
	st.Tick++
	newMinute := uint16(st.Tick / TicksPerMinute)
	if newMinute != st.Minute {
		st.Minute = newMinute
	}

	if st.Half == 0 {
		st.Half = 1
	}
	if st.Half == 1 && st.Minute >= HalfTimeMinute {
		st.Half = 2
		st.pushEvent(MatchEvent{Team: Home, Type: EventHalfTime, X: 52.5, Y: 34})
		e.flushTickEvents()
		e.setupKickoff(Away, false)
		st.pushEvent(MatchEvent{
			Team: Away, Type: EventKickOff,
			X: geom.Centre().MetresX(), Y: geom.Centre().MetresY(),
		})
		e.flushTickEvents()
	}
	if st.Minute >= RegulationMinutes && st.Ball.State == BallOutOfPlay && !e.finished {
		e.finishMatch()
	}
	// Hard stop: added time never exceeds five minutes.
	if st.Minute >= RegulationMinutes+5 && !e.finished {
		e.finishMatch()
	}
}

func (e *Engine) finishMatch() {
	e.finished = true
	e.state.pushEvent(MatchEvent{Team: Home, Type: EventFullTime, X: 52.5, Y: 34})
	e.flushTickEvents()
}

// Finished reports whether the match reached full time.
func (e *Engine) Finished() bool { return e.finished }

// State exposes read access for observation builders and tests.
func (e *Engine) State() *MatchState { return &e.state }

// Snapshot builds a fresh snapshot of the current state.
func (e *Engine) Snapshot() TickSnapshot { return e.state.snapshot() }

// IntentTrace returns the decision telemetry log.
func (e *Engine) IntentTrace() *IntentLog { return e.ilog }

// RuleDecisions returns the recorded rulings.
func (e *Engine) RuleDecisions() []RuleDecision { return e.rules.Decisions() }

// Run simulates until full time or ctx cancellation (checked between
// ticks — a tick itself never suspends). A cancelled run returns a result
// flagged Incomplete.
func (e *Engine) Run(ctx context.Context) (*MatchResult, error) {
	var positions *MatchPositionData
	cadence := uint64(ReplayCadenceDefaultMS) / uint64(DecisionDT*1000)
	if cadence == 0 {
		cadence = 1
	}
	if e.plan.EnablePositionTracking {
		positions = &MatchPositionData{CadenceTicks: cadence}
	}

	for !e.finished {
		select {
		case <-ctx.Done():
			res := e.buildResult(positions)
			res.Incomplete = true
			return res, ctx.Err()
		default:
		}
		e.Step()
		if positions != nil && e.state.Tick%cadence == 0 {
			positions.Frames = append(positions.Frames, e.positionFrame())
		}
	}
	return e.buildResult(positions), nil
}

func (e *Engine) positionFrame() PositionFrame {
	st := &e.state
	f := PositionFrame{
		Tick:  st.Tick,
		Ball:  [2]int32{st.Ball.Pos.X, st.Ball.Pos.Y},
		BallH: st.Ball.HeightU,
	}
	for i := range st.Players {
		f.Players[i] = [2]int32{st.Players[i].Pos.X, st.Players[i].Pos.Y}
	}
	return f
}

func (e *Engine) buildResult(positions *MatchPositionData) *MatchResult {
	st := &e.state
	return &MatchResult{
		MatchID:    newMatchID(e.seed),
		HomeTeam:   e.plan.Home.Name,
		AwayTeam:   e.plan.Away.Name,
		Score:      st.Score,
		Statistics: e.stats.finalize(st.PossessionTicks),
		Events:     st.Events,
		Positions:  positions,
		Determinism: DeterminismMeta{
			Seed: e.seed,
			Hash: fmt.Sprintf("%016x", e.hasher.Sum()),
			Algo: DeterminismAlgo,
			Mode: e.runMode(),
		},
		RuleDecisions: e.rules.Decisions(),
		Diagnostics:   st.Diagnostics,
	}
}

func (e *Engine) runMode() string {
	if e.exp.Decision.ForceActive {
		return "always_active"
	}
	return "variable_cadence"
}
