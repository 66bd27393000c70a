package match

// MatchState is the full mutable world state owned by one Engine. Phase-2
// commit code and the substep integrators are its only writers.
type MatchState struct {
	Tick    uint64
	Minute  uint16
	Half    uint8 // 0 before the first tick closes, then 1 or 2
	Score   [2]uint8

	Possession      TeamSide
	PossessionTicks [2]uint64
	RestartTicks    uint64 // ticks with the ball out of play

	Ball    Ball
	Players [2 * SquadSize]PlayerRuntime

	// Actions holds the live multi-tick FSMs. Finished entries are
	// compacted at tick end.
	Actions []ActiveAction

	Events      []MatchEvent
	Diagnostics []Diagnostic

	// Mode mirrors the restart context for snapshot building.
	Mode GameModeTag

	// pendingRestart is staged by the rule dispatcher and executed at the
	// next tick boundary.
	pendingRestart  RestartType
	pendingRestartBy TeamSide

	// eventsThisTick is the staging buffer sorted into declared order and
	// appended to Events at tick end.
	eventsThisTick []MatchEvent
}

// HomeAttacksRight reports the attack direction this half. Sides swap at
// half time.
func (st *MatchState) HomeAttacksRight() bool { return st.Half != 2 }

// snapshot builds the immutable per-tick SSOT.
func (st *MatchState) snapshot() TickSnapshot {
	snap := TickSnapshot{
		Tick:             st.Tick,
		Minute:           st.Minute,
		Score:            st.Score,
		Possession:       st.Possession,
		Mode:             st.Mode,
		HomeAttacksRight: st.HomeAttacksRight(),
		Ball: BallSnap{
			Pos:     st.Ball.Pos,
			Vel:     st.Ball.Vel,
			HeightU: st.Ball.HeightU,
			State:   st.Ball.State,
		},
	}
	if owner, ok := st.Ball.ControlledBy(); ok {
		snap.Ball.Owner = owner
		snap.Ball.HasOwner = true
	} else {
		snap.Ball.Owner = NoPlayer
	}
	for i := range st.Players {
		p := &st.Players[i]
		snap.Players[i] = PlayerSnap{
			Pos:     p.Pos,
			Vel:     p.Vel,
			State:   p.State,
			Stamina: p.Stamina,
			HasBall: snap.Ball.HasOwner && snap.Ball.Owner == PlayerID(i),
			SentOff: p.SentOff,
		}
	}
	return snap
}

// setPlayerState transitions a player's FSM state and resets the in-state
// tick counter.
func (st *MatchState) setPlayerState(id PlayerID, s PlayerStateTag) {
	p := &st.Players[id]
	if p.State != s {
		p.State = s
		p.StateTick = 0
	}
}

// actionOf returns the live action owned by a player, or nil.
func (st *MatchState) actionOf(id PlayerID) *ActiveAction {
	idx := st.Players[id].ActionIdx
	if idx < 0 || int(idx) >= len(st.Actions) {
		return nil
	}
	a := &st.Actions[idx]
	if a.Owner != id || a.Phase == PhaseFinished {
		return nil
	}
	return a
}

// pushEvent stages an event for this tick. Coordinates are clamped to the
// field so no event ever escapes [0,105]x[0,68].
func (st *MatchState) pushEvent(ev MatchEvent) {
	if ev.X < 0 {
		ev.X = 0
	}
	if ev.X > 105 {
		ev.X = 105
	}
	if ev.Y < 0 {
		ev.Y = 0
	}
	if ev.Y > 68 {
		ev.Y = 68
	}
	ev.Tick = st.Tick
	ev.Minute = st.Minute
	ev.TypeName = ev.Type.String()
	st.eventsThisTick = append(st.eventsThisTick, ev)
}

// pushDiagnostic records a recoverable anomaly. Never swallowed: it lands
// both in the diagnostics report and as a typed event in the stream.
func (st *MatchState) pushDiagnostic(kind DiagnosticKind, player PlayerID, detail string) {
	st.Diagnostics = append(st.Diagnostics, Diagnostic{
		Tick: st.Tick, Kind: kind, Player: player, Detail: detail,
	})
	st.pushEvent(MatchEvent{
		Team:     player.Side(),
		PlayerID: player,
		Type:     EventDiagnostic,
		X:        st.Players[player].Pos.MetresX(),
		Y:        st.Players[player].Pos.MetresY(),
		Details:  EventDetails{Diagnostic: kind.String() + ": " + detail},
	})
}
