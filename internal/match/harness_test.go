package match

import (
	"testing"

	"matchday/internal/match/geom"
)

// Headless deterministic harness shared by the package tests. Mirrors the
// functional-option fixture style: small scenario builders over a real
// engine, no mocks.

func centreCoord() geom.Coord { return geom.Centre() }

// testEngine builds an engine or fails the test.
func testEngine(t *testing.T, plan MatchPlan, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(plan, opts...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

// runTicks advances n decision ticks.
func runTicks(e *Engine, n int) {
	for i := 0; i < n && !e.Finished(); i++ {
		e.Step()
	}
}

// runMinutes advances whole match minutes.
func runMinutes(e *Engine, minutes int) {
	runTicks(e, minutes*TicksPerMinute)
}

// snapshotFixture builds a hand-positioned snapshot for pure-function
// tests. Players default to their index spread across the pitch; mutate
// through the returned pointer.
func snapshotFixture() *TickSnapshot {
	snap := &TickSnapshot{
		Tick:             100,
		Minute:           10,
		HomeAttacksRight: true,
		Possession:       Home,
		Mode:             ModeNormal,
	}
	snap.Ball.Pos = geom.Centre()
	snap.Ball.State = BallRolling
	snap.Ball.Owner = NoPlayer
	for i := range snap.Players {
		id := PlayerID(i)
		x := int32(200 + 40*(i%SquadSize))
		if id.Side() == Away {
			x = geom.FieldLengthU - x
		}
		snap.Players[i].Pos = geom.Coord{X: x, Y: int32(60 + 50*(i%SquadSize))}
		snap.Players[i].State = StateIdle
		snap.Players[i].Stamina = 1
	}
	return snap
}

// giveBall marks a snapshot's ball as controlled.
func giveBall(snap *TickSnapshot, id PlayerID) {
	snap.Ball.State = BallControlled
	snap.Ball.Owner = id
	snap.Ball.HasOwner = true
	snap.Ball.Pos = snap.Players[id].Pos
	snap.Players[id].HasBall = true
	snap.Players[id].State = StateDribbling
	snap.Possession = id.Side()
}

// checkEventInvariants quantifies the event-stream contracts over a
// finished (or partial) run.
func checkEventInvariants(t *testing.T, events []MatchEvent) {
	t.Helper()

	// Shots indexed first: the declared intra-tick order ranks a goal ahead
	// of the shot that produced it, so linkage needs the full stream.
	shotTicks := map[PlayerID][]uint64{}
	for _, ev := range events {
		if ev.Type == EventShot || ev.Type == EventShotOnTarget {
			shotTicks[ev.PlayerID] = append(shotTicks[ev.PlayerID], ev.Tick)
		}
	}
	hasLinkedShot := func(id PlayerID, goalTick uint64) bool {
		for _, st := range shotTicks[id] {
			if st <= goalTick && goalTick-st <= GoalShotLinkTicks {
				return true
			}
		}
		return false
	}

	lastTick := uint64(0)
	for _, ev := range events {
		if ev.X < 0 || ev.X > 105 || ev.Y < 0 || ev.Y > 68 {
			t.Errorf("tick %d: event %s coordinates (%.1f, %.1f) out of field",
				ev.Tick, ev.TypeName, ev.X, ev.Y)
		}
		if ev.Tick < lastTick {
			t.Errorf("event stream not tick-monotonic: %d after %d", ev.Tick, lastTick)
		}
		lastTick = ev.Tick

		if ev.Type == EventGoal && !hasLinkedShot(ev.PlayerID, ev.Tick) {
			t.Errorf("tick %d: goal by %d without a shot within %d ticks",
				ev.Tick, ev.PlayerID, GoalShotLinkTicks)
		}
	}
}

// foldScore recomputes the score from the event stream.
func foldScore(events []MatchEvent) [2]uint8 {
	var s [2]uint8
	for _, ev := range events {
		if ev.Type == EventGoal || ev.Type == EventOwnGoal {
			s[ev.Team]++
		}
	}
	return s
}
