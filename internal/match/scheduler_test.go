package match

import (
	"testing"

	"matchday/internal/match/geom"
)

func TestCadenceClassification(t *testing.T) {
	snap := snapshotFixture()
	snap.Ball.Pos = snap.Players[5].Pos

	tests := []struct {
		name string
		prep func()
		id   PlayerID
		want CadenceLevel
	}{
		{"has ball", func() { giveBall(snap, 5) }, 5, CadenceActive},
		{"near ball", func() {
			snap.Players[6].Pos = snap.Ball.Pos.Add(geom.Coord{X: 100}) // 10 m
		}, 6, CadenceActive},
		{"far from ball", func() {
			snap.Players[7].Pos = geom.Coord{X: snap.Ball.Pos.X + 400, Y: snap.Ball.Pos.Y}
		}, 7, CadencePassive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prep()
			if got := cadenceLevelFor(snap, tt.id); got != tt.want {
				t.Errorf("cadence = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSchedulerPassiveCadence(t *testing.T) {
	var sc scheduler
	var players [2 * SquadSize]PlayerRuntime

	snap := snapshotFixture()
	// Park everyone far from the ball.
	snap.Ball.Pos = geom.Coord{X: 20, Y: 20}
	for i := range snap.Players {
		snap.Players[i].Pos = geom.Coord{X: 900, Y: int32(100 + i*20)}
		players[i].Pos = snap.Players[i].Pos
	}

	// First tick wakes everyone (cold start).
	res := sc.schedule(snap, &players)
	if len(res.due) != 2*SquadSize {
		t.Fatalf("cold start must schedule everyone, got %d", len(res.due))
	}
	for i := range players {
		players[i].NextDueTick = res.nextDue[i]
		if res.nextDue[i] != snap.Tick+PassiveCadenceTicks {
			t.Fatalf("passive player %d due at %d, want +%d", i, res.nextDue[i], PassiveCadenceTicks)
		}
	}

	// Next tick: nobody due, context unchanged.
	snap.Tick++
	res = sc.schedule(snap, &players)
	if len(res.due) != 0 {
		t.Errorf("no one should re-decide inside the passive window, got %d", len(res.due))
	}
}

func TestSchedulerForceActiveParity(t *testing.T) {
	// With forceAllActive the schedule must equal the decide-every-tick
	// baseline regardless of geometry.
	var sc scheduler
	sc.forceAllActive = true
	var players [2 * SquadSize]PlayerRuntime
	snap := snapshotFixture()

	for tick := uint64(0); tick < 8; tick++ {
		snap.Tick = tick
		res := sc.schedule(snap, &players)
		if len(res.due) != 2*SquadSize {
			t.Fatalf("tick %d: forced-active scheduled %d, want all", tick, len(res.due))
		}
		for i := range players {
			players[i].NextDueTick = res.nextDue[i]
		}
	}
}

func TestSchedulerPullForwardOnPossessionFlip(t *testing.T) {
	var sc scheduler
	var players [2 * SquadSize]PlayerRuntime
	snap := snapshotFixture()
	snap.Ball.Pos = geom.Coord{X: 20, Y: 20}
	for i := range snap.Players {
		snap.Players[i].Pos = geom.Coord{X: 900, Y: int32(100 + i*20)}
		players[i].Pos = snap.Players[i].Pos
	}

	res := sc.schedule(snap, &players)
	for i := range players {
		players[i].NextDueTick = res.nextDue[i]
	}

	// Possession flip force-expires every due tick.
	snap.Tick++
	snap.Possession = Away
	res = sc.schedule(snap, &players)
	if len(res.due) != 2*SquadSize {
		t.Errorf("possession flip must pull everyone forward, got %d", len(res.due))
	}
}

func TestSchedulerIsPureOverSnapshot(t *testing.T) {
	var sc1, sc2 scheduler
	var p1, p2 [2 * SquadSize]PlayerRuntime
	snap := snapshotFixture()

	r1 := sc1.schedule(snap, &p1)
	r2 := sc2.schedule(snap, &p2)
	if len(r1.due) != len(r2.due) {
		t.Fatal("identical inputs produced different schedules")
	}
	for i := range r1.due {
		if r1.due[i] != r2.due[i] {
			t.Fatal("identical inputs produced different schedules")
		}
	}
	// The scheduler must not have mutated runtime state.
	for i := range p1 {
		if p1[i].NextDueTick != 0 {
			t.Fatal("scheduler mutated player state")
		}
	}
}
