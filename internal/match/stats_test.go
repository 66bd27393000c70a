package match

import "testing"

func TestStatsPossessionSplit(t *testing.T) {
	sa := newStatsAccum()
	s := sa.finalize([2]uint64{600, 400})
	if s.Possession[Home] != 60.0 || s.Possession[Away] != 40.0 {
		t.Errorf("possession = %v", s.Possession)
	}
}

func TestStatsPassAccuracy(t *testing.T) {
	sa := newStatsAccum()
	for i := 0; i < 10; i++ {
		sa.observe([]MatchEvent{{Team: Home, Type: EventPass, PlayerID: 4}})
	}
	for i := 0; i < 7; i++ {
		sa.observe([]MatchEvent{{Team: Home, Type: EventPassComplete, PlayerID: 4}})
	}
	s := sa.finalize([2]uint64{1, 1})
	if s.Passes[Home] != 10 || s.PassesOK[Home] != 7 {
		t.Fatalf("pass counts %d/%d", s.PassesOK[Home], s.Passes[Home])
	}
	if s.PassPct[Home] != 70.0 {
		t.Errorf("pass pct = %v, want 70.0", s.PassPct[Home])
	}
}

func TestStatsRatingsClamped(t *testing.T) {
	sa := newStatsAccum()
	// A disaster shift: multiple red cards' worth of deltas.
	for i := 0; i < 20; i++ {
		sa.observe([]MatchEvent{{Team: Home, Type: EventCardRed, PlayerID: 2}})
	}
	// A wonder shift.
	for i := 0; i < 20; i++ {
		sa.observe([]MatchEvent{{Team: Away, Type: EventGoal, PlayerID: 15}})
	}
	s := sa.finalize([2]uint64{1, 1})
	if s.Ratings[2] < 1 || s.Ratings[2] > 10 {
		t.Errorf("rating %v escaped [1,10]", s.Ratings[2])
	}
	if s.Ratings[15] != 10 {
		t.Errorf("capped rating = %v, want 10", s.Ratings[15])
	}
	// Untouched players sit at the 6.0 baseline.
	if s.Ratings[7] != 6.0 {
		t.Errorf("baseline rating = %v, want 6.0", s.Ratings[7])
	}
}

func TestStatsShotAccounting(t *testing.T) {
	sa := newStatsAccum()
	sa.addShot(Home, 0.3)
	sa.addShot(Home, 0.1)
	sa.addShotOnTarget(Home)
	sa.addSave(Away)
	s := sa.finalize([2]uint64{1, 1})
	if s.Shots[Home] != 2 || s.ShotsOnTarget[Home] != 1 || s.Saves[Away] != 1 {
		t.Errorf("shot accounting %+v", s)
	}
	if s.XG[Home] != 0.4 {
		t.Errorf("xg = %v", s.XG[Home])
	}
}
