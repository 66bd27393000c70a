package match

import "math"

// MatchStatistics is the aggregated post-match payload.
type MatchStatistics struct {
	Possession    [2]float64 `json:"possession"` // percent
	Shots         [2]int     `json:"shots"`
	ShotsOnTarget [2]int     `json:"shotsOnTarget"`
	Saves         [2]int     `json:"saves"`
	XG            [2]float64 `json:"xg"`
	Passes        [2]int     `json:"passes"`
	PassesOK      [2]int     `json:"passesComplete"`
	PassPct       [2]float64 `json:"passPct"`
	Corners       [2]int     `json:"corners"`
	Fouls         [2]int     `json:"fouls"`
	Offsides      [2]int     `json:"offsides"`
	Ratings       [2 * SquadSize]float64 `json:"ratings"`
}

// statsAccum folds events and possession ticks during simulation.
type statsAccum struct {
	s MatchStatistics

	// rating deltas per player, folded into a 6.0-base rating at the end.
	ratingDelta [2 * SquadSize]float64
}

func newStatsAccum() *statsAccum { return &statsAccum{} }

func (sa *statsAccum) addShot(side TeamSide, xg float64) {
	sa.s.Shots[side]++
	sa.s.XG[side] += xg
}

func (sa *statsAccum) addShotOnTarget(side TeamSide) { sa.s.ShotsOnTarget[side]++ }
func (sa *statsAccum) addSave(side TeamSide)         { sa.s.Saves[side]++ }
func (sa *statsAccum) addCorner(side TeamSide)       { sa.s.Corners[side]++ }
func (sa *statsAccum) addFoul(side TeamSide)         { sa.s.Fouls[side]++ }
func (sa *statsAccum) addOffside(side TeamSide)      { sa.s.Offsides[side]++ }

// observe folds the tick's sorted events into counters and ratings.
func (sa *statsAccum) observe(events []MatchEvent) {
	for _, ev := range events {
		id := ev.PlayerID
		switch ev.Type {
		case EventPass:
			sa.s.Passes[ev.Team]++
		case EventPassComplete:
			sa.s.PassesOK[ev.Team]++
			sa.bump(id, 0.02)
		case EventPassFail:
			sa.bump(id, -0.03)
		case EventKeyPass:
			sa.bump(id, 0.25)
		case EventGoal:
			sa.bump(id, 1.1)
		case EventOwnGoal:
			sa.bump(id, -0.9)
		case EventShotOnTarget:
			sa.bump(id, 0.12)
		case EventSave:
			sa.bump(id, 0.30)
		case EventTackle:
			if ev.Details.Outcome == "won" {
				sa.bump(id, 0.15)
			} else {
				sa.bump(id, -0.05)
			}
		case EventInterception:
			sa.bump(id, 0.12)
		case EventFoul:
			sa.bump(id, -0.15)
		case EventCardYellow:
			sa.bump(id, -0.3)
		case EventCardRed:
			sa.bump(id, -1.0)
		case EventOffside:
			sa.bump(id, -0.05)
		}
	}
}

func (sa *statsAccum) bump(id PlayerID, delta float64) {
	if int(id) < len(sa.ratingDelta) {
		sa.ratingDelta[id] += delta
	}
}

// finalize computes percentages and ratings.
func (sa *statsAccum) finalize(possessionTicks [2]uint64) MatchStatistics {
	total := possessionTicks[Home] + possessionTicks[Away]
	if total > 0 {
		sa.s.Possession[Home] = math.Round(float64(possessionTicks[Home])/float64(total)*1000) / 10
		sa.s.Possession[Away] = math.Round(float64(possessionTicks[Away])/float64(total)*1000) / 10
	}
	for side := 0; side < 2; side++ {
		if sa.s.Passes[side] > 0 {
			sa.s.PassPct[side] = math.Round(float64(sa.s.PassesOK[side])/float64(sa.s.Passes[side])*1000) / 10
		}
	}
	for i := range sa.ratingDelta {
		r := 6.0 + sa.ratingDelta[i]
		if r < 1 {
			r = 1
		}
		if r > 10 {
			r = 10
		}
		sa.s.Ratings[i] = math.Round(r*10) / 10
	}
	return sa.s
}
