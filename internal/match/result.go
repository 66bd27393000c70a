package match

import (
	"fmt"

	"github.com/google/uuid"
)

// DeterminismMeta proves a result reproducible: same seed + inputs + algo
// must yield the same hash, byte for byte, on any platform.
type DeterminismMeta struct {
	Seed uint64 `json:"seed"`
	Hash string `json:"hash"`
	Algo string `json:"algo"`
	Mode string `json:"mode"`
}

// PositionFrame is one compact keyframe for replay.
type PositionFrame struct {
	Tick    uint64                    `json:"tick"`
	Ball    [2]int32                  `json:"ball"`
	BallH   int32                     `json:"ballH"`
	Players [2 * SquadSize][2]int32   `json:"players"`
}

// MatchPositionData is the optional replay track.
type MatchPositionData struct {
	CadenceTicks uint64          `json:"cadenceTicks"`
	Frames       []PositionFrame `json:"frames"`
}

// MatchResult is the frozen output of a completed simulation.
type MatchResult struct {
	MatchID    string          `json:"matchId"`
	HomeTeam   string          `json:"homeTeam"`
	AwayTeam   string          `json:"awayTeam"`
	Score      [2]uint8        `json:"score"`
	Statistics MatchStatistics `json:"statistics"`
	Events     []MatchEvent    `json:"events"`

	Positions *MatchPositionData `json:"positions,omitempty"`

	Determinism DeterminismMeta `json:"determinism"`

	RuleDecisions []RuleDecision `json:"ruleDecisions,omitempty"`
	Diagnostics   []Diagnostic   `json:"diagnostics,omitempty"`

	// Incomplete marks an externally truncated match; callers must not
	// treat it as a final result.
	Incomplete bool `json:"incomplete,omitempty"`
}

func newMatchID(seed uint64) string {
	// uuid v5-style stable id from the seed keeps archives reproducible.
	ns := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(ns, []byte(fmt.Sprintf("matchday:%d", seed))).String()
}
