// Package replay implements the v2 replay format: a fixed-point integer
// event log plus compact position keyframes at a configurable save cadence,
// wrapped in a JSON envelope. Byte-reproducible from (seed, inputs); the
// envelope carries the file hash in its own FileHash field for verification,
// and the embedded DeterminismMeta holds no file hash.
package replay

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"

	"matchday/internal/match"
)

// FormatVersion is the envelope schema version. Decoders reject anything
// else with SCHEMA_VERSION_MISMATCH semantics.
const FormatVersion = 2

// Envelope is the persisted replay document.
type Envelope struct {
	Version      int                    `json:"version"`
	MatchID      string                 `json:"matchId"`
	Seed         uint64                 `json:"seed"`
	HomeTeam     string                 `json:"homeTeam"`
	AwayTeam     string                 `json:"awayTeam"`
	Score        [2]uint8               `json:"score"`
	CadenceTicks uint64                 `json:"cadenceTicks"`
	Frames       []match.PositionFrame  `json:"frames"`
	Events       []match.MatchEvent     `json:"events"`
	Determinism  match.DeterminismMeta  `json:"determinism"`
	FileHash     string                 `json:"fileHash"`
}

// CadenceTicksFromMS converts a save cadence in milliseconds to decision
// ticks, clamped to the contractual 100..200 ms band.
func CadenceTicksFromMS(ms int) uint64 {
	if ms < match.ReplayCadenceMinMS {
		ms = match.ReplayCadenceMinMS
	}
	if ms > match.ReplayCadenceMaxMS {
		ms = match.ReplayCadenceMaxMS
	}
	t := uint64(ms) / uint64(match.DecisionDT*1000)
	if t == 0 {
		t = 1
	}
	return t
}

// FromResult builds an envelope from a completed match.
func FromResult(res *match.MatchResult) (*Envelope, error) {
	if res.Incomplete {
		return nil, errors.New("refusing to export an incomplete match")
	}
	env := &Envelope{
		Version:     FormatVersion,
		MatchID:     res.MatchID,
		Seed:        res.Determinism.Seed,
		HomeTeam:    res.HomeTeam,
		AwayTeam:    res.AwayTeam,
		Score:       res.Score,
		Events:      res.Events,
		Determinism: res.Determinism,
	}
	if res.Positions != nil {
		env.CadenceTicks = res.Positions.CadenceTicks
		env.Frames = res.Positions.Frames
	}
	env.FileHash = env.computeHash()
	return env, nil
}

// computeHash digests the canonical body (everything except FileHash).
func (e *Envelope) computeHash() string {
	body := *e
	body.FileHash = ""
	data, _ := json.Marshal(&body)
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// Encode serializes the envelope.
func (e *Envelope) Encode() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, errors.Wrap(err, "encode replay")
	}
	return data, nil
}

// Decode parses and verifies an envelope: version gate first, then the
// file hash.
func Decode(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(err, "decode replay")
	}
	if env.Version != FormatVersion {
		return nil, errors.Errorf("%s: replay version %d, want %d",
			match.CodeSchemaVersionMismatch, env.Version, FormatVersion)
	}
	if env.FileHash != "" && env.FileHash != env.computeHash() {
		return nil, errors.New("replay file hash mismatch: corrupted or edited")
	}
	return &env, nil
}
