package replay

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"matchday/internal/match"
)

// Archive is the SQLite-backed store for completed matches and their
// replay envelopes.
type Archive struct {
	conn *sql.DB
}

const archiveSchema = `
CREATE TABLE IF NOT EXISTS matches (
	match_id    TEXT PRIMARY KEY,
	seed        INTEGER NOT NULL,
	home_team   TEXT NOT NULL,
	away_team   TEXT NOT NULL,
	home_score  INTEGER NOT NULL,
	away_score  INTEGER NOT NULL,
	det_hash    TEXT NOT NULL,
	result_json TEXT NOT NULL,
	created_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS replays (
	match_id    TEXT PRIMARY KEY REFERENCES matches(match_id),
	file_hash   TEXT NOT NULL,
	envelope    BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_matches_seed ON matches(seed);
`

// OpenArchive opens (or creates) the archive at path and applies the
// schema.
func OpenArchive(path string) (*Archive, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open archive")
	}
	if _, err := conn.Exec(archiveSchema); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "apply archive schema")
	}
	return &Archive{conn: conn}, nil
}

// Close closes the underlying connection.
func (a *Archive) Close() error { return a.conn.Close() }

// SaveResult upserts a completed match and, when the result carries
// position data, its replay envelope.
func (a *Archive) SaveResult(res *match.MatchResult) error {
	if res.Incomplete {
		return errors.New("refusing to archive an incomplete match")
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return errors.Wrap(err, "marshal result")
	}
	_, err = a.conn.Exec(`
		INSERT INTO matches (match_id, seed, home_team, away_team, home_score, away_score, det_hash, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(match_id) DO UPDATE SET
			home_score = excluded.home_score,
			away_score = excluded.away_score,
			det_hash   = excluded.det_hash,
			result_json = excluded.result_json`,
		res.MatchID, int64(res.Determinism.Seed), res.HomeTeam, res.AwayTeam,
		res.Score[match.Home], res.Score[match.Away], res.Determinism.Hash, string(payload))
	if err != nil {
		return errors.Wrap(err, "insert match")
	}

	if res.Positions == nil {
		return nil
	}
	env, err := FromResult(res)
	if err != nil {
		return err
	}
	data, err := env.Encode()
	if err != nil {
		return err
	}
	_, err = a.conn.Exec(`
		INSERT INTO replays (match_id, file_hash, envelope)
		VALUES (?, ?, ?)
		ON CONFLICT(match_id) DO UPDATE SET
			file_hash = excluded.file_hash,
			envelope  = excluded.envelope`,
		res.MatchID, env.FileHash, data)
	return errors.Wrap(err, "insert replay")
}

// LoadResult fetches one archived result by id.
func (a *Archive) LoadResult(matchID string) (*match.MatchResult, error) {
	var payload string
	err := a.conn.QueryRow(
		`SELECT result_json FROM matches WHERE match_id = ?`, matchID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, errors.Errorf("match %s not found", matchID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "query match")
	}
	var res match.MatchResult
	if err := json.Unmarshal([]byte(payload), &res); err != nil {
		return nil, errors.Wrap(err, "unmarshal result")
	}
	return &res, nil
}

// LoadReplay fetches and verifies one archived envelope.
func (a *Archive) LoadReplay(matchID string) (*Envelope, error) {
	var data []byte
	err := a.conn.QueryRow(
		`SELECT envelope FROM replays WHERE match_id = ?`, matchID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, errors.Errorf("replay %s not found", matchID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "query replay")
	}
	return Decode(data)
}

// MatchRow is one archive listing entry.
type MatchRow struct {
	MatchID  string
	Seed     uint64
	HomeTeam string
	AwayTeam string
	Score    [2]uint8
	DetHash  string
}

// List returns the most recent matches, newest first.
func (a *Archive) List(limit int) ([]MatchRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.conn.Query(`
		SELECT match_id, seed, home_team, away_team, home_score, away_score, det_hash
		FROM matches ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list matches")
	}
	defer rows.Close()

	var out []MatchRow
	for rows.Next() {
		var r MatchRow
		var seed int64
		if err := rows.Scan(&r.MatchID, &seed, &r.HomeTeam, &r.AwayTeam,
			&r.Score[0], &r.Score[1], &r.DetHash); err != nil {
			return nil, errors.Wrap(err, "scan match row")
		}
		r.Seed = uint64(seed)
		out = append(out, r)
	}
	return out, rows.Err()
}
