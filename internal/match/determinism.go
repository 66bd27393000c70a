package match

import (
	"encoding/binary"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Every random choice inside the pipeline derives from a hash of
// (seed, tick, player, subcase) through a version-stable 64-bit hasher.
// The platform map iteration order and the runtime hash seed never reach
// gameplay: replays are bit-identical across platforms and Go versions.

// Subcase constants keep independent draws from colliding. Values are
// stable identifiers, never reordered.
const (
	subcaseGateB         uint32 = 0x01
	subcaseTechnique     uint32 = 0x02
	subcasePassError     uint32 = 0x03
	subcaseShotError     uint32 = 0x04
	subcaseTackleOutcome uint32 = 0x05
	subcaseFoul          uint32 = 0x06
	subcaseCard          uint32 = 0x07
	subcaseOffballPick   uint32 = 0x08
	subcaseDribbleTouch  uint32 = 0x09
	subcaseSetPiece      uint32 = 0x0A
	subcaseDuel          uint32 = 0x0B
	subcaseSavePick      uint32 = 0x0C
	subcaseKickoffSide   uint32 = 0x0D
	subcaseInjury        uint32 = 0x0E
)

// decisionHash mixes (seed, tick, player, subcase) through xxhash64.
func decisionHash(seed, tick uint64, player PlayerID, subcase uint32) uint64 {
	var buf [21]byte
	binary.LittleEndian.PutUint64(buf[0:8], seed)
	binary.LittleEndian.PutUint64(buf[8:16], tick)
	buf[16] = byte(player)
	binary.LittleEndian.PutUint32(buf[17:21], subcase)
	return xxhash.Sum64(buf[:])
}

// hash01 maps a decision hash into [0, 1).
func hash01(seed, tick uint64, player PlayerID, subcase uint32) float64 {
	h := decisionHash(seed, tick, player, subcase)
	// 53 mantissa bits keep the conversion exact.
	return float64(h>>11) / float64(1<<53)
}

// deterministicIndex picks an index in [0, n) from a hash key.
func deterministicIndex(key uint64, n int) int {
	if n <= 0 {
		return 0
	}
	return int(key % uint64(n))
}

// deterministicChoice selects one element from items. The slice is sorted by
// sortKey first so the result does not depend on the caller's build order.
func deterministicChoice[T any](items []T, sortKey func(T) uint64, key uint64) (T, bool) {
	var zero T
	if len(items) == 0 {
		return zero, false
	}
	sorted := make([]T, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sortKey(sorted[i]) < sortKey(sorted[j])
	})
	return sorted[deterministicIndex(key, len(sorted))], true
}

// positionTieHash breaks exact ties between two players without team-side
// bias: the two coordinate tuples are ordered canonically before hashing, so
// swapping home/away yields the same winner geometry-wise.
// Returns true when the first argument wins.
func positionTieHash(seed, tick uint64, a, b tieEntrant) bool {
	lo, hi := a, b
	swapped := false
	if cmpTieEntrant(b, a) < 0 {
		lo, hi = b, a
		swapped = true
	}
	var buf [36]byte
	binary.LittleEndian.PutUint64(buf[0:8], seed)
	binary.LittleEndian.PutUint64(buf[8:16], tick)
	binary.LittleEndian.PutUint32(buf[16:20], uint32(lo.X))
	binary.LittleEndian.PutUint32(buf[20:24], uint32(lo.Y))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(hi.X))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(hi.Y))
	binary.LittleEndian.PutUint32(buf[32:36], 0x7e1e)
	h := xxhash.Sum64(buf[:])
	loWins := h&1 == 0
	if swapped {
		return !loWins
	}
	return loWins
}

// tieEntrant is the geometry fed to the tie hash. Player identity and team
// are deliberately absent.
type tieEntrant struct {
	X, Y int32
}

func cmpTieEntrant(a, b tieEntrant) int {
	if a.X != b.X {
		if a.X < b.X {
			return -1
		}
		return 1
	}
	if a.Y != b.Y {
		if a.Y < b.Y {
			return -1
		}
		return 1
	}
	return 0
}

// traceHasher accumulates the per-tick integer state stream that backs
// DeterminismMeta.Hash. Feeding only fixed-point values keeps the digest
// platform-independent.
type traceHasher struct {
	d *xxhash.Digest
}

func newTraceHasher() *traceHasher {
	return &traceHasher{d: xxhash.New()}
}

func (t *traceHasher) writeU64(v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, _ = t.d.Write(buf[:])
}

func (t *traceHasher) writeI32(v int32) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(v))
	_, _ = t.d.Write(buf[:])
}

func (t *traceHasher) Sum() uint64 { return t.d.Sum64() }

// DeterminismAlgo names the hasher in DeterminismMeta.
const DeterminismAlgo = "xxhash64"
