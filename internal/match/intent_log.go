package match

// Decision telemetry: a per-tick trace of what each scheduled player
// considered, chose, and was granted. Consumed by bias analysis tooling;
// losers' intents are recorded here and discarded for execution.

// DecisionIntent is one player's decision trace entry.
type DecisionIntent struct {
	Tick       uint64        `json:"tick"`
	Player     PlayerID      `json:"player"`
	Mindset    string        `json:"mindset"`
	Candidates int           `json:"candidates"`
	Chosen     IntentKind    `json:"chosen"`
	ChosenName string        `json:"chosenName"`
	Utility    float64       `json:"utility"`
	Status     CommitStatus  `json:"status"`
	StatusName string        `json:"statusName"`
	Replaced   IntentKind    `json:"replaced,omitempty"`
}

// IntentLog accumulates decision traces plus aggregate bias counters.
type IntentLog struct {
	enabled bool
	Entries []DecisionIntent `json:"entries"`

	// Aggregates for quick bias checks without replaying the entries.
	ChosenByKind   map[string]int `json:"chosenByKind"`
	DeferredBySide [2]int         `json:"deferredBySide"`
	ReplacedBySide [2]int         `json:"replacedBySide"`
}

// NewIntentLog creates a log; a disabled log swallows entries but keeps the
// aggregates so the bias counters are always available.
func NewIntentLog(enabled bool) *IntentLog {
	return &IntentLog{
		enabled:      enabled,
		ChosenByKind: make(map[string]int),
	}
}

func (l *IntentLog) record(tick uint64, id PlayerID, mindset PlayerMindset, nCands int, res CommitResult) {
	l.ChosenByKind[res.Intent.Kind.String()]++
	switch res.Status {
	case CommitDeferred:
		l.DeferredBySide[id.Side()]++
	case CommitReplaced:
		l.ReplacedBySide[id.Side()]++
	}
	if !l.enabled {
		return
	}
	l.Entries = append(l.Entries, DecisionIntent{
		Tick:       tick,
		Player:     id,
		Mindset:    mindset.String(),
		Candidates: nCands,
		Chosen:     res.Intent.Kind,
		ChosenName: res.Intent.Kind.String(),
		Utility:    res.Intent.Utility,
		Status:     res.Status,
		StatusName: res.Status.String(),
		Replaced:   res.Replacement,
	})
}
