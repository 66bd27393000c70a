package match

import (
	_ "embed"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed balance.yaml
var embeddedBalance []byte

// Context holds the read-only coefficient tables an engine runs with.
// Loaded once at engine construction — never a process-wide singleton, so
// parallel matches can carry different tables.
type Context struct {
	Balance BalanceTable
}

// BalanceTable is the tunable-but-frozen gameplay balance data.
type BalanceTable struct {
	// Cards
	YellowSeverity float64 `yaml:"yellowSeverity"`
	RedSeverity    float64 `yaml:"redSeverity"`

	// Keeper model
	SaveBase        float64 `yaml:"saveBase"`
	SaveReflexGain  float64 `yaml:"saveReflexGain"`
	SaveXGPenalty   float64 `yaml:"saveXgPenalty"`
	HoldBase        float64 `yaml:"holdBase"`
	HoldHandlingGain float64 `yaml:"holdHandlingGain"`

	// Penalty model
	PenaltyBase          float64 `yaml:"penaltyBase"`
	PenaltySkillGain     float64 `yaml:"penaltySkillGain"`
	PenaltyComposureGain float64 `yaml:"penaltyComposureGain"`
	PenaltyKeeperDrag    float64 `yaml:"penaltyKeeperDrag"`

	// Restart setup ticks by kind.
	SetupTicks map[string]int `yaml:"setupTicks"`
}

// NewContext parses the embedded tables. An engine cannot be built without
// a valid context; the embedded data failing to parse is a build defect.
func NewContext() (*Context, error) {
	var bal BalanceTable
	if err := yaml.Unmarshal(embeddedBalance, &bal); err != nil {
		return nil, errors.Wrap(err, "embedded balance table")
	}
	if bal.SetupTicks == nil {
		return nil, errors.New("embedded balance table: missing setupTicks")
	}
	return &Context{Balance: bal}, nil
}

// setupTicksFor returns the Setup phase length for a restart, clamped to
// the contractual 2..4 band.
func (c *Context) setupTicksFor(r RestartType) uint8 {
	t, ok := c.Balance.SetupTicks[r.String()]
	if !ok {
		t = 3
	}
	if t < SetPieceSetupMin {
		t = SetPieceSetupMin
	}
	if t > SetPieceSetupMax {
		t = SetPieceSetupMax
	}
	return uint8(t)
}
