package match

import (
	"strings"
)

// Formation is the team shape. Only the listed shapes are supported; any
// other value is rejected before tick 0 with CodeUnsupportedFormation.
type Formation string

const (
	F442  Formation = "4-4-2"
	F433  Formation = "4-3-3"
	F4411 Formation = "4-4-1-1"
	F4321 Formation = "4-3-2-1"
	F4222 Formation = "4-2-2-2"
	F451  Formation = "4-5-1"
	F352  Formation = "3-5-2"
	F3421 Formation = "3-4-2-1"
	F3412 Formation = "3-4-1-2"
	F532  Formation = "5-3-2"
	F4231 Formation = "4-2-3-1"
	F4141 Formation = "4-1-4-1"
	F343  Formation = "3-4-3"
	F541  Formation = "5-4-1"
)

// formationSlot is one roster slot in team view: X is depth 0 (own goal) to
// 1 (opponent goal), Y is 0 (left) to 1 (right), both as fractions of the
// pitch. Slot 0 is always the goalkeeper.
type formationSlot struct {
	X, Y float64
	Role Role
}

// formationShapes holds the anchor offsets for every supported formation.
// Depth values are the defensive base shape; the elastic band shifts the
// whole block with the ball.
var formationShapes = map[Formation][SquadSize]formationSlot{
	F442: {
		{0.04, 0.50, Goalkeeper},
		{0.22, 0.16, FullBack}, {0.20, 0.38, CentreBack}, {0.20, 0.62, CentreBack}, {0.22, 0.84, FullBack},
		{0.46, 0.14, WideMid}, {0.44, 0.40, CentralMid}, {0.44, 0.60, CentralMid}, {0.46, 0.86, WideMid},
		{0.68, 0.40, Striker}, {0.68, 0.60, Striker},
	},
	F433: {
		{0.04, 0.50, Goalkeeper},
		{0.22, 0.16, FullBack}, {0.20, 0.38, CentreBack}, {0.20, 0.62, CentreBack}, {0.22, 0.84, FullBack},
		{0.40, 0.50, DefensiveMid}, {0.50, 0.34, CentralMid}, {0.50, 0.66, CentralMid},
		{0.70, 0.16, Winger}, {0.72, 0.50, Striker}, {0.70, 0.84, Winger},
	},
	F4411: {
		{0.04, 0.50, Goalkeeper},
		{0.22, 0.16, FullBack}, {0.20, 0.38, CentreBack}, {0.20, 0.62, CentreBack}, {0.22, 0.84, FullBack},
		{0.46, 0.14, WideMid}, {0.44, 0.40, CentralMid}, {0.44, 0.60, CentralMid}, {0.46, 0.86, WideMid},
		{0.60, 0.50, AttackingMid}, {0.72, 0.50, Striker},
	},
	F4321: {
		{0.04, 0.50, Goalkeeper},
		{0.22, 0.16, FullBack}, {0.20, 0.38, CentreBack}, {0.20, 0.62, CentreBack}, {0.22, 0.84, FullBack},
		{0.42, 0.26, CentralMid}, {0.40, 0.50, DefensiveMid}, {0.42, 0.74, CentralMid},
		{0.58, 0.38, AttackingMid}, {0.58, 0.62, AttackingMid}, {0.72, 0.50, Striker},
	},
	F4222: {
		{0.04, 0.50, Goalkeeper},
		{0.22, 0.16, FullBack}, {0.20, 0.38, CentreBack}, {0.20, 0.62, CentreBack}, {0.22, 0.84, FullBack},
		{0.40, 0.40, DefensiveMid}, {0.40, 0.60, DefensiveMid},
		{0.58, 0.22, AttackingMid}, {0.58, 0.78, AttackingMid},
		{0.70, 0.40, Striker}, {0.70, 0.60, Striker},
	},
	F451: {
		{0.04, 0.50, Goalkeeper},
		{0.22, 0.16, FullBack}, {0.20, 0.38, CentreBack}, {0.20, 0.62, CentreBack}, {0.22, 0.84, FullBack},
		{0.46, 0.12, WideMid}, {0.44, 0.32, CentralMid}, {0.42, 0.50, DefensiveMid}, {0.44, 0.68, CentralMid}, {0.46, 0.88, WideMid},
		{0.72, 0.50, Striker},
	},
	F352: {
		{0.04, 0.50, Goalkeeper},
		{0.20, 0.28, CentreBack}, {0.18, 0.50, CentreBack}, {0.20, 0.72, CentreBack},
		{0.44, 0.10, WideMid}, {0.44, 0.34, CentralMid}, {0.40, 0.50, DefensiveMid}, {0.44, 0.66, CentralMid}, {0.44, 0.90, WideMid},
		{0.68, 0.40, Striker}, {0.68, 0.60, Striker},
	},
	F3421: {
		{0.04, 0.50, Goalkeeper},
		{0.20, 0.28, CentreBack}, {0.18, 0.50, CentreBack}, {0.20, 0.72, CentreBack},
		{0.44, 0.12, WideMid}, {0.42, 0.40, CentralMid}, {0.42, 0.60, CentralMid}, {0.44, 0.88, WideMid},
		{0.60, 0.38, AttackingMid}, {0.60, 0.62, AttackingMid}, {0.72, 0.50, Striker},
	},
	F3412: {
		{0.04, 0.50, Goalkeeper},
		{0.20, 0.28, CentreBack}, {0.18, 0.50, CentreBack}, {0.20, 0.72, CentreBack},
		{0.44, 0.12, WideMid}, {0.42, 0.40, CentralMid}, {0.42, 0.60, CentralMid}, {0.44, 0.88, WideMid},
		{0.58, 0.50, AttackingMid}, {0.70, 0.40, Striker}, {0.70, 0.60, Striker},
	},
	F532: {
		{0.04, 0.50, Goalkeeper},
		{0.24, 0.10, FullBack}, {0.20, 0.30, CentreBack}, {0.18, 0.50, CentreBack}, {0.20, 0.70, CentreBack}, {0.24, 0.90, FullBack},
		{0.44, 0.30, CentralMid}, {0.42, 0.50, DefensiveMid}, {0.44, 0.70, CentralMid},
		{0.68, 0.40, Striker}, {0.68, 0.60, Striker},
	},
	F4231: {
		{0.04, 0.50, Goalkeeper},
		{0.22, 0.16, FullBack}, {0.20, 0.38, CentreBack}, {0.20, 0.62, CentreBack}, {0.22, 0.84, FullBack},
		{0.40, 0.40, DefensiveMid}, {0.40, 0.60, DefensiveMid},
		{0.58, 0.14, Winger}, {0.58, 0.50, AttackingMid}, {0.58, 0.86, Winger},
		{0.72, 0.50, Striker},
	},
	F4141: {
		{0.04, 0.50, Goalkeeper},
		{0.22, 0.16, FullBack}, {0.20, 0.38, CentreBack}, {0.20, 0.62, CentreBack}, {0.22, 0.84, FullBack},
		{0.38, 0.50, DefensiveMid},
		{0.52, 0.14, WideMid}, {0.50, 0.38, CentralMid}, {0.50, 0.62, CentralMid}, {0.52, 0.86, WideMid},
		{0.72, 0.50, Striker},
	},
	F343: {
		{0.04, 0.50, Goalkeeper},
		{0.20, 0.28, CentreBack}, {0.18, 0.50, CentreBack}, {0.20, 0.72, CentreBack},
		{0.44, 0.12, WideMid}, {0.42, 0.40, CentralMid}, {0.42, 0.60, CentralMid}, {0.44, 0.88, WideMid},
		{0.70, 0.16, Winger}, {0.72, 0.50, Striker}, {0.70, 0.84, Winger},
	},
	F541: {
		{0.04, 0.50, Goalkeeper},
		{0.24, 0.10, FullBack}, {0.20, 0.30, CentreBack}, {0.18, 0.50, CentreBack}, {0.20, 0.70, CentreBack}, {0.24, 0.90, FullBack},
		{0.46, 0.14, WideMid}, {0.44, 0.40, CentralMid}, {0.44, 0.60, CentralMid}, {0.46, 0.86, WideMid},
		{0.72, 0.50, Striker},
	},
}

// SupportedFormations lists the accepted shapes in a stable order.
func SupportedFormations() []Formation {
	return []Formation{
		F442, F433, F4411, F4321, F4222, F451, F352,
		F3421, F3412, F532, F4231, F4141, F343, F541,
	}
}

// BuildUpStyle controls how the team moves the ball out of defence.
type BuildUpStyle uint8

const (
	BuildUpBalanced BuildUpStyle = iota
	BuildUpShort
	BuildUpDirect
)

// Tempo controls decision urgency in possession.
type Tempo uint8

const (
	TempoNormal Tempo = iota
	TempoSlow
	TempoFast
)

// Width controls how far the wide players hold the touchline.
type Width uint8

const (
	WidthNormal Width = iota
	WidthNarrow
	WidthWide
)

// PressIntensity controls out-of-possession aggression.
type PressIntensity uint8

const (
	PressMid PressIntensity = iota
	PressLow
	PressHigh
)

// DefensiveLine controls how high the back line holds.
type DefensiveLine uint8

const (
	LineNormal DefensiveLine = iota
	LineDeep
	LineHigh
)

// TeamInstructions are the tactical knobs. Zero value is a sane default.
type TeamInstructions struct {
	Preset         string         `json:"preset,omitempty"`
	BuildUpStyle   BuildUpStyle   `json:"buildUpStyle"`
	Tempo          Tempo          `json:"tempo"`
	Width          Width          `json:"width"`
	PressIntensity PressIntensity `json:"pressIntensity"`
	DefensiveLine  DefensiveLine  `json:"defensiveLine"`
	OffsideTrap    bool           `json:"offsideTrap"`
}

// InstructionPreset returns the named famous preset, or false.
// Preset names are case-insensitive.
func InstructionPreset(name string) (TeamInstructions, bool) {
	switch strings.ToLower(name) {
	case "gegenpress":
		return TeamInstructions{Preset: "gegenpress", BuildUpStyle: BuildUpDirect,
			Tempo: TempoFast, Width: WidthNormal, PressIntensity: PressHigh,
			DefensiveLine: LineHigh, OffsideTrap: true}, true
	case "tiki-taka":
		return TeamInstructions{Preset: "tiki-taka", BuildUpStyle: BuildUpShort,
			Tempo: TempoSlow, Width: WidthWide, PressIntensity: PressHigh,
			DefensiveLine: LineHigh}, true
	case "park-the-bus":
		return TeamInstructions{Preset: "park-the-bus", BuildUpStyle: BuildUpDirect,
			Tempo: TempoSlow, Width: WidthNarrow, PressIntensity: PressLow,
			DefensiveLine: LineDeep}, true
	case "direct":
		return TeamInstructions{Preset: "direct", BuildUpStyle: BuildUpDirect,
			Tempo: TempoFast, Width: WidthWide, PressIntensity: PressMid,
			DefensiveLine: LineNormal}, true
	default:
		return TeamInstructions{}, false
	}
}

// TeamSetup is one side's roster and shape.
type TeamSetup struct {
	Name      string                   `json:"name"`
	Formation Formation                `json:"formation"`
	Players   [SquadSize]PlayerConfig  `json:"players"`
}

// Validate rejects unsupported formations and out-of-range conditions.
func (t *TeamSetup) Validate() error {
	shape, ok := formationShapes[t.Formation]
	if !ok {
		return inputErrorf(CodeUnsupportedFormation, "formation %q is not supported", t.Formation)
	}
	for i, p := range t.Players {
		if p.Condition < 1 || p.Condition > 5 {
			return inputErrorf(CodeInvalidConditionRange,
				"player %q condition %d outside 1..5", p.Name, p.Condition)
		}
		// The keeper slot must actually hold a keeper, or the formation was
		// not applied to the roster.
		if i == 0 && p.Role != Goalkeeper {
			return inputErrorf(CodeFormationNotApplied,
				"slot 0 must be the goalkeeper, got %s", p.Role)
		}
	}
	_ = shape
	return nil
}

// SlotRole returns the role the formation assigns to squad slot i.
func (t *TeamSetup) SlotRole(i int) Role {
	return formationShapes[t.Formation][i].Role
}

// MatchPlan is the complete input for one simulation.
type MatchPlan struct {
	Seed                   uint64           `json:"seed"`
	Home                   TeamSetup        `json:"home"`
	Away                   TeamSetup        `json:"away"`
	HomeInstructions       TeamInstructions `json:"homeInstructions"`
	AwayInstructions       TeamInstructions `json:"awayInstructions"`
	EnablePositionTracking bool             `json:"enablePositionTracking"`
	Exp                    *ExpConfig       `json:"expConfig,omitempty"`
}

// Validate rejects the plan before tick 0.
func (p *MatchPlan) Validate() error {
	if err := p.Home.Validate(); err != nil {
		return err
	}
	if err := p.Away.Validate(); err != nil {
		return err
	}
	if p.Exp != nil {
		if err := p.Exp.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Instructions returns the effective instructions for a side: explicit
// non-default knobs override the named preset's defaults. ExpConfig is not
// consulted here; its knobs do not overlap TeamInstructions.
func (p *MatchPlan) Instructions(side TeamSide) TeamInstructions {
	ins := p.HomeInstructions
	if side == Away {
		ins = p.AwayInstructions
	}
	if ins.Preset != "" {
		if preset, ok := InstructionPreset(ins.Preset); ok {
			// Explicit non-zero knobs win over the preset.
			merged := preset
			if ins.BuildUpStyle != BuildUpBalanced {
				merged.BuildUpStyle = ins.BuildUpStyle
			}
			if ins.Tempo != TempoNormal {
				merged.Tempo = ins.Tempo
			}
			if ins.Width != WidthNormal {
				merged.Width = ins.Width
			}
			if ins.PressIntensity != PressMid {
				merged.PressIntensity = ins.PressIntensity
			}
			if ins.DefensiveLine != LineNormal {
				merged.DefensiveLine = ins.DefensiveLine
			}
			ins = merged
		}
	}
	return ins
}
