package match

import "fmt"

// Scenario builders: canonical plans for CLIs, benchmarks, and tests.

// UniformTeam builds a full squad of overall-rated players on a formation.
func UniformTeam(name string, f Formation, overall uint8) TeamSetup {
	t := TeamSetup{Name: name, Formation: f}
	shape := formationShapes[f]
	for i := 0; i < SquadSize; i++ {
		t.Players[i] = PlayerConfig{
			Name:        fmt.Sprintf("%s %d", name, i+1),
			Shirt:       uint8(i + 1),
			Role:        shape[i].Role,
			Personality: Balanced,
			Condition:   3,
			Attr:        UniformAttributes(overallTo20(overall)),
		}
	}
	return t
}

// overallTo20 maps a 0..100 overall onto the 0..20 attribute scale.
func overallTo20(overall uint8) uint8 {
	v := uint8((uint16(overall) + 2) / 5)
	if v > 20 {
		return 20
	}
	return v
}

// DefaultPlan is the canonical 4-4-2 vs 4-4-2 overall-70 fixture.
func DefaultPlan(seed uint64) MatchPlan {
	return MatchPlan{
		Seed: seed,
		Home: UniformTeam("Home", F442, 70),
		Away: UniformTeam("Away", F442, 70),
	}
}
