package match

import (
	"errors"
	"testing"
)

func TestTeamSetupValidate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*TeamSetup)
		wantCode string
	}{
		{"valid", func(*TeamSetup) {}, ""},
		{"unsupported formation", func(ts *TeamSetup) { ts.Formation = "9-0-1" }, CodeUnsupportedFormation},
		{"condition too low", func(ts *TeamSetup) { ts.Players[4].Condition = 0 }, CodeInvalidConditionRange},
		{"condition too high", func(ts *TeamSetup) { ts.Players[4].Condition = 6 }, CodeInvalidConditionRange},
		{"keeper slot misassigned", func(ts *TeamSetup) { ts.Players[0].Role = Striker }, CodeFormationNotApplied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := UniformTeam("T", F442, 70)
			tt.mutate(&ts)
			err := ts.Validate()
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var inErr *InputError
			if !errors.As(err, &inErr) {
				t.Fatalf("want InputError, got %v", err)
			}
			if inErr.Code != tt.wantCode {
				t.Errorf("code = %s, want %s", inErr.Code, tt.wantCode)
			}
		})
	}
}

func TestAllFormationsHaveElevenSlots(t *testing.T) {
	for _, f := range SupportedFormations() {
		shape, ok := formationShapes[f]
		if !ok {
			t.Fatalf("formation %s has no shape table", f)
		}
		if shape[0].Role != Goalkeeper {
			t.Errorf("formation %s: slot 0 must be the keeper", f)
		}
		for i, slot := range shape {
			if slot.X < 0 || slot.X > 1 || slot.Y < 0 || slot.Y > 1 {
				t.Errorf("formation %s slot %d offset out of range: %+v", f, i, slot)
			}
		}
		// Building a team on it must validate.
		ts := UniformTeam("T", f, 60)
		if err := ts.Validate(); err != nil {
			t.Errorf("formation %s: %v", f, err)
		}
	}
}

func TestInstructionPresets(t *testing.T) {
	for _, name := range []string{"gegenpress", "tiki-taka", "park-the-bus", "direct"} {
		ins, ok := InstructionPreset(name)
		if !ok {
			t.Fatalf("preset %s missing", name)
		}
		if ins.Preset != name {
			t.Errorf("preset %s mislabeled as %s", name, ins.Preset)
		}
	}
	if _, ok := InstructionPreset("total-football"); ok {
		t.Error("unknown preset must not resolve")
	}
}

func TestInstructionsPrecedence(t *testing.T) {
	plan := DefaultPlan(1)
	plan.HomeInstructions = TeamInstructions{Preset: "park-the-bus", Tempo: TempoFast}
	ins := plan.Instructions(Home)
	if ins.PressIntensity != PressLow {
		t.Error("preset knob must apply when not overridden")
	}
	if ins.Tempo != TempoFast {
		t.Error("explicit knob must override the preset")
	}
}

func TestExpConfigValidation(t *testing.T) {
	cfg := DefaultExpConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}

	bad := cfg
	bad.Audacity.BiasScale = 9
	var inErr *InputError
	if err := bad.Validate(); !errors.As(err, &inErr) || inErr.Code != CodeInvalidExpConfig {
		t.Errorf("want INVALID_EXP_CONFIG, got %v", err)
	}

	// Strict parse rejects unknown fields.
	if _, err := ParseExpConfig([]byte(`{"unknownKnob": 1}`)); err == nil {
		t.Error("unknown fields must be rejected")
	}
	if _, err := ParseExpConfig([]byte(`{"stamina":{"drainScale":1.2}}`)); err != nil {
		t.Errorf("valid partial config rejected: %v", err)
	}
}
