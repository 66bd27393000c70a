package match

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// ExpConfigPathEnv names the optional experimental-config JSON file.
// Absent or empty: ignored. Present: validated strictly, and any problem is
// fatal before tick 0.
const ExpConfigPathEnv = "OF_EXP_CONFIG_PATH"

// ExpConfig carries the experimental knob groups. None of its knobs overlap
// TeamInstructions, which are resolved against preset defaults on their own.
type ExpConfig struct {
	Audacity AudacityConfig `json:"audacity"`
	Decision DecisionConfig `json:"decision"`
	Stamina  StaminaConfig  `json:"stamina"`
}

// AudacityConfig scales risk appetite in Gate B.
type AudacityConfig struct {
	// BiasScale multiplies every cognitive-bias contribution. 1 = neutral.
	BiasScale float64 `json:"biasScale"`
	// TemperatureShift is added to the softmax temperature before clamping.
	TemperatureShift float64 `json:"temperatureShift"`
}

// DecisionConfig tunes the scheduler.
type DecisionConfig struct {
	// ForceActive pins every player to the active cadence (baseline parity
	// mode).
	ForceActive bool `json:"forceActive"`
	// OffballTemperature is the off-ball softmax temperature; 0 = argmax.
	OffballTemperature float64 `json:"offballTemperature"`
}

// StaminaConfig tunes the drain model.
type StaminaConfig struct {
	// DrainScale multiplies all drains. 1 = neutral.
	DrainScale float64 `json:"drainScale"`
}

// DefaultExpConfig is the neutral configuration.
func DefaultExpConfig() ExpConfig {
	return ExpConfig{
		Audacity: AudacityConfig{BiasScale: 1.0},
		Decision: DecisionConfig{OffballTemperature: 0.35},
		Stamina:  StaminaConfig{DrainScale: 1.0},
	}
}

// ParseExpConfig decodes strictly: unknown fields are rejected.
func ParseExpConfig(data []byte) (ExpConfig, error) {
	cfg := DefaultExpConfig()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, inputErrorf(CodeInvalidExpConfig, "parse: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate bounds every knob.
func (c *ExpConfig) Validate() error {
	if c.Audacity.BiasScale < 0 || c.Audacity.BiasScale > 4 {
		return inputErrorf(CodeInvalidExpConfig, "audacity.biasScale %.2f outside [0,4]", c.Audacity.BiasScale)
	}
	if c.Audacity.TemperatureShift < -2 || c.Audacity.TemperatureShift > 2 {
		return inputErrorf(CodeInvalidExpConfig, "audacity.temperatureShift %.2f outside [-2,2]", c.Audacity.TemperatureShift)
	}
	if c.Decision.OffballTemperature < 0 || c.Decision.OffballTemperature > MaxTemperature {
		return inputErrorf(CodeInvalidExpConfig, "decision.offballTemperature %.2f outside [0,%.1f]", c.Decision.OffballTemperature, MaxTemperature)
	}
	if c.Stamina.DrainScale < 0.1 || c.Stamina.DrainScale > 5 {
		return inputErrorf(CodeInvalidExpConfig, "stamina.drainScale %.2f outside [0.1,5]", c.Stamina.DrainScale)
	}
	return nil
}

// LoadExpConfigFromEnv reads the config named by OF_EXP_CONFIG_PATH.
// Returns (nil, nil) when the variable is unset or blank.
func LoadExpConfigFromEnv() (*ExpConfig, error) {
	path := strings.TrimSpace(os.Getenv(ExpConfigPathEnv))
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read exp config from %s=%q", ExpConfigPathEnv, path)
	}
	cfg, err := ParseExpConfig(data)
	if err != nil {
		return nil, errors.Wrapf(err, "exp config from %s=%q", ExpConfigPathEnv, path)
	}
	return &cfg, nil
}
