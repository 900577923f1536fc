package models

import "fmt"

// Generation defaults and bounds
const (
	DefaultSystemPrompt = "You are a helpful AI assistant."
	DefaultTemperature  = 0.7
	DefaultMaxTokens    = 1000

	MinTemperature = 0.0
	MaxTemperature = 2.0
	MinMaxTokens   = 100
	MaxMaxTokens   = 8000
)

// Settings are the process-wide generation parameters applied to the next
// completion request.
type Settings struct {
	SystemPrompt string  `json:"systemPrompt" yaml:"system_prompt"`
	Temperature  float64 `json:"temperature" yaml:"temperature"`
	MaxTokens    int     `json:"maxTokens" yaml:"max_tokens"`
}

// DefaultSettings returns the settings a fresh store starts with
func DefaultSettings() Settings {
	return Settings{
		SystemPrompt: DefaultSystemPrompt,
		Temperature:  DefaultTemperature,
		MaxTokens:    DefaultMaxTokens,
	}
}

// SettingsPatch is a partial settings update. Nil fields keep their value.
type SettingsPatch struct {
	SystemPrompt *string
	Temperature  *float64
	MaxTokens    *int
}

// Empty reports whether the patch changes nothing
func (p SettingsPatch) Empty() bool {
	return p.SystemPrompt == nil && p.Temperature == nil && p.MaxTokens == nil
}

// Validate checks the patch fields against the settings bounds.
func (p SettingsPatch) Validate() error {
	if p.Temperature != nil && (*p.Temperature < MinTemperature || *p.Temperature > MaxTemperature) {
		return fmt.Errorf("temperature %.2f out of range [%.0f, %.0f]", *p.Temperature, MinTemperature, MaxTemperature)
	}
	if p.MaxTokens != nil && (*p.MaxTokens < MinMaxTokens || *p.MaxTokens > MaxMaxTokens) {
		return fmt.Errorf("max tokens %d out of range [%d, %d]", *p.MaxTokens, MinMaxTokens, MaxMaxTokens)
	}
	return nil
}

// Apply merges the patch into s field by field and clamps the numeric fields
// into their bounds.
func (s Settings) Apply(p SettingsPatch) Settings {
	if p.SystemPrompt != nil {
		s.SystemPrompt = *p.SystemPrompt
	}
	if p.Temperature != nil {
		s.Temperature = clampFloat(*p.Temperature, MinTemperature, MaxTemperature)
	}
	if p.MaxTokens != nil {
		s.MaxTokens = clampInt(*p.MaxTokens, MinMaxTokens, MaxMaxTokens)
	}
	return s
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
