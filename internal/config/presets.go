package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/diogo/chatui/internal/models"
)

// Preset is a named bundle of generation settings. Zero numeric fields leave
// the current value alone when the preset is applied.
type Preset struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	SystemPrompt string  `json:"system_prompt"`
	Temperature  float64 `json:"temperature,omitempty"`
	MaxTokens    int     `json:"max_tokens,omitempty"`
}

// Patch converts the preset into a partial settings update
func (p Preset) Patch() models.SettingsPatch {
	prompt := p.SystemPrompt
	patch := models.SettingsPatch{SystemPrompt: &prompt}
	if p.Temperature > 0 {
		temp := p.Temperature
		patch.Temperature = &temp
	}
	if p.MaxTokens > 0 {
		tokens := p.MaxTokens
		patch.MaxTokens = &tokens
	}
	return patch
}

// PresetConfig stores all presets
type PresetConfig struct {
	Presets []Preset `json:"presets"`
}

// DefaultPresets returns the built-in presets
func DefaultPresets() []Preset {
	return []Preset{
		{
			Name:         "default",
			Description:  "Helpful general assistant",
			SystemPrompt: models.DefaultSystemPrompt,
			Temperature:  models.DefaultTemperature,
			MaxTokens:    models.DefaultMaxTokens,
		},
		{
			Name:         "coder",
			Description:  "Expert programmer assistant",
			SystemPrompt: "You are an expert software engineer. Answer with working code first, then a short explanation. Point out edge cases and prefer idiomatic solutions.",
			Temperature:  0.2,
			MaxTokens:    2000,
		},
		{
			Name:        "writer",
			Description: "Creative writing assistant",
			SystemPrompt: `You are a creative writing assistant. Your goal is to:
- Help with creative writing, storytelling, and content creation
- Provide suggestions that enhance narrative flow
- Maintain consistent tone and style
- Offer multiple alternatives when asked`,
			Temperature: 1.1,
		},
		{
			Name:        "analyst",
			Description: "Data and business analyst",
			SystemPrompt: `You are a data and business analyst. You should:
- Analyze information methodically
- Present findings in structured formats
- Use data to support conclusions
- Highlight key insights and actionable recommendations`,
			Temperature: 0.4,
		},
		{
			Name:        "tutor",
			Description: "Patient educational assistant",
			SystemPrompt: `You are a patient and thorough tutor. When explaining:
- Break down complex topics into simple parts
- Use analogies and examples
- Adapt explanations to the learner's level`,
		},
	}
}

// GetPresetsPath returns the path to the presets file
func GetPresetsPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "presets.json"), nil
}

// LoadPresets loads the preset configuration, merged over the built-ins
func LoadPresets() (*PresetConfig, error) {
	path, err := GetPresetsPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &PresetConfig{Presets: DefaultPresets()}, nil
		}
		return nil, fmt.Errorf("failed to read presets: %w", err)
	}

	var cfg PresetConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse presets: %w", err)
	}

	cfg.Presets = mergePresets(DefaultPresets(), cfg.Presets)
	return &cfg, nil
}

// SavePresets saves the preset configuration
func SavePresets(cfg *PresetConfig) error {
	path, err := GetPresetsPath()
	if err != nil {
		return err
	}

	if _, err := EnsureConfigDir(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal presets: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

// GetPreset returns a preset by name
func GetPreset(name string) (Preset, error) {
	cfg, err := LoadPresets()
	if err != nil {
		return Preset{}, err
	}

	for _, p := range cfg.Presets {
		if p.Name == name {
			return p, nil
		}
	}

	return Preset{}, fmt.Errorf("preset '%s' not found", name)
}

// AddPreset adds or replaces a user preset
func AddPreset(preset Preset) error {
	if preset.Name == "" {
		return fmt.Errorf("preset name must not be empty")
	}
	if err := preset.Patch().Validate(); err != nil {
		return err
	}

	cfg, err := LoadPresets()
	if err != nil {
		return err
	}

	replaced := false
	for i, p := range cfg.Presets {
		if p.Name == preset.Name {
			cfg.Presets[i] = preset
			replaced = true
			break
		}
	}
	if !replaced {
		cfg.Presets = append(cfg.Presets, preset)
	}

	return SavePresets(cfg)
}

// DeletePreset removes a user preset. Built-ins come back on next load.
func DeletePreset(name string) error {
	if name == "default" {
		return fmt.Errorf("cannot delete the default preset")
	}

	cfg, err := LoadPresets()
	if err != nil {
		return err
	}

	kept := make([]Preset, 0, len(cfg.Presets))
	found := false
	for _, p := range cfg.Presets {
		if p.Name == name {
			found = true
			continue
		}
		kept = append(kept, p)
	}

	if !found {
		return fmt.Errorf("preset '%s' not found", name)
	}

	cfg.Presets = kept
	return SavePresets(cfg)
}

// mergePresets overlays user presets on the defaults, keeping default order
func mergePresets(defaults, user []Preset) []Preset {
	byName := make(map[string]Preset, len(user))
	for _, p := range user {
		byName[p.Name] = p
	}

	result := make([]Preset, 0, len(defaults)+len(user))
	seen := make(map[string]bool)

	for _, d := range defaults {
		if u, ok := byName[d.Name]; ok {
			result = append(result, u)
		} else {
			result = append(result, d)
		}
		seen[d.Name] = true
	}

	for _, u := range user {
		if !seen[u.Name] {
			result = append(result, u)
			seen[u.Name] = true
		}
	}

	return result
}
