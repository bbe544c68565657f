// ABOUTME: Embedded persona preset templates parsed from presets.yaml
// ABOUTME: Presets instantiate personas with a fixed name/color/icon/description

package model

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var presetsYAML []byte

// PersonaPreset is a named persona template.
type PersonaPreset struct {
	Name        string       `yaml:"name"`
	Color       PersonaColor `yaml:"color"`
	Icon        PersonaIcon  `yaml:"icon"`
	Description string       `yaml:"description"`
}

var (
	presetsOnce sync.Once
	presetList  []PersonaPreset
	presetErr   error
)

func loadPresets() {
	var doc struct {
		Presets []PersonaPreset `yaml:"presets"`
	}
	if err := yaml.Unmarshal(presetsYAML, &doc); err != nil {
		presetErr = fmt.Errorf("parsing embedded presets: %w", err)
		return
	}
	for _, p := range doc.Presets {
		if !p.Color.Valid() || !p.Icon.Valid() || p.Name == "" {
			presetErr = fmt.Errorf("invalid embedded preset %q", p.Name)
			return
		}
	}
	presetList = doc.Presets
}

// Presets returns the built-in persona templates.
func Presets() ([]PersonaPreset, error) {
	presetsOnce.Do(loadPresets)
	return presetList, presetErr
}

// PresetByName looks up a preset case-insensitively.
func PresetByName(name string) (PersonaPreset, bool) {
	presets, err := Presets()
	if err != nil {
		return PersonaPreset{}, false
	}
	for _, p := range presets {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return PersonaPreset{}, false
}
