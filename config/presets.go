// ABOUTME: Named filter presets loaded from a YAML file
// ABOUTME: Command-line filters are merged on top of the chosen preset
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/harperreed/leadbook/models"
	"gopkg.in/yaml.v3"
)

var ErrUnknownPreset = errors.New("unknown preset")

// Presets maps a preset name to its filters.
type Presets map[string]models.Filters

// LoadPresets reads presets from path. A missing file yields no presets.
func LoadPresets(path string) (Presets, error) {
	if path == "" {
		return Presets{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Presets{}, nil
		}
		return nil, fmt.Errorf("failed to read presets: %w", err)
	}

	presets := Presets{}
	if err := yaml.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("failed to parse presets %s: %w", path, err)
	}
	for name, f := range presets {
		if f.Origin != "" && !f.Origin.Valid() {
			return nil, fmt.Errorf("preset %q: %w: %q", name, models.ErrUnknownOrigin, f.Origin)
		}
	}
	return presets, nil
}

// Resolve returns the named preset merged with overrides. An empty name
// returns overrides unchanged.
func (p Presets) Resolve(name string, overrides models.Filters) (models.Filters, error) {
	if name == "" {
		return overrides, nil
	}
	base, ok := p[name]
	if !ok {
		return models.Filters{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return base.Merge(overrides), nil
}

// Names lists preset names alphabetically.
func (p Presets) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
