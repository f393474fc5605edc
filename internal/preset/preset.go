// Package preset holds the named, read-only screens shipped with the engine.
package preset

import (
	"sort"
	"strings"

	"ValueSentinel/internal/model"
	"ValueSentinel/internal/screen"
)

// Category groups presets by investing style.
type Category string

const (
	CategoryValue     Category = "value"
	CategoryIncome    Category = "income"
	CategoryQuality   Category = "quality"
	CategoryDiscovery Category = "discovery"
)

// Preset is a named, immutable Screen.
type Preset struct {
	Name        string        `json:"name"`
	Category    Category      `json:"category"`
	Description string        `json:"description"`
	Screen      screen.Screen `json:"screen"`
}

// Registry is an ordered, read-only set of presets.
type Registry struct {
	presets []Preset
	byName  map[string]int
}

// NewRegistry validates the presets and indexes them by name.
func NewRegistry(presets []Preset) (*Registry, error) {
	r := &Registry{byName: make(map[string]int, len(presets))}
	for _, p := range presets {
		if err := p.Screen.Validate(); err != nil {
			return nil, err
		}
		key := normalize(p.Name)
		if _, dup := r.byName[key]; dup {
			return nil, &model.InvalidCriterionError{Input: p.Name, Reason: "duplicate preset name"}
		}
		r.byName[key] = len(r.presets)
		r.presets = append(r.presets, clonePreset(p))
	}
	return r, nil
}

// Default returns the registry of built-in presets.
func Default() *Registry {
	r, err := NewRegistry(builtin())
	if err != nil {
		panic("preset: invalid built-in preset: " + err.Error())
	}
	return r
}

// List returns every preset in declaration order. The slice is a copy.
func (r *Registry) List() []Preset {
	out := make([]Preset, len(r.presets))
	for i, p := range r.presets {
		out[i] = clonePreset(p)
	}
	return out
}

// Names returns preset names in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.presets))
	for i, p := range r.presets {
		names[i] = p.Name
	}
	return names
}

// Get looks up a preset. Case, spaces and underscores are normalised ("deep_value" == "deep-value").
func (r *Registry) Get(name string) (Preset, error) {
	idx, ok := r.byName[normalize(name)]
	if !ok {
		available := r.Names()
		sort.Strings(available)
		return Preset{}, &model.UnknownPresetError{Name: name, Available: available}
	}
	return clonePreset(r.presets[idx]), nil
}

func normalize(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, "_", "-")
	return strings.ReplaceAll(n, " ", "-")
}

func clonePreset(p Preset) Preset {
	c := p
	c.Screen = p.Screen.WithSort(p.Screen.Sort)
	return c
}
