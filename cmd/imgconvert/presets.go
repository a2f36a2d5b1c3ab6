package main

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/gobeaver/imgconvert/pipeline"
)

// Preset is a named set of conversion settings
type Preset struct {
	Format     string  `yaml:"format"`
	Quality    float64 `yaml:"quality"`
	Width      int     `yaml:"width"`
	Height     int     `yaml:"height"`
	KeepAspect bool    `yaml:"keep_aspect"`
}

// Settings converts the preset to pipeline settings
func (p Preset) Settings() pipeline.Settings {
	return pipeline.Settings{
		Format:              p.Format,
		Quality:             p.Quality,
		Width:               p.Width,
		Height:              p.Height,
		MaintainAspectRatio: p.KeepAspect,
	}
}

// Presets maps preset names to settings
type Presets map[string]Preset

// LoadPresets reads a YAML file of presets:
//
//	thumbnail:
//	  format: image/webp
//	  quality: 0.8
//	  width: 256
//	  keep_aspect: true
func LoadPresets(path string) (Presets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var presets Presets
	if err := yaml.Unmarshal(data, &presets); err != nil {
		return nil, fmt.Errorf("parse presets %s: %w", path, err)
	}

	for name, p := range presets {
		if p.Format == "" {
			continue
		}
		if _, ok := pipeline.LookupFormat(p.Format); !ok {
			return nil, fmt.Errorf("preset %q: unknown format %q", name, p.Format)
		}
		if p.Quality < 0 || p.Quality > 1 {
			return nil, fmt.Errorf("preset %q: quality %v is outside 0-1", name, p.Quality)
		}
	}
	return presets, nil
}

// Lookup returns the named preset
func (p Presets) Lookup(name string) (Preset, error) {
	preset, ok := p[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q (have %v)", name, p.names())
	}
	return preset, nil
}

func (p Presets) names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
