// Package catalog holds the starter rituals and institution bundles a fresh
// field database is seeded with.
package catalog

import (
	"bytes"
	_ "embed"
	"field-swarm/models"
	"fmt"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

//go:embed rituals.yaml
var ritualsYAML []byte

//go:embed bundles.toml
var bundlesTOML []byte

type ritualFile struct {
	Rituals []struct {
		Name             string `yaml:"name"`
		RitualType       string `yaml:"ritual_type"`
		Domain           string `yaml:"domain"`
		Description      string `yaml:"description"`
		Instructions     string `yaml:"instructions"`
		Frequency        string `yaml:"frequency"`
		ParticipantCount int    `yaml:"participant_count"`
		CulturalContext  string `yaml:"cultural_context"`
		Optional         bool   `yaml:"optional"`
	} `yaml:"rituals"`
}

type bundleFile struct {
	Bundle []struct {
		Name            string         `toml:"name"`
		InstitutionType string         `toml:"institution_type"`
		Description     string         `toml:"description"`
		Config          map[string]any `toml:"config"`
	} `toml:"bundle"`
}

// Rituals returns the embedded starter rituals.
func Rituals() ([]models.FieldRitual, error) {
	var f ritualFile
	dec := yaml.NewDecoder(bytes.NewReader(ritualsYAML))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("load rituals.yaml: %w", err)
	}

	out := make([]models.FieldRitual, 0, len(f.Rituals))
	for _, r := range f.Rituals {
		out = append(out, models.FieldRitual{
			Name:             r.Name,
			RitualType:       r.RitualType,
			Domain:           r.Domain,
			Description:      r.Description,
			Instructions:     r.Instructions,
			Frequency:        r.Frequency,
			ParticipantCount: r.ParticipantCount,
			CulturalContext:  r.CulturalContext,
			IsOptional:       r.Optional,
		})
	}
	return out, nil
}

// Bundles returns the embedded institution bundles, all active.
func Bundles() ([]models.InstitutionBundle, error) {
	var f bundleFile
	md, err := toml.Decode(string(bundlesTOML), &f)
	if err != nil {
		return nil, fmt.Errorf("load bundles.toml: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("load bundles.toml: unknown keys %v", undecoded)
	}

	out := make([]models.InstitutionBundle, 0, len(f.Bundle))
	for _, b := range f.Bundle {
		out = append(out, models.InstitutionBundle{
			Name:            b.Name,
			InstitutionType: b.InstitutionType,
			Description:     b.Description,
			Config:          b.Config,
			IsActive:        true,
		})
	}
	return out, nil
}
