package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/panda279/leave-note/internal/roster"
)

//go:embed default_profile.yaml
var defaultProfile []byte

// ProfileFile is the on-disk layout of a roster profile.
type ProfileFile struct {
	CategoryField string            `yaml:"category_field"`
	Markers       []string          `yaml:"markers"`
	Order         []string          `yaml:"order"`
	Aliases       map[string]string `yaml:"aliases"`
}

// DefaultProfile returns the built-in profile file contents.
func DefaultProfile() []byte {
	out := make([]byte, len(defaultProfile))
	copy(out, defaultProfile)
	return out
}

// LoadProfile reads the roster profile named by rc (or the built-in one),
// applies the environment overrides and builds an immutable roster.Profile.
// Warnings are non-fatal findings such as alias targets outside the order.
func LoadProfile(rc RosterConfig) (roster.Profile, []string, error) {
	data := defaultProfile
	source := "built-in profile"
	if rc.ProfilePath != "" {
		b, err := os.ReadFile(rc.ProfilePath)
		if err != nil {
			return roster.Profile{}, nil, fmt.Errorf("read roster profile: %w", err)
		}
		data, source = b, rc.ProfilePath
	}

	pf, err := ParseProfile(data)
	if err != nil {
		return roster.Profile{}, nil, fmt.Errorf("%s: %w", source, err)
	}

	if rc.CategoryField != "" {
		pf.CategoryField = rc.CategoryField
	}
	pf.Markers = append(pf.Markers, rc.Markers...)

	p, warnings, err := roster.NewProfile(pf.CategoryField, pf.Markers, pf.Order, pf.Aliases)
	if err != nil {
		return roster.Profile{}, nil, fmt.Errorf("%s: %w", source, err)
	}
	return p, warnings, nil
}

// ParseProfile decodes a YAML profile. Unknown keys are rejected so a typo
// like "alias:" does not silently drop the alias table.
func ParseProfile(data []byte) (ProfileFile, error) {
	var pf ProfileFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&pf); err != nil {
		if errors.Is(err, io.EOF) {
			return ProfileFile{}, errors.New("roster profile is empty")
		}
		return ProfileFile{}, fmt.Errorf("parse roster profile: %w", err)
	}
	if pf.CategoryField == "" && len(pf.Markers) == 0 {
		return ProfileFile{}, errors.New("roster profile needs category_field or markers")
	}
	if len(pf.Order) == 0 {
		return ProfileFile{}, errors.New("roster profile has no order")
	}
	return pf, nil
}
