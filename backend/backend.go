package backend

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/shade/node"
)

// ErrUnknownPreference is returned by ParsePreference.
var ErrUnknownPreference = errors.New("backend: unknown preference")

// Kind identifies a backend family.
type Kind uint8

// Backend kinds.
const (
	// Compatible is the broadly available GLSL ES 3.00 class backend.
	Compatible Kind = iota

	// Capable is the compute-capable GPU backend.
	Capable
)

func (k Kind) String() string {
	switch k {
	case Compatible:
		return "compatible"
	case Capable:
		return "capable"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Features returns the shading features k supports.
func (k Kind) Features() node.Feature {
	switch k {
	case Capable:
		return node.FeatureTextures | node.FeatureStorageBuffers
	case Compatible:
		return node.FeatureTextures
	}
	return 0
}

// Supports reports whether k provides every feature in f.
func (k Kind) Supports(f node.Feature) bool { return k.Features()&f == f }

// Preference is the caller's backend choice.
type Preference uint8

// Backend preferences.
const (
	// PreferAuto picks Capable when the probe reports support.
	PreferAuto Preference = iota

	// PreferCapable asks for Capable but still falls back when unsupported.
	PreferCapable

	// PreferCompatible forces Compatible regardless of the probe.
	PreferCompatible
)

func (p Preference) String() string {
	switch p {
	case PreferAuto:
		return "auto"
	case PreferCapable:
		return "capable"
	case PreferCompatible:
		return "compatible"
	}
	return fmt.Sprintf("Preference(%d)", uint8(p))
}

// ParsePreference parses "auto", "capable" or "compatible". The empty
// string means auto.
func ParsePreference(s string) (Preference, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return PreferAuto, nil
	case "capable", "gpu", "vulkan":
		return PreferCapable, nil
	case "compatible", "gles", "software":
		return PreferCompatible, nil
	}
	return PreferAuto, fmt.Errorf("%w: %q", ErrUnknownPreference, s)
}

// UnmarshalText implements encoding.TextUnmarshaler for config files.
func (p *Preference) UnmarshalText(b []byte) error {
	v, err := ParsePreference(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (p Preference) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Select returns the backend for pref given a probe result.
func Select(pref Preference, probe ProbeResult) Kind {
	if pref == PreferCompatible {
		return Compatible
	}
	if probe.Supported {
		return Capable
	}
	return Compatible
}
