// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package scene

// LightKind distinguishes light sources.
type LightKind uint8

// Light kinds.
const (
	LightAmbient LightKind = iota
	LightDirectional
)

func (k LightKind) String() string {
	if k == LightDirectional {
		return "directional"
	}
	return "ambient"
}

// Light is a scene light. Direction is ignored for ambient lights.
type Light struct {
	Kind      LightKind
	Color     [3]float64
	Intensity float64
	Direction [3]float64
}

// Ambient returns a white ambient light.
func Ambient(intensity float64) *Light {
	return &Light{Kind: LightAmbient, Color: [3]float64{1, 1, 1}, Intensity: intensity}
}

// Directional returns a white light shining along dir.
func Directional(dir [3]float64, intensity float64) *Light {
	return &Light{
		Kind:      LightDirectional,
		Color:     [3]float64{1, 1, 1},
		Intensity: intensity,
		Direction: normalize(dir),
	}
}
