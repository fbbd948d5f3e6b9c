// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ux

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePersonalityLevel(t *testing.T) {
	tests := []struct {
		in   string
		want PersonalityLevel
	}{
		{"standard", PersonalityStandard},
		{"", PersonalityStandard},
		{"fancy", PersonalityStandard},
		{"Minimal", PersonalityMinimal},
		{"m", PersonalityMinimal},
		{"machine", PersonalityMachine},
		{"plain", PersonalityMachine},
		{"QUIET", PersonalityMachine},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePersonalityLevel(tt.in))
		})
	}
}

func TestInitPersonality(t *testing.T) {
	prev := GetPersonality()
	t.Cleanup(func() { SetPersonality(prev) })

	t.Setenv(EnvPersonality, "minimal")
	InitPersonality("machine")
	assert.Equal(t, PersonalityMachine, GetPersonality())

	InitPersonality("")
	assert.Equal(t, PersonalityMinimal, GetPersonality())

	t.Setenv(EnvPersonality, "")
	InitPersonality("")
	assert.NotEqual(t, PersonalityMinimal, GetPersonality())
}

func TestNewPrinter_UsesCurrentLevel(t *testing.T) {
	prev := GetPersonality()
	t.Cleanup(func() { SetPersonality(prev) })

	SetPersonality(PersonalityMachine)
	assert.True(t, NewPrinter(nil, nil).Machine())

	SetPersonality(PersonalityStandard)
	assert.False(t, NewPrinter(nil, nil).Machine())
}
