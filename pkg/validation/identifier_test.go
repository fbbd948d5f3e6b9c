// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		ident   string
		wantErr bool
	}{
		// Valid identifiers
		{"simple", "truck", false},
		{"single char", "a", false},
		{"underscore start", "_tmp", false},
		{"with digits", "city_2", false},
		{"dotted", "pkg.loc", false},
		{"hyphen", "city-a", false},
		{"max length", "a" + strings.Repeat("b", 127), false},
		{"contains reserved", "trueish", false},

		// Invalid identifiers
		{"empty", "", true},
		{"digit start", "2city", true},
		{"hyphen start", "-x", true},
		{"space", "city a", true},
		{"brace", "x}", true},
		{"colon", "a:b", true},
		{"too long", "a" + strings.Repeat("b", 128), true},
		{"reserved true", "true", true},
		{"reserved mixed case", "False", true},
		{"newline", "a\nb", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier(tt.ident)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateIdentifiers(t *testing.T) {
	assert.NoError(t, ValidateIdentifiers([]string{"home", "office"}))
	assert.NoError(t, ValidateIdentifiers(nil))

	err := ValidateIdentifiers([]string{"home", "bad name", "true"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad name")
	assert.Contains(t, err.Error(), "true")
	assert.NotContains(t, err.Error(), "home")
}

func TestValidateActionName(t *testing.T) {
	assert.NoError(t, ValidateActionName("set_a"))
	assert.NoError(t, ValidateActionName("drive(truck,a,b)"))
	assert.Error(t, ValidateActionName(""))
	assert.Error(t, ValidateActionName("drive truck"))
	assert.Error(t, ValidateActionName("(x)"))
}

func TestSanitizeIdentifier(t *testing.T) {
	got, err := SanitizeIdentifier("  logistics ")
	require.NoError(t, err)
	assert.Equal(t, "logistics", got)

	_, err = SanitizeIdentifier("   ")
	assert.Error(t, err)
}
