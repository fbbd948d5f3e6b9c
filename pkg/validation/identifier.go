// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation checks names taken from problem documents and
// request parameters.
//
// Problem, variable and object names appear as bare operands in formulas
// and as archive filter keys, so they must be unambiguous identifiers.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// identifierPattern matches problem, variable and object names.
// Allows: letters, digits, underscore, dot, hyphen. Must not start with a
// digit, dot or hyphen. Max length: 128 characters.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-]{0,127}$`)

// actionPattern additionally allows the parentheses and commas of ground
// action names such as drive(truck,a,b).
var actionPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-(),]{0,255}$`)

// reserved words parse as boolean literals in formulas.
var reserved = map[string]bool{"true": true, "false": true}

// ValidateIdentifier validates a problem, variable or object name.
//
// Valid identifiers:
//   - 1-128 characters
//   - Letters, digits, underscore, dot, hyphen
//   - Start with a letter or underscore
//   - Not "true" or "false" in any case
//
// Example:
//
//	if err := validation.ValidateIdentifier(spec.Name); err != nil {
//	    return fmt.Errorf("variable: %w", err)
//	}
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q (must be 1-128 letters, digits, '_', '.' or '-', starting with a letter or '_')", name)
	}
	if reserved[strings.ToLower(name)] {
		return fmt.Errorf("identifier %q is reserved", name)
	}
	return nil
}

// ValidateIdentifiers validates multiple names.
// Returns an error listing all invalid names if any fail validation.
func ValidateIdentifiers(names []string) error {
	var invalid []string
	for _, n := range names {
		if err := ValidateIdentifier(n); err != nil {
			invalid = append(invalid, n)
		}
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid identifiers: %q", invalid)
	}
	return nil
}

// ValidateActionName validates a ground action name.
func ValidateActionName(name string) error {
	if name == "" {
		return fmt.Errorf("action name cannot be empty")
	}
	if !actionPattern.MatchString(name) {
		return fmt.Errorf("invalid action name %q", name)
	}
	return nil
}

// SanitizeIdentifier trims and validates a name, e.g. a query parameter.
func SanitizeIdentifier(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if err := ValidateIdentifier(trimmed); err != nil {
		return "", err
	}
	return trimmed, nil
}
