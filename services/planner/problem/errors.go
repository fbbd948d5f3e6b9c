// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package problem

import (
	"errors"
	"fmt"
)

// Sentinel errors for the planner error taxonomy.
//
// Typed errors below match these via errors.Is so callers can branch on the
// category without caring about the concrete type.
var (
	// ErrConfiguration marks fatal setup errors: malformed actions, invalid
	// width bounds, an empty action set facing a non-trivial goal.
	ErrConfiguration = errors.New("configuration error")

	// ErrDomain marks a variable or value referenced outside the declared
	// problem domain. Always an upstream grounding defect.
	ErrDomain = errors.New("domain error")

	// ErrIndexSealed marks an attempt to intern an atom after the atom index
	// was sealed.
	ErrIndexSealed = errors.New("atom index sealed")

	// ErrCapability marks a formula or action capability that cannot serve
	// the requested operation.
	ErrCapability = errors.New("capability error")
)

// ConfigurationError reports a fatal configuration problem.
type ConfigurationError struct {
	Op     string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Op + ": " + e.Reason
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Configurationf builds a ConfigurationError with a formatted reason.
func Configurationf(op, format string, args ...any) error {
	return &ConfigurationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// DomainError reports an atom, variable or value outside the declared domain.
type DomainError struct {
	Op       string
	Variable VariableID
	Value    Value
	// HasValue is false when only the variable was out of range.
	HasValue bool
	Reason   string
}

func (e *DomainError) Error() string {
	if e.HasValue {
		return fmt.Sprintf("domain error: %s: variable %d value %d: %s", e.Op, e.Variable, e.Value, e.Reason)
	}
	return fmt.Sprintf("domain error: %s: variable %d: %s", e.Op, e.Variable, e.Reason)
}

// Is reports whether target is ErrDomain.
func (e *DomainError) Is(target error) bool {
	return target == ErrDomain
}

// UnknownVariable returns a DomainError for an undeclared variable.
func UnknownVariable(op string, v VariableID) error {
	return &DomainError{Op: op, Variable: v, Reason: "undeclared variable"}
}

// ValueOutOfDomain returns a DomainError for a value outside a variable's domain.
func ValueOutOfDomain(op string, v VariableID, x Value) error {
	return &DomainError{Op: op, Variable: v, Value: x, HasValue: true, Reason: "value outside domain"}
}

// IndexError reports misuse of the atom index.
type IndexError struct {
	Op       string
	Variable VariableID
	Value    Value
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index error: %s: cannot intern (%d, %d) after seal", e.Op, e.Variable, e.Value)
}

// Is reports whether target is ErrIndexSealed.
func (e *IndexError) Is(target error) bool {
	return target == ErrIndexSealed
}

// CapabilityError reports that an external capability could not serve a
// request. The wrapped error is kept verbatim.
type CapabilityError struct {
	Op  string
	Err error
}

func (e *CapabilityError) Error() string {
	return "capability error: " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the original error.
func (e *CapabilityError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrCapability.
func (e *CapabilityError) Is(target error) bool {
	return target == ErrCapability
}
