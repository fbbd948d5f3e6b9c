// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package problem holds the static description of a grounded planning
// problem: its state variables and their finite domains.
//
// Description:
//
//	A Problem is the explicit context object handed to every planner
//	component that needs variable naming or domain checks. It is built once
//	per run and never mutated afterwards, so it can be shared read-only by
//	concurrent search instances.
//
// Thread Safety: Problem is immutable after New and safe for concurrent use.
package problem

import (
	"strconv"
)

// VariableID identifies one state variable. IDs are dense, starting at 0.
type VariableID int

// Value is a domain element: an object identifier or a built-in scalar.
// Booleans are encoded as 0 (false) and 1 (true).
type Value int

// Kind describes how a variable's values are named.
type Kind int

const (
	// KindObject variables range over named objects.
	KindObject Kind = iota

	// KindBool variables range over {0, 1}, printed as false/true.
	KindBool

	// KindInt variables range over integers, printed as numbers.
	KindInt
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	default:
		return "unknown"
	}
}

// Variable declares one state variable.
type Variable struct {
	// Name is unique within the problem.
	Name string

	// Kind selects how values are rendered.
	Kind Kind

	// Domain lists the admissible values in declaration order.
	Domain []Value

	// ValueNames optionally names each Domain entry (same length as Domain).
	// Only used for KindObject.
	ValueNames []string
}

// Problem is the immutable variable/domain description of a planning task.
type Problem struct {
	name      string
	variables []Variable
	byName    map[string]VariableID
	domains   []map[Value]int
}

// New builds a Problem from its variable declarations.
//
// Inputs:
//   - name: Problem name, used in logs and archives.
//   - vars: Variable declarations. The i-th entry receives VariableID(i).
//
// Outputs:
//   - *Problem: The validated problem.
//   - error: ConfigurationError on empty or duplicate names, empty domains,
//     duplicate domain values or mismatched value names.
func New(name string, vars []Variable) (*Problem, error) {
	p := &Problem{
		name:      name,
		variables: make([]Variable, len(vars)),
		byName:    make(map[string]VariableID, len(vars)),
		domains:   make([]map[Value]int, len(vars)),
	}

	for i, v := range vars {
		if v.Name == "" {
			return nil, Configurationf("problem.New", "variable %d has no name", i)
		}
		if _, dup := p.byName[v.Name]; dup {
			return nil, Configurationf("problem.New", "duplicate variable %q", v.Name)
		}
		if len(v.Domain) == 0 {
			return nil, Configurationf("problem.New", "variable %q has an empty domain", v.Name)
		}
		if len(v.ValueNames) != 0 && len(v.ValueNames) != len(v.Domain) {
			return nil, Configurationf("problem.New", "variable %q: %d value names for %d values",
				v.Name, len(v.ValueNames), len(v.Domain))
		}

		positions := make(map[Value]int, len(v.Domain))
		for pos, x := range v.Domain {
			if _, dup := positions[x]; dup {
				return nil, Configurationf("problem.New", "variable %q: duplicate value %d", v.Name, x)
			}
			positions[x] = pos
		}

		decl := Variable{
			Name:       v.Name,
			Kind:       v.Kind,
			Domain:     append([]Value(nil), v.Domain...),
			ValueNames: append([]string(nil), v.ValueNames...),
		}
		p.variables[i] = decl
		p.byName[v.Name] = VariableID(i)
		p.domains[i] = positions
	}

	return p, nil
}

// Name returns the problem name.
func (p *Problem) Name() string {
	return p.name
}

// NumVariables returns the number of declared variables.
func (p *Problem) NumVariables() int {
	return len(p.variables)
}

// HasVariable reports whether v is declared.
func (p *Problem) HasVariable(v VariableID) bool {
	return v >= 0 && int(v) < len(p.variables)
}

// Variable returns the declaration of v.
//
// Outputs:
//   - Variable: The declaration. Slices are shared and must not be mutated.
//   - error: DomainError if v is not declared.
func (p *Problem) Variable(v VariableID) (Variable, error) {
	if !p.HasVariable(v) {
		return Variable{}, UnknownVariable("problem.Variable", v)
	}
	return p.variables[v], nil
}

// VariableByName resolves a variable name.
func (p *Problem) VariableByName(name string) (VariableID, bool) {
	v, ok := p.byName[name]
	return v, ok
}

// Domain returns the domain of v, or nil if v is not declared.
func (p *Problem) Domain(v VariableID) []Value {
	if !p.HasVariable(v) {
		return nil
	}
	return p.variables[v].Domain
}

// InDomain reports whether x is an admissible value of v.
func (p *Problem) InDomain(v VariableID, x Value) bool {
	if !p.HasVariable(v) {
		return false
	}
	_, ok := p.domains[v][x]
	return ok
}

// CheckAtom returns a DomainError unless (v, x) is a declared atom.
func (p *Problem) CheckAtom(op string, v VariableID, x Value) error {
	if !p.HasVariable(v) {
		return UnknownVariable(op, v)
	}
	if _, ok := p.domains[v][x]; !ok {
		return ValueOutOfDomain(op, v, x)
	}
	return nil
}

// NumAtoms returns the total number of (variable, value) pairs.
func (p *Problem) NumAtoms() int {
	n := 0
	for _, v := range p.variables {
		n += len(v.Domain)
	}
	return n
}

// VariableName returns the name of v, or "#<id>" for undeclared variables.
func (p *Problem) VariableName(v VariableID) string {
	if !p.HasVariable(v) {
		return "#" + strconv.Itoa(int(v))
	}
	return p.variables[v].Name
}

// ValueName renders x as a value of v.
func (p *Problem) ValueName(v VariableID, x Value) string {
	if !p.HasVariable(v) {
		return strconv.Itoa(int(x))
	}
	decl := p.variables[v]
	switch decl.Kind {
	case KindBool:
		switch x {
		case 0:
			return "false"
		case 1:
			return "true"
		}
	case KindObject:
		if pos, ok := p.domains[v][x]; ok && len(decl.ValueNames) > pos {
			return decl.ValueNames[pos]
		}
	}
	return strconv.Itoa(int(x))
}

// AtomString renders (v, x) as "name=value".
func (p *Problem) AtomString(v VariableID, x Value) string {
	return p.VariableName(v) + "=" + p.ValueName(v, x)
}

// BoolDomain is the domain of boolean variables.
func BoolDomain() []Value {
	return []Value{0, 1}
}

// IntRange returns the domain {lo, ..., hi}. Returns nil when hi < lo.
func IntRange(lo, hi int) []Value {
	if hi < lo {
		return nil
	}
	out := make([]Value, 0, hi-lo+1)
	for x := lo; x <= hi; x++ {
		out = append(out, Value(x))
	}
	return out
}
