// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package loader

import "gopkg.in/yaml.v3"

// File is the on-disk problem document.
//
// Example:
//
//	name: switches
//	variables:
//	  - {name: a, type: bool}
//	  - {name: pos, type: int, range: [0, 3]}
//	  - {name: loc, type: object, values: [home, office]}
//	init: {a: false, pos: 0, loc: home}
//	goal: {and: [{eq: [a, true]}, {neq: [loc, home]}]}
//	actions:
//	  - name: go_office
//	    precondition: {eq: [loc, home]}
//	    effects:
//	      - {var: loc, value: office}
//	      - {var: a, copy: a, when: {eq: [pos, 3]}}
type File struct {
	Name      string         `yaml:"name" validate:"required"`
	Variables []VariableSpec `yaml:"variables" validate:"required,min=1,dive"`
	Init      map[string]any `yaml:"init" validate:"required"`
	Goal      yaml.Node      `yaml:"goal"`
	Actions   []ActionSpec   `yaml:"actions" validate:"dive"`
}

// VariableSpec declares one variable.
type VariableSpec struct {
	Name string `yaml:"name" validate:"required"`
	Type string `yaml:"type" validate:"required,oneof=bool int object"`

	// Range is the inclusive [lo, hi] domain of an int variable.
	Range []int `yaml:"range,omitempty" validate:"omitempty,len=2"`

	// Values lists the objects of an object variable.
	Values []string `yaml:"values,omitempty" validate:"omitempty,unique,dive,required"`
}

// ActionSpec declares one ground action.
type ActionSpec struct {
	Name         string       `yaml:"name" validate:"required"`
	Precondition yaml.Node    `yaml:"precondition"`
	Effects      []EffectSpec `yaml:"effects" validate:"dive"`
}

// EffectSpec declares one effect. Exactly one of Value and Copy is set.
type EffectSpec struct {
	Var   string    `yaml:"var" validate:"required"`
	Value yaml.Node `yaml:"value"`

	// Copy names a variable whose current value is written.
	Copy string `yaml:"copy,omitempty"`

	// When guards the effect.
	When yaml.Node `yaml:"when"`
}
