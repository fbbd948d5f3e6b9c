// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package loader reads grounded planning problems from YAML (or JSON)
// documents and compiles them into search tasks.
package loader

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/aig-upf/fs-private-sub005/pkg/validation"
	"github.com/aig-upf/fs-private-sub005/services/planner/action"
	"github.com/aig-upf/fs-private-sub005/services/planner/atoms"
	"github.com/aig-upf/fs-private-sub005/services/planner/formula"
	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
	"github.com/aig-upf/fs-private-sub005/services/planner/search"
	"github.com/aig-upf/fs-private-sub005/services/planner/state"
)

// MaxDomainSize bounds the values one variable may declare. Every value
// becomes an interned atom.
const MaxDomainSize = 1 << 16

var structValidator = validator.New()

// Document is a compiled problem file.
type Document struct {
	// Task is ready for search.Solve. Its atom index is sealed.
	Task search.Task

	// Digest is the hex SHA-256 of the source bytes.
	Digest string
}

// Load reads and compiles the problem file at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read problem file: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse compiles a problem document.
//
// Outputs:
//   - *Document: The compiled task and source digest.
//   - error: YAML syntax errors, ConfigurationError for structural
//     problems (missing fields, unknown names, malformed formulas), or
//     DomainError for values outside a variable's domain.
func Parse(data []byte) (*Document, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse problem: %w", err)
	}
	if err := structValidator.Struct(&f); err != nil {
		return nil, problem.Configurationf("loader.Parse", "%s", describe(err))
	}
	if err := checkNames(&f); err != nil {
		return nil, err
	}

	c, err := newCompiler(&f)
	if err != nil {
		return nil, err
	}
	task, err := c.task(&f)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	return &Document{Task: task, Digest: hex.EncodeToString(sum[:])}, nil
}

// describe flattens validator errors into one line.
func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "File.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// checkNames rejects names that could not be read back unambiguously as
// formula operands.
func checkNames(f *File) error {
	if err := validation.ValidateIdentifier(f.Name); err != nil {
		return problem.Configurationf("loader.Parse", "problem name: %v", err)
	}
	for _, v := range f.Variables {
		if err := validation.ValidateIdentifier(v.Name); err != nil {
			return problem.Configurationf("loader.Parse", "variable: %v", err)
		}
		if err := validation.ValidateIdentifiers(v.Values); err != nil {
			return problem.Configurationf("loader.Parse", "variable %q values: %v", v.Name, err)
		}
	}
	for _, a := range f.Actions {
		if err := validation.ValidateActionName(a.Name); err != nil {
			return problem.Configurationf("loader.Parse", "%v", err)
		}
	}
	return nil
}

// compiler resolves names against the declared variables.
type compiler struct {
	p       *problem.Problem
	objects []map[string]problem.Value // per variable, object name -> value
}

func newCompiler(f *File) (*compiler, error) {
	vars := make([]problem.Variable, len(f.Variables))
	objects := make([]map[string]problem.Value, len(f.Variables))
	for i, spec := range f.Variables {
		v := problem.Variable{Name: spec.Name}
		switch spec.Type {
		case "bool":
			v.Kind = problem.KindBool
			v.Domain = problem.BoolDomain()
		case "int":
			if len(spec.Range) != 2 || spec.Range[1] < spec.Range[0] {
				return nil, problem.Configurationf("loader.Parse", "variable %q needs range [lo, hi] with lo <= hi", spec.Name)
			}
			if uint64(spec.Range[1])-uint64(spec.Range[0]) >= MaxDomainSize {
				return nil, problem.Configurationf("loader.Parse", "variable %q range [%d, %d] exceeds %d values",
					spec.Name, spec.Range[0], spec.Range[1], MaxDomainSize)
			}
			v.Kind = problem.KindInt
			v.Domain = problem.IntRange(spec.Range[0], spec.Range[1])
		case "object":
			if len(spec.Values) == 0 {
				return nil, problem.Configurationf("loader.Parse", "object variable %q declares no values", spec.Name)
			}
			if len(spec.Values) > MaxDomainSize {
				return nil, problem.Configurationf("loader.Parse", "object variable %q has %d values, limit is %d", spec.Name, len(spec.Values), MaxDomainSize)
			}
			v.Kind = problem.KindObject
			v.ValueNames = spec.Values
			objects[i] = make(map[string]problem.Value, len(spec.Values))
			for pos, name := range spec.Values {
				v.Domain = append(v.Domain, problem.Value(pos))
				objects[i][name] = problem.Value(pos)
			}
		}
		vars[i] = v
	}

	p, err := problem.New(f.Name, vars)
	if err != nil {
		return nil, err
	}
	return &compiler{p: p, objects: objects}, nil
}

func (c *compiler) task(f *File) (search.Task, error) {
	init, err := c.initial(f.Init)
	if err != nil {
		return search.Task{}, err
	}
	goal, err := c.formula(&f.Goal, "goal")
	if err != nil {
		return search.Task{}, err
	}

	actions := make([]*action.Action, len(f.Actions))
	seen := make(map[string]bool, len(f.Actions))
	for i, spec := range f.Actions {
		if seen[spec.Name] {
			return search.Task{}, problem.Configurationf("loader.Parse", "duplicate action %q", spec.Name)
		}
		seen[spec.Name] = true
		a, err := c.action(i, spec)
		if err != nil {
			return search.Task{}, err
		}
		actions[i] = a
	}

	ix := atoms.NewProblemIndex(c.p)
	ix.Seal()
	return search.Task{
		Problem: c.p,
		Index:   ix,
		Init:    init,
		Goal:    goal,
		Actions: actions,
	}, nil
}

func (c *compiler) initial(values map[string]any) (*state.State, error) {
	out := make([]problem.Value, c.p.NumVariables())
	for name := range values {
		if _, ok := c.p.VariableByName(name); !ok {
			return nil, problem.Configurationf("loader.Parse", "init assigns unknown variable %q", name)
		}
	}
	for v := range c.p.NumVariables() {
		id := problem.VariableID(v)
		raw, ok := values[c.p.VariableName(id)]
		if !ok {
			return nil, problem.Configurationf("loader.Parse", "init misses variable %q", c.p.VariableName(id))
		}
		x, err := c.value(id, raw)
		if err != nil {
			return nil, err
		}
		out[v] = x
	}
	return state.New(c.p, out)
}

func (c *compiler) action(id int, spec ActionSpec) (*action.Action, error) {
	where := "action " + spec.Name
	pre, err := c.formula(&spec.Precondition, where+" precondition")
	if err != nil {
		return nil, err
	}
	a := &action.Action{ID: id, Name: spec.Name, Precondition: pre}

	for i, es := range spec.Effects {
		ewhere := fmt.Sprintf("%s effect %d", where, i)
		v, err := c.variable(es.Var, ewhere)
		if err != nil {
			return nil, err
		}

		var expr formula.Expr
		switch hasValue := !isEmpty(&es.Value); {
		case hasValue && es.Copy != "":
			return nil, problem.Configurationf("loader.Parse", "%s sets both value and copy", ewhere)
		case hasValue:
			var raw any
			if err := es.Value.Decode(&raw); err != nil {
				return nil, problem.Configurationf("loader.Parse", "%s: %v", ewhere, err)
			}
			x, err := c.value(v, raw)
			if err != nil {
				return nil, err
			}
			expr = formula.Const{Value: x}
		case es.Copy != "":
			src, err := c.variable(es.Copy, ewhere)
			if err != nil {
				return nil, err
			}
			expr = formula.Ref{Var: src}
		default:
			return nil, problem.Configurationf("loader.Parse", "%s needs value or copy", ewhere)
		}

		cond, err := c.formula(&es.When, ewhere+" condition")
		if err != nil {
			return nil, err
		}
		if _, ok := cond.(formula.True); ok {
			cond = nil
		}
		a.Effects = append(a.Effects, action.Effect{Var: v, Value: expr, Condition: cond})
	}

	if err := a.Validate(c.p); err != nil {
		return nil, err
	}
	return a, nil
}

func (c *compiler) variable(name, where string) (problem.VariableID, error) {
	v, ok := c.p.VariableByName(name)
	if !ok {
		return 0, problem.Configurationf("loader.Parse", "%s: unknown variable %q", where, name)
	}
	return v, nil
}

// value converts a decoded YAML scalar into a domain value of v.
func (c *compiler) value(v problem.VariableID, raw any) (problem.Value, error) {
	decl, err := c.p.Variable(v)
	if err != nil {
		return 0, err
	}
	var x problem.Value
	switch decl.Kind {
	case problem.KindBool:
		b, ok := raw.(bool)
		if !ok {
			return 0, problem.Configurationf("loader.Parse", "variable %q expects a bool, got %v", decl.Name, raw)
		}
		if b {
			x = 1
		}
	case problem.KindInt:
		n, ok := raw.(int)
		if !ok {
			return 0, problem.Configurationf("loader.Parse", "variable %q expects an int, got %v", decl.Name, raw)
		}
		x = problem.Value(n)
	case problem.KindObject:
		name, ok := raw.(string)
		if !ok {
			return 0, problem.Configurationf("loader.Parse", "variable %q expects an object name, got %v", decl.Name, raw)
		}
		x, ok = c.objects[v][name]
		if !ok {
			return 0, &problem.DomainError{Op: "loader.Parse", Variable: v, Reason: fmt.Sprintf("unknown object %q", name)}
		}
	}
	if err := c.p.CheckAtom("loader.Parse", v, x); err != nil {
		return 0, err
	}
	return x, nil
}

func isEmpty(n *yaml.Node) bool {
	return n.Kind == 0 || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}
