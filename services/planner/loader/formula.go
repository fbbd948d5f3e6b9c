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

import (
	"gopkg.in/yaml.v3"

	"github.com/aig-upf/fs-private-sub005/services/planner/formula"
	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
)

// formula compiles a formula node. An absent node is true.
//
// Syntax:
//
//	true | false
//	{eq: [var, value]}   {neq: [var, value]}
//	{not: f}   {and: [f, ...]}   {or: [f, ...]}
func (c *compiler) formula(n *yaml.Node, where string) (formula.Formula, error) {
	if isEmpty(n) {
		return formula.True{}, nil
	}
	if n.Kind == yaml.DocumentNode && len(n.Content) == 1 {
		n = n.Content[0]
	}

	switch n.Kind {
	case yaml.ScalarNode:
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, c.syntax(where, n, "expected true, false or a mapping")
		}
		if b {
			return formula.True{}, nil
		}
		return formula.False{}, nil

	case yaml.MappingNode:
		if len(n.Content) != 2 {
			return nil, c.syntax(where, n, "a formula mapping has exactly one operator")
		}
		op, arg := n.Content[0].Value, n.Content[1]
		switch op {
		case "eq", "neq":
			return c.comparison(op, arg, where)
		case "not":
			f, err := c.formula(arg, where)
			if err != nil {
				return nil, err
			}
			return formula.Not{F: f}, nil
		case "and", "or":
			if arg.Kind != yaml.SequenceNode {
				return nil, c.syntax(where, arg, op+" expects a list")
			}
			fs := make([]formula.Formula, 0, len(arg.Content))
			for _, item := range arg.Content {
				f, err := c.formula(item, where)
				if err != nil {
					return nil, err
				}
				fs = append(fs, f)
			}
			if op == "and" {
				return formula.Conjunction(fs...), nil
			}
			return formula.Or{Fs: fs}, nil
		default:
			return nil, c.syntax(where, n, "unknown operator "+op)
		}
	}
	return nil, c.syntax(where, n, "expected true, false or a mapping")
}

func (c *compiler) comparison(op string, arg *yaml.Node, where string) (formula.Formula, error) {
	if arg.Kind != yaml.SequenceNode || len(arg.Content) != 2 {
		return nil, c.syntax(where, arg, op+" expects [variable, value]")
	}
	v, err := c.variable(arg.Content[0].Value, where)
	if err != nil {
		return nil, err
	}
	var raw any
	if err := arg.Content[1].Decode(&raw); err != nil {
		return nil, c.syntax(where, arg.Content[1], err.Error())
	}
	x, err := c.value(v, raw)
	if err != nil {
		return nil, err
	}
	if op == "eq" {
		return formula.Eq{Var: v, Value: x}, nil
	}
	return formula.Neq{Var: v, Value: x}, nil
}

func (c *compiler) syntax(where string, n *yaml.Node, msg string) error {
	return problem.Configurationf("loader.Parse", "%s (line %d): %s", where, n.Line, msg)
}
