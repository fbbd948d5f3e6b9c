// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package atoms interns (variable, value) pairs into dense identifiers and
// enumerates k-tuples of atoms for novelty bookkeeping.
//
// Description:
//
//	Every planner component that needs a compact handle on "variable v has
//	value x" goes through an Index. Identifiers are dense, start at 0 and
//	are stable for the lifetime of the Index, so they can be used directly
//	as bitset offsets and slice indices.
//
// Thread Safety:
//
//	Index is not safe for concurrent mutation. Once sealed it is read-only
//	and may be shared by any number of concurrent search instances.
package atoms

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
)

// AtomID is the dense identifier of an interned atom.
type AtomID int

// Atom is a (variable, value) pair.
type Atom struct {
	Var problem.VariableID
	Val problem.Value
}

// Tuple is a sorted set of distinct AtomIDs. It is a lookup key only.
type Tuple []AtomID

// Valuation is anything that assigns one value to each variable.
type Valuation interface {
	NumVariables() int
	Value(v problem.VariableID) (problem.Value, error)
}

// Index is the bidirectional Atom <-> AtomID mapping.
type Index struct {
	p      *problem.Problem
	ids    []map[problem.Value]AtomID
	atoms  []Atom
	sealed bool
}

// NewIndex creates an empty index over the variables of p.
func NewIndex(p *problem.Problem) *Index {
	return &Index{
		p:   p,
		ids: make([]map[problem.Value]AtomID, p.NumVariables()),
	}
}

// NewProblemIndex creates an index with every declared atom of p interned,
// in variable order then domain order. The index is not sealed.
func NewProblemIndex(p *problem.Problem) *Index {
	ix := NewIndex(p)
	ix.atoms = make([]Atom, 0, p.NumAtoms())
	for v := range p.NumVariables() {
		for _, x := range p.Domain(problem.VariableID(v)) {
			// Declared atoms cannot fail the domain check.
			_, _ = ix.Intern(problem.VariableID(v), x)
		}
	}
	return ix
}

// Problem returns the problem this index was built for.
func (ix *Index) Problem() *problem.Problem {
	return ix.p
}

// Intern returns the identifier of (v, x), allocating one on first use.
//
// Outputs:
//   - AtomID: Stable identifier, identical for repeated calls.
//   - error: IndexError if the atom is new and the index is sealed,
//     DomainError if (v, x) is not a declared atom.
func (ix *Index) Intern(v problem.VariableID, x problem.Value) (AtomID, error) {
	if err := ix.p.CheckAtom("atoms.Intern", v, x); err != nil {
		return 0, err
	}
	if id, ok := ix.ids[v][x]; ok {
		return id, nil
	}
	if ix.sealed {
		return 0, &problem.IndexError{Op: "atoms.Intern", Variable: v, Value: x}
	}
	if ix.ids[v] == nil {
		ix.ids[v] = make(map[problem.Value]AtomID, len(ix.p.Domain(v)))
	}
	id := AtomID(len(ix.atoms))
	ix.ids[v][x] = id
	ix.atoms = append(ix.atoms, Atom{Var: v, Val: x})
	return id, nil
}

// Lookup returns the identifier of (v, x) without interning.
func (ix *Index) Lookup(v problem.VariableID, x problem.Value) (AtomID, bool) {
	if v < 0 || int(v) >= len(ix.ids) {
		return 0, false
	}
	id, ok := ix.ids[v][x]
	return id, ok
}

// AtomOf returns the atom behind id.
func (ix *Index) AtomOf(id AtomID) (Atom, error) {
	if id < 0 || int(id) >= len(ix.atoms) {
		return Atom{}, fmt.Errorf("atoms.AtomOf: unknown atom id %d: %w", id, problem.ErrDomain)
	}
	return ix.atoms[id], nil
}

// Seal freezes the index. Further interning of new atoms fails.
func (ix *Index) Seal() {
	ix.sealed = true
}

// Sealed reports whether Seal was called.
func (ix *Index) Sealed() bool {
	return ix.sealed
}

// Len returns the number of interned atoms.
func (ix *Index) Len() int {
	return len(ix.atoms)
}

// String renders id as "var=value", or "#id" for unknown identifiers.
func (ix *Index) String(id AtomID) string {
	a, err := ix.AtomOf(id)
	if err != nil {
		return fmt.Sprintf("#%d", id)
	}
	return ix.p.AtomString(a.Var, a.Val)
}

// TupleString renders a tuple as "{a=1, b=0}".
func (ix *Index) TupleString(t Tuple) string {
	parts := make([]string, len(t))
	for i, id := range t {
		parts[i] = ix.String(id)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// AtomsOf returns the sorted identifiers of the atoms true in val.
//
// Outputs:
//   - []AtomID: One identifier per variable, ascending.
//   - error: DomainError if val assigns a value that was never interned.
func (ix *Index) AtomsOf(val Valuation) ([]AtomID, error) {
	n := val.NumVariables()
	out := make([]AtomID, 0, n)
	for v := range n {
		x, err := val.Value(problem.VariableID(v))
		if err != nil {
			return nil, err
		}
		id, ok := ix.Lookup(problem.VariableID(v), x)
		if !ok {
			return nil, problem.ValueOutOfDomain("atoms.AtomsOf", problem.VariableID(v), x)
		}
		out = append(out, id)
	}
	slices.Sort(out)
	return out, nil
}

// TuplesOfSize enumerates every k-tuple drawn from the atoms true in val.
//
// Description:
//
//	k=1 yields the atoms, k=2 all C(n,2) unordered pairs and so on. Tuples
//	are generated lazily. k <= 0 or k > n yields nothing.
func (ix *Index) TuplesOfSize(k int, val Valuation) (iter.Seq[Tuple], error) {
	ids, err := ix.AtomsOf(val)
	if err != nil {
		return nil, err
	}
	return Combinations(k, ids), nil
}

// Combinations yields all k-element subsets of ids in lexicographic order of
// positions. ids must be sorted for the yielded tuples to be sorted. Every
// yielded Tuple is a fresh slice.
func Combinations(k int, ids []AtomID) iter.Seq[Tuple] {
	return func(yield func(Tuple) bool) {
		n := len(ids)
		if k <= 0 || k > n {
			return
		}
		pos := make([]int, k)
		for i := range pos {
			pos[i] = i
		}
		for {
			t := make(Tuple, k)
			for i, p := range pos {
				t[i] = ids[p]
			}
			if !yield(t) {
				return
			}

			// Advance the rightmost position that still has room.
			i := k - 1
			for i >= 0 && pos[i] == n-k+i {
				i--
			}
			if i < 0 {
				return
			}
			pos[i]++
			for j := i + 1; j < k; j++ {
				pos[j] = pos[j-1] + 1
			}
		}
	}
}
