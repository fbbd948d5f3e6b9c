// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package novelty classifies states by the smallest atom tuple they exhibit
// that no earlier state exhibited.
//
// Description:
//
//	An Evaluator keeps one table of witnessed k-tuples per k in [1, W].
//	Evaluating a state always records every tuple it contains, for every
//	k, whatever the result. The same atom set evaluated twice is therefore
//	never novel the second time. Tables only grow; a fresh search needs a
//	fresh Evaluator.
//
//	Width 1 uses a bitset over atom identifiers, width 2 a set of packed
//	pairs, and larger widths a set of encoded tuple keys.
//
// Thread Safety: Evaluator is not safe for concurrent use. Each search
// instance owns its own.
package novelty

import (
	"encoding/binary"

	"github.com/aig-upf/fs-private-sub005/services/planner/atoms"
	"github.com/aig-upf/fs-private-sub005/services/planner/problem"
)

// table records the witnessed tuples of one size.
type table interface {
	// insert adds t and reports whether it was new.
	insert(t atoms.Tuple) bool
	size() int
}

// bitTable is the width-1 table.
type bitTable struct {
	words []uint64
	n     int
}

func (b *bitTable) insert(t atoms.Tuple) bool {
	id := int(t[0])
	w := id / 64
	if w >= len(b.words) {
		grown := make([]uint64, w+1)
		copy(grown, b.words)
		b.words = grown
	}
	mask := uint64(1) << (id % 64)
	if b.words[w]&mask != 0 {
		return false
	}
	b.words[w] |= mask
	b.n++
	return true
}

func (b *bitTable) size() int { return b.n }

// pairTable is the width-2 table. Pairs are sorted, so packing the low id
// in the high half is unambiguous.
type pairTable map[uint64]struct{}

func (p pairTable) insert(t atoms.Tuple) bool {
	key := uint64(uint32(t[0]))<<32 | uint64(uint32(t[1]))
	if _, ok := p[key]; ok {
		return false
	}
	p[key] = struct{}{}
	return true
}

func (p pairTable) size() int { return len(p) }

// keyTable handles k >= 3.
type keyTable map[string]struct{}

func (m keyTable) insert(t atoms.Tuple) bool {
	buf := make([]byte, 0, len(t)*binary.MaxVarintLen32)
	for _, id := range t {
		buf = binary.AppendUvarint(buf, uint64(id))
	}
	key := string(buf)
	if _, ok := m[key]; ok {
		return false
	}
	m[key] = struct{}{}
	return true
}

func (m keyTable) size() int { return len(m) }

// Evaluator computes novelty up to a width bound.
type Evaluator struct {
	ix     *atoms.Index
	width  int
	tables []table // tables[k-1] holds k-tuples
}

// New creates an Evaluator with empty tables.
//
// Outputs:
//   - *Evaluator: The evaluator.
//   - error: ConfigurationError if width <= 0.
func New(ix *atoms.Index, width int) (*Evaluator, error) {
	if width <= 0 {
		return nil, problem.Configurationf("novelty.New", "width must be positive, got %d", width)
	}
	e := &Evaluator{ix: ix, width: width, tables: make([]table, width)}
	for k := 1; k <= width; k++ {
		switch k {
		case 1:
			e.tables[0] = &bitTable{words: make([]uint64, (ix.Len()+63)/64)}
		case 2:
			e.tables[1] = make(pairTable)
		default:
			e.tables[k-1] = make(keyTable)
		}
	}
	return e, nil
}

// Width returns the width bound W.
func (e *Evaluator) Width() int {
	return e.width
}

// NotNovel is the value returned for states with no new tuple: W + 1.
func (e *Evaluator) NotNovel() int {
	return e.width + 1
}

// Evaluate returns the novelty of val and records all its tuples.
//
// Outputs:
//   - int: Smallest k in [1, W] with an unseen k-tuple, or NotNovel().
//   - error: DomainError if val holds an atom the index does not know.
func (e *Evaluator) Evaluate(val atoms.Valuation) (int, error) {
	ids, err := e.ix.AtomsOf(val)
	if err != nil {
		return 0, err
	}
	return e.EvaluateAtoms(ids), nil
}

// EvaluateAtoms is Evaluate over a sorted atom set.
func (e *Evaluator) EvaluateAtoms(ids []atoms.AtomID) int {
	novelty := e.NotNovel()
	for k := 1; k <= e.width; k++ {
		tbl := e.tables[k-1]
		for t := range atoms.Combinations(k, ids) {
			if tbl.insert(t) && k < novelty {
				novelty = k
			}
		}
	}
	return novelty
}

// Seen returns the number of k-tuples recorded, or 0 outside [1, W].
func (e *Evaluator) Seen(k int) int {
	if k < 1 || k > e.width {
		return 0
	}
	return e.tables[k-1].size()
}

// Partitioned keeps an independent Evaluator per partition key, as used by
// best-first width search where novelty is measured among states with the
// same heuristic value.
type Partitioned struct {
	ix    *atoms.Index
	width int
	parts map[int]*Evaluator
}

// NewPartitioned creates a Partitioned evaluator.
func NewPartitioned(ix *atoms.Index, width int) (*Partitioned, error) {
	if width <= 0 {
		return nil, problem.Configurationf("novelty.NewPartitioned", "width must be positive, got %d", width)
	}
	return &Partitioned{ix: ix, width: width, parts: make(map[int]*Evaluator)}, nil
}

// NotNovel returns W + 1.
func (p *Partitioned) NotNovel() int {
	return p.width + 1
}

// Evaluate returns the novelty of val within partition key.
func (p *Partitioned) Evaluate(key int, val atoms.Valuation) (int, error) {
	ids, err := p.ix.AtomsOf(val)
	if err != nil {
		return 0, err
	}
	ev, ok := p.parts[key]
	if !ok {
		// Width was validated above.
		ev, _ = New(p.ix, p.width)
		p.parts[key] = ev
	}
	return ev.EvaluateAtoms(ids), nil
}

// Partitions returns the number of partitions created so far.
func (p *Partitioned) Partitions() int {
	return len(p.parts)
}
