// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package tfhe

import "fmt"

// Gadget realises f : {0,1}^k -> {0,1} (or Z/o -> Z/o when extended)
// as a single programmable bootstrap preceded by a linear combination,
// per spec §4.4. The intermediate encoding is the only freedom its
// constructor has: a well-chosen set of linear coefficients lets one
// gadget realise an arbitrarily complex truth table with one bootstrap
// instead of a tree of binary gates.
type Gadget struct {
	EncodingsIn          []*BooleanEncoding
	EncodingIntermediate *BooleanEncoding
	EncodingOut          *BooleanEncoding
	Coeffs               []ZpElem
	TruthTable           []bool
}

// NewCanonicalGadget builds a Gadget for f over k Boolean inputs with
// canonical input encodings q[i] (each over modulus p_in) and
// canonical output encoding q_out over modulus p_out.
//
// Construction steps mirror spec §4.4 exactly:
//  1. encodings_in[i] = BooleanEncoding::new_canonical(q[i], p_in).
//  2. truth_table[x] = f(bits_of(x, k, little-endian)).
//  3. encoding_intermediate: r(x) = (sum_i bit_i(x)*q[i]) mod p_in is
//     assigned to the true-partition if truth_table[x], else the
//     false-partition. A residue demanded by both is rejected.
//  4. encoding_out = BooleanEncoding::new_canonical(q_out, p_out).
func NewCanonicalGadget(q []ZpElem, qOut ZpElem, pIn, pOut ZpElem, f func(bits []bool) bool) (*Gadget, error) {
	k := len(q)
	encodingsIn := make([]*BooleanEncoding, k)
	for i, qi := range q {
		enc, err := NewCanonicalBoolean(qi, pIn)
		if err != nil {
			return nil, fmt.Errorf("tfhe: gadget input encoding %d: %w", i, err)
		}
		encodingsIn[i] = enc
	}

	n := 1 << k
	truthTable := make([]bool, n)
	falsePart := make([]ZpElem, 0, n)
	truePart := make([]ZpElem, 0, n)
	assigned := make(map[ZpElem]bool, n)
	seen := make(map[ZpElem]struct{}, n)

	for x := 0; x < n; x++ {
		bits := bitsOf(x, k)
		out := f(bits)
		truthTable[x] = out

		var r ZpElem
		for i, bit := range bits {
			if bit {
				r = (r + q[i]) % pIn
			}
		}
		if prev, ok := assigned[r]; ok && prev != out {
			return nil, fmt.Errorf("%w: residue %d demanded as both true and false", ErrGadgetIntermediateInconsistent, r)
		}
		if _, dup := seen[r]; !dup {
			seen[r] = struct{}{}
			assigned[r] = out
			if out {
				truePart = append(truePart, r)
			} else {
				falsePart = append(falsePart, r)
			}
		}
	}

	encodingIntermediate, err := NewBooleanEncoding(falsePart, truePart, pIn)
	if err != nil {
		return nil, fmt.Errorf("tfhe: gadget intermediate encoding: %w", err)
	}

	encodingOut, err := NewCanonicalBoolean(qOut, pOut)
	if err != nil {
		return nil, fmt.Errorf("tfhe: gadget output encoding: %w", err)
	}

	return &Gadget{
		EncodingsIn:          encodingsIn,
		EncodingIntermediate: encodingIntermediate,
		EncodingOut:          encodingOut,
		Coeffs:               append([]ZpElem(nil), q...),
		TruthTable:           truthTable,
	}, nil
}

func bitsOf(x, k int) []bool {
	bits := make([]bool, k)
	for i := 0; i < k; i++ {
		bits[i] = (x>>uint(i))&1 == 1
	}
	return bits
}

// ExecClear evaluates the truth table directly, for tests and
// reference comparisons: exec_clear of spec §4.4.
func (g *Gadget) ExecClear(inputs []bool) bool {
	x := 0
	for i, b := range inputs {
		if b {
			x |= 1 << uint(i)
		}
	}
	return g.TruthTable[x]
}

// Accumulator returns the torus-encoded GLWE lookup-table body this
// gadget's bootstrap consumes, built per spec §4.2 from
// EncodingIntermediate and EncodingOut.
func (g *Gadget) Accumulator(polyDegree int) ([]uint32, error) {
	return BuildAccumulatorBody(g.EncodingIntermediate, g.EncodingOut, polyDegree)
}
