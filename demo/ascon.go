// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

// Package demo wires the gadget framework to a handful of symmetric
// primitives (Ascon, AES, Simon), exercising it end to end without
// ever touching its construction rules. Each demo is a thin consumer:
// it builds gadgets/circuits and drives them through the Engine/
// ServerKey surface, the way the reference implementation's own
// ascon.rs/aes/mod.rs/simon demos do.
package demo

import (
	"fmt"

	"github.com/fhecore/tfhe"
	"github.com/fhecore/tfhe/circuit"
	"github.com/fhecore/tfhe/parallel"
)

// asconSboxTables holds the five gadget rows of the Ascon 5-bit S-box,
// each a linear combination (q) over p=17 feeding one bootstrap, and
// the truth table that combination must realise. Transcribed from the
// reference ascon_gadgets_creation: rows 0, 1, 3 consume all five
// input bits; rows 2 and 4 consume only the first four (the zip
// against a 4-entry q intentionally drops the fifth).
var asconSboxTables = []struct {
	q  []tfhe.ZpElem
	tt []int
}{
	{
		q:  []tfhe.ZpElem{1, 2, 3, 7, 14},
		tt: []int{0, 0, 1, 1, 1, 1, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 1, 1, 0, 0, 0, 0, 1, 1, 1, 0, 0, 1, 1, 0, 0, 1},
	},
	{
		q:  []tfhe.ZpElem{1, 2, 2, 2, 4},
		tt: []int{0, 1, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 1, 0},
	},
	{
		q:  []tfhe.ZpElem{1, 2, 4, 4},
		tt: []int{1, 0, 1, 1, 0, 1, 0, 0, 0, 1, 0, 0, 1, 0, 1, 1},
	},
	{
		q:  []tfhe.ZpElem{1, 1, 5, 5, 3},
		tt: []int{0, 1, 1, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0, 1, 1, 0, 1, 1, 1, 1, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1, 1, 1},
	},
	{
		q:  []tfhe.ZpElem{1, 2, 4, 3},
		tt: []int{0, 1, 1, 0, 0, 1, 1, 0, 1, 1, 0, 0, 1, 1, 0, 0, 0, 1, 1, 0, 0, 1, 1, 0, 0, 0, 1, 1, 0, 0, 1, 1},
	},
}

// BuildAsconSbox constructs the five gadgets of the Ascon S-box over
// p=17, each a canonical gadget with output encoding new_canonical(1,17).
func BuildAsconSbox() ([]*tfhe.Gadget, error) {
	gadgets := make([]*tfhe.Gadget, len(asconSboxTables))
	for i, row := range asconSboxTables {
		tt := row.tt
		g, err := tfhe.NewCanonicalGadget(row.q, 1, 17, 17, func(bits []bool) bool {
			x := 0
			for j, b := range bits {
				if b {
					x |= 1 << uint(j)
				}
			}
			return tt[x] == 1
		})
		if err != nil {
			return nil, fmt.Errorf("demo: ascon gadget %d: %w", i, err)
		}
		gadgets[i] = g
	}
	return gadgets, nil
}

// EvalAsconSbox runs the five-gadget S-box over a 5-bit state,
// producing a fresh 5-bit state, the way ascon_sbox zips each gadget's
// q against the state bits before casting and executing. The five rows
// are independent bootstraps (spec §5's shared-nothing data
// parallelism), so they run across parallel.ForErr's worker pool, each
// worker driving its own ServerKey.ShallowCopy rather than contending on
// a single shared evaluator.
func EvalAsconSbox(gadgets []*tfhe.Gadget, state *circuit.State, eng *tfhe.Engine, sk *tfhe.ServerKey) (*circuit.State, error) {
	out := make([]tfhe.Ciphertext, len(gadgets))
	_, err := parallel.ForErr(parallel.DefaultConfig(), len(gadgets), func(_, i int) error {
		g := gadgets[i]
		workerSK := sk.ShallowCopy()
		k := len(g.Coeffs)
		inputs := state.Bits[:k]
		cast, err := eng.CastBeforeGadget(g.Coeffs, inputs, workerSK)
		if err != nil {
			return fmt.Errorf("demo: ascon sbox row %d: %w", i, err)
		}
		res, err := eng.Exec(g, cast, workerSK)
		if err != nil {
			return fmt.Errorf("demo: ascon sbox row %d: %w", i, err)
		}
		out[i] = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &circuit.State{Bits: out, SizeState: len(out)}, nil
}
