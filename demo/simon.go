// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package demo

import (
	"fmt"

	"github.com/fhecore/tfhe"
)

// andGadget is the single non-linear primitive Simon's round function
// needs: a 2-input canonical gadget over the parity encoding
// realising logical AND with a single bootstrap.
func andGadget() (*tfhe.Gadget, error) {
	return tfhe.NewCanonicalGadget([]tfhe.ZpElem{1, 1}, 1, 2, 2, func(bits []bool) bool {
		return bits[0] && bits[1]
	})
}

// rotateLeft rotates a bit-slice (LSB-first, matching the rest of this
// module's little-endian convention) left by n positions.
func rotateLeft(bits []tfhe.Ciphertext, n int) []tfhe.Ciphertext {
	size := len(bits)
	n = ((n % size) + size) % size
	out := make([]tfhe.Ciphertext, size)
	for i := range bits {
		out[(i+n)%size] = bits[i]
	}
	return out
}

// xorBits computes the bitwise XOR of two equal-length ciphertext
// vectors via simple_sum, each carrying the parity encoding.
func xorBits(a, b []tfhe.Ciphertext, eng *tfhe.Engine, sk *tfhe.ServerKey) ([]tfhe.Ciphertext, error) {
	out := make([]tfhe.Ciphertext, len(a))
	for i := range a {
		c, err := eng.SimpleSum([]tfhe.Ciphertext{a[i], b[i]}, sk)
		if err != nil {
			return nil, fmt.Errorf("demo: simon xor bit %d: %w", i, err)
		}
		out[i] = c
	}
	return out, nil
}

// andBits computes the bitwise AND of two equal-length ciphertext
// vectors via the single AND gadget, one bootstrap per bit.
func andBits(g *tfhe.Gadget, a, b []tfhe.Ciphertext, eng *tfhe.Engine, sk *tfhe.ServerKey) ([]tfhe.Ciphertext, error) {
	out := make([]tfhe.Ciphertext, len(a))
	for i := range a {
		cast, err := eng.CastBeforeGadgetFrom1(g, []tfhe.Ciphertext{a[i], b[i]}, sk)
		if err != nil {
			return nil, fmt.Errorf("demo: simon and bit %d: %w", i, err)
		}
		res, err := eng.Exec(g, cast, sk)
		if err != nil {
			return nil, fmt.Errorf("demo: simon and bit %d: %w", i, err)
		}
		out[i] = res
	}
	return out, nil
}

// SimonRound runs one Feistel round of the Simon block cipher:
// left' = right XOR (rotl(left,1) AND rotl(left,8)) XOR rotl(left,2) XOR roundKey
// right' = left
func SimonRound(left, right, roundKey []tfhe.Ciphertext, and *tfhe.Gadget, eng *tfhe.Engine, sk *tfhe.ServerKey) (newLeft, newRight []tfhe.Ciphertext, err error) {
	r1 := rotateLeft(left, 1)
	r8 := rotateLeft(left, 8)
	r2 := rotateLeft(left, 2)

	f1, err := andBits(and, r1, r8, eng, sk)
	if err != nil {
		return nil, nil, err
	}
	f2, err := xorBits(f1, r2, eng, sk)
	if err != nil {
		return nil, nil, err
	}
	f3, err := xorBits(f2, right, eng, sk)
	if err != nil {
		return nil, nil, err
	}
	f4, err := xorBits(f3, roundKey, eng, sk)
	if err != nil {
		return nil, nil, err
	}
	return f4, left, nil
}

// SimonEncrypt runs a reduced-round Simon Feistel network over the
// given round keys, returning the final (left, right) halves.
func SimonEncrypt(left, right []tfhe.Ciphertext, roundKeys [][]tfhe.Ciphertext, eng *tfhe.Engine, sk *tfhe.ServerKey) (newLeft, newRight []tfhe.Ciphertext, err error) {
	and, err := andGadget()
	if err != nil {
		return nil, nil, fmt.Errorf("demo: simon: %w", err)
	}
	for i, rk := range roundKeys {
		left, right, err = SimonRound(left, right, rk, and, eng, sk)
		if err != nil {
			return nil, nil, fmt.Errorf("demo: simon round %d: %w", i, err)
		}
	}
	return left, right, nil
}
