// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package demo

import (
	"fmt"
	"io"

	"github.com/fhecore/tfhe"
	"github.com/fhecore/tfhe/circuit"
)

// AESState is a 128-bit AES state encrypted bit-by-bit under the
// parity encoding, matching the reference AESState.
type AESState struct {
	Bits []tfhe.Ciphertext
}

// EncryptAESState encrypts the 128 bits of m under the parity
// encoding.
func EncryptAESState(m []bool, cks *tfhe.ClientKey, eng *tfhe.Engine) (*AESState, error) {
	if len(m) != 128 {
		return nil, fmt.Errorf("demo: aes state must be 128 bits, got %d", len(m))
	}
	bits := make([]tfhe.Ciphertext, 128)
	for i, b := range m {
		c, err := eng.EncryptBoolean(b, tfhe.ParityEncoding(), cks)
		if err != nil {
			return nil, fmt.Errorf("demo: aes encrypt bit %d: %w", i, err)
		}
		bits[i] = c
	}
	return &AESState{Bits: bits}, nil
}

// DecryptAESState decrypts every bit of s.
func (s *AESState) DecryptAESState(cks *tfhe.ClientKey, eng *tfhe.Engine) ([]bool, error) {
	out := make([]bool, len(s.Bits))
	for i, c := range s.Bits {
		v, err := eng.Decrypt(c, cks)
		if err != nil {
			return nil, fmt.Errorf("demo: aes decrypt bit %d: %w", i, err)
		}
		out[i] = v == 1
	}
	return out, nil
}

// AddRoundKey XORs a clear 128-bit round key into s via
// simple_plaintext_sum, exactly as the reference's add_round_key does
// (a clear key bit translates a ciphertext by 1/2 rather than
// requiring a second encrypted operand).
func AddRoundKey(s *AESState, roundKey []bool, eng *tfhe.Engine, sk *tfhe.ServerKey) (*AESState, error) {
	if len(roundKey) != len(s.Bits) {
		return nil, fmt.Errorf("demo: aes round key length %d != state length %d", len(roundKey), len(s.Bits))
	}
	out := make([]tfhe.Ciphertext, len(s.Bits))
	for i, c := range s.Bits {
		if !roundKey[i] {
			out[i] = c
			continue
		}
		shifted, err := eng.SimplePlaintextSum(c, 1, 2, sk)
		if err != nil {
			return nil, fmt.Errorf("demo: aes add_round_key bit %d: %w", i, err)
		}
		out[i] = shifted
	}
	return &AESState{Bits: out}, nil
}

// ShiftRows permutes the 16 state bytes per the standard AES row
// shift; it touches no ciphertext operation, only their positions.
func ShiftRows(s *AESState) *AESState {
	out := make([]tfhe.Ciphertext, 128)
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			srcCol := (col + row) % 4
			for bit := 0; bit < 8; bit++ {
				out[col*32+row*8+bit] = s.Bits[srcCol*32+row*8+bit]
			}
		}
	}
	return &AESState{Bits: out}
}

// SubBytes applies the Boyar-style non-linear S-box gadget table to
// each of the 16 bytes of s, the way sub_bytes runs a pre-circuit,
// then the non-linear gadget table, then a post-circuit per byte.
func SubBytes(s *AESState, pre, post io.Reader, sboxTable *circuit.GadgetTable, eng *tfhe.Engine, sk *tfhe.ServerKey) (*AESState, error) {
	out := make([]tfhe.Ciphertext, 128)
	for i := 0; i < 16; i++ {
		slice := s.Bits[i*8 : (i+1)*8]

		preCircuit := circuit.NewLinearCircuit(slice)
		if err := preCircuit.Execute(pre, eng, sk); err != nil {
			return nil, fmt.Errorf("demo: aes subbytes byte %d pre-circuit: %w", i, err)
		}

		env := map[string]tfhe.Ciphertext{}
		for j, b := range slice {
			env[fmt.Sprintf("x%d", j)] = b
		}
		for j, t := range preCircuit.T {
			env[fmt.Sprintf("t%d", j)] = t
		}
		for j, y := range preCircuit.Y {
			env[fmt.Sprintf("y%d", j)] = y
		}
		if err := sboxTable.Eval(env, eng, sk); err != nil {
			return nil, fmt.Errorf("demo: aes subbytes byte %d sbox: %w", i, err)
		}

		postCircuit := circuit.NewLinearCircuit(slice)
		if err := postCircuit.Execute(post, eng, sk); err != nil {
			return nil, fmt.Errorf("demo: aes subbytes byte %d post-circuit: %w", i, err)
		}
		copy(out[i*8:(i+1)*8], postCircuit.Y)
	}
	return &AESState{Bits: out}, nil
}

// MixColumns runs the MixColumns linear transform via a LinearCircuit
// file in the §6 grammar, one invocation per 32-bit column. Per Open
// Question (a), only the documented `dst OP src1 GATE src2` grammar is
// accepted; no wider circuit grammar is parsed.
func MixColumns(s *AESState, circuitFile func() (io.Reader, error), eng *tfhe.Engine, sk *tfhe.ServerKey) (*AESState, error) {
	out := make([]tfhe.Ciphertext, 128)
	for col := 0; col < 4; col++ {
		slice := s.Bits[col*32 : (col+1)*32]
		r, err := circuitFile()
		if err != nil {
			return nil, fmt.Errorf("demo: aes mixcolumns column %d: %w", col, err)
		}
		lc := circuit.NewLinearCircuit(slice)
		if err := lc.Execute(r, eng, sk); err != nil {
			return nil, fmt.Errorf("demo: aes mixcolumns column %d: %w", col, err)
		}
		copy(out[col*32:(col+1)*32], lc.Y)
	}
	return &AESState{Bits: out}, nil
}
