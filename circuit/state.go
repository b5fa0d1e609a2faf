// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package circuit

import (
	"fmt"

	"github.com/fhecore/tfhe"
)

// State is a fixed-size vector of ciphertexts representing the bits of
// a symmetric-cipher state word (an Ascon/AES/Simon register), with
// helpers to move between byte-string and bit-ciphertext
// representations.
type State struct {
	Bits      []tfhe.Ciphertext
	SizeState int
}

// Get returns bit i of the state.
func (s *State) Get(i int) tfhe.Ciphertext { return s.Bits[i] }

// Set replaces bit i of the state.
func (s *State) Set(i int, bit tfhe.Ciphertext) { s.Bits[i] = bit }

// SplitHalf divides the state's bits into two equal halves.
func (s *State) SplitHalf() ([]tfhe.Ciphertext, []tfhe.Ciphertext, error) {
	if s.SizeState%2 != 0 {
		return nil, nil, fmt.Errorf("circuit: state size %d is not even", s.SizeState)
	}
	half := s.SizeState / 2
	first := make([]tfhe.Ciphertext, half)
	second := make([]tfhe.Ciphertext, half)
	copy(first, s.Bits[:half])
	copy(second, s.Bits[half:])
	return first, second, nil
}

// EncryptBits encrypts each bit of m under encodingIn, producing a
// State of the given size.
func EncryptBits(m []bool, cks *tfhe.ClientKey, encodingIn *tfhe.BooleanEncoding, eng *tfhe.Engine) (*State, error) {
	bits := make([]tfhe.Ciphertext, len(m))
	for i, b := range m {
		c, err := eng.EncryptBoolean(b, encodingIn, cks)
		if err != nil {
			return nil, fmt.Errorf("circuit: encrypt state bit %d: %w", i, err)
		}
		bits[i] = c
	}
	return &State{Bits: bits, SizeState: len(m)}, nil
}

// DecryptBits decrypts every bit of s.
func (s *State) DecryptBits(cks *tfhe.ClientKey, eng *tfhe.Engine) ([]bool, error) {
	out := make([]bool, len(s.Bits))
	for i, c := range s.Bits {
		v, err := eng.Decrypt(c, cks)
		if err != nil {
			return nil, fmt.Errorf("circuit: decrypt state bit %d: %w", i, err)
		}
		out[i] = v == 1
	}
	return out, nil
}

// EncryptFromString encrypts the big-endian bits of str's bytes.
func EncryptFromString(str string, cks *tfhe.ClientKey, encodingIn *tfhe.BooleanEncoding, eng *tfhe.Engine) (*State, error) {
	bits := make([]bool, 0, 8*len(str))
	for _, b := range []byte(str) {
		for k := 7; k >= 0; k-- {
			bits = append(bits, (b>>uint(k))&1 == 1)
		}
	}
	return EncryptBits(bits, cks, encodingIn, eng)
}

// DecryptToString decrypts s and reassembles the bits into a string,
// 8 bits per byte, big-endian.
func (s *State) DecryptToString(cks *tfhe.ClientKey, eng *tfhe.Engine) (string, error) {
	if s.SizeState%8 != 0 {
		return "", fmt.Errorf("circuit: state size %d is not a multiple of 8", s.SizeState)
	}
	out := make([]byte, s.SizeState/8)
	for idx := range out {
		var v byte
		for k := 0; k < 8; k++ {
			bit, err := eng.Decrypt(s.Bits[idx*8+k], cks)
			if err != nil {
				return "", fmt.Errorf("circuit: decrypt byte %d bit %d: %w", idx, k, err)
			}
			if bit == 1 {
				v |= 1 << uint(7-k)
			}
		}
		out[idx] = v
	}
	return string(out), nil
}
