// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package tfhe

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBooleanEncodingOddModulus(t *testing.T) {
	enc, err := NewBooleanEncoding([]ZpElem{0, 2}, []ZpElem{1}, 5)
	require.NoError(t, err)
	require.True(t, enc.IsPartitionContaining(false, 0))
	require.True(t, enc.IsPartitionContaining(false, 2))
	require.True(t, enc.IsPartitionContaining(true, 1))
	require.False(t, enc.IsPartitionContaining(true, 0))
}

func TestBooleanEncodingEvenModulusRejected(t *testing.T) {
	_, err := NewBooleanEncoding([]ZpElem{0, 2}, []ZpElem{1}, 4)
	require.Error(t, err)
}

func TestBooleanEncodingSamePartsOddModulusAccepted(t *testing.T) {
	enc, err := NewBooleanEncoding([]ZpElem{0, 2}, []ZpElem{1}, 5)
	require.NoError(t, err)
	require.NotNil(t, enc)
}

func TestBooleanEncodingDuplicateElementRejected(t *testing.T) {
	_, err := NewBooleanEncoding([]ZpElem{0, 1}, []ZpElem{1}, 5)
	require.Error(t, err)
}

func TestArithmeticEncodingDuplicateElementRejected(t *testing.T) {
	_, err := NewArithmeticEncoding([][]ZpElem{{0, 1}, {1}, {2}}, 5)
	require.Error(t, err)
}

func TestArithmeticEncodingNegacyclicityRejected(t *testing.T) {
	// modulus 8, origin o=4: part(0)={0}, part(1)={1}, part(2)={2},
	// part(3)={3}. Opposite of 0 is 4, which must avoid every
	// partition except part(negate(0) mod 4) = part(0). Landing 4 in
	// part(1) (whose negated origin index is 3, not 0) must fail.
	_, err := NewArithmeticEncoding([][]ZpElem{{0}, {1, 4}, {2}, {3}}, 8)
	require.Error(t, err)
}

func TestArithmeticEncodingNegacyclicityAccepted(t *testing.T) {
	// Opposite of 0 (origin index 0, self-negating since o=4 means
	// negate(0)=0) landing in part(0) itself is fine.
	enc, err := NewArithmeticEncoding([][]ZpElem{{0, 4}, {1}, {2}, {3}}, 8)
	require.NoError(t, err)
	require.NotNil(t, enc)
}

func TestCanonicalEncodingSingleton(t *testing.T) {
	enc, err := NewCanonicalBoolean(1, 2)
	require.NoError(t, err)
	require.True(t, enc.IsCanonical())
	dFalse, dTrue, err := enc.GetValuesIfCanonical()
	require.NoError(t, err)
	require.Equal(t, ZpElem(0), dFalse)
	require.Equal(t, ZpElem(1), dTrue)
}

func TestNonCanonicalEncodingRejectsValueLookup(t *testing.T) {
	enc, err := NewBooleanEncoding([]ZpElem{0, 2}, []ZpElem{1}, 5)
	require.NoError(t, err)
	require.False(t, enc.IsCanonical())
	_, _, err = enc.GetValuesIfCanonical()
	require.ErrorIs(t, err, ErrEncodingNotCanonical)
}

func TestParityEncoding(t *testing.T) {
	enc := ParityEncoding()
	require.True(t, enc.IsPartitionContaining(false, 0))
	require.True(t, enc.IsPartitionContaining(true, 1))
}

func TestAddConstantPreservesValidity(t *testing.T) {
	enc, err := NewCanonicalBoolean(1, 5)
	require.NoError(t, err)
	shifted := enc.AddConstant(2)
	require.True(t, shifted.IsPartitionContaining(false, 2))
	require.True(t, shifted.IsPartitionContaining(true, 3))
}
