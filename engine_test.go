// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package tfhe

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fhecore/tfhe/backend"
)

// testParams is DefaultParameters with both standard deviations
// pinned to zero, so that the engine's plaintext arithmetic (torus
// encode/decode, LWE linear combinations) can be asserted exactly
// instead of merely "within noise tolerance". The dimensions
// themselves are left at their real, already-exercised values so
// constructing the backend evaluator goes through the same ring
// parameters the demo packages and cmd/gadgetctl use.
var testParams = func() ParametersLiteral {
	p := DefaultParameters
	p.LWEStdDev = 0
	p.GLWEStdDev = 0
	return p
}()

func newTestClientKey(t *testing.T) *ClientKey {
	t.Helper()
	params, err := testParams.Compile()
	require.NoError(t, err)
	cks, err := CreateClientKey(params, newSeededReader([32]byte{1}))
	require.NoError(t, err)
	return cks
}

func newTestEngine() *Engine {
	return &Engine{
		secretRNG:     newSeededReader([32]byte{2}),
		encryptionRNG: newSeededReader([32]byte{3}),
	}
}

// I3: encrypt_boolean then decrypt recovers the original bit, for
// every valid canonical encoding.
func TestEncryptBooleanRoundTrip(t *testing.T) {
	cks := newTestClientKey(t)
	eng := newTestEngine()

	for _, enc := range []struct {
		name    string
		qTrue   ZpElem
		modulus ZpElem
	}{
		{"parity", 1, 2},
		{"p7-q3", 3, 7},
		{"p9-q5", 5, 9},
	} {
		t.Run(enc.name, func(t *testing.T) {
			e, err := NewCanonicalBoolean(enc.qTrue, enc.modulus)
			require.NoError(t, err)

			for _, bit := range []bool{false, true} {
				c, err := eng.EncryptBoolean(bit, e, cks)
				require.NoError(t, err)
				got, err := eng.Decrypt(c, cks)
				require.NoError(t, err)
				want := ZpElem(0)
				if bit {
					want = 1
				}
				require.Equal(t, want, got)
			}
		})
	}
}

// I4: trivial_encrypt then decrypt recovers the bit with no lookup at
// all.
func TestTrivialEncryptRoundTrip(t *testing.T) {
	cks := newTestClientKey(t)
	eng := newTestEngine()

	for _, bit := range []bool{false, true} {
		c := eng.TrivialEncrypt(bit)
		require.True(t, c.IsTrivial())
		got, err := eng.Decrypt(c, cks)
		require.NoError(t, err)
		want := ZpElem(0)
		if bit {
			want = 1
		}
		require.Equal(t, want, got)
	}
}

// I7 / scenario 4 of §8: simple_sum of ciphertexts carrying the parity
// encoding decrypts to the XOR of the plaintexts, for every assignment
// of 5 bits. With zero noise every parity-encoded plaintext is exactly
// 0 or 2^31 on the torus, so the sum mod 2^32 lands exactly on 0 or
// 2^31 according to the parity of the number of true inputs — no
// rounding is involved.
func TestSimpleSumIsXORChain(t *testing.T) {
	cks := newTestClientKey(t)
	eng := newTestEngine()
	sk := &ServerKey{Params: cks.Params, Eval: mustEvaluator(t, cks.Params)}

	parity := ParityEncoding()
	for x := 0; x < 32; x++ {
		bits := bitsOf(x, 5)
		inputs := make([]Ciphertext, 5)
		want := false
		for i, b := range bits {
			c, err := eng.EncryptBoolean(b, parity, cks)
			require.NoError(t, err)
			inputs[i] = c
			want = want != b
		}
		summed, err := eng.SimpleSum(inputs, sk)
		require.NoError(t, err)
		got, err := eng.Decrypt(summed, cks)
		require.NoError(t, err)
		wantVal := ZpElem(0)
		if want {
			wantVal = 1
		}
		require.Equal(t, wantVal, got, "mismatch at x=%d", x)
	}
}

// simple_sum must reject any Trivial input.
func TestSimpleSumRejectsTrivial(t *testing.T) {
	cks := newTestClientKey(t)
	eng := newTestEngine()
	sk := &ServerKey{Params: cks.Params, Eval: mustEvaluator(t, cks.Params)}

	c, err := eng.EncryptBoolean(true, ParityEncoding(), cks)
	require.NoError(t, err)
	_, err = eng.SimpleSum([]Ciphertext{c, eng.TrivialEncrypt(false)}, sk)
	require.ErrorIs(t, err, ErrTrivialCastForbidden)
}

// cast_encoding must reject a Trivial ciphertext.
func TestCastEncodingRejectsTrivial(t *testing.T) {
	eng := newTestEngine()
	sk := &ServerKey{}
	_, err := eng.CastEncoding(eng.TrivialEncrypt(true), 3, sk)
	require.ErrorIs(t, err, ErrTrivialCastForbidden)
}

// I6: cast_encoding by a small constant preserves decryption, provided
// the scaled encoding remains valid.
func TestCastEncodingRoundTrip(t *testing.T) {
	cks := newTestClientKey(t)
	eng := newTestEngine()
	sk := &ServerKey{Params: cks.Params, Eval: mustEvaluator(t, cks.Params)}

	enc, err := NewCanonicalBoolean(1, 7)
	require.NoError(t, err)

	for _, bit := range []bool{false, true} {
		c, err := eng.EncryptBoolean(bit, enc, cks)
		require.NoError(t, err)
		scaled, err := eng.CastEncoding(c, 3, sk)
		require.NoError(t, err)
		got, err := eng.Decrypt(scaled, cks)
		require.NoError(t, err)
		want := ZpElem(0)
		if bit {
			want = 1
		}
		require.Equal(t, want, got)
	}
}

// simple_plaintext_sum_encoding must reject a mixed-domain
// (Arithmetic) ciphertext, matching EncodingDomainMismatch.
func TestSimplePlaintextSumEncodingRejectsArithmetic(t *testing.T) {
	cks := newTestClientKey(t)
	eng := newTestEngine()
	sk := &ServerKey{Params: cks.Params, Eval: mustEvaluator(t, cks.Params)}

	arithEnc, err := NewCanonicalArithmetic([]ZpElem{0, 1, 2}, 9)
	require.NoError(t, err)
	c, err := eng.EncryptArithmetic(1, arithEnc, cks)
	require.NoError(t, err)

	_, err = eng.SimplePlaintextSumEncoding(c, 1, 9, sk)
	require.ErrorIs(t, err, ErrEncodingDomainMismatch)
}

// EncryptArithmetic must reject an origin value outside [0, o).
func TestEncryptArithmeticRejectsOutOfRange(t *testing.T) {
	cks := newTestClientKey(t)
	eng := newTestEngine()

	arithEnc, err := NewCanonicalArithmetic([]ZpElem{0, 1, 2}, 9)
	require.NoError(t, err)
	_, err = eng.EncryptArithmetic(3, arithEnc, cks)
	require.ErrorIs(t, err, ErrEncodingDomainMismatch)
}

func mustEvaluator(t *testing.T, params Parameters) *backend.Evaluator {
	t.Helper()
	eval, err := backend.NewEvaluator(params.Backend)
	require.NoError(t, err)
	return eval
}

// Scenario 2 of §8, run for real: CreateClientKey, CreateServerKey, and
// Engine.Exec against an actual programmable bootstrap (blind rotation
// plus key switch), rather than the plaintext-only gadget_test.go
// checks. This is the path that only decrypts correctly if
// CreateServerKey's keyswitch key truly connects the GLWE-extracted big
// key to cks.LWE (see keys.go); against the self-to-self keyswitch key
// this used to generate, every non-trivial result here would decrypt to
// noise instead of the expected bit.
func TestEngineExecRoundTripThroughRealBootstrap(t *testing.T) {
	cks := newTestClientKey(t)
	eng := newTestEngine()

	for _, order := range []PBSOrder{BootstrapThenKeyswitch, KeyswitchThenBootstrap} {
		sk, err := CreateServerKey(cks, order)
		require.NoError(t, err)

		// Identity gadget: q=[1], p_in=p_out=7, f(x)=x.
		identity, err := NewCanonicalGadget([]ZpElem{1}, 1, 7, 7, func(bits []bool) bool { return bits[0] })
		require.NoError(t, err)
		require.NoError(t, TestFull(identity, cks, sk, eng))

		// Ascon S-box row 0, the same gadget gadget_test.go checks in the
		// clear: q=[1,2,3,7,14], p=17.
		tt := []bool{
			false, false, true, true, true, true, false, false,
			true, false, false, true, true, false, false, true,
			true, true, false, false, false, false, true, true,
			true, false, false, true, true, false, false, true,
		}
		f := func(bits []bool) bool {
			x := 0
			for i, b := range bits {
				if b {
					x |= 1 << uint(i)
				}
			}
			return tt[x]
		}
		asconRow0, err := NewCanonicalGadget([]ZpElem{1, 2, 3, 7, 14}, 1, 17, 17, f)
		require.NoError(t, err)
		require.NoError(t, TestFull(asconRow0, cks, sk, eng))
	}
}
