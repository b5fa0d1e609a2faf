// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package tfhe

import (
	"fmt"
	"io"

	"github.com/fhecore/tfhe/backend"
)

// Engine is the per-goroutine evaluator context of spec §4.5: a secret
// PRNG and an independently seeded encryption PRNG, scoped to the
// goroutine that constructed it. It holds no bootstrap scratch buffer;
// each operation works through the backend.Evaluator it is given or
// constructs.
// Go has no native thread-local storage, so where the reference
// implementation lazily materialises one Engine per thread, this
// module constructs one explicitly per goroutine — the same pattern
// math/rand uses for rand.New — seeded from two draws of a shared
// rootSeeder (see keys.go), one per PRNG.
type Engine struct {
	secretRNG     io.Reader
	encryptionRNG io.Reader
}

// NewEngine builds an Engine seeded independently from seeder for its
// secret and encryption PRNGs.
func NewEngine(seeder *rootSeeder) *Engine {
	return &Engine{
		secretRNG:     newSeededReader(seeder.next()),
		encryptionRNG: newSeededReader(seeder.next()),
	}
}

// CreateClientKey samples a fresh secret key pair for params.
func (e *Engine) CreateClientKey(params Parameters) (*ClientKey, error) {
	return CreateClientKey(params, e.secretRNG)
}

// CreateServerKey generates bootstrapping and keyswitch material from
// cks.
func (e *Engine) CreateServerKey(cks *ClientKey, order PBSOrder) (*ServerKey, error) {
	return CreateServerKey(cks, order)
}

// EncryptBoolean encrypts bit under encoding's canonical plaintext
// value: plaintext = floor(2^32 * d_bit / p).
func (e *Engine) EncryptBoolean(bit bool, encoding *BooleanEncoding, cks *ClientKey) (Ciphertext, error) {
	dFalse, dTrue, err := encoding.GetValuesIfCanonical()
	if err != nil {
		return Ciphertext{}, fmt.Errorf("tfhe: encrypt_boolean: %w", err)
	}
	d := dFalse
	if bit {
		d = dTrue
	}
	pt := torusEncode(d, encoding.Modulus())
	lwe, err := cks.encryptFresh(pt, e.encryptionRNG)
	if err != nil {
		return Ciphertext{}, fmt.Errorf("tfhe: encrypt_boolean: %w", err)
	}
	return NewBooleanEncrypted(lwe, encoding), nil
}

// EncryptArithmetic encrypts v (v < o) under encoding's canonical
// plaintext value for origin element v.
func (e *Engine) EncryptArithmetic(v ZpElem, encoding *ArithmeticEncoding, cks *ClientKey) (Ciphertext, error) {
	if v >= encoding.OriginModulus() {
		return Ciphertext{}, fmt.Errorf("%w: origin value %d >= o=%d", ErrEncodingDomainMismatch, v, encoding.OriginModulus())
	}
	values, err := encoding.GetValuesIfCanonical()
	if err != nil {
		return Ciphertext{}, fmt.Errorf("tfhe: encrypt_arithmetic: %w", err)
	}
	pt := torusEncode(values[v], encoding.Modulus())
	lwe, err := cks.encryptFresh(pt, e.encryptionRNG)
	if err != nil {
		return Ciphertext{}, fmt.Errorf("tfhe: encrypt_arithmetic: %w", err)
	}
	return NewArithmeticEncrypted(lwe, encoding), nil
}

// TrivialEncrypt wraps bit as an unencrypted Trivial ciphertext.
func (e *Engine) TrivialEncrypt(bit bool) Ciphertext {
	return NewTrivial(bit)
}

// torusEncode maps a Z/p element v to its torus quantisation
// floor(2^32 * v / p), done in 64-bit precision to avoid overflow.
func torusEncode(v, p ZpElem) uint32 {
	return uint32((uint64(1) << 32) * uint64(v) / uint64(p))
}

// torusDecode rounds a raw torus value back to Z/p:
// round(raw * p / 2^32) mod p.
func torusDecode(raw uint32, p ZpElem) ZpElem {
	return ZpElem((uint64(raw)*uint64(p)+(uint64(1)<<31))>>32) % p
}

// encryptFresh produces a fresh LWE encryption of pt under cks's small
// secret key with the configured standard deviation.
func (cks *ClientKey) encryptFresh(pt uint32, rng io.Reader) (*backend.LWECiphertext, error) {
	eval, err := backend.NewEvaluator(cks.Params.Backend)
	if err != nil {
		return nil, err
	}
	return eval.EncryptLWE(pt, cks.LWE, cks.Params.Backend.LWEStdDev, rng)
}

// Decrypt decrypts c's underlying LWE sample, rounds the raw torus
// value to Z/p, and looks up the origin element whose partition
// contains it. Trivial(b) decrypts to b as a uint32 with no lookup.
func (e *Engine) Decrypt(c Ciphertext, cks *ClientKey) (ZpElem, error) {
	if c.IsTrivial() {
		if c.TrivialBit() {
			return 1, nil
		}
		return 0, nil
	}
	eval, err := backend.NewEvaluator(cks.Params.Backend)
	if err != nil {
		return 0, err
	}
	lwe, err := c.LWE()
	if err != nil {
		return 0, err
	}
	raw := eval.DecryptLWE(lwe, cks.LWE)

	if c.IsBoolean() {
		enc, _ := c.BooleanEncodingOf()
		residue := torusDecode(raw, enc.Modulus())
		switch {
		case enc.IsPartitionContaining(false, residue):
			return 0, nil
		case enc.IsPartitionContaining(true, residue):
			return 1, nil
		default:
			return 0, fmt.Errorf("%w: residue %d under modulus %d", ErrDecryptionMismatch, residue, enc.Modulus())
		}
	}

	enc, _ := c.ArithmeticEncodingOf()
	residue := torusDecode(raw, enc.Modulus())
	for i := ZpElem(0); i < enc.OriginModulus(); i++ {
		if enc.IsPartitionContaining(i, residue) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: residue %d under modulus %d", ErrDecryptionMismatch, residue, enc.Modulus())
}

// DecryptFloatOverTheTorus returns the raw torus value of c's
// underlying LWE sample as a float in [0,1), for diagnostics only.
func (e *Engine) DecryptFloatOverTheTorus(c Ciphertext, cks *ClientKey) (float64, error) {
	lwe, err := c.LWE()
	if err != nil {
		return 0, err
	}
	eval, err := backend.NewEvaluator(cks.Params.Backend)
	if err != nil {
		return 0, err
	}
	raw := eval.DecryptLWE(lwe, cks.LWE)
	return float64(raw) / float64(uint64(1)<<32), nil
}

// Not negates c: LWE negation when encrypted, Boolean inversion when
// Trivial.
func (e *Engine) Not(c Ciphertext, sk *ServerKey) (Ciphertext, error) {
	if c.IsTrivial() {
		return NewTrivial(!c.TrivialBit()), nil
	}
	lwe, err := c.LWE()
	if err != nil {
		return Ciphertext{}, err
	}
	negated := sk.Eval.NegLWE(lwe)
	return c.withLWE(negated), nil
}

// CastEncoding scales c by k: an LWE scalar multiplication, with the
// attached Boolean encoding transformed by multiply_constant(k). Must
// not be applied to a Trivial ciphertext.
func (e *Engine) CastEncoding(c Ciphertext, k ZpElem, sk *ServerKey) (Ciphertext, error) {
	if c.IsTrivial() {
		return Ciphertext{}, fmt.Errorf("tfhe: cast_encoding: %w", ErrTrivialCastForbidden)
	}
	lwe, err := c.LWE()
	if err != nil {
		return Ciphertext{}, err
	}
	scaled := sk.Eval.ScalarMulLWE(lwe, k)
	if c.IsBoolean() {
		enc, _ := c.BooleanEncodingOf()
		newEnc, err := enc.MultiplyConstant(k)
		if err != nil {
			return Ciphertext{}, fmt.Errorf("tfhe: cast_encoding: %w", err)
		}
		return NewBooleanEncrypted(scaled, newEnc), nil
	}
	return Ciphertext{}, fmt.Errorf("%w: cast_encoding defined only for Boolean ciphertexts", ErrEncodingDomainMismatch)
}

// SimpleSum adds every input as LWE ciphertexts, yielding a result
// tagged with the parity encoding by convention. Must not receive a
// Trivial input.
func (e *Engine) SimpleSum(cs []Ciphertext, sk *ServerKey) (Ciphertext, error) {
	if len(cs) == 0 {
		return Ciphertext{}, fmt.Errorf("tfhe: simple_sum: no inputs")
	}
	var acc *backend.LWECiphertext
	for i, c := range cs {
		if c.IsTrivial() {
			return Ciphertext{}, fmt.Errorf("tfhe: simple_sum: %w", ErrTrivialCastForbidden)
		}
		lwe, err := c.LWE()
		if err != nil {
			return Ciphertext{}, err
		}
		if i == 0 {
			acc = lwe
			continue
		}
		acc = sk.Eval.AddLWE(acc, lwe)
	}
	return NewBooleanEncrypted(acc, ParityEncoding()), nil
}

// SimplePlaintextSum adds the plaintext encoding of k/p to c's body,
// preserving c's attached encoding metadata unchanged.
func (e *Engine) SimplePlaintextSum(c Ciphertext, k, p ZpElem, sk *ServerKey) (Ciphertext, error) {
	lwe, err := c.LWE()
	if err != nil {
		return Ciphertext{}, err
	}
	added := sk.Eval.AddPlaintextLWE(lwe, torusEncode(k, p))
	return c.withLWE(added), nil
}

// SimplePlaintextSumEncoding behaves like SimplePlaintextSum but also
// transforms the attached Boolean encoding by add_constant(k).
func (e *Engine) SimplePlaintextSumEncoding(c Ciphertext, k, p ZpElem, sk *ServerKey) (Ciphertext, error) {
	shifted, err := e.SimplePlaintextSum(c, k, p, sk)
	if err != nil {
		return Ciphertext{}, err
	}
	if !c.IsBoolean() {
		return Ciphertext{}, fmt.Errorf("%w: simple_plaintext_sum_encoding defined only for Boolean ciphertexts", ErrEncodingDomainMismatch)
	}
	enc, _ := c.BooleanEncodingOf()
	return NewBooleanEncrypted(shifted.lwe, enc.AddConstant(k)), nil
}

// combineInputs computes the LWE linear combination Sum_i inputs[i],
// translating any Trivial input by the canonical plaintext encoding of
// its bit under refEncoding.
func combineInputs(inputs []Ciphertext, refEncoding *BooleanEncoding, sk *ServerKey) (*backend.LWECiphertext, error) {
	var acc *backend.LWECiphertext
	for _, in := range inputs {
		var lwe *backend.LWECiphertext
		if in.IsTrivial() {
			dFalse, dTrue, err := refEncoding.GetValuesIfCanonical()
			if err != nil {
				return nil, fmt.Errorf("tfhe: combine trivial input: %w", err)
			}
			d := dFalse
			if in.TrivialBit() {
				d = dTrue
			}
			lwe = &backend.LWECiphertext{
				Mask: make([]uint32, sk.Params.Backend.LWEDimension),
				Body: torusEncode(d, refEncoding.Modulus()),
			}
		} else {
			l, err := in.LWE()
			if err != nil {
				return nil, err
			}
			lwe = l
		}
		if acc == nil {
			acc = lwe
			continue
		}
		acc = sk.Eval.AddLWE(acc, lwe)
	}
	return acc, nil
}

// combineHeterogeneousInputs computes the LWE linear combination
// Sum_i inputs[i], where each input carries its own reference encoding
// (used only to translate a Trivial input's bit into the matching
// plaintext value).
func combineHeterogeneousInputs(inputs []Ciphertext, refEncodings []*BooleanEncoding, sk *ServerKey) (*backend.LWECiphertext, error) {
	var acc *backend.LWECiphertext
	for i, in := range inputs {
		var lwe *backend.LWECiphertext
		if in.IsTrivial() {
			dFalse, dTrue, err := refEncodings[i].GetValuesIfCanonical()
			if err != nil {
				return nil, err
			}
			d := dFalse
			if in.TrivialBit() {
				d = dTrue
			}
			lwe = &backend.LWECiphertext{
				Mask: make([]uint32, sk.Params.Backend.LWEDimension),
				Body: torusEncode(d, refEncodings[i].Modulus()),
			}
		} else {
			l, err := in.LWE()
			if err != nil {
				return nil, err
			}
			lwe = l
		}
		if acc == nil {
			acc = lwe
			continue
		}
		acc = sk.Eval.AddLWE(acc, lwe)
	}
	return acc, nil
}

// Exec evaluates g on inputs, which must each be encrypted (or
// trivial) under g.EncodingsIn[i]. It computes the LWE linear
// combination of the inputs and invokes the bootstrap driver with
// (c, g.EncodingIntermediate, g.EncodingOut).
func (e *Engine) Exec(g *Gadget, inputs []Ciphertext, sk *ServerKey) (Ciphertext, error) {
	if len(inputs) != len(g.EncodingsIn) {
		return Ciphertext{}, fmt.Errorf("%w: gadget expects %d inputs, got %d", ErrEncodingDomainMismatch, len(g.EncodingsIn), len(inputs))
	}
	acc, err := combineHeterogeneousInputs(inputs, g.EncodingsIn, sk)
	if err != nil {
		return Ciphertext{}, fmt.Errorf("tfhe: gadget exec: %w", err)
	}

	accumulator, err := g.Accumulator(sk.Params.Backend.PolyDegree)
	if err != nil {
		return Ciphertext{}, fmt.Errorf("tfhe: gadget exec: %w", err)
	}
	out, err := sk.Boot.Apply(acc, accumulator, sk.PBSOrder)
	if err != nil {
		return Ciphertext{}, fmt.Errorf("tfhe: gadget exec: %w", err)
	}
	return NewBooleanEncrypted(out, g.EncodingOut), nil
}

// CastBeforeGadget produces inputs[i]*coeffs[i] as LWE scalar
// multiplications, dropping any input whose coefficient is 0. Used to
// lift parity-encoded ciphertexts into a gadget's input encodings.
func (e *Engine) CastBeforeGadget(coeffs []ZpElem, inputs []Ciphertext, sk *ServerKey) ([]Ciphertext, error) {
	if len(coeffs) != len(inputs) {
		return nil, fmt.Errorf("%w: coeffs/inputs length mismatch", ErrEncodingDomainMismatch)
	}
	out := make([]Ciphertext, 0, len(inputs))
	for i, c := range inputs {
		if coeffs[i] == 0 {
			continue
		}
		scaled, err := e.CastEncoding(c, coeffs[i], sk)
		if err != nil {
			return nil, err
		}
		out = append(out, scaled)
	}
	return out, nil
}

// CastBeforeGadgetFrom1 is a shortcut for CastBeforeGadget with
// coeffs[i] = g.EncodingsIn[i]'s true value.
func (e *Engine) CastBeforeGadgetFrom1(g *Gadget, inputs []Ciphertext, sk *ServerKey) ([]Ciphertext, error) {
	coeffs := make([]ZpElem, len(g.EncodingsIn))
	for i, enc := range g.EncodingsIn {
		_, dTrue, err := enc.GetValuesIfCanonical()
		if err != nil {
			return nil, fmt.Errorf("tfhe: cast_before_gadget_from_1: %w", err)
		}
		coeffs[i] = dTrue
	}
	return e.CastBeforeGadget(coeffs, inputs, sk)
}

// ModulusSwitching re-encodes each input whose current modulus differs
// from pOut onto a fresh canonical Boolean encoding of modulus pOut, by
// synthesising and evaluating an identity gadget (q=[1], q_out=1,
// f(x)=x) of the appropriate moduli.
func (e *Engine) ModulusSwitching(inputs []Ciphertext, pInVec []ZpElem, pOut ZpElem, sk *ServerKey) ([]Ciphertext, error) {
	out := make([]Ciphertext, len(inputs))
	for i, c := range inputs {
		if pInVec[i] == pOut {
			out[i] = c
			continue
		}
		identity, err := NewCanonicalGadget([]ZpElem{1}, 1, pInVec[i], pOut, func(bits []bool) bool { return bits[0] })
		if err != nil {
			return nil, fmt.Errorf("tfhe: modulus_switching: %w", err)
		}
		res, err := e.Exec(identity, []Ciphertext{c}, sk)
		if err != nil {
			return nil, fmt.Errorf("tfhe: modulus_switching: %w", err)
		}
		out[i] = res
	}
	return out, nil
}

// ExecGadgetWithExtraction builds c = Sum_i inputs[i] (Trivial inputs
// contributing a plaintext translation of encIn's canonical encoding
// of their bit) and invokes the bootstrap driver with
// (c, encInter, encOut) directly, bypassing a pre-built Gadget record.
func (e *Engine) ExecGadgetWithExtraction(encIn, encInter, encOut *BooleanEncoding, inputs []Ciphertext, sk *ServerKey) (Ciphertext, error) {
	acc, err := combineInputs(inputs, encIn, sk)
	if err != nil {
		return Ciphertext{}, fmt.Errorf("tfhe: exec_gadget_with_extraction: %w", err)
	}
	accumulator, err := BuildAccumulatorBody(encInter, encOut, sk.Params.Backend.PolyDegree)
	if err != nil {
		return Ciphertext{}, fmt.Errorf("tfhe: exec_gadget_with_extraction: %w", err)
	}
	out, err := sk.Boot.Apply(acc, accumulator, sk.PBSOrder)
	if err != nil {
		return Ciphertext{}, fmt.Errorf("tfhe: exec_gadget_with_extraction: %w", err)
	}
	return NewBooleanEncrypted(out, encOut), nil
}

// TestFull exhaustively encrypts every 2^k assignment of g's inputs
// under g.EncodingsIn, evaluates g, decrypts, and asserts the result
// matches ExecClear, returning the first mismatch found (nil if none).
func TestFull(g *Gadget, cks *ClientKey, sk *ServerKey, eng *Engine) error {
	k := len(g.EncodingsIn)
	for x := 0; x < (1 << k); x++ {
		bits := bitsOf(x, k)
		inputs := make([]Ciphertext, k)
		for i, b := range bits {
			c, err := eng.EncryptBoolean(b, g.EncodingsIn[i], cks)
			if err != nil {
				return fmt.Errorf("tfhe: test_full: encrypt input %d: %w", i, err)
			}
			inputs[i] = c
		}
		res, err := eng.Exec(g, inputs, sk)
		if err != nil {
			return fmt.Errorf("tfhe: test_full: exec at x=%d: %w", x, err)
		}
		got, err := eng.Decrypt(res, cks)
		if err != nil {
			return fmt.Errorf("tfhe: test_full: decrypt at x=%d: %w", x, err)
		}
		want := ZpElem(0)
		if g.ExecClear(bits) {
			want = 1
		}
		if got != want {
			return fmt.Errorf("tfhe: test_full: mismatch at x=%d: got %d want %d", x, got, want)
		}
	}
	return nil
}
