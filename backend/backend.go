// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

// Package backend adapts the gadget evaluator's opaque LWE/GLWE
// primitive contract (spec §1, §4.3, §6) onto a real lattice-crypto
// stack: RLWE ciphertexts and rings for the GLWE accumulator, an
// RGSW-based blind-rotation evaluator for the programmable bootstrap,
// and an RLWE key-switch evaluator. The rest of this module never
// touches ring/NTT arithmetic directly — it only ever produces a
// torus-encoded accumulator ([]uint32 of length N, per §4.2) and hands
// it to Evaluator.Bootstrap.
package backend

import (
	"crypto/rand"
	"fmt"
	"io"
	"math"

	"github.com/luxfi/lattice/v6/core/rgsw"
	"github.com/luxfi/lattice/v6/core/rgsw/blindrot"
	"github.com/luxfi/lattice/v6/core/rlwe"
	"github.com/luxfi/lattice/v6/ring"
)

// LWECiphertext is an LWE sample (mask, body) over the torus Z/2^32,
// the ciphertext type every gadget operation ultimately manipulates.
type LWECiphertext struct {
	Mask []uint32
	Body uint32
}

// Clone returns a deep copy.
func (c *LWECiphertext) Clone() *LWECiphertext {
	mask := make([]uint32, len(c.Mask))
	copy(mask, c.Mask)
	return &LWECiphertext{Mask: mask, Body: c.Body}
}

// LWESecretKey is a binary LWE secret key: n coefficients in {0,1}.
type LWESecretKey struct {
	Coeffs []uint32
}

// Dimension returns n.
func (sk *LWESecretKey) Dimension() int { return len(sk.Coeffs) }

// Params bundles the dimensions and standard deviations the opaque
// primitive layer needs; it is the Go encoding of spec §6's
// "parameter record" for the subset this backend consumes directly.
type Params struct {
	LWEDimension  int
	PolyDegree    int // N, the GLWE/RLWE ring dimension
	GLWERank      int // k
	LWEStdDev     float64
	GLWEStdDev    float64
	PBSBaseLog    int
	PBSLevel      int
	KSBaseLog     int
	KSLevel       int
}

// Evaluator owns the RLWE parameter sets and the blind-rotation /
// key-switch evaluators that realise the bootstrap driver's opaque
// operations (spec §4.3).
type Evaluator struct {
	params Params

	rlweParams rlwe.Parameters
	lweParams  rlwe.Parameters

	brEval *blindrot.Evaluator
	ksEval *rlwe.Evaluator

	ringQ    *ring.Ring // ring over rlweParams, used for the GLWE/accumulator domain
	ringQLWE *ring.Ring // ring over lweParams, used for bare LWE-sample arithmetic
}

// BootstrappingKey is the Fourier/NTT-domain encryption of the LWE
// secret key bits under the GLWE key, consumed by blind rotation. It
// corresponds to the "bootstrapping key in Fourier domain" of the
// ServerKey record in spec §3.
type BootstrappingKey struct {
	brk blindrot.BlindRotationEvaluationKeySet
}

// KeySwitchKey maps ciphertexts from one LWE key to another; the
// ServerKey builds it from the big (GLWE-derived) LWE key to the small
// LWE key for either PBSOrder.
type KeySwitchKey struct {
	evk *rlwe.EvaluationKey
}

// NewEvaluator constructs an Evaluator for the given parameters. The
// heavy lifting (ring construction, NTT tables, Galois-element
// bookkeeping) is entirely delegated to the imported lattice-crypto
// packages, matching how the reference blind-rotation evaluator
// (core/rgsw/blindrot) is wired up by its own callers.
func NewEvaluator(p Params) (*Evaluator, error) {
	rlweParams, err := rlwe.NewParametersFromLiteral(rlwe.ParametersLiteral{
		LogN:     log2(p.PolyDegree),
		Q:        []uint64{1 << 32},
		NTTFlag:  true,
		Xe:       rlwe.DiscreteGaussian{Sigma: p.GLWEStdDev, Bound: 6 * p.GLWEStdDev},
	})
	if err != nil {
		return nil, fmt.Errorf("backend: compile RLWE parameters: %w", err)
	}

	lweParams, err := rlwe.NewParametersFromLiteral(rlwe.ParametersLiteral{
		LogN:    log2(p.LWEDimension),
		Q:       []uint64{1 << 32},
		NTTFlag: false,
		Xe:      rlwe.DiscreteGaussian{Sigma: p.LWEStdDev, Bound: 6 * p.LWEStdDev},
	})
	if err != nil {
		return nil, fmt.Errorf("backend: compile LWE parameters: %w", err)
	}

	return &Evaluator{
		params:     p,
		rlweParams: rlweParams,
		lweParams:  lweParams,
		brEval:     blindrot.NewEvaluator(&rlweParams, &lweParams),
		ksEval:     rlwe.NewEvaluator(&rlweParams, nil),
		ringQ:      rlweParams.RingQ(),
		ringQLWE:   lweParams.RingQ(),
	}, nil
}

// ShallowCopy returns an Evaluator sharing e's compiled ring and
// parameter tables but with an independent blind-rotation and
// key-switch evaluator, safe to hand to a separate goroutine — the same
// convention core/rlwe's own Evaluator.ShallowCopy documents for
// concurrent per-worker use (spec §5's one-evaluator-per-worker model).
func (e *Evaluator) ShallowCopy() *Evaluator {
	return &Evaluator{
		params:     e.params,
		rlweParams: e.rlweParams,
		lweParams:  e.lweParams,
		brEval:     blindrot.NewEvaluator(&e.rlweParams, &e.lweParams),
		ksEval:     e.ksEval.ShallowCopy(),
		ringQ:      e.ringQ,
		ringQLWE:   e.ringQLWE,
	}
}

func log2(n int) int {
	l := 0
	for (1 << l) < n {
		l++
	}
	return l
}

// GenGLWESecretKey samples a fresh GLWE secret key under the RLWE
// ring parameters, in Fourier/NTT form, ready for bootstrapping-key
// generation.
func (e *Evaluator) GenGLWESecretKey() *rlwe.SecretKey {
	return rlwe.NewKeyGenerator(&e.rlweParams).GenSecretKeyNew()
}

// GenBootstrappingKey encrypts each bit of lweSK under glweSK as an
// RGSW ciphertext (one per LWE dimension), assembling the
// blind-rotation evaluation key set consumed by Bootstrap. This is the
// "conversion of BSK to Fourier form... performed once" step named by
// spec §4.5.
func (e *Evaluator) GenBootstrappingKey(lweSK *LWESecretKey, glweSK *rlwe.SecretKey) (*BootstrappingKey, error) {
	kgen := rlwe.NewKeyGenerator(&e.rlweParams)
	keys := make([]*rgsw.Ciphertext, lweSK.Dimension())
	for i, bit := range lweSK.Coeffs {
		ct, err := kgen.GenRGSWCiphertextNew(int64(bit), &e.rlweParams, e.params.PBSBaseLog, e.params.PBSLevel)
		if err != nil {
			return nil, fmt.Errorf("backend: encrypt bootstrapping key bit %d: %w", i, err)
		}
		keys[i] = ct
	}
	evk, err := kgen.GenEvaluationKeySetNew(glweSK)
	if err != nil {
		return nil, fmt.Errorf("backend: generate blind-rotation evaluation key set: %w", err)
	}
	return &BootstrappingKey{brk: blindrot.NewKeySet(keys, evk)}, nil
}

// ExtractLWESecretKey derives the "big" LWE secret key a GLWE secret
// key implicitly carries: for GLWERank 1 this is exactly the N
// coefficients of the key polynomial in the plain (non-Montgomery,
// non-NTT) domain, the same convention Bootstrap's sample-extraction
// already assumes when it reads a rotated ciphertext's N-coefficient
// mask (Value[1]) as an LWE sample under this key.
func (e *Evaluator) ExtractLWESecretKey(glweSK *rlwe.SecretKey) *LWESecretKey {
	poly := glweSK.Value.Q.CopyNew()
	e.ringQ.InvMForm(poly, poly)
	e.ringQ.INTT(poly, poly)

	coeffs := make([]uint32, e.ringQ.N)
	for i := range coeffs {
		coeffs[i] = uint32(poly.Coeffs[0][i])
	}
	return &LWESecretKey{Coeffs: coeffs}
}

// wrapLWESecretKey lifts a flat LWE secret key into an *rlwe.SecretKey
// over the LWE-dimension ring, so it can be fed to the
// rlwe.KeyGenerator.GenEvaluationKeyNew call that GenLWEKeySwitchKey
// uses to build the LWE key-switching key.
func (e *Evaluator) wrapLWESecretKey(sk *LWESecretKey) *rlwe.SecretKey {
	wrapped := rlwe.NewSecretKey(&e.lweParams)
	for i, c := range sk.Coeffs {
		if i >= len(wrapped.Value.Q.Coeffs[0]) {
			break
		}
		wrapped.Value.Q.Coeffs[0][i] = uint64(c)
	}
	e.ringQLWE.NTT(wrapped.Value.Q, wrapped.Value.Q)
	e.ringQLWE.MForm(wrapped.Value.Q, wrapped.Value.Q)
	return wrapped
}

// GenLWEKeySwitchKey generates a key-switching key between two flat
// LWE secret keys (e.g. a GLWE-extracted big key and the client's
// small key), wrapping each as an *rlwe.SecretKey via wrapLWESecretKey.
func (e *Evaluator) GenLWEKeySwitchKey(srcSK, dstSK *LWESecretKey) (*KeySwitchKey, error) {
	kgen := rlwe.NewKeyGenerator(&e.lweParams)
	evk, err := kgen.GenEvaluationKeyNew(e.wrapLWESecretKey(srcSK), e.wrapLWESecretKey(dstSK), e.params.KSBaseLog, e.params.KSLevel)
	if err != nil {
		return nil, fmt.Errorf("backend: generate LWE key-switch key: %w", err)
	}
	return &KeySwitchKey{evk: evk}, nil
}

// GenLWESecretKey samples a fresh binary LWE secret key of the
// configured dimension.
func (e *Evaluator) GenLWESecretKey(rng io.Reader) (*LWESecretKey, error) {
	if rng == nil {
		rng = rand.Reader
	}
	coeffs := make([]uint32, e.params.LWEDimension)
	buf := make([]byte, len(coeffs))
	if _, err := io.ReadFull(rng, buf); err != nil {
		return nil, fmt.Errorf("backend: sample LWE secret key: %w", err)
	}
	for i, b := range buf {
		coeffs[i] = uint32(b & 1)
	}
	return &LWESecretKey{Coeffs: coeffs}, nil
}

// toRLWE lifts ct into an *rlwe.Ciphertext over the LWE-dimension
// ring, coefficient domain (not NTT), the same layout KeySwitch and
// Bootstrap already build by hand for their own inputs.
func (e *Evaluator) toRLWE(ct *LWECiphertext) *rlwe.Ciphertext {
	out := rlwe.NewCiphertext(&e.lweParams, 1, 0)
	out.IsNTT = false
	n := len(ct.Mask)
	for i := 0; i < n && i < len(out.Value[1].Coeffs[0]); i++ {
		out.Value[1].Coeffs[0][i] = uint64(ct.Mask[i])
	}
	out.Value[0].Coeffs[0][0] = uint64(ct.Body)
	return out
}

// fromRLWE reads an LWECiphertext of the given mask dimension back out
// of an *rlwe.Ciphertext built by toRLWE or produced by a ringQLWE op.
func fromRLWE(ct *rlwe.Ciphertext, dimension int) *LWECiphertext {
	out := &LWECiphertext{Mask: make([]uint32, dimension), Body: uint32(ct.Value[0].Coeffs[0][0])}
	for i := range out.Mask {
		out.Mask[i] = uint32(ct.Value[1].Coeffs[0][i])
	}
	return out
}

// EncryptLWE produces an LWE encryption of plaintext pt (already
// scaled onto the torus, e.g. floor(2^32 * v / p)) under sk, adding
// discretised Gaussian noise of standard deviation stdDev. The mask is
// sampled from rng and the dot product with sk is carried out through
// ringQLWE rather than a hand-rolled loop, matching how AddLWE/NegLWE
// and the rest of this adapter compose rlwe.Ciphertext values.
func (e *Evaluator) EncryptLWE(pt uint32, sk *LWESecretKey, stdDev float64, rng io.Reader) (*LWECiphertext, error) {
	if rng == nil {
		rng = rand.Reader
	}
	mask := make([]uint32, sk.Dimension())
	maskBytes := make([]byte, 4*sk.Dimension())
	if _, err := io.ReadFull(rng, maskBytes); err != nil {
		return nil, fmt.Errorf("backend: sample LWE mask: %w", err)
	}
	for i := range mask {
		mask[i] = uint32(maskBytes[4*i])<<24 | uint32(maskBytes[4*i+1])<<16 | uint32(maskBytes[4*i+2])<<8 | uint32(maskBytes[4*i+3])
	}

	ct := e.toRLWE(&LWECiphertext{Mask: mask, Body: 0})
	masked := e.ringQLWE.NewPoly()
	e.ringQLWE.MulCoeffsMontgomery(ct.Value[1], e.wrapLWESecretKeyNoForm(sk), masked)

	noise := discreteGaussianNoise(stdDev, rng)
	ct.Value[0].Coeffs[0][0] = uint64(pt+noise) + sumCoeffs(masked)
	return fromRLWE(ct, sk.Dimension()), nil
}

// DecryptLWE recovers the noisy torus plaintext pt + noise by
// subtracting the mask/secret dot product from the body, computed via
// ringQLWE the same way EncryptLWE forms it.
func (e *Evaluator) DecryptLWE(ct *LWECiphertext, sk *LWESecretKey) uint32 {
	rlweCt := e.toRLWE(ct)
	masked := e.ringQLWE.NewPoly()
	e.ringQLWE.MulCoeffsMontgomery(rlweCt.Value[1], e.wrapLWESecretKeyNoForm(sk), masked)
	return uint32(rlweCt.Value[0].Coeffs[0][0] - sumCoeffs(masked))
}

// wrapLWESecretKeyNoForm is wrapLWESecretKey's coefficient-domain
// counterpart: it puts sk into the plain ring representation
// MulCoeffsMontgomery expects as its second Montgomery-form operand,
// i.e. still converted to Montgomery form but left out of NTT, since
// toRLWE's ciphertexts are coefficient-domain too.
func (e *Evaluator) wrapLWESecretKeyNoForm(sk *LWESecretKey) *ring.Poly {
	poly := e.ringQLWE.NewPoly()
	for i, c := range sk.Coeffs {
		if i >= len(poly.Coeffs[0]) {
			break
		}
		poly.Coeffs[0][i] = uint64(c)
	}
	e.ringQLWE.MForm(poly, poly)
	return poly
}

// sumCoeffs sums every coefficient of p mod 2^32, the closed form of
// the LWE dot product once sk's coefficients have already been
// multiplied in coefficient-wise by MulCoeffsMontgomery.
func sumCoeffs(p *ring.Poly) uint64 {
	var sum uint64
	for _, c := range p.Coeffs[0] {
		sum += c
	}
	return sum
}

// AddLWE returns the LWE addition of a and b.
func (e *Evaluator) AddLWE(a, b *LWECiphertext) *LWECiphertext {
	ra, rb := e.toRLWE(a), e.toRLWE(b)
	result := rlwe.NewCiphertext(&e.lweParams, 1, 0)
	e.ringQLWE.Add(ra.Value[0], rb.Value[0], result.Value[0])
	e.ringQLWE.Add(ra.Value[1], rb.Value[1], result.Value[1])
	return fromRLWE(result, len(a.Mask))
}

// NegLWE negates every coefficient of a.
func (e *Evaluator) NegLWE(a *LWECiphertext) *LWECiphertext {
	ra := e.toRLWE(a)
	result := rlwe.NewCiphertext(&e.lweParams, 1, 0)
	e.ringQLWE.Neg(ra.Value[0], result.Value[0])
	e.ringQLWE.Neg(ra.Value[1], result.Value[1])
	return fromRLWE(result, len(a.Mask))
}

// ScalarMulLWE multiplies every coefficient of a by k mod 2^32.
func (e *Evaluator) ScalarMulLWE(a *LWECiphertext, k uint32) *LWECiphertext {
	ra := e.toRLWE(a)
	result := rlwe.NewCiphertext(&e.lweParams, 1, 0)
	e.ringQLWE.MulScalar(ra.Value[0], uint64(k), result.Value[0])
	e.ringQLWE.MulScalar(ra.Value[1], uint64(k), result.Value[1])
	return fromRLWE(result, len(a.Mask))
}

// AddPlaintextLWE adds a cleartext torus value to the body only
// (plaintext translation), via ringQLWE's scalar-add on the constant
// coefficient of the body polynomial.
func (e *Evaluator) AddPlaintextLWE(a *LWECiphertext, delta uint32) *LWECiphertext {
	ra := e.toRLWE(a)
	result := rlwe.NewCiphertext(&e.lweParams, 1, 0)
	e.ringQLWE.AddScalar(ra.Value[0], uint64(delta), result.Value[0])
	result.Value[1].Copy(ra.Value[1])
	return fromRLWE(result, len(a.Mask))
}

// Bootstrap runs the programmable bootstrap: it embeds ct into an RLWE
// trivial-mask slot, evaluates the supplied accumulator (the
// torus-encoded lookup table body synthesised per spec §4.2) through
// the RGSW-based blind-rotation evaluator, and returns the freshly
// sample-extracted LWE ciphertext (still under the big/GLWE-derived
// key — the caller key-switches separately per §4.3's two orderings).
func (e *Evaluator) Bootstrap(ct *LWECiphertext, accumulator []uint32, bsk *BootstrappingKey) (*LWECiphertext, error) {
	N := e.ringQ.N

	lut := e.ringQ.NewPoly()
	for i := 0; i < N && i < len(accumulator); i++ {
		lut.Coeffs[0][i] = uint64(accumulator[i])
	}
	e.ringQ.NTT(lut, lut)

	in := rlwe.NewCiphertext(&e.rlweParams, 1, e.rlweParams.MaxLevel())
	in.IsNTT = false
	for i, a := range ct.Mask {
		if i >= N {
			break
		}
		in.Value[1].Coeffs[0][i] = uint64(a)
	}
	in.Value[0].Coeffs[0][0] = uint64(ct.Body)

	res, err := e.brEval.Evaluate(in, map[int]*ring.Poly{0: &lut}, bsk.brk)
	if err != nil {
		return nil, fmt.Errorf("backend: blind rotate: %w", err)
	}
	out := res[0]

	extracted := &LWECiphertext{
		Mask: make([]uint32, N),
		Body: uint32(out.Value[0].Coeffs[0][0]),
	}
	for i := 0; i < N; i++ {
		extracted.Mask[i] = uint32(out.Value[1].Coeffs[0][i])
	}
	return extracted, nil
}

// KeySwitch maps ct, encrypted under the source key implicit in ksk,
// to an LWE ciphertext encrypting the same plaintext under the
// destination key.
func (e *Evaluator) KeySwitch(ct *LWECiphertext, ksk *KeySwitchKey, outDimension int) (*LWECiphertext, error) {
	in := rlwe.NewCiphertext(&e.lweParams, 1, 0)
	for i, a := range ct.Mask {
		if i >= len(in.Value[1].Coeffs[0]) {
			break
		}
		in.Value[1].Coeffs[0][i] = uint64(a)
	}
	in.Value[0].Coeffs[0][0] = uint64(ct.Body)

	out := rlwe.NewCiphertext(&e.lweParams, 1, 0)
	if err := e.ksEval.ApplyEvaluationKey(in, ksk.evk, out); err != nil {
		return nil, fmt.Errorf("backend: key switch: %w", err)
	}

	result := &LWECiphertext{Mask: make([]uint32, outDimension), Body: uint32(out.Value[0].Coeffs[0][0])}
	for i := range result.Mask {
		result.Mask[i] = uint32(out.Value[1].Coeffs[0][i])
	}
	return result, nil
}

func discreteGaussianNoise(stdDev float64, rng io.Reader) uint32 {
	if stdDev <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := io.ReadFull(rng, buf[:]); err != nil {
		return 0
	}
	u1 := (float64(buf[0])<<24 | float64(buf[1])<<16 | float64(buf[2])<<8 | float64(buf[3])) / float64(1<<32)
	u2 := (float64(buf[4])<<24 | float64(buf[5])<<16 | float64(buf[6])<<8 | float64(buf[7])) / float64(1<<32)
	if u1 <= 0 {
		u1 = 1e-12
	}
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	return uint32(int64(math.Round(z * stdDev * float64(1<<32))))
}
