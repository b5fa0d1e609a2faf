// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package tfhe

import "github.com/fhecore/tfhe/backend"

// Ciphertext is the tagged union of spec §3/§4.6: a Boolean-encrypted
// LWE sample with its encoding, an Arithmetic-encrypted LWE sample
// with its encoding, or a Trivial (unencrypted) bit. Dispatch is by
// tag, never by subtyping — every gadget operation states which tags
// it accepts.
type Ciphertext struct {
	tag ciphertextTag

	lwe *backend.LWECiphertext

	boolEncoding *BooleanEncoding
	arithEncoding *ArithmeticEncoding

	trivialBit bool
}

type ciphertextTag uint8

const (
	tagBooleanEncrypted ciphertextTag = iota
	tagArithmeticEncrypted
	tagTrivial
)

// NewBooleanEncrypted wraps an LWE sample as a BooleanEncrypted
// ciphertext under the given encoding.
func NewBooleanEncrypted(lwe *backend.LWECiphertext, encoding *BooleanEncoding) Ciphertext {
	return Ciphertext{tag: tagBooleanEncrypted, lwe: lwe, boolEncoding: encoding}
}

// NewArithmeticEncrypted wraps an LWE sample as an ArithmeticEncrypted
// ciphertext under the given encoding.
func NewArithmeticEncrypted(lwe *backend.LWECiphertext, encoding *ArithmeticEncoding) Ciphertext {
	return Ciphertext{tag: tagArithmeticEncrypted, lwe: lwe, arithEncoding: encoding}
}

// NewTrivial wraps an unencrypted plaintext bit.
func NewTrivial(bit bool) Ciphertext {
	return Ciphertext{tag: tagTrivial, trivialBit: bit}
}

// IsTrivial reports whether c carries the Trivial tag.
func (c Ciphertext) IsTrivial() bool { return c.tag == tagTrivial }

// IsBoolean reports whether c carries the BooleanEncrypted tag.
func (c Ciphertext) IsBoolean() bool { return c.tag == tagBooleanEncrypted }

// IsArithmetic reports whether c carries the ArithmeticEncrypted tag.
func (c Ciphertext) IsArithmetic() bool { return c.tag == tagArithmeticEncrypted }

// TrivialBit returns the plaintext bit of a Trivial ciphertext; it
// panics if c is not Trivial, matching the programmer-error nature of
// tag mismatches in this API (callers must check IsTrivial first, or
// go through Modulus/BooleanEncodingOf/ArithmeticEncodingOf, which
// return errors instead).
func (c Ciphertext) TrivialBit() bool {
	if c.tag != tagTrivial {
		panic("tfhe: TrivialBit called on non-trivial ciphertext")
	}
	return c.trivialBit
}

// LWE returns the underlying LWE sample of an encrypted ciphertext, or
// ErrTrivialCastForbidden for a Trivial one.
func (c Ciphertext) LWE() (*backend.LWECiphertext, error) {
	if c.tag == tagTrivial {
		return nil, ErrTrivialCastForbidden
	}
	return c.lwe, nil
}

// BooleanEncodingOf returns the attached BooleanEncoding, or
// ErrEncodingDomainMismatch if c does not carry the BooleanEncrypted
// tag.
func (c Ciphertext) BooleanEncodingOf() (*BooleanEncoding, error) {
	if c.tag != tagBooleanEncrypted {
		return nil, ErrEncodingDomainMismatch
	}
	return c.boolEncoding, nil
}

// ArithmeticEncodingOf returns the attached ArithmeticEncoding, or
// ErrEncodingDomainMismatch if c does not carry the
// ArithmeticEncrypted tag.
func (c Ciphertext) ArithmeticEncodingOf() (*ArithmeticEncoding, error) {
	if c.tag != tagArithmeticEncrypted {
		return nil, ErrEncodingDomainMismatch
	}
	return c.arithEncoding, nil
}

// Modulus returns the plaintext modulus p attached to an encrypted
// ciphertext's encoding. Trivial ciphertexts have no modulus of their
// own; callers must supply one explicitly (see
// Engine.ExecGadgetWithExtraction).
func (c Ciphertext) Modulus() (ZpElem, error) {
	switch c.tag {
	case tagBooleanEncrypted:
		return c.boolEncoding.Modulus(), nil
	case tagArithmeticEncrypted:
		return c.arithEncoding.Modulus(), nil
	default:
		return 0, ErrEncodingDomainMismatch
	}
}

// withLWE returns a copy of c with its underlying LWE sample replaced,
// preserving tag and encoding. It is used by engine operations that
// transform the ciphertext (negation, scalar multiplication,
// plaintext addition) without changing its tag.
func (c Ciphertext) withLWE(lwe *backend.LWECiphertext) Ciphertext {
	out := c
	out.lwe = lwe
	return out
}
