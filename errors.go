// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package tfhe

import "errors"

// Sentinel errors for the gadget evaluator's error taxonomy. Every one of
// these is a programmer error: construction-time misuse of an encoding or
// gadget, or a mismatch between a ciphertext and the operation applied to
// it. None are recoverable at the core boundary; callers are expected to
// validate circuits and encodings before invoking the engine.
var (
	// ErrEncodingInvalid is returned when an encoding's partitions fail
	// disjointness, or (for even p) fail the negacyclicity invariant.
	ErrEncodingInvalid = errors.New("tfhe: encoding invalid")

	// ErrEncodingNotCanonical is returned by GetValuesIfCanonical on an
	// encoding whose partitions are not all singletons.
	ErrEncodingNotCanonical = errors.New("tfhe: encoding is not canonical")

	// ErrGadgetIntermediateInconsistent is returned during gadget
	// construction when some residue of the intermediate modulus would
	// have to carry both a true and a false label.
	ErrGadgetIntermediateInconsistent = errors.New("tfhe: gadget intermediate encoding inconsistent")

	// ErrEncodingDomainMismatch is returned when an operation mixes a
	// Boolean-encrypted and an Arithmetic-encrypted ciphertext, or when a
	// ciphertext's attached modulus does not match the modulus an
	// operation expects.
	ErrEncodingDomainMismatch = errors.New("tfhe: encoding domain mismatch")

	// ErrTrivialCastForbidden is returned when cast_encoding or
	// simple_sum is applied to a Trivial ciphertext.
	ErrTrivialCastForbidden = errors.New("tfhe: operation forbidden on trivial ciphertext")

	// ErrDecryptionMismatch is returned when the rounded plaintext
	// residue belongs to no partition of the declared encoding.
	ErrDecryptionMismatch = errors.New("tfhe: decrypted residue belongs to no partition")
)
