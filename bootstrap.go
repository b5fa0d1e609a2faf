// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package tfhe

import "github.com/fhecore/tfhe/backend"

// PBSOrder selects which of the two bootstrap driver orderings (spec
// §4.3) a ServerKey applies: bootstrap the small-key ciphertext straight
// off the gadget's linear combination, then key-switch the big-key
// result down to the small key; or key-switch a big-key ciphertext down
// to the small key first and bootstrap the small-key result.
// The two are cryptographically equivalent but trade off where the
// keyswitch noise is absorbed.
type PBSOrder uint8

const (
	// BootstrapThenKeyswitch runs the blind rotation before the key
	// switch, mirroring the reference's bootstrap_keyswitch.
	BootstrapThenKeyswitch PBSOrder = iota
	// KeyswitchThenBootstrap runs the key switch first, mirroring the
	// reference's keyswitch_bootstrap.
	KeyswitchThenBootstrap
)

// Bootstrapper bundles the keys and backend evaluator needed to drive
// a single programmable bootstrap, independent of which PBSOrder the
// caller wants (spec §4.3's apply_bootstrapping_pattern dispatch).
type Bootstrapper struct {
	Eval *backend.Evaluator
	BSK  *backend.BootstrappingKey
	KSK  *backend.KeySwitchKey

	// SmallDimension is the LWE dimension the ciphertext carries after
	// a key switch toward the small key (used to size the KeySwitch
	// output when running KeyswitchThenBootstrap).
	SmallDimension int
}

// Apply runs ct through the programmable bootstrap defined by
// accumulator, in the ordering order, producing a fresh LWE ciphertext:
// under the small key for BootstrapThenKeyswitch, under the big key for
// KeyswitchThenBootstrap. This is the single realization point every
// gadget evaluation (Gadget.Exec) funnels through, per spec §4.3/§4.4.
func (b *Bootstrapper) Apply(ct *backend.LWECiphertext, accumulator []uint32, order PBSOrder) (*backend.LWECiphertext, error) {
	switch order {
	case BootstrapThenKeyswitch:
		return b.bootstrapKeyswitch(ct, accumulator)
	case KeyswitchThenBootstrap:
		return b.keyswitchBootstrap(ct, accumulator)
	default:
		return b.bootstrapKeyswitch(ct, accumulator)
	}
}

// bootstrapKeyswitch blind-rotates ct (under the small key, as produced
// by the gadget's linear combination) through accumulator,
// sample-extracts a big-key ciphertext, then key-switches it down to
// the small key.
func (b *Bootstrapper) bootstrapKeyswitch(ct *backend.LWECiphertext, accumulator []uint32) (*backend.LWECiphertext, error) {
	rotated, err := b.Eval.Bootstrap(ct, accumulator, b.BSK)
	if err != nil {
		return nil, err
	}
	return b.Eval.KeySwitch(rotated, b.KSK, b.SmallDimension)
}

// keyswitchBootstrap key-switches ct down to the small key first, then
// blind-rotates the small-key ciphertext through accumulator. The
// sample-extraction inside Bootstrap always yields a big-key
// ciphertext, so this ordering ends with a fresh big-key ciphertext
// rather than the small-key one bootstrapKeyswitch produces; a caller
// chaining another gate must be consistent about which order a given
// ServerKey commits to.
func (b *Bootstrapper) keyswitchBootstrap(ct *backend.LWECiphertext, accumulator []uint32) (*backend.LWECiphertext, error) {
	switched, err := b.Eval.KeySwitch(ct, b.KSK, b.SmallDimension)
	if err != nil {
		return nil, err
	}
	return b.Eval.Bootstrap(switched, accumulator, b.BSK)
}
