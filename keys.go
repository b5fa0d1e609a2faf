// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package tfhe

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/blake2b"

	"github.com/luxfi/lattice/v6/core/rlwe"

	"github.com/fhecore/tfhe/backend"
)

// ClientKey holds the secret LWE and GLWE keys, never shared with an
// evaluator. It is the only key able to decrypt. Per spec §3 a
// ClientKey is the pair (LWE secret key, GLWE secret key, parameter
// record): GLWE is sampled alongside LWE rather than regenerated by
// CreateServerKey, since the keyswitch key must connect this exact
// GLWE key's extracted "big" LWE key to this exact small key.
type ClientKey struct {
	Params Parameters
	LWE    *backend.LWESecretKey
	GLWE   *rlwe.SecretKey
}

// ServerKey holds the public evaluation material: the bootstrapping
// key (LWE secret encrypted under the GLWE key, assembled into the
// blind-rotation evaluation key set) and the keyswitch key, plus the
// compiled Bootstrapper ready to drive either PBS order.
type ServerKey struct {
	Params  Parameters
	Eval    *backend.Evaluator
	Boot    *Bootstrapper
	PBSOrder PBSOrder
}

// rootSeeder derives a stream of independent per-goroutine seeds from
// a single root seed, using blake2b as the expansion function: each
// call appends a monotonically increasing counter to the root seed and
// hashes, matching the "deterministically seeded from a root seeder"
// requirement of the concurrency model (spec §5/§9). There is no
// native thread-local in Go; an Engine is instead constructed
// explicitly per goroutine, the way math/rand's rand.New is, and seeds
// it from two calls into the shared rootSeeder (one per PRNG).
type rootSeeder struct {
	root    [32]byte
	counter uint64
}

// NewRootSeeder samples a fresh 32-byte root seed from the OS CSPRNG.
func NewRootSeeder() (*rootSeeder, error) {
	var root [32]byte
	if _, err := io.ReadFull(rand.Reader, root[:]); err != nil {
		return nil, fmt.Errorf("tfhe: sample root seed: %w", err)
	}
	return &rootSeeder{root: root}, nil
}

// next derives the next independent seed in the sequence.
func (s *rootSeeder) next() [32]byte {
	var ctr [8]byte
	binary.LittleEndian.PutUint64(ctr[:], s.counter)
	s.counter++
	h, err := blake2b.New256(s.root[:])
	if err != nil {
		panic(fmt.Sprintf("tfhe: blake2b keyed hash: %v", err))
	}
	h.Write(ctr[:])
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// seededReader turns a 32-byte seed into a deterministic io.Reader via
// repeated blake2b expansion, usable anywhere an Evaluator call expects
// an io.Reader entropy source.
type seededReader struct {
	seed    [32]byte
	counter uint64
	buf     []byte
}

func newSeededReader(seed [32]byte) *seededReader {
	return &seededReader{seed: seed}
}

func (r *seededReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if len(r.buf) == 0 {
			var ctr [8]byte
			binary.LittleEndian.PutUint64(ctr[:], r.counter)
			r.counter++
			h, err := blake2b.New256(r.seed[:])
			if err != nil {
				return n, err
			}
			h.Write(ctr[:])
			r.buf = h.Sum(nil)
		}
		c := copy(p[n:], r.buf)
		r.buf = r.buf[c:]
		n += c
	}
	return n, nil
}

// CreateClientKey samples a fresh secret key pair for params, per spec
// §4.5's create_client_key: both the small LWE key and the GLWE key
// are drawn here, since both are needed again by CreateServerKey to
// wire a keyswitch key that actually involves this client's keys
// rather than a pair of unrelated regenerated ones.
func CreateClientKey(params Parameters, rng io.Reader) (*ClientKey, error) {
	eval, err := backend.NewEvaluator(params.Backend)
	if err != nil {
		return nil, fmt.Errorf("tfhe: create client key: %w", err)
	}
	lweSK, err := eval.GenLWESecretKey(rng)
	if err != nil {
		return nil, fmt.Errorf("tfhe: create client key: %w", err)
	}
	glweSK := eval.GenGLWESecretKey()
	return &ClientKey{Params: params, LWE: lweSK, GLWE: glweSK}, nil
}

// CreateServerKey generates the bootstrapping and keyswitch keys from
// cks, converting the bootstrapping key to Fourier/NTT form exactly
// once, per spec §4.5's create_server_key. The bootstrapping key
// encrypts cks.LWE under cks.GLWE; blind rotation's sample-extraction
// then yields a ciphertext under the "big" LWE key extracted from
// cks.GLWE (see backend.Evaluator.ExtractLWESecretKey), so the
// keyswitch key generated here must run from that extracted big key to
// cks.LWE, the direction both BootstrapThenKeyswitch and
// KeyswitchThenBootstrap apply it in (bootstrap.go).
func CreateServerKey(cks *ClientKey, order PBSOrder) (*ServerKey, error) {
	eval, err := backend.NewEvaluator(cks.Params.Backend)
	if err != nil {
		return nil, fmt.Errorf("tfhe: create server key: %w", err)
	}
	bsk, err := eval.GenBootstrappingKey(cks.LWE, cks.GLWE)
	if err != nil {
		return nil, fmt.Errorf("tfhe: create server key: %w", err)
	}
	bigSK := eval.ExtractLWESecretKey(cks.GLWE)
	// BootstrapThenKeyswitch key-switches a freshly bootstrapped
	// (big-key) ciphertext down to the small key; KeyswitchThenBootstrap
	// key-switches a big-key ciphertext down to the small key before
	// bootstrapping it. Both orders therefore use a KSK from bigSK to
	// cks.LWE.
	ksk, err := eval.GenLWEKeySwitchKey(bigSK, cks.LWE)
	if err != nil {
		return nil, fmt.Errorf("tfhe: create server key: %w", err)
	}
	return &ServerKey{
		Params: cks.Params,
		Eval:   eval,
		Boot: &Bootstrapper{
			Eval:           eval,
			BSK:            bsk,
			KSK:            ksk,
			SmallDimension: cks.Params.Backend.LWEDimension,
		},
		PBSOrder: order,
	}, nil
}

// ShallowCopy returns a ServerKey sharing sk's key material (BSK, KSK)
// but with an independent backend.Evaluator, so a separate worker
// goroutine in a parallel.For/ForErr loop can drive bootstraps without
// contending on the shared evaluator's scratch state (spec §5's
// one-Engine/one-evaluator-per-worker model).
func (sk *ServerKey) ShallowCopy() *ServerKey {
	eval := sk.Eval.ShallowCopy()
	return &ServerKey{
		Params: sk.Params,
		Eval:   eval,
		Boot: &Bootstrapper{
			Eval:           eval,
			BSK:            sk.Boot.BSK,
			KSK:            sk.Boot.KSK,
			SmallDimension: sk.Boot.SmallDimension,
		},
		PBSOrder: sk.PBSOrder,
	}
}
