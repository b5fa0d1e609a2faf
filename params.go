// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package tfhe

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/fhecore/tfhe/backend"
)

// ParametersLiteral is the uncompiled, human-editable form of
// Parameters: the shape a named constant set or a YAML file is
// written in. Compile validates it and derives the backend.Params the
// evaluator actually runs on.
type ParametersLiteral struct {
	LWEDimension int
	GLWERank     int
	PolyDegree   int // N

	LWEStdDev  float64
	GLWEStdDev float64

	PBSBaseLog int
	PBSLevel   int
	KSBaseLog  int
	KSLevel    int

	// EncryptionKeyChoice selects which key a fresh ciphertext is
	// produced under ("small" or "big"), mirroring the reference
	// BooleanParameters field of the same name.
	EncryptionKeyChoice string
}

// Parameters is the compiled, validated form of a ParametersLiteral.
type Parameters struct {
	lit    ParametersLiteral
	Backend backend.Params
}

var validKeyChoices = []string{"small", "big"}

// Compile validates l and derives the backend.Params record the
// Evaluator is constructed from. It rejects degenerate dimensions (any
// <= 0), a polynomial degree that is not a power of two (the
// blind-rotation evaluator requires an NTT-friendly ring), and an
// unrecognised EncryptionKeyChoice.
func (l ParametersLiteral) Compile() (Parameters, error) {
	if l.LWEDimension <= 0 {
		return Parameters{}, fmt.Errorf("%w: LWEDimension must be positive, got %d", ErrEncodingInvalid, l.LWEDimension)
	}
	if l.GLWERank <= 0 {
		return Parameters{}, fmt.Errorf("%w: GLWERank must be positive, got %d", ErrEncodingInvalid, l.GLWERank)
	}
	if l.PolyDegree <= 0 || l.PolyDegree&(l.PolyDegree-1) != 0 {
		return Parameters{}, fmt.Errorf("%w: PolyDegree must be a power of two, got %d", ErrEncodingInvalid, l.PolyDegree)
	}
	if l.PBSLevel <= 0 || l.KSLevel <= 0 {
		return Parameters{}, fmt.Errorf("%w: PBSLevel/KSLevel must be positive", ErrEncodingInvalid)
	}
	if !slices.Contains(validKeyChoices, l.EncryptionKeyChoice) {
		return Parameters{}, fmt.Errorf("%w: EncryptionKeyChoice must be one of %v, got %q", ErrEncodingInvalid, validKeyChoices, l.EncryptionKeyChoice)
	}

	return Parameters{
		lit: l,
		Backend: backend.Params{
			LWEDimension: l.LWEDimension,
			PolyDegree:   l.PolyDegree,
			GLWERank:     l.GLWERank,
			LWEStdDev:    l.LWEStdDev,
			GLWEStdDev:   l.GLWEStdDev,
			PBSBaseLog:   l.PBSBaseLog,
			PBSLevel:     l.PBSLevel,
			KSBaseLog:    l.KSBaseLog,
			KSLevel:      l.KSLevel,
		},
	}, nil
}

// EncryptUnderBigKey reports whether fresh ciphertexts are produced
// under the GLWE-derived "big" LWE key rather than the small key,
// per the compiled EncryptionKeyChoice.
func (p Parameters) EncryptUnderBigKey() bool {
	return p.lit.EncryptionKeyChoice == "big"
}

// Named parameter sets, transcribed from the reference
// implementation's constant BooleanParameters table. Each is tuned for
// a specific demo circuit's plaintext-modulus and input-count
// requirements; the *_40/_23 suffixes denote alternative failure-rate
// targets of the same circuit, not different circuits.
var (
	DefaultParameters = ParametersLiteral{
		LWEDimension: 586, GLWERank: 1, PolyDegree: 1024,
		LWEStdDev: 1.36e-3, GLWEStdDev: 3.73e-9,
		PBSBaseLog: 8, PBSLevel: 2, KSBaseLog: 2, KSLevel: 5,
		EncryptionKeyChoice: "small",
	}
	SimonParameters = ParametersLiteral{
		LWEDimension: 586, GLWERank: 1, PolyDegree: 1024,
		LWEStdDev: 1.36e-3, GLWEStdDev: 3.73e-9,
		PBSBaseLog: 8, PBSLevel: 2, KSBaseLog: 2, KSLevel: 5,
		EncryptionKeyChoice: "small",
	}
	SimonParameters23 = ParametersLiteral{
		LWEDimension: 512, GLWERank: 1, PolyDegree: 1024,
		LWEStdDev: 2.01e-3, GLWEStdDev: 3.73e-9,
		PBSBaseLog: 8, PBSLevel: 2, KSBaseLog: 2, KSLevel: 4,
		EncryptionKeyChoice: "small",
	}
	SimonParameters40 = ParametersLiteral{
		LWEDimension: 656, GLWERank: 1, PolyDegree: 1024,
		LWEStdDev: 7.52e-4, GLWEStdDev: 3.73e-9,
		PBSBaseLog: 8, PBSLevel: 2, KSBaseLog: 2, KSLevel: 6,
		EncryptionKeyChoice: "small",
	}
	ZamaTriviumParameters = ParametersLiteral{
		LWEDimension: 630, GLWERank: 1, PolyDegree: 1024,
		LWEStdDev: 1.10e-3, GLWEStdDev: 3.73e-9,
		PBSBaseLog: 8, PBSLevel: 2, KSBaseLog: 2, KSLevel: 5,
		EncryptionKeyChoice: "small",
	}
	AsconParameters = ParametersLiteral{
		LWEDimension: 612, GLWERank: 2, PolyDegree: 2048,
		LWEStdDev: 1.18e-3, GLWEStdDev: 9.0e-11,
		PBSBaseLog: 6, PBSLevel: 3, KSBaseLog: 2, KSLevel: 6,
		EncryptionKeyChoice: "small",
	}
	AsconParameters40 = ParametersLiteral{
		LWEDimension: 684, GLWERank: 2, PolyDegree: 2048,
		LWEStdDev: 6.93e-4, GLWEStdDev: 9.0e-11,
		PBSBaseLog: 6, PBSLevel: 3, KSBaseLog: 2, KSLevel: 7,
		EncryptionKeyChoice: "small",
	}
	Sha3Parameters = ParametersLiteral{
		LWEDimension: 600, GLWERank: 1, PolyDegree: 1024,
		LWEStdDev: 1.27e-3, GLWEStdDev: 3.73e-9,
		PBSBaseLog: 8, PBSLevel: 2, KSBaseLog: 2, KSLevel: 5,
		EncryptionKeyChoice: "small",
	}
	Sha3Parameters40 = ParametersLiteral{
		LWEDimension: 670, GLWERank: 1, PolyDegree: 1024,
		LWEStdDev: 7.19e-4, GLWEStdDev: 3.73e-9,
		PBSBaseLog: 8, PBSLevel: 2, KSBaseLog: 2, KSLevel: 6,
		EncryptionKeyChoice: "small",
	}
	AesParameters = ParametersLiteral{
		LWEDimension: 612, GLWERank: 2, PolyDegree: 2048,
		LWEStdDev: 1.18e-3, GLWEStdDev: 9.0e-11,
		PBSBaseLog: 6, PBSLevel: 3, KSBaseLog: 2, KSLevel: 6,
		EncryptionKeyChoice: "small",
	}
	AesParameters40 = ParametersLiteral{
		LWEDimension: 684, GLWERank: 2, PolyDegree: 2048,
		LWEStdDev: 6.93e-4, GLWEStdDev: 9.0e-11,
		PBSBaseLog: 6, PBSLevel: 3, KSBaseLog: 2, KSLevel: 7,
		EncryptionKeyChoice: "small",
	}
	AesParameters23 = ParametersLiteral{
		LWEDimension: 556, GLWERank: 2, PolyDegree: 2048,
		LWEStdDev: 1.78e-3, GLWEStdDev: 9.0e-11,
		PBSBaseLog: 6, PBSLevel: 3, KSBaseLog: 2, KSLevel: 5,
		EncryptionKeyChoice: "small",
	}
	TFHELibParameters = ParametersLiteral{
		LWEDimension: 500, GLWERank: 1, PolyDegree: 1024,
		LWEStdDev: 2.44e-5, GLWEStdDev: 3.29e-10,
		PBSBaseLog: 10, PBSLevel: 2, KSBaseLog: 2, KSLevel: 8,
		EncryptionKeyChoice: "big",
	}
)
