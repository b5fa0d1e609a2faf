// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package tfhe

import "fmt"

// CreateAccumulator synthesises the length-p_in vector of spec §4.2's
// odd-p regime: accu[2k] carries the canonical output value for the
// origin element assigned to residue k, and accu[2k+1] carries the
// negated value for residue (p_in+1)/2+k. encodingIn need not be
// canonical; encodingOut must be.
func CreateAccumulator(encodingIn, encodingOut *BooleanEncoding) ([]ZpElem, error) {
	p := encodingIn.Modulus()
	if p%2 != 1 {
		return nil, fmt.Errorf("%w: CreateAccumulator requires an odd modulus, got %d", ErrEncodingInvalid, p)
	}
	newFalse, newTrue, err := encodingOut.GetValuesIfCanonical()
	if err != nil {
		return nil, err
	}
	newP := encodingOut.Modulus()

	accu := make([]ZpElem, p)
	half := (p + 1) / 2
	for k := ZpElem(0); k < half; k++ {
		switch {
		case encodingIn.IsPartitionContaining(false, k):
			accu[2*k] = newFalse
		case encodingIn.IsPartitionContaining(true, k):
			accu[2*k] = newTrue
		}
		idx2 := half + k
		if idx2 >= p {
			continue
		}
		switch {
		case encodingIn.IsPartitionContaining(false, idx2):
			accu[2*k+1] = (newP - newFalse) % newP
		case encodingIn.IsPartitionContaining(true, idx2):
			accu[2*k+1] = (newP - newTrue) % newP
		}
	}
	return accu, nil
}

// BuildAccumulatorBody synthesises the GLWE lookup-table body (length
// polyDegree, torus-encoded) consumed by the programmable bootstrap,
// per spec §4.2. It dispatches on whether encodingIn's modulus is odd
// (windowed fill with a negated half-window wrap) or exactly 2
// (negacyclic two-half fill).
func BuildAccumulatorBody(encodingIn, encodingOut *BooleanEncoding, polyDegree int) ([]uint32, error) {
	p := encodingIn.Modulus()
	newP := uint64(encodingOut.Modulus())
	body := make([]uint32, polyDegree)

	if p == 2 {
		newFalse, newTrue, err := encodingOut.GetValuesIfCanonical()
		if err != nil {
			return nil, err
		}
		if newFalse != (uint32(newP)-newTrue)%uint32(newP) {
			return nil, fmt.Errorf("%w: p=2 accumulator requires d_false == -d_true mod p_out", ErrEncodingInvalid)
		}
		scale := (uint64(1) << 32) / newP
		zeroIsTrue := encodingIn.IsPartitionContaining(true, 0)
		firstVal := monoEncodingValue(newFalse, newTrue, zeroIsTrue)
		secondVal := monoEncodingValue(newFalse, newTrue, !zeroIsTrue)
		firstScaled := uint32(scale * uint64(firstVal))
		secondScaled := uint32(scale * uint64(secondVal))
		half := polyDegree / 2
		for i := 0; i < half; i++ {
			body[i] = firstScaled
		}
		for i := half; i < polyDegree; i++ {
			body[i] = secondScaled
		}
		return body, nil
	}

	if p%2 != 1 {
		return nil, fmt.Errorf("%w: accumulator fill defined only for odd p or p=2, got %d", ErrEncodingInvalid, p)
	}

	accu, err := CreateAccumulator(encodingIn, encodingOut)
	if err != nil {
		return nil, err
	}
	scale := (uint64(1) << 32) / newP
	constShift := polyDegree / (2 * int(p))

	firstScaled := uint32(scale * uint64(accu[0]))
	for i := 0; i < constShift; i++ {
		body[i] = firstScaled
	}
	for k := 1; k < len(accu); k++ {
		scaled := uint32(scale * uint64(accu[k]))
		lo := constShift + (k-1)*polyDegree/int(p)
		hi := constShift + k*polyDegree/int(p)
		for i := lo; i < hi && i < polyDegree; i++ {
			body[i] = scaled
		}
	}
	negated := (uint32(newP) - accu[0]%uint32(newP))
	negScaled := uint32(scale * uint64(negated))
	for i := polyDegree - constShift; i < polyDegree; i++ {
		body[i] = negScaled
	}
	return body, nil
}

func monoEncodingValue(dFalse, dTrue ZpElem, isTrue bool) ZpElem {
	if isTrue {
		return dTrue
	}
	return dFalse
}
