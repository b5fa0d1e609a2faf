// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package tfhe

import "fmt"

// ZpElem is an element of the plaintext ring Z/p that backs an encoding.
// It is a 32-bit ring because the gadget framework's lookup tables are
// built from, and decrypted into, 32-bit torus quantisations.
type ZpElem = uint32

// Encoding assigns each element of an origin domain Z/o to a disjoint,
// non-empty subset ("partition") of Z/p. BooleanEncoding specialises
// o=2; ArithmeticEncoding generalises to o>=2.
type Encoding interface {
	// Modulus returns p.
	Modulus() ZpElem
	// IsCanonical reports whether every partition is a singleton.
	IsCanonical() bool
	// NegativeOnPRing returns (p - x) mod p. Not to be confused with the
	// origin-domain negation x + p/2 used by the negacyclicity checks.
	NegativeOnPRing(x ZpElem) ZpElem
}

func zpSet(values []ZpElem) map[ZpElem]struct{} {
	s := make(map[ZpElem]struct{}, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func sortedKeys(s map[ZpElem]struct{}) []ZpElem {
	out := make([]ZpElem, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// BooleanEncoding is the o=2 case: two disjoint partitions `false` and
// `true` of Z/p.
type BooleanEncoding struct {
	falseSet map[ZpElem]struct{}
	trueSet  map[ZpElem]struct{}
	modulus  ZpElem
}

// NewBooleanEncoding constructs a BooleanEncoding, rejecting any
// assignment that violates disjointness (I1, odd p) or negacyclicity
// (I1, even p: no x in a partition may have its opposite x+p/2 also in
// that same partition).
func NewBooleanEncoding(partFalse, partTrue []ZpElem, modulus ZpElem) (*BooleanEncoding, error) {
	f := zpSet(partFalse)
	t := zpSet(partTrue)
	for x := range f {
		if x >= modulus {
			return nil, fmt.Errorf("%w: false-partition element %d >= modulus %d", ErrEncodingInvalid, x, modulus)
		}
	}
	for x := range t {
		if x >= modulus {
			return nil, fmt.Errorf("%w: true-partition element %d >= modulus %d", ErrEncodingInvalid, x, modulus)
		}
	}
	e := &BooleanEncoding{falseSet: f, trueSet: t, modulus: modulus}
	if !e.isValid() {
		return nil, fmt.Errorf("%w: boolean encoding over modulus %d", ErrEncodingInvalid, modulus)
	}
	return e, nil
}

// NewCanonicalBoolean yields {0}->false, {qTrue}->true.
func NewCanonicalBoolean(qTrue, modulus ZpElem) (*BooleanEncoding, error) {
	return NewBooleanEncoding([]ZpElem{0}, []ZpElem{qTrue}, modulus)
}

// ParityEncoding is the canonical Boolean encoding over Z/2 with
// 0->false, 1->true: the default encoding produced by SimpleSum.
func ParityEncoding() *BooleanEncoding {
	e, err := NewCanonicalBoolean(1, 2)
	if err != nil {
		// Unreachable: {0},{1} over modulus 2 is always valid.
		panic(err)
	}
	return e
}

func (e *BooleanEncoding) isValid() bool {
	if e.modulus%2 == 1 {
		for x := range e.falseSet {
			if _, ok := e.trueSet[x]; ok {
				return false
			}
		}
		return true
	}
	half := e.modulus / 2
	for x := range e.falseSet {
		if _, ok := e.trueSet[x]; ok {
			return false
		}
		if _, ok := e.falseSet[(x+half)%e.modulus]; ok {
			return false
		}
	}
	for x := range e.trueSet {
		if _, ok := e.falseSet[x]; ok {
			return false
		}
		if _, ok := e.trueSet[(x+half)%e.modulus]; ok {
			return false
		}
	}
	return true
}

// Modulus returns p.
func (e *BooleanEncoding) Modulus() ZpElem { return e.modulus }

// IsPartitionContaining reports whether z belongs to the partition
// labelled by origin (true/false).
func (e *BooleanEncoding) IsPartitionContaining(origin bool, z ZpElem) bool {
	if origin {
		_, ok := e.trueSet[z]
		return ok
	}
	_, ok := e.falseSet[z]
	return ok
}

// IsCanonical reports |false|=|true|=1.
func (e *BooleanEncoding) IsCanonical() bool {
	return len(e.falseSet) == 1 && len(e.trueSet) == 1
}

// GetValuesIfCanonical returns (dFalse, dTrue). Fails with
// ErrEncodingNotCanonical when either partition is not a singleton.
func (e *BooleanEncoding) GetValuesIfCanonical() (dFalse, dTrue ZpElem, err error) {
	if !e.IsCanonical() {
		return 0, 0, ErrEncodingNotCanonical
	}
	return sortedKeys(e.falseSet)[0], sortedKeys(e.trueSet)[0], nil
}

// NegativeOnPRing returns (p - x) mod p.
func (e *BooleanEncoding) NegativeOnPRing(x ZpElem) ZpElem {
	return (e.modulus - x%e.modulus) % e.modulus
}

// AddConstant shifts every partition by c mod p, preserving labelling.
func (e *BooleanEncoding) AddConstant(c ZpElem) *BooleanEncoding {
	return &BooleanEncoding{
		falseSet: shiftSet(e.falseSet, c, e.modulus),
		trueSet:  shiftSet(e.trueSet, c, e.modulus),
		modulus:  e.modulus,
	}
}

// MultiplyConstant pointwise-multiplies every partition by c mod p. The
// result goes through NewBooleanEncoding, so a product that is not a
// valid encoding (disjoint and, for even p, negacyclic) is rejected
// with ErrEncodingInvalid.
func (e *BooleanEncoding) MultiplyConstant(c ZpElem) (*BooleanEncoding, error) {
	return NewBooleanEncoding(scaleSet(e.falseSet, c, e.modulus), scaleSet(e.trueSet, c, e.modulus), e.modulus)
}

func shiftSet(s map[ZpElem]struct{}, c, modulus ZpElem) map[ZpElem]struct{} {
	out := make(map[ZpElem]struct{}, len(s))
	for x := range s {
		out[(x+c)%modulus] = struct{}{}
	}
	return out
}

func scaleSet(s map[ZpElem]struct{}, c, modulus ZpElem) []ZpElem {
	out := make([]ZpElem, 0, len(s))
	for x := range s {
		out = append(out, (x*c)%modulus)
	}
	return out
}

// ArithmeticEncoding is the o>=2 generalisation: o disjoint partitions
// of Z/p, one per element of the origin domain Z/o.
type ArithmeticEncoding struct {
	originModulus ZpElem
	parts         []map[ZpElem]struct{}
	modulus       ZpElem
}

// NewArithmeticEncoding constructs an ArithmeticEncoding with
// len(parts)==o partitions over modulus p, rejecting any assignment
// that violates pairwise disjointness or (even p) negacyclicity with
// respect to origin negation.
func NewArithmeticEncoding(parts [][]ZpElem, modulus ZpElem) (*ArithmeticEncoding, error) {
	o := ZpElem(len(parts))
	sets := make([]map[ZpElem]struct{}, len(parts))
	for i, part := range parts {
		sets[i] = zpSet(part)
		for x := range sets[i] {
			if x >= modulus {
				return nil, fmt.Errorf("%w: part %d element %d >= modulus %d", ErrEncodingInvalid, i, x, modulus)
			}
		}
	}
	e := &ArithmeticEncoding{originModulus: o, parts: sets, modulus: modulus}
	if !e.isValid() {
		return nil, fmt.Errorf("%w: arithmetic encoding over modulus %d", ErrEncodingInvalid, modulus)
	}
	return e, nil
}

// NewCanonicalArithmetic builds a canonical ArithmeticEncoding where
// part i is the singleton {values[i]}.
func NewCanonicalArithmetic(values []ZpElem, modulus ZpElem) (*ArithmeticEncoding, error) {
	parts := make([][]ZpElem, len(values))
	for i, v := range values {
		parts[i] = []ZpElem{v}
	}
	return NewArithmeticEncoding(parts, modulus)
}

func (e *ArithmeticEncoding) isValid() bool {
	for i := range e.parts {
		for j := i + 1; j < len(e.parts); j++ {
			for x := range e.parts[i] {
				if _, ok := e.parts[j][x]; ok {
					return false
				}
			}
		}
	}
	if e.modulus%2 == 1 {
		return true
	}
	half := e.modulus / 2
	for i := range e.parts {
		negI := e.negativeOnORing(ZpElem(i))
		for x := range e.parts[i] {
			opposite := (x + half) % e.modulus
			for j := range e.parts {
				if ZpElem(j) == negI {
					continue
				}
				if _, ok := e.parts[j][opposite]; ok {
					return false
				}
			}
		}
	}
	return true
}

// OriginModulus returns o.
func (e *ArithmeticEncoding) OriginModulus() ZpElem { return e.originModulus }

// Modulus returns p.
func (e *ArithmeticEncoding) Modulus() ZpElem { return e.modulus }

// GetPart returns the partition of Z/p associated with element i of
// Z/o.
func (e *ArithmeticEncoding) GetPart(i ZpElem) map[ZpElem]struct{} {
	return e.parts[i%e.originModulus]
}

// IsPartitionContaining reports whether value belongs to part i.
func (e *ArithmeticEncoding) IsPartitionContaining(i ZpElem, value ZpElem) bool {
	_, ok := e.GetPart(i)[value]
	return ok
}

// IsCanonical reports that every partition is a singleton.
func (e *ArithmeticEncoding) IsCanonical() bool {
	for _, part := range e.parts {
		if len(part) != 1 {
			return false
		}
	}
	return true
}

// GetValuesIfCanonical returns the o singleton values, indexed by
// origin element.
func (e *ArithmeticEncoding) GetValuesIfCanonical() ([]ZpElem, error) {
	if !e.IsCanonical() {
		return nil, ErrEncodingNotCanonical
	}
	out := make([]ZpElem, len(e.parts))
	for i, part := range e.parts {
		out[i] = sortedKeys(part)[0]
	}
	return out, nil
}

// NegativeOnPRing returns (p - x) mod p.
func (e *ArithmeticEncoding) NegativeOnPRing(x ZpElem) ZpElem {
	return (e.modulus - x%e.modulus) % e.modulus
}

func (e *ArithmeticEncoding) negativeOnORing(i ZpElem) ZpElem {
	return (e.originModulus - i%e.originModulus) % e.originModulus
}

// AddConstant shifts every partition by c mod p.
func (e *ArithmeticEncoding) AddConstant(c ZpElem) (*ArithmeticEncoding, error) {
	parts := make([][]ZpElem, len(e.parts))
	for i, part := range e.parts {
		shifted := shiftSet(part, c, e.modulus)
		parts[i] = sortedKeys(shifted)
	}
	return NewArithmeticEncoding(parts, e.modulus)
}
