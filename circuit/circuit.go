// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

// Package circuit parses and executes the file-driven linear
// subcircuit and gadget-table formats of spec §6: plain-text
// descriptions of XOR/XNOR networks and S-box rows, orchestrating the
// gadget evaluator without altering its semantics.
package circuit

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fhecore/tfhe"
)

// gateEvaluator is the subset of the engine façade a LinearCircuit
// needs: SimpleSum and SimplePlaintextSum, applied against a
// *tfhe.ServerKey the caller already holds.
type gateEvaluator interface {
	SimpleSum(cs []tfhe.Ciphertext, sk *tfhe.ServerKey) (tfhe.Ciphertext, error)
	SimplePlaintextSum(c tfhe.Ciphertext, k, p tfhe.ZpElem, sk *tfhe.ServerKey) (tfhe.Ciphertext, error)
}

// LinearCircuit is a parsed and executable linear subcircuit: the
// input, intermediate, and output ciphertext vectors named x/t/y in
// the §6 file format.
type LinearCircuit struct {
	X []tfhe.Ciphertext
	T []tfhe.Ciphertext
	Y []tfhe.Ciphertext

	offsetX, offsetT, offsetY int
}

// NewLinearCircuit seeds a LinearCircuit with its input slice; T and Y
// are sized once the circuit file's header line is parsed.
func NewLinearCircuit(inputs []tfhe.Ciphertext) *LinearCircuit {
	x := make([]tfhe.Ciphertext, len(inputs))
	copy(x, inputs)
	return &LinearCircuit{X: x}
}

// Execute reads the §6 header-plus-lines format from r and evaluates
// every gate through eng/sk, mutating c.T and c.Y in place.
func (c *LinearCircuit) Execute(r io.Reader, eng gateEvaluator, sk *tfhe.ServerKey) error {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return fmt.Errorf("circuit: empty circuit file")
	}
	header := strings.Fields(scanner.Text())
	if len(header) != 6 {
		return fmt.Errorf("circuit: header must have 6 fields, got %d", len(header))
	}
	nums := make([]int, 6)
	for i, h := range header {
		n, err := strconv.Atoi(h)
		if err != nil {
			return fmt.Errorf("circuit: header field %d: %w", i, err)
		}
		nums[i] = n
	}
	nIn, offsetIn, nInt, offsetInt, nOut, offsetOut := nums[0], nums[1], nums[2], nums[3], nums[4], nums[5]

	if len(c.X) != nIn {
		return fmt.Errorf("circuit: expected %d inputs, got %d", nIn, len(c.X))
	}
	c.T = make([]tfhe.Ciphertext, nInt)
	for i := range c.T {
		c.T[i] = tfhe.NewTrivial(false)
	}
	c.Y = make([]tfhe.Ciphertext, nOut)
	for i := range c.Y {
		c.Y[i] = tfhe.NewTrivial(false)
	}
	c.offsetX, c.offsetT, c.offsetY = offsetIn, offsetInt, offsetOut

	lineNo := 1
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 5 {
			return fmt.Errorf("circuit: line %d: expected 5 fields (dst OP src1 GATE src2), got %d", lineNo, len(fields))
		}
		dstName, src1Name, gate, src2Name := fields[0], fields[2], fields[3], fields[4]

		src1, err := c.resolve(src1Name)
		if err != nil {
			return fmt.Errorf("circuit: line %d: %w", lineNo, err)
		}
		src2, err := c.resolve(src2Name)
		if err != nil {
			return fmt.Errorf("circuit: line %d: %w", lineNo, err)
		}

		result, err := eng.SimpleSum([]tfhe.Ciphertext{src1, src2}, sk)
		if err != nil {
			return fmt.Errorf("circuit: line %d: %w", lineNo, err)
		}
		switch gate {
		case "XOR":
		case "XNOR":
			result, err = eng.SimplePlaintextSum(result, 1, 2, sk)
			if err != nil {
				return fmt.Errorf("circuit: line %d: %w", lineNo, err)
			}
		default:
			return fmt.Errorf("circuit: line %d: unknown gate %q", lineNo, gate)
		}

		if err := c.assign(dstName, result); err != nil {
			return fmt.Errorf("circuit: line %d: %w", lineNo, err)
		}
	}
	return scanner.Err()
}

func (c *LinearCircuit) resolve(name string) (tfhe.Ciphertext, error) {
	kind, idx, err := splitName(name)
	if err != nil {
		return tfhe.Ciphertext{}, err
	}
	switch kind {
	case 'x':
		i := idx - c.offsetX
		if i < 0 || i >= len(c.X) {
			return tfhe.Ciphertext{}, fmt.Errorf("x index %d out of range", idx)
		}
		return c.X[i], nil
	case 't':
		i := idx - c.offsetT
		if i < 0 || i >= len(c.T) {
			return tfhe.Ciphertext{}, fmt.Errorf("t index %d out of range", idx)
		}
		return c.T[i], nil
	case 'y':
		i := idx - c.offsetY
		if i < 0 || i >= len(c.Y) {
			return tfhe.Ciphertext{}, fmt.Errorf("y index %d out of range", idx)
		}
		return c.Y[i], nil
	default:
		return tfhe.Ciphertext{}, fmt.Errorf("unrecognised operand name %q", name)
	}
}

func (c *LinearCircuit) assign(name string, value tfhe.Ciphertext) error {
	kind, idx, err := splitName(name)
	if err != nil {
		return err
	}
	switch kind {
	case 't':
		i := idx - c.offsetT
		if i < 0 || i >= len(c.T) {
			return fmt.Errorf("t index %d out of range", idx)
		}
		c.T[i] = value
		return nil
	case 'y':
		i := idx - c.offsetY
		if i < 0 || i >= len(c.Y) {
			return fmt.Errorf("y index %d out of range", idx)
		}
		c.Y[i] = value
		return nil
	default:
		return fmt.Errorf("destination operand must be t or y, got %q", name)
	}
}

func splitName(name string) (kind byte, idx int, err error) {
	if len(name) < 2 {
		return 0, 0, fmt.Errorf("malformed operand name %q", name)
	}
	n, err := strconv.Atoi(name[1:])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed operand name %q: %w", name, err)
	}
	return name[0], n, nil
}
