// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

package circuit

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fhecore/tfhe"
)

// GadgetRow is one parsed row of a gadget table: a named gadget, the
// names of the ciphertexts it reads (in the order its linear
// coefficients apply), and the gadget itself.
type GadgetRow struct {
	Name   string
	Leaves []string
	Gadget *tfhe.Gadget
}

// GadgetTable is a topologically ordered sequence of gadget rows,
// parsed from the §6 CSV format: `name;[q0,q1,...];[leaf0,...];p;
// [tt0,tt1,...]`, semicolon-separated, no header. A row may name a
// leaf introduced by an earlier row in the same table (an S-box's
// output feeding a later row), which is why rows must be evaluated in
// file order.
type GadgetTable struct {
	Rows []GadgetRow
}

// ParseGadgetTable reads a GadgetTable from r.
func ParseGadgetTable(r io.Reader) (*GadgetTable, error) {
	scanner := bufio.NewScanner(r)
	table := &GadgetTable{}
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, ";")
		if len(fields) != 5 {
			return nil, fmt.Errorf("circuit: gadget table line %d: expected 5 fields, got %d", lineNo, len(fields))
		}
		name := strings.TrimSpace(fields[0])
		q, err := parseUintList(fields[1])
		if err != nil {
			return nil, fmt.Errorf("circuit: gadget table line %d: q: %w", lineNo, err)
		}
		leaves, err := parseNameList(fields[2])
		if err != nil {
			return nil, fmt.Errorf("circuit: gadget table line %d: leaves: %w", lineNo, err)
		}
		pRaw, err := parseUintList(fields[3])
		if err != nil || len(pRaw) != 1 {
			return nil, fmt.Errorf("circuit: gadget table line %d: p: malformed", lineNo)
		}
		p := pRaw[0]
		ttRaw, err := parseUintList(fields[4])
		if err != nil {
			return nil, fmt.Errorf("circuit: gadget table line %d: truth table: %w", lineNo, err)
		}
		if len(q) != len(leaves) {
			return nil, fmt.Errorf("circuit: gadget table line %d: %d coefficients but %d leaves", lineNo, len(q), len(leaves))
		}
		k := len(q)
		if len(ttRaw) != 1<<k {
			return nil, fmt.Errorf("circuit: gadget table line %d: truth table has %d entries, expected %d for k=%d", lineNo, len(ttRaw), 1<<k, k)
		}
		tt := make([]bool, len(ttRaw))
		for i, v := range ttRaw {
			tt[i] = v == 1
		}

		g, err := tfhe.NewCanonicalGadget(q, 1, p, p, func(bits []bool) bool {
			x := 0
			for i, b := range bits {
				if b {
					x |= 1 << uint(i)
				}
			}
			return tt[x]
		})
		if err != nil {
			return nil, fmt.Errorf("circuit: gadget table line %d: %w", lineNo, err)
		}
		table.Rows = append(table.Rows, GadgetRow{Name: name, Leaves: leaves, Gadget: g})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

// parseUintList parses "[a,b,c]" into []tfhe.ZpElem.
func parseUintList(s string) ([]tfhe.ZpElem, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]tfhe.ZpElem, len(parts))
	for i, p := range parts {
		n, err := strconv.ParseUint(strings.TrimSpace(p), 10, 32)
		if err != nil {
			return nil, err
		}
		out[i] = tfhe.ZpElem(n)
	}
	return out, nil
}

// parseNameList parses "[x0,x1,t2]" into a slice of operand names.
func parseNameList(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out, nil
}

// Eval evaluates every row of t in file order against env, a
// name-to-ciphertext map seeded with the circuit's inputs; each row's
// output is stored back into env under its own Name, making it
// available as a leaf for later rows.
func (t *GadgetTable) Eval(env map[string]tfhe.Ciphertext, eng *tfhe.Engine, sk *tfhe.ServerKey) error {
	for _, row := range t.Rows {
		inputs := make([]tfhe.Ciphertext, len(row.Leaves))
		for i, leaf := range row.Leaves {
			c, ok := env[leaf]
			if !ok {
				return fmt.Errorf("circuit: gadget row %q: unresolved leaf %q", row.Name, leaf)
			}
			inputs[i] = c
		}
		coeffs := row.Gadget.Coeffs
		cast, err := eng.CastBeforeGadget(coeffs, inputs, sk)
		if err != nil {
			return fmt.Errorf("circuit: gadget row %q: %w", row.Name, err)
		}
		out, err := eng.Exec(row.Gadget, cast, sk)
		if err != nil {
			return fmt.Errorf("circuit: gadget row %q: %w", row.Name, err)
		}
		env[row.Name] = out
	}
	return nil
}
