// Copyright (c) 2025, Lux Industries Inc
// SPDX-License-Identifier: BSD-3-Clause

// Command gadgetctl drives the gadget evaluator from the command
// line: generate a key pair for a named or file-defined parameter set,
// then run one of the bundled demo circuits against it.
package main

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fhecore/tfhe"
	"github.com/fhecore/tfhe/circuit"
	"github.com/fhecore/tfhe/demo"
)

var namedParams = map[string]tfhe.ParametersLiteral{
	"default":       tfhe.DefaultParameters,
	"simon":         tfhe.SimonParameters,
	"simon23":       tfhe.SimonParameters23,
	"simon40":       tfhe.SimonParameters40,
	"zama-trivium":  tfhe.ZamaTriviumParameters,
	"ascon":         tfhe.AsconParameters,
	"ascon40":       tfhe.AsconParameters40,
	"sha3":          tfhe.Sha3Parameters,
	"sha3-40":       tfhe.Sha3Parameters40,
	"aes":           tfhe.AesParameters,
	"aes40":         tfhe.AesParameters40,
	"aes23":         tfhe.AesParameters23,
	"tfhe-lib":      tfhe.TFHELibParameters,
}

func main() {
	paramName := flag.String("params", "ascon", "named parameter set (see -list) or path to a YAML file")
	listParams := flag.Bool("list", false, "list named parameter sets and exit")
	circuitName := flag.String("demo", "ascon-sbox", "demo circuit to run: ascon-sbox")
	flag.Parse()

	if *listParams {
		for name := range namedParams {
			fmt.Fprintln(os.Stdout, name)
		}
		return
	}

	lit, err := resolveParams(*paramName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gadgetctl: %v\n", err)
		os.Exit(1)
	}

	if err := run(*circuitName, lit); err != nil {
		fmt.Fprintf(os.Stderr, "gadgetctl: %v\n", err)
		os.Exit(1)
	}
}

func resolveParams(name string) (tfhe.ParametersLiteral, error) {
	if lit, ok := namedParams[name]; ok {
		return lit, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return tfhe.ParametersLiteral{}, fmt.Errorf("unknown parameter set %q and no such file: %w", name, err)
	}
	var lit tfhe.ParametersLiteral
	if err := yaml.Unmarshal(data, &lit); err != nil {
		return tfhe.ParametersLiteral{}, fmt.Errorf("parse parameter file %q: %w", name, err)
	}
	return lit, nil
}

func run(circuitName string, lit tfhe.ParametersLiteral) error {
	params, err := lit.Compile()
	if err != nil {
		return fmt.Errorf("compile parameters: %w", err)
	}

	switch circuitName {
	case "ascon-sbox":
		return runAsconSbox(params)
	default:
		return fmt.Errorf("unknown demo circuit %q", circuitName)
	}
}

func runAsconSbox(params tfhe.Parameters) error {
	seeder, err := tfhe.NewRootSeeder()
	if err != nil {
		return fmt.Errorf("seed engine: %w", err)
	}
	eng := tfhe.NewEngine(seeder)

	cks, err := eng.CreateClientKey(params)
	if err != nil {
		return fmt.Errorf("create client key: %w", err)
	}
	order := tfhe.BootstrapThenKeyswitch
	if params.EncryptUnderBigKey() {
		order = tfhe.KeyswitchThenBootstrap
	}
	sk, err := eng.CreateServerKey(cks, order)
	if err != nil {
		return fmt.Errorf("create server key: %w", err)
	}

	encoding, err := tfhe.NewCanonicalBoolean(1, 17)
	if err != nil {
		return fmt.Errorf("build encoding: %w", err)
	}

	message := []bool{true, true, false, false, false}
	bits := make([]tfhe.Ciphertext, len(message))
	for i, b := range message {
		c, err := eng.EncryptBoolean(b, encoding, cks)
		if err != nil {
			return fmt.Errorf("encrypt state bit %d: %w", i, err)
		}
		bits[i] = c
	}

	gadgets, err := demo.BuildAsconSbox()
	if err != nil {
		return fmt.Errorf("build ascon sbox: %w", err)
	}
	state := &circuit.State{Bits: bits, SizeState: len(bits)}
	result, err := demo.EvalAsconSbox(gadgets, state, eng, sk)
	if err != nil {
		return fmt.Errorf("eval ascon sbox: %w", err)
	}

	for i, c := range result.Bits {
		v, err := eng.Decrypt(c, cks)
		if err != nil {
			return fmt.Errorf("decrypt result bit %d: %w", i, err)
		}
		fmt.Fprintf(os.Stdout, "%d", v)
	}
	fmt.Fprintln(os.Stdout)
	return nil
}
