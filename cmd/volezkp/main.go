// Command volezkp is a minimal CLI around package core: it reads a
// circom-compatible .r1cs circuit and a .wtns witness, runs the prover
// or verifier, and prints the elapsed time for each.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/takakv/vole-zkp/core"
	"github.com/takakv/vole-zkp/field"
	"github.com/takakv/vole-zkp/r1csfile"
	"github.com/takakv/vole-zkp/witnessfile"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: volezkp <prove|verify> [flags]")
	flag.PrintDefaults()
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)

	switch os.Args[1] {
	case "prove":
		if err := runProve(os.Args[2:], logger); err != nil {
			logger.Fatalf("prove: %v", err)
		}
	case "verify":
		if err := runVerify(os.Args[2:], logger); err != nil {
			logger.Fatalf("verify: %v", err)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func runProve(args []string, logger *log.Logger) error {
	fs := flag.NewFlagSet("prove", flag.ExitOnError)
	circuitPath := fs.String("circuit", "", "path to the .r1cs circuit")
	witnessPath := fs.String("witness", "", "path to the .wtns witness")
	proofPath := fs.String("proof", "proof.bin", "output path for the gob-encoded proof")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *circuitPath == "" || *witnessPath == "" {
		return fmt.Errorf("both -circuit and -witness are required")
	}

	circuitFile, err := r1csfile.ParseFile(*circuitPath)
	if err != nil {
		return fmt.Errorf("parsing circuit: %w", err)
	}
	witness, err := witnessfile.ParseFile(*witnessPath)
	if err != nil {
		return fmt.Errorf("parsing witness: %w", err)
	}

	start := time.Now()
	uncommitted, err := core.NewProver(circuitFile.System, witness, logger)
	if err != nil {
		return fmt.Errorf("setting up prover: %w", err)
	}
	committed, err := uncommitted.MkVOLE()
	if err != nil {
		return fmt.Errorf("running subspace VOLE: %w", err)
	}
	proof, err := committed.Prove()
	if err != nil {
		return fmt.Errorf("computing proof: %w", err)
	}
	proveTime := time.Since(start)

	data, err := proof.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encoding proof: %w", err)
	}
	if err := os.WriteFile(*proofPath, data, 0o644); err != nil {
		return fmt.Errorf("writing proof: %w", err)
	}

	digest := proof.Digest()
	fmt.Println("Prove time:", proveTime)
	fmt.Printf("Proof digest: %x\n", digest)
	fmt.Println("Proof written to", *proofPath)
	return nil
}

func runVerify(args []string, logger *log.Logger) error {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	circuitPath := fs.String("circuit", "", "path to the .r1cs circuit")
	proofPath := fs.String("proof", "proof.bin", "path to the gob-encoded proof")
	publicPath := fs.String("public", "", "path to a .wtns file holding only the asserted public wire values, outputs then inputs")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *circuitPath == "" || *publicPath == "" {
		return fmt.Errorf("both -circuit and -public are required")
	}

	circuitFile, err := r1csfile.ParseFile(*circuitPath)
	if err != nil {
		return fmt.Errorf("parsing circuit: %w", err)
	}
	publicValues, err := witnessfile.ParseFile(*publicPath)
	if err != nil {
		return fmt.Errorf("parsing public values: %w", err)
	}

	data, err := os.ReadFile(*proofPath)
	if err != nil {
		return fmt.Errorf("reading proof: %w", err)
	}
	var proof core.Proof
	if err := proof.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("decoding proof: %w", err)
	}

	start := time.Now()
	verifier, err := core.NewVerifier(circuitFile.System)
	if err != nil {
		return fmt.Errorf("setting up verifier: %w", err)
	}
	echoed, err := verifier.Verify(proof, []field.Element(publicValues))
	verifyTime := time.Since(start)
	if err != nil {
		fmt.Println("Verify time:", verifyTime)
		return fmt.Errorf("verification failed: %w", err)
	}

	fmt.Println("Verify time:", verifyTime)
	fmt.Println("Proof accepted, public values:", len(echoed))
	return nil
}
