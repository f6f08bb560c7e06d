// Package smallvole implements the two-seed base VOLE that every column
// of the larger subspace VOLE is built from, plus the ChaCha-based
// pseudorandom expansion both the small VOLE and the Fiat-Shamir
// transcript rely on.
package smallvole

import (
	"golang.org/x/crypto/chacha20"

	"github.com/takakv/vole-zkp/field"
	"github.com/takakv/vole-zkp/linalg"
)

// ExpandSeed deterministically expands a 32-byte seed into n field
// elements using a ChaCha-family stream cipher, matching the protocol's
// seed-to-vector expansion. golang.org/x/crypto/chacha20 only exposes
// the full 20-round construction (no reduced-round variant), which this
// module standardizes on uniformly for both seed expansion and
// challenge expansion (fiatshamir); this only raises the margin over
// the nominal 12-round instantiation. The adversary cannot predict any
// output without knowing the seed.
func ExpandSeed(seed [32]byte, n int) (linalg.Vector, error) {
	var nonce [12]byte
	cipher, err := chacha20.NewUnauthenticatedCipher(seed[:], nonce[:])
	if err != nil {
		return nil, err
	}

	out := make(linalg.Vector, n)
	stream := &cipherReader{c: cipher}
	for i := 0; i < n; i++ {
		e, err := field.Random(stream)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

type cipherReader struct {
	c *chacha20.Cipher
}

func (r *cipherReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	r.c.XORKeyStream(p, p)
	return len(p), nil
}

// ProverOutputs holds one column's prover-side small VOLE output.
type ProverOutputs struct {
	U linalg.Vector
	V linalg.Vector
}

// VerifierOutputs holds one column's verifier-side small VOLE output.
type VerifierOutputs struct {
	Q     linalg.Vector
	Delta field.Element
}

// ProverOutput derives (u, v) from a seed pair and output length L:
// u = -(r0 + r1), v = r0, where r0, r1 are the ExpandSeed expansions of
// seed0 and seed1. With VerifierOutput's q = r_b for Δ = 0 and q = -r_b
// for Δ = 1 (b = Δ), this makes u·Δ + v = q hold for both bits.
func ProverOutput(seed0, seed1 [32]byte, length int) (ProverOutputs, error) {
	r0, err := ExpandSeed(seed0, length)
	if err != nil {
		return ProverOutputs{}, err
	}
	r1, err := ExpandSeed(seed1, length)
	if err != nil {
		return ProverOutputs{}, err
	}
	sum, err := linalg.Add(r0, r1)
	if err != nil {
		return ProverOutputs{}, err
	}
	u := linalg.ScalarMul(sum, field.Neg(field.One()))
	return ProverOutputs{U: u, V: r0}, nil
}

// VerifierOutput derives q from the single seed the verifier knows
// (s_{deltaBit}) and the bit deltaBit itself: q = r_b if deltaBit = 0,
// else -r_b.
func VerifierOutput(seedB [32]byte, deltaBit bool, length int) (VerifierOutputs, error) {
	rb, err := ExpandSeed(seedB, length)
	if err != nil {
		return VerifierOutputs{}, err
	}
	q := rb
	var delta field.Element
	if deltaBit {
		q = linalg.ScalarMul(rb, field.Neg(field.One()))
		delta = field.One()
	} else {
		delta = field.Zero()
	}
	return VerifierOutputs{Q: q, Delta: delta}, nil
}
