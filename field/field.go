// Package field wraps the BN254 scalar field for use throughout the
// prover and verifier. All arithmetic in this module happens modulo the
// BN254 curve order; there is deliberately only one concrete field type
// rather than a generic parameter, since every component here targets
// exactly this field.
package field

import (
	"io"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Element is a BN254 scalar field element.
type Element = fr.Element

// Bytes is the canonical wire size of a field element.
const Bytes = fr.Bytes

// Zero returns the additive identity.
func Zero() Element {
	var e Element
	e.SetZero()
	return e
}

// One returns the multiplicative identity.
func One() Element {
	var e Element
	e.SetOne()
	return e
}

// Add returns a + b.
func Add(a, b Element) Element {
	var r Element
	r.Add(&a, &b)
	return r
}

// Sub returns a - b.
func Sub(a, b Element) Element {
	var r Element
	r.Sub(&a, &b)
	return r
}

// Mul returns a * b.
func Mul(a, b Element) Element {
	var r Element
	r.Mul(&a, &b)
	return r
}

// Neg returns -a.
func Neg(a Element) Element {
	var r Element
	r.Neg(&a)
	return r
}

// Inverse returns a^-1. The zero element has no inverse; callers must
// not invoke this on zero.
func Inverse(a Element) Element {
	var r Element
	r.Inverse(&a)
	return r
}

// FromUint64 builds a field element from a small non-negative integer.
func FromUint64(v uint64) Element {
	var e Element
	e.SetUint64(v)
	return e
}

// FromBytes interprets b as a big-endian unsigned integer and reduces
// it modulo the field order.
func FromBytes(b []byte) Element {
	var e Element
	e.SetBytes(b)
	return e
}

// ToBytes returns the canonical big-endian encoding gnark-crypto uses
// for fr.Element, 32 bytes wide.
func ToBytes(e Element) [Bytes]byte {
	return e.Bytes()
}

// Random draws a uniformly distributed field element by rejection
// sampling 32-byte draws from r until one falls below the field
// modulus. r is expected to be a CSPRNG stream (a ChaCha20 keystream in
// this module); biased or short reads would bias the resulting
// element.
func Random(r io.Reader) (Element, error) {
	var buf [Bytes]byte
	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return Element{}, err
		}
		var e Element
		// SetBytesCanonical rejects encodings outside [0, modulus).
		if err := e.SetBytesCanonical(buf[:]); err == nil {
			return e, nil
		}
	}
}

// Modulus returns the BN254 scalar field modulus.
func Modulus() *big.Int {
	return new(big.Int).Set(fr.Modulus())
}

// SignedNorm returns the signed representative of e in the range
// (-p/2, p/2], for pretty-printing and serialization contexts that
// want small-magnitude signed integers rather than the unsigned
// residue e.BigInt would give directly.
func SignedNorm(e Element) *big.Int {
	v := new(big.Int)
	e.BigInt(v)
	half := new(big.Int).Rsh(fr.Modulus(), 1)
	if v.Cmp(half) > 0 {
		v.Sub(v, fr.Modulus())
	}
	return v
}

// IsZero reports whether e is the additive identity.
func IsZero(e Element) bool {
	return e.IsZero()
}

// Equal reports whether a and b represent the same field element.
func Equal(a, b Element) bool {
	return a.Equal(&b)
}
